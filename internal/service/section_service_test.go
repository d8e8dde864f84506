package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type mockSectionWriter struct {
	sections map[int64]*models.Section
	byCode   map[string]*models.Section
	teachers [][2]int64
	nextID   int64
}

func (m *mockSectionWriter) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSectionWriter) FindByEnrollCode(ctx context.Context, code string) (*models.Section, error) {
	if m.byCode == nil {
		return nil, nil
	}
	return m.byCode[code], nil
}

func (m *mockSectionWriter) Create(ctx context.Context, section *models.Section) error {
	m.nextID++
	section.ID = m.nextID
	if m.sections == nil {
		m.sections = make(map[int64]*models.Section)
	}
	m.sections[section.ID] = section
	return nil
}

func (m *mockSectionWriter) AddTeacher(ctx context.Context, sectionID, teacherID int64) error {
	m.teachers = append(m.teachers, [2]int64{sectionID, teacherID})
	return nil
}

type mockCourseFinder struct {
	courses  map[int64]*models.Course
	topics   []models.Topic
	concepts []models.Concept
}

func (m *mockCourseFinder) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseFinder) ListTopicsByCourse(ctx context.Context, courseID int64) ([]models.Topic, error) {
	return m.topics, nil
}

func (m *mockCourseFinder) ListConceptsByTopicIDs(ctx context.Context, topicIDs []int64) ([]models.Concept, error) {
	return m.concepts, nil
}

type mockPointWriter struct {
	bySection map[int64][]models.Point
	created   []models.Point
}

func (m *mockPointWriter) ListBySection(ctx context.Context, sectionID int64) ([]models.Point, error) {
	return m.bySection[sectionID], nil
}

func (m *mockPointWriter) CreateBulk(ctx context.Context, points []models.Point) error {
	m.created = append(m.created, points...)
	return nil
}

type mockSectionEnrollmentLister struct {
	bySection map[int64][]models.Enrollment
}

func (m *mockSectionEnrollmentLister) ListActiveBySection(ctx context.Context, sectionID int64) ([]models.Enrollment, error) {
	return m.bySection[sectionID], nil
}

func TestCreateSection(t *testing.T) {
	sections := &mockSectionWriter{}
	courses := &mockCourseFinder{courses: map[int64]*models.Course{3: {ID: 3, Name: "Algebra I"}}}
	svc := NewSectionService(sections, courses, &mockPointWriter{}, &mockSectionEnrollmentLister{}, nil, nil, nil, zap.NewNop())

	section, err := svc.Create(context.Background(), 9, CreateSectionRequest{CourseID: 3, SemesterID: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(3), section.CourseID)
	assert.Equal(t, int64(1), section.SemesterID)
	assert.Len(t, section.EnrollCode, enrollCodeLength)
	require.Len(t, sections.teachers, 1)
	assert.Equal(t, [2]int64{section.ID, 9}, sections.teachers[0])
}

func TestCreateSectionUnknownCourse(t *testing.T) {
	svc := NewSectionService(&mockSectionWriter{}, &mockCourseFinder{}, &mockPointWriter{}, &mockSectionEnrollmentLister{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), 9, CreateSectionRequest{CourseID: 404, SemesterID: 1})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGenerateEnrollCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := generateEnrollCode()
		require.NoError(t, err)
		assert.Len(t, code, enrollCodeLength)
		assert.Equal(t, strings.ToUpper(code), code)
		seen[code] = struct{}{}
	}
	// 50 draws from a 40-bit space should not collide.
	assert.Len(t, seen, 50)
}

func TestConfigurePoints(t *testing.T) {
	sections := &mockSectionWriter{sections: map[int64]*models.Section{7: {ID: 7, CourseID: 3}}}
	courses := &mockCourseFinder{
		topics:   []models.Topic{{ID: 1, CourseID: 3}},
		concepts: []models.Concept{{ID: 10, TopicID: 1}, {ID: 11, TopicID: 1}},
	}
	points := &mockPointWriter{}
	enrollments := &mockSectionEnrollmentLister{bySection: map[int64][]models.Enrollment{7: {{StudentID: 4}}}}
	svc := NewSectionService(sections, courses, points, enrollments, nil, nil, nil, zap.NewNop())

	created, err := svc.ConfigurePoints(context.Background(), 7, ConfigurePointsRequest{CheckPointsPerConcept: 3, TestPointsPerConcept: 1})

	require.NoError(t, err)
	// 2 concepts x (3 check + 1 test) points.
	assert.Len(t, created, 8)
	assert.Len(t, points.created, 8)

	var checks, tests int
	for _, p := range created {
		assert.Equal(t, int64(7), p.SectionID)
		if p.IsTestPoint {
			tests++
		} else {
			checks++
		}
	}
	assert.Equal(t, 6, checks)
	assert.Equal(t, 2, tests)
}

func TestConfigurePointsRequiresConcepts(t *testing.T) {
	sections := &mockSectionWriter{sections: map[int64]*models.Section{7: {ID: 7, CourseID: 3}}}
	svc := NewSectionService(sections, &mockCourseFinder{}, &mockPointWriter{}, &mockSectionEnrollmentLister{}, nil, nil, nil, zap.NewNop())

	_, err := svc.ConfigurePoints(context.Background(), 7, ConfigurePointsRequest{CheckPointsPerConcept: 1})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfigurePointsRejectsEmptyRequest(t *testing.T) {
	svc := NewSectionService(&mockSectionWriter{}, &mockCourseFinder{}, &mockPointWriter{}, &mockSectionEnrollmentLister{}, nil, nil, nil, zap.NewNop())

	_, err := svc.ConfigurePoints(context.Background(), 7, ConfigurePointsRequest{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

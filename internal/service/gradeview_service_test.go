package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
)

type mockSectionFinder struct {
	section *models.Section
}

func (m *mockSectionFinder) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	return m.section, nil
}

type mockCurriculumReader struct {
	topics   []models.Topic
	concepts []models.Concept
}

func (m *mockCurriculumReader) ListTopicsByCourse(ctx context.Context, courseID int64) ([]models.Topic, error) {
	return m.topics, nil
}

func (m *mockCurriculumReader) ListConceptsByTopicIDs(ctx context.Context, topicIDs []int64) ([]models.Concept, error) {
	return m.concepts, nil
}

type mockPointReader struct {
	points []models.Point
}

func (m *mockPointReader) ListBySection(ctx context.Context, sectionID int64) ([]models.Point, error) {
	return m.points, nil
}

type mockStudentPointReader struct {
	rows []models.StudentPoint
}

func (m *mockStudentPointReader) ListByStudentAndPoints(ctx context.Context, studentID int64, pointIDs []int64) ([]models.StudentPoint, error) {
	return m.rows, nil
}

func compilerFixture(studentRows []models.StudentPoint) *GradeViewService {
	return NewGradeViewService(
		&mockSectionFinder{section: &models.Section{ID: 7, CourseID: 3, SemesterID: 1}},
		&mockCurriculumReader{
			topics: []models.Topic{
				{ID: 1, CourseID: 3, Name: "Linear Equations", Position: 1},
				{ID: 2, CourseID: 3, Name: "Quadratics", Position: 2},
			},
			concepts: []models.Concept{
				{ID: 10, TopicID: 1, Name: "Slope", Position: 1},
				{ID: 11, TopicID: 2, Name: "Factoring", Position: 1},
			},
		},
		&mockPointReader{points: []models.Point{
			{ID: 100, ConceptID: 10, SectionID: 7, IsTestPoint: false},
			{ID: 101, ConceptID: 10, SectionID: 7, IsTestPoint: true},
			{ID: 102, ConceptID: 11, SectionID: 7, IsTestPoint: false},
		}},
		&mockStudentPointReader{rows: studentRows},
		nil,
		zap.NewNop(),
	)
}

func TestCompileSynthesizesNotAttempted(t *testing.T) {
	svc := compilerFixture(nil)

	view, err := svc.Compile(context.Background(), 7, 4)

	require.NoError(t, err)
	require.Len(t, view.Topics, 2)
	for _, topic := range view.Topics {
		for _, concept := range topic.Concepts {
			for _, point := range concept.Points {
				assert.Nil(t, point.StudentPointID)
				assert.Equal(t, models.StatusNotAttempted, point.StatusID)
				assert.Equal(t, "Not Attempted", point.StatusLabel)
				assert.Nil(t, point.LastUpdated)
			}
		}
	}
}

func TestCompileAnnotatesExistingRows(t *testing.T) {
	updated := time.Date(2024, 10, 3, 15, 0, 0, 0, time.UTC)
	svc := compilerFixture([]models.StudentPoint{
		{ID: 55, PointID: 101, StudentID: 4, PointStatusID: models.StatusPassed, LastUpdated: updated},
	})

	view, err := svc.Compile(context.Background(), 7, 4)

	require.NoError(t, err)
	pv := view.FindByPointID(101)
	require.NotNil(t, pv)
	require.NotNil(t, pv.StudentPointID)
	assert.Equal(t, int64(55), *pv.StudentPointID)
	assert.Equal(t, models.StatusPassed, pv.StatusID)
	assert.Equal(t, "Attempted: Passed", pv.StatusLabel)
	require.NotNil(t, pv.LastUpdated)
	assert.Equal(t, updated, *pv.LastUpdated)

	// The untouched sibling still shows the synthesized default.
	other := view.FindByPointID(100)
	require.NotNil(t, other)
	assert.Equal(t, models.StatusNotAttempted, other.StatusID)
}

func TestCompileIsIdempotent(t *testing.T) {
	svc := compilerFixture([]models.StudentPoint{
		{ID: 55, PointID: 101, StudentID: 4, PointStatusID: models.StatusFailed, LastUpdated: time.Now().UTC()},
	})

	first, err := svc.Compile(context.Background(), 7, 4)
	require.NoError(t, err)
	second, err := svc.Compile(context.Background(), 7, 4)
	require.NoError(t, err)

	assert.Equal(t, first.Topics, second.Topics)
	assert.Equal(t, first.SectionID, second.SectionID)
	assert.Equal(t, first.StudentID, second.StudentID)
}

func TestCompileEmptySectionIsValid(t *testing.T) {
	svc := NewGradeViewService(
		&mockSectionFinder{section: &models.Section{ID: 7, CourseID: 3}},
		&mockCurriculumReader{},
		&mockPointReader{},
		&mockStudentPointReader{},
		nil,
		zap.NewNop(),
	)

	view, err := svc.Compile(context.Background(), 7, 4)

	require.NoError(t, err)
	assert.NotNil(t, view.Topics)
	assert.Empty(t, view.Topics)
	assert.Equal(t, int64(7), view.SectionID)
	assert.Equal(t, int64(4), view.StudentID)
}

func TestCompilePartitionsCheckAndTestPoints(t *testing.T) {
	svc := compilerFixture(nil)

	view, err := svc.Compile(context.Background(), 7, 4)

	require.NoError(t, err)
	slope := view.Topics[0].Concepts[0]
	assert.Len(t, slope.CheckPoints(), 1)
	assert.Len(t, slope.TestPoints(), 1)
	assert.Equal(t, int64(100), slope.CheckPoints()[0].PointID)
	assert.Equal(t, int64(101), slope.TestPoints()[0].PointID)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type mockSectionReader struct {
	sections   map[int64]models.Section
	byTeacher  map[int64][]models.Section
	teacherIDs map[int64][]int64
}

func (m *mockSectionReader) FindByIDs(ctx context.Context, ids []int64) ([]models.Section, error) {
	var out []models.Section
	for _, id := range ids {
		if s, ok := m.sections[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSectionReader) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Section, error) {
	return m.byTeacher[teacherID], nil
}

func (m *mockSectionReader) ListTeacherIDs(ctx context.Context, sectionID int64) ([]int64, error) {
	return m.teacherIDs[sectionID], nil
}

type mockCourseReader struct {
	courses   map[int64]models.Course
	byCreator map[int64][]models.Course
}

func (m *mockCourseReader) FindByIDs(ctx context.Context, ids []int64) ([]models.Course, error) {
	var out []models.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseReader) ListByCreator(ctx context.Context, creatorID int64) ([]models.Course, error) {
	return m.byCreator[creatorID], nil
}

type mockSemesterReader struct {
	semesters map[int64]models.Semester
}

func (m *mockSemesterReader) FindByIDs(ctx context.Context, ids []int64) ([]models.Semester, error) {
	var out []models.Semester
	for _, id := range ids {
		if s, ok := m.semesters[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockEnrollmentReader struct {
	byStudent map[int64][]models.Enrollment
	bySection map[int64][]models.Enrollment
}

func (m *mockEnrollmentReader) ListActiveByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	return m.byStudent[studentID], nil
}

func (m *mockEnrollmentReader) ListActiveBySection(ctx context.Context, sectionID int64) ([]models.Enrollment, error) {
	return m.bySection[sectionID], nil
}

type mockUserBatchReader struct {
	users map[int64]models.User
}

func (m *mockUserBatchReader) FindByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestCompileSectionPreviews(t *testing.T) {
	svc := NewAssemblerService(nil, nil, nil, nil, nil, nil, zap.NewNop())

	sections := []models.Section{{ID: 7, CourseID: 3, SemesterID: 1, EnrollCode: "XKCD1234"}}
	courses := []models.Course{{ID: 3, Subject: "Math", Identifier: "MATH-101", Name: "Algebra I", CreatorID: 9}}
	semesters := []models.Semester{{ID: 1, Season: "Fall", Year: 2024}}

	previews := svc.CompileSectionPreviews(sections, courses, semesters)

	require.Len(t, previews, 1)
	assert.Equal(t, models.SectionPreview{
		SectionID:  7,
		EnrollCode: "XKCD1234",
		CourseID:   3,
		CourseName: "Algebra I",
		Subject:    "Math",
		Identifier: "MATH-101",
		SemesterID: 1,
		Season:     "Fall",
		Year:       2024,
	}, previews[0])
}

func TestCompileSectionPreviewsSkipsOrphans(t *testing.T) {
	svc := NewAssemblerService(nil, nil, nil, nil, nil, nil, zap.NewNop())

	sections := []models.Section{
		{ID: 1, CourseID: 3, SemesterID: 1},
		{ID: 2, CourseID: 99, SemesterID: 1}, // course missing
		{ID: 3, CourseID: 3, SemesterID: 42}, // semester missing
		{ID: 4, CourseID: 3, SemesterID: 1},
	}
	courses := []models.Course{{ID: 3, Name: "Algebra I"}}
	semesters := []models.Semester{{ID: 1, Season: "Fall", Year: 2024}}

	previews := svc.CompileSectionPreviews(sections, courses, semesters)

	require.Len(t, previews, 2)
	assert.Equal(t, int64(1), previews[0].SectionID)
	assert.Equal(t, int64(4), previews[1].SectionID)
}

func TestCompileSectionPreviewsStrict(t *testing.T) {
	svc := NewAssemblerService(nil, nil, nil, nil, nil, nil, zap.NewNop())

	sections := []models.Section{{ID: 2, CourseID: 99, SemesterID: 1}}
	semesters := []models.Semester{{ID: 1, Season: "Fall", Year: 2024}}

	_, err := svc.CompileSectionPreviewsStrict(sections, nil, semesters)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIntegrityGap.Code, appErrors.FromError(err).Code)
}

func TestCompileSectionPreviewsPreservesInputOrder(t *testing.T) {
	svc := NewAssemblerService(nil, nil, nil, nil, nil, nil, zap.NewNop())

	sections := []models.Section{
		{ID: 5, CourseID: 1, SemesterID: 1},
		{ID: 2, CourseID: 2, SemesterID: 1},
		{ID: 9, CourseID: 1, SemesterID: 1},
	}
	courses := []models.Course{{ID: 1}, {ID: 2}}
	semesters := []models.Semester{{ID: 1}}

	previews := svc.CompileSectionPreviews(sections, courses, semesters)

	require.Len(t, previews, 3)
	assert.Equal(t, int64(5), previews[0].SectionID)
	assert.Equal(t, int64(2), previews[1].SectionID)
	assert.Equal(t, int64(9), previews[2].SectionID)
}

func TestTeacherData(t *testing.T) {
	sections := &mockSectionReader{
		sections:  map[int64]models.Section{},
		byTeacher: map[int64][]models.Section{9: {{ID: 7, CourseID: 3, SemesterID: 1, EnrollCode: "AAAA0000"}}},
	}
	courses := &mockCourseReader{
		courses:   map[int64]models.Course{3: {ID: 3, Name: "Algebra I", Subject: "Math", Identifier: "MATH-101", CreatorID: 9}},
		byCreator: map[int64][]models.Course{9: {{ID: 3, Name: "Algebra I", CreatorID: 9}}},
	}
	semesters := &mockSemesterReader{semesters: map[int64]models.Semester{1: {ID: 1, Season: "Fall", Year: 2024}}}

	svc := NewAssemblerService(sections, courses, semesters, &mockEnrollmentReader{}, &mockUserBatchReader{}, nil, zap.NewNop())

	data, err := svc.TeacherData(context.Background(), 9)

	require.NoError(t, err)
	require.Len(t, data.Sections, 1)
	assert.Equal(t, "Algebra I", data.Sections[0].CourseName)
	assert.Equal(t, "Fall", data.Sections[0].Season)
	require.Len(t, data.CoursesCreated, 1)
}

func TestStudentData(t *testing.T) {
	sections := &mockSectionReader{
		sections: map[int64]models.Section{7: {ID: 7, CourseID: 3, SemesterID: 1, EnrollCode: "AAAA0000"}},
	}
	courses := &mockCourseReader{courses: map[int64]models.Course{3: {ID: 3, Name: "Algebra I"}}}
	semesters := &mockSemesterReader{semesters: map[int64]models.Semester{1: {ID: 1, Season: "Fall", Year: 2024}}}
	enrollments := &mockEnrollmentReader{byStudent: map[int64][]models.Enrollment{4: {{ID: 11, SectionID: 7, StudentID: 4}}}}

	svc := NewAssemblerService(sections, courses, semesters, enrollments, &mockUserBatchReader{}, nil, zap.NewNop())

	data, err := svc.StudentData(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, data.Sections, 1)
	assert.Equal(t, int64(7), data.Sections[0].SectionID)
}

func TestStudentDataEmptyEnrollments(t *testing.T) {
	svc := NewAssemblerService(&mockSectionReader{}, &mockCourseReader{}, &mockSemesterReader{}, &mockEnrollmentReader{}, &mockUserBatchReader{}, nil, zap.NewNop())

	data, err := svc.StudentData(context.Background(), 4)

	require.NoError(t, err)
	assert.Empty(t, data.Sections)
}

func TestRoster(t *testing.T) {
	sections := &mockSectionReader{teacherIDs: map[int64][]int64{7: {9}}}
	enrollments := &mockEnrollmentReader{bySection: map[int64][]models.Enrollment{7: {
		{ID: 1, SectionID: 7, StudentID: 4},
		{ID: 2, SectionID: 7, StudentID: 5},
	}}}
	users := &mockUserBatchReader{users: map[int64]models.User{
		4: {ID: 4, FirstName: "Ada", LastName: "Byron", UserTypeID: models.RoleStudent},
		5: {ID: 5, FirstName: "Alan", LastName: "Turing", UserTypeID: models.RoleStudent},
		9: {ID: 9, FirstName: "Grace", LastName: "Hopper", UserTypeID: models.RoleTeacher},
	}}

	svc := NewAssemblerService(sections, &mockCourseReader{}, &mockSemesterReader{}, enrollments, users, nil, zap.NewNop())

	roster, err := svc.Roster(context.Background(), 7)

	require.NoError(t, err)
	assert.Len(t, roster.Students, 2)
	require.Len(t, roster.Teachers, 1)
	assert.Equal(t, "Grace Hopper", roster.Teachers[0].FullName())
}

func TestSectionPreviewNotFound(t *testing.T) {
	svc := NewAssemblerService(&mockSectionReader{}, &mockCourseReader{}, &mockSemesterReader{}, &mockEnrollmentReader{}, &mockUserBatchReader{}, nil, zap.NewNop())

	_, err := svc.SectionPreview(context.Background(), 123)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

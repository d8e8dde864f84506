package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type sectionReader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Section, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Section, error)
	ListTeacherIDs(ctx context.Context, sectionID int64) ([]int64, error)
}

type courseReader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Course, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]models.Course, error)
}

type semesterReader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Semester, error)
}

type enrollmentReader interface {
	ListActiveByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error)
	ListActiveBySection(ctx context.Context, sectionID int64) ([]models.Enrollment, error)
}

type userBatchReader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

// AssemblerService joins independently fetched row sets into the
// denormalized views the screens render. All joins are hash-indexed by
// primary key; an orphaned foreign key is handled explicitly, never
// emitted as a blank field.
type AssemblerService struct {
	sections    sectionReader
	courses     courseReader
	semesters   semesterReader
	enrollments enrollmentReader
	users       userBatchReader
	cache       *CacheService
	logger      *zap.Logger
}

// NewAssemblerService constructs the assembler.
func NewAssemblerService(sections sectionReader, courses courseReader, semesters semesterReader, enrollments enrollmentReader, users userBatchReader, cache *CacheService, logger *zap.Logger) *AssemblerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssemblerService{
		sections:    sections,
		courses:     courses,
		semesters:   semesters,
		enrollments: enrollments,
		users:       users,
		cache:       cache,
		logger:      logger,
	}
}

// CompileSectionPreviews joins sections against courses and semesters.
// Pure over its inputs. Sections whose course or semester cannot be
// resolved are skipped and logged; output order follows the input
// sections. Use CompileSectionPreviewsStrict to fail on the first gap.
func (s *AssemblerService) CompileSectionPreviews(sections []models.Section, courses []models.Course, semesters []models.Semester) []models.SectionPreview {
	previews, _ := s.compilePreviews(sections, courses, semesters, false)
	return previews
}

// CompileSectionPreviewsStrict behaves like CompileSectionPreviews but
// returns ErrIntegrityGap on the first unresolved foreign key.
func (s *AssemblerService) CompileSectionPreviewsStrict(sections []models.Section, courses []models.Course, semesters []models.Semester) ([]models.SectionPreview, error) {
	return s.compilePreviews(sections, courses, semesters, true)
}

func (s *AssemblerService) compilePreviews(sections []models.Section, courses []models.Course, semesters []models.Semester, strict bool) ([]models.SectionPreview, error) {
	courseIdx := make(map[int64]models.Course, len(courses))
	for _, c := range courses {
		courseIdx[c.ID] = c
	}
	semesterIdx := make(map[int64]models.Semester, len(semesters))
	for _, sem := range semesters {
		semesterIdx[sem.ID] = sem
	}

	previews := make([]models.SectionPreview, 0, len(sections))
	for _, section := range sections {
		course, courseOK := courseIdx[section.CourseID]
		semester, semesterOK := semesterIdx[section.SemesterID]
		if !courseOK || !semesterOK {
			if strict {
				return nil, appErrors.Wrap(
					fmt.Errorf("section %d: course found=%t semester found=%t", section.ID, courseOK, semesterOK),
					appErrors.ErrIntegrityGap.Code, appErrors.ErrIntegrityGap.Status,
					"section references a missing course or semester",
				)
			}
			s.logger.Warn("skipping section with unresolved foreign key",
				zap.Int64("section_id", section.ID),
				zap.Int64("course_id", section.CourseID),
				zap.Int64("semester_id", section.SemesterID),
				zap.Bool("course_found", courseOK),
				zap.Bool("semester_found", semesterOK),
			)
			continue
		}
		previews = append(previews, models.SectionPreview{
			SectionID:  section.ID,
			EnrollCode: section.EnrollCode,
			CourseID:   course.ID,
			CourseName: course.Name,
			Subject:    course.Subject,
			Identifier: course.Identifier,
			SemesterID: semester.ID,
			Season:     semester.Season,
			Year:       semester.Year,
		})
	}
	return previews, nil
}

// CompileTeacherData wraps already-computed lists into one container.
func (s *AssemblerService) CompileTeacherData(previews []models.SectionPreview, coursesCreated []models.Course) models.TeacherData {
	if previews == nil {
		previews = []models.SectionPreview{}
	}
	if coursesCreated == nil {
		coursesCreated = []models.Course{}
	}
	return models.TeacherData{Sections: previews, CoursesCreated: coursesCreated}
}

// TeacherData loads and assembles a teacher's home screen: their section
// previews plus the courses they created. The course, semester, and
// created-course fetches are independent and run concurrently.
func (s *AssemblerService) TeacherData(ctx context.Context, teacherID int64) (*models.TeacherData, error) {
	cacheKey := fmt.Sprintf("previews:teacher:%d", teacherID)
	if s.cache.Enabled() {
		var cached models.TeacherData
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	sections, err := s.sections.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load sections")
	}

	var (
		wg             sync.WaitGroup
		courses        []models.Course
		semesters      []models.Semester
		coursesCreated []models.Course
		courseErr      error
		semesterErr    error
		createdErr     error
	)
	courseIDs, semesterIDs := sectionKeys(sections)

	wg.Add(3)
	go func() {
		defer wg.Done()
		courses, courseErr = s.courses.FindByIDs(ctx, courseIDs)
	}()
	go func() {
		defer wg.Done()
		semesters, semesterErr = s.semesters.FindByIDs(ctx, semesterIDs)
	}()
	go func() {
		defer wg.Done()
		coursesCreated, createdErr = s.courses.ListByCreator(ctx, teacherID)
	}()
	wg.Wait()

	if courseErr != nil {
		return nil, appErrors.Wrap(courseErr, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load courses")
	}
	if semesterErr != nil {
		return nil, appErrors.Wrap(semesterErr, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load semesters")
	}
	if createdErr != nil {
		return nil, appErrors.Wrap(createdErr, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load created courses")
	}

	previews := s.CompileSectionPreviews(sections, courses, semesters)
	data := s.CompileTeacherData(previews, coursesCreated)

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, data, 0)
	}
	return &data, nil
}

// StudentData loads and assembles a student's active section previews.
func (s *AssemblerService) StudentData(ctx context.Context, studentID int64) (*models.StudentData, error) {
	cacheKey := fmt.Sprintf("previews:student:%d", studentID)
	if s.cache.Enabled() {
		var cached models.StudentData
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load enrollments")
	}
	sectionIDs := make([]int64, 0, len(enrollments))
	for _, e := range enrollments {
		sectionIDs = append(sectionIDs, e.SectionID)
	}

	sections, err := s.sections.FindByIDs(ctx, sectionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load sections")
	}

	var (
		wg          sync.WaitGroup
		courses     []models.Course
		semesters   []models.Semester
		courseErr   error
		semesterErr error
	)
	courseIDs, semesterIDs := sectionKeys(sections)

	wg.Add(2)
	go func() {
		defer wg.Done()
		courses, courseErr = s.courses.FindByIDs(ctx, courseIDs)
	}()
	go func() {
		defer wg.Done()
		semesters, semesterErr = s.semesters.FindByIDs(ctx, semesterIDs)
	}()
	wg.Wait()

	if courseErr != nil {
		return nil, appErrors.Wrap(courseErr, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load courses")
	}
	if semesterErr != nil {
		return nil, appErrors.Wrap(semesterErr, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load semesters")
	}

	data := models.StudentData{Sections: s.CompileSectionPreviews(sections, courses, semesters)}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, data, 0)
	}
	return &data, nil
}

// SectionRoster contains the batched user lists for one section.
type SectionRoster struct {
	Students []models.User `json:"students"`
	Teachers []models.User `json:"teachers"`
}

// Roster loads a section's students and teachers with one IN query each.
func (s *AssemblerService) Roster(ctx context.Context, sectionID int64) (*SectionRoster, error) {
	enrollments, err := s.enrollments.ListActiveBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load enrollments")
	}
	studentIDs := make([]int64, 0, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.StudentID)
	}

	teacherIDs, err := s.sections.ListTeacherIDs(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load section teachers")
	}

	students, err := s.users.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load students")
	}
	teachers, err := s.users.FindByIDs(ctx, teacherIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load teachers")
	}

	return &SectionRoster{Students: students, Teachers: teachers}, nil
}

// SectionPreview assembles the preview for a single section. Uses the
// strict join: a caller asking for one specific section should hear about
// an integrity gap rather than get an empty result.
func (s *AssemblerService) SectionPreview(ctx context.Context, sectionID int64) (*models.SectionPreview, error) {
	sections, err := s.sections.FindByIDs(ctx, []int64{sectionID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load section")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}

	courseIDs, semesterIDs := sectionKeys(sections)
	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load course")
	}
	semesters, err := s.semesters.FindByIDs(ctx, semesterIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load semester")
	}

	previews, err := s.CompileSectionPreviewsStrict(sections, courses, semesters)
	if err != nil {
		return nil, err
	}
	return &previews[0], nil
}

// InvalidatePreviews drops cached previews after section or enrollment
// mutations.
func (s *AssemblerService) InvalidatePreviews(ctx context.Context) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "previews:*")
	}
}

// sectionKeys collects the distinct course and semester ids referenced by
// the sections, preserving first-seen order.
func sectionKeys(sections []models.Section) (courseIDs, semesterIDs []int64) {
	seenCourse := make(map[int64]struct{}, len(sections))
	seenSemester := make(map[int64]struct{}, len(sections))
	for _, sec := range sections {
		if _, ok := seenCourse[sec.CourseID]; !ok {
			seenCourse[sec.CourseID] = struct{}{}
			courseIDs = append(courseIDs, sec.CourseID)
		}
		if _, ok := seenSemester[sec.SemesterID]; !ok {
			seenSemester[sec.SemesterID] = struct{}{}
			semesterIDs = append(semesterIDs, sec.SemesterID)
		}
	}
	return courseIDs, semesterIDs
}

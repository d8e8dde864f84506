package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/jobs"
)

const enrollCodeLength = 8

type sectionWriter interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
	FindByEnrollCode(ctx context.Context, code string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	AddTeacher(ctx context.Context, sectionID, teacherID int64) error
}

type courseFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ListTopicsByCourse(ctx context.Context, courseID int64) ([]models.Topic, error)
	ListConceptsByTopicIDs(ctx context.Context, topicIDs []int64) ([]models.Concept, error)
}

type pointWriter interface {
	ListBySection(ctx context.Context, sectionID int64) ([]models.Point, error)
	CreateBulk(ctx context.Context, points []models.Point) error
}

type sectionEnrollmentLister interface {
	ListActiveBySection(ctx context.Context, sectionID int64) ([]models.Enrollment, error)
}

// CreateSectionRequest opens a course offering for a semester.
type CreateSectionRequest struct {
	CourseID   int64 `json:"course_id" validate:"required"`
	SemesterID int64 `json:"semester_id" validate:"required"`
}

// ConfigurePointsRequest bulk-creates assessment slots. Each concept in
// the section's course receives the requested number of check and test
// points.
type ConfigurePointsRequest struct {
	CheckPointsPerConcept int `json:"check_points_per_concept" validate:"min=0,max=20"`
	TestPointsPerConcept  int `json:"test_points_per_concept" validate:"min=0,max=20"`
}

// SectionService creates sections and configures their assessments.
type SectionService struct {
	sections    sectionWriter
	courses     courseFinder
	points      pointWriter
	enrollments sectionEnrollmentLister
	queue       *jobs.Queue
	assembler   *AssemblerService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(sections sectionWriter, courses courseFinder, points pointWriter, enrollments sectionEnrollmentLister, queue *jobs.Queue, assembler *AssemblerService, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{
		sections:    sections,
		courses:     courses,
		points:      points,
		enrollments: enrollments,
		queue:       queue,
		assembler:   assembler,
		validator:   validate,
		logger:      logger,
	}
}

// Create opens a section with a freshly generated enrollment code and
// links the creating teacher to it. Codes are regenerated on the rare
// collision with an existing section.
func (s *SectionService) Create(ctx context.Context, teacherID int64, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load course")
	}

	code, err := s.uniqueEnrollCode(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not generate enrollment code")
	}

	section := &models.Section{CourseID: req.CourseID, SemesterID: req.SemesterID, EnrollCode: code}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not create section")
	}
	if err := s.sections.AddTeacher(ctx, section.ID, teacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not link teacher")
	}

	if s.assembler != nil {
		s.assembler.InvalidatePreviews(ctx)
	}
	s.logger.Info("section created",
		zap.Int64("section_id", section.ID),
		zap.Int64("course_id", section.CourseID),
		zap.Int64("teacher_id", teacherID),
	)
	return section, nil
}

// ConfigurePoints bulk-creates the section's assessment slots, one batch
// per concept, and enqueues student point provisioning for everyone
// already enrolled. Views compiled before provisioning lands stay correct
// because missing rows render as Not Attempted.
func (s *SectionService) ConfigurePoints(ctx context.Context, sectionID int64, req ConfigurePointsRequest) ([]models.Point, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid point configuration")
	}
	if req.CheckPointsPerConcept == 0 && req.TestPointsPerConcept == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one point per concept is required")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load section")
	}

	topics, err := s.courses.ListTopicsByCourse(ctx, section.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load topics")
	}
	topicIDs := make([]int64, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	concepts, err := s.courses.ListConceptsByTopicIDs(ctx, topicIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load concepts")
	}
	if len(concepts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no concepts to assess")
	}

	points := make([]models.Point, 0, len(concepts)*(req.CheckPointsPerConcept+req.TestPointsPerConcept))
	for _, concept := range concepts {
		for i := 0; i < req.CheckPointsPerConcept; i++ {
			points = append(points, models.Point{ConceptID: concept.ID, SectionID: sectionID, IsTestPoint: false})
		}
		for i := 0; i < req.TestPointsPerConcept; i++ {
			points = append(points, models.Point{ConceptID: concept.ID, SectionID: sectionID, IsTestPoint: true})
		}
	}
	if err := s.points.CreateBulk(ctx, points); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not create points")
	}

	enrollments, err := s.enrollments.ListActiveBySection(ctx, sectionID)
	if err != nil {
		s.logger.Warn("could not list enrollments for provisioning", zap.Int64("section_id", sectionID), zap.Error(err))
	} else {
		for _, e := range enrollments {
			s.ProvisionStudent(sectionID, e.StudentID)
		}
	}

	return points, nil
}

// ProvisionStudent enqueues creation of the student's point rows for a
// section. Implements the provisioning hook used on enrollment.
func (s *SectionService) ProvisionStudent(sectionID, studentID int64) {
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: jobs.TypeProvisionStudentPoints,
		Payload: jobs.ProvisionStudentPointsPayload{
			SectionID: sectionID,
			StudentID: studentID,
		},
	})
	if err != nil {
		s.logger.Warn("could not enqueue student point provisioning",
			zap.Int64("section_id", sectionID),
			zap.Int64("student_id", studentID),
			zap.Error(err),
		)
	}
}

// uniqueEnrollCode generates a shareable code and retries on collision.
func (s *SectionService) uniqueEnrollCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateEnrollCode()
		if err != nil {
			return "", err
		}
		existing, err := s.sections.FindByEnrollCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errors.New("could not find a free enrollment code")
}

func generateEnrollCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
	return strings.ToUpper(code[:enrollCodeLength]), nil
}

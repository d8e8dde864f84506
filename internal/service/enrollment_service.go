package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type enrollmentWriter interface {
	ListActiveByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error)
	FindActive(ctx context.Context, studentID, sectionID int64) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Disenroll(ctx context.Context, id int64, at time.Time) error
}

type sectionCodeResolver interface {
	FindByEnrollCode(ctx context.Context, code string) (*models.Section, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type pointProvisioner interface {
	ProvisionStudent(sectionID, studentID int64)
}

// EnrollByCodeRequest is the self-service enrollment payload.
type EnrollByCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// EnrollResult reports the three-way outcome of enroll-by-code.
type EnrollResult struct {
	Outcome    models.EnrollOutcome `json:"outcome"`
	Enrollment *models.Enrollment   `json:"enrollment,omitempty"`
}

// EnrollmentService orchestrates self-service enrollment workflows.
type EnrollmentService struct {
	repo        enrollmentWriter
	sections    sectionCodeResolver
	users       userFinder
	provisioner pointProvisioner
	assembler   *AssemblerService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentWriter, sections sectionCodeResolver, users userFinder, provisioner pointProvisioner, assembler *AssemblerService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, sections: sections, users: users, provisioner: provisioner, assembler: assembler, validator: validate, logger: logger}
}

// EnrollByCode joins a student to the section owning the code. The three
// outcomes - enrolled, already enrolled, code not found - are distinct
// results, never collapsed into a boolean. Re-enrolling is a no-op that
// leaves exactly one active row.
func (s *EnrollmentService) EnrollByCode(ctx context.Context, studentID int64, req EnrollByCodeRequest) (*EnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load student")
	}
	if student.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers cannot enroll in sections")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	section, err := s.sections.FindByEnrollCode(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not look up enrollment code")
	}
	if section == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidEnrollCode, "")
	}

	existing, err := s.repo.FindActive(ctx, studentID, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not check enrollment")
	}
	if existing != nil {
		return &EnrollResult{Outcome: models.EnrollOutcomeDuplicate, Enrollment: existing}, nil
	}

	enrollment := &models.Enrollment{SectionID: section.ID, StudentID: studentID, DateEnrolled: time.Now().UTC()}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not create enrollment")
	}

	if s.provisioner != nil {
		s.provisioner.ProvisionStudent(section.ID, studentID)
	}
	if s.assembler != nil {
		s.assembler.InvalidatePreviews(ctx)
	}

	s.logger.Info("student enrolled",
		zap.Int64("student_id", studentID),
		zap.Int64("section_id", section.ID),
	)
	return &EnrollResult{Outcome: models.EnrollOutcomeEnrolled, Enrollment: enrollment}, nil
}

// Disenroll soft-deletes the student's active enrollment in a section.
func (s *EnrollmentService) Disenroll(ctx context.Context, studentID, sectionID int64) error {
	enrollment, err := s.repo.FindActive(ctx, studentID, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load enrollment")
	}
	if enrollment == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "no active enrollment for this section")
	}
	if err := s.repo.Disenroll(ctx, enrollment.ID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not disenroll")
	}
	if s.assembler != nil {
		s.assembler.InvalidatePreviews(ctx)
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type studentPointWriter interface {
	FindByID(ctx context.Context, id int64) (*models.StudentPoint, error)
	UpdateStatus(ctx context.Context, id int64, status models.PointStatus, at time.Time) (*models.StudentPoint, error)
	EnsureForStudent(ctx context.Context, studentID int64, pointIDs []int64) error
}

type eventPublisher interface {
	PublishStudentPoint(ctx context.Context, event models.StudentPointEvent) error
}

// UpdateStatusRequest mutates a student point's mastery status.
type UpdateStatusRequest struct {
	StatusID models.PointStatus `json:"point_status_id" validate:"required"`
}

// StudentPointService applies teacher grading mutations and fans the
// post-update row image out on the realtime channel. Concurrent edits
// resolve last-write-wins at the store.
type StudentPointService struct {
	repo      studentPointWriter
	publisher eventPublisher
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentPointService constructs StudentPointService.
func NewStudentPointService(repo studentPointWriter, publisher eventPublisher, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentPointService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentPointService{repo: repo, publisher: publisher, cache: cache, validator: validate, logger: logger}
}

// UpdateStatus overwrites the status of one student point. The status
// must be one of the four enumerated values. A publish failure does not
// fail the mutation; subscribers recover on their next debounced refresh.
func (s *StudentPointService) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*models.StudentPoint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.StatusID.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidPointStatus, "")
	}

	updated, err := s.repo.UpdateStatus(ctx, id, req.StatusID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student point not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not update status")
	}

	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("gradeview:*:%d", updated.StudentID))
	}

	if s.publisher != nil {
		event := models.StudentPointEvent{
			StudentPointID: updated.ID,
			PointID:        updated.PointID,
			StudentID:      updated.StudentID,
			PointStatusID:  updated.PointStatusID,
			LastUpdated:    updated.LastUpdated,
		}
		if err := s.publisher.PublishStudentPoint(ctx, event); err != nil {
			s.logger.Warn("could not publish student point update",
				zap.Int64("student_point_id", updated.ID),
				zap.Error(err),
			)
		}
	}

	return updated, nil
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type mockStudentPointWriter struct {
	rows map[int64]*models.StudentPoint
}

func (m *mockStudentPointWriter) FindByID(ctx context.Context, id int64) (*models.StudentPoint, error) {
	if sp, ok := m.rows[id]; ok {
		return sp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentPointWriter) UpdateStatus(ctx context.Context, id int64, status models.PointStatus, at time.Time) (*models.StudentPoint, error) {
	sp, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	sp.PointStatusID = status
	sp.LastUpdated = at
	return sp, nil
}

func (m *mockStudentPointWriter) EnsureForStudent(ctx context.Context, studentID int64, pointIDs []int64) error {
	return nil
}

type mockEventPublisher struct {
	events []models.StudentPointEvent
}

func (m *mockEventPublisher) PublishStudentPoint(ctx context.Context, event models.StudentPointEvent) error {
	m.events = append(m.events, event)
	return nil
}

func TestUpdateStatusPublishesRowImage(t *testing.T) {
	repo := &mockStudentPointWriter{rows: map[int64]*models.StudentPoint{
		55: {ID: 55, PointID: 101, StudentID: 4, PointStatusID: models.StatusNotAttempted},
	}}
	publisher := &mockEventPublisher{}
	svc := NewStudentPointService(repo, publisher, nil, nil, zap.NewNop())

	updated, err := svc.UpdateStatus(context.Background(), 55, UpdateStatusRequest{StatusID: models.StatusPassed})

	require.NoError(t, err)
	assert.Equal(t, models.StatusPassed, updated.PointStatusID)
	assert.False(t, updated.LastUpdated.IsZero())

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, int64(55), event.StudentPointID)
	assert.Equal(t, int64(101), event.PointID)
	assert.Equal(t, int64(4), event.StudentID)
	assert.Equal(t, models.StatusPassed, event.PointStatusID)
	assert.Equal(t, updated.LastUpdated, event.LastUpdated)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := &mockStudentPointWriter{rows: map[int64]*models.StudentPoint{55: {ID: 55}}}
	svc := NewStudentPointService(repo, &mockEventPublisher{}, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), 55, UpdateStatusRequest{StatusID: 9})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidPointStatus.Code, appErr.Code)
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc := NewStudentPointService(&mockStudentPointWriter{}, &mockEventPublisher{}, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), 404, UpdateStatusRequest{StatusID: models.StatusFailed})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/axis-edu/axis-api/internal/models"
)

// StudentPointRepository handles per-student point status rows, the only
// frequently mutated table in the system.
type StudentPointRepository struct {
	db *sqlx.DB
}

// NewStudentPointRepository constructs the repository.
func NewStudentPointRepository(db *sqlx.DB) *StudentPointRepository {
	return &StudentPointRepository{db: db}
}

const studentPointColumns = "student_point_id, point_id, student_id, point_status_id, last_updated"

// FindByID returns a single student point row.
func (r *StudentPointRepository) FindByID(ctx context.Context, id int64) (*models.StudentPoint, error) {
	query := fmt.Sprintf("SELECT %s FROM student_points WHERE student_point_id = $1", studentPointColumns)
	var sp models.StudentPoint
	if err := r.db.GetContext(ctx, &sp, query, id); err != nil {
		return nil, err
	}
	return &sp, nil
}

// ListByStudentAndPoints returns the student's rows for a point id set in
// one IN query.
func (r *StudentPointRepository) ListByStudentAndPoints(ctx context.Context, studentID int64, pointIDs []int64) ([]models.StudentPoint, error) {
	if len(pointIDs) == 0 {
		return []models.StudentPoint{}, nil
	}
	placeholders := make([]string, len(pointIDs))
	args := make([]interface{}, 0, len(pointIDs)+1)
	args = append(args, studentID)
	for i, id := range pointIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT %s FROM student_points
        WHERE student_id = $1 AND point_id IN (%s)`, studentPointColumns, strings.Join(placeholders, ","))
	var rows []models.StudentPoint
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student points: %w", err)
	}
	return rows, nil
}

// UpdateStatus overwrites the status, stamps last_updated, and returns the
// post-update row image for realtime fan-out.
func (r *StudentPointRepository) UpdateStatus(ctx context.Context, id int64, status models.PointStatus, at time.Time) (*models.StudentPoint, error) {
	query := fmt.Sprintf(`UPDATE student_points SET point_status_id = $2, last_updated = $3
        WHERE student_point_id = $1 RETURNING %s`, studentPointColumns)
	var sp models.StudentPoint
	if err := r.db.GetContext(ctx, &sp, query, id, status, at); err != nil {
		return nil, err
	}
	return &sp, nil
}

// EnsureForStudent provisions missing student point rows for the given
// points, defaulting status to Not Attempted. Existing rows are untouched.
func (r *StudentPointRepository) EnsureForStudent(ctx context.Context, studentID int64, pointIDs []int64) error {
	if len(pointIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO student_points (point_id, student_id, point_status_id, last_updated)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (point_id, student_id) DO NOTHING`
	now := time.Now().UTC()
	for _, pointID := range pointIDs {
		if _, err := tx.ExecContext(ctx, query, pointID, studentID, models.StatusNotAttempted, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("ensure student point: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student points: %w", err)
	}
	return nil
}

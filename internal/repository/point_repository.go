package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/axis-edu/axis-api/internal/models"
)

// PointRepository handles assessment point rows.
type PointRepository struct {
	db *sqlx.DB
}

// NewPointRepository constructs the repository.
func NewPointRepository(db *sqlx.DB) *PointRepository {
	return &PointRepository{db: db}
}

// ListBySection returns every point configured for a section.
func (r *PointRepository) ListBySection(ctx context.Context, sectionID int64) ([]models.Point, error) {
	const query = `SELECT point_id, concept_id, section_id, is_test_point, created_at
        FROM points WHERE section_id = $1 ORDER BY concept_id, point_id`
	var points []models.Point
	if err := r.db.SelectContext(ctx, &points, query, sectionID); err != nil {
		return nil, fmt.Errorf("list points by section: %w", err)
	}
	return points, nil
}

// CreateBulk inserts a batch of points in one transaction, filling in
// generated ids. Used when a section's assessments are configured.
func (r *PointRepository) CreateBulk(ctx context.Context, points []models.Point) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO points (concept_id, section_id, is_test_point, created_at)
        VALUES ($1, $2, $3, $4) RETURNING point_id`
	now := time.Now().UTC()
	for i := range points {
		if points[i].CreatedAt.IsZero() {
			points[i].CreatedAt = now
		}
		if err := tx.QueryRowxContext(ctx, query,
			points[i].ConceptID, points[i].SectionID, points[i].IsTestPoint, points[i].CreatedAt,
		).Scan(&points[i].ID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk create points: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit points: %w", err)
	}
	return nil
}

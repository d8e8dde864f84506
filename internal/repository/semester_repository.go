package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/axis-edu/axis-api/internal/models"
)

// SemesterRepository reads the semester reference table.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns all semesters, newest first.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	const query = `SELECT semester_id, season, year FROM semesters ORDER BY year DESC, season`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// FindByIDs batch-loads semesters.
func (r *SemesterRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Semester, error) {
	if len(ids) == 0 {
		return []models.Semester{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT semester_id, season, year FROM semesters WHERE semester_id IN (%s)",
		strings.Join(placeholders, ","))
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, fmt.Errorf("find semesters by ids: %w", err)
	}
	return semesters, nil
}

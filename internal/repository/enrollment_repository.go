package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/axis-edu/axis-api/internal/models"
)

// EnrollmentRepository handles enrollment rows. An enrollment is active
// exactly when date_disenrolled is null.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = "enrollment_id, section_id, student_id, date_enrolled, date_disenrolled"

// ListActiveByStudent returns the student's current enrollments.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE student_id = $1 AND date_disenrolled IS NULL
        ORDER BY date_enrolled DESC`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return enrollments, nil
}

// ListActiveBySection returns the section's current enrollments.
func (r *EnrollmentRepository) ListActiveBySection(ctx context.Context, sectionID int64) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE section_id = $1 AND date_disenrolled IS NULL
        ORDER BY date_enrolled`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, sectionID); err != nil {
		return nil, fmt.Errorf("list enrollments by section: %w", err)
	}
	return enrollments, nil
}

// FindActive returns the student's active enrollment in a section, or
// (nil, nil) when there is none.
func (r *EnrollmentRepository) FindActive(ctx context.Context, studentID, sectionID int64) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE student_id = $1 AND section_id = $2 AND date_disenrolled IS NULL`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create persists an enrollment and fills in its generated id.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.DateEnrolled.IsZero() {
		enrollment.DateEnrolled = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (section_id, student_id, date_enrolled)
        VALUES ($1, $2, $3) RETURNING enrollment_id`
	if err := r.db.QueryRowxContext(ctx, query,
		enrollment.SectionID, enrollment.StudentID, enrollment.DateEnrolled,
	).Scan(&enrollment.ID); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Disenroll soft-deletes an enrollment by stamping date_disenrolled.
func (r *EnrollmentRepository) Disenroll(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE enrollments SET date_disenrolled = $2 WHERE enrollment_id = $1 AND date_disenrolled IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("disenroll: %w", err)
	}
	return nil
}

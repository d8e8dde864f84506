package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/axis-edu/axis-api/internal/models"
)

// SectionRepository handles section rows and teacher links.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = "section_id, course_id, semester_id, enroll_code, created_at"

// FindByID returns a single section.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE section_id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByIDs batch-loads sections preserving no particular order.
func (r *SectionRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Section, error) {
	if len(ids) == 0 {
		return []models.Section{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM sections WHERE section_id IN (%s)",
		sectionColumns, strings.Join(placeholders, ","))
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("find sections by ids: %w", err)
	}
	return sections, nil
}

// ListByTeacher returns the sections a teacher is linked to.
func (r *SectionRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Section, error) {
	const query = `SELECT s.section_id, s.course_id, s.semester_id, s.enroll_code, s.created_at
        FROM sections s
        JOIN section_teachers st ON st.section_id = s.section_id
        WHERE st.teacher_id = $1
        ORDER BY s.created_at DESC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, teacherID); err != nil {
		return nil, fmt.Errorf("list sections by teacher: %w", err)
	}
	return sections, nil
}

// FindByEnrollCode resolves the self-service enrollment code. A missing
// code returns (nil, nil) so callers can distinguish "not found" from a
// failed read.
func (r *SectionRepository) FindByEnrollCode(ctx context.Context, code string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE enroll_code = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find section by code: %w", err)
	}
	return &section, nil
}

// Create persists a section and fills in its generated id.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sections (course_id, semester_id, enroll_code, created_at)
        VALUES ($1, $2, $3, $4) RETURNING section_id`
	if err := r.db.QueryRowxContext(ctx, query,
		section.CourseID, section.SemesterID, section.EnrollCode, section.CreatedAt,
	).Scan(&section.ID); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// AddTeacher links a teacher to a section.
func (r *SectionRepository) AddTeacher(ctx context.Context, sectionID, teacherID int64) error {
	const query = `INSERT INTO section_teachers (section_id, teacher_id) VALUES ($1, $2)
        ON CONFLICT (section_id, teacher_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, sectionID, teacherID); err != nil {
		return fmt.Errorf("add section teacher: %w", err)
	}
	return nil
}

// ListTeacherIDs returns the teacher ids linked to a section.
func (r *SectionRepository) ListTeacherIDs(ctx context.Context, sectionID int64) ([]int64, error) {
	const query = `SELECT teacher_id FROM section_teachers WHERE section_id = $1`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section teachers: %w", err)
	}
	return ids, nil
}

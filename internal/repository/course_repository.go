package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/axis-edu/axis-api/internal/models"
)

// CourseRepository handles courses and their topic/concept hierarchy.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "course_id, subject, identifier, course_name, creator_id, school_id, created_at"

// FindByID returns a single course.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDs batch-loads courses.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_id IN (%s)",
		courseColumns, strings.Join(placeholders, ","))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("find courses by ids: %w", err)
	}
	return courses, nil
}

// ListByCreator returns courses created by a teacher.
func (r *CourseRepository) ListByCreator(ctx context.Context, creatorID int64) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE creator_id = $1 ORDER BY created_at DESC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, creatorID); err != nil {
		return nil, fmt.Errorf("list courses by creator: %w", err)
	}
	return courses, nil
}

// Create persists a course and fills in its generated id.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (subject, identifier, course_name, creator_id, school_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING course_id`
	if err := r.db.QueryRowxContext(ctx, query,
		course.Subject, course.Identifier, course.Name, course.CreatorID, course.SchoolID, course.CreatedAt,
	).Scan(&course.ID); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ListTopicsByCourse returns a course's topics in position order.
func (r *CourseRepository) ListTopicsByCourse(ctx context.Context, courseID int64) ([]models.Topic, error) {
	const query = `SELECT topic_id, course_id, topic_name, position FROM topics WHERE course_id = $1 ORDER BY position, topic_id`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, courseID); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// ListConceptsByTopicIDs batch-loads concepts for a set of topics.
func (r *CourseRepository) ListConceptsByTopicIDs(ctx context.Context, topicIDs []int64) ([]models.Concept, error) {
	if len(topicIDs) == 0 {
		return []models.Concept{}, nil
	}
	placeholders := make([]string, len(topicIDs))
	args := make([]interface{}, len(topicIDs))
	for i, id := range topicIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT concept_id, topic_id, concept_name, position FROM concepts
        WHERE topic_id IN (%s) ORDER BY position, concept_id`, strings.Join(placeholders, ","))
	var concepts []models.Concept
	if err := r.db.SelectContext(ctx, &concepts, query, args...); err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	return concepts, nil
}

// CreateTopic persists a topic and fills in its generated id.
func (r *CourseRepository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	const query = `INSERT INTO topics (course_id, topic_name, position) VALUES ($1, $2, $3) RETURNING topic_id`
	if err := r.db.QueryRowxContext(ctx, query, topic.CourseID, topic.Name, topic.Position).Scan(&topic.ID); err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// CreateConcept persists a concept and fills in its generated id.
func (r *CourseRepository) CreateConcept(ctx context.Context, concept *models.Concept) error {
	const query = `INSERT INTO concepts (topic_id, concept_name, position) VALUES ($1, $2, $3) RETURNING concept_id`
	if err := r.db.QueryRowxContext(ctx, query, concept.TopicID, concept.Name, concept.Position).Scan(&concept.ID); err != nil {
		return fmt.Errorf("create concept: %w", err)
	}
	return nil
}

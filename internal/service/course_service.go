package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type courseWriter interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	CreateTopic(ctx context.Context, topic *models.Topic) error
	CreateConcept(ctx context.Context, concept *models.Concept) error
	ListTopicsByCourse(ctx context.Context, courseID int64) ([]models.Topic, error)
	ListConceptsByTopicIDs(ctx context.Context, topicIDs []int64) ([]models.Concept, error)
}

// CreateCourseRequest describes a new course with its optional topic and
// concept outline.
type CreateCourseRequest struct {
	Subject    string              `json:"subject" validate:"required"`
	Identifier string              `json:"identifier" validate:"required"`
	Name       string              `json:"course_name" validate:"required"`
	SchoolID   *int64              `json:"school_id,omitempty"`
	Topics     []TopicOutlineEntry `json:"topics" validate:"dive"`
}

// TopicOutlineEntry is one topic with its concept names.
type TopicOutlineEntry struct {
	Name     string   `json:"topic_name" validate:"required"`
	Concepts []string `json:"concepts"`
}

// CourseService creates courses and their topic/concept outline.
type CourseService struct {
	repo      courseWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseWriter, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// Create persists the course and, when an outline is provided, its topics
// and concepts in position order.
func (s *CourseService) Create(ctx context.Context, creatorID int64, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Subject:    req.Subject,
		Identifier: req.Identifier,
		Name:       req.Name,
		CreatorID:  creatorID,
		SchoolID:   req.SchoolID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not create course")
	}

	for ti, entry := range req.Topics {
		topic := &models.Topic{CourseID: course.ID, Name: entry.Name, Position: ti}
		if err := s.repo.CreateTopic(ctx, topic); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not create topic")
		}
		for ci, conceptName := range entry.Concepts {
			concept := &models.Concept{TopicID: topic.ID, Name: conceptName, Position: ci}
			if err := s.repo.CreateConcept(ctx, concept); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not create concept")
			}
		}
	}

	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.Int64("creator_id", creatorID))
	return course, nil
}

// Outline returns the course's topics with their concepts.
func (s *CourseService) Outline(ctx context.Context, courseID int64) ([]models.TopicView, error) {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load course")
	}
	topics, err := s.repo.ListTopicsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load topics")
	}
	topicIDs := make([]int64, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	concepts, err := s.repo.ListConceptsByTopicIDs(ctx, topicIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load concepts")
	}

	byTopic := make(map[int64][]models.Concept, len(topics))
	for _, c := range concepts {
		byTopic[c.TopicID] = append(byTopic[c.TopicID], c)
	}
	outline := make([]models.TopicView, 0, len(topics))
	for _, topic := range topics {
		tv := models.TopicView{Topic: topic, Concepts: []models.ConceptView{}}
		for _, concept := range byTopic[topic.ID] {
			tv.Concepts = append(tv.Concepts, models.ConceptView{Concept: concept, Points: []models.PointView{}})
		}
		outline = append(outline, tv)
	}
	return outline, nil
}

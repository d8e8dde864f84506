package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type sectionFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
}

type curriculumReader interface {
	ListTopicsByCourse(ctx context.Context, courseID int64) ([]models.Topic, error)
	ListConceptsByTopicIDs(ctx context.Context, topicIDs []int64) ([]models.Concept, error)
}

type pointReader interface {
	ListBySection(ctx context.Context, sectionID int64) ([]models.Point, error)
}

type studentPointReader interface {
	ListByStudentAndPoints(ctx context.Context, studentID int64, pointIDs []int64) ([]models.StudentPoint, error)
}

// GradeViewService compiles the nested topic → concept → point tree for
// one (section, student) pair. The same compiled shape serves the
// teacher's editable view and the student's read-only view; role only
// controls which actions the screen exposes.
type GradeViewService struct {
	sections      sectionFinder
	curriculum    curriculumReader
	points        pointReader
	studentPoints studentPointReader
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewGradeViewService constructs the compiler.
func NewGradeViewService(sections sectionFinder, curriculum curriculumReader, points pointReader, studentPoints studentPointReader, metrics *MetricsService, logger *zap.Logger) *GradeViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeViewService{
		sections:      sections,
		curriculum:    curriculum,
		points:        points,
		studentPoints: studentPoints,
		metrics:       metrics,
		logger:        logger,
	}
}

// Compile assembles the grade view. A section with no topics, concepts,
// or points compiles to an empty-but-valid view so the screen can
// distinguish "legitimately empty" from "error". Recompiling against
// unchanged data yields a structurally identical view apart from
// CompiledAt. Safe to call repeatedly; the reconciler relies on that.
func (s *GradeViewService) Compile(ctx context.Context, sectionID, studentID int64) (*models.GradeView, error) {
	start := time.Now()
	view, err := s.compile(ctx, sectionID, studentID)
	if s.metrics != nil {
		s.metrics.ObserveCompile(time.Since(start), err == nil)
	}
	return view, err
}

func (s *GradeViewService) compile(ctx context.Context, sectionID, studentID int64) (*models.GradeView, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load section")
	}

	view := &models.GradeView{
		SectionID:  sectionID,
		StudentID:  studentID,
		CompiledAt: time.Now().UTC(),
		Topics:     []models.TopicView{},
	}

	topics, err := s.curriculum.ListTopicsByCourse(ctx, section.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load topics")
	}
	if len(topics) == 0 {
		return view, nil
	}

	topicIDs := make([]int64, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	concepts, err := s.curriculum.ListConceptsByTopicIDs(ctx, topicIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load concepts")
	}

	points, err := s.points.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load points")
	}

	pointIDs := make([]int64, len(points))
	for i, p := range points {
		pointIDs[i] = p.ID
	}
	studentPoints, err := s.studentPoints.ListByStudentAndPoints(ctx, studentID, pointIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailure.Code, appErrors.ErrFetchFailure.Status, "could not load student points")
	}

	// Index maps for the single-pass assembly below.
	conceptsByTopic := make(map[int64][]models.Concept, len(topics))
	for _, c := range concepts {
		conceptsByTopic[c.TopicID] = append(conceptsByTopic[c.TopicID], c)
	}
	pointsByConcept := make(map[int64][]models.Point, len(concepts))
	for _, p := range points {
		pointsByConcept[p.ConceptID] = append(pointsByConcept[p.ConceptID], p)
	}
	studentPointByPoint := make(map[int64]models.StudentPoint, len(studentPoints))
	for _, sp := range studentPoints {
		studentPointByPoint[sp.PointID] = sp
	}

	view.Topics = make([]models.TopicView, 0, len(topics))
	for _, topic := range topics {
		topicView := models.TopicView{Topic: topic, Concepts: []models.ConceptView{}}
		for _, concept := range conceptsByTopic[topic.ID] {
			conceptView := models.ConceptView{Concept: concept, Points: []models.PointView{}}
			for _, point := range pointsByConcept[concept.ID] {
				conceptView.Points = append(conceptView.Points, annotatePoint(point, studentPointByPoint))
			}
			topicView.Concepts = append(topicView.Concepts, conceptView)
		}
		view.Topics = append(view.Topics, topicView)
	}

	return view, nil
}

// annotatePoint resolves the student's status for a point. When no row
// exists yet the default Not Attempted status is synthesized; storage is
// never assumed to hold it.
func annotatePoint(point models.Point, byPoint map[int64]models.StudentPoint) models.PointView {
	pv := models.PointView{
		PointID:     point.ID,
		ConceptID:   point.ConceptID,
		IsTestPoint: point.IsTestPoint,
		StatusID:    models.StatusNotAttempted,
		StatusLabel: models.StatusNotAttempted.Label(),
	}
	if sp, ok := byPoint[point.ID]; ok {
		id := sp.ID
		updated := sp.LastUpdated
		pv.StudentPointID = &id
		pv.StatusID = sp.PointStatusID
		pv.StatusLabel = sp.PointStatusID.Label()
		pv.LastUpdated = &updated
	}
	return pv
}

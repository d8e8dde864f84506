package models

import "time"

// SectionPreview is the denormalized section + course + semester row shown
// on dashboards. Computed by the assembler, never persisted.
type SectionPreview struct {
	SectionID  int64  `json:"section_id"`
	EnrollCode string `json:"enroll_code"`
	CourseID   int64  `json:"course_id"`
	CourseName string `json:"course_name"`
	Subject    string `json:"subject"`
	Identifier string `json:"identifier"`
	SemesterID int64  `json:"semester_id"`
	Season     string `json:"season"`
	Year       int    `json:"year"`
}

// TeacherData aggregates everything a teacher's home screen renders.
type TeacherData struct {
	Sections       []SectionPreview `json:"sections"`
	CoursesCreated []Course         `json:"courses_created"`
}

// StudentData aggregates a student's active section previews.
type StudentData struct {
	Sections []SectionPreview `json:"sections"`
}

// PointView is a point annotated with the target student's resolved
// status. When no student point row exists yet the status is synthesized
// as Not Attempted and StudentPointID is nil.
type PointView struct {
	PointID        int64       `json:"point_id"`
	ConceptID      int64       `json:"concept_id"`
	IsTestPoint    bool        `json:"is_test_point"`
	StudentPointID *int64      `json:"student_point_id,omitempty"`
	StatusID       PointStatus `json:"point_status_id"`
	StatusLabel    string      `json:"status_label"`
	LastUpdated    *time.Time  `json:"last_updated,omitempty"`
}

// ConceptView pairs a concept with its annotated points.
type ConceptView struct {
	Concept Concept     `json:"concept"`
	Points  []PointView `json:"points"`
}

// CheckPoints returns the formative subset. Partitioning happens at render
// time so the same compiled view serves partitioned and flat renderings.
func (c ConceptView) CheckPoints() []PointView {
	return c.filter(false)
}

// TestPoints returns the summative subset.
func (c ConceptView) TestPoints() []PointView {
	return c.filter(true)
}

func (c ConceptView) filter(test bool) []PointView {
	out := make([]PointView, 0, len(c.Points))
	for _, p := range c.Points {
		if p.IsTestPoint == test {
			out = append(out, p)
		}
	}
	return out
}

// TopicView pairs a topic with its concept views.
type TopicView struct {
	Topic    Topic         `json:"topic"`
	Concepts []ConceptView `json:"concepts"`
}

// GradeView is the nested topic → concept → point tree compiled for one
// (section, student) pair. Both the teacher's editable grade screen and
// the student's read-only progress screen render this same shape.
type GradeView struct {
	SectionID  int64       `json:"section_id"`
	StudentID  int64       `json:"student_id"`
	CompiledAt time.Time   `json:"compiled_at"`
	Topics     []TopicView `json:"topics"`
}

// Clone deep-copies the tree. Consumers of a live view receive clones so
// later in-place merges never race with their reads.
func (g *GradeView) Clone() *GradeView {
	if g == nil {
		return nil
	}
	out := *g
	out.Topics = make([]TopicView, len(g.Topics))
	for ti, topic := range g.Topics {
		tc := topic
		tc.Concepts = make([]ConceptView, len(topic.Concepts))
		for ci, concept := range topic.Concepts {
			cc := concept
			cc.Points = append([]PointView(nil), concept.Points...)
			tc.Concepts[ci] = cc
		}
		out.Topics[ti] = tc
	}
	return &out
}

// FindPoint locates the point view carrying the given student point id.
// Returns nil when the id is not part of this view.
func (g *GradeView) FindPoint(studentPointID int64) *PointView {
	for ti := range g.Topics {
		for ci := range g.Topics[ti].Concepts {
			points := g.Topics[ti].Concepts[ci].Points
			for pi := range points {
				if points[pi].StudentPointID != nil && *points[pi].StudentPointID == studentPointID {
					return &points[pi]
				}
			}
		}
	}
	return nil
}

// FindByPointID locates the point view for the underlying point id. Used
// when an update arrives for a point whose student row was only just
// provisioned, so the view has no student point id yet.
func (g *GradeView) FindByPointID(pointID int64) *PointView {
	for ti := range g.Topics {
		for ci := range g.Topics[ti].Concepts {
			points := g.Topics[ti].Concepts[ci].Points
			for pi := range points {
				if points[pi].PointID == pointID {
					return &points[pi]
				}
			}
		}
	}
	return nil
}

package models

import "time"

// PointStatus enumerates the mastery states of a student point.
type PointStatus int

const (
	StatusNotAttempted   PointStatus = 1
	StatusFailed         PointStatus = 2
	StatusNeedsRevisions PointStatus = 3
	StatusPassed         PointStatus = 4
)

// statusLabels is the single source of truth for display names. Every
// layer that renders a status goes through Label.
var statusLabels = map[PointStatus]string{
	StatusNotAttempted:   "Not Attempted",
	StatusFailed:         "Attempted: Failed",
	StatusNeedsRevisions: "Attempted: Needs Revisions",
	StatusPassed:         "Attempted: Passed",
}

// Valid reports whether the status is one of the four enumerated values.
func (s PointStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display name for the status. Unknown values render as
// Not Attempted rather than leaking a raw integer to the view layer.
func (s PointStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusNotAttempted]
}

// Point is an assessment slot for a concept within a section.
type Point struct {
	ID          int64     `db:"point_id" json:"point_id"`
	ConceptID   int64     `db:"concept_id" json:"concept_id"`
	SectionID   int64     `db:"section_id" json:"section_id"`
	IsTestPoint bool      `db:"is_test_point" json:"is_test_point"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudentPoint is a student's mutable status record against one point.
type StudentPoint struct {
	ID            int64       `db:"student_point_id" json:"student_point_id"`
	PointID       int64       `db:"point_id" json:"point_id"`
	StudentID     int64       `db:"student_id" json:"student_id"`
	PointStatusID PointStatus `db:"point_status_id" json:"point_status_id"`
	LastUpdated   time.Time   `db:"last_updated" json:"last_updated"`
}

// StudentPointEvent is the post-update row image pushed on the realtime
// channel when a teacher mutates a student point.
type StudentPointEvent struct {
	StudentPointID int64       `json:"student_point_id"`
	PointID        int64       `json:"point_id"`
	StudentID      int64       `json:"student_id"`
	PointStatusID  PointStatus `json:"point_status_id"`
	LastUpdated    time.Time   `json:"last_updated"`
}

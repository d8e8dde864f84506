package models

import "time"

// Course is a subject of study owned by its creating teacher.
type Course struct {
	ID         int64     `db:"course_id" json:"course_id"`
	Subject    string    `db:"subject" json:"subject"`
	Identifier string    `db:"identifier" json:"identifier"`
	Name       string    `db:"course_name" json:"course_name"`
	CreatorID  int64     `db:"creator_id" json:"creator_id"`
	SchoolID   *int64    `db:"school_id" json:"school_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Topic groups concepts under a course.
type Topic struct {
	ID       int64  `db:"topic_id" json:"topic_id"`
	CourseID int64  `db:"course_id" json:"course_id"`
	Name     string `db:"topic_name" json:"topic_name"`
	Position int    `db:"position" json:"position"`
}

// Concept is a single gradeable unit under a topic.
type Concept struct {
	ID       int64  `db:"concept_id" json:"concept_id"`
	TopicID  int64  `db:"topic_id" json:"topic_id"`
	Name     string `db:"concept_name" json:"concept_name"`
	Position int    `db:"position" json:"position"`
}

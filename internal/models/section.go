package models

import "time"

// Semester is a small reference table of season + year.
type Semester struct {
	ID     int64  `db:"semester_id" json:"semester_id"`
	Season string `db:"season" json:"season"`
	Year   int    `db:"year" json:"year"`
}

// Section instantiates a course for a semester. Its enrollment code is
// generated once at creation and is the sole self-service join key.
type Section struct {
	ID         int64     `db:"section_id" json:"section_id"`
	CourseID   int64     `db:"course_id" json:"course_id"`
	SemesterID int64     `db:"semester_id" json:"semester_id"`
	EnrollCode string    `db:"enroll_code" json:"enroll_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SectionTeacher links a teacher to a section.
type SectionTeacher struct {
	ID        int64 `db:"section_teacher_id" json:"section_teacher_id"`
	SectionID int64 `db:"section_id" json:"section_id"`
	TeacherID int64 `db:"teacher_id" json:"teacher_id"`
}

package models

import "time"

// Enrollment links a student to a section. Disenrollment is a soft
// delete: the row stays and DateDisenrolled is set.
type Enrollment struct {
	ID              int64      `db:"enrollment_id" json:"enrollment_id"`
	SectionID       int64      `db:"section_id" json:"section_id"`
	StudentID       int64      `db:"student_id" json:"student_id"`
	DateEnrolled    time.Time  `db:"date_enrolled" json:"date_enrolled"`
	DateDisenrolled *time.Time `db:"date_disenrolled" json:"date_disenrolled,omitempty"`
}

// Active reports whether the enrollment is current.
func (e Enrollment) Active() bool {
	return e.DateDisenrolled == nil
}

// EnrollOutcome distinguishes the successful results of enroll-by-code;
// an unknown code is reported as a typed error instead.
type EnrollOutcome string

const (
	EnrollOutcomeEnrolled  EnrollOutcome = "enrolled"
	EnrollOutcomeDuplicate EnrollOutcome = "already_enrolled"
)

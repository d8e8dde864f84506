package jobs

// Job types dispatched through the provisioning queue.
const (
	// TypeProvisionStudentPoints creates the per-student status rows for
	// every point in a section. Enqueued when a student enrolls or when a
	// section's points are configured.
	TypeProvisionStudentPoints = "provision_student_points"
)

// ProvisionStudentPointsPayload identifies the section/student pair to
// provision.
type ProvisionStudentPointsPayload struct {
	SectionID int64 `json:"section_id"`
	StudentID int64 `json:"student_id"`
}

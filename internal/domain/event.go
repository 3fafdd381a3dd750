package domain

const (
	EventStudentEnrolled   = "StudentEnrolled"
	EventStudentUnenrolled = "StudentUnenrolled"
	EventGradeUpdated      = "GradeUpdated"
	EventCourseCreated     = "CourseCreated"
	EventCourseUpdated     = "CourseUpdated"
	EventCourseDeleted     = "CourseDeleted"
	EventUserDeleted       = "UserDeleted"
)

type EnrollmentEvent struct {
	EventType string
	Payload   any
}

type EnrollmentPayload struct {
	EnrollmentID string  `json:"enrollment_id"`
	StudentID    string  `json:"student_id"`
	CourseID     string  `json:"course_id"`
	Grade        float64 `json:"grade"`
}

type GradeUpdatedPayload struct {
	EnrollmentID  string  `json:"enrollment_id"`
	CourseID      string  `json:"course_id"`
	PreviousGrade float64 `json:"previous_grade"`
	Grade         float64 `json:"grade"`
	UpdatedBy     string  `json:"updated_by"`
}

type CoursePayload struct {
	CourseID  string `json:"course_id"`
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	Schedule  string `json:"schedule"`
	Capacity  int    `json:"capacity"`
}

type UserPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

package domain

import "github.com/google/uuid"

const DefaultGrade = 0.0

type Enrollment struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	CourseID  uuid.UUID
	Grade     float64
}

type RosterEntry struct {
	EnrollmentID uuid.UUID
	StudentID    uuid.UUID
	StudentName  string
	Grade        float64
}

package domain

import "github.com/google/uuid"

type Course struct {
	ID        uuid.UUID
	Name      string
	TeacherID uuid.UUID
	Schedule  string
	Capacity  int
}

type CourseSummary struct {
	Course
	TeacherName string
	Enrolled    int
}

func (c CourseSummary) IsFull() bool {
	return c.Enrolled >= c.Capacity
}

package domain

import "github.com/google/uuid"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID       uuid.UUID
	Username string
	FullName string
	Role     Role
}

// Identity is the authenticated actor behind a single request.
type Identity struct {
	ID   uuid.UUID
	Role Role
}

func (i Identity) Authenticated() bool {
	return i.ID != uuid.Nil && i.Role.Valid()
}

package service

import (
	"github.com/google/uuid"

	"service-enrollment/internal/domain"
)

type Action string

const (
	ActionEnroll      Action = "enroll"
	ActionUnenroll    Action = "unenroll"
	ActionUpdateGrade Action = "update_grade"
	ActionViewStudent Action = "view_student"
	ActionViewTeacher Action = "view_teacher"
	ActionAdmin       Action = "admin"
)

// AuthorizationGuard holds the role and ownership rules for every engine
// operation.
type AuthorizationGuard struct{}

func NewAuthorizationGuard() *AuthorizationGuard {
	return &AuthorizationGuard{}
}

// Authorize returns nil when identity may perform action. ownerID, when
// given, is the teacher that owns the targeted course.
func (g *AuthorizationGuard) Authorize(identity domain.Identity, action Action, ownerID *uuid.UUID) error {
	if !identity.Authenticated() {
		return ErrUnauthenticated
	}

	switch action {
	case ActionEnroll, ActionUnenroll, ActionViewStudent:
		if identity.Role == domain.RoleStudent {
			return nil
		}
	case ActionUpdateGrade, ActionViewTeacher:
		if identity.Role != domain.RoleTeacher {
			return ErrUnauthorized
		}
		if ownerID != nil && *ownerID != identity.ID {
			return ErrUnauthorized
		}
		return nil
	case ActionAdmin:
		if identity.Role == domain.RoleAdmin {
			return nil
		}
	}
	return ErrUnauthorized
}

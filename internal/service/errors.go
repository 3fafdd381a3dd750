package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"service-enrollment/internal/repository"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnauthenticated  = fmt.Errorf("%w: no authenticated identity", ErrUnauthorized)
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyEnrolled  = errors.New("already enrolled")
	ErrNotEnrolled      = errors.New("not enrolled in this course")
	ErrCapacityExceeded = errors.New("course is full")
	ErrTimeConflict     = errors.New("time conflict")
	ErrInvalidGrade     = errors.New("invalid grade value")
)

// TimeConflictError names the already-enrolled course that collides with
// the requested one.
type TimeConflictError struct {
	CourseID   uuid.UUID
	CourseName string
}

func (e *TimeConflictError) Error() string {
	return "time conflict with " + e.CourseName
}

func (e *TimeConflictError) Is(target error) bool {
	return target == ErrTimeConflict
}

// IsRetryable reports whether a failed call hit transient storage trouble
// and may be retried by the caller.
func IsRetryable(err error) bool {
	return repository.IsRetryable(err)
}

// isExpected separates rule violations from storage failures for logging.
func isExpected(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrUnauthorized,
		ErrNotFound,
		ErrConflict,
		ErrAlreadyEnrolled,
		ErrNotEnrolled,
		ErrCapacityExceeded,
		ErrTimeConflict,
		ErrInvalidGrade,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

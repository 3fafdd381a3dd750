package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
	"service-enrollment/internal/schedule"
)

// Ledger owns the enroll, unenroll and grade transitions. Every method runs
// against the repositories of one open transaction.
type Ledger struct {
	guard  *AuthorizationGuard
	policy schedule.ParsePolicy
	logger *zap.Logger
}

func NewLedger(guard *AuthorizationGuard, policy schedule.ParsePolicy, logger *zap.Logger) *Ledger {
	return &Ledger{guard: guard, policy: policy, logger: logger}
}

func (l *Ledger) Enroll(ctx context.Context, repos repository.TxRepositories, studentID, courseID uuid.UUID) (domain.Enrollment, error) {
	course, err := repos.Courses.GetForUpdate(ctx, courseID)
	if err != nil {
		return domain.Enrollment{}, notFound(err)
	}

	enrolled, err := repos.Courses.EnrolledCount(ctx, courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if enrolled >= course.Capacity {
		return domain.Enrollment{}, ErrCapacityExceeded
	}

	_, err = repos.Enrollments.Find(ctx, studentID, courseID)
	if err == nil {
		return domain.Enrollment{}, ErrAlreadyEnrolled
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Enrollment{}, err
	}

	// The student row is locked after the course row so that two enrollments
	// by the same student into different courses see each other's result.
	student, err := repos.Users.GetForUpdate(ctx, studentID)
	if err != nil {
		return domain.Enrollment{}, notFound(err)
	}
	if student.Role != domain.RoleStudent {
		return domain.Enrollment{}, ErrInvalidInput
	}

	current, err := repos.Courses.ListByStudent(ctx, studentID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	for _, other := range current {
		if other.ID == course.ID {
			continue
		}
		if l.collides(course, other.Course) {
			return domain.Enrollment{}, &TimeConflictError{CourseID: other.ID, CourseName: other.Name}
		}
	}

	enrollment := domain.Enrollment{
		ID:        uuid.New(),
		StudentID: studentID,
		CourseID:  courseID,
		Grade:     domain.DefaultGrade,
	}
	if err := repos.Enrollments.Insert(ctx, enrollment); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return domain.Enrollment{}, ErrAlreadyEnrolled
		case errors.Is(err, repository.ErrInvalidReference):
			return domain.Enrollment{}, ErrNotFound
		}
		return domain.Enrollment{}, err
	}

	event := domain.EnrollmentEvent{
		EventType: domain.EventStudentEnrolled,
		Payload:   enrollmentPayload(enrollment),
	}
	if err := repos.Outbox.Insert(ctx, event); err != nil {
		return domain.Enrollment{}, err
	}

	return enrollment, nil
}

func (l *Ledger) collides(requested, existing domain.Course) bool {
	conflict, err := schedule.ConflictsRaw(requested.Schedule, existing.Schedule, l.policy)
	if err != nil {
		l.logger.Warn("schedule could not be parsed for conflict check",
			zap.String("course_id", requested.ID.String()),
			zap.String("other_course_id", existing.ID.String()),
			zap.Stringer("policy", l.policy),
			zap.Error(err),
		)
	}
	return conflict
}

// Unenroll deletes the pair's enrollment. The grade goes with it.
func (l *Ledger) Unenroll(ctx context.Context, repos repository.TxRepositories, studentID, courseID uuid.UUID) (domain.Enrollment, error) {
	enrollment, err := repos.Enrollments.Find(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Enrollment{}, ErrNotEnrolled
		}
		return domain.Enrollment{}, err
	}
	if err := l.remove(ctx, repos, enrollment); err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Enrollment{}, ErrNotEnrolled
		}
		return domain.Enrollment{}, err
	}
	return enrollment, nil
}

// Remove deletes an enrollment by id without any ownership check.
func (l *Ledger) Remove(ctx context.Context, repos repository.TxRepositories, enrollmentID uuid.UUID) (domain.Enrollment, error) {
	enrollment, err := repos.Enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return domain.Enrollment{}, notFound(err)
	}
	if err := l.remove(ctx, repos, enrollment); err != nil {
		return domain.Enrollment{}, err
	}
	return enrollment, nil
}

func (l *Ledger) remove(ctx context.Context, repos repository.TxRepositories, enrollment domain.Enrollment) error {
	if err := repos.Enrollments.Delete(ctx, enrollment.ID); err != nil {
		return notFound(err)
	}
	return repos.Outbox.Insert(ctx, domain.EnrollmentEvent{
		EventType: domain.EventStudentUnenrolled,
		Payload:   enrollmentPayload(enrollment),
	})
}

func (l *Ledger) UpdateGrade(
	ctx context.Context,
	repos repository.TxRepositories,
	actor domain.Identity,
	enrollmentID uuid.UUID,
	rawGrade string,
) (domain.Enrollment, error) {
	enrollment, err := repos.Enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return domain.Enrollment{}, notFound(err)
	}

	owner, err := repos.Courses.OwnerOf(ctx, enrollment.CourseID)
	if err != nil {
		return domain.Enrollment{}, notFound(err)
	}
	if err := l.guard.Authorize(actor, ActionUpdateGrade, &owner); err != nil {
		return domain.Enrollment{}, err
	}

	return l.applyGrade(ctx, repos, actor, enrollment, rawGrade)
}

// OverrideGrade sets a grade without the course ownership check. Callers
// authorize the actor themselves.
func (l *Ledger) OverrideGrade(
	ctx context.Context,
	repos repository.TxRepositories,
	actor domain.Identity,
	enrollmentID uuid.UUID,
	rawGrade string,
) (domain.Enrollment, error) {
	enrollment, err := repos.Enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return domain.Enrollment{}, notFound(err)
	}
	return l.applyGrade(ctx, repos, actor, enrollment, rawGrade)
}

func (l *Ledger) applyGrade(
	ctx context.Context,
	repos repository.TxRepositories,
	actor domain.Identity,
	enrollment domain.Enrollment,
	rawGrade string,
) (domain.Enrollment, error) {
	grade, err := ParseGrade(rawGrade)
	if err != nil {
		return domain.Enrollment{}, err
	}

	if err := repos.Enrollments.UpdateGrade(ctx, enrollment.ID, grade); err != nil {
		return domain.Enrollment{}, notFound(err)
	}

	event := domain.EnrollmentEvent{
		EventType: domain.EventGradeUpdated,
		Payload: domain.GradeUpdatedPayload{
			EnrollmentID:  enrollment.ID.String(),
			CourseID:      enrollment.CourseID.String(),
			PreviousGrade: enrollment.Grade,
			Grade:         grade,
			UpdatedBy:     actor.ID.String(),
		},
	}
	if err := repos.Outbox.Insert(ctx, event); err != nil {
		return domain.Enrollment{}, err
	}

	enrollment.Grade = grade
	return enrollment, nil
}

// ParseGrade accepts any finite decimal number. No range is imposed.
func ParseGrade(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, ErrInvalidGrade
	}
	grade, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(grade) || math.IsInf(grade, 0) {
		return 0, ErrInvalidGrade
	}
	return grade, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func enrollmentPayload(enrollment domain.Enrollment) domain.EnrollmentPayload {
	return domain.EnrollmentPayload{
		EnrollmentID: enrollment.ID.String(),
		StudentID:    enrollment.StudentID.String(),
		CourseID:     enrollment.CourseID.String(),
		Grade:        enrollment.Grade,
	}
}

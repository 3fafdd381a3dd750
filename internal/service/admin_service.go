package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
	"service-enrollment/internal/schedule"
)

// AdminService exposes raw record management to the admin role.
// Enrollment writes go through the ledger, so capacity, duplicate and
// schedule rules hold for admins too.
type AdminService struct {
	txManager repository.TxManager
	guard     *AuthorizationGuard
	ledger    *Ledger
	logger    *zap.Logger
}

func NewAdminService(txManager repository.TxManager, guard *AuthorizationGuard, ledger *Ledger, logger *zap.Logger) *AdminService {
	return &AdminService{txManager: txManager, guard: guard, ledger: ledger, logger: logger}
}

type CourseInput struct {
	Name      string
	TeacherID uuid.UUID
	Schedule  string
	Capacity  int
}

func (s *AdminService) ListUsers(ctx context.Context, actor domain.Identity) ([]domain.User, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return nil, err
	}

	var users []domain.User
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		users, err = repos.Users.List(ctx)
		return err
	})
	return users, err
}

func (s *AdminService) CreateUser(ctx context.Context, actor domain.Identity, username, fullName string, role domain.Role) (domain.User, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:       uuid.New(),
		Username: strings.TrimSpace(username),
		FullName: strings.TrimSpace(fullName),
		Role:     role,
	}
	if user.Username == "" || user.FullName == "" || !user.Role.Valid() {
		return domain.User{}, ErrInvalidInput
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Users.Insert(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return user, nil
}

// DeleteUser removes a user. A student's enrollments are dropped with them
// and each one is recorded as a StudentUnenrolled event. A teacher who
// still owns courses cannot be deleted.
func (s *AdminService) DeleteUser(ctx context.Context, actor domain.Identity, userID uuid.UUID) error {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return err
	}
	if userID == actor.ID {
		return ErrInvalidInput
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		user, err := repos.Users.GetForUpdate(ctx, userID)
		if err != nil {
			return notFound(err)
		}

		enrollments, err := repos.Enrollments.ListByStudent(ctx, userID)
		if err != nil {
			return err
		}

		if err := repos.Users.Delete(ctx, userID); err != nil {
			switch {
			case errors.Is(err, repository.ErrInvalidReference):
				return ErrConflict
			case errors.Is(err, repository.ErrNotFound):
				return ErrNotFound
			}
			return err
		}

		for _, enrollment := range enrollments {
			if err := repos.Outbox.Insert(ctx, domain.EnrollmentEvent{
				EventType: domain.EventStudentUnenrolled,
				Payload:   enrollmentPayload(enrollment),
			}); err != nil {
				return err
			}
		}
		return repos.Outbox.Insert(ctx, domain.EnrollmentEvent{
			EventType: domain.EventUserDeleted,
			Payload: domain.UserPayload{
				UserID:   user.ID.String(),
				Username: user.Username,
				Role:     string(user.Role),
			},
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", userID.String()))
	return nil
}

func (s *AdminService) ListCourses(ctx context.Context, actor domain.Identity) ([]domain.CourseSummary, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return nil, err
	}

	var courses []domain.CourseSummary
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		courses, err = repos.Courses.List(ctx)
		return err
	})
	return courses, err
}

// CreateCourse stores a new offering. The owner must be a teacher. A
// schedule the parser cannot read is stored anyway and logged, since
// conflict checks treat it according to the configured policy.
func (s *AdminService) CreateCourse(ctx context.Context, actor domain.Identity, input CourseInput) (domain.Course, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return domain.Course{}, err
	}

	course, err := s.courseFromInput(uuid.New(), input)
	if err != nil {
		return domain.Course{}, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := requireTeacher(ctx, repos, course.TeacherID); err != nil {
			return err
		}
		if err := repos.Courses.Insert(ctx, course); err != nil {
			return err
		}
		return repos.Outbox.Insert(ctx, domain.EnrollmentEvent{
			EventType: domain.EventCourseCreated,
			Payload:   coursePayload(course),
		})
	})
	if err != nil {
		return domain.Course{}, err
	}

	s.logger.Info("course created", zap.String("course_id", course.ID.String()), zap.String("name", course.Name))
	return course, nil
}

// UpdateCourse replaces a course's name, owner, schedule and capacity.
// Capacity cannot drop below the current enrollment. Existing enrollments
// are kept even if the new schedule collides with a student's other
// courses.
func (s *AdminService) UpdateCourse(ctx context.Context, actor domain.Identity, courseID uuid.UUID, input CourseInput) (domain.Course, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return domain.Course{}, err
	}

	course, err := s.courseFromInput(courseID, input)
	if err != nil {
		return domain.Course{}, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if _, err := repos.Courses.GetForUpdate(ctx, courseID); err != nil {
			return notFound(err)
		}
		if err := requireTeacher(ctx, repos, course.TeacherID); err != nil {
			return err
		}
		enrolled, err := repos.Courses.EnrolledCount(ctx, courseID)
		if err != nil {
			return err
		}
		if course.Capacity < enrolled {
			return ErrInvalidInput
		}
		if err := repos.Courses.Update(ctx, course); err != nil {
			return notFound(err)
		}
		return repos.Outbox.Insert(ctx, domain.EnrollmentEvent{
			EventType: domain.EventCourseUpdated,
			Payload:   coursePayload(course),
		})
	})
	if err != nil {
		return domain.Course{}, err
	}

	s.logger.Info("course updated", zap.String("course_id", course.ID.String()))
	return course, nil
}

func (s *AdminService) courseFromInput(id uuid.UUID, input CourseInput) (domain.Course, error) {
	course := domain.Course{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		TeacherID: input.TeacherID,
		Schedule:  strings.TrimSpace(input.Schedule),
		Capacity:  input.Capacity,
	}
	if course.Name == "" || course.Schedule == "" || course.Capacity <= 0 || course.TeacherID == uuid.Nil {
		return domain.Course{}, ErrInvalidInput
	}

	if _, err := schedule.Parse(course.Schedule); err != nil {
		s.logger.Warn("course schedule is not parsable",
			zap.String("course_id", course.ID.String()),
			zap.String("schedule", course.Schedule),
			zap.Error(err),
		)
	}
	return course, nil
}

func requireTeacher(ctx context.Context, repos repository.TxRepositories, teacherID uuid.UUID) error {
	teacher, err := repos.Users.Get(ctx, teacherID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidInput
		}
		return err
	}
	if teacher.Role != domain.RoleTeacher {
		return ErrInvalidInput
	}
	return nil
}

// DeleteCourse removes a course together with all of its enrollments.
func (s *AdminService) DeleteCourse(ctx context.Context, actor domain.Identity, courseID uuid.UUID) error {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return err
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		course, err := repos.Courses.GetForUpdate(ctx, courseID)
		if err != nil {
			return notFound(err)
		}
		if err := repos.Courses.Delete(ctx, courseID); err != nil {
			return notFound(err)
		}
		return repos.Outbox.Insert(ctx, domain.EnrollmentEvent{
			EventType: domain.EventCourseDeleted,
			Payload:   coursePayload(course),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("course deleted", zap.String("course_id", courseID.String()))
	return nil
}

func (s *AdminService) ListEnrollments(ctx context.Context, actor domain.Identity) ([]domain.Enrollment, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return nil, err
	}

	var enrollments []domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		enrollments, err = repos.Enrollments.List(ctx)
		return err
	})
	return enrollments, err
}

// CreateEnrollment enrolls a student on an admin's behalf.
func (s *AdminService) CreateEnrollment(ctx context.Context, actor domain.Identity, studentID, courseID uuid.UUID) (domain.Enrollment, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return domain.Enrollment{}, err
	}

	var enrollment domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		enrollment, err = s.ledger.Enroll(ctx, repos, studentID, courseID)
		return err
	})
	if err != nil {
		return domain.Enrollment{}, err
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("course_id", courseID.String()),
	)
	return enrollment, nil
}

func (s *AdminService) DeleteEnrollment(ctx context.Context, actor domain.Identity, enrollmentID uuid.UUID) error {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return err
	}

	var removed domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		removed, err = s.ledger.Remove(ctx, repos, enrollmentID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("enrollment deleted",
		zap.String("enrollment_id", enrollmentID.String()),
		zap.Float64("discarded_grade", removed.Grade),
	)
	return nil
}

// UpdateEnrollmentGrade edits any enrollment's grade regardless of course
// ownership.
func (s *AdminService) UpdateEnrollmentGrade(ctx context.Context, actor domain.Identity, enrollmentID uuid.UUID, grade string) (domain.Enrollment, error) {
	if err := s.guard.Authorize(actor, ActionAdmin, nil); err != nil {
		return domain.Enrollment{}, err
	}

	var updated domain.Enrollment
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		updated, err = s.ledger.OverrideGrade(ctx, repos, actor, enrollmentID, grade)
		return err
	})
	if err != nil {
		return domain.Enrollment{}, err
	}

	s.logger.Info("enrollment grade edited", zap.String("enrollment_id", enrollmentID.String()), zap.Float64("grade", updated.Grade))
	return updated, nil
}

func coursePayload(course domain.Course) domain.CoursePayload {
	return domain.CoursePayload{
		CourseID:  course.ID.String(),
		Name:      course.Name,
		TeacherID: course.TeacherID.String(),
		Schedule:  course.Schedule,
		Capacity:  course.Capacity,
	}
}

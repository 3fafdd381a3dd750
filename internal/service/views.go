package service

import (
	"context"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
)

type AvailableCourse struct {
	domain.CourseSummary
	IsFull     bool
	IsEnrolled bool
}

type StudentOverview struct {
	MyCourses []domain.CourseSummary
	Available []AvailableCourse
}

func (s *EnrollmentService) StudentOverview(ctx context.Context, actor domain.Identity) (StudentOverview, error) {
	if err := s.guard.Authorize(actor, ActionViewStudent, nil); err != nil {
		return StudentOverview{}, err
	}

	var overview StudentOverview
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		mine, err := repos.Courses.ListByStudent(ctx, actor.ID)
		if err != nil {
			return err
		}
		all, err := repos.Courses.List(ctx)
		if err != nil {
			return err
		}

		enrolled := make(map[uuid.UUID]struct{}, len(mine))
		for _, course := range mine {
			enrolled[course.ID] = struct{}{}
		}

		available := make([]AvailableCourse, 0, len(all))
		for _, course := range all {
			_, isEnrolled := enrolled[course.ID]
			available = append(available, AvailableCourse{
				CourseSummary: course,
				IsFull:        course.IsFull(),
				IsEnrolled:    isEnrolled,
			})
		}

		overview = StudentOverview{MyCourses: mine, Available: available}
		return nil
	})
	if err != nil {
		s.logFailure("student overview", err)
		return StudentOverview{}, err
	}
	return overview, nil
}

func (s *EnrollmentService) TeacherCourses(ctx context.Context, actor domain.Identity) ([]domain.CourseSummary, error) {
	if err := s.guard.Authorize(actor, ActionViewTeacher, nil); err != nil {
		return nil, err
	}

	var courses []domain.CourseSummary
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		courses, err = repos.Courses.ListByTeacher(ctx, actor.ID)
		return err
	})
	if err != nil {
		s.logFailure("teacher courses", err)
		return nil, err
	}
	return courses, nil
}

// CourseRoster lists the students of a course owned by the acting teacher.
func (s *EnrollmentService) CourseRoster(ctx context.Context, actor domain.Identity, courseID uuid.UUID) (domain.Course, []domain.RosterEntry, error) {
	if err := s.guard.Authorize(actor, ActionViewTeacher, nil); err != nil {
		return domain.Course{}, nil, err
	}

	var (
		course domain.Course
		roster []domain.RosterEntry
	)
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		course, err = repos.Courses.Get(ctx, courseID)
		if err != nil {
			return notFound(err)
		}
		if err := s.guard.Authorize(actor, ActionViewTeacher, &course.TeacherID); err != nil {
			return err
		}
		roster, err = repos.Enrollments.ListByCourse(ctx, courseID)
		return err
	})
	if err != nil {
		s.logFailure("course roster", err)
		return domain.Course{}, nil, err
	}
	return course, roster, nil
}

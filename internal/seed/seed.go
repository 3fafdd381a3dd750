// Package seed loads the sample institution used for demos and manual
// testing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
)

var ErrNotEmpty = errors.New("database already has users")

type sampleUser struct {
	username string
	fullName string
	role     domain.Role
}

var users = []sampleUser{
	{"jsantos", "Jose Santos", domain.RoleStudent},
	{"bbrown", "Betty Brown", domain.RoleStudent},
	{"jstuart", "John Stuart", domain.RoleStudent},
	{"lcheng", "Li Cheng", domain.RoleStudent},
	{"nlittle", "Nancy Little", domain.RoleStudent},
	{"mnorris", "Mindy Norris", domain.RoleStudent},
	{"aranganath", "Aditya Ranganath", domain.RoleStudent},
	{"ychen", "Yi Wen Chen", domain.RoleStudent},
	{"ahepworth", "Ammon Hepworth", domain.RoleTeacher},
	{"swalker", "Susan Walker", domain.RoleTeacher},
	{"rjenkins", "Ralph Jenkins", domain.RoleTeacher},
	{"admin", "System Administrator", domain.RoleAdmin},
}

type sampleCourse struct {
	name     string
	teacher  string
	schedule string
	capacity int
}

var courses = []sampleCourse{
	{"Math 101", "rjenkins", "MWF 10:00-10:50 AM", 8},
	{"Physics 121", "swalker", "TR 11:00-11:50 AM", 10},
	{"CS 106", "ahepworth", "MWF 2:00-2:50 PM", 10},
	{"CS 162", "ahepworth", "TR 3:00-3:50 PM", 4},
}

type sampleEnrollment struct {
	student string
	course  string
	grade   float64
}

var enrollments = []sampleEnrollment{
	{"jsantos", "Math 101", 92},
	{"bbrown", "Math 101", 65},
	{"jstuart", "Math 101", 86},
	{"lcheng", "Math 101", 77},
	{"nlittle", "Physics 121", 53},
	{"lcheng", "Physics 121", 85},
	{"mnorris", "Physics 121", 94},
	{"jstuart", "Physics 121", 91},
	{"bbrown", "Physics 121", 88},
	{"aranganath", "CS 106", 93},
	{"ychen", "CS 106", 85},
	{"nlittle", "CS 106", 57},
	{"mnorris", "CS 106", 68},
	{"aranganath", "CS 162", 99},
	{"nlittle", "CS 162", 87},
	{"ychen", "CS 162", 92},
	{"jstuart", "CS 162", 67},
}

// UserID is stable per username so seeded ids survive a reseed.
func UserID(username string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("service-enrollment/user/"+username))
}

func CourseID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("service-enrollment/course/"+name))
}

// Load inserts the sample users, courses and graded enrollments in one
// transaction and returns the users it created.
func Load(ctx context.Context, txManager repository.TxManager) ([]domain.User, error) {
	created := make([]domain.User, 0, len(users))

	err := txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		existing, err := repos.Users.List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrNotEmpty
		}

		for _, u := range users {
			user := domain.User{ID: UserID(u.username), Username: u.username, FullName: u.fullName, Role: u.role}
			if err := repos.Users.Insert(ctx, user); err != nil {
				return fmt.Errorf("insert user %s: %w", u.username, err)
			}
			created = append(created, user)
		}

		for _, c := range courses {
			course := domain.Course{
				ID:        CourseID(c.name),
				Name:      c.name,
				TeacherID: UserID(c.teacher),
				Schedule:  c.schedule,
				Capacity:  c.capacity,
			}
			if err := repos.Courses.Insert(ctx, course); err != nil {
				return fmt.Errorf("insert course %s: %w", c.name, err)
			}
		}

		for _, e := range enrollments {
			enrollment := domain.Enrollment{
				ID:        uuid.New(),
				StudentID: UserID(e.student),
				CourseID:  CourseID(e.course),
				Grade:     e.grade,
			}
			if err := repos.Enrollments.Insert(ctx, enrollment); err != nil {
				return fmt.Errorf("enroll %s in %s: %w", e.student, e.course, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Package testkit builds migrated SQLite databases and fixtures for tests.
package testkit

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
	"service-enrollment/migrations"
)

// DB is a migrated temporary SQLite database with a transaction manager.
type DB struct {
	SQL       *sql.DB
	TxManager *repository.SQLTxManager
}

func OpenSQLite(t testing.TB) *DB {
	t.Helper()

	sqlDB, err := repository.Open(repository.DialectSQLite, filepath.Join(t.TempDir(), "enrollment.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})
	if err := migrations.UpSQLite(sqlDB); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return &DB{
		SQL:       sqlDB,
		TxManager: repository.NewSQLTxManager(sqlDB, repository.DialectSQLite, 10*time.Second),
	}
}

func (db *DB) withTx(t testing.TB, fn func(ctx context.Context, repos repository.TxRepositories) error) {
	t.Helper()

	if err := db.TxManager.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("fixture transaction: %v", err)
	}
}

func (db *DB) User(t testing.TB, role domain.Role, fullName string) domain.User {
	t.Helper()

	user := domain.User{
		ID:       uuid.New(),
		Username: fullName + "-" + uuid.NewString()[:8],
		FullName: fullName,
		Role:     role,
	}
	db.withTx(t, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Users.Insert(ctx, user)
	})
	return user
}

func (db *DB) Identity(t testing.TB, role domain.Role, fullName string) domain.Identity {
	t.Helper()

	user := db.User(t, role, fullName)
	return domain.Identity{ID: user.ID, Role: user.Role}
}

func (db *DB) Course(t testing.TB, teacherID uuid.UUID, name, schedule string, capacity int) domain.Course {
	t.Helper()

	course := domain.Course{
		ID:        uuid.New(),
		Name:      name,
		TeacherID: teacherID,
		Schedule:  schedule,
		Capacity:  capacity,
	}
	db.withTx(t, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Courses.Insert(ctx, course)
	})
	return course
}

func (db *DB) Enrollment(t testing.TB, studentID, courseID uuid.UUID, grade float64) domain.Enrollment {
	t.Helper()

	enrollment := domain.Enrollment{
		ID:        uuid.New(),
		StudentID: studentID,
		CourseID:  courseID,
		Grade:     grade,
	}
	db.withTx(t, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Enrollments.Insert(ctx, enrollment)
	})
	return enrollment
}

func (db *DB) EnrolledCount(t testing.TB, courseID uuid.UUID) int {
	t.Helper()

	var count int
	db.withTx(t, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		count, err = repos.Courses.EnrolledCount(ctx, courseID)
		return err
	})
	return count
}

// FindEnrollment returns the pair's enrollment and whether it exists.
func (db *DB) FindEnrollment(t testing.TB, studentID, courseID uuid.UUID) (domain.Enrollment, bool) {
	t.Helper()

	var (
		enrollment domain.Enrollment
		found      bool
	)
	db.withTx(t, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		enrollment, err = repos.Enrollments.Find(ctx, studentID, courseID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	return enrollment, found
}

func (db *DB) OutboxCount(t testing.TB, eventType string) int {
	t.Helper()

	var count int
	if err := db.SQL.QueryRow(`SELECT COUNT(*) FROM outbox_events WHERE event_type = ?`, eventType).Scan(&count); err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return count
}

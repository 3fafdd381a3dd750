package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
)

type EnrollmentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Enrollment, error)
	Find(ctx context.Context, studentID, courseID uuid.UUID) (domain.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.RosterEntry, error)
	List(ctx context.Context) ([]domain.Enrollment, error)
	Insert(ctx context.Context, enrollment domain.Enrollment) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateGrade(ctx context.Context, id uuid.UUID, grade float64) error
}

type EnrollmentSQLRepository struct {
	execer  Execer
	dialect Dialect
}

func NewEnrollmentSQLRepository(execer Execer, dialect Dialect) *EnrollmentSQLRepository {
	return &EnrollmentSQLRepository{execer: execer, dialect: dialect}
}

const enrollmentColumns = `id, student_id, course_id, grade`

func (r *EnrollmentSQLRepository) Get(ctx context.Context, id uuid.UUID) (domain.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	return r.getEnrollment(ctx, query, id)
}

func (r *EnrollmentSQLRepository) Find(ctx context.Context, studentID, courseID uuid.UUID) (domain.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND course_id = $2`
	return r.getEnrollment(ctx, query, studentID, courseID)
}

func (r *EnrollmentSQLRepository) getEnrollment(ctx context.Context, query string, args ...any) (domain.Enrollment, error) {
	var enrollment domain.Enrollment
	if err := r.execer.QueryRowContext(ctx, r.dialect.rebind(query), args...).Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollment.Grade,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Enrollment{}, ErrNotFound
		}
		return domain.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *EnrollmentSQLRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 ORDER BY id ASC`
	return r.listEnrollments(ctx, query, studentID)
}

func (r *EnrollmentSQLRepository) List(ctx context.Context) ([]domain.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments ORDER BY course_id ASC, student_id ASC`
	return r.listEnrollments(ctx, query)
}

func (r *EnrollmentSQLRepository) listEnrollments(ctx context.Context, query string, args ...any) ([]domain.Enrollment, error) {
	rows, err := r.execer.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var enrollment domain.Enrollment
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.StudentID,
			&enrollment.CourseID,
			&enrollment.Grade,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *EnrollmentSQLRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.RosterEntry, error) {
	const query = `
SELECT e.id, e.student_id, COALESCE(u.full_name, ''), e.grade
FROM enrollments e
LEFT JOIN users u ON u.id = e.student_id
WHERE e.course_id = $1
ORDER BY u.full_name ASC
`

	rows, err := r.execer.QueryContext(ctx, r.dialect.rebind(query), courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []domain.RosterEntry
	for rows.Next() {
		var entry domain.RosterEntry
		if err := rows.Scan(&entry.EnrollmentID, &entry.StudentID, &entry.StudentName, &entry.Grade); err != nil {
			return nil, err
		}
		roster = append(roster, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return roster, nil
}

func (r *EnrollmentSQLRepository) Insert(ctx context.Context, enrollment domain.Enrollment) error {
	const query = `
INSERT INTO enrollments (id, student_id, course_id, grade)
VALUES ($1, $2, $3, $4)
`

	_, err := r.execer.ExecContext(
		ctx,
		r.dialect.rebind(query),
		enrollment.ID,
		enrollment.StudentID,
		enrollment.CourseID,
		enrollment.Grade,
	)
	return mapWriteError(err)
}

func (r *EnrollmentSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	return execExpectingRow(ctx, r.execer, r.dialect.rebind(query), id)
}

func (r *EnrollmentSQLRepository) UpdateGrade(ctx context.Context, id uuid.UUID, grade float64) error {
	const query = `UPDATE enrollments SET grade = $1 WHERE id = $2`
	return execExpectingRow(ctx, r.execer, r.dialect.rebind(query), grade, id)
}

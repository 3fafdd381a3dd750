package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
)

type CourseRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Course, error)
	// GetForUpdate reads the course and holds it locked until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Course, error)
	EnrolledCount(ctx context.Context, id uuid.UUID) (int, error)
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	List(ctx context.Context) ([]domain.CourseSummary, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]domain.CourseSummary, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.CourseSummary, error)
	Insert(ctx context.Context, course domain.Course) error
	Update(ctx context.Context, course domain.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CourseSQLRepository struct {
	execer  Execer
	dialect Dialect
}

func NewCourseSQLRepository(execer Execer, dialect Dialect) *CourseSQLRepository {
	return &CourseSQLRepository{execer: execer, dialect: dialect}
}

const courseColumns = `id, name, teacher_id, schedule, capacity`

func (r *CourseSQLRepository) Get(ctx context.Context, id uuid.UUID) (domain.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return r.getCourse(ctx, query, id)
}

func (r *CourseSQLRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 ` + r.dialect.lockClause()
	return r.getCourse(ctx, query, id)
}

func (r *CourseSQLRepository) getCourse(ctx context.Context, query string, id uuid.UUID) (domain.Course, error) {
	var course domain.Course
	if err := r.execer.QueryRowContext(ctx, r.dialect.rebind(query), id).Scan(
		&course.ID,
		&course.Name,
		&course.TeacherID,
		&course.Schedule,
		&course.Capacity,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Course{}, ErrNotFound
		}
		return domain.Course{}, err
	}
	return course, nil
}

func (r *CourseSQLRepository) EnrolledCount(ctx context.Context, id uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`

	var count int
	if err := r.execer.QueryRowContext(ctx, r.dialect.rebind(query), id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CourseSQLRepository) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const query = `SELECT teacher_id FROM courses WHERE id = $1`

	var owner uuid.UUID
	if err := r.execer.QueryRowContext(ctx, r.dialect.rebind(query), id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	return owner, nil
}

const summarySelect = `
SELECT c.id, c.name, c.teacher_id, c.schedule, c.capacity,
	COALESCE(u.full_name, ''),
	(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id)
FROM courses c
LEFT JOIN users u ON u.id = c.teacher_id
`

func (r *CourseSQLRepository) List(ctx context.Context) ([]domain.CourseSummary, error) {
	return r.listSummaries(ctx, summarySelect+`ORDER BY c.name ASC`)
}

func (r *CourseSQLRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]domain.CourseSummary, error) {
	return r.listSummaries(ctx, summarySelect+`WHERE c.teacher_id = $1 ORDER BY c.name ASC`, teacherID)
}

func (r *CourseSQLRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.CourseSummary, error) {
	return r.listSummaries(
		ctx,
		summarySelect+`JOIN enrollments en ON en.course_id = c.id WHERE en.student_id = $1 ORDER BY c.name ASC`,
		studentID,
	)
}

func (r *CourseSQLRepository) listSummaries(ctx context.Context, query string, args ...any) ([]domain.CourseSummary, error) {
	rows, err := r.execer.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.CourseSummary
	for rows.Next() {
		var summary domain.CourseSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.TeacherID,
			&summary.Schedule,
			&summary.Capacity,
			&summary.TeacherName,
			&summary.Enrolled,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *CourseSQLRepository) Insert(ctx context.Context, course domain.Course) error {
	const query = `
INSERT INTO courses (id, name, teacher_id, schedule, capacity)
VALUES ($1, $2, $3, $4, $5)
`

	_, err := r.execer.ExecContext(
		ctx,
		r.dialect.rebind(query),
		course.ID,
		course.Name,
		course.TeacherID,
		course.Schedule,
		course.Capacity,
	)
	return mapWriteError(err)
}

// Delete removes the course; its enrollments go with it through the
// ON DELETE CASCADE foreign key.
func (r *CourseSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM courses WHERE id = $1`
	return execExpectingRow(ctx, r.execer, r.dialect.rebind(query), id)
}

// Update rewrites every mutable column of an existing course.
func (r *CourseSQLRepository) Update(ctx context.Context, course domain.Course) error {
	const query = `
UPDATE courses
SET name = $1, teacher_id = $2, schedule = $3, capacity = $4
WHERE id = $5
`

	return execExpectingRow(
		ctx,
		r.execer,
		r.dialect.rebind(query),
		course.Name,
		course.TeacherID,
		course.Schedule,
		course.Capacity,
		course.ID,
	)
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
)

type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	// GetForUpdate reads the user and holds the row locked until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (domain.User, error)
	Insert(ctx context.Context, user domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	// Delete removes the user and, through the foreign key cascade, their
	// enrollments. A teacher who still owns courses yields
	// ErrInvalidReference.
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserSQLRepository struct {
	execer  Execer
	dialect Dialect
}

func NewUserSQLRepository(execer Execer, dialect Dialect) *UserSQLRepository {
	return &UserSQLRepository{execer: execer, dialect: dialect}
}

const userColumns = `id, username, full_name, role`

func (r *UserSQLRepository) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getUser(ctx, query, id)
}

func (r *UserSQLRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 ` + r.dialect.lockClause()
	return r.getUser(ctx, query, id)
}

func (r *UserSQLRepository) getUser(ctx context.Context, query string, id uuid.UUID) (domain.User, error) {
	var user domain.User
	if err := r.execer.QueryRowContext(ctx, r.dialect.rebind(query), id).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Role,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserSQLRepository) Insert(ctx context.Context, user domain.User) error {
	const query = `
INSERT INTO users (id, username, full_name, role)
VALUES ($1, $2, $3, $4)
`

	_, err := r.execer.ExecContext(ctx, r.dialect.rebind(query), user.ID, user.Username, user.FullName, string(user.Role))
	return mapWriteError(err)
}

func (r *UserSQLRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
SELECT id, username, full_name, role
FROM users
ORDER BY username ASC
`

	rows, err := r.execer.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.Role); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM users WHERE id = $1`
	return execExpectingRow(ctx, r.execer, r.dialect.rebind(query), id)
}

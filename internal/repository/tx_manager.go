package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type TxRepositories struct {
	Users       UserRepository
	Courses     CourseRepository
	Enrollments EnrollmentRepository
	Outbox      OutboxRepository
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type SQLTxManager struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

// NewSQLTxManager bounds every transaction by timeout; zero disables the bound.
func NewSQLTxManager(db *sql.DB, dialect Dialect, timeout time.Duration) *SQLTxManager {
	return &SQLTxManager{db: db, dialect: dialect, timeout: timeout}
}

func (m *SQLTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.db.BeginTx(ctx, m.dialect.txOptions())
	if err != nil {
		return classify(err)
	}

	repos := TxRepositories{
		Users:       NewUserSQLRepository(tx, m.dialect),
		Courses:     NewCourseSQLRepository(tx, m.dialect),
		Enrollments: NewEnrollmentSQLRepository(tx, m.dialect),
		Outbox:      NewOutboxSQLRepository(tx, m.dialect),
	}

	if err := fn(ctx, repos); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return errors.Join(classify(err), rollbackErr)
		}
		return classify(err)
	}

	return classify(tx.Commit())
}

// Ping checks the underlying handle within the transaction timeout.
func (m *SQLTxManager) Ping(ctx context.Context) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return classify(m.db.PingContext(ctx))
}

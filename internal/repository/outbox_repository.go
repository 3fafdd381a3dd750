package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
)

type OutboxRepository interface {
	Insert(ctx context.Context, event domain.EnrollmentEvent) error
}

type OutboxSQLRepository struct {
	execer  Execer
	dialect Dialect
}

func NewOutboxSQLRepository(execer Execer, dialect Dialect) *OutboxSQLRepository {
	return &OutboxSQLRepository{execer: execer, dialect: dialect}
}

func (r *OutboxSQLRepository) Insert(ctx context.Context, event domain.EnrollmentEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO outbox_events (
	id,
	event_type,
	payload,
	created_at,
	published
) VALUES ($1, $2, $3, CURRENT_TIMESTAMP, FALSE)
`

	_, err = r.execer.ExecContext(ctx, r.dialect.rebind(query), uuid.New(), event.EventType, string(payload))
	return err
}

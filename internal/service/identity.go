package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
)

// IdentityResolver turns the user id presented with a request into the
// acting identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (domain.Identity, error)
}

// DirectoryIdentityResolver reads roles from the local users table.
type DirectoryIdentityResolver struct {
	txManager repository.TxManager
}

func NewDirectoryIdentityResolver(txManager repository.TxManager) *DirectoryIdentityResolver {
	return &DirectoryIdentityResolver{txManager: txManager}
}

func (r *DirectoryIdentityResolver) Resolve(ctx context.Context, userID uuid.UUID) (domain.Identity, error) {
	if userID == uuid.Nil {
		return domain.Identity{}, ErrUnauthenticated
	}

	var user domain.User
	err := r.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		user, err = repos.Users.Get(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, ErrUnauthenticated
		}
		return domain.Identity{}, err
	}

	return domain.Identity{ID: user.ID, Role: user.Role}, nil
}

// Package requestctx carries the resolved request identity through context.
package requestctx

import (
	"context"

	"service-enrollment/internal/domain"
)

type identityContextKey struct{}

// WithIdentity stores the acting identity in context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the stored identity, or the zero identity
// when none was resolved.
func IdentityFromContext(ctx context.Context) domain.Identity {
	if ctx == nil {
		return domain.Identity{}
	}
	identity, _ := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity
}

package auth

import (
	"context"

	"blogpress/app/models"
)

type contextKey struct{}

// WithIdentity stores the caller's identity in ctx.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFrom returns the identity stored in ctx, or Anonymous.
func IdentityFrom(ctx context.Context) models.Identity {
	if identity, ok := ctx.Value(contextKey{}).(models.Identity); ok {
		return identity
	}
	return models.Anonymous
}

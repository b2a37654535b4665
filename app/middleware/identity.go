package middleware

import (
	"context"
	"net/http"

	"blogpress/app/auth"
	"blogpress/app/models"
)

// IdentityResolver turns a session token into an identity.
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) models.Identity
}

// AdminGate reports whether an identity may use admin routes.
type AdminGate interface {
	RequireAdmin(identity models.Identity) error
}

// Identity loads the caller's identity from the session cookie into the request context.
func Identity(resolver IdentityResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := models.Anonymous
			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				identity = resolver.CurrentIdentity(r.Context(), cookie.Value)
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin passes admins through and hands everyone else to denied.
func RequireAdmin(gate AdminGate, denied http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := gate.RequireAdmin(auth.IdentityFrom(r.Context())); err != nil {
				denied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

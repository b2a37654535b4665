package auth

import (
	"blogpress/app/authz"
	"blogpress/app/models"
)

// Authorizer answers role permission questions.
type Authorizer interface {
	Allowed(role, object, action string) (bool, error)
}

// Guard enforces role checks on an explicit identity.
type Guard struct {
	authorizer Authorizer
}

func NewGuard(authorizer Authorizer) *Guard {
	return &Guard{authorizer: authorizer}
}

// RequireAdmin succeeds only for identities allowed to write posts.
func (g *Guard) RequireAdmin(identity models.Identity) error {
	return g.require(identity, authz.ObjectPost)
}

// RequireAuthenticated fails for guests.
func (g *Guard) RequireAuthenticated(identity models.Identity) error {
	if !identity.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireCommenter fails with ErrUnauthenticated for guests and
// ErrForbidden for roles that may not comment.
func (g *Guard) RequireCommenter(identity models.Identity) error {
	if err := g.RequireAuthenticated(identity); err != nil {
		return err
	}
	return g.require(identity, authz.ObjectComment)
}

func (g *Guard) require(identity models.Identity, object string) error {
	allowed, err := g.authorizer.Allowed(string(identity.Role()), object, authz.ActionWrite)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// Package services holds the blog's business rules: who may write what, and
// how posts, comments and their authors are assembled for display.
package services

import (
	"context"
	"fmt"

	"blogpress/app/models"
	"blogpress/app/repositories"
)

// Gate checks the caller's permissions.
type Gate interface {
	RequireAdmin(identity models.Identity) error
	RequireCommenter(identity models.Identity) error
}

// authorCache resolves user IDs to users once per call.
type authorCache struct {
	users repositories.UserRepository
	seen  map[int64]*models.User
}

func newAuthorCache(users repositories.UserRepository) *authorCache {
	return &authorCache{users: users, seen: make(map[int64]*models.User)}
}

func (c *authorCache) get(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := c.seen[id]; ok {
		return user, nil
	}
	user, err := c.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get author %d: %w", id, err)
	}
	c.seen[id] = user
	return user, nil
}

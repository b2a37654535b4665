package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"blogpress/app/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, repo *SQLUserRepository, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Name: "User " + email, Email: email, PasswordHash: "pbkdf2:sha256:1$salt$00", Role: role}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func seedPost(t *testing.T, repo *SQLPostRepository, authorID int64, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:    title,
		Subtitle: "Subtitle for " + title,
		Date:     "August 24, 2019",
		Body:     "<p>Body</p>",
		ImgURL:   "https://example.com/image.jpg",
		AuthorID: authorID,
	}
	require.NoError(t, repo.Create(context.Background(), post))
	return post
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blogpress/app/auth"
	"blogpress/app/authz"
	"blogpress/app/models"
	"blogpress/app/repositories/mock"
)

type fixture struct {
	repos    *mock.Repositories
	posts    *PostService
	comments *CommentService
	admin    models.Identity
	reader   models.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	guard := auth.NewGuard(enforcer)

	repos := mock.New()
	posts := NewPostService(repos.Posts, repos.Comments, repos.Users, guard)
	posts.now = func() time.Time { return time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC) }

	f := &fixture{
		repos:    repos,
		posts:    posts,
		comments: NewCommentService(repos.Comments, repos.Posts, repos.Users, guard),
	}
	f.admin = models.IdentityOf(f.addUser(t, "Angela", "angela@example.com", models.RoleAdmin))
	f.reader = models.IdentityOf(f.addUser(t, "Jack", "jack@example.com", models.RoleReader))
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, f.repos.Users.Create(context.Background(), user))
	return user
}

func postInput(title string) models.PostInput {
	return models.PostInput{
		Title:    title,
		Subtitle: "Who knew that cacti lived such interesting lives.",
		ImgURL:   "https://images.unsplash.com/photo-1530482054429-cc491f61333b",
		Body:     "<p>Nori grape silver beet broccoli kombu beet greens.</p>",
	}
}

func strPtr(s string) *string { return &s }

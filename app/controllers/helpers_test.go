package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"blogpress/app/auth"
	"blogpress/app/authz"
	"blogpress/app/avatar"
	"blogpress/app/models"
	"blogpress/app/repositories/mock"
	"blogpress/app/services"
	"blogpress/app/sessions"
	"blogpress/app/views"
)

const testCookie = "test_session"

type fixture struct {
	repos    *mock.Repositories
	posts    *services.PostService
	auth     *auth.Service
	renderer *Renderer
	router   *mux.Router
	admin    models.Identity
	reader   models.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	guard := auth.NewGuard(enforcer)

	db, err := sessions.OpenDB("", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := mock.New()
	posts := services.NewPostService(repos.Posts, repos.Comments, repos.Users, guard)
	comments := services.NewCommentService(repos.Comments, repos.Posts, repos.Users, guard)
	authSvc := auth.NewService(repos.Users, sessions.NewBadgerStore(db), auth.NewHasher(1000, 8), guard, auth.Config{
		SessionTTL:        time.Hour,
		MinPasswordLength: 6,
		FirstUserIsAdmin:  true,
	})

	rd, err := NewRenderer(views.Templates(), NewFlashes([]byte("0123456789abcdef0123456789abcdef"), false))
	require.NoError(t, err)

	pc := NewPostController(rd, posts, comments, avatar.Static{}, 100)
	ac := NewAuthController(rd, authSvc, CookieConfig{Name: testCookie})
	pages := NewPageController(rd)

	router := mux.NewRouter()
	router.HandleFunc("/", pc.Index).Methods(http.MethodGet)
	router.HandleFunc("/post/{id}", pc.Show).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/new-post", pc.New).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/edit-post/{id}", pc.Edit).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/delete/{id}", pc.Delete).Methods(http.MethodGet)
	router.HandleFunc("/register", ac.Register).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/login", ac.Login).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/logout", ac.Logout).Methods(http.MethodGet)
	router.HandleFunc("/logout-all", ac.LogoutAll).Methods(http.MethodGet)
	router.HandleFunc("/author/{id}", pc.Author).Methods(http.MethodGet)
	router.HandleFunc("/about", pages.About).Methods(http.MethodGet)
	router.HandleFunc("/contact", pages.Contact).Methods(http.MethodGet)

	f := &fixture{repos: repos, posts: posts, auth: authSvc, renderer: rd, router: router}
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

func (f *fixture) addPost(t *testing.T, title string) *models.Post {
	t.Helper()
	post, err := f.posts.CreatePost(context.Background(), f.admin, models.PostInput{
		Title:    title,
		Subtitle: "Who knew that cacti lived such interesting lives.",
		ImgURL:   "https://images.unsplash.com/photo-1530482054429-cc491f61333b",
		Body:     "<p>Nori grape silver beet broccoli kombu beet greens.</p>",
	})
	require.NoError(t, err)
	return post
}

// do sends a request as identity and returns the recorded response.
func (f *fixture) do(identity models.Identity, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	req = req.WithContext(auth.WithIdentity(req.Context(), identity))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

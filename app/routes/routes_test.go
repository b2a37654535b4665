package routes

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpress/app/auth"
	"blogpress/app/authz"
	"blogpress/app/avatar"
	"blogpress/app/controllers"
	"blogpress/app/middleware"
	"blogpress/app/repositories"
	"blogpress/app/services"
	"blogpress/app/sessions"
)

// setupServer builds the full stack on a temporary SQLite file and an in-memory session store.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(t))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	store, err := repositories.Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db, err := sessions.OpenDB("", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	guard := auth.NewGuard(enforcer)

	users := repositories.NewUserRepository(store)
	posts := repositories.NewPostRepository(store)
	comments := repositories.NewCommentRepository(store)

	authSvc := auth.NewService(users, sessions.NewBadgerStore(db), auth.NewHasher(1000, 8), guard, auth.Config{
		SessionTTL:        time.Hour,
		MinPasswordLength: 6,
		FirstUserIsAdmin:  true,
	})

	router, err := SetupRoutes(Deps{
		Posts:      services.NewPostService(posts, comments, users, guard),
		Comments:   services.NewCommentService(comments, posts, users, guard),
		Auth:       authSvc,
		Avatars:    avatar.Static{},
		AvatarSize: 100,
		Cookie:     controllers.CookieConfig{Name: "blogpress_session"},
		Registry:   prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return router
}

// newClient returns a client with its own cookie jar that does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, target string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, c *http.Client, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(target, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func registerClient(t *testing.T, srv *httptest.Server, name, email string) *http.Client {
	t.Helper()
	c := newClient(t)
	resp, _ := post(t, c, srv.URL+"/register", url.Values{
		"name": {name}, "email": {email}, "password": {"secret-pw"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return c
}

func TestBlogFlow(t *testing.T) {
	srv := setupServer(t)
	admin := registerClient(t, srv, "Angela", "angela@example.com")
	reader := registerClient(t, srv, "Jack", "jack@example.com")
	guest := newClient(t)

	resp, body := get(t, admin, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Create New Post", "first account is the admin")

	resp, _ = post(t, admin, srv.URL+"/new-post", url.Values{
		"title":    {"The Life of Cactus"},
		"subtitle": {"Who knew that cacti lived such interesting lives."},
		"img_url":  {"https://images.unsplash.com/photo-1530482054429-cc491f61333b"},
		"body":     {"<p>Nori grape silver beet broccoli kombu beet greens.</p>"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = get(t, guest, srv.URL+"/")
	assert.Contains(t, body, "The Life of Cactus")
	assert.Contains(t, body, "Posted by Angela")

	resp, _ = post(t, reader, srv.URL+"/post/1", url.Values{"comment_text": {"Great read!"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/post/1", resp.Header.Get("Location"))

	_, body = get(t, guest, srv.URL+"/post/1")
	assert.Contains(t, body, "<p>Nori grape")
	assert.Contains(t, body, "Great read!")
	assert.Contains(t, body, "Jack")

	resp, _ = post(t, admin, srv.URL+"/edit-post/1", url.Values{
		"title":    {"The Life of Cactus, Revised"},
		"subtitle": {"Who knew that cacti lived such interesting lives."},
		"img_url":  {"https://images.unsplash.com/photo-1530482054429-cc491f61333b"},
		"body":     {"<p>Updated.</p>"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/post/1", resp.Header.Get("Location"))

	resp, _ = get(t, admin, srv.URL+"/delete/1")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = get(t, guest, srv.URL+"/post/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesAreForbidden(t *testing.T) {
	srv := setupServer(t)
	registerClient(t, srv, "Angela", "angela@example.com")
	reader := registerClient(t, srv, "Jack", "jack@example.com")
	guest := newClient(t)

	for _, path := range []string{"/new-post", "/edit-post/1", "/delete/1"} {
		for name, c := range map[string]*http.Client{"reader": reader, "guest": guest} {
			t.Run(name+" "+path, func(t *testing.T) {
				resp, _ := get(t, c, srv.URL+path)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			})
		}
	}

	t.Run("reader post", func(t *testing.T) {
		resp, _ := post(t, reader, srv.URL+"/new-post", url.Values{"title": {"x"}})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestGuestCommentRedirectsToLogin(t *testing.T) {
	srv := setupServer(t)
	admin := registerClient(t, srv, "Angela", "angela@example.com")
	resp, _ := post(t, admin, srv.URL+"/new-post", url.Values{
		"title":    {"Hello"},
		"subtitle": {"World"},
		"img_url":  {"https://example.com/hello.jpg"},
		"body":     {"<p>Hi</p>"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	guest := newClient(t)
	resp, _ = post(t, guest, srv.URL+"/post/1", url.Values{"comment_text": {"hi"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := get(t, guest, srv.URL+"/login")
	assert.Contains(t, body, "You need to login or register to comment.")

	_, body = get(t, guest, srv.URL+"/login")
	assert.NotContains(t, body, "You need to login or register to comment.", "flash is shown once")
}

func TestLogoutEndsSession(t *testing.T) {
	srv := setupServer(t)
	admin := registerClient(t, srv, "Angela", "angela@example.com")

	resp, _ := get(t, admin, srv.URL+"/logout")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = get(t, admin, srv.URL+"/new-post")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogoutAllEndsEverySession(t *testing.T) {
	srv := setupServer(t)
	laptop := registerClient(t, srv, "Angela", "angela@example.com")

	phone := newClient(t)
	resp, _ := post(t, phone, srv.URL+"/login", url.Values{"email": {"angela@example.com"}, "password": {"secret-pw"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = get(t, phone, srv.URL+"/new-post")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, laptop, srv.URL+"/logout-all")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	for _, c := range []*http.Client{laptop, phone} {
		resp, _ = get(t, c, srv.URL+"/new-post")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestAuthorPageRoute(t *testing.T) {
	srv := setupServer(t)
	admin := registerClient(t, srv, "Angela", "angela@example.com")

	resp, _ := post(t, admin, srv.URL+"/new-post", url.Values{
		"title":    {"The Life of Cactus"},
		"subtitle": {"Who knew that cacti lived such interesting lives."},
		"img_url":  {"https://images.unsplash.com/photo-1530482054429-cc491f61333b"},
		"body":     {"<p>Nori grape silver beet.</p>"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := get(t, newClient(t), srv.URL+"/author/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Posts and comments by Angela")
	assert.Contains(t, body, "The Life of Cactus")

	_, body = get(t, admin, srv.URL+"/")
	assert.Contains(t, body, `href="/author/1"`, "nav links to the member's own page")
}

func TestPanicsAreCountedInMetrics(t *testing.T) {
	router := newRouter(t)
	router.HandleFunc("/explode", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}).Methods(http.MethodGet)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	c := newClient(t)

	resp, _ := get(t, c, srv.URL+"/explode")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	_, body := get(t, c, srv.URL+"/metrics")
	assert.Contains(t, body, `blogpress_http_requests_total{method="GET",route="/explode",status="500"} 1`)
}

func TestInfrastructureRoutes(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)

	t.Run("static", func(t *testing.T) {
		resp, body := get(t, c, srv.URL+"/static/styles.css")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, ".navbar")
	})

	t.Run("request id", func(t *testing.T) {
		resp, _ := get(t, c, srv.URL+"/about")
		assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, body := get(t, c, srv.URL+"/nope")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.True(t, strings.Contains(body, "404"))
	})

	t.Run("metrics", func(t *testing.T) {
		get(t, c, srv.URL+"/contact")
		resp, body := get(t, c, srv.URL+"/metrics")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, fmt.Sprintf(`blogpress_http_requests_total{method="GET",route=%q,status="200"}`, "/contact"))
	})
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpress/app/authz"
	"blogpress/app/models"
	"blogpress/app/repositories"
	"blogpress/app/repositories/mock"
	"blogpress/app/sessions"
	"blogpress/app/validation"
)

type testEnv struct {
	svc      *Service
	users    *mock.UserRepository
	sessions *sessions.BadgerStore
}

func newTestService(t *testing.T, firstUserIsAdmin bool) *testEnv {
	t.Helper()
	db, err := sessions.OpenDB("", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	users := mock.NewUserRepository()
	store := sessions.NewBadgerStore(db)
	svc := NewService(users, store, NewHasher(1000, 8), NewGuard(enforcer), Config{
		SessionTTL:        time.Hour,
		MinPasswordLength: 6,
		FirstUserIsAdmin:  firstUserIsAdmin,
	})
	return &testEnv{svc: svc, users: users, sessions: store}
}

func register(t *testing.T, svc *Service, name, email string) (*models.User, *sessions.Session) {
	t.Helper()
	user, session, err := svc.Register(context.Background(), models.RegisterInput{Name: name, Email: email, Password: "secret-pw"})
	require.NoError(t, err)
	return user, session
}

func TestRegister(t *testing.T) {
	env := newTestService(t, true)
	ctx := context.Background()

	first, session := register(t, env.svc, "Angela", " Angela@Example.com ")
	assert.Equal(t, "angela@example.com", first.Email)
	assert.Equal(t, models.RoleAdmin, first.Role, "first account becomes admin")
	assert.NotEqual(t, "secret-pw", first.PasswordHash)

	identity := env.svc.CurrentIdentity(ctx, session.Token)
	assert.True(t, identity.IsAuthenticated())
	assert.Equal(t, first.ID, identity.UserID())

	second, _ := register(t, env.svc, "Jack", "jack@example.com")
	assert.Equal(t, models.RoleReader, second.Role)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := env.svc.Register(ctx, models.RegisterInput{Name: "Again", Email: "ANGELA@example.com", Password: "secret-pw"})
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

		n, err := env.users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, _, err := env.svc.Register(ctx, models.RegisterInput{Name: "", Email: "not-an-email", Password: "secret-pw"})
		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.True(t, verr.Has("name"))
		assert.True(t, verr.Has("email"))
	})

	t.Run("short password", func(t *testing.T) {
		_, _, err := env.svc.Register(ctx, models.RegisterInput{Name: "Short", Email: "short@example.com", Password: "abc"})
		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.True(t, verr.Has("password"))
	})
}

func TestRegisterWithoutFirstUserAdmin(t *testing.T) {
	env := newTestService(t, false)
	user, _ := register(t, env.svc, "Angela", "angela@example.com")
	assert.Equal(t, models.RoleReader, user.Role)
}

func TestLogin(t *testing.T) {
	env := newTestService(t, true)
	ctx := context.Background()
	registered, _ := register(t, env.svc, "Angela", "angela@example.com")

	t.Run("success", func(t *testing.T) {
		user, session, err := env.svc.Login(ctx, models.LoginInput{Email: "ANGELA@example.com", Password: "secret-pw"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.Equal(t, registered.ID, session.UserID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := env.svc.Login(ctx, models.LoginInput{Email: "nobody@example.com", Password: "secret-pw"})
		assert.ErrorIs(t, err, ErrEmailNotFound)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.EqualError(t, err, "email not found")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := env.svc.Login(ctx, models.LoginInput{Email: "angela@example.com", Password: "wrong-pw"})
		assert.ErrorIs(t, err, ErrIncorrectPassword)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrEmailNotFound)
	})
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestService(t, true)
	ctx := context.Background()
	_, session := register(t, env.svc, "Angela", "angela@example.com")

	require.NoError(t, env.svc.Logout(ctx, session.Token))
	require.NoError(t, env.svc.Logout(ctx, session.Token), "logout is idempotent")

	assert.False(t, env.svc.CurrentIdentity(ctx, session.Token).IsAuthenticated())
}

func TestLogoutEverywhere(t *testing.T) {
	env := newTestService(t, true)
	ctx := context.Background()
	angela, first := register(t, env.svc, "Angela", "angela@example.com")
	_, jacks := register(t, env.svc, "Jack", "jack@example.com")

	_, second, err := env.svc.Login(ctx, models.LoginInput{Email: "angela@example.com", Password: "secret-pw"})
	require.NoError(t, err)

	n, err := env.svc.LogoutEverywhere(ctx, models.IdentityOf(angela))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, env.svc.CurrentIdentity(ctx, first.Token).IsAuthenticated())
	assert.False(t, env.svc.CurrentIdentity(ctx, second.Token).IsAuthenticated())
	assert.True(t, env.svc.CurrentIdentity(ctx, jacks.Token).IsAuthenticated(), "other users keep their sessions")

	_, err = env.svc.LogoutEverywhere(ctx, models.Anonymous)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStats(t *testing.T) {
	env := newTestService(t, true)
	ctx := context.Background()

	stats, err := env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	register(t, env.svc, "Angela", "angela@example.com")
	jack, _ := register(t, env.svc, "Jack", "jack@example.com")
	_, _, err = env.svc.Login(ctx, models.LoginInput{Email: "jack@example.com", Password: "secret-pw"})
	require.NoError(t, err)

	stats, err = env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Admins: 1, Sessions: 3}, stats)

	_, err = env.svc.LogoutEverywhere(ctx, models.IdentityOf(jack))
	require.NoError(t, err)
	stats, err = env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
}

func TestCurrentIdentityFallsBackToAnonymous(t *testing.T) {
	env := newTestService(t, true)
	ctx := context.Background()

	assert.Equal(t, models.Anonymous, env.svc.CurrentIdentity(ctx, ""))
	assert.Equal(t, models.Anonymous, env.svc.CurrentIdentity(ctx, "no-such-token"))

	orphan, err := sessions.New(42, time.Now(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.sessions.Create(ctx, orphan))
	assert.Equal(t, models.Anonymous, env.svc.CurrentIdentity(ctx, orphan.Token))
}

func TestGuard(t *testing.T) {
	env := newTestService(t, true)
	admin, _ := register(t, env.svc, "Admin", "admin@example.com")
	reader, _ := register(t, env.svc, "Reader", "reader@example.com")

	adminID := models.IdentityOf(admin)
	readerID := models.IdentityOf(reader)

	assert.NoError(t, env.svc.RequireAdmin(adminID))
	assert.ErrorIs(t, env.svc.RequireAdmin(readerID), ErrForbidden)
	assert.ErrorIs(t, env.svc.RequireAdmin(models.Anonymous), ErrForbidden)

	assert.NoError(t, env.svc.RequireAuthenticated(readerID))
	assert.ErrorIs(t, env.svc.RequireAuthenticated(models.Anonymous), ErrUnauthenticated)

	assert.NoError(t, env.svc.RequireCommenter(adminID))
	assert.NoError(t, env.svc.RequireCommenter(readerID))
	assert.ErrorIs(t, env.svc.RequireCommenter(models.Anonymous), ErrUnauthenticated)
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestService(t, false)
	ctx := context.Background()

	created, err := env.svc.EnsureAdmin(ctx, "Owner", "Owner@Example.com", "owner-pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.svc.EnsureAdmin(ctx, "Owner", "owner@example.com", "owner-pw")
	require.NoError(t, err)
	assert.False(t, created)

	user, _, err := env.svc.Login(ctx, models.LoginInput{Email: "owner@example.com", Password: "owner-pw"})
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	// the bootstrap admin exists, so the next sign-up is a reader even with first-user promotion on
	env.svc.cfg.FirstUserIsAdmin = true
	next, _ := register(t, env.svc, "Next", "next@example.com")
	assert.Equal(t, models.RoleReader, next.Role)
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, models.Anonymous, IdentityFrom(ctx))

	user := &models.User{ID: 9, Role: models.RoleReader}
	ctx = WithIdentity(ctx, models.IdentityOf(user))
	assert.Equal(t, int64(9), IdentityFrom(ctx).UserID())
}

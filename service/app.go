package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"blogpress/app/auth"
	"blogpress/app/authz"
	"blogpress/app/avatar"
	"blogpress/app/config"
	"blogpress/app/controllers"
	"blogpress/app/logging"
	"blogpress/app/repositories"
	"blogpress/app/routes"
	"blogpress/app/services"
	"blogpress/app/sessions"
)

// App is the fully wired blog.
type App struct {
	Config   *config.Config
	Store    *repositories.Store
	Sessions *badger.DB
	Auth     *auth.Service
	Handler  http.Handler
}

// NewApp opens both stores, builds the services and the router, and creates
// the configured admin account if one is set.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, sessionDB, err := openStores(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Store: store, Sessions: sessionDB}

	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}
	guard := auth.NewGuard(enforcer)

	users := repositories.NewUserRepository(a.Store)
	posts := repositories.NewPostRepository(a.Store)
	comments := repositories.NewCommentRepository(a.Store)

	a.Auth = auth.NewService(users, sessions.NewBadgerStore(a.Sessions),
		auth.NewHasher(cfg.Auth.PBKDF2Iterations, cfg.Auth.SaltLength), guard, auth.Config{
			SessionTTL:        cfg.Sessions.TTL,
			MinPasswordLength: cfg.Auth.MinPasswordLength,
			FirstUserIsAdmin:  cfg.Admin.FirstUserIsAdmin,
		})

	if cfg.Admin.Email != "" {
		if _, err := a.Auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return err
		}
	}

	stats, err := a.Auth.Stats(ctx)
	if err != nil {
		return err
	}
	logging.Info().Int("users", stats.Users).Int("admins", stats.Admins).Int("sessions", stats.Sessions).Msg("accounts loaded")
	if stats.Admins == 0 && !cfg.Admin.FirstUserIsAdmin {
		logging.Warn().Msg("no admin account exists and first_user_is_admin is off; nobody can publish posts")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := routes.SetupRoutes(routes.Deps{
		Posts:      services.NewPostService(posts, comments, users, guard),
		Comments:   services.NewCommentService(comments, posts, users, guard),
		Auth:       a.Auth,
		Avatars:    newAvatarResolver(cfg.Avatar),
		AvatarSize: cfg.Avatar.Size,
		Cookie: controllers.CookieConfig{
			Name:   cfg.Sessions.CookieName,
			Secure: cfg.Sessions.CookieSecure,
		},
		FlashKey: []byte(cfg.Server.CookieKey),
		Registry: registry,
	})
	if err != nil {
		return err
	}
	a.Handler = handler
	return nil
}

func newAvatarResolver(cfg config.AvatarConfig) avatar.Resolver {
	if !cfg.Enabled {
		return avatar.Static{BaseURL: cfg.BaseURL}
	}
	return avatar.NewGravatar(avatar.Config{
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
		CacheTTL: cfg.CacheTTL,
	}, &http.Client{})
}

// Close releases both stores.
func (a *App) Close() error {
	var errs []error
	if a.Sessions != nil {
		errs = append(errs, a.Sessions.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// openStores opens the SQLite database and the session store, creating
// parent directories as needed.
func openStores(cfg *config.Config) (*repositories.Store, *badger.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}
	store, err := repositories.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Sessions.InMemory {
		if err := os.MkdirAll(cfg.Sessions.Path, 0o755); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("create session directory: %w", err)
		}
	}
	sessionDB, err := sessions.OpenDB(cfg.Sessions.Path, cfg.Sessions.InMemory)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	logging.Debug().Str("database", cfg.Database.Path).Str("sessions", cfg.Sessions.Path).Msg("stores opened")
	return store, sessionDB, nil
}

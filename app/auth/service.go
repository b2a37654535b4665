// Package auth registers users, checks credentials and resolves session
// tokens to identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogpress/app/logging"
	"blogpress/app/models"
	"blogpress/app/repositories"
	"blogpress/app/sessions"
	"blogpress/app/validation"
)

// Config holds the account rules.
type Config struct {
	SessionTTL        time.Duration
	MinPasswordLength int
	// FirstUserIsAdmin makes the first account registered while no admin exists an admin.
	FirstUserIsAdmin bool
}

// Service implements registration, login and session lookup.
type Service struct {
	*Guard

	users    repositories.UserRepository
	sessions sessions.Store
	hasher   *Hasher
	cfg      Config
	now      func() time.Time
}

func NewService(users repositories.UserRepository, store sessions.Store, hasher *Hasher, guard *Guard, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Service{
		Guard:    guard,
		users:    users,
		sessions: store,
		hasher:   hasher,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Register creates a reader account (or the bootstrap admin) and logs it in.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.User, *sessions.Session, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}
	if len(in.Password) < s.cfg.MinPasswordLength {
		return nil, nil, validation.NewFieldError("password",
			fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLength))
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, nil, ErrAlreadyRegistered
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: models.RoleReader}
	if s.cfg.FirstUserIsAdmin {
		err = s.users.CreateClaimingAdmin(ctx, user)
	} else {
		err = s.users.Create(ctx, user)
	}
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		return nil, nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login checks credentials and opens a new session.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (*models.User, *sessions.Session, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrEmailNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("look up email: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, in.Password) {
		logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("login rejected")
		return nil, nil, ErrIncorrectPassword
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// LogoutEverywhere ends every session of the caller and reports how many
// were open.
func (s *Service) LogoutEverywhere(ctx context.Context, identity models.Identity) (int, error) {
	if !identity.IsAuthenticated() {
		return 0, ErrUnauthenticated
	}

	n, err := s.sessions.DeleteByUserID(ctx, identity.UserID())
	if err != nil {
		return 0, fmt.Errorf("end sessions: %w", err)
	}

	logging.Ctx(ctx).Info().Int64("user_id", identity.UserID()).Int("sessions", n).Msg("all sessions ended")
	return n, nil
}

// Stats counts accounts and live sessions.
type Stats struct {
	Users    int
	Admins   int
	Sessions int
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	if stats.Admins, err = s.users.CountByRole(ctx, models.RoleAdmin); err != nil {
		return Stats{}, fmt.Errorf("count admins: %w", err)
	}
	if stats.Sessions, err = s.sessions.Count(ctx); err != nil {
		return Stats{}, fmt.Errorf("count sessions: %w", err)
	}
	return stats, nil
}

// CurrentIdentity resolves a session token. Any failure yields Anonymous.
func (s *Service) CurrentIdentity(ctx context.Context, token string) models.Identity {
	if token == "" {
		return models.Anonymous
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, sessions.ErrSessionNotFound) && !errors.Is(err, sessions.ErrSessionExpired) {
			logging.Ctx(ctx).Warn().Err(err).Msg("session lookup failed")
		}
		return models.Anonymous
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Msg("session user lookup failed")
		}
		return models.Anonymous
	}
	return models.IdentityOf(user)
}

// EnsureAdmin creates the configured admin account if no account uses its
// email yet. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = models.NormalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			logging.Ctx(ctx).Warn().Int64("user_id", existing.ID).Msg("configured admin email belongs to a reader account")
		}
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	admin := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := s.users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	logging.Ctx(ctx).Info().Int64("user_id", admin.ID).Msg("admin account created")
	return true, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*sessions.Session, error) {
	session, err := sessions.New(user.ID, s.now(), s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return session, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"blogpress/app/models"
)

const userColumns = "id, name, email, password, role, created_at"

// SQLUserRepository stores users in SQLite.
type SQLUserRepository struct {
	store *Store
	now   func() time.Time
}

func NewUserRepository(store *Store) *SQLUserRepository {
	return &SQLUserRepository{store: store, now: time.Now}
}

func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	user.BeforeCreate(r.now())
	if err := user.Validate(); err != nil {
		return err
	}

	err := r.store.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password, role, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt,
	).Scan(&user.ID)
	return wrapErr("create user", err)
}

func (r *SQLUserRepository) CreateClaimingAdmin(ctx context.Context, user *models.User) error {
	user.Role = models.RoleReader
	user.BeforeCreate(r.now())
	if err := user.Validate(); err != nil {
		return err
	}

	// A single statement decides the role, so two concurrent sign-ups cannot both become admin.
	var role string
	err := r.store.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password, role, created_at)
		SELECT ?, ?, ?,
			CASE WHEN EXISTS (SELECT 1 FROM users WHERE role = 'admin') THEN 'reader' ELSE 'admin' END,
			?
		RETURNING id, role`,
		user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID, &role)
	if err != nil {
		return wrapErr("create user", err)
	}
	user.Role = models.Role(role)
	return nil
}

func (r *SQLUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return user, nil
}

func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		return nil, wrapErr("get user by email", err)
	}
	return user, nil
}

func (r *SQLUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, wrapErr("count users", err)
	}
	return n, nil
}

func (r *SQLUserRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, string(role)).Scan(&n); err != nil {
		return 0, wrapErr("count users by role", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user models.User
		role string
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateTitle = errors.New("a post with this title already exists")
	ErrInvalidRef     = errors.New("referenced record does not exist")
)

// PersistenceError reports a failed read or write against the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// wrapErr maps SQLite constraint failures onto the package sentinels.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			msg := sqliteErr.Error()
			switch {
			case strings.Contains(msg, "users.email"):
				err = ErrDuplicateEmail
			case strings.Contains(msg, "blog_posts.title"):
				err = ErrDuplicateTitle
			}
		case sqlite3.ErrConstraintForeignKey:
			err = ErrInvalidRef
		}
	}

	return &PersistenceError{Op: op, Err: err}
}

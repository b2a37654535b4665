package auth

import (
	"errors"
	"fmt"

	"blogpress/app/repositories"
)

var (
	ErrAlreadyRegistered  = fmt.Errorf("user already registered: %w", repositories.ErrDuplicateEmail)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotFound      = &credentialError{msg: "email not found"}
	ErrIncorrectPassword  = &credentialError{msg: "incorrect password"}
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
)

// credentialError is a login failure that also matches ErrInvalidCredentials.
type credentialError struct {
	msg string
}

func (e *credentialError) Error() string {
	return e.msg
}

func (e *credentialError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

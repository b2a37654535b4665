package models

import (
	"strings"
	"time"

	"blogpress/app/validation"
)

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the user meets all validation requirements
func (u *User) Validate() error {
	return validation.Struct(u)
}

// BeforeCreate normalises the email and fills defaults
func (u *User) BeforeCreate(now time.Time) {
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if u.Role == "" {
		u.Role = RoleReader
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now.UTC()
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

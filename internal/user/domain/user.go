package domain

import (
	"errors"
	"time"
)

// User is the credential record the auth core authenticates against.
// PasswordHash is a bcrypt hash; the plaintext is never stored.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// Sanitized returns a copy safe to hand back to callers: the password hash is cleared.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	s := *u
	s.PasswordHash = ""
	return &s
}

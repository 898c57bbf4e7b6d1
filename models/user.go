package models

import (
	"errors"
	"strings"
	"time"

	"github.com/upb/thesis-workflow/internal/policy"
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by CheckPassword when the password is wrong
var ErrPasswordMismatch = errors.New("password does not match")

// User is an account of any role. Students log in with their NIM as username,
// lecturers with their NIDN.
type User struct {
	ID           int64       `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         policy.Role `json:"role" db:"role"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance without a password
func NewUser(username, name, email string, role policy.Role) *User {
	now := time.Now()
	return &User{
		Username:  strings.TrimSpace(username),
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPassword hashes and stores password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares password against the stored hash
func (u *User) CheckPassword(password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// Identity returns the request identity carried in tokens for this user
func (u *User) Identity() policy.Identity {
	return policy.Identity{ID: u.ID, Role: u.Role}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == policy.RoleAdmin
}

package models

import (
	"fmt"
	"strings"
	"time"

	"blogsite/app/validation"

	"golang.org/x/crypto/bcrypt"
)

// Validate checks the stored user fields.
func (u *User) Validate() error {
	return validation.Struct(u)
}

// BeforeCreate stamps the join date.
func (u *User) BeforeCreate() {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
}

// SetPassword replaces the stored hash with a bcrypt hash of raw.
func (u *User) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether raw matches the stored hash.
func (u *User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(raw)) == nil
}

// NormalizeUsername is the case-insensitive form used for uniqueness.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// PublicUser is the part of a User that is safe to send to clients.
type PublicUser struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
	LastLogin  time.Time `json:"last_login"`
}

// Public strips the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
	}
}

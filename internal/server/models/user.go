// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// User is a row of the users table. It is the only type that carries the
// password digest and must not leave the storage/service layers.
type User struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Nickname     string     `db:"nickname"`
	PasswordHash string     `db:"password_hash" json:"-"`
	ProfileID    int64      `db:"profile_id"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}

// Identity is the outward view of a user.
type Identity struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Nickname  string     `json:"nickname"`
	ProfileID int64      `json:"profile_id"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Identity strips the digest off u.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Nickname:  u.Nickname,
		ProfileID: u.ProfileID,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// NewUser is the input of user creation. Password is plaintext.
type NewUser struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Nickname  string `json:"nickname"`
	ProfileID int64  `json:"profile_id"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Nickname  *string `json:"nickname,omitempty"`
	ProfileID *int64  `json:"profile_id,omitempty"`
}

// IsEmpty reports whether no field was supplied.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil &&
		u.Nickname == nil && u.ProfileID == nil
}

// UserChanges is what the storage layer writes for a partial update. The
// password has already been hashed.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Nickname     *string
	ProfileID    *int64
}

// NormalizeEmail returns the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

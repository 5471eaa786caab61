package domain

import (
	"strings"
	"time"
)

// User is the identity record and the anchor of its single session.
type User struct {
	ID         string
	Username   string
	Email      string
	FullName   string
	Avatar     string
	CoverImage string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// PasswordHash and RefreshTokenHash never leave the service boundary.
	// An empty RefreshTokenHash means there is no active session.
	PasswordHash     string
	RefreshTokenHash string
}

// PublicUser is the projection returned to callers: no password, no session anchor.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public returns the sanitized projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// HasSession reports whether a refresh token is currently anchored on the user.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != ""
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package domain

import "time"

// TokenPair is an access/refresh pair issued on login or rotation. It is never persisted;
// only a digest of RefreshToken is stored on the user.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"-"`
	RefreshExp   time.Time `json:"-"`
}

// AccessClaims is the identity carried by a verified access token.
type AccessClaims struct {
	UserID    string
	Username  string
	Email     string
	FullName  string
	TokenID   string
	ExpiresAt time.Time
}

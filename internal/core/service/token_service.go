package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mediahub/account-service/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 10 * 24 * time.Hour

	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// TokenConfig holds the signing secrets and lifetimes for both token kinds.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// TokenService signs and verifies HS256 JWTs. Access and refresh tokens use
// distinct secrets and audiences, so neither verifies as the other.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenService validates cfg and returns a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token service: secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token service: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// IssueAccessToken signs a short-lived token carrying the user's identity claims.
func (s *TokenService) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.AccessTTL)
	claims := accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{audienceAccess},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefreshToken signs a long-lived token carrying only the user id. The
// random jti makes every issued token unique, even within the same second.
func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.RefreshTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{audienceRefresh},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccessToken checks signature, audience and expiry of an access token.
func (s *TokenService) VerifyAccessToken(token string) (domain.AccessClaims, error) {
	var claims accessTokenClaims
	if err := s.parse(token, &claims, s.cfg.AccessSecret, audienceAccess); err != nil {
		return domain.AccessClaims{}, domain.Wrap(domain.ErrTokenInvalid, err, "invalid or expired access token")
	}
	if claims.Subject == "" {
		return domain.AccessClaims{}, domain.Errorf(domain.ErrTokenInvalid, "access token has no subject")
	}
	return domain.AccessClaims{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		FullName:  claims.FullName,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefreshToken checks signature, audience and expiry of a refresh token
// and returns its subject.
func (s *TokenService) VerifyRefreshToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(token, &claims, s.cfg.RefreshSecret, audienceRefresh); err != nil {
		return "", domain.Wrap(domain.ErrTokenInvalid, err, "invalid or expired refresh token")
	}
	if claims.Subject == "" {
		return "", domain.Errorf(domain.ErrTokenInvalid, "refresh token has no subject")
	}
	return claims.Subject, nil
}

// HashRefreshToken returns the SHA-256 hex digest stored as the session anchor.
func (s *TokenService) HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return err
}

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mediahub/account-service/internal/core/domain"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    240 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc
}

func TestNewTokenService_RejectsBadSecrets(t *testing.T) {
	cases := []TokenConfig{
		{AccessSecret: "", RefreshSecret: "r"},
		{AccessSecret: "a", RefreshSecret: ""},
		{AccessSecret: "same", RefreshSecret: "same"},
	}
	for _, cfg := range cases {
		if _, err := NewTokenService(cfg); err == nil {
			t.Fatalf("expected error for config %+v", cfg)
		}
	}
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	user := &domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", FullName: "Alice A"}

	token, exp, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}
	if time.Until(exp) > 15*time.Minute || time.Until(exp) < 14*time.Minute {
		t.Fatalf("unexpected expiry: %v", exp)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken returned error: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "alice" || claims.Email != "alice@example.com" || claims.FullName != "Alice A" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, _, err := svc.IssueRefreshToken("u1")
	if err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}
	userID, err := svc.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("VerifyRefreshToken returned error: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %q", userID)
	}
}

func TestTokenService_KindsAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService(t)
	user := &domain.User{ID: "u1", Username: "alice"}

	access, _, _ := svc.IssueAccessToken(user)
	refresh, _, _ := svc.IssueRefreshToken(user.ID)

	if _, err := svc.VerifyRefreshToken(access); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
	if _, err := svc.VerifyAccessToken(refresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService(TokenConfig{AccessSecret: "x", RefreshSecret: "y"})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	foreign, _, _ := other.IssueRefreshToken("u1")
	if _, err := svc.VerifyRefreshToken(foreign); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.VerifyRefreshToken("not-a-jwt"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t)
	svc.now = func() time.Time { return time.Now().Add(-11 * 24 * time.Hour) }

	access, _, _ := svc.IssueAccessToken(&domain.User{ID: "u1"})
	refresh, _, _ := svc.IssueRefreshToken("u1")

	svc.now = time.Now
	if _, err := svc.VerifyAccessToken(access); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}
	if _, err := svc.VerifyRefreshToken(refresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected expired refresh token to fail, got %v", err)
	}
}

func TestTokenService_RefreshTokensAreUnique(t *testing.T) {
	svc := newTestTokenService(t)
	fixed := time.Now()
	svc.now = func() time.Time { return fixed }

	a, _, _ := svc.IssueRefreshToken("u1")
	b, _, _ := svc.IssueRefreshToken("u1")
	if a == b {
		t.Fatalf("two refresh tokens issued in the same instant are identical")
	}
	if svc.HashRefreshToken(a) == svc.HashRefreshToken(b) {
		t.Fatalf("distinct tokens hashed to the same anchor")
	}
	if svc.HashRefreshToken(a) != svc.HashRefreshToken(a) {
		t.Fatalf("hash is not deterministic")
	}
	if svc.HashRefreshToken(a) == a {
		t.Fatalf("hash equals the token")
	}
}

package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

type sessionFixture struct {
	repo     *stubUserRepo
	tokens   *TokenService
	denylist *stubDenylist
	svc      *SessionService
	user     *domain.User
}

func newSessionFixture(t *testing.T, cfg SessionConfig) *sessionFixture {
	t.Helper()
	repo := newStubUserRepo()
	tokens := newTestTokenService(t)
	denylist := newStubDenylist()

	user, err := repo.Create(context.Background(), &domain.User{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice A",
	}, "pass123")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return &sessionFixture{
		repo:     repo,
		tokens:   tokens,
		denylist: denylist,
		svc:      NewSessionService(repo, tokens, denylist, cfg, zerolog.Nop()),
		user:     user,
	}
}

func (f *sessionFixture) login(t *testing.T) *ports.LoginResult {
	t.Helper()
	res, err := f.svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "pass123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	return res
}

func (f *sessionFixture) anchor(t *testing.T) string {
	t.Helper()
	u, err := f.repo.FindByID(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return u.RefreshTokenHash
}

func TestSessionService_Login_Success(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})

	res := f.login(t)
	if res.User.ID != f.user.ID || res.User.Username != "alice" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res.Tokens)
	}
	if got := f.anchor(t); got != f.tokens.HashRefreshToken(res.Tokens.RefreshToken) {
		t.Fatalf("anchor does not hold the issued refresh token")
	}
}

func TestSessionService_Login_ByEmailIsCaseInsensitive(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})

	res, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "  ALICE@Example.com ", Password: "pass123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.ID != f.user.ID {
		t.Fatalf("logged in as the wrong user: %+v", res.User)
	}
}

func TestSessionService_Login_Errors(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})

	cases := []struct {
		name string
		in   ports.LoginInput
		want error
	}{
		{"no identifier", ports.LoginInput{Password: "pass123"}, domain.ErrMissingCredential},
		{"no password", ports.LoginInput{Username: "alice"}, domain.ErrMissingCredential},
		{"unknown user", ports.LoginInput{Username: "bob", Password: "pass123"}, domain.ErrUserNotFound},
		{"wrong password", ports.LoginInput{Username: "alice", Password: "nope"}, domain.ErrInvalidCredential},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Login(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if f.anchor(t) != "" {
		t.Fatalf("failed logins must not create a session")
	}
}

func TestSessionService_Login_ReplacesPreviousSession(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})

	first := f.login(t)
	second := f.login(t)

	if _, err := f.svc.Refresh(context.Background(), first.Tokens.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected the first session to be displaced, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), second.Tokens.RefreshToken); err != nil {
		t.Fatalf("second session should refresh: %v", err)
	}
}

func TestSessionService_Refresh_RotatesAndRejectsReuse(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	r1 := f.login(t).Tokens.RefreshToken

	pair, err := f.svc.Refresh(context.Background(), r1)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	r2 := pair.RefreshToken
	if r2 == r1 {
		t.Fatalf("rotation returned the same refresh token")
	}
	if _, err := f.tokens.VerifyAccessToken(pair.AccessToken); err != nil {
		t.Fatalf("rotated access token does not verify: %v", err)
	}
	if f.anchor(t) != f.tokens.HashRefreshToken(r2) {
		t.Fatalf("anchor was not advanced to the new token")
	}

	if _, err := f.svc.Refresh(context.Background(), r1); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch on reuse, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), r2); err != nil {
		t.Fatalf("current token should still refresh: %v", err)
	}
}

func TestSessionService_Refresh_Errors(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	res := f.login(t)

	if _, err := f.svc.Refresh(context.Background(), "   "); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired for empty token, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), "garbage"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), res.Tokens.AccessToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for an access token, got %v", err)
	}

	f.repo.remove(f.user.ID)
	if _, err := f.svc.Refresh(context.Background(), res.Tokens.RefreshToken); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired for a deleted user, got %v", err)
	}
}

func TestSessionService_Refresh_ConcurrentOnlyOneWins(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	r1 := f.login(t).Tokens.RefreshToken

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		errs      []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refresh(context.Background(), r1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				errs = append(errs, err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful rotation, got %d", successes)
	}
	for _, err := range errs {
		if !errors.Is(err, domain.ErrTokenMismatch) {
			t.Fatalf("losers must see ErrTokenMismatch, got %v", err)
		}
	}
}

func TestSessionService_Logout(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	res := f.login(t)

	claims, err := f.tokens.VerifyAccessToken(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if err := f.svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if f.anchor(t) != "" {
		t.Fatalf("logout must clear the anchor")
	}
	if revoked, _ := f.denylist.IsRevoked(context.Background(), claims.TokenID); !revoked {
		t.Fatalf("access token was not revoked")
	}
	if _, err := f.svc.Refresh(context.Background(), res.Tokens.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch after logout, got %v", err)
	}

	// A second logout with no active session still succeeds.
	if err := f.svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("second Logout returned error: %v", err)
	}
}

func TestSessionService_Logout_DenylistFailureIsNotFatal(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	res := f.login(t)
	f.denylist.err = errBoom

	claims, _ := f.tokens.VerifyAccessToken(res.Tokens.AccessToken)
	if err := f.svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if f.anchor(t) != "" {
		t.Fatalf("logout must clear the anchor")
	}
}

func TestSessionService_Logout_RequiresIdentity(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	if err := f.svc.Logout(context.Background(), domain.AccessClaims{}); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestSessionService_ChangePassword(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{})
	res := f.login(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, f.user.ID, "wrong", "newpass")
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Status != http.StatusBadRequest {
		t.Fatalf("expected a 400 status override, got %+v", derr)
	}

	if err := f.svc.ChangePassword(ctx, f.user.ID, "", "newpass"); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	if err := f.svc.ChangePassword(ctx, f.user.ID, "pass123", "newpass"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := f.svc.Login(ctx, ports.LoginInput{Username: "alice", Password: "pass123"}); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("old password still works: %v", err)
	}

	// The existing session survives by default.
	if _, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("session should survive a password change: %v", err)
	}
	if _, err := f.svc.Login(ctx, ports.LoginInput{Username: "alice", Password: "newpass"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestSessionService_ChangePassword_RevokesSessionWhenConfigured(t *testing.T) {
	f := newSessionFixture(t, SessionConfig{RevokeOnPasswordChange: true})
	res := f.login(t)

	if err := f.svc.ChangePassword(context.Background(), f.user.ID, "pass123", "newpass"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), res.Tokens.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch after revoking password change, got %v", err)
	}
}

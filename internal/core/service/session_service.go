package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediahub/account-service/internal/pkg/metrics"
	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

// SessionConfig tunes session behaviour that is a deployment decision.
type SessionConfig struct {
	// RevokeOnPasswordChange clears the session anchor after a password change,
	// forcing every holder of the old refresh token to log in again.
	RevokeOnPasswordChange bool
}

// SessionService implements login, logout, refresh rotation and password change
// on top of the single-slot session anchor stored on the user record.
type SessionService struct {
	users    ports.UserRepository
	tokens   ports.TokenService
	denylist ports.TokenDenylist
	cfg      SessionConfig
	log      zerolog.Logger
}

// NewSessionService wires a SessionService. denylist may be nil, in which case
// logout only clears the session anchor.
func NewSessionService(
	users ports.UserRepository,
	tokens ports.TokenService,
	denylist ports.TokenDenylist,
	cfg SessionConfig,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
		cfg:      cfg,
		log:      log,
	}
}

// Login verifies the credentials and, on success, issues a token pair whose
// refresh half overwrites any previous session.
func (s *SessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	username := domain.NormalizeUsername(in.Username)
	email := domain.NormalizeEmail(in.Email)

	if username == "" && email == "" {
		metrics.LoginsTotal.WithLabelValues("missing_credential").Inc()
		return nil, domain.Errorf(domain.ErrMissingCredential, "username or email is required")
	}
	if in.Password == "" {
		metrics.LoginsTotal.WithLabelValues("missing_credential").Inc()
		return nil, domain.Errorf(domain.ErrMissingCredential, "password is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			return nil, domain.Errorf(domain.ErrUserNotFound, "user does not exist")
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	// Unknown user and wrong password stay distinct outcomes.
	if !s.users.VerifyPassword(user, in.Password) {
		metrics.LoginsTotal.WithLabelValues("invalid_credential").Inc()
		return nil, domain.Errorf(domain.ErrInvalidCredential, "invalid user credentials")
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("session issued")

	return &ports.LoginResult{User: user.Public(), Tokens: *pair}, nil
}

// Logout clears the session anchor and revokes the presented access token.
// Logging out without an active session succeeds.
func (s *SessionService) Logout(ctx context.Context, claims domain.AccessClaims) error {
	if claims.UserID == "" {
		return domain.Errorf(domain.ErrAuthRequired, "unauthorized request")
	}

	if err := s.users.SetRefreshToken(ctx, claims.UserID, ""); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("logout: %w", err)
	}

	if s.denylist != nil && claims.TokenID != "" {
		if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			s.log.Warn().Err(err).Str("user_id", claims.UserID).Msg("failed to revoke access token")
		}
	}

	metrics.LogoutsTotal.Inc()
	s.log.Info().Str("user_id", claims.UserID).Msg("session cleared")
	return nil
}

// Refresh runs the rotation state machine:
//
//	absent                          -> ErrAuthRequired
//	bad signature / expired         -> ErrTokenInvalid
//	valid, user gone                -> ErrAuthRequired
//	valid, differs from the anchor  -> ErrTokenMismatch
//	valid, equals the anchor        -> rotate
//
// The rotation write is conditional on the anchor still holding the presented
// token, so the loser of a concurrent refresh gets ErrTokenMismatch.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*domain.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		metrics.RefreshRotationsTotal.WithLabelValues("auth_required").Inc()
		return nil, domain.Errorf(domain.ErrAuthRequired, "refresh token is required")
	}

	userID, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("token_invalid").Inc()
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.RefreshRotationsTotal.WithLabelValues("auth_required").Inc()
			return nil, domain.Errorf(domain.ErrAuthRequired, "invalid refresh token")
		}
		metrics.RefreshRotationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("refresh: %w", err)
	}

	presentedHash := s.tokens.HashRefreshToken(presented)
	if !user.HasSession() || subtle.ConstantTimeCompare([]byte(presentedHash), []byte(user.RefreshTokenHash)) != 1 {
		metrics.RefreshRotationsTotal.WithLabelValues("token_mismatch").Inc()
		return nil, domain.Errorf(domain.ErrTokenMismatch, "refresh token is expired or used")
	}

	pair, err := s.signPair(user)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	nextHash := s.tokens.HashRefreshToken(pair.RefreshToken)
	if err := s.users.RotateRefreshToken(ctx, user.ID, presentedHash, nextHash); err != nil {
		if errors.Is(err, domain.ErrTokenMismatch) {
			metrics.RefreshRotationsTotal.WithLabelValues("token_mismatch").Inc()
			return nil, domain.Errorf(domain.ErrTokenMismatch, "refresh token is expired or used")
		}
		metrics.RefreshRotationsTotal.WithLabelValues("error").Inc()
		return nil, domain.Wrap(domain.ErrInternal, err, "error generating the tokens").WithStatus(http.StatusUnauthorized)
	}

	metrics.RefreshRotationsTotal.WithLabelValues("rotated").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("session rotated")
	return pair, nil
}

// ChangePassword replaces the password hash after verifying the old password.
// The session anchor is left as is unless RevokeOnPasswordChange is set.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.Errorf(domain.ErrMissingCredential, "old and new password are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Errorf(domain.ErrUserNotFound, "user does not exist")
		}
		return fmt.Errorf("change password: %w", err)
	}

	if !s.users.VerifyPassword(user, oldPassword) {
		return domain.Errorf(domain.ErrInvalidCredential, "old password is wrong").WithStatus(http.StatusBadRequest)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if s.cfg.RevokeOnPasswordChange {
		if err := s.users.SetRefreshToken(ctx, user.ID, ""); err != nil {
			return fmt.Errorf("change password: clear session: %w", err)
		}
	}

	s.log.Info().Str("user_id", user.ID).Bool("session_revoked", s.cfg.RevokeOnPasswordChange).Msg("password changed")
	return nil
}

// issueSession signs a fresh pair and anchors its refresh half on the user,
// overwriting whatever was there.
func (s *SessionService) issueSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	pair, err := s.signPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, s.tokens.HashRefreshToken(pair.RefreshToken)); err != nil {
		return nil, domain.Wrap(domain.ErrInternal, err, "error generating the tokens").WithStatus(http.StatusUnauthorized)
	}
	return pair, nil
}

func (s *SessionService) signPair(user *domain.User) (*domain.TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInternal, err, "error generating the tokens").WithStatus(http.StatusUnauthorized)
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInternal, err, "error generating the tokens").WithStatus(http.StatusUnauthorized)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

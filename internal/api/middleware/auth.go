package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

const (
	// ClaimsKey is the echo.Context key holding the verified domain.AccessClaims.
	ClaimsKey = "auth_claims"

	// AccessTokenCookie is read when no Authorization header is present.
	AccessTokenCookie = "accessToken"

	// RevokedKey marks a request admitted by AllowRevoked with a denylisted token.
	RevokedKey = "auth_revoked"
)

// Option adjusts the behaviour of Auth.
type Option func(*authOptions)

type authOptions struct {
	allowRevoked bool
}

// AllowRevoked lets a revoked but otherwise valid token through. The request
// is marked so Revoked(c) reports true; used by logout so a repeated call
// gets the same answer as the first.
func AllowRevoked() Option {
	return func(o *authOptions) { o.allowRevoked = true }
}

// Revoked reports whether Auth admitted the request with a denylisted token.
func Revoked(c echo.Context) bool {
	revoked, _ := c.Get(RevokedKey).(bool)
	return revoked
}

// Auth verifies the access token from the Authorization header or the access
// cookie and stores its claims under ClaimsKey. Revoked tokens are rejected
// unless AllowRevoked is set; a denylist outage is logged and the request proceeds.
func Auth(tokens ports.TokenService, denylist ports.TokenDenylist, log zerolog.Logger, opts ...Option) echo.MiddlewareFunc {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := accessToken(c)
			if err != nil {
				return err
			}

			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return domain.Errorf(domain.ErrTokenInvalid, "invalid access token")
			}

			if denylist != nil {
				revoked, err := denylist.IsRevoked(c.Request().Context(), claims.TokenID)
				switch {
				case err != nil:
					log.Warn().Err(err).Str("user_id", claims.UserID).Msg("denylist lookup failed")
				case revoked && o.allowRevoked:
					c.Set(RevokedKey, true)
				case revoked:
					return domain.Errorf(domain.ErrTokenInvalid, "access token has been revoked")
				}
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

func accessToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if ck, err := c.Cookie(AccessTokenCookie); err == nil && ck.Value != "" {
			return ck.Value, nil
		}
		return "", domain.Errorf(domain.ErrAuthRequired, "unauthorized request")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.Errorf(domain.ErrTokenInvalid, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediahub/account-service/internal/api/middleware"
	"github.com/mediahub/account-service/internal/core/domain"
)

const (
	AccessTokenCookie  = middleware.AccessTokenCookie
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig controls the attributes of the token cookies.
type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) setTokens(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(cc.cookie(AccessTokenCookie, pair.AccessToken, pair.AccessExp))
	c.SetCookie(cc.cookie(RefreshTokenCookie, pair.RefreshToken, pair.RefreshExp))
}

// clearTokens overwrites both cookies with an empty value and MaxAge -1 so the
// browser deletes them immediately.
func (cc CookieConfig) clearTokens(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		ck := cc.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (cc CookieConfig) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

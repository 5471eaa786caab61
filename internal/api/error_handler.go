package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediahub/account-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// kindStatus maps each domain error kind to its HTTP status.
var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrMissingCredential, http.StatusBadRequest},
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrUploadFailed, http.StatusBadRequest},
	{domain.ErrInvalidCredential, http.StatusUnauthorized},
	{domain.ErrTokenInvalid, http.StatusUnauthorized},
	{domain.ErrTokenMismatch, http.StatusUnauthorized},
	{domain.ErrAuthRequired, http.StatusUnauthorized},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrUserExists, http.StatusConflict},
	{domain.ErrAssetStoreUnavailable, http.StatusServiceUnavailable},
	{domain.ErrInternal, http.StatusInternalServerError},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status, honouring an explicit override.
//   - Logs server-side failures without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Int("status", code).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	// Echo's own errors (bind failures, 404 from router, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		code := de.Status
		if code == 0 {
			code = statusFor(de.Kind)
		}
		if code >= http.StatusInternalServerError && errors.Is(de.Kind, domain.ErrInternal) {
			return code, "internal server error"
		}
		return code, de.Message
	}

	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) && ks.kind != domain.ErrInternal {
			return ks.status, ks.kind.Error()
		}
	}

	return http.StatusInternalServerError, "internal server error"
}

func statusFor(kind error) int {
	for _, ks := range kindStatus {
		if errors.Is(kind, ks.kind) {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}

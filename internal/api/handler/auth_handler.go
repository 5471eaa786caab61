package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mediahub/account-service/internal/api/middleware"
	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

// AuthHandler serves registration and the session lifecycle endpoints.
type AuthHandler struct {
	sessions       ports.SessionService
	profiles       ports.ProfileService
	cookies        CookieConfig
	maxUploadBytes int64
}

func NewAuthHandler(sessions ports.SessionService, profiles ports.ProfileService, cookies CookieConfig, maxUploadBytes int64) *AuthHandler {
	return &AuthHandler{
		sessions:       sessions,
		profiles:       profiles,
		cookies:        cookies,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName    formData  string  true   "Full name"
// @Param        username    formData  string  true   "Username"
// @Param        email       formData  string  true   "Email"
// @Param        password    formData  string  true   "Password"
// @Param        avatar      formData  file    true   "Avatar image"
// @Param        coverImage  formData  file    false  "Cover image"
// @Success      201  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/v1/users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return domain.Errorf(domain.ErrInvalidInput, "invalid payload")
	}
	if err := c.Validate(&form); err != nil {
		return err
	}

	avatar, err := readUpload(c, "avatar", h.maxUploadBytes)
	if err != nil {
		return err
	}
	if avatar == nil {
		return domain.Errorf(domain.ErrInvalidInput, "avatar is required")
	}
	cover, err := readUpload(c, "coverImage", h.maxUploadBytes)
	if err != nil {
		return err
	}

	user, err := h.profiles.Register(c.Request().Context(), ports.RegisterInput{
		FullName:   form.FullName,
		Username:   form.Username,
		Email:      form.Email,
		Password:   form.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, userResponse{User: *user})
}

// Login authenticates a user and starts a session.
//
// @Summary      Login
// @Description  Accepts username or email. Tokens are returned in the body and as HttpOnly cookies.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/v1/users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrInvalidInput, "invalid payload")
	}

	res, err := h.sessions.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.cookies.setTokens(c, res.Tokens)
	return c.JSON(http.StatusOK, loginResponse{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

// Logout ends the current session.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/v1/users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	// A token revoked by an earlier logout has nothing left to end.
	if !middleware.Revoked(c) {
		if err := h.sessions.Logout(c.Request().Context(), claims); err != nil {
			return err
		}
	}

	h.cookies.clearTokens(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "user logged out"})
}

// RefreshToken rotates the refresh token and issues a new pair.
//
// @Summary      Refresh the session
// @Description  Reads the refresh token from the refreshToken cookie, falling back to the body.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token when no cookie is sent"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/v1/users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	token := ""
	if ck, err := c.Cookie(RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(ck.Value)
	}
	if token == "" {
		// An unreadable body is treated like an absent token.
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}

	pair, err := h.sessions.Refresh(c.Request().Context(), token)
	if err != nil {
		return err
	}

	h.cookies.setTokens(c, *pair)
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

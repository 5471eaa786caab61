package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

// UserHandler serves the authenticated profile endpoints.
type UserHandler struct {
	sessions       ports.SessionService
	profiles       ports.ProfileService
	maxUploadBytes int64
}

func NewUserHandler(sessions ports.SessionService, profiles ports.ProfileService, maxUploadBytes int64) *UserHandler {
	return &UserHandler{sessions: sessions, profiles: profiles, maxUploadBytes: maxUploadBytes}
}

// CurrentUser returns the authenticated user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/users/current-user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := h.profiles.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: *user})
}

// ChangePassword replaces the password after checking the old one.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/v1/users/change-password [patch]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrInvalidInput, "invalid payload")
	}

	if err := h.sessions.ChangePassword(c.Request().Context(), claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed successfully"})
}

// UpdateDetails changes the username and/or full name.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateDetailsRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/v1/users/update-details [patch]
func (h *UserHandler) UpdateDetails(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req updateDetailsRequest
	if err := c.Bind(&req); err != nil {
		return domain.Errorf(domain.ErrInvalidInput, "invalid payload")
	}

	user, err := h.profiles.UpdateDetails(c.Request().Context(), claims.UserID, ports.UpdateDetailsInput{
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: *user})
}

// UpdateAvatar replaces the avatar image.
//
// @Summary      Replace avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200     {object}  userResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      503     {object}  errorResponse
// @Router       /api/v1/users/update-avatar [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.replaceAsset(c, domain.AssetAvatar, "avatar")
}

// UpdateCoverImage replaces the cover image.
//
// @Summary      Replace cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200         {object}  userResponse
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Failure      503         {object}  errorResponse
// @Router       /api/v1/users/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.replaceAsset(c, domain.AssetCoverImage, "coverImage")
}

func (h *UserHandler) replaceAsset(c echo.Context, kind domain.AssetKind, field string) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	upload, err := readUpload(c, field, h.maxUploadBytes)
	if err != nil {
		return err
	}
	if upload == nil {
		return domain.Errorf(domain.ErrInvalidInput, "%s file is missing", field)
	}

	user, err := h.profiles.ReplaceAsset(c.Request().Context(), claims.UserID, kind, *upload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: *user})
}

package handler

import "github.com/mediahub/account-service/internal/core/domain"

// --- Requests ---

// registerForm is the text part of the multipart registration request. The
// avatar and coverImage files are read separately.
type registerForm struct {
	FullName string `form:"fullName" validate:"required"`
	Username string `form:"username" validate:"required"`
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateDetailsRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// --- Responses ---

type userResponse struct {
	User domain.PublicUser `json:"user"`
}

type loginResponse struct {
	User         domain.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse documents the envelope rendered by the central error handler.
type errorResponse struct {
	Error string `json:"error"`
}

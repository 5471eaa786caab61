package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediahub/account-service/internal/api/middleware"
	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubSessionService struct {
	loginFn          func(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error)
	logoutFn         func(ctx context.Context, claims domain.AccessClaims) error
	refreshFn        func(ctx context.Context, token string) (*domain.TokenPair, error)
	changePasswordFn func(ctx context.Context, userID, oldPassword, newPassword string) error
}

func (s *stubSessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubSessionService) Logout(ctx context.Context, claims domain.AccessClaims) error {
	return s.logoutFn(ctx, claims)
}

func (s *stubSessionService) Refresh(ctx context.Context, token string) (*domain.TokenPair, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubSessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, oldPassword, newPassword)
}

type stubProfileService struct {
	registerFn      func(ctx context.Context, in ports.RegisterInput) (*domain.PublicUser, error)
	currentUserFn   func(ctx context.Context, userID string) (*domain.PublicUser, error)
	updateDetailsFn func(ctx context.Context, userID string, in ports.UpdateDetailsInput) (*domain.PublicUser, error)
	replaceAssetFn  func(ctx context.Context, userID string, kind domain.AssetKind, upload ports.AssetUpload) (*domain.PublicUser, error)
}

func (s *stubProfileService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PublicUser, error) {
	return s.registerFn(ctx, in)
}

func (s *stubProfileService) CurrentUser(ctx context.Context, userID string) (*domain.PublicUser, error) {
	return s.currentUserFn(ctx, userID)
}

func (s *stubProfileService) UpdateDetails(ctx context.Context, userID string, in ports.UpdateDetailsInput) (*domain.PublicUser, error) {
	return s.updateDetailsFn(ctx, userID, in)
}

func (s *stubProfileService) ReplaceAsset(ctx context.Context, userID string, kind domain.AssetKind, upload ports.AssetUpload) (*domain.PublicUser, error) {
	return s.replaceAssetFn(ctx, userID, kind, upload)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// multipartRequest builds a multipart request with the given text fields and files.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, data := range files {
		fw, err := w.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func withClaims(c echo.Context, userID string) {
	c.Set(middleware.ClaimsKey, domain.AccessClaims{UserID: userID, TokenID: "jti-1"})
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

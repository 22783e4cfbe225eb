// Package http provides the sandbox backend's HTTP handlers. Every response
// is a {status, message?, data?} envelope.
package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/middleware"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/service"
)

// AuthService defines the authentication operations required by the HTTP
// handlers.
type AuthService interface {
	// SendOTP issues a login code for mobile and returns it.
	SendOTP(ctx context.Context, mobile string) (string, error)
	// VerifyOTP exchanges a code for the user and a signed token.
	VerifyOTP(ctx context.Context, mobile, code string) (*models.User, string, error)
	// Profile returns the user a token was issued to.
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler handles OTP login and profile requests.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Logger      *zap.Logger
}

type sendOTPRequest struct {
	Mobile string `json:"mobile"`
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

// SendOTP handles POST /api/auth/send-otp. The code is written to the log in
// place of an SMS.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Mobile == "" {
		writeFail(w, http.StatusOK, "Please enter mobile")
		return
	}

	code, err := h.AuthService.SendOTP(r.Context(), req.Mobile)
	if err != nil {
		h.Logger.Error("send otp failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Logger.Info("otp issued", zap.String("mobile", req.Mobile), zap.String("otp", code))
	writeOK(w, "OTP sent successfully", nil, nil)
}

// VerifyOTP handles POST /api/auth/otp-verify. The token is returned as the
// top-level jwt_token member; data carries the user with its auth_key.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := h.AuthService.VerifyOTP(r.Context(), req.Mobile, req.OTP)
	switch {
	case errors.Is(err, service.ErrInvalidOTP):
		writeFail(w, http.StatusOK, "Invalid OTP")
		return
	case errors.Is(err, service.ErrOTPExpired):
		writeFail(w, http.StatusOK, "OTP expired, please request a new one")
		return
	case err != nil:
		h.Logger.Error("verify otp failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeOK(w, "Login successful", user, map[string]any{"jwt_token": token})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	user, err := h.AuthService.Profile(r.Context(), userID)
	if err != nil {
		h.Logger.Warn("profile lookup failed", zap.String("user", userID), zap.Error(err))
		writeFail(w, http.StatusNotFound, "User not found")
		return
	}
	writeOK(w, "", user, nil)
}

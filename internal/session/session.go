// Package session reads and writes the well-known credential keys in the
// persistent store and answers whether a user is logged in.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/kvstore"
)

// Store keys. The names are shared with every screen and must not change.
const (
	KeyUserID              = "user_id"
	KeyAuthKey             = "auth_key"
	KeyJWT                 = "jwt_token"
	KeyUserDetail          = "user_detail"
	KeyThemeMode           = "theme_mode"
	KeyLanguageSelected    = "language_selected"
	KeySelectedCompanyID   = "selected_company_id"
	KeySelectedCompanyName = "selected_company_name"
)

// logoutKeys are removed by LogOut. Theme and per-flow selections survive.
var logoutKeys = []string{KeyUserID, KeyAuthKey, KeyJWT, KeyUserDetail, KeyLanguageSelected}

// ErrNoToken is returned by Claims when no JWT is stored.
var ErrNoToken = errors.New("no token stored")

// Login is what a successful OTP verification yields.
type Login struct {
	UserID     string
	AuthKey    string
	JWT        string
	UserDetail json.RawMessage
}

// Session is the accessor over the credential keys.
type Session struct {
	store kvstore.Store
	log   *zap.Logger
}

// New returns a Session over store. log receives degraded-read warnings.
func New(store kvstore.Store, log *zap.Logger) *Session {
	return &Session{store: store, log: log}
}

// get reads key, turning storage failures into an empty value.
func (s *Session) get(ctx context.Context, key string) string {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("session read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return v
}

// IsLoggedIn reports whether a non-empty user id is stored.
func (s *Session) IsLoggedIn(ctx context.Context) bool {
	return s.get(ctx, KeyUserID) != ""
}

// LogOut removes the session keys and reports whether the user is logged out
// afterwards. The result is checked against the store, not assumed.
func (s *Session) LogOut(ctx context.Context) bool {
	if err := s.store.RemoveMany(ctx, logoutKeys); err != nil {
		s.log.Error("logout failed to remove session keys", zap.Error(err))
	}
	return !s.IsLoggedIn(ctx)
}

// SaveLogin stores the credentials returned by the auth endpoint.
func (s *Session) SaveLogin(ctx context.Context, l Login) error {
	pairs := []struct{ key, value string }{
		{KeyUserID, l.UserID},
		{KeyAuthKey, l.AuthKey},
		{KeyJWT, l.JWT},
	}
	if len(l.UserDetail) > 0 {
		pairs = append(pairs, struct{ key, value string }{KeyUserDetail, string(l.UserDetail)})
	}
	for _, p := range pairs {
		if err := s.store.Set(ctx, p.key, p.value); err != nil {
			return fmt.Errorf("save login: %w", err)
		}
	}
	return nil
}

// UserID returns the stored user id or "".
func (s *Session) UserID(ctx context.Context) string { return s.get(ctx, KeyUserID) }

// AuthKey returns the stored tenant auth key or "".
func (s *Session) AuthKey(ctx context.Context) string { return s.get(ctx, KeyAuthKey) }

// Token returns the stored JWT or "".
func (s *Session) Token(ctx context.Context) string { return s.get(ctx, KeyJWT) }

// UserDetail decodes the stored user detail JSON into v. It returns false when
// nothing usable is stored.
func (s *Session) UserDetail(ctx context.Context, v any) bool {
	raw := s.get(ctx, KeyUserDetail)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.log.Warn("stored user detail is not valid JSON", zap.Error(err))
		return false
	}
	return true
}

// ThemeMode returns the stored theme ("light", "dark") or "".
func (s *Session) ThemeMode(ctx context.Context) string { return s.get(ctx, KeyThemeMode) }

// SetThemeMode persists the theme choice.
func (s *Session) SetThemeMode(ctx context.Context, mode string) error {
	return s.store.Set(ctx, KeyThemeMode, mode)
}

// SetLanguageSelected records that the user picked a language.
func (s *Session) SetLanguageSelected(ctx context.Context, lang string) error {
	return s.store.Set(ctx, KeyLanguageSelected, lang)
}

// LanguageSelected returns the chosen language or "".
func (s *Session) LanguageSelected(ctx context.Context) string {
	return s.get(ctx, KeyLanguageSelected)
}

// SelectedCompany returns the company chosen in the company/invoice flows.
func (s *Session) SelectedCompany(ctx context.Context) (id, name string) {
	return s.get(ctx, KeySelectedCompanyID), s.get(ctx, KeySelectedCompanyName)
}

// SetSelectedCompany records the company the multi-step flows operate on.
func (s *Session) SetSelectedCompany(ctx context.Context, id, name string) error {
	if err := s.store.Set(ctx, KeySelectedCompanyID, id); err != nil {
		return err
	}
	return s.store.Set(ctx, KeySelectedCompanyName, name)
}

// Claims decodes the stored JWT without verifying its signature. The client
// never holds the signing key; the claims are for display only.
func (s *Session) Claims(ctx context.Context) (*jwt.RegisteredClaims, error) {
	token := s.Token(ctx)
	if token == "" {
		return nil, ErrNoToken
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

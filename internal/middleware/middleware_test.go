package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyToken(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func TestJWTAuth(t *testing.T) {
	verifier := fakeVerifier{"good": "42"}
	tests := []struct {
		name       string
		header     string
		wantCalled bool
		wantCode   int
		wantUser   string
	}{
		{"no header", "", false, http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", false, http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", false, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", false, http.StatusUnauthorized, ""},
		{"valid token", "Bearer good", true, http.StatusOK, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := JWTAuth(verifier, zap.NewNop())(dummy)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/employee/all-list", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(rec, req)

			if dummy.called != tt.wantCalled {
				t.Fatalf("called = %v, want %v", dummy.called, tt.wantCalled)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCalled {
				if got := GetUserIDFromContext(dummy.ctx); got != tt.wantUser {
					t.Errorf("user = %q, want %q", got, tt.wantUser)
				}
				return
			}
			if !strings.Contains(rec.Body.String(), `"status":false`) {
				t.Errorf("expected failure envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestGetUserIDFromContext_Missing(t *testing.T) {
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty user, got %q", got)
	}
	if got := GetUserIDFromContext(WithUserID(context.Background(), "7")); got != "7" {
		t.Errorf("expected 7, got %q", got)
	}
}

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := WithRequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", nil)
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id field = %v", fields["request_id"])
	}
	if fields["bytes"] != int64(2) {
		t.Errorf("bytes field = %v", fields["bytes"])
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, zap.NewNop())
	h := rl.Handler(&dummyHandler{})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected codes %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client should not be limited, got %d", rec.Code)
	}

	if rl.Len() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", rl.Len())
	}
	rl.Cleanup(-time.Second)
	if rl.Len() != 0 {
		t.Errorf("expected cleanup to forget idle clients, got %d", rl.Len())
	}
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/bizops/internal/kvstore"
)

// brokenStore wraps a MemoryStore and fails the selected operations.
type brokenStore struct {
	*kvstore.MemoryStore
	failGet    bool
	failRemove bool
}

func (b *brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	if b.failGet {
		return "", false, &kvstore.StorageError{Op: "get", Key: key, Err: errors.New("io error")}
	}
	return b.MemoryStore.Get(ctx, key)
}

func (b *brokenStore) RemoveMany(ctx context.Context, keys []string) error {
	if b.failRemove {
		return &kvstore.StorageError{Op: "remove", Err: errors.New("io error")}
	}
	return b.MemoryStore.RemoveMany(ctx, keys)
}

func loggedIn(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SaveLogin(context.Background(), Login{
		UserID:     "42",
		AuthKey:    "abc",
		JWT:        "xyz",
		UserDetail: []byte(`{"name":"Asha","role":"owner"}`),
	}))
}

func TestIsLoggedIn(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	s := New(store, zap.NewNop())

	assert.False(t, s.IsLoggedIn(ctx))

	require.NoError(t, store.Set(ctx, KeyUserID, ""))
	assert.False(t, s.IsLoggedIn(ctx), "empty user id is not a login")

	loggedIn(t, s)
	assert.True(t, s.IsLoggedIn(ctx))
	assert.Equal(t, "42", s.UserID(ctx))
	assert.Equal(t, "abc", s.AuthKey(ctx))
	assert.Equal(t, "xyz", s.Token(ctx))

	var detail struct {
		Name string `json:"name"`
	}
	assert.True(t, s.UserDetail(ctx, &detail))
	assert.Equal(t, "Asha", detail.Name)
}

func TestLogOut(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	s := New(store, zap.NewNop())

	loggedIn(t, s)
	require.NoError(t, s.SetThemeMode(ctx, "dark"))
	require.NoError(t, s.SetLanguageSelected(ctx, "hi"))

	assert.True(t, s.LogOut(ctx))
	assert.False(t, s.IsLoggedIn(ctx))

	for _, key := range []string{KeyUserID, KeyAuthKey, KeyJWT, KeyUserDetail, KeyLanguageSelected} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be removed", key)
	}
	assert.Equal(t, "dark", s.ThemeMode(ctx), "theme survives logout")
}

func TestLogOut_RemoveFailureIsDetected(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{MemoryStore: kvstore.NewMemoryStore()}
	s := New(store, zap.NewNop())
	loggedIn(t, s)

	store.failRemove = true
	assert.False(t, s.LogOut(ctx), "user id still stored, logout must report failure")
	assert.True(t, s.IsLoggedIn(ctx))
}

func TestReadFailureDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	store := &brokenStore{MemoryStore: kvstore.NewMemoryStore(), failGet: true}
	s := New(store, zap.New(core))

	assert.False(t, s.IsLoggedIn(ctx))
	assert.Empty(t, s.Token(ctx))
	assert.Equal(t, 2, logs.FilterMessage("session read failed").Len())
}

func TestSelectedCompany(t *testing.T) {
	ctx := context.Background()
	s := New(kvstore.NewMemoryStore(), zap.NewNop())

	id, name := s.SelectedCompany(ctx)
	assert.Empty(t, id)
	assert.Empty(t, name)

	require.NoError(t, s.SetSelectedCompany(ctx, "7", "Acme Fitness"))
	require.NoError(t, s.SetSelectedCompany(ctx, "8", "Acme Payroll"))

	id, name = s.SelectedCompany(ctx)
	assert.Equal(t, "8", id)
	assert.Equal(t, "Acme Payroll", name)
}

func TestClaims(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	s := New(store, zap.NewNop())

	_, err := s.Claims(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-only-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyJWT, token))

	claims, err := s.Claims(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.ExpiresAt.Time.Equal(exp))

	require.NoError(t, store.Set(ctx, KeyJWT, "not-a-jwt"))
	_, err = s.Claims(ctx)
	assert.Error(t, err)
}

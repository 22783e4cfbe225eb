package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func setupMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresStore(db), mock, func() { db.Close() }
}

func TestPostgresStore_Set(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store (key, value, updated_at)`)).
		WithArgs("jwt_token", "xyz").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Set(context.Background(), "jwt_token", "xyz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SetError(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store`)).
		WithArgs("user_id", "42").
		WillReturnError(errors.New("disk full"))

	err := store.Set(context.Background(), "user_id", "42")
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "set" {
		t.Fatalf("expected set StorageError, got %v", err)
	}
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	query := regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)
	mock.ExpectQuery(query).WithArgs("user_id").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("42"))
	mock.ExpectQuery(query).WithArgs("auth_key").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(query).WithArgs("theme_mode").
		WillReturnError(errors.New("conn reset"))

	v, ok, err := store.Get(context.Background(), "user_id")
	if err != nil || !ok || v != "42" {
		t.Errorf("Get(user_id) = (%q, %v, %v)", v, ok, err)
	}

	v, ok, err = store.Get(context.Background(), "auth_key")
	if err != nil || ok || v != "" {
		t.Errorf("Get(auth_key) = (%q, %v, %v); want missing", v, ok, err)
	}

	_, _, err = store.Get(context.Background(), "theme_mode")
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "get" {
		t.Errorf("expected get StorageError, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_RemoveMany(t *testing.T) {
	store, mock, cleanup := setupMock(t)
	defer cleanup()

	keys := []string{"user_id", "auth_key", "jwt_token"}
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_store WHERE key = ANY($1)`)).
		WithArgs(pq.Array(keys)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := store.RemoveMany(context.Background(), keys); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.RemoveMany(context.Background(), nil); err != nil {
		t.Fatalf("empty RemoveMany should be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pairs := map[string]string{
		"user_id":             "42",
		"auth_key":            "abc",
		"":                    "empty key",
		"user_detail":         `{"name":"Asha"}`,
		"selected_company_id": "",
	}

	s := NewMemoryStore()
	for k, v := range pairs {
		if err := s.Set(ctx, k, v); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}
	for k, want := range pairs {
		got, ok, err := s.Get(ctx, k)
		if err != nil || !ok || got != want {
			t.Errorf("Get(%q) = (%q, %v, %v); want %q", k, got, ok, err, want)
		}
	}

	if err := s.Set(ctx, "user_id", "43"); err != nil {
		t.Fatal(err)
	}
	if got, _, _ := s.Get(ctx, "user_id"); got != "43" {
		t.Errorf("overwrite not visible, got %q", got)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var se *StorageError
	if err := NewMemoryStore().Set(ctx, "k", "v"); !errors.As(err, &se) {
		t.Errorf("Set with cancelled ctx = %v; want *StorageError", err)
	}
	if !errors.Is(NewMemoryStore().RemoveMany(ctx, []string{"k"}), context.Canceled) {
		t.Error("RemoveMany should unwrap to context.Canceled")
	}
}

func TestMemoryStore_ConcurrentDistinctKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, fmt.Sprintf("flag_%d", i), fmt.Sprint(i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		if v, ok, _ := s.Get(ctx, fmt.Sprintf("flag_%d", i)); !ok || v != fmt.Sprint(i) {
			t.Errorf("flag_%d = %q, %v", i, v, ok)
		}
	}
}

// Package kvstore provides the persistent string key-value store the session
// layer keeps credentials and per-flow flags in.
//
// Keys share one flat namespace. Reading a missing key is not an error; write
// and remove failures are reported as *StorageError.
package kvstore

import (
	"context"
	"fmt"
	"strings"
)

// Store is a durable string key-value store.
type Store interface {
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// RemoveMany deletes every listed key. Absent keys are ignored.
	RemoveMany(ctx context.Context, keys []string) error
}

// StorageError describes a failed store operation.
type StorageError struct {
	// Op is the store operation: "get", "set" or "remove".
	Op string
	// Key holds the affected key, or a comma separated list for bulk removals.
	Key string
	// Err is the backend error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("kvstore %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, keys []string, err error) error {
	return &StorageError{Op: op, Key: strings.Join(keys, ","), Err: err}
}

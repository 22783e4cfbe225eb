package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists values as a single JSON document on disk. Every write
// rewrites the document through a temp file and rename, so a crash leaves
// either the old or the new document in place.
type FileStore struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

type fileDocument struct {
	Values map[string]string `json:"values"`
}

// NewFileStore opens the store at path, loading any existing document.
// A missing file yields an empty store.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.values = make(map[string]string)
			return nil
		}
		return fmt.Errorf("open store file: %w", err)
	}
	defer f.Close()

	var doc fileDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	fs.values = doc.Values
	return nil
}

// save must be called with fs.mu held.
func (fs *FileStore) save() error {
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".kvstore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(fileDocument{Values: fs.values}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}

func (fs *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return storageErr("set", []string{key}, err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.values[key]
	fs.values[key] = value
	if err := fs.save(); err != nil {
		if had {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return storageErr("set", []string{key}, err)
	}
	return nil
}

func (fs *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, storageErr("get", []string{key}, err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FileStore) RemoveMany(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return storageErr("remove", keys, err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	removed := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := fs.values[k]; ok {
			removed[k] = v
			delete(fs.values, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := fs.save(); err != nil {
		for k, v := range removed {
			fs.values[k] = v
		}
		return storageErr("remove", keys, err)
	}
	return nil
}

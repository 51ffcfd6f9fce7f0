package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fakeyudi/tabkeep/internal/fsutil"
)

// FileStore keeps every key in one JSON object on disk. Each Set rewrites the
// whole file through a temp file and rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore at path, or at the default data location
// ($XDG_DATA_HOME/tabkeep/store.json) when path is empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join(DataDir(), "store.json")
	}
	return &FileStore{path: path}
}

// DataDir returns the tabkeep-specific XDG data directory.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".tabkeep")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "tabkeep")
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			out[k] = []byte(v)
		}
	}
	return out, nil
}

func (f *FileStore) Set(ctx context.Context, items map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range items {
		if !json.Valid(v) {
			return fmt.Errorf("value for key %q is not a JSON document", k)
		}
		doc[k] = json.RawMessage(v)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist store: %w", err)
	}
	if err := fsutil.WriteFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("failed to persist store: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

// Package store persists the identifiers of events that have already been
// notified. Stores are append-only: an identifier is never removed once saved.
package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileStore keeps sent identifiers in a plain text file, one per line. It
// assumes a single writing process.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path. The file is
// created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads every stored identifier. A missing file is an empty set.
func (s *FileStore) Load(_ context.Context) (map[string]struct{}, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open sent ids file: %w", err)
	}
	defer f.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sent ids file: %w", err)
	}
	return ids, nil
}

// Save appends id as a new line. Existing content is never rewritten.
func (s *FileStore) Save(_ context.Context, id string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sent ids file: %w", err)
	}
	if _, err := f.WriteString(id + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append sent id: %w", err)
	}
	return f.Close()
}

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close() error { return nil }

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"markestedt/clipkeep/history"
)

// FileStore keeps the history in a single JSON file
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore returns a store backed by the JSON file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the history file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the history file. A missing file is an empty history.
func (s *FileStore) Load() ([]history.Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return DecodeHistory(data, s.now())
}

// Save replaces the history file
func (s *FileStore) Save(entries []history.Entry) error {
	return writeHistoryFile(s.path, entries)
}

func (s *FileStore) Close() error {
	return nil
}

// Export writes entries to path in the history file layout
func Export(path string, entries []history.Entry) error {
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	return writeHistoryFile(path, entries)
}

// writeHistoryFile writes through a temp file and rename so a crash never
// leaves a truncated history behind
func writeHistoryFile(path string, entries []history.Entry) error {
	data, err := EncodeHistory(entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

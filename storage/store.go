// Package storage persists the clipboard history, either as the JSON file
// or in a SQLite database.
package storage

import (
	"fmt"
	"log/slog"

	"markestedt/clipkeep/history"
)

// Store loads and saves the full history
type Store interface {
	Load() ([]history.Entry, error)
	Save(entries []history.Entry) error
	Close() error
}

// Backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend. The SQLite store imports an existing
// JSON history the first time it opens empty, so switching backends keeps
// the user's entries.
func Open(backend, jsonPath, dbPath string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewFileStore(jsonPath), nil

	case BackendSQLite:
		db, err := OpenDB(dbPath)
		if err != nil {
			return nil, err
		}
		if err := importJSON(db, NewFileStore(jsonPath)); err != nil {
			slog.Warn("Failed to import JSON history", "path", jsonPath, "error", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func importJSON(db *DB, src *FileStore) error {
	done, err := db.importedFrom()
	if err != nil {
		return err
	}
	if done != "" {
		return nil
	}

	count, err := db.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return db.markImported(src.Path())
	}

	entries, err := src.Load()
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		// Apply the same validation the controller applies on load
		h := history.New(len(entries), 0)
		h.Restore(entries)
		if err := db.Save(h.Entries()); err != nil {
			return err
		}
		slog.Info("Imported JSON history", "path", src.Path(), "entries", h.Len())
	}
	return db.markImported(src.Path())
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"markestedt/clipkeep/history"
)

const metaImportedFrom = "imported_from"

// Load returns all entries in display order
func (db *DB) Load() ([]history.Entry, error) {
	query := `
		SELECT text, captured_at, pinned
		FROM entries
		ORDER BY position ASC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var (
			e          history.Entry
			capturedAt int64
		)
		if err := rows.Scan(&e.Text, &capturedAt, &e.Pinned); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.CapturedAt = time.Unix(0, capturedAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Save replaces the stored entries in one transaction
func (db *DB) Save(entries []history.Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (position, text, captured_at, pinned) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(i, e.Text, e.CapturedAt.UnixNano(), e.Pinned); err != nil {
			return fmt.Errorf("failed to save entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// Count returns the number of stored entries
func (db *DB) Count() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// importedFrom reports the JSON file a previous run imported, if any
func (db *DB) importedFrom() (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaImportedFrom).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (db *DB) markImported(path string) error {
	_, err := db.conn.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaImportedFrom, path,
	)
	return err
}

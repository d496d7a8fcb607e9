package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/clipkeep/history"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func entryTexts(entries []history.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestDecodeRecords(t *testing.T) {
	data := `[
		{"text": "  alpha  ", "ts": 1700000000.5, "pinned": true},
		{"text": "", "pinned": true},
		{"text": "beta"},
		{"ts": 12},
		"stray string",
		{"text": "gamma", "ts": "yesterday", "pinned": 1}
	]`

	entries, err := DecodeHistory([]byte(data), now)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, entryTexts(entries))

	assert.True(t, entries[0].Pinned)
	assert.Equal(t, time.Unix(1700000000, 500000000), entries[0].CapturedAt)

	assert.False(t, entries[1].Pinned)
	assert.Equal(t, now, entries[1].CapturedAt, "missing ts defaults to now")

	assert.True(t, entries[2].Pinned)
	assert.Equal(t, now, entries[2].CapturedAt)
}

func TestDecodeLegacy(t *testing.T) {
	entries, err := DecodeHistory([]byte(`["x", "  ", 3, "y"]`), now)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, entryTexts(entries))

	assert.False(t, entries[0].Pinned)
	assert.False(t, entries[1].Pinned)
	assert.True(t, entries[0].CapturedAt.After(entries[1].CapturedAt), "earlier items are newer")
	assert.Equal(t, now, entries[0].CapturedAt)
}

func TestDecodeEdgeCases(t *testing.T) {
	entries, err := DecodeHistory(nil, now)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = DecodeHistory([]byte("[]"), now)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = DecodeHistory([]byte(`{"text": "x"}`), now)
	assert.Error(t, err)

	_, err = DecodeHistory([]byte(`[{"text": `), now)
	assert.Error(t, err)
}

func TestEncodeHistory(t *testing.T) {
	entries := []history.Entry{
		{Text: "<b>pinned</b>", CapturedAt: time.Unix(1700000000, 0), Pinned: true},
		{Text: "plain", CapturedAt: time.Unix(1700000001, 250000000)},
	}

	data, err := EncodeHistory(entries)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<b>pinned</b>", "HTML is not escaped")

	var records []Record
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Equal(t, []Record{
		{Text: "<b>pinned</b>", TS: 1700000000, Pinned: true},
		{Text: "plain", TS: 1700000001.25},
	}, records)

	back, err := DecodeHistory(data, now)
	require.NoError(t, err)
	assert.Equal(t, entryTexts(entries), entryTexts(back))
	assert.True(t, back[0].Pinned)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "clipboard_history.json")
	s := NewFileStore(path)

	entries, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, entries, "missing file is empty history")

	want := []history.Entry{
		{Text: "one", CapturedAt: time.Unix(100, 0), Pinned: true},
		{Text: "two", CapturedAt: time.Unix(90, 0)},
	}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, entryTexts(got))
	assert.Equal(t, time.Unix(100, 0), got[0].CapturedAt)

	// No temp files are left behind
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, s.Close())
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipboard_history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, Export(path, []history.Entry{{Text: "x", CapturedAt: now}}))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, entryTexts(got))

	assert.Error(t, Export("", nil))
}

func TestDBSaveLoad(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "clipkeep.db"))
	require.NoError(t, err)
	defer db.Close()

	first := []history.Entry{
		{Text: "pinned", CapturedAt: time.Unix(0, 1700000000123456789), Pinned: true},
		{Text: "a", CapturedAt: time.Unix(200, 0)},
		{Text: "b", CapturedAt: time.Unix(100, 0)},
	}
	require.NoError(t, db.Save(first))

	got, err := db.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"pinned", "a", "b"}, entryTexts(got))
	assert.True(t, got[0].Pinned)
	assert.Equal(t, first[0].CapturedAt.UnixNano(), got[0].CapturedAt.UnixNano())

	// Save replaces rather than appends
	require.NoError(t, db.Save(first[1:2]))
	count, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDBSaveDuplicateRollsBack(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "clipkeep.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save([]history.Entry{{Text: "keep", CapturedAt: now}}))

	err = db.Save([]history.Entry{{Text: "dup", CapturedAt: now}, {Text: "dup", CapturedAt: now}})
	require.Error(t, err)

	got, err := db.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, entryTexts(got))
}

func TestOpenSQLiteImportsJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "clipboard_history.json")
	dbPath := filepath.Join(dir, "clipkeep.db")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`["x", "y", "x"]`), 0644))

	s, err := Open(BackendSQLite, jsonPath, dbPath)
	require.NoError(t, err)
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, entryTexts(got))

	// Later saves are not overwritten by a second import
	require.NoError(t, s.Save(nil))
	require.NoError(t, s.Close())

	s, err = Open(BackendSQLite, jsonPath, dbPath)
	require.NoError(t, err)
	defer s.Close()
	got, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendJSON, filepath.Join(dir, "h.json"), "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open("redis", "", "")
	assert.Error(t, err)
}

package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"markestedt/clipkeep/history"
)

// Record is one entry in the history file
type Record struct {
	Text   string  `json:"text"`
	TS     float64 `json:"ts"` // seconds since the Unix epoch
	Pinned bool    `json:"pinned"`
}

// rawRecord accepts anything a hand-edited file might contain
type rawRecord struct {
	Text   any `json:"text"`
	TS     any `json:"ts"`
	Pinned any `json:"pinned"`
}

// DecodeHistory parses a history file. Two layouts are accepted: a list of
// records, and the legacy list of plain strings (newest first), which gets
// synthetic timestamps counting down from now. Records without usable text
// are dropped; duplicate and ordering rules are left to history.Restore.
func DecodeHistory(data []byte, now time.Time) ([]history.Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("history is not a JSON list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	if isObject(items[0]) {
		return decodeRecords(items, now), nil
	}
	return decodeLegacy(items, now), nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func decodeRecords(items []json.RawMessage, now time.Time) []history.Entry {
	entries := make([]history.Entry, 0, len(items))
	for _, raw := range items {
		var r rawRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		text := strings.TrimSpace(stringValue(r.Text))
		if text == "" {
			continue
		}
		entries = append(entries, history.Entry{
			Text:       text,
			CapturedAt: timestampValue(r.TS, now),
			Pinned:     boolValue(r.Pinned),
		})
	}
	return entries
}

func decodeLegacy(items []json.RawMessage, now time.Time) []history.Entry {
	entries := make([]history.Entry, 0, len(items))
	for i, raw := range items {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		text := strings.TrimSpace(s)
		if text == "" {
			continue
		}
		entries = append(entries, history.Entry{
			Text:       text,
			CapturedAt: now.Add(-time.Duration(i) * time.Second),
		})
	}
	return entries
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	case bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func boolValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return false
	}
}

func timestampValue(v any, now time.Time) time.Time {
	ts, ok := v.(float64)
	if !ok || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return now
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// EncodeHistory renders entries in the history file layout
func EncodeHistory(entries []history.Entry) ([]byte, error) {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{
			Text:   e.Text,
			TS:     float64(e.CapturedAt.Unix()) + float64(e.CapturedAt.Nanosecond())/1e9,
			Pinned: e.Pinned,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return buf.Bytes(), nil
}

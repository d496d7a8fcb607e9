// Package history holds the in-memory clipboard history: deduplicated
// entries with a pinned prefix and a capped unpinned tail.
//
// A History is not safe for concurrent use. It is owned by the controller
// goroutine and every mutation happens there.
package history

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	DefaultMaxItems    = 50
	DefaultMaxQueryLen = 200
)

// ErrQueryTooLong is returned by Search when the query exceeds the limit
var ErrQueryTooLong = errors.New("search query too long")

// Entry is a single captured clipboard text
type Entry struct {
	Text       string
	Fold       string
	CapturedAt time.Time
	Pinned     bool
}

// Fold returns the case-insensitive comparison key for text
func Fold(text string) string {
	return cases.Fold().String(text)
}

// History is an ordered collection of entries, pinned first
type History struct {
	entries     []Entry
	maxItems    int
	maxQueryLen int
	now         func() time.Time
}

// New creates an empty history. Non-positive limits fall back to defaults.
func New(maxItems, maxQueryLen int) *History {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxQueryLen <= 0 {
		maxQueryLen = DefaultMaxQueryLen
	}
	return &History{
		maxItems:    maxItems,
		maxQueryLen: maxQueryLen,
		now:         time.Now,
	}
}

// MaxQueryLen returns the search length limit in characters
func (h *History) MaxQueryLen() int {
	return h.maxQueryLen
}

// Capture records text as the newest entry. It returns false when text is
// empty after trimming.
func (h *History) Capture(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	pinned := false
	if i := h.index(text); i >= 0 {
		pinned = h.entries[i].Pinned
		h.removeAt(i)
	}

	h.insert(Entry{
		Text:       text,
		Fold:       Fold(text),
		CapturedAt: h.now(),
		Pinned:     pinned,
	})
	h.evict()
	return true
}

// Remove deletes the entry with the given text. Missing text is not an error.
func (h *History) Remove(text string) bool {
	i := h.index(text)
	if i < 0 {
		return false
	}
	h.removeAt(i)
	return true
}

// TogglePin flips the pinned flag of the entry with the given text and moves
// it to the front of its new block. The capture time is kept.
func (h *History) TogglePin(text string) (pinned bool, ok bool) {
	i := h.index(text)
	if i < 0 {
		return false, false
	}

	e := h.entries[i]
	h.removeAt(i)
	e.Pinned = !e.Pinned
	h.insert(e)
	h.evict()
	return e.Pinned, true
}

// Clear removes every entry, pinned ones included
func (h *History) Clear() {
	h.entries = nil
}

// Search returns the entries whose fold key contains the folded query, in
// history order. The sequence is evaluated lazily against the live history.
func (h *History) Search(query string) (iter.Seq[Entry], error) {
	if err := h.ValidateQuery(query); err != nil {
		return nil, err
	}

	needle := Fold(strings.TrimSpace(query))
	return func(yield func(Entry) bool) {
		for _, e := range h.entries {
			if needle != "" && !strings.Contains(e.Fold, needle) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}, nil
}

// ValidateQuery rejects queries longer than the configured limit
func (h *History) ValidateQuery(query string) error {
	if n := utf8.RuneCountInString(query); n > h.maxQueryLen {
		return fmt.Errorf("%w: %d characters, limit %d", ErrQueryTooLong, n, h.maxQueryLen)
	}
	return nil
}

// Restore replaces the history with previously persisted entries. Entries
// with empty text are dropped, duplicates keep their first occurrence, the
// pinned partition is restored and the capacity cap applied.
func (h *History) Restore(entries []Entry) {
	seen := make(map[string]struct{}, len(entries))
	var pinned, unpinned []Entry

	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		e.Text = text
		e.Fold = Fold(text)
		if e.Pinned {
			pinned = append(pinned, e)
		} else {
			unpinned = append(unpinned, e)
		}
	}

	h.entries = append(pinned, unpinned...)
	h.evict()
}

// Entries returns a copy of all entries in order
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the total number of entries
func (h *History) Len() int {
	return len(h.entries)
}

// PinnedCount returns the size of the pinned prefix
func (h *History) PinnedCount() int {
	n := 0
	for _, e := range h.entries {
		if !e.Pinned {
			break
		}
		n++
	}
	return n
}

func (h *History) index(text string) int {
	for i, e := range h.entries {
		if e.Text == text {
			return i
		}
	}
	return -1
}

func (h *History) removeAt(i int) {
	h.entries = append(h.entries[:i], h.entries[i+1:]...)
}

// insert places e at the front of the pinned block or, for unpinned
// entries, directly after it.
func (h *History) insert(e Entry) {
	pos := 0
	if !e.Pinned {
		pos = h.PinnedCount()
	}
	h.entries = append(h.entries, Entry{})
	copy(h.entries[pos+1:], h.entries[pos:])
	h.entries[pos] = e
}

// evict drops the oldest unpinned entries beyond the cap
func (h *History) evict() {
	limit := h.PinnedCount() + h.maxItems
	if len(h.entries) > limit {
		h.entries = h.entries[:limit]
	}
}

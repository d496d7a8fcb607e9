package history

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestHistory returns a history whose clock advances one second per capture
func newTestHistory(maxItems int) *History {
	h := New(maxItems, 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	h.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return h
}

func texts(h *History) []string {
	var out []string
	for _, e := range h.Entries() {
		out = append(out, e.Text)
	}
	return out
}

// checkInvariants verifies uniqueness, the pinned prefix and the cap
func checkInvariants(t *testing.T, h *History) {
	t.Helper()

	seen := make(map[string]bool)
	inPinned := true
	unpinned := 0
	for i, e := range h.Entries() {
		if seen[e.Text] {
			t.Fatalf("duplicate entry %q at %d", e.Text, i)
		}
		seen[e.Text] = true

		if e.Pinned && !inPinned {
			t.Fatalf("pinned entry %q at %d follows an unpinned one", e.Text, i)
		}
		if !e.Pinned {
			inPinned = false
			unpinned++
		}
	}
	if unpinned > h.maxItems {
		t.Fatalf("unpinned count %d exceeds max %d", unpinned, h.maxItems)
	}
}

func TestCapture_Scenario(t *testing.T) {
	h := newTestHistory(50)

	h.Capture("alpha")
	h.Capture("beta")
	h.Capture("alpha")

	require.Equal(t, []string{"alpha", "beta"}, texts(h))
	entries := h.Entries()
	assert.True(t, entries[0].CapturedAt.After(entries[1].CapturedAt), "re-captured alpha should be newest")

	pinned, ok := h.TogglePin("beta")
	require.True(t, ok)
	require.True(t, pinned)
	require.Equal(t, []string{"beta", "alpha"}, texts(h))
	assert.True(t, h.Entries()[0].Pinned)

	for i := 0; i < 51; i++ {
		h.Capture(fmt.Sprintf("item-%02d", i))
	}

	got := texts(h)
	assert.Len(t, got, 51, "1 pinned + 50 unpinned")
	assert.Equal(t, "beta", got[0])
	assert.Equal(t, "item-50", got[1])
	assert.NotContains(t, got, "alpha", "oldest unpinned entry should be evicted")
	assert.Contains(t, got, "item-00")
	checkInvariants(t, h)
}

func TestCapture_TrimsAndIgnoresEmpty(t *testing.T) {
	h := newTestHistory(50)

	assert.False(t, h.Capture(""))
	assert.False(t, h.Capture("   \n\t "))
	assert.Equal(t, 0, h.Len())

	assert.True(t, h.Capture("  padded  "))
	require.Equal(t, []string{"padded"}, texts(h))

	// Trimmed duplicates collapse
	h.Capture("padded\n")
	assert.Equal(t, 1, h.Len())
}

func TestCapture_PinnedMovesToFrontOfPinnedBlock(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("one")
	h.Capture("two")
	h.Capture("three")
	h.TogglePin("one")
	h.TogglePin("two")
	require.Equal(t, []string{"two", "one", "three"}, texts(h))

	h.Capture("one")

	assert.Equal(t, []string{"one", "two", "three"}, texts(h))
	assert.True(t, h.Entries()[0].Pinned, "re-capture must preserve pinned flag")
	checkInvariants(t, h)
}

func TestCapture_FoldKey(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("Hello WORLD")

	e := h.Entries()[0]
	assert.Equal(t, "Hello WORLD", e.Text)
	assert.Equal(t, "hello world", e.Fold)
	assert.Equal(t, e.Fold, Fold(strings.ToUpper("hello world")), "fold should be case-insensitive")
}

func TestTogglePin_Inverse(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("a")
	h.Capture("b")
	h.Capture("c")
	before := h.Entries()[1]

	_, ok := h.TogglePin("b")
	require.True(t, ok)
	pinned, ok := h.TogglePin("b")
	require.True(t, ok)
	assert.False(t, pinned)

	var found *Entry
	for _, e := range h.Entries() {
		if e.Text == "b" {
			found = &e
		}
	}
	require.NotNil(t, found)
	assert.False(t, found.Pinned)
	assert.Equal(t, before.CapturedAt, found.CapturedAt, "toggle must keep the timestamp")
	assert.Equal(t, 0, h.PinnedCount())
	checkInvariants(t, h)
}

func TestTogglePin_Missing(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("a")

	_, ok := h.TogglePin("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, texts(h))
}

func TestRemove(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("a")
	h.Capture("b")

	assert.True(t, h.Remove("a"))
	assert.False(t, h.Remove("a"), "second remove is a no-op")
	assert.Equal(t, []string{"b"}, texts(h))
}

func TestClear_IncludesPinned(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("a")
	h.Capture("b")
	h.TogglePin("a")

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.PinnedCount())
}

func TestEviction_NeverDropsPinned(t *testing.T) {
	h := newTestHistory(3)
	for i := 0; i < 5; i++ {
		h.Capture(fmt.Sprintf("p%d", i))
		h.TogglePin(fmt.Sprintf("p%d", i))
	}
	for i := 0; i < 20; i++ {
		h.Capture(fmt.Sprintf("u%d", i))
	}

	assert.Equal(t, 5, h.PinnedCount())
	assert.Equal(t, 8, h.Len())
	assert.Equal(t, []string{"p4", "p3", "p2", "p1", "p0", "u19", "u18", "u17"}, texts(h))
}

func TestRandomSequences_KeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := newTestHistory(10)
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	for step := 0; step < 5000; step++ {
		w := words[rng.Intn(len(words))]
		switch rng.Intn(10) {
		case 0:
			h.TogglePin(w)
		case 1:
			h.Remove(w)
		default:
			h.Capture(w)
		}
		checkInvariants(t, h)
	}
}

func TestSearch(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("Hello World")
	h.Capture("goodbye")
	h.Capture("say HELLO again")
	h.TogglePin("goodbye")

	seq, err := h.Search("  hello ")
	require.NoError(t, err)
	var got []string
	for e := range seq {
		got = append(got, e.Text)
	}
	assert.Equal(t, []string{"say HELLO again", "Hello World"}, got)

	seq, err = h.Search("")
	require.NoError(t, err)
	assert.Len(t, slices.Collect(seq), 3, "empty query matches everything")
}

func TestSearch_RejectsLongQuery(t *testing.T) {
	h := New(50, 5)
	h.Capture("abc")

	_, err := h.Search("abcde")
	require.NoError(t, err)

	_, err = h.Search("abcdef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryTooLong))

	// Limit counts characters, not bytes
	assert.NoError(t, h.ValidateQuery("ééééé"))
}

func TestSearch_Lazy(t *testing.T) {
	h := newTestHistory(50)
	h.Capture("a1")

	seq, err := h.Search("a")
	require.NoError(t, err)

	h.Capture("a2")
	got := slices.Collect(seq)
	require.Len(t, got, 2, "sequence reflects the history at iteration time")
	assert.Equal(t, "a2", got[0].Text)
}

func TestRestore(t *testing.T) {
	h := New(2, 0)
	ts := time.Unix(1700000000, 0)

	h.Restore([]Entry{
		{Text: "x", CapturedAt: ts},
		{Text: "", Pinned: true},
		{Text: "  y ", CapturedAt: ts},
		{Text: "x", CapturedAt: ts.Add(time.Hour), Pinned: true},
		{Text: "pin", CapturedAt: ts, Pinned: true},
		{Text: "z", CapturedAt: ts},
	})

	assert.Equal(t, []string{"pin", "x", "y"}, texts(h))
	entries := h.Entries()
	assert.False(t, entries[1].Pinned, "first occurrence of x wins")
	assert.Equal(t, "y", entries[2].Text)
	assert.Equal(t, Fold("pin"), entries[0].Fold)
	checkInvariants(t, h)
}

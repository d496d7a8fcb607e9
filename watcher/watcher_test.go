package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/clipkeep/bus"
)

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) Get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.err
}

func (c *fakeClipboard) set(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

func captured(events []bus.Event) []string {
	var out []string
	for _, e := range events {
		if e.Type == bus.Captured {
			out = append(out, e.Text)
		}
	}
	return out
}

func TestTickPublishesChanges(t *testing.T) {
	clip := &fakeClipboard{text: "alpha"}
	b := bus.New()
	w := New(clip, b, time.Second)

	assert.True(t, w.Tick())
	assert.False(t, w.Tick(), "unchanged text is not republished")

	clip.set("  beta \n")
	assert.True(t, w.Tick())

	assert.Equal(t, []string{"alpha", "beta"}, captured(b.Drain()))
}

func TestTickIgnoresEmptyAndErrors(t *testing.T) {
	clip := &fakeClipboard{text: "   "}
	b := bus.New()
	w := New(clip, b, time.Second)

	assert.False(t, w.Tick())

	clip.err = errors.New("clipboard busy")
	clip.text = "alpha"
	assert.False(t, w.Tick())

	assert.Empty(t, b.Drain())
}

func TestPausedTracksButDoesNotPublish(t *testing.T) {
	clip := &fakeClipboard{text: "alpha"}
	b := bus.New()
	w := New(clip, b, time.Second)

	w.SetPaused(true)
	assert.False(t, w.Tick())

	// Resuming with the same clipboard content captures nothing
	w.SetPaused(false)
	assert.False(t, w.Tick())
	assert.Empty(t, b.Drain())

	clip.set("beta")
	assert.True(t, w.Tick())
	assert.Equal(t, []string{"beta"}, captured(b.Drain()))
}

func TestPublishAfterBusClose(t *testing.T) {
	clip := &fakeClipboard{text: "alpha"}
	b := bus.New()
	b.Close()
	w := New(clip, b, time.Second)

	assert.False(t, w.Tick())
}

func TestDefaultInterval(t *testing.T) {
	w := New(&fakeClipboard{}, bus.New(), 0)
	assert.Equal(t, DefaultInterval, w.interval)
}

func TestRunPollsUntilCancelled(t *testing.T) {
	clip := &fakeClipboard{text: "alpha"}
	b := bus.New()
	w := New(clip, b, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	var got []string
	require.Eventually(t, func() bool {
		got = append(got, captured(b.Drain())...)
		return len(got) > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	got = append(got, captured(b.Drain())...)
	assert.Equal(t, []string{"alpha"}, got)
}

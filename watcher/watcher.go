// Package watcher polls the system clipboard and reports new text on the bus.
package watcher

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"markestedt/clipkeep/bus"
)

// DefaultInterval is the poll period used when none is configured
const DefaultInterval = 500 * time.Millisecond

// Reader is the part of platform.Clipboard the watcher needs
type Reader interface {
	Get() (string, error)
}

// Watcher polls a clipboard and publishes Captured events for changed text
type Watcher struct {
	clip     Reader
	pub      bus.Publisher
	interval time.Duration

	paused atomic.Bool

	// lastSeen is only touched by the polling goroutine (or Tick in tests)
	lastSeen string
}

// New creates a watcher. A non-positive interval selects DefaultInterval.
func New(clip Reader, pub bus.Publisher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		clip:     clip,
		pub:      pub,
		interval: interval,
	}
}

// SetPaused toggles capture. While paused the watcher still tracks the
// clipboard so text copied during the pause is not captured on resume.
func (w *Watcher) SetPaused(paused bool) {
	w.paused.Store(paused)
}

// Tick performs one poll. It reports whether a Captured event was published.
func (w *Watcher) Tick() bool {
	raw, err := w.clip.Get()
	if err != nil {
		slog.Debug("Clipboard read failed", "error", err)
		return false
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return false
	}
	if text == w.lastSeen {
		return false
	}
	w.lastSeen = text

	if w.paused.Load() {
		return false
	}
	return w.pub.Publish(bus.Event{Type: bus.Captured, Text: text})
}

// Run polls until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) {
	slog.Debug("Clipboard watcher started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Clipboard watcher stopped")
			return
		case <-ticker.C:
			w.Tick()
		}
	}
}

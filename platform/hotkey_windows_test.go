//go:build windows

package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/clipkeep/bus"
)

func TestWindowsHotkeyStartTimeoutResets(t *testing.T) {
	b := bus.New()
	h := NewHotkey(b).(*WindowsHotkey)
	h.startTimeout = 10 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	h.loop = func(_ Binding, ready chan<- struct{}) {
		<-release
	}

	err := h.Start(Binding{Ctrl: true, Alt: true, Key: "V"})
	require.Error(t, err)
	assert.Equal(t, HotkeyStopped, h.State())

	h.SetBinding(Binding{Ctrl: true, Key: "H"})
	events := b.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, "Hotkey listener is not running.", events[0].Text)

	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	assert.False(t, running)
}

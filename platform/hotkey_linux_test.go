//go:build linux

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/clipkeep/bus"
)

func TestNewHotkeyWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	b := bus.New()

	hk := NewHotkey(b)
	require.IsType(t, &unsupportedHotkey{}, hk)

	err := hk.Start(Binding{Ctrl: true, Alt: true, Key: "V"})
	assert.ErrorIs(t, err, ErrHotkeyUnsupported)
	assert.Equal(t, HotkeyStopped, hk.State())

	events := b.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, bus.Info, events[0].Type)
	assert.Contains(t, events[0].Text, "X11")

	hk.SetBinding(Binding{Ctrl: true, Key: "H"})
	events = b.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, bus.Error, events[0].Type)
	assert.ErrorIs(t, events[0].Err, ErrHotkeyUnsupported)

	hk.Stop()
	assert.Equal(t, HotkeyStopped, hk.State())
}

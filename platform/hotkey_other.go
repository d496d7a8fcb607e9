//go:build !windows && !linux

package platform

import (
	"fmt"
	"runtime"

	"markestedt/clipkeep/bus"
)

// NewHotkey returns a hotkey source that is permanently unavailable
func NewHotkey(pub bus.Publisher) Hotkey {
	return newUnsupportedHotkey(pub, fmt.Sprintf("Global hotkey is not supported on %s.", runtime.GOOS))
}

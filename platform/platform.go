package platform

import (
	"errors"
	"runtime"
	"strings"
)

var (
	// ErrHotkeyUnsupported is returned by Start when no global hotkey
	// backend exists for this platform
	ErrHotkeyUnsupported = errors.New("global hotkey not supported on this platform")

	// ErrHotkeyTaken marks the Error event emitted when a combination could
	// not be registered, usually because another program holds it
	ErrHotkeyTaken = errors.New("hotkey already in use")

	// ErrRollbackFailed marks the Error event emitted when a rebind failed
	// and the previous binding could not be restored either
	ErrRollbackFailed = errors.New("hotkey rollback failed")

	// ErrUnknownKey is returned for key tokens no backend can bind
	ErrUnknownKey = errors.New("unknown key")
)

// HotkeyResult is the Payload of the Info or Error event that ends a
// registration attempt. Active is the binding the OS holds afterwards; zero
// means none.
type HotkeyResult struct {
	Requested Binding
	Active    Binding
}

// Binding is a global key combination
type Binding struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool   // Win on Windows, Cmd on macOS, Super on Linux
	Key   string // canonical token, see NormalizeKey
}

// IsZero reports whether b binds nothing
func (b Binding) IsZero() bool {
	return b == Binding{}
}

// String returns the display form, e.g. "Ctrl+Alt+V"
func (b Binding) String() string {
	var parts []string
	if b.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if b.Alt {
		parts = append(parts, "Alt")
	}
	if b.Shift {
		parts = append(parts, "Shift")
	}
	if b.Meta {
		parts = append(parts, MetaLabel())
	}
	key := b.Key
	if key == "" {
		key = "?"
	}
	parts = append(parts, key)
	return strings.Join(parts, "+")
}

// MetaLabel is the platform name of the meta modifier
func MetaLabel() string {
	if runtime.GOOS == "darwin" {
		return "Cmd"
	}
	return "Win"
}

// HotkeyState tracks the lifecycle of a Hotkey source
type HotkeyState int32

const (
	HotkeyStopped HotkeyState = iota
	HotkeyStarting
	HotkeyListening
	HotkeyReplacing
	HotkeyStopping
)

func (s HotkeyState) String() string {
	switch s {
	case HotkeyStopped:
		return "stopped"
	case HotkeyStarting:
		return "starting"
	case HotkeyListening:
		return "listening"
	case HotkeyReplacing:
		return "replacing"
	case HotkeyStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Hotkey captures one global key combination on a dedicated goroutine and
// publishes a bus.HotkeyFired event for every press.
type Hotkey interface {
	// Start launches the capture loop and registers b. Registration
	// failures are reported on the bus; the error is only for a loop that
	// cannot run at all.
	Start(b Binding) error

	// Stop unregisters the binding and waits for the loop to exit
	Stop()

	// SetBinding asks the loop to replace the active binding. The outcome
	// arrives on the bus as an Info or Error event.
	SetBinding(b Binding)

	State() HotkeyState
}

// Clipboard provides clipboard access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

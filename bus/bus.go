// Package bus merges events from every background source into one FIFO
// queue that the controller drains on its own goroutine.
package bus

import (
	"sync"
)

// Type identifies the kind of an Event
type Type int

const (
	Show Type = iota
	HotkeyFired
	Info
	Error
	TrayToggleWindow
	TrayToggleMonitoring
	TrayExit

	// Captured carries new clipboard text from the watcher
	Captured

	// Commands issued by the web UI
	Select
	Copy
	TogglePin
	Remove
	Clear
	Search
	SetHotkey
	SetMonitoring
	SetAutostart
	Export
)

var typeNames = map[Type]string{
	Show:                 "show",
	HotkeyFired:          "hotkey",
	Info:                 "info",
	Error:                "error",
	TrayToggleWindow:     "tray_toggle_window",
	TrayToggleMonitoring: "tray_toggle_monitoring",
	TrayExit:             "tray_exit",
	Captured:             "captured",
	Select:               "select",
	Copy:                 "copy",
	TogglePin:            "toggle_pin",
	Remove:               "remove",
	Clear:                "clear",
	Search:               "search",
	SetHotkey:            "set_hotkey",
	SetMonitoring:        "set_monitoring",
	SetAutostart:         "set_autostart",
	Export:               "export",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is a tagged union; only the fields relevant to Type are set.
type Event struct {
	Type Type

	// Text is the payload of Info, Error, Captured and the text-addressed
	// commands (Copy, TogglePin, Remove, Search, SetHotkey, Export).
	Text string

	// Index is the display row for Select
	Index int

	// Enabled is the flag for SetMonitoring (paused) and SetAutostart
	Enabled bool

	// Err optionally carries the cause of an Error event
	Err error

	// Payload is typed data a source attaches for the controller, such as
	// the outcome of a hotkey registration
	Payload any
}

// InfoEvent builds an Info event
func InfoEvent(text string) Event {
	return Event{Type: Info, Text: text}
}

// ErrorEvent builds an Error event
func ErrorEvent(text string, err error) Event {
	return Event{Type: Error, Text: text, Err: err}
}

// Publisher is implemented by anything events can be enqueued into.
// Producers depend on this rather than on *Bus.
type Publisher interface {
	Publish(e Event) bool
}

// Bus is a multi-producer, single-consumer queue
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
}

// New creates an empty bus
func New() *Bus {
	return &Bus{}
}

// Publish appends e to the queue. It never blocks. It returns false once
// the bus has been closed, in which case the event is discarded.
func (b *Bus) Publish(e Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.queue = append(b.queue, e)
	return true
}

// Drain removes and returns every queued event in arrival order
func (b *Bus) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	events := b.queue
	b.queue = nil
	return events
}

// Close rejects further publishes. Events already queued can still be drained.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

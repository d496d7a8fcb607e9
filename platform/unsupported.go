package platform

import (
	"markestedt/clipkeep/bus"
)

// unsupportedHotkey is the capture source when no backend can run. It
// reports the reason once per start and stays stopped.
type unsupportedHotkey struct {
	pub    bus.Publisher
	reason string
}

func newUnsupportedHotkey(pub bus.Publisher, reason string) *unsupportedHotkey {
	return &unsupportedHotkey{pub: pub, reason: reason}
}

func (h *unsupportedHotkey) Start(Binding) error {
	h.pub.Publish(bus.InfoEvent(h.reason))
	return ErrHotkeyUnsupported
}

func (h *unsupportedHotkey) Stop() {}

func (h *unsupportedHotkey) SetBinding(Binding) {
	h.pub.Publish(bus.ErrorEvent("Hotkey change is not supported on this platform.", ErrHotkeyUnsupported))
}

func (h *unsupportedHotkey) State() HotkeyState {
	return HotkeyStopped
}

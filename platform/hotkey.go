package platform

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"markestedt/clipkeep/bus"
)

// stopTimeout bounds how long Stop waits for a capture loop to exit
const stopTimeout = 2 * time.Second

// registrar binds and unbinds a single combination. Implementations are
// only called from their capture loop.
type registrar interface {
	register(b Binding) error
	unregister()
}

// registerInitial performs the first registration of a freshly started loop
// and returns the binding that is now active.
func registerInitial(r registrar, pub bus.Publisher, b Binding) Binding {
	if err := r.register(b); err != nil {
		slog.Warn("Failed to register hotkey", "hotkey", b.String(), "error", err)
		publishResult(pub, bus.ErrorEvent(
			fmt.Sprintf("Failed to register hotkey: %s (already used?)", b),
			fmt.Errorf("%w: %w", ErrHotkeyTaken, err),
		), b, Binding{})
		return Binding{}
	}
	slog.Info("Hotkey registered", "hotkey", b.String())
	publishResult(pub, bus.InfoEvent("Hotkey ready: "+b.String()), b, b)
	return b
}

// rebind swaps current for next. If next cannot be registered the previous
// binding is restored. It returns the binding that is active afterwards,
// which is zero only when both the new registration and the rollback failed.
func rebind(r registrar, pub bus.Publisher, current, next Binding) Binding {
	r.unregister()

	regErr := r.register(next)
	if regErr == nil {
		slog.Info("Hotkey replaced", "old", current.String(), "new", next.String())
		publishResult(pub, bus.InfoEvent("Hotkey set to: "+next.String()), next, next)
		return next
	}

	if current.IsZero() {
		slog.Warn("Hotkey unavailable", "hotkey", next.String(), "error", regErr)
		publishResult(pub, bus.ErrorEvent(
			fmt.Sprintf("Hotkey '%s' unavailable (already used).", next),
			fmt.Errorf("%w: %w", ErrHotkeyTaken, regErr),
		), next, Binding{})
		return Binding{}
	}

	if err := r.register(current); err != nil {
		slog.Error("Hotkey rollback failed", "hotkey", current.String(), "error", err)
		publishResult(pub, bus.ErrorEvent(
			"Hotkey registration failed and rollback failed.",
			fmt.Errorf("%w: %s: %v", ErrRollbackFailed, current, err),
		), next, Binding{})
		return Binding{}
	}

	slog.Warn("Hotkey unavailable, kept previous", "hotkey", next.String(), "kept", current.String(), "error", regErr)
	publishResult(pub, bus.ErrorEvent(
		fmt.Sprintf("Hotkey '%s' unavailable (already used). Kept: %s", next, current),
		fmt.Errorf("%w: %w", ErrHotkeyTaken, regErr),
	), next, current)
	return current
}

func publishResult(pub bus.Publisher, e bus.Event, requested, active Binding) {
	e.Payload = HotkeyResult{Requested: requested, Active: active}
	pub.Publish(e)
}

type stateBox struct {
	v atomic.Int32
}

func (s *stateBox) get() HotkeyState  { return HotkeyState(s.v.Load()) }
func (s *stateBox) set(st HotkeyState) { s.v.Store(int32(st)) }

// pendingBinding is a latest-wins mailbox for rebind requests
type pendingBinding struct {
	mu  sync.Mutex
	b   Binding
	set bool
}

func (p *pendingBinding) put(b Binding) {
	p.mu.Lock()
	p.b, p.set = b, true
	p.mu.Unlock()
}

func (p *pendingBinding) take() (Binding, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.b, p.set
	p.b, p.set = Binding{}, false
	return b, ok
}

// grabber is a registrar whose presses arrive on a channel
type grabber interface {
	registrar
	presses() <-chan struct{}
}

// loopHotkey runs a grabber on its own goroutine. Rebind requests and stop
// are delivered to the loop so registration never races with itself.
type loopHotkey struct {
	pub  bus.Publisher
	grab grabber

	state   stateBox
	pending pendingBinding

	mu      sync.Mutex
	running bool
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

func newLoopHotkey(pub bus.Publisher, g grabber) *loopHotkey {
	return &loopHotkey{pub: pub, grab: g}
}

func (h *loopHotkey) Start(b Binding) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}
	h.running = true
	h.state.set(HotkeyStarting)
	h.wake = make(chan struct{}, 1)
	h.stop = make(chan struct{})
	h.done = make(chan struct{})

	ready := make(chan struct{})
	go h.run(b, ready)
	<-ready
	return nil
}

func (h *loopHotkey) run(initial Binding, ready chan<- struct{}) {
	defer close(h.done)

	active := registerInitial(h.grab, h.pub, initial)
	h.state.set(HotkeyListening)
	close(ready)

	for {
		select {
		case <-h.stop:
			h.state.set(HotkeyStopping)
			h.grab.unregister()
			h.state.set(HotkeyStopped)
			return

		case <-h.wake:
			next, ok := h.pending.take()
			if !ok {
				continue
			}
			h.state.set(HotkeyReplacing)
			active = rebind(h.grab, h.pub, active, next)
			h.state.set(HotkeyListening)

		case <-h.grab.presses():
			h.pub.Publish(bus.Event{Type: bus.HotkeyFired})
		}
	}
}

func (h *loopHotkey) SetBinding(b Binding) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		h.pub.Publish(bus.ErrorEvent("Hotkey listener is not running.", nil))
		return
	}
	h.pending.put(b)
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *loopHotkey) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false
	close(h.stop)
	select {
	case <-h.done:
	case <-time.After(stopTimeout):
		slog.Warn("Hotkey loop did not stop in time")
	}
}

func (h *loopHotkey) State() HotkeyState {
	return h.state.get()
}

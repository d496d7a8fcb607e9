//go:build windows

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"markestedt/clipkeep/bus"
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	registerHotKey    = user32.NewProc("RegisterHotKey")
	unregisterHotKey  = user32.NewProc("UnregisterHotKey")
	getMessage        = user32.NewProc("GetMessageW")
	peekMessage       = user32.NewProc("PeekMessageW")
	postThreadMessage = user32.NewProc("PostThreadMessageW")
)

const (
	wmQuit      = 0x0012
	wmHotkey    = 0x0312
	wmUser      = 0x0400
	wmApp       = 0x8000
	wmAppRebind = wmApp + 1
	pmNoRemove  = 0x0000
)

const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000
)

// hotkeyID identifies our registration in WM_HOTKEY messages
const hotkeyID = 1

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// WindowsHotkey registers a thread-level hotkey with RegisterHotKey and
// pumps the thread message queue. Rebind and quit requests are posted to
// the same queue, so every registration call happens on the loop thread.
type WindowsHotkey struct {
	pub bus.Publisher

	state   stateBox
	pending pendingBinding

	mu       sync.Mutex
	running  bool
	threadID atomic.Uint32
	done     chan struct{}

	registered bool

	loop         func(initial Binding, ready chan<- struct{})
	startTimeout time.Duration
}

// NewHotkey creates a new Windows hotkey source
func NewHotkey(pub bus.Publisher) Hotkey {
	h := &WindowsHotkey{pub: pub, startTimeout: stopTimeout}
	h.loop = h.run
	return h
}

// Start launches the message loop and registers b
func (h *WindowsHotkey) Start(b Binding) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}
	h.running = true
	h.state.set(HotkeyStarting)
	h.done = make(chan struct{})

	ready := make(chan struct{})
	go h.loop(b, ready)

	select {
	case <-ready:
	case <-time.After(h.startTimeout):
		h.running = false
		h.state.set(HotkeyStopped)
		go h.abandon(ready)
		return fmt.Errorf("hotkey message loop did not start")
	}
	return nil
}

// abandon quits a loop that came up after Start gave up on it
func (h *WindowsHotkey) abandon(ready <-chan struct{}) {
	<-ready
	if err := h.post(wmQuit); err != nil {
		slog.Warn("Failed to post quit to late hotkey loop", "error", err)
	}
}

func (h *WindowsHotkey) run(initial Binding, ready chan<- struct{}) {
	// RegisterHotKey with a NULL window binds to the calling thread's queue
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	var m msg

	// Force creation of the thread message queue before anyone posts to it
	peekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, wmUser, wmUser, pmNoRemove)
	h.threadID.Store(windows.GetCurrentThreadId())

	active := registerInitial(h, h.pub, initial)
	h.state.set(HotkeyListening)
	close(ready)

	for {
		r, _, err := getMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) == -1 {
			slog.Error("GetMessage failed", "error", err)
			break
		}
		if r == 0 {
			// WM_QUIT
			break
		}

		switch m.message {
		case wmHotkey:
			if m.wParam == hotkeyID {
				h.pub.Publish(bus.Event{Type: bus.HotkeyFired})
			}

		case wmAppRebind:
			next, ok := h.pending.take()
			if !ok {
				continue
			}
			h.state.set(HotkeyReplacing)
			active = rebind(h, h.pub, active, next)
			h.state.set(HotkeyListening)
		}
	}

	h.state.set(HotkeyStopping)
	h.unregister()
	h.state.set(HotkeyStopped)
}

// SetBinding posts a rebind request to the loop thread
func (h *WindowsHotkey) SetBinding(b Binding) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		h.pub.Publish(bus.ErrorEvent("Hotkey listener is not running.", nil))
		return
	}
	h.pending.put(b)
	if err := h.post(wmAppRebind); err != nil {
		h.pub.Publish(bus.ErrorEvent(fmt.Sprintf("Failed to request hotkey update: %v", err), err))
	}
}

// Stop posts WM_QUIT and waits for the loop to unregister and exit
func (h *WindowsHotkey) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false

	if err := h.post(wmQuit); err != nil {
		slog.Warn("Failed to post quit to hotkey loop", "error", err)
		return
	}
	select {
	case <-h.done:
	case <-time.After(stopTimeout):
		slog.Warn("Hotkey loop did not stop in time")
	}
}

func (h *WindowsHotkey) State() HotkeyState {
	return h.state.get()
}

func (h *WindowsHotkey) post(message uint32) error {
	r, _, err := postThreadMessage.Call(uintptr(h.threadID.Load()), uintptr(message), 0, 0)
	if r == 0 {
		return fmt.Errorf("PostThreadMessage failed: %w", err)
	}
	return nil
}

func (h *WindowsHotkey) register(b Binding) error {
	vk, err := VKCode(b.Key)
	if err != nil {
		return err
	}

	mods := uintptr(modNoRepeat)
	if b.Ctrl {
		mods |= modControl
	}
	if b.Alt {
		mods |= modAlt
	}
	if b.Shift {
		mods |= modShift
	}
	if b.Meta {
		mods |= modWin
	}

	r, _, err := registerHotKey.Call(0, hotkeyID, mods, uintptr(vk))
	if r == 0 {
		return fmt.Errorf("RegisterHotKey %s failed: %w", b, err)
	}
	h.registered = true
	return nil
}

func (h *WindowsHotkey) unregister() {
	if !h.registered {
		return
	}
	unregisterHotKey.Call(0, hotkeyID)
	h.registered = false
}

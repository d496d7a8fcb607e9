//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/keybind"
	"github.com/jezek/xgbutil/xevent"

	"markestedt/clipkeep/bus"
)

// NewHotkey connects to the X server named by DISPLAY. Without one (a
// headless or pure Wayland session) the source reports that and stays
// stopped.
func NewHotkey(pub bus.Publisher) Hotkey {
	xu, err := xgbutil.NewConn()
	if err != nil {
		slog.Warn("X11 display unavailable, global hotkey disabled", "error", err)
		return newUnsupportedHotkey(pub, "Global hotkey needs an X11 display; use the tray or relaunch to show the window.")
	}
	keybind.Initialize(xu)

	g := &x11Grabber{xu: xu, root: xu.RootWin(), pressCh: make(chan struct{}, 1)}
	xevent.KeyPressFun(g.keyPress).Connect(xu, g.root)
	go xevent.Main(xu)
	return newLoopHotkey(pub, g)
}

// x11Grabber holds a passive grab on the root window. Key presses are
// dispatched on the xevent goroutine, so the grabbed keycodes are guarded.
type x11Grabber struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	pressCh chan struct{}

	mu    sync.Mutex
	mods  uint16
	codes []xproto.Keycode
}

func (g *x11Grabber) register(b Binding) error {
	combo, err := x11Combo(b)
	if err != nil {
		return err
	}
	mods, codes, err := keybind.ParseString(g.xu, combo)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnknownKey, b, err)
	}

	for i, kc := range codes {
		if err := keybind.GrabChecked(g.xu, g.root, mods, kc); err != nil {
			for _, done := range codes[:i] {
				keybind.Ungrab(g.xu, g.root, mods, done)
			}
			return fmt.Errorf("%w: %s: %v", ErrHotkeyTaken, b, err)
		}
	}

	g.mu.Lock()
	g.mods, g.codes = mods, codes
	g.mu.Unlock()
	return nil
}

func (g *x11Grabber) unregister() {
	g.mu.Lock()
	mods, codes := g.mods, g.codes
	g.mods, g.codes = 0, nil
	g.mu.Unlock()

	for _, kc := range codes {
		keybind.Ungrab(g.xu, g.root, mods, kc)
	}
}

func (g *x11Grabber) keyPress(_ *xgbutil.XUtil, ev xevent.KeyPressEvent) {
	g.mu.Lock()
	grabbed := false
	for _, kc := range g.codes {
		if kc == ev.Detail {
			grabbed = true
			break
		}
	}
	g.mu.Unlock()
	if !grabbed {
		return
	}

	select {
	case g.pressCh <- struct{}{}:
	default:
	}
}

func (g *x11Grabber) presses() <-chan struct{} {
	return g.pressCh
}

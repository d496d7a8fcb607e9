package systray

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"markestedt/clipkeep/bus"
)

const stopTimeout = 2 * time.Second

// Manager owns the tray icon and turns menu clicks into bus events
type Manager struct {
	pub      bus.Publisher
	iconData []byte

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	exited  chan struct{}
}

// NewManager creates a new tray manager
func NewManager(pub bus.Publisher) *Manager {
	return &Manager{
		pub:      pub,
		iconData: Icon(),
	}
}

// Start launches the tray loop on its own OS thread. It reports whether a
// tray is available; without one the window is reachable only through the
// hotkey, the web UI or a second launch.
func (m *Manager) Start() bool {
	if runtime.GOOS == "darwin" {
		// The macOS status bar must run on the main thread, which the
		// controller owns
		m.pub.Publish(bus.InfoEvent("Tray icon is not available on macOS."))
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return true
	}
	m.running = true
	m.quit = make(chan struct{})
	m.exited = make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(m.exited)
		systray.Run(m.onReady, m.onExit)
	}()
	return true
}

// Stop removes the tray icon and waits for its loop to exit
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false

	close(m.quit)
	systray.Quit()
	select {
	case <-m.exited:
	case <-time.After(stopTimeout):
		slog.Warn("System tray did not exit in time")
	}
}

// onReady is called when the systray is ready
func (m *Manager) onReady() {
	if len(m.iconData) > 0 {
		systray.SetIcon(m.iconData)
	}
	systray.SetTitle("clipkeep")
	systray.SetTooltip("clipkeep - Clipboard history")

	mToggle := systray.AddMenuItem("Show / Hide", "Show or hide the history window")
	mMonitor := systray.AddMenuItem("Pause / Resume monitoring", "Stop or restart clipboard capture")
	systray.AddSeparator()
	mExit := systray.AddMenuItem("Exit", "Exit clipkeep")

	go dispatch(m.pub, m.quit, mToggle.ClickedCh, mMonitor.ClickedCh, mExit.ClickedCh)
}

// onExit is called when the systray is exiting
func (m *Manager) onExit() {
	slog.Info("System tray exited")
}

// dispatch forwards clicks until quit is closed
func dispatch(pub bus.Publisher, quit <-chan struct{}, toggle, monitor, exit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-toggle:
			pub.Publish(bus.Event{Type: bus.TrayToggleWindow})
		case <-monitor:
			pub.Publish(bus.Event{Type: bus.TrayToggleMonitoring})
		case <-exit:
			slog.Info("User requested exit from system tray")
			pub.Publish(bus.Event{Type: bus.TrayExit})
		}
	}
}

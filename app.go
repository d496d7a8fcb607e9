package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"markestedt/clipkeep/autostart"
	"markestedt/clipkeep/bus"
	"markestedt/clipkeep/config"
	"markestedt/clipkeep/history"
	"markestedt/clipkeep/platform"
	"markestedt/clipkeep/storage"
	"markestedt/clipkeep/web"
)

const (
	// DefaultDrainInterval is the controller's bus drain cadence
	DefaultDrainInterval = 50 * time.Millisecond

	statusClear      = 2500 * time.Millisecond
	errorStatusClear = 4500 * time.Millisecond
)

// Renderer displays the history and the status line. Visible reports
// whether the user can currently see it; closing the window outside the
// controller counts as hidden.
type Renderer interface {
	Render(v web.View)
	SetStatus(text string, clearAfter time.Duration)
	Show()
	Hide()
	Visible() bool
	Close() error
}

// Tray is the tray icon source
type Tray interface {
	Start() bool
	Stop()
}

// ClipboardWatcher polls the clipboard on its own goroutine
type ClipboardWatcher interface {
	Run(ctx context.Context)
	SetPaused(paused bool)
}

// Deps is everything the controller talks to. It is built once in main.
type Deps struct {
	Config    *config.Config
	Bus       *bus.Bus
	History   *history.History
	Store     storage.Store
	Clipboard platform.Clipboard
	Hotkey    platform.Hotkey
	Watcher   ClipboardWatcher
	Tray      Tray
	Arbiter   io.Closer
	Renderer  Renderer
	Autostart autostart.Manager

	StartHidden   bool
	DrainInterval time.Duration
}

// App is the single owner of the history. Every event from every source is
// handled here, one at a time, on the controller goroutine.
type App struct {
	Deps

	query    string
	selected string
	display  []history.Entry

	// binding is what the capture source last confirmed, or the configured
	// binding while nothing is registered
	binding         platform.Binding
	hotkeyAvailable bool
	trayAvailable   bool
	autostartOn     bool

	exiting bool
}

// NewApp creates the controller
func NewApp(deps Deps) *App {
	if deps.DrainInterval <= 0 {
		deps.DrainInterval = DefaultDrainInterval
	}
	return &App{Deps: deps}
}

// Run loads the history, starts every source and processes events until
// ctx is done or the user exits. Shutdown happens before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.restore()
	a.startSources()

	a.refresh()
	if !a.StartHidden {
		a.show()
	}

	slog.Info("clipkeep started",
		"hotkey", a.binding.String(),
		"entries", a.History.Len(),
		"paused", a.Config.MonitoringPaused,
		"hidden", a.StartHidden,
	)

	g, gctx := errgroup.WithContext(ctx)
	watchCtx, stopWatcher := context.WithCancel(gctx)
	defer stopWatcher()

	g.Go(func() error {
		a.Watcher.Run(watchCtx)
		return nil
	})

	g.Go(func() error {
		defer stopWatcher()
		a.loop(gctx)
		a.stopSources()
		return nil
	})

	err := g.Wait()

	// The watcher has exited; nothing can publish any more
	a.Bus.Close()
	a.save()
	if cerr := a.Store.Close(); cerr != nil {
		slog.Warn("Failed to close store", "error", cerr)
	}

	slog.Info("clipkeep stopped")
	return err
}

func (a *App) loop(ctx context.Context) {
	ticker := time.NewTicker(a.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Drain()
			if a.exiting {
				return
			}
		}
	}
}

// Drain handles every queued event in arrival order
func (a *App) Drain() {
	for _, e := range a.Bus.Drain() {
		a.handle(e)
	}
}

func (a *App) restore() {
	entries, err := a.Store.Load()
	if err != nil {
		slog.Warn("Failed to load history", "error", err)
	}
	a.History.Restore(entries)
}

func (a *App) startSources() {
	a.Watcher.SetPaused(a.Config.MonitoringPaused)

	binding, err := a.Config.Hotkey.Binding()
	if err != nil {
		slog.Warn("Invalid hotkey in config, using default", "error", err)
		binding, _ = config.DefaultHotkey().Binding()
	}
	a.binding = binding
	a.hotkeyAvailable = true
	if err := a.Hotkey.Start(binding); err != nil {
		a.hotkeyAvailable = false
		if !errors.Is(err, platform.ErrHotkeyUnsupported) {
			slog.Error("Failed to start hotkey listener", "error", err)
		}
	}

	a.trayAvailable = a.Tray.Start()

	on, err := a.Autostart.Enabled()
	if err != nil {
		slog.Debug("Failed to read autostart state", "error", err)
	}
	a.autostartOn = on
}

// stopSources stops every producer, in order, before the final save
func (a *App) stopSources() {
	a.Hotkey.Stop()
	a.Tray.Stop()
	if err := a.Arbiter.Close(); err != nil {
		slog.Debug("Failed to close single-instance server", "error", err)
	}
	if err := a.Renderer.Close(); err != nil {
		slog.Debug("Failed to close renderer", "error", err)
	}
}

func (a *App) handle(e bus.Event) {
	slog.Debug("Event", "type", e.Type.String())

	switch e.Type {
	case bus.Show:
		a.show()

	case bus.HotkeyFired, bus.TrayToggleWindow:
		a.toggle()

	case bus.Info:
		slog.Info("Status", "text", e.Text)
		a.applyHotkeyResult(e)
		a.status(e.Text, statusClear)

	case bus.Error:
		a.handleError(e)

	case bus.TrayToggleMonitoring:
		a.setMonitoring(!a.Config.MonitoringPaused)

	case bus.SetMonitoring:
		a.setMonitoring(e.Enabled)

	case bus.TrayExit:
		a.exiting = true

	case bus.Captured:
		if a.History.Capture(e.Text) {
			a.changed()
		}

	case bus.Select:
		a.selectIndex(e.Index)

	case bus.Copy:
		a.copyEntry(e.Text)

	case bus.TogglePin:
		a.togglePin(e.Text)

	case bus.Remove:
		a.remove(e.Text)

	case bus.Clear:
		a.clear()

	case bus.Search:
		a.search(e.Text)

	case bus.SetHotkey:
		a.setHotkey(e.Text)

	case bus.SetAutostart:
		a.setAutostart(e.Enabled)

	case bus.Export:
		a.export(e.Text)

	default:
		slog.Warn("Unknown event", "type", int(e.Type))
	}
}

func (a *App) handleError(e bus.Event) {
	slog.Warn("Status", "text", e.Text, "error", e.Err)

	if errors.Is(e.Err, platform.ErrHotkeyUnsupported) {
		a.hotkeyAvailable = false
		a.refresh()
	}
	a.applyHotkeyResult(e)
	a.status(e.Text, errorStatusClear)
}

// applyHotkeyResult adopts the binding the capture source reports as
// registered. Only a registered binding is persisted; when nothing is
// registered the setting keeps the last one that worked.
func (a *App) applyHotkeyResult(e bus.Event) {
	res, ok := e.Payload.(platform.HotkeyResult)
	if !ok {
		return
	}

	if res.Active.IsZero() {
		a.hotkeyAvailable = false
	} else {
		a.hotkeyAvailable = true
		a.binding = res.Active
		if config.HotkeyFromBinding(res.Active) != a.Config.Hotkey {
			a.saveHotkey()
		}
	}
	a.refresh()
}

func (a *App) show() {
	a.Renderer.Show()
}

func (a *App) toggle() {
	if a.Renderer.Visible() {
		a.Renderer.Hide()
	} else {
		a.Renderer.Show()
	}
}

func (a *App) status(text string, clearAfter time.Duration) {
	a.Renderer.SetStatus(text, clearAfter)
}

// changed re-renders and persists after a history mutation
func (a *App) changed() {
	a.refresh()
	a.save()
}

func (a *App) save() {
	if err := a.Store.Save(a.History.Entries()); err != nil {
		slog.Warn("Failed to save history", "error", err)
	}
}

// refresh rebuilds the display list for the current query and renders it
func (a *App) refresh() {
	seq, err := a.History.Search(a.query)
	if err != nil {
		// The stored query was validated when it was set
		slog.Error("Stored query rejected", "error", err)
		a.query = ""
		seq, _ = a.History.Search("")
	}

	a.display = a.display[:0]
	for e := range seq {
		a.display = append(a.display, e)
	}

	view := web.View{
		Items:            make([]web.Item, len(a.display)),
		Total:            a.History.Len(),
		Query:            a.query,
		Selected:         -1,
		Hotkey:           a.binding.String(),
		HotkeyAvailable:  a.hotkeyAvailable,
		MonitoringPaused: a.Config.MonitoringPaused,
		Autostart:        a.autostartOn,
		TrayAvailable:    a.trayAvailable,
		MaxSearchChars:   a.History.MaxQueryLen(),
	}
	for i, e := range a.display {
		view.Items[i] = web.NewItem(i, e)
		if e.Text == a.selected {
			view.Selected = i
		}
	}
	a.Renderer.Render(view)
}

// target resolves the entry a command acts on: the given text, or the
// current selection when text is empty
func (a *App) target(text string) (string, bool) {
	if text != "" {
		return text, true
	}
	if a.selected != "" {
		return a.selected, true
	}
	a.status("Select an item first.", statusClear)
	return "", false
}

func (a *App) selectIndex(i int) {
	if i < 0 || i >= len(a.display) {
		return
	}
	a.selected = a.display[i].Text
	a.refresh()
}

func (a *App) copyEntry(text string) {
	text, ok := a.target(text)
	if !ok {
		return
	}
	if err := a.Clipboard.Set(text); err != nil {
		slog.Warn("Failed to set clipboard", "error", err)
		a.status(fmt.Sprintf("Copy failed: %v", err), errorStatusClear)
		return
	}
	a.status("Copied back to clipboard!", statusClear)
}

func (a *App) togglePin(text string) {
	text, ok := a.target(text)
	if !ok {
		return
	}
	pinned, found := a.History.TogglePin(text)
	if !found {
		return
	}
	a.changed()
	if pinned {
		a.status("Pinned.", statusClear)
	} else {
		a.status("Unpinned.", statusClear)
	}
}

func (a *App) remove(text string) {
	text, ok := a.target(text)
	if !ok {
		return
	}
	if !a.History.Remove(text) {
		return
	}
	if a.selected == text {
		a.selected = ""
	}
	a.changed()
	a.status("Removed.", statusClear)
}

func (a *App) clear() {
	if a.History.Len() == 0 {
		return
	}
	a.History.Clear()
	a.selected = ""
	a.changed()
	a.status("Cleared.", statusClear)
}

// search applies a new query. Over-long queries are refused and the
// previous query stays in effect.
func (a *App) search(query string) {
	if err := a.History.ValidateQuery(query); err != nil {
		slog.Debug("Search rejected", "error", err)
		a.status(fmt.Sprintf("Search limited to %d characters", a.History.MaxQueryLen()), statusClear)
		a.refresh()
		return
	}
	a.query = query
	a.refresh()
}

func (a *App) setMonitoring(paused bool) {
	a.Config.MonitoringPaused = paused
	a.Watcher.SetPaused(paused)
	a.saveConfig()
	a.refresh()

	if paused {
		a.status("Clipboard monitoring paused.", statusClear)
	} else {
		a.status("Clipboard monitoring resumed.", statusClear)
	}
}

// setHotkey asks the capture source for a new binding. The outcome arrives
// later as an Info or Error event carrying a platform.HotkeyResult.
func (a *App) setHotkey(combo string) {
	next, err := config.ParseHotkey(combo)
	if err != nil {
		a.status(fmt.Sprintf("Invalid hotkey: %v", err), errorStatusClear)
		return
	}

	if a.Hotkey.State() == platform.HotkeyStopped {
		// Nothing can register it now; keep it for the next start
		a.binding = next
		a.hotkeyAvailable = false
		a.saveHotkey()
		a.refresh()
	}
	a.Hotkey.SetBinding(next)
}

func (a *App) setAutostart(enable bool) {
	if err := a.Autostart.Set(enable); err != nil {
		slog.Warn("Failed to change autostart", "enable", enable, "error", err)
		switch {
		case errors.Is(err, autostart.ErrUnsupported):
			a.status("Run at login is not supported on this platform.", errorStatusClear)
		case enable:
			a.status(fmt.Sprintf("Failed to enable startup: %v", err), errorStatusClear)
		default:
			a.status(fmt.Sprintf("Failed to disable startup: %v", err), errorStatusClear)
		}
		a.refresh()
		return
	}

	a.autostartOn = enable
	a.refresh()
	if enable {
		a.status("Enabled: Run at startup.", statusClear)
	} else {
		a.status("Disabled: Run at startup.", statusClear)
	}
}

func (a *App) export(path string) {
	if err := storage.Export(path, a.History.Entries()); err != nil {
		slog.Warn("Export failed", "path", path, "error", err)
		a.status(fmt.Sprintf("Save failed: %v", err), errorStatusClear)
		return
	}
	slog.Info("History exported", "path", path, "entries", a.History.Len())
	a.status("Saved.", statusClear)
}

func (a *App) saveHotkey() {
	a.Config.Hotkey = config.HotkeyFromBinding(a.binding)
	a.saveConfig()
}

func (a *App) saveConfig() {
	if err := a.Config.Save(); err != nil {
		slog.Warn("Failed to save settings", "error", err)
	}
}

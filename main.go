// clipkeep: clipboard history that lives in the background.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"markestedt/clipkeep/autostart"
	"markestedt/clipkeep/bus"
	"markestedt/clipkeep/config"
	"markestedt/clipkeep/history"
	"markestedt/clipkeep/instance"
	"markestedt/clipkeep/platform"
	"markestedt/clipkeep/storage"
	"markestedt/clipkeep/systray"
	"markestedt/clipkeep/watcher"
	"markestedt/clipkeep/web"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "clipkeep",
		Short: "Clipboard history in the background",
		Long: `clipkeep records everything copied to the clipboard, keeps pinned
entries at the top and brings up a searchable list on a global hotkey.

Only one copy runs per session. Launching it again shows the running
instance's window instead.

Settings live in config.toml under the user config directory (or --config).
Logging flags can also be set via CLIPKEEP_<FLAG> env vars.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:          func(_ *cobra.Command, _ []string) error { return run(v) },
	}

	addConfigFlag(root)
	addLoggingFlags(root)
	addStartHiddenFlags(root)
	normalizeFlags(root)

	root.AddCommand(
		newExportCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipkeep %s\n", Version)
		},
	}
}

func run(v *viper.Viper) error {
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return fail(err)
	}

	logFile, err := setupLogging(v, cfg.LogPath())
	if err != nil {
		slog.Warn("Logging to stderr only", "error", err)
	}
	defer logFile.Close()

	slog.Info("Configuration loaded", "path", cfg.Path(), "data_dir", cfg.ResolveDataDir())

	events := bus.New()

	owner, err := instance.Listen(cfg.Instance.Addr, events)
	if errors.Is(err, instance.ErrAlreadyRunning) {
		reply, nerr := instance.Notify(cfg.Instance.Addr, instance.DialTimeout)
		if nerr != nil {
			slog.Warn("Another instance holds the address but did not answer", "addr", cfg.Instance.Addr, "error", nerr)
		} else {
			slog.Info("Asked running instance to show its window", "addr", cfg.Instance.Addr, "reply", reply)
		}
		return nil
	}
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.History.Backend, cfg.HistoryPath(), cfg.DatabasePath())
	if err != nil {
		owner.Close()
		slog.Error("Failed to open history store", "backend", cfg.History.Backend, "error", err)
		return err
	}

	clip, err := platform.NewClipboard()
	if err != nil {
		slog.Warn("Clipboard unavailable, capture and copy are disabled", "error", err)
	}

	app := NewApp(Deps{
		Config:      cfg,
		Bus:         events,
		History:     history.New(cfg.History.MaxItems, cfg.History.MaxSearchChars),
		Store:       store,
		Clipboard:   clip,
		Hotkey:      platform.NewHotkey(events),
		Watcher:     watcher.New(clip, events, time.Duration(cfg.Clipboard.PollMS)*time.Millisecond),
		Tray:        systray.NewManager(events),
		Arbiter:     owner,
		Renderer:    newRenderer(cfg, events),
		Autostart:   newAutostart(),
		StartHidden: startHidden(v),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return app.Run(ctx)
}

// newRenderer starts the web UI, or falls back to logging the view when it
// is disabled or its port is taken
func newRenderer(cfg *config.Config, pub bus.Publisher) Renderer {
	if !cfg.Web.Enabled {
		return logRenderer{}
	}
	srv := web.NewServer(pub, cfg.Web.Port, cfg.ExportDir())
	if err := srv.Start(); err != nil {
		slog.Error("Web UI disabled", "port", cfg.Web.Port, "error", err)
		return logRenderer{}
	}
	return srv
}

func newAutostart() autostart.Manager {
	m, err := autostart.New()
	if err != nil {
		slog.Warn("Run at login unavailable", "error", err)
		return noAutostart{err: err}
	}
	return m
}

// logRenderer is used when there is no window to draw into
type logRenderer struct{}

func (logRenderer) Render(v web.View) {
	slog.Debug("History", "entries", v.Total, "shown", len(v.Items), "query", v.Query)
}

func (logRenderer) SetStatus(text string, _ time.Duration) {}
func (logRenderer) Show()                                  {}
func (logRenderer) Hide()                                  {}
func (logRenderer) Visible() bool                          { return false }
func (logRenderer) Close() error                           { return nil }

// noAutostart reports the reason the platform manager could not be built
type noAutostart struct {
	err error
}

func (n noAutostart) Enabled() (bool, error) { return false, n.err }
func (n noAutostart) Set(bool) error         { return n.err }

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"markestedt/clipkeep/config"
	"markestedt/clipkeep/history"
	"markestedt/clipkeep/storage"
)

func newExportCmd() *cobra.Command {
	v := viper.New()

	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write the saved history to a JSON file",
		Long: `Reads the saved history (JSON file or SQLite database, per the
[history] backend setting) and writes it to <path> in the history file
format. Safe to run while clipkeep is running; it sees the last save.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runExport(v, args[0]) },
	}
}

func runExport(v *viper.Viper, path string) error {
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return fail(err)
	}
	logFile, err := setupLogging(v, "")
	if err != nil {
		return fail(err)
	}
	defer logFile.Close()

	store, err := storage.Open(cfg.History.Backend, cfg.HistoryPath(), cfg.DatabasePath())
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	entries, err := store.Load()
	if err != nil {
		return fail(fmt.Errorf("failed to load history: %w", err))
	}

	// Same validation as a normal start
	h := history.New(cfg.History.MaxItems, cfg.History.MaxSearchChars)
	h.Restore(entries)

	if err := storage.Export(path, h.Entries()); err != nil {
		return fail(err)
	}
	slog.Info("History exported", "path", path, "entries", h.Len(), "pinned", h.PinnedCount())
	return nil
}

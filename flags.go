package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"markestedt/clipkeep/logging"
)

// startHiddenFlags all mean "launched in the background, don't show the
// window". --startup is what the login entry passes.
var startHiddenFlags = []string{"startup", "start-hidden", "hidden", "minimized"}

// bindViper wires a command's flags into v with the CLIPKEEP_* env var prefix.
//
// Precedence (lowest → highest): defaults → CLIPKEEP_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix("CLIPKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "path to config.toml (default: user config dir)")
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-format", "auto", "log format: auto|text|json")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug|info|warn|error")
}

func addStartHiddenFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("startup", false, "start hidden (used by the login entry)")
	f.Bool("start-hidden", false, "start hidden")
	f.Bool("hidden", false, "start hidden")
	f.Bool("minimized", false, "start hidden")
	for _, name := range startHiddenFlags[2:] {
		_ = f.MarkHidden(name)
	}
}

// normalizeFlags makes flag names case-insensitive, so --Startup works the
// same as --startup
func normalizeFlags(cmd *cobra.Command) {
	cmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})
}

func startHidden(v *viper.Viper) bool {
	for _, name := range startHiddenFlags {
		if v.GetBool(name) {
			return true
		}
	}
	return false
}

// setupLogging reads logging flags from viper and configures slog. The
// returned closer is always usable.
func setupLogging(v *viper.Viper, logFile string) (io.Closer, error) {
	return logging.Setup(
		logging.ParseFormat(v.GetString("log-format")),
		logging.ParseLevel(v.GetString("log-level")),
		logFile,
	)
}

// fail prints err for commands that run before logging is configured
func fail(err error) error {
	fmt.Fprintf(os.Stderr, "clipkeep: %v\n", err)
	return err
}

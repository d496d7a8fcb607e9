package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"markestedt/clipkeep/platform"
	"markestedt/clipkeep/storage"
)

const appName = "clipkeep"

type Config struct {
	MonitoringPaused bool   `toml:"monitoring_paused"`
	DataDir          string `toml:"data_dir"`

	Hotkey    HotkeyConfig    `toml:"hotkey"`
	History   HistoryConfig   `toml:"history"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Instance  InstanceConfig  `toml:"instance"`
	Web       WebConfig       `toml:"web"`

	path string
}

type HotkeyConfig struct {
	Ctrl  bool   `toml:"ctrl"`
	Alt   bool   `toml:"alt"`
	Shift bool   `toml:"shift"`
	Meta  bool   `toml:"meta"`
	Key   string `toml:"key"`
}

type HistoryConfig struct {
	MaxItems       int    `toml:"max_items"`
	MaxSearchChars int    `toml:"max_search_chars"`
	Backend        string `toml:"backend"`
}

type ClipboardConfig struct {
	PollMS int `toml:"poll_ms"`
}

type InstanceConfig struct {
	Addr string `toml:"addr"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// DefaultHotkey is Ctrl+Alt+V, or Shift+Cmd+V on macOS
func DefaultHotkey() HotkeyConfig {
	if runtime.GOOS == "darwin" {
		return HotkeyConfig{Shift: true, Meta: true, Key: "V"}
	}
	return HotkeyConfig{Ctrl: true, Alt: true, Key: "V"}
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		Hotkey: DefaultHotkey(),
		History: HistoryConfig{
			MaxItems:       50,
			MaxSearchChars: 200,
			Backend:        storage.BackendJSON,
		},
		Clipboard: ClipboardConfig{
			PollMS: 500,
		},
		Instance: InstanceConfig{
			Addr: "127.0.0.1:50677",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    50678,
		},
	}
}

// Dir returns the per-user configuration directory
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// DefaultPath returns the path to the configuration file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the TOML file at path, or from
// DefaultPath when path is empty. If the file doesn't exist, it creates it
// with default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := defaultConfig()
	cfg.path = path

	// If config doesn't exist, create it with defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize replaces out-of-range values with defaults
func (c *Config) normalize() {
	def := defaultConfig()
	if c.History.MaxItems <= 0 {
		c.History.MaxItems = def.History.MaxItems
	}
	if c.History.MaxSearchChars <= 0 {
		c.History.MaxSearchChars = def.History.MaxSearchChars
	}
	switch strings.ToLower(c.History.Backend) {
	case storage.BackendSQLite:
		c.History.Backend = storage.BackendSQLite
	default:
		c.History.Backend = storage.BackendJSON
	}
	if c.Clipboard.PollMS <= 0 {
		c.Clipboard.PollMS = def.Clipboard.PollMS
	}
	if c.Instance.Addr == "" {
		c.Instance.Addr = def.Instance.Addr
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		c.Web.Port = def.Web.Port
	}
}

// Path returns the file this configuration is loaded from and saved to
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, c.path)
}

// ResolveDataDir returns the directory for history, database and logs.
// An empty data_dir means a "data" folder next to the config file.
func (c *Config) ResolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(filepath.Dir(c.path), "data")
}

// HistoryPath returns the JSON history file
func (c *Config) HistoryPath() string {
	return filepath.Join(c.ResolveDataDir(), "clipboard_history.json")
}

// DatabasePath returns the SQLite history database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ResolveDataDir(), "clipkeep.db")
}

// LogPath returns the log file written alongside the data
func (c *Config) LogPath() string {
	return filepath.Join(c.ResolveDataDir(), "clipkeep.log")
}

// ExportDir is where exports requested from the web UI are written
func (c *Config) ExportDir() string {
	return filepath.Join(c.ResolveDataDir(), "exports")
}

// Binding converts the stored hotkey to a platform binding
func (h HotkeyConfig) Binding() (platform.Binding, error) {
	key, err := platform.NormalizeKey(h.Key)
	if err != nil {
		return platform.Binding{}, err
	}
	if !h.Ctrl && !h.Alt && !h.Shift && !h.Meta {
		return platform.Binding{}, fmt.Errorf("hotkey %q needs at least one modifier", h.Key)
	}
	return platform.Binding{Ctrl: h.Ctrl, Alt: h.Alt, Shift: h.Shift, Meta: h.Meta, Key: key}, nil
}

// HotkeyFromBinding is the inverse of HotkeyConfig.Binding
func HotkeyFromBinding(b platform.Binding) HotkeyConfig {
	return HotkeyConfig{Ctrl: b.Ctrl, Alt: b.Alt, Shift: b.Shift, Meta: b.Meta, Key: b.Key}
}

// ParseHotkey parses a hotkey combo string like "ctrl+alt+v" or "shift+cmd+f5".
// Exactly one non-modifier key is required, and it must come last.
func ParseHotkey(combo string) (platform.Binding, error) {
	var b platform.Binding
	parts := strings.Split(strings.TrimSpace(combo), "+")

	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "" {
		return b, fmt.Errorf("empty hotkey combo")
	}

	for i, part := range parts {
		part = strings.TrimSpace(part)

		switch strings.ToLower(part) {
		case "ctrl", "control":
			b.Ctrl = true
			continue
		case "alt", "option", "opt":
			b.Alt = true
			continue
		case "shift":
			b.Shift = true
			continue
		case "meta", "win", "windows", "cmd", "command", "super":
			b.Meta = true
			continue
		}

		// Not a modifier: it must be the last part
		if i != len(parts)-1 {
			return b, fmt.Errorf("unknown modifier: %s", part)
		}
		key, err := platform.NormalizeKey(part)
		if err != nil {
			return b, err
		}
		b.Key = key
	}

	if b.Key == "" {
		return b, fmt.Errorf("no key specified in combo %q", combo)
	}
	if !b.Ctrl && !b.Alt && !b.Shift && !b.Meta {
		return b, fmt.Errorf("no modifiers specified in combo %q", combo)
	}
	return b, nil
}

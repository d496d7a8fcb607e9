//go:build linux

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

// New returns the XDG autostart manager for the running executable
func New() (Manager, error) {
	exe, err := executable()
	if err != nil {
		return nil, err
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	return &desktopEntry{dir: filepath.Join(base, "autostart"), exe: exe}, nil
}

package autostart

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// desktopEntry manages an XDG autostart .desktop file
type desktopEntry struct {
	dir string
	exe string
}

func (d *desktopEntry) path() string {
	return filepath.Join(d.dir, AppName+".desktop")
}

func (d *desktopEntry) content() string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=" + AppName + "\n")
	b.WriteString("Comment=Clipboard history\n")
	b.WriteString("Exec=" + Command(d.exe) + "\n")
	b.WriteString("Terminal=false\n")
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return b.String()
}

func (d *desktopEntry) Enabled() (bool, error) {
	_, err := os.Stat(d.path())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *desktopEntry) Set(enable bool) error {
	if !enable {
		err := os.Remove(d.path())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove autostart entry: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}
	if err := os.WriteFile(d.path(), []byte(d.content()), 0644); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}
	return nil
}

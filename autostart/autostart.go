// Package autostart registers clipkeep to run when the user logs in.
// Login launches pass --startup so the window starts hidden.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AppName is the name the login entry is registered under
const AppName = "clipkeep"

// StartupFlag is appended to the registered command line
const StartupFlag = "--startup"

// ErrUnsupported is returned on platforms without a login-item mechanism
var ErrUnsupported = errors.New("run at login is not supported on this platform")

// Manager toggles the login entry for the running executable
type Manager interface {
	Enabled() (bool, error)
	Set(enable bool) error
}

// Command returns the quoted command line registered for exe
func Command(exe string) string {
	return fmt.Sprintf("%q %s", exe, StartupFlag)
}

// executable returns the absolute path of the running binary
func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

package platform

import (
	"fmt"

	"golang.design/x/clipboard"
)

// systemClipboard reads and writes plain text through golang.design/x/clipboard
type systemClipboard struct{}

// NewClipboard initialises the system clipboard. When no clipboard is
// available (headless session, missing display server) it returns a no-op
// clipboard together with the init error so the caller can report it.
func NewClipboard() (Clipboard, error) {
	if err := clipboard.Init(); err != nil {
		return headlessClipboard{}, fmt.Errorf("clipboard unavailable: %w", err)
	}
	return &systemClipboard{}, nil
}

// Get returns the clipboard text, or "" when it holds no text
func (c *systemClipboard) Get() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// Set replaces the clipboard contents with text
func (c *systemClipboard) Set(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// headlessClipboard never has content and discards writes
type headlessClipboard struct{}

func (headlessClipboard) Get() (string, error) { return "", nil }
func (headlessClipboard) Set(string) error     { return nil }

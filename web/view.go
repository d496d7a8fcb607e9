package web

import (
	"strings"

	"markestedt/clipkeep/history"
)

const (
	// PreviewChars bounds the list preview of one entry
	PreviewChars = 2000

	timestampFormat = "2006-01-02 15:04:05"
)

// Item is one display row
type Item struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Preview    string `json:"preview"`
	CapturedAt string `json:"capturedAt"`
	Pinned     bool   `json:"pinned"`
}

// View is the complete state the page renders. It is a copy; nothing in it
// refers back to controller memory.
type View struct {
	Items            []Item `json:"items"`
	Total            int    `json:"total"`
	Query            string `json:"query"`
	Selected         int    `json:"selected"`
	Hotkey           string `json:"hotkey"`
	HotkeyAvailable  bool   `json:"hotkeyAvailable"`
	MonitoringPaused bool   `json:"monitoringPaused"`
	Autostart        bool   `json:"autostart"`
	TrayAvailable    bool   `json:"trayAvailable"`
	MaxSearchChars   int    `json:"maxSearchChars"`
}

// NewItem builds the display row for e
func NewItem(index int, e history.Entry) Item {
	return Item{
		Index:      index,
		Text:       e.Text,
		Preview:    Preview(e.Text),
		CapturedAt: e.CapturedAt.Local().Format(timestampFormat),
		Pinned:     e.Pinned,
	}
}

// Preview shortens text to PreviewChars runes on one line
func Preview(text string) string {
	runes := []rune(text)
	truncated := len(runes) > PreviewChars
	if truncated {
		runes = runes[:PreviewChars]
	}
	snippet := strings.ReplaceAll(string(runes), "\n", " ⏎ ")
	if truncated {
		snippet += " …"
	}
	return snippet
}

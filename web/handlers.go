package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"markestedt/clipkeep/bus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

// decode reads a JSON request body into v
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// publish queues e for the controller and acknowledges the request
func (s *Server) publish(w http.ResponseWriter, e bus.Event) {
	if !s.pub.Publish(e) {
		http.Error(w, "Shutting down", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleHistory returns the current view
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	view, status := s.snapshot()
	writeJSON(w, http.StatusOK, struct {
		View
		Status string `json:"status"`
	}{view, status})
}

// handleSelect marks a display row as the selection
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}
	s.publish(w, bus.Event{Type: bus.Select, Index: *req.Index})
}

// handleText serves the commands addressed by entry text. An empty text
// means the current selection.
func (s *Server) handleText(t bus.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.publish(w, bus.Event{Type: t, Text: req.Text})
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.publish(w, bus.Event{Type: bus.Clear})
}

// handleSearch forwards the query as typed; the controller validates it
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.publish(w, bus.Event{Type: bus.Search, Text: req.Query})
}

// handleHotkey requests a new binding, e.g. {"combo": "ctrl+shift+h"}
func (s *Server) handleHotkey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Combo string `json:"combo"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Combo == "" {
		http.Error(w, "combo is required", http.StatusBadRequest)
		return
	}
	s.publish(w, bus.Event{Type: bus.SetHotkey, Text: req.Combo})
}

// handleFlag serves boolean settings such as {"paused": true}
func (s *Server) handleFlag(t bus.Type, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]bool
		if !decode(w, r, &req) {
			return
		}
		value, ok := req[field]
		if !ok {
			http.Error(w, field+" is required", http.StatusBadRequest)
			return
		}
		s.publish(w, bus.Event{Type: t, Enabled: value})
	}
}

// handleExport saves the history under the export directory, e.g.
// {"name": "history.json"}
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	path, ok := exportFile(s.exportDir, req.Name)
	if !ok {
		http.Error(w, "name must be a plain file name", http.StatusBadRequest)
		return
	}
	s.publish(w, bus.Event{Type: bus.Export, Text: path})
}

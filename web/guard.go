package web

import (
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"strings"
)

// guard rejects requests that did not come from a page this process
// served: a foreign Host (DNS rebinding), a foreign Origin, or a POST that
// a cross-site form could send without a preflight
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !loopbackHost(r.Host) {
			http.Error(w, "Forbidden host", http.StatusForbidden)
			return
		}
		if !s.checkOrigin(r) {
			http.Error(w, "Forbidden origin", http.StatusForbidden)
			return
		}
		if r.Method == http.MethodPost && !isJSON(r) {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loopbackHost(hostport string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// exportFile maps a user-chosen file name into dir. Anything that is not a
// plain file name is refused.
func exportFile(dir, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	if strings.ContainsAny(name, `/\:`) || filepath.Base(name) != name || filepath.IsAbs(name) {
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		name += ".json"
	}
	return filepath.Join(dir, name), true
}

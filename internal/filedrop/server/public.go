package server

import (
	"net/http"
	"strings"

	"filedrop/pkg/logger"
)

// PublicHandler serves the files directory read-only. Dotfiles, including
// the chunk staging directory, are never exposed.
func PublicHandler(filesDir string) http.Handler {
	fileServer := http.FileServer(http.Dir(filesDir))
	log := logger.WithField("component", "public")

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if containsHiddenSegment(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})

	return chain(h,
		LoggingMiddleware(log),
		SecurityHeadersMiddleware,
	)
}

// containsHiddenSegment reports whether any path segment starts with a dot.
func containsHiddenSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 0 && seg[0] == '.' {
			return true
		}
	}
	return false
}

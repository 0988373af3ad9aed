// Package ui serves the explorer web client.
package ui

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Handler serves the UI files. Paths that match no file get index.html so
// client-side routes survive a reload; unknown /api/ paths get a 404 and
// methods other than GET and HEAD get a 405.
func Handler() (http.Handler, error) {
	dist, err := DistFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open ui files: %w", err)
	}
	if _, err := fs.Stat(dist, "index.html"); err != nil {
		return nil, fmt.Errorf("ui index.html missing: %w", err)
	}

	files := http.FileServerFS(dist)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "api" || strings.HasPrefix(name, "api/") {
			http.NotFound(w, r)
			return
		}
		if name != "" && name != "." {
			if _, err := fs.Stat(dist, name); err != nil {
				http.ServeFileFS(w, r, dist, "index.html")
				return
			}
		}
		files.ServeHTTP(w, r)
	}), nil
}

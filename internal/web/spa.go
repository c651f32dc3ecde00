package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SPA serves the built frontend from dir. Paths that are not files fall back
// to index.html so client-side routes load the app; unknown /api/ paths get
// a JSON 404. An empty dir serves only the 404s.
func SPA(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || dir == "" {
			Error(w, "API route not found", http.StatusNotFound)
			return
		}

		clean := filepath.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"lan-file-drop/internal/storage"
)

// downloadHandler serves GET requests for any path other than "/". Paths
// of the form /<storage dir name>/<file> stream the stored file through
// http.ServeContent (Range and conditional requests included); everything
// else is a 404.
func (cfg Config) downloadHandler(dir *storage.Dir, m *Metrics) http.Handler {
	prefix := "/" + dir.Name() + "/"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok || name == "" || strings.Contains(name, "/") {
			m.RecordDownload("not_found")
			http.NotFound(w, r)
			return
		}

		f, info, err := dir.Open(name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				m.RecordDownload("not_found")
				http.NotFound(w, r)
				return
			}
			m.RecordDownload("error")
			cfg.logger().Error(r.Context(), "download_failed", Fields{"name": name}, err)
			http.Error(w, "Storage unavailable.", http.StatusInternalServerError)
			return
		}
		defer func() { _ = f.Close() }()

		m.RecordDownload("ok")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

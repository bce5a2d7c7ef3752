package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"

	"lan-file-drop/internal/storage"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type listingItem struct {
	Name string
	Href string
	Size string
}

type listingPage struct {
	Files []listingItem
}

// downloadHref is the URL a stored file is served under.
func downloadHref(dir *storage.Dir, name string) string {
	return "/" + url.PathEscape(dir.Name()) + "/" + url.PathEscape(name)
}

// listingHandler renders the upload form followed by the files currently
// in the storage directory, creating the directory on first use. Names are
// escaped by html/template.
func (cfg Config) listingHandler(dir *storage.Dir) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries, err := dir.List()
		if err != nil {
			cfg.logger().Error(r.Context(), "listing_failed", Fields{"dir": dir.Path()}, err)
			http.Error(w, "Storage unavailable.", http.StatusInternalServerError)
			return
		}

		page := listingPage{Files: make([]listingItem, 0, len(entries))}
		for _, e := range entries {
			page.Files = append(page.Files, listingItem{
				Name: e.Name,
				Href: downloadHref(dir, e.Name),
				Size: humanize.Bytes(uint64(e.Size)),
			})
		}

		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, page); err != nil {
			cfg.logger().Error(r.Context(), "render_failed", nil, err)
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	})
}

// Package assets provides the embedded HTML templates.
package assets

import (
	"embed"
	"html/template"
	"io/fs"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// TemplatesFS returns the templates directory.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// FuncMap holds the helpers used by the templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"bytes": func(size int64) string {
			if size < 0 {
				return "0 B"
			}
			return humanize.Bytes(uint64(size))
		},
		"ago": humanize.Time,
		"datetime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04:05")
		},
		"pathEscape": url.PathEscape,
	}
}

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(TemplatesFS(), "*.html")
}

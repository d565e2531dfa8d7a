// Package web holds the storefront's HTML templates.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
)

//go:embed templates/*.html
var files embed.FS

// Engine parses the embedded templates. reload re-reads them on every
// render, which only matters when serving from disk during development.
func Engine(dir string, reload bool) *html.Engine {
	var engine *html.Engine
	if dir != "" {
		engine = html.New(dir, ".html")
	} else {
		sub, err := fs.Sub(files, "templates")
		if err != nil {
			panic(err)
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
	}
	engine.Reload(reload)
	engine.AddFunc("money", func(d decimal.Decimal) string { return "₹" + d.StringFixed(2) })
	engine.AddFunc("label", func(c domain.Category) string { return c.Label() })
	engine.AddFunc("title", func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	})
	engine.AddFunc("join", strings.Join)
	return engine
}

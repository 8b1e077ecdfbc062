// Package scalar serves the Scalar API reference UI for the OpenAPI document.
package scalar

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/veridid/pkg/module"
)

//go:embed index.html
var staticFS embed.FS

var page = template.Must(template.ParseFS(staticFS, "index.html"))

// NewModule creates a module that serves the Scalar API reference UI at
// basePath, rendering the OpenAPI document found at specURL.
func NewModule(basePath, specURL string) *module.Module {
	return module.New(basePath, buildRouter(basePath, specURL))
}

func buildRouter(basePath, specURL string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page.Execute(w, map[string]string{
			"BasePath": basePath,
			"SpecURL":  specURL,
		})
	})

	return mux
}

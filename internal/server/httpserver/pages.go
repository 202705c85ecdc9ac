package httpserver

import (
	"html/template"
	"net/http"
	"strings"
)

var pageTmpl = template.Must(template.New("page").Parse(
	`<!doctype html><html><head><title>studymatch · {{.}}</title></head><body><main id="app" data-page="{{.}}"></main></body></html>`))

// pageHandler serves the shell document a browser front end mounts into.
func pageHandler(path string) http.Handler {
	name := strings.TrimPrefix(path, "/")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = pageTmpl.Execute(w, name)
	})
}

// Package web embeds the chat widget assets and provides an HTTP
// handler that serves them.
package web

import (
	"embed"
	"net/http"
)

//go:embed all:static
var assetsFS embed.FS

// Handler returns an http.Handler serving the embedded widget. The
// widget page lives at "/", assets under /static/.
func Handler() http.Handler {
	fileServer := http.FileServer(http.FS(assetsFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "" {
			r.URL.Path = "/static/index.html"
		}
		fileServer.ServeHTTP(w, r)
	})
}

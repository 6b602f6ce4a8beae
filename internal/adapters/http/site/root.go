// Package site serves the service landing page.
package site

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

// Link is one entry on the landing page.
type Link struct {
	Path  string
	Title string
}

// DefaultLinks are the read-only endpoints worth a click.
var DefaultLinks = []Link{
	{Path: "/api-docs", Title: "API reference"},
	{Path: "/openapi.yaml", Title: "OpenAPI document"},
	{Path: "/top?by=momentum", Title: "Top by momentum"},
	{Path: "/top?by=breakout", Title: "Top by breakout"},
	{Path: "/top?by=risk", Title: "Most at risk"},
	{Path: "/stats", Title: "Service stats"},
	{Path: "/metrics", Title: "Prometheus metrics"},
	{Path: "/healthz", Title: "Health"},
}

var page = template.Must(template.New("root").Parse(`<!doctype html>
<html>
  <head><meta charset="utf-8"><title>radar</title></head>
  <body>
    <h1>radar</h1>
    <ul>{{range .}}
      <li><a href="{{.Path}}">{{.Title}}</a></li>{{end}}
    </ul>
  </body>
</html>`))

// RootHandler renders the landing page.
type RootHandler struct {
	links []Link
}

// NewRootHandler creates a new root handler.
func NewRootHandler(links []Link) *RootHandler {
	return &RootHandler{links: links}
}

// HandleRoot handles GET /.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = page.Execute(w, h.links)
}

// Register attaches the landing page to r.
func Register(_ context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.HandleFunc("/", NewRootHandler(DefaultLinks).HandleRoot).Methods(http.MethodGet)
}

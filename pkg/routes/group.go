package routes

import "net/http"

// Group collects routes that share a path prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Register adds every route of groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		for _, r := range g.Routes {
			mux.HandleFunc(r.pattern(g.Prefix), r.Handler)
		}
	}
}

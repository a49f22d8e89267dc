package routes

import "net/http"

// Route binds a method and a path relative to its group's prefix.
// An empty Pattern serves the prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) pattern(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}

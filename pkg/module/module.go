// Package module mounts self-contained HTTP handlers under single-level
// path prefixes such as /api.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/revitview/pkg/middleware"
)

// Module serves an inner router beneath a prefix. Requests reach the router
// with the prefix removed and pass through the module's middleware first.
type Module struct {
	prefix string
	router http.Handler
	chain  middleware.Chain
}

// New creates a Module. It panics when prefix is not of the form "/name".
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Use appends middleware. Middleware added first runs first.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.chain = m.chain.Append(mw)
}

// Prefix returns the mount point.
func (m *Module) Prefix() string {
	return m.prefix
}

// Handler returns the inner router wrapped in the middleware chain.
func (m *Module) Handler() http.Handler {
	return m.chain.Then(m.router)
}

// Serve removes the prefix from the request path and dispatches it.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	out := req.Clone(req.Context())
	out.URL.Path = path
	out.URL.RawPath = ""
	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}

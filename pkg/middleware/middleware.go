// Package middleware provides the HTTP middleware used by mounted modules.
package middleware

import "net/http"

// Chain is an ordered middleware stack. The first entry wraps outermost,
// so it sees the request first and the response last.
type Chain []func(http.Handler) http.Handler

// Append returns a chain with mw added innermost.
func (c Chain) Append(mw ...func(http.Handler) http.Handler) Chain {
	out := make(Chain, 0, len(c)+len(mw))
	out = append(out, c...)
	return append(out, mw...)
}

// Then wraps h with every middleware in the chain.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}

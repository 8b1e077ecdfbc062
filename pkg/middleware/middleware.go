// Package middleware provides the HTTP middleware applied to mounted modules.
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Stack is an ordered middleware list. The first entry is the outermost.
type Stack []Middleware

// Use appends mw to the stack.
func (s *Stack) Use(mw Middleware) {
	*s = append(*s, mw)
}

// Apply wraps handler so requests pass through the stack in order.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		handler = s[i](handler)
	}
	return handler
}

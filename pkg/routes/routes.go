// Package routes declares HTTP routes as data, registers them on a ServeMux,
// and describes them in an OpenAPI document.
package routes

import (
	"net/http"
	"slices"
	"strings"

	"github.com/JaimeStill/veridid/pkg/openapi"
)

// Route binds a method and a path pattern, relative to its group, to a handler.
// Routes without an OpenAPI operation are served but left undocumented.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group shares a path prefix across routes and nested groups. Tags apply to
// every documented operation that declares none of its own, and Schemas are
// added to the document components.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
	Schemas     map[string]*openapi.Schema
}

// Register adds every route in groups to mux and returns the registered
// patterns in declaration order. An empty route pattern under a prefix
// matches the prefix exactly.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, g := range groups {
		patterns = register(mux, "", g, patterns)
	}
	return patterns
}

func register(mux *http.ServeMux, parent string, g Group, patterns []string) []string {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		path := prefix + r.Pattern
		if path == "" {
			path = "/"
		}
		pattern := strings.TrimSpace(r.Method + " " + path)
		mux.HandleFunc(pattern, r.Handler)
		patterns = append(patterns, pattern)
	}
	for _, child := range g.Children {
		patterns = register(mux, prefix, child, patterns)
	}
	return patterns
}

// Describe adds every documented route in groups to spec and returns the
// number of operations added.
func Describe(spec *openapi.Spec, groups ...Group) int {
	var count int
	for _, g := range groups {
		count += describe(spec, "", nil, g)
	}
	return count
}

func describe(spec *openapi.Spec, parent string, tags []string, g Group) int {
	prefix := parent + g.Prefix
	if len(g.Tags) > 0 {
		tags = g.Tags
		for _, tag := range g.Tags {
			spec.AddTag(tag, g.Description)
		}
	}
	if len(g.Schemas) > 0 {
		spec.Components.AddSchemas(g.Schemas)
	}

	var count int
	for _, r := range g.Routes {
		if r.OpenAPI == nil {
			continue
		}
		path := prefix + r.Pattern
		if path == "" {
			path = "/"
		}

		op := *r.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = slices.Clone(tags)
		}
		if spec.AddOperation(r.Method, path, &op) {
			count++
		}
	}
	for _, child := range g.Children {
		count += describe(spec, prefix, tags, child)
	}
	return count
}

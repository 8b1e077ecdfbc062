package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/veridid/pkg/openapi"
	"github.com/JaimeStill/veridid/pkg/routes"
)

// SpecPath is the path, relative to the API base path, of the OpenAPI document.
const SpecPath = "/openapi.json"

func registerRoutes(mux *http.ServeMux, domain *Domain, spec *openapi.Spec, logger *slog.Logger) error {
	groups := []routes.Group{
		domain.Sessions.Handler().Routes(),
		domain.Issuances.Handler().Routes(),
		domain.Content.routes(),
	}

	patterns := routes.Register(mux, groups...)
	documented := routes.Describe(spec, groups...)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("openapi spec: %w", err)
	}
	mux.HandleFunc("GET "+SpecPath, openapi.ServeSpec(specBytes))

	logger.Debug(
		"api routes registered",
		"count", len(patterns),
		"documented", documented,
		"patterns", patterns,
	)
	return nil
}

// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/veridid/internal/config"
	"github.com/JaimeStill/veridid/internal/infrastructure"
	"github.com/JaimeStill/veridid/pkg/middleware"
	"github.com/JaimeStill/veridid/pkg/module"
	"github.com/JaimeStill/veridid/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	if err := domain.Start(runtime.Lifecycle); err != nil {
		return nil, err
	}

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, spec, runtime.Logger); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Metrics(runtime.Registry, "api"))

	return m, nil
}

package api

import (
	"github.com/JaimeStill/veridid/internal/config"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/infrastructure"
	"github.com/JaimeStill/veridid/internal/ocr"
	"github.com/JaimeStill/veridid/internal/sessions"
	"github.com/JaimeStill/veridid/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	MaxUploadSize int64
	OCR           ocr.Config
	Extraction    extraction.Config
	Sessions      sessions.Options
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
		OCR:            cfg.OCR,
		Extraction:     cfg.Extraction.Extraction(),
		Sessions:       cfg.SessionOptions(),
	}
}

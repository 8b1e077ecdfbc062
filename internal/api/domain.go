package api

import (
	"fmt"

	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/issuances"
	"github.com/JaimeStill/veridid/internal/metadata"
	"github.com/JaimeStill/veridid/internal/ocr"
	"github.com/JaimeStill/veridid/internal/sessions"
	"github.com/JaimeStill/veridid/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Issuances issuances.System
	Sessions  *sessions.Registry
	Content   *contentHandler
}

// NewDomain creates all domain systems from the API runtime. Without a
// configured OCR provider every extraction yields the fallback record.
func NewDomain(runtime *Runtime) (*Domain, error) {
	var recognizer extraction.OCR
	if runtime.OCR.Enabled() {
		client, err := ocr.New(&runtime.OCR, runtime.Storage, runtime.Logger)
		if err != nil {
			return nil, fmt.Errorf("ocr init failed: %w", err)
		}
		recognizer = client
	} else {
		runtime.Logger.Warn("no ocr provider configured, extraction will use fallback data")
	}

	issuancesSystem := issuances.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	registry := sessions.New(sessions.Deps{
		Engine:    extraction.New(runtime.Extraction, recognizer, runtime.Clock, runtime.Logger),
		Store:     runtime.Storage,
		Publisher: metadata.NewPublisher(runtime.Storage, runtime.Logger),
		Issuances: issuancesSystem,
		Metrics:   runtime.Metrics,
		Clock:     runtime.Clock,
		Logger:    runtime.Logger,
	}, runtime.Sessions)

	return &Domain{
		Issuances: issuancesSystem,
		Sessions:  registry,
		Content:   newContentHandler(runtime.Storage, runtime.Logger),
	}, nil
}

// Start registers the lifecycle hooks of domain systems that run background work.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	if err := d.Sessions.Start(lc); err != nil {
		return fmt.Errorf("sessions start failed: %w", err)
	}
	return nil
}

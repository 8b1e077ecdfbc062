// Package extraction turns a stored document image into identity fields,
// reporting phased progress and substituting fallback data when OCR fails.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/veridid/internal/identity"
)

// OCR is the document text-extraction capability.
type OCR interface {
	PerformExtraction(ctx context.Context, imageRef string) (Fields, error)
}

// Config holds extraction pacing.
type Config struct {
	SettleDelay      time.Duration
	ProgressInterval time.Duration
	ProgressStep     int
	ProgressCap      int
	ProcessingDelay  time.Duration
}

// DefaultConfig returns the standard pacing: 1.5s settle, +5% every 300ms
// capped at 90, and 2s of processing at 95%.
func DefaultConfig() Config {
	return Config{
		SettleDelay:      1500 * time.Millisecond,
		ProgressInterval: 300 * time.Millisecond,
		ProgressStep:     5,
		ProgressCap:      90,
		ProcessingDelay:  2 * time.Second,
	}
}

const (
	percentProcessing = 95
	percentComplete   = 100
)

// Result is the outcome of one extraction run.
type Result struct {
	Fields Fields
	// Cached is set when the record was already extracted and OCR was skipped.
	Cached bool
	// Fallback is set when any field came from the fallback record.
	Fallback bool
	// Warning wraps identity.ErrExtraction when OCR failed and fallback data
	// was substituted. It is informational; the result is still usable.
	Warning error
}

// Update returns the record update for the result. Cached results carry no changes.
func (r Result) Update() identity.Update {
	if r.Cached {
		return identity.Update{}
	}
	return r.Fields.Update()
}

// Engine runs extractions against an OCR capability.
type Engine struct {
	cfg    Config
	ocr    OCR
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates an engine. A nil ocr makes every extraction fall back.
func New(cfg Config, ocr OCR, clock clockwork.Clock, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 300 * time.Millisecond
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = 5
	}
	if cfg.ProgressCap <= 0 || cfg.ProgressCap >= percentProcessing {
		cfg.ProgressCap = 90
	}
	return &Engine{
		cfg:    cfg,
		ocr:    ocr,
		clock:  clock,
		logger: logger.With("system", "extraction"),
	}
}

// Extract runs the extraction pipeline for rec. An already extracted record
// short-circuits without invoking OCR. OCR failure never fails the run; it
// yields fallback fields and a Warning. Only context cancellation is returned
// as an error. observe may be nil.
func (e *Engine) Extract(ctx context.Context, rec identity.Record, observe Observer) (Result, error) {
	if rec.ExtractedInfo {
		observe.report(PhaseComplete, percentComplete)
		return Result{Fields: FromRecord(rec), Cached: true}, nil
	}

	observe.report(PhasePreparing, 0)
	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return Result{}, err
	}

	fields, ocrErr := e.recognize(ctx, rec.DocumentImageRef, observe)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	result := Result{}
	if ocrErr != nil {
		e.logger.WarnContext(ctx, "ocr failed, using fallback record", "error", ocrErr)
		result.Fields = Fallback()
		result.Fallback = true
		result.Warning = fmt.Errorf("%w: %w", identity.ErrExtraction, ocrErr)
	} else {
		result.Fields, result.Fallback = Backfill(Normalize(fields))
		if result.Fallback {
			e.logger.InfoContext(ctx, "empty extracted fields back-filled from fallback record")
		}
	}

	observe.report(PhaseProcessing, percentProcessing)
	if err := e.sleep(ctx, e.cfg.ProcessingDelay); err != nil {
		return Result{}, err
	}

	observe.report(PhaseComplete, percentComplete)
	e.logger.InfoContext(
		ctx, "extraction complete",
		"confidence", result.Fields.Confidence,
		"fallback", result.Fallback,
	)
	return result, nil
}

type ocrOutcome struct {
	fields Fields
	err    error
}

// recognize calls OCR while advancing the extracting percentage on a ticker.
func (e *Engine) recognize(ctx context.Context, imageRef string, observe Observer) (Fields, error) {
	if imageRef == "" {
		return Fields{}, ErrNoImage
	}
	if e.ocr == nil {
		return Fields{}, errors.New("ocr capability not configured")
	}

	percent := 0
	observe.report(PhaseExtracting, percent)

	done := make(chan ocrOutcome, 1)
	go func() {
		f, err := e.ocr.PerformExtraction(ctx, imageRef)
		done <- ocrOutcome{fields: f, err: err}
	}()

	ticker := e.clock.NewTicker(e.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Fields{}, ctx.Err()
		case <-ticker.Chan():
			if percent < e.cfg.ProgressCap {
				percent = min(percent+e.cfg.ProgressStep, e.cfg.ProgressCap)
				observe.report(PhaseExtracting, percent)
			}
		case out := <-done:
			return out.fields, out.err
		}
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := e.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}

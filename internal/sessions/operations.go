package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/identity"
	"github.com/JaimeStill/veridid/internal/issuances"
	"github.com/JaimeStill/veridid/internal/metadata"
	"github.com/JaimeStill/veridid/internal/ocr"
	"github.com/JaimeStill/veridid/internal/wallet"
	"github.com/JaimeStill/veridid/internal/workflow"
	"github.com/JaimeStill/veridid/pkg/storage"
)

const (
	documentName = "document"
	livenessName = "liveness.png"
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// PublishRequest selects how the metadata document is assembled.
type PublishRequest struct {
	DemoMode bool               `json:"demo_mode"`
	DemoData *identity.DemoData `json:"demo_data,omitempty"`
}

// PublishResult is the outcome of a successful publish.
type PublishResult struct {
	MetadataURI string            `json:"metadata_uri"`
	Document    metadata.Document `json:"document"`
	Status      Status            `json:"status"`
}

// ConnectWallet validates the supplied address and completes the wallet step.
func (r *Registry) ConnectWallet(ctx context.Context, id uuid.UUID, address string) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	if err := s.requireActive(workflow.StepWallet); err != nil {
		return Status{}, err
	}

	addr, err := wallet.Connect(ctx, wallet.Provided(address))
	if err != nil {
		return Status{}, err
	}

	if _, err := s.flow.Merge(identity.Update{WalletAddress: &addr}); err != nil {
		return Status{}, err
	}
	if err := s.flow.SetCompleted(workflow.StepWallet, true); err != nil {
		return Status{}, err
	}

	r.logger.InfoContext(ctx, "wallet connected", "session", id, "address", wallet.Short(addr))
	return s.Status(), nil
}

// UploadDocument stores the ID document image and starts extraction.
func (r *Registry) UploadDocument(ctx context.Context, id uuid.UUID, data []byte) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	if err := s.requireActive(workflow.StepExtraction); err != nil {
		return Status{}, err
	}
	if s.flow.Record().ExtractedInfo {
		return Status{}, ErrAlreadyExtracted
	}

	contentType, ext, err := sniffImage(data)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	running := s.extraction.running
	s.mu.Unlock()
	if running {
		return Status{}, ErrExtractionRunning
	}

	obj, err := storage.Put(ctx, r.store, documentName+ext, contentType, data)
	if err != nil {
		return Status{}, fmt.Errorf("store document: %w", err)
	}

	ref := obj.URI()
	if _, err := s.flow.Merge(identity.Update{DocumentImageRef: &ref}); err != nil {
		return Status{}, err
	}

	r.logger.InfoContext(ctx, "document stored", "session", id, "uri", ref, "bytes", len(data))
	r.startExtraction(s)
	return s.Status(), nil
}

// Advance moves the session to its next step. A later step whose fields are
// already present from an earlier pass is marked complete again on arrival;
// publish always requires a fresh publication.
func (r *Registry) Advance(ctx context.Context, id uuid.UUID) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}

	next, err := s.flow.Advance()
	if err != nil {
		return Status{}, err
	}

	if next != workflow.StepPublish && s.flow.Satisfied(next) {
		if err := s.flow.SetCompleted(next, true); err != nil {
			return Status{}, err
		}
	}

	r.logger.InfoContext(ctx, "session advanced", "session", id, "step", next.String())
	return s.Status(), nil
}

// Reenter returns the session to an already reached step, abandoning any
// task still working on that step.
func (r *Registry) Reenter(ctx context.Context, id uuid.UUID, step workflow.Step) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	if err := s.flow.Reenter(step); err != nil {
		s.mu.Unlock()
		return Status{}, err
	}

	var prior *capture.Controller
	if step <= workflow.StepExtraction {
		s.resetExtraction()
	}
	if step <= workflow.StepLiveness {
		prior = s.resetLiveness()
	}
	s.publishErr = ""
	s.mu.Unlock()

	if err := awaitRelease(ctx, prior); err != nil {
		return Status{}, err
	}

	r.logger.InfoContext(ctx, "session step re-entered", "session", id, "step", step.String())
	return s.Status(), nil
}

// StartLiveness begins an auto-capture round against the session's frame buffer.
func (r *Registry) StartLiveness(ctx context.Context, id uuid.UUID) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	if err := s.requireActive(workflow.StepLiveness); err != nil {
		return Status{}, err
	}
	if s.flow.Record().HasLivenessImage() {
		return Status{}, ErrAlreadyCaptured
	}

	s.mu.Lock()
	if s.liveness.running {
		s.mu.Unlock()
		return Status{}, ErrCaptureRunning
	}
	s.liveness.gen++
	gen := s.liveness.gen
	ctrl := capture.NewController(r.opts.Capture, s.frames, s.detector, r.clock, r.logger)
	s.liveness.controller = ctrl
	s.liveness.running = true
	s.liveness.err = ""
	s.mu.Unlock()

	s.tasks.Go(func() { r.runLiveness(s, ctrl, gen) })

	r.logger.InfoContext(ctx, "liveness capture started", "session", id)
	return s.Status(), nil
}

// PushFrame feeds one camera frame to the running capture round.
func (r *Registry) PushFrame(id uuid.UUID, data []byte, faces *int) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	if !s.frames.Active() {
		return Status{}, ErrCaptureIdle
	}

	frame, err := capture.DecodeFrame(data, faces, r.clock.Now(), r.opts.Capture.MaxFramePixels)
	if err != nil {
		return Status{}, err
	}
	if err := s.frames.Push(frame); err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

// CancelLiveness cancels the running capture round without touching the record.
func (r *Registry) CancelLiveness(ctx context.Context, id uuid.UUID) (Status, error) {
	s, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	ctrl := s.liveness.controller
	running := s.liveness.running && !s.liveness.verifying
	s.mu.Unlock()

	if !running || ctrl == nil {
		return Status{}, ErrCaptureIdle
	}

	ctrl.Cancel()
	if err := awaitRelease(ctx, ctrl); err != nil {
		return Status{}, err
	}
	r.logger.InfoContext(ctx, "liveness capture cancelled", "session", id)
	return s.Status(), nil
}

// RetakeLiveness discards the current liveness result and re-enters the step.
func (r *Registry) RetakeLiveness(ctx context.Context, id uuid.UUID) (Status, error) {
	return r.Reenter(ctx, id, workflow.StepLiveness)
}

// Publish assembles the metadata document, uploads it, and completes the
// publish step. A failure is kept on the session for presentation.
func (r *Registry) Publish(ctx context.Context, id uuid.UUID, req PublishRequest) (*PublishResult, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.requireActive(workflow.StepPublish); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.publishing {
		s.mu.Unlock()
		return nil, ErrPublishRunning
	}
	s.publishing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.publishing = false
		s.mu.Unlock()
	}()

	if req.DemoMode && req.DemoData != nil {
		if _, err := s.flow.Merge(identity.Update{DemoData: req.DemoData}); err != nil {
			return nil, err
		}
	}

	rec := s.flow.Record()
	doc, err := r.assembler.Assemble(rec, req.DemoMode, r.clock.Now())
	if err != nil {
		s.setPublishError(err)
		return nil, err
	}

	uri, err := r.publisher.Publish(ctx, doc)
	r.metrics.ObservePublish(err, rec.VerificationScore)
	if err != nil {
		s.setPublishError(err)
		r.logger.ErrorContext(ctx, "publish failed", "session", id, "error", err)
		return nil, err
	}

	if _, err := s.flow.Merge(identity.Update{MetadataURI: &uri}); err != nil {
		return nil, err
	}
	if err := s.flow.SetCompleted(workflow.StepPublish, true); err != nil {
		return nil, err
	}
	s.setPublishError(nil)

	r.recordIssuance(ctx, s, rec, uri, doc, req.DemoMode)

	r.logger.InfoContext(ctx, "metadata published", "session", id, "uri", uri)
	return &PublishResult{
		MetadataURI: uri,
		Document:    doc,
		Status:      s.Status(),
	}, nil
}

func (r *Registry) recordIssuance(
	ctx context.Context,
	s *Session,
	rec identity.Record,
	uri string,
	doc metadata.Document,
	demo bool,
) {
	if r.issuances == nil {
		return
	}

	snap := s.flow.Snapshot()
	cmd := issuances.CreateCommand{
		SessionID:         s.ID,
		WalletAddress:     rec.WalletAddress,
		MetadataURI:       uri,
		ImageURI:          doc.Image,
		VerificationScore: snap.Score,
		Tier:              string(snap.Tier),
		DemoMode:          demo,
	}

	if _, err := r.issuances.Create(ctx, cmd); err != nil {
		r.logger.WarnContext(ctx, "issuance not recorded", "session", s.ID, "uri", uri, "error", err)
	}
}

func (r *Registry) startExtraction(s *Session) {
	s.mu.Lock()
	s.extraction.gen++
	gen := s.extraction.gen
	ctx, cancel := context.WithCancel(s.ctx)
	s.extraction.cancel = cancel
	s.extraction.running = true
	s.extraction.progress = extraction.Progress{Phase: extraction.PhasePreparing}
	s.extraction.warning = ""
	s.extraction.fallback = false
	s.mu.Unlock()

	rec := s.flow.Record()

	s.tasks.Go(func() {
		defer cancel()

		start := r.clock.Now()
		observe := func(p extraction.Progress) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.extraction.gen == gen {
				s.extraction.progress = p
			}
		}

		result, err := r.engine.Extract(ctx, rec, observe)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.extraction.gen != gen || s.ctx.Err() != nil {
			r.logger.Debug("stale extraction result dropped", "session", s.ID)
			return
		}
		s.extraction.running = false
		s.extraction.cancel = nil

		if err != nil {
			r.logger.Warn("extraction interrupted", "session", s.ID, "error", err)
			return
		}

		outcome := "ocr"
		switch {
		case result.Cached:
			outcome = "cached"
		case result.Fallback:
			outcome = "fallback"
		}
		r.metrics.ObserveExtraction(outcome, r.since(start))

		if result.Warning != nil {
			s.extraction.warning = result.Warning.Error()
		}
		s.extraction.fallback = result.Fallback

		if !result.Cached {
			if _, err := s.flow.Merge(result.Update()); err != nil {
				r.logger.Error("extraction result rejected", "session", s.ID, "error", err)
				return
			}
		}
		if err := s.flow.SetCompleted(workflow.StepExtraction, true); err != nil {
			r.logger.Error("extraction step incomplete", "session", s.ID, "error", err)
			return
		}

		r.logger.Info("extraction complete",
			"session", s.ID,
			"outcome", outcome,
			"confidence", result.Fields.Confidence,
		)
	})
}

func (r *Registry) runLiveness(s *Session, ctrl *capture.Controller, gen int) {
	strategy := s.detector.Name()
	result, err := ctrl.Run(s.ctx)
	if s.detector.Name() != strategy {
		r.metrics.IncrementDetectorFallback()
	}

	if err != nil {
		outcome := "failed"
		switch {
		case errors.Is(err, capture.ErrCancelled), errors.Is(err, context.Canceled):
			outcome = "cancelled"
		case errors.Is(err, identity.ErrDeviceAccess):
			outcome = "device_error"
		}
		r.metrics.IncrementCapture(outcome)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.liveness.gen == gen {
			s.liveness.running = false
			if outcome != "cancelled" {
				s.liveness.err = err.Error()
			}
		}
		return
	}
	r.metrics.IncrementCapture("captured")

	ref := r.storeLiveness(s, result.Still)
	at := result.CapturedAt

	s.mu.Lock()
	if s.liveness.gen != gen || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	_, err = s.flow.Merge(identity.Update{
		LivenessImageRef:  &ref,
		LivenessTimestamp: &at,
	})
	if err != nil {
		s.liveness.running = false
		s.liveness.err = err.Error()
		s.mu.Unlock()
		return
	}
	s.liveness.verifying = true
	s.mu.Unlock()

	timer := r.clock.NewTimer(r.opts.VerificationDelay)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return
	case <-timer.Chan():
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.liveness.gen != gen {
		return
	}
	s.liveness.verifying = false
	s.liveness.running = false

	if _, err := s.flow.Merge(identity.Update{LivenessVerified: identity.Ptr(true)}); err != nil {
		s.liveness.err = err.Error()
		return
	}
	if err := s.flow.SetCompleted(workflow.StepLiveness, true); err != nil {
		s.liveness.err = err.Error()
		return
	}
	r.logger.Info("liveness verified", "session", s.ID)
}

// storeLiveness uploads the still frame; when storage is unavailable the
// still is kept inline as a data URI.
func (r *Registry) storeLiveness(s *Session, still []byte) string {
	obj, err := storage.Put(s.ctx, r.store, livenessName, "image/png", still)
	if err != nil {
		r.logger.Warn("liveness upload failed, keeping inline image", "session", s.ID, "error", err)
		return ocr.DataURI(still)
	}
	return obj.URI()
}

func (s *Session) resetExtraction() {
	if s.extraction.cancel != nil {
		s.extraction.cancel()
	}
	s.extraction = extractionState{gen: s.extraction.gen + 1}
}

// resetLiveness cancels the capture round and returns its controller so the
// caller can wait for the device release outside s.mu.
func (s *Session) resetLiveness() *capture.Controller {
	prior := s.liveness.controller
	if prior != nil {
		prior.Cancel()
	}
	s.liveness = livenessState{gen: s.liveness.gen + 1}
	return prior
}

// awaitRelease blocks until a cancelled capture round has returned its
// frame buffer, so a following StartLiveness can open it.
func awaitRelease(ctx context.Context, ctrl *capture.Controller) error {
	if ctrl == nil {
		return nil
	}
	select {
	case <-ctrl.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) setPublishError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.publishErr = ""
		return
	}
	s.publishErr = err.Error()
}

func sniffImage(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	contentType = http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return contentType, ext, nil
}

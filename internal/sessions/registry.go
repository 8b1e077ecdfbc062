// Package sessions drives verification sessions: it owns one workflow
// controller per session and the background tasks that advance it.
package sessions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/issuances"
	"github.com/JaimeStill/veridid/internal/metadata"
	"github.com/JaimeStill/veridid/internal/metrics"
	"github.com/JaimeStill/veridid/internal/workflow"
	"github.com/JaimeStill/veridid/pkg/lifecycle"
	"github.com/JaimeStill/veridid/pkg/storage"
)

// Registry holds the live sessions and the collaborators they share.
type Registry struct {
	opts      Options
	engine    *extraction.Engine
	store     storage.System
	publisher *metadata.Publisher
	assembler metadata.Assembler
	issuances issuances.System
	metrics   *metrics.Metrics
	clock     clockwork.Clock
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// New creates a session registry.
func New(deps Deps, opts Options) *Registry {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if opts.PlaceholderImage == "" {
		opts.PlaceholderImage = metadata.DefaultPlaceholderImage
	}
	return &Registry{
		opts:      opts,
		engine:    deps.Engine,
		store:     deps.Store,
		publisher: deps.Publisher,
		assembler: metadata.Assembler{PlaceholderImage: opts.PlaceholderImage},
		issuances: deps.Issuances,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		logger:    deps.Logger.With("system", "sessions"),
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Handler returns the HTTP handler for session routes.
func (r *Registry) Handler() *Handler {
	return NewHandler(r, r.logger, r.opts.MaxImageSize)
}

// Start runs the idle-session janitor and tears down every session on shutdown.
func (r *Registry) Start(lc *lifecycle.Coordinator) error {
	r.logger.Info("starting session registry", "ttl", r.opts.TTL)

	if r.opts.JanitorInterval > 0 && r.opts.TTL > 0 {
		go r.janitor(lc.Context())
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.ShutdownTimeout)
		defer cancel()

		if err := r.Shutdown(ctx); err != nil {
			r.logger.Error("session shutdown incomplete", "error", err)
			return
		}
		r.logger.Info("session registry stopped")
	})

	return nil
}

// Create opens a new session positioned at the wallet step.
func (r *Registry) Create() *Session {
	now := r.clock.Now()
	ctx, cancel := context.WithCancel(context.Background())

	var native capture.FaceDetector
	if r.opts.NativeDetection {
		native = capture.ReportedFaces{}
	}

	s := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		flow:      workflow.New(r.logger),
		frames:    capture.NewFrameBuffer(),
		detector:  capture.NewDetector(native, capture.NewHeuristic(), r.logger),
		ctx:       ctx,
		cancel:    cancel,
		lastSeen:  now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.metrics.SessionOpened()
	r.logger.Info("session created", "session", s.ID, "detector", s.detector.Name())
	return s
}

// Get returns the session with the given id and marks it as recently used.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	s.touch(r.clock.Now())
	return s, nil
}

// Delete tears down a session, cancelling its tasks and releasing its device.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	s, ok := r.remove(id)
	if !ok {
		return ErrNotFound
	}
	r.metrics.SessionClosed(false)
	r.logger.Info("session deleted", "session", id)
	return s.close(ctx)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown closes every session concurrently.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range all {
		g.Go(func() error {
			r.metrics.SessionClosed(false)
			return s.close(gctx)
		})
	}
	return g.Wait()
}

// Expire closes sessions idle longer than the configured TTL and returns how many were closed.
func (r *Registry) Expire(ctx context.Context) int {
	cutoff := r.clock.Now().Add(-r.opts.TTL)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		r.metrics.SessionClosed(true)
		if err := s.close(ctx); err != nil {
			r.logger.Warn("expired session did not stop cleanly", "session", s.ID, "error", err)
		}
		r.logger.Info("session expired", "session", s.ID)
	}
	return len(stale)
}

func (r *Registry) janitor(ctx context.Context) {
	ticker := r.clock.NewTicker(r.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			sweep, cancel := context.WithTimeout(ctx, r.opts.ShutdownTimeout)
			r.Expire(sweep)
			cancel()
		}
	}
}

func (r *Registry) remove(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

func (r *Registry) since(start time.Time) time.Duration {
	return r.clock.Since(start)
}

package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/identity"
	"github.com/JaimeStill/veridid/internal/score"
	"github.com/JaimeStill/veridid/internal/workflow"
)

// Session is one verification run: a workflow controller plus the background
// tasks driving its steps. Every task runs under the session context and is
// cancelled on teardown.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	flow     *workflow.Controller
	frames   *capture.FrameBuffer
	detector capture.Detector

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu         sync.Mutex
	lastSeen   time.Time
	extraction extractionState
	liveness   livenessState
	publishing bool
	publishErr string
}

// Each task kind carries a generation. Re-entering a step bumps it so that
// completions from superseded tasks are dropped.
type extractionState struct {
	gen      int
	running  bool
	cancel   context.CancelFunc
	progress extraction.Progress
	warning  string
	fallback bool
}

type livenessState struct {
	gen        int
	running    bool
	verifying  bool
	controller *capture.Controller
	err        string
}

// ExtractionStatus is the presentational view of the extraction step.
type ExtractionStatus struct {
	Running         bool                `json:"running"`
	Progress        extraction.Progress `json:"progress"`
	Warning         string              `json:"warning,omitempty"`
	Fallback        bool                `json:"fallback"`
	ConfidenceLevel string              `json:"confidence_level"`
}

// LivenessStatus is the presentational view of the liveness step.
type LivenessStatus struct {
	Running   bool            `json:"running"`
	Verifying bool            `json:"verifying"`
	Capture   *capture.Status `json:"capture,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Status is a point-in-time view of a session.
type Status struct {
	ID           uuid.UUID              `json:"id"`
	CreatedAt    time.Time              `json:"created_at"`
	ActiveStep   workflow.Step          `json:"active_step"`
	Completed    map[workflow.Step]bool `json:"completed"`
	Record       identity.Record        `json:"record"`
	Score        int                    `json:"verification_score"`
	Tier         score.Tier             `json:"tier"`
	TierLabel    string                 `json:"tier_label"`
	Extraction   ExtractionStatus       `json:"extraction"`
	Liveness     LivenessStatus         `json:"liveness"`
	PublishError string                 `json:"publish_error,omitempty"`
}

// Status returns the current view of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	snap := s.flow.Snapshot()

	var live *capture.Status
	if s.liveness.controller != nil {
		st := s.liveness.controller.Status()
		live = &st
	}

	return Status{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		ActiveStep: snap.Active,
		Completed:  snap.Completed,
		Record:     snap.Record,
		Score:      snap.Score,
		Tier:       snap.Tier,
		TierLabel:  snap.Tier.Label(),
		Extraction: ExtractionStatus{
			Running:         s.extraction.running,
			Progress:        s.extraction.progress,
			Warning:         s.extraction.warning,
			Fallback:        s.extraction.fallback,
			ConfidenceLevel: extraction.ConfidenceLevel(snap.Record.ExtractionConfidence),
		},
		Liveness: LivenessStatus{
			Running:   s.liveness.running,
			Verifying: s.liveness.verifying,
			Capture:   live,
			Error:     s.liveness.err,
		},
		PublishError: s.publishErr,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) requireActive(step workflow.Step) error {
	if active := s.flow.Active(); active != step {
		return fmt.Errorf("%w: %s is active, not %s", ErrStepNotActive, active, step)
	}
	return nil
}

// close cancels every task, releases the capture device, and waits for the
// tasks to return or ctx to expire.
func (s *Session) close(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	if s.liveness.controller != nil {
		s.liveness.controller.Cancel()
	}
	if s.extraction.cancel != nil {
		s.extraction.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.frames.Close()
}

// Package workflow owns the identity record for one verification session and
// gates progression through the wallet, extraction, liveness, and publish steps.
package workflow

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/veridid/internal/identity"
	"github.com/JaimeStill/veridid/internal/score"
)

// State is a consistent snapshot of the controller.
type State struct {
	Record    identity.Record `json:"record"`
	Active    Step            `json:"active"`
	Completed map[Step]bool   `json:"completed"`
	Score     int             `json:"score"`
	Tier      score.Tier      `json:"tier"`
}

// Controller is the single owner of an identity record. All mutation goes
// through Merge, SetCompleted, Advance, and Reenter.
type Controller struct {
	mu        sync.Mutex
	record    identity.Record
	completed [stepCount]bool
	active    Step
	logger    *slog.Logger
}

// New creates a controller positioned at the wallet step with an empty record.
func New(logger *slog.Logger) *Controller {
	return &Controller{
		active: StepWallet,
		logger: logger.With("system", "workflow"),
	}
}

// Record returns a copy of the current record.
func (c *Controller) Record() identity.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// Merge shallow-merges u into the record and recomputes the verification
// score. An invalid update leaves the record unchanged, as does one that
// would remove a required field of a completed step.
func (c *Controller) Merge(u identity.Update) (identity.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := u.Apply(c.record)
	if err != nil {
		return c.record.Clone(), err
	}

	for _, step := range Steps {
		if !c.completed[step] {
			continue
		}
		if err := checkRequirements(step, next); err != nil {
			return c.record.Clone(), err
		}
	}

	next.VerificationScore = score.Compute(next)
	c.record = next
	return c.record.Clone(), nil
}

// SetCompleted sets the completion flag for step. Marking a step complete
// requires its fields to be present in the record.
func (c *Controller) SetCompleted(step Step, done bool) error {
	if !step.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if done {
		if err := checkRequirements(step, c.record); err != nil {
			return err
		}
	}

	c.completed[step] = done
	c.logger.Debug("step completion set", "step", step.String(), "completed", done)
	return nil
}

// Completed reports the completion flag for step.
func (c *Controller) Completed(step Step) bool {
	if !step.valid() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed[step]
}

// Satisfied reports whether the record already holds every field step requires.
func (c *Controller) Satisfied(step Step) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return step.valid() && len(requirements(step, c.record)) == 0
}

// Active returns the current step.
func (c *Controller) Active() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Advance moves to the next step. The active step must be complete.
func (c *Controller) Advance() (Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.completed[c.active] {
		return c.active, fmt.Errorf("%w: %s", ErrStepIncomplete, c.active)
	}
	if int(c.active) == stepCount-1 {
		return c.active, ErrFinalStep
	}

	c.active++
	c.logger.Info("workflow advanced", "step", c.active.String())
	return c.active, nil
}

// Reenter returns to an already reached step. It clears the completion flag
// of that step and every later step, clears only the fields owned by the
// re-entered step, and makes it active.
func (c *Controller) Reenter(step Step) error {
	if !step.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if step > c.active {
		return fmt.Errorf("%w: %s", ErrStepUnreached, step)
	}

	for s := step; int(s) < stepCount; s++ {
		c.completed[s] = false
	}

	clearOwned(step, &c.record)
	c.record.VerificationScore = score.Compute(c.record)
	c.active = step

	c.logger.Info("workflow step re-entered", "step", step.String())
	return nil
}

// Snapshot returns a consistent view of the record, flags, and score.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	completed := make(map[Step]bool, stepCount)
	for _, s := range Steps {
		completed[s] = c.completed[s]
	}

	return State{
		Record:    c.record.Clone(),
		Active:    c.active,
		Completed: completed,
		Score:     c.record.VerificationScore,
		Tier:      score.TierFor(c.record.VerificationScore),
	}
}

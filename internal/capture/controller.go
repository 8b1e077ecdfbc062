package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/veridid/internal/identity"
)

// Config holds auto-capture timing parameters.
type Config struct {
	PollInterval   time.Duration
	TickInterval   time.Duration
	CaptureDelay   time.Duration
	Countdown      int
	AutoCapture    bool
	MaxFramePixels int
}

// DefaultConfig returns the standard cadence: detection every 500ms, a
// one-second countdown from 1, and a 100ms settle before the still is taken.
func DefaultConfig() Config {
	return Config{
		PollInterval:   500 * time.Millisecond,
		TickInterval:   time.Second,
		CaptureDelay:   100 * time.Millisecond,
		Countdown:      1,
		AutoCapture:    true,
		MaxFramePixels: DefaultMaxFramePixels,
	}
}

// Capture is the committed still frame of a completed capture round.
type Capture struct {
	Still      []byte
	Frame      Frame
	CapturedAt time.Time
}

// Status is a point-in-time view of the controller for presentation.
type Status struct {
	State        string `json:"state"`
	Countdown    int    `json:"countdown"`
	FaceDetected bool   `json:"face_detected"`
	Strategy     string `json:"strategy"`
}

// Controller drives one auto-capture round: it polls the detector, runs the
// countdown, and grabs exactly one still frame. A Controller is single use.
type Controller struct {
	cfg      Config
	device   Device
	detector Detector
	clock    clockwork.Clock
	logger   *slog.Logger

	mu         sync.Mutex
	machine    *Machine
	present    bool
	started    bool
	committed  bool
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	doneOnce   sync.Once
}

// NewController creates a controller over the given device and detector.
func NewController(
	cfg Config,
	device Device,
	detector Detector,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		cfg:      cfg,
		device:   device,
		detector: detector,
		clock:    clock,
		logger:   logger.With("system", "capture"),
		machine:  NewMachine(cfg.Countdown, cfg.AutoCapture),
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run acquires the device and blocks until a still is captured, the round is
// cancelled, or ctx is done. The device is released exactly once on every path.
func (c *Controller) Run(ctx context.Context) (*Capture, error) {
	if err := c.begin(); err != nil {
		if errors.Is(err, ErrCancelled) {
			c.finish()
		}
		return nil, err
	}
	defer c.finish()

	if err := c.device.Open(ctx); err != nil {
		if !errors.Is(err, identity.ErrDeviceAccess) {
			err = fmt.Errorf("%w: %w", identity.ErrDeviceAccess, err)
		}
		return nil, err
	}

	var release sync.Once
	closeDevice := func() {
		release.Do(func() {
			if err := c.device.Close(); err != nil {
				c.logger.Warn("device release failed", "error", err)
			}
		})
	}
	defer closeDevice()

	c.logger.InfoContext(ctx, "capture session started", "strategy", c.detector.Name())

	poll := c.clock.NewTicker(c.cfg.PollInterval)
	defer poll.Stop()

	var (
		countdown clockwork.Ticker
		tickC     <-chan time.Time
		fire      clockwork.Timer
		fireC     <-chan time.Time
	)

	stopCountdown := func() {
		if countdown != nil {
			countdown.Stop()
			countdown = nil
			tickC = nil
		}
	}
	defer stopCountdown()

	defer func() {
		if fire != nil {
			fire.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.abort()
			return nil, ctx.Err()

		case <-c.cancel:
			c.logger.InfoContext(ctx, "capture cancelled")
			return nil, ErrCancelled

		case <-poll.Chan():
			switch c.observe(c.detect(ctx)) {
			case ActionArm:
				countdown = c.clock.NewTicker(c.cfg.TickInterval)
				tickC = countdown.Chan()
				c.logger.DebugContext(ctx, "face detected, countdown armed")
			case ActionDisarm:
				stopCountdown()
				c.logger.DebugContext(ctx, "face lost, countdown cancelled")
			}

		case <-tickC:
			if c.tick() == ActionFire {
				stopCountdown()
				poll.Stop()
				fire = c.clock.NewTimer(c.cfg.CaptureDelay)
				fireC = fire.Chan()
			}

		case <-fireC:
			result, err := c.grab(ctx)
			closeDevice()
			if err != nil {
				return nil, err
			}
			if !c.commit() {
				return nil, ErrCancelled
			}
			c.logger.InfoContext(ctx, "still captured", "bytes", len(result.Still))
			return result, nil
		}
	}
}

// Cancel moves the round to Cancelled and releases the device. Safe to call
// from any goroutine and more than once.
func (c *Controller) Cancel() {
	c.abort()
	c.cancelOnce.Do(func() { close(c.cancel) })
}

// Done is closed once Run has returned and the device is released. A round
// cancelled before it started closes Done when Run is called.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Status returns the current controller view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		State:        c.machine.State().String(),
		Countdown:    c.machine.Countdown(),
		FaceDetected: c.present,
		Strategy:     c.detector.Name(),
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.State() == StateCancelled {
		return ErrCancelled
	}
	if c.started {
		return ErrAlreadyRunning
	}
	c.started = true
	return nil
}

func (c *Controller) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.committed {
		c.machine.Cancel()
	}
}

func (c *Controller) commit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.State() == StateCancelled {
		return false
	}
	c.committed = true
	return true
}

func (c *Controller) detect(ctx context.Context) bool {
	f, err := c.device.Frame(ctx)
	if err != nil {
		return false
	}
	return c.detector.Detect(ctx, f)
}

func (c *Controller) observe(present bool) Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.present = present
	return c.machine.Observe(present)
}

func (c *Controller) tick() Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Tick()
}

func (c *Controller) grab(ctx context.Context) (*Capture, error) {
	f, err := c.device.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab still: %w", err)
	}

	still, err := EncodePNG(f)
	if err != nil {
		return nil, fmt.Errorf("grab still: %w", err)
	}

	return &Capture{
		Still:      still,
		Frame:      f,
		CapturedAt: c.clock.Now(),
	}, nil
}

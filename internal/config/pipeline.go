package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/sessions"
)

const (
	EnvCapturePollInterval = "VERIDID_CAPTURE_POLL_INTERVAL"
	EnvCaptureTickInterval = "VERIDID_CAPTURE_TICK_INTERVAL"
	EnvCaptureDelay        = "VERIDID_CAPTURE_DELAY"
	EnvCaptureCountdown    = "VERIDID_CAPTURE_COUNTDOWN"
	EnvCaptureManual       = "VERIDID_CAPTURE_MANUAL"
	EnvCaptureMaxPixels    = "VERIDID_CAPTURE_MAX_FRAME_PIXELS"

	EnvExtractionSettleDelay      = "VERIDID_EXTRACTION_SETTLE_DELAY"
	EnvExtractionProgressInterval = "VERIDID_EXTRACTION_PROGRESS_INTERVAL"
	EnvExtractionProcessingDelay  = "VERIDID_EXTRACTION_PROCESSING_DELAY"

	EnvSessionsTTL               = "VERIDID_SESSIONS_TTL"
	EnvSessionsJanitorInterval   = "VERIDID_SESSIONS_JANITOR_INTERVAL"
	EnvSessionsVerificationDelay = "VERIDID_SESSIONS_VERIFICATION_DELAY"
	EnvSessionsHeuristicOnly     = "VERIDID_SESSIONS_HEURISTIC_ONLY"
	EnvSessionsPlaceholderImage  = "VERIDID_SESSIONS_PLACEHOLDER_IMAGE"
)

// CaptureConfig holds auto-capture timing and the decoded frame size limit.
// Manual disables the countdown so presence never triggers a capture.
type CaptureConfig struct {
	PollInterval   string `toml:"poll_interval"`
	TickInterval   string `toml:"tick_interval"`
	CaptureDelay   string `toml:"capture_delay"`
	Countdown      int    `toml:"countdown"`
	Manual         bool   `toml:"manual"`
	MaxFramePixels int    `toml:"max_frame_pixels"`
}

// Capture converts the section to controller settings.
func (c *CaptureConfig) Capture() capture.Config {
	return capture.Config{
		PollInterval:   duration(c.PollInterval),
		TickInterval:   duration(c.TickInterval),
		CaptureDelay:   duration(c.CaptureDelay),
		Countdown:      c.Countdown,
		AutoCapture:    !c.Manual,
		MaxFramePixels: c.MaxFramePixels,
	}
}

func (c *CaptureConfig) Finalize() error {
	def := capture.DefaultConfig()
	defaultDuration(&c.PollInterval, def.PollInterval)
	defaultDuration(&c.TickInterval, def.TickInterval)
	defaultDuration(&c.CaptureDelay, def.CaptureDelay)
	if c.Countdown == 0 {
		c.Countdown = def.Countdown
	}
	if c.MaxFramePixels == 0 {
		c.MaxFramePixels = def.MaxFramePixels
	}

	envString(EnvCapturePollInterval, &c.PollInterval)
	envString(EnvCaptureTickInterval, &c.TickInterval)
	envString(EnvCaptureDelay, &c.CaptureDelay)
	envInt(EnvCaptureCountdown, &c.Countdown)
	envBool(EnvCaptureManual, &c.Manual)
	envInt(EnvCaptureMaxPixels, &c.MaxFramePixels)

	if c.Countdown < 0 {
		return fmt.Errorf("invalid countdown: %d", c.Countdown)
	}
	if c.MaxFramePixels < 0 {
		return fmt.Errorf("invalid max_frame_pixels: %d", c.MaxFramePixels)
	}
	return validDurations(map[string]string{
		"poll_interval": c.PollInterval,
		"tick_interval": c.TickInterval,
		"capture_delay": c.CaptureDelay,
	})
}

func (c *CaptureConfig) Merge(overlay *CaptureConfig) {
	mergeString(&c.PollInterval, overlay.PollInterval)
	mergeString(&c.TickInterval, overlay.TickInterval)
	mergeString(&c.CaptureDelay, overlay.CaptureDelay)
	if overlay.Countdown != 0 {
		c.Countdown = overlay.Countdown
	}
	if overlay.Manual {
		c.Manual = true
	}
	if overlay.MaxFramePixels != 0 {
		c.MaxFramePixels = overlay.MaxFramePixels
	}
}

// ExtractionConfig holds the extraction engine's pacing.
type ExtractionConfig struct {
	SettleDelay      string `toml:"settle_delay"`
	ProgressInterval string `toml:"progress_interval"`
	ProcessingDelay  string `toml:"processing_delay"`
}

// Extraction converts the section to engine settings.
func (c *ExtractionConfig) Extraction() extraction.Config {
	cfg := extraction.DefaultConfig()
	cfg.SettleDelay = duration(c.SettleDelay)
	cfg.ProgressInterval = duration(c.ProgressInterval)
	cfg.ProcessingDelay = duration(c.ProcessingDelay)
	return cfg
}

func (c *ExtractionConfig) Finalize() error {
	def := extraction.DefaultConfig()
	defaultDuration(&c.SettleDelay, def.SettleDelay)
	defaultDuration(&c.ProgressInterval, def.ProgressInterval)
	defaultDuration(&c.ProcessingDelay, def.ProcessingDelay)

	envString(EnvExtractionSettleDelay, &c.SettleDelay)
	envString(EnvExtractionProgressInterval, &c.ProgressInterval)
	envString(EnvExtractionProcessingDelay, &c.ProcessingDelay)

	if err := validDurations(map[string]string{
		"settle_delay":      c.SettleDelay,
		"progress_interval": c.ProgressInterval,
		"processing_delay":  c.ProcessingDelay,
	}); err != nil {
		return err
	}
	if duration(c.ProgressInterval) <= 0 {
		return fmt.Errorf("progress_interval must be positive")
	}
	return nil
}

func (c *ExtractionConfig) Merge(overlay *ExtractionConfig) {
	mergeString(&c.SettleDelay, overlay.SettleDelay)
	mergeString(&c.ProgressInterval, overlay.ProgressInterval)
	mergeString(&c.ProcessingDelay, overlay.ProcessingDelay)
}

// SessionsConfig holds session registry behavior.
type SessionsConfig struct {
	TTL               string `toml:"ttl"`
	JanitorInterval   string `toml:"janitor_interval"`
	VerificationDelay string `toml:"verification_delay"`
	HeuristicOnly     bool   `toml:"heuristic_only"`
	PlaceholderImage  string `toml:"placeholder_image"`
}

// Options builds registry options from the session, capture, and upload settings.
func (c *SessionsConfig) Options(cc *CaptureConfig, maxUpload int64, shutdown time.Duration) sessions.Options {
	opts := sessions.DefaultOptions()
	opts.TTL = duration(c.TTL)
	opts.JanitorInterval = duration(c.JanitorInterval)
	opts.VerificationDelay = duration(c.VerificationDelay)
	opts.NativeDetection = !c.HeuristicOnly
	opts.MaxImageSize = maxUpload
	opts.Capture = cc.Capture()
	if shutdown > 0 {
		opts.ShutdownTimeout = shutdown
	}
	if c.PlaceholderImage != "" {
		opts.PlaceholderImage = c.PlaceholderImage
	}
	return opts
}

func (c *SessionsConfig) Finalize() error {
	def := sessions.DefaultOptions()
	defaultDuration(&c.TTL, def.TTL)
	defaultDuration(&c.JanitorInterval, def.JanitorInterval)
	defaultDuration(&c.VerificationDelay, def.VerificationDelay)

	envString(EnvSessionsTTL, &c.TTL)
	envString(EnvSessionsJanitorInterval, &c.JanitorInterval)
	envString(EnvSessionsVerificationDelay, &c.VerificationDelay)
	envBool(EnvSessionsHeuristicOnly, &c.HeuristicOnly)
	envString(EnvSessionsPlaceholderImage, &c.PlaceholderImage)

	return validDurations(map[string]string{
		"ttl":                c.TTL,
		"janitor_interval":   c.JanitorInterval,
		"verification_delay": c.VerificationDelay,
	})
}

func (c *SessionsConfig) Merge(overlay *SessionsConfig) {
	mergeString(&c.TTL, overlay.TTL)
	mergeString(&c.JanitorInterval, overlay.JanitorInterval)
	mergeString(&c.VerificationDelay, overlay.VerificationDelay)
	mergeString(&c.PlaceholderImage, overlay.PlaceholderImage)
	if overlay.HeuristicOnly {
		c.HeuristicOnly = true
	}
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func defaultDuration(dst *string, d time.Duration) {
	if *dst == "" {
		*dst = d.String()
	}
}

func validDurations(fields map[string]string) error {
	for name, v := range fields {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: negative duration", name)
		}
	}
	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

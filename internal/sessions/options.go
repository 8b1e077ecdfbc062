package sessions

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/issuances"
	"github.com/JaimeStill/veridid/internal/metadata"
	"github.com/JaimeStill/veridid/internal/metrics"
	"github.com/JaimeStill/veridid/pkg/storage"
)

// Options holds session behavior settings.
type Options struct {
	TTL               time.Duration
	JanitorInterval   time.Duration
	ShutdownTimeout   time.Duration
	VerificationDelay time.Duration
	NativeDetection   bool
	MaxImageSize      int64
	PlaceholderImage  string
	Capture           capture.Config
}

// DefaultOptions returns a 30 minute idle TTL, a 2 second simulated
// liveness verification, and the default capture cadence.
func DefaultOptions() Options {
	return Options{
		TTL:               30 * time.Minute,
		JanitorInterval:   time.Minute,
		ShutdownTimeout:   10 * time.Second,
		VerificationDelay: 2 * time.Second,
		NativeDetection:   true,
		MaxImageSize:      10 << 20,
		PlaceholderImage:  metadata.DefaultPlaceholderImage,
		Capture:           capture.DefaultConfig(),
	}
}

// Deps are the collaborators a registry drives. Issuances and Metrics are optional.
type Deps struct {
	Engine    *extraction.Engine
	Store     storage.System
	Publisher *metadata.Publisher
	Issuances issuances.System
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

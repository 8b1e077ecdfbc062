package capture

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Detector reports whether a face is present in a frame. Implementations
// never surface errors; a failed analysis reports absence.
type Detector interface {
	Detect(ctx context.Context, f Frame) bool
	Name() string
}

// FaceDetector is the platform face-detection capability backing the native strategy.
type FaceDetector interface {
	DetectFaces(ctx context.Context, f Frame) (int, error)
}

// ReportedFaces is a FaceDetector that trusts the face count reported by the
// client alongside each frame. A frame without a report is a runtime failure.
type ReportedFaces struct{}

func (ReportedFaces) DetectFaces(_ context.Context, f Frame) (int, error) {
	if f.Faces == nil {
		return 0, ErrNotReported
	}
	return *f.Faces, nil
}

// NewDetector selects the detection strategy once for a session. With no
// native capability the heuristic is used directly; otherwise the native
// capability is used until its first failure, after which the heuristic
// takes over for the rest of the session.
func NewDetector(native FaceDetector, heuristic *Heuristic, logger *slog.Logger) Detector {
	if heuristic == nil {
		heuristic = NewHeuristic()
	}
	if native == nil {
		return heuristic
	}
	return &fallback{
		native:    native,
		heuristic: heuristic,
		logger:    logger.With("system", "detector"),
	}
}

type fallback struct {
	native     FaceDetector
	heuristic  *Heuristic
	logger     *slog.Logger
	downgraded atomic.Bool
}

func (d *fallback) Detect(ctx context.Context, f Frame) bool {
	if d.downgraded.Load() {
		return d.heuristic.Detect(ctx, f)
	}

	faces, err := d.native.DetectFaces(ctx, f)
	if err != nil {
		if d.downgraded.CompareAndSwap(false, true) {
			d.logger.WarnContext(
				ctx, "native face detection failed, using heuristic",
				"error", err,
			)
		}
		return d.heuristic.Detect(ctx, f)
	}

	return faces > 0
}

func (d *fallback) Name() string {
	if d.downgraded.Load() {
		return d.heuristic.Name()
	}
	return "native"
}

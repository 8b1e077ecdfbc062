package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// Frame is a single image sampled from a live capture source.
// Faces holds the platform face-detection count when one accompanied the frame.
type Frame struct {
	Image      image.Image
	Faces      *int
	CapturedAt time.Time
}

// DefaultMaxFramePixels bounds decoded frame area at 4096x4096.
const DefaultMaxFramePixels = 4096 * 4096

// DecodeFrame decodes PNG, JPEG, or WebP bytes into a Frame. The header is
// read first and frames whose declared area exceeds maxPixels are rejected
// before any pixel buffer is allocated. maxPixels <= 0 applies
// DefaultMaxFramePixels.
func DecodeFrame(data []byte, faces *int, at time.Time, maxPixels int) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: empty payload", ErrInvalidFrame)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxFramePixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Frame{}, fmt.Errorf("%w: empty dimensions %dx%d", ErrInvalidFrame, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return Frame{}, fmt.Errorf(
			"%w: %dx%d exceeds %d pixels",
			ErrInvalidFrame, cfg.Width, cfg.Height, maxPixels,
		)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	return Frame{Image: img, Faces: faces, CapturedAt: at}, nil
}

// EncodePNG renders the frame as a PNG still.
func EncodePNG(f Frame) ([]byte, error) {
	if f.Image == nil {
		return nil, ErrNoFrame
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image); err != nil {
		return nil, fmt.Errorf("encode still: %w", err)
	}
	return buf.Bytes(), nil
}

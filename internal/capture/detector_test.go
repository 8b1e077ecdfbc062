package capture_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/veridid/internal/capture"
)

type scriptedNative struct {
	calls int
	faces int
	err   error
}

func (s *scriptedNative) DetectFaces(context.Context, capture.Frame) (int, error) {
	s.calls++
	return s.faces, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDetectorWithoutNative(t *testing.T) {
	d := capture.NewDetector(nil, nil, discard())
	assert.Equal(t, "heuristic", d.Name())
}

func TestNativeDetection(t *testing.T) {
	native := &scriptedNative{faces: 1}
	d := capture.NewDetector(native, nil, discard())

	assert.True(t, d.Detect(context.Background(), capture.Frame{}))
	assert.Equal(t, "native", d.Name())

	native.faces = 0
	assert.False(t, d.Detect(context.Background(), capture.Frame{}))
}

func TestNativeFailureDowngradesPermanently(t *testing.T) {
	native := &scriptedNative{err: errors.New("unsupported")}
	d := capture.NewDetector(native, nil, discard())
	face := capture.Frame{Image: stripedFrame(640, 480, 200)}

	assert.True(t, d.Detect(context.Background(), face), "failing frame is re-evaluated by the heuristic")
	assert.Equal(t, "heuristic", d.Name())

	native.err = nil
	native.faces = 0
	assert.True(t, d.Detect(context.Background(), face))
	assert.Equal(t, 1, native.calls, "native must not be retried after a failure")
}

func TestReportedFaces(t *testing.T) {
	var r capture.ReportedFaces

	_, err := r.DetectFaces(context.Background(), capture.Frame{})
	assert.ErrorIs(t, err, capture.ErrNotReported)

	two := 2
	n, err := r.DetectFaces(context.Background(), capture.Frame{Faces: &two})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

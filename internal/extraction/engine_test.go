package extraction_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/identity"
)

type fakeOCR struct {
	calls  atomic.Int32
	fields extraction.Fields
	err    error
	delay  time.Duration
}

func (f *fakeOCR) PerformExtraction(ctx context.Context, _ string) (extraction.Fields, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return extraction.Fields{}, ctx.Err()
		}
	}
	return f.fields, f.err
}

type recorder struct {
	mu    sync.Mutex
	steps []extraction.Progress
}

func (r *recorder) observe(p extraction.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, p)
}

func (r *recorder) snapshot() []extraction.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]extraction.Progress(nil), r.steps...)
}

func fastConfig() extraction.Config {
	return extraction.Config{
		SettleDelay:      time.Millisecond,
		ProgressInterval: time.Millisecond,
		ProgressStep:     5,
		ProgressCap:      90,
		ProcessingDelay:  time.Millisecond,
	}
}

func newEngine(ocr extraction.OCR) *extraction.Engine {
	return extraction.New(fastConfig(), ocr, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractSuccess(t *testing.T) {
	ocr := &fakeOCR{fields: extraction.Fields{
		FullName:       "  Jane   Doe ",
		DocumentNumber: "x1 23",
		DocumentType:   "Passport",
		DateOfBirth:    "02.03.1985",
		Gender:         "f",
		IssuingCountry: "Canada",
		Confidence:     0.93,
	}}
	rec := &recorder{}

	result, err := newEngine(ocr).Extract(
		context.Background(),
		identity.Record{DocumentImageRef: "ipfs://doc/doc.png"},
		rec.observe,
	)
	require.NoError(t, err)

	assert.Nil(t, result.Warning)
	assert.False(t, result.Fallback)
	assert.False(t, result.Cached)
	assert.Equal(t, "Jane Doe", result.Fields.FullName)
	assert.Equal(t, "X123", result.Fields.DocumentNumber)
	assert.Equal(t, "1985-03-02", result.Fields.DateOfBirth)
	assert.Equal(t, "Female", result.Fields.Gender)
	assert.InDelta(t, 0.93, result.Fields.Confidence, 1e-9)

	steps := rec.snapshot()
	require.NotEmpty(t, steps)
	assert.Equal(t, extraction.PhasePreparing, steps[0].Phase)
	assert.Equal(t, extraction.Progress{Phase: extraction.PhaseComplete, Percent: 100}, steps[len(steps)-1])

	for i := 1; i < len(steps); i++ {
		assert.GreaterOrEqual(t, steps[i].Percent, steps[i-1].Percent, "progress is monotonic")
		assert.GreaterOrEqual(t, steps[i].Phase, steps[i-1].Phase, "phases only advance")
	}
}

func TestExtractProgressCapped(t *testing.T) {
	ocr := &fakeOCR{fields: extraction.Fields{FullName: "A"}, delay: 60 * time.Millisecond}
	rec := &recorder{}

	_, err := newEngine(ocr).Extract(
		context.Background(),
		identity.Record{DocumentImageRef: "ipfs://doc/doc.png"},
		rec.observe,
	)
	require.NoError(t, err)

	for _, p := range rec.snapshot() {
		if p.Phase == extraction.PhaseExtracting {
			assert.LessOrEqual(t, p.Percent, 90)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	ocr := &fakeOCR{}
	stored := identity.Record{
		DocumentImageRef:     "ipfs://doc/doc.png",
		ExtractedInfo:        true,
		FullName:             "Jane Doe",
		DocumentNumber:       "X1",
		DocumentType:         "Passport",
		ExtractionConfidence: 0.8,
	}

	result, err := newEngine(ocr).Extract(context.Background(), stored, nil)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Equal(t, int32(0), ocr.calls.Load())
	assert.Equal(t, "Jane Doe", result.Fields.FullName)
	assert.Equal(t, identity.Update{}, result.Update())
}

func TestExtractFallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		ocr  extraction.OCR
		ref  string
	}{
		{"ocr error", &fakeOCR{err: errors.New("model unavailable")}, "ipfs://doc/doc.png"},
		{"missing image", &fakeOCR{}, ""},
		{"no capability", nil, "ipfs://doc/doc.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newEngine(tt.ocr).Extract(
				context.Background(),
				identity.Record{DocumentImageRef: tt.ref},
				nil,
			)
			require.NoError(t, err)

			assert.ErrorIs(t, result.Warning, identity.ErrExtraction)
			assert.True(t, result.Fallback)
			assert.Equal(t, extraction.Fallback(), result.Fields)

			updated, err := result.Update().Apply(identity.Record{DocumentImageRef: tt.ref})
			require.NoError(t, err)
			assert.True(t, updated.ExtractedInfo)
			assert.Equal(t, "John Doe", updated.FullName)
			assert.Equal(t, "AB123456789", updated.DocumentNumber)
		})
	}
}

func TestExtractBackfillsEmptyFields(t *testing.T) {
	ocr := &fakeOCR{fields: extraction.Fields{FullName: "Jane Doe", Confidence: 0.5}}

	result, err := newEngine(ocr).Extract(
		context.Background(),
		identity.Record{DocumentImageRef: "ipfs://doc/doc.png"},
		nil,
	)
	require.NoError(t, err)

	assert.Nil(t, result.Warning)
	assert.True(t, result.Fallback)
	assert.Equal(t, "Jane Doe", result.Fields.FullName)
	assert.Equal(t, "AB123456789", result.Fields.DocumentNumber)
	assert.Equal(t, "National ID", result.Fields.DocumentType)
}

func TestExtractCancelled(t *testing.T) {
	ocr := &fakeOCR{delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := newEngine(ocr).Extract(ctx, identity.Record{DocumentImageRef: "ipfs://doc/doc.png"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// gatedOCR answers only once release is closed.
type gatedOCR struct {
	release chan struct{}
	fields  extraction.Fields
}

func (g *gatedOCR) PerformExtraction(ctx context.Context, _ string) (extraction.Fields, error) {
	select {
	case <-g.release:
		return g.fields, nil
	case <-ctx.Done():
		return extraction.Fields{}, ctx.Err()
	}
}

func TestExtractPacedByClock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := extraction.Config{
		SettleDelay:      time.Second,
		ProgressInterval: 100 * time.Millisecond,
		ProgressStep:     10,
		ProgressCap:      30,
		ProcessingDelay:  2 * time.Second,
	}
	clock := clockwork.NewFakeClock()
	ocr := &gatedOCR{release: make(chan struct{}), fields: extraction.Fields{FullName: "Jane Doe", Confidence: 0.7}}
	engine := extraction.New(cfg, ocr, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &recorder{}

	type outcome struct {
		result extraction.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := engine.Extract(ctx, identity.Record{DocumentImageRef: "ipfs://doc/doc.png"}, rec.observe)
		done <- outcome{result: result, err: err}
	}()

	last := func() extraction.Progress {
		steps := rec.snapshot()
		if len(steps) == 0 {
			return extraction.Progress{}
		}
		return steps[len(steps)-1]
	}

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(cfg.SettleDelay - time.Nanosecond)
	assert.Equal(t, []extraction.Progress{{Phase: extraction.PhasePreparing}}, rec.snapshot())

	clock.Advance(time.Nanosecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, extraction.Progress{Phase: extraction.PhaseExtracting}, last())

	for _, want := range []int{10, 20, 30} {
		clock.Advance(cfg.ProgressInterval)
		require.Eventually(t, func() bool {
			return last().Percent == want
		}, time.Second, time.Millisecond)
	}

	clock.Advance(5 * cfg.ProgressInterval)
	close(ocr.release)

	require.Eventually(t, func() bool {
		return last().Phase == extraction.PhaseProcessing
	}, time.Second, time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(cfg.ProcessingDelay - time.Nanosecond)
	select {
	case <-done:
		t.Fatal("extraction finished before processing delay elapsed")
	default:
	}

	clock.Advance(time.Nanosecond)
	var got outcome
	select {
	case got = <-done:
	case <-ctx.Done():
		t.Fatal("extraction did not finish after processing delay")
	}

	require.NoError(t, got.err)
	assert.Equal(t, "Jane Doe", got.result.Fields.FullName)

	for _, p := range rec.snapshot() {
		if p.Phase == extraction.PhaseExtracting {
			assert.LessOrEqual(t, p.Percent, cfg.ProgressCap)
		}
	}
	assert.Equal(t, extraction.Progress{Phase: extraction.PhaseComplete, Percent: 100}, last())
}

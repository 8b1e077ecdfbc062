package sessions_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/internal/capture"
	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/internal/metadata"
	"github.com/JaimeStill/veridid/internal/metrics"
	"github.com/JaimeStill/veridid/internal/sessions"
	"github.com/JaimeStill/veridid/pkg/storage"
)

const testAddress = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"

type fakeOCR struct {
	fields extraction.Fields
	delay  time.Duration
}

func (f *fakeOCR) PerformExtraction(ctx context.Context, _ string) (extraction.Fields, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return extraction.Fields{}, ctx.Err()
		}
	}
	return f.fields, nil
}

func passportOCR() *fakeOCR {
	return &fakeOCR{fields: extraction.Fields{
		FullName:       "Jane Doe",
		DocumentNumber: "P1234567",
		DocumentType:   "Passport",
		DateOfBirth:    "1985-03-02",
		Gender:         "Female",
		IssuingCountry: "Canada",
		Confidence:     0.9,
	}}
}

// failingMetadata rejects uploads of published metadata documents.
type failingMetadata struct {
	storage.System
}

func (f failingMetadata) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if strings.HasSuffix(key, metadata.FileName) {
		return errors.New("gateway unavailable")
	}
	return f.System.Upload(ctx, key, r, contentType)
}

type fixture struct {
	reg     *sessions.Registry
	store   *storage.Memory
	metrics *metrics.Metrics
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastOptions() sessions.Options {
	opts := sessions.DefaultOptions()
	opts.VerificationDelay = 5 * time.Millisecond
	opts.ShutdownTimeout = time.Second
	opts.Capture = capture.Config{
		PollInterval: 5 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
		CaptureDelay: time.Millisecond,
		Countdown:    1,
		AutoCapture:  true,
	}
	return opts
}

func fastExtraction() extraction.Config {
	return extraction.Config{
		SettleDelay:      time.Millisecond,
		ProgressInterval: time.Millisecond,
		ProgressStep:     5,
		ProgressCap:      90,
		ProcessingDelay:  time.Millisecond,
	}
}

func newFixture(t *testing.T, ocr extraction.OCR, wrap func(storage.System) storage.System) *fixture {
	t.Helper()

	logger := discard()
	mem := storage.NewMemory(logger)

	var store storage.System = mem
	if wrap != nil {
		store = wrap(mem)
	}

	m := metrics.New(prometheus.NewRegistry())
	reg := sessions.New(sessions.Deps{
		Engine:    extraction.New(fastExtraction(), ocr, nil, logger),
		Store:     store,
		Publisher: metadata.NewPublisher(store, logger),
		Metrics:   m,
		Logger:    logger,
	}, fastOptions())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = reg.Shutdown(ctx)
	})

	return &fixture{reg: reg, store: mem, metrics: m}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

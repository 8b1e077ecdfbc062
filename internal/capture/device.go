package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/JaimeStill/veridid/internal/identity"
)

// Device is a live capture source. It is a scoped resource: Open acquires it
// and Close releases it.
type Device interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (Frame, error)
	Close() error
}

// FrameBuffer is a Device fed by frames pushed from a remote client. It holds
// only the most recent frame and can be held by one capture run at a time.
type FrameBuffer struct {
	mu     sync.Mutex
	open   bool
	latest *Frame
}

// NewFrameBuffer creates an idle frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (b *FrameBuffer) Open(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return fmt.Errorf("%w: device already in use", identity.ErrDeviceAccess)
	}

	b.open = true
	b.latest = nil
	return nil
}

// Push replaces the buffered frame. Frames pushed while the device is closed
// are rejected.
func (b *FrameBuffer) Push(f Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return fmt.Errorf("%w: device not open", identity.ErrDeviceAccess)
	}

	b.latest = &f
	return nil
}

func (b *FrameBuffer) Frame(_ context.Context) (Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return Frame{}, fmt.Errorf("%w: device not open", identity.ErrDeviceAccess)
	}
	if b.latest == nil {
		return Frame{}, ErrNoFrame
	}
	return *b.latest, nil
}

func (b *FrameBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.latest = nil
	return nil
}

// Active reports whether a capture run currently holds the device.
func (b *FrameBuffer) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

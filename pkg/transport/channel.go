package transport

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ChannelSource is an in-process FrameSource fed by Push, used for the
// websocket control channel and the development shell.
type ChannelSource struct {
	frames  chan []byte
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
}

// NewChannelSource creates a source holding up to queueSize pending frames.
// A ReadFrame with no frame within timeout returns ErrTimeout with no bytes.
func NewChannelSource(queueSize int, timeout time.Duration) *ChannelSource {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &ChannelSource{
		frames:  make(chan []byte, queueSize),
		timeout: timeout,
	}
}

// Push queues a copy of frame without blocking. It reports false when the
// queue is full or the source is closed.
func (c *ChannelSource) Push(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.frames <- append([]byte(nil), frame...):
		return true
	default:
		return false
	}
}

// ReadFrame returns the next pushed frame.
func (c *ChannelSource) ReadFrame(ctx context.Context) ([]byte, error) {
	var timeout <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case frame, ok := <-c.frames:
		if !ok {
			return nil, ErrSourceClosed
		}
		return frame, nil
	case <-timeout:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the source. Pending frames are still delivered.
func (c *ChannelSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

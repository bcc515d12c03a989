// Package transport delivers raw command frames to the control loop.
package transport

import (
	"context"
	"errors"
)

var (
	// ErrTimeout means the read deadline passed before a terminator arrived.
	// Any bytes received so far are returned alongside it.
	ErrTimeout = errors.New("frame read timed out")
	// ErrFrameOverrun means the maximum frame length was read without a terminator.
	// The source drops bytes up to the next terminator before the following frame.
	ErrFrameOverrun = errors.New("frame overran maximum length")
	// ErrSourceClosed means the source will not deliver any more frames.
	ErrSourceClosed = errors.New("frame source closed")
)

// FrameSource yields one terminator-delimited frame per call, terminator removed.
// On ErrTimeout the partial bytes are returned so the caller can tell an idle
// link (no bytes) from a truncated frame.
type FrameSource interface {
	ReadFrame(ctx context.Context) ([]byte, error)
}

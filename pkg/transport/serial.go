package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/open-teleop/rovcontrol/pkg/protocol"
	"github.com/tarm/serial"
)

// SerialConfig describes the link to the topside console.
type SerialConfig struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// SerialSource reads terminator-delimited frames from a byte stream.
type SerialSource struct {
	r        *bufio.Reader
	closer   io.Closer
	maxLen   int
	resync   bool
	frameBuf []byte
}

// OpenSerial opens the serial port and wraps it in a SerialSource.
// ReadTimeout bounds how long a single frame may take to arrive.
func OpenSerial(cfg SerialConfig) (*SerialSource, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial port name cannot be empty")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return NewStreamSource(port), nil
}

// NewStreamSource reads frames from any byte stream. A read returning no data
// (io.EOF or repeated empty reads) counts as the stream's timeout. If rw is an
// io.Closer it is closed by Close.
func NewStreamSource(rw io.Reader) *SerialSource {
	s := &SerialSource{
		r:        bufio.NewReaderSize(rw, 64),
		maxLen:   protocol.FrameLength,
		frameBuf: make([]byte, 0, protocol.FrameLength),
	}
	if c, ok := rw.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// ReadFrame reads bytes until the terminator, a timeout or the frame length
// limit. Empty frames between back-to-back terminators are skipped. After a
// timeout mid-frame or an overrun, the rest of that frame is discarded up to
// its terminator so its tail is never returned as a frame. The returned slice
// is reused by the next call.
func (s *SerialSource) ReadFrame(ctx context.Context) ([]byte, error) {
	buf := s.frameBuf[:0]
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrNoProgress) {
				if len(buf) > 0 {
					s.resync = true
				}
				return buf, fmt.Errorf("%w after %d bytes", ErrTimeout, len(buf))
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.ErrUnexpectedEOF) {
				return buf, ErrSourceClosed
			}
			return buf, fmt.Errorf("serial read failed: %w", err)
		}

		if s.resync {
			if b == protocol.Terminator {
				s.resync = false
			}
			continue
		}
		if b == protocol.Terminator {
			if len(buf) == 0 {
				continue
			}
			return buf, nil
		}
		buf = append(buf, b)
		if len(buf) >= s.maxLen {
			s.resync = true
			return buf, fmt.Errorf("%w: %d bytes", ErrFrameOverrun, len(buf))
		}
	}
}

// Close releases the underlying port.
func (s *SerialSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Package teleop turns operator intents into wire frames for the control loop.
package teleop

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
)

var (
	// ErrInvalidIntent is returned for an intent carrying NaN or infinite axes.
	ErrInvalidIntent = errors.New("invalid teleop intent")
	// ErrControlBusy is returned when the control loop has not consumed earlier frames.
	ErrControlBusy = errors.New("control channel busy")
)

// FramePusher accepts frames for the control loop without blocking.
type FramePusher interface {
	Push(frame []byte) bool
}

// Stats counts intents handled since start.
type Stats struct {
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
	Rejected uint64 `json:"rejected"`
}

// TeleopService encodes intents exactly as the topside console would
type TeleopService struct {
	encoder *protocol.Encoder
	frames  FramePusher
	logger  customlog.Logger

	sent     atomic.Uint64
	dropped  atomic.Uint64
	rejected atomic.Uint64
}

// NewTeleopService creates a new teleop service instance
func NewTeleopService(encoder *protocol.Encoder, frames FramePusher, logger customlog.Logger) *TeleopService {
	return &TeleopService{
		encoder: encoder,
		frames:  frames,
		logger:  logger,
	}
}

// ValidateIntent rejects non-finite axes. Out-of-range values are clamped by the encoder.
func (s *TeleopService) ValidateIntent(in protocol.Intent) error {
	axes := map[string]float64{
		"surge": in.Surge,
		"sway":  in.Sway,
		"pitch": in.Pitch,
		"yaw":   in.Yaw,
		"heave": in.Heave,
	}
	for name, v := range axes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidIntent, name, v)
		}
	}
	return nil
}

// SendIntent encodes the intent and hands the frame, terminator removed, to the control loop.
func (s *TeleopService) SendIntent(in protocol.Intent) ([]byte, error) {
	if err := s.ValidateIntent(in); err != nil {
		s.rejected.Add(1)
		return nil, err
	}

	frame := protocol.Trim(s.encoder.Encode(in))
	if !s.frames.Push(frame) {
		s.dropped.Add(1)
		s.logger.Debugf("Control channel full, dropping teleop frame %v", frame)
		return frame, ErrControlBusy
	}
	s.sent.Add(1)
	return frame, nil
}

// Stats returns the intent counters.
func (s *TeleopService) Stats() Stats {
	return Stats{
		Sent:     s.sent.Load(),
		Dropped:  s.dropped.Load(),
		Rejected: s.rejected.Load(),
	}
}

// CommandHandler accepts a single JSON intent over HTTP
func (s *TeleopService) CommandHandler(c *fiber.Ctx) error {
	var in protocol.Intent
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	frame, err := s.SendIntent(in)
	switch {
	case errors.Is(err, ErrInvalidIntent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrControlBusy):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"status": "command queued",
		"frame":  FrameValues(frame),
	})
}

// FrameValues lists frame bytes as numbers, so JSON shows them unencoded.
func FrameValues(frame []byte) []int {
	out := make([]int, len(frame))
	for i, b := range frame {
		out[i] = int(b)
	}
	return out
}

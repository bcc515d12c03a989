// Package control runs the per-frame cycle: decode, allocate, drive.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/rovcontrol/pkg/actuator"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
	"github.com/open-teleop/rovcontrol/pkg/transport"
)

// IncompletePolicy decides which command stays in effect when a frame
// cannot be used.
type IncompletePolicy string

const (
	// PolicyRetain keeps the last good command.
	PolicyRetain IncompletePolicy = "retain"
	// PolicyNeutral falls back to the all-zero command.
	PolicyNeutral IncompletePolicy = "neutral"
)

// ParseIncompletePolicy accepts "retain", "neutral" or "" (retain).
func ParseIncompletePolicy(s string) (IncompletePolicy, error) {
	switch IncompletePolicy(s) {
	case "", PolicyRetain:
		return PolicyRetain, nil
	case PolicyNeutral:
		return PolicyNeutral, nil
	default:
		return "", fmt.Errorf("unknown incomplete frame policy %q", s)
	}
}

// Outcome says how a cycle's command was chosen.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRetained Outcome = "retained"
	OutcomeNeutral  Outcome = "neutral"
)

// Snapshot describes one completed cycle.
type Snapshot struct {
	Sequence   uint64                            `json:"sequence"`
	Time       time.Time                         `json:"time"`
	Outcome    Outcome                           `json:"outcome"`
	Error      string                            `json:"error,omitempty"`
	Aux        byte                              `json:"aux"`
	Allocation thrust.Allocation                 `json:"allocation"`
	Outputs    [thrust.Thrusters]actuator.Output `json:"outputs"`
}

// Counters tally cycle outcomes since start.
type Counters struct {
	Cycles         uint64 `json:"cycles"`
	Applied        uint64 `json:"applied"`
	Incomplete     uint64 `json:"incomplete"`
	Rejected       uint64 `json:"rejected"`
	ActuatorErrors uint64 `json:"actuator_errors"`
}

// SnapshotSink receives every snapshot after its cycle. Submit must not block.
type SnapshotSink interface {
	Submit(s Snapshot) bool
}

// Options configures a Controller. nil uses PolicyRetain and no sink.
type Options struct {
	Policy IncompletePolicy
	Sink   SnapshotSink
}

// Controller owns the last-command state and drives the actuator adapter.
// Cycle may be called from a poll loop or a callback; calls are serialized.
type Controller struct {
	decoder   *protocol.Decoder
	allocator *thrust.Allocator
	adapter   *actuator.Adapter
	policy    IncompletePolicy
	sink      SnapshotSink
	logger    customlog.Logger
	now       func() time.Time

	cycleMu sync.Mutex

	mu       sync.RWMutex
	last     thrust.Command
	lastAux  byte
	snapshot Snapshot
	counters Counters
}

// NewController wires the pipeline stages together.
func NewController(
	decoder *protocol.Decoder,
	allocator *thrust.Allocator,
	adapter *actuator.Adapter,
	opts *Options,
	logger customlog.Logger,
) *Controller {
	if opts == nil {
		opts = &Options{}
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyRetain
	}
	return &Controller{
		decoder:   decoder,
		allocator: allocator,
		adapter:   adapter,
		policy:    policy,
		sink:      opts.Sink,
		logger:    logger.WithField(customlog.ComponentField, "control"),
		now:       time.Now,
		last:      thrust.Neutral,
	}
}

// Cycle runs one control cycle for the result of a frame read. readErr is
// the transport error, if any, that came with raw. Unusable frames are
// handled by the incomplete-frame policy and never fail the cycle; the
// returned error only reports actuator faults.
func (c *Controller) Cycle(raw []byte, readErr error) (Snapshot, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	r := c.resolve(raw, readErr)

	alloc := c.allocator.Allocate(r.cmd)
	actErr := c.adapter.Apply(alloc.Forces())

	c.mu.Lock()
	c.counters.Cycles++
	switch {
	case r.outcome == OutcomeApplied:
		c.counters.Applied++
	case r.rejected:
		c.counters.Rejected++
	default:
		c.counters.Incomplete++
	}
	if actErr != nil {
		c.counters.ActuatorErrors++
	}
	c.last = r.cmd
	c.lastAux = r.aux
	snap := Snapshot{
		Sequence:   c.counters.Cycles,
		Time:       c.now(),
		Outcome:    r.outcome,
		Aux:        r.aux,
		Allocation: alloc,
		Outputs:    c.adapter.Outputs(),
	}
	if r.cause != nil {
		snap.Error = r.cause.Error()
	}
	c.snapshot = snap
	c.mu.Unlock()

	if r.cause != nil {
		c.logger.Debugf("Frame not used (%s): %v", r.outcome, r.cause)
	}
	if alloc.HorizontalScale < 1 || alloc.VerticalScale < 1 {
		c.logger.Debugf("Saturated: horizontal x%.4f vertical x%.4f", alloc.HorizontalScale, alloc.VerticalScale)
	}
	if c.sink != nil && !c.sink.Submit(snap) {
		c.logger.Debugf("Snapshot %d dropped by sink", snap.Sequence)
	}

	if actErr != nil {
		return snap, fmt.Errorf("actuator output failed: %w", actErr)
	}
	return snap, nil
}

// resolution is the command chosen for one cycle and why.
type resolution struct {
	cmd      thrust.Command
	aux      byte
	outcome  Outcome
	cause    error
	rejected bool
}

func (c *Controller) resolve(raw []byte, readErr error) resolution {
	r := resolution{cause: readErr}
	if r.cause == nil {
		cmd, err := c.decoder.Decode(raw)
		if err == nil {
			return resolution{cmd: cmd, aux: protocol.Aux(protocol.Trim(raw)), outcome: OutcomeApplied}
		}
		r.cause = err
		r.rejected = !errors.Is(err, protocol.ErrIncompleteFrame)
	}

	if c.policy == PolicyNeutral {
		r.cmd = thrust.Neutral
		r.outcome = OutcomeNeutral
		return r
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r.cmd = c.last
	r.aux = c.lastAux
	r.outcome = OutcomeRetained
	return r
}

// Run reads frames from src and cycles on each until ctx is done or the
// source closes. A read that yields no bytes, whether an idle timeout or an
// empty frame between two terminators, does not trigger a cycle. Thrusters
// are stopped on return.
func (c *Controller) Run(ctx context.Context, src transport.FrameSource) error {
	c.logger.Infof("Control loop started (policy=%s)", c.policy)
	defer func() {
		if err := c.adapter.Stop(); err != nil {
			c.logger.Errorf("Failed to stop thrusters: %v", err)
		}
		c.logger.Infof("Control loop stopped")
	}()

	for {
		raw, err := src.ReadFrame(ctx)
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case err == nil:
			if len(raw) == 0 {
				continue
			}
		case errors.Is(err, transport.ErrSourceClosed):
			return err
		case errors.Is(err, transport.ErrTimeout):
			if len(raw) == 0 {
				continue
			}
		case errors.Is(err, transport.ErrFrameOverrun):
		default:
			return fmt.Errorf("frame source failed: %w", err)
		}

		if _, cycleErr := c.Cycle(raw, err); cycleErr != nil {
			c.logger.Errorf("Cycle failed: %v", cycleErr)
		}
	}
}

// Snapshot returns the most recent cycle.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Counters returns the outcome tallies.
func (c *Controller) Counters() Counters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters
}

// LastCommand returns the command currently in effect.
func (c *Controller) LastCommand() thrust.Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Policy returns the incomplete-frame policy.
func (c *Controller) Policy() IncompletePolicy {
	return c.policy
}

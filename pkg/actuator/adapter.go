package actuator

import (
	"fmt"
	"math"
	"sync"

	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// DefaultMaxDuty matches an 8-bit PWM driver.
const DefaultMaxDuty = 255

// Split maps a signed force to a direction and duty. Non-negative forces,
// and NaN, drive forward. The magnitude is truncated and capped at maxDuty.
func Split(force float64, maxDuty uint32) (Direction, uint32) {
	if math.IsNaN(force) {
		return Forward, 0
	}
	dir := Forward
	if force < 0 {
		dir = Reverse
	}
	mag := math.Abs(force)
	if mag >= float64(maxDuty) {
		return dir, maxDuty
	}
	return dir, uint32(mag)
}

// Adapter drives the six thruster channels of a Port.
type Adapter struct {
	port    Port
	maxDuty uint32
	logger  customlog.Logger

	mu   sync.Mutex
	last [thrust.Thrusters]Output
}

// NewAdapter creates an adapter writing to port. A zero maxDuty uses DefaultMaxDuty.
func NewAdapter(port Port, maxDuty uint32, logger customlog.Logger) *Adapter {
	if maxDuty == 0 {
		maxDuty = DefaultMaxDuty
	}
	return &Adapter{
		port:    port,
		maxDuty: maxDuty,
		logger:  logger,
	}
}

// Apply writes one cycle of forces in channel order. Every channel is
// attempted and the first error is returned.
func (a *Adapter) Apply(forces [thrust.Thrusters]float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for ch, f := range forces {
		dir, duty := Split(f, a.maxDuty)
		if err := a.drive(ch, dir, duty); err != nil {
			a.logger.Errorf("Actuator: channel %d failed: %v", ch, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		a.last[ch] = Output{Direction: dir, Duty: duty}
	}
	return firstErr
}

// Stop drives every channel to zero duty.
func (a *Adapter) Stop() error {
	return a.Apply([thrust.Thrusters]float64{})
}

// Outputs returns the last successfully written output per channel.
func (a *Adapter) Outputs() [thrust.Thrusters]Output {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// MaxDuty returns the duty ceiling.
func (a *Adapter) MaxDuty() uint32 {
	return a.maxDuty
}

func (a *Adapter) drive(ch int, dir Direction, duty uint32) error {
	if err := a.port.SetDirection(ch, dir); err != nil {
		return fmt.Errorf("set direction: %w", err)
	}
	if err := a.port.SetDuty(ch, duty); err != nil {
		return fmt.Errorf("set duty: %w", err)
	}
	return nil
}

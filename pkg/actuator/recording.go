package actuator

import (
	"fmt"
	"sync"

	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// Call is one recorded Port operation.
type Call struct {
	Op        string
	Channel   int
	Direction Direction
	Duty      uint32
}

// RecordingPort is an in-memory Port used for simulation and tests.
type RecordingPort struct {
	mu      sync.Mutex
	calls   []Call
	state   [thrust.Thrusters]Output
	FailOn  map[int]error
	maxKeep int
}

// NewRecordingPort keeps at most maxKeep calls; zero keeps everything.
func NewRecordingPort(maxKeep int) *RecordingPort {
	return &RecordingPort{maxKeep: maxKeep}
}

func (p *RecordingPort) SetDirection(channel int, d Direction) error {
	return p.record(Call{Op: "direction", Channel: channel, Direction: d})
}

func (p *RecordingPort) SetDuty(channel int, duty uint32) error {
	return p.record(Call{Op: "duty", Channel: channel, Duty: duty})
}

func (p *RecordingPort) record(c Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c.Channel < 0 || c.Channel >= thrust.Thrusters {
		return fmt.Errorf("channel %d out of range", c.Channel)
	}
	if err, ok := p.FailOn[c.Channel]; ok {
		return err
	}
	p.calls = append(p.calls, c)
	if p.maxKeep > 0 && len(p.calls) > p.maxKeep {
		p.calls = p.calls[len(p.calls)-p.maxKeep:]
	}
	switch c.Op {
	case "direction":
		p.state[c.Channel].Direction = c.Direction
	case "duty":
		p.state[c.Channel].Duty = c.Duty
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (p *RecordingPort) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// State returns the current per-channel output.
func (p *RecordingPort) State() [thrust.Thrusters]Output {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

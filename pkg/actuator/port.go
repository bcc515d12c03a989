// Package actuator turns signed thruster forces into direction and duty
// outputs on a motor driver port.
package actuator

import "fmt"

// Direction is the state of a thruster's direction signal.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Port is the narrow hardware surface a thruster driver exposes.
// Channels are numbered 0-3 for the horizontal group and 4-5 for the vertical group.
type Port interface {
	SetDirection(channel int, d Direction) error
	SetDuty(channel int, duty uint32) error
}

// Output is what one channel was last driven with.
type Output struct {
	Direction Direction `json:"direction"`
	Duty      uint32    `json:"duty"`
}

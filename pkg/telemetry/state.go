// Package telemetry encodes per-cycle thruster state for publishing.
package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/open-teleop/rovcontrol/domain/control"
	"github.com/open-teleop/rovcontrol/pkg/actuator"
	fb "github.com/open-teleop/rovcontrol/pkg/flatbuffers/rov/telemetry"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// ErrMalformedState is returned when a buffer is not a ThrusterState.
var ErrMalformedState = errors.New("malformed thruster state")

// commandAxes is the number of entries in the command vector.
const commandAxes = 5

// State is the decoded form of a ThrusterState message.
type State struct {
	Sequence        uint64
	Time            time.Time
	Outcome         string
	Aux             byte
	Command         thrust.Command
	Forces          [thrust.Thrusters]float64
	RawForces       [thrust.Thrusters]float64
	HorizontalScale float64
	VerticalScale   float64
	Outputs         [thrust.Thrusters]actuator.Output
}

// Encode serializes a cycle snapshot as a ThrusterState flatbuffer.
func Encode(s control.Snapshot) []byte {
	builder := flatbuffers.NewBuilder(256)
	a := s.Allocation

	outcomeOffset := builder.CreateString(string(s.Outcome))

	cmd := [commandAxes]float64{a.Command.Fx, a.Command.Fy, a.Command.Tau, a.Command.Fz, a.Command.Tp}
	commandOffset := float64Vector(builder, fb.ThrusterStateStartCommandVector, cmd[:])

	forces := a.Forces()
	forcesOffset := float64Vector(builder, fb.ThrusterStateStartForcesVector, forces[:])

	var raw [thrust.Thrusters]float64
	copy(raw[:thrust.HorizontalThrusters], a.RawHorizontal[:])
	copy(raw[thrust.HorizontalThrusters:], a.RawVertical[:])
	rawOffset := float64Vector(builder, fb.ThrusterStateStartRawForcesVector, raw[:])

	var reverseMask byte
	fb.ThrusterStateStartDutiesVector(builder, thrust.Thrusters)
	for i := thrust.Thrusters - 1; i >= 0; i-- {
		builder.PrependUint32(s.Outputs[i].Duty)
		if s.Outputs[i].Direction == actuator.Reverse {
			reverseMask |= 1 << uint(i)
		}
	}
	dutiesOffset := builder.EndVector(thrust.Thrusters)

	fb.ThrusterStateStart(builder)
	fb.ThrusterStateAddSequence(builder, s.Sequence)
	fb.ThrusterStateAddTimestampNs(builder, s.Time.UnixNano())
	fb.ThrusterStateAddOutcome(builder, outcomeOffset)
	fb.ThrusterStateAddAux(builder, s.Aux)
	fb.ThrusterStateAddCommand(builder, commandOffset)
	fb.ThrusterStateAddForces(builder, forcesOffset)
	fb.ThrusterStateAddRawForces(builder, rawOffset)
	fb.ThrusterStateAddHorizontalScale(builder, a.HorizontalScale)
	fb.ThrusterStateAddVerticalScale(builder, a.VerticalScale)
	fb.ThrusterStateAddDuties(builder, dutiesOffset)
	fb.ThrusterStateAddReverseMask(builder, reverseMask)
	root := fb.ThrusterStateEnd(builder)

	builder.Finish(root)
	return builder.FinishedBytes()
}

func float64Vector(builder *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, values []float64) flatbuffers.UOffsetT {
	start(builder, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		builder.PrependFloat64(values[i])
	}
	return builder.EndVector(len(values))
}

// Decode parses a ThrusterState flatbuffer.
func Decode(buf []byte) (state State, err error) {
	if len(buf) < flatbuffers.SizeUOffsetT*2 {
		return State{}, fmt.Errorf("%w: %d bytes", ErrMalformedState, len(buf))
	}
	// Out-of-range offsets in a corrupt buffer panic inside the accessors.
	defer func() {
		if r := recover(); r != nil {
			state = State{}
			err = fmt.Errorf("%w: %v", ErrMalformedState, r)
		}
	}()

	msg := fb.GetRootAsThrusterState(buf, 0)
	if msg.CommandLength() != commandAxes || msg.ForcesLength() != thrust.Thrusters ||
		msg.RawForcesLength() != thrust.Thrusters || msg.DutiesLength() != thrust.Thrusters {
		return State{}, fmt.Errorf("%w: unexpected vector lengths", ErrMalformedState)
	}

	state = State{
		Sequence: msg.Sequence(),
		Time:     time.Unix(0, msg.TimestampNs()),
		Outcome:  string(msg.Outcome()),
		Aux:      msg.Aux(),
		Command: thrust.Command{
			Fx:  msg.Command(0),
			Fy:  msg.Command(1),
			Tau: msg.Command(2),
			Fz:  msg.Command(3),
			Tp:  msg.Command(4),
		},
		HorizontalScale: msg.HorizontalScale(),
		VerticalScale:   msg.VerticalScale(),
	}
	mask := msg.ReverseMask()
	for i := 0; i < thrust.Thrusters; i++ {
		state.Forces[i] = msg.Forces(i)
		state.RawForces[i] = msg.RawForces(i)
		state.Outputs[i].Duty = msg.Duties(i)
		if mask&(1<<uint(i)) != 0 {
			state.Outputs[i].Direction = actuator.Reverse
		}
	}
	return state, nil
}

// FormatForces renders forces the way the vehicle console prints them:
// "Thruster Forces: F1: 127.88 F2: ..." with two decimals.
func FormatForces(forces [thrust.Thrusters]float64) string {
	var b strings.Builder
	b.WriteString("Thruster Forces:")
	for i, f := range forces {
		fmt.Fprintf(&b, " F%d: %.2f", i+1, f)
	}
	return b.String()
}

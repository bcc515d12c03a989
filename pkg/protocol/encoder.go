package protocol

import "math"

// DefaultDeadzone is the stick dead zone used by the topside console.
const DefaultDeadzone = 0.12

// auxMask keeps the terminator value out of the aux byte.
const auxMask byte = 0x7f

// Intent is a normalized operator request, each axis in [-1, 1].
type Intent struct {
	Surge float64 `json:"surge"`
	Sway  float64 `json:"sway"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Heave float64 `json:"heave"`
	Aux   byte    `json:"aux"`
}

// Encoder builds wire frames from operator intents.
type Encoder struct {
	deadzone float64
}

// NewEncoder returns an encoder that zeroes any axis whose magnitude is not
// above deadzone.
func NewEncoder(deadzone float64) *Encoder {
	return &Encoder{deadzone: math.Abs(deadzone)}
}

// Encode returns a complete FrameLength frame, terminator included.
func (e *Encoder) Encode(in Intent) []byte {
	frame := make([]byte, FrameLength)
	axes := [OffsetSign]float64{
		OffsetSurge: in.Surge,
		OffsetSway:  in.Sway,
		OffsetPitch: in.Pitch,
		OffsetYaw:   in.Yaw,
		OffsetHeave: in.Heave,
	}

	var sign byte
	for i, v := range axes {
		q := e.quantize(v)
		if q < 0 {
			sign |= 1 << uint(i)
			q = -q
		}
		frame[i] = byte(q)
	}
	frame[OffsetSign] = sign
	frame[OffsetAux] = in.Aux & auxMask
	frame[OffsetChecksum] = Checksum(frame)
	frame[FrameLength-1] = Terminator
	return frame
}

// quantize maps v to an integer in [-254, 254], truncating toward zero.
func (e *Encoder) quantize(v float64) int {
	if math.IsNaN(v) || math.Abs(v) <= e.deadzone {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return int(float64(MaxMagnitude) * v)
}

package protocol

import (
	"fmt"

	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// AxisScales holds the target value a full-scale (254) magnitude maps to, per axis.
type AxisScales struct {
	Surge float64 `yaml:"surge" json:"surge"`
	Sway  float64 `yaml:"sway" json:"sway"`
	Yaw   float64 `yaml:"yaw" json:"yaw"`
	Heave float64 `yaml:"heave" json:"heave"`
	Pitch float64 `yaml:"pitch" json:"pitch"`
}

// DefaultAxisScales returns the per-axis factors flashed on the vehicle.
// Yaw and heave share 510, pitch uses 255; these are kept literal and not
// unified until the vehicle tuning is confirmed.
func DefaultAxisScales() AxisScales {
	return AxisScales{Surge: 1023, Sway: 1023, Yaw: 510, Heave: 510, Pitch: 255}
}

// DecoderOptions tunes frame validation.
type DecoderOptions struct {
	VerifyChecksum bool
}

// Decoder turns raw frames into commands. It holds no per-frame state.
type Decoder struct {
	scales         AxisScales
	verifyChecksum bool
}

// NewDecoder creates a decoder. Nil options skip checksum verification,
// matching the vehicle firmware.
func NewDecoder(scales AxisScales, options *DecoderOptions) *Decoder {
	d := &Decoder{scales: scales}
	if options != nil {
		d.verifyChecksum = options.VerifyChecksum
	}
	return d
}

// Scales returns the axis scales the decoder was built with.
func (d *Decoder) Scales() AxisScales { return d.scales }

// Decode builds a command from bytes 0..5 of raw. Anything from the first
// terminator on is ignored, so a terminator inside the payload leaves the frame
// short. Short input yields ErrIncompleteFrame and a zero command.
func (d *Decoder) Decode(raw []byte) (thrust.Command, error) {
	raw = Trim(raw)
	if len(raw) < PayloadLength {
		return thrust.Command{}, fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteFrame, len(raw), PayloadLength)
	}
	if d.verifyChecksum {
		if err := verify(raw); err != nil {
			return thrust.Command{}, err
		}
	}

	sign := raw[OffsetSign]
	return thrust.Command{
		Fx:  axis(raw[OffsetSurge], sign&SignSurge, d.scales.Surge),
		Fy:  axis(raw[OffsetSway], sign&SignSway, d.scales.Sway),
		Tau: axis(raw[OffsetYaw], sign&SignYaw, d.scales.Yaw),
		Fz:  axis(raw[OffsetHeave], sign&SignHeave, d.scales.Heave),
		Tp:  axis(raw[OffsetPitch], sign&SignPitch, d.scales.Pitch),
	}, nil
}

// verify checks the XOR checksum of a trimmed frame. A checksum equal to the
// terminator ends the frame itself, so seven bytes whose XOR is 255 are whole.
func verify(raw []byte) error {
	sum := Checksum(raw)
	switch {
	case len(raw) == OffsetChecksum && sum == Terminator:
		return nil
	case len(raw) < ChecksummedLength:
		return fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteFrame, len(raw), ChecksummedLength)
	case sum != raw[OffsetChecksum]:
		return fmt.Errorf("%w: want %#02x, got %#02x", ErrChecksumMismatch, sum, raw[OffsetChecksum])
	}
	return nil
}

func axis(mag, negate byte, target float64) float64 {
	v := float64(mag) / float64(MaxMagnitude) * target
	if negate != 0 {
		return -v
	}
	return v
}

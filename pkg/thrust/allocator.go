package thrust

import (
	"errors"
	"fmt"
)

// ErrInvalidLimit is returned for a non-positive saturation limit.
var ErrInvalidLimit = errors.New("saturation limit must be positive")

// Allocation is the result of one control cycle: the command that was mixed,
// the raw mixer outputs and the saturated per-thruster forces.
type Allocation struct {
	Command         Command                      `json:"command"`
	RawHorizontal   [HorizontalThrusters]float64 `json:"raw_horizontal"`
	RawVertical     [VerticalThrusters]float64   `json:"raw_vertical"`
	Horizontal      [HorizontalThrusters]float64 `json:"horizontal"`
	Vertical        [VerticalThrusters]float64   `json:"vertical"`
	HorizontalScale float64                      `json:"horizontal_scale"`
	VerticalScale   float64                      `json:"vertical_scale"`
}

// Forces returns the saturated forces in channel order H1..H4, V1, V2.
func (a Allocation) Forces() [Thrusters]float64 {
	var out [Thrusters]float64
	copy(out[:HorizontalThrusters], a.Horizontal[:])
	copy(out[HorizontalThrusters:], a.Vertical[:])
	return out
}

// Allocator holds the immutable mixing configuration. It is safe for
// concurrent use because nothing in it changes after construction.
type Allocator struct {
	horizontal      HorizontalMatrix
	vertical        VerticalMatrix
	horizontalLimit float64
	verticalLimit   float64
}

// NewAllocator validates the limits and returns an allocator.
func NewAllocator(h HorizontalMatrix, v VerticalMatrix, horizontalLimit, verticalLimit float64) (*Allocator, error) {
	if !(horizontalLimit > 0) {
		return nil, fmt.Errorf("horizontal: %w (got %v)", ErrInvalidLimit, horizontalLimit)
	}
	if !(verticalLimit > 0) {
		return nil, fmt.Errorf("vertical: %w (got %v)", ErrInvalidLimit, verticalLimit)
	}
	return &Allocator{
		horizontal:      h,
		vertical:        v,
		horizontalLimit: horizontalLimit,
		verticalLimit:   verticalLimit,
	}, nil
}

// Allocate mixes cmd through both matrices and saturates each group independently.
func (a *Allocator) Allocate(cmd Command) Allocation {
	out := Allocation{
		Command:       cmd,
		RawHorizontal: MixHorizontal(a.horizontal, cmd.Horizontal()),
		RawVertical:   MixVertical(a.vertical, cmd.Vertical()),
	}
	out.Horizontal = out.RawHorizontal
	out.Vertical = out.RawVertical
	out.HorizontalScale = Saturate(out.Horizontal[:], a.horizontalLimit)
	out.VerticalScale = Saturate(out.Vertical[:], a.verticalLimit)
	return out
}

// HorizontalLimit returns the horizontal group saturation limit.
func (a *Allocator) HorizontalLimit() float64 { return a.horizontalLimit }

// VerticalLimit returns the vertical group saturation limit.
func (a *Allocator) VerticalLimit() float64 { return a.verticalLimit }

// HorizontalMatrix returns the horizontal mixing matrix.
func (a *Allocator) HorizontalMatrix() HorizontalMatrix { return a.horizontal }

// VerticalMatrix returns the vertical mixing matrix.
func (a *Allocator) VerticalMatrix() VerticalMatrix { return a.vertical }

package thrust

import "github.com/go-gl/mathgl/mgl64"

// Thruster group sizes. Channel order inside each group is fixed: H1..H4 are
// front-right, front-left, back-right, back-left; V1, V2 are fore and aft.
const (
	HorizontalThrusters = 4
	VerticalThrusters   = 2
	Thrusters           = HorizontalThrusters + VerticalThrusters
)

// MixHorizontal multiplies (Fx, Fy, Tau) through the horizontal matrix.
// The result is unclamped.
func MixHorizontal(m HorizontalMatrix, in [3]float64) [HorizontalThrusters]float64 {
	return [HorizontalThrusters]float64(m.m.Mul3x1(mgl64.Vec3(in)))
}

// MixVertical multiplies (Fz, Tp) through the vertical matrix.
// The result is unclamped.
func MixVertical(m VerticalMatrix, in [2]float64) [VerticalThrusters]float64 {
	return [VerticalThrusters]float64(m.m.Mul2x1(mgl64.Vec2(in)))
}

package thrust

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrMatrixShape is returned when a configured mixing matrix has the wrong dimensions.
var ErrMatrixShape = errors.New("mixing matrix has wrong shape")

// HorizontalMatrix maps (Fx, Fy, Tau) onto the four horizontal thrusters.
type HorizontalMatrix struct {
	m mgl64.Mat4x3
}

// VerticalMatrix maps (Fz, Tp) onto the two vertical thrusters.
type VerticalMatrix struct {
	m mgl64.Mat2
}

// DefaultHorizontalRows is the pseudoinverse of the FR/FL/BR/BL vectored layout.
var DefaultHorizontalRows = [][]float64{
	{0.25, 0.25, 0.5},
	{0.25, -0.25, -0.5},
	{-0.25, 0.25, -0.5},
	{-0.25, -0.25, 0.5},
}

// DefaultVerticalRows is the pseudoinverse of the fore/aft vertical pair.
var DefaultVerticalRows = [][]float64{
	{0.5, 1},
	{0.5, -1},
}

// NewHorizontalMatrix builds the horizontal mixing matrix from row-major coefficients.
// It must be called once at startup; a shape mismatch is a configuration error.
func NewHorizontalMatrix(rows [][]float64) (HorizontalMatrix, error) {
	if err := checkShape(rows, HorizontalThrusters, 3); err != nil {
		return HorizontalMatrix{}, fmt.Errorf("horizontal: %w", err)
	}
	m := mgl64.Mat4x3FromRows(
		mgl64.Vec3{rows[0][0], rows[0][1], rows[0][2]},
		mgl64.Vec3{rows[1][0], rows[1][1], rows[1][2]},
		mgl64.Vec3{rows[2][0], rows[2][1], rows[2][2]},
		mgl64.Vec3{rows[3][0], rows[3][1], rows[3][2]},
	)
	return HorizontalMatrix{m: m}, nil
}

// NewVerticalMatrix builds the vertical mixing matrix from row-major coefficients.
func NewVerticalMatrix(rows [][]float64) (VerticalMatrix, error) {
	if err := checkShape(rows, VerticalThrusters, 2); err != nil {
		return VerticalMatrix{}, fmt.Errorf("vertical: %w", err)
	}
	m := mgl64.Mat2FromRows(
		mgl64.Vec2{rows[0][0], rows[0][1]},
		mgl64.Vec2{rows[1][0], rows[1][1]},
	)
	return VerticalMatrix{m: m}, nil
}

func checkShape(rows [][]float64, nRows, nCols int) error {
	if len(rows) != nRows {
		return fmt.Errorf("%w: want %d rows, got %d", ErrMatrixShape, nRows, len(rows))
	}
	for i, r := range rows {
		if len(r) != nCols {
			return fmt.Errorf("%w: row %d wants %d columns, got %d", ErrMatrixShape, i, nCols, len(r))
		}
	}
	return nil
}

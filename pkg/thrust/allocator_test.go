package thrust

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func defaultAllocator(t *testing.T) *Allocator {
	h, err := NewHorizontalMatrix(DefaultHorizontalRows)
	if err != nil {
		t.Fatalf("horizontal matrix: %v", err)
	}
	v, err := NewVerticalMatrix(DefaultVerticalRows)
	if err != nil {
		t.Fatalf("vertical matrix: %v", err)
	}
	a, err := NewAllocator(h, v, 255, 255)
	if err != nil {
		t.Fatalf("allocator: %v", err)
	}
	return a
}

func TestMatrixShape(t *testing.T) {
	Convey("matrices are validated once at construction", t, func() {
		Convey("the default rows are accepted and round trip", func() {
			h, err := NewHorizontalMatrix(DefaultHorizontalRows)
			So(err, ShouldBeNil)
			So(h.rows(), ShouldResemble, DefaultHorizontalRows)
			So(h.m.At(1, 2), ShouldEqual, -0.5)

			v, err := NewVerticalMatrix(DefaultVerticalRows)
			So(err, ShouldBeNil)
			So(v.rows(), ShouldResemble, DefaultVerticalRows)
		})

		Convey("a missing row is rejected", func() {
			_, err := NewHorizontalMatrix(DefaultHorizontalRows[:3])
			So(errors.Is(err, ErrMatrixShape), ShouldBeTrue)
		})

		Convey("a short row is rejected", func() {
			_, err := NewVerticalMatrix([][]float64{{0.5, 1}, {0.5}})
			So(errors.Is(err, ErrMatrixShape), ShouldBeTrue)
		})
	})
}

func TestMixers(t *testing.T) {
	h, _ := NewHorizontalMatrix(DefaultHorizontalRows)
	v, _ := NewVerticalMatrix(DefaultVerticalRows)

	Convey("horizontal mix is a plain matrix-vector product", t, func() {
		out := MixHorizontal(h, [3]float64{511.5, 0, 0})
		So(out, ShouldResemble, [4]float64{127.875, 127.875, -127.875, -127.875})

		out = MixHorizontal(h, [3]float64{0, 0, 100})
		So(out, ShouldResemble, [4]float64{50, -50, -50, 50})
	})

	Convey("vertical mix is a plain matrix-vector product", t, func() {
		out := MixVertical(v, [2]float64{510, 0})
		So(out, ShouldResemble, [2]float64{255, 255})

		out = MixVertical(v, [2]float64{0, 100})
		So(out, ShouldResemble, [2]float64{100, -100})
	})

	Convey("mixing is linear", t, func() {
		v1 := Command{Fx: 120, Fy: -33, Tau: 17.5, Fz: 80, Tp: -12}
		v2 := Command{Fx: -7, Fy: 400, Tau: -90, Fz: -3, Tp: 55}
		a, b := 0.75, -2.0

		combined := v1.scale(a).add(v2.scale(b))
		lhsH := MixHorizontal(h, combined.Horizontal())
		h1 := MixHorizontal(h, v1.Horizontal())
		h2 := MixHorizontal(h, v2.Horizontal())
		for i := range lhsH {
			So(lhsH[i], ShouldAlmostEqual, a*h1[i]+b*h2[i], 1e-9)
		}

		lhsV := MixVertical(v, combined.Vertical())
		w1 := MixVertical(v, v1.Vertical())
		w2 := MixVertical(v, v2.Vertical())
		for i := range lhsV {
			So(lhsV[i], ShouldAlmostEqual, a*w1[i]+b*w2[i], 1e-9)
		}
	})
}

func TestSaturate(t *testing.T) {
	Convey("saturation scales a group uniformly", t, func() {
		Convey("an over-limit group is scaled by limit/max", func() {
			in := []float64{300, -150, 600, 0}
			forces := append([]float64(nil), in...)
			k := Saturate(forces, 255)

			So(k, ShouldEqual, 255.0/600.0)
			for i := range in {
				So(forces[i], ShouldEqual, in[i]*(255.0/600.0))
			}
			So(MaxAbs(forces), ShouldAlmostEqual, 255, 1e-9)
			// proportions are preserved
			So(forces[0]/forces[2], ShouldAlmostEqual, 0.5, 1e-12)
			So(forces[1]/forces[2], ShouldAlmostEqual, -0.25, 1e-12)
		})

		Convey("a negative peak is handled by magnitude", func() {
			forces := []float64{-1000, 10}
			Saturate(forces, 255)
			So(forces[0], ShouldAlmostEqual, -255, 1e-9)
			So(forces[1], ShouldAlmostEqual, 2.55, 1e-9)
		})

		Convey("a within-limit group is returned untouched", func() {
			in := []float64{255, -254.9, 3, 0}
			forces := append([]float64(nil), in...)
			k := Saturate(forces, 255)
			So(k, ShouldEqual, 1)
			So(forces, ShouldResemble, in)
		})

		Convey("an all-zero group stays zero for any limit", func() {
			for _, limit := range []float64{255, 1, 1e-9} {
				forces := []float64{0, 0, 0, 0}
				k := Saturate(forces, limit)
				So(k, ShouldEqual, 1)
				So(forces, ShouldResemble, []float64{0, 0, 0, 0})
				for _, f := range forces {
					So(math.IsNaN(f), ShouldBeFalse)
				}
			}
		})
	})
}

func TestAllocate(t *testing.T) {
	a := defaultAllocator(t)

	Convey("surge only stays within limit", t, func() {
		out := a.Allocate(Command{Fx: 511.5})
		So(out.RawHorizontal, ShouldResemble, [4]float64{127.875, 127.875, -127.875, -127.875})
		So(out.Horizontal, ShouldResemble, out.RawHorizontal)
		So(out.HorizontalScale, ShouldEqual, 1)
		So(out.Vertical, ShouldResemble, [2]float64{0, 0})
	})

	Convey("full surge and sway saturates the horizontal group", t, func() {
		out := a.Allocate(Command{Fx: 1023, Fy: 1023})
		So(out.RawHorizontal, ShouldResemble, [4]float64{511.5, 0, 0, -511.5})
		So(out.HorizontalScale, ShouldAlmostEqual, 255/511.5, 1e-12)
		So(out.Horizontal[0], ShouldAlmostEqual, 255, 1e-9)
		So(out.Horizontal[1], ShouldEqual, 0)
		So(out.Horizontal[2], ShouldEqual, 0)
		So(out.Horizontal[3], ShouldAlmostEqual, -255, 1e-9)
		So(MaxAbs(out.Horizontal[:]), ShouldAlmostEqual, 255, 1e-9)
	})

	Convey("groups saturate independently", t, func() {
		out := a.Allocate(Command{Fx: 1023, Fy: 1023, Fz: 100})
		So(out.VerticalScale, ShouldEqual, 1)
		So(out.Vertical, ShouldResemble, [2]float64{50, 50})

		out = a.Allocate(Command{Fx: 10, Fz: 510, Tp: 255})
		So(out.HorizontalScale, ShouldEqual, 1)
		So(out.Horizontal, ShouldResemble, [4]float64{2.5, 2.5, -2.5, -2.5})
		So(out.RawVertical, ShouldResemble, [2]float64{510, 0})
		So(out.Vertical[0], ShouldAlmostEqual, 255, 1e-9)
	})

	Convey("allocation is reproducible", t, func() {
		cmd := Command{Fx: -812.3, Fy: 77, Tau: 301, Fz: -400, Tp: 12}
		So(a.Allocate(cmd), ShouldResemble, a.Allocate(cmd))
	})

	Convey("forces are reported in channel order", t, func() {
		out := a.Allocate(Command{Fx: 511.5, Fz: 100})
		So(out.Forces(), ShouldResemble, [6]float64{127.875, 127.875, -127.875, -127.875, 50, 50})
	})

	Convey("limits must be positive", t, func() {
		h, _ := NewHorizontalMatrix(DefaultHorizontalRows)
		v, _ := NewVerticalMatrix(DefaultVerticalRows)
		_, err := NewAllocator(h, v, 0, 255)
		So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
		_, err = NewAllocator(h, v, 255, math.NaN())
		So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
	})
}

func BenchmarkAllocate(b *testing.B) {
	h, _ := NewHorizontalMatrix(DefaultHorizontalRows)
	v, _ := NewVerticalMatrix(DefaultVerticalRows)
	a, _ := NewAllocator(h, v, 255, 255)
	cmd := Command{Fx: 1023, Fy: 1023, Tau: 510, Fz: 510, Tp: 255}

	for n := 0; n < b.N; n++ {
		a.Allocate(cmd)
	}
}

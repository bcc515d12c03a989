package thrust

import "math"

// MaxAbs returns the largest absolute value in forces, or 0 for an empty set.
func MaxAbs(forces []float64) float64 {
	var max float64
	for _, f := range forces {
		if a := math.Abs(f); a > max {
			max = a
		}
	}
	return max
}

// Saturate scales the whole group in place by limit/max when its largest
// magnitude exceeds limit, so every thruster keeps its share of the commanded
// direction. It returns the factor applied (1 when untouched).
//
// A group whose largest magnitude is zero is left as is.
func Saturate(forces []float64, limit float64) float64 {
	max := MaxAbs(forces)
	if max == 0 || max <= limit {
		return 1
	}
	k := limit / max
	for i := range forces {
		forces[i] *= k
	}
	return k
}

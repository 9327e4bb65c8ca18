package eutelescope

import (
	"math"

	"golang.org/x/exp/slices"
)

// SolveQuadratic returns the real roots of a*x^2 + b*x + c in descending
// order. A vanishing a is solved as linear and its root returned twice.
// Without real roots the result is empty.
func SolveQuadratic(a float64, b float64, c float64) []float64 {
	if math.Abs(a) <= 1e-10 {
		root := -c / b
		return []float64{root, root}
	}
	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		err := &ErrInvalidGeometry{Discriminant: discriminant}
		logger.Warn(err.Error(), "numeric")
		return []float64{}
	}
	sqrtD := math.Sqrt(discriminant)
	x1 := (-b + sqrtD) / (2 * a)
	x2 := (-b - sqrtD) / (2 * a)
	return []float64{max(x1, x2), min(x1, x2)}
}

// Median of values, or -999 when there are none. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return -999
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Curvature of a track with transverse momentum pt [GeV] and charge q [e] in
// a field b [T], in 1/m.
func Curvature(pt float64, b float64, q float64) float64 {
	if pt <= 0 {
		return 0
	}
	return 0.299792458 * q * b / pt
}

// ThetaRMSHighland is the multiple scattering angle for momentum p [GeV]
// through x radiation lengths. p and x must be positive.
func ThetaRMSHighland(p float64, x float64) float64 {
	return (0.0136 * math.Sqrt(x) / p) * (1 + 0.038*math.Log(x))
}

package eutelescope

import (
	"math"
	"math/big"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const extendedPrecision = 64

// product multiplies the factors with a 64 bit mantissa.
func product(factors ...float64) *big.Float {
	p := new(big.Float).SetPrec(extendedPrecision).SetFloat64(1)
	for _, f := range factors {
		p.Mul(p, new(big.Float).SetPrec(extendedPrecision).SetFloat64(f))
	}
	return p
}

// entry adds the first term and subtracts the others, rounding once.
func entry(first *big.Float, subtracted ...*big.Float) float64 {
	s := new(big.Float).SetPrec(extendedPrecision).Set(first)
	for _, term := range subtracted {
		s.Sub(s, term)
	}
	v, _ := s.Float64()
	return v
}

func neg(f *big.Float) *big.Float {
	return new(big.Float).SetPrec(extendedPrecision).Neg(f)
}

// RotationMatrixFromAngles builds the rotation applying gamma around Z, then
// alpha around X, then beta around Y. Sines and cosines are float64 values;
// only their products and sums are carried with a 64 bit mantissa, so entries
// can differ from a long double evaluation in the last bit.
func RotationMatrixFromAngles(alpha float64, beta float64, gamma float64) *mat.Dense {
	cosA, sinA := math.Cos(alpha), math.Sin(alpha)
	cosB, sinB := math.Cos(beta), math.Sin(beta)
	cosG, sinG := math.Cos(gamma), math.Sin(gamma)

	return mat.NewDense(3, 3, []float64{
		entry(product(cosB, cosG), neg(product(sinA, sinB, sinG))),
		entry(product(sinA, sinB, cosG), product(cosB, sinG)),
		entry(product(cosA, sinB)),

		entry(product(cosA, sinG)),
		entry(product(cosA, cosG)),
		-sinA,

		entry(product(sinA, cosB, sinG), product(sinB, cosG)),
		entry(product(sinA, cosB, cosG), neg(product(sinB, sinG))),
		entry(product(cosA, cosB)),
	})
}

// RotationAnglesFromMatrix inverts RotationMatrixFromAngles. At gimbal lock
// (|R12| = 1) gamma is fixed to 0 and the whole in-plane rotation goes to beta.
func RotationAnglesFromMatrix(m mat.Matrix) (alpha float64, beta float64, gamma float64) {
	r := m.At(1, 2)
	if r < 1 {
		if r > -1 {
			alpha = math.Asin(-r)
			beta = math.Atan2(m.At(0, 2), m.At(2, 2))
			gamma = math.Atan2(m.At(1, 0), m.At(1, 1))
			return alpha, beta, gamma
		}
		return math.Pi / 2, -math.Atan2(-m.At(0, 1), m.At(0, 0)), 0
	}
	return -math.Pi / 2, math.Atan2(-m.At(0, 1), m.At(0, 0)), 0
}

// SetPrecision returns a copy of m with the entries smaller than mod in
// magnitude set to zero.
func SetPrecision(m mat.Matrix, mod float64) *mat.Dense {
	out := mat.DenseCopyOf(m)
	out.Apply(func(_, _ int, v float64) float64 {
		if math.Abs(v) < mod {
			return 0
		}
		return v
	}, out)
	return out
}

// AlignmentConstant places one sensor: local positions are rotated and then shifted.
type AlignmentConstant struct {
	SensorID int
	Shift    r3.Vec
	Alpha    float64
	Beta     float64
	Gamma    float64
}

func (a AlignmentConstant) Rotation() *mat.Dense {
	return RotationMatrixFromAngles(a.Alpha, a.Beta, a.Gamma)
}

func (a AlignmentConstant) Apply(local r3.Vec) r3.Vec {
	var rotated mat.VecDense
	rotated.MulVec(a.Rotation(), mat.NewVecDense(3, []float64{local.X, local.Y, local.Z}))
	return r3.Add(r3.Vec{X: rotated.AtVec(0), Y: rotated.AtVec(1), Z: rotated.AtVec(2)}, a.Shift)
}

// ShiftHitPosition moves pos by minus the x and y residuals.
func ShiftHitPosition(pos [3]float64, residual [2]float64) [3]float32 {
	return [3]float32{
		float32(pos[0] - residual[0]),
		float32(pos[1] - residual[1]),
		float32(pos[2]),
	}
}

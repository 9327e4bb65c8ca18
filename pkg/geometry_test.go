package eutelescope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func elementaryRotations(alpha float64, beta float64, gamma float64) *mat.Dense {
	cosA, sinA := math.Cos(alpha), math.Sin(alpha)
	cosB, sinB := math.Cos(beta), math.Sin(beta)
	cosG, sinG := math.Cos(gamma), math.Sin(gamma)
	rotZ := mat.NewDense(3, 3, []float64{cosG, -sinG, 0, sinG, cosG, 0, 0, 0, 1})
	rotX := mat.NewDense(3, 3, []float64{1, 0, 0, 0, cosA, -sinA, 0, sinA, cosA})
	rotY := mat.NewDense(3, 3, []float64{cosB, 0, sinB, 0, 1, 0, -sinB, 0, cosB})

	var yx, yxz mat.Dense
	yx.Mul(rotY, rotX)
	yxz.Mul(&yx, rotZ)
	return &yxz
}

func TestRotationMatrixFromAngles(t *testing.T) {
	rotation := RotationMatrixFromAngles(0.1, 0.2, 0.3)

	want := mat.NewDense(3, 3, []float64{
		0.942154663511368, -0.270681488391903, 0.197676811654084,
		0.294043836551856, 0.950563785922063, -0.099833416646828,
		-0.160881360665696, 0.152184167164188, 0.975170327201816,
	})
	assert.True(t, mat.EqualApprox(want, rotation, 1e-9), "got\n%v", mat.Formatted(rotation))
	assert.True(t, mat.EqualApprox(elementaryRotations(0.1, 0.2, 0.3), rotation, 1e-12))

	// Orthonormal.
	var product mat.Dense
	product.Mul(rotation.T(), rotation)
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	assert.True(t, mat.EqualApprox(identity, &product, 1e-12))
	assert.InDelta(t, 1.0, mat.Det(rotation), 1e-12)
}

func TestRotationAnglesRoundTrip(t *testing.T) {
	angles := [][3]float64{
		{0.1, 0.2, 0.3},
		{-0.4, 1.2, -2.5},
		{0, 0, 0},
		{1.5, -3, 3},
	}
	for _, a := range angles {
		alpha, beta, gamma := RotationAnglesFromMatrix(RotationMatrixFromAngles(a[0], a[1], a[2]))
		assert.InDelta(t, a[0], alpha, 1e-6)
		assert.InDelta(t, a[1], beta, 1e-6)
		assert.InDelta(t, a[2], gamma, 1e-6)
	}
}

func TestRotationAnglesGimbalLock(t *testing.T) {
	t.Run("R12 = -1", func(t *testing.T) {
		rotation := RotationMatrixFromAngles(math.Pi/2, 0.7, 0.2)
		rotation.Set(1, 2, -1)
		alpha, beta, gamma := RotationAnglesFromMatrix(rotation)
		assert.Equal(t, math.Pi/2, alpha)
		assert.Equal(t, 0.0, gamma)
		assert.Equal(t, -math.Atan2(-rotation.At(0, 1), rotation.At(0, 0)), beta)
		assert.InDelta(t, 0.5, beta, 1e-9)
	})

	t.Run("R12 = 1", func(t *testing.T) {
		rotation := RotationMatrixFromAngles(-math.Pi/2, 0.7, 0.2)
		rotation.Set(1, 2, 1)
		alpha, beta, gamma := RotationAnglesFromMatrix(rotation)
		assert.Equal(t, -math.Pi/2, alpha)
		assert.Equal(t, 0.0, gamma)
		assert.Equal(t, math.Atan2(-rotation.At(0, 1), rotation.At(0, 0)), beta)
	})
}

func TestSetPrecision(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1e-12, 0.5, -1e-13, -0.25})
	rounded := SetPrecision(m, 1e-10)
	assert.Equal(t, []float64{0, 0.5, 0, -0.25}, rounded.RawMatrix().Data)
	assert.Equal(t, 1e-12, m.At(0, 0))
}

func TestAlignmentConstantApply(t *testing.T) {
	constant := AlignmentConstant{
		SensorID: 3,
		Shift:    r3.Vec{X: 1, Y: 2, Z: 150},
		Gamma:    math.Pi / 2,
	}
	global := constant.Apply(r3.Vec{X: 1, Y: 0, Z: 0})
	assert.InDelta(t, 1.0, global.X, 1e-12)
	assert.InDelta(t, 3.0, global.Y, 1e-12)
	assert.InDelta(t, 150.0, global.Z, 1e-12)

	identity := AlignmentConstant{}
	require.Equal(t, r3.Vec{X: 4, Y: 5, Z: 6}, identity.Apply(r3.Vec{X: 4, Y: 5, Z: 6}))
}

func TestShiftHitPosition(t *testing.T) {
	shifted := ShiftHitPosition([3]float64{1.5, -2, 30}, [2]float64{0.5, -1})
	assert.Equal(t, [3]float32{1, -1, 30}, shifted)
}

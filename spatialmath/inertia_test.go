package spatialmath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"
)

func TestRigidBodyInertia(t *testing.T) {
	com := mgl64.Vec3{0.1, 0, -0.2}
	atCOM := mgl64.Diag3(mgl64.Vec3{0.01, 0.02, 0.03})
	in := NewRigidBodyInertia(2, com, atCOM)

	test.That(t, VecAlmostEqual(in.COM(), com, 1e-12), test.ShouldBeTrue)
	// parallel axis: Ixx about the origin gains m*(cy^2 + cz^2)
	test.That(t, in.Rotational.At(0, 0), test.ShouldAlmostEqual, 0.01+2*0.04, 1e-12)
	test.That(t, in.Rotational.At(0, 2), test.ShouldAlmostEqual, 2*0.1*0.2, 1e-12)

	test.That(t, RigidBodyInertia{}.COM(), test.ShouldResemble, mgl64.Vec3{})

	params := make([]float64, NumInertialParams)
	in.Parameters(params)
	test.That(t, params[0], test.ShouldEqual, 2.)
	test.That(t, params[1], test.ShouldAlmostEqual, 0.2, 1e-12)
	test.That(t, params[3], test.ShouldAlmostEqual, -0.4, 1e-12)
	test.That(t, params[9], test.ShouldAlmostEqual, in.Rotational.At(2, 2), 1e-12)
}

func TestGravitoInertialWrench(t *testing.T) {
	in := NewRigidBodyInertia(3, mgl64.Vec3{0, 0.5, 0}, mgl64.Ident3().Mul(0.1))

	t.Run("static in gravity", func(t *testing.T) {
		a := Twist{Linear: mgl64.Vec3{0, 0, 9.81}}
		w := in.GravitoInertialWrench(Twist{}, a)
		test.That(t, VecAlmostEqual(w.Force, mgl64.Vec3{0, 0, 3 * 9.81}, 1e-12), test.ShouldBeTrue)
		// torque about the origin of the weight support acting at the COM
		test.That(t, VecAlmostEqual(w.Torque, mgl64.Vec3{0.5 * 3 * 9.81, 0, 0}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("inertia product matrix", func(t *testing.T) {
		w := mgl64.Vec3{0.3, -0.7, 1.2}
		params := make([]float64, NumInertialParams)
		in.Parameters(params)
		l := InertiaProductMatrix(w)
		expected := in.Rotational.Mul3x1(w)
		for row := 0; row < 3; row++ {
			var sum float64
			for col := 0; col < 6; col++ {
				sum += l[row][col] * params[4+col]
			}
			test.That(t, sum, test.ShouldAlmostEqual, expected[row], 1e-12)
		}
	})
}

package dynamics

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/kinematics"
	"go.viam.com/dyntree/logging"
	"go.viam.com/dyntree/spatialmath"
)

func armParts() []kinematics.PartConfig {
	return []kinematics.PartConfig{
		{Name: "arm", Links: []string{"upper", "fore", "hand"}, DOFs: []string{"j0", "j1", "j2"}},
		{Name: "body", Links: []string{"torso", "hip", "leg"}, DOFs: []string{"j3"}},
	}
}

// expectedCOM sums over links the way the definition reads, from poses alone.
func expectedCOM(t *testing.T, e *Engine, links []int) mgl64.Vec3 {
	t.Helper()
	var mass float64
	var sum mgl64.Vec3
	for _, l := range links {
		in := e.Topology().Links[l].Inertia
		x, err := e.Position(l)
		test.That(t, err, test.ShouldBeNil)
		mass += in.Mass
		sum = sum.Add(x.TransformPoint(in.COM()).Mul(in.Mass))
	}
	return sum.Mul(1 / mass)
}

func TestCOM(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	e := newArm(t, nil, "torso", Options{Parts: armParts()})

	_, err := e.COM("")
	test.That(t, err, test.ShouldEqual, ErrCOMNotComputed)

	for trial := 0; trial < 5; trial++ {
		randomState(t, e, rnd)
		e.ComputeCOM()
		test.That(t, e.Phase(), test.ShouldEqual, PositionsComputed)

		for _, tc := range []struct {
			part  string
			links []int
		}{
			{"", []int{0, 1, 2, 3, 4, 5}},
			{"arm", []int{1, 2, 3}},
			{"body", []int{0, 4, 5}},
		} {
			com, err := e.COM(tc.part)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, spatialmath.VecAlmostEqual(spatialmath.R3ToVec(com), expectedCOM(t, e, tc.links), 1e-12), test.ShouldBeTrue)
		}
	}

	_, err = e.COM("tail")
	test.That(t, err, test.ShouldBeError, NewPartNotFoundError("tail"))
	_, err = e.SetAng(make([]float64, 4), "")
	test.That(t, err, test.ShouldBeNil)
	_, err = e.COM("")
	test.That(t, err, test.ShouldEqual, ErrCOMNotComputed)
}

func TestCOMZeroMass(t *testing.T) {
	m := armModel()
	for i := range m.Links {
		if m.Links[i].ID == "hand" {
			m.Links[i].Mass = 0
		}
	}
	e, err := NewEngine(m, nil, "torso", Options{Parts: []kinematics.PartConfig{
		{Name: "hand", Links: []string{"hand"}, DOFs: []string{"j2"}},
		{Name: "rest", Links: []string{"torso", "upper", "fore", "hip", "leg"}, DOFs: []string{"j0", "j1", "j3"}},
	}}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	e.ComputeCOM()
	_, err = e.COM("hand")
	test.That(t, err, test.ShouldEqual, ErrZeroMass)
	_, err = e.COM("rest")
	test.That(t, err, test.ShouldBeNil)

	test.That(t, e.ComputeCOMJacobian(), test.ShouldBeNil)
	var j mat.Dense
	test.That(t, e.COMJacobian(&j, "hand"), test.ShouldEqual, ErrZeroMass)
	test.That(t, e.COMJacobian(&j, "rest"), test.ShouldBeNil)
}

func TestCOMJacobianFiniteDifference(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	e := newArm(t, nil, "torso", Options{Parts: armParts()})
	q := randomVector(rnd, 4, 1.2)
	_, err := e.SetAng(q, "")
	test.That(t, err, test.ShouldBeNil)

	var whole, arm mat.Dense
	test.That(t, e.COMJacobian(&whole, ""), test.ShouldEqual, ErrCOMNotComputed)
	test.That(t, e.ComputeCOMJacobian(), test.ShouldBeNil)
	test.That(t, e.COMJacobian(&whole, ""), test.ShouldBeNil)
	test.That(t, e.COMJacobian(&arm, "arm"), test.ShouldBeNil)
	test.That(t, e.COMJacobian(&arm, "tail"), test.ShouldBeError, NewPartNotFoundError("tail"))

	const h = 1e-6
	comAt := func(q []float64, part string) mgl64.Vec3 {
		_, err := e.SetAng(q, "")
		test.That(t, err, test.ShouldBeNil)
		e.ComputeCOM()
		com, err := e.COM(part)
		test.That(t, err, test.ShouldBeNil)
		return spatialmath.R3ToVec(com)
	}
	for _, tc := range []struct {
		part string
		j    *mat.Dense
	}{
		{"", &whole},
		{"arm", &arm},
	} {
		t.Run(tc.part, func(t *testing.T) {
			// translating the base moves the center of mass one for one
			test.That(t, mat.EqualApprox(tc.j.Slice(0, 3, 0, 3), eye(3), 1e-12), test.ShouldBeTrue)
			for dof := 0; dof < 4; dof++ {
				plus, minus := append([]float64{}, q...), append([]float64{}, q...)
				plus[dof] += h
				minus[dof] -= h
				fd := comAt(plus, tc.part).Sub(comAt(minus, tc.part)).Mul(1 / (2 * h))
				col := mgl64.Vec3{tc.j.At(0, 6+dof), tc.j.At(1, 6+dof), tc.j.At(2, 6+dof)}
				test.That(t, spatialmath.VecAlmostEqual(col, fd, 1e-6), test.ShouldBeTrue)
			}
		})
	}
	// the body part does not move with the arm joints
	test.That(t, e.ComputeCOMJacobian(), test.ShouldBeNil)
	var body mat.Dense
	test.That(t, e.COMJacobian(&body, "body"), test.ShouldBeNil)
	for _, name := range []string{"j0", "j1", "j2"} {
		col := body.ColView(6 + e.DOFIndex(name))
		test.That(t, mat.Norm(col, 2), test.ShouldEqual, 0)
	}

	test.That(t, e.COMJacobian(mat.NewDense(3, 10, nil), ""), test.ShouldNotBeNil)
}

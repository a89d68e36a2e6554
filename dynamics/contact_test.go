package dynamics

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/dyntree/logging"
	"go.viam.com/dyntree/spatialmath"
)

func r3AlmostEqual(a r3.Vector, b mgl64.Vec3, tol float64) bool {
	return spatialmath.VecAlmostEqual(spatialmath.R3ToVec(a), b, tol)
}

func TestExactContactRecovery(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	e := newArm(t, nil, "torso", Options{})
	p := mgl64.Vec3{0.05, 0.02, -0.01}
	test.That(t, e.SetContacts([]Contact{{Link: 3, Point: spatialmath.VecToR3(p), Type: ContactFull}}), test.ShouldBeNil)

	for trial := 0; trial < 3; trial++ {
		staticState(t, e, randomVector(rnd, 4, 1.5))
		e.KinematicRNEA()
		test.That(t, e.EstimateContactForces(), test.ShouldBeNil)

		e.ComputeCOM()
		com, err := e.COM("")
		test.That(t, err, test.ShouldBeNil)
		var mass float64
		for _, l := range e.Topology().Links {
			mass += l.Inertia.Mass
		}
		g := mgl64.Vec3{0, 0, gravity}
		hand := must(e.Position(3))
		at := hand.TransformPoint(p)
		force := g.Mul(mass)
		moment := spatialmath.R3ToVec(com).Mul(mass).Cross(g).Sub(at.Cross(force))
		rt := hand.Rotation.Transpose()

		contacts := e.Contacts()
		test.That(t, len(contacts), test.ShouldEqual, 1)
		test.That(t, r3AlmostEqual(contacts[0].Force, rt.Mul3x1(force), 1e-9), test.ShouldBeTrue)
		test.That(t, r3AlmostEqual(contacts[0].Moment, rt.Mul3x1(moment), 1e-9), test.ShouldBeTrue)

		e.DynamicRNEA()
		base, err := e.BaseWrench()
		test.That(t, err, test.ShouldBeNil)
		for _, v := range base {
			test.That(t, v, test.ShouldAlmostEqual, 0, 1e-9)
		}
	}
}

func TestSensorSplitsWeight(t *testing.T) {
	e := newArm(t, []string{"ft"}, "torso", Options{})
	staticState(t, e, []float64{0.3, -0.5, 0.08, 0.7})
	e.ComputePositions()

	// the wrench holding up hip and leg, which is what a consistent sensor reads
	g := mgl64.Vec3{0, 0, gravity}
	var subtree spatialmath.Wrench
	for _, l := range []int{4, 5} {
		in := e.Topology().Links[l].Inertia
		c := must(e.Position(l)).TransformPoint(in.COM())
		subtree = subtree.Add(spatialmath.Wrench{Force: g.Mul(in.Mass), Torque: c.Mul(in.Mass).Cross(g)})
	}
	measured := must(e.Position(4)).InverseTransformWrench(subtree)
	raw := make([]float64, 6)
	measured.CopyTo(raw)
	test.That(t, e.SetSensorMeasurement(0, raw), test.ShouldBeNil)

	e.KinematicRNEA()
	test.That(t, e.EstimateContactForces(), test.ShouldBeNil)
	contacts := e.Contacts()
	test.That(t, len(contacts), test.ShouldEqual, 2)

	var mass float64
	for _, l := range e.Topology().Links {
		mass += l.Inertia.Mass
	}
	hand := must(e.Position(3))
	test.That(t, contacts[0].Link, test.ShouldEqual, 3)
	test.That(t, spatialmath.VecAlmostEqual(hand.Rotation.Mul3x1(spatialmath.R3ToVec(contacts[0].Force)), g.Mul(mass), 1e-9),
		test.ShouldBeTrue)
	test.That(t, contacts[1].Link, test.ShouldEqual, 5)
	test.That(t, r3AlmostEqual(contacts[1].Force, mgl64.Vec3{}, 1e-9), test.ShouldBeTrue)
	test.That(t, r3AlmostEqual(contacts[1].Moment, mgl64.Vec3{}, 1e-9), test.ShouldBeTrue)

	e.DynamicRNEA()
	simulated, err := e.SensorMeasurement(0)
	test.That(t, err, test.ShouldBeNil)
	for i := range simulated {
		test.That(t, simulated[i], test.ShouldAlmostEqual, raw[i], 1e-9)
	}
	base, err := e.BaseWrench()
	test.That(t, err, test.ShouldBeNil)
	for _, v := range base {
		test.That(t, v, test.ShouldAlmostEqual, 0, 1e-9)
	}
	estimated, err := e.Torques("")
	test.That(t, err, test.ShouldBeNil)

	// with the reading standing in for the cut, the leg side sees the same load
	test.That(t, e.SetSensorMeasurement(0, raw), test.ShouldBeNil)
	e.DynamicRNEA()
	got, err := e.SensorMeasurement(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got[:], test.ShouldResemble, raw)
	measuredTorques, err := e.Torques("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, measuredTorques[3], test.ShouldAlmostEqual, estimated[3], 1e-9)
}

func TestContactTypes(t *testing.T) {
	com := r3.Vector{Z: 0.1}
	weight := mgl64.Vec3{0, 0, 2 * gravity}
	for _, tc := range []struct {
		name    string
		contact Contact
	}{
		{"force direction", Contact{Point: com, Type: ContactForceDirection, Direction: r3.Vector{Z: 3}}},
		{"pure force", Contact{Point: com, Type: ContactPureForce}},
		{"full", Contact{Point: com, Type: ContactFull}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, err := NewEngine(boxModel(), nil, "box", Options{}, logging.NewTestLogger(t))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, e.SetContacts([]Contact{tc.contact}), test.ShouldBeNil)
			e.SetInertialMeasure(r3.Vector{}, r3.Vector{}, r3.Vector{Z: gravity})
			e.KinematicRNEA()
			test.That(t, e.EstimateContactForces(), test.ShouldBeNil)

			contacts := e.Contacts()
			test.That(t, len(contacts), test.ShouldEqual, 1)
			test.That(t, contacts[0].Default, test.ShouldBeFalse)
			test.That(t, r3AlmostEqual(contacts[0].Force, weight, 1e-9), test.ShouldBeTrue)
			test.That(t, r3AlmostEqual(contacts[0].Moment, mgl64.Vec3{}, 1e-9), test.ShouldBeTrue)
			if tc.contact.Type == ContactForceDirection {
				test.That(t, contacts[0].Direction, test.ShouldResemble, r3.Vector{Z: 1})
			}
		})
	}
}

func TestSetContactsValidation(t *testing.T) {
	e := newArm(t, []string{"ft"}, "torso", Options{})
	valid := []Contact{
		{Link: 2, Type: ContactPureForce},
		{Link: 5, Type: ContactFull, Default: true},
	}
	test.That(t, e.SetContacts(valid), test.ShouldBeNil)
	contacts := e.Contacts()
	test.That(t, len(contacts), test.ShouldEqual, 2)
	test.That(t, contacts[0].Link, test.ShouldEqual, 2)
	test.That(t, contacts[1], test.ShouldResemble, Contact{Link: 5, Type: ContactFull, Default: true})

	for _, tc := range []struct {
		name    string
		contact Contact
		msg     string
	}{
		{"bad link", Contact{Link: 7, Type: ContactFull}, "contact 0: link index 7 out of range"},
		{"bad type", Contact{Link: 1}, "contact 0: unknown contact type"},
		{"zero direction", Contact{Link: 1, Type: ContactForceDirection}, "force direction is zero"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := e.SetContacts([]Contact{tc.contact})
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
			test.That(t, e.Contacts(), test.ShouldResemble, contacts)
		})
	}
}

func TestRankDeficientContacts(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	e, err := NewEngine(boxModel(), nil, "box", Options{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.SetContacts([]Contact{
		{Point: r3.Vector{X: 0.1, Z: 0.1}, Type: ContactFull},
		{Point: r3.Vector{X: -0.1, Z: 0.1}, Type: ContactFull},
	}), test.ShouldBeNil)
	e.SetInertialMeasure(r3.Vector{}, r3.Vector{}, r3.Vector{Z: gravity})
	e.KinematicRNEA()
	test.That(t, e.EstimateContactForces(), test.ShouldBeNil)
	test.That(t, logs.FilterMessage("contact system is rank deficient").Len(), test.ShouldEqual, 1)

	var total spatialmath.Wrench
	for _, c := range e.Contacts() {
		total = total.Add(spatialmath.ApplyAt(spatialmath.R3ToVec(c.Point), spatialmath.R3ToVec(c.Force), spatialmath.R3ToVec(c.Moment)))
	}
	expected := spatialmath.Wrench{Force: mgl64.Vec3{0, 0, 2 * gravity}, Torque: mgl64.Vec3{0, 0, 0.2}.Cross(mgl64.Vec3{0, 0, gravity})}
	test.That(t, spatialmath.WrenchAlmostEqual(total, expected, 1e-9), test.ShouldBeTrue)
}

func TestContactTypeNames(t *testing.T) {
	for _, ct := range []ContactType{ContactForceDirection, ContactPureForce, ContactFull} {
		parsed, err := ParseContactType(ct.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, ct)
	}
	_, err := ParseContactType("sticky")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, ContactType(0).Unknowns(), test.ShouldEqual, 0)
}

package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/dyntree/referenceframe"
	"go.viam.com/dyntree/spatialmath"
)

// starModel is
//
//	base -j0(revolute z)-> l1 -j1(prismatic x)-> l2
//	base -f0(fixed)-> l3 -j2(revolute y)-> l4
func starModel() *referenceframe.ModelConfig {
	lo, hi := -1., 1.
	return &referenceframe.ModelConfig{
		Name: "star",
		Links: []referenceframe.LinkConfig{
			{ID: "base", Mass: 3},
			{ID: "l1", Mass: 1},
			{ID: "l2", Mass: 1},
			{ID: "l3", Mass: 0.5},
			{ID: "l4", Mass: 0.5},
		},
		Joints: []referenceframe.JointConfig{
			{
				ID: "j0", Type: referenceframe.RevoluteJoint, Parent: "base", Child: "l1",
				Origin: &spatialmath.PoseConfig{Translation: r3.Vector{Z: 0.5}},
				Axis:   r3.Vector{Z: 2}, Min: &lo, Max: &hi,
			},
			{
				ID: "j1", Type: referenceframe.PrismaticJoint, Parent: "l1", Child: "l2",
				Origin: &spatialmath.PoseConfig{Translation: r3.Vector{X: 0.3}, RPY: &r3.Vector{Z: math.Pi / 2}},
				Axis:   r3.Vector{X: 1},
			},
			{
				ID: "f0", Type: referenceframe.FixedJoint, Parent: "base", Child: "l3",
				Origin: &spatialmath.PoseConfig{Translation: r3.Vector{Y: -0.2}},
			},
			{
				ID: "j2", Type: referenceframe.RevoluteJoint, Parent: "l3", Child: "l4",
				Origin: &spatialmath.PoseConfig{Translation: r3.Vector{Z: -0.4}},
				Axis:   r3.Vector{Y: 1},
			},
		},
	}
}

func TestNewTopology(t *testing.T) {
	topo, err := NewTopology(starModel(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, topo.NrOfLinks(), test.ShouldEqual, 5)
	test.That(t, topo.NrOfDOFs(), test.ShouldEqual, 3)
	test.That(t, topo.Root, test.ShouldEqual, 0)
	test.That(t, topo.LinkIndex("l3"), test.ShouldEqual, 3)
	test.That(t, topo.LinkIndex("nope"), test.ShouldEqual, -1)
	test.That(t, topo.DOFIndex("j2"), test.ShouldEqual, 2)
	test.That(t, topo.DOFIndex("f0"), test.ShouldEqual, -1)
	test.That(t, topo.DOFIndex("nope"), test.ShouldEqual, -1)
	test.That(t, topo.JointIndex("f0"), test.ShouldEqual, 2)
	test.That(t, topo.Joints[0].Axis, test.ShouldResemble, mgl64.Vec3{0, 0, 1})
	test.That(t, topo.Joints[0].Limit, test.ShouldResemble, referenceframe.Limit{Min: -1, Max: 1})
	test.That(t, topo.Links[0].Joints, test.ShouldResemble, []int{0, 2})
	test.That(t, topo.Joints[2].Other(0), test.ShouldEqual, 3)
	test.That(t, topo.Joints[2].Other(3), test.ShouldEqual, 0)

	groups := topo.Components(func(j *Joint) bool { return j.Type == referenceframe.FixedJoint })
	test.That(t, groups, test.ShouldResemble, [][]int{{0, 1, 2}, {3, 4}})
}

func TestNewTopologyErrors(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		_, err := NewTopology(nil, nil)
		test.That(t, err, test.ShouldEqual, referenceframe.ErrNoModelInformation)
	})
	t.Run("multiple parents", func(t *testing.T) {
		m := starModel()
		m.Joints = append(m.Joints, referenceframe.JointConfig{ID: "x", Type: referenceframe.FixedJoint, Parent: "l2", Child: "l4"})
		_, err := NewTopology(m, nil)
		test.That(t, err, test.ShouldBeError, NewMultipleParentsError("l4"))
	})
	t.Run("disconnected", func(t *testing.T) {
		m := starModel()
		m.Links = append(m.Links, referenceframe.LinkConfig{ID: "floating"})
		_, err := NewTopology(m, nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "found 2 root links")
	})
	t.Run("self joint", func(t *testing.T) {
		m := starModel()
		m.Joints[2].Child = "base"
		_, err := NewTopology(m, nil)
		test.That(t, errors.Is(err, ErrCircularReference), test.ShouldBeTrue)
	})
	t.Run("loop", func(t *testing.T) {
		m := starModel()
		// l2 -> l1 closes a loop through j1
		m.Joints[3] = referenceframe.JointConfig{ID: "j2", Type: referenceframe.FixedJoint, Parent: "l2", Child: "l1"}
		_, err := NewTopology(m, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestSerialization(t *testing.T) {
	ser := &Serialization{
		Links: []string{"l4", "l3", "l2", "l1", "base"},
		DOFs:  []string{"j2", "j0", "j1"},
	}
	topo, err := NewTopology(starModel(), ser)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, topo.LinkIndex("base"), test.ShouldEqual, 4)
	test.That(t, topo.Root, test.ShouldEqual, 4)
	test.That(t, topo.DOFIndex("j2"), test.ShouldEqual, 0)
	test.That(t, topo.Joints[topo.DOFs[1]].Name, test.ShouldEqual, "j0")
	test.That(t, topo.Links[topo.LinkIndex("l1")].Name, test.ShouldEqual, "l1")

	_, err = NewTopology(starModel(), &Serialization{
		Links: []string{"l4", "l4", "l2", "l1", "base"},
		DOFs:  []string{"j2", "j0", "j1", "f0"},
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `duplicate link name "l4"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `link "l3" is not listed`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `dof "f0" is not in the model`)
}

func TestPartition(t *testing.T) {
	topo, err := NewTopology(starModel(), nil)
	test.That(t, err, test.ShouldBeNil)

	t.Run("default", func(t *testing.T) {
		p, err := NewPartition(topo, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(p.Parts()), test.ShouldEqual, 1)
		whole, ok := p.Part("star")
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, whole.DOFs, test.ShouldResemble, []int{0, 1, 2})
		all, ok := p.Part("")
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, all.Links, test.ShouldResemble, []int{0, 1, 2, 3, 4})
	})

	t.Run("explicit", func(t *testing.T) {
		p, err := NewPartition(topo, []PartConfig{
			{Name: "torso", Links: []string{"base"}},
			{Name: "arm", Links: []string{"l2", "l1"}, DOFs: []string{"j1", "j0"}},
			{Name: "leg", Links: []string{"l3", "l4"}, DOFs: []string{"j2"}},
		})
		test.That(t, err, test.ShouldBeNil)
		arm, ok := p.Part("arm")
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, cmp.Diff(Part{Name: "arm", Links: []int{2, 1}, DOFs: []int{1, 0}}, arm), test.ShouldBeEmpty)
		test.That(t, p.LinkIndex("arm", 0), test.ShouldEqual, 2)
		test.That(t, p.DOFIndex("leg", 0), test.ShouldEqual, 2)
		test.That(t, p.DOFIndex("leg", 1), test.ShouldEqual, -1)
		test.That(t, p.LinkIndex("missing", 0), test.ShouldEqual, -1)
		test.That(t, p.DOFIndex("", 1), test.ShouldEqual, 1)
		_, ok = p.Part("missing")
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("not bijective", func(t *testing.T) {
		_, err := NewPartition(topo, []PartConfig{
			{Name: "a", Links: []string{"base", "l1"}, DOFs: []string{"j0"}},
			{Name: "b", Links: []string{"l1", "l2", "l3"}, DOFs: []string{"j1", "j2"}},
		})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `duplicate link name "l1"`)
		test.That(t, err.Error(), test.ShouldContainSubstring, `link "l4" is not listed`)
	})

	t.Run("duplicate part", func(t *testing.T) {
		_, err := NewPartition(topo, []PartConfig{{Name: "a"}, {Name: "a"}})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `duplicate part name "a"`)
	})
}

func TestJointTransform(t *testing.T) {
	topo, err := NewTopology(starModel(), nil)
	test.That(t, err, test.ShouldBeNil)

	rev := &topo.Joints[0]
	x := rev.Transform(math.Pi / 2)
	test.That(t, spatialmath.VecAlmostEqual(x.Translation, mgl64.Vec3{0, 0, 0.5}, 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.VecAlmostEqual(x.Rotation.Mul3x1(mgl64.Vec3{1, 0, 0}), mgl64.Vec3{0, 1, 0}, 1e-12), test.ShouldBeTrue)
	test.That(t, rev.MotionSubspace(), test.ShouldResemble, spatialmath.Twist{Angular: mgl64.Vec3{0, 0, 1}})

	pri := &topo.Joints[1]
	x = pri.Transform(0.2)
	// the origin yaws by 90 degrees, so sliding along child x moves along parent y
	test.That(t, spatialmath.VecAlmostEqual(x.Translation, mgl64.Vec3{0.3, 0.2, 0}, 1e-12), test.ShouldBeTrue)
	test.That(t, pri.MotionSubspace(), test.ShouldResemble, spatialmath.Twist{Linear: mgl64.Vec3{1, 0, 0}})

	fixed := &topo.Joints[2]
	test.That(t, fixed.Transform(12), test.ShouldResemble, fixed.Origin)
	test.That(t, fixed.MotionSubspace(), test.ShouldResemble, spatialmath.Twist{})
	test.That(t, fixed.DOF, test.ShouldEqual, -1)
}

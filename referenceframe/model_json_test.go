package referenceframe

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/dyntree/utils"
)

const twoLinkJSON = `{
	"name": "arm",
	"links": [
		{"id": "base", "mass": 2, "com": {"x": 0, "y": 0, "z": 0.1}, "inertia": {"ixx": 0.1, "iyy": 0.1, "izz": 0.1}},
		{"id": "tip", "mass": 1}
	],
	"joints": [
		{
			"id": "j0", "type": "revolute", "parent": "base", "child": "tip",
			"origin": {"translation": {"x": 0, "y": 0, "z": 0.5}, "rpy": {"x": 0, "y": 0, "z": 0.5}},
			"axis": {"x": 0, "y": 0, "z": 1}, "min": -1, "max": 1
		}
	]
}`

const twoLinkYAML = `
name: arm
links:
  - id: base
    mass: 2
    com: {x: 0, y: 0, z: 0.1}
  - id: tip
    mass: 1
joints:
  - id: j0
    type: continuous
    parent: base
    child: tip
    axis: {x: 0, y: 0, z: 1}
    min: -1
`

func TestUnmarshalModelJSON(t *testing.T) {
	mc, err := UnmarshalModelJSON([]byte(twoLinkJSON), "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mc.Name, test.ShouldEqual, "arm")
	test.That(t, len(mc.Links), test.ShouldEqual, 2)
	test.That(t, mc.Links[0].COM, test.ShouldResemble, r3.Vector{Z: 0.1})
	test.That(t, mc.Joints[0].Limit(), test.ShouldResemble, Limit{Min: -1, Max: 1})
	test.That(t, mc.OriginalFile.Extension, test.ShouldEqual, "json")

	origin, err := mc.Joints[0].Origin.ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, origin.Translation[2], test.ShouldAlmostEqual, 0.5)

	in := mc.Links[0].ParseInertia()
	test.That(t, in.Mass, test.ShouldEqual, 2.)
	test.That(t, in.FirstMoment[2], test.ShouldAlmostEqual, 0.2)

	renamed, err := UnmarshalModelJSON([]byte(twoLinkJSON), "renamed")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, renamed.Name, test.ShouldEqual, "renamed")

	_, err = UnmarshalModelJSON(nil, "")
	test.That(t, err, test.ShouldEqual, ErrNoModelInformation)
	_, err = UnmarshalModelJSON([]byte("{"), "")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUnmarshalModelYAML(t *testing.T) {
	mc, err := UnmarshalModelYAML([]byte(twoLinkYAML), "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mc.Name, test.ShouldEqual, "arm")
	test.That(t, mc.Links[0].COM.Z, test.ShouldEqual, 0.1)
	test.That(t, mc.Joints[0].Axis, test.ShouldResemble, r3.Vector{Z: 1})
	// continuous joints ignore configured bounds
	lim := mc.Joints[0].Limit()
	test.That(t, math.IsInf(lim.Min, -1), test.ShouldBeTrue)
	test.That(t, lim.Bounded(), test.ShouldBeFalse)
}

func TestModelValidate(t *testing.T) {
	one := 1.
	zero := 0.
	for _, tc := range []struct {
		name   string
		cfg    ModelConfig
		errMsg string
	}{
		{
			"empty",
			ModelConfig{},
			ErrNoModelInformation.Error(),
		},
		{
			"duplicate link",
			ModelConfig{Links: []LinkConfig{{ID: "a"}, {ID: "a"}}},
			`duplicate link name "a"`,
		},
		{
			"missing child",
			ModelConfig{
				Links:  []LinkConfig{{ID: "a"}},
				Joints: []JointConfig{{ID: "j", Type: FixedJoint, Parent: "a", Child: "b"}},
			},
			`link "b" not found in model`,
		},
		{
			"bad type",
			ModelConfig{
				Links:  []LinkConfig{{ID: "a"}, {ID: "b"}},
				Joints: []JointConfig{{ID: "j", Type: "floating", Parent: "a", Child: "b"}},
			},
			`unsupported joint type detected: "floating"`,
		},
		{
			"zero axis",
			ModelConfig{
				Links:  []LinkConfig{{ID: "a"}, {ID: "b"}},
				Joints: []JointConfig{{ID: "j", Type: PrismaticJoint, Parent: "a", Child: "b"}},
			},
			`joint "j" has a zero axis`,
		},
		{
			"inverted limits",
			ModelConfig{
				Links:  []LinkConfig{{ID: "a"}, {ID: "b"}},
				Joints: []JointConfig{{ID: "j", Type: RevoluteJoint, Parent: "a", Child: "b", Axis: r3.Vector{X: 1}, Min: &one, Max: &zero}},
			},
			`joint "j" has min`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

func TestParseURDF(t *testing.T) {
	mc, err := ParseModelFile(utils.ResolveFile("etc/configs/leg.urdf"), "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mc.Name, test.ShouldEqual, "leg")
	test.That(t, len(mc.Links), test.ShouldEqual, 4)
	test.That(t, len(mc.Joints), test.ShouldEqual, 3)

	test.That(t, mc.Links[0].Mass, test.ShouldEqual, 4.)
	test.That(t, mc.Links[0].COM, test.ShouldResemble, r3.Vector{Z: 0.05})
	// the thigh tensor is yawed by 90 degrees into link axes
	test.That(t, mc.Links[1].Inertia.Ixx, test.ShouldAlmostEqual, 0.02)
	test.That(t, mc.Links[1].Inertia.Iyy, test.ShouldAlmostEqual, 0.01)
	test.That(t, mc.Links[1].Inertia.Izz, test.ShouldAlmostEqual, 0.003)
	test.That(t, mc.Links[2].Mass, test.ShouldEqual, 0.)

	hip := mc.Joints[0]
	test.That(t, hip.Type, test.ShouldEqual, RevoluteJoint)
	test.That(t, hip.Axis, test.ShouldResemble, r3.Vector{Y: 1})
	test.That(t, hip.Limit(), test.ShouldResemble, Limit{Min: -1.5, Max: 1.0})
	origin, err := hip.Origin.ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, origin.Translation[1], test.ShouldAlmostEqual, 0.1)

	test.That(t, mc.Joints[1].Type, test.ShouldEqual, FixedJoint)
	test.That(t, JointDOFs(mc.Joints[1].Type), test.ShouldEqual, 0)
	test.That(t, JointDOFs(mc.Joints[2].Type), test.ShouldEqual, 1)
	test.That(t, mc.Joints[2].Limit().Bounded(), test.ShouldBeFalse)
}

func TestConvertURDFErrors(t *testing.T) {
	_, err := ConvertURDFToConfig(nil, "")
	test.That(t, err, test.ShouldEqual, ErrNoModelInformation)

	floating := `<robot name="r"><link name="a"/><link name="b"/>
		<joint name="j" type="floating"><parent link="a"/><child link="b"/></joint></robot>`
	_, err = ConvertURDFToConfig([]byte(floating), "")
	test.That(t, err, test.ShouldBeError, NewUnsupportedJointTypeError("floating"))

	badOrigin := `<robot name="r"><link name="a"/><link name="b"/>
		<joint name="j" type="fixed"><parent link="a"/><child link="b"/><origin xyz="1 2"/></joint></robot>`
	_, err = ConvertURDFToConfig([]byte(badOrigin), "")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseModelFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "arm.yml")
	test.That(t, os.WriteFile(yamlPath, []byte(twoLinkYAML), 0o600), test.ShouldBeNil)
	mc, err := ParseModelFile(yamlPath, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mc.OriginalFile.Extension, test.ShouldEqual, "yaml")

	jsonPath := filepath.Join(dir, "arm.json")
	test.That(t, os.WriteFile(jsonPath, []byte(twoLinkJSON), 0o600), test.ShouldBeNil)
	mc, err = ParseModelFile(jsonPath, "other")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mc.Name, test.ShouldEqual, "other")

	txtPath := filepath.Join(dir, "arm.txt")
	test.That(t, os.WriteFile(txtPath, []byte(twoLinkJSON), 0o600), test.ShouldBeNil)
	_, err = ParseModelFile(txtPath, "")
	test.That(t, err, test.ShouldBeError, NewUnsupportedFileExtensionError("txt"))

	_, err = ParseModelFile(filepath.Join(dir, "missing.json"), "")
	test.That(t, err, test.ShouldNotBeNil)
}

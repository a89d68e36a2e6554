package referenceframe

import (
	"encoding/xml"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/dyntree/spatialmath"
	"go.viam.com/dyntree/utils"
)

// URDFExtension is the file extension associated with URDF files.
const URDFExtension = "urdf"

// URDFConfig represents all supported fields in a Universal Robot Description Format (URDF) file.
type URDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink is a struct which details the XML used in a URDF link element.
type URDFLink struct {
	XMLName  xml.Name      `xml:"link"`
	Name     string        `xml:"name,attr"`
	Inertial *URDFInertial `xml:"inertial,omitempty"`
}

// URDFInertial is the mass distribution of a link. The inertia tensor is about the center of mass, in the axes
// of the inertial origin.
type URDFInertial struct {
	Origin  *URDFPose `xml:"origin,omitempty"`
	Mass    URDFValue `xml:"mass"`
	Inertia struct {
		Ixx float64 `xml:"ixx,attr"`
		Ixy float64 `xml:"ixy,attr"`
		Ixz float64 `xml:"ixz,attr"`
		Iyy float64 `xml:"iyy,attr"`
		Iyz float64 `xml:"iyz,attr"`
		Izz float64 `xml:"izz,attr"`
	} `xml:"inertia"`
}

// URDFValue is an element carrying a single value attribute.
type URDFValue struct {
	Value float64 `xml:"value,attr"`
}

// URDFPose is an origin element: translation in meters and fixed-axis roll, pitch, yaw in radians.
type URDFPose struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// URDFAxis is a joint axis element.
type URDFAxis struct {
	XYZ string `xml:"xyz,attr"`
}

// URDFLimit is a joint limit element.
type URDFLimit struct {
	XMLName xml.Name `xml:"limit"`
	Lower   float64  `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper   float64  `xml:"upper,attr"` // translation limits are in meters, revolute limits are in radians
}

// URDFFrame names the link at one end of a joint.
type URDFFrame struct {
	Link string `xml:"link,attr"`
}

// URDFJoint is a struct which details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name   `xml:"joint"`
	Name    string     `xml:"name,attr"`
	Type    string     `xml:"type,attr"`
	Parent  URDFFrame  `xml:"parent"`
	Child   URDFFrame  `xml:"child"`
	Origin  *URDFPose  `xml:"origin,omitempty"`
	Axis    *URDFAxis  `xml:"axis,omitempty"`
	Limit   *URDFLimit `xml:"limit,omitempty"`
}

func (p *URDFPose) parse() (mgl64.Vec3, mgl64.Mat3, error) {
	if p == nil {
		return mgl64.Vec3{}, mgl64.Ident3(), nil
	}
	xyz, err := parseTriple(p.XYZ)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Mat3{}, errors.Wrap(err, "bad origin xyz")
	}
	rpy, err := parseTriple(p.RPY)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Mat3{}, errors.Wrap(err, "bad origin rpy")
	}
	return xyz, spatialmath.RPYToRotation(rpy[0], rpy[1], rpy[2]), nil
}

// parseTriple reads three space delimited floats; an empty string is the zero vector.
func parseTriple(s string) (mgl64.Vec3, error) {
	vals := utils.SpaceDelimitedStringToFloatSlice(s)
	if len(vals) == 0 {
		return mgl64.Vec3{}, nil
	}
	if len(vals) != 3 {
		return mgl64.Vec3{}, errors.Errorf("expected 3 values, got %q", s)
	}
	return mgl64.Vec3{vals[0], vals[1], vals[2]}, nil
}

// ParseURDFFile will read a given file and parse the contained URDF XML data into an equivalent ModelConfig struct.
func ParseURDFFile(filename, modelName string) (*ModelConfig, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read URDF file")
	}
	return ConvertURDFToConfig(xmlData, modelName)
}

// ConvertURDFToConfig will transfer the given URDF XML data into an equivalent ModelConfig. Units stay SI: meters,
// radians and kilograms.
func ConvertURDFToConfig(xmlData []byte, modelName string) (*ModelConfig, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}

	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrap(err, "Failed to convert URDF data to equivalent URDFConfig struct")
	}
	if modelName == "" {
		modelName = urdf.Name
	}

	mc := &ModelConfig{
		Name:         modelName,
		OriginalFile: &ModelFile{Bytes: xmlData, Extension: URDFExtension},
	}

	for _, linkElem := range urdf.Links {
		link := LinkConfig{ID: linkElem.Name}
		if in := linkElem.Inertial; in != nil {
			com, rot, err := in.Origin.parse()
			if err != nil {
				return nil, errors.Wrapf(err, "link %q inertial", linkElem.Name)
			}
			atCOM := InertiaConfig{
				Ixx: in.Inertia.Ixx, Ixy: in.Inertia.Ixy, Ixz: in.Inertia.Ixz,
				Iyy: in.Inertia.Iyy, Iyz: in.Inertia.Iyz, Izz: in.Inertia.Izz,
			}
			// rotate the tensor from the inertial frame into link axes
			inLink := rot.Mul3(atCOM.Matrix()).Mul3(rot.Transpose())
			link.Mass = in.Mass.Value
			link.COM = spatialmath.VecToR3(com)
			link.Inertia = InertiaConfig{
				Ixx: inLink.At(0, 0), Ixy: inLink.At(0, 1), Ixz: inLink.At(0, 2),
				Iyy: inLink.At(1, 1), Iyz: inLink.At(1, 2), Izz: inLink.At(2, 2),
			}
		}
		mc.Links = append(mc.Links, link)
	}

	for _, jointElem := range urdf.Joints {
		thisJoint := JointConfig{
			ID:     jointElem.Name,
			Type:   jointElem.Type,
			Parent: jointElem.Parent.Link,
			Child:  jointElem.Child.Link,
		}
		xyz, rot, err := jointElem.Origin.parse()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", jointElem.Name)
		}
		thisJoint.Origin = spatialmath.NewPoseConfig(spatialmath.NewPose(rot, xyz))

		switch jointElem.Type {
		case ContinuousJoint, RevoluteJoint, PrismaticJoint:
			// URDF defaults the axis to x
			thisJoint.Axis = r3.Vector{X: 1}
			if jointElem.Axis != nil {
				axis, err := parseTriple(jointElem.Axis.XYZ)
				if err != nil {
					return nil, errors.Wrapf(err, "joint %q axis", jointElem.Name)
				}
				thisJoint.Axis = spatialmath.VecToR3(axis)
			}
			if jointElem.Type != ContinuousJoint && jointElem.Limit != nil {
				lower, upper := jointElem.Limit.Lower, jointElem.Limit.Upper
				thisJoint.Min, thisJoint.Max = &lower, &upper
			}
		case FixedJoint:
		default:
			return nil, NewUnsupportedJointTypeError(jointElem.Type)
		}
		mc.Joints = append(mc.Joints, thisJoint)
	}

	if err := mc.Validate(); err != nil {
		return nil, err
	}
	return mc, nil
}

// Package referenceframe describes articulated mechanisms: their links, the joints connecting them,
// and the file formats (JSON, YAML, URDF) they are read from.
package referenceframe

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"go.viam.com/dyntree/spatialmath"
)

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// ModelConfig represents all supported fields in a model description file.
type ModelConfig struct {
	Name         string        `json:"name" yaml:"name"`
	Links        []LinkConfig  `json:"links,omitempty" yaml:"links,omitempty"`
	Joints       []JointConfig `json:"joints,omitempty" yaml:"joints,omitempty"`
	OriginalFile *ModelFile    `json:"-" yaml:"-"`
}

// ModelFile is a struct that stores the raw bytes of the file used to create the model as well as its extension,
// which is useful for knowing how to unmarshal it.
type ModelFile struct {
	Bytes     []byte
	Extension string
}

// InertiaConfig holds a rotational inertia about the center of mass, in link axes.
type InertiaConfig struct {
	Ixx float64 `json:"ixx" yaml:"ixx"`
	Ixy float64 `json:"ixy" yaml:"ixy"`
	Ixz float64 `json:"ixz" yaml:"ixz"`
	Iyy float64 `json:"iyy" yaml:"iyy"`
	Iyz float64 `json:"iyz" yaml:"iyz"`
	Izz float64 `json:"izz" yaml:"izz"`
}

// Matrix returns the symmetric inertia matrix.
func (cfg InertiaConfig) Matrix() mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{cfg.Ixx, cfg.Ixy, cfg.Ixz},
		mgl64.Vec3{cfg.Ixy, cfg.Iyy, cfg.Iyz},
		mgl64.Vec3{cfg.Ixz, cfg.Iyz, cfg.Izz},
	)
}

// LinkConfig describes a rigid body.
type LinkConfig struct {
	ID      string        `json:"id" yaml:"id"`
	Mass    float64       `json:"mass" yaml:"mass"`
	COM     r3.Vector     `json:"com" yaml:"com"`
	Inertia InertiaConfig `json:"inertia" yaml:"inertia"`
}

// ParseInertia returns the spatial inertia of the link about its origin.
func (cfg LinkConfig) ParseInertia() spatialmath.RigidBodyInertia {
	return spatialmath.NewRigidBodyInertia(cfg.Mass, spatialmath.R3ToVec(cfg.COM), cfg.Inertia.Matrix())
}

// JointConfig describes a joint connecting a parent link to a child link. The child frame sits at
// Origin (expressed in the parent frame) when the joint position is zero.
type JointConfig struct {
	ID     string                  `json:"id" yaml:"id"`
	Type   string                  `json:"type" yaml:"type"`
	Parent string                  `json:"parent" yaml:"parent"`
	Child  string                  `json:"child" yaml:"child"`
	Origin *spatialmath.PoseConfig `json:"origin,omitempty" yaml:"origin,omitempty"`
	Axis   r3.Vector               `json:"axis" yaml:"axis"`
	Min    *float64                `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64                `json:"max,omitempty" yaml:"max,omitempty"`
}

// Limit returns the position limits of the joint. Unset and continuous bounds are infinite.
func (cfg JointConfig) Limit() Limit {
	lim := Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	if cfg.Type == ContinuousJoint {
		return lim
	}
	if cfg.Min != nil {
		lim.Min = *cfg.Min
	}
	if cfg.Max != nil {
		lim.Max = *cfg.Max
	}
	return lim
}

// UnmarshalModelJSON will parse the given JSON data into a model config. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*ModelConfig, error) {
	// empty data probably means that the caller has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	m := &ModelConfig{OriginalFile: &ModelFile{Bytes: jsonData, Extension: "json"}}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return m.finish(modelName)
}

// UnmarshalModelYAML is UnmarshalModelJSON for YAML documents.
func UnmarshalModelYAML(yamlData []byte, modelName string) (*ModelConfig, error) {
	if len(yamlData) == 0 {
		return nil, ErrNoModelInformation
	}
	m := &ModelConfig{OriginalFile: &ModelFile{Bytes: yamlData, Extension: "yaml"}}
	if err := yaml.Unmarshal(yamlData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml file")
	}
	return m.finish(modelName)
}

func (cfg *ModelConfig) finish(modelName string) (*ModelConfig, error) {
	if modelName != "" {
		cfg.Name = modelName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseModelFile will read a given file and parse it according to its extension: .json, .yaml/.yml or .urdf.
func ParseModelFile(filename, modelName string) (*ModelConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model file %q", filename)
	}
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "json":
		return UnmarshalModelJSON(data, modelName)
	case "yaml", "yml":
		return UnmarshalModelYAML(data, modelName)
	case URDFExtension:
		return ConvertURDFToConfig(data, modelName)
	default:
		return nil, NewUnsupportedFileExtensionError(ext)
	}
}

// Validate checks that every element is named, named once, and refers only to elements that exist.
// It does not check that the joints form a tree.
func (cfg *ModelConfig) Validate() error {
	var errs error
	if len(cfg.Links) == 0 {
		return ErrNoModelInformation
	}
	links := make(map[string]bool, len(cfg.Links))
	for i, link := range cfg.Links {
		if link.ID == "" {
			multierr.AppendInto(&errs, errors.Errorf("link %d has no id", i))
			continue
		}
		if links[link.ID] {
			multierr.AppendInto(&errs, NewDuplicateNameError("link", link.ID))
		}
		links[link.ID] = true
		if link.Mass < 0 {
			multierr.AppendInto(&errs, errors.Errorf("link %q has negative mass %f", link.ID, link.Mass))
		}
	}

	joints := make(map[string]bool, len(cfg.Joints))
	for i, joint := range cfg.Joints {
		if joint.ID == "" {
			multierr.AppendInto(&errs, errors.Errorf("joint %d has no id", i))
			continue
		}
		if joints[joint.ID] {
			multierr.AppendInto(&errs, NewDuplicateNameError("joint", joint.ID))
		}
		joints[joint.ID] = true
		switch joint.Type {
		case FixedJoint:
		case RevoluteJoint, ContinuousJoint, PrismaticJoint:
			if joint.Axis.Norm() == 0 {
				multierr.AppendInto(&errs, errors.Errorf("joint %q has a zero axis", joint.ID))
			}
		default:
			multierr.AppendInto(&errs, NewUnsupportedJointTypeError(joint.Type))
		}
		if !links[joint.Parent] {
			multierr.AppendInto(&errs, NewLinkNotFoundError(joint.Parent))
		}
		if !links[joint.Child] {
			multierr.AppendInto(&errs, NewLinkNotFoundError(joint.Child))
		}
		if lim := joint.Limit(); lim.Min > lim.Max {
			multierr.AppendInto(&errs, errors.Errorf("joint %q has min %f greater than max %f", joint.ID, lim.Min, lim.Max))
		}
		if _, err := joint.Origin.ParseConfig(); err != nil {
			multierr.AppendInto(&errs, errors.Wrapf(err, "joint %q origin", joint.ID))
		}
	}
	return errs
}

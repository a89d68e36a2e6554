package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// AxisAngleConfig is an orientation given as a rotation of Theta radians about Axis.
type AxisAngleConfig struct {
	Axis  r3.Vector `json:"axis" yaml:"axis"`
	Theta float64   `json:"theta" yaml:"theta"`
}

// PoseConfig is the serializable form of a Pose. At most one of RPY and AxisAngle may be set.
type PoseConfig struct {
	Translation r3.Vector        `json:"translation" yaml:"translation"`
	RPY         *r3.Vector       `json:"rpy,omitempty" yaml:"rpy,omitempty"`
	AxisAngle   *AxisAngleConfig `json:"axis_angle,omitempty" yaml:"axis_angle,omitempty"`
}

// ParseConfig converts the config into a Pose.
func (cfg *PoseConfig) ParseConfig() (Pose, error) {
	if cfg == nil {
		return NewZeroPose(), nil
	}
	pose := NewPoseFromPoint(cfg.Translation)
	switch {
	case cfg.RPY != nil && cfg.AxisAngle != nil:
		return Pose{}, errors.New("pose config may specify rpy or axis_angle, not both")
	case cfg.RPY != nil:
		pose.Rotation = RPYToRotation(cfg.RPY.X, cfg.RPY.Y, cfg.RPY.Z)
	case cfg.AxisAngle != nil:
		if cfg.AxisAngle.Axis.Norm() == 0 {
			return Pose{}, errors.New("axis_angle orientation has a zero axis")
		}
		pose.Rotation = AxisAngleToRotation(R3ToVec(cfg.AxisAngle.Axis), cfg.AxisAngle.Theta)
	}
	return pose, nil
}

// NewPoseConfig returns the config form of a pose, with its orientation as roll, pitch, yaw.
func NewPoseConfig(p Pose) *PoseConfig {
	rpy := RotationToRPY(p.Rotation)
	return &PoseConfig{Translation: p.Point(), RPY: &rpy}
}

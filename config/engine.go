package config

import (
	"github.com/pkg/errors"

	"go.viam.com/dyntree/dynamics"
	"go.viam.com/dyntree/logging"
	"go.viam.com/dyntree/referenceframe"
	"go.viam.com/dyntree/spatialmath"
)

// Options converts the config into engine options.
func (c *Config) Options() (dynamics.Options, error) {
	opts := dynamics.Options{
		DynamicBase:   c.DynamicBase,
		Serialization: c.Serialization,
		Parts:         c.Parts,
		RCond:         c.RCond,
	}
	for _, s := range c.FTSensors {
		if s.Calibration == nil {
			continue
		}
		pose, err := s.Calibration.ParseConfig()
		if err != nil {
			return dynamics.Options{}, errors.Wrapf(err, "calibration of FT sensor %q", s.Joint)
		}
		if opts.SensorCalibration == nil {
			opts.SensorCalibration = map[string]spatialmath.Pose{}
		}
		opts.SensorCalibration[s.Joint] = pose
	}
	return opts, nil
}

// SensorJoints returns the joints carrying FT sensors, in sensor index order.
func (c *Config) SensorJoints() []string {
	joints := make([]string, 0, len(c.FTSensors))
	for _, s := range c.FTSensors {
		joints = append(joints, s.Joint)
	}
	return joints
}

// NewEngine loads the configured model and builds an engine for it, with the configured joint limits applied.
func NewEngine(c *Config, logger logging.Logger) (*dynamics.Engine, error) {
	model, err := c.LoadModel()
	if err != nil {
		return nil, err
	}
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	e, err := dynamics.NewEngine(model, c.SensorJoints(), c.IMULink, opts, logger)
	if err != nil {
		return nil, err
	}
	if err := applyJointLimits(e, c.JointLimits); err != nil {
		return nil, err
	}
	return e, nil
}

func applyJointLimits(e *dynamics.Engine, limits []JointLimitConfig) error {
	if len(limits) == 0 {
		return nil
	}
	lower, upper, err := e.JointLimits("")
	if err != nil {
		return err
	}
	constrained := make([]bool, len(lower))
	for i := range constrained {
		constrained[i] = true
	}
	for _, l := range limits {
		dof := e.DOFIndex(l.Joint)
		if dof < 0 {
			return errors.Wrap(referenceframe.NewJointNotFoundError(l.Joint), "joint limits")
		}
		lower[dof], upper[dof] = l.Min, l.Max
		constrained[dof] = !l.Unconstrained
	}
	if err := e.SetJointConstrained(constrained, ""); err != nil {
		return err
	}
	return e.SetJointLimits(lower, upper, "")
}

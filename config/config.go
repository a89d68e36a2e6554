// Package config defines the on-disk description of a dynamics engine: which model to load, where its sensors
// are, and how its state is numbered and grouped.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/dyntree/kinematics"
	"go.viam.com/dyntree/logging"
	"go.viam.com/dyntree/referenceframe"
	"go.viam.com/dyntree/spatialmath"
)

// A Config describes how to build an engine.
type Config struct {
	// Model is the path to a .json, .yaml or .urdf model file. Relative paths are relative to the config file.
	Model         string                    `json:"model" yaml:"model"`
	IMULink       string                    `json:"imu_link" yaml:"imu_link"`
	DynamicBase   string                    `json:"dynamic_base,omitempty" yaml:"dynamic_base,omitempty"`
	FTSensors     []FTSensorConfig          `json:"ft_sensors,omitempty" yaml:"ft_sensors,omitempty"`
	Serialization *kinematics.Serialization `json:"serialization,omitempty" yaml:"serialization,omitempty"`
	Parts         []kinematics.PartConfig   `json:"parts,omitempty" yaml:"parts,omitempty"`
	JointLimits   []JointLimitConfig        `json:"joint_limits,omitempty" yaml:"joint_limits,omitempty"`
	RCond         float64                   `json:"rcond,omitempty" yaml:"rcond,omitempty"`
	LogLevel      string                    `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	ConfigFilePath string `json:"-" yaml:"-"`
}

// FTSensorConfig names the fixed joint a force/torque sensor is mounted on. Calibration, when set, places the
// sensor frame in the frame of the joint's parent link instead of the joint origin.
type FTSensorConfig struct {
	Joint       string                  `json:"joint" yaml:"joint"`
	Calibration *spatialmath.PoseConfig `json:"calibration,omitempty" yaml:"calibration,omitempty"`
}

// JointLimitConfig overrides the position limits the model gives a joint.
type JointLimitConfig struct {
	Joint string  `json:"joint" yaml:"joint"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	// Unconstrained stops SetAng from clamping the joint into its limits.
	Unconstrained bool `json:"unconstrained,omitempty" yaml:"unconstrained,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	var errs error
	if c.Model == "" {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "model"))
	}
	if c.IMULink == "" {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "imu_link"))
	}
	for i, s := range c.FTSensors {
		multierr.AppendInto(&errs, s.Validate(fmt.Sprintf("%s.%s.%d", path, "ft_sensors", i)))
	}
	sensorJoints := lo.Map(c.FTSensors, func(s FTSensorConfig, _ int) string { return s.Joint })
	for _, dup := range lo.FindDuplicates(sensorJoints) {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path, referenceframe.NewDuplicateNameError("FT sensor joint", dup)))
	}
	for i, l := range c.JointLimits {
		multierr.AppendInto(&errs, l.Validate(fmt.Sprintf("%s.%s.%d", path, "joint_limits", i)))
	}
	limitJoints := lo.Map(c.JointLimits, func(l JointLimitConfig, _ int) string { return l.Joint })
	for _, dup := range lo.FindDuplicates(limitJoints) {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path, errors.Errorf("joint %q is limited more than once", dup)))
	}
	if c.RCond < 0 {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path, errors.Errorf("rcond must be non-negative, got %v", c.RCond)))
	}
	if c.LogLevel != "" {
		if _, err := logging.LevelFromString(c.LogLevel); err != nil {
			multierr.AppendInto(&errs, utils.NewConfigValidationError(path, err))
		}
	}
	return errs
}

// Validate ensures all parts of the config are valid.
func (s *FTSensorConfig) Validate(path string) error {
	if s.Joint == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "joint")
	}
	if _, err := s.Calibration.ParseConfig(); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "error validating calibration"))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (l *JointLimitConfig) Validate(path string) error {
	if l.Joint == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "joint")
	}
	if !(l.Min <= l.Max) {
		return utils.NewConfigValidationError(path, errors.Errorf("min %v is above max %v", l.Min, l.Max))
	}
	return nil
}

// ModelPath returns the path of the model file, resolved against the directory of the config file.
func (c *Config) ModelPath() string {
	if filepath.IsAbs(c.Model) || c.ConfigFilePath == "" {
		return c.Model
	}
	return filepath.Join(filepath.Dir(c.ConfigFilePath), c.Model)
}

// Logger returns a logger at the configured level, or at info when none is set.
func (c *Config) Logger(name string) (logging.Logger, error) {
	if c.LogLevel == "" {
		return logging.NewLogger(name), nil
	}
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewLoggerAtLevel(name, level), nil
}

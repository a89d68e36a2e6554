package config

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/dyntree/dynamics"
	"go.viam.com/dyntree/referenceframe"
)

// State is one cycle of inputs: joint state, IMU reading, sensor readings and assumed contacts. Empty joint
// vectors leave the engine's values as they are.
type State struct {
	Q   []float64 `json:"q,omitempty" yaml:"q,omitempty"`
	DQ  []float64 `json:"dq,omitempty" yaml:"dq,omitempty"`
	DDQ []float64 `json:"ddq,omitempty" yaml:"ddq,omitempty"`
	IMU IMUState  `json:"imu" yaml:"imu"`
	// Sensors maps the joint an FT sensor is mounted on to its [force; torque] reading.
	Sensors map[string][]float64 `json:"sensors,omitempty" yaml:"sensors,omitempty"`
	// Contacts replaces the assumed contacts when set.
	Contacts []ContactConfig `json:"contacts,omitempty" yaml:"contacts,omitempty"`
}

// IMUState is what the IMU measures, in the IMU link's frame. LinearAcceleration is the proper acceleration, so
// a link at rest reads +g upward.
type IMUState struct {
	AngularVelocity     r3.Vector `json:"angular_velocity" yaml:"angular_velocity"`
	AngularAcceleration r3.Vector `json:"angular_acceleration" yaml:"angular_acceleration"`
	LinearAcceleration  r3.Vector `json:"linear_acceleration" yaml:"linear_acceleration"`
}

// ContactConfig is a contact assumption keyed by link name.
type ContactConfig struct {
	Link  string    `json:"link" yaml:"link"`
	Point r3.Vector `json:"point" yaml:"point"`
	// Type is one of force_direction, pure_force or full.
	Type      string    `json:"type" yaml:"type"`
	Direction r3.Vector `json:"direction,omitempty" yaml:"direction,omitempty"`
	// Moment is the known moment at the point for contacts that do not estimate it.
	Moment r3.Vector `json:"moment,omitempty" yaml:"moment,omitempty"`
}

// contacts resolves the contact assumptions against the engine's links.
func (s *State) contacts(e *dynamics.Engine) ([]dynamics.Contact, error) {
	out := make([]dynamics.Contact, 0, len(s.Contacts))
	for i, c := range s.Contacts {
		link := e.LinkIndex(c.Link)
		if link < 0 {
			return nil, errors.Wrapf(referenceframe.NewLinkNotFoundError(c.Link), "contact %d", i)
		}
		ct, err := dynamics.ParseContactType(c.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "contact %d", i)
		}
		out = append(out, dynamics.Contact{
			Link:      link,
			Point:     c.Point,
			Type:      ct,
			Direction: c.Direction,
			Moment:    c.Moment,
		})
	}
	return out, nil
}

// Apply sets the state on the engine. Everything is checked before the engine is touched, so a failed Apply
// leaves it unchanged.
func (s *State) Apply(e *dynamics.Engine) error {
	for _, v := range []struct {
		what   string
		values []float64
	}{
		{"joint positions", s.Q},
		{"joint velocities", s.DQ},
		{"joint accelerations", s.DDQ},
	} {
		if len(v.values) > 0 && len(v.values) != e.NrOfDOFs() {
			return dynamics.NewSizeMismatchError(v.what, e.NrOfDOFs(), len(v.values))
		}
	}
	joints := lo.Keys(s.Sensors)
	sort.Strings(joints)
	sensors := make([]int, len(joints))
	for i, joint := range joints {
		if sensors[i] = e.FTSensorIndex(joint); sensors[i] < 0 {
			return errors.Errorf("no FT sensor on joint %q", joint)
		}
		if n := len(s.Sensors[joint]); n != 6 {
			return errors.Wrapf(dynamics.NewSizeMismatchError("sensor wrench", 6, n), "FT sensor %q", joint)
		}
	}
	if s.Contacts != nil {
		contacts, err := s.contacts(e)
		if err != nil {
			return err
		}
		if err := e.SetContacts(contacts); err != nil {
			return err
		}
	}

	if len(s.Q) > 0 {
		if _, err := e.SetAng(s.Q, ""); err != nil {
			return err
		}
	}
	if len(s.DQ) > 0 {
		if _, err := e.SetDAng(s.DQ, ""); err != nil {
			return err
		}
	}
	if len(s.DDQ) > 0 {
		if _, err := e.SetD2Ang(s.DDQ, ""); err != nil {
			return err
		}
	}
	e.SetInertialMeasure(s.IMU.AngularVelocity, s.IMU.AngularAcceleration, s.IMU.LinearAcceleration)
	for i, joint := range joints {
		if err := e.SetSensorMeasurement(sensors[i], s.Sensors[joint]); err != nil {
			return errors.Wrapf(err, "FT sensor %q", joint)
		}
	}
	return nil
}

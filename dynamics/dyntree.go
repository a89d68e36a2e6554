// Package dynamics implements a floating-base rigid-body dynamics engine for articulated trees instrumented with
// six-axis force/torque sensors.
//
// A control loop drives an Engine once per cycle:
//
//	SetAng / SetDAng / SetD2Ang / SetInertialMeasure / SetSensorMeasurement / SetContacts
//	ComputePositions -> KinematicRNEA -> [EstimateContactForces] -> DynamicRNEA
//	Torques / Contacts / Jacobian / COM / DynamicsRegressor ...
//
// The FT sensors cut the tree into subgraphs. EstimateContactForces recovers the unknown external wrenches of
// each subgraph from its kinematics and the sensor readings on its boundary. When it has not run, DynamicRNEA
// takes the sensor readings as the wrenches crossing each cut instead.
//
// An Engine is not safe for concurrent use: every setter and compute method updates shared buffers in place.
package dynamics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/spatialmath"
)

// Phase is the last pipeline stage completed since the state it depends on was changed.
type Phase int

// The pipeline stages, in the order they must run.
const (
	Idle Phase = iota
	PositionsComputed
	KinematicsComputed
	ContactsEstimated
	DynamicsComputed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case PositionsComputed:
		return "positions computed"
	case KinematicsComputed:
		return "kinematics computed"
	case ContactsEstimated:
		return "contacts estimated"
	case DynamicsComputed:
		return "dynamics computed"
	default:
		return "unknown"
	}
}

// DynTree is the per-cycle interface of the dynamics engine. 6-vectors at this boundary are linear first: twists
// are [v; w] and wrenches are [force; torque]. Empty part names refer to the whole tree.
type DynTree interface {
	NrOfDOFs() int
	NrOfLinks() int
	NrOfFTSensors() int

	LinkIndex(name string) int
	LinkIndexInPart(part string, local int) int
	DOFIndex(name string) int
	DOFIndexInPart(part string, local int) int
	FTSensorIndex(jointName string) int

	SetAng(q []float64, part string) ([]float64, error)
	Ang(part string) ([]float64, error)
	SetDAng(dq []float64, part string) ([]float64, error)
	DAng(part string) ([]float64, error)
	SetD2Ang(ddq []float64, part string) ([]float64, error)
	D2Ang(part string) ([]float64, error)
	SetJointLimits(lower, upper []float64, part string) error
	JointLimits(part string) ([]float64, []float64, error)
	SetJointConstrained(mask []bool, part string) error

	SetInertialMeasure(w0, dw0, ddp0 r3.Vector)
	InertialMeasure() (r3.Vector, r3.Vector, r3.Vector)
	SetSensorMeasurement(index int, wrench []float64) error
	SensorMeasurement(index int) ([6]float64, error)
	SetContacts(contacts []Contact) error
	Contacts() []Contact

	ComputePositions()
	KinematicRNEA()
	EstimateContactForces() error
	DynamicRNEA()
	Phase() Phase

	Position(link int) (spatialmath.Pose, error)
	RelativePosition(link, reference int) (spatialmath.Pose, error)
	Vel(link int) ([6]float64, error)
	Acc(link int) ([6]float64, error)
	Torques(part string) ([]float64, error)
	BaseWrench() ([6]float64, error)

	Jacobian(dst *mat.Dense, link int, global bool) error
	RelativeJacobian(dst *mat.Dense, distal, base int, global bool) error
	DQFloatingBase() ([]float64, error)

	ComputeCOM()
	COM(part string) (r3.Vector, error)
	ComputeCOMJacobian() error
	COMJacobian(dst *mat.Dense, part string) error

	DynamicsRegressor(dst *mat.Dense) error
	DynamicsParameters() []float64
}

var _ DynTree = (*Engine)(nil)

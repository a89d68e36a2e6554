package referenceframe

import "math"

// Supported joint types.
const (
	FixedJoint      = "fixed"
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
)

// Limit represents the limits of motion of a joint.
type Limit struct {
	Min float64
	Max float64
}

// Bounded reports whether either end of the limit is finite.
func (l Limit) Bounded() bool {
	return !math.IsInf(l.Min, -1) || !math.IsInf(l.Max, 1)
}

// JointDOFs returns the number of degrees of freedom of a joint type.
func JointDOFs(jointType string) int {
	switch jointType {
	case RevoluteJoint, ContinuousJoint, PrismaticJoint:
		return 1
	default:
		return 0
	}
}

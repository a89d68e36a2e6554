package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Twist is a spatial motion vector: the angular velocity of a frame and the linear velocity of
// the point at its origin, both in that frame's coordinates. Spatial accelerations use the same type.
type Twist struct {
	Angular mgl64.Vec3
	Linear  mgl64.Vec3
}

// Wrench is a spatial force vector: a force and the torque it produces about the frame origin.
type Wrench struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// NewTwistFromSlice reads a twist stored linear-first, as it is at the engine boundary.
func NewTwistFromSlice(s []float64) Twist {
	return Twist{
		Linear:  mgl64.Vec3{s[0], s[1], s[2]},
		Angular: mgl64.Vec3{s[3], s[4], s[5]},
	}
}

// CopyTo writes the twist linear-first into the first six entries of dst.
func (t Twist) CopyTo(dst []float64) {
	copy(dst[0:3], t.Linear[:])
	copy(dst[3:6], t.Angular[:])
}

// Add returns t + o.
func (t Twist) Add(o Twist) Twist {
	return Twist{t.Angular.Add(o.Angular), t.Linear.Add(o.Linear)}
}

// Sub returns t - o.
func (t Twist) Sub(o Twist) Twist {
	return Twist{t.Angular.Sub(o.Angular), t.Linear.Sub(o.Linear)}
}

// Scale returns s*t.
func (t Twist) Scale(s float64) Twist {
	return Twist{t.Angular.Mul(s), t.Linear.Mul(s)}
}

// Cross is the motion cross product t x o.
func (t Twist) Cross(o Twist) Twist {
	return Twist{
		Angular: t.Angular.Cross(o.Angular),
		Linear:  t.Angular.Cross(o.Linear).Add(t.Linear.Cross(o.Angular)),
	}
}

// CrossWrench is the force cross product t x* w.
func (t Twist) CrossWrench(w Wrench) Wrench {
	return Wrench{
		Force:  t.Angular.Cross(w.Force),
		Torque: t.Angular.Cross(w.Torque).Add(t.Linear.Cross(w.Force)),
	}
}

// Dot is the power pairing of a motion and a force vector.
func (t Twist) Dot(w Wrench) float64 {
	return t.Angular.Dot(w.Torque) + t.Linear.Dot(w.Force)
}

// NewWrenchFromSlice reads a wrench stored force-first.
func NewWrenchFromSlice(s []float64) Wrench {
	return Wrench{
		Force:  mgl64.Vec3{s[0], s[1], s[2]},
		Torque: mgl64.Vec3{s[3], s[4], s[5]},
	}
}

// CopyTo writes the wrench force-first into the first six entries of dst.
func (w Wrench) CopyTo(dst []float64) {
	copy(dst[0:3], w.Force[:])
	copy(dst[3:6], w.Torque[:])
}

// Add returns w + o.
func (w Wrench) Add(o Wrench) Wrench {
	return Wrench{w.Force.Add(o.Force), w.Torque.Add(o.Torque)}
}

// Sub returns w - o.
func (w Wrench) Sub(o Wrench) Wrench {
	return Wrench{w.Force.Sub(o.Force), w.Torque.Sub(o.Torque)}
}

// Scale returns s*w.
func (w Wrench) Scale(s float64) Wrench {
	return Wrench{w.Force.Mul(s), w.Torque.Mul(s)}
}

// ApplyAt returns the wrench, about the frame origin, of a force f and a moment m applied at pt.
func ApplyAt(pt, f, m mgl64.Vec3) Wrench {
	return Wrench{Force: f, Torque: m.Add(pt.Cross(f))}
}

// TwistAlmostEqual reports whether two twists agree to within tol.
func TwistAlmostEqual(a, b Twist, tol float64) bool {
	return VecAlmostEqual(a.Angular, b.Angular, tol) && VecAlmostEqual(a.Linear, b.Linear, tol)
}

// WrenchAlmostEqual reports whether two wrenches agree to within tol.
func WrenchAlmostEqual(a, b Wrench, tol float64) bool {
	return VecAlmostEqual(a.Force, b.Force, tol) && VecAlmostEqual(a.Torque, b.Torque, tol)
}

// Package spatialmath defines the spatial algebra used by the dynamics engine: rigid transforms,
// twists, wrenches and rigid body inertias, with the operators needed to move them between frames.
package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/utils"
)

// Pose is the rigid transform X_a_b: the orientation and origin of frame b expressed in frame a.
// A point p_b in b maps to a as Rotation*p_b + Translation.
type Pose struct {
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{Rotation: mgl64.Ident3()}
}

// NewPose returns a pose from a rotation matrix and a translation.
func NewPose(rot mgl64.Mat3, trans mgl64.Vec3) Pose {
	return Pose{Rotation: rot, Translation: trans}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{Rotation: mgl64.Ident3(), Translation: R3ToVec(pt)}
}

// Point returns the translation of the pose.
func (p Pose) Point() r3.Vector {
	return VecToR3(p.Translation)
}

// Compose returns p ∘ q, i.e. X_a_c given p = X_a_b and q = X_b_c.
func (p Pose) Compose(q Pose) Pose {
	return Pose{
		Rotation:    p.Rotation.Mul3(q.Rotation),
		Translation: p.Rotation.Mul3x1(q.Translation).Add(p.Translation),
	}
}

// Inverse returns X_b_a given p = X_a_b.
func (p Pose) Inverse() Pose {
	rt := p.Rotation.Transpose()
	return Pose{
		Rotation:    rt,
		Translation: rt.Mul3x1(p.Translation).Mul(-1),
	}
}

// TransformPoint maps a point expressed in b into a.
func (p Pose) TransformPoint(pt mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Mul3x1(pt).Add(p.Translation)
}

// TransformTwist re-expresses a twist given in b coordinates in a coordinates.
func (p Pose) TransformTwist(t Twist) Twist {
	w := p.Rotation.Mul3x1(t.Angular)
	return Twist{
		Angular: w,
		Linear:  p.Rotation.Mul3x1(t.Linear).Add(p.Translation.Cross(w)),
	}
}

// InverseTransformTwist re-expresses a twist given in a coordinates in b coordinates.
func (p Pose) InverseTransformTwist(t Twist) Twist {
	rt := p.Rotation.Transpose()
	return Twist{
		Angular: rt.Mul3x1(t.Angular),
		Linear:  rt.Mul3x1(t.Linear.Sub(p.Translation.Cross(t.Angular))),
	}
}

// TransformWrench re-expresses a wrench given in b coordinates in a coordinates.
func (p Pose) TransformWrench(w Wrench) Wrench {
	f := p.Rotation.Mul3x1(w.Force)
	return Wrench{
		Force:  f,
		Torque: p.Rotation.Mul3x1(w.Torque).Add(p.Translation.Cross(f)),
	}
}

// InverseTransformWrench re-expresses a wrench given in a coordinates in b coordinates.
func (p Pose) InverseTransformWrench(w Wrench) Wrench {
	rt := p.Rotation.Transpose()
	return Wrench{
		Force:  rt.Mul3x1(w.Force),
		Torque: rt.Mul3x1(w.Torque.Sub(p.Translation.Cross(w.Force))),
	}
}

// AdjointTo writes the 6x6 twist transform of p into dst starting at (row, col), using the
// linear-first ordering of the external 6-vectors.
func (p Pose) AdjointTo(dst *mat.Dense, row, col int) {
	pr := Skew(p.Translation).Mul3(p.Rotation)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r := p.Rotation.At(i, j)
			dst.Set(row+i, col+j, r)
			dst.Set(row+i, col+3+j, pr.At(i, j))
			dst.Set(row+3+i, col+j, 0)
			dst.Set(row+3+i, col+3+j, r)
		}
	}
}

// PoseAlmostEqual reports whether no entry of two poses differs by more than tol.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	for i := range a.Rotation {
		if !utils.Float64AlmostEqual(a.Rotation[i], b.Rotation[i], tol) {
			return false
		}
	}
	return VecAlmostEqual(a.Translation, b.Translation, tol)
}

// VecAlmostEqual reports whether no component of two vectors differs by more than tol.
func VecAlmostEqual(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if !utils.Float64AlmostEqual(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

// R3ToVec converts an r3.Vector to an mgl64.Vec3.
func R3ToVec(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// VecToR3 converts an mgl64.Vec3 to an r3.Vector.
func VecToR3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Skew returns the cross product matrix of v, so that Skew(v)*u == v x u.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

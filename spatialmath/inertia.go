package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
)

// NumInertialParams is the number of inertial parameters of one rigid body.
const NumInertialParams = 10

// RigidBodyInertia is the spatial inertia of a body about its frame origin.
type RigidBodyInertia struct {
	Mass float64
	// FirstMoment is mass times the center of mass position.
	FirstMoment mgl64.Vec3
	// Rotational is the rotational inertia about the frame origin.
	Rotational mgl64.Mat3
}

// NewRigidBodyInertia builds a body inertia from its mass, its center of mass and its rotational
// inertia about the center of mass, all in the body frame.
func NewRigidBodyInertia(mass float64, com mgl64.Vec3, atCOM mgl64.Mat3) RigidBodyInertia {
	sc := Skew(com)
	return RigidBodyInertia{
		Mass:        mass,
		FirstMoment: com.Mul(mass),
		Rotational:  atCOM.Sub(sc.Mul3(sc).Mul(mass)),
	}
}

// COM returns the center of mass in the body frame, or the origin for a massless body.
func (in RigidBodyInertia) COM() mgl64.Vec3 {
	if in.Mass == 0 {
		return mgl64.Vec3{}
	}
	return in.FirstMoment.Mul(1 / in.Mass)
}

// MulTwist returns the momentum-like product I*v.
func (in RigidBodyInertia) MulTwist(v Twist) Wrench {
	return Wrench{
		Force:  v.Linear.Mul(in.Mass).Add(v.Angular.Cross(in.FirstMoment)),
		Torque: in.Rotational.Mul3x1(v.Angular).Add(in.FirstMoment.Cross(v.Linear)),
	}
}

// GravitoInertialWrench returns I*a + v x* (I*v) for a body with velocity v and spatial
// acceleration a.
func (in RigidBodyInertia) GravitoInertialWrench(v, a Twist) Wrench {
	return in.MulTwist(a).Add(v.CrossWrench(in.MulTwist(v)))
}

// Parameters writes [m, mcx, mcy, mcz, Ixx, Ixy, Ixz, Iyy, Iyz, Izz] into dst.
func (in RigidBodyInertia) Parameters(dst []float64) {
	dst[0] = in.Mass
	dst[1], dst[2], dst[3] = in.FirstMoment[0], in.FirstMoment[1], in.FirstMoment[2]
	r := in.Rotational
	dst[4], dst[5], dst[6] = r.At(0, 0), r.At(0, 1), r.At(0, 2)
	dst[7], dst[8] = r.At(1, 1), r.At(1, 2)
	dst[9] = r.At(2, 2)
}

// InertiaProductMatrix returns L(w), the 3x6 matrix such that I*w == L(w)*[Ixx Ixy Ixz Iyy Iyz Izz]^T.
// The rows are returned as three 6-arrays.
func InertiaProductMatrix(w mgl64.Vec3) [3][6]float64 {
	return [3][6]float64{
		{w[0], w[1], w[2], 0, 0, 0},
		{0, w[0], 0, w[1], w[2], 0},
		{0, 0, w[0], 0, w[1], w[2]},
	}
}

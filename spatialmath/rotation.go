package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// AxisAngleToQuat returns the unit quaternion of a rotation by theta about axis.
// A zero axis yields the identity.
func AxisAngleToQuat(axis mgl64.Vec3, theta float64) quat.Number {
	n := axis.Len()
	if n == 0 {
		return quat.Number{Real: 1}
	}
	s := math.Sin(theta/2) / n
	return quat.Number{Real: math.Cos(theta / 2), Imag: axis[0] * s, Jmag: axis[1] * s, Kmag: axis[2] * s}
}

// RPYToQuat returns the quaternion of fixed-axis roll, pitch, yaw angles, R = Rz(yaw)*Ry(pitch)*Rx(roll).
func RPYToQuat(roll, pitch, yaw float64) quat.Number {
	qx := AxisAngleToQuat(mgl64.Vec3{1, 0, 0}, roll)
	qy := AxisAngleToQuat(mgl64.Vec3{0, 1, 0}, pitch)
	qz := AxisAngleToQuat(mgl64.Vec3{0, 0, 1}, yaw)
	return quat.Mul(qz, quat.Mul(qy, qx))
}

// QuatToRotation converts a quaternion into a rotation matrix. The quaternion is normalized first.
func QuatToRotation(q quat.Number) mgl64.Mat3 {
	n := quat.Abs(q)
	if n == 0 {
		return mgl64.Ident3()
	}
	w, x, y, z := q.Real/n, q.Imag/n, q.Jmag/n, q.Kmag/n
	return mgl64.Mat3FromRows(
		mgl64.Vec3{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		mgl64.Vec3{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		mgl64.Vec3{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	)
}

// AxisAngleToRotation returns the rotation matrix of a rotation by theta about axis.
func AxisAngleToRotation(axis mgl64.Vec3, theta float64) mgl64.Mat3 {
	return QuatToRotation(AxisAngleToQuat(axis, theta))
}

// RPYToRotation returns the rotation matrix of fixed-axis roll, pitch, yaw angles.
func RPYToRotation(roll, pitch, yaw float64) mgl64.Mat3 {
	return QuatToRotation(RPYToQuat(roll, pitch, yaw))
}

// RotationToRPY recovers fixed-axis roll, pitch, yaw from a rotation matrix.
func RotationToRPY(r mgl64.Mat3) r3.Vector {
	pitch := math.Asin(-clamp(r.At(2, 0), -1, 1))
	if math.Abs(r.At(2, 0)) > 1-1e-12 {
		// gimbal lock; put all of the rotation about z into yaw
		return r3.Vector{X: 0, Y: pitch, Z: math.Atan2(-r.At(0, 1), r.At(1, 1))}
	}
	return r3.Vector{
		X: math.Atan2(r.At(2, 1), r.At(2, 2)),
		Y: pitch,
		Z: math.Atan2(r.At(1, 0), r.At(0, 0)),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

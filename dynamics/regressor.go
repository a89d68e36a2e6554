package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/spatialmath"
)

// linkRegressor returns the columns of Y such that Y*params equals the gravito-inertial wrench of a body with
// velocity v and spatial acceleration a, for params laid out as in RigidBodyInertia.Parameters.
func linkRegressor(v, a spatialmath.Twist) [spatialmath.NumInertialParams]spatialmath.Wrench {
	var y [spatialmath.NumInertialParams]spatialmath.Wrench
	w, alpha := v.Angular, a.Angular
	ac := a.Linear.Add(w.Cross(v.Linear))

	y[0] = spatialmath.Wrench{Force: ac}
	for k := 0; k < 3; k++ {
		e := basis(k)
		y[1+k] = spatialmath.Wrench{
			Force:  alpha.Cross(e).Add(w.Cross(w.Cross(e))),
			Torque: e.Cross(ac),
		}
	}
	la, lw := spatialmath.InertiaProductMatrix(alpha), spatialmath.InertiaProductMatrix(w)
	for k := 0; k < 6; k++ {
		colA := mgl64.Vec3{la[0][k], la[1][k], la[2][k]}
		colW := mgl64.Vec3{lw[0][k], lw[1][k], lw[2][k]}
		y[4+k] = spatialmath.Wrench{Torque: colA.Add(w.Cross(colW))}
	}
	return y
}

// DynamicsRegressor writes into dst the (6+DOF) x (10*links) matrix that maps the inertial parameters returned
// by DynamicsParameters to [base wrench; joint torques], for the current kinematics and no external wrenches.
func (e *Engine) DynamicsRegressor(dst *mat.Dense) error {
	if e.phase < KinematicsComputed {
		return NewPhaseError("DynamicsRegressor", KinematicsComputed, e.phase)
	}
	nl := e.topo.NrOfLinks()
	if err := fitDst(dst, "dynamics regressor", 6+e.topo.NrOfDOFs(), spatialmath.NumInertialParams*nl); err != nil {
		return err
	}
	dst.Zero()

	c := &e.cache
	for i := 0; i < nl; i++ {
		y := linkRegressor(c.v[i], c.a[i])
		for p, w := range y {
			col := spatialmath.NumInertialParams*i + p
			wb := c.pose[i].TransformWrench(w)
			for r := 0; r < 3; r++ {
				dst.Set(r, col, wb.Force[r])
				dst.Set(3+r, col, wb.Torque[r])
			}
			for k := i; k != e.dyn.Base; k = e.dyn.Parent[k] {
				dof := e.topo.Joints[e.dyn.ParentJoint[k]].DOF
				if dof < 0 {
					continue
				}
				wk := c.pose[k].Inverse().Compose(c.pose[i]).TransformWrench(w)
				dst.Set(6+dof, col, e.dynS[k].Dot(wk))
			}
		}
	}
	return nil
}

// DynamicsParameters returns the inertial parameters of every link, ten per link in link index order.
func (e *Engine) DynamicsParameters() []float64 {
	out := make([]float64, spatialmath.NumInertialParams*e.topo.NrOfLinks())
	for i := range e.topo.Links {
		e.topo.Links[i].Inertia.Parameters(out[spatialmath.NumInertialParams*i:])
	}
	return out
}

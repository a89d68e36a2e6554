package dynamics

import (
	"go.viam.com/dyntree/spatialmath"
)

// jointValue returns the entry of values for joint j, or 0 if j is fixed or absent.
func (e *Engine) jointValue(values []float64, j int) float64 {
	if j < 0 || e.topo.Joints[j].DOF < 0 {
		return 0
	}
	return values[e.topo.Joints[j].DOF]
}

// ComputePositions evaluates every joint transform at the current positions and the pose of every link
// relative to the dynamic base.
func (e *Engine) ComputePositions() {
	c := &e.cache
	for i := range e.topo.Joints {
		j := &e.topo.Joints[i]
		q := 0.
		if j.DOF >= 0 {
			q = e.q[j.DOF]
		}
		c.jointPose[i] = j.Transform(q)
	}
	c.pose[e.dyn.Base] = spatialmath.NewZeroPose()
	for _, l := range e.dyn.Order[1:] {
		c.pose[l] = c.pose[e.dyn.Parent[l]].Compose(e.dyn.ParentPose(c.jointPose, l))
	}
	if e.phase < PositionsComputed {
		e.phase = PositionsComputed
	}
}

// KinematicRNEA propagates the inertial measurement from the IMU link to every link and evaluates each link's
// gravito-inertial wrench. It computes positions first if they are stale.
func (e *Engine) KinematicRNEA() {
	if e.phase < PositionsComputed {
		e.ComputePositions()
	}
	c := &e.cache
	imu := e.kin.Base
	c.v[imu] = spatialmath.Twist{Angular: e.imuW}
	// the IMU origin does not move relative to itself, so its classical and spatial accelerations agree
	c.a[imu] = spatialmath.Twist{Angular: e.imuDW, Linear: e.imuDDP}

	for _, l := range e.kin.Order[1:] {
		p := e.kin.Parent[l]
		x := e.kin.ParentPose(c.jointPose, l)
		vj := e.kinS[l].Scale(e.jointValue(e.dq, e.kin.ParentJoint[l]))
		c.v[l] = x.InverseTransformTwist(c.v[p]).Add(vj)
		c.a[l] = x.InverseTransformTwist(c.a[p]).
			Add(e.kinS[l].Scale(e.jointValue(e.ddq, e.kin.ParentJoint[l]))).
			Add(c.v[l].Cross(vj))
	}
	for l := range e.topo.Links {
		c.fgi[l] = e.topo.Links[l].Inertia.GravitoInertialWrench(c.v[l], c.a[l])
	}
	e.phase = KinematicsComputed
}

// Position returns X_base_l, the pose of link relative to the dynamic base.
func (e *Engine) Position(link int) (spatialmath.Pose, error) {
	if err := e.checkLink(link); err != nil {
		return spatialmath.Pose{}, err
	}
	if e.phase < PositionsComputed {
		return spatialmath.Pose{}, NewPhaseError("Position", PositionsComputed, e.phase)
	}
	return e.cache.pose[link], nil
}

// RelativePosition returns the pose of link in the frame of reference.
func (e *Engine) RelativePosition(link, reference int) (spatialmath.Pose, error) {
	if err := e.checkLink(reference); err != nil {
		return spatialmath.Pose{}, err
	}
	x, err := e.Position(link)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return e.cache.pose[reference].Inverse().Compose(x), nil
}

// Vel returns the twist of link as [v; w] in link coordinates.
func (e *Engine) Vel(link int) ([6]float64, error) {
	var out [6]float64
	if err := e.checkLink(link); err != nil {
		return out, err
	}
	if e.phase < KinematicsComputed {
		return out, NewPhaseError("Vel", KinematicsComputed, e.phase)
	}
	e.cache.v[link].CopyTo(out[:])
	return out, nil
}

// Acc returns the classical acceleration of link as [dv; dw] in link coordinates: the linear part is the proper
// acceleration of the link origin.
func (e *Engine) Acc(link int) ([6]float64, error) {
	var out [6]float64
	if err := e.checkLink(link); err != nil {
		return out, err
	}
	if e.phase < KinematicsComputed {
		return out, NewPhaseError("Acc", KinematicsComputed, e.phase)
	}
	v, a := e.cache.v[link], e.cache.a[link]
	a.Linear = a.Linear.Add(v.Angular.Cross(v.Linear))
	a.CopyTo(out[:])
	return out, nil
}

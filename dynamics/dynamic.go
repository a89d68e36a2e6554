package dynamics

import (
	"go.viam.com/dyntree/spatialmath"
)

// DynamicRNEA sweeps from the leaves to the dynamic base accumulating the wrench each joint transmits, then
// projects it onto the joint axes. After EstimateContactForces the estimated contact wrenches drive the sweep and
// every FT sensor reading is predicted from it. Otherwise the sensor readings stand in for the wrench crossing
// each sensor joint.
//
// It panics if KinematicRNEA has not run on the current state.
func (e *Engine) DynamicRNEA() {
	if e.phase < KinematicsComputed {
		panic(NewPhaseError("DynamicRNEA", KinematicsComputed, e.phase))
	}
	estimated := e.phase == ContactsEstimated || (e.phase == DynamicsComputed && e.estimated)
	c := &e.cache

	for i := len(e.dyn.Order) - 1; i >= 0; i-- {
		l := e.dyn.Order[i]
		f := c.fgi[l]
		if estimated {
			f = f.Sub(c.fext[l])
		}
		for _, child := range e.dyn.Children[l] {
			if s := e.jointSensor[e.dyn.ParentJoint[child]]; s >= 0 && !estimated {
				// l pushes on child with the measured wrench, or its opposite if l is the sensor's child side
				sensor := &e.sensors[s]
				w := sensor.WrenchOnSubgraph(l, e.measured[s])
				if l != sensor.Parent {
					w = w.Scale(-1)
				}
				f = f.Add(w)
				continue
			}
			f = f.Add(e.dyn.ParentPose(c.jointPose, child).TransformWrench(c.f[child]))
		}
		c.f[l] = f
		if j := e.dyn.ParentJoint[l]; j >= 0 {
			if dof := e.topo.Joints[j].DOF; dof >= 0 {
				c.torques[dof] = e.dynS[l].Dot(f)
			}
		}
	}
	c.baseWrench = c.f[e.dyn.Base]

	if estimated {
		for i := range e.sensors {
			c.simulated[i] = e.simulateSensor(&e.sensors[i])
		}
	}
	e.estimated = estimated
	e.phase = DynamicsComputed
}

// simulateSensor returns the reading the last dynamic sweep predicts for s.
func (e *Engine) simulateSensor(s *FTSensor) spatialmath.Wrench {
	c := &e.cache
	sensorInv := s.ParentToSensor.Inverse()
	if e.dyn.Parent[s.Child] == s.Parent {
		// f[child] is what the parent side exerts on the child side, in child coordinates
		return sensorInv.Compose(c.jointPose[s.Joint]).TransformWrench(c.f[s.Child])
	}
	// f[parent] is what the child side exerts on the parent side, in parent coordinates
	return sensorInv.TransformWrench(c.f[s.Parent].Scale(-1))
}

// Torques returns the joint torques of a part computed by the last DynamicRNEA.
func (e *Engine) Torques(part string) ([]float64, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, err
	}
	if e.phase < DynamicsComputed {
		return nil, NewPhaseError("Torques", DynamicsComputed, e.phase)
	}
	return gather(e.cache.torques, p), nil
}

// BaseWrench returns, as [force; torque] in the dynamic base frame, the wrench the base needs beyond what the
// rest of the tree supplies. It is zero when the estimated contacts balance the tree.
func (e *Engine) BaseWrench() ([6]float64, error) {
	var out [6]float64
	if e.phase < DynamicsComputed {
		return out, NewPhaseError("BaseWrench", DynamicsComputed, e.phase)
	}
	e.cache.baseWrench.CopyTo(out[:])
	return out, nil
}

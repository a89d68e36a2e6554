package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/spatialmath"
)

// ComputeCOM evaluates the center of mass of the whole tree and of every part, in the dynamic base frame. It
// computes positions first if they are stale.
func (e *Engine) ComputeCOM() {
	if e.phase < PositionsComputed {
		e.ComputePositions()
	}
	c := &e.cache
	whole, _ := e.parts.Part("")
	c.mass, c.com = e.weightedCOM(whole.Links)
	for i, p := range e.parts.Parts() {
		c.partMass[i], c.partCOM[i] = e.weightedCOM(p.Links)
	}
	c.comValid = true
}

// weightedCOM returns the total mass of links and their center of mass, or zeros if the mass is zero.
func (e *Engine) weightedCOM(links []int) (float64, mgl64.Vec3) {
	var mass float64
	var sum mgl64.Vec3
	for _, l := range links {
		in := &e.topo.Links[l].Inertia
		if in.Mass == 0 {
			continue
		}
		mass += in.Mass
		sum = sum.Add(e.cache.pose[l].TransformPoint(in.COM()).Mul(in.Mass))
	}
	if mass == 0 {
		return 0, mgl64.Vec3{}
	}
	return mass, sum.Mul(1 / mass)
}

// COM returns the center of mass of a part computed by the last ComputeCOM.
func (e *Engine) COM(part string) (r3.Vector, error) {
	if _, err := e.part(part); err != nil {
		return r3.Vector{}, err
	}
	if !e.cache.comValid {
		return r3.Vector{}, ErrCOMNotComputed
	}
	mass, com := e.cache.mass, e.cache.com
	if part != "" {
		for i, p := range e.parts.Parts() {
			if p.Name == part {
				mass, com = e.cache.partMass[i], e.cache.partCOM[i]
				break
			}
		}
	}
	if mass == 0 {
		return r3.Vector{}, ErrZeroMass
	}
	return spatialmath.VecToR3(com), nil
}

// ComputeCOMJacobian evaluates, for the whole tree and for every part, the 6 x (6+DOF) matrix mapping [base
// twist; dq] to the velocity of the center of mass and the mass weighted mean angular velocity, both in the
// dynamic base frame. It fails only when the whole tree has no mass.
func (e *Engine) ComputeCOMJacobian() error {
	if e.phase < PositionsComputed {
		e.ComputePositions()
	}
	c := &e.cache
	whole, _ := e.parts.Part("")
	if e.comJacobian(c.comJac, whole.Links) == 0 {
		return ErrZeroMass
	}
	for i, p := range e.parts.Parts() {
		c.partJacMass[i] = e.comJacobian(c.partComJac[i], p.Links)
	}
	c.comJacValid = true
	return nil
}

// comJacobian writes the COM jacobian of links into dst and returns their total mass. dst is zero if the mass is.
func (e *Engine) comJacobian(dst *mat.Dense, links []int) float64 {
	c := &e.cache
	dst.Zero()
	var total float64
	for _, l := range links {
		total += e.topo.Links[l].Inertia.Mass
	}
	if total == 0 {
		return 0
	}
	_, n := dst.Dims()
	for _, l := range links {
		in := &e.topo.Links[l].Inertia
		if in.Mass == 0 {
			continue
		}
		e.jacobian(c.linkJac, l)
		r := c.pose[l].Rotation
		com := r.Mul3x1(in.COM())
		w := in.Mass / total
		for col := 0; col < n; col++ {
			t := twistColumn(c.linkJac, col)
			ang := r.Mul3x1(t.Angular)
			lin := r.Mul3x1(t.Linear).Add(ang.Cross(com))
			acc := twistColumn(dst, col)
			setTwistColumn(dst, col, spatialmath.Twist{
				Linear:  acc.Linear.Add(lin.Mul(w)),
				Angular: acc.Angular.Add(ang.Mul(w)),
			})
		}
	}
	return total
}

// COMJacobian copies the matrix of a part computed by the last ComputeCOMJacobian into dst.
func (e *Engine) COMJacobian(dst *mat.Dense, part string) error {
	if _, err := e.part(part); err != nil {
		return err
	}
	if !e.cache.comJacValid {
		return ErrCOMNotComputed
	}
	if err := fitDst(dst, "COM jacobian", 6, 6+e.topo.NrOfDOFs()); err != nil {
		return err
	}
	src := e.cache.comJac
	if part != "" {
		for i, p := range e.parts.Parts() {
			if p.Name == part {
				if e.cache.partJacMass[i] == 0 {
					return ErrZeroMass
				}
				src = e.cache.partComJac[i]
				break
			}
		}
	}
	dst.Copy(src)
	return nil
}

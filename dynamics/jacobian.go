package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/spatialmath"
)

// fitDst sizes an empty dst to r x c, or checks that a non-empty one already has that shape.
func fitDst(dst *mat.Dense, what string, r, c int) error {
	if dst.IsEmpty() {
		dst.ReuseAs(r, c)
		return nil
	}
	if dr, dc := dst.Dims(); dr != r || dc != c {
		return NewMatrixSizeError(what, r, c, dr, dc)
	}
	return nil
}

// setTwistColumn writes t linear-first into column col of dst.
func setTwistColumn(dst *mat.Dense, col int, t spatialmath.Twist) {
	for i := 0; i < 3; i++ {
		dst.Set(i, col, t.Linear[i])
		dst.Set(3+i, col, t.Angular[i])
	}
}

func twistColumn(src *mat.Dense, col int) spatialmath.Twist {
	return spatialmath.Twist{
		Linear:  mgl64.Vec3{src.At(0, col), src.At(1, col), src.At(2, col)},
		Angular: mgl64.Vec3{src.At(3, col), src.At(4, col), src.At(5, col)},
	}
}

// rotateColumns rotates both 3-row blocks of every column of dst by r.
func rotateColumns(dst *mat.Dense, r mgl64.Mat3) {
	_, n := dst.Dims()
	for col := 0; col < n; col++ {
		t := twistColumn(dst, col)
		setTwistColumn(dst, col, spatialmath.Twist{Angular: r.Mul3x1(t.Angular), Linear: r.Mul3x1(t.Linear)})
	}
}

// Jacobian writes into dst the 6 x (6+DOF) matrix mapping [base twist; dq] to the twist of link. The base twist
// is that of the dynamic base in its own frame, and rows are [v; w] in link coordinates. With global set both
// blocks are rotated into the orientation of the dynamic base, keeping the link origin as reference point.
func (e *Engine) Jacobian(dst *mat.Dense, link int, global bool) error {
	if err := e.checkLink(link); err != nil {
		return err
	}
	if e.phase < PositionsComputed {
		return NewPhaseError("Jacobian", PositionsComputed, e.phase)
	}
	if err := fitDst(dst, "jacobian", 6, 6+e.topo.NrOfDOFs()); err != nil {
		return err
	}
	e.jacobian(dst, link)
	if global {
		rotateColumns(dst, e.cache.pose[link].Rotation)
	}
	return nil
}

func (e *Engine) jacobian(dst *mat.Dense, link int) {
	dst.Zero()
	c := &e.cache
	linkInv := c.pose[link].Inverse()
	linkInv.AdjointTo(dst, 0, 0)
	for k := link; k != e.dyn.Base; k = e.dyn.Parent[k] {
		dof := e.topo.Joints[e.dyn.ParentJoint[k]].DOF
		if dof < 0 {
			continue
		}
		setTwistColumn(dst, 6+dof, linkInv.Compose(c.pose[k]).TransformTwist(e.dynS[k]))
	}
}

// RelativeJacobian writes into dst the 6 x DOF matrix mapping dq to the twist of distal relative to base, in
// distal coordinates. With global set both blocks are rotated into the orientation of the dynamic base.
func (e *Engine) RelativeJacobian(dst *mat.Dense, distal, base int, global bool) error {
	if err := e.checkLink(distal); err != nil {
		return err
	}
	if err := e.checkLink(base); err != nil {
		return err
	}
	if e.phase < PositionsComputed {
		return NewPhaseError("RelativeJacobian", PositionsComputed, e.phase)
	}
	nd := e.topo.NrOfDOFs()
	if nd == 0 {
		return NewMatrixSizeError("relative jacobian", 6, 0, 6, 0)
	}
	if err := fitDst(dst, "relative jacobian", 6, nd); err != nil {
		return err
	}
	dst.Zero()

	c := &e.cache
	distalInv := c.pose[distal].Inverse()
	lca := e.dyn.LowestCommonAncestor(distal, base)
	add := func(from int, sign float64) {
		for k := from; k != lca; k = e.dyn.Parent[k] {
			dof := e.topo.Joints[e.dyn.ParentJoint[k]].DOF
			if dof < 0 {
				continue
			}
			s := distalInv.Compose(c.pose[k]).TransformTwist(e.dynS[k]).Scale(sign)
			setTwistColumn(dst, dof, s)
		}
	}
	add(distal, 1)
	add(base, -1)
	if global {
		rotateColumns(dst, c.pose[distal].Rotation)
	}
	return nil
}

// DQFloatingBase returns [v; w] of the dynamic base followed by the joint velocities, the vector a Jacobian
// multiplies.
func (e *Engine) DQFloatingBase() ([]float64, error) {
	if e.phase < KinematicsComputed {
		return nil, NewPhaseError("DQFloatingBase", KinematicsComputed, e.phase)
	}
	out := make([]float64, 6+e.topo.NrOfDOFs())
	e.cache.v[e.dyn.Base].CopyTo(out)
	copy(out[6:], e.dq)
	return out, nil
}

package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/spatialmath"
)

// ContactType selects which components of a contact wrench are unknown.
type ContactType int

const (
	// ContactForceDirection has a single unknown: the force magnitude along Direction.
	ContactForceDirection ContactType = iota + 1
	// ContactPureForce has the three force components unknown.
	ContactPureForce
	// ContactFull has both force and moment unknown.
	ContactFull
)

// Unknowns returns the number of scalar unknowns a contact of this type adds to its subgraph's system.
func (t ContactType) Unknowns() int {
	switch t {
	case ContactForceDirection:
		return 1
	case ContactPureForce:
		return 3
	case ContactFull:
		return 6
	default:
		return 0
	}
}

func (t ContactType) String() string {
	switch t {
	case ContactForceDirection:
		return "force_direction"
	case ContactPureForce:
		return "pure_force"
	case ContactFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseContactType maps the names returned by ContactType.String back to their type.
func ParseContactType(s string) (ContactType, error) {
	for _, t := range []ContactType{ContactForceDirection, ContactPureForce, ContactFull} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown contact type %q", s)
}

// Contact is a point where the environment pushes on a link. Force and Moment hold the known components on
// input and the estimate after EstimateContactForces. Moment is taken about Point.
type Contact struct {
	Link      int
	Point     r3.Vector
	Type      ContactType
	Direction r3.Vector
	Force     r3.Vector
	Moment    r3.Vector
	// Default marks contacts the engine placed on a subgraph that had none.
	Default bool
}

// contactSystem is the least squares problem A*x = b recovering the contact unknowns of one subgraph, with A
// and b expressed in the subgraph root's frame.
type contactSystem struct {
	contacts []int
	a        *mat.Dense
	b        *mat.VecDense
	x        *mat.VecDense
	svd      mat.SVD
}

// SetContacts replaces the contact list. Entries flagged Default are dropped, and every subgraph left without a
// contact receives a default full contact at the origin of its deepest link.
func (e *Engine) SetContacts(contacts []Contact) error {
	for i, c := range contacts {
		if c.Default {
			continue
		}
		if err := e.checkLink(c.Link); err != nil {
			return NewInvalidContactError(i, err.Error())
		}
		if c.Type.Unknowns() == 0 {
			return NewInvalidContactError(i, "unknown contact type")
		}
		if c.Type == ContactForceDirection && c.Direction.Norm() == 0 {
			return NewInvalidContactError(i, "force direction is zero")
		}
	}

	list := make([]Contact, 0, len(contacts)+e.subgraphs.count())
	covered := make([]bool, e.subgraphs.count())
	for _, c := range contacts {
		if c.Default {
			continue
		}
		if c.Type == ContactForceDirection {
			c.Direction = c.Direction.Normalize()
		}
		list = append(list, c)
		covered[e.subgraphs.linkSubgraph[c.Link]] = true
	}
	for g, ok := range covered {
		if !ok {
			list = append(list, Contact{Link: e.subgraphs.deepest[g], Type: ContactFull, Default: true})
		}
	}
	e.contacts = list

	for g := range e.cache.systems {
		e.cache.systems[g] = contactSystem{}
	}
	for i, c := range e.contacts {
		sys := &e.cache.systems[e.subgraphs.linkSubgraph[c.Link]]
		sys.contacts = append(sys.contacts, i)
	}
	for g := range e.cache.systems {
		sys := &e.cache.systems[g]
		n := 0
		for _, i := range sys.contacts {
			n += e.contacts[i].Type.Unknowns()
		}
		sys.a = mat.NewDense(6, n, nil)
		sys.b = mat.NewVecDense(6, nil)
		sys.x = mat.NewVecDense(n, nil)
	}
	e.invalidate(KinematicsComputed)
	return nil
}

// Contacts returns a copy of the contact list, estimates included once EstimateContactForces has run.
func (e *Engine) Contacts() []Contact {
	out := make([]Contact, len(e.contacts))
	copy(out, e.contacts)
	return out
}

// EstimateContactForces solves, for each subgraph, for the contact wrenches that balance its gravito-inertial
// wrench and the FT sensor readings on its boundary. Rank deficient systems get the minimum norm solution.
func (e *Engine) EstimateContactForces() error {
	if e.phase < KinematicsComputed {
		return NewPhaseError("EstimateContactForces", KinematicsComputed, e.phase)
	}
	c := &e.cache
	sg := &e.subgraphs

	for i := len(e.dyn.Order) - 1; i >= 0; i-- {
		l := e.dyn.Order[i]
		b := c.fgi[l]
		for _, s := range sg.linkSensors[l] {
			b = b.Sub(e.sensors[s].wrenchExertedOn(l, e.measured[s]))
		}
		for _, child := range e.dyn.Children[l] {
			if sg.linkSubgraph[child] == sg.linkSubgraph[l] {
				b = b.Add(e.dyn.ParentPose(c.jointPose, child).TransformWrench(c.bsub[child]))
			}
		}
		c.bsub[l] = b
	}

	for l := range c.fext {
		c.fext[l] = spatialmath.Wrench{}
	}
	for g := range c.systems {
		if err := e.solveSubgraph(g); err != nil {
			return err
		}
	}
	e.phase = ContactsEstimated
	return nil
}

func (e *Engine) solveSubgraph(g int) error {
	c := &e.cache
	sys := &c.systems[g]
	root := e.subgraphs.roots[g]
	rootInv := c.pose[root].Inverse()

	b := c.bsub[root]
	col := 0
	for _, i := range sys.contacts {
		ct := &e.contacts[i]
		x := rootInv.Compose(c.pose[ct.Link])
		p := spatialmath.R3ToVec(ct.Point)
		unit := func(w spatialmath.Wrench) {
			setWrenchColumn(sys.a, col, x.TransformWrench(w))
			col++
		}
		switch ct.Type {
		case ContactForceDirection:
			d := spatialmath.R3ToVec(ct.Direction)
			unit(spatialmath.ApplyAt(p, d, mgl64.Vec3{}))
		case ContactPureForce:
			for k := 0; k < 3; k++ {
				unit(spatialmath.ApplyAt(p, basis(k), mgl64.Vec3{}))
			}
		case ContactFull:
			for k := 0; k < 3; k++ {
				unit(spatialmath.ApplyAt(p, basis(k), mgl64.Vec3{}))
			}
			for k := 0; k < 3; k++ {
				unit(spatialmath.Wrench{Torque: basis(k)})
			}
		}
		if ct.Type != ContactFull {
			known := spatialmath.Wrench{Torque: spatialmath.R3ToVec(ct.Moment)}
			b = b.Sub(x.TransformWrench(known))
		}
	}
	setWrenchVec(sys.b, b)

	if !sys.svd.Factorize(sys.a, mat.SVDThin) {
		return errors.Errorf("contact system of subgraph %d did not factorize", g)
	}
	_, n := sys.a.Dims()
	rank := sys.svd.Rank(e.rcond)
	if rank == 0 {
		sys.x.Zero()
	} else {
		sys.svd.SolveVecTo(sys.x, sys.b, rank)
	}
	if rank < n {
		e.logger.Debugw("contact system is rank deficient", "subgraph", g, "rank", rank, "unknowns", n)
	}

	k := 0
	for _, i := range sys.contacts {
		ct := &e.contacts[i]
		p := spatialmath.R3ToVec(ct.Point)
		var f, m mgl64.Vec3
		switch ct.Type {
		case ContactForceDirection:
			f = spatialmath.R3ToVec(ct.Direction).Mul(sys.x.AtVec(k))
			m = spatialmath.R3ToVec(ct.Moment)
			k++
		case ContactPureForce:
			f = mgl64.Vec3{sys.x.AtVec(k), sys.x.AtVec(k + 1), sys.x.AtVec(k + 2)}
			m = spatialmath.R3ToVec(ct.Moment)
			k += 3
		case ContactFull:
			f = mgl64.Vec3{sys.x.AtVec(k), sys.x.AtVec(k + 1), sys.x.AtVec(k + 2)}
			m = mgl64.Vec3{sys.x.AtVec(k + 3), sys.x.AtVec(k + 4), sys.x.AtVec(k + 5)}
			k += 6
		}
		ct.Force, ct.Moment = spatialmath.VecToR3(f), spatialmath.VecToR3(m)
		c.fext[ct.Link] = c.fext[ct.Link].Add(spatialmath.ApplyAt(p, f, m))
	}
	return nil
}

func basis(k int) mgl64.Vec3 {
	var v mgl64.Vec3
	v[k] = 1
	return v
}

// setWrenchColumn writes w force-first into column col of dst.
func setWrenchColumn(dst *mat.Dense, col int, w spatialmath.Wrench) {
	for i := 0; i < 3; i++ {
		dst.Set(i, col, w.Force[i])
		dst.Set(3+i, col, w.Torque[i])
	}
}

func setWrenchVec(dst *mat.VecDense, w spatialmath.Wrench) {
	for i := 0; i < 3; i++ {
		dst.SetVec(i, w.Force[i])
		dst.SetVec(3+i, w.Torque[i])
	}
}

// Package kinematics holds the immutable structure of an articulated tree: its links and joints stored by
// dense index, the orderings used to sweep over them, and the grouping of links and joints into parts.
package kinematics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"go.viam.com/dyntree/referenceframe"
	"go.viam.com/dyntree/spatialmath"
)

// Link is a rigid body of the tree.
type Link struct {
	Index   int
	Name    string
	Inertia spatialmath.RigidBodyInertia
	// Joints lists every joint touching this link.
	Joints []int
}

// Joint connects the Parent link to the Child link of the description.
type Joint struct {
	Index  int
	Name   string
	Type   string
	Parent int
	Child  int
	// Origin is the pose of the child frame in the parent frame at zero position.
	Origin spatialmath.Pose
	// Axis is unit length for moving joints and zero for fixed ones.
	Axis  mgl64.Vec3
	Limit referenceframe.Limit
	// DOF is the global DOF index of the joint, or -1 if it is fixed.
	DOF int
}

// Transform returns X_P_C(q), the pose of the child frame in the parent frame at position q.
func (j *Joint) Transform(q float64) spatialmath.Pose {
	switch j.Type {
	case referenceframe.RevoluteJoint, referenceframe.ContinuousJoint:
		return j.Origin.Compose(spatialmath.Pose{Rotation: spatialmath.AxisAngleToRotation(j.Axis, q)})
	case referenceframe.PrismaticJoint:
		return j.Origin.Compose(spatialmath.Pose{Rotation: mgl64.Ident3(), Translation: j.Axis.Mul(q)})
	default:
		return j.Origin
	}
}

// MotionSubspace returns the unit twist of the child relative to the parent, in child coordinates.
// It is zero for fixed joints.
func (j *Joint) MotionSubspace() spatialmath.Twist {
	switch j.Type {
	case referenceframe.RevoluteJoint, referenceframe.ContinuousJoint:
		return spatialmath.Twist{Angular: j.Axis}
	case referenceframe.PrismaticJoint:
		return spatialmath.Twist{Linear: j.Axis}
	default:
		return spatialmath.Twist{}
	}
}

// Other returns the link on the other side of the joint from link.
func (j *Joint) Other(link int) int {
	if link == j.Parent {
		return j.Child
	}
	return j.Parent
}

// jointEdge is an undirected graph edge labelled with the joint it stands for.
type jointEdge struct {
	from, to graph.Node
	joint    int
}

func (e jointEdge) From() graph.Node         { return e.from }
func (e jointEdge) To() graph.Node           { return e.to }
func (e jointEdge) ReversedEdge() graph.Edge { return jointEdge{from: e.to, to: e.from, joint: e.joint} }

// Topology is a validated tree of links and joints. It is never mutated after NewTopology returns.
type Topology struct {
	Name   string
	Links  []Link
	Joints []Joint
	// DOFs maps a DOF index to its joint index.
	DOFs []int
	// Root is the only link that is no joint's child.
	Root int

	graph       *simple.UndirectedGraph
	linkByName  map[string]int
	jointByName map[string]int
}

// NewTopology builds a topology from a model description. ser fixes the global link and DOF numbering; when nil
// the description order is used.
func NewTopology(cfg *referenceframe.ModelConfig, ser *Serialization) (*Topology, error) {
	if cfg == nil {
		return nil, referenceframe.ErrNoModelInformation
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	linkOrder, dofOrder, err := ser.order(cfg)
	if err != nil {
		return nil, err
	}

	t := &Topology{
		Name:        cfg.Name,
		Links:       make([]Link, len(cfg.Links)),
		Joints:      make([]Joint, len(cfg.Joints)),
		DOFs:        make([]int, len(dofOrder)),
		graph:       simple.NewUndirectedGraph(),
		linkByName:  make(map[string]int, len(cfg.Links)),
		jointByName: make(map[string]int, len(cfg.Joints)),
	}
	for i, name := range linkOrder {
		t.linkByName[name] = i
	}
	dofByName := make(map[string]int, len(dofOrder))
	for i, name := range dofOrder {
		dofByName[name] = i
	}
	for _, lc := range cfg.Links {
		i := t.linkByName[lc.ID]
		t.Links[i] = Link{Index: i, Name: lc.ID, Inertia: lc.ParseInertia()}
		t.graph.AddNode(simple.Node(i))
	}

	hasParent := make([]bool, len(t.Links))
	for i, jc := range cfg.Joints {
		origin, err := jc.Origin.ParseConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q origin", jc.ID)
		}
		j := Joint{
			Index:  i,
			Name:   jc.ID,
			Type:   jc.Type,
			Parent: t.linkByName[jc.Parent],
			Child:  t.linkByName[jc.Child],
			Origin: origin,
			Limit:  jc.Limit(),
			DOF:    -1,
		}
		if referenceframe.JointDOFs(jc.Type) > 0 {
			j.Axis = spatialmath.R3ToVec(jc.Axis).Normalize()
			j.DOF = dofByName[jc.ID]
			t.DOFs[j.DOF] = i
		} else {
			j.Limit = referenceframe.Limit{Min: math.Inf(-1), Max: math.Inf(1)}
		}

		if j.Parent == j.Child {
			return nil, errors.Wrapf(ErrCircularReference, "joint %q connects link %q to itself", jc.ID, jc.Parent)
		}
		if hasParent[j.Child] {
			return nil, NewMultipleParentsError(jc.Child)
		}
		hasParent[j.Child] = true
		if t.graph.HasEdgeBetween(int64(j.Parent), int64(j.Child)) {
			return nil, errors.Wrapf(ErrCircularReference, "links %q and %q are joined twice", jc.Parent, jc.Child)
		}
		t.graph.SetEdge(jointEdge{from: simple.Node(j.Parent), to: simple.Node(j.Child), joint: i})
		t.Joints[i] = j
		t.jointByName[jc.ID] = i
		t.Links[j.Parent].Joints = append(t.Links[j.Parent].Joints, i)
		t.Links[j.Child].Joints = append(t.Links[j.Child].Joints, i)
	}

	roots := 0
	for i, ok := range hasParent {
		if !ok {
			t.Root = i
			roots++
		}
	}
	if roots != 1 {
		return nil, NewNotATreeError(errors.Errorf("found %d root links, expected 1", roots))
	}
	if n := len(topo.ConnectedComponents(t.graph)); n != 1 {
		return nil, NewNotATreeError(errors.Errorf("links form %d disconnected groups", n))
	}
	return t, nil
}

// NrOfLinks returns the number of links.
func (t *Topology) NrOfLinks() int { return len(t.Links) }

// NrOfDOFs returns the number of degrees of freedom.
func (t *Topology) NrOfDOFs() int { return len(t.DOFs) }

// LinkIndex returns the global index of the named link, or -1.
func (t *Topology) LinkIndex(name string) int {
	if i, ok := t.linkByName[name]; ok {
		return i
	}
	return -1
}

// JointIndex returns the index of the named joint, or -1.
func (t *Topology) JointIndex(name string) int {
	if i, ok := t.jointByName[name]; ok {
		return i
	}
	return -1
}

// DOFIndex returns the global DOF index of the named joint, or -1 if it is unknown or fixed.
func (t *Topology) DOFIndex(name string) int {
	j := t.JointIndex(name)
	if j < 0 {
		return -1
	}
	return t.Joints[j].DOF
}

// Components removes every joint for which cut returns true and returns the link indices of each remaining
// connected group. Each group is sorted, and groups are ordered by their smallest link index.
func (t *Topology) Components(cut func(*Joint) bool) [][]int {
	g := simple.NewUndirectedGraph()
	for i := range t.Links {
		g.AddNode(simple.Node(i))
	}
	for i := range t.Joints {
		j := &t.Joints[i]
		if cut(j) {
			continue
		}
		g.SetEdge(jointEdge{from: simple.Node(j.Parent), to: simple.Node(j.Child), joint: i})
	}

	cc := topo.ConnectedComponents(g)
	groups := make([][]int, 0, len(cc))
	for _, nodes := range cc {
		group := make([]int, 0, len(nodes))
		for _, n := range nodes {
			group = append(group, int(n.ID()))
		}
		sort.Ints(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })
	return groups
}

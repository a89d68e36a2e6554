package kinematics

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"go.viam.com/dyntree/spatialmath"
)

// Traversal is a breadth first ordering of every link from a base link. Parents always precede their children.
type Traversal struct {
	Base  int
	Order []int
	// Parent and ParentJoint are -1 for the base.
	Parent      []int
	ParentJoint []int
	// Forward is true when the parent joint is crossed from its description parent to its description child.
	Forward  []bool
	Depth    []int
	Children [][]int
}

// NewTraversal orders the links of t from base. Links at equal depth are ordered by index, so the result is
// deterministic.
func NewTraversal(t *Topology, base int) (*Traversal, error) {
	if base < 0 || base >= t.NrOfLinks() {
		return nil, NewLinkIndexError(base)
	}
	n := t.NrOfLinks()
	tr := &Traversal{
		Base:        base,
		Order:       make([]int, 0, n),
		Parent:      make([]int, n),
		ParentJoint: make([]int, n),
		Forward:     make([]bool, n),
		Depth:       make([]int, n),
		Children:    make([][]int, n),
	}
	for i := range tr.Parent {
		tr.Parent[i], tr.ParentJoint[i] = -1, -1
	}

	seen := map[int]bool{base: true}
	bf := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			from, to := int(e.From().ID()), int(e.To().ID())
			if seen[to] {
				return true
			}
			seen[to] = true
			je := e.(jointEdge)
			tr.Parent[to] = from
			tr.ParentJoint[to] = je.joint
			tr.Forward[to] = t.Joints[je.joint].Child == to
			tr.Depth[to] = tr.Depth[from] + 1
			return true
		},
		Visit: func(node graph.Node) {
			tr.Order = append(tr.Order, int(node.ID()))
		},
	}
	bf.Walk(t.graph, simple.Node(base), nil)
	if len(tr.Order) != n {
		return nil, NewNotATreeError(nil)
	}

	sort.SliceStable(tr.Order, func(a, b int) bool {
		la, lb := tr.Order[a], tr.Order[b]
		if tr.Depth[la] != tr.Depth[lb] {
			return tr.Depth[la] < tr.Depth[lb]
		}
		return la < lb
	})
	for _, l := range tr.Order {
		if p := tr.Parent[l]; p >= 0 {
			tr.Children[p] = append(tr.Children[p], l)
		}
	}
	return tr, nil
}

// MotionSubspace returns the unit twist that the parent joint of link adds to link's velocity, in link
// coordinates. Crossing a joint backwards negates it and moves it into the description parent's frame.
func (tr *Traversal) MotionSubspace(t *Topology, link int) spatialmath.Twist {
	j := tr.ParentJoint[link]
	if j < 0 {
		return spatialmath.Twist{}
	}
	joint := &t.Joints[j]
	s := joint.MotionSubspace()
	if tr.Forward[link] {
		return s
	}
	// the joint motion leaves its own axis unchanged, so the origin alone carries s into the parent frame
	return joint.Origin.TransformTwist(s).Scale(-1)
}

// ParentPose returns X_p_l, the pose of link in its traversal parent's frame, given every joint's X_P_C.
func (tr *Traversal) ParentPose(jointPoses []spatialmath.Pose, link int) spatialmath.Pose {
	j := tr.ParentJoint[link]
	if tr.Forward[link] {
		return jointPoses[j]
	}
	return jointPoses[j].Inverse()
}

// LowestCommonAncestor returns the deepest link that is an ancestor of both a and b, each link counting as its
// own ancestor.
func (tr *Traversal) LowestCommonAncestor(a, b int) int {
	for tr.Depth[a] > tr.Depth[b] {
		a = tr.Parent[a]
	}
	for tr.Depth[b] > tr.Depth[a] {
		b = tr.Parent[b]
	}
	for a != b {
		a, b = tr.Parent[a], tr.Parent[b]
	}
	return a
}

// IsAncestor reports whether anc lies on the path from the base to link, inclusive.
func (tr *Traversal) IsAncestor(anc, link int) bool {
	for link >= 0 && tr.Depth[link] >= tr.Depth[anc] {
		if link == anc {
			return true
		}
		link = tr.Parent[link]
	}
	return false
}

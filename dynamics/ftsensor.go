package dynamics

import (
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/dyntree/kinematics"
	"go.viam.com/dyntree/spatialmath"
)

// FTSensor is a six-axis force/torque sensor mounted on a fixed joint. Its readings are the wrench the Parent
// side exerts on the Child side, in the sensor frame.
type FTSensor struct {
	Index  int
	Joint  int
	Parent int
	Child  int
	// ParentToSensor is X_P_S. Without calibration it equals the joint origin.
	ParentToSensor spatialmath.Pose

	childToParent spatialmath.Pose
}

func newFTSensor(index int, joint *kinematics.Joint, calibration *spatialmath.Pose) FTSensor {
	s := FTSensor{
		Index:          index,
		Joint:          joint.Index,
		Parent:         joint.Parent,
		Child:          joint.Child,
		ParentToSensor: joint.Origin,
		childToParent:  joint.Origin.Inverse(),
	}
	if calibration != nil {
		s.ParentToSensor = *calibration
	}
	return s
}

// WrenchOnSubgraph expresses a measurement in the frame of link, which must be the sensor's parent or child.
// It panics for any other link.
func (s *FTSensor) WrenchOnSubgraph(link int, measured spatialmath.Wrench) spatialmath.Wrench {
	w := s.ParentToSensor.TransformWrench(measured)
	switch link {
	case s.Parent:
		return w
	case s.Child:
		return s.childToParent.TransformWrench(w)
	default:
		panic(errors.Errorf("link %d is not attached to FT sensor %d", link, s.Index))
	}
}

// wrenchExertedOn returns the wrench the sensor transmits onto the side holding link, in link's frame.
func (s *FTSensor) wrenchExertedOn(link int, measured spatialmath.Wrench) spatialmath.Wrench {
	w := s.WrenchOnSubgraph(link, measured)
	if link == s.Parent {
		return w.Scale(-1)
	}
	return w
}

// subgraphs is the partition of links induced by cutting every sensor joint.
type subgraphs struct {
	linkSubgraph []int
	isRoot       []bool
	linkSensors  [][]int
	// roots and deepest hold, per subgraph, its shallowest link and the link that receives its default contact.
	roots   []int
	deepest []int
}

func newSubgraphs(t *kinematics.Topology, dyn *kinematics.Traversal, sensors []FTSensor, jointSensor []int) subgraphs {
	n := t.NrOfLinks()
	pos := make([]int, n)
	for i, l := range dyn.Order {
		pos[l] = i
	}
	groups := t.Components(func(j *kinematics.Joint) bool { return jointSensor[j.Index] >= 0 })

	sg := subgraphs{
		linkSubgraph: make([]int, n),
		isRoot:       make([]bool, n),
		linkSensors:  make([][]int, n),
		roots:        make([]int, len(groups)),
		deepest:      make([]int, len(groups)),
	}
	for g, links := range groups {
		root, deep := links[0], links[0]
		for _, l := range links {
			if pos[l] < pos[root] {
				root = l
			}
			if dyn.Depth[l] > dyn.Depth[deep] || (dyn.Depth[l] == dyn.Depth[deep] && pos[l] > pos[deep]) {
				deep = l
			}
		}
		sg.roots[g], sg.deepest[g] = root, deep
	}

	// number subgraphs in traversal order of their roots so the dynamic base lands in subgraph 0
	perm := make([]int, len(groups))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return pos[sg.roots[perm[a]]] < pos[sg.roots[perm[b]]] })
	roots, deepest := make([]int, len(groups)), make([]int, len(groups))
	for newID, g := range perm {
		roots[newID], deepest[newID] = sg.roots[g], sg.deepest[g]
		for _, l := range groups[g] {
			sg.linkSubgraph[l] = newID
		}
		sg.isRoot[sg.roots[g]] = true
	}
	sg.roots, sg.deepest = roots, deepest

	for i := range sensors {
		s := &sensors[i]
		sg.linkSensors[s.Parent] = append(sg.linkSensors[s.Parent], i)
		sg.linkSensors[s.Child] = append(sg.linkSensors[s.Child], i)
	}
	return sg
}

func (sg *subgraphs) count() int { return len(sg.roots) }

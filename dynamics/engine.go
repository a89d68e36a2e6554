package dynamics

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dyntree/kinematics"
	"go.viam.com/dyntree/referenceframe"
	"go.viam.com/dyntree/spatialmath"
	"go.viam.com/dyntree/utils"
)

// DefaultRCond is the relative singular value threshold used to rank contact systems when Options.RCond is zero.
const DefaultRCond = 1e-10

// Options tune how an Engine is built. The zero value is valid.
type Options struct {
	// DynamicBase names the link the dynamic sweeps start from. It defaults to the root of the description.
	DynamicBase string
	// Serialization fixes the global link and DOF numbering.
	Serialization *kinematics.Serialization
	// Parts groups links and DOFs into named parts.
	Parts []kinematics.PartConfig
	// SensorCalibration overrides X_P_S for the sensors mounted on the named joints.
	SensorCalibration map[string]spatialmath.Pose
	// RCond is the relative singular value threshold used to rank contact systems.
	RCond float64
}

// Engine computes the kinematics and dynamics of one tree. The zero value is not usable; build one with
// NewEngine.
type Engine struct {
	logger golog.Logger
	topo   *kinematics.Topology
	parts  *kinematics.Partition
	// kin starts at the IMU link, dyn at the dynamic base.
	kin, dyn   *kinematics.Traversal
	kinS, dynS []spatialmath.Twist

	sensors     []FTSensor
	jointSensor []int
	subgraphs   subgraphs
	rcond       float64

	phase Phase
	// estimated records whether the last DynamicRNEA consumed estimated contact wrenches.
	estimated bool

	q, dq, ddq  []float64
	qMin, qMax  []float64
	constrained []bool

	imuW, imuDW, imuDDP mgl64.Vec3
	measured            []spatialmath.Wrench
	contacts            []Contact

	cache cache
}

// cache holds every quantity derived from the state. Its buffers are sized once and overwritten each cycle.
type cache struct {
	jointPose []spatialmath.Pose
	// pose is X_base_l, relative to the dynamic base.
	pose []spatialmath.Pose
	v, a []spatialmath.Twist

	fgi, fext, f, bsub []spatialmath.Wrench
	simulated          []spatialmath.Wrench
	torques            []float64
	baseWrench         spatialmath.Wrench

	systems []contactSystem

	comValid    bool
	mass        float64
	com         mgl64.Vec3
	partMass    []float64
	partCOM     []mgl64.Vec3
	comJacValid bool
	comJac      *mat.Dense
	partJacMass []float64
	partComJac  []*mat.Dense
	linkJac     *mat.Dense
}

// NewEngine builds an engine for model. sensorJoints names the fixed joints carrying FT sensors, in sensor index
// order, and imuLink names the link the inertial measurement is taken on.
func NewEngine(
	model *referenceframe.ModelConfig,
	sensorJoints []string,
	imuLink string,
	opts Options,
	logger golog.Logger,
) (*Engine, error) {
	topo, err := kinematics.NewTopology(model, opts.Serialization)
	if err != nil {
		return nil, err
	}
	parts, err := kinematics.NewPartition(topo, opts.Parts)
	if err != nil {
		return nil, err
	}

	imu := topo.LinkIndex(imuLink)
	if imu < 0 {
		return nil, errors.Wrap(referenceframe.NewLinkNotFoundError(imuLink), "IMU link")
	}
	base := topo.Root
	if opts.DynamicBase != "" {
		if base = topo.LinkIndex(opts.DynamicBase); base < 0 {
			return nil, errors.Wrap(referenceframe.NewLinkNotFoundError(opts.DynamicBase), "dynamic base")
		}
	}
	kin, err := kinematics.NewTraversal(topo, imu)
	if err != nil {
		return nil, err
	}
	dyn, err := kinematics.NewTraversal(topo, base)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		logger:      logger,
		topo:        topo,
		parts:       parts,
		kin:         kin,
		dyn:         dyn,
		kinS:        make([]spatialmath.Twist, topo.NrOfLinks()),
		dynS:        make([]spatialmath.Twist, topo.NrOfLinks()),
		sensors:     make([]FTSensor, 0, len(sensorJoints)),
		jointSensor: make([]int, len(topo.Joints)),
		rcond:       opts.RCond,
	}
	if e.rcond == 0 {
		e.rcond = DefaultRCond
	}
	for l := range e.kinS {
		e.kinS[l] = kin.MotionSubspace(topo, l)
		e.dynS[l] = dyn.MotionSubspace(topo, l)
	}

	for i := range e.jointSensor {
		e.jointSensor[i] = -1
	}
	for i, name := range sensorJoints {
		j := topo.JointIndex(name)
		if j < 0 {
			return nil, errors.Wrap(referenceframe.NewJointNotFoundError(name), "FT sensor")
		}
		joint := &topo.Joints[j]
		if joint.DOF >= 0 {
			return nil, NewSensorJointNotFixedError(name, joint.Type)
		}
		if e.jointSensor[j] >= 0 {
			return nil, referenceframe.NewDuplicateNameError("FT sensor joint", name)
		}
		var calibration *spatialmath.Pose
		if x, ok := opts.SensorCalibration[name]; ok {
			calibration = &x
		}
		e.jointSensor[j] = i
		e.sensors = append(e.sensors, newFTSensor(i, joint, calibration))
	}
	for name := range opts.SensorCalibration {
		if j := topo.JointIndex(name); j < 0 || e.jointSensor[j] < 0 {
			return nil, errors.Errorf("calibration given for %q, which carries no FT sensor", name)
		}
	}
	e.subgraphs = newSubgraphs(topo, dyn, e.sensors, e.jointSensor)

	e.allocate()
	if err := e.SetContacts(nil); err != nil {
		return nil, err
	}
	logger.Debugw("built dynamics engine",
		"model", topo.Name,
		"links", topo.NrOfLinks(),
		"dofs", topo.NrOfDOFs(),
		"ft_sensors", len(e.sensors),
		"subgraphs", e.subgraphs.count(),
		"imu_link", imuLink,
		"dynamic_base", topo.Links[base].Name,
	)
	return e, nil
}

func (e *Engine) allocate() {
	nl, nd, nj := e.topo.NrOfLinks(), e.topo.NrOfDOFs(), len(e.topo.Joints)
	e.q, e.dq, e.ddq = make([]float64, nd), make([]float64, nd), make([]float64, nd)
	e.qMin, e.qMax = make([]float64, nd), make([]float64, nd)
	e.constrained = make([]bool, nd)
	for dof, j := range e.topo.DOFs {
		e.qMin[dof], e.qMax[dof] = e.topo.Joints[j].Limit.Min, e.topo.Joints[j].Limit.Max
		e.constrained[dof] = true
	}
	e.measured = make([]spatialmath.Wrench, len(e.sensors))

	c := &e.cache
	c.jointPose = make([]spatialmath.Pose, nj)
	c.pose = make([]spatialmath.Pose, nl)
	c.v, c.a = make([]spatialmath.Twist, nl), make([]spatialmath.Twist, nl)
	c.fgi, c.fext = make([]spatialmath.Wrench, nl), make([]spatialmath.Wrench, nl)
	c.f, c.bsub = make([]spatialmath.Wrench, nl), make([]spatialmath.Wrench, nl)
	c.simulated = make([]spatialmath.Wrench, len(e.sensors))
	c.torques = make([]float64, nd)
	c.systems = make([]contactSystem, e.subgraphs.count())
	c.partMass = make([]float64, len(e.parts.Parts()))
	c.partCOM = make([]mgl64.Vec3, len(e.parts.Parts()))
	c.comJac = mat.NewDense(6, 6+nd, nil)
	c.partJacMass = make([]float64, len(e.parts.Parts()))
	c.partComJac = make([]*mat.Dense, len(e.parts.Parts()))
	for i := range c.partComJac {
		c.partComJac[i] = mat.NewDense(6, 6+nd, nil)
	}
	c.linkJac = mat.NewDense(6, 6+nd, nil)
}

// NrOfDOFs returns the number of degrees of freedom.
func (e *Engine) NrOfDOFs() int { return e.topo.NrOfDOFs() }

// NrOfLinks returns the number of links.
func (e *Engine) NrOfLinks() int { return e.topo.NrOfLinks() }

// NrOfFTSensors returns the number of FT sensors.
func (e *Engine) NrOfFTSensors() int { return len(e.sensors) }

// LinkIndex returns the global index of the named link, or -1.
func (e *Engine) LinkIndex(name string) int { return e.topo.LinkIndex(name) }

// LinkIndexInPart maps a part-local link index to its global index, or -1.
func (e *Engine) LinkIndexInPart(part string, local int) int { return e.parts.LinkIndex(part, local) }

// DOFIndex returns the global DOF index of the named joint, or -1.
func (e *Engine) DOFIndex(name string) int { return e.topo.DOFIndex(name) }

// DOFIndexInPart maps a part-local DOF index to its global index, or -1.
func (e *Engine) DOFIndexInPart(part string, local int) int { return e.parts.DOFIndex(part, local) }

// FTSensorIndex returns the index of the sensor mounted on the named joint, or -1.
func (e *Engine) FTSensorIndex(jointName string) int {
	j := e.topo.JointIndex(jointName)
	if j < 0 {
		return -1
	}
	return e.jointSensor[j]
}

// Topology returns the structure the engine was built from. It is shared with the engine and must be treated as
// read-only.
func (e *Engine) Topology() *kinematics.Topology { return e.topo }

// Partition returns the part grouping of the engine. It is shared with the engine and must be treated as
// read-only.
func (e *Engine) Partition() *kinematics.Partition { return e.parts }

// FTSensors returns a copy of the FT sensors in index order.
func (e *Engine) FTSensors() []FTSensor { return append([]FTSensor(nil), e.sensors...) }

// DynamicBase returns the link the dynamic phase starts from.
func (e *Engine) DynamicBase() int { return e.dyn.Base }

// NrOfSubgraphs returns how many subgraphs cutting the FT sensor joints splits the tree into.
func (e *Engine) NrOfSubgraphs() int { return e.subgraphs.count() }

// Subgraph returns the subgraph a link belongs to. Subgraph 0 holds the dynamic base.
func (e *Engine) Subgraph(link int) int {
	if link < 0 || link >= len(e.subgraphs.linkSubgraph) {
		return -1
	}
	return e.subgraphs.linkSubgraph[link]
}

// Phase returns the last pipeline stage completed on the current state.
func (e *Engine) Phase() Phase { return e.phase }

// invalidate drops every result that depends on state changed by a setter. Stages after max must rerun.
func (e *Engine) invalidate(max Phase) {
	if e.phase > max {
		e.phase = max
	}
	if max < DynamicsComputed {
		e.estimated = false
	}
	if max < PositionsComputed {
		e.cache.comValid = false
		e.cache.comJacValid = false
	}
}

func (e *Engine) part(name string) (kinematics.Part, error) {
	p, ok := e.parts.Part(name)
	if !ok {
		return kinematics.Part{}, NewPartNotFoundError(name)
	}
	return p, nil
}

func (e *Engine) checkLink(link int) error {
	if link < 0 || link >= e.topo.NrOfLinks() {
		return kinematics.NewLinkIndexError(link)
	}
	return nil
}

// gather copies the part's entries of src into a new slice.
func gather(src []float64, p kinematics.Part) []float64 {
	out := make([]float64, len(p.DOFs))
	for i, dof := range p.DOFs {
		out[i] = src[dof]
	}
	return out
}

func (e *Engine) scatter(dst, values []float64, partName, what string) ([]float64, error) {
	p, err := e.part(partName)
	if err != nil {
		return nil, err
	}
	if len(values) != len(p.DOFs) {
		return nil, NewSizeMismatchError(what, len(p.DOFs), len(values))
	}
	for i, dof := range p.DOFs {
		dst[dof] = values[i]
	}
	return gather(dst, p), nil
}

// SetAng sets the joint positions of a part and returns the values applied. Constrained DOFs are clamped to
// their limits.
func (e *Engine) SetAng(q []float64, part string) ([]float64, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, err
	}
	if len(q) != len(p.DOFs) {
		return nil, NewSizeMismatchError("joint positions", len(p.DOFs), len(q))
	}
	for i, dof := range p.DOFs {
		e.q[dof] = e.clamp(dof, q[i])
	}
	e.invalidate(Idle)
	return gather(e.q, p), nil
}

func (e *Engine) clamp(dof int, v float64) float64 {
	if !e.constrained[dof] {
		return v
	}
	return utils.Clamp(v, e.qMin[dof], e.qMax[dof])
}

// Ang returns the joint positions of a part.
func (e *Engine) Ang(part string) ([]float64, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, err
	}
	return gather(e.q, p), nil
}

// SetDAng sets the joint velocities of a part.
func (e *Engine) SetDAng(dq []float64, part string) ([]float64, error) {
	out, err := e.scatter(e.dq, dq, part, "joint velocities")
	if err != nil {
		return nil, err
	}
	e.invalidate(PositionsComputed)
	return out, nil
}

// DAng returns the joint velocities of a part.
func (e *Engine) DAng(part string) ([]float64, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, err
	}
	return gather(e.dq, p), nil
}

// SetD2Ang sets the joint accelerations of a part.
func (e *Engine) SetD2Ang(ddq []float64, part string) ([]float64, error) {
	out, err := e.scatter(e.ddq, ddq, part, "joint accelerations")
	if err != nil {
		return nil, err
	}
	e.invalidate(PositionsComputed)
	return out, nil
}

// D2Ang returns the joint accelerations of a part.
func (e *Engine) D2Ang(part string) ([]float64, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, err
	}
	return gather(e.ddq, p), nil
}

// SetJointLimits replaces the position limits of a part and clamps the current positions of its constrained
// DOFs into them.
func (e *Engine) SetJointLimits(lower, upper []float64, part string) error {
	p, err := e.part(part)
	if err != nil {
		return err
	}
	if len(lower) != len(p.DOFs) {
		return NewSizeMismatchError("lower joint limits", len(p.DOFs), len(lower))
	}
	if len(upper) != len(p.DOFs) {
		return NewSizeMismatchError("upper joint limits", len(p.DOFs), len(upper))
	}
	for i := range lower {
		if lower[i] > upper[i] || math.IsNaN(lower[i]) || math.IsNaN(upper[i]) {
			dof := p.DOFs[i]
			return errors.Errorf("joint %q has limits [%v, %v]", e.topo.Joints[e.topo.DOFs[dof]].Name, lower[i], upper[i])
		}
	}
	for i, dof := range p.DOFs {
		e.qMin[dof], e.qMax[dof] = lower[i], upper[i]
		e.q[dof] = e.clamp(dof, e.q[dof])
	}
	e.invalidate(Idle)
	return nil
}

// JointLimits returns the lower and upper position limits of a part.
func (e *Engine) JointLimits(part string) ([]float64, []float64, error) {
	p, err := e.part(part)
	if err != nil {
		return nil, nil, err
	}
	return gather(e.qMin, p), gather(e.qMax, p), nil
}

// SetJointConstrained selects which DOFs of a part SetAng clamps. The current positions of constrained DOFs are
// clamped into their limits.
func (e *Engine) SetJointConstrained(mask []bool, part string) error {
	p, err := e.part(part)
	if err != nil {
		return err
	}
	if len(mask) != len(p.DOFs) {
		return NewSizeMismatchError("constraint mask", len(p.DOFs), len(mask))
	}
	moved := false
	for i, dof := range p.DOFs {
		e.constrained[dof] = mask[i]
		if q := e.clamp(dof, e.q[dof]); q != e.q[dof] {
			e.q[dof] = q
			moved = true
		}
	}
	if moved {
		e.invalidate(Idle)
	}
	return nil
}

// SetInertialMeasure sets the angular velocity, angular acceleration and proper linear acceleration measured on
// the IMU link, in its frame.
func (e *Engine) SetInertialMeasure(w0, dw0, ddp0 r3.Vector) {
	e.imuW = spatialmath.R3ToVec(w0)
	e.imuDW = spatialmath.R3ToVec(dw0)
	e.imuDDP = spatialmath.R3ToVec(ddp0)
	e.invalidate(PositionsComputed)
}

// InertialMeasure returns the values last given to SetInertialMeasure.
func (e *Engine) InertialMeasure() (r3.Vector, r3.Vector, r3.Vector) {
	return spatialmath.VecToR3(e.imuW), spatialmath.VecToR3(e.imuDW), spatialmath.VecToR3(e.imuDDP)
}

// SetSensorMeasurement sets the reading of sensor index as [force; torque] in the sensor frame.
func (e *Engine) SetSensorMeasurement(index int, wrench []float64) error {
	if index < 0 || index >= len(e.sensors) {
		return NewSensorIndexError(index)
	}
	if len(wrench) != 6 {
		return NewSizeMismatchError("sensor wrench", 6, len(wrench))
	}
	e.measured[index] = spatialmath.NewWrenchFromSlice(wrench)
	e.invalidate(KinematicsComputed)
	return nil
}

// SensorMeasurement returns the reading of sensor index as [force; torque]. After a DynamicRNEA that used
// estimated contacts, it returns the reading the estimate predicts instead of the one set.
func (e *Engine) SensorMeasurement(index int) ([6]float64, error) {
	var out [6]float64
	if index < 0 || index >= len(e.sensors) {
		return out, NewSensorIndexError(index)
	}
	w := e.measured[index]
	if e.phase == DynamicsComputed && e.estimated {
		w = e.cache.simulated[index]
	}
	w.CopyTo(out[:])
	return out, nil
}

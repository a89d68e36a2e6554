package kinematics

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/dyntree/referenceframe"
)

// Serialization fixes the global numbering of links and DOFs. Each list must name every link (resp. every
// moving joint) exactly once.
type Serialization struct {
	Links []string `json:"links" yaml:"links"`
	DOFs  []string `json:"dofs" yaml:"dofs"`
}

// order returns the link and DOF names in global index order.
func (ser *Serialization) order(cfg *referenceframe.ModelConfig) ([]string, []string, error) {
	links := lo.Map(cfg.Links, func(l referenceframe.LinkConfig, _ int) string { return l.ID })
	moving := lo.Filter(cfg.Joints, func(j referenceframe.JointConfig, _ int) bool {
		return referenceframe.JointDOFs(j.Type) > 0
	})
	dofs := lo.Map(moving, func(j referenceframe.JointConfig, _ int) string { return j.ID })
	if ser == nil {
		return links, dofs, nil
	}

	var errs error
	multierr.AppendInto(&errs, checkBijection("link", ser.Links, links))
	multierr.AppendInto(&errs, checkBijection("dof", ser.DOFs, dofs))
	if errs != nil {
		return nil, nil, errors.Wrap(errs, "invalid serialization")
	}
	return ser.Links, ser.DOFs, nil
}

// checkBijection verifies that given is a permutation of all.
func checkBijection(kind string, given, all []string) error {
	var errs error
	for _, dup := range lo.FindDuplicates(given) {
		multierr.AppendInto(&errs, referenceframe.NewDuplicateNameError(kind, dup))
	}
	missing, unknown := lo.Difference(all, given)
	for _, name := range missing {
		multierr.AppendInto(&errs, errors.Errorf("%s %q is not listed", kind, name))
	}
	for _, name := range unknown {
		multierr.AppendInto(&errs, errors.Errorf("%s %q is not in the model", kind, name))
	}
	return errs
}

// PartConfig names the links and DOFs belonging to one part of the tree.
type PartConfig struct {
	Name  string   `json:"name" yaml:"name"`
	Links []string `json:"links" yaml:"links"`
	DOFs  []string `json:"dofs" yaml:"dofs"`
}

// Part maps the local indices of a part to global link and DOF indices.
type Part struct {
	Name  string
	Links []int
	DOFs  []int
}

// Partition groups every link and every DOF into exactly one part. The empty name always resolves to a
// part covering the whole tree in global order.
type Partition struct {
	parts  []Part
	byName map[string]int
	whole  Part
}

// NewPartition resolves part configs against the topology. With no configs the partition holds a single part
// named after the model.
func NewPartition(t *Topology, cfgs []PartConfig) (*Partition, error) {
	p := &Partition{
		byName: make(map[string]int, len(cfgs)),
		whole:  Part{Links: lo.Range(t.NrOfLinks()), DOFs: lo.Range(t.NrOfDOFs())},
	}
	if len(cfgs) == 0 {
		name := t.Name
		if name == "" {
			name = "default"
		}
		cfgs = []PartConfig{{
			Name:  name,
			Links: lo.Map(t.Links, func(l Link, _ int) string { return l.Name }),
			DOFs:  lo.Map(t.DOFs, func(j, _ int) string { return t.Joints[j].Name }),
		}}
	}

	var errs error
	var allLinks, allDOFs []string
	for _, cfg := range cfgs {
		if cfg.Name == "" {
			multierr.AppendInto(&errs, errors.New("part has no name"))
			continue
		}
		if _, ok := p.byName[cfg.Name]; ok {
			multierr.AppendInto(&errs, referenceframe.NewDuplicateNameError("part", cfg.Name))
			continue
		}
		part := Part{Name: cfg.Name, Links: make([]int, 0, len(cfg.Links)), DOFs: make([]int, 0, len(cfg.DOFs))}
		for _, name := range cfg.Links {
			part.Links = append(part.Links, t.LinkIndex(name))
		}
		for _, name := range cfg.DOFs {
			part.DOFs = append(part.DOFs, t.DOFIndex(name))
		}
		p.byName[cfg.Name] = len(p.parts)
		p.parts = append(p.parts, part)
		allLinks = append(allLinks, cfg.Links...)
		allDOFs = append(allDOFs, cfg.DOFs...)
	}
	multierr.AppendInto(&errs, checkBijection("link", allLinks, lo.Map(t.Links, func(l Link, _ int) string { return l.Name })))
	multierr.AppendInto(&errs, checkBijection("dof", allDOFs, lo.Map(t.DOFs, func(j, _ int) string { return t.Joints[j].Name })))
	if errs != nil {
		return nil, errors.Wrap(errs, "invalid partition")
	}
	return p, nil
}

// Part returns the named part; the empty name returns the whole tree.
func (p *Partition) Part(name string) (Part, bool) {
	if name == "" {
		return p.whole, true
	}
	i, ok := p.byName[name]
	if !ok {
		return Part{}, false
	}
	return p.parts[i], true
}

// Parts returns the configured parts in declaration order.
func (p *Partition) Parts() []Part {
	return p.parts
}

// LinkIndex maps a part-local link index to its global index, or -1.
func (p *Partition) LinkIndex(part string, local int) int {
	pt, ok := p.Part(part)
	if !ok || local < 0 || local >= len(pt.Links) {
		return -1
	}
	return pt.Links[local]
}

// DOFIndex maps a part-local DOF index to its global index, or -1.
func (p *Partition) DOFIndex(part string, local int) int {
	pt, ok := p.Part(part)
	if !ok || local < 0 || local >= len(pt.DOFs) {
		return -1
	}
	return pt.DOFs[local]
}

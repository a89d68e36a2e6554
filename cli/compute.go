package cli

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/dyntree/dynamics"
)

// runCycle runs the kinematic phase, contact estimation and the dynamic phase. With measured set it skips the
// estimation and the dynamic phase takes the FT sensor readings as the wrenches crossing each cut.
func runCycle(e *dynamics.Engine, measured bool) error {
	e.KinematicRNEA()
	if !measured {
		if err := e.EstimateContactForces(); err != nil {
			return err
		}
	}
	e.DynamicRNEA()
	e.ComputeCOM()
	return nil
}

// ComputeAction runs one cycle on the given state and prints what it estimated.
func ComputeAction(c *cli.Context) error {
	_, e, _, err := loadEngine(c)
	if err != nil {
		return err
	}
	if _, err := loadState(c, computeFlagState, e); err != nil {
		return err
	}
	measured := c.Bool(computeFlagMeasured)
	if err := runCycle(e, measured); err != nil {
		return err
	}

	tbl, err := torquesTable(e)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", tbl)

	base, err := e.BaseWrench()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "Base wrench on %s: force %s, torque %s",
		e.Topology().Links[e.DynamicBase()].Name, formatFloats(base[:3]), formatFloats(base[3:]))

	if !measured {
		printf(c.App.Writer, "%s", contactsTable(e))
	}
	if e.NrOfFTSensors() > 0 {
		tbl, err := simulatedSensorsTable(e)
		if err != nil {
			return err
		}
		printf(c.App.Writer, "%s", tbl)
	}

	com, err := e.COM("")
	if err != nil {
		warningf(c.App.ErrWriter, "no center of mass: %v", err)
		return nil
	}
	printf(c.App.Writer, "Center of mass: %s", formatVector(com))
	return nil
}

func torquesTable(e *dynamics.Engine) (string, error) {
	topo := e.Topology()
	q, err := e.Ang("")
	if err != nil {
		return "", err
	}
	tau, err := e.Torques("")
	if err != nil {
		return "", err
	}
	t := table.NewWriter()
	t.SetTitle("Joint Torques")
	t.AppendHeader(table.Row{"DOF", "Joint", "Position", "Torque"})
	for dof, j := range topo.DOFs {
		t.AppendRow(table.Row{dof, topo.Joints[j].Name, fmt.Sprintf("%.4f", q[dof]), fmt.Sprintf("%.4f", tau[dof])})
	}
	return t.Render(), nil
}

func contactsTable(e *dynamics.Engine) string {
	topo := e.Topology()
	t := table.NewWriter()
	t.SetTitle("Contacts")
	t.AppendHeader(table.Row{"#", "Link", "Type", "Point", "Force", "Moment", "Default"})
	for i, ct := range e.Contacts() {
		t.AppendRow(table.Row{
			i,
			topo.Links[ct.Link].Name,
			ct.Type.String(),
			formatVector(ct.Point),
			formatVector(ct.Force),
			formatVector(ct.Moment),
			ct.Default,
		})
	}
	return t.Render()
}

func simulatedSensorsTable(e *dynamics.Engine) (string, error) {
	topo := e.Topology()
	t := table.NewWriter()
	t.SetTitle("FT Sensors")
	t.AppendHeader(table.Row{"#", "Joint", "Force", "Torque"})
	for _, s := range e.FTSensors() {
		w, err := e.SensorMeasurement(s.Index)
		if err != nil {
			return "", err
		}
		t.AppendRow(table.Row{
			s.Index,
			topo.Joints[s.Joint].Name,
			formatVector(r3.Vector{X: w[0], Y: w[1], Z: w[2]}),
			formatVector(r3.Vector{X: w[3], Y: w[4], Z: w[5]}),
		})
	}
	return t.Render(), nil
}

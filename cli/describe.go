package cli

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/dyntree/dynamics"
	"go.viam.com/dyntree/spatialmath"
	"go.viam.com/dyntree/utils"
)

// DescribeAction prints the structure of the configured tree.
func DescribeAction(c *cli.Context) error {
	_, e, _, err := loadEngine(c)
	if err != nil {
		return err
	}
	topo := e.Topology()
	printf(c.App.Writer, "Model %q: %d links, %d DOFs, %d FT sensors, %d subgraphs",
		topo.Name, e.NrOfLinks(), e.NrOfDOFs(), e.NrOfFTSensors(), e.NrOfSubgraphs())
	printf(c.App.Writer, "%s", linksTable(e))
	printf(c.App.Writer, "%s", jointsTable(e))
	if e.NrOfFTSensors() > 0 {
		printf(c.App.Writer, "%s", sensorsTable(e))
	}
	printf(c.App.Writer, "%s", partsTable(e))
	return nil
}

func linksTable(e *dynamics.Engine) string {
	topo := e.Topology()
	t := table.NewWriter()
	t.SetTitle("Links")
	t.AppendHeader(table.Row{"#", "Name", "Mass", "COM", "Subgraph"})
	for i, l := range topo.Links {
		t.AppendRow(table.Row{
			i,
			l.Name,
			fmt.Sprintf("%.4f", l.Inertia.Mass),
			formatVector(spatialmath.VecToR3(l.Inertia.COM())),
			e.Subgraph(i),
		})
	}
	return t.Render()
}

func jointsTable(e *dynamics.Engine) string {
	topo := e.Topology()
	t := table.NewWriter()
	t.SetTitle("Joints")
	t.AppendHeader(table.Row{"#", "Name", "Type", "Parent", "Child", "DOF", "Limits", "FT Sensor"})
	for i, j := range topo.Joints {
		dof, limits := "", ""
		if j.DOF >= 0 {
			dof = fmt.Sprint(j.DOF)
			limits = formatLimits(j.Limit.Min, j.Limit.Max)
		}
		sensor := ""
		if s := e.FTSensorIndex(j.Name); s >= 0 {
			sensor = fmt.Sprint(s)
		}
		t.AppendRow(table.Row{
			i,
			j.Name,
			j.Type,
			topo.Links[j.Parent].Name,
			topo.Links[j.Child].Name,
			dof,
			limits,
			sensor,
		})
	}
	return t.Render()
}

func formatLimits(lower, upper float64) string {
	if math.IsInf(lower, -1) && math.IsInf(upper, 1) {
		return "none"
	}
	return fmt.Sprintf("[%.4f, %.4f]", lower, upper)
}

func sensorsTable(e *dynamics.Engine) string {
	topo := e.Topology()
	t := table.NewWriter()
	t.SetTitle("FT Sensors")
	t.AppendHeader(table.Row{"#", "Joint", "Parent", "Child", "Translation", "Orientation"})
	for _, s := range e.FTSensors() {
		rpy := spatialmath.RotationToRPY(s.ParentToSensor.Rotation)
		t.AppendRow(table.Row{
			s.Index,
			topo.Joints[s.Joint].Name,
			topo.Links[s.Parent].Name,
			topo.Links[s.Child].Name,
			formatVector(s.ParentToSensor.Point()),
			fmt.Sprintf(
				"Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
				utils.RadToDeg(rpy.X),
				utils.RadToDeg(rpy.Y),
				utils.RadToDeg(rpy.Z),
			),
		})
	}
	return t.Render()
}

func partsTable(e *dynamics.Engine) string {
	topo := e.Topology()
	t := table.NewWriter()
	t.SetTitle("Parts")
	t.AppendHeader(table.Row{"Name", "Links", "DOFs"})
	for _, p := range e.Partition().Parts() {
		links := make([]string, len(p.Links))
		for i, l := range p.Links {
			links[i] = topo.Links[l].Name
		}
		dofs := make([]string, len(p.DOFs))
		for i, d := range p.DOFs {
			dofs[i] = topo.Joints[topo.DOFs[d]].Name
		}
		t.AppendRow(table.Row{p.Name, fmt.Sprint(links), fmt.Sprint(dofs)})
	}
	return t.Render()
}

// Package cli contains the dyntree command line interface.
package cli

import (
	"io"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	computeFlagState    = "state"
	computeFlagMeasured = "measured"

	benchFlagCycles    = "cycles"
	benchFlagState     = "state"
	benchFlagHistogram = "histogram"
	benchFlagMeasured  = "measured"

	schemaFlagState = "state"

	defaultBenchCycles = 1000

	clockMetadataKey = "clock"
)

// NewApp returns a new app with the CLI commands configured, printing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return newApp(out, errOut, clock.New())
}

func newApp(out, errOut io.Writer, clk clock.Clock) *cli.App {
	return &cli.App{
		Name:            "dyntree",
		Usage:           "compute the dynamics of floating-base robots",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Metadata:        map[string]interface{}{clockMetadataKey: clk},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "describe",
				Usage:  "print the links, joints, FT sensors and parts of the configured tree",
				Action: DescribeAction,
			},
			{
				Name:      "compute",
				Usage:     "run one estimation cycle and print joint torques, contact wrenches and center of mass",
				UsageText: "dyntree --config <config> compute [--state <state>] [--measured]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  computeFlagState,
						Usage: "read joint state, IMU, FT sensor readings and contacts from `FILE`",
					},
					&cli.BoolFlag{
						Name:  computeFlagMeasured,
						Usage: "skip contact estimation and take the FT sensor readings as ground truth",
					},
				},
				Action: ComputeAction,
			},
			{
				Name:  "bench",
				Usage: "time the estimation pipeline over many cycles",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  benchFlagCycles,
						Usage: "number of cycles to time",
						Value: defaultBenchCycles,
					},
					&cli.StringFlag{
						Name:  benchFlagState,
						Usage: "read the state every cycle is run with from `FILE`",
					},
					&cli.BoolFlag{
						Name:  benchFlagHistogram,
						Usage: "print a histogram of cycle times",
					},
					&cli.BoolFlag{
						Name:  benchFlagMeasured,
						Usage: "skip contact estimation in every cycle",
					},
				},
				Action: BenchAction,
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of config files, or of state files with --state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  schemaFlagState,
						Usage: "print the schema of state files instead",
					},
				},
				Action: SchemaAction,
			},
		},
	}
}

func clockFrom(c *cli.Context) clock.Clock {
	if clk, ok := c.App.Metadata[clockMetadataKey].(clock.Clock); ok {
		return clk
	}
	return clock.New()
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"go.viam.com/dyntree/config"
	"go.viam.com/dyntree/dynamics"
	"go.viam.com/dyntree/logging"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, color.New(color.Bold, color.FgYellow).Sprint("Warning: ")+format+"\n", a...)
}

// loadEngine reads the config named by the global flags and builds its engine. Logging stays silent unless
// --debug is given or the config sets a level.
func loadEngine(c *cli.Context) (*config.Config, *dynamics.Engine, logging.Logger, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		return nil, nil, nil, errors.Errorf("no config file given, use --%s", generalFlagConfig)
	}
	var logger logging.Logger
	if c.Bool(generalFlagDebug) {
		logger = logging.NewDebugLogger("dyntree")
	} else {
		logger = zap.NewNop().Sugar()
	}
	cfg, err := config.Read(c.Context, path, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if !c.Bool(generalFlagDebug) && cfg.LogLevel != "" {
		if logger, err = cfg.Logger("dyntree"); err != nil {
			return nil, nil, nil, err
		}
	}
	e, err := config.NewEngine(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, e, logger, nil
}

// loadState reads and applies the state file named by flag, if one was given.
func loadState(c *cli.Context, flag string, e *dynamics.Engine) (*config.State, error) {
	path := c.String(flag)
	if path == "" {
		return nil, nil
	}
	state, err := config.ReadState(path)
	if err != nil {
		return nil, err
	}
	return state, state.Apply(e)
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("X:%.4f, Y:%.4f, Z:%.4f", v.X, v.Y, v.Z)
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

package cli

import (
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// benchStats summarizes cycle times in microseconds.
type benchStats struct {
	Cycles int
	Mean   float64
	P50    float64
	P99    float64
	Max    float64
}

func summarize(samples stats.Float64Data) (benchStats, error) {
	out := benchStats{Cycles: samples.Len()}
	var err error
	if out.Mean, err = samples.Mean(); err != nil {
		return benchStats{}, err
	}
	if out.P50, err = samples.Percentile(50); err != nil {
		return benchStats{}, err
	}
	if out.P99, err = samples.Percentile(99); err != nil {
		return benchStats{}, err
	}
	if out.Max, err = samples.Max(); err != nil {
		return benchStats{}, err
	}
	return out, nil
}

// BenchAction times full estimation cycles and prints their distribution.
func BenchAction(c *cli.Context) error {
	cycles := c.Int(benchFlagCycles)
	if cycles <= 0 {
		return errors.Errorf("--%s must be positive, got %d", benchFlagCycles, cycles)
	}
	_, e, logger, err := loadEngine(c)
	if err != nil {
		return err
	}
	if _, err := loadState(c, benchFlagState, e); err != nil {
		return err
	}

	clk := clockFrom(c)
	samples := make(stats.Float64Data, 0, cycles)
	for i := 0; i < cycles; i++ {
		if err := c.Context.Err(); err != nil {
			return err
		}
		start := clk.Now()
		// a changed IMU reading sends the engine back to the kinematic phase, as a new cycle would
		w, dw, ddp := e.InertialMeasure()
		e.SetInertialMeasure(w, dw, ddp)
		if err := runCycle(e, c.Bool(benchFlagMeasured)); err != nil {
			return err
		}
		samples = append(samples, float64(clk.Since(start))/float64(time.Microsecond))
	}
	summary, err := summarize(samples)
	if err != nil {
		return err
	}
	logger.Debugw("bench finished", "cycles", summary.Cycles, "mean_us", summary.Mean)
	printf(c.App.Writer, "%d cycles: mean %.2fus, p50 %.2fus, p99 %.2fus, max %.2fus",
		summary.Cycles, summary.Mean, summary.P50, summary.P99, summary.Max)
	if c.Bool(benchFlagHistogram) {
		hist := histogram.Hist(histogramBins, samples)
		return histogram.Fprint(c.App.Writer, hist, histogram.Linear(histogramWidth))
	}
	return nil
}

package terrain

import (
	"time"

	"github.com/overland-data/terrain.report/internal/monitoring"
)

// Observer receives diagnostic events from a StepEstimator. It is purely
// optional: a nil observer disables all events and changes no results.
//
// MaxStep and CellScored fire from worker goroutines during the passes, so
// implementations must be safe for concurrent use.
type Observer interface {
	// ParamsValidated fires once when the estimator is constructed.
	ParamsValidated(params StepParams)

	// MaxStep fires in the first pass for each cell whose window contained
	// a nonzero elevation step.
	MaxStep(cell int, step float64)

	// CellScored fires in the second pass for each cell that received a
	// traversability score.
	CellScored(cell int, score float64)

	// PassDone fires after each full-grid pass with its wall time.
	PassDone(name string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ParamsValidated(StepParams)     {}
func (nopObserver) MaxStep(int, float64)           {}
func (nopObserver) CellScored(int, float64)        {}
func (nopObserver) PassDone(string, time.Duration) {}

// LogObserver forwards estimator events to the monitoring package. Per-cell
// events go through Debugf so they stay silent unless verbose logging is on.
type LogObserver struct{}

func (LogObserver) ParamsValidated(p StepParams) {
	monitoring.Logf("terrain: step estimator configured: critical=%.3fm windows=%.3fm/%.3fm n_crit=%d layer=%q",
		p.CriticalStepHeight, p.FirstWindowRadius, p.SecondWindowRadius, p.CriticalCellCount, p.OutputLayer)
}

func (LogObserver) MaxStep(cell int, step float64) {
	monitoring.Debugf("terrain: max step %.3fm at cell %d", step, cell)
}

func (LogObserver) CellScored(cell int, score float64) {
	monitoring.Debugf("terrain: cell %d scored %.3f", cell, score)
}

func (LogObserver) PassDone(name string, elapsed time.Duration) {
	monitoring.Logf("terrain: %s pass completed in %s", name, elapsed)
}

package terrain

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/overland-data/terrain.report/internal/gridmap"
)

// Layer names consumed and produced by the estimator.
const (
	// LayerElevation is the required input layer: terrain surface height in
	// meters per cell.
	LayerElevation = "elevation"

	// layerStepHeight is the scratch layer holding each cell's largest
	// local elevation step. It exists only inside one Estimate call and is
	// removed before the result is returned.
	layerStepHeight = "step_height"
)

// StepEstimator scores terrain traversability by detecting step hazards:
// abrupt local height discontinuities too large for the platform to cross.
//
// The estimator is immutable after construction and safe for concurrent use
// on independent grids.
type StepEstimator struct {
	params StepParams
	obs    Observer
}

// NewStepEstimator validates params and builds an estimator. obs may be nil.
// Validation happens exactly once here; a constructed estimator can never be
// half-configured.
func NewStepEstimator(params StepParams, obs Observer) (*StepEstimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = nopObserver{}
	}
	e := &StepEstimator{params: params, obs: obs}
	e.obs.ParamsValidated(params)
	return e, nil
}

// Params returns a copy of the estimator's tuning.
func (e *StepEstimator) Params() StepParams { return e.params }

// Estimate runs the two-pass step analysis over the input grid and returns a
// fresh grid: a deep copy of the input with the output layer added. The
// caller's grid is never mutated, and no partial result is returned on error.
//
// Pass one finds, for every cell with valid elevation, the largest absolute
// elevation difference to any cell inside the first circular window. Pass two
// aggregates those step heights over the second window into a [0, 1] score:
// 1 means flat and fully traversable, 0 means blocked. Cells whose second
// window saw no step data are left unset — unknown, not safe.
func (e *StepEstimator) Estimate(in *gridmap.GridMap) (*gridmap.GridMap, error) {
	if in == nil {
		return nil, fmt.Errorf("terrain: nil input grid")
	}
	if !in.HasLayer(LayerElevation) {
		return nil, &MissingLayerError{Layer: LayerElevation}
	}

	out := in.Clone()
	out.AddLayer(e.params.OutputLayer)
	out.AddLayer(layerStepHeight)

	// The passes parallelize over row chunks. Within a pass each cell
	// writes only its own index, so the only synchronization needed is the
	// barrier between passes: pass two must not start until every cell's
	// step height is in place.
	start := time.Now()
	if err := e.runPass(out, e.stepHeightAt); err != nil {
		return nil, err
	}
	e.obs.PassDone("step height", time.Since(start))

	start = time.Now()
	if err := e.runPass(out, e.scoreAt); err != nil {
		return nil, err
	}
	e.obs.PassDone("scoring", time.Since(start))

	out.RemoveLayer(layerStepHeight)
	return out, nil
}

// runPass applies fn to every cell index, fanning rows out across workers
// and waiting for all of them before returning. The first error wins and
// aborts the whole estimation.
func (e *StepEstimator) runPass(g *gridmap.GridMap, fn func(g *gridmap.GridMap, idx int) error) error {
	workers := runtime.NumCPU()
	if workers > g.Rows {
		workers = g.Rows
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (g.Rows + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		rowLo := w * chunk
		rowHi := rowLo + chunk
		if rowHi > g.Rows {
			rowHi = g.Rows
		}
		if rowLo >= rowHi {
			break
		}
		wg.Add(1)
		go func(w, rowLo, rowHi int) {
			defer wg.Done()
			for row := rowLo; row < rowHi; row++ {
				for col := 0; col < g.Cols; col++ {
					if err := fn(g, g.Index(row, col)); err != nil {
						errs[w] = err
						return
					}
				}
			}
		}(w, rowLo, rowHi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// stepHeightAt computes pass one for a single cell: the maximum absolute
// elevation difference to any valid cell inside the first window. The result
// is recorded only when it is strictly positive; a perfectly flat window
// leaves the cell unset, indistinguishable from "no data". That asymmetry is
// inherited from the original filter and kept for output compatibility.
func (e *StepEstimator) stepHeightAt(g *gridmap.GridMap, idx int) error {
	height, ok := g.At(LayerElevation, idx)
	if !ok {
		return nil
	}

	x, y := g.PositionAt(idx)
	window, err := g.IndicesWithin(x, y, e.params.FirstWindowRadius)
	if err != nil {
		return err
	}

	stepMax := 0.0
	for _, nb := range window {
		nbHeight, ok := g.At(LayerElevation, nb)
		if !ok {
			continue
		}
		if step := math.Abs(height - nbHeight); step > stepMax {
			stepMax = step
		}
	}

	if stepMax > 0 {
		if err := g.Set(layerStepHeight, idx, stepMax); err != nil {
			return err
		}
		e.obs.MaxStep(idx, stepMax)
	}
	return nil
}

// scoreAt computes pass two for a single cell: scan the second window over
// the step-height layer, then turn the largest step into a traversability
// score.
//
// nCells deliberately counts running-maximum updates that land above the
// critical height, not all neighbors above it. A window scanned in a
// different order can therefore tally differently; this matches the original
// filter exactly and is kept even though it under-counts relative to a naive
// threshold count.
//
// The nCells/CriticalCellCount ratio is evaluated in floating point. The
// original left the promotion ambiguous (integer truncation would zero the
// ratio whenever nCells < critical); real-valued division is the documented
// choice here.
func (e *StepEstimator) scoreAt(g *gridmap.GridMap, idx int) error {
	x, y := g.PositionAt(idx)
	window, err := g.IndicesWithin(x, y, e.params.SecondWindowRadius)
	if err != nil {
		return err
	}

	var (
		stepMax float64
		nCells  int
		isValid bool
	)
	for _, nb := range window {
		v, ok := g.At(layerStepHeight, nb)
		if !ok {
			continue
		}
		isValid = true
		if v > stepMax {
			stepMax = v
			if stepMax > e.params.CriticalStepHeight {
				nCells++
			}
		}
	}
	if !isValid {
		// No step data anywhere in the window: traversability is unknown,
		// not safe. Leave the cell unset.
		return nil
	}

	step := math.Min(stepMax, float64(nCells)/float64(e.params.CriticalCellCount)*stepMax)

	score := 0.0
	if step < e.params.CriticalStepHeight {
		score = 1.0 - step/e.params.CriticalStepHeight
	}
	if err := g.Set(e.params.OutputLayer, idx, score); err != nil {
		return err
	}
	e.obs.CellScored(idx, score)
	return nil
}

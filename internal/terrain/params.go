package terrain

import "math"

// Tuning parameter keys as they appear in config files and error messages.
const (
	ParamCriticalValue      = "critical_value"
	ParamFirstWindowRadius  = "first_window_radius"
	ParamSecondWindowRadius = "second_window_radius"
	ParamCriticalCellNumber = "critical_cell_number"
	ParamMapType            = "map_type"
)

// StepParams holds the tuning for a StepEstimator. All five parameters are
// required; Validate rejects out-of-range values before any estimation runs.
type StepParams struct {
	// CriticalStepHeight is the step height in meters beyond which a cell
	// is considered blocked. Must be > 0.
	CriticalStepHeight float64

	// FirstWindowRadius is the radius in meters of the circular window used
	// to find each cell's largest local elevation step. Must be >= 0.
	FirstWindowRadius float64

	// SecondWindowRadius is the radius in meters of the circular window used
	// to aggregate step heights into a per-cell risk score. Must be >= 0.
	SecondWindowRadius float64

	// CriticalCellCount normalizes the threshold-crossing neighbor tally in
	// the scoring pass. Must be > 0.
	CriticalCellCount int

	// OutputLayer is the name of the traversability layer written into the
	// result grid. Must be non-empty.
	OutputLayer string
}

// DefaultStepParams returns the historical tuning for a small tracked
// platform: 0.3 m critical step, 8 cm windows.
func DefaultStepParams() StepParams {
	return StepParams{
		CriticalStepHeight: 0.3,
		FirstWindowRadius:  0.08,
		SecondWindowRadius: 0.08,
		CriticalCellCount:  5,
		OutputLayer:        "traversability_step",
	}
}

// Validate checks every parameter against its constraint. The returned error
// names the offending parameter: MissingParamError when it was never set,
// InvalidParamError when it is out of range.
func (p StepParams) Validate() error {
	if p.OutputLayer == "" {
		return &MissingParamError{Param: ParamMapType}
	}
	if math.IsNaN(p.CriticalStepHeight) || math.IsInf(p.CriticalStepHeight, 0) || p.CriticalStepHeight <= 0 {
		return &InvalidParamError{
			Param:  ParamCriticalValue,
			Value:  p.CriticalStepHeight,
			Reason: "must be greater than zero",
		}
	}
	if math.IsNaN(p.FirstWindowRadius) || math.IsInf(p.FirstWindowRadius, 0) || p.FirstWindowRadius < 0 {
		return &InvalidParamError{
			Param:  ParamFirstWindowRadius,
			Value:  p.FirstWindowRadius,
			Reason: "must be non-negative",
		}
	}
	if math.IsNaN(p.SecondWindowRadius) || math.IsInf(p.SecondWindowRadius, 0) || p.SecondWindowRadius < 0 {
		return &InvalidParamError{
			Param:  ParamSecondWindowRadius,
			Value:  p.SecondWindowRadius,
			Reason: "must be non-negative",
		}
	}
	if p.CriticalCellCount <= 0 {
		return &InvalidParamError{
			Param:  ParamCriticalCellNumber,
			Value:  p.CriticalCellCount,
			Reason: "must be greater than zero",
		}
	}
	return nil
}

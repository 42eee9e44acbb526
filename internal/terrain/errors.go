package terrain

import "fmt"

// MissingParamError reports a required tuning parameter that was not
// provided at all. Distinct from InvalidParamError so callers can tell
// "forgot to configure" apart from "configured badly".
type MissingParamError struct {
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("terrain: missing required parameter %q", e.Param)
}

// InvalidParamError reports a parameter that was provided but violates its
// numeric constraint. Value carries the offending value verbatim.
type InvalidParamError struct {
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("terrain: parameter %q %s (got %v)", e.Param, e.Reason, e.Value)
}

// MissingLayerError reports an input grid that lacks a layer the estimator
// requires.
type MissingLayerError struct {
	Layer string
}

func (e *MissingLayerError) Error() string {
	return fmt.Sprintf("terrain: input grid has no %q layer", e.Layer)
}

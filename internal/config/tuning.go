package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/overland-data/terrain.report/internal/terrain"
)

// DefaultConfigPath is the path to the canonical step tuning file.
const DefaultConfigPath = "config/step.defaults.json"

// StepTuning is the on-disk form of the step estimator parameters. Fields
// are pointers so an absent key is distinguishable from a zero value: the
// estimator must reject missing parameters rather than silently defaulting.
type StepTuning struct {
	CriticalValue      *float64 `json:"critical_value,omitempty"`
	FirstWindowRadius  *float64 `json:"first_window_radius,omitempty"`
	SecondWindowRadius *float64 `json:"second_window_radius,omitempty"`
	CriticalCellNumber *int     `json:"critical_cell_number,omitempty"`
	MapType            *string  `json:"map_type,omitempty"`
}

// LoadStepTuning reads a StepTuning from a JSON file. The file must have a
// .json extension and stay under 1MB; content validation happens later in
// ToStepParams so the caller gets the full missing/invalid taxonomy.
func LoadStepTuning(path string) (*StepTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var t StepTuning
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &t, nil
}

// ToStepParams converts the tuning into validated estimator parameters.
// Every key is required: a nil field yields a MissingParamError naming it,
// and out-of-range values come back as InvalidParamError from Validate.
func (t *StepTuning) ToStepParams() (terrain.StepParams, error) {
	var p terrain.StepParams
	if t.CriticalValue == nil {
		return p, &terrain.MissingParamError{Param: terrain.ParamCriticalValue}
	}
	if t.FirstWindowRadius == nil {
		return p, &terrain.MissingParamError{Param: terrain.ParamFirstWindowRadius}
	}
	if t.SecondWindowRadius == nil {
		return p, &terrain.MissingParamError{Param: terrain.ParamSecondWindowRadius}
	}
	if t.CriticalCellNumber == nil {
		return p, &terrain.MissingParamError{Param: terrain.ParamCriticalCellNumber}
	}
	if t.MapType == nil || *t.MapType == "" {
		return p, &terrain.MissingParamError{Param: terrain.ParamMapType}
	}

	p = terrain.StepParams{
		CriticalStepHeight: *t.CriticalValue,
		FirstWindowRadius:  *t.FirstWindowRadius,
		SecondWindowRadius: *t.SecondWindowRadius,
		CriticalCellCount:  *t.CriticalCellNumber,
		OutputLayer:        *t.MapType,
	}
	if err := p.Validate(); err != nil {
		return terrain.StepParams{}, err
	}
	return p, nil
}

// FromStepParams builds the on-disk form from in-memory parameters, e.g. for
// recording the exact tuning used by a run.
func FromStepParams(p terrain.StepParams) *StepTuning {
	return &StepTuning{
		CriticalValue:      &p.CriticalStepHeight,
		FirstWindowRadius:  &p.FirstWindowRadius,
		SecondWindowRadius: &p.SecondWindowRadius,
		CriticalCellNumber: &p.CriticalCellCount,
		MapType:            &p.OutputLayer,
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overland-data/terrain.report/internal/terrain"
)

func writeTuning(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "step.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStepTuningComplete(t *testing.T) {
	path := writeTuning(t, `{
		"critical_value": 0.3,
		"first_window_radius": 1.5,
		"second_window_radius": 1.5,
		"critical_cell_number": 5,
		"map_type": "traversability_step"
	}`)

	tuning, err := LoadStepTuning(path)
	require.NoError(t, err)

	params, err := tuning.ToStepParams()
	require.NoError(t, err)
	assert.Equal(t, 0.3, params.CriticalStepHeight)
	assert.Equal(t, 1.5, params.FirstWindowRadius)
	assert.Equal(t, 1.5, params.SecondWindowRadius)
	assert.Equal(t, 5, params.CriticalCellCount)
	assert.Equal(t, "traversability_step", params.OutputLayer)
}

func TestLoadStepTuningRejectsNonJSON(t *testing.T) {
	_, err := LoadStepTuning("tuning.yaml")
	assert.Error(t, err)
}

func TestLoadStepTuningMissingFile(t *testing.T) {
	_, err := LoadStepTuning(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestToStepParamsMissingKeys(t *testing.T) {
	cases := []struct {
		name      string
		content   string
		wantParam string
	}{
		{
			"missing critical_value",
			`{"first_window_radius": 1, "second_window_radius": 1, "critical_cell_number": 5, "map_type": "t"}`,
			terrain.ParamCriticalValue,
		},
		{
			"missing first_window_radius",
			`{"critical_value": 0.3, "second_window_radius": 1, "critical_cell_number": 5, "map_type": "t"}`,
			terrain.ParamFirstWindowRadius,
		},
		{
			"missing second_window_radius",
			`{"critical_value": 0.3, "first_window_radius": 1, "critical_cell_number": 5, "map_type": "t"}`,
			terrain.ParamSecondWindowRadius,
		},
		{
			"missing critical_cell_number",
			`{"critical_value": 0.3, "first_window_radius": 1, "second_window_radius": 1, "map_type": "t"}`,
			terrain.ParamCriticalCellNumber,
		},
		{
			"missing map_type",
			`{"critical_value": 0.3, "first_window_radius": 1, "second_window_radius": 1, "critical_cell_number": 5}`,
			terrain.ParamMapType,
		},
		{
			"empty map_type",
			`{"critical_value": 0.3, "first_window_radius": 1, "second_window_radius": 1, "critical_cell_number": 5, "map_type": ""}`,
			terrain.ParamMapType,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tuning, err := LoadStepTuning(writeTuning(t, tc.content))
			require.NoError(t, err)

			_, err = tuning.ToStepParams()
			var missing *terrain.MissingParamError
			require.True(t, errors.As(err, &missing), "expected MissingParamError, got %v", err)
			assert.Equal(t, tc.wantParam, missing.Param)
		})
	}
}

func TestToStepParamsInvalidValue(t *testing.T) {
	tuning, err := LoadStepTuning(writeTuning(t, `{
		"critical_value": 0.3,
		"first_window_radius": 1,
		"second_window_radius": 1,
		"critical_cell_number": 0,
		"map_type": "traversability_step"
	}`))
	require.NoError(t, err)

	_, err = tuning.ToStepParams()
	var invalid *terrain.InvalidParamError
	require.True(t, errors.As(err, &invalid), "expected InvalidParamError, got %v", err)
	assert.Equal(t, terrain.ParamCriticalCellNumber, invalid.Param)
}

func TestFromStepParamsRoundTrip(t *testing.T) {
	p := terrain.DefaultStepParams()
	back, err := FromStepParams(p).ToStepParams()
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

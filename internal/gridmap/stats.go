package gridmap

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LayerStats summarizes the valid cells of one layer.
type LayerStats struct {
	Layer         string  `json:"layer"`
	ValidCells    int     `json:"valid_cells"`
	TotalCells    int     `json:"total_cells"`
	ValidFraction float64 `json:"valid_fraction"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
}

// MarshalJSON encodes NaN statistics (empty layers) as null, which
// encoding/json otherwise rejects.
func (s LayerStats) MarshalJSON() ([]byte, error) {
	type jsonStats struct {
		Layer         string   `json:"layer"`
		ValidCells    int      `json:"valid_cells"`
		TotalCells    int      `json:"total_cells"`
		ValidFraction float64  `json:"valid_fraction"`
		Min           *float64 `json:"min"`
		Max           *float64 `json:"max"`
		Mean          *float64 `json:"mean"`
		StdDev        *float64 `json:"std_dev"`
	}
	finite := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(jsonStats{
		Layer:         s.Layer,
		ValidCells:    s.ValidCells,
		TotalCells:    s.TotalCells,
		ValidFraction: s.ValidFraction,
		Min:           finite(s.Min),
		Max:           finite(s.Max),
		Mean:          finite(s.Mean),
		StdDev:        finite(s.StdDev),
	})
}

// Stats computes summary statistics over the valid cells of a layer.
// Min/Max/Mean/StdDev are NaN when the layer has no valid cells.
func (g *GridMap) Stats(layer string) (LayerStats, error) {
	data, ok := g.layers[layer]
	if !ok {
		return LayerStats{}, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}

	valid := make([]float64, 0, len(data))
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		valid = append(valid, f)
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}

	s := LayerStats{
		Layer:      layer,
		ValidCells: len(valid),
		TotalCells: len(data),
	}
	if s.TotalCells > 0 {
		s.ValidFraction = float64(s.ValidCells) / float64(s.TotalCells)
	}
	if len(valid) == 0 {
		s.Min, s.Max, s.Mean, s.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s, nil
	}
	s.Min = min
	s.Max = max
	s.Mean = stat.Mean(valid, nil)
	if len(valid) > 1 {
		s.StdDev = stat.StdDev(valid, nil)
	}
	return s, nil
}

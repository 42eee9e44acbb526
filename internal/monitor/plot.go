package monitor

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/overland-data/terrain.report/internal/gridmap"
)

// layerGrid adapts one gridmap layer to plotter.GridXYZ. Invalid cells
// surface as NaN, which the heat map plotter leaves blank.
type layerGrid struct {
	g     *gridmap.GridMap
	layer string
}

func (lg layerGrid) Dims() (c, r int) { return lg.g.Cols, lg.g.Rows }

func (lg layerGrid) Z(c, r int) float64 {
	v, ok := lg.g.At(lg.layer, lg.g.Index(r, c))
	if !ok {
		return math.NaN()
	}
	return v
}

func (lg layerGrid) X(c int) float64 { return lg.g.OriginX + float64(c)*lg.g.Resolution }
func (lg layerGrid) Y(r int) float64 { return lg.g.OriginY + float64(r)*lg.g.Resolution }

// SaveLayerPNG renders one grid layer as a PNG heatmap in world coordinates.
func SaveLayerPNG(g *gridmap.GridMap, layer, title, path string) error {
	if !g.HasLayer(layer) {
		return fmt.Errorf("monitor: %w: %q", gridmap.ErrUnknownLayer, layer)
	}

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(layerGrid{g: g, layer: layer}, pal)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("monitor: save heatmap %s: %w", path, err)
	}
	return nil
}

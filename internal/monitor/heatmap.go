// Package monitor provides post-run visualization of terrain grids: HTML
// heatmaps for quick inspection in a browser, PNG heatmaps for reports, and
// a small HTTP server exposing both plus run metadata.
package monitor

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/overland-data/terrain.report/internal/gridmap"
)

// viridis-like ramp, dark = low, bright = high.
var heatmapColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// RenderLayerHTML renders one grid layer as a standalone HTML heatmap page.
// Invalid cells are omitted entirely so they show as gaps rather than zeros.
func RenderLayerHTML(g *gridmap.GridMap, layer, title string, w io.Writer) error {
	if !g.HasLayer(layer) {
		return fmt.Errorf("monitor: %w: %q", gridmap.ErrUnknownLayer, layer)
	}

	xLabels := make([]string, g.Cols)
	for c := 0; c < g.Cols; c++ {
		xLabels[c] = strconv.Itoa(c)
	}
	yLabels := make([]string, g.Rows)
	for r := 0; r < g.Rows; r++ {
		yLabels[r] = strconv.Itoa(r)
	}

	data := make([]opts.HeatMapData, 0, g.Size())
	vMin, vMax := math.Inf(1), math.Inf(-1)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v, ok := g.At(layer, g.Index(row, col))
			if !ok {
				continue
			}
			if v < vMin {
				vMin = v
			}
			if v > vMax {
				vMax = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, row, v}})
		}
	}
	if len(data) == 0 {
		vMin, vMax = 0, 1
	}
	if vMin == vMax {
		vMax = vMin + 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title, Theme: "dark", Width: "900px", Height: "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("layer=%s shape=%dx%d resolution=%gm", layer, g.Rows, g.Cols, g.Resolution),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "col"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "row", Data: yLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(vMin),
			Max:        float32(vMax),
			InRange:    &opts.VisualMapInRange{Color: heatmapColors},
		}),
	)
	hm.SetXAxis(xLabels).AddSeries(layer, data)

	return hm.Render(w)
}

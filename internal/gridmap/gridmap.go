package gridmap

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Invalid cells are stored as NaN. A layer read that returns ok=false means
// the cell holds no usable value for that layer.

var (
	// ErrInvalidGeometry reports a grid whose geometry is degenerate or
	// non-finite (zero resolution, NaN origin, non-finite query position).
	ErrInvalidGeometry = errors.New("gridmap: invalid geometry")

	// ErrUnknownLayer reports an access to a layer the grid does not carry.
	ErrUnknownLayer = errors.New("gridmap: unknown layer")
)

// GridMap is a 2-D regular grid of cells with named scalar layers.
// Cells are addressed by linear index in row-major order
// (idx = row*Cols + col) and map to world positions at their centers.
type GridMap struct {
	// Frame is a human-readable coordinate frame identifier, e.g. "map".
	Frame string

	Rows int
	Cols int

	// Resolution is the cell edge length in meters.
	Resolution float64

	// OriginX, OriginY are the world coordinates of cell (0,0)'s center.
	// X grows with the column index, Y with the row index.
	OriginX float64
	OriginY float64

	layers map[string][]float32
}

// New constructs an empty grid with the given shape and geometry.
func New(rows, cols int, resolution, originX, originY float64, frame string) (*GridMap, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid shape %dx%d", ErrInvalidGeometry, rows, cols)
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, fmt.Errorf("%w: resolution %v", ErrInvalidGeometry, resolution)
	}
	if !isFinite(originX) || !isFinite(originY) {
		return nil, fmt.Errorf("%w: origin (%v, %v)", ErrInvalidGeometry, originX, originY)
	}
	return &GridMap{
		Frame:      frame,
		Rows:       rows,
		Cols:       cols,
		Resolution: resolution,
		OriginX:    originX,
		OriginY:    originY,
		layers:     make(map[string][]float32),
	}, nil
}

// Size returns the total cell count.
func (g *GridMap) Size() int { return g.Rows * g.Cols }

// Index returns the linear index for a row/column pair.
func (g *GridMap) Index(row, col int) int { return row*g.Cols + col }

// RowCol splits a linear index into its row and column.
func (g *GridMap) RowCol(idx int) (row, col int) { return idx / g.Cols, idx % g.Cols }

// AddLayer creates (or resets) a layer with every cell marked invalid.
func (g *GridMap) AddLayer(name string) {
	data := make([]float32, g.Size())
	nan := float32(math.NaN())
	for i := range data {
		data[i] = nan
	}
	g.layers[name] = data
}

// RemoveLayer drops a layer. Removing an absent layer is a no-op.
func (g *GridMap) RemoveLayer(name string) {
	delete(g.layers, name)
}

// HasLayer reports whether the grid carries the named layer.
func (g *GridMap) HasLayer(name string) bool {
	_, ok := g.layers[name]
	return ok
}

// Layers returns the layer names in sorted order.
func (g *GridMap) Layers() []string {
	names := make([]string, 0, len(g.layers))
	for name := range g.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// At reads a cell value. ok is false when the layer is absent, the index is
// out of range, or the cell is marked invalid.
func (g *GridMap) At(layer string, idx int) (value float64, ok bool) {
	data, exists := g.layers[layer]
	if !exists || idx < 0 || idx >= len(data) {
		return math.NaN(), false
	}
	v := float64(data[idx])
	if math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// IsValid reports whether the cell holds a usable value in the layer.
func (g *GridMap) IsValid(layer string, idx int) bool {
	_, ok := g.At(layer, idx)
	return ok
}

// Set writes a cell value. Writing NaN marks the cell invalid.
func (g *GridMap) Set(layer string, idx int, value float64) error {
	data, exists := g.layers[layer]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	if idx < 0 || idx >= len(data) {
		return fmt.Errorf("gridmap: index %d out of range [0, %d)", idx, len(data))
	}
	data[idx] = float32(value)
	return nil
}

// ClearAt marks a cell invalid in the layer.
func (g *GridMap) ClearAt(layer string, idx int) error {
	return g.Set(layer, idx, math.NaN())
}

// PositionAt returns the world coordinates of a cell's center.
func (g *GridMap) PositionAt(idx int) (x, y float64) {
	row, col := g.RowCol(idx)
	return g.OriginX + float64(col)*g.Resolution, g.OriginY + float64(row)*g.Resolution
}

// IndexAt returns the linear index of the cell whose center is nearest to the
// world position. ok is false when the position falls outside the grid.
func (g *GridMap) IndexAt(x, y float64) (idx int, ok bool) {
	if !isFinite(x) || !isFinite(y) {
		return 0, false
	}
	col := int(math.Round((x - g.OriginX) / g.Resolution))
	row := int(math.Round((y - g.OriginY) / g.Resolution))
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, false
	}
	return g.Index(row, col), true
}

// Clone returns a deep copy of the grid, including all layer data.
func (g *GridMap) Clone() *GridMap {
	out := &GridMap{
		Frame:      g.Frame,
		Rows:       g.Rows,
		Cols:       g.Cols,
		Resolution: g.Resolution,
		OriginX:    g.OriginX,
		OriginY:    g.OriginY,
		layers:     make(map[string][]float32, len(g.layers)),
	}
	for name, data := range g.layers {
		cp := make([]float32, len(data))
		copy(cp, data)
		out.layers[name] = cp
	}
	return out
}

// LayerData exposes the raw backing slice of a layer. Intended for bulk
// export and persistence; callers must not assume values are finite.
func (g *GridMap) LayerData(name string) ([]float32, error) {
	data, ok := g.layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	return data, nil
}

// SetLayerData replaces a layer's backing data wholesale. The slice length
// must match the grid size.
func (g *GridMap) SetLayerData(name string, data []float32) error {
	if len(data) != g.Size() {
		return fmt.Errorf("gridmap: layer %q data length %d does not match grid size %d",
			name, len(data), g.Size())
	}
	cp := make([]float32, len(data))
	copy(cp, data)
	g.layers[name] = cp
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

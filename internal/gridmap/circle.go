package gridmap

import (
	"fmt"
	"math"
)

// IndicesWithin returns the linear indices of all cells whose center lies
// within radius meters of the world position (x, y), boundary inclusive.
// This is an approximate disk: membership is decided by the cell center, not
// by cell area overlap. The scan is bounded to the enclosing box of the
// circle, so the cost is O(r²/resolution²) rather than O(grid).
//
// A non-finite center or radius is a geometry fault and returns
// ErrInvalidGeometry.
func (g *GridMap) IndicesWithin(x, y, radius float64) ([]int, error) {
	if !isFinite(x) || !isFinite(y) {
		return nil, fmt.Errorf("%w: circle center (%v, %v)", ErrInvalidGeometry, x, y)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return nil, fmt.Errorf("%w: circle radius %v", ErrInvalidGeometry, radius)
	}

	colMin := int(math.Ceil((x - radius - g.OriginX) / g.Resolution))
	colMax := int(math.Floor((x + radius - g.OriginX) / g.Resolution))
	rowMin := int(math.Ceil((y - radius - g.OriginY) / g.Resolution))
	rowMax := int(math.Floor((y + radius - g.OriginY) / g.Resolution))

	if colMin < 0 {
		colMin = 0
	}
	if rowMin < 0 {
		rowMin = 0
	}
	if colMax >= g.Cols {
		colMax = g.Cols - 1
	}
	if rowMax >= g.Rows {
		rowMax = g.Rows - 1
	}

	r2 := radius * radius
	var indices []int
	for row := rowMin; row <= rowMax; row++ {
		cy := g.OriginY + float64(row)*g.Resolution
		dy := cy - y
		for col := colMin; col <= colMax; col++ {
			cx := g.OriginX + float64(col)*g.Resolution
			dx := cx - x
			// Small epsilon keeps cells exactly on the boundary inside,
			// which otherwise fall out to floating-point rounding.
			if dx*dx+dy*dy <= r2*(1+1e-12)+1e-12 {
				indices = append(indices, g.Index(row, col))
			}
		}
	}
	return indices, nil
}

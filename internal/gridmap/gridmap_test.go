package gridmap

import (
	"errors"
	"math"
	"testing"
)

func TestNewRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name       string
		rows, cols int
		resolution float64
		originX    float64
	}{
		{"zero rows", 0, 5, 1.0, 0},
		{"negative cols", 5, -1, 1.0, 0},
		{"zero resolution", 5, 5, 0, 0},
		{"negative resolution", 5, 5, -0.5, 0},
		{"nan resolution", 5, 5, math.NaN(), 0},
		{"inf origin", 5, 5, 1.0, math.Inf(1)},
		{"nan origin", 5, 5, 1.0, math.NaN()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.rows, tc.cols, tc.resolution, tc.originX, 0, "map")
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestLayerLifecycle(t *testing.T) {
	g, err := New(3, 4, 0.5, 0, 0, "map")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if g.HasLayer("elevation") {
		t.Error("fresh grid should have no layers")
	}
	g.AddLayer("elevation")
	if !g.HasLayer("elevation") {
		t.Error("expected elevation layer after AddLayer")
	}

	// New layers start fully invalid.
	for i := 0; i < g.Size(); i++ {
		if g.IsValid("elevation", i) {
			t.Fatalf("cell %d should start invalid", i)
		}
	}

	if err := g.Set("elevation", 5, 1.25); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := g.At("elevation", 5)
	if !ok || v != 1.25 {
		t.Errorf("At = (%v, %v), want (1.25, true)", v, ok)
	}

	if err := g.ClearAt("elevation", 5); err != nil {
		t.Fatalf("ClearAt: %v", err)
	}
	if g.IsValid("elevation", 5) {
		t.Error("cell should be invalid after ClearAt")
	}

	g.RemoveLayer("elevation")
	if g.HasLayer("elevation") {
		t.Error("layer should be gone after RemoveLayer")
	}
	if err := g.Set("elevation", 0, 1.0); !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("Set on removed layer: expected ErrUnknownLayer, got %v", err)
	}
}

func TestLayersSorted(t *testing.T) {
	g, _ := New(2, 2, 1.0, 0, 0, "map")
	g.AddLayer("zeta")
	g.AddLayer("alpha")
	g.AddLayer("mid")

	names := g.Layers()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Layers() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Layers()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestPositionIndexRoundTrip(t *testing.T) {
	g, _ := New(10, 8, 0.25, -1.0, 2.0, "map")

	for _, idx := range []int{0, 7, 8, 35, g.Size() - 1} {
		x, y := g.PositionAt(idx)
		back, ok := g.IndexAt(x, y)
		if !ok || back != idx {
			t.Errorf("round trip idx %d: position (%g, %g) -> (%d, %v)", idx, x, y, back, ok)
		}
	}

	// Cell (0,0) center sits exactly at the origin.
	x, y := g.PositionAt(0)
	if x != -1.0 || y != 2.0 {
		t.Errorf("PositionAt(0) = (%g, %g), want (-1, 2)", x, y)
	}

	if _, ok := g.IndexAt(-100, -100); ok {
		t.Error("position far outside the grid should not resolve")
	}
	if _, ok := g.IndexAt(math.NaN(), 0); ok {
		t.Error("NaN position should not resolve")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g, _ := New(2, 2, 1.0, 0, 0, "map")
	g.AddLayer("elevation")
	g.Set("elevation", 0, 7.0)

	cp := g.Clone()
	cp.Set("elevation", 0, -3.0)
	cp.AddLayer("extra")

	if v, _ := g.At("elevation", 0); v != 7.0 {
		t.Errorf("original mutated through clone: got %v, want 7.0", v)
	}
	if g.HasLayer("extra") {
		t.Error("layer added to clone leaked into original")
	}
}

func TestSetLayerData(t *testing.T) {
	g, _ := New(2, 2, 1.0, 0, 0, "map")
	if err := g.SetLayerData("elevation", []float32{1, 2, 3}); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := g.SetLayerData("elevation", []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("SetLayerData: %v", err)
	}
	if v, ok := g.At("elevation", 3); !ok || v != 4 {
		t.Errorf("At(3) = (%v, %v), want (4, true)", v, ok)
	}

	// The stored slice is a copy, not an alias.
	data := []float32{9, 9, 9, 9}
	g.SetLayerData("elevation", data)
	data[0] = 0
	if v, _ := g.At("elevation", 0); v != 9 {
		t.Errorf("layer aliases caller slice: got %v, want 9", v)
	}
}

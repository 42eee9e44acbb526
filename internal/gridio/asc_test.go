package gridio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/overland-data/terrain.report/internal/gridmap"
)

const sampleASC = `ncols 3
nrows 2
xllcorner 10.0
yllcorner 20.0
cellsize 0.5
NODATA_value -9999
1.0 2.0 3.0
4.0 -9999 6.0
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.asc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestReadASC(t *testing.T) {
	g, err := ReadASC(writeFile(t, sampleASC), "elevation")
	if err != nil {
		t.Fatalf("ReadASC: %v", err)
	}

	if g.Rows != 2 || g.Cols != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", g.Rows, g.Cols)
	}
	if g.Resolution != 0.5 {
		t.Errorf("resolution = %g, want 0.5", g.Resolution)
	}
	// Origin is the lower-left cell center, half a cell in from the corner.
	if g.OriginX != 10.25 || g.OriginY != 20.25 {
		t.Errorf("origin = (%g, %g), want (10.25, 20.25)", g.OriginX, g.OriginY)
	}

	// The first ASC data row is the northernmost: grid row 1.
	checks := []struct {
		row, col int
		want     float64
		valid    bool
	}{
		{1, 0, 1.0, true},
		{1, 1, 2.0, true},
		{1, 2, 3.0, true},
		{0, 0, 4.0, true},
		{0, 1, 0, false}, // NODATA
		{0, 2, 6.0, true},
	}
	for _, c := range checks {
		v, ok := g.At("elevation", g.Index(c.row, c.col))
		if ok != c.valid {
			t.Errorf("cell (%d,%d) valid = %v, want %v", c.row, c.col, ok, c.valid)
			continue
		}
		if c.valid && v != c.want {
			t.Errorf("cell (%d,%d) = %v, want %v", c.row, c.col, v, c.want)
		}
	}
}

func TestReadASCWithoutNodataKey(t *testing.T) {
	content := `ncols 2
nrows 1
xllcorner 0
yllcorner 0
cellsize 1
5.0 -9999
`
	g, err := ReadASC(writeFile(t, content), "elevation")
	if err != nil {
		t.Fatalf("ReadASC: %v", err)
	}
	// Without a NODATA_value header the sentinel is not interpreted.
	if v, ok := g.At("elevation", 1); !ok || v != -9999 {
		t.Errorf("cell 1 = (%v, %v), want (-9999, true)", v, ok)
	}
}

func TestReadASCTruncatedData(t *testing.T) {
	content := `ncols 3
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
1 2 3 4
`
	if _, err := ReadASC(writeFile(t, content), "elevation"); err == nil {
		t.Fatal("expected error for truncated data section")
	}
}

func TestReadASCMissingHeaderKey(t *testing.T) {
	content := `ncols 3
nrows 2
xllcorner 0
cellsize 1
1 2 3 4 5 6
`
	if _, err := ReadASC(writeFile(t, content), "elevation"); err == nil {
		t.Fatal("expected error for missing yllcorner")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	g, err := gridmap.New(3, 4, 0.5, 1.25, 2.25, "map")
	if err != nil {
		t.Fatalf("gridmap.New: %v", err)
	}
	g.AddLayer("score")
	for i := 0; i < g.Size(); i++ {
		if i == 5 {
			continue // leave one cell invalid
		}
		g.Set("score", i, float64(i)*0.125)
	}

	path := filepath.Join(t.TempDir(), "out.asc")
	if err := WriteASC(g, "score", path); err != nil {
		t.Fatalf("WriteASC: %v", err)
	}

	back, err := ReadASC(path, "score")
	if err != nil {
		t.Fatalf("ReadASC: %v", err)
	}
	if back.Rows != g.Rows || back.Cols != g.Cols || back.Resolution != g.Resolution {
		t.Fatalf("geometry changed: %dx%d @%g", back.Rows, back.Cols, back.Resolution)
	}
	if back.OriginX != g.OriginX || back.OriginY != g.OriginY {
		t.Errorf("origin changed: (%g, %g) vs (%g, %g)", back.OriginX, back.OriginY, g.OriginX, g.OriginY)
	}

	for i := 0; i < g.Size(); i++ {
		want, wantOK := g.At("score", i)
		got, gotOK := back.At("score", i)
		if wantOK != gotOK {
			t.Errorf("cell %d validity changed: %v -> %v", i, wantOK, gotOK)
			continue
		}
		if wantOK && math.Abs(want-got) > 1e-6 {
			t.Errorf("cell %d = %v, want %v", i, got, want)
		}
	}
}

func TestWriteASCUnknownLayer(t *testing.T) {
	g, _ := gridmap.New(2, 2, 1.0, 0, 0, "map")
	if err := WriteASC(g, "missing", filepath.Join(t.TempDir(), "x.asc")); err == nil {
		t.Fatal("expected error for unknown layer")
	}
}

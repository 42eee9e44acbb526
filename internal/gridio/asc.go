// Package gridio reads and writes Esri ASCII grid (.asc) files, the file
// interchange format for elevation and traversability layers.
package gridio

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/overland-data/terrain.report/internal/gridmap"
)

// DefaultNoData is written for invalid cells when no other sentinel is set.
const DefaultNoData = -9999.0

// ascHeader holds the six standard ASC header fields. xllcorner/yllcorner
// are the outer corner of the lower-left cell; cell centers sit half a cell
// inward.
type ascHeader struct {
	ncols     int
	nrows     int
	xllcorner float64
	yllcorner float64
	cellsize  float64
	nodata    float64
	hasNodata bool
}

// ReadASC parses an .asc file into a single-layer grid. ASC rows run north
// to south, so the first data row becomes the highest grid row (Y grows
// with the row index). NODATA cells are marked invalid.
func ReadASC(path, layer string) (*gridmap.GridMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	hdr, firstValue, err := parseHeader(sc)
	if err != nil {
		return nil, fmt.Errorf("gridio: %s: %w", path, err)
	}

	g, err := gridmap.New(
		hdr.nrows, hdr.ncols, hdr.cellsize,
		hdr.xllcorner+hdr.cellsize/2,
		hdr.yllcorner+hdr.cellsize/2,
		"map",
	)
	if err != nil {
		return nil, fmt.Errorf("gridio: %s: %w", path, err)
	}
	g.AddLayer(layer)

	total := hdr.nrows * hdr.ncols
	for i := 0; i < total; i++ {
		var tok string
		if i == 0 && firstValue != "" {
			tok = firstValue
		} else {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return nil, fmt.Errorf("gridio: %s: %w", path, err)
				}
				return nil, fmt.Errorf("gridio: %s: expected %d values, got %d", path, total, i)
			}
			tok = sc.Text()
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("gridio: %s: bad value %q: %w", path, tok, err)
		}

		ascRow := i / hdr.ncols
		col := i % hdr.ncols
		row := hdr.nrows - 1 - ascRow
		if hdr.hasNodata && v == hdr.nodata {
			continue
		}
		if err := g.Set(layer, g.Index(row, col), v); err != nil {
			return nil, fmt.Errorf("gridio: %s: %w", path, err)
		}
	}
	return g, nil
}

// WriteASC writes one layer of a grid as an .asc file. Invalid cells are
// written as the NODATA sentinel.
func WriteASC(g *gridmap.GridMap, layer, path string) error {
	if !g.HasLayer(layer) {
		return fmt.Errorf("gridio: write %s: %w: %q", path, gridmap.ErrUnknownLayer, layer)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gridio: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", g.Cols)
	fmt.Fprintf(w, "nrows %d\n", g.Rows)
	fmt.Fprintf(w, "xllcorner %g\n", g.OriginX-g.Resolution/2)
	fmt.Fprintf(w, "yllcorner %g\n", g.OriginY-g.Resolution/2)
	fmt.Fprintf(w, "cellsize %g\n", g.Resolution)
	fmt.Fprintf(w, "NODATA_value %g\n", DefaultNoData)

	for ascRow := 0; ascRow < g.Rows; ascRow++ {
		row := g.Rows - 1 - ascRow
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				w.WriteByte(' ')
			}
			v, ok := g.At(layer, g.Index(row, col))
			if !ok {
				v = DefaultNoData
			}
			fmt.Fprintf(w, "%g", v)
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("gridio: write %s: %w", path, err)
	}
	return nil
}

// parseHeader consumes header key/value pairs until the first data token.
// Because the scanner cannot peek, the token that terminates the header (the
// first grid value) is returned so the caller can use it.
func parseHeader(sc *bufio.Scanner) (ascHeader, string, error) {
	hdr := ascHeader{nodata: DefaultNoData}
	required := map[string]bool{
		"ncols": false, "nrows": false, "xllcorner": false,
		"yllcorner": false, "cellsize": false,
	}

	for {
		if !sc.Scan() {
			return hdr, "", fmt.Errorf("unexpected end of header")
		}
		tok := sc.Text()
		key := strings.ToLower(tok)

		if _, isRequired := required[key]; !isRequired && key != "nodata_value" {
			// Not a header key: this must be the first data value, which is
			// only legal once every required key has been seen.
			for k, ok := range required {
				if !ok {
					return hdr, "", fmt.Errorf("header missing %q before data (at token %q)", k, tok)
				}
			}
			if err := checkHeader(hdr); err != nil {
				return hdr, "", err
			}
			return hdr, tok, nil
		}

		if !sc.Scan() {
			return hdr, "", fmt.Errorf("header key %q has no value", key)
		}
		val := sc.Text()

		var err error
		switch key {
		case "ncols":
			hdr.ncols, err = strconv.Atoi(val)
		case "nrows":
			hdr.nrows, err = strconv.Atoi(val)
		case "xllcorner":
			hdr.xllcorner, err = strconv.ParseFloat(val, 64)
		case "yllcorner":
			hdr.yllcorner, err = strconv.ParseFloat(val, 64)
		case "cellsize":
			hdr.cellsize, err = strconv.ParseFloat(val, 64)
		case "nodata_value":
			hdr.nodata, err = strconv.ParseFloat(val, 64)
			hdr.hasNodata = true
		}
		if err != nil {
			return hdr, "", fmt.Errorf("bad %s value %q: %w", key, val, err)
		}
		if key != "nodata_value" {
			required[key] = true
		}
	}
}

func checkHeader(hdr ascHeader) error {
	if hdr.ncols <= 0 || hdr.nrows <= 0 {
		return fmt.Errorf("non-positive grid shape %dx%d", hdr.nrows, hdr.ncols)
	}
	if !(hdr.cellsize > 0) || math.IsInf(hdr.cellsize, 0) {
		return fmt.Errorf("non-positive cellsize %g", hdr.cellsize)
	}
	return nil
}

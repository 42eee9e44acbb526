// Package gridmap provides a 2-D regular elevation grid with named scalar
// layers, the in-memory substrate for terrain analysis. Each cell is
// addressed by linear index and maps to a world position at its center;
// per-cell values are float32 with NaN marking "no data".
package gridmap

package sqlite

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"github.com/overland-data/terrain.report/internal/gridmap"
)

// serializeLayer compresses a layer's backing data using gob encoding and
// gzip compression.
func serializeLayer(data []float32) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(data); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeLayer decompresses and decodes layer data from a gob+gzip blob.
func deserializeLayer(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty layer blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var data []float32
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode layer data: %w", err)
	}
	return data, nil
}

// SaveLayer persists one grid layer under a run.
func (s *Store) SaveLayer(runID string, g *gridmap.GridMap, layer string) error {
	data, err := g.LayerData(layer)
	if err != nil {
		return err
	}
	blob, err := serializeLayer(data)
	if err != nil {
		return fmt.Errorf("serialize layer %q: %w", layer, err)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT OR REPLACE INTO terrain_layers (run_id, layer, rows, cols, grid_blob)
			VALUES (?, ?, ?, ?, ?)`,
			runID, layer, g.Rows, g.Cols, blob,
		)
		return err
	})
}

// LoadLayer restores one persisted layer into a fresh grid. The grid's
// geometry (resolution, origin) comes from the run record; only shape and
// values are stored with the blob.
func (s *Store) LoadLayer(runID, layer string) ([]float32, int, int, error) {
	row := s.db.QueryRow(`
		SELECT rows, cols, grid_blob FROM terrain_layers
		WHERE run_id = ? AND layer = ?`, runID, layer)

	var rows, cols int
	var blob []byte
	if err := row.Scan(&rows, &cols, &blob); err != nil {
		return nil, 0, 0, fmt.Errorf("load layer %q for run %s: %w", layer, runID, err)
	}
	data, err := deserializeLayer(blob)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(data) != rows*cols {
		return nil, 0, 0, fmt.Errorf("layer %q blob has %d cells, expected %d", layer, len(data), rows*cols)
	}
	return data, rows, cols, nil
}

// ListLayers returns the layer names persisted for a run.
func (s *Store) ListLayers(runID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT layer FROM terrain_layers WHERE run_id = ? ORDER BY layer`, runID)
	if err != nil {
		return nil, fmt.Errorf("query layers: %w", err)
	}
	defer rows.Close()

	var layers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		layers = append(layers, name)
	}
	return layers, rows.Err()
}

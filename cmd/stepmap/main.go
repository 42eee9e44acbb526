// Command stepmap runs step-hazard traversability estimation over an
// elevation grid: read an .asc elevation map, score every cell, and emit the
// result as a file, a persisted run, a heatmap, or a live monitor page.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/overland-data/terrain.report/internal/config"
	"github.com/overland-data/terrain.report/internal/gridio"
	"github.com/overland-data/terrain.report/internal/gridmap"
	"github.com/overland-data/terrain.report/internal/monitor"
	"github.com/overland-data/terrain.report/internal/monitoring"
	"github.com/overland-data/terrain.report/internal/storage/sqlite"
	"github.com/overland-data/terrain.report/internal/terrain"
	"github.com/overland-data/terrain.report/internal/version"
)

type cliConfig struct {
	ElevationFile string
	ConfigFile    string
	OutputFile    string
	DBPath        string
	PNGFile       string
	HTMLFile      string
	ServeAddr     string
	Verbose       bool
	ShowVersion   bool
}

func parseFlags() cliConfig {
	var cfg cliConfig
	flag.StringVar(&cfg.ElevationFile, "elevation", "", "Path to input elevation grid (.asc)")
	flag.StringVar(&cfg.ConfigFile, "config", config.DefaultConfigPath, "Path to step tuning JSON")
	flag.StringVar(&cfg.OutputFile, "out", "", "Path for output traversability grid (.asc)")
	flag.StringVar(&cfg.DBPath, "db", "", "Persist the run to this sqlite database")
	flag.StringVar(&cfg.PNGFile, "png", "", "Render the output layer as a PNG heatmap")
	flag.StringVar(&cfg.HTMLFile, "html", "", "Render the output layer as an HTML heatmap")
	flag.StringVar(&cfg.ServeAddr, "serve", "", "Serve the monitor on this address (e.g. :8080)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable per-cell debug logging")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(cfg.Verbose)

	if cfg.ElevationFile == "" {
		log.Fatal("-elevation is required")
	}
	if _, err := os.Stat(cfg.ElevationFile); os.IsNotExist(err) {
		log.Fatalf("elevation file not found: %s", cfg.ElevationFile)
	}

	tuning, err := config.LoadStepTuning(cfg.ConfigFile)
	if err != nil {
		log.Fatalf("load tuning: %v", err)
	}
	params, err := tuning.ToStepParams()
	if err != nil {
		log.Fatalf("invalid tuning: %v", err)
	}

	estimator, err := terrain.NewStepEstimator(params, terrain.LogObserver{})
	if err != nil {
		log.Fatalf("build estimator: %v", err)
	}

	in, err := gridio.ReadASC(cfg.ElevationFile, terrain.LayerElevation)
	if err != nil {
		log.Fatalf("read elevation: %v", err)
	}
	monitoring.Logf("stepmap: loaded %dx%d grid at %gm resolution from %s",
		in.Rows, in.Cols, in.Resolution, cfg.ElevationFile)

	start := time.Now()
	out, err := estimator.Estimate(in)
	if err != nil {
		log.Fatalf("estimation failed: %v", err)
	}
	elapsed := time.Since(start)

	stats, err := out.Stats(params.OutputLayer)
	if err != nil {
		log.Fatalf("output stats: %v", err)
	}
	monitoring.Logf("stepmap: scored %d of %d cells (%d unknown) in %s",
		stats.ValidCells, stats.TotalCells, stats.TotalCells-stats.ValidCells, elapsed)

	if cfg.OutputFile != "" {
		if err := gridio.WriteASC(out, params.OutputLayer, cfg.OutputFile); err != nil {
			log.Fatalf("write output: %v", err)
		}
		monitoring.Logf("stepmap: wrote %s", cfg.OutputFile)
	}

	var store *sqlite.Store
	if cfg.DBPath != "" {
		store, err = sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("open run store: %v", err)
		}
		defer store.Close()
		if err := persistRun(store, cfg.ElevationFile, params, out, stats, elapsed); err != nil {
			log.Fatalf("persist run: %v", err)
		}
	}

	if cfg.PNGFile != "" {
		if err := monitor.SaveLayerPNG(out, params.OutputLayer, "Traversability (step)", cfg.PNGFile); err != nil {
			log.Fatalf("render png: %v", err)
		}
		monitoring.Logf("stepmap: wrote %s", cfg.PNGFile)
	}

	if cfg.HTMLFile != "" {
		f, err := os.Create(cfg.HTMLFile)
		if err != nil {
			log.Fatalf("create html: %v", err)
		}
		if err := monitor.RenderLayerHTML(out, params.OutputLayer, "Traversability (step)", f); err != nil {
			f.Close()
			log.Fatalf("render html: %v", err)
		}
		f.Close()
		monitoring.Logf("stepmap: wrote %s", cfg.HTMLFile)
	}

	if cfg.ServeAddr != "" {
		ws := monitor.NewWebServer(out, store)
		if err := ws.ListenAndServe(cfg.ServeAddr); err != nil {
			log.Fatalf("monitor server: %v", err)
		}
	}
}

func persistRun(store *sqlite.Store, sourcePath string, params terrain.StepParams,
	out *gridmap.GridMap, stats gridmap.LayerStats, elapsed time.Duration) error {

	paramsJSON, err := json.Marshal(config.FromStepParams(params))
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	run := &sqlite.Run{
		SourcePath:       sourcePath,
		Rows:             out.Rows,
		Cols:             out.Cols,
		Resolution:       out.Resolution,
		OutputLayer:      params.OutputLayer,
		ParamsJSON:       paramsJSON,
		CellsScored:      stats.ValidCells,
		CellsUnknown:     stats.TotalCells - stats.ValidCells,
		ProcessingTimeUs: elapsed.Microseconds(),
		StatsJSON:        statsJSON,
	}
	if err := store.InsertRun(run); err != nil {
		return err
	}
	for _, layer := range []string{terrain.LayerElevation, params.OutputLayer} {
		if err := store.SaveLayer(run.RunID, out, layer); err != nil {
			return err
		}
	}
	monitoring.Logf("stepmap: persisted run %s", run.RunID)
	return nil
}

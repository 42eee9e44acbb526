package monitor

import (
	"fmt"
	"net/http"

	"github.com/overland-data/terrain.report/internal/gridmap"
	"github.com/overland-data/terrain.report/internal/httputil"
	"github.com/overland-data/terrain.report/internal/monitoring"
	"github.com/overland-data/terrain.report/internal/storage/sqlite"
)

// WebServer serves an estimated grid for inspection: heatmaps per layer,
// layer statistics, and the persisted run history when a store is attached.
type WebServer struct {
	grid  *gridmap.GridMap
	store *sqlite.Store // optional
	mux   *http.ServeMux
}

// NewWebServer builds a monitor for an estimated grid. store may be nil.
func NewWebServer(grid *gridmap.GridMap, store *sqlite.Store) *WebServer {
	ws := &WebServer{grid: grid, store: store, mux: http.NewServeMux()}
	ws.mux.HandleFunc("/", ws.handleIndex)
	ws.mux.HandleFunc("/heatmap", ws.handleHeatmap)
	ws.mux.HandleFunc("/api/layers", ws.handleLayers)
	ws.mux.HandleFunc("/api/stats", ws.handleStats)
	ws.mux.HandleFunc("/api/runs", ws.handleRuns)
	return ws
}

func (ws *WebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks serving the monitor on addr.
func (ws *WebServer) ListenAndServe(addr string) error {
	monitoring.Logf("monitor: serving on %s", addr)
	return http.ListenAndServe(addr, ws)
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><h1>terrain.report monitor</h1><ul>")
	for _, layer := range ws.grid.Layers() {
		fmt.Fprintf(w, `<li><a href="/heatmap?layer=%s">heatmap: %s</a></li>`, layer, layer)
	}
	fmt.Fprintf(w, `<li><a href="/api/stats">layer stats (JSON)</a></li>`)
	if ws.store != nil {
		fmt.Fprintf(w, `<li><a href="/api/runs">run history (JSON)</a></li>`)
	}
	fmt.Fprintf(w, "</ul></body></html>")
}

func (ws *WebServer) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	layer := r.URL.Query().Get("layer")
	if layer == "" {
		httputil.BadRequest(w, "layer query parameter is required")
		return
	}
	if !ws.grid.HasLayer(layer) {
		httputil.NotFound(w, fmt.Sprintf("no layer %q", layer))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderLayerHTML(ws.grid, layer, "Terrain layer: "+layer, w); err != nil {
		monitoring.Logf("monitor: render heatmap: %v", err)
	}
}

func (ws *WebServer) handleLayers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, ws.grid.Layers())
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := make([]gridmap.LayerStats, 0, len(ws.grid.Layers()))
	for _, layer := range ws.grid.Layers() {
		s, err := ws.grid.Stats(layer)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		stats = append(stats, s)
	}
	httputil.WriteJSONOK(w, stats)
}

func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.NotFound(w, "no run store attached")
		return
	}
	runs, err := ws.store.ListRuns(50)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}

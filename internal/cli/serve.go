package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/schematic"
	"github.com/matzehuels/pampasroute/pkg/view"
)

// serveCommand creates the HTTP preview command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a preview of both views over HTTP",
		Long: `Serve drives one view controller over HTTP:

  GET  /api/places       places table
  POST /api/route        {"inicio": ..., "destino": ...}
  POST /api/view         {"mode": "schematic" | "interactive"}
  GET  /api/state        current render state
  GET  /api/stats        event counters
  GET  /schematic.png    schematic view
  GET  /schematic.svg    schematic view as SVG
  GET  /overlay.geojson  map overlay`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Serve.Addr
			}
			return runServer(ctx, addr, newPreview(a), c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")
	return cmd
}

func runServer(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	printSuccess("Serving on http://%s", addr)
	printNextStep("Compute a route", `curl -d '{"inicio":"...","destino":"..."}' http://`+addr+"/api/route")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// httpUI - view.UI recording the latest presentation state
// =============================================================================

type noticeJSON struct {
	Kind    view.Notice `json:"kind"`
	Message string      `json:"message"`
}

// httpUI keeps what a browser page would show, for /api/state.
type httpUI struct {
	mu     sync.Mutex
	title  string
	busy   string
	notice *noticeJSON
}

var _ view.UI = (*httpUI)(nil)

func (u *httpUI) ShowView(m view.Mode, title string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.title = title
}

func (u *httpUI) SetBusy(busy bool, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.busy = ""
	if busy {
		u.busy = msg
	}
}

func (u *httpUI) ShowResult(r *route.Result) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notice = nil
}

func (u *httpUI) Notify(n view.Notice, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notice = &noticeJSON{Kind: n, Message: msg}
}

func (u *httpUI) snapshot() (title, busy string, notice *noticeJSON) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.title, u.busy, u.notice
}

// =============================================================================
// preview - chi handlers
// =============================================================================

type preview struct {
	app    *app
	ctrl   *view.Controller
	ui     *httpUI
	raster *schematic.Raster
	logger *log.Logger
}

// newPreview wires a controller to an HTTP router.
func newPreview(a *app) http.Handler {
	p := &preview{
		app:    a,
		ui:     &httpUI{title: view.Title(view.ModeSchematic)},
		raster: schematic.NewRaster(a.cfg.Canvas.Width, a.cfg.Canvas.Height),
		logger: a.logger,
	}
	p.ctrl = a.controller(p.ui, p.raster)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(p.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/places", p.places)
		r.Post("/route", p.computeRoute)
		r.Post("/view", p.selectView)
		r.Get("/state", p.state)
		r.Get("/stats", p.stats)
	})
	r.Get("/schematic.png", p.schematicPNG)
	r.Get("/schematic.svg", p.schematicSVG)
	r.Get("/overlay.geojson", p.overlayGeoJSON)
	return r
}

func (p *preview) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		p.logger.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type placeJSON struct {
	Name string  `json:"nombre"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (p *preview) places(w http.ResponseWriter, r *http.Request) {
	places := p.app.table.Places()
	out := make([]placeJSON, len(places))
	for i, pl := range places {
		out[i] = placeJSON{Name: pl.Name, X: pl.Pos.X, Y: pl.Pos.Y, Lat: pl.Geo.Lat, Lng: pl.Geo.Lng}
	}
	writeJSON(w, http.StatusOK, out)
}

func (p *preview) computeRoute(w http.ResponseWriter, r *http.Request) {
	var req route.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := p.ctrl.Compute(r.Context(), req.Start, req.Destination)
	switch {
	case err == nil:
	case stderrors.Is(err, route.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no route found")
		return
	case errors.Is(err, errors.ErrCodeInvalidInput):
		writeError(w, http.StatusBadRequest, errors.UserMessage(err))
		return
	case errors.Is(err, errors.ErrCodeTimeout):
		writeError(w, http.StatusGatewayTimeout, errors.UserMessage(err))
		return
	default:
		writeError(w, http.StatusBadGateway, errors.UserMessage(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := route.EncodeResult(w, res); err != nil {
		p.logger.Warn("encode result", "err", err)
	}
}

func (p *preview) selectView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := view.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.UserMessage(err))
		return
	}
	if err := p.ctrl.Select(r.Context(), mode); err != nil {
		writeError(w, http.StatusBadGateway, errors.UserMessage(err))
		return
	}
	p.state(w, r)
}

type mapJSON struct {
	Markers  int  `json:"markers"`
	Lines    int  `json:"connections"`
	HasRoute bool `json:"route"`
}

type stateJSON struct {
	Mode   view.Mode   `json:"mode"`
	Title  string      `json:"title"`
	Start  string      `json:"inicio,omitempty"`
	End    string      `json:"destino,omitempty"`
	Stops  []string    `json:"ruta,omitempty"`
	Cost   float64     `json:"costo,omitempty"`
	Busy   string      `json:"busy,omitempty"`
	Notice *noticeJSON `json:"notice,omitempty"`
	Map    *mapJSON    `json:"map,omitempty"`
}

func (p *preview) state(w http.ResponseWriter, r *http.Request) {
	st := p.ctrl.State()
	title, busy, notice := p.ui.snapshot()
	out := stateJSON{Mode: st.Mode, Title: title, Start: st.Start, End: st.End, Busy: busy, Notice: notice}
	if st.Result != nil {
		out.Cost = st.Result.Cost
		for _, s := range st.Result.Stops {
			out.Stops = append(out.Stops, s.Place)
		}
	}
	if st.Scene != nil {
		markers, lines, hasRoute := st.Scene.Len()
		out.Map = &mapJSON{Markers: markers, Lines: lines, HasRoute: hasRoute}
	}
	writeJSON(w, http.StatusOK, out)
}

func (p *preview) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.app.stats.Snapshot())
}

func (p *preview) schematicPNG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	err := p.ctrl.Export(func(schematic.Surface) error { return p.raster.EncodePNG(w) })
	if err != nil {
		p.logger.Warn("encode schematic", "err", err)
	}
}

func (p *preview) schematicSVG(w http.ResponseWriter, r *http.Request) {
	st := p.ctrl.State()
	svg := schematic.NewSVG(float64(p.app.cfg.Canvas.Width), float64(p.app.cfg.Canvas.Height))
	p.app.renderer().Render(svg, st.Result, st.Start, st.End)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg.Bytes())
}

func (p *preview) overlayGeoJSON(w http.ResponseWriter, r *http.Request) {
	scene := p.ctrl.State().Scene
	if scene == nil {
		writeError(w, http.StatusNotFound, "the map has not been opened; POST /api/view first")
		return
	}
	m, ok := scene.Map().(*overlay.MemoryMap)
	if !ok {
		writeError(w, http.StatusNotImplemented, "map cannot be exported")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(m.FeatureCollection()); err != nil {
		p.logger.Warn("encode overlay", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

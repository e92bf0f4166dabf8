package view

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/observability"
	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/schematic"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

// DefaultMountDelay is how long the map is given to lay itself out after
// being shown before the overlay is drawn on it.
const DefaultMountDelay = 100 * time.Millisecond

// ComputingMessage is shown while the backend computes a route.
const ComputingMessage = "Computing route..."

// Options configures a Controller. Zero fields take defaults.
type Options struct {
	Renderer   *schematic.Renderer
	Surface    schematic.Surface // defaults to a 900x600 raster
	Provider   overlay.Provider  // defaults to an in-memory map
	Router     streetroute.Router
	Computer   Computer
	UI         UI // defaults to LogUI
	Logger     *log.Logger
	Center     route.LatLng
	Zoom       int
	MountDelay time.Duration
	Marks      *overlay.Marks
	Mode       streetroute.TravelMode
}

// Controller owns the render state and keeps the active view in sync with
// it. It is safe for concurrent use.
type Controller struct {
	renderer   *schematic.Renderer
	surface    schematic.Surface
	provider   overlay.Provider
	router     streetroute.Router
	computer   Computer
	ui         UI
	logger     *log.Logger
	center     route.LatLng
	zoom       int
	mountDelay time.Duration
	marks      overlay.Marks
	travel     streetroute.TravelMode

	mu      sync.Mutex
	state   RenderState
	manager *overlay.Manager
	mount   *mount
	task    *streetroute.Task
}

// mount is a deferred overlay render.
type mount struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func (m *mount) finish() { m.once.Do(func() { close(m.done) }) }

// NewController creates a controller in schematic mode with no result.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Renderer == nil {
		opts.Renderer = schematic.NewRenderer(nil, opts.Logger)
	}
	if opts.Surface == nil {
		opts.Surface = schematic.NewRaster(900, 600)
	}
	if opts.Provider == nil {
		opts.Provider = &overlay.MemoryProvider{}
	}
	if opts.Router == nil {
		opts.Router = streetroute.Offline{}
	}
	if opts.UI == nil {
		opts.UI = LogUI{Logger: opts.Logger}
	}
	if opts.Center == (route.LatLng{}) {
		opts.Center = overlay.DefaultCenter
	}
	if opts.Zoom == 0 {
		opts.Zoom = overlay.DefaultZoom
	}
	if opts.MountDelay <= 0 {
		opts.MountDelay = DefaultMountDelay
	}
	marks := overlay.DefaultMarks
	if opts.Marks != nil {
		marks = *opts.Marks
	}
	c := &Controller{
		renderer:   opts.Renderer,
		surface:    opts.Surface,
		provider:   opts.Provider,
		router:     opts.Router,
		computer:   opts.Computer,
		ui:         opts.UI,
		logger:     opts.Logger,
		center:     opts.Center,
		zoom:       opts.Zoom,
		mountDelay: opts.MountDelay,
		marks:      marks,
		travel:     opts.Mode,
		state:      RenderState{Mode: ModeSchematic},
	}
	c.renderSchematic(context.Background())
	return c
}

// State returns a snapshot of the render state.
func (c *Controller) State() RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Surface returns the schematic surface. Callers must not draw on it while
// the controller may repaint it; use Export for concurrent access.
func (c *Controller) Surface() schematic.Surface { return c.surface }

// Export calls fn with the schematic surface while no repaint can run.
func (c *Controller) Export(fn func(schematic.Surface) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.surface)
}

// Select activates mode and draws it from the current state.
//
// The interactive view opens the map on first use only. If a result is
// stored, its overlay is drawn after the mount delay.
func (c *Controller) Select(ctx context.Context, mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Mode = mode
	c.ui.ShowView(mode, Title(mode))

	if mode == ModeSchematic {
		c.cancelMount()
		c.renderSchematic(ctx)
		return nil
	}

	if err := c.openMap(ctx); err != nil {
		c.ui.Notify(NoticeFailure, "The map could not be loaded.")
		return err
	}
	if c.state.Result != nil {
		c.scheduleOverlay(ctx)
	}
	return nil
}

// SetResult stores r and repaints the active view only.
func (c *Controller) SetResult(ctx context.Context, r *route.Result, start, end string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Result, c.state.Start, c.state.End = r, start, end
	switch {
	case c.state.Mode == ModeSchematic:
		c.renderSchematic(ctx)
	case c.manager != nil:
		c.cancelMount()
		c.renderOverlay(ctx)
	}
}

// Compute asks the backend for a route and, on success, shows and stores
// it. The returned result is the one this call produced, even when another
// Compute has since replaced the stored one. On any failure the stored
// result is left untouched and the user is notified.
func (c *Controller) Compute(ctx context.Context, start, end string) (*route.Result, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		c.ui.Notify(NoticeInvalidInput, "Please select a start and a destination.")
		return nil, errors.New(errors.ErrCodeInvalidInput, "select a start and a destination")
	}
	if c.computer == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no route backend configured")
	}

	c.ui.SetBusy(true, ComputingMessage)
	res, err := c.computer.Compute(ctx, start, end)
	c.ui.SetBusy(false, "")

	if err != nil {
		switch {
		case stderrors.Is(err, route.ErrNoRoute):
			c.ui.Notify(NoticeNoRoute, "No route found between the selected places.")
		case errors.Is(err, errors.ErrCodeInvalidInput):
			c.ui.Notify(NoticeInvalidInput, errors.UserMessage(err))
		default:
			c.ui.Notify(NoticeFailure, "Error connecting to the server.")
		}
		c.logger.Debug("compute failed", "start", start, "destination", end, "err", err)
		return nil, err
	}

	c.ui.ShowResult(res)
	c.SetResult(ctx, res, start, end)
	return res, nil
}

// Wait blocks until the pending overlay render, and the street route
// resolution it started, have completed.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	m := c.mount
	c.mu.Unlock()

	if m != nil {
		select {
		case <-m.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	task := c.task
	c.mu.Unlock()
	if task == nil {
		return nil
	}
	_, err := task.Wait(ctx)
	return err
}

func (c *Controller) renderSchematic(ctx context.Context) {
	began := time.Now()
	sum := c.renderer.Render(c.surface, c.state.Result, c.state.Start, c.state.End)
	observability.Route().OnRender(ctx, "schematic", sum.Nodes, time.Since(began))
}

// openMap opens the map once. Later calls are no-ops.
func (c *Controller) openMap(ctx context.Context) error {
	if c.manager != nil {
		return nil
	}
	m, err := c.provider.Open(ctx, c.center, c.zoom)
	if err != nil {
		return errors.Wrap(errors.ErrCodeProvider, err, "open map")
	}
	scene := overlay.NewScene(m)
	c.manager = overlay.NewManager(scene, c.router, c.ui, c.logger)
	c.manager.Marks = c.marks
	if c.travel != "" {
		c.manager.Resolver.Mode = c.travel
	}
	c.state.Scene = scene
	c.logger.Debug("map opened", "lat", c.center.Lat, "lng", c.center.Lng, "zoom", c.zoom)
	return nil
}

// scheduleOverlay draws the overlay after the mount delay, replacing any
// render already scheduled.
func (c *Controller) scheduleOverlay(ctx context.Context) {
	c.cancelMount()
	m := &mount{done: make(chan struct{})}
	m.timer = time.AfterFunc(c.mountDelay, func() {
		defer m.finish()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.mount != m {
			return
		}
		c.mount = nil
		if c.state.Mode == ModeInteractive {
			c.renderOverlay(ctx)
		}
	})
	c.mount = m
}

func (c *Controller) cancelMount() {
	if c.mount == nil {
		return
	}
	if c.mount.timer.Stop() {
		c.mount.finish()
	}
	c.mount = nil
}

// renderOverlay draws the overlay. The resolution it starts outlives ctx,
// which is usually scoped to a single request or key press.
func (c *Controller) renderOverlay(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	c.task = c.manager.Render(ctx, c.state.Result, c.state.Start, c.state.End)
}

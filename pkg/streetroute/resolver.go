package streetroute

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pampasroute/pkg/observability"
	"github.com/matzehuels/pampasroute/pkg/route"
)

// Outcome is the single result of a resolution.
type Outcome struct {
	Token      uint64
	Directions *Directions // provider path; nil on fallback
	Fallback   bool        // the straight-line path was drawn
	Superseded bool        // a newer resolution started; nothing was drawn
	Err        error       // router error that caused the fallback, or ctx error
}

// Task is a pending resolution.
type Task struct {
	done chan struct{}
	out  Outcome
}

func newTask() *Task { return &Task{done: make(chan struct{})} }

func (t *Task) finish(o Outcome) {
	t.out = o
	close(t.done)
}

// Done is closed once the outcome has been applied or dropped.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Resolver resolves street routes and draws them on a Canvas.
type Resolver struct {
	Router    Router
	Canvas    Canvas
	Indicator Indicator // may be nil
	Logger    *log.Logger
	Mode      TravelMode

	seq atomic.Uint64
	mu  sync.Mutex // serializes completions
}

// NewResolver creates a resolver in driving mode.
func NewResolver(router Router, canvas Canvas, ind Indicator, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		Router:    router,
		Canvas:    canvas,
		Indicator: ind,
		Logger:    logger,
		Mode:      ModeDriving,
	}
}

// Resolve starts a resolution for stops and returns its task. Fewer than
// two stops draw nothing and return nil.
//
// The request runs on its own goroutine. Cancelling ctx abandons the
// request; nothing is drawn for it.
func (r *Resolver) Resolve(ctx context.Context, stops []route.Stop) *Task {
	if len(stops) < 2 {
		return nil
	}
	stops = append([]route.Stop(nil), stops...)
	token := r.seq.Add(1)
	req := BuildRequest(stops, r.mode())
	task := newTask()

	r.setBusy(true, BusyMessage)
	go r.run(ctx, token, req, stops, task)
	return task
}

// Invalidate supersedes every pending resolution without starting a new
// one, and clears the busy indicator.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq.Add(1)
	r.setBusy(false, "")
}

// Latest returns the token of the most recently started resolution.
func (r *Resolver) Latest() uint64 { return r.seq.Load() }

func (r *Resolver) run(ctx context.Context, token uint64, req Request, stops []route.Stop, task *Task) {
	start := time.Now()

	var (
		dirs *Directions
		err  error
	)
	if len(req.Waypoints) > MaxWaypoints {
		err = ErrTooManyWaypoints
	} else {
		dirs, err = r.Router.Route(ctx, req)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := Outcome{Token: token}
	switch {
	case token != r.seq.Load():
		out.Superseded = true
		out.Err = err
		r.Logger.Debug("dropped superseded route", "token", token, "latest", r.seq.Load())
	case ctx.Err() != nil:
		out.Err = ctx.Err()
		r.setBusy(false, "")
	case err != nil:
		out.Fallback = true
		out.Err = err
		r.Canvas.ReplaceRoute(StraightPath(stops), FallbackStyle)
		r.Canvas.FitBounds(route.BoundOf(stopCoords(stops)))
		r.setBusy(false, "")
		r.Logger.Warn("street routing failed, drawing straight route", "stops", len(stops), "err", err)
	default:
		out.Directions = dirs
		r.Canvas.ReplaceRoute(dirs.Path, RouteStyle)
		r.setBusy(false, "")
		r.Logger.Debug("street route drawn",
			"stops", len(stops),
			"points", len(dirs.Path),
			"meters", dirs.Distance,
			"duration", dirs.Duration)
	}

	if !out.Superseded {
		observability.Route().OnResolve(ctx, len(req.Waypoints), out.Fallback, time.Since(start), out.Err)
	}
	task.finish(out)
}

func (r *Resolver) mode() TravelMode {
	if r.Mode == "" {
		return ModeDriving
	}
	return r.Mode
}

func (r *Resolver) setBusy(busy bool, msg string) {
	if r.Indicator != nil {
		r.Indicator.SetBusy(busy, msg)
	}
}

func stopCoords(stops []route.Stop) []route.LatLng {
	coords := make([]route.LatLng, len(stops))
	for i, s := range stops {
		coords[i] = s.Geo
	}
	return coords
}

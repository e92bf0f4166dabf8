package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Stats implements every hook interface by counting events and, when a
// logger is set, logging each one at debug level.
type Stats struct {
	logger *log.Logger

	mu       sync.Mutex
	snapshot Snapshot
}

// Snapshot is a copy of the counters of a [Stats].
type Snapshot struct {
	Computes      int            `json:"computes"`
	ComputeErrors int            `json:"compute_errors"`
	Renders       map[string]int `json:"renders"`
	Resolutions   int            `json:"resolutions"`
	Fallbacks     int            `json:"fallbacks"`
	CacheHits     int            `json:"cache_hits"`
	CacheMisses   int            `json:"cache_misses"`
	CacheWrites   int            `json:"cache_writes"`
	Requests      int            `json:"requests"`
	RequestErrors int            `json:"request_errors"`
}

var (
	_ RouteHooks = (*Stats)(nil)
	_ CacheHooks = (*Stats)(nil)
	_ HTTPHooks  = (*Stats)(nil)
)

// NewStats creates zeroed counters. logger may be nil.
func NewStats(logger *log.Logger) *Stats {
	return &Stats{logger: logger, snapshot: Snapshot{Renders: map[string]int{}}}
}

// Install registers s for route, cache and HTTP events.
func Install(s *Stats) {
	SetRouteHooks(s)
	SetCacheHooks(s)
	SetHTTPHooks(s)
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snapshot
	out.Renders = make(map[string]int, len(s.snapshot.Renders))
	for k, v := range s.snapshot.Renders {
		out.Renders[k] = v
	}
	return out
}

func (s *Stats) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot)
}

func (s *Stats) debug(msg string, keyvals ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, keyvals...)
	}
}

func (s *Stats) OnComputeStart(ctx context.Context, start, end string) {}

func (s *Stats) OnComputeComplete(ctx context.Context, start, end string, stops int, d time.Duration, err error) {
	s.update(func(n *Snapshot) {
		n.Computes++
		if err != nil {
			n.ComputeErrors++
		}
	})
	s.debug("compute", "start", start, "destination", end, "stops", stops, "elapsed", d, "err", err)
}

func (s *Stats) OnRender(ctx context.Context, surface string, nodes int, d time.Duration) {
	s.update(func(n *Snapshot) { n.Renders[surface]++ })
	s.debug("render", "surface", surface, "nodes", nodes, "elapsed", d)
}

func (s *Stats) OnResolve(ctx context.Context, waypoints int, fallback bool, d time.Duration, err error) {
	s.update(func(n *Snapshot) {
		n.Resolutions++
		if fallback {
			n.Fallbacks++
		}
	})
	s.debug("street route", "waypoints", waypoints, "fallback", fallback, "elapsed", d, "err", err)
}

func (s *Stats) OnCacheHit(ctx context.Context, keyType string) {
	s.update(func(n *Snapshot) { n.CacheHits++ })
}

func (s *Stats) OnCacheMiss(ctx context.Context, keyType string) {
	s.update(func(n *Snapshot) { n.CacheMisses++ })
}

func (s *Stats) OnCacheSet(ctx context.Context, keyType string, size int) {
	s.update(func(n *Snapshot) { n.CacheWrites++ })
	s.debug("cache write", "type", keyType, "bytes", size)
}

func (s *Stats) OnRequest(ctx context.Context, method, host, path string) {
	s.update(func(n *Snapshot) { n.Requests++ })
}

func (s *Stats) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	s.debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (s *Stats) OnError(ctx context.Context, method, host, path string, err error) {
	s.update(func(n *Snapshot) { n.RequestErrors++ })
	s.debug("http error", "method", method, "host", host, "path", path, "err", err)
}

// Package cache provides byte-level caching for responses from the external
// services a route view depends on: the path-finding backend and the street
// routing service.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for multi-instance serve deployments
//   - [NullCache]: disables caching
//
// # Keys
//
// Street route keys are produced by a [Keyer]. [NewScopedKeyer] prefixes
// every key, which lets several deployments share one Redis database.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/pampasroute/pkg/observability"
)

// Cache stores opaque byte values with an optional TTL.
// A zero TTL means the entry never expires.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrUnavailable marks failures of a remote cache backend. Callers treat
// them as misses.
var ErrUnavailable = errors.New("cache unavailable")

// Keyer generates street route cache keys.
type Keyer interface {
	// DirectionsKey returns the key of the route through coords, in
	// "lng,lat" form, under a routing profile. stopovers marks which
	// coordinates are stops rather than via points.
	DirectionsKey(profile string, coords []string, stopovers []bool) string
}

// DefaultKeyer hashes the waypoints under a "directions:<profile>" prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DirectionsKey implements Keyer.
func (DefaultKeyer) DirectionsKey(profile string, coords []string, stopovers []bool) string {
	return hashKey("directions:"+profile, strings.Join(coords, ";"), stopovers)
}

// Instrumented reports hits, misses and writes of c to the registered
// observability cache hooks under keyType.
func Instrumented(c Cache, keyType string) Cache {
	return &instrumented{Cache: c, keyType: keyType}
}

type instrumented struct {
	Cache
	keyType string
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, c.keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, c.keyType)
	}
	return data, ok, nil
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	return nil
}

// Open creates the cache backend named by kind: "file", "redis" or "none".
func Open(ctx context.Context, kind, dir string, redisCfg RedisConfig) (Cache, error) {
	switch kind {
	case "", "file":
		return NewFileCache(dir)
	case "redis":
		return NewRedisCache(ctx, redisCfg)
	case "none", "null":
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}

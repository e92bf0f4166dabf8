// Package config loads the pampasroute configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/pampasroute/config.toml
// unless --config points elsewhere. Every key is optional; missing keys keep
// the values of [Default]. Command-line flags are applied on top by the CLI.
//
//	[backend]
//	url = "http://localhost:5000"
//	timeout = "15s"
//
//	[routing]
//	provider = "osrm"        # or "offline"
//	url = "https://router.project-osrm.org"
//	mode = "driving"
//	ttl = "168h"
//
//	[cache]
//	kind = "file"            # file, redis or none
//	prefix = "pampas:prod:"  # shared backends only
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[map]
//	center = { lat = -12.3958, lng = -74.8708 }
//	zoom = 13
//	mount_delay = "100ms"
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pampasroute/pkg/cache"
	"github.com/matzehuels/pampasroute/pkg/compute"
	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
	"github.com/matzehuels/pampasroute/pkg/view"
)

const appName = "pampasroute"

// Routing providers.
const (
	ProviderOSRM    = "osrm"
	ProviderOffline = "offline"
)

// Duration is a time.Duration written as a Go duration string ("100ms").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Backend struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	Retries int      `toml:"retries"`
}

type Routing struct {
	Provider string   `toml:"provider"`
	URL      string   `toml:"url"`
	Mode     string   `toml:"mode"`
	TTL      Duration `toml:"ttl"`
}

type Cache struct {
	Kind string `toml:"kind"`
	Dir  string `toml:"dir"`
	// Prefix scopes street route keys, for deployments sharing one backend.
	Prefix string            `toml:"prefix"`
	Redis  cache.RedisConfig `toml:"redis"`
}

type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Map struct {
	Center     route.LatLng `toml:"center"`
	Zoom       int          `toml:"zoom"`
	MountDelay Duration     `toml:"mount_delay"`
}

// Marks are the endpoint labels of both views.
type Marks struct {
	SchematicStart string `toml:"schematic_start"`
	SchematicEnd   string `toml:"schematic_end"`
	MapStart       string `toml:"map_start"`
	MapEnd         string `toml:"map_end"`
}

type Serve struct {
	Addr string `toml:"addr"`
}

// Config is the complete configuration.
type Config struct {
	Backend Backend `toml:"backend"`
	Routing Routing `toml:"routing"`
	Cache   Cache   `toml:"cache"`
	Canvas  Canvas  `toml:"canvas"`
	Map     Map     `toml:"map"`
	Marks   Marks   `toml:"marks"`
	Serve   Serve   `toml:"serve"`
	// Places is an optional path to a places table replacing the built-in one.
	Places string `toml:"places"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: Backend{URL: compute.DefaultBaseURL, Timeout: Duration(15 * time.Second), Retries: 3},
		Routing: Routing{
			Provider: ProviderOSRM,
			URL:      streetroute.DefaultOSRMURL,
			Mode:     string(streetroute.ModeDriving),
			TTL:      Duration(streetroute.DefaultOSRMTTL),
		},
		Cache:  Cache{Kind: "file", Dir: cache.DefaultDir(), Redis: cache.RedisConfig{Addr: "localhost:6379"}},
		Canvas: Canvas{Width: 900, Height: 600},
		Map: Map{
			Center:     overlay.DefaultCenter,
			Zoom:       overlay.DefaultZoom,
			MountDelay: Duration(view.DefaultMountDelay),
		},
		Marks: Marks{
			SchematicStart: "►",
			SchematicEnd:   "■",
			MapStart:       overlay.DefaultMarks.Start,
			MapEnd:         overlay.DefaultMarks.End,
		},
		Serve: Serve{Addr: "localhost:8080"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

// Load reads the file at path over Default. An empty path reads the default
// location, where a missing file is not an error. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := cfg.decode(string(data)); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes a config document over Default.
func Parse(doc string) (Config, error) {
	cfg := Default()
	if err := cfg.decode(doc); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(doc string) error {
	md, err := toml.Decode(doc, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Routing.Provider {
	case ProviderOSRM, ProviderOffline:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "routing.provider: unknown provider %q", c.Routing.Provider)
	}
	switch streetroute.TravelMode(c.Routing.Mode) {
	case streetroute.ModeDriving, streetroute.ModeWalking, streetroute.ModeBicycling:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "routing.mode: unknown travel mode %q", c.Routing.Mode)
	}
	switch c.Cache.Kind {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.kind: unknown backend %q", c.Cache.Kind)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas: size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		return errors.New(errors.ErrCodeInvalidConfig, "map.zoom: %d out of range", c.Map.Zoom)
	}
	if c.Map.Center.Lat < -90 || c.Map.Center.Lat > 90 || c.Map.Center.Lng < -180 || c.Map.Center.Lng > 180 {
		return errors.New(errors.ErrCodeInvalidConfig, "map.center: invalid coordinate %v", c.Map.Center)
	}
	if c.Backend.Retries < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "backend.retries: must be at least 1")
	}
	return nil
}

// TravelMode returns the routing travel mode.
func (c Config) TravelMode() streetroute.TravelMode {
	return streetroute.TravelMode(c.Routing.Mode)
}

// Table loads the places table, falling back to the built-in one.
func (c Config) Table() (*route.Table, error) {
	if c.Places == "" {
		return route.DefaultTable(), nil
	}
	return route.LoadTable(c.Places)
}

// MapMarks returns the overlay endpoint labels.
func (c Config) MapMarks() overlay.Marks {
	return overlay.Marks{Start: c.Marks.MapStart, End: c.Marks.MapEnd}
}

// Package cli implements the pampasroute command-line interface.
package cli

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/internal/config"
	"github.com/matzehuels/pampasroute/pkg/buildinfo"
	"github.com/matzehuels/pampasroute/pkg/cache"
	"github.com/matzehuels/pampasroute/pkg/compute"
	"github.com/matzehuels/pampasroute/pkg/observability"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/schematic"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
	"github.com/matzehuels/pampasroute/pkg/view"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pampasroute"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	offline    bool
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pampasroute computes and draws tourist routes around Pampas",
		Long:         `Pampasroute asks a path-finding backend for the route between two tourist places of Pampas (Tayacaja, Huancavelica) and draws it as a schematic diagram or as an overlay on a street map.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.BoolVar(&c.offline, "offline", false, "draw straight routes instead of asking the street router")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the directions cache")

	// Register all subcommands
	root.AddCommand(c.computeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.placesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// App - wired components
// =============================================================================

// app is the set of components a command works with, built from the config
// file and the global flags.
type app struct {
	cfg      config.Config
	table    *route.Table
	cache    cache.Cache
	computer *compute.Client
	router   streetroute.Router
	stats    *observability.Stats
	logger   *log.Logger
}

// newApp loads the configuration and wires the components.
func (c *CLI) newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, table: table, logger: c.Logger}
	a.stats = observability.NewStats(c.Logger)
	observability.Install(a.stats)
	a.cache = c.openCache(ctx, cfg)
	a.computer = compute.NewClient(cfg.Backend.URL, c.Logger).
		WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout.Std()}).
		WithRetry(cfg.Backend.Retries, time.Second)

	if c.offline || cfg.Routing.Provider == config.ProviderOffline {
		a.router = streetroute.Offline{}
	} else {
		osrm := streetroute.NewOSRM(cfg.Routing.URL, "", a.cache, cfg.Routing.TTL.Std())
		if cfg.Cache.Prefix != "" {
			osrm.WithKeyer(cache.NewScopedKeyer(nil, cfg.Cache.Prefix))
		}
		a.router = osrm
	}

	c.Logger.Debug("configuration loaded",
		"backend", cfg.Backend.URL,
		"routing", cfg.Routing.Provider,
		"cache", cfg.Cache.Kind,
		"places", table.Len())
	return a, nil
}

// openCache opens the configured cache. A backend that cannot be opened is
// logged and replaced by a null cache; caching is never required.
func (c *CLI) openCache(ctx context.Context, cfg config.Config) cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	cc, err := cache.Open(ctx, cfg.Cache.Kind, cfg.Cache.Dir, cfg.Cache.Redis)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "kind", cfg.Cache.Kind, "err", err)
		return cache.NewNullCache()
	}
	return cc
}

// Close releases the cache.
func (a *app) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// renderer returns a schematic renderer for the app's table and marks.
func (a *app) renderer() *schematic.Renderer {
	r := schematic.NewRenderer(a.table, a.logger)
	r.Theme.StartMark = a.cfg.Marks.SchematicStart
	r.Theme.EndMark = a.cfg.Marks.SchematicEnd
	return r
}

// controller wires a view controller driving ui.
func (a *app) controller(ui view.UI, surface schematic.Surface) *view.Controller {
	if surface == nil {
		surface = schematic.NewRaster(a.cfg.Canvas.Width, a.cfg.Canvas.Height)
	}
	marks := a.cfg.MapMarks()
	return view.NewController(view.Options{
		Renderer:   a.renderer(),
		Surface:    surface,
		Router:     a.router,
		Computer:   a.computer,
		UI:         ui,
		Logger:     a.logger,
		Center:     a.cfg.Map.Center,
		Zoom:       a.cfg.Map.Zoom,
		MountDelay: a.cfg.Map.MountDelay.Std(),
		Marks:      &marks,
		Mode:       a.cfg.TravelMode(),
	})
}

// completePlaces offers place names for shell completion.
func (c *CLI) completePlaces(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) >= 2 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return table.Names(), cobra.ShellCompDirectiveNoFileComp
}

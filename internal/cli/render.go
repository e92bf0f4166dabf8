package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/schematic"
	"github.com/matzehuels/pampasroute/pkg/view"
)

// Output formats of the render command.
const (
	formatPNG     = "png"     // schematic raster
	formatSVG     = "svg"     // schematic vector
	formatDOT     = "dot"     // schematic as a Graphviz source
	formatNeato   = "neato"   // schematic laid out by Graphviz, SVG
	formatGeoJSON = "geojson" // map overlay
)

// validFormats maps each format to its file suffix.
var validFormats = map[string]string{
	formatPNG:     ".png",
	formatSVG:     ".svg",
	formatDOT:     ".dot",
	formatNeato:   ".neato.svg",
	formatGeoJSON: ".geojson",
}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string        // base output path
	input   string        // saved result instead of a backend call
	formats []string      // output formats
	timeout time.Duration // limit for the street route resolution
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{output: "route", timeout: 30 * time.Second}

	cmd := &cobra.Command{
		Use:   "render [start] [destination]",
		Short: "Render a route as schematic images or a map overlay",
		Long: `Render computes the route between two places (or reads a saved result
with --input) and writes it in every requested format:

  png, svg   schematic diagram
  dot        schematic as Graphviz source with pinned positions
  neato      schematic laid out by Graphviz, as SVG
  geojson    map overlay: markers, connections and the street route`,
		Args:              cobra.RangeArgs(0, 2),
		ValidArgsFunction: c.completePlaces,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "base output path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats: png (default), svg, dot, neato, geojson (comma-separated)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "read a saved result (compute --json) instead of calling the backend")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "limit for tracing the street route")

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["png"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatPNG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// validateFormats checks that all requested formats are known.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if _, ok := validFormats[f]; !ok {
			return fmt.Errorf("invalid format: %s (must be png, svg, dot, neato or geojson)", f)
		}
	}
	return nil
}

// basePath strips a known format suffix from output.
func basePath(output string) string {
	for _, suffix := range []string{".neato.svg", ".png", ".svg", ".dot", ".geojson"} {
		if strings.HasSuffix(output, suffix) {
			return strings.TrimSuffix(output, suffix)
		}
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, args []string, opts *renderOpts) error {
	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	raster := schematic.NewRaster(a.cfg.Canvas.Width, a.cfg.Canvas.Height)
	ctrl := a.controller(newTermUI(ctx, os.Stderr), raster)
	if err := loadResult(ctx, ctrl, opts.input, args); err != nil {
		return err
	}

	base := basePath(opts.output)
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	prog := newProgress(c.Logger)
	var written []string
	for _, format := range opts.formats {
		data, err := renderFormat(ctx, a, ctrl, raster, format, opts.timeout)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		path := base + validFormats[format]
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		written = append(written, path)
	}
	prog.done("rendered", "files", len(written))

	printSuccess("Rendered %d file(s)", len(written))
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// renderFormat produces one output from the controller's current state.
func renderFormat(ctx context.Context, a *app, ctrl *view.Controller, raster *schematic.Raster, format string, timeout time.Duration) ([]byte, error) {
	st := ctrl.State()
	switch format {
	case formatPNG:
		var buf bytes.Buffer
		err := ctrl.Export(func(schematic.Surface) error { return raster.EncodePNG(&buf) })
		return buf.Bytes(), err

	case formatSVG:
		svg := schematic.NewSVG(float64(a.cfg.Canvas.Width), float64(a.cfg.Canvas.Height))
		a.renderer().Render(svg, st.Result, st.Start, st.End)
		return svg.Bytes(), nil

	case formatDOT:
		return []byte(a.renderer().ToDOT(st.Result, st.Start, st.End)), nil

	case formatNeato:
		return schematic.RenderDOTSVG(ctx, a.renderer().ToDOT(st.Result, st.Start, st.End))

	case formatGeoJSON:
		return renderOverlay(ctx, ctrl, timeout)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// renderOverlay switches the controller to the map, waits for the street
// route and exports the map as GeoJSON.
func renderOverlay(ctx context.Context, ctrl *view.Controller, timeout time.Duration) ([]byte, error) {
	if err := ctrl.Select(ctx, view.ModeInteractive); err != nil {
		return nil, err
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ctrl.Wait(wctx); err != nil {
		return nil, fmt.Errorf("trace street route: %w", err)
	}

	scene := ctrl.State().Scene
	m, ok := scene.Map().(*overlay.MemoryMap)
	if !ok {
		return nil, fmt.Errorf("map %T cannot be exported", scene.Map())
	}
	return json.MarshalIndent(m.FeatureCollection(), "", "  ")
}

package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"png"}},
		{"svg", []string{"svg"}},
		{"png, SVG,geojson", []string{"png", "svg", "geojson"}},
		{"dot,,neato", []string{"dot", "neato"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := validateFormats([]string{"png", "svg", "dot", "neato", "geojson"}); err != nil {
		t.Errorf("valid formats rejected: %v", err)
	}
	if err := validateFormats([]string{"png", "pdf"}); err == nil {
		t.Error("pdf accepted")
	}
}

func TestBasePath(t *testing.T) {
	tests := map[string]string{
		"route":           "route",
		"route.png":       "route",
		"out/route.svg":   "out/route",
		"route.neato.svg": "route",
		"route.geojson":   "route",
		"route.tar.gz":    "route.tar.gz",
		"pampas.dot":      "pampas",
	}
	for in, want := range tests {
		if got := basePath(in); got != want {
			t.Errorf("basePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunRender(t *testing.T) {
	backend := newBackend(t)
	c := New(io.Discard, LogInfo)
	c.configPath = writeTestConfig(t, backend.URL)

	out := filepath.Join(t.TempDir(), "out", "route")
	opts := renderOpts{
		output:  out,
		formats: []string{formatPNG, formatSVG, formatDOT, formatGeoJSON},
		timeout: 5 * time.Second,
	}
	if err := c.runRender(t.Context(), []string{testStart, testEnd}, &opts); err != nil {
		t.Fatalf("runRender: %v", err)
	}

	for _, suffix := range []string{".png", ".svg", ".dot", ".geojson"} {
		if _, err := os.Stat(out + suffix); err != nil {
			t.Errorf("missing %s: %v", suffix, err)
		}
	}

	dot, err := os.ReadFile(out + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), testStart) {
		t.Error("DOT output does not name the start place")
	}

	data, err := os.ReadFile(out + ".geojson")
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) == 0 {
		t.Errorf("geojson = %s with %d features", fc.Type, len(fc.Features))
	}
}

func TestRunRenderFromInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "result.json")
	if err := os.WriteFile(input, []byte(backendResponse), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	// No backend is listening; --input must not need one.
	c.configPath = writeTestConfig(t, "http://127.0.0.1:1")

	out := filepath.Join(dir, "saved.png")
	opts := renderOpts{output: out, input: input, formats: []string{formatPNG}, timeout: time.Second}
	if err := c.runRender(t.Context(), nil, &opts); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Error("output is not a PNG")
	}
}

func TestRunRenderMissingInput(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.configPath = writeTestConfig(t, "http://127.0.0.1:1")

	opts := renderOpts{output: filepath.Join(t.TempDir(), "x"), input: "does-not-exist.json", formats: []string{formatPNG}}
	if err := c.runRender(t.Context(), nil, &opts); err == nil {
		t.Error("expected an error for a missing input file")
	}
}

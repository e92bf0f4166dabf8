package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pampasroute/internal/config"
	"github.com/matzehuels/pampasroute/pkg/cache"
	"github.com/matzehuels/pampasroute/pkg/compute"
	"github.com/matzehuels/pampasroute/pkg/observability"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

const (
	testStart = "Plaza de Acraquia"
	testEnd   = "Ciudad Universitaria-UNAT"
)

// backendResponse is a compute answer for testStart → testEnd.
const backendResponse = `{
  "success": true,
  "ruta": [
    {"orden": 1, "lugar": "Plaza de Acraquia", "tiempo_siguiente": 5},
    {"orden": 2, "lugar": "Ciudad Universitaria-UNAT"}
  ],
  "conexiones": [
    {"origen": "Plaza de Acraquia", "destino": "Ciudad Universitaria-UNAT",
     "origen_lat": -12.406661, "origen_lng": -74.901338,
     "destino_lat": -12.400426, "destino_lng": -74.890059}
  ],
  "todos_lugares": [
    {"nombre": "Plaza de Acraquia", "lat": -12.406661, "lng": -74.901338},
    {"nombre": "Ciudad Universitaria-UNAT", "lat": -12.400426, "lng": -74.890059}
  ],
  "costo": 5,
  "nodos": 2,
  "tiempo": 0.001
}`

// newBackend starts a compute backend that knows one route and answers
// everything else with success=false.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != compute.Path || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req route.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Start == testStart && req.Destination == testEnd {
			io.WriteString(w, backendResponse)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success": false, "error": "No se encontró ruta"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestApp wires an app against backendURL with street routing disabled.
func newTestApp(t *testing.T, backendURL string) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.URL = backendURL
	cfg.Routing.Provider = config.ProviderOffline
	cfg.Cache.Kind = "none"
	cfg.Map.MountDelay = config.Duration(0)

	logger := log.New(io.Discard)
	return &app{
		cfg:      cfg,
		table:    route.DefaultTable(),
		cache:    cache.NewNullCache(),
		computer: compute.NewClient(backendURL, logger),
		router:   streetroute.Offline{},
		stats:    observability.NewStats(nil),
		logger:   logger,
	}
}

// writeTestConfig writes a config file pointing at backendURL.
func writeTestConfig(t *testing.T, backendURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `[backend]
url = "` + backendURL + `"
retries = 1

[routing]
provider = "offline"

[cache]
kind = "none"

[map]
mount_delay = "1ms"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewApp(t *testing.T) {
	backend := newBackend(t)
	c := New(io.Discard, LogInfo)
	c.configPath = writeTestConfig(t, backend.URL)

	a, err := c.newApp(t.Context())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if _, ok := a.router.(streetroute.Offline); !ok {
		t.Errorf("router = %T, want streetroute.Offline", a.router)
	}
	if a.computer.BaseURL() != backend.URL {
		t.Errorf("backend = %q, want %q", a.computer.BaseURL(), backend.URL)
	}
	if a.table.Len() == 0 {
		t.Error("empty places table")
	}
	t.Cleanup(observability.Reset)
	if observability.Route() != observability.RouteHooks(a.stats) {
		t.Error("stats hooks not installed")
	}
}

func TestNewAppOfflineFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := "[cache]\nkind = \"file\"\ndir = \"" + filepath.ToSlash(filepath.Join(dir, "cache")) + "\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.configPath = path
	c.offline = true
	c.noCache = true

	a, err := c.newApp(t.Context())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()
	t.Cleanup(observability.Reset)

	if _, ok := a.router.(streetroute.Offline); !ok {
		t.Errorf("router = %T, want streetroute.Offline", a.router)
	}
	if _, ok := a.cache.(*cache.NullCache); !ok {
		t.Errorf("cache = %T, want *cache.NullCache", a.cache)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"compute", "render", "view", "serve", "places", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestCompletionShells(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for shell, gen := range completionShells {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			if err := gen(root, &buf); err != nil {
				t.Fatalf("generate: %v", err)
			}
			if !strings.Contains(buf.String(), "pampasroute") {
				t.Errorf("%s script does not mention pampasroute", shell)
			}
		})
	}
}

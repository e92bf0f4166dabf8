package route

import (
	_ "embed"
	"os"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pampasroute/pkg/errors"
)

//go:embed places.toml
var defaultTableTOML []byte

// Table is the static coordinate table: a fixed mapping from place name to
// its schematic and geographic coordinates. It is read-only once built and
// safe for concurrent use.
type Table struct {
	places map[string]Place
	order  []string
}

// tableFile is the TOML layout of a places table.
type tableFile struct {
	Place []struct {
		Name string  `toml:"name"`
		X    float64 `toml:"x"`
		Y    float64 `toml:"y"`
		Lat  float64 `toml:"lat"`
		Lng  float64 `toml:"lng"`
	} `toml:"place"`
}

// NewTable builds a table from places. Duplicate or invalid names are rejected.
func NewTable(places []Place) (*Table, error) {
	t := &Table{places: make(map[string]Place, len(places))}
	for _, p := range places {
		if err := errors.ValidatePlaceName(p.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "invalid place")
		}
		if _, dup := t.places[p.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidTable, "duplicate place %q", p.Name)
		}
		t.places[p.Name] = p
		t.order = append(t.order, p.Name)
	}
	return t, nil
}

// ParseTable decodes a TOML places table.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "decode places table")
	}
	places := make([]Place, len(f.Place))
	for i, p := range f.Place {
		places[i] = Place{
			Name: p.Name,
			Pos:  Point{X: p.X, Y: p.Y},
			Geo:  LatLng{Lat: p.Lat, Lng: p.Lng},
		}
	}
	return NewTable(places)
}

// LoadTable reads a TOML places table from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "places table %s", path)
	}
	if err != nil {
		return nil, err
	}
	return ParseTable(data)
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// DefaultTable returns the embedded table of the Pampas tourist network.
// The result is parsed once and shared.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		t, err := ParseTable(defaultTableTOML)
		if err != nil {
			panic(err) // embedded data is validated by tests
		}
		defaultTable = t
	})
	return defaultTable
}

// Coord returns the schematic coordinate of the named place.
// Missing entries report false; callers skip them.
func (t *Table) Coord(name string) (Point, bool) {
	if t == nil {
		return Point{}, false
	}
	p, ok := t.places[name]
	return p.Pos, ok
}

// Place returns the full table entry for name.
func (t *Table) Place(name string) (Place, bool) {
	if t == nil {
		return Place{}, false
	}
	p, ok := t.places[name]
	return p, ok
}

// Places returns the entries in table order.
func (t *Table) Places() []Place {
	if t == nil {
		return nil
	}
	out := make([]Place, len(t.order))
	for i, name := range t.order {
		out[i] = t.places[name]
	}
	return out
}

// Names returns the place names sorted alphabetically.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return slices.Sorted(slices.Values(t.order))
}

// Len returns the number of places in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

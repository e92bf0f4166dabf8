package route

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/matzehuels/pampasroute/pkg/errors"
)

// ErrNoRoute is returned when the backend answers success=false.
// Test with errors.Is; the returned error also carries errors.ErrCodeNoRoute.
var ErrNoRoute = stderrors.New("no route found")

// Request is the body of POST /calcular_ruta.
type Request struct {
	Start       string `json:"inicio"`
	Destination string `json:"destino"`
}

type wireStop struct {
	Order       int      `json:"orden"`
	Place       string   `json:"lugar"`
	NextMinutes *float64 `json:"tiempo_siguiente,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

type wireConnection struct {
	From    string  `json:"origen"`
	To      string  `json:"destino"`
	FromLat float64 `json:"origen_lat"`
	FromLng float64 `json:"origen_lng"`
	ToLat   float64 `json:"destino_lat"`
	ToLng   float64 `json:"destino_lng"`
}

type wirePlace struct {
	Name string  `json:"nombre"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type wireResponse struct {
	Success     bool             `json:"success"`
	Error       string           `json:"error,omitempty"`
	Stops       []wireStop       `json:"ruta,omitempty"`
	Connections []wireConnection `json:"conexiones,omitempty"`
	Places      []wirePlace      `json:"todos_lugares,omitempty"`
	Cost        float64          `json:"costo,omitempty"`
	Nodes       int              `json:"nodos,omitempty"`
	Seconds     float64          `json:"tiempo,omitempty"`
}

// DecodeResponse reads a compute response body.
//
// A body with success=false yields an error wrapping ErrNoRoute. A body that
// is not valid JSON yields an errors.ErrCodeInvalidResponse error. Stops that
// carry no coordinates take them from the matching todos_lugares entry.
func DecodeResponse(r io.Reader) (*Result, error) {
	var w wireResponse
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode compute response")
	}
	if !w.Success {
		msg := w.Error
		if msg == "" {
			msg = "backend reported no route"
		}
		return nil, errors.Wrap(errors.ErrCodeNoRoute, ErrNoRoute, "%s", msg)
	}
	return w.result()
}

func (w *wireResponse) result() (*Result, error) {
	geo := make(map[string]LatLng, len(w.Places))
	res := &Result{
		Places:         make([]Place, len(w.Places)),
		Connections:    make([]Connection, len(w.Connections)),
		Stops:          make([]Stop, len(w.Stops)),
		Cost:           w.Cost,
		NodesExplored:  w.Nodes,
		ComputeSeconds: w.Seconds,
	}

	for i, p := range w.Places {
		ll := LatLng{Lat: p.Lat, Lng: p.Lng}
		geo[p.Name] = ll
		res.Places[i] = Place{Name: p.Name, Geo: ll}
	}
	for i, c := range w.Connections {
		res.Connections[i] = Connection{
			From:    c.From,
			To:      c.To,
			FromGeo: LatLng{Lat: c.FromLat, Lng: c.FromLng},
			ToGeo:   LatLng{Lat: c.ToLat, Lng: c.ToLng},
		}
	}
	for i, s := range w.Stops {
		stop := Stop{Order: s.Order, Place: s.Place, NextMinutes: s.NextMinutes}
		switch {
		case s.Lat != nil && s.Lng != nil:
			stop.Geo = LatLng{Lat: *s.Lat, Lng: *s.Lng}
		default:
			ll, ok := geo[s.Place]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidResponse,
					"route stop %d (%q) has no coordinates", s.Order, s.Place)
			}
			stop.Geo = ll
		}
		res.Stops[i] = stop
	}
	return res, nil
}

// EncodeResult writes r in the compute response wire format with success=true.
// Stops always carry their coordinates.
func EncodeResult(w io.Writer, r *Result) error {
	out := wireResponse{
		Success:     true,
		Stops:       make([]wireStop, len(r.Stops)),
		Connections: make([]wireConnection, len(r.Connections)),
		Places:      make([]wirePlace, len(r.Places)),
		Cost:        r.Cost,
		Nodes:       r.NodesExplored,
		Seconds:     r.ComputeSeconds,
	}
	for i, s := range r.Stops {
		lat, lng := s.Geo.Lat, s.Geo.Lng
		out.Stops[i] = wireStop{Order: s.Order, Place: s.Place, NextMinutes: s.NextMinutes, Lat: &lat, Lng: &lng}
	}
	for i, c := range r.Connections {
		out.Connections[i] = wireConnection{
			From: c.From, To: c.To,
			FromLat: c.FromGeo.Lat, FromLng: c.FromGeo.Lng,
			ToLat: c.ToGeo.Lat, ToLng: c.ToGeo.Lng,
		}
	}
	for i, p := range r.Places {
		out.Places[i] = wirePlace{Name: p.Name, Lat: p.Geo.Lat, Lng: p.Geo.Lng}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

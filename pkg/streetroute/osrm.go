package streetroute

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/pampasroute/pkg/buildinfo"
	"github.com/matzehuels/pampasroute/pkg/cache"
	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/httputil"
)

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "https://router.project-osrm.org"

// DefaultOSRMTTL is how long OSRM answers are cached.
const DefaultOSRMTTL = 7 * 24 * time.Hour

// OSRM is a Router backed by the OSRM HTTP route service
// (GET /route/v1/{profile}/{lng,lat;...}).
type OSRM struct {
	base    string
	profile string
	http    *httputil.Client
	keyer   cache.Keyer
}

// NewOSRM creates an OSRM router. An empty profile selects the profile from
// the request's travel mode. c may be nil to disable caching.
func NewOSRM(baseURL, profile string, c cache.Cache, ttl time.Duration) *OSRM {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if c != nil {
		c = cache.Instrumented(c, "osrm")
	}
	return &OSRM{
		base:    strings.TrimRight(baseURL, "/"),
		profile: profile,
		http:    httputil.NewClient(c, "osrm", ttl, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		keyer:   cache.NewDefaultKeyer(),
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (o *OSRM) WithHTTPClient(h *http.Client) *OSRM {
	o.http.WithHTTPClient(h)
	return o
}

// WithRetry sets the retry policy for transient failures.
func (o *OSRM) WithRetry(attempts int, delay time.Duration) *OSRM {
	o.http.WithRetry(attempts, delay)
	return o
}

// WithKeyer sets the cache keyer, e.g. a cache.ScopedKeyer.
func (o *OSRM) WithKeyer(k cache.Keyer) *OSRM {
	o.keyer = k
	return o
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64         `json:"distance"`
	Duration float64         `json:"duration"`
	Geometry json.RawMessage `json:"geometry"`
}

// Route implements Router.
func (o *OSRM) Route(ctx context.Context, req Request) (*Directions, error) {
	if req.OptimizeWaypoints {
		return nil, errors.New(errors.ErrCodeUnsupported, "OSRM route service does not reorder waypoints")
	}
	profile, err := o.profileFor(req.Mode)
	if err != nil {
		return nil, err
	}

	coords, stopovers := requestCoords(req)
	u := o.URL(profile, coords, stopovers)
	key := o.keyer.DirectionsKey(profile, coords, stopovers)

	body, err := o.http.Cached(ctx, key, false, func() ([]byte, error) {
		data, err := o.http.Do(ctx, http.MethodGet, u, nil)
		// OSRM reports rejected queries as 400 with a JSON status body.
		var se *httputil.StatusError
		if stderrors.As(err, &se) && se.Code == http.StatusBadRequest {
			return nil, decodeStatus([]byte(se.Body))
		}
		if err != nil {
			return nil, err
		}
		if err := decodeStatus(data); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return decodeDirections(body)
}

// URL returns the route service URL for coords ("lng,lat" strings).
// Non-stopover coordinates are left out of the waypoints parameter.
func (o *OSRM) URL(profile string, coords []string, stopovers []bool) string {
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "false")

	var legs []string
	via := false
	for i, s := range stopovers {
		if s {
			legs = append(legs, strconv.Itoa(i))
		} else {
			via = true
		}
	}
	if via {
		q.Set("waypoints", strings.Join(legs, ";"))
	}
	return fmt.Sprintf("%s/route/v1/%s/%s?%s", o.base, profile, strings.Join(coords, ";"), q.Encode())
}

func (o *OSRM) profileFor(mode TravelMode) (string, error) {
	if o.profile != "" {
		return o.profile, nil
	}
	switch mode {
	case "", ModeDriving:
		return "driving", nil
	case ModeWalking:
		return "foot", nil
	case ModeBicycling:
		return "bike", nil
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "travel mode %q", mode)
	}
}

// requestCoords flattens a request into OSRM coordinate strings; origin
// and destination are always stopovers.
func requestCoords(req Request) ([]string, []bool) {
	coords := make([]string, 0, len(req.Waypoints)+2)
	stopovers := make([]bool, 0, len(req.Waypoints)+2)
	add := func(c [2]float64, stop bool) {
		coords = append(coords, strconv.FormatFloat(c[0], 'f', 6, 64)+","+strconv.FormatFloat(c[1], 'f', 6, 64))
		stopovers = append(stopovers, stop)
	}
	add(req.Origin.Point(), true)
	for _, w := range req.Waypoints {
		add(w.Location.Point(), w.Stopover)
	}
	add(req.Destination.Point(), true)
	return coords, stopovers
}

func decodeStatus(data []byte) error {
	var resp osrmResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode OSRM response")
	}
	if resp.Code != "Ok" {
		return &StatusError{Status: resp.Code, Message: resp.Message}
	}
	return nil
}

func decodeDirections(data []byte) (*Directions, error) {
	var resp osrmResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode OSRM response")
	}
	if len(resp.Routes) == 0 {
		return nil, &StatusError{Status: "NoRoute", Message: "no routes in response"}
	}
	r := resp.Routes[0]
	g, err := geojson.UnmarshalGeometry(r.Geometry)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode OSRM geometry")
	}
	ls, ok := g.Geometry().(orb.LineString)
	if !ok || len(ls) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidResponse, "OSRM geometry is %s, want LineString", g.Type)
	}
	return &Directions{
		Path:     ls,
		Distance: r.Distance,
		Duration: time.Duration(r.Duration * float64(time.Second)),
	}, nil
}

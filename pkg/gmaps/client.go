// Package gmaps wraps the Google Maps Distance Matrix, Directions and Places
// APIs for distance lookups, path drawing and stop crawling.
package gmaps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/transit"
)

// Mode is a travel mode.
type Mode = maps.Mode

const (
	Driving = maps.TravelModeDriving
	Walking = maps.TravelModeWalking
)

// ErrNoRoute is returned when the API answers but has no route between the
// points.
var ErrNoRoute = errors.New("no route")

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string // overrides the API host, used by tests
}

// Client talks to the Google Maps web services.
type Client struct {
	c *maps.Client
}

// NewClient creates a client. An API key is required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gmaps: missing API key")
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}
	c, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gmaps: %w", err)
	}
	return &Client{c: c}, nil
}

func latLngString(p geo.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// Travel binds the client to a travel mode. It implements geo.Measurer and
// serves as a path source for map rendering.
type Travel struct {
	c    *Client
	mode Mode
}

var _ geo.Measurer = (*Travel)(nil)

// Travel returns the client bound to mode.
func (c *Client) Travel(mode Mode) *Travel {
	return &Travel{c: c, mode: mode}
}

// Distance returns the travel distance in meters.
func (t *Travel) Distance(ctx context.Context, from, to geo.LatLng) (float64, error) {
	return t.c.Distance(ctx, from, to, t.mode)
}

// Path returns the travel path between two points.
func (t *Travel) Path(ctx context.Context, from, to geo.LatLng) ([]geo.LatLng, error) {
	return t.c.Path(ctx, from, to, t.mode)
}

// Distance returns the travel distance in meters between two points using
// the Distance Matrix API.
func (c *Client) Distance(ctx context.Context, from, to geo.LatLng, mode Mode) (float64, error) {
	resp, err := c.c.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{latLngString(from)},
		Destinations: []string{latLngString(to)},
		Mode:         mode,
		Units:        maps.UnitsMetric,
	})
	if err != nil {
		return 0, fmt.Errorf("distance matrix: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix: %w: empty response", ErrNoRoute)
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("distance matrix: %w: %s", ErrNoRoute, el.Status)
	}
	return float64(el.Distance.Meters), nil
}

// Path returns the decoded overview polyline of the first route between two
// points.
func (c *Client) Path(ctx context.Context, from, to geo.LatLng, mode Mode) ([]geo.LatLng, error) {
	routes, _, err := c.c.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLngString(from),
		Destination: latLngString(to),
		Mode:        mode,
	})
	if err != nil {
		return nil, fmt.Errorf("directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("directions: %w", ErrNoRoute)
	}
	points, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("directions: decode polyline: %w", err)
	}
	path := make([]geo.LatLng, len(points))
	for i, p := range points {
		path[i] = geo.LatLng{Lat: p.Lat, Lng: p.Lng}
	}
	return path, nil
}

// NearbySearch describes one Places nearby query.
type NearbySearch struct {
	Center  geo.LatLng
	Radius  uint   // meters
	Keyword string // e.g. "public transport"
	// Locality keeps only results whose vicinity or formatted address
	// contains it. Empty keeps everything.
	Locality string
}

func (s NearbySearch) accepts(r maps.PlacesSearchResult) bool {
	if s.Locality == "" {
		return true
	}
	return strings.Contains(r.Vicinity, s.Locality) ||
		strings.Contains(r.FormattedAddress, s.Locality)
}

// NearbyStops runs a single nearby search and returns the accepted places.
// Search results carry no plus code, so CompoundCode is left empty.
func (c *Client) NearbyStops(ctx context.Context, s NearbySearch) ([]transit.PlaceStop, error) {
	resp, err := c.c.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: s.Center.Lat, Lng: s.Center.Lng},
		Radius:   s.Radius,
		Keyword:  s.Keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	var stops []transit.PlaceStop
	for _, r := range resp.Results {
		if !s.accepts(r) {
			continue
		}
		stops = append(stops, transit.PlaceStop{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Lat:      r.Geometry.Location.Lat,
			Lon:      r.Geometry.Location.Lng,
			Vicinity: r.Vicinity,
		})
	}
	return stops, nil
}

// CrawlStops runs the search at every origin and merges the results,
// keeping the first place seen for each place ID. Failed searches are
// logged and skipped.
func (c *Client) CrawlStops(ctx context.Context, origins []geo.LatLng, s NearbySearch) ([]transit.PlaceStop, error) {
	seen := make(map[string]struct{})
	var stops []transit.PlaceStop
	for i, o := range origins {
		if err := ctx.Err(); err != nil {
			return stops, err
		}
		s.Center = o
		found, err := c.NearbyStops(ctx, s)
		if err != nil {
			log.Printf("Warning: search %d/%d at %s failed: %v", i+1, len(origins), latLngString(o), err)
			continue
		}
		for _, st := range found {
			if _, dup := seen[st.PlaceID]; dup {
				continue
			}
			seen[st.PlaceID] = struct{}{}
			stops = append(stops, st)
		}
		if (i+1)%50 == 0 {
			log.Printf("  searched %d/%d points, %d unique stops", i+1, len(origins), len(stops))
		}
	}
	return stops, nil
}

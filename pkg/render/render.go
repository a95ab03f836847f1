// Package render draws graphs on an interactive Leaflet map.
package render

import (
	"context"
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"log"
	"strings"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/graph"
)

//go:embed map.html.tmpl
var mapHTML string

var mapTemplate = template.Must(template.New("map").Parse(mapHTML))

// DefaultNodeRadius is the node circle radius in meters.
const DefaultNodeRadius = 300

const (
	routeColor = "blue"
	shiftColor = "red"
	nodeColor  = "red"
)

// Pather returns the travelled path between two points.
type Pather interface {
	Path(ctx context.Context, from, to geo.LatLng) ([]geo.LatLng, error)
}

// Options controls map rendering.
type Options struct {
	Title      string
	NodeRadius float64      // meters, DefaultNodeRadius when zero
	Outline    []geo.LatLng // optional area outline
	// RoutePather draws isRoute edges along real paths, ShiftPather does the
	// same for isRouteShift edges. Nil or failing lookups fall back to a
	// straight line.
	RoutePather Pather
	ShiftPather Pather
}

type point [2]float64

type mapNode struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type mapEdge struct {
	Path   []point `json:"path"`
	Color  string  `json:"color"`
	Weight int     `json:"weight"`
	Popup  string  `json:"popup"`
}

type mapData struct {
	Center  point     `json:"center"`
	Zoom    int       `json:"zoom"`
	Radius  float64   `json:"radius"`
	Color   string    `json:"color"`
	Nodes   []mapNode `json:"nodes"`
	Edges   []mapEdge `json:"edges"`
	Outline []point   `json:"outline"`
}

type page struct {
	Title string
	Data  mapData
}

func attrText(attrs graph.Attrs, key string) string {
	v, ok := attrs[key]
	if !ok {
		return "N/A"
	}
	return html.EscapeString(fmt.Sprint(v))
}

func nodePopup(n graph.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node: %s", html.EscapeString(n.ID))
	if n.Label != "" && n.Label != n.ID {
		fmt.Fprintf(&b, "<br>Name: %s", html.EscapeString(n.Label))
	}
	fmt.Fprintf(&b, "<br>Latitude: %v<br>Longitude: %v", n.Lat, n.Lon)
	return b.String()
}

func edgePopup(from, to string, attrs graph.Attrs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Edge: %s -&gt; %s", html.EscapeString(from), html.EscapeString(to))
	if _, ok := attrs[graph.AttrPercentTravelers]; ok || attrs[graph.AttrHaversine] != nil || attrs[graph.AttrGoogle] != nil {
		fmt.Fprintf(&b, "<br>Travelers: %s%%", attrText(attrs, graph.AttrPercentTravelers))
		fmt.Fprintf(&b, "<br>Haversine Distance: %s km", attrText(attrs, graph.AttrHaversine))
		fmt.Fprintf(&b, "<br>Google Distance: %s km", attrText(attrs, graph.AttrGoogle))
	}
	if _, ok := attrs[graph.AttrDistance]; ok {
		fmt.Fprintf(&b, "<br>Distance: %s m", attrText(attrs, graph.AttrDistance))
	}
	return b.String()
}

func toPoints(path []geo.LatLng) []point {
	pts := make([]point, len(path))
	for i, p := range path {
		pts[i] = point{p.Lat, p.Lng}
	}
	return pts
}

// edgePath picks the pather for an edge and falls back to the straight
// segment.
func edgePath(ctx context.Context, e graph.Edge, u, v graph.Node, opts Options) ([]point, string) {
	straight := []point{{u.Lat, u.Lon}, {v.Lat, v.Lon}}
	from := geo.LatLng{Lat: u.Lat, Lng: u.Lon}
	to := geo.LatLng{Lat: v.Lat, Lng: v.Lon}

	var p Pather
	color := routeColor
	if shift, _ := e.Attrs.Bool(graph.AttrIsRouteShift); shift {
		p, color = opts.ShiftPather, shiftColor
	} else if route, _ := e.Attrs.Bool(graph.AttrIsRoute); route {
		p = opts.RoutePather
	}
	if p == nil {
		return straight, color
	}

	path, err := p.Path(ctx, from, to)
	if err != nil || len(path) < 2 {
		if ctx.Err() == nil {
			log.Printf("Warning: no path %s -> %s, drawing a straight line: %v", u.ID, v.ID, err)
		}
		return straight, color
	}
	return toPoints(path), color
}

func build(ctx context.Context, g *graph.Graph, opts Options) mapData {
	radius := opts.NodeRadius
	if radius == 0 {
		radius = DefaultNodeRadius
	}
	data := mapData{Zoom: 10, Radius: radius, Color: nodeColor, Outline: toPoints(opts.Outline)}

	points := make([]geo.LatLng, len(g.Nodes))
	for i, n := range g.Nodes {
		points[i] = geo.LatLng{Lat: n.Lat, Lng: n.Lon}
		data.Nodes = append(data.Nodes, mapNode{Lat: n.Lat, Lon: n.Lon, Popup: nodePopup(n)})
	}
	if c, ok := geo.Centroid(points); ok {
		data.Center = point{c.Lat, c.Lng}
		data.Zoom = 12
	}

	for _, e := range g.Edges {
		if !graph.IsValid(e) {
			continue
		}
		u, v := g.Nodes[e.From], g.Nodes[e.To]
		path, color := edgePath(ctx, e, u, v, opts)
		data.Edges = append(data.Edges, mapEdge{
			Path:   path,
			Color:  color,
			Weight: 2,
			Popup:  edgePopup(u.ID, v.ID, e.Attrs),
		})
	}
	return data
}

// Map writes g as a standalone HTML page. Edges with is_valid=false are
// not drawn.
func Map(ctx context.Context, w io.Writer, g *graph.Graph, opts Options) error {
	title := opts.Title
	if title == "" {
		title = "Graph map"
	}
	return mapTemplate.Execute(w, page{Title: title, Data: build(ctx, g, opts)})
}

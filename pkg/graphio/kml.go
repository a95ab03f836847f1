package graphio

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	kml "github.com/twpayne/go-kml"

	"mobility_graph/pkg/graph"
)

var (
	routeColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	shiftColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	plainColor = color.RGBA{R: 128, G: 128, B: 128, A: 200}
)

func describe(attrs graph.Attrs) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, attrs[k])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func edgeColor(attrs graph.Attrs) color.Color {
	if v, _ := attrs.Bool(graph.AttrIsRouteShift); v {
		return shiftColor
	}
	if v, _ := attrs.Bool(graph.AttrIsRoute); v {
		return routeColor
	}
	return plainColor
}

// WriteKML writes nodes as point placemarks and edges as styled line strings.
// Edges marked invalid are left out.
func WriteKML(w io.Writer, g *graph.Graph) error {
	placemarks := make([]kml.Element, 0, len(g.Nodes)+len(g.Edges))
	for _, n := range g.Nodes {
		name := n.Label
		if name == "" {
			name = n.ID
		}
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(name),
			kml.Description(describe(n.Attrs)),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: n.Lon, Lat: n.Lat}),
			),
		))
	}
	for _, e := range g.Edges {
		if !graph.IsValid(e) {
			continue
		}
		u, v := g.Nodes[e.From], g.Nodes[e.To]
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(u.ID+" - "+v.ID),
			kml.Description(describe(e.Attrs)),
			kml.Style(
				kml.LineStyle(
					kml.Color(edgeColor(e.Attrs)),
					kml.Width(2),
				),
			),
			kml.LineString(
				kml.Coordinates(
					kml.Coordinate{Lon: u.Lon, Lat: u.Lat},
					kml.Coordinate{Lon: v.Lon, Lat: v.Lat},
				),
			),
		))
	}

	if err := kml.KML(kml.Document(placemarks...)).WriteIndent(w, "", "  "); err != nil {
		return errors.Wrap(err, "Can't write KML")
	}
	return nil
}

// Package graphio reads and writes graph files. GEXF and GraphML are read
// and written with networkx-compatible typed attributes; GeoJSON and KML are
// export-only. Node coordinates travel as the latitude/longitude attributes.
package graphio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/graph"
)

// Format identifies a graph file format.
type Format string

const (
	GEXF    Format = "gexf"
	GraphML Format = "graphml"
	GeoJSON Format = "geojson"
	KML     Format = "kml"
)

// ErrUnsupportedFormat is returned for unknown extensions or for reading an
// export-only format.
var ErrUnsupportedFormat = errors.New("unsupported graph format")

// FormatOf picks the format from the file extension; GEXF when unknown.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphml", ".xml":
		return GraphML
	case ".geojson", ".json":
		return GeoJSON
	case ".kml":
		return KML
	}
	return GEXF
}

// Read decodes a graph in the given format.
func Read(r io.Reader, f Format) (*graph.Graph, error) {
	switch f {
	case GEXF:
		return ReadGEXF(r)
	case GraphML:
		return ReadGraphML(r)
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "read %s", f)
}

// Write encodes g in the given format.
func Write(w io.Writer, g *graph.Graph, f Format) error {
	switch f {
	case GEXF:
		return WriteGEXF(w, g)
	case GraphML:
		return WriteGraphML(w, g)
	case GeoJSON:
		return WriteGeoJSON(w, g)
	case KML:
		return WriteKML(w, g)
	}
	return errors.Wrapf(ErrUnsupportedFormat, "write %s", f)
}

// ReadFile reads a graph, choosing the format by extension.
func ReadFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open graph file")
	}
	defer f.Close()
	g, err := Read(f, FormatOf(path))
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read %s", path)
	}
	return g, nil
}

// WriteFile writes a graph, choosing the format by extension.
func WriteFile(path string, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	if err := Write(f, g, FormatOf(path)); err != nil {
		f.Close()
		return errors.Wrapf(err, "Can't write %s", path)
	}
	return errors.Wrap(f.Close(), "Can't close file")
}

// XML attribute types, shared by GEXF and GraphML.
const (
	typeDouble  = "double"
	typeLong    = "long"
	typeBoolean = "boolean"
	typeString  = "string"
)

func kindOf(v any) string {
	switch v.(type) {
	case float64, float32:
		return typeDouble
	case int, int64, int32:
		return typeLong
	case bool:
		return typeBoolean
	}
	return typeString
}

func mergeKind(a, b string) string {
	switch {
	case a == "" || a == b:
		return b
	case (a == typeDouble && b == typeLong) || (a == typeLong && b == typeDouble):
		return typeDouble
	}
	return typeString
}

// attrDecl is a declared attribute column.
type attrDecl struct {
	id   string
	name string
	typ  string
	def  *string
}

// declare assigns ids to the attribute keys used in list, in sorted key
// order after the leading keys.
func declare(list []graph.Attrs, prefix string, leading ...attrDecl) []attrDecl {
	kinds := make(map[string]string)
	for _, attrs := range list {
		for k, v := range attrs {
			kinds[k] = mergeKind(kinds[k], kindOf(v))
		}
	}
	skip := make(map[string]bool, len(leading))
	for _, d := range leading {
		skip[d.name] = true
	}
	keys := make([]string, 0, len(kinds))
	for k := range kinds {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	decls := make([]attrDecl, 0, len(leading)+len(keys))
	for _, d := range leading {
		d.id = prefix + strconv.Itoa(len(decls))
		decls = append(decls, d)
	}
	for _, k := range keys {
		decls = append(decls, attrDecl{id: prefix + strconv.Itoa(len(decls)), name: k, typ: kinds[k]})
	}
	return decls
}

func formatValue(v any, typ string) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		if typ == typeDouble {
			return strconv.FormatFloat(float64(x), 'g', -1, 64)
		}
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func parseValue(s, typ string) (any, error) {
	switch strings.ToLower(typ) {
	case "double", "float":
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case "long", "integer", "int", "short", "byte":
		return strconv.Atoi(strings.TrimSpace(s))
	case "boolean":
		return strconv.ParseBool(strings.TrimSpace(s))
	}
	return s, nil
}

func coordDecls() []attrDecl {
	return []attrDecl{
		{name: graph.AttrLatitude, typ: typeDouble},
		{name: graph.AttrLongitude, typ: typeDouble},
	}
}

// nodeAttrs returns the attributes to serialise for n: coordinates from the
// node fields followed by its own attributes.
func nodeAttrs(n graph.Node) graph.Attrs {
	out := make(graph.Attrs, len(n.Attrs)+2)
	for k, v := range n.Attrs {
		out[k] = v
	}
	out[graph.AttrLatitude] = n.Lat
	out[graph.AttrLongitude] = n.Lon
	return out
}

func allNodeAttrs(g *graph.Graph) []graph.Attrs {
	list := make([]graph.Attrs, len(g.Nodes))
	for i, n := range g.Nodes {
		list[i] = nodeAttrs(n)
	}
	return list
}

func allEdgeAttrs(g *graph.Graph) []graph.Attrs {
	list := make([]graph.Attrs, len(g.Edges))
	for i, e := range g.Edges {
		list[i] = e.Attrs
	}
	return list
}

// coordinate attribute names in lookup order.
var (
	latKeys = []string{graph.AttrLatitude, "lat", "y"}
	lonKeys = []string{graph.AttrLongitude, "lon", "lng", "x"}
)

func lookupCoord(attrs graph.Attrs, keys []string) (float64, string, bool) {
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case float64:
			return v, k, true
		case int:
			return float64(v), k, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, k, true
			}
		}
	}
	return 0, "", false
}

// buildNode moves the coordinate attributes of a decoded node into the node
// fields. Only the canonical latitude/longitude keys are removed.
func buildNode(id, label string, attrs graph.Attrs) (graph.Node, error) {
	lat, latKey, okLat := lookupCoord(attrs, latKeys)
	lon, lonKey, okLon := lookupCoord(attrs, lonKeys)
	if !okLat || !okLon {
		return graph.Node{}, errors.Errorf("node %s has no latitude/longitude", id)
	}
	if !geo.ValidCoord(lat, lon) {
		return graph.Node{}, errors.Errorf("node %s: coordinate (%v, %v) out of range", id, lat, lon)
	}
	if latKey == graph.AttrLatitude {
		delete(attrs, latKey)
	}
	if lonKey == graph.AttrLongitude {
		delete(attrs, lonKey)
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	if label == id {
		label = ""
	}
	return graph.Node{ID: id, Label: label, Lat: lat, Lon: lon, Attrs: attrs}, nil
}

// decodeValues turns (declaration id, raw value) pairs into typed attributes,
// starting from the declared defaults.
func decodeValues(decls map[string]attrDecl, values [][2]string) (graph.Attrs, error) {
	attrs := make(graph.Attrs, len(values))
	for _, d := range decls {
		if d.def == nil {
			continue
		}
		v, err := parseValue(*d.def, d.typ)
		if err != nil {
			return nil, errors.Wrapf(err, "default of %s", d.name)
		}
		attrs[d.name] = v
	}
	for _, kv := range values {
		d, ok := decls[kv[0]]
		if !ok {
			attrs[kv[0]] = kv[1]
			continue
		}
		v, err := parseValue(kv[1], d.typ)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", d.name)
		}
		attrs[d.name] = v
	}
	return attrs, nil
}

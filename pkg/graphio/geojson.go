package graphio

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"mobility_graph/pkg/graph"
)

// FeatureCollection converts g into point features for nodes and
// line-string features for edges. Attributes become properties; edges also
// carry their source and target node IDs.
func FeatureCollection(g *graph.Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range g.Nodes {
		f := geojson.NewFeature(orb.Point{n.Lon, n.Lat})
		f.ID = n.ID
		for k, v := range n.Attrs {
			f.Properties[k] = v
		}
		f.Properties["id"] = n.ID
		if n.Label != "" {
			f.Properties["label"] = n.Label
		}
		fc.Append(f)
	}
	for _, e := range g.Edges {
		u, v := g.Nodes[e.From], g.Nodes[e.To]
		f := geojson.NewFeature(orb.LineString{{u.Lon, u.Lat}, {v.Lon, v.Lat}})
		for k, val := range e.Attrs {
			f.Properties[k] = val
		}
		f.Properties["source"] = u.ID
		f.Properties["target"] = v.ID
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes g as a GeoJSON feature collection.
func WriteGeoJSON(w io.Writer, g *graph.Graph) error {
	data, err := FeatureCollection(g).MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't marshal GeoJSON")
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "Can't write GeoJSON")
}

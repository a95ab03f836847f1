package graphio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility_graph/pkg/graph"
)

func sampleGraph(directed bool) *graph.Graph {
	g := graph.New(directed)
	g.AddNode(graph.Node{ID: "G-6", Lat: 33.7079, Lon: 73.0863, Attrs: graph.Attrs{
		"population": 1200,
		"zone":       "central",
		"commercial": true,
	}})
	g.AddNode(graph.Node{ID: "F-7", Label: "Jinnah Super", Lat: 33.7214, Lon: 73.0522})
	g.AddNode(graph.Node{ID: "I-8", Lat: 33.6680, Lon: 73.0734, Attrs: graph.Attrs{"zone": "south"}})

	_ = g.AddEdge("G-6", "F-7", graph.Attrs{
		graph.AttrPercentTravelers: 12.5,
		graph.AttrHaversine:        3.6,
		graph.AttrIsValid:          true,
	})
	_ = g.AddEdge("F-7", "I-8", graph.Attrs{graph.AttrIsValid: false, "fare": 30})
	_ = g.AddEdge("I-8", "G-6", nil)
	return g
}

func assertSameGraph(t *testing.T, want, got *graph.Graph) {
	t.Helper()
	assert.Equal(t, want.Directed, got.Directed)
	require.Equal(t, want.NumNodes(), got.NumNodes())
	require.Equal(t, want.NumEdges(), got.NumEdges())
	for i := range want.Nodes {
		assert.Equal(t, want.Nodes[i], got.Nodes[i])
	}
	for _, e := range want.Edges {
		from, to := want.Endpoints(e)
		attrs, ok := got.EdgeAttrs(from, to)
		require.True(t, ok, "missing edge %s -> %s", from, to)
		assert.Equal(t, e.Attrs, attrs)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{GEXF, GraphML} {
		for _, directed := range []bool{true, false} {
			name := string(format)
			if directed {
				name += "/directed"
			}
			t.Run(name, func(t *testing.T) {
				g := sampleGraph(directed)
				var buf bytes.Buffer
				require.NoError(t, Write(&buf, g, format))

				back, err := Read(&buf, format)
				require.NoError(t, err)
				assertSameGraph(t, g, back)
			})
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := sampleGraph(false)
	for _, name := range []string{"out.gexf", "out.graphml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, g))
		back, err := ReadFile(path)
		require.NoError(t, err)
		assertSameGraph(t, g, back)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.gexf", GEXF},
		{"a.GraphML", GraphML},
		{"a.geojson", GeoJSON},
		{"a.kml", KML},
		{"a", GEXF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatOf(tt.path), tt.path)
	}
}

func TestReadExportOnlyFormat(t *testing.T) {
	_, err := Read(strings.NewReader("{}"), GeoJSON)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

const networkxGEXF = `<?xml version='1.0' encoding='utf-8'?>
<gexf xmlns="http://www.gexf.net/1.2draft" xmlns:viz="http://www.gexf.net/1.2draft/viz" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="1.2">
  <meta lastmodifieddate="2024-03-01">
    <creator>NetworkX 3.2.1</creator>
  </meta>
  <graph defaultedgetype="directed" mode="static" name="">
    <attributes mode="static" class="edge">
      <attribute id="1" title="percent_travelers" type="double" />
    </attributes>
    <attributes mode="static" class="node">
      <attribute id="0" title="latitude" type="double" />
      <attribute id="2" title="longitude" type="double" />
      <attribute id="3" title="kind" type="string">
        <default>area</default>
      </attribute>
    </attributes>
    <nodes>
      <node id="Saddar" label="Saddar">
        <attvalues>
          <attvalue for="0" value="33.5973" />
          <attvalue for="2" value="73.0479" />
        </attvalues>
      </node>
      <node id="Bahria" label="Bahria Town">
        <attvalues>
          <attvalue for="0" value="33.5221" />
          <attvalue for="2" value="73.1026" />
          <attvalue for="3" value="housing" />
        </attvalues>
        <viz:color r="255" g="0" b="0" a="1.0" />
        <viz:position x="1.0" y="2.0" z="0.0" />
        <viz:size value="12.5" />
      </node>
    </nodes>
    <edges>
      <edge source="Saddar" target="Bahria" id="0" weight="2.5">
        <attvalues>
          <attvalue for="1" value="4.2" />
        </attvalues>
      </edge>
    </edges>
  </graph>
</gexf>`

func TestReadNetworkxGEXF(t *testing.T) {
	g, err := ReadGEXF(strings.NewReader(networkxGEXF))
	require.NoError(t, err)

	assert.True(t, g.Directed)
	require.Equal(t, 2, g.NumNodes())

	saddar, ok := g.Node("Saddar")
	require.True(t, ok)
	assert.Equal(t, "", saddar.Label)
	assert.Equal(t, 33.5973, saddar.Lat)
	assert.Equal(t, "area", saddar.Attrs["kind"])

	bahria, _ := g.Node("Bahria")
	assert.Equal(t, "Bahria Town", bahria.Label)
	assert.Equal(t, "housing", bahria.Attrs["kind"])

	attrs, ok := g.EdgeAttrs("Saddar", "Bahria")
	require.True(t, ok)
	assert.Equal(t, 4.2, attrs[graph.AttrPercentTravelers])
	assert.Equal(t, 2.5, attrs["weight"])

	assert.Nil(t, saddar.Viz)
	wantViz := []graph.VizElement{
		{Name: "color", Attrs: [][2]string{{"r", "255"}, {"g", "0"}, {"b", "0"}, {"a", "1.0"}}},
		{Name: "position", Attrs: [][2]string{{"x", "1.0"}, {"y", "2.0"}, {"z", "0.0"}}},
		{Name: "size", Attrs: [][2]string{{"value", "12.5"}}},
	}
	assert.Equal(t, wantViz, bahria.Viz)
}

func TestGEXFKeepsViz(t *testing.T) {
	in, err := ReadGEXF(strings.NewReader(networkxGEXF))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGEXF(&buf, in))
	assert.Contains(t, buf.String(), `<color xmlns="http://www.gexf.net/1.2draft/viz" r="255" g="0" b="0" a="1.0">`)

	out, err := ReadGEXF(&buf)
	require.NoError(t, err)
	before, _ := in.Node("Bahria")
	after, ok := out.Node("Bahria")
	require.True(t, ok)
	assert.Equal(t, before.Viz, after.Viz)
	assert.Equal(t, before.Attrs, after.Attrs)
}

func TestReadMissingCoordinates(t *testing.T) {
	doc := `<gexf><graph><nodes><node id="x"/></nodes></graph></gexf>`
	_, err := ReadGEXF(strings.NewReader(doc))
	assert.ErrorContains(t, err, "no latitude/longitude")
}

func TestReadGraphMLAliasCoordinates(t *testing.T) {
	doc := `<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="lat" attr.type="double"/>
  <key id="d1" for="node" attr.name="lon" attr.type="double"/>
  <graph edgedefault="undirected">
    <node id="a"><data key="d0">1.5</data><data key="d1">2.5</data></node>
  </graph>
</graphml>`
	g, err := ReadGraphML(strings.NewReader(doc))
	require.NoError(t, err)
	n, _ := g.Node("a")
	assert.Equal(t, 1.5, n.Lat)
	assert.Equal(t, 2.5, n.Lon)
	assert.Equal(t, 1.5, n.Attrs["lat"], "alias attributes are preserved")
	assert.False(t, g.Directed)
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, sampleGraph(true)))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 6)

	first := fc.Features[0]
	assert.Equal(t, "Point", first.Geometry.GeoJSONType())
	assert.Equal(t, "G-6", first.Properties["id"])
	assert.Equal(t, 73.0863, first.Point().Lon())

	edge := fc.Features[3]
	assert.Equal(t, "LineString", edge.Geometry.GeoJSONType())
	assert.Equal(t, "G-6", edge.Properties["source"])
	assert.Equal(t, "F-7", edge.Properties["target"])
}

func TestWriteKML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, sampleGraph(true)))
	out := buf.String()

	assert.Contains(t, out, "<kml")
	assert.Equal(t, 5, strings.Count(out, "<Placemark>"), "invalid edge is skipped")
	assert.Contains(t, out, "<name>Jinnah Super</name>")
	assert.Contains(t, out, "<coordinates>73.0863")
}

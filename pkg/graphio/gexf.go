package graphio

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"mobility_graph/pkg/graph"
)

const (
	gexfNamespace = "http://www.gexf.net/1.2draft"
	vizNamespace  = "http://www.gexf.net/1.2draft/viz"
)

type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	Xmlns   string    `xml:"xmlns,attr,omitempty"`
	Version string    `xml:"version,attr,omitempty"`
	Meta    *gexfMeta `xml:"meta"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfMeta struct {
	Creator string `xml:"creator,omitempty"`
}

type gexfGraph struct {
	DefaultEdgeType string           `xml:"defaultedgetype,attr,omitempty"`
	Mode            string           `xml:"mode,attr,omitempty"`
	Attributes      []gexfAttributes `xml:"attributes"`
	Nodes           []gexfNode       `xml:"nodes>node"`
	Edges           []gexfEdge       `xml:"edges>edge"`
}

type gexfAttributes struct {
	Class      string          `xml:"class,attr"`
	Mode       string          `xml:"mode,attr,omitempty"`
	Attributes []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID      string  `xml:"id,attr"`
	Title   string  `xml:"title,attr"`
	Type    string  `xml:"type,attr"`
	Default *string `xml:"default"`
}

type gexfNode struct {
	ID     string        `xml:"id,attr"`
	Label  string        `xml:"label,attr,omitempty"`
	Values []gexfValue   `xml:"attvalues>attvalue"`
	Extra  []gexfElement `xml:",any"`
}

// gexfElement is a node child other than attvalues, such as viz:color.
type gexfElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

type gexfEdge struct {
	ID     string      `xml:"id,attr,omitempty"`
	Source string      `xml:"source,attr"`
	Target string      `xml:"target,attr"`
	Label  string      `xml:"label,attr,omitempty"`
	Weight string      `xml:"weight,attr,omitempty"`
	Values []gexfValue `xml:"attvalues>attvalue"`
}

type gexfValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

// ReadGEXF decodes a GEXF 1.x document. The graph is directed when
// defaultedgetype is "directed".
func ReadGEXF(r io.Reader) (*graph.Graph, error) {
	var doc gexfDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode GEXF")
	}

	nodeDecls := make(map[string]attrDecl)
	edgeDecls := make(map[string]attrDecl)
	for _, block := range doc.Graph.Attributes {
		decls := nodeDecls
		if block.Class == "edge" {
			decls = edgeDecls
		}
		for _, a := range block.Attributes {
			decls[a.ID] = attrDecl{id: a.ID, name: a.Title, typ: a.Type, def: a.Default}
		}
	}

	g := graph.New(doc.Graph.DefaultEdgeType == "directed")
	for _, n := range doc.Graph.Nodes {
		attrs, err := decodeValues(nodeDecls, gexfPairs(n.Values))
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", n.ID)
		}
		node, err := buildNode(n.ID, n.Label, attrs)
		if err != nil {
			return nil, err
		}
		node.Viz = readViz(n.Extra)
		g.AddNode(node)
	}

	for _, e := range doc.Graph.Edges {
		attrs, err := decodeValues(edgeDecls, gexfPairs(e.Values))
		if err != nil {
			return nil, errors.Wrapf(err, "edge %s -> %s", e.Source, e.Target)
		}
		if e.Weight != "" {
			w, err := strconv.ParseFloat(e.Weight, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "edge %s -> %s weight", e.Source, e.Target)
			}
			attrs["weight"] = w
		}
		if e.Label != "" {
			attrs["label"] = e.Label
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		if err := g.AddEdge(e.Source, e.Target, attrs); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// readViz keeps the viz:* children of a node, whatever the viz namespace
// version.
func readViz(extra []gexfElement) []graph.VizElement {
	var viz []graph.VizElement
	for _, el := range extra {
		if !strings.HasSuffix(el.XMLName.Space, "/viz") {
			continue
		}
		v := graph.VizElement{Name: el.XMLName.Local}
		for _, a := range el.Attrs {
			if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
				continue
			}
			v.Attrs = append(v.Attrs, [2]string{a.Name.Local, a.Value})
		}
		viz = append(viz, v)
	}
	return viz
}

func writeViz(viz []graph.VizElement) []gexfElement {
	var out []gexfElement
	for _, v := range viz {
		el := gexfElement{XMLName: xml.Name{Space: vizNamespace, Local: v.Name}}
		for _, a := range v.Attrs {
			el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: a[0]}, Value: a[1]})
		}
		out = append(out, el)
	}
	return out
}

func gexfPairs(values []gexfValue) [][2]string {
	pairs := make([][2]string, len(values))
	for i, v := range values {
		pairs[i] = [2]string{v.For, v.Value}
	}
	return pairs
}

func gexfDecls(class string, decls []attrDecl) gexfAttributes {
	block := gexfAttributes{Class: class, Mode: "static"}
	for _, d := range decls {
		block.Attributes = append(block.Attributes, gexfAttribute{ID: d.id, Title: d.name, Type: d.typ})
	}
	return block
}

func gexfValues(decls []attrDecl, attrs graph.Attrs) []gexfValue {
	var values []gexfValue
	for _, d := range decls {
		v, ok := attrs[d.name]
		if !ok {
			continue
		}
		values = append(values, gexfValue{For: d.id, Value: formatValue(v, d.typ)})
	}
	return values
}

// WriteGEXF encodes g as GEXF 1.2 with typed node and edge attributes.
func WriteGEXF(w io.Writer, g *graph.Graph) error {
	nodeDecls := declare(allNodeAttrs(g), "", coordDecls()...)
	edgeDecls := declare(allEdgeAttrs(g), "")

	edgeType := "undirected"
	if g.Directed {
		edgeType = "directed"
	}
	doc := gexfDoc{
		Xmlns:   gexfNamespace,
		Version: "1.2",
		Meta:    &gexfMeta{Creator: "mobility_graph"},
		Graph: gexfGraph{
			DefaultEdgeType: edgeType,
			Mode:            "static",
			Attributes:      []gexfAttributes{gexfDecls("node", nodeDecls)},
		},
	}
	if len(edgeDecls) > 0 {
		doc.Graph.Attributes = append(doc.Graph.Attributes, gexfDecls("edge", edgeDecls))
	}

	doc.Graph.Nodes = make([]gexfNode, len(g.Nodes))
	for i, n := range g.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		doc.Graph.Nodes[i] = gexfNode{
			ID:     n.ID,
			Label:  label,
			Values: gexfValues(nodeDecls, nodeAttrs(n)),
			Extra:  writeViz(n.Viz),
		}
	}
	doc.Graph.Edges = make([]gexfEdge, len(g.Edges))
	for i, e := range g.Edges {
		src, dst := g.Endpoints(e)
		doc.Graph.Edges[i] = gexfEdge{
			ID:     strconv.Itoa(i),
			Source: src,
			Target: dst,
			Values: gexfValues(edgeDecls, e.Attrs),
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "Can't encode GEXF")
	}
	return errors.Wrap(enc.Flush(), "Can't flush GEXF")
}

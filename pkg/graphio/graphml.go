package graphio

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"

	"mobility_graph/pkg/graph"
)

const graphmlNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr,omitempty"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID      string  `xml:"id,attr"`
	For     string  `xml:"for,attr"`
	Name    string  `xml:"attr.name,attr"`
	Type    string  `xml:"attr.type,attr"`
	Default *string `xml:"default"`
}

type graphmlGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	ID     string        `xml:"id,attr,omitempty"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

const labelKey = "label"

// ReadGraphML decodes a GraphML document. A node "label" attribute becomes
// the node label.
func ReadGraphML(r io.Reader) (*graph.Graph, error) {
	var doc graphmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode GraphML")
	}

	nodeDecls := make(map[string]attrDecl)
	edgeDecls := make(map[string]attrDecl)
	for _, k := range doc.Keys {
		d := attrDecl{id: k.ID, name: k.Name, typ: k.Type, def: k.Default}
		switch k.For {
		case "node":
			nodeDecls[k.ID] = d
		case "edge":
			edgeDecls[k.ID] = d
		case "all":
			nodeDecls[k.ID] = d
			edgeDecls[k.ID] = d
		}
	}

	g := graph.New(doc.Graph.EdgeDefault == "directed")
	for _, n := range doc.Graph.Nodes {
		attrs, err := decodeValues(nodeDecls, graphmlPairs(n.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", n.ID)
		}
		label, _ := attrs[labelKey].(string)
		delete(attrs, labelKey)
		node, err := buildNode(n.ID, label, attrs)
		if err != nil {
			return nil, err
		}
		g.AddNode(node)
	}

	for _, e := range doc.Graph.Edges {
		attrs, err := decodeValues(edgeDecls, graphmlPairs(e.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "edge %s -> %s", e.Source, e.Target)
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

func graphmlPairs(data []graphmlData) [][2]string {
	pairs := make([][2]string, len(data))
	for i, d := range data {
		pairs[i] = [2]string{d.Key, d.Value}
	}
	return pairs
}

func graphmlValues(decls []attrDecl, attrs graph.Attrs) []graphmlData {
	var data []graphmlData
	for _, d := range decls {
		v, ok := attrs[d.name]
		if !ok {
			continue
		}
		data = append(data, graphmlData{Key: d.id, Value: formatValue(v, d.typ)})
	}
	return data
}

// WriteGraphML encodes g as GraphML with typed keys.
func WriteGraphML(w io.Writer, g *graph.Graph) error {
	nodeList := allNodeAttrs(g)
	for i, n := range g.Nodes {
		if n.Label != "" {
			nodeList[i][labelKey] = n.Label
		}
	}
	nodeDecls := declare(nodeList, "d", coordDecls()...)
	edgeDecls := declare(allEdgeAttrs(g), "e")

	edgeDefault := "undirected"
	if g.Directed {
		edgeDefault = "directed"
	}
	doc := graphmlDoc{
		Xmlns: graphmlNamespace,
		Graph: graphmlGraph{EdgeDefault: edgeDefault},
	}
	for _, d := range nodeDecls {
		doc.Keys = append(doc.Keys, graphmlKey{ID: d.id, For: "node", Name: d.name, Type: d.typ})
	}
	for _, d := range edgeDecls {
		doc.Keys = append(doc.Keys, graphmlKey{ID: d.id, For: "edge", Name: d.name, Type: d.typ})
	}

	doc.Graph.Nodes = make([]graphmlNode, len(g.Nodes))
	for i, n := range g.Nodes {
		doc.Graph.Nodes[i] = graphmlNode{ID: n.ID, Data: graphmlValues(nodeDecls, nodeList[i])}
	}
	doc.Graph.Edges = make([]graphmlEdge, len(g.Edges))
	for i, e := range g.Edges {
		src, dst := g.Endpoints(e)
		doc.Graph.Edges[i] = graphmlEdge{Source: src, Target: dst, Data: graphmlValues(edgeDecls, e.Attrs)}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "Can't encode GraphML")
	}
	return errors.Wrap(enc.Flush(), "Can't flush GraphML")
}

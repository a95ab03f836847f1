package graph

import (
	"errors"
	"fmt"
	"maps"
	"sort"
)

// Well-known attribute names shared by the tools.
const (
	AttrLatitude         = "latitude"
	AttrLongitude        = "longitude"
	AttrRouteID          = "routeId"
	AttrDistance         = "distance"
	AttrIsRoute          = "isRoute"
	AttrIsRouteShift     = "isRouteShift"
	AttrPercentTravelers = "percent_travelers"
	AttrHaversine        = "haversine_distance"
	AttrGoogle           = "google_distance"
	AttrIsValid          = "is_valid"
)

// ErrUnknownNode is returned when an edge references a node that was never added.
var ErrUnknownNode = errors.New("unknown node")

// Attrs holds node or edge attributes. Values are float64, int, bool or string.
type Attrs map[string]any

// Float returns the attribute as a float64 if it is numeric.
func (a Attrs) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Bool returns the attribute as a bool if present.
func (a Attrs) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

// VizElement is a display hint such as color, position, size or shape,
// kept as the element name and its attributes in file order.
type VizElement struct {
	Name  string
	Attrs [][2]string
}

// Node is a geographic point of interest.
type Node struct {
	ID    string
	Label string
	Lat   float64
	Lon   float64
	Attrs Attrs
	Viz   []VizElement
}

// Edge connects Nodes[From] and Nodes[To]. For undirected graphs the
// order of From and To is insignificant.
type Edge struct {
	From  int
	To    int
	Attrs Attrs
}

type edgeKey struct{ from, to int }

// Graph is a small in-memory graph keyed by string node IDs.
// Nodes and edges keep insertion order.
type Graph struct {
	Directed bool
	Nodes    []Node
	Edges    []Edge

	nodeIdx map[string]int
	edgeIdx map[edgeKey]int
}

// New creates an empty graph.
func New(directed bool) *Graph {
	return &Graph{
		Directed: directed,
		nodeIdx:  make(map[string]int),
		edgeIdx:  make(map[edgeKey]int),
	}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.Nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.Edges) }

// AddNode inserts n, or merges it into the existing node with the same ID:
// coordinates, label and display hints are replaced, attributes are
// merged. Returns the node's index.
func (g *Graph) AddNode(n Node) int {
	if idx, ok := g.nodeIdx[n.ID]; ok {
		existing := &g.Nodes[idx]
		existing.Lat = n.Lat
		existing.Lon = n.Lon
		if n.Label != "" {
			existing.Label = n.Label
		}
		if len(n.Viz) > 0 {
			existing.Viz = n.Viz
		}
		if len(n.Attrs) > 0 {
			if existing.Attrs == nil {
				existing.Attrs = make(Attrs, len(n.Attrs))
			}
			maps.Copy(existing.Attrs, n.Attrs)
		}
		return idx
	}

	idx := len(g.Nodes)
	if n.Attrs != nil {
		n.Attrs = maps.Clone(n.Attrs)
	}
	g.Nodes = append(g.Nodes, n)
	g.nodeIdx[n.ID] = idx
	return idx
}

// NodeIndex returns the index of the node with the given ID.
func (g *Graph) NodeIndex(id string) (int, bool) {
	idx, ok := g.nodeIdx[id]
	return idx, ok
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[idx], true
}

func (g *Graph) key(from, to int) edgeKey {
	if !g.Directed && from > to {
		from, to = to, from
	}
	return edgeKey{from, to}
}

// AddEdge inserts an edge between two existing nodes. Adding an edge that
// already exists merges attrs into it instead of duplicating it.
func (g *Graph) AddEdge(from, to string, attrs Attrs) error {
	u, ok := g.nodeIdx[from]
	if !ok {
		return fmt.Errorf("add edge %s -> %s: %w: %s", from, to, ErrUnknownNode, from)
	}
	v, ok := g.nodeIdx[to]
	if !ok {
		return fmt.Errorf("add edge %s -> %s: %w: %s", from, to, ErrUnknownNode, to)
	}
	g.addEdgeIdx(u, v, attrs)
	return nil
}

func (g *Graph) addEdgeIdx(u, v int, attrs Attrs) {
	k := g.key(u, v)
	if idx, ok := g.edgeIdx[k]; ok {
		if len(attrs) > 0 {
			e := &g.Edges[idx]
			if e.Attrs == nil {
				e.Attrs = make(Attrs, len(attrs))
			}
			maps.Copy(e.Attrs, attrs)
		}
		return
	}
	if attrs != nil {
		attrs = maps.Clone(attrs)
	}
	g.edgeIdx[k] = len(g.Edges)
	g.Edges = append(g.Edges, Edge{From: u, To: v, Attrs: attrs})
}

// HasEdge reports whether the edge exists.
func (g *Graph) HasEdge(from, to string) bool {
	u, ok := g.nodeIdx[from]
	if !ok {
		return false
	}
	v, ok := g.nodeIdx[to]
	if !ok {
		return false
	}
	_, ok = g.edgeIdx[g.key(u, v)]
	return ok
}

// EdgeAttrs returns the attributes of an existing edge.
func (g *Graph) EdgeAttrs(from, to string) (Attrs, bool) {
	u, ok := g.nodeIdx[from]
	if !ok {
		return nil, false
	}
	v, ok := g.nodeIdx[to]
	if !ok {
		return nil, false
	}
	idx, ok := g.edgeIdx[g.key(u, v)]
	if !ok {
		return nil, false
	}
	return g.Edges[idx].Attrs, true
}

// Endpoints returns the IDs of an edge's nodes.
func (g *Graph) Endpoints(e Edge) (string, string) {
	return g.Nodes[e.From].ID, g.Nodes[e.To].ID
}

// ClearEdges removes every edge and keeps all nodes with their attributes.
func ClearEdges(g *Graph) {
	g.Edges = nil
	g.edgeIdx = make(map[edgeKey]int)
}

// RemoveEdges deletes every edge for which drop returns true and reports
// how many were removed.
func (g *Graph) RemoveEdges(drop func(Edge) bool) int {
	kept := g.Edges[:0]
	removed := 0
	for _, e := range g.Edges {
		if drop(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	g.Edges = kept
	g.reindexEdges()
	return removed
}

func (g *Graph) reindexEdges() {
	g.edgeIdx = make(map[edgeKey]int, len(g.Edges))
	for i, e := range g.Edges {
		g.edgeIdx[g.key(e.From, e.To)] = i
	}
}

// NodesOnly returns an undirected copy of g's nodes without any edges.
func NodesOnly(g *Graph) *Graph {
	out := New(false)
	for _, n := range g.Nodes {
		out.AddNode(n)
	}
	return out
}

// AttrKeys returns the sorted set of attribute names used by nodes
// (nodes=true) or edges (nodes=false).
func (g *Graph) AttrKeys(nodes bool) []string {
	seen := make(map[string]struct{})
	if nodes {
		for _, n := range g.Nodes {
			for k := range n.Attrs {
				seen[k] = struct{}{}
			}
		}
	} else {
		for _, e := range g.Edges {
			for k := range e.Attrs {
				seen[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

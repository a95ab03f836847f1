package transit

import (
	"sort"

	"mobility_graph/pkg/graph"
)

// Edge is an unordered pair of node IDs, stored with A < B.
type Edge struct {
	A string
	B string
}

// NewEdge returns the canonical edge for a and b.
func NewEdge(a, b string) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
}

// SynthesizeEdges compares every pair of nodes and emits an edge for each
// pair whose route sets intersect. The result is sorted.
func SynthesizeEdges(assoc Associations) []Edge {
	ids := assoc.NodeIDs()
	var edges []Edge
	for i := range ids {
		ri := assoc[ids[i]]
		if len(ri) == 0 {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			if ri.Intersects(assoc[ids[j]]) {
				edges = append(edges, Edge{A: ids[i], B: ids[j]})
			}
		}
	}
	return edges
}

// SynthesizeEdgesIndexed produces the same edges as SynthesizeEdges from an
// inverted route -> nodes index, so only nodes sharing a route are paired.
func SynthesizeEdgesIndexed(assoc Associations) []Edge {
	byRoute := make(map[string][]string)
	for _, id := range assoc.NodeIDs() {
		for r := range assoc[id] {
			byRoute[r] = append(byRoute[r], id)
		}
	}

	seen := make(map[Edge]struct{})
	var edges []Edge
	for _, members := range byRoute {
		for i := range members {
			for j := i + 1; j < len(members); j++ {
				e := NewEdge(members[i], members[j])
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				edges = append(edges, e)
			}
		}
	}
	sortEdges(edges)
	return edges
}

// WithEdges builds the output graph: every node of nodes (attributes
// untouched) plus the synthesized edges, undirected and without attributes.
// Edges already present in nodes are not carried over.
func WithEdges(nodes *graph.Graph, edges []Edge) (*graph.Graph, error) {
	out := graph.NodesOnly(nodes)
	for _, e := range edges {
		if err := out.AddEdge(e.A, e.B, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NodesFromGraph converts graph nodes into matcher input.
func NodesFromGraph(g *graph.Graph) []Node {
	nodes := make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = Node{ID: n.ID, Lat: n.Lat, Lon: n.Lon}
	}
	return nodes
}

// GraphFromNodes creates an undirected node-only graph.
func GraphFromNodes(nodes []Node) *graph.Graph {
	g := graph.New(false)
	for _, n := range nodes {
		g.AddNode(graph.Node{ID: n.ID, Lat: n.Lat, Lon: n.Lon})
	}
	return g
}

package graph

// Characteristics summarises a graph the way the OD tools report it.
// Density and AvgDegree describe the undirected graph induced by valid
// edges only (nodes without a valid edge are not counted).
type Characteristics struct {
	Nodes      int
	Edges      int
	ValidEdges int
	Density    float64
	AvgDegree  float64
}

// IsValid reports whether an edge is valid: is_valid absent or true.
func IsValid(e Edge) bool {
	v, ok := e.Attrs.Bool(AttrIsValid)
	return !ok || v
}

// Describe computes the graph characteristics.
func Describe(g *Graph) Characteristics {
	c := Characteristics{
		Nodes: len(g.Nodes),
		Edges: len(g.Edges),
	}

	type pair struct{ a, b int }
	pairs := make(map[pair]struct{})
	touched := make(map[int]struct{})
	for _, e := range g.Edges {
		if !IsValid(e) {
			continue
		}
		c.ValidEdges++
		a, b := e.From, e.To
		if a > b {
			a, b = b, a
		}
		pairs[pair{a, b}] = struct{}{}
		touched[a] = struct{}{}
		touched[b] = struct{}{}
	}

	n := float64(len(touched))
	m := float64(len(pairs))
	if n > 1 {
		c.Density = 2 * m / (n * (n - 1))
	}
	if n > 0 {
		c.AvgDegree = 2 * m / n
	}
	return c
}

// SetEdgeValidity sets is_valid on every edge to cond(value of attr).
// Edges lacking attr are marked invalid.
func SetEdgeValidity(g *Graph, attr string, cond func(any) bool) {
	for i := range g.Edges {
		e := &g.Edges[i]
		valid := false
		if v, ok := e.Attrs[attr]; ok {
			valid = cond(v)
		}
		if e.Attrs == nil {
			e.Attrs = make(Attrs, 1)
		}
		e.Attrs[AttrIsValid] = valid
	}
}

// MaxFloat returns a condition accepting numeric values <= limit.
func MaxFloat(limit float64) func(any) bool {
	return func(v any) bool {
		switch f := v.(type) {
		case float64:
			return f <= limit
		case int:
			return float64(f) <= limit
		}
		return false
	}
}

// PruneInvalidEdges removes invalid edges and strips is_valid from the
// remaining ones. Returns the number of removed edges.
func PruneInvalidEdges(g *Graph) int {
	removed := g.RemoveEdges(func(e Edge) bool { return !IsValid(e) })
	for i := range g.Edges {
		delete(g.Edges[i].Attrs, AttrIsValid)
	}
	return removed
}

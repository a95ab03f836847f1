package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []int
	rank   []byte
	size   []int
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y int) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the size of the set containing x.
func (uf *UnionFind) Size(x int) int {
	return uf.size[uf.Find(x)]
}

// WeaklyConnectedComponents returns the node indices of every weakly
// connected component (edge direction ignored). Components are ordered by
// their lowest node index and list nodes in ascending index order.
func WeaklyConnectedComponents(g *Graph) [][]int {
	if len(g.Nodes) == 0 {
		return nil
	}

	uf := NewUnionFind(len(g.Nodes))
	for _, e := range g.Edges {
		uf.Union(e.From, e.To)
	}

	slot := make(map[int]int)
	var comps [][]int
	for i := range g.Nodes {
		root := uf.Find(i)
		s, ok := slot[root]
		if !ok {
			s = len(comps)
			slot[root] = s
			comps = append(comps, make([]int, 0, uf.Size(root)))
		}
		comps[s] = append(comps[s], i)
	}
	return comps
}

// LargestComponent returns the node indices belonging to the largest
// weakly connected component. Ties go to the component found first.
func LargestComponent(g *Graph) []int {
	var best []int
	for _, c := range WeaklyConnectedComponents(g) {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

// Package transit associates public-transport routes with graph nodes and
// derives the node-to-node edges implied by shared routes.
package transit

import "sort"

// Node is a geographic point of interest in the mobility graph.
type Node struct {
	ID  string
	Lat float64
	Lon float64
}

// Stop is one stop on a route.
type Stop struct {
	Name string
	Lat  float64
	Lon  float64
}

// Route is a named, ordered sequence of stops.
type Route struct {
	ID    string
	Stops []Stop
}

// RouteSet is a set of route IDs.
type RouteSet map[string]struct{}

// Add inserts id; adding an existing id is a no-op.
func (s RouteSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s RouteSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Intersects reports whether s and o share at least one route.
func (s RouteSet) Intersects(o RouteSet) bool {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if _, ok := large[id]; ok {
			return true
		}
	}
	return false
}

// Sorted returns the route IDs in ascending order.
func (s RouteSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Associations maps a node ID to the routes considered to serve it.
// Every associated node has an entry, possibly an empty set.
type Associations map[string]RouteSet

// NodeIDs returns the associated node IDs in ascending order.
func (a Associations) NodeIDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

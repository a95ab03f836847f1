package transit

import (
	"github.com/tidwall/rtree"

	"mobility_graph/pkg/geo"
)

// DefaultThresholdMeters is the default proximity threshold.
const DefaultThresholdMeters = 1000.0

// RouteFinder returns the routes having a stop within range of a point.
type RouteFinder interface {
	RoutesNear(lat, lon float64) RouteSet
}

// Associate runs finder for every node. The result has one entry per node.
func Associate(nodes []Node, finder RouteFinder) Associations {
	assoc := make(Associations, len(nodes))
	for _, n := range nodes {
		found := finder.RoutesNear(n.Lat, n.Lon)
		if existing, ok := assoc[n.ID]; ok {
			for id := range found {
				existing.Add(id)
			}
			continue
		}
		assoc[n.ID] = found
	}
	return assoc
}

func inRange(lat, lon float64, s Stop, threshold float64) bool {
	return geo.Haversine(lat, lon, s.Lat, s.Lon) <= threshold
}

// ScanMatcher checks every route's stops in order and stops scanning a
// route at the first stop within the threshold. It finds a qualifying stop,
// not necessarily the nearest one.
type ScanMatcher struct {
	routes    []Route
	threshold float64
}

// NewScanMatcher creates a ScanMatcher over routes.
func NewScanMatcher(routes []Route, thresholdMeters float64) *ScanMatcher {
	return &ScanMatcher{routes: routes, threshold: thresholdMeters}
}

// RoutesNear implements RouteFinder.
func (m *ScanMatcher) RoutesNear(lat, lon float64) RouteSet {
	found := make(RouteSet)
	for _, r := range m.routes {
		if found.Has(r.ID) {
			continue
		}
		for _, s := range r.Stops {
			if inRange(lat, lon, s, m.threshold) {
				found.Add(r.ID)
				break
			}
		}
	}
	return found
}

// IndexMatcher answers the same question as ScanMatcher through an R-tree of
// all stops: candidates come from a bounding box around the query point and
// are confirmed with the same great-circle test.
type IndexMatcher struct {
	tr        rtree.RTreeG[indexedStop]
	threshold float64
}

type indexedStop struct {
	routeID string
	stop    Stop
}

// NewIndexMatcher indexes every stop of every route.
func NewIndexMatcher(routes []Route, thresholdMeters float64) *IndexMatcher {
	m := &IndexMatcher{threshold: thresholdMeters}
	for _, r := range routes {
		for _, s := range r.Stops {
			pt := [2]float64{s.Lon, s.Lat}
			m.tr.Insert(pt, pt, indexedStop{routeID: r.ID, stop: s})
		}
	}
	return m
}

// Len returns the number of indexed stops.
func (m *IndexMatcher) Len() int { return m.tr.Len() }

// RoutesNear implements RouteFinder.
func (m *IndexMatcher) RoutesNear(lat, lon float64) RouteSet {
	found := make(RouteSet)
	b := geo.BoundAround(lat, lon, m.threshold)
	m.tr.Search(
		[2]float64{b.MinLng, b.MinLat},
		[2]float64{b.MaxLng, b.MaxLat},
		func(_, _ [2]float64, is indexedStop) bool {
			if !found.Has(is.routeID) && inRange(lat, lon, is.stop, m.threshold) {
				found.Add(is.routeID)
			}
			return true
		},
	)
	return found
}

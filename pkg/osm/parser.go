// Package osm extracts public transport routes and their stops from OSM PBF
// extracts.
package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/transit"
)

// DefaultRouteTypes lists the route=* values treated as public transport.
var DefaultRouteTypes = []string{
	"bus",
	"trolleybus",
	"minibus",
	"share_taxi",
	"tram",
	"light_rail",
	"subway",
	"train",
	"monorail",
	"ferry",
}

// ExtractOptions configures the extractor.
type ExtractOptions struct {
	BBox       geo.BBox // if non-zero, drop stops outside the box
	RouteTypes []string // route=* values to keep; DefaultRouteTypes when empty
}

// Result holds the extracted routes and what was dropped on the way.
type Result struct {
	Routes       []transit.Route
	MissingStops int // stop members absent from the extract
	OutsideBBox  int // stops dropped by the bounding box
	EmptyRoutes  int // routes left without stops
}

// routeRelation is a route relation collected during pass 1.
type routeRelation struct {
	ID    osm.RelationID
	Ref   string
	Name  string
	Stops []osm.NodeID
}

// stopNode is a stop node collected during pass 2.
type stopNode struct {
	Lat  float64
	Lon  float64
	Name string
}

func routeTypeSet(types []string) map[string]bool {
	if len(types) == 0 {
		types = DefaultRouteTypes
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// isTransitRoute returns true if the relation is a route of a wanted type.
func isTransitRoute(tags osm.Tags, types map[string]bool) bool {
	if tags.Find("type") != "route" {
		return false
	}
	return types[tags.Find("route")]
}

// stopMembers returns the node members acting as stops, in member order.
// Members with a stop role are preferred; platform nodes are used only
// when the relation has no stop nodes.
func stopMembers(members osm.Members) []osm.NodeID {
	var stops, platforms []osm.NodeID
	for _, m := range members {
		if m.Type != osm.TypeNode {
			continue
		}
		switch {
		case strings.HasPrefix(m.Role, "stop"):
			stops = append(stops, osm.NodeID(m.Ref))
		case strings.HasPrefix(m.Role, "platform"):
			platforms = append(platforms, osm.NodeID(m.Ref))
		}
	}
	if len(stops) > 0 {
		return stops
	}
	return platforms
}

// baseRouteID picks ref, then name, then relation/<id>.
func baseRouteID(r routeRelation) string {
	if r.Ref != "" {
		return r.Ref
	}
	if r.Name != "" {
		return r.Name
	}
	return "relation/" + strconv.FormatInt(int64(r.ID), 10)
}

func stopName(id osm.NodeID, n stopNode) string {
	if n.Name != "" {
		return n.Name
	}
	return "node/" + strconv.FormatInt(int64(id), 10)
}

// assemble turns collected relations and stop nodes into routes.
func assemble(rels []routeRelation, nodes map[osm.NodeID]stopNode, bbox geo.BBox) *Result {
	res := &Result{}
	useBBox := !bbox.IsZero()
	usedIDs := make(map[string]bool, len(rels))

	for _, rel := range rels {
		id := baseRouteID(rel)
		if usedIDs[id] {
			id = id + "-" + strconv.FormatInt(int64(rel.ID), 10)
		}
		usedIDs[id] = true

		route := transit.Route{ID: id}
		for _, nid := range rel.Stops {
			n, ok := nodes[nid]
			if !ok {
				res.MissingStops++
				continue
			}
			if useBBox && !bbox.Contains(n.Lat, n.Lon) {
				res.OutsideBBox++
				continue
			}
			route.Stops = append(route.Stops, transit.Stop{Name: stopName(nid, n), Lat: n.Lat, Lon: n.Lon})
		}
		if len(route.Stops) == 0 {
			res.EmptyRoutes++
			continue
		}
		res.Routes = append(res.Routes, route)
	}
	return res
}

// Extract reads an OSM PBF file and returns its public transport routes with
// their stops in relation member order. The reader is consumed twice (seeks
// back to start for the second pass), so it must implement io.ReadSeeker.
func Extract(ctx context.Context, rs io.ReadSeeker, opts ...ExtractOptions) (*Result, error) {
	var opt ExtractOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	types := routeTypeSet(opt.RouteTypes)

	// Pass 1: Scan relations to collect routes and their stop node IDs.
	referencedNodes := make(map[osm.NodeID]struct{})
	var rels []routeRelation

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipWays = true

	for scanner.Scan() {
		r, ok := scanner.Object().(*osm.Relation)
		if !ok {
			continue
		}
		if !isTransitRoute(r.Tags, types) {
			continue
		}

		stops := stopMembers(r.Members)
		if len(stops) == 0 {
			continue
		}
		for _, id := range stops {
			referencedNodes[id] = struct{}{}
		}

		rels = append(rels, routeRelation{
			ID:    r.ID,
			Ref:   r.Tags.Find("ref"),
			Name:  r.Tags.Find("name"),
			Stops: stops,
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (relations): %w", err)
	}
	scanner.Close()

	log.Printf("Pass 1 complete: %d routes, %d referenced stops", len(rels), len(referencedNodes))

	// Pass 2: Scan nodes to collect coordinates and names of stops only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodes := make(map[osm.NodeID]stopNode, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodes[n.ID] = stopNode{Lat: n.Lat, Lon: n.Lon, Name: n.Tags.Find("name")}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	log.Printf("Pass 2 complete: %d stop coordinates collected", len(nodes))

	res := assemble(rels, nodes, opt.BBox)

	if res.MissingStops > 0 {
		log.Printf("Warning: dropped %d stops without coordinates", res.MissingStops)
	}
	if res.OutsideBBox > 0 {
		log.Printf("Filtered %d stops outside bounding box", res.OutsideBBox)
	}
	if res.EmptyRoutes > 0 {
		log.Printf("Skipped %d routes without stops", res.EmptyRoutes)
	}
	log.Printf("Extracted %d routes", len(res.Routes))

	return res, nil
}

// Stops flattens the routes into unique stops keyed by name, first
// occurrence wins, in route order.
func Stops(routes []transit.Route) []transit.Stop {
	seen := make(map[string]struct{})
	var out []transit.Stop
	for _, r := range routes {
		for _, s := range r.Stops {
			if _, dup := seen[s.Name]; dup {
				continue
			}
			seen[s.Name] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

package transit

import (
	"context"
	"log"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/graph"
)

// BuildRouteNetwork turns route stop sequences into a directed network.
// Each stop becomes a node keyed by its name (a stop on several routes keeps
// the routeId of the last route added) and consecutive stops are joined by
// an isRoute edge. Edge distance comes from m; if the lookup fails the edge
// is kept without a distance.
func BuildRouteNetwork(ctx context.Context, routes []Route, m geo.Measurer) (*graph.Graph, error) {
	g := graph.New(true)
	var failed int

	for _, r := range routes {
		var prev *Stop
		for i := range r.Stops {
			s := &r.Stops[i]
			g.AddNode(graph.Node{
				ID:  s.Name,
				Lat: s.Lat,
				Lon: s.Lon,
				Attrs: graph.Attrs{
					graph.AttrRouteID: r.ID,
				},
			})

			if prev != nil {
				attrs := graph.Attrs{
					graph.AttrIsRoute:      true,
					graph.AttrIsRouteShift: false,
				}
				d, err := m.Distance(ctx,
					geo.LatLng{Lat: prev.Lat, Lng: prev.Lon},
					geo.LatLng{Lat: s.Lat, Lng: s.Lon})
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					failed++
					log.Printf("Warning: route %s: distance %s -> %s unavailable: %v", r.ID, prev.Name, s.Name, err)
				} else {
					attrs[graph.AttrDistance] = d
				}
				if err := g.AddEdge(prev.Name, s.Name, attrs); err != nil {
					return nil, err
				}
			}
			prev = s
		}
	}

	if failed > 0 {
		log.Printf("Warning: %d route edges have no distance", failed)
	}
	return g, nil
}

// PlaceStop is a stop found by a places search.
type PlaceStop struct {
	PlaceID      string
	Name         string
	Lat          float64
	Lon          float64
	CompoundCode string
	Vicinity     string
}

// StopGraph returns an undirected graph with one node per stop, keyed by
// place ID and labelled with the stop name. Stops sharing a name stay
// separate nodes.
func StopGraph(stops []PlaceStop) *graph.Graph {
	g := graph.New(false)
	for _, s := range stops {
		g.AddNode(graph.Node{
			ID:    s.PlaceID,
			Label: s.Name,
			Lat:   s.Lat,
			Lon:   s.Lon,
			Attrs: graph.Attrs{
				"name":          s.Name,
				"compound_code": s.CompoundCode,
				"vicinity":      s.Vicinity,
			},
		})
	}
	return g
}

// BuildStopMesh creates an undirected graph over stops keyed by place ID and
// connects every pair whose distance lookup succeeds. Edges carry distance,
// is_route=false, an empty route_id and zero fare.
func BuildStopMesh(ctx context.Context, stops []PlaceStop, m geo.Measurer) (*graph.Graph, error) {
	g := StopGraph(stops)
	log.Printf("%d nodes have been added to the graph", g.NumNodes())

	for i := range g.Nodes {
		for j := i + 1; j < len(g.Nodes); j++ {
			u, v := g.Nodes[i], g.Nodes[j]
			d, err := m.Distance(ctx, geo.LatLng{Lat: u.Lat, Lng: u.Lon}, geo.LatLng{Lat: v.Lat, Lng: v.Lon})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Printf("Warning: distance %s -> %s unavailable: %v", u.ID, v.ID, err)
				continue
			}
			if err := g.AddEdge(u.ID, v.ID, graph.Attrs{
				graph.AttrDistance: d,
				"is_route":         false,
				"route_id":         "",
				"fare":             0,
			}); err != nil {
				return nil, err
			}
		}
	}
	log.Printf("%d edges have been added to the graph", g.NumEdges())
	return g, nil
}

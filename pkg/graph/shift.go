package graph

import (
	"context"
	"log"
	"math"

	"mobility_graph/pkg/geo"
)

// ShiftEdge is a route-shift connection chosen by AddRouteShiftEdges.
type ShiftEdge struct {
	From     string
	To       string
	Distance float64
}

// AddRouteShiftEdges links every weakly connected component to its nearest
// neighbouring component. For each component the pair (u in the component,
// v outside it) with the smallest measured distance becomes an edge u -> v
// tagged isRouteShift. Components are computed once, before any edge is
// added. Pairs whose measurement fails are skipped.
func AddRouteShiftEdges(ctx context.Context, g *Graph, m geo.Measurer) ([]ShiftEdge, error) {
	comps := WeaklyConnectedComponents(g)
	if len(comps) < 2 {
		return nil, nil
	}

	var shifts []ShiftEdge
	for ci, src := range comps {
		bestDist := math.Inf(1)
		bestU, bestV := -1, -1

		for _, u := range src {
			from := geo.LatLng{Lat: g.Nodes[u].Lat, Lng: g.Nodes[u].Lon}
			for cj, dst := range comps {
				if ci == cj {
					continue
				}
				for _, v := range dst {
					if err := ctx.Err(); err != nil {
						return shifts, err
					}
					to := geo.LatLng{Lat: g.Nodes[v].Lat, Lng: g.Nodes[v].Lon}
					d, err := m.Distance(ctx, from, to)
					if err != nil {
						log.Printf("Warning: distance %s -> %s unavailable: %v", g.Nodes[u].ID, g.Nodes[v].ID, err)
						continue
					}
					if d < bestDist {
						bestDist = d
						bestU, bestV = u, v
					}
				}
			}
		}

		if bestU < 0 {
			log.Printf("Warning: no route shift found for component %d (%d nodes)", ci, len(src))
			continue
		}
		shifts = append(shifts, ShiftEdge{
			From:     g.Nodes[bestU].ID,
			To:       g.Nodes[bestV].ID,
			Distance: bestDist,
		})
	}

	for _, s := range shifts {
		u, _ := g.NodeIndex(s.From)
		v, _ := g.NodeIndex(s.To)
		g.addEdgeIdx(u, v, Attrs{
			AttrDistance:     s.Distance,
			AttrIsRouteShift: true,
			AttrIsRoute:      false,
		})
	}
	return shifts, nil
}

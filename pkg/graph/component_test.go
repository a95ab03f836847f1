package graph

import (
	"context"
	"errors"
	"math"
	"testing"

	"mobility_graph/pkg/geo"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	// Initially all separate.
	for i := range 5 {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	uf.Union(0, 1)
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should be in same set")
	}

	uf.Union(2, 3)
	if uf.Find(2) != uf.Find(3) {
		t.Error("2 and 3 should be in same set")
	}

	if uf.Find(0) == uf.Find(2) {
		t.Error("0 and 2 should be in different sets")
	}

	if !uf.Union(1, 3) {
		t.Error("Union(1, 3) should merge two sets")
	}
	if uf.Union(0, 2) {
		t.Error("Union(0, 2) should report already merged")
	}
	if uf.Size(3) != 4 {
		t.Errorf("Size(3) = %d, want 4", uf.Size(3))
	}
}

// twoLines builds two directed route lines that never touch:
// r1: a -> b -> c  and  r2: d -> e
func twoLines() *Graph {
	g := New(true)
	g.AddNode(Node{ID: "a", Lat: 0, Lon: 0})
	g.AddNode(Node{ID: "b", Lat: 0, Lon: 0.01})
	g.AddNode(Node{ID: "c", Lat: 0, Lon: 0.02})
	g.AddNode(Node{ID: "d", Lat: 0.001, Lon: 0.025})
	g.AddNode(Node{ID: "e", Lat: 0.001, Lon: 0.04})
	g.AddEdge("a", "b", Attrs{AttrIsRoute: true})
	g.AddEdge("b", "c", Attrs{AttrIsRoute: true})
	g.AddEdge("e", "d", Attrs{AttrIsRoute: true})
	return g
}

func TestWeaklyConnectedComponents(t *testing.T) {
	comps := WeaklyConnectedComponents(twoLines())
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	if len(comps[0]) != 3 || len(comps[1]) != 2 {
		t.Errorf("component sizes = %d, %d; want 3, 2", len(comps[0]), len(comps[1]))
	}
	// Direction is ignored: e -> d still joins d and e.
	if comps[1][0] != 3 || comps[1][1] != 4 {
		t.Errorf("second component = %v, want [3 4]", comps[1])
	}
}

func TestLargestComponent(t *testing.T) {
	nodes := LargestComponent(twoLines())
	if len(nodes) != 3 {
		t.Fatalf("LargestComponent has %d nodes, want 3", len(nodes))
	}
}

func TestComponentsEmptyGraph(t *testing.T) {
	g := New(true)
	if comps := WeaklyConnectedComponents(g); comps != nil {
		t.Errorf("expected nil for empty graph, got %v", comps)
	}
	if nodes := LargestComponent(g); nodes != nil {
		t.Errorf("expected nil for empty graph, got %v", nodes)
	}
}

func TestAddRouteShiftEdges(t *testing.T) {
	g := twoLines()
	shifts, err := AddRouteShiftEdges(context.Background(), g, geo.HaversineMeasurer{})
	if err != nil {
		t.Fatal(err)
	}
	if len(shifts) != 2 {
		t.Fatalf("got %d shifts, want 2", len(shifts))
	}

	// c and d are the closest pair across the two lines, from either side.
	if shifts[0].From != "c" || shifts[0].To != "d" {
		t.Errorf("first shift = %s -> %s, want c -> d", shifts[0].From, shifts[0].To)
	}
	if shifts[1].From != "d" || shifts[1].To != "c" {
		t.Errorf("second shift = %s -> %s, want d -> c", shifts[1].From, shifts[1].To)
	}
	want := geo.Haversine(0, 0.02, 0.001, 0.025)
	if math.Abs(shifts[0].Distance-want) > 1e-6 {
		t.Errorf("distance = %f, want %f", shifts[0].Distance, want)
	}

	attrs, ok := g.EdgeAttrs("c", "d")
	if !ok {
		t.Fatal("shift edge c -> d not added")
	}
	if v, _ := attrs.Bool(AttrIsRouteShift); !v {
		t.Error("isRouteShift should be true")
	}
	if v, _ := attrs.Bool(AttrIsRoute); v {
		t.Error("isRoute should be false")
	}
	if g.NumEdges() != 5 {
		t.Errorf("NumEdges = %d, want 5", g.NumEdges())
	}
}

func TestAddRouteShiftEdgesSingleComponent(t *testing.T) {
	g := triangle(true)
	shifts, err := AddRouteShiftEdges(context.Background(), g, geo.HaversineMeasurer{})
	if err != nil {
		t.Fatal(err)
	}
	if len(shifts) != 0 || g.NumEdges() != 3 {
		t.Errorf("single component should get no shifts, got %v", shifts)
	}
}

// flakyMeasurer fails for every pair that starts at node coordinate failLng.
type flakyMeasurer struct{ failLng float64 }

func (f flakyMeasurer) Distance(ctx context.Context, a, b geo.LatLng) (float64, error) {
	if a.Lng == f.failLng || b.Lng == f.failLng {
		return 0, errors.New("quota exceeded")
	}
	return geo.Haversine(a.Lat, a.Lng, b.Lat, b.Lng), nil
}

func TestAddRouteShiftEdgesSkipsFailedPairs(t *testing.T) {
	g := twoLines()
	// Every pair touching c fails, so the next best pair must win.
	shifts, err := AddRouteShiftEdges(context.Background(), g, flakyMeasurer{failLng: 0.02})
	if err != nil {
		t.Fatal(err)
	}
	if len(shifts) != 2 {
		t.Fatalf("got %d shifts, want 2", len(shifts))
	}
	if shifts[0].From != "b" || shifts[0].To != "d" {
		t.Errorf("first shift = %s -> %s, want b -> d", shifts[0].From, shifts[0].To)
	}
}

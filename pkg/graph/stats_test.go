package graph

import (
	"math"
	"testing"
)

func odGraph() *Graph {
	g := New(true)
	for _, id := range []string{"G-6", "F-7", "I-8", "Saddar"} {
		g.AddNode(Node{ID: id})
	}
	g.AddEdge("G-6", "F-7", Attrs{AttrPercentTravelers: 12.5, AttrGoogle: 4.2})
	g.AddEdge("F-7", "G-6", Attrs{AttrPercentTravelers: 8.0, AttrGoogle: 4.4})
	g.AddEdge("G-6", "I-8", Attrs{AttrPercentTravelers: 3.0, AttrGoogle: 15.9})
	g.AddEdge("Saddar", "I-8", Attrs{AttrPercentTravelers: 1.0})
	return g
}

func TestDescribe(t *testing.T) {
	c := Describe(odGraph())

	if c.Nodes != 4 || c.Edges != 4 || c.ValidEdges != 4 {
		t.Fatalf("got %+v", c)
	}
	// Undirected view: {G-6,F-7}, {G-6,I-8}, {Saddar,I-8} over 4 nodes.
	if math.Abs(c.Density-0.5) > 1e-9 {
		t.Errorf("Density = %f, want 0.5", c.Density)
	}
	if math.Abs(c.AvgDegree-1.5) > 1e-9 {
		t.Errorf("AvgDegree = %f, want 1.5", c.AvgDegree)
	}
}

func TestSetEdgeValidityAndPrune(t *testing.T) {
	g := odGraph()
	SetEdgeValidity(g, AttrGoogle, MaxFloat(11.48))

	c := Describe(g)
	if c.ValidEdges != 2 {
		t.Fatalf("ValidEdges = %d, want 2", c.ValidEdges)
	}
	// Only G-6 and F-7 touch a valid edge.
	if math.Abs(c.Density-1) > 1e-9 || math.Abs(c.AvgDegree-1) > 1e-9 {
		t.Errorf("Density = %f AvgDegree = %f, want 1 and 1", c.Density, c.AvgDegree)
	}

	// Missing attribute means invalid.
	attrs, _ := g.EdgeAttrs("Saddar", "I-8")
	if v, ok := attrs.Bool(AttrIsValid); !ok || v {
		t.Errorf("edge without google_distance should be invalid, got %v", attrs)
	}

	removed := PruneInvalidEdges(g)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if g.NumEdges() != 2 {
		t.Fatalf("NumEdges = %d, want 2", g.NumEdges())
	}
	for _, e := range g.Edges {
		if _, ok := e.Attrs[AttrIsValid]; ok {
			t.Errorf("is_valid should be stripped, got %v", e.Attrs)
		}
	}
}

func TestDescribeEmpty(t *testing.T) {
	c := Describe(New(false))
	if c != (Characteristics{}) {
		t.Errorf("got %+v, want zero", c)
	}
}

func TestMaxFloat(t *testing.T) {
	cond := MaxFloat(10)
	if !cond(10.0) || !cond(3) || cond(10.5) || cond("7") {
		t.Error("MaxFloat condition misbehaves")
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"

	"mobility_graph/pkg/graph"
	"mobility_graph/pkg/graphio"
)

func main() {
	input := flag.String("input", "", "Graph file (.gexf or .graphml)")
	sample := flag.Int("sample", 5, "Number of random edges to print")
	seed := flag.Int64("seed", 1, "Random seed for the edge sample")
	stripEdges := flag.String("strip-edges", "", "Write a node-only copy of the graph to this path")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: graphinfo --input <graph.gexf|graph.graphml> [--sample 5] [--seed 1] [--strip-edges nodes.gexf]")
		os.Exit(1)
	}

	g, err := graphio.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read graph: %v", err)
	}

	c := graph.Describe(g)
	kind := "undirected"
	if g.Directed {
		kind = "directed"
	}
	fmt.Printf("%s (%s)\n", *input, kind)
	fmt.Printf("  Nodes:          %d\n", c.Nodes)
	fmt.Printf("  Edges:          %d\n", c.Edges)
	fmt.Printf("  Valid edges:    %d\n", c.ValidEdges)
	fmt.Printf("  Components:     %d\n", len(graph.WeaklyConnectedComponents(g)))
	fmt.Printf("  Density:        %.4f\n", c.Density)
	fmt.Printf("  Average degree: %.4f\n", c.AvgDegree)
	fmt.Printf("  Node attributes: %v\n", g.AttrKeys(true))
	fmt.Printf("  Edge attributes: %v\n", g.AttrKeys(false))

	if *sample > 0 && len(g.Edges) > 0 {
		rng := rand.New(rand.NewSource(*seed))
		idx := rng.Perm(len(g.Edges))
		if len(idx) > *sample {
			idx = idx[:*sample]
		}
		fmt.Printf("\nSample edges:\n")
		for _, i := range idx {
			e := g.Edges[i]
			u, v := g.Nodes[e.From], g.Nodes[e.To]
			fmt.Printf("  %s -> %s %s\n", u.ID, v.ID, formatAttrs(e.Attrs))
			fmt.Printf("    %s (%.6f, %.6f) %s\n", u.ID, u.Lat, u.Lon, formatAttrs(u.Attrs))
			fmt.Printf("    %s (%.6f, %.6f) %s\n", v.ID, v.Lat, v.Lon, formatAttrs(v.Attrs))
		}
	}

	if *stripEdges != "" {
		graph.ClearEdges(g)
		if err := graphio.WriteFile(*stripEdges, g); err != nil {
			log.Fatalf("Failed to write graph: %v", err)
		}
		log.Printf("Node-only graph with %d nodes written to %s", g.NumNodes(), *stripEdges)
	}
}

func formatAttrs(a graph.Attrs) string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := "{"
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %v", k, a[k])
	}
	return s + "}"
}

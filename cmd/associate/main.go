package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mobility_graph/pkg/config"
	"mobility_graph/pkg/graph"
	"mobility_graph/pkg/graphio"
	"mobility_graph/pkg/osm"
	"mobility_graph/pkg/tabular"
	"mobility_graph/pkg/transit"
)

func main() {
	cfg := config.Load()

	nodesPath := flag.String("nodes", "", "Node file: .gexf/.graphml graph or .csv with name,latitude,longitude")
	routesDir := flag.String("routes", "", "Directory with one <route id>.csv stop list per route")
	osmPath := flag.String("osm", "", "Read routes from an .osm.pbf extract instead of -routes")
	output := flag.String("output", "graph.gexf", "Output graph file (.gexf or .graphml)")
	threshold := flag.Float64("threshold", cfg.ProximityMeters, "Stop proximity threshold in meters")
	index := flag.Bool("index", false, "Use the R-tree matcher and inverted-index edge synthesis")
	flag.Parse()

	if *nodesPath == "" || (*routesDir == "" && *osmPath == "") {
		fmt.Fprintln(os.Stderr, "Usage: associate --nodes <graph|csv> (--routes <dir> | --osm <file.osm.pbf>) [--output graph.gexf] [--threshold 1000] [--index]")
		os.Exit(1)
	}
	if *threshold < 0 {
		log.Fatalf("Invalid threshold %v: must not be negative", *threshold)
	}
	if f := graphio.FormatOf(*output); f != graphio.GEXF && f != graphio.GraphML {
		log.Fatalf("Unsupported output %s: use .gexf or .graphml", *output)
	}

	start := time.Now()

	// Step 1: Load nodes.
	log.Printf("Loading nodes from %s...", *nodesPath)
	nodesGraph, err := loadNodes(*nodesPath)
	if err != nil {
		log.Fatalf("Failed to load nodes: %v", err)
	}
	nodes := transit.NodesFromGraph(nodesGraph)
	log.Printf("Loaded %d nodes", len(nodes))

	// Step 2: Load routes.
	routes, err := loadRoutes(*routesDir, *osmPath)
	if err != nil {
		log.Fatalf("Failed to load routes: %v", err)
	}
	log.Printf("Loaded %d routes", len(routes))

	// Step 3: Match nodes to routes.
	var finder transit.RouteFinder
	if *index {
		m := transit.NewIndexMatcher(routes, *threshold)
		log.Printf("Indexed %d stops", m.Len())
		finder = m
	} else {
		finder = transit.NewScanMatcher(routes, *threshold)
	}
	assoc := transit.Associate(nodes, finder)

	matched := 0
	for _, set := range assoc {
		if len(set) > 0 {
			matched++
		}
	}
	log.Printf("%d of %d nodes are within %.0f m of a route", matched, len(nodes), *threshold)

	// Step 4: Synthesize edges.
	var edges []transit.Edge
	if *index {
		edges = transit.SynthesizeEdgesIndexed(assoc)
	} else {
		edges = transit.SynthesizeEdges(assoc)
	}
	log.Printf("Synthesized %d edges", len(edges))

	// Step 5: Write graph.
	out, err := transit.WithEdges(nodesGraph, edges)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	log.Printf("Writing %s...", *output)
	if err := graphio.WriteFile(*output, out); err != nil {
		log.Fatalf("Failed to write graph: %v", err)
	}

	log.Printf("Done in %s. %d nodes, %d edges", time.Since(start).Round(time.Millisecond), out.NumNodes(), out.NumEdges())
}

func loadNodes(path string) (*graph.Graph, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		nodes, err := tabular.ReadNodesFile(path, tabular.Options{})
		if err != nil {
			return nil, err
		}
		return transit.GraphFromNodes(nodes), nil
	}
	return graphio.ReadFile(path)
}

func loadRoutes(dir, osmPath string) ([]transit.Route, error) {
	if osmPath == "" {
		log.Printf("Reading routes from %s...", dir)
		return tabular.ReadRoutesDir(dir, tabular.Options{})
	}

	log.Printf("Extracting routes from %s...", osmPath)
	f, err := os.Open(osmPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := osm.Extract(context.Background(), f)
	if err != nil {
		return nil, err
	}
	return res.Routes, nil
}

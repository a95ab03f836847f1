package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"mobility_graph/pkg/config"
	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/gmaps"
	"mobility_graph/pkg/graph"
	"mobility_graph/pkg/graphio"
	"mobility_graph/pkg/render"
	"mobility_graph/pkg/tabular"
	"mobility_graph/pkg/transit"
)

func main() {
	cfg := config.Load()

	routesDir := flag.String("routes", "", "Directory with one <route id>.csv stop list per route")
	output := flag.String("output", "network.graphml", "Output graph file (.graphml or .gexf)")
	distance := flag.String("distance", "haversine", "Edge distance source: haversine or driving")
	routeShift := flag.Bool("route-shift", false, "Link weakly connected components by their nearest walking pair")
	mapPath := flag.String("map", "", "Also render an HTML map to this path")
	apiKey := flag.String("api-key", cfg.GoogleAPIKey, "Google Maps API key (driving distances, route shift, map paths)")
	flag.Parse()

	if *routesDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: network --routes <dir> [--output network.graphml] [--distance haversine|driving] [--route-shift] [--map network.html]")
		os.Exit(1)
	}

	needsAPI := *distance == "driving" || *routeShift
	var client *gmaps.Client
	if needsAPI || *mapPath != "" {
		c, err := gmaps.NewClient(gmaps.Options{APIKey: *apiKey})
		switch {
		case err == nil:
			client = c
		case needsAPI:
			log.Fatalf("Google Maps client: %v", err)
		default:
			log.Printf("No Google Maps key, map edges are drawn as straight lines")
		}
	}

	var measurer geo.Measurer
	switch *distance {
	case "haversine":
		measurer = geo.HaversineMeasurer{}
	case "driving":
		measurer = client.Travel(gmaps.Driving)
	default:
		log.Fatalf("Unknown distance source %q: use haversine or driving", *distance)
	}

	ctx := context.Background()
	start := time.Now()

	// Step 1: Read routes.
	log.Printf("Reading routes from %s...", *routesDir)
	routes, err := tabular.ReadRoutesDir(*routesDir, tabular.Options{})
	if err != nil {
		log.Fatalf("Failed to read routes: %v", err)
	}
	log.Printf("Read %d routes", len(routes))

	// Step 2: Build the route network.
	g, err := transit.BuildRouteNetwork(ctx, routes, measurer)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}
	log.Printf("Network: %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	// Step 3: Route shift between components.
	if *routeShift {
		comps := graph.WeaklyConnectedComponents(g)
		log.Printf("Adding route shift edges between %d components...", len(comps))
		shifts, err := graph.AddRouteShiftEdges(ctx, g, client.Travel(gmaps.Walking))
		if err != nil {
			log.Fatalf("Route shift failed: %v", err)
		}
		for _, s := range shifts {
			log.Printf("  %s -> %s (%.0f m)", s.From, s.To, s.Distance)
		}
		log.Printf("Added %d route shift edges", len(shifts))
	}

	// Step 4: Write outputs.
	log.Printf("Writing %s...", *output)
	if err := graphio.WriteFile(*output, g); err != nil {
		log.Fatalf("Failed to write graph: %v", err)
	}

	if *mapPath != "" {
		opts := render.Options{Title: "Route network"}
		if client != nil {
			opts.RoutePather = client.Travel(gmaps.Driving)
			opts.ShiftPather = client.Travel(gmaps.Walking)
		}
		if err := writeMap(ctx, *mapPath, g, opts); err != nil {
			log.Fatalf("Failed to write map: %v", err)
		}
		log.Printf("Map written to %s", *mapPath)
	}

	log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
}

func writeMap(ctx context.Context, path string, g *graph.Graph, opts render.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.Map(ctx, f, g, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

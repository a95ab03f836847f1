package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"mobility_graph/pkg/config"
	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/gmaps"
	"mobility_graph/pkg/graphio"
	"mobility_graph/pkg/osm"
	"mobility_graph/pkg/render"
	"mobility_graph/pkg/tabular"
	"mobility_graph/pkg/transit"
)

func main() {
	cfg := config.Load()

	osmPath := flag.String("osm", "", "Extract route stop lists from an .osm.pbf file")
	bbox := flag.String("bbox", "", "Bounding box filter for -osm: minLat,minLng,maxLat,maxLng")
	routesDir := flag.String("routes", "routes", "Output directory for -osm route files")
	crawl := flag.Bool("crawl", false, "Crawl Google Places for stops on a grid")
	mesh := flag.String("mesh", "", "Build a driving-distance mesh from a '|' delimited stop file")
	output := flag.String("output", "", "Output file (stops.csv for -osm and -crawl, stops.graphml for -mesh)")
	mapPath := flag.String("map", "", "Render crawled stops and the grid outline to an HTML map")
	apiKey := flag.String("api-key", cfg.GoogleAPIKey, "Google Maps API key")
	startLat := flag.Float64("start-lat", cfg.CrawlStartLat, "Grid start latitude (south-west corner)")
	startLng := flag.Float64("start-lng", cfg.CrawlStartLng, "Grid start longitude (south-west corner)")
	intervals := flag.Int("intervals", cfg.CrawlIntervals, "Grid points per side")
	step := flag.Float64("step-km", cfg.CrawlStepKm, "Grid step in km")
	radius := flag.Int("radius", cfg.CrawlRadiusMeters, "Search radius in meters")
	keyword := flag.String("keyword", cfg.CrawlKeyword, "Search keyword")
	locality := flag.String("locality", cfg.CrawlLocality, "Keep places whose address mentions this locality")
	flag.Parse()

	modes := 0
	for _, on := range []bool{*osmPath != "", *crawl, *mesh != ""} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "Usage: stops (--osm <file.osm.pbf> [--bbox minLat,minLng,maxLat,maxLng] [--routes dir] | --crawl [--map stops.html] | --mesh <stops.csv>) [--output file]")
		os.Exit(1)
	}

	ctx := context.Background()
	start := time.Now()

	switch {
	case *osmPath != "":
		out := orDefault(*output, "stops.csv")
		extractOSM(ctx, *osmPath, *bbox, *routesDir, out)
	case *crawl:
		client := newClient(*apiKey)
		origins := geo.GridOrigins(geo.LatLng{Lat: *startLat, Lng: *startLng}, *intervals, *step)
		search := gmaps.NearbySearch{Radius: uint(*radius), Keyword: *keyword, Locality: *locality}
		log.Printf("Searching %d grid points for %q within %d m...", len(origins), *keyword, *radius)
		stops, err := client.CrawlStops(ctx, origins, search)
		if err != nil {
			log.Fatalf("Crawl interrupted: %v", err)
		}
		out := orDefault(*output, "stops.csv")
		if err := tabular.WritePlaceStopsFile(out, stops); err != nil {
			log.Fatalf("Failed to write stops: %v", err)
		}
		log.Printf("Wrote %d unique stops to %s", len(stops), out)
		if *mapPath != "" {
			writeCrawlMap(ctx, *mapPath, stops, geo.GridCorners(origins, *intervals))
		}
	case *mesh != "":
		client := newClient(*apiKey)
		stops, err := tabular.ReadPlaceStopsFile(*mesh)
		if err != nil {
			log.Fatalf("Failed to read stops: %v", err)
		}
		g, err := transit.BuildStopMesh(ctx, stops, client.Travel(gmaps.Driving))
		if err != nil {
			log.Fatalf("Failed to build mesh: %v", err)
		}
		out := orDefault(*output, "stops.graphml")
		if err := graphio.WriteFile(out, g); err != nil {
			log.Fatalf("Failed to write graph: %v", err)
		}
		log.Printf("Wrote %s", out)
	}

	log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func newClient(key string) *gmaps.Client {
	c, err := gmaps.NewClient(gmaps.Options{APIKey: key})
	if err != nil {
		log.Fatalf("Google Maps client: %v", err)
	}
	return c
}

func extractOSM(ctx context.Context, path, bbox, routesDir, output string) {
	var opts osm.ExtractOptions
	if bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = geo.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	log.Println("Opening OSM file...")
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	res, err := osm.Extract(ctx, f, opts)
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}

	if err := tabular.WriteRoutesDir(routesDir, res.Routes); err != nil {
		log.Fatalf("Failed to write routes: %v", err)
	}
	log.Printf("Wrote %d route files to %s", len(res.Routes), routesDir)

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	out, err := os.Create(output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", output, err)
	}
	stops := osm.Stops(res.Routes)
	if err := tabular.WriteRoute(out, transit.Route{Stops: stops}); err != nil {
		out.Close()
		log.Fatalf("Failed to write stops: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("Failed to write stops: %v", err)
	}
	log.Printf("Wrote %d unique stops to %s", len(stops), output)
}

func writeCrawlMap(ctx context.Context, path string, stops []transit.PlaceStop, outline []geo.LatLng) {
	g := transit.StopGraph(stops)
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create map: %v", err)
	}
	defer f.Close()
	opts := render.Options{Title: "Crawled stops", NodeRadius: 50, Outline: outline}
	if err := render.Map(ctx, f, g, opts); err != nil {
		log.Fatalf("Failed to write map: %v", err)
	}
	log.Printf("Map written to %s", path)
}

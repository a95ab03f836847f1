package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"mobility_graph/pkg/config"
	"mobility_graph/pkg/gmaps"
	"mobility_graph/pkg/graph"
	"mobility_graph/pkg/graphio"
	"mobility_graph/pkg/render"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", "", "Graph file (.gexf or .graphml)")
	htmlOut := flag.String("html", "", "Write a Leaflet HTML map")
	kmlOut := flag.String("kml", "", "Write a KML file")
	geojsonOut := flag.String("geojson", "", "Write a GeoJSON feature collection")
	paths := flag.Bool("paths", false, "Draw isRoute edges along driving paths and isRouteShift edges along walking paths")
	port := flag.Int("port", 0, "Serve the map and GeoJSON on this HTTP port")
	flag.Parse()

	if *input == "" || (*htmlOut == "" && *kmlOut == "" && *geojsonOut == "" && *port == 0) {
		fmt.Fprintln(os.Stderr, "Usage: visualize --input <graph> [--html map.html] [--kml graph.kml] [--geojson graph.geojson] [--paths] [--port 3000]")
		os.Exit(1)
	}

	g, err := graphio.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read graph: %v", err)
	}
	log.Printf("Loaded %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	opts := render.Options{Title: *input}
	if *paths {
		client, err := gmaps.NewClient(gmaps.Options{APIKey: cfg.GoogleAPIKey})
		if err != nil {
			log.Println("WARNING: GOOGLE_API_KEY not set; edges are drawn as straight lines")
		} else {
			opts.RoutePather = client.Travel(gmaps.Driving)
			opts.ShiftPather = client.Travel(gmaps.Walking)
		}
	}

	var page []byte
	if *htmlOut != "" || *port != 0 {
		var buf bytes.Buffer
		if err := render.Map(context.Background(), &buf, g, opts); err != nil {
			log.Fatalf("Failed to render map: %v", err)
		}
		page = buf.Bytes()
	}

	if *htmlOut != "" {
		if err := os.WriteFile(*htmlOut, page, 0o644); err != nil {
			log.Fatalf("Failed to write map: %v", err)
		}
		log.Printf("Map written to %s", *htmlOut)
	}
	exports := []struct {
		path   string
		format graphio.Format
	}{
		{*kmlOut, graphio.KML},
		{*geojsonOut, graphio.GeoJSON},
	}
	for _, ex := range exports {
		if ex.path == "" {
			continue
		}
		if err := export(ex.path, g, ex.format); err != nil {
			log.Fatalf("Failed to export %s: %v", ex.format, err)
		}
		log.Printf("Exported %s", ex.path)
	}

	if *port != 0 {
		serve(*port, page, g)
	}
}

func export(path string, g *graph.Graph, format graphio.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := graphio.Write(f, g, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func serve(port int, page []byte, g *graph.Graph) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})
	mux.HandleFunc("/graph.geojson", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		if err := graphio.WriteGeoJSON(w, g); err != nil {
			log.Printf("geojson: %v", err)
		}
	})

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Visualize server starting on http://localhost:%d", port)
	log.Fatal(http.ListenAndServe(addr, mux))
}

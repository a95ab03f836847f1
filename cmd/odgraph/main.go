package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"mobility_graph/pkg/config"
	"mobility_graph/pkg/graph"
	"mobility_graph/pkg/graphio"
	"mobility_graph/pkg/render"
	"mobility_graph/pkg/spreadsheet"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", "", "OD workbook (.xlsx) with Matrix and Area_Coordinates sheets")
	validate := flag.Bool("validate", false, "Mark edges by google_distance against -max-google-km")
	maxGoogle := flag.Float64("max-google-km", cfg.MaxGoogleKm, "Largest valid google_distance in km")
	prune := flag.Bool("prune", false, "Remove invalid edges before writing")
	xlsxOut := flag.String("xlsx", "", "Write the graph back as an OD workbook")
	graphOut := flag.String("output", "", "Write the graph file (.gexf or .graphml)")
	mapPath := flag.String("map", "", "Render an HTML map")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: odgraph --input <od.xlsx> [--validate [--max-google-km 11.48]] [--prune] [--xlsx out.xlsx] [--output od.gexf] [--map od.html]")
		os.Exit(1)
	}

	log.Printf("Reading %s...", *input)
	od, err := spreadsheet.ReadODMatrix(*input)
	if err != nil {
		log.Fatalf("Failed to read workbook: %v", err)
	}
	log.Printf("Read %d areas, %d traveler cells", len(od.Areas), od.Travelers.Len())

	g, err := od.Graph()
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	printCharacteristics("Graph", g)

	if *validate {
		graph.SetEdgeValidity(g, graph.AttrGoogle, graph.MaxFloat(*maxGoogle))
		printCharacteristics(fmt.Sprintf("Valid edges (google_distance <= %v km)", *maxGoogle), g)
	}
	if *prune {
		removed := graph.PruneInvalidEdges(g)
		log.Printf("Pruned %d invalid edges", removed)
	}

	if *xlsxOut != "" {
		if err := spreadsheet.WriteODMatrix(*xlsxOut, g); err != nil {
			log.Fatalf("Failed to write workbook: %v", err)
		}
		log.Printf("Workbook written to %s", *xlsxOut)
	}
	if *graphOut != "" {
		if err := graphio.WriteFile(*graphOut, g); err != nil {
			log.Fatalf("Failed to write graph: %v", err)
		}
		log.Printf("Graph written to %s", *graphOut)
	}
	if *mapPath != "" {
		f, err := os.Create(*mapPath)
		if err != nil {
			log.Fatalf("Failed to create map: %v", err)
		}
		if err := render.Map(context.Background(), f, g, render.Options{Title: "OD graph"}); err != nil {
			f.Close()
			log.Fatalf("Failed to write map: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write map: %v", err)
		}
		log.Printf("Map written to %s", *mapPath)
	}
}

func printCharacteristics(title string, g *graph.Graph) {
	c := graph.Describe(g)
	fmt.Printf("%s:\n", title)
	fmt.Printf("  Nodes:          %d\n", c.Nodes)
	fmt.Printf("  Edges:          %d\n", c.Edges)
	fmt.Printf("  Valid edges:    %d\n", c.ValidEdges)
	fmt.Printf("  Density:        %.4f\n", c.Density)
	fmt.Printf("  Average degree: %.4f\n", c.AvgDegree)
}

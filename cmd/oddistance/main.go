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
	"mobility_graph/pkg/spreadsheet"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", "", "OD pair table (.csv or .xlsx) with HOME_/WORK_ LATITUDE/LONGITUDE columns")
	sheet := flag.String("sheet", "", "Workbook sheet (first sheet when empty)")
	output := flag.String("output", "od_distances.csv", "Output CSV path")
	traveling := flag.Bool("traveling", false, "Also look up driving distances via the Distance Matrix API")
	apiKey := flag.String("api-key", cfg.GoogleAPIKey, "Google Maps API key")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: oddistance --input <pairs.csv|pairs.xlsx> [--sheet name] [--output od_distances.csv] [--traveling]")
		os.Exit(1)
	}

	var travel geo.Measurer
	if *traveling {
		client, err := gmaps.NewClient(gmaps.Options{APIKey: *apiKey})
		if err != nil {
			log.Fatalf("Google Maps client: %v", err)
		}
		travel = client.Travel(gmaps.Driving)
	}

	start := time.Now()

	log.Printf("Reading %s...", *input)
	t, err := spreadsheet.ReadTable(*input, *sheet)
	if err != nil {
		log.Fatalf("Failed to read table: %v", err)
	}
	log.Printf("Read %d pairs", len(t.Rows))

	if err := spreadsheet.AddPairDistances(context.Background(), t, travel); err != nil {
		log.Fatalf("Failed to compute distances: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		log.Fatalf("Failed to write output: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	log.Printf("Done in %s. Output: %s", time.Since(start).Round(time.Millisecond), *output)
}

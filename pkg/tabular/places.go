package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"mobility_graph/pkg/transit"
)

// PlaceDelimiter separates columns in crawled stop files; stop names often
// contain commas.
const PlaceDelimiter = '|'

// placeRecord is a row of a crawled stop file. Coordinates stay strings,
// as in coordRecord.
type placeRecord struct {
	PlaceID      string `csv:"place_id"`
	Name         string `csv:"name"`
	Latitude     string `csv:"latitude"`
	Longitude    string `csv:"longitude"`
	CompoundCode string `csv:"compound_code"`
	Vicinity     string `csv:"vicinity"`
}

func pipeWriter(w io.Writer) *gocsv.SafeCSVWriter {
	cw := csv.NewWriter(w)
	cw.Comma = PlaceDelimiter
	return gocsv.NewSafeCSVWriter(cw)
}

// WritePlaceStops writes stops as a '|' delimited file.
func WritePlaceStops(w io.Writer, stops []transit.PlaceStop) error {
	recs := make([]placeRecord, len(stops))
	for i, s := range stops {
		recs[i] = placeRecord{
			PlaceID:      s.PlaceID,
			Name:         s.Name,
			Latitude:     strconv.FormatFloat(s.Lat, 'f', -1, 64),
			Longitude:    strconv.FormatFloat(s.Lon, 'f', -1, 64),
			CompoundCode: s.CompoundCode,
			Vicinity:     s.Vicinity,
		}
	}
	return gocsv.MarshalCSV(&recs, pipeWriter(w))
}

// WritePlaceStopsFile writes stops to path.
func WritePlaceStopsFile(path string, stops []transit.PlaceStop) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePlaceStops(f, stops); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPlaceStops reads a file written by WritePlaceStops.
func ReadPlaceStops(in io.Reader) ([]transit.PlaceStop, error) {
	rows, lines, err := readRows(in, Options{Comma: PlaceDelimiter})
	if err != nil {
		return nil, fmt.Errorf("read place stops: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := hasColumns(rows[0], "place_id", "name", "latitude", "longitude"); err != nil {
		return nil, fmt.Errorf("read place stops: %w", err)
	}
	if len(rows) == 1 {
		return nil, nil
	}
	var recs []placeRecord
	if err := gocsv.UnmarshalCSV(&rowsReader{rows: rows}, &recs); err != nil {
		return nil, fmt.Errorf("read place stops: %w", err)
	}
	stops := make([]transit.PlaceStop, len(recs))
	for i, r := range recs {
		pos := coordRecord{Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude}
		lat, lon, err := pos.coords(lines[i+1])
		if err != nil {
			return nil, fmt.Errorf("read place stops: %w", err)
		}
		stops[i] = transit.PlaceStop{
			PlaceID:      r.PlaceID,
			Name:         r.Name,
			Lat:          lat,
			Lon:          lon,
			CompoundCode: r.CompoundCode,
			Vicinity:     r.Vicinity,
		}
	}
	return stops, nil
}

// ReadPlaceStopsFile reads crawled stops from path.
func ReadPlaceStopsFile(path string) ([]transit.PlaceStop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPlaceStops(f)
}

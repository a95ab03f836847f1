// Package tabular reads and writes the CSV files exchanged by the tools:
// node/stop coordinate lists, one-file-per-route stop sequences and crawled
// place stops.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/transit"
)

// ErrBadCoordinate is returned for unparseable or out-of-range coordinates.
var ErrBadCoordinate = errors.New("bad coordinate")

// Options controls CSV dialect.
type Options struct {
	Comma rune // field delimiter, ',' when zero
}

// column is the canonical column a header stands for. Lower rank wins when
// several headers stand for the same column.
type column struct {
	name string
	rank int
}

// headerAliases maps normalized header names onto the canonical columns.
var headerAliases = map[string]column{
	"id":         {"name", 0},
	"node":       {"name", 0},
	"name":       {"name", 1},
	"stop name":  {"name", 1},
	"stop_name":  {"name", 1},
	"place name": {"name", 1},
	"place_name": {"name", 1},
	"area":       {"name", 1},
	"place":      {"name", 2},
	"label":      {"name", 3},
	"latitude":   {"latitude", 0},
	"lat":        {"latitude", 1},
	"longitude":  {"longitude", 0},
	"lon":        {"longitude", 1},
	"lng":        {"longitude", 1},
	"long":       {"longitude", 1},
}

// coordRecord is a row of a node or stop file. Coordinates stay strings so
// an empty or malformed cell fails instead of defaulting to zero.
type coordRecord struct {
	Name      string `csv:"name"`
	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`
}

func (r coordRecord) coords(line int) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Latitude), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d (%s): %w: latitude %q", line, r.Name, ErrBadCoordinate, r.Latitude)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Longitude), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d (%s): %w: longitude %q", line, r.Name, ErrBadCoordinate, r.Longitude)
	}
	if !geo.ValidCoord(lat, lon) {
		return 0, 0, fmt.Errorf("line %d (%s): %w: (%v, %v) out of range", line, r.Name, ErrBadCoordinate, lat, lon)
	}
	return lat, lon, nil
}

// rowsReader feeds pre-read rows to gocsv.
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}

// readRows reads every record, skipping lines that start with '/', and
// normalizes the header onto canonical column names. lines holds the input
// line of each row. When several headers alias the same column the most
// specific one is kept and the others are blanked; two equally specific
// headers are an error.
func readRows(in io.Reader, opts Options) ([][]string, []int, error) {
	cr := csv.NewReader(in)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.Comment = '/'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	var lines []int
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	type pick struct{ idx, rank int }
	header := make([]string, len(rows[0]))
	chosen := make(map[string]pick)
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		col, ok := headerAliases[h]
		if !ok {
			header[i] = h
			continue
		}
		prev, seen := chosen[col.name]
		switch {
		case !seen:
		case col.rank == prev.rank:
			return nil, nil, fmt.Errorf("columns %q and %q both give %s", rows[0][prev.idx], rows[0][i], col.name)
		case col.rank > prev.rank:
			continue
		default:
			header[prev.idx] = ""
		}
		chosen[col.name] = pick{i, col.rank}
		header[i] = col.name
	}
	rows[0] = header
	return rows, lines, nil
}

func hasColumns(header []string, cols ...string) error {
	for _, c := range cols {
		found := false
		for _, h := range header {
			if h == c {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("missing column %q in header %v", c, header)
		}
	}
	return nil
}

// decodeCoords returns the records and the input line of each.
func decodeCoords(in io.Reader, opts Options) ([]coordRecord, []int, error) {
	rows, lines, err := readRows(in, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	if err := hasColumns(rows[0], "name", "latitude", "longitude"); err != nil {
		return nil, nil, err
	}
	if len(rows) == 1 {
		return nil, nil, nil
	}
	var recs []coordRecord
	if err := gocsv.UnmarshalCSV(&rowsReader{rows: rows}, &recs); err != nil {
		return nil, nil, err
	}
	return recs, lines[1:], nil
}

// ReadNodes reads name/latitude/longitude records as nodes.
func ReadNodes(in io.Reader, opts Options) ([]transit.Node, error) {
	recs, lines, err := decodeCoords(in, opts)
	if err != nil {
		return nil, fmt.Errorf("read nodes: %w", err)
	}
	nodes := make([]transit.Node, 0, len(recs))
	for i, r := range recs {
		lat, lon, err := r.coords(lines[i])
		if err != nil {
			return nil, fmt.Errorf("read nodes: %w", err)
		}
		nodes = append(nodes, transit.Node{ID: strings.TrimSpace(r.Name), Lat: lat, Lon: lon})
	}
	return nodes, nil
}

// ReadNodesFile reads nodes from a CSV file.
func ReadNodesFile(path string, opts Options) ([]transit.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	nodes, err := ReadNodes(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}

// ReadStops reads an ordered stop list.
func ReadStops(in io.Reader, opts Options) ([]transit.Stop, error) {
	recs, lines, err := decodeCoords(in, opts)
	if err != nil {
		return nil, fmt.Errorf("read stops: %w", err)
	}
	stops := make([]transit.Stop, 0, len(recs))
	for i, r := range recs {
		lat, lon, err := r.coords(lines[i])
		if err != nil {
			return nil, fmt.Errorf("read stops: %w", err)
		}
		stops = append(stops, transit.Stop{Name: strings.TrimSpace(r.Name), Lat: lat, Lon: lon})
	}
	return stops, nil
}

// RouteID derives a route ID from its file name.
func RouteID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadRouteFile reads one route. A missing or empty file yields a route
// without stops.
func ReadRouteFile(path string, opts Options) (transit.Route, error) {
	route := transit.Route{ID: RouteID(path)}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return route, nil
	}
	if err != nil {
		return route, err
	}
	defer f.Close()

	stops, err := ReadStops(f, opts)
	if err != nil {
		return route, fmt.Errorf("route %s: %w", path, err)
	}
	route.Stops = stops
	return route, nil
}

// ReadRoutesDir reads every *.csv in dir as one route, in file name order.
func ReadRoutesDir(dir string, opts Options) ([]transit.Route, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	routes := make([]transit.Route, 0, len(paths))
	for _, p := range paths {
		r, err := ReadRouteFile(p, opts)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// routeStopRecord is the on-disk layout of a route file.
type routeStopRecord struct {
	Name      string  `csv:"Stop Name"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
}

// WriteRoute writes route stops in the layout ReadRouteFile reads.
func WriteRoute(w io.Writer, r transit.Route) error {
	recs := make([]routeStopRecord, len(r.Stops))
	for i, s := range r.Stops {
		recs[i] = routeStopRecord{Name: s.Name, Latitude: s.Lat, Longitude: s.Lon}
	}
	return gocsv.Marshal(&recs, w)
}

// WriteRoutesDir writes one <route id>.csv per route into dir. Route IDs
// are sanitised for use as file names.
func WriteRoutesDir(dir string, routes []transit.Route) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, r := range routes {
		path := filepath.Join(dir, fileSafe(r.ID)+".csv")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteRoute(f, r); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

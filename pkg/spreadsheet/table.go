package spreadsheet

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"mobility_graph/pkg/geo"
)

// Table is a header plus rows of raw cell text.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a table from a CSV file or from a workbook sheet. An empty
// sheet name selects the first sheet.
func ReadTable(path, sheet string) (*Table, error) {
	var rows [][]string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "Can't open table")
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		if rows, err = r.ReadAll(); err != nil {
			return nil, errors.Wrap(err, "Can't read CSV")
		}
	} else {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "Can't open workbook")
		}
		defer f.Close()
		if sheet == "" {
			sheet = f.GetSheetName(0)
		}
		if rows, err = f.GetRows(sheet, rawValues); err != nil {
			return nil, errors.Wrapf(err, "Can't read sheet %s", sheet)
		}
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("%s: no header row", path)
	}
	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}

// Column returns the index of the named column, case-insensitively.
func (t *Table) Column(name string) (int, error) {
	if i := columnIndex(t.Header, name); i >= 0 {
		return i, nil
	}
	return -1, errors.Errorf("column %s not found in %v", name, t.Header)
}

// Float parses the cell at (row, col).
func (t *Table) Float(row, col int) (float64, error) {
	v, err := strconv.ParseFloat(cell(t.Rows[row], col), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "row %d column %s", row+2, t.Header[col])
	}
	return v, nil
}

// AppendColumn adds a column; values must have one entry per row.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return errors.Errorf("column %s: %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		for len(t.Rows[i]) < len(t.Header)-1 {
			t.Rows[i] = append(t.Rows[i], "")
		}
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// WriteCSV writes the table as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "Can't write rows")
	}
	return nil
}

// Column names of an OD pair table.
const (
	ColHomeLat     = "HOME_LATITUDE"
	ColHomeLon     = "HOME_LONGITUDE"
	ColWorkLat     = "WORK_LATITUDE"
	ColWorkLon     = "WORK_LONGITUDE"
	ColDirectKm    = "DIRECT_DISTANCE_KM"
	ColTravelingKm = "TRAVELING_DISTANCE_KM"
)

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AddPairDistances appends DIRECT_DISTANCE_KM (haversine) to every home/work
// pair and, when travel is non-nil, TRAVELING_DISTANCE_KM. Failed travel
// lookups are logged and left empty.
func AddPairDistances(ctx context.Context, t *Table, travel geo.Measurer) error {
	var cols [4]int
	for i, name := range []string{ColHomeLat, ColHomeLon, ColWorkLat, ColWorkLon} {
		c, err := t.Column(name)
		if err != nil {
			return err
		}
		cols[i] = c
	}

	direct := make([]string, len(t.Rows))
	var traveling []string
	if travel != nil {
		traveling = make([]string, len(t.Rows))
	}
	for r := range t.Rows {
		var p [4]float64
		for i, c := range cols {
			v, err := t.Float(r, c)
			if err != nil {
				return err
			}
			p[i] = v
		}
		home := geo.LatLng{Lat: p[0], Lng: p[1]}
		work := geo.LatLng{Lat: p[2], Lng: p[3]}
		if !geo.ValidCoord(home.Lat, home.Lng) || !geo.ValidCoord(work.Lat, work.Lng) {
			return errors.Errorf("row %d: bad coordinate home (%v, %v) work (%v, %v)",
				r+2, home.Lat, home.Lng, work.Lat, work.Lng)
		}
		direct[r] = formatKm(geo.HaversineKm(home.Lat, home.Lng, work.Lat, work.Lng))

		if travel == nil {
			continue
		}
		d, err := travel.Distance(ctx, home, work)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Error calculating traveling distance for row %d: %v", r+2, err)
			continue
		}
		traveling[r] = formatKm(d / 1000)
	}

	if travel != nil {
		if err := t.AppendColumn(ColTravelingKm, traveling); err != nil {
			return err
		}
	}
	return t.AppendColumn(ColDirectKm, direct)
}

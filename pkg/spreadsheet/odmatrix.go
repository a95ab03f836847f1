// Package spreadsheet reads and writes the origin-destination workbooks and
// OD pair tables.
package spreadsheet

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/graph"
)

// Sheet names of an OD workbook.
const (
	SheetMatrix    = "Matrix"
	SheetAreas     = "Area_Coordinates"
	SheetHaversine = "Distance_Matrix"
	SheetGoogle    = "Google_Travel_Distance"
)

var rawValues = excelize.Options{RawCellValue: true}

// Area is a named zone with its representative coordinate.
type Area struct {
	Name string
	Lat  float64
	Lon  float64
}

type cellKey struct{ row, col string }

// Matrix is a labelled square matrix with optional cells.
type Matrix struct {
	Rows  []string
	Cols  []string
	cells map[cellKey]float64
}

// NewMatrix creates an empty matrix.
func NewMatrix() *Matrix {
	return &Matrix{cells: make(map[cellKey]float64)}
}

// Get returns the value at (row, col) if the cell is present.
func (m *Matrix) Get(row, col string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.cells[cellKey{row, col}]
	return v, ok
}

// Set stores a value.
func (m *Matrix) Set(row, col string, v float64) {
	m.cells[cellKey{row, col}] = v
}

// Len returns the number of present cells.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.cells)
}

// ODMatrix is the content of an OD workbook. Haversine and Google are nil
// when their sheets are absent.
type ODMatrix struct {
	Areas     []Area
	Travelers *Matrix
	Haversine *Matrix
	Google    *Matrix
}

func hasSheet(f *excelize.File, sheet string) bool {
	idx, err := f.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readAreas(f *excelize.File) ([]Area, error) {
	rows, err := f.GetRows(SheetAreas, rawValues)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read areas")
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("sheet %s is empty", SheetAreas)
	}
	nameCol := columnIndex(rows[0], "AREA")
	latCol := columnIndex(rows[0], "LATITUDE")
	lonCol := columnIndex(rows[0], "LONGITUDE")
	if nameCol < 0 || latCol < 0 || lonCol < 0 {
		return nil, errors.Errorf("sheet %s: want AREA, LATITUDE and LONGITUDE columns, got %v", SheetAreas, rows[0])
	}

	var areas []Area
	for i, row := range rows[1:] {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		lat, errLat := strconv.ParseFloat(cell(row, latCol), 64)
		lon, errLon := strconv.ParseFloat(cell(row, lonCol), 64)
		if errLat != nil || errLon != nil || !geo.ValidCoord(lat, lon) {
			return nil, errors.Errorf("sheet %s row %d (%s): bad coordinate %q, %q",
				SheetAreas, i+2, name, cell(row, latCol), cell(row, lonCol))
		}
		areas = append(areas, Area{Name: name, Lat: lat, Lon: lon})
	}
	return areas, nil
}

// readMatrix reads a sheet whose first row holds column labels and first
// column holds row labels. Empty cells are left absent.
func readMatrix(f *excelize.File, sheet string) (*Matrix, error) {
	rows, err := f.GetRows(sheet, rawValues)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read %s", sheet)
	}
	m := NewMatrix()
	if len(rows) == 0 || len(rows[0]) == 0 {
		return m, nil
	}
	for _, c := range rows[0][1:] {
		m.Cols = append(m.Cols, strings.TrimSpace(c))
	}
	for i, row := range rows[1:] {
		from := cell(row, 0)
		if from == "" {
			continue
		}
		m.Rows = append(m.Rows, from)
		for j, to := range m.Cols {
			raw := cell(row, j+1)
			if raw == "" || to == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				name, _ := excelize.CoordinatesToCellName(j+2, i+2)
				return nil, errors.Wrapf(err, "%s!%s", sheet, name)
			}
			m.Set(from, to, v)
		}
	}
	return m, nil
}

// ReadODMatrix reads an OD workbook. Area_Coordinates and Matrix are
// required; the distance sheets are optional.
func ReadODMatrix(path string) (*ODMatrix, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open workbook")
	}
	defer f.Close()

	od := &ODMatrix{}
	if od.Areas, err = readAreas(f); err != nil {
		return nil, err
	}
	if od.Travelers, err = readMatrix(f, SheetMatrix); err != nil {
		return nil, err
	}
	if hasSheet(f, SheetHaversine) {
		if od.Haversine, err = readMatrix(f, SheetHaversine); err != nil {
			return nil, err
		}
	}
	if hasSheet(f, SheetGoogle) {
		if od.Google, err = readMatrix(f, SheetGoogle); err != nil {
			return nil, err
		}
	}
	return od, nil
}

// Graph builds a directed graph with one node per area and an edge for every
// present Matrix cell carrying percent_travelers and, when known,
// haversine_distance and google_distance.
func (od *ODMatrix) Graph() (*graph.Graph, error) {
	g := graph.New(true)
	for _, a := range od.Areas {
		g.AddNode(graph.Node{ID: a.Name, Lat: a.Lat, Lon: a.Lon})
	}
	for _, from := range od.Travelers.Rows {
		for _, to := range od.Travelers.Cols {
			pct, ok := od.Travelers.Get(from, to)
			if !ok {
				continue
			}
			attrs := graph.Attrs{graph.AttrPercentTravelers: pct}
			if d, ok := od.Haversine.Get(from, to); ok {
				attrs[graph.AttrHaversine] = d
			}
			if d, ok := od.Google.Get(from, to); ok {
				attrs[graph.AttrGoogle] = d
			}
			if err := g.AddEdge(from, to, attrs); err != nil {
				return nil, errors.Wrap(err, "Matrix references an area without coordinates")
			}
		}
	}
	return g, nil
}

// WriteODMatrix writes g back into the OD workbook layout. Edges marked
// invalid get 0 in Google_Travel_Distance.
func WriteODMatrix(path string, g *graph.Graph) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMatrix); err != nil {
		return errors.Wrap(err, "Can't rename sheet")
	}
	for _, s := range []string{SheetAreas, SheetHaversine, SheetGoogle} {
		if _, err := f.NewSheet(s); err != nil {
			return errors.Wrapf(err, "Can't create sheet %s", s)
		}
	}

	if err := f.SetSheetRow(SheetAreas, "A1", &[]any{"AREA", "LATITUDE", "LONGITUDE"}); err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for i, n := range g.Nodes {
		cellName, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetAreas, cellName, &[]any{n.ID, n.Lat, n.Lon}); err != nil {
			return errors.Wrap(err, "Can't write area")
		}
	}

	err := writeMatrix(f, SheetMatrix, g, func(e graph.Edge) (float64, bool) {
		return e.Attrs.Float(graph.AttrPercentTravelers)
	})
	if err != nil {
		return err
	}
	err = writeMatrix(f, SheetHaversine, g, func(e graph.Edge) (float64, bool) {
		return e.Attrs.Float(graph.AttrHaversine)
	})
	if err != nil {
		return err
	}
	err = writeMatrix(f, SheetGoogle, g, func(e graph.Edge) (float64, bool) {
		if !graph.IsValid(e) {
			return 0, true
		}
		return e.Attrs.Float(graph.AttrGoogle)
	})
	if err != nil {
		return err
	}

	return errors.Wrap(f.SaveAs(path), "Can't save workbook")
}

func writeMatrix(f *excelize.File, sheet string, g *graph.Graph, value func(graph.Edge) (float64, bool)) error {
	for i, n := range g.Nodes {
		top, _ := excelize.CoordinatesToCellName(i+2, 1)
		left, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(sheet, top, n.ID); err != nil {
			return errors.Wrapf(err, "Can't write %s header", sheet)
		}
		if err := f.SetCellValue(sheet, left, n.ID); err != nil {
			return errors.Wrapf(err, "Can't write %s header", sheet)
		}
	}
	for _, e := range g.Edges {
		v, ok := value(e)
		if !ok {
			continue
		}
		name, _ := excelize.CoordinatesToCellName(e.To+2, e.From+2)
		if err := f.SetCellValue(sheet, name, v); err != nil {
			return errors.Wrapf(err, "Can't write %s", sheet)
		}
	}
	return nil
}

package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mobility_graph/pkg/geo"
	"mobility_graph/pkg/graph"
)

func setRows(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, v))
		}
	}
}

// writeWorkbook creates a small OD workbook with three areas.
func writeWorkbook(t *testing.T, withGoogle bool) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", SheetMatrix))
	setRows(t, f, SheetMatrix, [][]any{
		{"AREA", "Saddar", "G-6", "Bahria"},
		{"Saddar", nil, 12.5, 3.0},
		{"G-6", 7.25, nil, nil},
		{"Bahria", 0.0, nil, nil},
	})

	_, err := f.NewSheet(SheetAreas)
	require.NoError(t, err)
	setRows(t, f, SheetAreas, [][]any{
		{"AREA", "LATITUDE", "LONGITUDE"},
		{"Saddar", 33.5973, 73.0479},
		{"G-6", 33.7079, 73.0863},
		{"Bahria", 33.5221, 73.1026},
	})

	_, err = f.NewSheet(SheetHaversine)
	require.NoError(t, err)
	setRows(t, f, SheetHaversine, [][]any{
		{"", "Saddar", "G-6", "Bahria"},
		{"Saddar", nil, 12.9, 9.4},
		{"G-6", 12.9, nil, nil},
	})

	if withGoogle {
		_, err = f.NewSheet(SheetGoogle)
		require.NoError(t, err)
		setRows(t, f, SheetGoogle, [][]any{
			{"", "Saddar", "G-6", "Bahria"},
			{"Saddar", nil, 15.2, 13.1},
			{"G-6", 16.0, nil, nil},
		})
	}

	path := filepath.Join(t.TempDir(), "od.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadODMatrix(t *testing.T) {
	od, err := ReadODMatrix(writeWorkbook(t, true))
	require.NoError(t, err)

	require.Len(t, od.Areas, 3)
	assert.Equal(t, Area{Name: "G-6", Lat: 33.7079, Lon: 73.0863}, od.Areas[1])

	assert.Equal(t, []string{"Saddar", "G-6", "Bahria"}, od.Travelers.Cols)
	assert.Equal(t, 4, od.Travelers.Len())
	v, ok := od.Travelers.Get("Bahria", "Saddar")
	assert.True(t, ok, "zero is a present value")
	assert.Equal(t, 0.0, v)
	_, ok = od.Travelers.Get("Saddar", "Saddar")
	assert.False(t, ok)

	v, ok = od.Google.Get("G-6", "Saddar")
	require.True(t, ok)
	assert.Equal(t, 16.0, v)
}

func TestODMatrixGraph(t *testing.T) {
	od, err := ReadODMatrix(writeWorkbook(t, false))
	require.NoError(t, err)
	assert.Nil(t, od.Google)

	g, err := od.Graph()
	require.NoError(t, err)
	assert.True(t, g.Directed)
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 4, g.NumEdges())

	attrs, ok := g.EdgeAttrs("Saddar", "G-6")
	require.True(t, ok)
	assert.Equal(t, graph.Attrs{
		graph.AttrPercentTravelers: 12.5,
		graph.AttrHaversine:        12.9,
	}, attrs)

	attrs, ok = g.EdgeAttrs("Bahria", "Saddar")
	require.True(t, ok)
	assert.Equal(t, graph.Attrs{graph.AttrPercentTravelers: 0.0}, attrs)
	assert.False(t, g.HasEdge("G-6", "Bahria"))
}

func TestODMatrixGraphUnknownArea(t *testing.T) {
	od := &ODMatrix{
		Areas:     []Area{{Name: "A", Lat: 1, Lon: 1}},
		Travelers: NewMatrix(),
	}
	od.Travelers.Rows = []string{"A"}
	od.Travelers.Cols = []string{"B"}
	od.Travelers.Set("A", "B", 1)

	_, err := od.Graph()
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
}

func TestReadODMatrixBadCoordinate(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", SheetAreas))
	setRows(t, f, SheetAreas, [][]any{
		{"AREA", "LATITUDE", "LONGITUDE"},
		{"Nowhere", "north", 73.0},
	})
	_, err := f.NewSheet(SheetMatrix)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err = ReadODMatrix(path)
	assert.ErrorContains(t, err, "Nowhere")
}

func TestWriteODMatrixRoundTrip(t *testing.T) {
	od, err := ReadODMatrix(writeWorkbook(t, true))
	require.NoError(t, err)
	g, err := od.Graph()
	require.NoError(t, err)

	graph.SetEdgeValidity(g, graph.AttrGoogle, graph.MaxFloat(15.5))

	out := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteODMatrix(out, g))

	back, err := ReadODMatrix(out)
	require.NoError(t, err)
	assert.Equal(t, od.Areas, back.Areas)
	assert.Equal(t, od.Travelers.Len(), back.Travelers.Len())

	v, ok := back.Google.Get("Saddar", "G-6")
	require.True(t, ok)
	assert.Equal(t, 15.2, v)
	v, ok = back.Google.Get("G-6", "Saddar")
	require.True(t, ok)
	assert.Equal(t, 0.0, v, "invalid edge is written as zero")
	v, ok = back.Google.Get("Bahria", "Saddar")
	require.True(t, ok)
	assert.Equal(t, 0.0, v, "edge without google distance is invalid")

	v, ok = back.Haversine.Get("Saddar", "Bahria")
	require.True(t, ok)
	assert.Equal(t, 9.4, v)
}

func TestTableAppendColumn(t *testing.T) {
	tbl := &Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}, {"3"}},
	}
	require.NoError(t, tbl.AppendColumn("c", []string{"x", "y"}))
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "2", "x"}, {"3", "", "y"}}, tbl.Rows)
	assert.Error(t, tbl.AppendColumn("d", []string{"only one"}))
}

type fakeMeasurer map[geo.LatLng]float64

func (m fakeMeasurer) Distance(_ context.Context, from, _ geo.LatLng) (float64, error) {
	d, ok := m[from]
	if !ok {
		return 0, errors.New("NOT_FOUND")
	}
	return d, nil
}

func TestAddPairDistances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	content := "ID,HOME_LATITUDE,HOME_LONGITUDE,WORK_LATITUDE,WORK_LONGITUDE\n" +
		"1,33.7,73.05,33.72,73.08\n" +
		"2,33.6,73.0,33.6,73.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := ReadTable(path, "")
	require.NoError(t, err)

	travel := fakeMeasurer{{Lat: 33.7, Lng: 73.05}: 4213}
	require.NoError(t, AddPairDistances(context.Background(), tbl, travel))

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"ID", "HOME_LATITUDE", "HOME_LONGITUDE", "WORK_LATITUDE", "WORK_LONGITUDE",
		ColTravelingKm, ColDirectKm}, records[0])
	assert.Equal(t, "4.213", records[1][5])
	assert.Equal(t, "", records[2][5], "failed lookup stays empty")
	assert.Equal(t, "0", records[2][6])
	assert.NotEmpty(t, records[1][6])
}

func TestAddPairDistancesBadCoordinate(t *testing.T) {
	header := []string{ColHomeLat, ColHomeLon, ColWorkLat, ColWorkLon}
	tests := []struct {
		name string
		row  []string
	}{
		{"NaN", []string{"NaN", "73.05", "33.72", "73.08"}},
		{"Inf", []string{"33.7", "73.05", "+Inf", "73.08"}},
		{"out of range", []string{"33.7", "200", "33.72", "73.08"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &Table{Header: header, Rows: [][]string{{"33.7", "73.05", "33.72", "73.08"}, tt.row}}
			travel := fakeMeasurer{}
			err := AddPairDistances(context.Background(), tbl, travel)
			assert.ErrorContains(t, err, "row 3: bad coordinate")
			assert.Len(t, tbl.Header, 4, "no column is appended on error")
		})
	}
}

func TestAddPairDistancesMissingColumn(t *testing.T) {
	tbl := &Table{Header: []string{"HOME_LATITUDE"}, Rows: [][]string{{"1"}}}
	assert.Error(t, AddPairDistances(context.Background(), tbl, nil))
}

func TestReadTableFromWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	setRows(t, f, "Sheet1", [][]any{
		{"HOME_LATITUDE", "HOME_LONGITUDE", "WORK_LATITUDE", "WORK_LONGITUDE"},
		{33.7, 73.05, 33.72, 73.08},
	})
	path := filepath.Join(t.TempDir(), "pairs.xlsx")
	require.NoError(t, f.SaveAs(path))

	tbl, err := ReadTable(path, "")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	require.NoError(t, AddPairDistances(context.Background(), tbl, nil))
	assert.Equal(t, []string{"HOME_LATITUDE", "HOME_LONGITUDE", "WORK_LATITUDE", "WORK_LONGITUDE", ColDirectKm}, tbl.Header)
}

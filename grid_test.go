package satchip_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-satchip"
)

func TestNewGrid(t *testing.T) {
	grid, err := satchip.NewGrid(1000)
	assert.NoError(t, err)

	assert.Equal(t, 19, grid.NumRows())
	assert.Equal(t, 541, grid.Len())
	rowLabels := grid.RowLabels()
	assert.Equal(t, "9D", rowLabels[0])
	assert.Equal(t, "0U", rowLabels[9])
	assert.Equal(t, "9U", rowLabels[18])
	assert.Equal(t, 41, grid.NumCols(9))
	assert.Equal(t, 9, grid.NumCols(18))
	assert.Equal(t, 0, grid.NumCols(19))
	assert.Equal(t, 0, grid.NumCols(-1))

	names := make(map[string]struct{})
	rowLats := grid.RowLats()
	for rowIndex, rowLat := range rowLats {
		assert.True(t, -85 <= rowLat && rowLat <= 85)
		if rowIndex > 0 {
			assert.True(t, rowLats[rowIndex-1] < rowLat)
		}
		rowCells := grid.RowCells(rowIndex)
		assert.Equal(t, grid.NumCols(rowIndex), len(rowCells))
		for colIndex, cell := range rowCells {
			assert.Equal(t, rowIndex, cell.RowIndex)
			assert.Equal(t, colIndex, cell.ColIndex)
			assert.Equal(t, rowLat, cell.Lat)
			assert.Equal(t, rowLabels[rowIndex], cell.Row)
			assert.True(t, -180 <= cell.Lon && cell.Lon < 180)
			if colIndex > 0 {
				assert.True(t, rowCells[colIndex-1].Lon < cell.Lon)
			}
			assert.Equal(t, satchip.CellName(cell.Row, cell.Col), cell.Name)
			assert.True(t, satchip.IsUTMEPSG(cell.EPSG))
			assert.Equal(t, cell.EPSG%100, cell.UTMZone)
			_, duplicate := names[cell.Name]
			assert.False(t, duplicate, cell.Name)
			names[cell.Name] = struct{}{}
		}
	}
	assert.Equal(t, grid.Len(), len(names))

	for index, cell := range grid.Cells() {
		assert.Equal(t, index, cell.Index)
		actual, err := grid.CellByIndex(index)
		assert.NoError(t, err)
		assert.Equal(t, cell, actual)
		actual, err = grid.CellAt(cell.RowIndex, cell.ColIndex)
		assert.NoError(t, err)
		assert.Equal(t, cell, actual)
		actual, err = grid.Cell(cell.Row, cell.Col)
		assert.NoError(t, err)
		assert.Equal(t, cell, actual)
	}
}

func TestGridCells(t *testing.T) {
	grid, err := satchip.NewGrid(1000)
	assert.NoError(t, err)
	for _, tc := range []struct {
		row          string
		col          string
		expectedLat  float64
		expectedLon  float64
		expectedEPSG int
	}{
		{row: "0U", col: "0R", expectedLat: 0, expectedLon: 0, expectedEPSG: 32631},
		{row: "1D", col: "1L", expectedLat: -8.5714, expectedLon: -9, expectedEPSG: 32729},
		{row: "9U", col: "4R", expectedLat: 77.1429, expectedLon: 160, expectedEPSG: 32657},
		{row: "5D", col: "15L", expectedLat: -42.8571, expectedLon: -180, expectedEPSG: 32701},
	} {
		cell, err := grid.Cell(tc.row, tc.col)
		assert.NoError(t, err)
		assert.True(t, math.Abs(tc.expectedLat-cell.Lat) < 1e-4, tc.row)
		assert.True(t, math.Abs(tc.expectedLon-cell.Lon) < 1e-4, tc.col)
		assert.Equal(t, tc.expectedEPSG, cell.EPSG)
		assert.Equal(t, cell.Lon, cell.Point().Lon())
		assert.Equal(t, cell.Lat, cell.Point().Lat())
	}
}

func TestGridSpacing(t *testing.T) {
	for _, spacing := range []float64{10, 100, 320} {
		grid, err := satchip.NewGrid(spacing, satchip.WithLatitudeRange(-5, 5), satchip.WithLongitudeRange(-5, 5))
		assert.NoError(t, err)
		assert.Equal(t, spacing, grid.Spacing())
		rowLats := grid.RowLats()
		for i := 1; i < len(rowLats); i++ {
			step := (rowLats[i] - rowLats[i-1]) * math.Pi * satchip.RadiusEquator / 180
			assert.True(t, step <= spacing, spacing)
			assert.True(t, step > spacing*0.99, spacing)
		}
	}
}

func TestGridPolarRowsHaveFewerColumns(t *testing.T) {
	grid, err := satchip.NewGrid(100)
	assert.NoError(t, err)
	equator, err := grid.Cell("0U", "0R")
	assert.NoError(t, err)
	equatorCols := grid.NumCols(equator.RowIndex)
	assert.Equal(t, 401, equatorCols)
	assert.True(t, grid.NumCols(0) < equatorCols)
	assert.True(t, grid.NumCols(grid.NumRows()-1) < equatorCols)
}

func TestGridCRSModeCenter(t *testing.T) {
	bottomLeftGrid, err := satchip.NewGrid(1000)
	assert.NoError(t, err)
	centerGrid, err := satchip.NewGrid(1000, satchip.WithCRSMode(satchip.CRSModeCenter))
	assert.NoError(t, err)
	assert.Equal(t, bottomLeftGrid.Len(), centerGrid.Len())

	for _, tc := range []struct {
		row                    string
		col                    string
		expectedBottomLeftEPSG int
		expectedCenterEPSG     int
	}{
		{row: "0U", col: "0R", expectedBottomLeftEPSG: 32631, expectedCenterEPSG: 32631},
		{row: "9D", col: "0R", expectedBottomLeftEPSG: 32731, expectedCenterEPSG: 32733},
		{row: "9D", col: "4L", expectedBottomLeftEPSG: 32704, expectedCenterEPSG: 32706},
	} {
		bottomLeftCell, err := bottomLeftGrid.Cell(tc.row, tc.col)
		assert.NoError(t, err)
		assert.Equal(t, tc.expectedBottomLeftEPSG, bottomLeftCell.EPSG)
		centerCell, err := centerGrid.Cell(tc.row, tc.col)
		assert.NoError(t, err)
		assert.Equal(t, tc.expectedCenterEPSG, centerCell.EPSG)
		assert.Equal(t, bottomLeftCell.Lat, centerCell.Lat)
		assert.Equal(t, bottomLeftCell.Lon, centerCell.Lon)
	}
}

func TestNewGridErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		spacing float64
		options []satchip.GridOption
	}{
		{name: "zero_spacing", spacing: 0},
		{name: "negative_spacing", spacing: -10},
		{name: "nan_spacing", spacing: math.NaN()},
		{name: "inf_spacing", spacing: math.Inf(1)},
		{name: "tiny_spacing", spacing: 1e-6},
		{name: "empty_latitude_range", spacing: 10, options: []satchip.GridOption{satchip.WithLatitudeRange(10, 10)}},
		{name: "inverted_latitude_range", spacing: 10, options: []satchip.GridOption{satchip.WithLatitudeRange(10, -10)}},
		{name: "latitude_range_too_large", spacing: 10, options: []satchip.GridOption{satchip.WithLatitudeRange(-91, 0)}},
		{name: "inverted_longitude_range", spacing: 10, options: []satchip.GridOption{satchip.WithLongitudeRange(5, -5)}},
		{name: "longitude_range_too_large", spacing: 10, options: []satchip.GridOption{satchip.WithLongitudeRange(0, 181)}},
		{name: "unknown_crs_mode", spacing: 10, options: []satchip.GridOption{satchip.WithCRSMode("topright")}},
		{name: "no_rows", spacing: 1000, options: []satchip.GridOption{satchip.WithLatitudeRange(1, 2)}},
		{name: "no_columns", spacing: 1000, options: []satchip.GridOption{satchip.WithLongitudeRange(1, 2)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := satchip.NewGrid(tc.spacing, tc.options...)
			assert.IsError(t, err, satchip.ErrInvalidConfig)
		})
	}
}

func TestGridLookupErrors(t *testing.T) {
	grid, err := satchip.NewGrid(1000)
	assert.NoError(t, err)

	_, err = grid.Cell("0U", "99R")
	assert.IsError(t, err, satchip.ErrNotFound)
	_, err = grid.Cell("10U", "0R")
	assert.IsError(t, err, satchip.ErrNotFound)
	_, err = grid.CellByIndex(-1)
	assert.IsError(t, err, satchip.ErrNotFound)
	_, err = grid.CellByIndex(grid.Len())
	assert.IsError(t, err, satchip.ErrNotFound)
	_, err = grid.CellAt(grid.NumRows(), 0)
	assert.IsError(t, err, satchip.ErrNotFound)
	_, err = grid.CellAt(0, grid.NumCols(0))
	assert.IsError(t, err, satchip.ErrNotFound)
}

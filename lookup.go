package satchip

import (
	"fmt"
	"math"
	"sort"
)

// floorSearch returns the index of the greatest element of the sorted slice
// values that is less than or equal to x, or -1 if there is no such element.
func floorSearch(values []float64, x float64) int {
	return sort.Search(len(values), func(i int) bool {
		return values[i] > x
	}) - 1
}

// CellContaining returns the cell whose footprint contains (lat, lon). Points
// on a row or column boundary belong to the cell to their north or east.
//
// Longitudes are not wrapped. A row's last cell extends east by one column
// width, past 180 on rows with no column at -180. On those rows a longitude
// between -180 and the row's first column is not found, but the same
// longitude plus 360 is.
func (g *Grid) CellContaining(lat, lon float64) (GridCell, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return GridCell{}, fmt.Errorf("%w: latlng [%v, %v]", ErrInvalidConfig, lat, lon)
	}
	rowIndex := floorSearch(g.lats, lat)
	if rowIndex < 0 {
		return GridCell{}, fmt.Errorf("%w: latitude %v is south of the grid", ErrNotFound, lat)
	}
	colIndex := floorSearch(g.rows[rowIndex].lons, lon)
	if colIndex < 0 {
		return GridCell{}, fmt.Errorf("%w: longitude %v is west of row %s", ErrNotFound, lon, g.rows[rowIndex].label)
	}
	bound := g.footprintBound(rowIndex, colIndex, 0)
	switch {
	case lat >= bound.Max.Lat():
		return GridCell{}, fmt.Errorf("%w: latitude %v is north of the grid", ErrNotFound, lat)
	case lon >= bound.Max.Lon():
		return GridCell{}, fmt.Errorf("%w: longitude %v is east of row %s", ErrNotFound, lon, g.rows[rowIndex].label)
	}
	return g.cells[g.rows[rowIndex].start+colIndex], nil
}

// LatLonToRowCol returns the cells containing each (lats[i], lons[i]).
func (g *Grid) LatLonToRowCol(lats, lons []float64) ([]GridCell, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("%w: %d latitudes and %d longitudes", ErrInvalidConfig, len(lats), len(lons))
	}
	cells := make([]GridCell, len(lats))
	for i := range lats {
		cell, err := g.CellContaining(lats[i], lons[i])
		if err != nil {
			return nil, err
		}
		cells[i] = cell
	}
	return cells, nil
}

// LatLonToOffsets returns the signed row and column offsets of the cells
// containing each (lats[i], lons[i]). Rows north of the zeroth row and columns
// east of the zeroth column are positive.
func (g *Grid) LatLonToOffsets(lats, lons []float64) ([]int, []int, error) {
	cells, err := g.LatLonToRowCol(lats, lons)
	if err != nil {
		return nil, nil, err
	}
	rowOffsets := make([]int, len(cells))
	colOffsets := make([]int, len(cells))
	for i, cell := range cells {
		if rowOffsets[i], err = ParseRowLabel(cell.Row); err != nil {
			return nil, nil, err
		}
		if colOffsets[i], err = ParseColLabel(cell.Col); err != nil {
			return nil, nil, err
		}
	}
	return rowOffsets, colOffsets, nil
}

// RowColToLatLon returns the anchors of the cells labelled (rows[i], cols[i]).
func (g *Grid) RowColToLatLon(rows, cols []string) ([]float64, []float64, error) {
	if len(rows) != len(cols) {
		return nil, nil, fmt.Errorf("%w: %d rows and %d columns", ErrInvalidConfig, len(rows), len(cols))
	}
	lats := make([]float64, len(rows))
	lons := make([]float64, len(rows))
	for i := range rows {
		cell, err := g.Cell(rows[i], cols[i])
		if err != nil {
			return nil, nil, err
		}
		lats[i] = cell.Lat
		lons[i] = cell.Lon
	}
	return lats, lons, nil
}

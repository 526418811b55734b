package satchip

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
)

// A GridCell is a cell of a Grid, anchored at its south-west corner.
type GridCell struct {
	Name     string
	Row      string // Row label, e.g. 3U or 2D.
	Col      string // Column label, e.g. 5R or 4L.
	RowIndex int
	ColIndex int
	Index    int // Index in the grid's flat cell table.
	Lat      float64
	Lon      float64
	UTMZone  int
	EPSG     int
}

// Point returns c's anchor.
func (c GridCell) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// A gridRow is a retained row. Its cells are cells[start:end] of the owning
// Grid.
type gridRow struct {
	label   string
	lat     float64
	lonStep float64
	lons    []float64
	start   int
	end     int
}

type cellKey struct {
	row string
	col string
}

// A Grid is an immutable global grid of cells with a fixed number of rows and
// a latitude-dependent number of columns per row. It is safe for concurrent
// use.
type Grid struct {
	config  GridConfig
	latStep float64
	rows    []gridRow
	lats    []float64
	cells   []GridCell
	index   map[cellKey]int
}

// NewGrid returns a new Grid with the given spacing in kilometres.
func NewGrid(spacing float64, options ...GridOption) (*Grid, error) {
	config := DefaultGridConfig(spacing)
	for _, option := range options {
		option(&config)
	}
	return config.NewGrid()
}

// NewGrid returns a new Grid built from c.
func (c GridConfig) NewGrid() (*Grid, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		config:  c,
		latStep: 180 / float64(rowDivisions(c.Spacing)),
		index:   make(map[cellKey]int),
	}

	for _, rowLine := range partitionRows(c.Spacing, c.LatMin, c.LatMax) {
		colLines := partitionCols(rowLine.value, c.Spacing, c.LonMin, c.LonMax)
		if len(colLines) == 0 {
			return nil, fmt.Errorf("%w: no columns in row %s at latitude %v in longitude range [%v, %v]",
				ErrInvalidConfig, rowLine.label, rowLine.value, c.LonMin, c.LonMax)
		}

		row := gridRow{
			label:   rowLine.label,
			lat:     rowLine.value,
			lonStep: 360 / float64(colDivisions(rowLine.value, c.Spacing)),
			lons:    make([]float64, 0, len(colLines)),
			start:   len(g.cells),
		}
		for colIndex, colLine := range colLines {
			epsg, err := c.CRSMode.epsg(rowLine.value, colLine.value, c.Spacing)
			if err != nil {
				return nil, err
			}
			cell := GridCell{
				Name:     CellName(rowLine.label, colLine.label),
				Row:      rowLine.label,
				Col:      colLine.label,
				RowIndex: len(g.rows),
				ColIndex: colIndex,
				Index:    len(g.cells),
				Lat:      rowLine.value,
				Lon:      colLine.value,
				UTMZone:  epsg % 100,
				EPSG:     epsg,
			}
			g.index[cellKey{row: cell.Row, col: cell.Col}] = cell.Index
			g.cells = append(g.cells, cell)
			row.lons = append(row.lons, colLine.value)
		}
		row.end = len(g.cells)

		g.rows = append(g.rows, row)
		g.lats = append(g.lats, row.lat)
	}

	if len(g.rows) == 0 {
		return nil, fmt.Errorf("%w: no rows in latitude range [%v, %v]", ErrInvalidConfig, c.LatMin, c.LatMax)
	}

	return g, nil
}

// epsg returns the EPSG code assigned to the cell anchored at (lat, lon).
func (m CRSMode) epsg(lat, lon, spacing float64) (int, error) {
	switch m {
	case CRSModeBottomLeft:
		return EPSGFromLatLon(lat, lon)
	case CRSModeCenter:
		halfSpacing := spacing / 2 * degreesPerKilometre
		centerLat := lat + halfSpacing
		centerLon := lon + halfSpacing/math.Cos(centerLat*math.Pi/180)
		return EPSGFromLatLon(centerLat, centerLon)
	default:
		return 0, fmt.Errorf("%w: unknown CRS mode %q", ErrInvalidConfig, m)
	}
}

// Config returns the configuration g was built from.
func (g *Grid) Config() GridConfig {
	return g.config
}

// Spacing returns g's spacing in kilometres.
func (g *Grid) Spacing() float64 {
	return g.config.Spacing
}

// Len returns the number of cells in g.
func (g *Grid) Len() int {
	return len(g.cells)
}

// NumRows returns the number of retained rows in g.
func (g *Grid) NumRows() int {
	return len(g.rows)
}

// NumCols returns the number of cells in the row at rowIndex.
func (g *Grid) NumCols(rowIndex int) int {
	if rowIndex < 0 || len(g.rows) <= rowIndex {
		return 0
	}
	return len(g.rows[rowIndex].lons)
}

// RowLabels returns g's row labels, south to north.
func (g *Grid) RowLabels() []string {
	labels := make([]string, len(g.rows))
	for i, row := range g.rows {
		labels[i] = row.label
	}
	return labels
}

// RowLats returns g's row latitudes, south to north.
func (g *Grid) RowLats() []float64 {
	return slices.Clone(g.lats)
}

// RowCells returns the cells in the row at rowIndex, west to east.
func (g *Grid) RowCells(rowIndex int) []GridCell {
	if rowIndex < 0 || len(g.rows) <= rowIndex {
		return nil
	}
	row := g.rows[rowIndex]
	return slices.Clone(g.cells[row.start:row.end])
}

// Cells returns all of g's cells in flat table order.
func (g *Grid) Cells() []GridCell {
	return slices.Clone(g.cells)
}

// CellByIndex returns the cell at index in the flat table.
func (g *Grid) CellByIndex(index int) (GridCell, error) {
	if index < 0 || len(g.cells) <= index {
		return GridCell{}, fmt.Errorf("%w: cell index %d", ErrNotFound, index)
	}
	return g.cells[index], nil
}

// CellAt returns the cell at colIndex in the row at rowIndex.
func (g *Grid) CellAt(rowIndex, colIndex int) (GridCell, error) {
	if rowIndex < 0 || len(g.rows) <= rowIndex {
		return GridCell{}, fmt.Errorf("%w: row index %d", ErrNotFound, rowIndex)
	}
	row := g.rows[rowIndex]
	if colIndex < 0 || len(row.lons) <= colIndex {
		return GridCell{}, fmt.Errorf("%w: column index %d in row %s", ErrNotFound, colIndex, row.label)
	}
	return g.cells[row.start+colIndex], nil
}

// Cell returns the cell with the given row and column labels.
func (g *Grid) Cell(row, col string) (GridCell, error) {
	index, ok := g.index[cellKey{row: row, col: col}]
	if !ok {
		return GridCell{}, fmt.Errorf("%w: cell %s", ErrNotFound, CellName(row, col))
	}
	return g.cells[index], nil
}

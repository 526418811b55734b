package satchip

import (
	"fmt"

	"github.com/paulmach/orb"
)

// FootprintBound returns the bound of the cell at colIndex in the row at
// rowIndex, grown on each side by bufferRatio times its width and height.
//
// The top edge is the next row's latitude and the right edge is the next
// column's longitude. Cells in the northernmost row or easternmost column are
// extrapolated by the previous row's height or the previous column's width.
func (g *Grid) FootprintBound(rowIndex, colIndex int, bufferRatio float64) (orb.Bound, error) {
	if !isFinite(bufferRatio) || bufferRatio < 0 {
		return orb.Bound{}, fmt.Errorf("%w: buffer ratio %v", ErrInvalidConfig, bufferRatio)
	}
	if _, err := g.CellAt(rowIndex, colIndex); err != nil {
		return orb.Bound{}, err
	}
	return g.footprintBound(rowIndex, colIndex, bufferRatio), nil
}

// Footprint returns FootprintBound as a closed polygon.
func (g *Grid) Footprint(rowIndex, colIndex int, bufferRatio float64) (orb.Polygon, error) {
	bound, err := g.FootprintBound(rowIndex, colIndex, bufferRatio)
	if err != nil {
		return nil, err
	}
	return boundPolygon(bound), nil
}

// CellFootprint returns the footprint of cell.
func (g *Grid) CellFootprint(cell GridCell, bufferRatio float64) (orb.Polygon, error) {
	return g.Footprint(cell.RowIndex, cell.ColIndex, bufferRatio)
}

func (g *Grid) footprintBound(rowIndex, colIndex int, bufferRatio float64) orb.Bound {
	row := g.rows[rowIndex]
	bottom, left := row.lat, row.lons[colIndex]

	var top float64
	switch {
	case rowIndex+1 < len(g.rows):
		top = g.rows[rowIndex+1].lat
	case rowIndex > 0:
		top = bottom + (bottom - g.rows[rowIndex-1].lat)
	default:
		top = bottom + g.latStep
	}

	var right float64
	switch {
	case colIndex+1 < len(row.lons):
		right = row.lons[colIndex+1]
	case colIndex > 0:
		right = left + (left - row.lons[colIndex-1])
	default:
		right = left + row.lonStep
	}

	bufferHorizontal := (right - left) * bufferRatio
	bufferVertical := (top - bottom) * bufferRatio
	return orb.Bound{
		Min: orb.Point{left - bufferHorizontal, bottom - bufferVertical},
		Max: orb.Point{right + bufferHorizontal, top + bufferVertical},
	}
}

// boundPolygon returns bound as a closed ring starting at its bottom-left
// corner.
func boundPolygon(bound orb.Bound) orb.Polygon {
	left, bottom := bound.Min.Lon(), bound.Min.Lat()
	right, top := bound.Max.Lon(), bound.Max.Lat()
	return orb.Polygon{
		orb.Ring{
			{left, bottom},
			{left, top},
			{right, top},
			{right, bottom},
			{left, bottom},
		},
	}
}

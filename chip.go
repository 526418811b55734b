package satchip

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
)

// A Chip describes the raster covering a grid cell in the cell's UTM
// coordinate reference system.
type Chip struct {
	Cell       GridCell
	Bounds     orb.Bound // EPSG:4326 footprint of Cell.
	EPSG       int
	Resolution float64 // Metres per pixel.
	NRow       int
	NCol       int
	Transform  Affine // Pixel to EPSG.
}

// NewChip returns the chip of cell in grid at resolution metres per pixel.
// The chip's origin is cell's anchor projected to cell's UTM zone and the chip
// extends north and east by grid's spacing.
func NewChip(projector *Projector, grid *Grid, cell GridCell, resolution float64) (*Chip, error) {
	if !isFinite(resolution) || resolution <= 0 {
		return nil, fmt.Errorf("%w: resolution %v", ErrInvalidConfig, resolution)
	}
	size := int(math.Round(grid.Spacing() * 1000 / resolution))
	if size < 1 {
		return nil, fmt.Errorf("%w: resolution %v is coarser than spacing %v km", ErrInvalidConfig, resolution, grid.Spacing())
	}
	bounds, err := grid.FootprintBound(cell.RowIndex, cell.ColIndex, 0)
	if err != nil {
		return nil, err
	}

	anchor := [][]float64{{cell.Lon, cell.Lat}}
	if err := projector.Transform(EPSGWGS84, cell.EPSG, anchor); err != nil {
		return nil, err
	}
	originX, originY := anchor[0][0], anchor[0][1]+float64(size)*resolution

	return &Chip{
		Cell:       cell,
		Bounds:     bounds,
		EPSG:       cell.EPSG,
		Resolution: resolution,
		NRow:       size,
		NCol:       size,
		Transform:  NewNorthUpAffine(originX, originY, resolution),
	}, nil
}

// Name returns c's cell name.
func (c *Chip) Name() string {
	return c.Cell.Name
}

// CRSBound returns c's bound in c.EPSG.
func (c *Chip) CRSBound() orb.Bound {
	return c.Transform.Bound(c.NCol, c.NRow)
}

// PixelCenters returns the EPSG coordinates of the centers of c's pixels in
// row-major order.
func (c *Chip) PixelCenters() [][]float64 {
	coordsFlat := make([]float64, 2*c.NRow*c.NCol)
	coords := make([][]float64, c.NRow*c.NCol)
	for row := range c.NRow {
		for col := range c.NCol {
			i := row*c.NCol + col
			x, y := c.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
			coordsFlat[2*i], coordsFlat[2*i+1] = x, y
			coords[i] = coordsFlat[2*i : 2*i+2 : 2*i+2]
		}
	}
	return coords
}

// OverallBounds returns the union of the bounds of chips.
func OverallBounds(chips []*Chip) orb.Bound {
	if len(chips) == 0 {
		return orb.Bound{}
	}
	bound := chips[0].Bounds
	for _, chip := range chips[1:] {
		bound = bound.Union(chip.Bounds)
	}
	return bound
}

// A LabelChip is the label raster resampled onto a Chip. Data holds NRow*NCol
// labels in row-major order.
type LabelChip struct {
	*Chip
	Data []int16
}

// A ChipStack is a set of chips sharing an acquisition time, as handed to
// archive writers.
type ChipStack struct {
	Created time.Time
	Time    time.Time
	Bounds  orb.Bound // Union of the chips' EPSG:4326 bounds.
	Version string
	Chips   []*LabelChip
}

// Names returns the names of s's chips.
func (s *ChipStack) Names() []string {
	names := make([]string, len(s.Chips))
	for i, chip := range s.Chips {
		names[i] = chip.Name()
	}
	return names
}

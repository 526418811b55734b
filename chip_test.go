package satchip_test

import (
	"math"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-satchip"
)

func TestNewChip(t *testing.T) {
	projector, err := satchip.NewProjector()
	assert.NoError(t, err)
	grid, err := satchip.NewGrid(10, satchip.WithLatitudeRange(1, 2), satchip.WithLongitudeRange(2, 4))
	assert.NoError(t, err)
	cell := grid.Cells()[0]

	chip, err := satchip.NewChip(projector, grid, cell, 100)
	assert.NoError(t, err)
	assert.Equal(t, cell.Name, chip.Name())
	assert.Equal(t, 32631, chip.EPSG)
	assert.Equal(t, 100, chip.NRow)
	assert.Equal(t, 100, chip.NCol)
	assert.Equal(t, 100.0, chip.Resolution)

	anchor := [][]float64{{cell.Lon, cell.Lat}}
	assert.NoError(t, projector.Transform(satchip.EPSGWGS84, chip.EPSG, anchor))
	x, y := chip.Transform.Apply(0, float64(chip.NRow))
	assert.True(t, math.Abs(x-anchor[0][0]) < 1e-6)
	assert.True(t, math.Abs(y-anchor[0][1]) < 1e-6)

	crsBound := chip.CRSBound()
	assert.True(t, math.Abs(crsBound.Right()-crsBound.Left()-10000) < 1e-6)
	assert.True(t, math.Abs(crsBound.Top()-crsBound.Bottom()-10000) < 1e-6)

	footprint, err := grid.FootprintBound(cell.RowIndex, cell.ColIndex, 0)
	assert.NoError(t, err)
	assert.Equal(t, footprint, chip.Bounds)

	pixelCenters := chip.PixelCenters()
	assert.Equal(t, 10000, len(pixelCenters))
	x, y = chip.Transform.Apply(0.5, 0.5)
	assert.Equal(t, []float64{x, y}, pixelCenters[0])
	x, y = chip.Transform.Apply(1.5, 0.5)
	assert.Equal(t, []float64{x, y}, pixelCenters[1])
	x, y = chip.Transform.Apply(0.5, 1.5)
	assert.Equal(t, []float64{x, y}, pixelCenters[100])
}

func TestNewChipErrors(t *testing.T) {
	projector, err := satchip.NewProjector()
	assert.NoError(t, err)
	grid, err := satchip.NewGrid(10, satchip.WithLatitudeRange(1, 2), satchip.WithLongitudeRange(2, 4))
	assert.NoError(t, err)
	cell := grid.Cells()[0]

	for _, resolution := range []float64{0, -10, math.NaN(), 30000} {
		_, err := satchip.NewChip(projector, grid, cell, resolution)
		assert.IsError(t, err, satchip.ErrInvalidConfig)
	}
}

func TestChipStack(t *testing.T) {
	projector, err := satchip.NewProjector()
	assert.NoError(t, err)
	grid, err := satchip.NewGrid(10, satchip.WithLatitudeRange(1, 2), satchip.WithLongitudeRange(2, 4))
	assert.NoError(t, err)
	cells := grid.Cells()

	var labelChips []*satchip.LabelChip
	for _, cell := range []satchip.GridCell{cells[0], cells[len(cells)-1]} {
		chip, err := satchip.NewChip(projector, grid, cell, 1000)
		assert.NoError(t, err)
		labelChips = append(labelChips, &satchip.LabelChip{
			Chip: chip,
			Data: make([]int16, chip.NRow*chip.NCol),
		})
	}

	acquired := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	chipStack := satchip.NewChipStack(acquired, "v1", labelChips)
	assert.Equal(t, acquired, chipStack.Time)
	assert.Equal(t, "v1", chipStack.Version)
	assert.False(t, chipStack.Created.IsZero())
	assert.Equal(t, []string{cells[0].Name, cells[len(cells)-1].Name}, chipStack.Names())
	assert.Equal(t, labelChips[0].Bounds.Union(labelChips[1].Bounds), chipStack.Bounds)
	assert.Equal(t, labelChips[0].Bounds.Union(labelChips[1].Bounds), satchip.OverallBounds([]*satchip.Chip{labelChips[0].Chip, labelChips[1].Chip}))
	assert.True(t, satchip.OverallBounds(nil).IsZero())
}

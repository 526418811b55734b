package satchip

import (
	"context"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A ChipLabelsOption sets an option on ChipLabels.
type ChipLabelsOption func(*chipLabelsOptions)

type chipLabelsOptions struct {
	concurrency int
	logger      logrus.FieldLogger
}

// WithConcurrency sets the maximum number of chips sampled in parallel.
func WithConcurrency(concurrency int) ChipLabelsOption {
	return func(o *chipLabelsOptions) {
		o.concurrency = concurrency
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) ChipLabelsOption {
	return func(o *chipLabelsOptions) {
		o.logger = logger
	}
}

// GridForRaster returns a grid with the given spacing covering raster. The
// grid's ranges are the raster's EPSG:4326 bound extended south and west by
// one cell so that cells anchored outside the raster but overlapping it are
// included.
func GridForRaster(projector *Projector, raster GeoRaster, spacing float64, options ...GridOption) (*Grid, error) {
	width, height := raster.Size()
	bound, err := projector.BoundTo4326(raster.Transform().Bound(width, height), raster.EPSG(), 0)
	if err != nil {
		return nil, err
	}

	latPad := spacing * degreesPerKilometre
	maxAbsLat := min(max(math.Abs(bound.Min.Lat()), math.Abs(bound.Max.Lat()))+latPad, 89)
	lonPad := latPad / math.Cos(maxAbsLat*math.Pi/180)

	config := DefaultGridConfig(spacing)
	config.LatMin = max(bound.Min.Lat()-latPad, -90)
	config.LatMax = min(bound.Max.Lat(), 90)
	config.LonMin = max(bound.Min.Lon()-lonPad, -180)
	config.LonMax = min(bound.Max.Lon(), 180)
	for _, option := range options {
		option(&config)
	}
	return config.NewGrid()
}

// ChipLabels resamples raster onto the chips of the cells of grid that
// intersect it, at resolution metres per pixel. Samples are interpolated
// bilinearly, missing samples become zero, and values are rounded. Only chips
// with at least one non-zero label are returned, in grid order.
func ChipLabels(ctx context.Context, projector *Projector, raster GeoRaster, grid *Grid, resolution float64, options ...ChipLabelsOption) ([]*LabelChip, error) {
	o := &chipLabelsOptions{
		concurrency: runtime.GOMAXPROCS(0),
		logger:      logrus.StandardLogger(),
	}
	for _, option := range options {
		option(o)
	}

	width, height := raster.Size()
	rasterBound, err := projector.BoundTo4326(raster.Transform().Bound(width, height), raster.EPSG(), 0)
	if err != nil {
		return nil, err
	}
	crsToPixel, err := raster.Transform().Invert()
	if err != nil {
		return nil, err
	}

	var cells []GridCell
	for _, cell := range grid.Cells() {
		if grid.footprintBound(cell.RowIndex, cell.ColIndex, 0).Intersects(rasterBound) {
			cells = append(cells, cell)
		}
	}
	o.logger.WithFields(logrus.Fields{
		"cells":  len(cells),
		"epsg":   raster.EPSG(),
		"bounds": boundFields(rasterBound),
	}).Debug("chipping labels")

	labelChips := make([]*LabelChip, len(cells))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.concurrency, 1))
	for i, cell := range cells {
		g.Go(func() error {
			labelChip, err := chipLabel(ctx, projector, raster, crsToPixel, grid, cell, resolution)
			if err != nil {
				return err
			}
			labelChips[i] = labelChip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	labelChips = slices.DeleteFunc(labelChips, func(labelChip *LabelChip) bool {
		return labelChip == nil
	})
	o.logger.WithFields(logrus.Fields{
		"cells": len(cells),
		"kept":  len(labelChips),
	}).Debug("chipped labels")
	return labelChips, nil
}

// chipLabel returns the label chip of cell, or nil if all its labels are zero.
func chipLabel(ctx context.Context, projector *Projector, raster GeoRaster, crsToPixel Affine, grid *Grid, cell GridCell, resolution float64) (*LabelChip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chip, err := NewChip(projector, grid, cell, resolution)
	if err != nil {
		return nil, err
	}

	coords := chip.PixelCenters()
	if err := projector.Transform(chip.EPSG, raster.EPSG(), coords); err != nil {
		return nil, err
	}
	for _, coord := range coords {
		coord[0], coord[1] = crsToPixel.Apply(coord[0], coord[1])
	}
	samples, err := InterpolateBilinear(ctx, raster, coords)
	if err != nil {
		return nil, err
	}

	labelChipsProcessed.Inc()
	data := make([]int16, len(samples))
	valuable := false
	for i, sample := range samples {
		if math.IsNaN(sample) {
			continue
		}
		label := min(max(math.Round(sample), math.MinInt16), math.MaxInt16)
		data[i] = int16(label)
		if data[i] != 0 {
			valuable = true
		}
	}
	if !valuable {
		return nil, nil
	}
	labelChipsKept.Inc()
	return &LabelChip{
		Chip: chip,
		Data: data,
	}, nil
}

// NewChipStack returns a ChipStack of labelChips acquired at t.
func NewChipStack(t time.Time, version string, labelChips []*LabelChip) *ChipStack {
	chips := make([]*Chip, len(labelChips))
	for i, labelChip := range labelChips {
		chips[i] = labelChip.Chip
	}
	return &ChipStack{
		Created: time.Now().UTC(),
		Time:    t,
		Bounds:  OverallBounds(chips),
		Version: version,
		Chips:   labelChips,
	}
}

func boundFields(bound orb.Bound) []float64 {
	return []float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}
}

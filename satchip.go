// Package satchip partitions the Earth into a deterministic grid of named
// cells and describes the raster chips that cover them.
//
// A Grid has a fixed ladder of row latitudes and, for each row, a number of
// columns proportional to the circumference of the Earth at that latitude.
// Cells are named by their signed row and column offsets from the equator and
// the prime meridian (e.g. 3U_5R, 2D_4L) and carry the EPSG code of their UTM
// zone.
package satchip

import "context"

// A Coord is a pixel coordinate.
type Coord struct {
	X int // Column.
	Y int // Row.
}

// A TileCoord is a tile coordinate.
type TileCoord struct {
	C int // Column.
	R int // Row.
}

// A Raster returns samples at pixel coordinates. Missing samples are NaN.
type Raster interface {
	Samples(ctx context.Context, coords []Coord) ([]float64, error)
}

// A GeoRaster is a Raster with a coordinate reference system.
type GeoRaster interface {
	Raster
	EPSG() int
	Transform() Affine
	Size() (width, height int)
}

package satchip

import (
	"fmt"

	"github.com/paulmach/orb"
)

// An Affine is a pixel-to-CRS transform in GDAL geotransform order:
//
//	x = a[0] + col*a[1] + row*a[2]
//	y = a[3] + col*a[4] + row*a[5]
type Affine [6]float64

// NewNorthUpAffine returns the north-up transform with top-left corner
// (originX, originY) and square pixels of size resolution.
func NewNorthUpAffine(originX, originY, resolution float64) Affine {
	return Affine{originX, resolution, 0, originY, 0, -resolution}
}

// Apply returns the CRS coordinate of the pixel coordinate (col, row).
func (a Affine) Apply(col, row float64) (float64, float64) {
	return a[0] + col*a[1] + row*a[2], a[3] + col*a[4] + row*a[5]
}

// Invert returns the CRS-to-pixel transform of a.
func (a Affine) Invert() (Affine, error) {
	det := a[1]*a[5] - a[2]*a[4]
	if det == 0 || !isFinite(det) {
		return Affine{}, fmt.Errorf("%w: singular transform %v", ErrInvalidConfig, a)
	}
	return Affine{
		(a[2]*a[3] - a[0]*a[5]) / det,
		a[5] / det,
		-a[2] / det,
		(a[0]*a[4] - a[1]*a[3]) / det,
		-a[4] / det,
		a[1] / det,
	}, nil
}

// Bound returns the CRS bound of a raster of width by height pixels.
func (a Affine) Bound(width, height int) orb.Bound {
	x, y := a.Apply(0, 0)
	bound := orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x, y}}
	for _, corner := range [][2]float64{
		{float64(width), 0},
		{0, float64(height)},
		{float64(width), float64(height)},
	} {
		x, y := a.Apply(corner[0], corner[1])
		bound = bound.Extend(orb.Point{x, y})
	}
	return bound
}

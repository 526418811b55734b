package satchip

import (
	"context"
	"math"
)

// InterpolateBilinear returns bilinearly interpolated samples of raster at
// continuous pixel coordinates {col, row}, where the center of pixel (c, r) is
// at (c+0.5, r+0.5). Missing neighbors are excluded and the remaining weights
// renormalized. The result is NaN only if all four neighbors are missing.
func InterpolateBilinear(ctx context.Context, raster Raster, pixelCoords [][]float64) ([]float64, error) {
	rasterCoords := make([]Coord, 4*len(pixelCoords))
	weights := make([]float64, 4*len(pixelCoords))
	for i, pixelCoord := range pixelCoords {
		fx, fy := pixelCoord[0]-0.5, pixelCoord[1]-0.5
		if !isPixelCoord(fx) || !isPixelCoord(fy) {
			fx, fy = -2, -2
		}
		x0, y0 := math.Floor(fx), math.Floor(fy)
		dx, dy := fx-x0, fy-y0
		c0, r0 := int(x0), int(y0)
		rasterCoords[4*i+0] = Coord{X: c0, Y: r0}
		rasterCoords[4*i+1] = Coord{X: c0 + 1, Y: r0}
		rasterCoords[4*i+2] = Coord{X: c0, Y: r0 + 1}
		rasterCoords[4*i+3] = Coord{X: c0 + 1, Y: r0 + 1}
		weights[4*i+0] = (1 - dx) * (1 - dy)
		weights[4*i+1] = dx * (1 - dy)
		weights[4*i+2] = (1 - dx) * dy
		weights[4*i+3] = dx * dy
	}
	samples, err := raster.Samples(ctx, rasterCoords)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(pixelCoords))
	for i := range pixelCoords {
		var sum, totalWeight float64
		for j := 4 * i; j < 4*i+4; j++ {
			if math.IsNaN(samples[j]) || weights[j] == 0 {
				continue
			}
			sum += weights[j] * samples[j]
			totalWeight += weights[j]
		}
		if totalWeight == 0 {
			result[i] = math.NaN()
			continue
		}
		result[i] = sum / totalWeight
	}
	return result, nil
}

// isPixelCoord returns whether x can be converted to an int pixel index.
func isPixelCoord(x float64) bool {
	return isFinite(x) && math.Abs(x) < 1<<30
}

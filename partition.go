package satchip

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// RadiusEquator is the equatorial radius of the WGS84 ellipsoid in kilometres.
const RadiusEquator = 6378.137

// maxDivisions bounds the number of rows and the number of columns per row.
const maxDivisions = 1 << 22

// maxCells bounds the estimated number of cells in a grid.
const maxCells = 1 << 24

// degreesPerKilometre converts distances along a great circle of radius
// RadiusEquator to degrees.
const degreesPerKilometre = 180 / (math.Pi * RadiusEquator)

// A gridLine is a labelled row latitude or column longitude.
type gridLine struct {
	label string
	value float64
}

// rowDivisions returns the number of rows from pole to pole.
func rowDivisions(spacing float64) int {
	return divisions(math.Pi*RadiusEquator, spacing)
}

// estimatedCells returns an upper bound on the number of cells in a grid with
// spacing covering the given latitude and longitude ranges, assuming every row
// has as many columns as the equator.
func estimatedCells(spacing, latRange, lonRange float64) float64 {
	rows := float64(rowDivisions(spacing))*latRange/180 + 1
	cols := float64(colDivisions(0, spacing))*lonRange/360 + 1
	return rows * cols
}

// colDivisions returns the number of columns around the parallel at lat.
func colDivisions(lat, spacing float64) int {
	return divisions(CircumferenceAtLatitude(lat), spacing)
}

// CircumferenceAtLatitude returns the length of the parallel at lat in
// kilometres.
func CircumferenceAtLatitude(lat float64) float64 {
	return 2 * math.Pi * RadiusEquator * math.Cos(lat*math.Pi/180)
}

func divisions(length, spacing float64) int {
	return max(int(math.Ceil(length/spacing)), 1)
}

// ladder returns n equally spaced values from lo over a span, shifted by half
// a span (wrapping so that the first value lands on lo+span/2) and sorted. For
// rows lo is -90 and span 180, for columns lo is -180 and span 360. The value
// lo+span/2 (the equator or prime meridian) is always present.
func ladder(n int, lo, span float64) []float64 {
	values := floats.Span(make([]float64, n+1), lo, lo+span)[:n]
	for i, value := range values {
		values[i] = floorMod(value, span) + lo
	}
	slices.Sort(values)
	return slices.Compact(values)
}

// partition labels values relative to the first value >= 0 and keeps those in
// [minValue, maxValue].
func partition(values []float64, minValue, maxValue float64, format func(int) string) []gridLine {
	zeroth := sort.SearchFloat64s(values, 0)
	lines := make([]gridLine, 0, len(values))
	for i, value := range values {
		if value < minValue || maxValue < value {
			continue
		}
		lines = append(lines, gridLine{
			label: format(i - zeroth),
			value: value,
		})
	}
	return lines
}

// partitionRows returns the labelled row latitudes in [latMin, latMax].
func partitionRows(spacing, latMin, latMax float64) []gridLine {
	return partition(ladder(rowDivisions(spacing), -90, 180), latMin, latMax, FormatRowLabel)
}

// partitionCols returns the labelled column longitudes of the row at lat in
// [lonMin, lonMax].
func partitionCols(lat, spacing, lonMin, lonMax float64) []gridLine {
	return partition(ladder(colDivisions(lat, spacing), -180, 360), lonMin, lonMax, FormatColLabel)
}

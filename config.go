package satchip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// A CRSMode selects the point of a cell used to choose its UTM zone.
type CRSMode string

const (
	// CRSModeBottomLeft uses the cell's anchor point.
	CRSModeBottomLeft CRSMode = "bottomleft"
	// CRSModeCenter uses the cell's approximate center.
	CRSModeCenter CRSMode = "center"
)

// maxConfigFileSize is the largest accepted grid configuration file.
const maxConfigFileSize = 1 << 20

// A GridConfig holds the parameters from which a Grid is built. It is
// comparable and can be used as a map or cache key.
type GridConfig struct {
	Spacing float64 `json:"spacing"` // Kilometres.
	LatMin  float64 `json:"lat_min"`
	LatMax  float64 `json:"lat_max"`
	LonMin  float64 `json:"lon_min"`
	LonMax  float64 `json:"lon_max"`
	CRSMode CRSMode `json:"crs_mode"`
}

// A GridOption sets an option on a GridConfig.
type GridOption func(*GridConfig)

// DefaultGridConfig returns the default configuration for spacing: latitudes
// -85 to 85, all longitudes, and bottom-left CRS assignment.
func DefaultGridConfig(spacing float64) GridConfig {
	return GridConfig{
		Spacing: spacing,
		LatMin:  -85,
		LatMax:  85,
		LonMin:  -180,
		LonMax:  180,
		CRSMode: CRSModeBottomLeft,
	}
}

func WithLatitudeRange(latMin, latMax float64) GridOption {
	return func(c *GridConfig) {
		c.LatMin = latMin
		c.LatMax = latMax
	}
}

func WithLongitudeRange(lonMin, lonMax float64) GridOption {
	return func(c *GridConfig) {
		c.LonMin = lonMin
		c.LonMax = lonMax
	}
}

func WithCRSMode(crsMode CRSMode) GridOption {
	return func(c *GridConfig) {
		c.CRSMode = crsMode
	}
}

// Validate returns an error wrapping ErrInvalidConfig if c is not a valid
// grid configuration.
func (c GridConfig) Validate() error {
	switch {
	case !isFinite(c.Spacing) || c.Spacing <= 0:
		return fmt.Errorf("%w: spacing %v must be positive", ErrInvalidConfig, c.Spacing)
	case rowDivisions(c.Spacing) > maxDivisions:
		return fmt.Errorf("%w: spacing %v is too small", ErrInvalidConfig, c.Spacing)
	case !isFinite(c.LatMin) || !isFinite(c.LatMax) || c.LatMin >= c.LatMax:
		return fmt.Errorf("%w: latitude range [%v, %v]", ErrInvalidConfig, c.LatMin, c.LatMax)
	case c.LatMin < -90 || 90 < c.LatMax:
		return fmt.Errorf("%w: latitude range [%v, %v] outside [-90, 90]", ErrInvalidConfig, c.LatMin, c.LatMax)
	case !isFinite(c.LonMin) || !isFinite(c.LonMax) || c.LonMin >= c.LonMax:
		return fmt.Errorf("%w: longitude range [%v, %v]", ErrInvalidConfig, c.LonMin, c.LonMax)
	case c.LonMin < -180 || 180 < c.LonMax:
		return fmt.Errorf("%w: longitude range [%v, %v] outside [-180, 180]", ErrInvalidConfig, c.LonMin, c.LonMax)
	case estimatedCells(c.Spacing, c.LatMax-c.LatMin, c.LonMax-c.LonMin) > maxCells:
		return fmt.Errorf("%w: spacing %v is too small for latitude range [%v, %v] and longitude range [%v, %v]",
			ErrInvalidConfig, c.Spacing, c.LatMin, c.LatMax, c.LonMin, c.LonMax)
	}
	switch c.CRSMode {
	case CRSModeBottomLeft, CRSModeCenter:
		return nil
	default:
		return fmt.Errorf("%w: unknown CRS mode %q", ErrInvalidConfig, c.CRSMode)
	}
}

// LoadGridConfig loads a GridConfig from a JSON file. Fields omitted from the
// file retain the values of DefaultGridConfig. Unknown fields are an error.
func LoadGridConfig(path string) (GridConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return GridConfig{}, fmt.Errorf("%w: config file must have .json extension, got %q", ErrInvalidConfig, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return GridConfig{}, err
	}
	if fileInfo.Size() > maxConfigFileSize {
		return GridConfig{}, fmt.Errorf("%w: config file too large: %d bytes (max %d)", ErrInvalidConfig, fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return GridConfig{}, err
	}

	config := DefaultGridConfig(0)
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return GridConfig{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, cleanPath, err)
	}
	if err := config.Validate(); err != nil {
		return GridConfig{}, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return config, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

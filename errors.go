package satchip

import "errors"

var (
	// ErrInvalidConfig is returned when grid parameters or operation arguments
	// are malformed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUTMResolution is returned when a coordinate does not resolve to a
	// valid UTM EPSG code.
	ErrUTMResolution = errors.New("UTM resolution error")

	// ErrNotFound is returned when a lookup falls outside the grid.
	ErrNotFound = errors.New("not found")
)

package satchip

import (
	"fmt"
	"strconv"
)

// Direction suffixes of row and column labels.
const (
	directionUp    = 'U'
	directionDown  = 'D'
	directionRight = 'R'
	directionLeft  = 'L'
)

// FormatRowLabel returns the label of the row offset rows from the zeroth row.
// Non-negative offsets are north (0U, 1U, ...), negative offsets are south (1D,
// 2D, ...).
func FormatRowLabel(offset int) string {
	return formatLabel(offset, directionUp, directionDown)
}

// FormatColLabel returns the label of the column offset columns from the
// zeroth column. Non-negative offsets are east (0R, 1R, ...), negative offsets
// are west (1L, 2L, ...).
func FormatColLabel(offset int) string {
	return formatLabel(offset, directionRight, directionLeft)
}

// ParseRowLabel returns the signed offset encoded in a row label.
func ParseRowLabel(label string) (int, error) {
	return parseLabel(label, directionUp, directionDown)
}

// ParseColLabel returns the signed offset encoded in a column label.
func ParseColLabel(label string) (int, error) {
	return parseLabel(label, directionRight, directionLeft)
}

// CellName returns the name of the cell at row and col.
func CellName(row, col string) string {
	return row + "_" + col
}

func formatLabel(offset int, positive, negative byte) string {
	if offset < 0 {
		return strconv.Itoa(-offset) + string(negative)
	}
	return strconv.Itoa(offset) + string(positive)
}

func parseLabel(label string, positive, negative byte) (int, error) {
	if len(label) < 2 {
		return 0, fmt.Errorf("%w: label %q", ErrInvalidConfig, label)
	}
	digits := label[:len(label)-1]
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("%w: label %q", ErrInvalidConfig, label)
	}
	for i := range len(digits) {
		if digits[i] < '0' || '9' < digits[i] {
			return 0, fmt.Errorf("%w: label %q", ErrInvalidConfig, label)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: label %q: %w", ErrInvalidConfig, label, err)
	}
	switch label[len(label)-1] {
	case positive:
		return n, nil
	case negative:
		if n == 0 {
			return 0, fmt.Errorf("%w: label %q", ErrInvalidConfig, label)
		}
		return -n, nil
	default:
		return 0, fmt.Errorf("%w: label %q", ErrInvalidConfig, label)
	}
}

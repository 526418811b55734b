package satchip_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-satchip"
)

func TestLabels(t *testing.T) {
	for _, tc := range []struct {
		offset      int
		expectedRow string
		expectedCol string
	}{
		{offset: 0, expectedRow: "0U", expectedCol: "0R"},
		{offset: 1, expectedRow: "1U", expectedCol: "1R"},
		{offset: 12, expectedRow: "12U", expectedCol: "12R"},
		{offset: -1, expectedRow: "1D", expectedCol: "1L"},
		{offset: -2003, expectedRow: "2003D", expectedCol: "2003L"},
	} {
		row := satchip.FormatRowLabel(tc.offset)
		assert.Equal(t, tc.expectedRow, row)
		col := satchip.FormatColLabel(tc.offset)
		assert.Equal(t, tc.expectedCol, col)

		rowOffset, err := satchip.ParseRowLabel(row)
		assert.NoError(t, err)
		assert.Equal(t, tc.offset, rowOffset)
		colOffset, err := satchip.ParseColLabel(col)
		assert.NoError(t, err)
		assert.Equal(t, tc.offset, colOffset)
	}

	assert.Equal(t, "3U_5R", satchip.CellName("3U", "5R"))
	assert.Equal(t, "2D_4L", satchip.CellName(satchip.FormatRowLabel(-2), satchip.FormatColLabel(-4)))
}

func TestLabelsRoundTripGridCells(t *testing.T) {
	grid, err := satchip.NewGrid(100)
	assert.NoError(t, err)

	for _, cell := range grid.Cells() {
		rowOffset, err := satchip.ParseRowLabel(cell.Row)
		assert.NoError(t, err)
		assert.Equal(t, cell.Row, satchip.FormatRowLabel(rowOffset))

		colOffset, err := satchip.ParseColLabel(cell.Col)
		assert.NoError(t, err)
		assert.Equal(t, cell.Col, satchip.FormatColLabel(colOffset))

		assert.Equal(t, cell.Name, satchip.CellName(cell.Row, cell.Col))
	}
}

func TestParseLabelErrors(t *testing.T) {
	for _, label := range []string{
		"",
		"U",
		"0D",
		"01U",
		"-1U",
		"+1U",
		"1 U",
		"1R",
		"1L",
		"1u",
		"abcU",
		"99999999999999999999999U",
	} {
		_, err := satchip.ParseRowLabel(label)
		assert.IsError(t, err, satchip.ErrInvalidConfig, label)
	}
	for _, label := range []string{"0L", "1U", "1D", "R"} {
		_, err := satchip.ParseColLabel(label)
		assert.IsError(t, err, satchip.ErrInvalidConfig, label)
	}
}

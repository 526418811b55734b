package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/twpayne/go-satchip"
)

func runRootCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestLookupCmd(t *testing.T) {
	for _, tc := range []struct {
		name           string
		args           []string
		expectedPrefix string
		expectedErr    error
	}{
		{
			name:           "origin",
			args:           []string{"lookup", "0.5", "0.5", "--spacing", "1000"},
			expectedPrefix: "0U_0R row=9 col=20 offset=0,0 ",
		},
		{
			name:           "south_west_of_origin",
			args:           []string{"lookup", "--spacing", "1000", "--", "-0.5", "-0.5"},
			expectedPrefix: "1D_1L row=8 ",
		},
		{
			name:        "north_of_grid",
			args:        []string{"lookup", "89", "0", "--spacing", "1000"},
			expectedErr: satchip.ErrNotFound,
		},
		{
			name:        "dense_global_grid",
			args:        []string{"lookup", "0", "0", "--spacing", "1"},
			expectedErr: satchip.ErrInvalidConfig,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := runRootCmd(t, tc.args...)
			if tc.expectedErr != nil {
				assert.IsError(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.HasPrefix(t, actual, tc.expectedPrefix)
		})
	}
}

func TestUTMCmd(t *testing.T) {
	actual, err := runRootCmd(t, "utm", "60", "5")
	assert.NoError(t, err)
	assert.Equal(t, "32632\n", actual)
}

func TestGridCmd(t *testing.T) {
	actual, err := runRootCmd(t, "grid", "--spacing", "1000", "--lat-min", "1", "--lat-max", "10", "--lon-min", "1", "--lon-max", "10")
	assert.NoError(t, err)
	featureCollection, err := geojson.UnmarshalFeatureCollection([]byte(actual))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(featureCollection.Features))
	assert.Equal(t, "1U_1R", featureCollection.Features[0].Properties.MustString("name"))
}

func TestChipLabelsCmdInvalidTime(t *testing.T) {
	_, err := runRootCmd(t, "chip-labels", "main_test.go", "yesterday")
	var parseErr *time.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestChipStackFeatureCollection(t *testing.T) {
	grid, err := satchip.NewGrid(10, satchip.WithLatitudeRange(1, 2), satchip.WithLongitudeRange(2, 4))
	assert.NoError(t, err)
	cell := grid.Cells()[0]
	bound, err := grid.FootprintBound(cell.RowIndex, cell.ColIndex, 0)
	assert.NoError(t, err)
	labelChip := &satchip.LabelChip{
		Chip: &satchip.Chip{
			Cell:       cell,
			Bounds:     bound,
			EPSG:       cell.EPSG,
			Resolution: 5000,
			NRow:       2,
			NCol:       2,
		},
		Data: []int16{1, 2, 3, 4},
	}
	acquired := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	chipStack := satchip.NewChipStack(acquired, "test", []*satchip.LabelChip{labelChip})

	featureCollection, err := chipStackFeatureCollection(grid, chipStack)
	assert.NoError(t, err)
	data, err := featureCollection.MarshalJSON()
	assert.NoError(t, err)

	actual, err := geojson.UnmarshalFeatureCollection(data)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(actual.Features))
	assert.Equal(t, cell.Name, actual.Features[0].Properties.MustString("name"))
	assert.Equal(t, 2.0, actual.Features[0].Properties.MustFloat64("nrow"))
	assert.Equal(t, geojson.NewBBox(bound), actual.BBox)
	assert.Equal(t, "2024-05-01T10:30:00Z", actual.ExtraMembers.MustString("time"))
	assert.Equal(t, "test", actual.ExtraMembers.MustString("version"))
	assert.Equal[any](t, []any{cell.Name}, actual.ExtraMembers["names"])
	_, err = time.Parse(time.RFC3339, actual.ExtraMembers.MustString("created"))
	assert.NoError(t, err)
}

func TestChipStackFeatureCollectionEmpty(t *testing.T) {
	grid, err := satchip.NewGrid(10, satchip.WithLatitudeRange(1, 2), satchip.WithLongitudeRange(2, 4))
	assert.NoError(t, err)
	chipStack := satchip.NewChipStack(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "test", nil)

	featureCollection, err := chipStackFeatureCollection(grid, chipStack)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(featureCollection.Features))
	assert.Zero(t, featureCollection.BBox)
	assert.Equal[any](t, []string{}, featureCollection.ExtraMembers["names"])
}

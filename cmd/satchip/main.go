package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twpayne/go-satchip"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// gridCacheSize is the number of grids kept between lookups in one process.
const gridCacheSize = 4

type gridFlags struct {
	configPath string
	spacing    float64
	latMin     float64
	latMax     float64
	lonMin     float64
	lonMax     float64
	crsMode    string
	logLevel   string
	gridCache  *satchip.GridCache
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &gridFlags{}
	defaults := satchip.DefaultGridConfig(10)

	rootCmd := &cobra.Command{
		Use:          "satchip",
		Short:        "Partition the Earth into a named grid and chip rasters onto it",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetOutput(cmd.ErrOrStderr())
			flags.gridCache, err = satchip.NewGridCache(gridCacheSize)
			return err
		},
	}

	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringVar(&flags.configPath, "config", os.Getenv("SATCHIP_CONFIG"), "path to JSON grid config")
	persistentFlags.Float64Var(&flags.spacing, "spacing", defaults.Spacing, "grid spacing in kilometres")
	persistentFlags.Float64Var(&flags.latMin, "lat-min", defaults.LatMin, "minimum latitude")
	persistentFlags.Float64Var(&flags.latMax, "lat-max", defaults.LatMax, "maximum latitude")
	persistentFlags.Float64Var(&flags.lonMin, "lon-min", defaults.LonMin, "minimum longitude")
	persistentFlags.Float64Var(&flags.lonMax, "lon-max", defaults.LonMax, "maximum longitude")
	persistentFlags.StringVar(&flags.crsMode, "crs-mode", string(defaults.CRSMode), "CRS assignment mode: bottomleft or center")
	persistentFlags.StringVar(&flags.logLevel, "log-level", "info", "log level")

	rootCmd.AddCommand(
		newGridCmd(flags),
		newLookupCmd(flags),
		newUTMCmd(),
		newChipLabelsCmd(flags),
	)
	return rootCmd
}

// gridConfig returns the grid configuration from the config file, if any,
// overridden by explicitly set flags.
func (f *gridFlags) gridConfig(cmd *cobra.Command) (satchip.GridConfig, error) {
	config := satchip.DefaultGridConfig(f.spacing)
	if f.configPath != "" {
		var err error
		if config, err = satchip.LoadGridConfig(f.configPath); err != nil {
			return satchip.GridConfig{}, err
		}
	}
	changed := cmd.Flags().Changed
	if f.configPath == "" || changed("spacing") {
		config.Spacing = f.spacing
	}
	if f.configPath == "" || changed("lat-min") {
		config.LatMin = f.latMin
	}
	if f.configPath == "" || changed("lat-max") {
		config.LatMax = f.latMax
	}
	if f.configPath == "" || changed("lon-min") {
		config.LonMin = f.lonMin
	}
	if f.configPath == "" || changed("lon-max") {
		config.LonMax = f.lonMax
	}
	if f.configPath == "" || changed("crs-mode") {
		config.CRSMode = satchip.CRSMode(f.crsMode)
	}
	return config, config.Validate()
}

// grid returns the grid configured by the config file and flags.
func (f *gridFlags) grid(cmd *cobra.Command) (*satchip.Grid, error) {
	config, err := f.gridConfig(cmd)
	if err != nil {
		return nil, err
	}
	return f.gridCache.Get(cmd.Context(), config)
}

func newGridCmd(flags *gridFlags) *cobra.Command {
	var bufferRatio float64
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Write the grid's cell footprints as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := flags.grid(cmd)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"rows":  grid.NumRows(),
				"cells": grid.Len(),
			}).Info("built grid")

			featureCollection := geojson.NewFeatureCollection()
			for _, cell := range grid.Cells() {
				footprint, err := grid.CellFootprint(cell, bufferRatio)
				if err != nil {
					return err
				}
				featureCollection.Append(cellFeature(cell, footprint))
			}
			return writeFeatureCollection(cmd, featureCollection)
		},
	}
	cmd.Flags().Float64Var(&bufferRatio, "buffer", 0, "footprint buffer as a ratio of cell width and height")
	return cmd
}

func newLookupCmd(flags *gridFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup latitude longitude",
		Short: "Print the cell containing a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(args)
			if err != nil {
				return err
			}
			grid, err := flags.grid(cmd)
			if err != nil {
				return err
			}
			cell, err := grid.CellContaining(lat, lon)
			if err != nil {
				return err
			}
			rowOffsets, colOffsets, err := grid.LatLonToOffsets([]float64{lat}, []float64{lon})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s row=%d col=%d offset=%d,%d anchor=%v,%v epsg=%d\n",
				cell.Name, cell.RowIndex, cell.ColIndex, rowOffsets[0], colOffsets[0], cell.Lat, cell.Lon, cell.EPSG)
			return err
		},
	}
}

func newUTMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "utm latitude longitude",
		Short: "Print the UTM EPSG code of a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(args)
			if err != nil {
				return err
			}
			epsg, err := satchip.EPSGFromLatLon(lat, lon)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), epsg)
			return err
		},
	}
}

func newChipLabelsCmd(flags *gridFlags) *cobra.Command {
	var (
		resolution  float64
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "chip-labels path time",
		Short: "Chip a GeoTIFF label raster acquired at an RFC 3339 time onto the grid and write the chip stack as GeoJSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return err
			}
			acquired, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return err
			}
			config, err := flags.gridConfig(cmd)
			if err != nil {
				return err
			}

			raster, err := satchip.OpenGeoTIFF(os.DirFS(filepath.Dir(path)), filepath.Base(path))
			if err != nil {
				return err
			}
			defer raster.Close()

			projector, err := satchip.NewProjector()
			if err != nil {
				return err
			}
			grid, err := satchip.GridForRaster(projector, raster, config.Spacing, satchip.WithCRSMode(config.CRSMode))
			if err != nil {
				return err
			}
			labelChips, err := satchip.ChipLabels(cmd.Context(), projector, raster, grid, resolution,
				satchip.WithConcurrency(concurrency),
				satchip.WithLogger(logrus.WithField("path", path)),
			)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"path":  path,
				"chips": len(labelChips),
			}).Info("found valid chips")

			chipStack := satchip.NewChipStack(acquired, version, labelChips)
			featureCollection, err := chipStackFeatureCollection(grid, chipStack)
			if err != nil {
				return err
			}
			return writeFeatureCollection(cmd, featureCollection)
		},
	}
	cmd.Flags().Float64Var(&resolution, "resolution", 10, "chip resolution in metres")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "number of chips to sample in parallel")
	return cmd
}

// chipStackFeatureCollection returns the footprints of chipStack's chips as a
// feature collection carrying chipStack's metadata as foreign members.
func chipStackFeatureCollection(grid *satchip.Grid, chipStack *satchip.ChipStack) (*geojson.FeatureCollection, error) {
	featureCollection := geojson.NewFeatureCollection()
	for _, labelChip := range chipStack.Chips {
		footprint, err := grid.CellFootprint(labelChip.Cell, 0)
		if err != nil {
			return nil, err
		}
		feature := cellFeature(labelChip.Cell, footprint)
		feature.Properties["nrow"] = labelChip.NRow
		feature.Properties["ncol"] = labelChip.NCol
		featureCollection.Append(feature)
	}
	if len(chipStack.Chips) > 0 {
		featureCollection.BBox = geojson.NewBBox(chipStack.Bounds)
	}
	featureCollection.ExtraMembers = geojson.Properties{
		"created": chipStack.Created.Format(time.RFC3339),
		"time":    chipStack.Time.Format(time.RFC3339),
		"version": chipStack.Version,
		"names":   chipStack.Names(),
	}
	return featureCollection, nil
}

func cellFeature(cell satchip.GridCell, footprint orb.Polygon) *geojson.Feature {
	feature := geojson.NewFeature(footprint)
	feature.Properties["name"] = cell.Name
	feature.Properties["row"] = cell.Row
	feature.Properties["col"] = cell.Col
	feature.Properties["row_idx"] = cell.RowIndex
	feature.Properties["col_idx"] = cell.ColIndex
	feature.Properties["utm_zone"] = cell.UTMZone
	feature.Properties["epsg"] = "EPSG:" + strconv.Itoa(cell.EPSG)
	return feature
}

func writeFeatureCollection(cmd *cobra.Command, featureCollection *geojson.FeatureCollection) error {
	data, err := featureCollection.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}

func parseLatLon(args []string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

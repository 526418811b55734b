package satchip

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"github.com/maypok86/otter/v2"
	"github.com/paulmach/orb"
	"golang.org/x/image/tiff/lzw"
)

// TIFF field values.
const (
	compressionNone = 1
	compressionLZW  = 5

	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

var errShortRead = errors.New("short read")

// A GeoTIFF is an open, tiled, single band GeoTIFF file.
type GeoTIFF struct {
	file                      geoTIFFFile
	byteOrder                 binary.ByteOrder
	imageWidth                int
	imageLength               int
	tileWidth                 int
	tileLength                int
	tilesAcross               int
	tilesDown                 int
	tileOffsets               []uint64
	tileByteCounts            []uint64
	compression               int
	bitsPerSample             int
	sampleFormat              int
	tileSampleCount           int
	tileByteCountUncompressed int
	tileCacheSizeBytes        int
	tileSamplesCache          *otter.Cache[TileCoord, []float64]
	noData                    float64
	hasNoData                 bool
	epsg                      int
	transform                 Affine
}

// A GeoTIFFOption sets an option on a GeoTIFF.
type GeoTIFFOption func(*GeoTIFF)

type geoTIFFFile interface {
	io.ReaderAt
	io.ReadSeeker
	io.Closer
}

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth          uint32    `tiff:"field,tag=256"`
	ImageLength         uint32    `tiff:"field,tag=257"`
	BitsPerSample       uint16    `tiff:"field,tag=258"`
	Compression         uint16    `tiff:"field,tag=259"`
	SamplesPerPixel     uint16    `tiff:"field,tag=277"`
	PlanarConfiguration uint16    `tiff:"field,tag=284"`
	Predictor           uint16    `tiff:"field,tag=317"`
	TileWidth           uint32    `tiff:"field,tag=322"`
	TileLength          uint32    `tiff:"field,tag=323"`
	TileOffsets         []uint64  `tiff:"field,tag=324"`
	TileByteCounts      []uint64  `tiff:"field,tag=325"`
	SampleFormat        uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag  []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag    []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag  []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag  []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag   string    `tiff:"field,tag=34737"`
	GDALNoData          string    `tiff:"field,tag=42113"`
}

// OpenGeoTIFF opens filename in fsys. The file must be a classic (not
// BigTIFF) tiled TIFF with one sample per pixel, no predictor, and no or LZW
// compression. Both byte orders are supported. Image and tile dimensions may be
// SHORT or LONG.
func OpenGeoTIFF(fsys fs.FS, filename string, options ...GeoTIFFOption) (*GeoTIFF, error) {
	var err error
	ok := false

	f := &GeoTIFF{
		tileCacheSizeBytes: 128 << 20, // 128MB.
		noData:             math.NaN(),
	}
	for _, option := range options {
		option(f)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	readAtFile, isReadAtFile := file.(geoTIFFFile)
	if !isReadAtFile {
		_ = file.Close()
		return nil, errors.ErrUnsupported
	}
	f.file = readAtFile
	defer func() {
		if !ok {
			_ = f.file.Close()
		}
	}()

	tiffTIFF, err := tiff.Parse(f.file, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}

	switch order := tiffTIFF.Order(); order {
	case "II":
		f.byteOrder = binary.LittleEndian
	case "MM":
		f.byteOrder = binary.BigEndian
	default:
		return nil, fmt.Errorf("%s: byte order %q: %w", filename, order, errors.ErrUnsupported)
	}

	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if (ifd.Compression != compressionNone && ifd.Compression != compressionLZW) ||
		ifd.SamplesPerPixel != 1 ||
		(ifd.PlanarConfiguration != 0 && ifd.PlanarConfiguration != 1) ||
		(ifd.Predictor != 0 && ifd.Predictor != 1) ||
		ifd.TileWidth == 0 || ifd.TileLength == 0 ||
		len(ifd.ModelPixelScaleTag) != 3 ||
		len(ifd.ModelTiepointTag) != 6 {
		return nil, errors.ErrUnsupported
	}

	f.sampleFormat = int(ifd.SampleFormat)
	if f.sampleFormat == 0 {
		f.sampleFormat = sampleFormatUint
	}
	f.bitsPerSample = int(ifd.BitsPerSample)
	switch {
	case f.sampleFormat == sampleFormatFloat && f.bitsPerSample == 32:
	case f.sampleFormat == sampleFormatUint && slices.Contains([]int{8, 16, 32}, f.bitsPerSample):
	case f.sampleFormat == sampleFormatInt && slices.Contains([]int{8, 16, 32}, f.bitsPerSample):
	default:
		return nil, errors.ErrUnsupported
	}
	f.compression = int(ifd.Compression)

	f.imageWidth = int(ifd.ImageWidth)
	f.imageLength = int(ifd.ImageLength)
	f.tileWidth = int(ifd.TileWidth)
	f.tileLength = int(ifd.TileLength)
	f.tilesAcross = (f.imageWidth + f.tileWidth - 1) / f.tileWidth
	f.tilesDown = (f.imageLength + f.tileLength - 1) / f.tileLength
	tilesPerImage := f.tilesAcross * f.tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	f.tileOffsets = ifd.TileOffsets
	f.tileByteCounts = ifd.TileByteCounts
	f.tileSampleCount = f.tileWidth * f.tileLength
	f.tileByteCountUncompressed = f.tileSampleCount * f.bitsPerSample / 8

	// Cached tiles are decoded to float64s.
	tileCacheCount := max(f.tileCacheSizeBytes/(8*f.tileSampleCount), 1)
	f.tileSamplesCache, err = otter.New(&otter.Options[TileCoord, []float64]{
		MaximumSize: tileCacheCount,
	})
	if err != nil {
		return nil, err
	}

	if f.transform, err = geoTIFFTransform(ifd.ModelPixelScaleTag, ifd.ModelTiepointTag); err != nil {
		return nil, err
	}

	if f.epsg == 0 {
		if len(ifd.GeoKeyDirectoryTag) == 0 {
			return nil, fmt.Errorf("%s: missing GeoKey directory: %w", filename, errors.ErrUnsupported)
		}
		parsedGeoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
		epsg, hasEPSG := parsedGeoKeys.EPSG()
		if !hasEPSG {
			return nil, fmt.Errorf("%s: user-defined CRS: %w", filename, errors.ErrUnsupported)
		}
		f.epsg = epsg
	}

	if noData := strings.TrimSpace(strings.TrimRight(ifd.GDALNoData, "\x00")); noData != "" {
		value, err := strconv.ParseFloat(noData, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: GDAL_NODATA %q: %w", filename, noData, err)
		}
		if f.sampleFormat == sampleFormatFloat {
			value = float64(float32(value))
		}
		f.noData = value
		f.hasNoData = true
	}

	ok = true
	return f, nil
}

// WithTileCacheSize sets the size of the decoded tile cache in bytes.
func WithTileCacheSize(tileCacheSize int) GeoTIFFOption {
	return func(f *GeoTIFF) {
		f.tileCacheSizeBytes = tileCacheSize
	}
}

// WithGeoTIFFEPSG sets the EPSG code of the file, overriding its GeoKeys.
func WithGeoTIFFEPSG(epsg int) GeoTIFFOption {
	return func(f *GeoTIFF) {
		f.epsg = epsg
	}
}

// geoTIFFTransform returns the pixel-to-model transform defined by a
// ModelPixelScaleTag and a single ModelTiepointTag.
func geoTIFFTransform(modelPixelScale, modelTiepoint []float64) (Affine, error) {
	scaleX, scaleY := modelPixelScale[0], modelPixelScale[1]
	if scaleX <= 0 || scaleY <= 0 || modelPixelScale[2] != 0 {
		return Affine{}, errors.ErrUnsupported
	}
	i, j := modelTiepoint[0], modelTiepoint[1]
	x, y := modelTiepoint[3], modelTiepoint[4]
	return Affine{x - i*scaleX, scaleX, 0, y + j*scaleY, 0, -scaleY}, nil
}

func (f *GeoTIFF) Close() error {
	return f.file.Close()
}

// EPSG returns f's EPSG code.
func (f *GeoTIFF) EPSG() int {
	return f.epsg
}

// Transform returns f's pixel-to-CRS transform.
func (f *GeoTIFF) Transform() Affine {
	return f.transform
}

// Size returns f's width and height in pixels.
func (f *GeoTIFF) Size() (int, int) {
	return f.imageWidth, f.imageLength
}

// Bound returns f's bound in its CRS.
func (f *GeoTIFF) Bound() orb.Bound {
	return f.transform.Bound(f.imageWidth, f.imageLength)
}

// Sample returns a single sample from f.
func (f *GeoTIFF) Sample(ctx context.Context, coord Coord) (float64, error) {
	tileCoord, ok := f.tileCoord(coord)
	if !ok {
		return math.NaN(), nil
	}
	switch tileSamples, err := f.getTileSamplesCached(ctx, tileCoord); {
	case errors.Is(err, otter.ErrNotFound):
		return math.NaN(), nil
	case err != nil:
		return 0, err
	default:
		return f.tileSample(tileSamples, coord), nil
	}
}

// Samples returns multiple samples from f. It is significantly faster than
// calling [Sample] for each coordinate.
func (f *GeoTIFF) Samples(ctx context.Context, coords []Coord) ([]float64, error) {
	samples := make([]float64, len(coords))

	// Group indexes by tile coord.
	indexesByTileCoord := make(map[TileCoord][]int)
	for index, coord := range coords {
		tileCoord, ok := f.tileCoord(coord)
		if !ok {
			samples[index] = math.NaN()
			continue
		}
		indexesByTileCoord[tileCoord] = append(indexesByTileCoord[tileCoord], index)
	}

	// Populate samples one tile at a time.
	for tileCoord, indexes := range indexesByTileCoord {
		switch tileSamples, err := f.getTileSamplesCached(ctx, tileCoord); {
		case errors.Is(err, otter.ErrNotFound):
			for _, index := range indexes {
				samples[index] = math.NaN()
			}
		case err != nil:
			return nil, err
		default:
			for _, index := range indexes {
				samples[index] = f.tileSample(tileSamples, coords[index])
			}
		}
	}

	return samples, nil
}

// getCompressedTileData returns the compressed tile data for the tile at
// tileCoord. Sparse tiles, which have no data, return otter.ErrNotFound.
func (f *GeoTIFF) getCompressedTileData(tileCoord TileCoord) ([]byte, error) {
	tileIndex := tileCoord.C + f.tilesAcross*tileCoord.R
	tileByteCount := f.tileByteCounts[tileIndex]
	tileOffset := f.tileOffsets[tileIndex]
	if tileByteCount == 0 {
		return nil, otter.ErrNotFound
	}
	compressedData := make([]byte, tileByteCount)
	switch n, err := f.file.ReadAt(compressedData, int64(tileOffset)); {
	case n != int(tileByteCount):
		if err == nil {
			err = errShortRead
		}
		return nil, err
	default:
		return compressedData, nil
	}
}

// decompressTileData decompresses the tile data in compressedData.
func (f *GeoTIFF) decompressTileData(compressedData []byte) ([]byte, error) {
	if f.compression == compressionNone {
		if len(compressedData) < f.tileByteCountUncompressed {
			return nil, errShortRead
		}
		return compressedData, nil
	}
	tileData := make([]byte, f.tileByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	defer r.Close()
	if _, err := io.ReadFull(r, tileData); err != nil {
		return nil, err
	}
	return tileData, nil
}

// decodeTileData decodes tileData.
func (f *GeoTIFF) decodeTileData(tileData []byte) []float64 {
	tileSamples := make([]float64, f.tileSampleCount)
	for i := range f.tileSampleCount {
		tileSamples[i] = f.decodeSample(tileData, i)
	}
	return tileSamples
}

// decodeSample decodes the ith sample of tileData.
func (f *GeoTIFF) decodeSample(tileData []byte, i int) float64 {
	var sample float64
	switch f.bitsPerSample {
	case 8:
		b := tileData[i]
		if f.sampleFormat == sampleFormatInt {
			sample = float64(int8(b))
		} else {
			sample = float64(b)
		}
	case 16:
		b := f.byteOrder.Uint16(tileData[i*2 : (i+1)*2])
		if f.sampleFormat == sampleFormatInt {
			sample = float64(int16(b))
		} else {
			sample = float64(b)
		}
	case 32:
		b := f.byteOrder.Uint32(tileData[i*4 : (i+1)*4])
		switch f.sampleFormat {
		case sampleFormatFloat:
			sample = float64(math.Float32frombits(b))
		case sampleFormatInt:
			sample = float64(int32(b))
		default:
			sample = float64(b)
		}
	}
	if f.hasNoData && sample == f.noData {
		return math.NaN()
	}
	return sample
}

// getTileSamples returns the tile samples at tileCoord.
func (f *GeoTIFF) getTileSamples(ctx context.Context, tileCoord TileCoord) ([]float64, error) {
	compressedTileData, err := f.getCompressedTileData(tileCoord)
	if err != nil {
		return nil, err
	}
	tileData, err := f.decompressTileData(compressedTileData)
	if err != nil {
		return nil, err
	}
	return f.decodeTileData(tileData), nil
}

// getTileSamplesCached returns the tile at tileCoord using f's cache.
func (f *GeoTIFF) getTileSamplesCached(ctx context.Context, tileCoord TileCoord) ([]float64, error) {
	return f.tileSamplesCache.Get(ctx, tileCoord, otter.LoaderFunc[TileCoord, []float64](f.getTileSamples))
}

// tileCoord returns the tile coord for a pixel coordinate.
func (f *GeoTIFF) tileCoord(coord Coord) (TileCoord, bool) {
	if coord.X < 0 || f.imageWidth <= coord.X || coord.Y < 0 || f.imageLength <= coord.Y {
		return TileCoord{}, false
	}
	return TileCoord{
		C: coord.X / f.tileWidth,
		R: coord.Y / f.tileLength,
	}, true
}

// tileSample returns the sample from tileSamples at coord.
func (f *GeoTIFF) tileSample(tileSamples []float64, coord Coord) float64 {
	return tileSamples[coord.X%f.tileWidth+(coord.Y%f.tileLength)*f.tileWidth]
}

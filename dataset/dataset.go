// Package dataset reads, writes and generates GeoJSON point collections
// used to feed the cluster index.
package dataset

import (
	"bufio"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// CompressedExt marks zstd compressed files.
const CompressedExt = ".zst"

// World is the part of the map a web mercator renderer can show.
var World = orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}

var categories = []string{"A", "B", "C"}

// Decode reads a FeatureCollection from r, zstd compressed when compressed is set.
func Decode(r io.Reader, compressed bool) ([]*geojson.Feature, error) {
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create zstd reader")
		}
		defer dec.Close()
		r = dec
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read feature collection")
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode feature collection")
	}
	return fc.Features, nil
}

// Encode writes features to w as a FeatureCollection.
func Encode(w io.Writer, features []*geojson.Feature, compressed bool) error {
	fc := geojson.NewFeatureCollection()
	fc.Features = features
	raw, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode feature collection")
	}

	if !compressed {
		_, err = w.Write(raw)
		return errors.Wrap(err, "failed to write feature collection")
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return errors.Wrap(err, "failed to create zstd writer")
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return errors.Wrap(err, "failed to write feature collection")
	}
	return errors.Wrap(enc.Close(), "failed to close encoder")
}

// ReadFile loads a FeatureCollection, files ending with CompressedExt are decompressed.
func ReadFile(filename string) ([]*geojson.Feature, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return Decode(bufio.NewReader(file), IsCompressed(filename))
}

// WriteFile stores features, compressed when the filename ends with CompressedExt.
func WriteFile(filename string, features []*geojson.Feature) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	if err := Encode(bufWriter, features, IsCompressed(filename)); err != nil {
		return err
	}
	if err := bufWriter.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush buffer")
	}
	return errors.Wrap(file.Close(), "failed to close file")
}

// IsCompressed reports whether filename names a zstd compressed file.
func IsCompressed(filename string) bool {
	return strings.HasSuffix(filename, CompressedExt)
}

// Generate scatters n random points inside bounds.
// Every point gets its position in the "index" property, a random "value"
// in [0, 100) and one of the A, B or C "category".
func Generate(n int, bounds orb.Bound, rnd *rand.Rand) []*geojson.Feature {
	return lo.Times(n, func(i int) *geojson.Feature {
		lon := bounds.Min.Lon() + rnd.Float64()*(bounds.Max.Lon()-bounds.Min.Lon())
		lat := bounds.Min.Lat() + rnd.Float64()*(bounds.Max.Lat()-bounds.Min.Lat())

		f := geojson.NewFeature(orb.Point{lon, lat})
		f.Properties["index"] = i
		f.Properties["value"] = rnd.Float64() * 100
		f.Properties["category"] = categories[rnd.Intn(len(categories))]
		return f
	})
}

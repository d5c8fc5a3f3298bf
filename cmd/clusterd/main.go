// Command clusterd serves cluster indexes over HTTP and generates sample data.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/donleqt/gocluster/dataset"
	"github.com/donleqt/gocluster/server"
)

const (
	flagAddr      = "addr"
	flagData      = "data"
	flagMinZoom   = "min-zoom"
	flagMaxZoom   = "max-zoom"
	flagRadius    = "radius"
	flagExtent    = "extent"
	flagNodeSize  = "node-size"
	flagMaxPoints = "max-points"
	flagDebug     = "debug"

	flagCount  = "count"
	flagOut    = "out"
	flagBounds = "bounds"
	flagSeed   = "seed"
)

func main() {
	defaults := server.DefaultOptions()

	app := &cli.App{
		Name:  "clusterd",
		Usage: "hierarchical point clustering for web maps",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Usage:   "enable debug logging",
				EnvVars: []string{"CLUSTERD_DEBUG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve cluster indexes over HTTP",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagAddr,
						Value:   ":8000",
						Usage:   "address to listen on",
						EnvVars: []string{"CLUSTERD_ADDR"},
					},
					&cli.StringSliceFlag{
						Name:  flagData,
						Usage: "GeoJSON files to index on start, .zst files are decompressed",
					},
					&cli.IntFlag{Name: flagMinZoom, Value: defaults.MinZoom, Usage: "lowest zoom with clusters"},
					&cli.IntFlag{Name: flagMaxZoom, Value: defaults.MaxZoom, Usage: "highest zoom with clusters"},
					&cli.Float64Flag{Name: flagRadius, Value: defaults.Radius, Usage: "cluster radius in pixels"},
					&cli.IntFlag{Name: flagExtent, Value: defaults.Extent, Usage: "tile size in pixels"},
					&cli.IntFlag{Name: flagNodeSize, Value: defaults.NodeSize, Usage: "KD-tree leaf size"},
					&cli.IntFlag{
						Name:  flagMaxPoints,
						Value: defaults.MaxGeneratedPoints,
						Usage: "largest random index POST /api/clusters may build",
					},
				},
			},
			{
				Name:   "generate",
				Usage:  "write random points as a GeoJSON FeatureCollection",
				Action: generateAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagCount, Value: 1_000_000, Usage: "number of points"},
					&cli.StringFlag{
						Name:     flagOut,
						Required: true,
						Usage:    "output file, compressed when it ends with " + dataset.CompressedExt,
					},
					&cli.StringFlag{Name: flagBounds, Value: "-180,-85,180,85", Usage: "west,south,east,north"},
					&cli.Int64Flag{Name: flagSeed, Usage: "random seed, the current time when unset"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.Bool(flagDebug) {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func serveAction(c *cli.Context) error {
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	options := server.DefaultOptions()
	options.MinZoom = c.Int(flagMinZoom)
	options.MaxZoom = c.Int(flagMaxZoom)
	options.Radius = c.Float64(flagRadius)
	options.Extent = c.Int(flagExtent)
	options.NodeSize = c.Int(flagNodeSize)
	options.MaxGeneratedPoints = c.Int(flagMaxPoints)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s := server.New(options, logger, reg)

	for _, filename := range c.StringSlice(flagData) {
		features, err := dataset.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to load %s", filename)
		}
		if _, err := s.Build(features, filename); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx, c.String(flagAddr))
}

func generateAction(c *cli.Context) error {
	bounds, err := parseBounds(c.String(flagBounds))
	if err != nil {
		return err
	}
	seed := time.Now().UnixNano()
	if c.IsSet(flagSeed) {
		seed = c.Int64(flagSeed)
	}

	points := dataset.Generate(c.Int(flagCount), bounds, rand.New(rand.NewSource(seed)))
	if err := dataset.WriteFile(c.String(flagOut), points); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %d points to %s\n", len(points), c.String(flagOut))
	return nil
}

func parseBounds(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.Errorf("bounds %q must be west,south,east,north", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, errors.Wrapf(err, "invalid bounds %q", s)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.Errorf("bounds %q must be west,south,east,north", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

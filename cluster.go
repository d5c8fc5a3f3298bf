package cluster

import (
	"math"
	"runtime"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/donleqt/gocluster/kdbush"
)

// projectChunkSize is the number of input points projected by one worker.
const projectChunkSize = 1 << 14

// clusterPoint is a node of a zoom index.
// It is either an input point (NumPoints == 1, Ref is a source reference)
// or a cluster, and it is never changed after it has been indexed.
type clusterPoint struct {
	X, Y       float64
	Ref        NodeRef
	NumPoints  int
	Properties geojson.Properties
}

func (cp *clusterPoint) Coordinates() (float64, float64) {
	return cp.X, cp.Y
}

// zoomIndex is everything we keep for one zoom level.
// parents[i] is the cluster points[i] was merged into at the next coarser zoom,
// it is written while that coarser level is clustered and frozen afterwards.
type zoomIndex struct {
	points  []*clusterPoint
	parents []ClusterID
	tree    *kdbush.KDBush
}

func newZoomIndex(points []*clusterPoint, nodeSize int) *zoomIndex {
	parents := make([]ClusterID, len(points))
	for i := range parents {
		parents[i] = NoParent
	}
	return &zoomIndex{
		points:  points,
		parents: parents,
		tree:    kdbush.NewBush(clustersToPoints(points), nodeSize),
	}
}

// Cluster gets a slice of GeoJSON point features
// and produces all levels of clusters.
// MinZoom - minimum zoom level to generate clusters
// MaxZoom - maximum zoom level to generate clusters, at most MaxSupportedZoom
// Radius - cluster radius in pixels
// Extent - size of tile in pixels, the radius is relative to it
// NodeSize - size of the KD-tree leaf node
// Reducer - optional, aggregates point properties into cluster properties
// Logger - optional, build timings are logged at debug level
type Cluster struct {
	MinZoom  int
	MaxZoom  int
	Radius   float64
	Extent   int
	NodeSize int
	Reducer  *Reducer
	Logger   *zap.Logger

	indexes  []*zoomIndex
	points   []*geojson.Feature
	settings settings

	built atomic.Bool
}

// settings is the configuration an index was built with.
// Queries read only this copy, so the exported fields could change after the build.
type settings struct {
	minZoom  int
	maxZoom  int
	radius   float64
	extent   int
	nodeSize int
}

func (c *Cluster) snapshot() settings {
	return settings{
		minZoom:  c.MinZoom,
		maxZoom:  c.MaxZoom,
		radius:   c.Radius,
		extent:   c.Extent,
		nodeSize: c.NodeSize,
	}
}

// radiusAt is the cluster radius for zoom in the projected [0..1] units.
func (s settings) radiusAt(zoom int) float64 {
	return s.radius / (float64(s.extent) * math.Pow(2, float64(zoom)))
}

// NewCluster creates a Cluster with default parameters:
// MinZoom = 0
// MaxZoom = 16
// Radius = 200
// Extent = 512
// NodeSize = 64. Higher means faster indexing but slower search, and vise versa.
func NewCluster() *Cluster {
	return &Cluster{
		MinZoom:  0,
		MaxZoom:  16,
		Radius:   200,
		Extent:   512,
		NodeSize: kdbush.DefaultNodeSize,
	}
}

// ClusterPoints projects points and creates the multilevel clustered indexes.
//
// Points are not copied, clusters and queries refer to them by their position in
// the slice, so the caller must not modify it afterwards. Features without a valid
// point geometry are skipped. A Cluster can be built only once.
func (c *Cluster) ClusterPoints(points []*geojson.Feature) error {
	s := c.snapshot()
	if err := s.validate(); err != nil {
		return err
	}
	if !c.built.CompareAndSwap(false, true) {
		return ErrAlreadyBuilt
	}
	c.settings = s

	logger := c.logger()
	start := time.Now()

	c.points = points
	clusters := translateGeoPointsToClusterPoints(points)
	logger.Debug("prepared points",
		zap.Int("points", len(points)),
		zap.Int("valid", len(clusters)),
		zap.Duration("took", time.Since(start)))

	// one extra layer for the input points themselves
	indexes := make([]*zoomIndex, s.maxZoom+2)

	for z := s.maxZoom; z >= s.minZoom; z-- {
		now := time.Now()

		// index clusters from the previous iteration
		indexes[z+1] = newZoomIndex(clusters, s.nodeSize)

		// and cluster them one level up
		clusters = c.clusterize(indexes[z+1], z)

		logger.Debug("clustered zoom",
			zap.Int("zoom", z),
			zap.Int("clusters", len(clusters)),
			zap.Duration("took", time.Since(now)))
	}

	indexes[s.minZoom] = newZoomIndex(clusters, s.nodeSize)
	c.indexes = indexes

	logger.Info("index built",
		zap.Int("points", len(points)),
		zap.Int("minZoom", s.minZoom),
		zap.Int("maxZoom", s.maxZoom),
		zap.Int("topLevel", len(clusters)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// NumPoints returns the length of the slice the index was built from.
func (c *Cluster) NumPoints() int {
	return len(c.points)
}

// Zooms returns the zoom range the index was built with, maxZoom+1 holds the points themselves.
// Before the build it is the configured range.
func (c *Cluster) Zooms() (minZoom, maxZoom int) {
	if c.indexes == nil {
		return c.MinZoom, c.MaxZoom
	}
	return c.settings.minZoom, c.settings.maxZoom
}

// Scale returns the radius and extent the index was built with.
// Before the build it is the configured pair.
func (c *Cluster) Scale() (radius float64, extent int) {
	if c.indexes == nil {
		return c.Radius, c.Extent
	}
	return c.settings.radius, c.settings.extent
}

// clusterize points of the index for zoom level.
func (c *Cluster) clusterize(index *zoomIndex, zoom int) []*clusterPoint {
	var result []*clusterPoint
	r := c.settings.radiusAt(zoom)
	processed := make([]bool, len(index.points))
	reduce := c.Reducer.enabled()

	for i, p := range index.points {
		// skip points we have already clustered
		if processed[i] {
			continue
		}
		processed[i] = true

		numPoints := p.NumPoints
		wx := p.X * float64(numPoints)
		wy := p.Y * float64(numPoints)

		var properties geojson.Properties
		if reduce {
			properties = c.Reducer.initial()
			c.accumulate(properties, p)
		}

		// both the zoom and the position of the origin point are encoded in the id
		id := NewClusterID(i, zoom+1)

		for _, j := range index.tree.Within(p.X, p.Y, r) {
			if processed[j] {
				continue
			}
			processed[j] = true

			b := index.points[j]
			wx += b.X * float64(b.NumPoints)
			wy += b.Y * float64(b.NumPoints)
			numPoints += b.NumPoints
			index.parents[j] = id

			if reduce {
				c.accumulate(properties, b)
			}
		}

		if numPoints == 1 {
			result = append(result, p)
			continue
		}

		index.parents[i] = id
		result = append(result, &clusterPoint{
			X:          wx / float64(numPoints),
			Y:          wy / float64(numPoints),
			Ref:        ClusterRef(id),
			NumPoints:  numPoints,
			Properties: properties,
		})
	}
	return result
}

func (c *Cluster) accumulate(accumulated geojson.Properties, p *clusterPoint) {
	properties := p.Properties
	if i, ok := p.Ref.SourceIndex(); ok {
		properties = c.Reducer.mapProperties(c.points[i].Properties)
	}
	c.Reducer.Reduce(accumulated, properties)
}

func (s settings) validate() error {
	var err error
	if s.minZoom < 0 {
		err = multierr.Append(err, configError("min zoom %d is negative", s.minZoom))
	}
	if s.maxZoom > MaxSupportedZoom {
		err = multierr.Append(err, configError("max zoom %d is above %d", s.maxZoom, MaxSupportedZoom))
	}
	if s.minZoom > s.maxZoom {
		err = multierr.Append(err, configError("min zoom %d is above max zoom %d", s.minZoom, s.maxZoom))
	}
	if s.radius < 0 || math.IsNaN(s.radius) || math.IsInf(s.radius, 0) {
		err = multierr.Append(err, configError("radius %v is not a finite non negative number", s.radius))
	}
	if s.extent <= 0 {
		err = multierr.Append(err, configError("extent %d must be positive", s.extent))
	}
	if s.nodeSize <= 0 {
		err = multierr.Append(err, configError("node size %d must be positive", s.nodeSize))
	}
	return err
}

func (c *Cluster) limitZoom(zoom int) int {
	if zoom > c.settings.maxZoom+1 {
		zoom = c.settings.maxZoom + 1
	}
	if zoom < c.settings.minZoom {
		zoom = c.settings.minZoom
	}
	return zoom
}

func (c *Cluster) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// translateGeoPointsToClusterPoints projects the input in parallel chunks.
// The result keeps the input order and skips features without a usable geometry.
func translateGeoPointsToClusterPoints(points []*geojson.Feature) []*clusterPoint {
	projected := make([]*clusterPoint, len(points))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(points); start += projectChunkSize {
		start, end := start, min(start+projectChunkSize, len(points))
		g.Go(func() error {
			for i := start; i < end; i++ {
				projected[i] = projectFeature(points[i], i)
			}
			return nil
		})
	}
	// workers never fail, Wait only joins them
	_ = g.Wait()

	return lo.Compact(projected)
}

func projectFeature(f *geojson.Feature, i int) *clusterPoint {
	if f == nil {
		return nil
	}
	ll, ok := f.Geometry.(orb.Point)
	if !ok || !finite(ll.Lon()) || !finite(ll.Lat()) {
		return nil
	}
	x, y := MercatorProjection(ll)
	return &clusterPoint{X: x, Y: y, Ref: SourceRef(i), NumPoints: 1}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clustersToPoints(points []*clusterPoint) []kdbush.Point {
	result := make([]kdbush.Point, len(points))
	for i, v := range points {
		result[i] = v
	}
	return result
}

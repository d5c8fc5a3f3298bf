package server

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	cluster "github.com/donleqt/gocluster"
	"github.com/donleqt/gocluster/dataset"
)

// maxTileZoom keeps tile coordinates inside uint32.
const maxTileZoom = 31

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

// writeError maps errors to status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cluster.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, cluster.ErrConfiguration):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

type indexInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	NumPoints int       `json:"numPoints"`
	MinZoom   int       `json:"minZoom"`
	MaxZoom   int       `json:"maxZoom"`
	Radius    float64   `json:"radius"`
	Extent    int       `json:"extent"`
	Created   time.Time `json:"created"`
}

func newIndexInfo(index *Index) indexInfo {
	minZoom, maxZoom := index.Cluster.Zooms()
	radius, extent := index.Cluster.Scale()
	return indexInfo{
		ID:        index.ID,
		Source:    index.Source,
		NumPoints: index.Cluster.NumPoints(),
		MinZoom:   minZoom,
		MaxZoom:   maxZoom,
		Radius:    radius,
		Extent:    extent,
		Created:   index.Created,
	}
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, lo.Map(s.registry.List(), func(index *Index, _ int) indexInfo {
		return newIndexInfo(index)
	}))
}

type createRequest struct {
	NumPoints int `json:"numPoints"`
	// Bounds is [west, south, east, north], the whole map when empty.
	Bounds []float64 `json:"bounds"`
	Seed   *int64    `json:"seed"`
}

// handleCreate builds an index over random points.
func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid request: %v", err))
		return
	}
	if req.NumPoints <= 0 || req.NumPoints > s.options.MaxGeneratedPoints {
		writeError(c, badRequest("numPoints must be in [1, %d]", s.options.MaxGeneratedPoints))
		return
	}

	bounds := dataset.World
	if len(req.Bounds) > 0 {
		if len(req.Bounds) != 4 || req.Bounds[0] > req.Bounds[2] || req.Bounds[1] > req.Bounds[3] {
			writeError(c, badRequest("bounds must be [west, south, east, north]"))
			return
		}
		bounds = orb.Bound{
			Min: orb.Point{req.Bounds[0], req.Bounds[1]},
			Max: orb.Point{req.Bounds[2], req.Bounds[3]},
		}
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	points := dataset.Generate(req.NumPoints, bounds, rand.New(rand.NewSource(seed)))

	index, err := s.build(points, s.options, fmt.Sprintf("random:%d", req.NumPoints))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIndexInfo(index))
}

// handleUpload builds an index over a posted FeatureCollection.
// Cluster options could be overridden with query parameters.
func (s *Server) handleUpload(c *gin.Context) {
	options, err := s.uploadOptions(c)
	if err != nil {
		writeError(c, err)
		return
	}

	compressed := strings.EqualFold(c.GetHeader("Content-Encoding"), "zstd")
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxUploadBytes)
	features, err := dataset.Decode(body, compressed)
	if err != nil {
		writeError(c, badRequest("%v", err))
		return
	}

	index, err := s.build(features, options, c.DefaultQuery("name", "upload"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIndexInfo(index))
}

func (s *Server) uploadOptions(c *gin.Context) (Options, error) {
	options := s.options
	var err error
	if options.MinZoom, err = intQuery(c, "minZoom", options.MinZoom); err != nil {
		return options, err
	}
	if options.MaxZoom, err = intQuery(c, "maxZoom", options.MaxZoom); err != nil {
		return options, err
	}
	if options.Radius, err = floatQuery(c, "radius", options.Radius); err != nil {
		return options, err
	}
	if options.Extent, err = intQuery(c, "extent", options.Extent); err != nil {
		return options, err
	}
	if options.NodeSize, err = intQuery(c, "nodeSize", options.NodeSize); err != nil {
		return options, err
	}
	return options, nil
}

func (s *Server) handleDelete(c *gin.Context) {
	if !s.registry.Delete(c.Param("id")) {
		writeError(c, errors.Wrapf(cluster.ErrNotFound, "index %s", c.Param("id")))
		return
	}
	s.metrics.indexes.Set(float64(s.registry.Len()))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetClusters(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}

	zoom, err := strconv.Atoi(c.Query("zoom"))
	if err != nil {
		writeError(c, badRequest("invalid zoom parameter"))
		return
	}
	bounds, err := boundsFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	writeFeatures(c, index.Cluster.GetClusters(bounds, zoom))
}

func (s *Server) handleGetChildren(c *gin.Context) {
	index, id, ok := s.indexAndCluster(c)
	if !ok {
		return
	}
	children, err := index.Cluster.GetChildren(id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeFeatures(c, children)
}

func (s *Server) handleGetLeaves(c *gin.Context) {
	index, id, ok := s.indexAndCluster(c)
	if !ok {
		return
	}
	limit, err := intQuery(c, "limit", cluster.DefaultLeavesLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		writeError(c, err)
		return
	}

	leaves, err := index.Cluster.GetLeaves(id, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	writeFeatures(c, leaves)
}

func (s *Server) handleGetExpansionZoom(c *gin.Context) {
	index, id, ok := s.indexAndCluster(c)
	if !ok {
		return
	}
	zoom, err := index.Cluster.GetClusterExpansionZoom(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zoom": zoom})
}

func (s *Server) handleGetTile(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}

	var zxy [3]uint64
	for i, name := range []string{"z", "x", "y"} {
		v, err := strconv.ParseUint(c.Param(name), 10, 32)
		if err != nil {
			writeError(c, badRequest("invalid %s parameter", name))
			return
		}
		zxy[i] = v
	}
	if zxy[0] > maxTileZoom {
		writeError(c, badRequest("zoom %d is above %d", zxy[0], maxTileZoom))
		return
	}
	t := maptile.New(uint32(zxy[1]), uint32(zxy[2]), maptile.Zoom(zxy[0]))
	if !t.Valid() {
		writeError(c, badRequest("tile %d/%d/%d is outside the world", t.Z, t.X, t.Y))
		return
	}

	tile := index.Cluster.GetTile(int(t.Z), int(t.X), int(t.Y))
	if tile == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, tile)
}

// index resolves the :id parameter, it writes the error response when there is no such index.
func (s *Server) index(c *gin.Context) (*Index, bool) {
	index, ok := s.registry.Get(c.Param("id"))
	if !ok {
		writeError(c, errors.Wrapf(cluster.ErrNotFound, "index %s", c.Param("id")))
		return nil, false
	}
	return index, true
}

func (s *Server) indexAndCluster(c *gin.Context) (*Index, cluster.ClusterID, bool) {
	index, ok := s.index(c)
	if !ok {
		return nil, 0, false
	}
	id, err := strconv.Atoi(c.Param("cluster"))
	if err != nil {
		writeError(c, badRequest("invalid cluster id %q", c.Param("cluster")))
		return nil, 0, false
	}
	return index, cluster.ClusterID(id), true
}

func writeFeatures(c *gin.Context, features []*geojson.Feature) {
	fc := geojson.NewFeatureCollection()
	fc.Features = features
	c.JSON(http.StatusOK, fc)
}

// boundsFromQuery reads west, south, east and north, the whole map when all of them are missing.
func boundsFromQuery(c *gin.Context) (orb.Bound, error) {
	names := []string{"west", "south", "east", "north"}
	present := lo.Filter(names, func(name string, _ int) bool {
		_, ok := c.GetQuery(name)
		return ok
	})
	if len(present) == 0 {
		return dataset.World, nil
	}
	if len(present) != len(names) {
		return orb.Bound{}, badRequest("bounds need all of %s", strings.Join(names, ", "))
	}

	var v [4]float64
	for i, name := range names {
		f, err := floatQuery(c, name, 0)
		if err != nil {
			return orb.Bound{}, err
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid %s parameter", name)
	}
	return v, nil
}

func floatQuery(c *gin.Context, name string, def float64) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("invalid %s parameter", name)
	}
	return v, nil
}

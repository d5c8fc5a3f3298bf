// Package server hosts cluster indexes behind a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	options  Options
	logger   *zap.Logger
	registry *Registry
	metrics  *metrics
	engine   *gin.Engine
}

// New creates a server, metrics are registered in reg and exposed on /metrics.
func New(options Options, logger *zap.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		options:  options,
		logger:   logger,
		registry: NewRegistry(),
		metrics:  newMetrics(reg),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), s.metrics.middleware(), cors())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api/clusters")
	api.GET("/list", s.handleList)
	api.POST("", s.handleCreate)
	api.POST("/upload", s.handleUpload)
	api.GET("/:id", s.handleGetClusters)
	api.DELETE("/:id", s.handleDelete)
	api.GET("/:id/children/:cluster", s.handleGetChildren)
	api.GET("/:id/leaves/:cluster", s.handleGetLeaves)
	api.GET("/:id/expansion-zoom/:cluster", s.handleGetExpansionZoom)
	api.GET("/:id/tiles/:z/:x/:y", s.handleGetTile)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// Build indexes features with the server options and hosts the result.
func (s *Server) Build(features []*geojson.Feature, source string) (*Index, error) {
	return s.build(features, s.options, source)
}

func (s *Server) build(features []*geojson.Feature, options Options, source string) (*Index, error) {
	c := options.newCluster(s.logger.Named("cluster"))

	t := newTimer(s.metrics.buildDuration)
	if err := c.ClusterPoints(features); err != nil {
		s.metrics.buildsTotal.WithLabelValues("false").Inc()
		return nil, errors.Wrap(err, "failed to build index")
	}
	took := t.ObserveDuration()
	s.metrics.buildsTotal.WithLabelValues("true").Inc()
	s.metrics.indexedPoints.Add(float64(c.NumPoints()))

	index := s.registry.Add(c, source)
	s.metrics.indexes.Set(float64(s.registry.Len()))

	s.logger.Info("index added",
		zap.String("id", index.ID),
		zap.String("source", source),
		zap.Int("points", c.NumPoints()),
		zap.Duration("took", took))
	return index, nil
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down")
	}
	return nil
}

package server

import (
	"go.uber.org/zap"

	cluster "github.com/donleqt/gocluster"
)

// Options are the cluster settings used for every index the server builds,
// plus limits of the server itself.
type Options struct {
	MinZoom  int
	MaxZoom  int
	Radius   float64
	Extent   int
	NodeSize int

	// MaxGeneratedPoints caps POST /api/clusters requests.
	MaxGeneratedPoints int
	// MaxUploadBytes caps the body of POST /api/clusters/upload.
	MaxUploadBytes int64
}

// DefaultOptions mirror cluster.NewCluster.
func DefaultOptions() Options {
	c := cluster.NewCluster()
	return Options{
		MinZoom:            c.MinZoom,
		MaxZoom:            c.MaxZoom,
		Radius:             c.Radius,
		Extent:             c.Extent,
		NodeSize:           c.NodeSize,
		MaxGeneratedPoints: 1_000_000,
		MaxUploadBytes:     256 << 20,
	}
}

func (o Options) newCluster(logger *zap.Logger) *cluster.Cluster {
	c := cluster.NewCluster()
	c.MinZoom = o.MinZoom
	c.MaxZoom = o.MaxZoom
	c.Radius = o.Radius
	c.Extent = o.Extent
	c.NodeSize = o.NodeSize
	c.Logger = logger
	return c
}

package cluster

import "github.com/pkg/errors"

var (
	// ErrConfiguration is returned by ClusterPoints when the Cluster settings can't be used.
	ErrConfiguration = errors.New("invalid cluster configuration")

	// ErrNotFound is returned for cluster ids that don't resolve to a cluster of this index,
	// and for clusters without direct children.
	ErrNotFound = errors.New("no cluster with the specified id")

	// ErrAlreadyBuilt is returned when ClusterPoints is called twice on the same Cluster.
	ErrAlreadyBuilt = errors.New("cluster index is already built")
)

func notFound(id ClusterID) error {
	return errors.Wrapf(ErrNotFound, "cluster %d", int(id))
}

func configError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

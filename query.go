package cluster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultLeavesLimit is the page size GetLeaves uses for a zero limit.
const DefaultLeavesLimit = 10

// GetClusters returns clusters and points inside bbox for zoom level.
// bbox.Min is the south-west corner and bbox.Max the north-east one.
// A bbox with Min.X > Max.X crosses the antimeridian, the eastern part comes first.
// Clusters are new features located at their weighted center,
// points are the features the index was built from.
func (c *Cluster) GetClusters(bbox orb.Bound, zoom int) []*geojson.Feature {
	west, south := bbox.Min.Lon(), bbox.Min.Lat()
	east, north := bbox.Max.Lon(), bbox.Max.Lat()

	if west > east {
		eastern := c.clustersInBox(west, south, 180, north, zoom)
		western := c.clustersInBox(-180, south, east, north, zoom)
		return append(eastern, western...)
	}
	return c.clustersInBox(west, south, east, north, zoom)
}

func (c *Cluster) clustersInBox(west, south, east, north float64, zoom int) []*geojson.Feature {
	if c.indexes == nil {
		return nil
	}
	index := c.indexes[c.limitZoom(zoom)]
	minX, minY := MercatorProjection(orb.Point{west, north})
	maxX, maxY := MercatorProjection(orb.Point{east, south})
	return c.toFeatures(index, index.tree.Range(minX, minY, maxX, maxY))
}

// AllClusters returns all clusters and points for zoom level.
func (c *Cluster) AllClusters(zoom int) []*geojson.Feature {
	if c.indexes == nil {
		return nil
	}
	index := c.indexes[c.limitZoom(zoom)]
	result := make([]*geojson.Feature, len(index.points))
	for i, p := range index.points {
		result[i] = c.toFeature(p)
	}
	return result
}

// GetChildren returns the clusters and points a cluster was made of at the next zoom level.
// It fails with ErrNotFound for unknown ids and for clusters without children.
func (c *Cluster) GetChildren(clusterID ClusterID) ([]*geojson.Feature, error) {
	children, err := c.children(clusterID)
	if err != nil {
		return nil, err
	}
	result := make([]*geojson.Feature, len(children))
	for i, p := range children {
		result[i] = c.toFeature(p)
	}
	return result, nil
}

func (c *Cluster) children(clusterID ClusterID) ([]*clusterPoint, error) {
	index, origin, err := c.origin(clusterID)
	if err != nil {
		return nil, err
	}

	r := c.settings.radiusAt(clusterID.OriginZoom() - 1)

	var children []*clusterPoint
	for _, j := range index.tree.Within(origin.X, origin.Y, r) {
		if index.parents[j] == clusterID {
			children = append(children, index.points[j])
		}
	}
	if len(children) == 0 {
		return nil, notFound(clusterID)
	}
	return children, nil
}

// origin resolves the point a cluster was created from.
func (c *Cluster) origin(clusterID ClusterID) (*zoomIndex, *clusterPoint, error) {
	if clusterID < 0 || c.indexes == nil {
		return nil, nil, notFound(clusterID)
	}
	originZoom := clusterID.OriginZoom()
	if originZoom < c.settings.minZoom || originZoom > c.settings.maxZoom+1 {
		return nil, nil, notFound(clusterID)
	}
	index := c.indexes[originZoom]
	originIndex := clusterID.OriginIndex()
	if index == nil || originIndex >= len(index.points) {
		return nil, nil, notFound(clusterID)
	}
	return index, index.points[originIndex], nil
}

// GetLeaves returns the input points of a cluster, paginated.
// Leaves are listed depth first in children order, offset of them are skipped
// and at most limit are returned. A zero limit means DefaultLeavesLimit,
// a negative one means no limit.
func (c *Cluster) GetLeaves(clusterID ClusterID, limit, offset int) ([]*geojson.Feature, error) {
	if limit == 0 {
		limit = DefaultLeavesLimit
	}
	if offset < 0 {
		offset = 0
	}

	var leaves []*geojson.Feature
	if _, err := c.appendLeaves(&leaves, clusterID, limit, offset, 0); err != nil {
		return nil, err
	}
	return leaves, nil
}

func (c *Cluster) appendLeaves(result *[]*geojson.Feature, clusterID ClusterID, limit, offset, skipped int) (int, error) {
	children, err := c.children(clusterID)
	if err != nil {
		return skipped, err
	}

	for _, child := range children {
		if id, ok := child.Ref.ClusterID(); ok {
			if skipped+child.NumPoints <= offset {
				// skip the whole cluster
				skipped += child.NumPoints
			} else {
				skipped, err = c.appendLeaves(result, id, limit, offset, skipped)
				if err != nil {
					return skipped, err
				}
			}
		} else if skipped < offset {
			// skip a single point
			skipped++
		} else {
			*result = append(*result, c.toFeature(child))
		}

		if len(*result) == limit {
			break
		}
	}
	return skipped, nil
}

// GetClusterExpansionZoom returns the zoom on which the cluster expands into several children.
func (c *Cluster) GetClusterExpansionZoom(clusterID ClusterID) (int, error) {
	children, err := c.children(clusterID)
	if err != nil {
		return 0, err
	}

	zoom := clusterID.OriginZoom() - 1
	for zoom < c.settings.maxZoom {
		zoom++
		if len(children) != 1 {
			break
		}
		id, ok := children[0].Ref.ClusterID()
		if !ok {
			break
		}
		if children, err = c.children(id); err != nil {
			return 0, err
		}
	}
	return zoom, nil
}

package cluster

import (
	"math"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// Property keys set on cluster features and tile tags.
const (
	PropCluster               = "cluster"
	PropClusterID             = "clusterId"
	PropPointCount            = "pointCount"
	PropPointCountAbbreviated = "pointCountAbbreviated"
)

// toFeature returns the input feature for a point and a new feature for a cluster.
func (c *Cluster) toFeature(p *clusterPoint) *geojson.Feature {
	if i, ok := p.Ref.SourceIndex(); ok {
		return c.points[i]
	}
	f := geojson.NewFeature(ReverseMercatorProjection(p.X, p.Y))
	f.Properties = clusterProperties(p)
	return f
}

func (c *Cluster) toFeatures(index *zoomIndex, ids []int) []*geojson.Feature {
	result := make([]*geojson.Feature, len(ids))
	for i, id := range ids {
		result[i] = c.toFeature(index.points[id])
	}
	return result
}

// tags returns the properties of the input feature for a point and the cluster properties for a cluster.
func (c *Cluster) tags(p *clusterPoint) geojson.Properties {
	if i, ok := p.Ref.SourceIndex(); ok {
		return c.points[i].Properties
	}
	return clusterProperties(p)
}

func clusterProperties(p *clusterPoint) geojson.Properties {
	id, _ := p.Ref.ClusterID()
	props := p.Properties.Clone()
	props[PropCluster] = true
	props[PropClusterID] = int(id)
	props[PropPointCount] = p.NumPoints
	props[PropPointCountAbbreviated] = AbbreviateCount(p.NumPoints)
	return props
}

// AbbreviateCount formats a point count for labels: 950, 1.2k, 12k.
func AbbreviateCount(count int) string {
	switch {
	case count >= 10000:
		return strconv.FormatFloat(math.Round(float64(count)/1000), 'f', -1, 64) + "k"
	case count >= 1000:
		return strconv.FormatFloat(math.Round(float64(count)/100)/10, 'f', -1, 64) + "k"
	default:
		return strconv.Itoa(count)
	}
}

// ClusterIDOf returns the cluster id of a feature returned by the query methods.
func ClusterIDOf(f *geojson.Feature) (ClusterID, bool) {
	if f == nil {
		return NoParent, false
	}
	if isCluster, _ := f.Properties[PropCluster].(bool); !isCluster {
		return NoParent, false
	}
	id, ok := f.Properties[PropClusterID].(int)
	if !ok {
		return NoParent, false
	}
	return ClusterID(id), true
}

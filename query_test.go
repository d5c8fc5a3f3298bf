package cluster_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cluster "github.com/donleqt/gocluster"
)

func TestCluster_GetClusters(t *testing.T) {
	points := fivePoints()
	c := build(t, points, func(c *cluster.Cluster) { c.Radius = 40 })

	result := c.GetClusters(world, 10)
	require.Len(t, result, 2)

	cl := findCluster(result)
	require.NotNil(t, cl)
	assert.Equal(t, true, cl.Properties[cluster.PropCluster])
	assert.Equal(t, 4, cl.Properties[cluster.PropPointCount])
	assert.Equal(t, "4", cl.Properties[cluster.PropPointCountAbbreviated])
	center := cl.Point()
	assert.InDelta(t, 0.001, center.Lon(), 1e-6)
	assert.InDelta(t, 0.001, center.Lat(), 1e-6)
	assert.Contains(t, result, points[4])

	// the four points are apart at the highest zoom
	assert.ElementsMatch(t, points, c.GetClusters(world, 16))
	// and zooms above the highest one are the input points
	assert.ElementsMatch(t, points, c.GetClusters(world, 25))
	// zooms below the lowest one are clamped
	assert.Equal(t, describe(c.GetClusters(world, 0)), describe(c.GetClusters(world, -3)))

	// only the far point is in the north-east quarter
	assert.Equal(t, []*geojson.Feature{points[4]},
		c.GetClusters(orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{180, 85}}, 10))
}

func TestCluster_GetClustersPlaces(t *testing.T) {
	points := importData(t, "./testdata/places.geojson")
	c := build(t, points, func(c *cluster.Cluster) {
		c.Radius = 60
		c.MaxZoom = 10
	})

	// San Francisco and Oakland stay together for a long time
	bayArea := orb.Bound{Min: orb.Point{-123, 37}, Max: orb.Point{-122, 38.5}}
	result := c.GetClusters(bayArea, 5)
	require.Len(t, result, 1)
	assert.Equal(t, 2, result[0].Properties[cluster.PropPointCount])

	result = c.GetClusters(bayArea, 11)
	require.Len(t, result, 2)
	assert.ElementsMatch(t, []string{"San Francisco", "Oakland"},
		[]string{result[0].Properties.MustString("name"), result[1].Properties.MustString("name")})
}

func TestCluster_GetClustersAntimeridian(t *testing.T) {
	c := build(t, randomPoints(3000, 1), func(c *cluster.Cluster) { c.Radius = 40 })

	for z := 0; z <= 6; z++ {
		crossing := c.GetClusters(orb.Bound{Min: orb.Point{170, -40}, Max: orb.Point{-170, 40}}, z)
		eastern := c.GetClusters(orb.Bound{Min: orb.Point{170, -40}, Max: orb.Point{180, 40}}, z)
		western := c.GetClusters(orb.Bound{Min: orb.Point{-180, -40}, Max: orb.Point{-170, 40}}, z)

		assert.Equal(t, describe(append(eastern, western...)), describe(crossing), "zoom %d", z)
		if z == 6 {
			assert.NotEmpty(t, crossing)
		}
	}
}

func TestCluster_PointsConservation(t *testing.T) {
	points := randomPoints(5000, 2)
	c := build(t, points, func(c *cluster.Cluster) {
		c.Radius = 60
		c.MaxZoom = 12
	})

	previous := 0
	for z := c.MinZoom; z <= c.MaxZoom+1; z++ {
		all := c.AllClusters(z)
		assert.Equal(t, len(points), pointCount(t, all), "zoom %d", z)
		assert.GreaterOrEqual(t, len(all), previous, "zoom %d", z)
		assert.Len(t, c.GetClusters(world, z), len(all))
		previous = len(all)
	}
}

func TestCluster_ClusterIDs(t *testing.T) {
	c := build(t, randomPoints(2000, 3), func(c *cluster.Cluster) {
		c.Radius = 60
		c.MaxZoom = 8
	})

	for z := c.MinZoom; z <= c.MaxZoom; z++ {
		next := map[string]bool{}
		for _, d := range describe(c.AllClusters(z + 1)) {
			next[d] = true
		}

		for _, f := range c.AllClusters(z) {
			id, ok := cluster.ClusterIDOf(f)
			if !ok {
				continue
			}
			assert.Equal(t, z+1, id.OriginZoom())

			children, err := c.GetChildren(id)
			require.NoError(t, err)
			assert.Equal(t, f.Properties[cluster.PropPointCount], pointCount(t, children))
			for _, d := range describe(children) {
				assert.True(t, next[d], "%s is not on zoom %d", d, z+1)
			}
		}
	}
}

func TestCluster_GetChildren(t *testing.T) {
	points := fivePoints()
	c := build(t, points, func(c *cluster.Cluster) { c.Radius = 40 })

	cl := findCluster(c.GetClusters(world, 13))
	require.NotNil(t, cl)
	id, _ := cluster.ClusterIDOf(cl)

	children, err := c.GetChildren(id)
	require.NoError(t, err)
	assert.ElementsMatch(t, points[:4], children)

	// one level up the cluster is wrapped once more, with a single child
	parent := findCluster(c.GetClusters(world, 12))
	require.NotNil(t, parent)
	parentID, _ := cluster.ClusterIDOf(parent)
	children, err = c.GetChildren(parentID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, describe([]*geojson.Feature{cl}), describe(children))
}

func TestCluster_GetChildrenNotFound(t *testing.T) {
	c := build(t, fivePoints(), func(c *cluster.Cluster) { c.Radius = 40 })

	tests := []struct {
		name string
		id   cluster.ClusterID
	}{
		{"negative", -1},
		{"origin index out of range", cluster.NewClusterID(999, 5)},
		{"origin zoom above index", cluster.NewClusterID(0, 31)},
		{"no children", cluster.NewClusterID(0, 17)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.GetChildren(tt.id)
			assert.True(t, errors.Is(err, cluster.ErrNotFound), "got %v", err)

			_, err = c.GetLeaves(tt.id, 10, 0)
			assert.True(t, errors.Is(err, cluster.ErrNotFound), "got %v", err)

			_, err = c.GetClusterExpansionZoom(tt.id)
			assert.True(t, errors.Is(err, cluster.ErrNotFound), "got %v", err)
		})
	}

	t.Run("below min zoom", func(t *testing.T) {
		limited := build(t, fivePoints(), func(c *cluster.Cluster) { c.MinZoom = 3 })
		_, err := limited.GetChildren(cluster.NewClusterID(0, 2))
		assert.True(t, errors.Is(err, cluster.ErrNotFound))
	})
}

func TestCluster_GetLeaves(t *testing.T) {
	points := fivePoints()
	c := build(t, points, func(c *cluster.Cluster) { c.Radius = 40 })

	cl := findCluster(c.GetClusters(world, 10))
	require.NotNil(t, cl)
	id, _ := cluster.ClusterIDOf(cl)

	leaves, err := c.GetLeaves(id, 10, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, points[:4], leaves)

	first, err := c.GetLeaves(id, 3, 0)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	rest, err := c.GetLeaves(id, 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Equal(t, leaves, append(first, rest...))

	beyond, err := c.GetLeaves(id, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestCluster_GetLeavesPagination(t *testing.T) {
	points := randomPoints(3000, 4)
	c := build(t, points, func(c *cluster.Cluster) {
		c.Radius = 80
		c.MaxZoom = 10
	})

	var biggest *geojson.Feature
	for _, f := range c.AllClusters(2) {
		if _, ok := cluster.ClusterIDOf(f); !ok {
			continue
		}
		if biggest == nil || f.Properties[cluster.PropPointCount].(int) > biggest.Properties[cluster.PropPointCount].(int) {
			biggest = f
		}
	}
	require.NotNil(t, biggest)
	id, _ := cluster.ClusterIDOf(biggest)
	count := biggest.Properties[cluster.PropPointCount].(int)

	all, err := c.GetLeaves(id, -1, 0)
	require.NoError(t, err)
	assert.Len(t, all, count)

	defaultPage, err := c.GetLeaves(id, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, all[:cluster.DefaultLeavesLimit], defaultPage)

	var paged []*geojson.Feature
	for offset := 0; ; offset += 7 {
		page, err := c.GetLeaves(id, 7, offset)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		assert.LessOrEqual(t, len(page), 7)
		paged = append(paged, page...)
	}
	assert.Equal(t, all, paged)

	seen := map[*geojson.Feature]bool{}
	for _, leaf := range all {
		assert.False(t, seen[leaf], "leaf %v twice", leaf.Properties["index"])
		seen[leaf] = true
		assert.Same(t, points[leaf.Properties["index"].(int)], leaf)
	}
}

func TestCluster_GetClusterExpansionZoom(t *testing.T) {
	c := build(t, fivePoints(), func(c *cluster.Cluster) { c.Radius = 40 })

	cl := findCluster(c.GetClusters(world, 10))
	require.NotNil(t, cl)
	id, _ := cluster.ClusterIDOf(cl)

	// the four points merge on zoom 13 and split on zoom 14
	zoom, err := c.GetClusterExpansionZoom(id)
	require.NoError(t, err)
	assert.Equal(t, 14, zoom)

	others := build(t, randomPoints(2000, 5), func(c *cluster.Cluster) {
		c.Radius = 60
		c.MaxZoom = 10
	})
	for z := 0; z < others.MaxZoom; z++ {
		for _, f := range others.AllClusters(z) {
			id, ok := cluster.ClusterIDOf(f)
			if !ok {
				continue
			}
			zoom, err := others.GetClusterExpansionZoom(id)
			require.NoError(t, err)
			assert.Greater(t, zoom, z)
			assert.LessOrEqual(t, zoom, others.MaxZoom)
		}
	}
}

func TestCluster_ConcurrentQueries(t *testing.T) {
	c := build(t, randomPoints(2000, 6), func(c *cluster.Cluster) { c.Radius = 60 })

	expected := make([][]string, 8)
	for z := range expected {
		expected[z] = describe(c.GetClusters(world, z))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for z := range expected {
				assert.Equal(t, expected[z], describe(c.GetClusters(world, z)))
				if cl := findCluster(c.AllClusters(z)); cl != nil {
					id, _ := cluster.ClusterIDOf(cl)
					_, err := c.GetLeaves(id, 5, 1)
					assert.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()
}

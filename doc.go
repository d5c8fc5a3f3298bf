// MIT License
//
// Copyright (c) 2016 MadAppGang

// Package cluster is a very fast library for geospatial point clustering.
//
// The cluster uses hierarchical greedy clustering approach,
// the same one used by Dave Leaver with his fantastic Leaflet.markercluster plugin
// and by MapBox's supercluster JS library: https://www.mapbox.com/blog/supercluster/
//
// Points are clustered once, for every zoom level from MaxZoom down to MinZoom,
// each level is stored in its own KD-tree. After that the index is read only and
// could be queried from any number of goroutines.
//
// Very easy to use:
//
//	//1.Create new cluster
//	c := cluster.NewCluster()
//	c.Radius = 40
//
//	//2.Build index over GeoJSON point features
//	if err := c.ClusterPoints(features); err != nil {
//		return err
//	}
//
//	//3.Get clusters for the visible part of the map
//	visible := c.GetClusters(orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}, 2)
//
//	//4.Or a tile, with pixel coordinates, to display directly on the map
//	tile := c.GetTile(0, 0, 0)
//
// Points keep their identity: every feature returned for a point is the one from
// the input slice. Clusters are new features with the "cluster", "clusterId",
// "pointCount" and "pointCountAbbreviated" properties.
//
// Cluster ids encode the zoom level and the index position the cluster was created
// from (id = index<<5 | zoom), that's why MaxZoom is limited to MaxSupportedZoom.
// Use GetChildren, GetLeaves and GetClusterExpansionZoom to drill into a cluster.
//
// Custom cluster properties are computed with a Reducer, e.g. to sum a property:
//
//	c.Reducer = &cluster.Reducer{
//		Map:     func(p geojson.Properties) geojson.Properties { return geojson.Properties{"sum": p["value"]} },
//		Initial: func() geojson.Properties { return geojson.Properties{"sum": 0.0} },
//		Reduce: func(acc, p geojson.Properties) {
//			acc["sum"] = acc["sum"].(float64) + p["sum"].(float64)
//		},
//	}
package cluster

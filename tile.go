package cluster

import (
	"math"

	"github.com/paulmach/orb/geojson"
)

// TileFeaturePoint is the vector tile geometry type of every tile feature.
const TileFeaturePoint = 1

// Tile is the content of a z/x/y map tile.
type Tile struct {
	Features []TileFeature `json:"features"`
}

// TileFeature is a cluster or point with coordinates in tile pixels.
// Geometry holds a single [x, y] pair, relative to the top left corner of the tile.
type TileFeature struct {
	Type     int                `json:"type"`
	Geometry [][2]int64         `json:"geometry"`
	Tags     geojson.Properties `json:"tags"`
}

// GetTile returns clusters and points for the tile with coordinates x and y on zoom z.
// The tile is padded by the cluster radius, so markers close to the edges are shared
// by the neighbour tiles, and the first and last tile columns wrap around the antimeridian.
// It returns nil when there is nothing to draw.
func (c *Cluster) GetTile(z, x, y int) *Tile {
	index, queries := c.tileQueries(z, x, y)
	if index == nil {
		return nil
	}

	tile := &Tile{}
	extent := float64(c.settings.extent)
	z2 := math.Pow(2, float64(z))
	for _, q := range queries {
		for _, id := range q.ids {
			p := index.points[id]
			tile.Features = append(tile.Features, TileFeature{
				Type: TileFeaturePoint,
				Geometry: [][2]int64{{
					round(extent * (p.X*z2 - q.x)),
					round(extent * (p.Y*z2 - float64(y))),
				}},
				Tags: c.tags(p),
			})
		}
	}

	if len(tile.Features) == 0 {
		return nil
	}
	return tile
}

// GetTileWithLatLon returns the same clusters and points as GetTile,
// as features with longitude/latitude coordinates.
func (c *Cluster) GetTileWithLatLon(z, x, y int) []*geojson.Feature {
	index, queries := c.tileQueries(z, x, y)
	if index == nil {
		return nil
	}

	var result []*geojson.Feature
	for _, q := range queries {
		result = append(result, c.toFeatures(index, q.ids)...)
	}
	return result
}

// tileQuery is a range query result with the tile column its x coordinates are relative to.
type tileQuery struct {
	ids []int
	x   float64
}

func (c *Cluster) tileQueries(z, x, y int) (*zoomIndex, []tileQuery) {
	if c.indexes == nil {
		return nil, nil
	}
	index := c.indexes[c.limitZoom(z)]
	z2 := math.Pow(2, float64(z))
	p := c.settings.radius / float64(c.settings.extent)
	fx, fy := float64(x), float64(y)
	top := (fy - p) / z2
	bottom := (fy + 1 + p) / z2

	queries := []tileQuery{{
		ids: index.tree.Range((fx-p)/z2, top, (fx+1+p)/z2, bottom),
		x:   fx,
	}}
	if x == 0 {
		queries = append(queries, tileQuery{
			ids: index.tree.Range(1-p/z2, top, 1, bottom),
			x:   z2,
		})
	}
	if fx == z2-1 {
		queries = append(queries, tileQuery{
			ids: index.tree.Range(0, top, p/z2, bottom),
			x:   -1,
		})
	}
	return index, queries
}

// round halves towards positive infinity, the way map renderers snap pixels.
func round(val float64) int64 {
	return int64(math.Floor(val + 0.5))
}

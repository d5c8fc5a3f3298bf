package kdbush

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPoints(n int, seed int64) []Point {
	rnd := rand.New(rand.NewSource(seed))
	points := make([]Point, n)
	for i := range points {
		points[i] = SimplePoint{X: rnd.Float64() * 1000, Y: rnd.Float64() * 1000}
	}
	return points
}

func sorted(ids []int) []int {
	result := append([]int(nil), ids...)
	sort.Ints(result)
	return result
}

func TestNewBush(t *testing.T) {
	points := randomPoints(10000, 1)
	bush := NewBush(points, 10)
	assert.Equal(t, 10000, bush.Len())
	assert.Equal(t, 10, bush.NodeSize)

	// every position is indexed once
	seen := make([]bool, len(points))
	for _, id := range bush.ids {
		require.False(t, seen[id])
		seen[id] = true
	}

	// coordinates travel with their ids
	for i, id := range bush.ids {
		x, y := points[id].Coordinates()
		assert.Equal(t, x, bush.coords[2*i])
		assert.Equal(t, y, bush.coords[2*i+1])
	}

	assert.Equal(t, DefaultNodeSize, NewBush(points, 0).NodeSize)
}

func TestKDBush_Range(t *testing.T) {
	for _, nodeSize := range []int{1, 10, 64} {
		points := randomPoints(5000, 2)
		bush := NewBush(points, nodeSize)

		var expected []int
		for i, p := range points {
			x, y := p.Coordinates()
			if x >= 200 && x <= 500 && y >= 100 && y <= 700 {
				expected = append(expected, i)
			}
		}
		assert.Equal(t, expected, sorted(bush.Range(200, 100, 500, 700)), "node size %d", nodeSize)
	}
}

func TestKDBush_Within(t *testing.T) {
	points := randomPoints(5000, 3)
	bush := NewBush(points, 16)

	var expected []int
	for i, p := range points {
		x, y := p.Coordinates()
		if sqDist(x, y, 500, 500) <= 150*150 {
			expected = append(expected, i)
		}
	}
	assert.Equal(t, expected, sorted(bush.Within(500, 500, 150)))
}

func TestKDBush_Boundaries(t *testing.T) {
	points := []Point{SimplePoint{0, 0}, SimplePoint{1, 0}, SimplePoint{0, 1}, SimplePoint{1, 1}, SimplePoint{2, 2}}
	bush := NewBush(points, 1)

	assert.Equal(t, []int{0, 1, 2, 3}, sorted(bush.Range(0, 0, 1, 1)))
	assert.Equal(t, []int{0, 1, 2}, sorted(bush.Within(0, 0, 1)))
	assert.Equal(t, []int{4}, bush.Within(2, 2, 0))
}

func TestKDBush_Duplicates(t *testing.T) {
	points := make([]Point, 1000)
	for i := range points {
		points[i] = SimplePoint{X: float64(i % 3), Y: 5}
	}
	bush := NewBush(points, 4)
	assert.Len(t, bush.Range(1, 5, 1, 5), 333)
	assert.Len(t, bush.Within(0, 5, 0.5), 334)
}

func TestKDBush_Empty(t *testing.T) {
	bush := NewBush(nil, 64)
	assert.Equal(t, 0, bush.Len())
	assert.Empty(t, bush.Range(-1, -1, 1, 1))
	assert.Empty(t, bush.Within(0, 0, 10))
}

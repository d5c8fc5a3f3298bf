// Package kdbush is a static spatial index for 2D points.
//
// The index is built once from a slice of points and is immutable afterwards,
// so a single KDBush can be queried from many goroutines at the same time.
// Points are sorted into a flat KD-tree: leaves hold up to NodeSize points and are
// scanned linearly, everything above is a balanced binary split alternating between
// the x and y axis.
package kdbush

import "math"

// DefaultNodeSize is the leaf size used when NewBush gets a non positive one.
const DefaultNodeSize = 64

// Point is anything that could be stored in the index.
type Point interface {
	Coordinates() (float64, float64)
}

// SimplePoint is the minimal Point implementation.
type SimplePoint struct {
	X, Y float64
}

// Coordinates implements Point.
func (sp SimplePoint) Coordinates() (float64, float64) {
	return sp.X, sp.Y
}

// KDBush is the index itself.
// Range and Within return positions in the slice the index was built from.
type KDBush struct {
	NodeSize int

	ids    []int
	coords []float64
}

// NewBush builds the index over points.
// The points slice is not retained, only the coordinates are copied.
func NewBush(points []Point, nodeSize int) *KDBush {
	if nodeSize <= 0 {
		nodeSize = DefaultNodeSize
	}
	b := &KDBush{
		NodeSize: nodeSize,
		ids:      make([]int, len(points)),
		coords:   make([]float64, 2*len(points)),
	}
	for i, p := range points {
		x, y := p.Coordinates()
		b.ids[i] = i
		b.coords[2*i] = x
		b.coords[2*i+1] = y
	}
	b.sortKD(0, len(b.ids)-1, 0)
	return b
}

// Len returns the number of indexed points.
func (b *KDBush) Len() int {
	return len(b.ids)
}

// Range returns all points inside the closed rectangle.
func (b *KDBush) Range(minX, minY, maxX, maxY float64) []int {
	var result []int
	stack := []int{0, len(b.ids) - 1, 0}

	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		// leaf, scan it
		if right-left <= b.NodeSize {
			for i := left; i <= right; i++ {
				x, y := b.coords[2*i], b.coords[2*i+1]
				if x >= minX && x <= maxX && y >= minY && y <= maxY {
					result = append(result, b.ids[i])
				}
			}
			continue
		}

		m := (left + right) >> 1
		x, y := b.coords[2*m], b.coords[2*m+1]
		if x >= minX && x <= maxX && y >= minY && y <= maxY {
			result = append(result, b.ids[m])
		}

		nextAxis := 1 - axis
		if (axis == 0 && minX <= x) || (axis == 1 && minY <= y) {
			stack = append(stack, left, m-1, nextAxis)
		}
		if (axis == 0 && maxX >= x) || (axis == 1 && maxY >= y) {
			stack = append(stack, m+1, right, nextAxis)
		}
	}

	return result
}

// Within returns all points at euclidean distance <= radius from (qx, qy).
func (b *KDBush) Within(qx, qy, radius float64) []int {
	var result []int
	stack := []int{0, len(b.ids) - 1, 0}
	r2 := radius * radius

	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= b.NodeSize {
			for i := left; i <= right; i++ {
				if sqDist(b.coords[2*i], b.coords[2*i+1], qx, qy) <= r2 {
					result = append(result, b.ids[i])
				}
			}
			continue
		}

		m := (left + right) >> 1
		x, y := b.coords[2*m], b.coords[2*m+1]
		if sqDist(x, y, qx, qy) <= r2 {
			result = append(result, b.ids[m])
		}

		nextAxis := 1 - axis
		if (axis == 0 && qx-radius <= x) || (axis == 1 && qy-radius <= y) {
			stack = append(stack, left, m-1, nextAxis)
		}
		if (axis == 0 && qx+radius >= x) || (axis == 1 && qy+radius >= y) {
			stack = append(stack, m+1, right, nextAxis)
		}
	}

	return result
}

func (b *KDBush) sortKD(left, right, axis int) {
	if right-left <= b.NodeSize {
		return
	}
	m := (left + right) >> 1
	b.selectKD(m, left, right, axis)
	b.sortKD(left, m-1, 1-axis)
	b.sortKD(m+1, right, 1-axis)
}

// selectKD is Floyd-Rivest selection: after it returns the k-th item sits at k,
// everything left of it is <= and everything right of it is >= on the axis.
func (b *KDBush) selectKD(k, left, right, axis int) {
	coords := b.coords
	for right > left {
		if right-left > 600 {
			n := float64(right - left + 1)
			m := float64(k - left + 1)
			z := math.Log(n)
			s := 0.5 * math.Exp(2*z/3)
			sd := 0.5 * math.Sqrt(z*s*(n-s)/n)
			if m-n/2 < 0 {
				sd = -sd
			}
			newLeft := max(left, int(math.Floor(float64(k)-m*s/n+sd)))
			newRight := min(right, int(math.Floor(float64(k)+(n-m)*s/n+sd)))
			b.selectKD(k, newLeft, newRight, axis)
		}

		t := coords[2*k+axis]
		i := left
		j := right

		b.swapItem(left, k)
		if coords[2*right+axis] > t {
			b.swapItem(left, right)
		}

		for i < j {
			b.swapItem(i, j)
			i++
			j--
			for coords[2*i+axis] < t {
				i++
			}
			for coords[2*j+axis] > t {
				j--
			}
		}

		if coords[2*left+axis] == t {
			b.swapItem(left, j)
		} else {
			j++
			b.swapItem(j, right)
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}

func (b *KDBush) swapItem(i, j int) {
	b.ids[i], b.ids[j] = b.ids[j], b.ids[i]
	b.coords[2*i], b.coords[2*j] = b.coords[2*j], b.coords[2*i]
	b.coords[2*i+1], b.coords[2*j+1] = b.coords[2*j+1], b.coords[2*i+1]
}

func sqDist(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return dx*dx + dy*dy
}

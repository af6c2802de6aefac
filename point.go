package symscan

import (
	"fmt"
	"math"
)

// Point is a location in image coordinates.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CrossProductZ is the z component of the cross product of the vectors
// b->c and b->a.
func CrossProductZ(a, b, c Point) float64 {
	return (c.X-b.X)*(a.Y-b.Y) - (c.Y-b.Y)*(a.X-b.X)
}

// OrderBestPatterns orders three finder pattern centers so that the result
// is {bottomLeft, topLeft, topRight}: topLeft is the corner opposite the
// longest side and the triple runs clockwise in image coordinates.
func OrderBestPatterns(patterns [3]Point) [3]Point {
	d01 := Distance(patterns[0], patterns[1])
	d12 := Distance(patterns[1], patterns[2])
	d02 := Distance(patterns[0], patterns[2])

	var a, b, c Point
	switch {
	case d12 >= d01 && d12 >= d02:
		b, a, c = patterns[0], patterns[1], patterns[2]
	case d02 >= d12 && d02 >= d01:
		b, a, c = patterns[1], patterns[0], patterns[2]
	default:
		b, a, c = patterns[2], patterns[0], patterns[1]
	}
	if CrossProductZ(a, b, c) < 0 {
		a, c = c, a
	}
	return [3]Point{a, b, c}
}

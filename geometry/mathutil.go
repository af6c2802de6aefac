package geometry

import "math"

// Round rounds half away from zero and converts to int.
func Round(d float64) int {
	if d < 0 {
		return int(d - 0.5)
	}
	return int(d + 0.5)
}

// DistanceXY is the Euclidean distance between two integer pixel positions.
func DistanceXY(ax, ay, bx, by int) float64 {
	return math.Hypot(float64(ax-bx), float64(ay-by))
}

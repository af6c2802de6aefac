package geometry

import (
	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// CountTransitions walks the Bresenham line from from to to and counts how
// many times the pixel colour changes. Both ends are clamped into the image.
func CountTransitions(image *bitutil.BitMatrix, from, to symscan.Point) int {
	x0, y0 := clamp(int(from.X), image.Width()), clamp(int(from.Y), image.Height())
	x1, y1 := clamp(int(to.X), image.Width()), clamp(int(to.Y), image.Height())

	steep := abs(y1-y0) > abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}
	get := func(x, y int) bool {
		if steep {
			return image.Get(y, x)
		}
		return image.Get(x, y)
	}

	dx, dy := abs(x1-x0), abs(y1-y0)
	xstep, ystep := 1, 1
	if x0 > x1 {
		xstep = -1
	}
	if y0 > y1 {
		ystep = -1
	}

	count := 0
	black := get(x0, y0)
	errAcc := -dx / 2
	for x, y := x0, y0; x != x1; x += xstep {
		if b := get(x, y); b != black {
			count++
			black = b
		}
		errAcc += dy
		if errAcc > 0 {
			if y == y1 {
				break
			}
			y += ystep
			errAcc -= dx
		}
	}
	return count
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

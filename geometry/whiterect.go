package geometry

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

const (
	whiteRectInitSize = 10
	// corners found on the dark boundary are pulled this far toward the center
	whiteRectCorr = 1
)

// WhiteRectangleDetector grows a box outward from a seed until all four of
// its sides lie on white, then locates the extreme black point near each
// corner. It finds the outline of a roughly square symbol without relying on
// finder patterns.
type WhiteRectangleDetector struct {
	image *bitutil.BitMatrix

	width, height         int
	left, right, up, down int
}

// NewWhiteRectangleDetector seeds the search at the image center.
func NewWhiteRectangleDetector(image *bitutil.BitMatrix) (*WhiteRectangleDetector, error) {
	return NewWhiteRectangleDetectorAt(image, whiteRectInitSize, image.Width()/2, image.Height()/2)
}

// NewWhiteRectangleDetectorAt seeds the search with an initSize box centered
// on (x, y). The box must lie inside the image.
func NewWhiteRectangleDetectorAt(image *bitutil.BitMatrix, initSize, x, y int) (*WhiteRectangleDetector, error) {
	half := initSize / 2
	d := &WhiteRectangleDetector{
		image:  image,
		width:  image.Width(),
		height: image.Height(),
		left:   x - half,
		right:  x + half,
		up:     y - half,
		down:   y + half,
	}
	if d.up < 0 || d.left < 0 || d.down >= d.height || d.right >= d.width {
		return nil, fmt.Errorf("seed box outside %dx%d image: %w", d.width, d.height, symscan.ErrNotFound)
	}
	return d, nil
}

// Detect returns the corners of the region as {top, left, right, bottom}:
// the first and last are diagonal opposites, as are the middle two.
func (d *WhiteRectangleDetector) Detect() ([4]symscan.Point, error) {
	var none [4]symscan.Point
	left, right, up, down := d.left, d.right, d.up, d.down
	var seenRight, seenBottom, seenLeft, seenTop bool

	// A side keeps moving while it crosses black, and also until it has
	// crossed black at least once so an empty seed box still grows.
	for grew := true; grew; {
		grew = false

		for dark := true; (dark || !seenRight) && right < d.width; {
			dark = d.column(right, up, down)
			if dark || !seenRight {
				right++
			}
			if dark {
				grew, seenRight = true, true
			}
		}
		if right >= d.width {
			return none, d.exceeded()
		}

		for dark := true; (dark || !seenBottom) && down < d.height; {
			dark = d.row(down, left, right)
			if dark || !seenBottom {
				down++
			}
			if dark {
				grew, seenBottom = true, true
			}
		}
		if down >= d.height {
			return none, d.exceeded()
		}

		for dark := true; (dark || !seenLeft) && left >= 0; {
			dark = d.column(left, up, down)
			if dark || !seenLeft {
				left--
			}
			if dark {
				grew, seenLeft = true, true
			}
		}
		if left < 0 {
			return none, d.exceeded()
		}

		for dark := true; (dark || !seenTop) && up >= 0; {
			dark = d.row(up, left, right)
			if dark || !seenTop {
				up--
			}
			if dark {
				grew, seenTop = true, true
			}
		}
		if up < 0 {
			return none, d.exceeded()
		}
	}

	maxSize := right - left
	// Walk short diagonals in from each corner of the box until one hits black.
	corner := func(ax, ay, sx, sy int) (symscan.Point, bool) {
		for i := 1; i < maxSize; i++ {
			if p, ok := d.blackOnSegment(ax, ay+sy*i, ax+sx*i, ay); ok {
				return p, true
			}
		}
		return symscan.Point{}, false
	}
	z, ok := corner(left, down, 1, -1)
	if !ok {
		return none, d.noCorner("bottom-left")
	}
	t, ok := corner(left, up, 1, 1)
	if !ok {
		return none, d.noCorner("top-left")
	}
	x, ok := corner(right, up, -1, 1)
	if !ok {
		return none, d.noCorner("top-right")
	}
	y, ok := corner(right, down, -1, -1)
	if !ok {
		return none, d.noCorner("bottom-right")
	}
	return d.centerEdges(y, z, x, t), nil
}

func (d *WhiteRectangleDetector) exceeded() error {
	return fmt.Errorf("no white border inside %dx%d image: %w", d.width, d.height, symscan.ErrNotFound)
}

func (d *WhiteRectangleDetector) noCorner(which string) error {
	return fmt.Errorf("no %s corner: %w", which, symscan.ErrNotFound)
}

func (d *WhiteRectangleDetector) blackOnSegment(ax, ay, bx, by int) (symscan.Point, bool) {
	dist := Round(DistanceXY(ax, ay, bx, by))
	xStep := float64(bx-ax) / float64(dist)
	yStep := float64(by-ay) / float64(dist)
	for i := 0; i < dist; i++ {
		x := Round(float64(ax) + float64(i)*xStep)
		y := Round(float64(ay) + float64(i)*yStep)
		if d.image.Get(x, y) {
			return symscan.Point{X: float64(x), Y: float64(y)}, true
		}
	}
	return symscan.Point{}, false
}

// centerEdges nudges the extreme points y (bottom), z (left), x (right) and
// t (top) toward the middle of the symbol.
func (d *WhiteRectangleDetector) centerEdges(y, z, x, t symscan.Point) [4]symscan.Point {
	const c = whiteRectCorr
	if y.X < float64(d.width)/2 {
		return [4]symscan.Point{
			{X: t.X - c, Y: t.Y + c},
			{X: z.X + c, Y: z.Y + c},
			{X: x.X - c, Y: x.Y - c},
			{X: y.X + c, Y: y.Y - c},
		}
	}
	return [4]symscan.Point{
		{X: t.X + c, Y: t.Y + c},
		{X: z.X + c, Y: z.Y - c},
		{X: x.X - c, Y: x.Y + c},
		{X: y.X - c, Y: y.Y - c},
	}
}

func (d *WhiteRectangleDetector) row(y, x0, x1 int) bool {
	for x := x0; x <= x1; x++ {
		if d.image.Get(x, y) {
			return true
		}
	}
	return false
}

func (d *WhiteRectangleDetector) column(x, y0, y1 int) bool {
	for y := y0; y <= y1; y++ {
		if d.image.Get(x, y) {
			return true
		}
	}
	return false
}

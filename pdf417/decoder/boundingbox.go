package decoder

import (
	"fmt"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// boundingBox is the quadrilateral holding the codeword area. A side that
// was not found is pinned to the image edge.
type boundingBox struct {
	image                                      *bitutil.BitMatrix
	topLeft, bottomLeft, topRight, bottomRight symscan.Point
	minX, maxX, minY, maxY                     int
}

func newBoundingBox(image *bitutil.BitMatrix, topLeft, bottomLeft, topRight, bottomRight *symscan.Point) (*boundingBox, error) {
	noLeft := topLeft == nil || bottomLeft == nil
	noRight := topRight == nil || bottomRight == nil
	if noLeft && noRight {
		return nil, fmt.Errorf("pdf417: no codeword area: %w", symscan.ErrNotFound)
	}
	b := &boundingBox{image: image}
	switch {
	case noLeft:
		b.topRight, b.bottomRight = *topRight, *bottomRight
		b.topLeft = symscan.Point{X: 0, Y: topRight.Y}
		b.bottomLeft = symscan.Point{X: 0, Y: bottomRight.Y}
	case noRight:
		b.topLeft, b.bottomLeft = *topLeft, *bottomLeft
		edge := float64(image.Width() - 1)
		b.topRight = symscan.Point{X: edge, Y: topLeft.Y}
		b.bottomRight = symscan.Point{X: edge, Y: bottomLeft.Y}
	default:
		b.topLeft, b.bottomLeft, b.topRight, b.bottomRight = *topLeft, *bottomLeft, *topRight, *bottomRight
	}
	b.minX = int(math.Min(b.topLeft.X, b.bottomLeft.X))
	b.maxX = int(math.Max(b.topRight.X, b.bottomRight.X))
	b.minY = int(math.Min(b.topLeft.Y, b.topRight.Y))
	b.maxY = int(math.Max(b.bottomLeft.Y, b.bottomRight.Y))
	return b, nil
}

func (b *boundingBox) clone() *boundingBox {
	c := *b
	return &c
}

// mergeBoxes joins the left side of left with the right side of right.
func mergeBoxes(left, right *boundingBox) (*boundingBox, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	return newBoundingBox(left.image, &left.topLeft, &left.bottomLeft, &right.topRight, &right.bottomRight)
}

// addMissingRows grows one side of the box by the given number of pixel
// rows at the top and bottom, staying inside the image.
func (b *boundingBox) addMissingRows(missingStart, missingEnd int, left bool) (*boundingBox, error) {
	tl, bl, tr, br := b.topLeft, b.bottomLeft, b.topRight, b.bottomRight
	if missingStart > 0 {
		top := &tl
		if !left {
			top = &tr
		}
		top.Y = float64(max(int(top.Y)-missingStart, 0))
	}
	if missingEnd > 0 {
		bottom := &bl
		if !left {
			bottom = &br
		}
		bottom.Y = float64(min(int(bottom.Y)+missingEnd, b.image.Height()-1))
	}
	return newBoundingBox(b.image, &tl, &bl, &tr, &br)
}

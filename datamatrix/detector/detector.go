// Package detector locates a Data Matrix symbol by its finder: two solid
// edges meeting in an L, and two timing edges of alternating modules.
//
// The white-rectangle search gives four rough corners. The corner between
// the two edges with the fewest transitions is the L's elbow; the fourth
// corner, which has no solid edge to anchor it, is then projected from the
// timing edges.
package detector

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/datamatrix/decoder"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/internal"
)

type detector struct {
	image *bitutil.BitMatrix
}

// Detect finds a symbol in image and samples it. The points of the result
// are the module centers of the corners: top-left, bottom-left (the elbow
// of the L), bottom-right and top-right.
func Detect(image *bitutil.BitMatrix) (*internal.DetectorResult, error) {
	wrd, err := geometry.NewWhiteRectangleDetector(image)
	if err != nil {
		return nil, err
	}
	corners, err := wrd.Detect()
	if err != nil {
		return nil, err
	}

	d := &detector{image: image}
	q := d.detectSolid2(d.detectSolid1(corners))
	tr, ok := d.correctTopRight(q)
	if !ok {
		return nil, fmt.Errorf("datamatrix: top-right corner outside image: %w", symscan.ErrNotFound)
	}
	q[3] = tr
	q = d.shiftToModuleCenter(q)
	tl, bl, br, tr := q[0], q[1], q[2], q[3]

	dimTop := evenUp(d.transitions(tl, tr) + 1)
	dimRight := evenUp(d.transitions(br, tr) + 1)
	if 4*dimTop < 6*dimRight && 4*dimRight < 6*dimTop {
		// close enough to square that any difference is a miscount
		dimTop = max(dimTop, dimRight)
		dimRight = dimTop
	}
	// A size no symbol has means the finder matched something else.
	if _, err := decoder.VersionForDimensions(dimRight, dimTop); err != nil {
		return nil, fmt.Errorf("datamatrix: finder gives %dx%d modules: %w", dimRight, dimTop, symscan.ErrNotFound)
	}

	bits, err := geometry.SampleGrid(image, dimTop, dimRight,
		geometry.Quad{
			{X: 0.5, Y: 0.5},
			{X: float64(dimTop) - 0.5, Y: 0.5},
			{X: float64(dimTop) - 0.5, Y: float64(dimRight) - 0.5},
			{X: 0.5, Y: float64(dimRight) - 0.5},
		},
		geometry.Quad{tl, tr, br, bl},
	)
	if err != nil {
		return nil, err
	}
	return &internal.DetectorResult{Bits: bits, Points: []symscan.Point{tl, bl, br, tr}}, nil
}

func evenUp(n int) int { return n + n&1 }

func (d *detector) transitions(from, to symscan.Point) int {
	return geometry.CountTransitions(d.image, from, to)
}

// shiftPoint moves p toward to by 1/(div+1) of the way.
func shiftPoint(p, to symscan.Point, div int) symscan.Point {
	f := float64(div + 1)
	return symscan.Point{X: p.X + (to.X-p.X)/f, Y: p.Y + (to.Y-p.Y)/f}
}

// moveAway pushes p one pixel further from (cx, cy) on each axis.
func moveAway(p symscan.Point, cx, cy float64) symscan.Point {
	if p.X < cx {
		p.X--
	} else {
		p.X++
	}
	if p.Y < cy {
		p.Y--
	} else {
		p.Y++
	}
	return p
}

// detectSolid1 rotates the corners, given as top, left, right, bottom by
// the rectangle search, so that the quietest side comes between q[1] and
// q[2]. The result runs A, B, C, D around the symbol:
//
//	A..D
//	:  :
//	B--C
func (d *detector) detectSolid1(c [4]symscan.Point) geometry.Quad {
	a, b, cc, dd := c[0], c[1], c[3], c[2]
	trAB := d.transitions(a, b)
	trBC := d.transitions(b, cc)
	trCD := d.transitions(cc, dd)
	trDA := d.transitions(dd, a)

	least := trAB
	q := geometry.Quad{dd, a, b, cc}
	if least > trBC {
		least = trBC
		q = geometry.Quad{a, b, cc, dd}
	}
	if least > trCD {
		least = trCD
		q = geometry.Quad{b, cc, dd, a}
	}
	if least > trDA {
		q = geometry.Quad{cc, dd, a, b}
	}
	return q
}

// detectSolid2 picks which neighbour of the solid side B-C is also solid and
// rotates so the L runs A-B-C. Both candidate edges are probed one module in
// from the corners, where transitions are stable.
func (d *detector) detectSolid2(q geometry.Quad) geometry.Quad {
	a, b, c, dd := q[0], q[1], q[2], q[3]
	tr := d.transitions(a, dd)
	bs := shiftPoint(b, c, (tr+1)*4)
	cs := shiftPoint(c, b, (tr+1)*4)
	if d.transitions(bs, a) < d.transitions(cs, dd) {
		return geometry.Quad{a, b, c, dd}
	}
	return geometry.Quad{b, c, dd, a}
}

// correctTopRight projects D from the two timing edges and keeps the
// candidate that sees more transitions along them.
func (d *detector) correctTopRight(q geometry.Quad) (symscan.Point, bool) {
	a, b, c, dd := q[0], q[1], q[2], q[3]

	trTop := d.transitions(a, dd)
	trRight := d.transitions(b, dd)
	as := shiftPoint(a, b, (trRight+1)*4)
	cs := shiftPoint(c, b, (trTop+1)*4)
	trTop = d.transitions(as, dd)
	trRight = d.transitions(cs, dd)

	c1 := symscan.Point{
		X: dd.X + (c.X-b.X)/float64(trTop+1),
		Y: dd.Y + (c.Y-b.Y)/float64(trTop+1),
	}
	c2 := symscan.Point{
		X: dd.X + (a.X-b.X)/float64(trRight+1),
		Y: dd.Y + (a.Y-b.Y)/float64(trRight+1),
	}
	ok1, ok2 := d.inside(c1), d.inside(c2)
	switch {
	case !ok1 && !ok2:
		return symscan.Point{}, false
	case !ok1:
		return c2, true
	case !ok2:
		return c1, true
	}
	sum1 := d.transitions(as, c1) + d.transitions(cs, c1)
	sum2 := d.transitions(as, c2) + d.transitions(cs, c2)
	if sum1 > sum2 {
		return c1, true
	}
	return c2, true
}

// shiftToModuleCenter moves the corners, which the rectangle search leaves
// just inside the symbol, half a module inward from its true outline.
func (d *detector) shiftToModuleCenter(q geometry.Quad) geometry.Quad {
	a, b, c, dd := q[0], q[1], q[2], q[3]

	dimH := d.transitions(a, dd) + 1
	dimV := d.transitions(c, dd) + 1
	as := shiftPoint(a, b, dimV*4)
	cs := shiftPoint(c, b, dimH*4)
	dimH = evenUp(d.transitions(as, dd) + 1)
	dimV = evenUp(d.transitions(cs, dd) + 1)

	cx := (a.X + b.X + c.X + dd.X) / 4
	cy := (a.Y + b.Y + c.Y + dd.Y) / 4
	a, b = moveAway(a, cx, cy), moveAway(b, cx, cy)
	c, dd = moveAway(c, cx, cy), moveAway(dd, cx, cy)

	as = shiftPoint(shiftPoint(a, b, dimV*4), dd, dimH*4)
	bs := shiftPoint(shiftPoint(b, a, dimV*4), c, dimH*4)
	cs = shiftPoint(shiftPoint(c, dd, dimV*4), b, dimH*4)
	ds := shiftPoint(shiftPoint(dd, c, dimV*4), a, dimH*4)
	return geometry.Quad{as, bs, cs, ds}
}

func (d *detector) inside(p symscan.Point) bool {
	return p.X >= 0 && p.X <= float64(d.image.Width()-1) &&
		p.Y > 0 && p.Y <= float64(d.image.Height()-1)
}

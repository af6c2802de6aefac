// Package detector finds an Aztec symbol by its bull's-eye, reads the mode
// message around it and samples the full module grid.
package detector

import (
	"fmt"
	"log/slog"
	"math"
	"math/bits"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/aztec/decoder"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/gf"
	"github.com/ericlevine/symscan/reedsolomon"
)

// Result is a located symbol ready for decoding.
type Result struct {
	decoder.Symbol
	// Points are the four symbol corners, starting at the corner diagonal
	// from the bull's-eye's top-right orientation mark and running clockwise
	// in the image.
	Points []symscan.Point
	// ErrorsCorrected counts repaired mode message words.
	ErrorsCorrected int
}

// orientation marks at the four bull's-eye corners, read clockwise; one
// entry per rotation
var cornerBits = [4]int{0xee0, 0x1dc, 0x83b, 0x707}

type pixel struct{ x, y int }

func (p pixel) point() symscan.Point { return symscan.Point{X: float64(p.x), Y: float64(p.y)} }

type detector struct {
	image *bitutil.BitMatrix

	compact    bool
	layers     int
	dataBlocks int
	rings      int
	shift      int
	corrected  int
}

// Detect locates an Aztec symbol in image. With mirror set the image is read
// as its mirror image, which recovers symbols printed or scanned reversed.
func Detect(image *bitutil.BitMatrix, mirror bool) (*Result, error) {
	d := &detector{image: image}

	center := d.matrixCenter()
	eye, err := d.bullsEyeCorners(center)
	if err != nil {
		return nil, err
	}
	if mirror {
		eye[0], eye[2] = eye[2], eye[0]
	}
	if err := d.readParameters(eye); err != nil {
		return nil, err
	}

	dim := decoder.Dimension(d.compact, d.layers)
	low := float64(dim)/2 - float64(d.rings)
	high := float64(dim)/2 + float64(d.rings)
	grid := geometry.Quad{{X: low, Y: low}, {X: high, Y: low}, {X: high, Y: high}, {X: low, Y: high}}
	var img geometry.Quad
	for i := range img {
		img[i] = eye[(d.shift+i)%4]
	}
	sampled, err := geometry.SampleGrid(image, dim, dim, grid, img)
	if err != nil {
		return nil, err
	}

	corners := expandSquare(eye, float64(2*d.rings), float64(dim))
	return &Result{
		Symbol: decoder.Symbol{
			Bits:       sampled,
			Compact:    d.compact,
			Layers:     d.layers,
			DataBlocks: d.dataBlocks,
		},
		Points:          corners[:],
		ErrorsCorrected: d.corrected,
	}, nil
}

// readParameters reads the mode message on the ring just outside the
// bull's-eye. It fixes the orientation and yields the layer and data block
// counts.
func (d *detector) readParameters(eye [4]symscan.Point) error {
	for _, p := range eye {
		if !d.valid(geometry.Round(p.X), geometry.Round(p.Y)) {
			return fmt.Errorf("aztec: bull's-eye corner %v outside image: %w", p, symscan.ErrNotFound)
		}
	}
	length := 2 * d.rings
	var sides [4]int
	for i := range sides {
		sides[i] = d.sampleLine(eye[i], eye[(i+1)%4], length)
	}

	shift, err := rotation(sides, length)
	if err != nil {
		return err
	}
	d.shift = shift

	var word int64
	for i := 0; i < 4; i++ {
		side := int64(sides[(shift+i)%4])
		if d.compact {
			// ..XXXXXXX. per side
			word = word<<7 | (side>>1)&0x7F
		} else {
			// ..XXXXX.XXXXX. per side
			word = word<<10 | (side>>2)&(0x1F<<5) | (side>>1)&0x1F
		}
	}

	data, corrected, err := correctParameters(word, d.compact)
	if err != nil {
		return err
	}
	d.corrected = corrected
	if d.compact {
		// 2 bits of layers, 6 of data blocks
		d.layers = data>>6 + 1
		d.dataBlocks = data&0x3F + 1
	} else {
		// 5 bits of layers, 11 of data blocks
		d.layers = data>>11 + 1
		d.dataBlocks = data&0x7FF + 1
	}
	return nil
}

// rotation finds which bull's-eye corner carries three orientation marks.
// The four patterns are at least 8 bits apart, so two bad modules are
// tolerated.
func rotation(sides [4]int, length int) (int, error) {
	marks := 0
	for _, side := range sides {
		// the first two and the last module of each side
		t := (side>>(length-2))<<1 | side&1
		marks = marks<<3 | t
	}
	// rotate so each corner's three marks are contiguous
	marks = (marks&1)<<11 | marks>>1
	for shift, want := range cornerBits {
		if bits.OnesCount(uint(marks^want)) <= 2 {
			return shift, nil
		}
	}
	return 0, fmt.Errorf("aztec: orientation marks %#x: %w", marks, symscan.ErrNotFound)
}

// correctParameters corrects the mode message over GF(16) and returns its
// data words as one integer.
func correctParameters(word int64, compact bool) (data, corrected int, err error) {
	total, dataWords := 10, 4
	if compact {
		total, dataWords = 7, 2
	}
	words := make([]int, total)
	for i := total - 1; i >= 0; i-- {
		words[i] = int(word & 0xF)
		word >>= 4
	}
	corrected, err = reedsolomon.NewDecoder(gf.AztecParam).Decode(words, total-dataWords)
	if err != nil {
		return 0, 0, fmt.Errorf("aztec: mode message: %w: %w", symscan.ErrNotFound, err)
	}
	for _, w := range words[:dataWords] {
		data = data<<4 | w
	}
	return data, corrected, nil
}

// bullsEyeCorners walks outward ring by ring from the center while each new
// ring stays square and in proportion. Five rings make a compact symbol and
// seven a full-range one. The returned points are the module centers just
// outside the bull's-eye, clockwise from the top right.
func (d *detector) bullsEyeCorners(center pixel) ([4]symscan.Point, error) {
	var none [4]symscan.Point
	a, b, c, dd := center, center, center, center
	black := true

	for d.rings = 1; d.rings < 9; d.rings++ {
		oa := d.firstDifferent(a, black, 1, -1)
		ob := d.firstDifferent(b, black, 1, 1)
		oc := d.firstDifferent(c, black, -1, 1)
		od := d.firstDifferent(dd, black, -1, -1)

		if d.rings > 2 {
			n := float64(d.rings)
			q := distance(od, oa) * n / (distance(dd, a) * (n + 2))
			if math.IsNaN(q) || q < 0.75 || q > 1.25 || !d.isRing(oa, ob, oc, od) {
				break
			}
		}
		a, b, c, dd = oa, ob, oc, od
		black = !black
	}
	if d.rings != 5 && d.rings != 7 {
		return none, fmt.Errorf("aztec: bull's-eye with %d rings: %w", d.rings, symscan.ErrNotFound)
	}
	d.compact = d.rings == 5

	// Half a pixel out puts the corners on the border between the innermost
	// white ring and the black ring around it.
	inner := [4]symscan.Point{
		{X: float64(a.x) + 0.5, Y: float64(a.y) - 0.5},
		{X: float64(b.x) + 0.5, Y: float64(b.y) + 0.5},
		{X: float64(c.x) - 0.5, Y: float64(c.y) + 0.5},
		{X: float64(dd.x) - 0.5, Y: float64(dd.y) - 0.5},
	}
	return expandSquare(inner, float64(2*d.rings-3), float64(2*d.rings)), nil
}

// matrixCenter estimates the bull's-eye center from two rounds of the
// white-rectangle search, the second seeded at the first estimate.
func (d *detector) matrixCenter() pixel {
	corners, err := d.whiteRectangle(nil)
	if err != nil {
		slog.Debug("aztec: white rectangle failed, probing diagonals", "error", err)
		corners = d.diagonalProbe(d.image.Width()/2, d.image.Height()/2)
	}
	c := average(corners)

	corners, err = d.whiteRectangle(&c)
	if err != nil {
		corners = d.diagonalProbe(c.x, c.y)
	}
	return average(corners)
}

func (d *detector) whiteRectangle(seed *pixel) ([4]symscan.Point, error) {
	var (
		w   *geometry.WhiteRectangleDetector
		err error
	)
	if seed == nil {
		w, err = geometry.NewWhiteRectangleDetector(d.image)
	} else {
		w, err = geometry.NewWhiteRectangleDetectorAt(d.image, 15, seed.x, seed.y)
	}
	if err != nil {
		return [4]symscan.Point{}, err
	}
	return w.Detect()
}

// diagonalProbe handles a seed box that is entirely white, as happens
// inside a large bull's-eye: it walks the four diagonals to the first black.
func (d *detector) diagonalProbe(cx, cy int) [4]symscan.Point {
	return [4]symscan.Point{
		d.firstDifferent(pixel{cx + 7, cy - 7}, false, 1, -1).point(),
		d.firstDifferent(pixel{cx + 7, cy + 7}, false, 1, 1).point(),
		d.firstDifferent(pixel{cx - 7, cy + 7}, false, -1, 1).point(),
		d.firstDifferent(pixel{cx - 7, cy - 7}, false, -1, -1).point(),
	}
}

func average(ps [4]symscan.Point) pixel {
	var x, y float64
	for _, p := range ps {
		x += p.X
		y += p.Y
	}
	return pixel{geometry.Round(x / 4), geometry.Round(y / 4)}
}

// sampleLine reads size modules from p1 toward p2, MSB first.
func (d *detector) sampleLine(p1, p2 symscan.Point, size int) int {
	dist := symscan.Distance(p1, p2)
	module := dist / float64(size)
	dx := module * (p2.X - p1.X) / dist
	dy := module * (p2.Y - p1.Y) / dist
	v := 0
	for i := 0; i < size; i++ {
		x := geometry.Round(p1.X + float64(i)*dx)
		y := geometry.Round(p1.Y + float64(i)*dy)
		if d.image.Get(x, y) {
			v |= 1 << (size - i - 1)
		}
	}
	return v
}

// isRing reports whether the square a, b, c, d (clockwise from top right)
// has sides of one uniform colour, checked three pixels inside it.
func (d *detector) isRing(a, b, c, dd pixel) bool {
	const corr = 3
	w, h := d.image.Width(), d.image.Height()
	a = pixel{max(0, a.x-corr), min(h-1, a.y+corr)}
	b = pixel{max(0, b.x-corr), max(0, b.y-corr)}
	c = pixel{min(w-1, c.x+corr), max(0, min(h-1, c.y-corr))}
	dd = pixel{min(w-1, dd.x+corr), min(h-1, dd.y+corr)}

	want := d.lineColor(dd, a)
	if want == 0 {
		return false
	}
	return d.lineColor(a, b) == want && d.lineColor(b, c) == want && d.lineColor(c, dd) == want
}

// lineColor returns 1 when the segment is (nearly) uniformly black, -1 when
// uniformly white and 0 when mixed.
func (d *detector) lineColor(p1, p2 pixel) int {
	dist := distance(p1, p2)
	if dist == 0 || !d.valid(p1.x, p1.y) || !d.valid(p2.x, p2.y) {
		return 0
	}
	dx := float64(p2.x-p1.x) / dist
	dy := float64(p2.y-p1.y) / dist
	px, py := float64(p1.x), float64(p1.y)
	start := d.image.Get(p1.x, p1.y)

	wrong := 0
	steps := int(math.Floor(dist))
	for i := 0; i < steps; i++ {
		if d.image.Get(geometry.Round(px), geometry.Round(py)) != start {
			wrong++
		}
		px += dx
		py += dy
	}
	ratio := float64(wrong) / dist
	if ratio > 0.1 && ratio < 0.9 {
		return 0
	}
	if (ratio <= 0.1) == start {
		return 1
	}
	return -1
}

// firstDifferent steps from init along (dx, dy) while the colour stays
// black (or white), then slides along each axis to the edge of that run.
func (d *detector) firstDifferent(init pixel, black bool, dx, dy int) pixel {
	same := func(x, y int) bool { return d.valid(x, y) && d.image.Get(x, y) == black }
	x, y := init.x+dx, init.y+dy
	for same(x, y) {
		x += dx
		y += dy
	}
	x -= dx
	y -= dy
	for same(x, y) {
		x += dx
	}
	x -= dx
	for same(x, y) {
		y += dy
	}
	y -= dy
	return pixel{x, y}
}

func (d *detector) valid(x, y int) bool {
	return x >= 0 && x < d.image.Width() && y >= 0 && y < d.image.Height()
}

// expandSquare scales the square with the given corners about its center
// from a side of oldSide to newSide.
func expandSquare(corners [4]symscan.Point, oldSide, newSide float64) [4]symscan.Point {
	ratio := newSide / (2 * oldSide)
	var out [4]symscan.Point
	for i := 0; i < 2; i++ {
		p, q := corners[i], corners[i+2]
		dx, dy := p.X-q.X, p.Y-q.Y
		cx, cy := (p.X+q.X)/2, (p.Y+q.Y)/2
		out[i] = symscan.Point{X: cx + ratio*dx, Y: cy + ratio*dy}
		out[i+2] = symscan.Point{X: cx - ratio*dx, Y: cy - ratio*dy}
	}
	return out
}

func distance(a, b pixel) float64 {
	return geometry.DistanceXY(a.x, a.y, b.x, b.y)
}

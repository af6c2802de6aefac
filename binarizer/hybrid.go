package binarizer

import (
	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

const (
	blockPower = 3
	blockSize  = 1 << blockPower
	// Images smaller than this many pixels on a side fall back to Global.
	minHybridSide = 5 * blockSize
	// Blocks whose luminance spans no more than this are treated as flat.
	minDynamicRange = 24
)

// Hybrid thresholds each 8x8 block against the average black point of the
// 5x5 neighbourhood of blocks around it. It copes with shadows and
// gradients that defeat a single global threshold.
type Hybrid struct {
	source symscan.LuminanceSource
}

// NewHybrid returns a Hybrid binarizer over source.
func NewHybrid(source symscan.LuminanceSource) *Hybrid {
	return &Hybrid{source: source}
}

func (h *Hybrid) Width() int  { return h.source.Width() }
func (h *Hybrid) Height() int { return h.source.Height() }

// BlackMatrix implements symscan.Binarizer.
func (h *Hybrid) BlackMatrix() (*bitutil.BitMatrix, error) {
	w, ht := h.source.Width(), h.source.Height()
	if w < minHybridSide || ht < minHybridSide {
		return NewGlobal(h.source).BlackMatrix()
	}
	g := blockGrid{
		pix:  h.source.Matrix(),
		w:    w,
		h:    ht,
		cols: (w + blockSize - 1) >> blockPower,
		rows: (ht + blockSize - 1) >> blockPower,
	}
	points := g.blackPoints()
	m := bitutil.NewBitMatrixWithSize(w, ht)
	for by := 0; by < g.rows; by++ {
		cy := clampCenter(by, g.rows)
		for bx := 0; bx < g.cols; bx++ {
			cx := clampCenter(bx, g.cols)
			sum := 0
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					sum += points[cy+dy][cx+dx]
				}
			}
			g.threshold(m, bx, by, sum/25)
		}
	}
	return m, nil
}

// blockGrid divides an image into blockSize squares. The last row and column
// of blocks are shifted back to stay inside the image, so they may overlap
// their neighbours.
type blockGrid struct {
	pix        []byte
	w, h       int
	cols, rows int
}

func (g *blockGrid) origin(bx, by int) (int, int) {
	return min(bx<<blockPower, g.w-blockSize), min(by<<blockPower, g.h-blockSize)
}

// stats sums a block and tracks its range. Once the range shows the block
// has contrast the remaining rows only feed the sum.
func (g *blockGrid) stats(bx, by int) (sum, lo, hi int) {
	x0, y0 := g.origin(bx, by)
	lo, hi = 0xFF, 0
	for y := y0; y < y0+blockSize; y++ {
		row := g.pix[y*g.w+x0 : y*g.w+x0+blockSize]
		if hi-lo > minDynamicRange {
			for _, p := range row {
				sum += int(p)
			}
			continue
		}
		for _, p := range row {
			v := int(p)
			sum += v
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	return sum, lo, hi
}

func (g *blockGrid) blackPoints() [][]int {
	points := make([][]int, g.rows)
	for by := range points {
		points[by] = make([]int, g.cols)
		for bx := range points[by] {
			sum, lo, hi := g.stats(bx, by)
			avg := sum >> (2 * blockPower)
			if hi-lo <= minDynamicRange {
				// A flat block is assumed to be background: put its black point
				// below its darkest pixel unless the neighbours say it sits
				// inside a dark region.
				avg = lo / 2
				if by > 0 && bx > 0 {
					neigh := (points[by-1][bx] + 2*points[by][bx-1] + points[by-1][bx-1]) / 4
					if lo < neigh {
						avg = neigh
					}
				}
			}
			points[by][bx] = avg
		}
	}
	return points
}

func (g *blockGrid) threshold(m *bitutil.BitMatrix, bx, by, level int) {
	x0, y0 := g.origin(bx, by)
	for y := y0; y < y0+blockSize; y++ {
		for x := x0; x < x0+blockSize; x++ {
			if int(g.pix[y*g.w+x]) <= level {
				m.Set(x, y)
			}
		}
	}
}

// clampCenter keeps a 5x5 neighbourhood centred on i inside [0, n).
func clampCenter(i, n int) int {
	return max(2, min(i, n-3))
}

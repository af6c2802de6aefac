// Package binarizer turns greyscale luminance into the black and white
// matrices the detectors work on.
package binarizer

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

const (
	histBits    = 5
	histShift   = 8 - histBits
	histBuckets = 1 << histBits
)

// Global thresholds the whole image at one level picked from a luminance
// histogram of its central band. It is fast but struggles with uneven
// lighting; Hybrid is the better default for photos.
type Global struct {
	source symscan.LuminanceSource
}

// NewGlobal returns a Global binarizer over source.
func NewGlobal(source symscan.LuminanceSource) *Global {
	return &Global{source: source}
}

func (g *Global) Width() int  { return g.source.Width() }
func (g *Global) Height() int { return g.source.Height() }

// BlackMatrix implements symscan.Binarizer.
func (g *Global) BlackMatrix() (*bitutil.BitMatrix, error) {
	w, h := g.source.Width(), g.source.Height()

	// Sample four rows across the middle three fifths of the image.
	var hist [histBuckets]int
	row := make([]byte, w)
	for i := 1; i < 5; i++ {
		row = g.source.Row(h*i/5, row)
		for x := w / 5; x < w*4/5; x++ {
			hist[row[x]>>histShift]++
		}
	}
	black, err := valley(hist[:])
	if err != nil {
		return nil, err
	}

	m := bitutil.NewBitMatrixWithSize(w, h)
	pix := g.source.Matrix()
	for y := 0; y < h; y++ {
		for x, p := range pix[y*w : (y+1)*w] {
			if int(p) < black {
				m.Set(x, y)
			}
		}
	}
	return m, nil
}

// valley finds the deepest bucket between the two dominant histogram peaks
// and returns it as a luminance threshold.
func valley(hist []int) (int, error) {
	n := len(hist)
	first, tallest := 0, 0
	for i, c := range hist {
		if c > hist[first] {
			first = i
		}
		tallest = max(tallest, c)
	}

	// The second peak is weighted by distance from the first so a bump next
	// to the main peak does not win. An empty histogram elsewhere leaves it on
	// the first peak.
	second, bestScore := first, 0
	for i, c := range hist {
		d := i - first
		if score := c * d * d; score > bestScore {
			second, bestScore = i, score
		}
	}
	lo, hi := min(first, second), max(first, second)
	if hi-lo <= n/16 {
		return 0, fmt.Errorf("histogram has a single peak: %w", symscan.ErrNotFound)
	}

	best, bestScore := hi-1, -1
	for i := hi - 1; i > lo; i-- {
		d := i - lo
		if score := d * d * (hi - i) * (tallest - hist[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best << histShift, nil
}

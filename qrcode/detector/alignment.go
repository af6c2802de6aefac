package detector

import (
	"fmt"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// AlignmentPattern is the small 5x5 target near the bottom-right corner of
// version 2 and larger symbols.
type AlignmentPattern struct {
	symscan.Point
	ModuleSize float64
}

func (p *AlignmentPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-p.Y) > moduleSize || math.Abs(j-p.X) > moduleSize {
		return false
	}
	diff := math.Abs(moduleSize - p.ModuleSize)
	return diff <= 1 || diff <= p.ModuleSize
}

func (p *AlignmentPattern) combine(i, j, moduleSize float64) *AlignmentPattern {
	return &AlignmentPattern{
		Point:      symscan.Point{X: (p.X + j) / 2, Y: (p.Y + i) / 2},
		ModuleSize: (p.ModuleSize + moduleSize) / 2,
	}
}

// alignmentFinder looks for the 1:1:1 dark/light/dark run through the
// center of an alignment pattern inside a search window. Rows are tried
// outward from the middle of the window.
type alignmentFinder struct {
	image         *bitutil.BitMatrix
	left, top     int
	width, height int
	moduleSize    float64
	candidates    []*AlignmentPattern
}

func (a *alignmentFinder) find() (*AlignmentPattern, error) {
	maxJ := a.left + a.width
	middle := a.top + a.height/2
	for gen := 0; gen < a.height; gen++ {
		i := middle + (gen+1)/2
		if gen&1 == 1 {
			i = middle - (gen+1)/2
		}

		var c [3]int
		state := 0
		j := a.left
		// a dark run touching the window edge may be cut short
		for j < maxJ && !a.image.Get(j, i) {
			j++
		}
		for ; j < maxJ; j++ {
			if !a.image.Get(j, i) {
				if state == 1 {
					state++
				}
				c[state]++
				continue
			}
			if state == 1 {
				c[1]++
				continue
			}
			if state < 2 {
				state++
				c[state]++
				continue
			}
			if a.foundPatternCross(c) {
				if p := a.handlePossibleCenter(c, i, j); p != nil {
					return p, nil
				}
			}
			c = [3]int{c[2], 1, 0}
			state = 1
		}
		if a.foundPatternCross(c) {
			if p := a.handlePossibleCenter(c, i, maxJ); p != nil {
				return p, nil
			}
		}
	}
	// nothing was seen twice; settle for the first sighting
	if len(a.candidates) > 0 {
		return a.candidates[0], nil
	}
	return nil, fmt.Errorf("qrcode: no alignment pattern near (%d,%d): %w", a.left+a.width/2, middle, symscan.ErrNotFound)
}

func alignmentCenter(c [3]int, end int) float64 {
	return float64(end-c[2]) - float64(c[1])/2
}

func (a *alignmentFinder) foundPatternCross(c [3]int) bool {
	v := a.moduleSize / 2
	for _, n := range c {
		if math.Abs(a.moduleSize-float64(n)) >= v {
			return false
		}
	}
	return true
}

func (a *alignmentFinder) crossCheckVertical(start, centerJ, maxCount, originalTotal int) float64 {
	maxI := a.image.Height()
	var c [3]int
	i := start
	for i >= 0 && a.image.Get(centerJ, i) && c[1] <= maxCount {
		c[1]++
		i--
	}
	if i < 0 || c[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && !a.image.Get(centerJ, i) && c[0] <= maxCount {
		c[0]++
		i--
	}
	if c[0] > maxCount {
		return math.NaN()
	}

	i = start + 1
	for i < maxI && a.image.Get(centerJ, i) && c[1] <= maxCount {
		c[1]++
		i++
	}
	if i == maxI || c[1] > maxCount {
		return math.NaN()
	}
	for i < maxI && !a.image.Get(centerJ, i) && c[2] <= maxCount {
		c[2]++
		i++
	}
	if c[2] > maxCount {
		return math.NaN()
	}

	if 5*abs(c[0]+c[1]+c[2]-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if !a.foundPatternCross(c) {
		return math.NaN()
	}
	return alignmentCenter(c, i)
}

// handlePossibleCenter returns a pattern once it has been seen on two rows.
func (a *alignmentFinder) handlePossibleCenter(c [3]int, i, j int) *AlignmentPattern {
	sum := c[0] + c[1] + c[2]
	centerJ := alignmentCenter(c, j)
	centerI := a.crossCheckVertical(i, int(centerJ), 2*c[1], sum)
	if math.IsNaN(centerI) {
		return nil
	}
	moduleSize := float64(sum) / 3
	for _, p := range a.candidates {
		if p.aboutEquals(moduleSize, centerI, centerJ) {
			return p.combine(centerI, centerJ, moduleSize)
		}
	}
	a.candidates = append(a.candidates, &AlignmentPattern{
		Point:      symscan.Point{X: centerJ, Y: centerI},
		ModuleSize: moduleSize,
	})
	return nil
}

// Package detector locates QR Code symbols: it finds the three finder
// patterns, refines the bottom-right corner with the alignment pattern and
// samples the module grid through a perspective transform.
package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

const (
	// centers must be seen on this many rows before they count
	centerQuorum = 2
	// 1 pixel per module times 3 modules across the center
	minSkip = 3
	// the densest symbol expected without TryHarder has this many modules
	maxModules = 97
)

// FinderPattern is one of the three 7x7 square targets in the corners of a
// QR Code.
type FinderPattern struct {
	symscan.Point
	ModuleSize float64
	count      int
}

// Count is the number of scan rows that confirmed this center.
func (p *FinderPattern) Count() int { return p.count }

func (p *FinderPattern) aboutEquals(moduleSize, i, j float64) bool {
	if math.Abs(i-p.Y) > moduleSize || math.Abs(j-p.X) > moduleSize {
		return false
	}
	diff := math.Abs(moduleSize - p.ModuleSize)
	return diff <= 1 || diff <= p.ModuleSize
}

// combine averages a new sighting into p, weighting p by its count.
func (p *FinderPattern) combine(i, j, moduleSize float64) *FinderPattern {
	n := float64(p.count)
	return &FinderPattern{
		Point:      symscan.Point{X: (n*p.X + j) / (n + 1), Y: (n*p.Y + i) / (n + 1)},
		ModuleSize: (n*p.ModuleSize + moduleSize) / (n + 1),
		count:      p.count + 1,
	}
}

// FinderPatternInfo names the three finder patterns of one symbol.
type FinderPatternInfo struct {
	BottomLeft *FinderPattern
	TopLeft    *FinderPattern
	TopRight   *FinderPattern
}

// newInfo orders three patterns so that top-left is opposite the longest
// side and the triple runs clockwise in image coordinates.
func newInfo(p [3]*FinderPattern) *FinderPatternInfo {
	d01 := symscan.Distance(p[0].Point, p[1].Point)
	d12 := symscan.Distance(p[1].Point, p[2].Point)
	d02 := symscan.Distance(p[0].Point, p[2].Point)

	var a, b, c *FinderPattern
	switch {
	case d12 >= d01 && d12 >= d02:
		b, a, c = p[0], p[1], p[2]
	case d02 >= d12 && d02 >= d01:
		b, a, c = p[1], p[0], p[2]
	default:
		b, a, c = p[2], p[0], p[1]
	}
	if symscan.CrossProductZ(a.Point, b.Point, c.Point) < 0 {
		a, c = c, a
	}
	return &FinderPatternInfo{BottomLeft: a, TopLeft: b, TopRight: c}
}

// FinderPatternFinder scans rows for the 1:1:3:1:1 dark/light run ratio of
// a finder pattern and cross-checks every hit vertically, horizontally and
// diagonally.
type FinderPatternFinder struct {
	image      *bitutil.BitMatrix
	centers    []*FinderPattern
	hasSkipped bool
}

// NewFinderPatternFinder returns a finder over image.
func NewFinderPatternFinder(image *bitutil.BitMatrix) *FinderPatternFinder {
	return &FinderPatternFinder{image: image}
}

// Centers returns every candidate seen by the last search.
func (f *FinderPatternFinder) Centers() []*FinderPattern { return f.centers }

func (f *FinderPatternFinder) initialSkip(tryHarder bool) int {
	skip := 3 * f.image.Height() / (4 * maxModules)
	if skip < minSkip || tryHarder {
		skip = minSkip
	}
	return skip
}

// Find returns the best-shaped triple of confirmed finder patterns.
func (f *FinderPatternFinder) Find(tryHarder bool) (*FinderPatternInfo, error) {
	f.scan(tryHarder, false)
	best, err := f.selectBestPatterns()
	if err != nil {
		return nil, err
	}
	return newInfo(best), nil
}

// scan collects candidate centers row by row. A single-symbol scan skips
// ahead once a center is confirmed and stops as soon as three agree; an
// exhaustive one visits every sampled row.
func (f *FinderPatternFinder) scan(tryHarder, exhaustive bool) {
	maxI, maxJ := f.image.Height(), f.image.Width()
	skip := f.initialSkip(tryHarder)

	var counts [5]int
	done := false
	for i := skip - 1; i < maxI && !done; i += skip {
		counts = [5]int{}
		state := 0
		for j := 0; j < maxJ; j++ {
			if f.image.Get(j, i) {
				if state&1 == 1 {
					state++
				}
				counts[state]++
				continue
			}
			if state&1 == 1 {
				counts[state]++
				continue
			}
			if state < 4 {
				state++
				counts[state]++
				continue
			}
			if !foundPatternCross(counts) || !f.handlePossibleCenter(counts, i, j) {
				shiftCounts2(&counts)
				state = 3
				continue
			}
			if !exhaustive {
				// Every other row is enough once something is confirmed.
				skip = 2
				if f.hasSkipped {
					done = f.haveMultiplyConfirmedCenters()
				} else if rowSkip := f.findRowSkip(); rowSkip > counts[2] {
					// Jump toward the third center, backing off by the height of
					// the last center seen and by the skip about to be re-added.
					i += rowSkip - counts[2] - skip
					j = maxJ - 1
				}
			}
			state = 0
			counts = [5]int{}
		}
		if foundPatternCross(counts) && f.handlePossibleCenter(counts, i, maxJ) && !exhaustive {
			skip = counts[0]
			if f.hasSkipped {
				done = f.haveMultiplyConfirmedCenters()
			}
		}
	}
}

func centerFromEnd(counts [5]int, end int) float64 {
	return float64(end-counts[4]-counts[3]) - float64(counts[2])/2
}

func total(counts [5]int) int {
	return counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
}

// ratioWithin checks counts against 1:1:3:1:1 allowing each run to miss by
// less than moduleSize/divisor.
func ratioWithin(counts [5]int, divisor float64) bool {
	sum := 0
	for _, c := range counts {
		if c == 0 {
			return false
		}
		sum += c
	}
	if sum < 7 {
		return false
	}
	module := float64(sum) / 7
	v := module / divisor
	return math.Abs(module-float64(counts[0])) < v &&
		math.Abs(module-float64(counts[1])) < v &&
		math.Abs(3*module-float64(counts[2])) < 3*v &&
		math.Abs(module-float64(counts[3])) < v &&
		math.Abs(module-float64(counts[4])) < v
}

// foundPatternCross allows under 50% variance per run.
func foundPatternCross(counts [5]int) bool { return ratioWithin(counts, 2) }

// foundPatternDiagonal allows under 75% variance per run.
func foundPatternDiagonal(counts [5]int) bool { return ratioWithin(counts, 1.333) }

func shiftCounts2(c *[5]int) {
	c[0], c[1], c[2], c[3], c[4] = c[2], c[3], c[4], 1, 0
}

// crossCheckDiagonal walks the up-left/down-right diagonal through the
// center and checks for the same run ratio.
func (f *FinderPatternFinder) crossCheckDiagonal(ci, cj int) bool {
	var c [5]int
	get := func(k int) bool { return f.image.Get(cj+k, ci+k) }
	backOK := func(k int) bool { return ci >= k && cj >= k }

	k := 0
	for ; backOK(k) && get(-k); k++ {
		c[2]++
	}
	if c[2] == 0 {
		return false
	}
	for ; backOK(k) && !get(-k); k++ {
		c[1]++
	}
	if c[1] == 0 {
		return false
	}
	for ; backOK(k) && get(-k); k++ {
		c[0]++
	}
	if c[0] == 0 {
		return false
	}

	maxI, maxJ := f.image.Height(), f.image.Width()
	fwdOK := func(k int) bool { return ci+k < maxI && cj+k < maxJ }
	k = 1
	for ; fwdOK(k) && get(k); k++ {
		c[2]++
	}
	for ; fwdOK(k) && !get(k); k++ {
		c[3]++
	}
	if c[3] == 0 {
		return false
	}
	for ; fwdOK(k) && get(k); k++ {
		c[4]++
	}
	if c[4] == 0 {
		return false
	}
	return foundPatternDiagonal(c)
}

// crossCheck counts runs along column centerJ (vertical) or row centerI
// from start. A pattern whose total run length differs too much from the
// horizontal one that triggered it is rejected: tolerance is the allowed
// ratio numerator out of 5 (2 vertically, 1 horizontally).
func (f *FinderPatternFinder) crossCheck(start, fixed, maxCount, originalTotal int, vertical bool, tolerance int) float64 {
	limit := f.image.Width()
	get := func(k int) bool { return f.image.Get(k, fixed) }
	if vertical {
		limit = f.image.Height()
		get = func(k int) bool { return f.image.Get(fixed, k) }
	}

	var c [5]int
	k := start
	for k >= 0 && get(k) {
		c[2]++
		k--
	}
	if k < 0 {
		return math.NaN()
	}
	for k >= 0 && !get(k) && c[1] <= maxCount {
		c[1]++
		k--
	}
	if k < 0 || c[1] > maxCount {
		return math.NaN()
	}
	for k >= 0 && get(k) && c[0] <= maxCount {
		c[0]++
		k--
	}
	if c[0] > maxCount {
		return math.NaN()
	}

	k = start + 1
	for k < limit && get(k) {
		c[2]++
		k++
	}
	if k == limit {
		return math.NaN()
	}
	for k < limit && !get(k) && c[3] < maxCount {
		c[3]++
		k++
	}
	if k == limit || c[3] >= maxCount {
		return math.NaN()
	}
	for k < limit && get(k) && c[4] < maxCount {
		c[4]++
		k++
	}
	if c[4] >= maxCount {
		return math.NaN()
	}

	if 5*abs(total(c)-originalTotal) >= tolerance*originalTotal {
		return math.NaN()
	}
	if !foundPatternCross(c) {
		return math.NaN()
	}
	return centerFromEnd(c, k)
}

// handlePossibleCenter cross-checks a horizontal hit ending at column j of
// row i and records it. It reports whether the hit survived the checks.
func (f *FinderPatternFinder) handlePossibleCenter(counts [5]int, i, j int) bool {
	sum := total(counts)
	centerJ := centerFromEnd(counts, j)
	centerI := f.crossCheck(i, int(centerJ), counts[2], sum, true, 2)
	if math.IsNaN(centerI) {
		return false
	}
	centerJ = f.crossCheck(int(centerJ), int(centerI), counts[2], sum, false, 1)
	if math.IsNaN(centerJ) || !f.crossCheckDiagonal(int(centerI), int(centerJ)) {
		return false
	}

	moduleSize := float64(sum) / 7
	for k, c := range f.centers {
		if c.aboutEquals(moduleSize, centerI, centerJ) {
			f.centers[k] = c.combine(centerI, centerJ, moduleSize)
			return true
		}
	}
	f.centers = append(f.centers, &FinderPattern{
		Point:      symscan.Point{X: centerJ, Y: centerI},
		ModuleSize: moduleSize,
		count:      1,
	})
	return true
}

// findRowSkip estimates how many rows can be skipped once two centers are
// confirmed: in the worst case the third lies as far below as the
// difference of the two centers' x and y offsets.
func (f *FinderPatternFinder) findRowSkip() int {
	if len(f.centers) <= 1 {
		return 0
	}
	var first *FinderPattern
	for _, c := range f.centers {
		if c.count < centerQuorum {
			continue
		}
		if first == nil {
			first = c
			continue
		}
		f.hasSkipped = true
		return int(math.Abs(first.X-c.X)-math.Abs(first.Y-c.Y)) / 2
	}
	return 0
}

// haveMultiplyConfirmedCenters is true once three centers are confirmed and
// their module sizes deviate by no more than 5% in total.
func (f *FinderPatternFinder) haveMultiplyConfirmedCenters() bool {
	confirmed := f.confirmed()
	if len(confirmed) < 3 {
		return false
	}
	sum := 0.0
	for _, c := range confirmed {
		sum += c.ModuleSize
	}
	average := sum / float64(len(confirmed))
	deviation := 0.0
	for _, c := range confirmed {
		deviation += math.Abs(c.ModuleSize - average)
	}
	return deviation <= 0.05*sum
}

func (f *FinderPatternFinder) confirmed() []*FinderPattern {
	var out []*FinderPattern
	for _, c := range f.centers {
		if c.count >= centerQuorum {
			out = append(out, c)
		}
	}
	return out
}

func squaredDistance(a, b *FinderPattern) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// selectBestPatterns picks, among confirmed centers of similar module
// size, the triple closest to an isosceles right triangle.
func (f *FinderPatternFinder) selectBestPatterns() ([3]*FinderPattern, error) {
	var best [3]*FinderPattern
	centers := f.confirmed()
	if len(centers) < 3 {
		return best, fmt.Errorf("qrcode: %d confirmed finder patterns of %d candidates: %w",
			len(centers), len(f.centers), symscan.ErrNotFound)
	}
	sort.SliceStable(centers, func(a, b int) bool { return centers[a].ModuleSize < centers[b].ModuleSize })

	distortion := math.MaxFloat64
	for i := 0; i < len(centers)-2; i++ {
		pi := centers[i]
		for j := i + 1; j < len(centers)-1; j++ {
			pj := centers[j]
			dij := squaredDistance(pi, pj)
			for k := j + 1; k < len(centers); k++ {
				pk := centers[k]
				if pk.ModuleSize > pi.ModuleSize*1.4 {
					continue
				}
				sq := []float64{dij, squaredDistance(pj, pk), squaredDistance(pi, pk)}
				sort.Float64s(sq)
				// c^2 = 2a^2 = 2b^2 for an isosceles right triangle
				d := math.Abs(sq[2]-2*sq[1]) + math.Abs(sq[2]-2*sq[0])
				if d < distortion {
					distortion = d
					best = [3]*FinderPattern{pi, pj, pk}
				}
			}
		}
	}
	if distortion == math.MaxFloat64 {
		return best, fmt.Errorf("qrcode: no finder pattern triple of similar module size: %w", symscan.ErrNotFound)
	}
	return best, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

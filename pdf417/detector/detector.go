// Package detector finds PDF417 symbols by their start and stop patterns.
// It does not sample a grid: PDF417 rows are read directly from the image
// by the decoder, which only needs the corners of the codeword area.
package detector

import (
	"fmt"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// Vertex indexes into Symbol.
const (
	TopLeft = iota
	BottomLeft
	TopRight
	BottomRight
	CodewordsTopLeft
	CodewordsBottomLeft
	CodewordsTopRight
	CodewordsBottomRight
)

// Symbol holds the eight vertices of one symbol: the outer corners of its
// start and stop patterns, then the corners of the codeword area between
// them. Either the start or the stop side may be missing.
type Symbol [8]*symscan.Point

// Result is the symbols found in Bits, which is the input turned
// counterclockwise by Rotation degrees.
type Result struct {
	Bits     *bitutil.BitMatrix
	Symbols  []Symbol
	Rotation int

	width, height int
}

// Unrotate maps a point of Bits back onto the image handed to Detect.
func (r *Result) Unrotate(p symscan.Point) symscan.Point {
	w, h := float64(r.width-1), float64(r.height-1)
	switch r.Rotation {
	case 90:
		return symscan.Point{X: w - p.Y, Y: p.X}
	case 180:
		return symscan.Point{X: w - p.X, Y: h - p.Y}
	case 270:
		return symscan.Point{X: p.Y, Y: h - p.X}
	}
	return p
}

// Positions of the start pattern's corners within a Symbol, then the stop
// pattern's.
var (
	startVertices = [4]int{TopLeft, CodewordsTopLeft, BottomLeft, CodewordsBottomLeft}
	stopVertices  = [4]int{CodewordsTopRight, TopRight, CodewordsBottomRight, BottomRight}
)

const (
	maxAvgVariance        = 0.42
	maxIndividualVariance = 0.8
	stopHeightFraction    = 0.5
	maxPixelDrift         = 3
	maxPatternDrift       = 5
	maxSkippedRows        = 25
	rowStep               = 5
	minSymbolHeight       = 10
)

// Bar and space widths in modules, starting with a bar.
var (
	startPattern = []int{8, 1, 1, 1, 1, 1, 1, 3}
	stopPattern  = []int{7, 1, 1, 3, 1, 1, 1, 2, 1}
)

var rotations = [4]int{0, 180, 270, 90}

// Detect looks for symbols in matrix at each right-angle rotation and
// returns the first rotation that yields any. With multiple false the
// search stops at the first symbol unless tryHarder is set.
func Detect(matrix *bitutil.BitMatrix, multiple, tryHarder bool) (*Result, error) {
	for _, rotation := range rotations {
		bits := matrix
		if rotation != 0 {
			bits = matrix.Clone()
			if err := bits.Rotate(rotation); err != nil {
				return nil, err
			}
		}
		symbols := detect(bits, multiple, tryHarder)
		if len(symbols) > 0 {
			return &Result{
				Bits:     bits,
				Symbols:  symbols,
				Rotation: rotation,
				width:    matrix.Width(),
				height:   matrix.Height(),
			}, nil
		}
	}
	return nil, fmt.Errorf("pdf417: no start or stop pattern: %w", symscan.ErrNotFound)
}

// detect scans top to bottom. After a symbol it continues to its right;
// when a row yields nothing more it restarts at the left edge below the
// lowest symbol found so far.
func detect(m *bitutil.BitMatrix, multiple, tryHarder bool) []Symbol {
	var symbols []Symbol
	row, col := 0, 0
	foundInRow := false
	for row < m.Height() {
		v := findVertices(m, row, col, tryHarder)
		if v[TopLeft] == nil && v[TopRight] == nil {
			if !foundInRow {
				if !tryHarder {
					break
				}
				row += rowStep
				continue
			}
			foundInRow = false
			col = 0
			for _, s := range symbols {
				if s[BottomLeft] != nil {
					row = max(row, int(s[BottomLeft].Y))
				}
				if s[BottomRight] != nil {
					row = max(row, int(s[BottomRight].Y))
				}
			}
			row += rowStep
			continue
		}
		foundInRow = true
		symbols = append(symbols, v)
		if !multiple && !tryHarder {
			break
		}
		if v[TopRight] != nil {
			col, row = int(v[TopRight].X), int(v[TopRight].Y)
		} else {
			col, row = int(v[CodewordsTopLeft].X), int(v[CodewordsTopLeft].Y)
		}
	}
	return symbols
}

func findVertices(m *bitutil.BitMatrix, startRow, startCol int, tryHarder bool) Symbol {
	var v Symbol
	minHeight := minSymbolHeight

	start := findRowsWithPattern(m, startRow, startCol, minHeight, startPattern, tryHarder)
	for i, idx := range startVertices {
		v[idx] = start[i]
	}
	if v[CodewordsTopLeft] != nil {
		startCol, startRow = int(v[CodewordsTopLeft].X), int(v[CodewordsTopLeft].Y)
		if v[CodewordsBottomLeft] != nil {
			height := int(v[CodewordsBottomLeft].Y) - startRow
			minHeight = max(int(float64(height)*stopHeightFraction), minSymbolHeight)
		}
	}

	stop := findRowsWithPattern(m, startRow, startCol, minHeight, stopPattern, tryHarder)
	for i, idx := range stopVertices {
		v[idx] = stop[i]
	}
	return v
}

// findRowsWithPattern returns the left and right ends of pattern on the
// first and last rows it spans, or four nils. Rows are probed every
// rowStep until a hit, then walked back to the true top and followed
// down while the pattern stays put.
func findRowsWithPattern(m *bitutil.BitMatrix, startRow, startCol, minHeight int, pattern []int, tryHarder bool) [4]*symscan.Point {
	var result [4]*symscan.Point
	counters := make([]int, len(pattern))
	height := m.Height()

	found := false
	for ; startRow < height; startRow += rowStep {
		loc, ok := findGuardPattern(m, startCol, startRow, pattern, counters)
		if !ok {
			continue
		}
		for startRow > 0 {
			prev, ok := findGuardPattern(m, startCol, startRow-1, pattern, counters)
			if !ok {
				break
			}
			loc = prev
			startRow--
		}
		result[0] = &symscan.Point{X: float64(loc[0]), Y: float64(startRow)}
		result[1] = &symscan.Point{X: float64(loc[1]), Y: float64(startRow)}
		found = true
		break
	}

	stopRow := startRow + 1
	if found {
		skipped := 0
		prev := [2]int{int(result[0].X), int(result[1].X)}
		for ; stopRow < height; stopRow++ {
			loc, ok := findGuardPattern(m, prev[0], stopRow, pattern, counters)
			// Consecutive rows drift by a pixel or two at most; skipped rows
			// may drift further but are not accounted for.
			if ok && abs(prev[0]-loc[0]) < maxPatternDrift && abs(prev[1]-loc[1]) < maxPatternDrift {
				prev = loc
				skipped = 0
				continue
			}
			if skipped > maxSkippedRows {
				break
			}
			skipped++
		}
		stopRow -= skipped + 1
		result[2] = &symscan.Point{X: float64(prev[0]), Y: float64(stopRow)}
		result[3] = &symscan.Point{X: float64(prev[1]), Y: float64(stopRow)}
	}

	if stopRow-startRow < minHeight {
		if tryHarder && found {
			// Too short to be a symbol: most likely noise. Look below it.
			return findRowsWithPattern(m, stopRow+1+rowStep, startCol, minHeight, pattern, tryHarder)
		}
		return [4]*symscan.Point{}
	}
	return result
}

// findGuardPattern looks for pattern in row from col onwards, backing up
// over a few black pixels first, and returns its first and past-the-end x.
func findGuardPattern(m *bitutil.BitMatrix, col, row int, pattern, counters []int) ([2]int, bool) {
	clear(counters)
	width := m.Width()
	patternStart := col
	for drift := 0; patternStart > 0 && drift < maxPixelDrift && m.Get(patternStart, row); drift++ {
		patternStart--
	}

	last := len(pattern) - 1
	pos := 0
	white := false
	x := patternStart
	for ; x < width; x++ {
		if m.Get(x, row) != white {
			counters[pos]++
			continue
		}
		if pos == last {
			if variance(counters, pattern) < maxAvgVariance {
				return [2]int{patternStart, x}, true
			}
			patternStart += counters[0] + counters[1]
			copy(counters, counters[2:])
			counters[last-1], counters[last] = 0, 0
			pos--
		} else {
			pos++
		}
		counters[pos] = 1
		white = !white
	}
	if pos == last && variance(counters, pattern) < maxAvgVariance {
		return [2]int{patternStart, x - 1}, true
	}
	return [2]int{}, false
}

// variance is the summed deviation of counters from pattern, scaled to the
// observed module width, relative to the total width. Any single run that
// strays too far rules the match out.
func variance(counters, pattern []int) float64 {
	total, modules := 0, 0
	for i, c := range counters {
		total += c
		modules += pattern[i]
	}
	if total < modules {
		// less than a pixel per module
		return math.Inf(1)
	}
	unit := float64(total) / float64(modules)
	maxDeviation := maxIndividualVariance * unit
	sum := 0.0
	for i, c := range counters {
		d := math.Abs(float64(c) - float64(pattern[i])*unit)
		if d > maxDeviation {
			return math.Inf(1)
		}
		sum += d
	}
	return sum / float64(total)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

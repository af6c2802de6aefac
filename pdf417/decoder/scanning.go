// Package decoder reads PDF417 symbols located by the detector: it walks
// the row indicator columns to learn the symbol's shape, reads every
// codeword against that grid, corrects the sequence over GF(929) and
// decodes the compaction modes.
package decoder

import (
	"errors"
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/internal"
	"github.com/ericlevine/symscan/pdf417/decoder/ec"
)

const (
	codewordSkew      = 2
	maxErasureExcess  = 3
	maxECCodewords    = 512
	maxAmbiguousTries = 100
)

var rs = ec.NewDecoder()

// Decode reads the symbol whose codeword area has the given corners. The
// corners of one side may be nil when its row indicator column was not
// found. The codeword width bounds come from the detector and are widened
// as codewords are read.
func Decode(image *bitutil.BitMatrix, topLeft, bottomLeft, topRight, bottomRight *symscan.Point, minCodewordWidth, maxCodewordWidth int) (*internal.DecoderResult, error) {
	box, err := newBoundingBox(image, topLeft, bottomLeft, topRight, bottomRight)
	if err != nil {
		return nil, err
	}
	s := &scanner{image: image, minWidth: minCodewordWidth, maxWidth: maxCodewordWidth}

	var (
		left, right *column
		det         *detection
	)
	for firstPass := true; ; firstPass = false {
		if topLeft != nil {
			left = s.indicatorColumn(box, *topLeft, true)
		}
		if topRight != nil {
			right = s.indicatorColumn(box, *topRight, false)
		}
		if det, err = merge(left, right); err != nil {
			return nil, err
		}
		if det == nil {
			return nil, fmt.Errorf("pdf417: no row indicator readable: %w", symscan.ErrNotFound)
		}
		// A first pass that found rows outside the detector's box is rerun
		// with the grown box.
		if firstPass && det.box != nil && (det.box.minY < box.minY || det.box.maxY > box.maxY) {
			box = det.box
			continue
		}
		break
	}
	det.box = box

	last := det.dataColumns() + 1
	if left != nil {
		det.columns[0] = left
	}
	if right != nil {
		det.columns[last] = right
	}

	leftToRight := left != nil
	for n := 1; n <= last; n++ {
		col := n
		if !leftToRight {
			col = last - n
		}
		if det.columns[col] != nil {
			continue
		}
		var c *column
		if col == 0 || col == last {
			c = newIndicatorColumn(box, col == 0)
		} else {
			c = newColumn(box, dataColumn)
		}
		det.columns[col] = c

		previousStart := -1
		for row := box.minY; row <= box.maxY; row++ {
			start := det.startColumn(col, row, leftToRight)
			if start < 0 || start > box.maxX {
				if previousStart == -1 {
					continue
				}
				start = previousStart
			}
			cw := s.detectCodeword(box.minX, box.maxX, leftToRight, start, row)
			if cw == nil {
				continue
			}
			c.set(row, cw)
			previousStart = start
			s.minWidth = min(s.minWidth, cw.width())
			s.maxWidth = max(s.maxWidth, cw.width())
		}
	}
	return decodeDetection(det)
}

// merge builds the detection from whichever row indicators were read.
func merge(left, right *column) (*detection, error) {
	if left == nil && right == nil {
		return nil, nil
	}
	meta, ok := metadataOf(left, right)
	if !ok {
		return nil, nil
	}
	leftBox, err := adjustBox(left)
	if err != nil {
		return nil, err
	}
	rightBox, err := adjustBox(right)
	if err != nil {
		return nil, err
	}
	box, err := mergeBoxes(leftBox, rightBox)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, nil
	}
	return newDetection(meta, box), nil
}

// adjustBox grows an indicator column's box by the rows its row heights
// say are missing above and below.
func adjustBox(c *column) (*boundingBox, error) {
	if c == nil {
		return nil, nil
	}
	heights := c.rowHeights()
	if heights == nil {
		return nil, nil
	}
	tallest := -1
	for _, h := range heights {
		tallest = max(tallest, h)
	}
	missingStart := 0
	for _, h := range heights {
		missingStart += tallest - h
		if h > 0 {
			break
		}
	}
	for i := 0; missingStart > 0 && i < len(c.codewords) && c.codewords[i] == nil; i++ {
		missingStart--
	}
	missingEnd := 0
	for i := len(heights) - 1; i >= 0; i-- {
		missingEnd += tallest - heights[i]
		if heights[i] > 0 {
			break
		}
	}
	for i := len(c.codewords) - 1; missingEnd > 0 && i >= 0 && c.codewords[i] == nil; i-- {
		missingEnd--
	}
	return c.box.addMissingRows(missingStart, missingEnd, c.kind == leftIndicator)
}

// metadataOf prefers the left indicator's reading. The two are only
// rejected when they disagree on everything.
func metadataOf(left, right *column) (BarcodeMetadata, bool) {
	var (
		lm, rm   BarcodeMetadata
		lok, rok bool
	)
	if left != nil {
		lm, lok = left.metadata()
	}
	if right != nil {
		rm, rok = right.metadata()
	}
	switch {
	case !lok:
		return rm, rok
	case !rok:
		return lm, true
	case lm.Columns != rm.Columns && lm.ECLevel != rm.ECLevel && lm.Rows() != rm.Rows():
		return BarcodeMetadata{}, false
	}
	return lm, true
}

type scanner struct {
	image              *bitutil.BitMatrix
	minWidth, maxWidth int
}

// pixel reads the image, treating everything outside it as white.
func (s *scanner) pixel(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.image.Width() && y < s.image.Height() && s.image.Get(x, y)
}

// indicatorColumn reads a row indicator column up and down from start.
func (s *scanner) indicatorColumn(box *boundingBox, start symscan.Point, leftToRight bool) *column {
	c := newIndicatorColumn(box, leftToRight)
	for _, step := range []int{1, -1} {
		x := int(start.X)
		for row := int(start.Y); row <= box.maxY && row >= box.minY; row += step {
			cw := s.detectCodeword(0, s.image.Width(), leftToRight, x, row)
			if cw == nil {
				continue
			}
			c.set(row, cw)
			if leftToRight {
				x = cw.startX
			} else {
				x = cw.endX
			}
		}
	}
	return c
}

// startColumn guesses where the codeword of column col starts on an image
// row, from the codewords already read around it.
func (d *detection) startColumn(col, row int, leftToRight bool) int {
	offset := 1
	if !leftToRight {
		offset = -1
	}
	valid := func(c int) bool { return c >= 0 && c <= d.dataColumns()+1 && d.columns[c] != nil }
	near, far := func(cw *codeword) int {
		if leftToRight {
			return cw.endX
		}
		return cw.startX
	}, func(cw *codeword) int {
		if leftToRight {
			return cw.startX
		}
		return cw.endX
	}

	if valid(col - offset) {
		if cw := d.columns[col-offset].at(row); cw != nil {
			return near(cw)
		}
	}
	if cw := d.columns[col].nearby(row); cw != nil {
		return far(cw)
	}
	if valid(col - offset) {
		if cw := d.columns[col-offset].nearby(row); cw != nil {
			return near(cw)
		}
	}
	skipped := 0
	for valid(col - offset) {
		col -= offset
		for _, cw := range d.columns[col].codewords {
			if cw != nil {
				return near(cw) + offset*skipped*(cw.endX-cw.startX)
			}
		}
		skipped++
	}
	if leftToRight {
		return d.box.minX
	}
	return d.box.maxX
}

// detectCodeword reads the codeword starting (or, right to left, ending) at
// start on one image row.
func (s *scanner) detectCodeword(minColumn, maxColumn int, leftToRight bool, start, row int) *codeword {
	start = s.adjustStart(minColumn, maxColumn, leftToRight, start, row)
	counts := s.moduleBitCount(minColumn, maxColumn, leftToRight, start, row)
	if counts == nil {
		return nil
	}
	width := sum(counts)
	var end int
	if leftToRight {
		end = start + width
	} else {
		for i, j := 0, len(counts)-1; i < j; i, j = i+1, j-1 {
			counts[i], counts[j] = counts[j], counts[i]
		}
		end = start
		start = end - width
	}
	if width < s.minWidth-codewordSkew || width > s.maxWidth+codewordSkew {
		return nil
	}
	bits := decodePattern(counts)
	value := codewordValue(bits)
	if value == -1 {
		return nil
	}
	return newCodeword(start, end, bucket(widths(bits)), value)
}

// moduleBitCount measures the eight bars and spaces of a codeword.
func (s *scanner) moduleBitCount(minColumn, maxColumn int, leftToRight bool, start, row int) []int {
	x := start
	counts := make([]int, barsInCodeword)
	n := 0
	step := 1
	if !leftToRight {
		step = -1
	}
	black := leftToRight
	for ((leftToRight && x < maxColumn) || (!leftToRight && x >= minColumn)) && n < len(counts) {
		if s.pixel(x, row) == black {
			counts[n]++
			x += step
		} else {
			n++
			black = !black
		}
	}
	if n == len(counts) || ((leftToRight && x == maxColumn || !leftToRight && x == minColumn) && n == len(counts)-1) {
		return counts
	}
	return nil
}

// adjustStart moves start back onto the edge of the codeword's first bar
// when it landed inside the bar or in the space before it.
func (s *scanner) adjustStart(minColumn, maxColumn int, leftToRight bool, start, row int) int {
	corrected := start
	step := -1
	if !leftToRight {
		step = 1
	}
	for i := 0; i < 2; i++ {
		for (leftToRight && corrected >= minColumn || !leftToRight && corrected < maxColumn) &&
			leftToRight == s.pixel(corrected, row) {
			if abs(start-corrected) > codewordSkew {
				return start
			}
			corrected += step
		}
		step = -step
		leftToRight = !leftToRight
	}
	return corrected
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// decodeDetection turns the located codewords into the codeword sequence
// and decodes it.
func decodeDetection(det *detection) (*internal.DecoderResult, error) {
	matrix := det.codewordMatrix()
	if err := det.adjustCodewordCount(matrix); err != nil {
		return nil, err
	}
	cols, rows := det.dataColumns(), det.meta.Rows()
	codewords := make([]int, rows*cols)
	var (
		erasures        []int
		ambiguous       []int
		ambiguousValues [][]int
	)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			values := matrix[r][c+1].best()
			i := r*cols + c
			switch len(values) {
			case 0:
				erasures = append(erasures, i)
			case 1:
				codewords[i] = values[0]
			default:
				ambiguous = append(ambiguous, i)
				ambiguousValues = append(ambiguousValues, values)
			}
		}
	}
	return decodeAmbiguous(det.meta.ECLevel, codewords, erasures, ambiguous, ambiguousValues)
}

// decodeAmbiguous tries combinations of the equally likely readings of
// ambiguous cells until one passes error correction.
func decodeAmbiguous(level int, codewords, erasures, ambiguous []int, values [][]int) (*internal.DecoderResult, error) {
	choice := make([]int, len(ambiguous))
	for try := 0; try < maxAmbiguousTries; try++ {
		for i, idx := range ambiguous {
			codewords[idx] = values[i][choice[i]]
		}
		result, err := decodeCodewords(codewords, level, erasures)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, symscan.ErrChecksum) || len(choice) == 0 {
			return nil, err
		}
		// advance the odometer
		for i := range choice {
			if choice[i] < len(values[i])-1 {
				choice[i]++
				break
			}
			choice[i] = 0
			if i == len(choice)-1 {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("pdf417: no combination of ambiguous codewords corrects: %w", symscan.ErrChecksum)
}

// codewordMatrix tallies the values read for every row and column.
func (d *detection) codewordMatrix() [][]votes {
	matrix := make([][]votes, d.meta.Rows())
	for r := range matrix {
		matrix[r] = make([]votes, d.dataColumns()+2)
		for c := range matrix[r] {
			matrix[r][c] = votes{}
		}
	}
	for c, col := range d.resolvedColumns() {
		if col == nil {
			continue
		}
		for _, cw := range col.codewords {
			if cw != nil && cw.row >= 0 && cw.row < len(matrix) {
				matrix[cw.row][c].add(cw.value)
			}
		}
	}
	return matrix
}

// adjustCodewordCount makes the length descriptor, the first codeword,
// agree with the symbol's shape when it was not read.
func (d *detection) adjustCodewordCount(matrix [][]votes) error {
	if len(matrix) == 0 || len(matrix[0]) < 2 {
		return fmt.Errorf("pdf417: empty codeword matrix: %w", symscan.ErrNotFound)
	}
	cell := matrix[0][1]
	read := cell.best()
	calculated := d.dataColumns()*d.meta.Rows() - numECCodewords(d.meta.ECLevel)
	inRange := calculated >= 1 && calculated <= maxCodewords
	switch {
	case len(read) == 0:
		if !inRange {
			return fmt.Errorf("pdf417: impossible codeword count %d: %w", calculated, symscan.ErrNotFound)
		}
		cell.add(calculated)
	case read[0] != calculated && inRange:
		cell.add(calculated)
	}
	return nil
}

func numECCodewords(level int) int { return 2 << level }

// decodeCodewords corrects the sequence and decodes its data.
func decodeCodewords(codewords []int, level int, erasures []int) (*internal.DecoderResult, error) {
	if len(codewords) == 0 {
		return nil, fmt.Errorf("pdf417: no codewords: %w", symscan.ErrFormat)
	}
	numEC := numECCodewords(level)
	if len(erasures) > numEC/2+maxErasureExcess || numEC > maxECCodewords {
		return nil, fmt.Errorf("pdf417: %d erasures for %d ec codewords: %w", len(erasures), numEC, symscan.ErrChecksum)
	}
	corrected, err := rs.Decode(codewords, numEC, erasures)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", symscan.ErrChecksum, err)
	}
	if err := verifyCodewordCount(codewords, numEC); err != nil {
		return nil, err
	}
	result, err := decodeBitStream(codewords, fmt.Sprint(level))
	if err != nil {
		return nil, err
	}
	result.ErrorsCorrected = corrected
	result.ErasuresCorrected = len(erasures)
	return result, nil
}

// verifyCodewordCount checks the length descriptor, filling it in when it
// was read as zero.
func verifyCodewordCount(codewords []int, numEC int) error {
	if len(codewords) < 4 {
		return fmt.Errorf("pdf417: only %d codewords: %w", len(codewords), symscan.ErrFormat)
	}
	n := codewords[0]
	if n > len(codewords) {
		return fmt.Errorf("pdf417: length descriptor %d exceeds %d codewords: %w", n, len(codewords), symscan.ErrFormat)
	}
	if n == 0 {
		if numEC >= len(codewords) {
			return fmt.Errorf("pdf417: no room for data: %w", symscan.ErrFormat)
		}
		codewords[0] = len(codewords) - numEC
	}
	return nil
}

// Package bitutil holds the bit containers shared by the detectors and
// decoders: a two-dimensional grid of black/white modules and a checked
// MSB-first cursor over a byte stream.
package bitutil

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrMalformedMatrix is returned by ParseStringMatrix for ragged or unknown input.
var ErrMalformedMatrix = errors.New("bitutil: malformed matrix text")

const wordBits = 64

// BitMatrix is a fixed-size grid of bits addressed by (x, y), x being the
// column. A set bit is a black module. Rows are packed into 64-bit words.
type BitMatrix struct {
	width  int
	height int
	stride int
	words  []uint64
}

// NewBitMatrix returns a square, all-white matrix.
func NewBitMatrix(dimension int) *BitMatrix {
	return NewBitMatrixWithSize(dimension, dimension)
}

// NewBitMatrixWithSize returns an all-white width x height matrix. Both
// dimensions must be positive.
func NewBitMatrixWithSize(width, height int) *BitMatrix {
	if width < 1 || height < 1 {
		panic(fmt.Sprintf("bitutil: invalid matrix size %dx%d", width, height))
	}
	stride := (width + wordBits - 1) / wordBits
	return &BitMatrix{
		width:  width,
		height: height,
		stride: stride,
		words:  make([]uint64, stride*height),
	}
}

// ParseBoolMatrix builds a matrix from rows of booleans, true meaning black.
func ParseBoolMatrix(rows [][]bool) *BitMatrix {
	m := NewBitMatrixWithSize(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, black := range row {
			if black {
				m.Set(x, y)
			}
		}
	}
	return m
}

// ParseStringMatrix reads a textual picture of a matrix, one line per row,
// where each cell is spelled setStr (black) or unsetStr (white).
func ParseStringMatrix(text, setStr, unsetStr string) (*BitMatrix, error) {
	var rows [][]bool
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		var row []bool
		for pos := 0; pos < len(line); {
			switch {
			case strings.HasPrefix(line[pos:], setStr):
				row = append(row, true)
				pos += len(setStr)
			case strings.HasPrefix(line[pos:], unsetStr):
				row = append(row, false)
				pos += len(unsetStr)
			default:
				return nil, fmt.Errorf("%w: unexpected %q in row %d", ErrMalformedMatrix, line[pos], len(rows))
			}
		}
		if len(row) == 0 {
			continue
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedMatrix, len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedMatrix)
	}
	return ParseBoolMatrix(rows), nil
}

func (m *BitMatrix) index(x, y int) (int, uint64) {
	return y*m.stride + x/wordBits, 1 << uint(x%wordBits)
}

// Get reports whether (x, y) is black.
func (m *BitMatrix) Get(x, y int) bool {
	i, bit := m.index(x, y)
	return m.words[i]&bit != 0
}

// Set makes (x, y) black.
func (m *BitMatrix) Set(x, y int) {
	i, bit := m.index(x, y)
	m.words[i] |= bit
}

// Unset makes (x, y) white.
func (m *BitMatrix) Unset(x, y int) {
	i, bit := m.index(x, y)
	m.words[i] &^= bit
}

// Flip inverts (x, y).
func (m *BitMatrix) Flip(x, y int) {
	i, bit := m.index(x, y)
	m.words[i] ^= bit
}

// FlipAll inverts every module. Padding bits past the width are flipped too
// but are never observable through Get.
func (m *BitMatrix) FlipAll() {
	for i := range m.words {
		m.words[i] = ^m.words[i]
	}
	m.clearPadding()
}

func (m *BitMatrix) clearPadding() {
	if tail := m.width % wordBits; tail != 0 {
		mask := uint64(1)<<uint(tail) - 1
		for y := 0; y < m.height; y++ {
			m.words[y*m.stride+m.stride-1] &= mask
		}
	}
}

// Clear makes every module white.
func (m *BitMatrix) Clear() {
	clear(m.words)
}

// SetRegion blackens the width x height rectangle whose top-left corner is
// (left, top). The rectangle must lie inside the matrix.
func (m *BitMatrix) SetRegion(left, top, width, height int) error {
	if left < 0 || top < 0 || width < 1 || height < 1 ||
		left+width > m.width || top+height > m.height {
		return fmt.Errorf("bitutil: region %d,%d %dx%d outside %dx%d matrix", left, top, width, height, m.width, m.height)
	}
	for y := top; y < top+height; y++ {
		for x := left; x < left+width; x++ {
			m.Set(x, y)
		}
	}
	return nil
}

// Rotate180 turns the matrix upside down in place.
func (m *BitMatrix) Rotate180() {
	for y := 0; y < (m.height+1)/2; y++ {
		y2 := m.height - 1 - y
		xEnd := m.width
		if y == y2 {
			xEnd = m.width / 2
		}
		for x := 0; x < xEnd; x++ {
			x2 := m.width - 1 - x
			a, b := m.Get(x, y), m.Get(x2, y2)
			if a != b {
				m.Flip(x, y)
				m.Flip(x2, y2)
			}
		}
	}
}

// Rotate90 turns the matrix 90 degrees counterclockwise in place.
func (m *BitMatrix) Rotate90() {
	rotated := NewBitMatrixWithSize(m.height, m.width)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.Get(x, y) {
				rotated.Set(y, m.width-1-x)
			}
		}
	}
	*m = *rotated
}

// Rotate turns the matrix counterclockwise by a multiple of 90 degrees.
func (m *BitMatrix) Rotate(degrees int) error {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
	case 90:
		m.Rotate90()
	case 180:
		m.Rotate180()
	case 270:
		m.Rotate90()
		m.Rotate180()
	default:
		return fmt.Errorf("bitutil: rotation %d is not a multiple of 90", degrees)
	}
	return nil
}

// EnclosingRectangle returns left, top, width and height of the smallest
// rectangle holding every black module; ok is false for an all-white matrix.
func (m *BitMatrix) EnclosingRectangle() (left, top, width, height int, ok bool) {
	left, top = m.width, m.height
	right, bottom := -1, -1
	for y := 0; y < m.height; y++ {
		for w := 0; w < m.stride; w++ {
			word := m.words[y*m.stride+w]
			if word == 0 {
				continue
			}
			top = min(top, y)
			bottom = max(bottom, y)
			left = min(left, w*wordBits+bits.TrailingZeros64(word))
			right = max(right, w*wordBits+wordBits-1-bits.LeadingZeros64(word))
		}
	}
	if right < left || bottom < top {
		return 0, 0, 0, 0, false
	}
	return left, top, right - left + 1, bottom - top + 1, true
}

// TopLeftOnBit returns the first black module in reading order.
func (m *BitMatrix) TopLeftOnBit() (x, y int, ok bool) {
	for i, word := range m.words {
		if word != 0 {
			return (i%m.stride)*wordBits + bits.TrailingZeros64(word), i / m.stride, true
		}
	}
	return 0, 0, false
}

// BottomRightOnBit returns the last black module in reading order.
func (m *BitMatrix) BottomRightOnBit() (x, y int, ok bool) {
	for i := len(m.words) - 1; i >= 0; i-- {
		if word := m.words[i]; word != 0 {
			return (i%m.stride)*wordBits + wordBits - 1 - bits.LeadingZeros64(word), i / m.stride, true
		}
	}
	return 0, 0, false
}

// Width is the number of columns.
func (m *BitMatrix) Width() int { return m.width }

// Height is the number of rows.
func (m *BitMatrix) Height() int { return m.height }

// Clone returns an independent copy.
func (m *BitMatrix) Clone() *BitMatrix {
	c := *m
	c.words = append([]uint64(nil), m.words...)
	return &c
}

// Equal reports whether both matrices have the same size and modules.
func (m *BitMatrix) Equal(other *BitMatrix) bool {
	if m.width != other.width || m.height != other.height {
		return false
	}
	for i, w := range m.words {
		if other.words[i] != w {
			return false
		}
	}
	return true
}

func (m *BitMatrix) String() string {
	return m.Format("X ", "  ")
}

// Format renders the matrix one text line per row.
func (m *BitMatrix) Format(setStr, unsetStr string) string {
	var sb strings.Builder
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.Get(x, y) {
				sb.WriteString(setStr)
			} else {
				sb.WriteString(unsetStr)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

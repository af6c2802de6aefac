package decoder

import (
	"fmt"
	"slices"
)

const rowUnknown = -1

// codeword is one codeword located in the image: its horizontal extent,
// cluster bucket, value and, once known, the symbol row it belongs to.
type codeword struct {
	startX, endX int
	bucket       int
	value        int
	row          int
}

func newCodeword(startX, endX, bucket, value int) *codeword {
	return &codeword{startX: startX, endX: endX, bucket: bucket, value: value, row: rowUnknown}
}

func (c *codeword) width() int { return c.endX - c.startX }

func (c *codeword) hasValidRow() bool { return c.isValidRow(c.row) }

// isValidRow reports whether row uses this codeword's cluster; rows cycle
// through the three clusters.
func (c *codeword) isValidRow(row int) bool {
	return row != rowUnknown && c.bucket == (row%3)*3
}

// setRowFromIndicator derives the row from a row indicator codeword, which
// carries row/3 in its value and row%3 in its cluster.
func (c *codeword) setRowFromIndicator() {
	c.row = (c.value/30)*3 + c.bucket/3
}

func (c *codeword) String() string {
	return fmt.Sprintf("%d|%d", c.row, c.value)
}

// votes counts how often each value was read for one cell.
type votes map[int]int

func (v votes) add(value int) { v[value]++ }

// best returns the values read most often, in ascending order.
func (v votes) best() []int {
	top := -1
	var result []int
	for value, n := range v {
		switch {
		case n > top:
			top = n
			result = append(result[:0], value)
		case n == top:
			result = append(result, value)
		}
	}
	slices.Sort(result)
	return result
}

// BarcodeMetadata is what the row indicator columns say about the symbol.
type BarcodeMetadata struct {
	Columns  int
	RowsHigh int // 3 * ((rows-1)/3) + 1
	RowsLow  int // (rows-1) % 3
	ECLevel  int
}

// Rows is the number of rows of the symbol.
func (m BarcodeMetadata) Rows() int { return m.RowsHigh + m.RowsLow }

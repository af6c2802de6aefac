package decoder

import (
	"fmt"
	"strings"
)

const maxNearbyDistance = 5

type columnKind int

const (
	dataColumn columnKind = iota
	leftIndicator
	rightIndicator
)

// column collects the codewords found in one symbol column, indexed by
// image row relative to the top of the bounding box.
type column struct {
	kind      columnKind
	box       *boundingBox
	codewords []*codeword
}

func newColumn(box *boundingBox, kind columnKind) *column {
	return &column{kind: kind, box: box.clone(), codewords: make([]*codeword, box.maxY-box.minY+1)}
}

func newIndicatorColumn(box *boundingBox, left bool) *column {
	if left {
		return newColumn(box, leftIndicator)
	}
	return newColumn(box, rightIndicator)
}

func (c *column) isIndicator() bool { return c.kind != dataColumn }

func (c *column) index(imageRow int) int { return imageRow - c.box.minY }

func (c *column) at(imageRow int) *codeword {
	i := c.index(imageRow)
	if i < 0 || i >= len(c.codewords) {
		return nil
	}
	return c.codewords[i]
}

func (c *column) set(imageRow int, cw *codeword) {
	if i := c.index(imageRow); i >= 0 && i < len(c.codewords) {
		c.codewords[i] = cw
	}
}

// nearby returns the codeword at imageRow or the closest one within a few
// rows of it.
func (c *column) nearby(imageRow int) *codeword {
	if cw := c.at(imageRow); cw != nil {
		return cw
	}
	i := c.index(imageRow)
	for d := 1; d < maxNearbyDistance; d++ {
		if j := i - d; j >= 0 && j < len(c.codewords) && c.codewords[j] != nil {
			return c.codewords[j]
		}
		if j := i + d; j >= 0 && j < len(c.codewords) && c.codewords[j] != nil {
			return c.codewords[j]
		}
	}
	return nil
}

func (c *column) String() string {
	var sb strings.Builder
	for i, cw := range c.codewords {
		if cw == nil {
			fmt.Fprintf(&sb, "%3d:    |   \n", i)
		} else {
			fmt.Fprintf(&sb, "%3d: %3d|%3d\n", i, cw.row, cw.value)
		}
	}
	return sb.String()
}

// Row indicator columns. Each codeword of an indicator column carries one
// of three facts in value%30, chosen by its row modulo 3: the row count's
// high part, the EC level with the row count's low part, or the column
// count. The right column rotates the three by two rows.

// fact returns which of the three facts a codeword at row carries.
func (c *column) fact(row int) int {
	if c.kind == rightIndicator {
		row += 2
	}
	return row % 3
}

// indicatorRange returns the codeword indices between the column's top and
// bottom corners.
func (c *column) indicatorRange() (first, last int) {
	top, bottom := c.box.topLeft, c.box.bottomLeft
	if c.kind == rightIndicator {
		top, bottom = c.box.topRight, c.box.bottomRight
	}
	return c.index(int(top.Y)), c.index(int(bottom.Y))
}

// metadata votes on the symbol's shape. It returns false when a fact has
// no reading or the row count is out of range.
func (c *column) metadata() (BarcodeMetadata, bool) {
	cols, high, low, level := votes{}, votes{}, votes{}, votes{}
	for _, cw := range c.codewords {
		if cw == nil {
			continue
		}
		cw.setRowFromIndicator()
		v := cw.value % 30
		switch c.fact(cw.row) {
		case 0:
			high.add(v*3 + 1)
		case 1:
			level.add(v / 3)
			low.add(v % 3)
		case 2:
			cols.add(v + 1)
		}
	}
	cv, hv, lv, ev := cols.best(), high.best(), low.best(), level.best()
	if len(cv) == 0 || len(hv) == 0 || len(lv) == 0 || len(ev) == 0 ||
		cv[0] < 1 || hv[0]+lv[0] < minRows || hv[0]+lv[0] > maxRows {
		return BarcodeMetadata{}, false
	}
	m := BarcodeMetadata{Columns: cv[0], RowsHigh: hv[0], RowsLow: lv[0], ECLevel: ev[0]}
	c.removeIncorrect(m)
	return m, true
}

// removeIncorrect drops indicator codewords that contradict m.
func (c *column) removeIncorrect(m BarcodeMetadata) {
	for i, cw := range c.codewords {
		if cw == nil {
			continue
		}
		v := cw.value % 30
		if cw.row > m.Rows() {
			c.codewords[i] = nil
			continue
		}
		var ok bool
		switch c.fact(cw.row) {
		case 0:
			ok = v*3+1 == m.RowsHigh
		case 1:
			ok = v/3 == m.ECLevel && v%3 == m.RowsLow
		case 2:
			ok = v+1 == m.Columns
		}
		if !ok {
			c.codewords[i] = nil
		}
	}
}

// adjustCompleteRows assigns rows to every indicator codeword and drops the
// ones whose row does not follow from their neighbours.
func (c *column) adjustCompleteRows(m BarcodeMetadata) {
	for _, cw := range c.codewords {
		if cw != nil {
			cw.setRowFromIndicator()
		}
	}
	c.removeIncorrect(m)
	first, last := c.indicatorRange()
	row, maxHeight, height := -1, 1, 0
	for i := max(first, 0); i < last && i < len(c.codewords); i++ {
		cw := c.codewords[i]
		if cw == nil {
			continue
		}
		diff := cw.row - row
		switch {
		case diff == 0:
			height++
		case diff == 1:
			maxHeight = max(maxHeight, height)
			height = 1
			row = cw.row
		case diff < 0 || cw.row >= m.Rows() || diff > i:
			c.codewords[i] = nil
		default:
			checked := diff
			if maxHeight > 2 {
				checked = (maxHeight - 2) * diff
			}
			closeFound := checked >= i
			for j := 1; j <= checked && !closeFound; j++ {
				closeFound = c.codewords[i-j] != nil
			}
			if closeFound {
				c.codewords[i] = nil
			} else {
				row = cw.row
				height = 1
			}
		}
	}
}

// rowHeights returns how many image rows were read for each symbol row, or
// nil when the metadata cannot be read.
func (c *column) rowHeights() []int {
	m, ok := c.metadata()
	if !ok {
		return nil
	}
	c.adjustIncompleteRows(m)
	heights := make([]int, m.Rows())
	for _, cw := range c.codewords {
		if cw != nil && cw.row >= 0 && cw.row < len(heights) {
			heights[cw.row]++
		}
	}
	return heights
}

func (c *column) adjustIncompleteRows(m BarcodeMetadata) {
	first, last := c.indicatorRange()
	row := -1
	for i := max(first, 0); i < last && i < len(c.codewords); i++ {
		cw := c.codewords[i]
		if cw == nil {
			continue
		}
		cw.setRowFromIndicator()
		diff := cw.row - row
		switch {
		case diff == 0, diff == 1:
			row = cw.row
		case cw.row >= m.Rows():
			c.codewords[i] = nil
		default:
			row = cw.row
		}
	}
}

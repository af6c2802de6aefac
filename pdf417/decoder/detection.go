package decoder

import (
	"fmt"
	"strings"
)

const (
	minRows             = 3
	maxRows             = 90
	maxCodewords        = 928
	adjustRowNumberSkip = 2
)

// detection holds every column of a symbol being read: the left row
// indicator at index 0, the data columns, and the right row indicator at
// index Columns+1. Either indicator may be missing.
type detection struct {
	meta    BarcodeMetadata
	columns []*column
	box     *boundingBox
}

func newDetection(meta BarcodeMetadata, box *boundingBox) *detection {
	return &detection{meta: meta, box: box, columns: make([]*column, meta.Columns+2)}
}

func (d *detection) dataColumns() int { return d.meta.Columns }

func (d *detection) right() *column { return d.columns[d.meta.Columns+1] }

// resolvedColumns settles the row of every codeword it can and returns the
// columns.
func (d *detection) resolvedColumns() []*column {
	for _, c := range []*column{d.columns[0], d.right()} {
		if c != nil {
			c.adjustCompleteRows(d.meta)
		}
	}
	unadjusted := maxCodewords
	for {
		previous := unadjusted
		unadjusted = d.adjustRows()
		if unadjusted <= 0 || unadjusted >= previous {
			break
		}
	}
	return d.columns
}

func (d *detection) adjustRows() int {
	unadjusted := d.adjustRowsByIndicators()
	if unadjusted == 0 {
		return 0
	}
	for col := 1; col <= d.dataColumns(); col++ {
		codewords := d.columns[col].codewords
		for i, cw := range codewords {
			if cw != nil && !cw.hasValidRow() {
				d.adjustFromNeighbours(col, i, codewords)
			}
		}
	}
	return unadjusted
}

func (d *detection) adjustRowsByIndicators() int {
	d.adjustRowsFromBothIndicators()
	return d.adjustRowsFromIndicator(true) + d.adjustRowsFromIndicator(false)
}

// adjustRowsFromBothIndicators trusts a row on which both indicators agree
// and drops data codewords whose cluster contradicts it.
func (d *detection) adjustRowsFromBothIndicators() {
	left, right := d.columns[0], d.right()
	if left == nil || right == nil {
		return
	}
	for i, l := range left.codewords {
		if i >= len(right.codewords) {
			break
		}
		r := right.codewords[i]
		if l == nil || r == nil || l.row != r.row {
			continue
		}
		for col := 1; col <= d.dataColumns(); col++ {
			cw := d.columns[col].at(d.box.minY + i)
			if cw == nil {
				continue
			}
			cw.row = l.row
			if !cw.hasValidRow() {
				d.columns[col].set(d.box.minY+i, nil)
			}
		}
	}
}

// adjustRowsFromIndicator walks inward from one indicator along each image
// row, giving its row to the data codewords that can carry it, until two
// in a row cannot. It returns how many codewords are still without a row.
func (d *detection) adjustRowsFromIndicator(fromLeft bool) int {
	ind := d.columns[0]
	if !fromLeft {
		ind = d.right()
	}
	if ind == nil {
		return 0
	}
	unadjusted := 0
	for i, icw := range ind.codewords {
		if icw == nil {
			continue
		}
		invalid := 0
		for step := 0; step < d.dataColumns() && invalid < adjustRowNumberSkip; step++ {
			col := 1 + step
			if !fromLeft {
				col = d.dataColumns() - step
			}
			cw := d.columns[col].at(d.box.minY + i)
			if cw == nil {
				continue
			}
			invalid = adjustRowIfValid(icw.row, invalid, cw)
			if !cw.hasValidRow() {
				unadjusted++
			}
		}
	}
	return unadjusted
}

func adjustRowIfValid(row, invalid int, cw *codeword) int {
	if cw.hasValidRow() {
		return invalid
	}
	if cw.isValidRow(row) {
		cw.row = row
		return 0
	}
	return invalid + 1
}

// adjustFromNeighbours copies the row of the closest neighbour, in this
// column or the ones beside it, that shares the codeword's cluster.
func (d *detection) adjustFromNeighbours(col, i int, codewords []*codeword) {
	cw := codewords[i]
	var prev, next []*codeword
	if c := d.columns[col-1]; c != nil {
		prev = c.codewords
	}
	if c := d.columns[col+1]; c != nil {
		next = c.codewords
	}
	if prev == nil {
		prev = next
	}
	if next == nil {
		next = prev
	}
	at := func(s []*codeword, j int) *codeword {
		if j < 0 || j >= len(s) {
			return nil
		}
		return s[j]
	}
	candidates := []*codeword{
		at(codewords, i-1), at(codewords, i+1),
		at(prev, i), at(next, i),
		at(prev, i-1), at(next, i-1), at(prev, i+1), at(next, i+1),
		at(codewords, i-2), at(codewords, i+2),
		at(prev, i-2), at(next, i-2), at(prev, i+2), at(next, i+2),
	}
	for _, other := range candidates {
		if other != nil && other.hasValidRow() && other.bucket == cw.bucket {
			cw.row = other.row
			return
		}
	}
}

func (d *detection) String() string {
	ind := d.columns[0]
	if ind == nil {
		ind = d.right()
	}
	if ind == nil {
		return ""
	}
	var sb strings.Builder
	for i := range ind.codewords {
		fmt.Fprintf(&sb, "CW %3d:", i)
		for _, c := range d.columns {
			if c == nil || c.codewords[i] == nil {
				sb.WriteString("    |   ")
				continue
			}
			fmt.Fprintf(&sb, " %3d|%3d", c.codewords[i].row, c.codewords[i].value)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

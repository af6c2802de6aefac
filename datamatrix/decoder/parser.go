package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// utahShape lists the eight modules of a nominal codeword relative to its
// lower right module, most significant bit first.
var utahShape = [8][2]int{
	{-2, -2}, {-2, -1},
	{-1, -2}, {-1, -1}, {-1, 0},
	{0, -2}, {0, -1}, {0, 0},
}

// cornerShape gives the eight absolute (row, column) positions of one of the
// four irregular corner codewords in an nr x nc mapping matrix.
type cornerShape func(nr, nc int) [8][2]int

var corners = [4]cornerShape{
	func(nr, nc int) [8][2]int {
		return [8][2]int{{nr - 1, 0}, {nr - 1, 1}, {nr - 1, 2}, {0, nc - 2}, {0, nc - 1}, {1, nc - 1}, {2, nc - 1}, {3, nc - 1}}
	},
	func(nr, nc int) [8][2]int {
		return [8][2]int{{nr - 3, 0}, {nr - 2, 0}, {nr - 1, 0}, {0, nc - 4}, {0, nc - 3}, {0, nc - 2}, {0, nc - 1}, {1, nc - 1}}
	},
	func(nr, nc int) [8][2]int {
		return [8][2]int{{nr - 1, 0}, {nr - 1, nc - 1}, {0, nc - 3}, {0, nc - 2}, {0, nc - 1}, {1, nc - 3}, {1, nc - 2}, {1, nc - 1}}
	},
	func(nr, nc int) [8][2]int {
		return [8][2]int{{nr - 3, 0}, {nr - 2, 0}, {nr - 1, 0}, {0, nc - 2}, {0, nc - 1}, {1, nc - 1}, {2, nc - 1}, {3, nc - 1}}
	},
}

// parser reads codewords out of a sampled symbol. mapping is the symbol with
// every finder and timing border removed; read marks the modules already
// consumed so the diagonal sweep can skip them.
type parser struct {
	version *Version
	mapping *bitutil.BitMatrix
	read    *bitutil.BitMatrix
	err     error
}

func newParser(bits *bitutil.BitMatrix) (*parser, error) {
	v, err := VersionForDimensions(bits.Height(), bits.Width())
	if err != nil {
		return nil, err
	}
	mapping := extractDataRegions(bits, v)
	return &parser{
		version: v,
		mapping: mapping,
		read:    bitutil.NewBitMatrixWithSize(mapping.Width(), mapping.Height()),
	}, nil
}

// extractDataRegions drops the one-module border around each data region
// and butts the regions together.
func extractDataRegions(bits *bitutil.BitMatrix, v *Version) *bitutil.BitMatrix {
	down, across := v.regionsDown(), v.regionsAcross()
	out := bitutil.NewBitMatrixWithSize(across*v.RegionColumns, down*v.RegionRows)
	for rr := 0; rr < down; rr++ {
		for rc := 0; rc < across; rc++ {
			for i := 0; i < v.RegionRows; i++ {
				srcY := rr*(v.RegionRows+2) + 1 + i
				for j := 0; j < v.RegionColumns; j++ {
					if bits.Get(rc*(v.RegionColumns+2)+1+j, srcY) {
						out.Set(rc*v.RegionColumns+j, rr*v.RegionRows+i)
					}
				}
			}
		}
	}
	return out
}

// module reads one module, wrapping positions that fall off the top or left
// edge the way ECC 200 placement prescribes.
func (p *parser) module(row, col int) bool {
	nr, nc := p.mapping.Height(), p.mapping.Width()
	if row < 0 {
		row += nr
		col += 4 - ((nr + 4) & 7)
	}
	if col < 0 {
		col += nc
		row += 4 - ((nc + 4) & 7)
	}
	if row < 0 || col < 0 || row >= nr || col >= nc {
		if p.err == nil {
			p.err = fmt.Errorf("datamatrix: module %d,%d outside %dx%d mapping: %w", row, col, nr, nc, symscan.ErrFormat)
		}
		return false
	}
	p.read.Set(col, row)
	return p.mapping.Get(col, row)
}

func (p *parser) codeword(positions [8][2]int) byte {
	var b byte
	for _, rc := range positions {
		b <<= 1
		if p.module(rc[0], rc[1]) {
			b |= 1
		}
	}
	return b
}

func (p *parser) utah(row, col int) byte {
	var pos [8][2]int
	for i, d := range utahShape {
		pos[i] = [2]int{row + d[0], col + d[1]}
	}
	return p.codeword(pos)
}

// readCodewords walks the diagonal placement pattern, picking up the corner
// codewords as the walk reaches them.
func (p *parser) readCodewords() ([]byte, error) {
	total := p.version.TotalCodewords()
	out := make([]byte, 0, total)
	nr, nc := p.mapping.Height(), p.mapping.Width()
	var cornerRead [4]bool
	emit := func(b byte) {
		if len(out) < total {
			out = append(out, b)
		} else if p.err == nil {
			p.err = fmt.Errorf("datamatrix: more than %d codewords placed: %w", total, symscan.ErrFormat)
		}
	}

	row, col := 4, 0
	for {
		corner := -1
		switch {
		case row == nr && col == 0 && !cornerRead[0]:
			corner = 0
		case row == nr-2 && col == 0 && nc&3 != 0 && !cornerRead[1]:
			corner = 1
		case row == nr+4 && col == 2 && nc&7 == 0 && !cornerRead[2]:
			corner = 2
		case row == nr-2 && col == 0 && nc&7 == 4 && !cornerRead[3]:
			corner = 3
		}
		if corner >= 0 {
			emit(p.codeword(corners[corner](nr, nc)))
			cornerRead[corner] = true
			row -= 2
			col += 2
		} else {
			// up and to the right
			for {
				if row >= 0 && row < nr && col >= 0 && col < nc && !p.read.Get(col, row) {
					emit(p.utah(row, col))
				}
				row -= 2
				col += 2
				if row < 0 || col >= nc {
					break
				}
			}
			row++
			col += 3
			// down and to the left
			for {
				if row >= 0 && row < nr && col >= 0 && col < nc && !p.read.Get(col, row) {
					emit(p.utah(row, col))
				}
				row += 2
				col -= 2
				if row >= nr || col < 0 {
					break
				}
			}
			row += 3
			col++
		}
		if p.err != nil {
			return nil, p.err
		}
		if row >= nr && col >= nc {
			break
		}
	}
	if len(out) != total {
		return nil, fmt.Errorf("datamatrix: read %d of %d codewords: %w", len(out), total, symscan.ErrFormat)
	}
	return out, nil
}

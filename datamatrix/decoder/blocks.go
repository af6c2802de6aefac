package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
)

type dataBlock struct {
	numData   int
	codewords []byte
}

// splitBlocks undoes the codeword interleaving. Codewords are dealt
// round-robin over the blocks. The 144x144 symbol is the one size with
// blocks of two lengths: its eight longer blocks come first, and its
// correction codewords start dealing at block eight.
func splitBlocks(raw []byte, v *Version) ([]dataBlock, error) {
	if len(raw) != v.TotalCodewords() {
		return nil, fmt.Errorf("datamatrix: %d codewords for version %s: %w", len(raw), v, symscan.ErrFormat)
	}
	ecPer := v.ECBlocks.ECPerBlock
	blocks := make([]dataBlock, 0, v.ECBlocks.NumBlocks())
	for _, g := range v.ECBlocks.Groups {
		for i := 0; i < g.Count; i++ {
			blocks = append(blocks, dataBlock{
				numData:   g.DataCodewords,
				codewords: make([]byte, g.DataCodewords+ecPer),
			})
		}
	}
	n := len(blocks)
	longLen := len(blocks[0].codewords)
	longData := longLen - ecPer
	special := v.Number == 24

	pos := 0
	for i := 0; i < longData-1; i++ {
		for j := range blocks {
			blocks[j].codewords[i] = raw[pos]
			pos++
		}
	}
	numLong := n
	if special {
		numLong = 8
	}
	for j := 0; j < numLong; j++ {
		blocks[j].codewords[longData-1] = raw[pos]
		pos++
	}
	for i := longData; i < longLen; i++ {
		for j := 0; j < n; j++ {
			jj, ii := j, i
			if special {
				jj = (j + 8) % n
				if jj > 7 {
					ii--
				}
			}
			blocks[jj].codewords[ii] = raw[pos]
			pos++
		}
	}
	if pos != len(raw) {
		return nil, fmt.Errorf("datamatrix: %d codewords left over: %w", len(raw)-pos, symscan.ErrFormat)
	}
	return blocks, nil
}

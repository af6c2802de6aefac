package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
)

type dataBlock struct {
	numData   int
	codewords []byte
}

// splitBlocks undoes the codeword interleaving. Data codewords are dealt
// round-robin across all blocks; the longer blocks (always last) take one
// extra data codeword each before the correction codewords are dealt the
// same way.
func splitBlocks(raw []byte, version *Version, level ECLevel) ([]dataBlock, error) {
	if len(raw) != version.TotalCodewords() {
		return nil, fmt.Errorf("qrcode: %d codewords for version %d: %w", len(raw), version.Number, symscan.ErrFormat)
	}
	ec := version.ECBlocks(level)
	blocks := make([]dataBlock, 0, ec.NumBlocks())
	for _, g := range ec.Groups {
		for i := 0; i < g.Count; i++ {
			blocks = append(blocks, dataBlock{
				numData:   g.DataCodewords,
				codewords: make([]byte, g.DataCodewords+ec.ECPerBlock),
			})
		}
	}

	shortLen := len(blocks[0].codewords)
	longStart := len(blocks)
	for longStart > 0 && len(blocks[longStart-1].codewords) != shortLen {
		longStart--
	}
	shortData := shortLen - ec.ECPerBlock

	pos := 0
	for i := 0; i < shortData; i++ {
		for j := range blocks {
			blocks[j].codewords[i] = raw[pos]
			pos++
		}
	}
	for j := longStart; j < len(blocks); j++ {
		blocks[j].codewords[shortData] = raw[pos]
		pos++
	}
	for i := shortData; i < shortLen; i++ {
		for j := range blocks {
			k := i
			if j >= longStart {
				k++
			}
			blocks[j].codewords[k] = raw[pos]
			pos++
		}
	}
	return blocks, nil
}

// Package decoder reads ECC 200 Data Matrix symbols from a sampled module
// grid: it strips the region borders, follows the diagonal codeword
// placement, corrects each block and parses the encodation modes.
package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/gf"
	"github.com/ericlevine/symscan/internal"
	"github.com/ericlevine/symscan/reedsolomon"
)

var rs = reedsolomon.NewDecoder(gf.DataMatrixField256)

// Decode reads bits, a grid of the full symbol including its finder and
// timing borders, one module per bit.
func Decode(bits *bitutil.BitMatrix) (*internal.DecoderResult, error) {
	p, err := newParser(bits)
	if err != nil {
		return nil, err
	}
	raw, err := p.readCodewords()
	if err != nil {
		return nil, err
	}
	blocks, err := splitBlocks(raw, p.version)
	if err != nil {
		return nil, err
	}

	n := len(blocks)
	data := make([]byte, p.version.DataCodewords())
	corrected := 0
	for j, b := range blocks {
		c, err := correct(b)
		if err != nil {
			return nil, fmt.Errorf("datamatrix: block %d of %d: %w", j+1, n, err)
		}
		corrected += c
		for i := 0; i < b.numData; i++ {
			data[i*n+j] = b.codewords[i]
		}
	}

	res, err := decodeBitStream(data)
	if err != nil {
		return nil, err
	}
	res.ErrorsCorrected = corrected
	return res, nil
}

// correct repairs b in place and returns the number of corrected codewords.
func correct(b dataBlock) (int, error) {
	words := make([]int, len(b.codewords))
	for i, c := range b.codewords {
		words[i] = int(c)
	}
	n, err := rs.Decode(words, len(words)-b.numData)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", symscan.ErrChecksum, err)
	}
	for i := 0; i < b.numData; i++ {
		b.codewords[i] = byte(words[i])
	}
	return n, nil
}

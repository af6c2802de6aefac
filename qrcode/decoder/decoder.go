// Package decoder turns a sampled QR Code grid into text: it reads format
// and version information, unmasks and de-interleaves the codewords,
// corrects them and parses the segment stream.
package decoder

import (
	"fmt"
	"log/slog"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/gf"
	"github.com/ericlevine/symscan/internal"
	"github.com/ericlevine/symscan/reedsolomon"
)

// MetaData is attached to DecoderResult.Other.
type MetaData struct {
	// Mirrored is set when the symbol only decoded after transposing it.
	Mirrored bool
}

// ApplyMirroredCorrection swaps the bottom-left and top-right finder points
// of a mirrored symbol so they describe it as printed.
func (m *MetaData) ApplyMirroredCorrection(points []symscan.Point) {
	if m == nil || !m.Mirrored || len(points) < 3 {
		return
	}
	points[0], points[2] = points[2], points[0]
}

var rs = reedsolomon.NewDecoder(gf.QRCodeField256)

// Decode reads bits, a dim x dim grid sampled at module centers. hint names
// the charset for byte segments without an ECI. When the grid fails to
// decode it is retried transposed; if that fails too the first error is
// returned. bits is left transposed after a mirrored success.
func Decode(bits *bitutil.BitMatrix, hint string) (*internal.DecoderResult, error) {
	p, err := newParser(bits)
	if err != nil {
		return nil, err
	}
	res, firstErr := decode(p, hint)
	if firstErr == nil {
		return res, nil
	}

	p.remask()
	p.setMirror(true)
	if _, err := p.readVersion(); err != nil {
		return nil, firstErr
	}
	if _, err := p.readFormat(); err != nil {
		return nil, firstErr
	}
	p.transpose()
	res, err = decode(p, hint)
	if err != nil {
		slog.Debug("qrcode: mirrored reading failed", "error", err)
		return nil, firstErr
	}
	res.Other = &MetaData{Mirrored: true}
	return res, nil
}

func decode(p *parser, hint string) (*internal.DecoderResult, error) {
	version, err := p.readVersion()
	if err != nil {
		return nil, err
	}
	format, err := p.readFormat()
	if err != nil {
		return nil, err
	}
	raw, err := p.readCodewords()
	if err != nil {
		return nil, err
	}
	blocks, err := splitBlocks(raw, version, format.ECLevel)
	if err != nil {
		return nil, err
	}

	var data []byte
	corrected := 0
	for i, b := range blocks {
		n, err := correct(b)
		if err != nil {
			return nil, fmt.Errorf("qrcode: block %d of %d: %w", i+1, len(blocks), err)
		}
		corrected += n
		data = append(data, b.codewords[:b.numData]...)
	}

	res, err := decodeBitStream(data, version, format.ECLevel, hint)
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
		// any failure inside the field arithmetic means too many errors
		return 0, fmt.Errorf("%w: %w", symscan.ErrChecksum, err)
	}
	for i := 0; i < b.numData; i++ {
		b.codewords[i] = byte(words[i])
	}
	return n, nil
}

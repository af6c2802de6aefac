// Package aztec reads Aztec Code symbols.
package aztec

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/aztec/decoder"
	"github.com/ericlevine/symscan/aztec/detector"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/internal"
)

// Reader decodes an Aztec symbol. The bull's-eye search needs no quiet zone,
// so DecodeOptions.PureBarcode changes nothing here.
type Reader struct{}

// NewReader returns an Aztec Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Decode implements symscan.Reader. The image is tried as printed and then
// mirrored; the first error is reported when both fail.
func (r *Reader) Decode(image *symscan.BinaryBitmap, _ *symscan.DecodeOptions) (*symscan.Result, error) {
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	found, dr, firstErr := detectAndDecode(matrix, false)
	if firstErr != nil {
		found, dr, err = detectAndDecode(matrix, true)
		if err != nil {
			return nil, firstErr
		}
	}

	result := symscan.NewResult(dr.Text, dr.RawBytes, found.Points, symscan.FormatAztec)
	result.NumBits = dr.NumBits
	if len(dr.ByteSegments) > 0 {
		result.PutMetadata(symscan.MetadataByteSegments, dr.ByteSegments)
	}
	if dr.ECLevel != "" {
		result.PutMetadata(symscan.MetadataErrorCorrectionLevel, dr.ECLevel)
	}
	result.PutMetadata(symscan.MetadataErrorsCorrected, found.ErrorsCorrected+dr.ErrorsCorrected)
	result.PutMetadata(symscan.MetadataSymbologyIdentifier, fmt.Sprintf("]z%d", dr.SymbologyModifier))
	return result, nil
}

func detectAndDecode(matrix *bitutil.BitMatrix, mirror bool) (*detector.Result, *internal.DecoderResult, error) {
	found, err := detector.Detect(matrix, mirror)
	if err != nil {
		return nil, nil, err
	}
	dr, err := decoder.Decode(found.Symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("aztec: decode (mirror=%t): %w", mirror, err)
	}
	return found, dr, nil
}

var _ symscan.Reader = (*Reader)(nil)

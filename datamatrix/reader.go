// Package datamatrix reads ECC 200 Data Matrix symbols, square, rectangular
// and DMRE.
package datamatrix

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/datamatrix/decoder"
	"github.com/ericlevine/symscan/datamatrix/detector"
	"github.com/ericlevine/symscan/internal"
)

// Reader decodes one Data Matrix symbol from an image.
type Reader struct{}

// NewReader returns a Data Matrix Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Decode implements symscan.Reader.
func (r *Reader) Decode(image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) (*symscan.Result, error) {
	if opts == nil {
		opts = &symscan.DecodeOptions{}
	}
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	var (
		bits   *bitutil.BitMatrix
		points []symscan.Point
	)
	if opts.PureBarcode {
		if bits, err = extractPureBits(matrix); err != nil {
			return nil, err
		}
	} else {
		found, err := detector.Detect(matrix)
		if err != nil {
			return nil, err
		}
		bits, points = found.Bits, found.Points
	}

	dr, err := decoder.Decode(bits)
	if err != nil {
		return nil, err
	}
	return newResult(dr, points), nil
}

func newResult(dr *internal.DecoderResult, points []symscan.Point) *symscan.Result {
	result := symscan.NewResult(dr.Text, dr.RawBytes, points, symscan.FormatDataMatrix)
	result.NumBits = dr.NumBits
	if len(dr.ByteSegments) > 0 {
		result.PutMetadata(symscan.MetadataByteSegments, dr.ByteSegments)
	}
	if dr.HasStructuredAppend() {
		result.PutMetadata(symscan.MetadataStructuredAppendSequence, dr.StructuredAppendSequence)
		result.PutMetadata(symscan.MetadataStructuredAppendParity, dr.StructuredAppendParity)
	}
	result.PutMetadata(symscan.MetadataErrorsCorrected, dr.ErrorsCorrected)
	result.PutMetadata(symscan.MetadataSymbologyIdentifier, fmt.Sprintf("]d%d", dr.SymbologyModifier))
	return result
}

// extractPureBits samples an image holding nothing but one upright symbol
// on a white background. The module size is the length of the first dark
// run of the top timing edge.
func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	left, top, ok := image.TopLeftOnBit()
	if !ok {
		return nil, fmt.Errorf("datamatrix: empty image: %w", symscan.ErrNotFound)
	}
	right, bottom, _ := image.BottomRightOnBit()

	x := left
	for x < image.Width() && image.Get(x, top) {
		x++
	}
	if x == image.Width() {
		return nil, fmt.Errorf("datamatrix: top edge runs off the image: %w", symscan.ErrNotFound)
	}
	moduleSize := x - left

	cols := (right - left + 1) / moduleSize
	rows := (bottom - top + 1) / moduleSize
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("datamatrix: symbol smaller than a module: %w", symscan.ErrNotFound)
	}

	nudge := moduleSize / 2
	bits := bitutil.NewBitMatrixWithSize(cols, rows)
	for y := 0; y < rows; y++ {
		iy := top + y*moduleSize + nudge
		for x := 0; x < cols; x++ {
			if image.Get(left+x*moduleSize+nudge, iy) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

var _ symscan.Reader = (*Reader)(nil)

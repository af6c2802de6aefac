// Package qrcode reads QR Code symbols, including mirrored ones and members
// of structured append sets.
package qrcode

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/internal"
	"github.com/ericlevine/symscan/qrcode/decoder"
	"github.com/ericlevine/symscan/qrcode/detector"
)

// Reader decodes one QR Code from an image.
type Reader struct{}

// NewReader returns a QR Code Reader.
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
		found, err := detector.NewDetector(matrix).Detect(opts.TryHarder)
		if err != nil {
			return nil, err
		}
		bits, points = found.Bits, found.Points
	}

	dr, err := decoder.Decode(bits, opts.CharacterSet)
	if err != nil {
		return nil, err
	}
	return NewResult(dr, points), nil
}

// NewResult builds the Result for a decoded symbol, putting the finder
// points of a mirrored symbol back in printed order.
func NewResult(dr *internal.DecoderResult, points []symscan.Point) *symscan.Result {
	if md, ok := dr.Other.(*decoder.MetaData); ok {
		md.ApplyMirroredCorrection(points)
	}
	result := symscan.NewResult(dr.Text, dr.RawBytes, points, symscan.FormatQRCode)
	result.NumBits = dr.NumBits
	if len(dr.ByteSegments) > 0 {
		result.PutMetadata(symscan.MetadataByteSegments, dr.ByteSegments)
	}
	if dr.ECLevel != "" {
		result.PutMetadata(symscan.MetadataErrorCorrectionLevel, dr.ECLevel)
	}
	if dr.HasStructuredAppend() {
		result.PutMetadata(symscan.MetadataStructuredAppendSequence, dr.StructuredAppendSequence)
		result.PutMetadata(symscan.MetadataStructuredAppendParity, dr.StructuredAppendParity)
	}
	result.PutMetadata(symscan.MetadataErrorsCorrected, dr.ErrorsCorrected)
	result.PutMetadata(symscan.MetadataSymbologyIdentifier, fmt.Sprintf("]Q%d", dr.SymbologyModifier))
	return result
}

// extractPureBits samples an image holding nothing but one upright symbol
// and its quiet zone. The module size comes from the diagonal run through
// the top-left finder pattern.
func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	left, top, ok := image.TopLeftOnBit()
	if !ok {
		return nil, fmt.Errorf("qrcode: empty image: %w", symscan.ErrNotFound)
	}
	right, bottom, _ := image.BottomRightOnBit()

	moduleSize, err := pureModuleSize(image, left, top)
	if err != nil {
		return nil, err
	}
	if left >= right || top >= bottom {
		return nil, fmt.Errorf("qrcode: degenerate symbol bounds: %w", symscan.ErrNotFound)
	}
	if bottom-top != right-left {
		// Trailing light modules in the last row can leave the box
		// short on the right; a symbol is square.
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, fmt.Errorf("qrcode: symbol wider than image: %w", symscan.ErrNotFound)
		}
	}

	cols := geometry.Round(float64(right-left+1) / moduleSize)
	rows := geometry.Round(float64(bottom-top+1) / moduleSize)
	if cols <= 0 || rows <= 0 || rows != cols {
		return nil, fmt.Errorf("qrcode: pure symbol is %dx%d modules: %w", cols, rows, symscan.ErrNotFound)
	}

	// sample at module centers, pulled back inside the box if the
	// module size estimate runs long
	nudge := int(moduleSize / 2)
	top += nudge
	left += nudge
	if over := left + int(float64(cols-1)*moduleSize) - right; over > 0 {
		if over > nudge {
			return nil, fmt.Errorf("qrcode: module size overshoots width: %w", symscan.ErrNotFound)
		}
		left -= over
	}
	if over := top + int(float64(rows-1)*moduleSize) - bottom; over > 0 {
		if over > nudge {
			return nil, fmt.Errorf("qrcode: module size overshoots height: %w", symscan.ErrNotFound)
		}
		top -= over
	}

	bits := bitutil.NewBitMatrix(cols)
	for y := 0; y < rows; y++ {
		iy := top + int(float64(y)*moduleSize)
		for x := 0; x < cols; x++ {
			if image.Get(left+int(float64(x)*moduleSize), iy) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

// pureModuleSize walks down the diagonal from the top-left dark pixel until
// it has crossed the finder pattern's 7 modules.
func pureModuleSize(image *bitutil.BitMatrix, left, top int) (float64, error) {
	w, h := image.Width(), image.Height()
	x, y := left, top
	dark := true
	transitions := 0
	for ; x < w && y < h; x, y = x+1, y+1 {
		if dark != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			dark = !dark
		}
	}
	if x == w || y == h {
		return 0, fmt.Errorf("qrcode: finder pattern runs off the image: %w", symscan.ErrNotFound)
	}
	return float64(x-left) / 7, nil
}

var _ symscan.Reader = (*Reader)(nil)

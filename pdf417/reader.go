// Package pdf417 reads PDF417 and Macro PDF417 symbols, several to an
// image if asked.
package pdf417

import (
	"context"
	"fmt"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/pdf417/decoder"
	"github.com/ericlevine/symscan/pdf417/detector"
)

// Reader decodes PDF417 symbols. PureBarcode is ignored: the start and
// stop patterns are cheap to find.
type Reader struct{}

// NewReader returns a PDF417 Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Decode implements symscan.Reader.
func (r *Reader) Decode(image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) (*symscan.Result, error) {
	results, err := r.decode(context.Background(), image, opts, false)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// DecodeMultiple implements symscan.MultipleReader. Symbols that are found
// but fail to decode are skipped.
func (r *Reader) DecodeMultiple(ctx context.Context, image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) ([]*symscan.Result, error) {
	return r.decode(ctx, image, opts, true)
}

func (r *Reader) decode(ctx context.Context, image *symscan.BinaryBitmap, opts *symscan.DecodeOptions, multiple bool) ([]*symscan.Result, error) {
	tryHarder := opts != nil && opts.TryHarder
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}
	found, err := detector.Detect(matrix, multiple, tryHarder)
	if err != nil {
		return nil, err
	}

	var (
		results []*symscan.Result
		lastErr error
	)
	for _, v := range found.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dr, err := decoder.Decode(found.Bits,
			v[detector.CodewordsTopLeft], v[detector.CodewordsBottomLeft],
			v[detector.CodewordsTopRight], v[detector.CodewordsBottomRight],
			minCodewordWidth(v), maxCodewordWidth(v))
		if err != nil {
			lastErr = err
			continue
		}
		var points []symscan.Point
		for _, p := range v {
			if p != nil {
				points = append(points, found.Unrotate(*p))
			}
		}
		result := symscan.NewResult(dr.Text, dr.RawBytes, points, symscan.FormatPDF417)
		result.PutMetadata(symscan.MetadataErrorCorrectionLevel, dr.ECLevel)
		result.PutMetadata(symscan.MetadataErrorsCorrected, dr.ErrorsCorrected)
		result.PutMetadata(symscan.MetadataErasuresCorrected, dr.ErasuresCorrected)
		if meta, ok := dr.Other.(*decoder.ResultMetadata); ok {
			result.PutMetadata(symscan.MetadataPDF417Extra, meta)
		}
		result.PutMetadata(symscan.MetadataOrientation, found.Rotation)
		result.PutMetadata(symscan.MetadataSymbologyIdentifier, fmt.Sprintf("]L%d", dr.SymbologyModifier))
		results = append(results, result)
		if !multiple {
			break
		}
	}
	if len(results) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("pdf417: no symbol decoded: %w", symscan.ErrNotFound)
	}
	return results, nil
}

// A start pattern spans 17 modules like a codeword; a stop pattern 18.
const (
	modulesInCodeword    = 17
	modulesInStopPattern = 18
)

// minCodewordWidth and maxCodewordWidth bound the width of one codeword by
// the widths of the guard patterns on each corner.
func minCodewordWidth(v detector.Symbol) int {
	stop := func(a, b *symscan.Point) int {
		w, ok := width(a, b)
		if !ok {
			return math.MaxInt
		}
		return w * modulesInCodeword / modulesInStopPattern
	}
	start := func(a, b *symscan.Point) int {
		w, ok := width(a, b)
		if !ok {
			return math.MaxInt
		}
		return w
	}
	return min(
		start(v[detector.TopLeft], v[detector.CodewordsTopLeft]),
		stop(v[detector.CodewordsTopRight], v[detector.TopRight]),
		start(v[detector.BottomLeft], v[detector.CodewordsBottomLeft]),
		stop(v[detector.CodewordsBottomRight], v[detector.BottomRight]),
	)
}

func maxCodewordWidth(v detector.Symbol) int {
	stop := func(a, b *symscan.Point) int {
		w, _ := width(a, b)
		return w * modulesInCodeword / modulesInStopPattern
	}
	start := func(a, b *symscan.Point) int {
		w, _ := width(a, b)
		return w
	}
	return max(
		start(v[detector.TopLeft], v[detector.CodewordsTopLeft]),
		stop(v[detector.CodewordsTopRight], v[detector.TopRight]),
		start(v[detector.BottomLeft], v[detector.CodewordsBottomLeft]),
		stop(v[detector.CodewordsBottomRight], v[detector.BottomRight]),
	)
}

func width(a, b *symscan.Point) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return int(math.Abs(a.X - b.X)), true
}

var (
	_ symscan.Reader         = (*Reader)(nil)
	_ symscan.MultipleReader = (*Reader)(nil)
)

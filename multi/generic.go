// Package multi finds several symbols in one image by decoding, then
// searching the regions around each find.
package multi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericlevine/symscan"
)

const (
	// Regions narrower or shorter than this are not searched.
	minDimensionToRecur = 100
	maxDepth            = 4
)

// GenericMultipleBarcodeReader runs a single-symbol Reader over an image,
// and after every success over the regions left of, above, right of and
// below the symbol, down to maxDepth levels. Results repeating the text of
// an earlier one are dropped.
type GenericMultipleBarcodeReader struct {
	delegate symscan.Reader
	Logger   *slog.Logger
}

// NewGenericMultipleBarcodeReader wraps delegate, which is typically a
// symscan.MultiFormatReader.
func NewGenericMultipleBarcodeReader(delegate symscan.Reader) *GenericMultipleBarcodeReader {
	return &GenericMultipleBarcodeReader{delegate: delegate}
}

func (r *GenericMultipleBarcodeReader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// DecodeMultiple implements symscan.MultipleReader. Cancelling ctx stops
// further recursion and returns ctx.Err().
func (r *GenericMultipleBarcodeReader) DecodeMultiple(ctx context.Context, image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) ([]*symscan.Result, error) {
	var results []*symscan.Result
	if err := r.decode(ctx, image, opts, &results, 0, 0, 0); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, symscan.ErrNotFound
	}
	return results, nil
}

func (r *GenericMultipleBarcodeReader) decode(ctx context.Context, image *symscan.BinaryBitmap, opts *symscan.DecodeOptions,
	results *[]*symscan.Result, xOffset, yOffset, depth int) error {
	if depth > maxDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := r.delegate.Decode(image, opts)
	if err != nil {
		r.logger().Debug("multi: region yielded nothing",
			"x", xOffset, "y", yOffset, "width", image.Width(), "height", image.Height(),
			"depth", depth, "class", symscan.Classify(err))
		return nil
	}

	duplicate := false
	for _, existing := range *results {
		if existing.Text == result.Text {
			duplicate = true
			break
		}
	}
	if !duplicate {
		*results = append(*results, translate(result, xOffset, yOffset))
	}
	if len(result.Points) == 0 {
		return nil
	}

	width, height := image.Width(), image.Height()
	minX, minY := float64(width), float64(height)
	maxX, maxY := 0.0, 0.0
	for _, p := range result.Points {
		minX, minY = min(minX, p.X), min(minY, p.Y)
		maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
	}

	type region struct{ left, top, width, height int }
	var regions []region
	if minX > minDimensionToRecur {
		regions = append(regions, region{0, 0, int(minX), height})
	}
	if minY > minDimensionToRecur {
		regions = append(regions, region{0, 0, width, int(minY)})
	}
	if maxX < float64(width-minDimensionToRecur) {
		regions = append(regions, region{int(maxX), 0, width - int(maxX), height})
	}
	if maxY < float64(height-minDimensionToRecur) {
		regions = append(regions, region{0, int(maxY), width, height - int(maxY)})
	}
	for _, reg := range regions {
		cropped, err := image.Crop(reg.left, reg.top, reg.width, reg.height)
		if err != nil {
			r.logger().Debug("multi: skipping region", "error", err)
			continue
		}
		r.logger().Debug("multi: searching region",
			"x", xOffset+reg.left, "y", yOffset+reg.top, "width", reg.width, "height", reg.height, "depth", depth+1)
		err = r.decode(ctx, cropped, opts, results, xOffset+reg.left, yOffset+reg.top, depth+1)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return nil
}

// translate returns result with its points moved by the region offset.
func translate(result *symscan.Result, xOffset, yOffset int) *symscan.Result {
	if len(result.Points) == 0 || xOffset == 0 && yOffset == 0 {
		return result
	}
	points := make([]symscan.Point, len(result.Points))
	for i, p := range result.Points {
		points[i] = symscan.Point{X: p.X + float64(xOffset), Y: p.Y + float64(yOffset)}
	}
	out := symscan.NewResult(result.Text, result.RawBytes, points, result.Format)
	out.NumBits = result.NumBits
	out.Timestamp = result.Timestamp
	out.PutAllMetadata(result.Metadata)
	return out
}

var _ symscan.MultipleReader = (*GenericMultipleBarcodeReader)(nil)

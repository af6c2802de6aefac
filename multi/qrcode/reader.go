// Package qrcode finds every QR Code in an image and reassembles
// structured append sets.
package qrcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/qrcode"
	"github.com/ericlevine/symscan/qrcode/decoder"
	"github.com/ericlevine/symscan/qrcode/detector"
)

// MultiReader decodes all QR Codes in an image in one pass over the finder
// patterns. Members of a structured append set are merged into one Result
// per parity value, in sequence order.
type MultiReader struct {
	Logger *slog.Logger
}

// NewMultiReader returns a MultiReader logging to slog.Default.
func NewMultiReader() *MultiReader {
	return &MultiReader{}
}

func (r *MultiReader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Decode implements symscan.Reader by returning the first symbol found.
func (r *MultiReader) Decode(image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) (*symscan.Result, error) {
	return qrcode.NewReader().Decode(image, opts)
}

// DecodeMultiple implements symscan.MultipleReader.
func (r *MultiReader) DecodeMultiple(ctx context.Context, image *symscan.BinaryBitmap, opts *symscan.DecodeOptions) ([]*symscan.Result, error) {
	if opts == nil {
		opts = &symscan.DecodeOptions{}
	}
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}
	found, err := detector.NewDetector(matrix).DetectMulti(opts.TryHarder)
	if err != nil {
		return nil, err
	}

	var results []*symscan.Result
	for _, d := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dr, err := decoder.Decode(d.Bits, opts.CharacterSet)
		if err != nil {
			r.logger().Debug("qrcode: candidate failed to decode", "class", symscan.Classify(err), "error", err)
			continue
		}
		results = append(results, qrcode.NewResult(dr, d.Points))
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("qrcode: %d candidates, none decoded: %w", len(found), symscan.ErrNotFound)
	}
	return mergeStructuredAppend(results), nil
}

// mergeStructuredAppend replaces the parts of each structured append set
// with a single Result carrying their concatenated text, raw bytes and byte
// segments. Sets keep the position of their first part; merged results have
// no points.
func mergeStructuredAppend(results []*symscan.Result) []*symscan.Result {
	var (
		out   []*symscan.Result
		order []int
		sets  = map[int][]*symscan.Result{}
		slot  = map[int]int{}
	)
	for _, res := range results {
		parity, ok := res.Metadata[symscan.MetadataStructuredAppendParity].(int)
		if !ok {
			out = append(out, res)
			continue
		}
		if _, seen := sets[parity]; !seen {
			slot[parity] = len(out)
			order = append(order, parity)
			out = append(out, nil)
		}
		sets[parity] = append(sets[parity], res)
	}
	for _, parity := range order {
		out[slot[parity]] = merge(sets[parity], parity)
	}
	return out
}

func merge(parts []*symscan.Result, parity int) *symscan.Result {
	sort.SliceStable(parts, func(a, b int) bool {
		return sequence(parts[a]) < sequence(parts[b])
	})
	var (
		text     bytes.Buffer
		raw      []byte
		segments []byte
		numBits  int
	)
	for _, p := range parts {
		text.WriteString(p.Text)
		raw = append(raw, p.RawBytes...)
		numBits += p.NumBits
		if segs, ok := p.Metadata[symscan.MetadataByteSegments].([][]byte); ok {
			for _, s := range segs {
				segments = append(segments, s...)
			}
		}
	}
	merged := symscan.NewResult(text.String(), raw, nil, symscan.FormatQRCode)
	merged.NumBits = numBits
	if len(segments) > 0 {
		merged.PutMetadata(symscan.MetadataByteSegments, [][]byte{segments})
	}
	merged.PutMetadata(symscan.MetadataStructuredAppendParity, parity)
	if id, ok := parts[0].Metadata[symscan.MetadataSymbologyIdentifier]; ok {
		merged.PutMetadata(symscan.MetadataSymbologyIdentifier, id)
	}
	return merged
}

// sequence is the position of a part within its set, taken from the high
// nibble of the structured append sequence byte.
func sequence(r *symscan.Result) int {
	seq, _ := r.Metadata[symscan.MetadataStructuredAppendSequence].(int)
	return seq >> 4
}

var (
	_ symscan.Reader         = (*MultiReader)(nil)
	_ symscan.MultipleReader = (*MultiReader)(nil)
)

// Package internal holds the hand-off types between the detector, decoder and
// reader layers of each symbology.
package internal

// DecoderResult is what a symbology decoder recovers from a sampled grid.
type DecoderResult struct {
	RawBytes []byte
	NumBits  int
	Text     string

	// ByteSegments holds the raw bytes of each byte-mode segment.
	ByteSegments [][]byte
	ECLevel      string

	ErrorsCorrected   int
	ErasuresCorrected int

	// Other carries symbology-specific extras, such as PDF417 macro data.
	Other any

	// StructuredAppendSequence and StructuredAppendParity are -1 when the
	// symbol is not part of a structured append set.
	StructuredAppendSequence int
	StructuredAppendParity   int

	// SymbologyModifier is the digit after "]Q", "]d", "]z" or "]L" in the
	// AIM symbology identifier.
	SymbologyModifier int
}

// NewDecoderResult returns a result with NumBits derived from rawBytes and no
// structured append information.
func NewDecoderResult(rawBytes []byte, text string) *DecoderResult {
	return &DecoderResult{
		RawBytes:                 rawBytes,
		NumBits:                  8 * len(rawBytes),
		Text:                     text,
		StructuredAppendSequence: -1,
		StructuredAppendParity:   -1,
	}
}

// HasStructuredAppend reports whether the symbol belongs to a structured
// append set.
func (r *DecoderResult) HasStructuredAppend() bool {
	return r.StructuredAppendSequence >= 0 && r.StructuredAppendParity >= 0
}

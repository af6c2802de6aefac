package symscan

import "errors"

// The three ways a decode attempt can fail. Each is a plain package-level
// value: readers probe many candidate regions per image, so failures must be
// cheap to produce. Wrap them with fmt.Errorf("...: %w", ErrX) to add detail
// and test with errors.Is.
var (
	// ErrNotFound means no symbol was located. Callers may retry with
	// another crop, rotation or binarizer.
	ErrNotFound = errors.New("barcode not found")

	// ErrFormat means a symbol was located but its structure is
	// self-inconsistent: bad format or version information, illegal
	// codewords, or a bitstream that runs past its declared length.
	ErrFormat = errors.New("format error")

	// ErrChecksum means error correction failed: too many damaged codewords.
	ErrChecksum = errors.New("checksum error")
)

// Classify names the failure class of err for logs and metric labels.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrChecksum):
		return "checksum"
	default:
		return "other"
	}
}

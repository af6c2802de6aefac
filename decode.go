package symscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DecodeOptions tunes a decode attempt. The zero value is a reasonable
// default; a nil *DecodeOptions means the zero value.
type DecodeOptions struct {
	// PureBarcode says the image holds a single unrotated symbol with little
	// or no border, so detection can be skipped.
	PureBarcode bool

	// TryHarder trades speed for a more exhaustive search.
	TryHarder bool

	// PossibleFormats restricts which symbologies are tried. Empty means all.
	PossibleFormats []Format

	// CharacterSet overrides the charset guessed for byte data that carries
	// no ECI designator.
	CharacterSet string

	// AlsoInverted retries on a black/white inverted copy of the image.
	AlsoInverted bool
}

// Reader decodes at most one symbol from an image. Implementations keep no
// state between calls and are safe for concurrent use.
type Reader interface {
	Decode(image *BinaryBitmap, opts *DecodeOptions) (*Result, error)
}

// MultipleReader decodes every symbol it can find in an image. The context
// is checked between sub-searches so a caller can abandon a long scan.
type MultipleReader interface {
	DecodeMultiple(ctx context.Context, image *BinaryBitmap, opts *DecodeOptions) ([]*Result, error)
}

// ReaderFactory builds a Reader for one symbology.
type ReaderFactory func() Reader

var (
	registryMu sync.RWMutex
	registry   = map[Format]ReaderFactory{}
)

// RegisterReader makes a symbology available to MultiFormatReader. Symbology
// packages call it from init.
func RegisterReader(format Format, factory ReaderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[format] = factory
}

// NewReader returns a Reader for format, or an error if its package was not
// imported.
func NewReader(format Format) (Reader, error) {
	registryMu.RLock()
	factory, ok := registry[format]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no reader registered for %s", format)
	}
	return factory(), nil
}

// MultiFormatReader tries each registered symbology in AllFormats order and
// returns the first success.
type MultiFormatReader struct {
	Logger *slog.Logger
}

// NewMultiFormatReader returns a MultiFormatReader logging to slog.Default.
func NewMultiFormatReader() *MultiFormatReader {
	return &MultiFormatReader{}
}

func (r *MultiFormatReader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *MultiFormatReader) readers(opts *DecodeOptions) []Reader {
	formats := AllFormats
	if opts != nil && len(opts.PossibleFormats) > 0 {
		formats = opts.PossibleFormats
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	var readers []Reader
	for _, f := range formats {
		if factory, ok := registry[f]; ok {
			readers = append(readers, factory())
		}
	}
	return readers
}

// Decode implements Reader.
func (r *MultiFormatReader) Decode(image *BinaryBitmap, opts *DecodeOptions) (*Result, error) {
	readers := r.readers(opts)
	if len(readers) == 0 {
		return nil, fmt.Errorf("no readers registered: %w", ErrNotFound)
	}
	result, err := r.try(readers, image, opts)
	if err == nil || opts == nil || !opts.AlsoInverted {
		return result, err
	}
	inverted, ierr := image.Inverted()
	if ierr != nil {
		return nil, ierr
	}
	r.logger().Debug("retrying on inverted image")
	return r.try(readers, inverted, opts)
}

// try returns the first success. On failure it reports the most informative
// error seen: a checksum or format failure means something was found, which
// is more useful to the caller than not-found.
func (r *MultiFormatReader) try(readers []Reader, image *BinaryBitmap, opts *DecodeOptions) (*Result, error) {
	best := ErrNotFound
	for _, reader := range readers {
		result, err := reader.Decode(image, opts)
		if err == nil {
			return result, nil
		}
		r.logger().Debug("reader failed", "reader", fmt.Sprintf("%T", reader), "class", Classify(err), "error", err)
		if errors.Is(best, ErrNotFound) && !errors.Is(err, ErrNotFound) {
			best = err
		}
	}
	return nil, best
}

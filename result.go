// Package symscan locates and decodes two-dimensional matrix barcodes (QR
// Code, Data Matrix, Aztec and PDF417) in binarized images.
//
// The root package holds the types shared by every symbology: the error
// classes, points, results, the binary bitmap handed to readers and the
// reader registry. Symbology packages register themselves on import:
//
//	import (
//		"github.com/ericlevine/symscan"
//		_ "github.com/ericlevine/symscan/qrcode"
//	)
package symscan

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies a symbology.
type Format int

const (
	FormatQRCode Format = iota
	FormatDataMatrix
	FormatAztec
	FormatPDF417
)

// AllFormats lists the supported symbologies in the order readers are tried.
var AllFormats = []Format{FormatQRCode, FormatDataMatrix, FormatAztec, FormatPDF417}

var formatNames = map[Format]string{
	FormatQRCode:     "QR_CODE",
	FormatDataMatrix: "DATA_MATRIX",
	FormatAztec:      "AZTEC",
	FormatPDF417:     "PDF_417",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseFormat accepts the names produced by String, case-insensitively, with
// or without underscores ("qrcode", "QR_CODE", "pdf417").
func ParseFormat(name string) (Format, error) {
	norm := strings.ToUpper(strings.NewReplacer("_", "", "-", "").Replace(name))
	for f, n := range formatNames {
		if strings.ReplaceAll(n, "_", "") == norm {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown barcode format %q", name)
}

// MetadataKey names an entry of Result.Metadata.
type MetadataKey int

const (
	MetadataOrientation MetadataKey = iota
	MetadataByteSegments
	MetadataErrorCorrectionLevel
	MetadataErrorsCorrected
	MetadataErasuresCorrected
	MetadataPDF417Extra
	MetadataStructuredAppendSequence
	MetadataStructuredAppendParity
	MetadataSymbologyIdentifier
)

var metadataNames = [...]string{
	"orientation",
	"byte_segments",
	"error_correction_level",
	"errors_corrected",
	"erasures_corrected",
	"pdf417_extra",
	"structured_append_sequence",
	"structured_append_parity",
	"symbology_identifier",
}

func (k MetadataKey) String() string {
	if int(k) < len(metadataNames) {
		return metadataNames[k]
	}
	return fmt.Sprintf("metadata(%d)", int(k))
}

// Result is a decoded symbol.
type Result struct {
	Text     string
	RawBytes []byte
	NumBits  int
	// Points locate the symbol in image coordinates. Their meaning and order
	// depend on the symbology.
	Points    []Point
	Format    Format
	Metadata  map[MetadataKey]any
	Timestamp time.Time
}

// NewResult builds a Result stamped with the current time.
func NewResult(text string, rawBytes []byte, points []Point, format Format) *Result {
	return &Result{
		Text:      text,
		RawBytes:  rawBytes,
		NumBits:   8 * len(rawBytes),
		Points:    points,
		Format:    format,
		Metadata:  make(map[MetadataKey]any),
		Timestamp: time.Now(),
	}
}

// PutMetadata records a metadata entry.
func (r *Result) PutMetadata(key MetadataKey, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[MetadataKey]any)
	}
	r.Metadata[key] = value
}

// PutAllMetadata copies every entry of other into r.
func (r *Result) PutAllMetadata(other map[MetadataKey]any) {
	for k, v := range other {
		r.PutMetadata(k, v)
	}
}

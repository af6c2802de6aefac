package symscan_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/binarizer"
	"github.com/ericlevine/symscan/bitutil"

	_ "github.com/ericlevine/symscan/aztec"
	_ "github.com/ericlevine/symscan/datamatrix"
	_ "github.com/ericlevine/symscan/pdf417"
	_ "github.com/ericlevine/symscan/qrcode"
)

func loadGrid(tb testing.TB, path string) *bitutil.BitMatrix {
	tb.Helper()
	data, err := os.ReadFile(path)
	require.NoError(tb, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(tb, err)
	return m
}

// imageBitmap renders a grid to pixels and runs it through the luminance
// and hybrid binarizer stages a photographed symbol would take.
func imageBitmap(tb testing.TB, m *bitutil.BitMatrix, scale, margin int) *symscan.BinaryBitmap {
	tb.Helper()
	source := symscan.NewImageLuminanceSource(symscan.MatrixImage(m, scale, margin))
	return symscan.NewBinaryBitmap(binarizer.NewHybrid(source))
}

var symbols = []struct {
	path   string
	format symscan.Format
	text   string
}{
	{"qrcode/testdata/hello-v1-m.txt", symscan.FormatQRCode, "HELLO WORLD"},
	{"qrcode/testdata/url-v7-q.txt", symscan.FormatQRCode, "https://example.com/symscan/fixtures?version=7&level=Q"},
	{"datamatrix/testdata/hello-16x16.txt", symscan.FormatDataMatrix, "Hello, DM!"},
	{"datamatrix/testdata/c40-12x26.txt", symscan.FormatDataMatrix, "SYMSCAN 2026"},
	{"aztec/testdata/full-2layer-30blocks.txt", symscan.FormatAztec, "88888TTTTTTTTTTTTTTTTTTTTTTTTTTTTTT"},
	{"pdf417/testdata/text-6x3.txt", symscan.FormatPDF417, "PDF417 Test, ok?"},
	{"pdf417/testdata/ec-level3-9x4.txt", symscan.FormatPDF417, "Symscan reads PDF417 in Go."},
}

func TestMultiFormatReaderDecodesEverySymbology(t *testing.T) {
	for _, s := range symbols {
		t.Run(s.path, func(t *testing.T) {
			bitmap := imageBitmap(t, loadGrid(t, s.path), 3, 10)
			res, err := symscan.NewMultiFormatReader().Decode(bitmap, nil)
			require.NoError(t, err)
			assert.Equal(t, s.format, res.Format)
			assert.Equal(t, s.text, res.Text)
			assert.NotEmpty(t, res.Points)
			assert.False(t, res.Timestamp.IsZero())
		})
	}
}

func TestPossibleFormatsRestrictsReaders(t *testing.T) {
	bitmap := imageBitmap(t, loadGrid(t, "qrcode/testdata/hello-v1-m.txt"), 3, 10)
	opts := &symscan.DecodeOptions{PossibleFormats: []symscan.Format{symscan.FormatDataMatrix, symscan.FormatAztec}}
	_, err := symscan.NewMultiFormatReader().Decode(bitmap, opts)
	assert.ErrorIs(t, err, symscan.ErrNotFound)

	opts.PossibleFormats = append(opts.PossibleFormats, symscan.FormatQRCode)
	res, err := symscan.NewMultiFormatReader().Decode(bitmap, opts)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", res.Text)
}

func TestAlsoInverted(t *testing.T) {
	bitmap := imageBitmap(t, loadGrid(t, "datamatrix/testdata/hello-16x16.txt"), 3, 10)
	inverted, err := bitmap.Inverted()
	require.NoError(t, err)

	_, err = symscan.NewMultiFormatReader().Decode(inverted, nil)
	require.Error(t, err)

	res, err := symscan.NewMultiFormatReader().Decode(inverted, &symscan.DecodeOptions{AlsoInverted: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello, DM!", res.Text)
}

func TestNewReader(t *testing.T) {
	for _, f := range symscan.AllFormats {
		r, err := symscan.NewReader(f)
		require.NoError(t, err, f)
		assert.NotNil(t, r)
	}
	_, err := symscan.NewReader(symscan.Format(42))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]symscan.Format{
		"qrcode": symscan.FormatQRCode, "QR_CODE": symscan.FormatQRCode,
		"data-matrix": symscan.FormatDataMatrix, "Aztec": symscan.FormatAztec,
		"pdf417": symscan.FormatPDF417, "PDF_417": symscan.FormatPDF417,
	} {
		got, err := symscan.ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
		assert.Equal(t, want, must(symscan.ParseFormat(got.String())))
	}
	_, err := symscan.ParseFormat("ean13")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", symscan.Format(42).String())
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("no finder: %w", symscan.ErrNotFound), "not_found"},
		{fmt.Errorf("bad mode: %w", symscan.ErrFormat), "format"},
		{fmt.Errorf("block 2: %w", symscan.ErrChecksum), "checksum"},
		{errors.New("disk on fire"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, symscan.Classify(tt.err))
	}
}

func TestCrop(t *testing.T) {
	m := bitutil.NewBitMatrixWithSize(10, 6)
	m.Set(4, 3)
	bitmap := symscan.NewBinaryBitmapFromMatrix(m)

	cropped, err := bitmap.Crop(3, 2, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, cropped.Width())
	assert.Equal(t, 4, cropped.Height())
	bits, err := cropped.BlackMatrix()
	require.NoError(t, err)
	assert.True(t, bits.Get(1, 1))
	assert.False(t, bits.Get(0, 0))

	for _, r := range [][4]int{{-1, 0, 2, 2}, {0, 0, 11, 1}, {8, 5, 3, 1}, {0, 0, 0, 1}} {
		_, err := bitmap.Crop(r[0], r[1], r[2], r[3])
		assert.Error(t, err, "crop %v", r)
	}
}

func TestResultMetadata(t *testing.T) {
	res := symscan.NewResult("x", []byte{1, 2}, nil, symscan.FormatAztec)
	assert.Equal(t, 16, res.NumBits)
	res.PutAllMetadata(map[symscan.MetadataKey]any{
		symscan.MetadataErrorsCorrected:     2,
		symscan.MetadataSymbologyIdentifier: "]z0",
	})
	assert.Equal(t, 2, res.Metadata[symscan.MetadataErrorsCorrected])
	assert.Equal(t, "symbology_identifier", symscan.MetadataSymbologyIdentifier.String())
	assert.Equal(t, "metadata(99)", symscan.MetadataKey(99).String())

	var empty symscan.Result
	empty.PutMetadata(symscan.MetadataOrientation, 90)
	assert.Equal(t, 90, empty.Metadata[symscan.MetadataOrientation])
}

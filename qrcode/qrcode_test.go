package qrcode

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/binarizer"
	"github.com/ericlevine/symscan/bitutil"
)

func loadFixture(t *testing.T, name string) *bitutil.BitMatrix {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)
	return m
}

// magnify scales every module to factor x factor pixels inside a white
// border of margin pixels.
func magnify(t *testing.T, m *bitutil.BitMatrix, factor, margin int) *bitutil.BitMatrix {
	t.Helper()
	out := bitutil.NewBitMatrixWithSize(m.Width()*factor+2*margin, m.Height()*factor+2*margin)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Get(x, y) {
				require.NoError(t, out.SetRegion(margin+x*factor, margin+y*factor, factor, factor))
			}
		}
	}
	return out
}

func transpose(m *bitutil.BitMatrix) *bitutil.BitMatrix {
	out := bitutil.NewBitMatrixWithSize(m.Height(), m.Width())
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Get(x, y) {
				out.Set(y, x)
			}
		}
	}
	return out
}

var fixtures = []struct {
	file, text, level, aim string
	points                 int
}{
	{"hello-v1-m.txt", "HELLO WORLD", "M", "]Q1", 3},
	{"digits-v2-h.txt", "31415926535897932384626", "H", "]Q1", 4},
	{"url-v7-q.txt", "https://example.com/symscan/fixtures?version=7&level=Q", "Q", "]Q1", 4},
	{"sa-eci-v2-l.txt", "Grüße, Welt", "L", "]Q2", 4},
}

func TestReaderDecodesFixtures(t *testing.T) {
	for _, f := range fixtures {
		for _, rot := range []int{0, 90, 180, 270} {
			t.Run(fmt.Sprintf("%s/rot%d", f.file, rot), func(t *testing.T) {
				m := magnify(t, loadFixture(t, f.file), 4, 16)
				require.NoError(t, m.Rotate(rot))
				res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
				require.NoError(t, err)
				assert.Equal(t, f.text, res.Text)
				assert.Equal(t, symscan.FormatQRCode, res.Format)
				assert.Equal(t, f.level, res.Metadata[symscan.MetadataErrorCorrectionLevel])
				assert.Equal(t, f.aim, res.Metadata[symscan.MetadataSymbologyIdentifier])
				assert.Equal(t, 0, res.Metadata[symscan.MetadataErrorsCorrected])
				assert.Len(t, res.Points, f.points)
			})
		}
	}
}

func TestReaderFinderPoints(t *testing.T) {
	m := magnify(t, loadFixture(t, "hello-v1-m.txt"), 4, 16)
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	require.Len(t, res.Points, 3)

	// bottom-left, top-left, top-right at module 3.5 from each corner
	want := []symscan.Point{{X: 30, Y: 86}, {X: 30, Y: 30}, {X: 86, Y: 30}}
	for i, p := range res.Points {
		assert.InDelta(t, want[i].X, p.X, 1.5, "point %d", i)
		assert.InDelta(t, want[i].Y, p.Y, 1.5, "point %d", i)
	}
}

func TestReaderMirrored(t *testing.T) {
	m := transpose(magnify(t, loadFixture(t, "hello-v1-m.txt"), 4, 16))
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", res.Text)

	// the bottom-left finder of the printed symbol is top-right in the image
	require.Len(t, res.Points, 3)
	assert.InDelta(t, 86, res.Points[0].X, 1.5)
	assert.InDelta(t, 30, res.Points[0].Y, 1.5)
	assert.InDelta(t, 30, res.Points[2].X, 1.5)
	assert.InDelta(t, 86, res.Points[2].Y, 1.5)
}

func TestReaderStructuredAppendMetadata(t *testing.T) {
	m := magnify(t, loadFixture(t, "sa-eci-v2-l.txt"), 3, 12)
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	assert.Equal(t, 0x11, res.Metadata[symscan.MetadataStructuredAppendSequence])
	assert.Equal(t, 0x5A, res.Metadata[symscan.MetadataStructuredAppendParity])
	assert.Equal(t, [][]byte{[]byte("Grüße, Welt")}, res.Metadata[symscan.MetadataByteSegments])
}

func TestReaderPureBarcode(t *testing.T) {
	opts := &symscan.DecodeOptions{PureBarcode: true}
	for _, f := range fixtures {
		t.Run(f.file, func(t *testing.T) {
			m := magnify(t, loadFixture(t, f.file), 3, 9)
			res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), opts)
			require.NoError(t, err)
			assert.Equal(t, f.text, res.Text)
			assert.Empty(t, res.Points)
		})
	}
}

func TestReaderPureBarcodeRejectsBlank(t *testing.T) {
	m := bitutil.NewBitMatrixWithSize(60, 60)
	_, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), &symscan.DecodeOptions{PureBarcode: true})
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestReaderThroughImagePipeline(t *testing.T) {
	img := symscan.MatrixImage(loadFixture(t, "url-v7-q.txt"), 3, 4)
	bitmap := symscan.NewBinaryBitmap(binarizer.NewHybrid(symscan.NewImageLuminanceSource(img)))
	res, err := NewReader().Decode(bitmap, &symscan.DecodeOptions{TryHarder: true})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/symscan/fixtures?version=7&level=Q", res.Text)
}

func TestReaderCorrectsDamage(t *testing.T) {
	grid := loadFixture(t, "url-v7-q.txt")
	// a scratch through the data region
	for x := 10; x < 30; x++ {
		grid.Flip(x, 30)
	}
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(magnify(t, grid, 4, 16)), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/symscan/fixtures?version=7&level=Q", res.Text)
	assert.Positive(t, res.Metadata[symscan.MetadataErrorsCorrected])
}

func TestReaderBlankImage(t *testing.T) {
	m := bitutil.NewBitMatrixWithSize(120, 120)
	_, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestRegistered(t *testing.T) {
	r, err := symscan.NewReader(symscan.FormatQRCode)
	require.NoError(t, err)
	assert.IsType(t, &Reader{}, r)
}

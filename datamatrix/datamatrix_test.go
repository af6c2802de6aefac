package datamatrix

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

var fixtures = []struct {
	file, text, aim string
}{
	{"digits-10x10.txt", "123456", "]d1"},
	{"corner1-14x14.txt", "Symscan!", "]d1"},
	{"hello-16x16.txt", "Hello, DM!", "]d1"},
	{"gs1-16x16.txt", "\x1d0103453120000011", "]d2"},
	{"modes-20x20.txt", "symbolX12*ABEDI.é", "]d1"},
	{"eci-base256-24x24.txt", "Grüße, Welt", "]d4"},
	{"macro-sa-52x52.txt", "[)>\x1e05\x1dABC\x1e\x04", "]d1"},
	{"corner3-8x18.txt", "8x18", "]d1"},
	{"c40-12x26.txt", "SYMSCAN 2026", "]d1"},
	{"dmre-8x48.txt", "DMRE 8x48", "]d1"},
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
				assert.Equal(t, symscan.FormatDataMatrix, res.Format)
				assert.Equal(t, f.aim, res.Metadata[symscan.MetadataSymbologyIdentifier])
				assert.Equal(t, 0, res.Metadata[symscan.MetadataErrorsCorrected])
				assert.Len(t, res.Points, 4)
			})
		}
	}
}

func TestReaderPoints(t *testing.T) {
	m := magnify(t, loadFixture(t, "hello-16x16.txt"), 4, 16)
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	// module centers of the top-left, bottom-left, bottom-right and
	// top-right corners
	want := []symscan.Point{{X: 18, Y: 18}, {X: 18, Y: 78}, {X: 78, Y: 78}, {X: 78, Y: 18}}
	require.Len(t, res.Points, 4)
	for i, p := range res.Points {
		assert.InDelta(t, want[i].X, p.X, 2, "point %d", i)
		assert.InDelta(t, want[i].Y, p.Y, 2, "point %d", i)
	}
}

func TestReaderMetadata(t *testing.T) {
	m := magnify(t, loadFixture(t, "macro-sa-52x52.txt"), 4, 16)
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	assert.Equal(t, 0x21, res.Metadata[symscan.MetadataStructuredAppendSequence])
	assert.Equal(t, 17<<8|42, res.Metadata[symscan.MetadataStructuredAppendParity])

	m = magnify(t, loadFixture(t, "eci-base256-24x24.txt"), 4, 16)
	res, err = NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("Grüße, Welt")}, res.Metadata[symscan.MetadataByteSegments])
	assert.NotContains(t, res.Metadata, symscan.MetadataStructuredAppendSequence)
}

func TestReaderPureBarcode(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.file, func(t *testing.T) {
			m := magnify(t, loadFixture(t, f.file), 3, 6)
			res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(m), &symscan.DecodeOptions{PureBarcode: true})
			require.NoError(t, err)
			assert.Equal(t, f.text, res.Text)
			assert.Empty(t, res.Points)
		})
	}
}

func TestReaderImagePipeline(t *testing.T) {
	img := symscan.MatrixImage(loadFixture(t, "hello-16x16.txt"), 4, 4)
	src := symscan.NewImageLuminanceSource(img)
	res, err := NewReader().Decode(symscan.NewBinaryBitmap(binarizer.NewHybrid(src)), &symscan.DecodeOptions{TryHarder: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello, DM!", res.Text)
}

func TestReaderCorrectsDamage(t *testing.T) {
	grid := loadFixture(t, "eci-base256-24x24.txt")
	for x := 6; x < 10; x++ {
		grid.Flip(x, 12)
	}
	res, err := NewReader().Decode(symscan.NewBinaryBitmapFromMatrix(magnify(t, grid, 4, 16)), nil)
	require.NoError(t, err)
	assert.Equal(t, "Grüße, Welt", res.Text)
	assert.Positive(t, res.Metadata[symscan.MetadataErrorsCorrected])
}

func TestReaderBlankImage(t *testing.T) {
	blank := symscan.NewBinaryBitmapFromMatrix(bitutil.NewBitMatrix(120))
	_, err := NewReader().Decode(blank, nil)
	require.ErrorIs(t, err, symscan.ErrNotFound)
	_, err = NewReader().Decode(blank, &symscan.DecodeOptions{PureBarcode: true})
	require.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestRegistered(t *testing.T) {
	r, err := symscan.NewReader(symscan.FormatDataMatrix)
	require.NoError(t, err)
	assert.IsType(t, &Reader{}, r)
}

package multi

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/qrcode"
)

func loadFixture(t *testing.T, name string) *bitutil.BitMatrix {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)
	return m
}

// place draws the symbols left to right, factor pixels per module, with
// margin white pixels around and between them.
func place(t *testing.T, factor, margin int, symbols ...*bitutil.BitMatrix) *bitutil.BitMatrix {
	t.Helper()
	w, h := margin, 0
	for _, m := range symbols {
		w += m.Width()*factor + margin
		h = max(h, m.Height()*factor)
	}
	out := bitutil.NewBitMatrixWithSize(w, h+2*margin)
	left := margin
	for _, m := range symbols {
		for y := 0; y < m.Height(); y++ {
			for x := 0; x < m.Width(); x++ {
				if m.Get(x, y) {
					require.NoError(t, out.SetRegion(left+x*factor, margin+y*factor, factor, factor))
				}
			}
		}
		left += m.Width()*factor + margin
	}
	return out
}

func TestGenericFindsBothSymbols(t *testing.T) {
	m := place(t, 4, 120, loadFixture(t, "lone-v1-m.txt"), loadFixture(t, "sa-part0-v1-l.txt"))
	r := NewGenericMultipleBarcodeReader(qrcode.NewReader())

	results, err := r.DecodeMultiple(context.Background(), symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byText := map[string]*symscan.Result{}
	for _, res := range results {
		byText[res.Text] = res
	}
	require.Contains(t, byText, "LONE SYMBOL")
	require.Contains(t, byText, "Hello, ")

	// points are in whole-image coordinates whichever symbol came from a crop
	left := byText["LONE SYMBOL"].Points
	require.Len(t, left, 3)
	assert.InDelta(t, 134, left[1].X, 2)
	assert.InDelta(t, 134, left[1].Y, 2)
	right := byText["Hello, "].Points
	require.Len(t, right, 3)
	assert.InDelta(t, 338, right[1].X, 2)
	assert.InDelta(t, 134, right[1].Y, 2)
	assert.Equal(t, 0x01, byText["Hello, "].Metadata[symscan.MetadataStructuredAppendSequence])
}

func TestGenericDropsDuplicates(t *testing.T) {
	lone := loadFixture(t, "lone-v1-m.txt")
	m := place(t, 4, 120, lone, lone)
	results, err := NewGenericMultipleBarcodeReader(qrcode.NewReader()).
		DecodeMultiple(context.Background(), symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "LONE SYMBOL", results[0].Text)
}

func TestGenericNothingFound(t *testing.T) {
	m := bitutil.NewBitMatrixWithSize(300, 300)
	_, err := NewGenericMultipleBarcodeReader(qrcode.NewReader()).
		DecodeMultiple(context.Background(), symscan.NewBinaryBitmapFromMatrix(m), nil)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestGenericCancelled(t *testing.T) {
	m := place(t, 4, 120, loadFixture(t, "lone-v1-m.txt"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenericMultipleBarcodeReader(qrcode.NewReader()).
		DecodeMultiple(ctx, symscan.NewBinaryBitmapFromMatrix(m), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslate(t *testing.T) {
	res := symscan.NewResult("x", []byte{1}, []symscan.Point{{X: 1, Y: 2}}, symscan.FormatAztec)
	res.PutMetadata(symscan.MetadataErrorsCorrected, 3)

	moved := translate(res, 10, 20)
	assert.Equal(t, []symscan.Point{{X: 11, Y: 22}}, moved.Points)
	assert.Equal(t, 3, moved.Metadata[symscan.MetadataErrorsCorrected])
	assert.Equal(t, symscan.Point{X: 1, Y: 2}, res.Points[0])
	assert.Same(t, res, translate(res, 0, 0))
}

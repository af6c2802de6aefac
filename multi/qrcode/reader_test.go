package qrcode

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
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

// row lays the symbols out left to right, factor pixels per module, margin
// pixels apart.
func row(t *testing.T, factor, margin int, symbols ...*bitutil.BitMatrix) *bitutil.BitMatrix {
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

func TestDecodeMultipleMergesStructuredAppend(t *testing.T) {
	m := row(t, 4, 100,
		loadFixture(t, "sa-part1-v1-l.txt"),
		loadFixture(t, "lone-v1-m.txt"),
		loadFixture(t, "sa-part0-v1-l.txt"))

	results, err := NewMultiReader().DecodeMultiple(context.Background(), symscan.NewBinaryBitmapFromMatrix(m), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var texts []string
	for _, res := range results {
		texts = append(texts, res.Text)
	}
	assert.ElementsMatch(t, []string{"LONE SYMBOL", "Hello, multi!"}, texts)

	for _, res := range results {
		if res.Text != "Hello, multi!" {
			assert.Len(t, res.Points, 3)
			continue
		}
		assert.Empty(t, res.Points)
		assert.Equal(t, 0x06, res.Metadata[symscan.MetadataStructuredAppendParity])
		assert.Equal(t, [][]byte{[]byte("Hello, multi!")}, res.Metadata[symscan.MetadataByteSegments])
		assert.Equal(t, symscan.FormatQRCode, res.Format)
	}
}

func TestDecodeMultipleNothing(t *testing.T) {
	m := bitutil.NewBitMatrixWithSize(200, 200)
	_, err := NewMultiReader().DecodeMultiple(context.Background(), symscan.NewBinaryBitmapFromMatrix(m), nil)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestDecodeMultipleCancelled(t *testing.T) {
	m := row(t, 4, 100, loadFixture(t, "lone-v1-m.txt"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMultiReader().DecodeMultiple(ctx, symscan.NewBinaryBitmapFromMatrix(m), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeStructuredAppend(t *testing.T) {
	part := func(text string, seq, parity int) *symscan.Result {
		r := symscan.NewResult(text, []byte(text), nil, symscan.FormatQRCode)
		r.PutMetadata(symscan.MetadataStructuredAppendSequence, seq)
		r.PutMetadata(symscan.MetadataStructuredAppendParity, parity)
		r.PutMetadata(symscan.MetadataByteSegments, [][]byte{[]byte(text)})
		return r
	}
	plain := symscan.NewResult("plain", nil, nil, symscan.FormatQRCode)

	out := mergeStructuredAppend([]*symscan.Result{
		part("c", 0x22, 7), plain, part("a", 0x02, 7), part("x", 0x11, 9), part("b", 0x12, 7), part("w", 0x01, 9),
	})
	require.Len(t, out, 3)
	assert.Equal(t, "abc", out[0].Text)
	assert.Equal(t, []byte("abc"), out[0].RawBytes)
	assert.Equal(t, [][]byte{[]byte("abc")}, out[0].Metadata[symscan.MetadataByteSegments])
	assert.Same(t, plain, out[1])
	assert.Equal(t, "wx", out[2].Text)
	assert.Equal(t, 9, out[2].Metadata[symscan.MetadataStructuredAppendParity])

	single := []*symscan.Result{plain}
	assert.Equal(t, single, mergeStructuredAppend(single))
}

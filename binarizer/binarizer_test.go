package binarizer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

func pattern(n int) *bitutil.BitMatrix {
	m := bitutil.NewBitMatrix(n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if (x+2*y)%3 == 0 {
				m.Set(x, y)
			}
		}
	}
	return m
}

// expected is the pixel-level matrix MatrixImage draws for m.
func expected(m *bitutil.BitMatrix, scale, margin int) *bitutil.BitMatrix {
	img := symscan.MatrixImage(m, scale, margin)
	b := img.Bounds()
	out := bitutil.NewBitMatrixWithSize(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if img.GrayAt(x, y).Y < 128 {
				out.Set(x, y)
			}
		}
	}
	return out
}

func TestGlobalBinarizesCleanImage(t *testing.T) {
	m := pattern(13)
	src := symscan.NewImageLuminanceSource(symscan.MatrixImage(m, 4, 1))
	got, err := NewGlobal(src).BlackMatrix()
	require.NoError(t, err)
	assert.True(t, expected(m, 4, 1).Equal(got))
}

func TestGlobalRejectsFlatImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 30, 30))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	_, err := NewGlobal(symscan.NewImageLuminanceSource(img)).BlackMatrix()
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestValley(t *testing.T) {
	hist := make([]int, 32)
	hist[25] = 900
	_, err := valley(hist)
	require.ErrorIs(t, err, symscan.ErrNotFound, "one occupied bucket")

	hist[26] = 40
	_, err = valley(hist)
	require.ErrorIs(t, err, symscan.ErrNotFound, "neighbouring buckets")

	hist[3] = 300
	black, err := valley(hist)
	require.NoError(t, err)
	assert.Greater(t, black, 3<<histShift)
	assert.Less(t, black, 25<<histShift)
}

func TestHybridBinarizesCleanImage(t *testing.T) {
	m := pattern(13)
	src := symscan.NewImageLuminanceSource(symscan.MatrixImage(m, 4, 1))
	h := NewHybrid(src)
	assert.Equal(t, 60, h.Width())
	got, err := h.BlackMatrix()
	require.NoError(t, err)
	assert.True(t, expected(m, 4, 1).Equal(got))
}

func TestHybridHandlesGradient(t *testing.T) {
	// A dark square on a background that fades from white to mid grey.
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 - 2*x)})
		}
	}
	for y := 24; y < 40; y++ {
		for x := 40; x < 56; x++ {
			img.SetGray(x, y, color.Gray{Y: 10})
		}
	}
	got, err := NewHybrid(symscan.NewImageLuminanceSource(img)).BlackMatrix()
	require.NoError(t, err)
	assert.True(t, got.Get(48, 32), "square is black")
	assert.False(t, got.Get(4, 4), "bright background is white")
}

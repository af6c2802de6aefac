package detector

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

func loadGrid(t *testing.T, name string) *bitutil.BitMatrix {
	t.Helper()
	data, err := os.ReadFile("../testdata/" + name)
	require.NoError(t, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)
	return m
}

func render(t *testing.T, m *bitutil.BitMatrix, scale, margin int) *bitutil.BitMatrix {
	t.Helper()
	out := bitutil.NewBitMatrixWithSize(m.Width()*scale+2*margin, m.Height()*scale+2*margin)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Get(x, y) {
				require.NoError(t, out.SetRegion(margin+x*scale, margin+y*scale, scale, scale))
			}
		}
	}
	return out
}

func TestDetectSamplesGrid(t *testing.T) {
	for _, name := range []string{"digits-10x10.txt", "corner1-14x14.txt", "modes-20x20.txt", "corner3-8x18.txt", "dmre-8x48.txt"} {
		grid := loadGrid(t, name)
		for _, rot := range []int{0, 90, 180, 270} {
			t.Run(fmt.Sprintf("%s/rot%d", name, rot), func(t *testing.T) {
				img := render(t, grid, 5, 15)
				require.NoError(t, img.Rotate(rot))
				found, err := Detect(img)
				require.NoError(t, err)
				// the finder fixes the orientation, so the sampled grid never rotates
				assert.True(t, grid.Equal(found.Bits), "sampled:\n%s\nwant:\n%s", found.Bits, grid)
				assert.Len(t, found.Points, 4)
			})
		}
	}
}

func TestDetectPointsAreModuleCenters(t *testing.T) {
	grid := loadGrid(t, "corner3-8x18.txt")
	found, err := Detect(render(t, grid, 5, 15))
	require.NoError(t, err)
	want := []symscan.Point{{X: 17.5, Y: 17.5}, {X: 17.5, Y: 52.5}, {X: 102.5, Y: 52.5}, {X: 102.5, Y: 17.5}}
	for i, p := range found.Points {
		assert.InDelta(t, want[i].X, p.X, 2, "point %d", i)
		assert.InDelta(t, want[i].Y, p.Y, 2, "point %d", i)
	}
}

func TestDetectBlank(t *testing.T) {
	_, err := Detect(bitutil.NewBitMatrix(64))
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestDetectRejectsSizesNoSymbolHas(t *testing.T) {
	data, err := os.ReadFile("../../qrcode/testdata/hello-v1-m.txt")
	require.NoError(t, err)
	qr, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)
	_, err = Detect(render(t, qr, 3, 30))
	assert.ErrorIs(t, err, symscan.ErrNotFound)

	bar := bitutil.NewBitMatrixWithSize(120, 60)
	require.NoError(t, bar.SetRegion(20, 20, 80, 20))
	_, err = Detect(bar)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestEvenUp(t *testing.T) {
	assert.Equal(t, 10, evenUp(9))
	assert.Equal(t, 10, evenUp(10))
}

package detector

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// render draws a module fixture scale pixels per module inside margin
// white pixels.
func render(t *testing.T, name string, scale, margin int) *bitutil.BitMatrix {
	t.Helper()
	data, err := os.ReadFile("../testdata/" + name)
	require.NoError(t, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)
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

func TestDetectUpright(t *testing.T) {
	// 120 modules wide, 18 tall
	m := render(t, "text-6x3.txt", 2, 20)
	found, err := Detect(m, false, false)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Rotation)
	assert.Same(t, m, found.Bits)
	require.Len(t, found.Symbols, 1)
	v := found.Symbols[0]
	for i, p := range v {
		require.NotNil(t, p, "vertex %d", i)
	}
	assert.Equal(t, symscan.Point{X: 20, Y: 20}, *v[TopLeft])
	assert.Equal(t, symscan.Point{X: 20, Y: 55}, *v[BottomLeft])
	assert.Equal(t, symscan.Point{X: 20 + 17*2, Y: 20}, *v[CodewordsTopLeft])
	// the stop pattern is the last 18 modules
	assert.Equal(t, float64(20+102*2), v[CodewordsTopRight].X)
	assert.InDelta(t, float64(20+120*2), v[TopRight].X, 1)
	assert.Equal(t, 55.0, v[BottomRight].Y)
}

func TestDetectRotated(t *testing.T) {
	upright := render(t, "numeric-7x5.txt", 2, 20)
	m := upright.Clone()
	require.NoError(t, m.Rotate(90))
	found, err := Detect(m, false, false)
	require.NoError(t, err)
	assert.Equal(t, 270, found.Rotation)
	assert.True(t, found.Bits.Equal(upright))
	require.Len(t, found.Symbols, 1)

	tl := *found.Symbols[0][TopLeft]
	assert.Equal(t, symscan.Point{X: 20, Y: 20}, tl)
	back := found.Unrotate(tl)
	assert.True(t, m.Get(int(back.X)+1, int(back.Y)-1), "start pattern bar at %v", back)
	assert.Equal(t, symscan.Point{X: 20, Y: float64(upright.Width() - 21)}, back)
}

func TestDetectMultiple(t *testing.T) {
	a := render(t, "text-6x3.txt", 2, 20)
	b := render(t, "macro-6x4.txt", 2, 20)
	m := bitutil.NewBitMatrixWithSize(a.Width()+b.Width(), max(a.Height(), b.Height()))
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if x < a.Width() && y < a.Height() && a.Get(x, y) ||
				x >= a.Width() && y < b.Height() && b.Get(x-a.Width(), y) {
				m.Set(x, y)
			}
		}
	}
	found, err := Detect(m, true, false)
	require.NoError(t, err)
	require.Len(t, found.Symbols, 2)
	assert.Less(t, found.Symbols[0][TopLeft].X, found.Symbols[1][TopLeft].X)

	found, err = Detect(m, false, false)
	require.NoError(t, err)
	assert.Len(t, found.Symbols, 1)
}

func TestDetectBlank(t *testing.T) {
	_, err := Detect(bitutil.NewBitMatrix(64), false, true)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestVariance(t *testing.T) {
	assert.Zero(t, variance([]int{16, 2, 2, 2, 2, 2, 2, 6}, startPattern))
	assert.Less(t, variance([]int{15, 2, 3, 2, 2, 2, 2, 6}, startPattern), maxAvgVariance)
	assert.Equal(t, 1, int(min(variance([]int{6, 6, 6, 6, 6, 6, 6, 6}, startPattern), 1)))
	assert.Equal(t, 1, int(min(variance([]int{1, 1, 1, 1, 1, 1, 1, 1}, startPattern), 1)))
}

package detector

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/qrcode/decoder"
)

func loadGrid(t *testing.T, name string) *bitutil.BitMatrix {
	t.Helper()
	data, err := os.ReadFile("../testdata/" + name)
	require.NoError(t, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)
	return m
}

// paste draws grid at factor pixels per module with its top-left module at
// (left, top).
func paste(t *testing.T, dst, grid *bitutil.BitMatrix, factor, left, top int) {
	t.Helper()
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if grid.Get(x, y) {
				require.NoError(t, dst.SetRegion(left+x*factor, top+y*factor, factor, factor))
			}
		}
	}
}

func TestFindOrdersPatterns(t *testing.T) {
	grid := loadGrid(t, "hello-v1-m.txt")
	img := bitutil.NewBitMatrixWithSize(140, 140)
	paste(t, img, grid, 5, 20, 20)

	info, err := NewFinderPatternFinder(img).Find(false)
	require.NoError(t, err)
	// centers sit 3.5 modules in from the symbol edge
	assert.InDelta(t, 37.5, info.TopLeft.X, 1)
	assert.InDelta(t, 37.5, info.TopLeft.Y, 1)
	assert.InDelta(t, 107.5, info.TopRight.X, 1)
	assert.InDelta(t, 37.5, info.TopRight.Y, 1)
	assert.InDelta(t, 37.5, info.BottomLeft.X, 1)
	assert.InDelta(t, 107.5, info.BottomLeft.Y, 1)
	assert.InDelta(t, 5, info.TopLeft.ModuleSize, 0.5)
	assert.GreaterOrEqual(t, info.TopLeft.Count(), centerQuorum)
}

func TestFindNeedsThreeConfirmedPatterns(t *testing.T) {
	grid := loadGrid(t, "hello-v1-m.txt")
	img := bitutil.NewBitMatrixWithSize(140, 140)
	paste(t, img, grid, 5, 20, 20)
	// wipe the bottom-left finder
	for y := 85; y < 125; y++ {
		for x := 15; x < 60; x++ {
			img.Unset(x, y)
		}
	}
	_, err := NewFinderPatternFinder(img).Find(true)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestDetectSamplesGrid(t *testing.T) {
	for _, name := range []string{"hello-v1-m.txt", "url-v7-q.txt"} {
		t.Run(name, func(t *testing.T) {
			grid := loadGrid(t, name)
			img := bitutil.NewBitMatrixWithSize(grid.Width()*4+40, grid.Height()*4+40)
			paste(t, img, grid, 4, 20, 20)

			res, err := NewDetector(img).Detect(false)
			require.NoError(t, err)
			assert.True(t, res.Bits.Equal(grid), "sampled:\n%s", res.Bits)
		})
	}
}

func TestDetectFindsAlignmentPattern(t *testing.T) {
	grid := loadGrid(t, "url-v7-q.txt")
	img := bitutil.NewBitMatrixWithSize(grid.Width()*4+40, grid.Height()*4+40)
	paste(t, img, grid, 4, 20, 20)

	res, err := NewDetector(img).Detect(false)
	require.NoError(t, err)
	require.Len(t, res.Points, 4)
	// bottom-right alignment pattern is centered on module 38
	assert.InDelta(t, 20+38.5*4, res.Points[3].X, 1.5)
	assert.InDelta(t, 20+38.5*4, res.Points[3].Y, 1.5)
}

func TestDimensionRoundsToLegalSize(t *testing.T) {
	tl := symscan.Point{X: 0, Y: 0}
	tr := symscan.Point{X: 140, Y: 0}
	bl := symscan.Point{X: 0, Y: 140}
	dim, err := dimension(tl, tr, bl, 10)
	require.NoError(t, err)
	assert.Equal(t, 21, dim)

	// 15 + 7 = 22 rounds down to 21
	dim, err = dimension(tl, symscan.Point{X: 150}, symscan.Point{Y: 150}, 10)
	require.NoError(t, err)
	assert.Equal(t, 21, dim)

	// 16 + 7 = 23 is not a QR size
	_, err = dimension(tl, symscan.Point{X: 160}, symscan.Point{Y: 160}, 10)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestDetectMultiFindsBothSymbols(t *testing.T) {
	a := loadGrid(t, "hello-v1-m.txt")
	b := loadGrid(t, "digits-v2-h.txt")
	img := bitutil.NewBitMatrixWithSize(340, 140)
	paste(t, img, a, 4, 16, 16)
	paste(t, img, b, 4, 200, 16)

	results, err := NewDetector(img).DetectMulti(false)
	require.NoError(t, err)

	var texts []string
	for _, r := range results {
		dr, err := decoder.Decode(r.Bits, "")
		if err == nil {
			texts = append(texts, dr.Text)
		}
	}
	assert.ElementsMatch(t, []string{"HELLO WORLD", "31415926535897932384626"}, texts)
}

func TestFindMultiBlankImage(t *testing.T) {
	img := bitutil.NewBitMatrixWithSize(100, 100)
	_, err := NewFinderPatternFinder(img).FindMulti(false)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestAlignmentFinderFallsBackToCandidate(t *testing.T) {
	// a lone dark module in a light ring, 3 pixels per module
	img := bitutil.NewBitMatrixWithSize(60, 60)
	require.NoError(t, img.SetRegion(24, 24, 15, 15))
	for y := 27; y < 36; y++ {
		for x := 27; x < 36; x++ {
			img.Unset(x, y)
		}
	}
	require.NoError(t, img.SetRegion(30, 30, 3, 3))

	f := &alignmentFinder{image: img, left: 15, top: 15, width: 30, height: 30, moduleSize: 3}
	p, err := f.find()
	require.NoError(t, err)
	assert.InDelta(t, 31.5, p.X, 1)
	assert.InDelta(t, 31.5, p.Y, 1)
}

func TestUnconfirmedCentersDoNotCount(t *testing.T) {
	f := NewFinderPatternFinder(bitutil.NewBitMatrix(100))
	for _, p := range []symscan.Point{{X: 20, Y: 20}, {X: 80, Y: 20}, {X: 20, Y: 80}} {
		f.centers = append(f.centers, &FinderPattern{Point: p, ModuleSize: 3, count: 1})
	}
	for _, c := range f.Centers() {
		assert.Equal(t, 1, c.Count())
	}
	assert.False(t, f.haveMultiplyConfirmedCenters())
	_, err := f.selectBestPatterns()
	assert.ErrorIs(t, err, symscan.ErrNotFound)

	// a second sighting confirms a center
	f.centers[0] = f.centers[0].combine(20, 20, 3)
	assert.Equal(t, 2, f.centers[0].Count())
	assert.Len(t, f.confirmed(), 1)
}

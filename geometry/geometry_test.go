package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

func pt(x, y float64) symscan.Point { return symscan.Point{X: x, Y: y} }

var unitSquare = Quad{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)}

func TestSquareToQuadrilateralMapsCorners(t *testing.T) {
	quads := map[string]Quad{
		"parallelogram": {pt(10, 10), pt(50, 14), pt(56, 60), pt(16, 56)},
		"perspective":   {pt(12, 8), pt(90, 20), pt(80, 95), pt(5, 70)},
	}
	for name, q := range quads {
		t.Run(name, func(t *testing.T) {
			tr := SquareToQuadrilateral(q)
			for i, c := range unitSquare {
				got := tr.Point(c)
				assert.InDelta(t, q[i].X, got.X, 1e-9)
				assert.InDelta(t, q[i].Y, got.Y, 1e-9)
			}
		})
	}
}

func TestQuadrilateralToQuadrilateralRoundTrip(t *testing.T) {
	from := Quad{pt(3.5, 3.5), pt(24.5, 3.5), pt(24.5, 24.5), pt(3.5, 24.5)}
	to := Quad{pt(40, 30), pt(140, 45), pt(150, 160), pt(35, 150)}
	fwd := QuadrilateralToQuadrilateral(from, to)
	back := QuadrilateralToQuadrilateral(to, from)

	xs := []float64{3.5, 10, 17.25, 24.5}
	ys := []float64{3.5, 20, 8, 24.5}
	wantX := append([]float64(nil), xs...)
	wantY := append([]float64(nil), ys...)
	fwd.ApplyXY(xs, ys)
	assert.InDelta(t, 40, xs[0], 1e-6)
	assert.InDelta(t, 150, xs[3], 1e-6)
	back.ApplyXY(xs, ys)
	for i := range xs {
		assert.InDelta(t, wantX[i], xs[i], 1e-6)
		assert.InDelta(t, wantY[i], ys[i], 1e-6)
	}
}

// The closed form must agree with a direct linear solve of the
// eight homography unknowns.
func TestSquareToQuadrilateralMatchesLinearSolve(t *testing.T) {
	q := Quad{pt(12, 8), pt(90, 20), pt(80, 95), pt(5, 70)}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i, c := range unitSquare {
		x, y, u, v := c.X, c.Y, q[i].X, q[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}
	var h mat.VecDense
	require.NoError(t, h.SolveVec(a, b))

	tr := SquareToQuadrilateral(q)
	for _, p := range []symscan.Point{pt(0.25, 0.25), pt(0.5, 0.75), pt(0.9, 0.1)} {
		w := h.AtVec(6)*p.X + h.AtVec(7)*p.Y + 1
		wantX := (h.AtVec(0)*p.X + h.AtVec(1)*p.Y + h.AtVec(2)) / w
		wantY := (h.AtVec(3)*p.X + h.AtVec(4)*p.Y + h.AtVec(5)) / w
		got := tr.Point(p)
		assert.InDelta(t, wantX, got.X, 1e-6)
		assert.InDelta(t, wantY, got.Y, 1e-6)
	}
}

func checkerboard(n int) *bitutil.BitMatrix {
	m := bitutil.NewBitMatrix(n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if (x*7+y*3)%5 < 2 {
				m.Set(x, y)
			}
		}
	}
	return m
}

func render(t *testing.T, m *bitutil.BitMatrix, scale, margin int) *bitutil.BitMatrix {
	t.Helper()
	img := bitutil.NewBitMatrixWithSize((m.Width()+2*margin)*scale, (m.Height()+2*margin)*scale)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Get(x, y) {
				require.NoError(t, img.SetRegion((x+margin)*scale, (y+margin)*scale, scale, scale))
			}
		}
	}
	return img
}

func TestSampleGridRecoversModules(t *testing.T) {
	const n, scale, margin = 12, 4, 2
	want := checkerboard(n)
	img := render(t, want, scale, margin)

	lo, hi := float64(margin*scale), float64((margin+n)*scale)
	grid := Quad{pt(0, 0), pt(n, 0), pt(n, n), pt(0, n)}
	corners := Quad{pt(lo, lo), pt(hi, lo), pt(hi, hi), pt(lo, hi)}
	got, err := SampleGrid(img, n, n, grid, corners)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "sampled:\n%s", got)
}

func TestSampleGridRejectsBadDimension(t *testing.T) {
	img := bitutil.NewBitMatrix(10)
	_, err := SampleGrid(img, 0, 5, unitSquare, unitSquare)
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestCheckAndNudgePoints(t *testing.T) {
	img := bitutil.NewBitMatrixWithSize(20, 10)

	points := []float64{-1.2, 3, 5, 5, 20.4, 10.1}
	require.NoError(t, CheckAndNudgePoints(img, points))
	assert.Equal(t, []float64{0, 3, 5, 5, 19, 9}, points)

	far := []float64{-2.5, 3, 5, 5}
	err := CheckAndNudgePoints(img, far)
	assert.True(t, errors.Is(err, symscan.ErrNotFound))
}

func TestWhiteRectangleAllWhite(t *testing.T) {
	img := bitutil.NewBitMatrix(40)
	d, err := NewWhiteRectangleDetector(img)
	require.NoError(t, err)
	_, err = d.Detect()
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestWhiteRectangleSeedOutsideImage(t *testing.T) {
	_, err := NewWhiteRectangleDetector(bitutil.NewBitMatrix(6))
	assert.ErrorIs(t, err, symscan.ErrNotFound)
}

func TestWhiteRectangleFindsSquare(t *testing.T) {
	img := bitutil.NewBitMatrix(100)
	require.NoError(t, img.SetRegion(30, 30, 40, 40))

	d, err := NewWhiteRectangleDetector(img)
	require.NoError(t, err)
	first, err := d.Detect()
	require.NoError(t, err)
	assert.Equal(t, [4]symscan.Point{pt(31, 31), pt(31, 68), pt(68, 31), pt(68, 68)}, first)

	second, err := d.Detect()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCountTransitions(t *testing.T) {
	img := bitutil.NewBitMatrixWithSize(20, 3)
	require.NoError(t, img.SetRegion(5, 1, 5, 1))

	assert.Equal(t, 2, CountTransitions(img, pt(0, 1), pt(19, 1)))
	assert.Equal(t, 2, CountTransitions(img, pt(0, 1), pt(100, 1)), "end clamped into image")
	assert.Equal(t, 0, CountTransitions(img, pt(0, 0), pt(19, 0)))
	assert.Equal(t, 1, CountTransitions(img, pt(7, 0), pt(7, 2)))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3, Round(2.5))
	assert.Equal(t, -3, Round(-2.5))
	assert.Equal(t, 0, Round(-0.4))
	assert.Equal(t, 7, Round(6.51))
}

package geometry

import (
	"fmt"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// SampleGrid reads a dimX x dimY module grid from image. grid gives four
// corners in module space and img the same corners as found in the image.
func SampleGrid(image *bitutil.BitMatrix, dimX, dimY int, grid, img Quad) (*bitutil.BitMatrix, error) {
	return SampleGridTransform(image, dimX, dimY, QuadrilateralToQuadrilateral(grid, img))
}

// SampleGridTransform reads a dimX x dimY grid, sampling the image at the
// point t maps each module center to.
func SampleGridTransform(image *bitutil.BitMatrix, dimX, dimY int, t *Transform) (*bitutil.BitMatrix, error) {
	if dimX <= 0 || dimY <= 0 {
		return nil, fmt.Errorf("sample %dx%d grid: %w", dimX, dimY, symscan.ErrNotFound)
	}
	bits := bitutil.NewBitMatrixWithSize(dimX, dimY)
	row := make([]float64, 2*dimX)
	for y := 0; y < dimY; y++ {
		cy := float64(y) + 0.5
		for x := 0; x < dimX; x++ {
			row[2*x] = float64(x) + 0.5
			row[2*x+1] = cy
		}
		t.Apply(row)
		if err := CheckAndNudgePoints(image, row); err != nil {
			return nil, err
		}
		for x := 0; x < dimX; x++ {
			ix, iy := int(row[2*x]), int(row[2*x+1])
			if ix < 0 || iy < 0 || ix >= image.Width() || iy >= image.Height() {
				// only the ends of a row are nudged; a bad interior point
				// means the transform was wrong
				return nil, fmt.Errorf("module %d,%d maps outside image: %w", x, y, symscan.ErrNotFound)
			}
			if image.Get(ix, iy) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

// CheckAndNudgePoints validates a row of transformed (x, y) pairs. Points one
// pixel outside the image are pulled onto its edge, working inward from each
// end of the row until a point needs no nudge. Anything further out fails
// with ErrNotFound.
func CheckAndNudgePoints(image *bitutil.BitMatrix, points []float64) error {
	w, h := image.Width(), image.Height()
	n := len(points) / 2
	for i := 0; i < n; i++ {
		nudged, err := nudge(points[2*i:], w, h)
		if err != nil {
			return err
		}
		if !nudged {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		nudged, err := nudge(points[2*i:], w, h)
		if err != nil {
			return err
		}
		if !nudged {
			break
		}
	}
	return nil
}

func nudge(p []float64, w, h int) (bool, error) {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
		return false, fmt.Errorf("degenerate transform: %w", symscan.ErrNotFound)
	}
	x, y := int(p[0]), int(p[1])
	if x < -1 || x > w || y < -1 || y > h {
		return false, fmt.Errorf("point %d,%d outside %dx%d image: %w", x, y, w, h, symscan.ErrNotFound)
	}
	nudged := false
	switch x {
	case -1:
		p[0], nudged = 0, true
	case w:
		p[0], nudged = float64(w-1), true
	}
	switch y {
	case -1:
		p[1], nudged = 0, true
	case h:
		p[1], nudged = float64(h-1), true
	}
	return nudged, nil
}

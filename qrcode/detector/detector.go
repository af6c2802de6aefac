package detector

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/internal"
	"github.com/ericlevine/symscan/qrcode/decoder"
)

// Detector finds one QR Code in a binarized image.
type Detector struct {
	image *bitutil.BitMatrix
}

// NewDetector returns a Detector over image.
func NewDetector(image *bitutil.BitMatrix) *Detector {
	return &Detector{image: image}
}

// Detect locates the finder patterns and samples the symbol. Result points
// are bottom-left, top-left and top-right finder centers, followed by the
// alignment pattern center when one was found.
func (d *Detector) Detect(tryHarder bool) (*internal.DetectorResult, error) {
	info, err := NewFinderPatternFinder(d.image).Find(tryHarder)
	if err != nil {
		return nil, err
	}
	return d.ProcessFinderPatternInfo(info)
}

// ProcessFinderPatternInfo estimates the symbol size from three finder
// patterns, looks for the alignment pattern and samples the grid.
func (d *Detector) ProcessFinderPatternInfo(info *FinderPatternInfo) (*internal.DetectorResult, error) {
	tl, tr, bl := info.TopLeft, info.TopRight, info.BottomLeft

	moduleSize := d.moduleSize(tl.Point, tr.Point, bl.Point)
	if moduleSize < 1 {
		return nil, fmt.Errorf("qrcode: module size %.2f: %w", moduleSize, symscan.ErrNotFound)
	}
	dim, err := dimension(tl.Point, tr.Point, bl.Point, moduleSize)
	if err != nil {
		return nil, err
	}
	version, err := decoder.ProvisionalVersion(dim)
	if err != nil {
		return nil, fmt.Errorf("qrcode: %w: %w", symscan.ErrNotFound, err)
	}

	var align *AlignmentPattern
	if len(version.AlignmentCenters) > 0 {
		// The bottom-right alignment pattern sits 3 modules in from the
		// corner the three finders imply.
		brX := tr.X - tl.X + bl.X
		brY := tr.Y - tl.Y + bl.Y
		correction := 1 - 3/float64(version.Dimension()-7)
		estX := int(tl.X + correction*(brX-tl.X))
		estY := int(tl.Y + correction*(brY-tl.Y))
		for allowance := 4; allowance <= 16; allowance <<= 1 {
			align, err = d.findAlignmentInRegion(moduleSize, estX, estY, float64(allowance))
			if err == nil {
				break
			}
		}
		if align == nil {
			slog.Debug("qrcode: no alignment pattern, sampling from finders only", "version", version.Number)
		}
	}

	transform := createTransform(tl.Point, tr.Point, bl.Point, align, dim)
	bits, err := geometry.SampleGridTransform(d.image, dim, dim, transform)
	if err != nil {
		return nil, err
	}
	points := []symscan.Point{bl.Point, tl.Point, tr.Point}
	if align != nil {
		points = append(points, align.Point)
	}
	return &internal.DetectorResult{Bits: bits, Points: points}, nil
}

func createTransform(tl, tr, bl symscan.Point, align *AlignmentPattern, dim int) *geometry.Transform {
	far := float64(dim) - 3.5
	var br, srcBR symscan.Point
	if align != nil {
		br = align.Point
		srcBR = symscan.Point{X: far - 3, Y: far - 3}
	} else {
		br = symscan.Point{X: tr.X - tl.X + bl.X, Y: tr.Y - tl.Y + bl.Y}
		srcBR = symscan.Point{X: far, Y: far}
	}
	return geometry.QuadrilateralToQuadrilateral(
		geometry.Quad{{X: 3.5, Y: 3.5}, {X: far, Y: 3.5}, srcBR, {X: 3.5, Y: far}},
		geometry.Quad{tl, tr, br, bl},
	)
}

// dimension rounds the finder spacing to the nearest legal size, 4k+1.
func dimension(tl, tr, bl symscan.Point, moduleSize float64) (int, error) {
	across := geometry.Round(symscan.Distance(tl, tr) / moduleSize)
	down := geometry.Round(symscan.Distance(tl, bl) / moduleSize)
	dim := (across+down)/2 + 7
	switch dim & 3 {
	case 0:
		dim++
	case 2:
		dim--
	case 3:
		return 0, fmt.Errorf("qrcode: estimated dimension %d: %w", dim, symscan.ErrNotFound)
	}
	return dim, nil
}

func (d *Detector) moduleSize(tl, tr, bl symscan.Point) float64 {
	return (d.moduleSizeOneWay(tl, tr) + d.moduleSizeOneWay(tl, bl)) / 2
}

// moduleSizeOneWay measures the finder pattern's black-white-black run
// (7 modules across) from each end of the line joining two patterns.
func (d *Detector) moduleSizeOneWay(p, other symscan.Point) float64 {
	a := d.runBothWays(int(p.X), int(p.Y), int(other.X), int(other.Y))
	b := d.runBothWays(int(other.X), int(other.Y), int(p.X), int(p.Y))
	switch {
	case math.IsNaN(a):
		return b / 7
	case math.IsNaN(b):
		return a / 7
	}
	return (a + b) / 14
}

// runBothWays measures from (fromX, fromY) toward (toX, toY) and the same
// distance in the opposite direction, clipped to the image. The center pixel
// is counted twice, hence the -1.
func (d *Detector) runBothWays(fromX, fromY, toX, toY int) float64 {
	result := d.blackWhiteBlackRun(fromX, fromY, toX, toY)

	w, h := d.image.Width(), d.image.Height()
	scale := 1.0
	otherX := fromX - (toX - fromX)
	if otherX < 0 {
		scale = float64(fromX) / float64(fromX-otherX)
		otherX = 0
	} else if otherX >= w {
		scale = float64(w-1-fromX) / float64(otherX-fromX)
		otherX = w - 1
	}
	otherY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherY < 0 {
		scale = float64(fromY) / float64(fromY-otherY)
		otherY = 0
	} else if otherY >= h {
		scale = float64(h-1-fromY) / float64(otherY-fromY)
		otherY = h - 1
	}
	otherX = int(float64(fromX) + float64(otherX-fromX)*scale)

	result += d.blackWhiteBlackRun(fromX, fromY, otherX, otherY)
	return result - 1
}

// blackWhiteBlackRun follows a Bresenham line from inside a finder
// pattern's center to the end of its outer dark ring and returns the
// distance covered, or NaN when the line ends first.
func (d *Detector) blackWhiteBlackRun(fromX, fromY, toX, toY int) float64 {
	steep := abs(toY-fromY) > abs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}
	dx, dy := abs(toX-fromX), abs(toY-fromY)
	e := -dx / 2
	xstep, ystep := 1, 1
	if fromX > toX {
		xstep = -1
	}
	if fromY > toY {
		ystep = -1
	}

	// 0: in the dark center, 1: in the light ring, 2: in the dark ring
	state := 0
	limit := toX + xstep
	for x, y := fromX, fromY; x != limit; x += xstep {
		rx, ry := x, y
		if steep {
			rx, ry = y, x
		}
		if (state == 1) == d.image.Get(rx, ry) {
			if state == 2 {
				return geometry.DistanceXY(x, y, fromX, fromY)
			}
			state++
		}
		e += dy
		if e > 0 {
			if y == toY {
				break
			}
			y += ystep
			e -= dx
		}
	}
	if state == 2 {
		// ran off the end while still in the dark ring
		return geometry.DistanceXY(toX+xstep, toY, fromX, fromY)
	}
	return math.NaN()
}

func (d *Detector) findAlignmentInRegion(moduleSize float64, estX, estY int, allowanceFactor float64) (*AlignmentPattern, error) {
	allowance := int(allowanceFactor * moduleSize)
	left := max(0, estX-allowance)
	right := min(d.image.Width()-1, estX+allowance)
	if float64(right-left) < moduleSize*3 {
		return nil, fmt.Errorf("qrcode: alignment window too narrow: %w", symscan.ErrNotFound)
	}
	top := max(0, estY-allowance)
	bottom := min(d.image.Height()-1, estY+allowance)
	if float64(bottom-top) < moduleSize*3 {
		return nil, fmt.Errorf("qrcode: alignment window too short: %w", symscan.ErrNotFound)
	}
	f := &alignmentFinder{
		image:      d.image,
		left:       left,
		top:        top,
		width:      right - left,
		height:     bottom - top,
		moduleSize: moduleSize,
	}
	return f.find()
}

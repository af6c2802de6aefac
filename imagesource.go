package symscan

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ericlevine/symscan/bitutil"
)

// ImageLuminanceSource is a LuminanceSource backed by an image.Image.
type ImageLuminanceSource struct {
	pix    []byte
	width  int
	height int
}

// NewImageLuminanceSource converts img to greyscale. Fully transparent
// pixels count as white, so symbols printed on a transparent background
// still have a quiet zone.
func NewImageLuminanceSource(img image.Image) *ImageLuminanceSource {
	if g, ok := img.(*image.Gray); ok {
		return newGraySource(g)
	}
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	src := &ImageLuminanceSource{pix: make([]byte, b.Dx()*b.Dy()), width: b.Dx(), height: b.Dy()}
	for y := 0; y < src.height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < src.width; x++ {
			// NRGBA: after Grayscale r == g == b.
			if row[4*x+3] == 0 {
				src.pix[y*src.width+x] = 0xFF
			} else {
				src.pix[y*src.width+x] = row[4*x]
			}
		}
	}
	return src
}

func newGraySource(g *image.Gray) *ImageLuminanceSource {
	b := g.Bounds()
	src := &ImageLuminanceSource{pix: make([]byte, b.Dx()*b.Dy()), width: b.Dx(), height: b.Dy()}
	for y := 0; y < src.height; y++ {
		off := (b.Min.Y+y)*g.Stride + b.Min.X
		copy(src.pix[y*src.width:(y+1)*src.width], g.Pix[off:off+src.width])
	}
	return src
}

func (s *ImageLuminanceSource) Width() int  { return s.width }
func (s *ImageLuminanceSource) Height() int { return s.height }

func (s *ImageLuminanceSource) Row(y int, row []byte) []byte {
	if len(row) < s.width {
		row = make([]byte, s.width)
	}
	copy(row, s.pix[y*s.width:(y+1)*s.width])
	return row
}

func (s *ImageLuminanceSource) Matrix() []byte { return s.pix }

// MatrixImage renders a BitMatrix as a greyscale image, scale pixels per
// module with a quiet zone of margin modules. It is handy for building test
// images and for debugging sampled grids.
func MatrixImage(m *bitutil.BitMatrix, scale, margin int) *image.Gray {
	w := (m.Width() + 2*margin) * scale
	h := (m.Height() + 2*margin) * scale
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if !m.Get(x, y) {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetGray((x+margin)*scale+dx, (y+margin)*scale+dy, color.Gray{})
				}
			}
		}
	}
	return img
}

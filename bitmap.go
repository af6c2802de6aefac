package symscan

import (
	"fmt"

	"github.com/ericlevine/symscan/bitutil"
)

// LuminanceSource exposes an image as 8-bit greyscale, one byte per pixel,
// row-major, 0 being black.
type LuminanceSource interface {
	Width() int
	Height() int
	// Row copies row y into row, allocating when row is too short.
	Row(y int, row []byte) []byte
	// Matrix returns every pixel; callers must not modify it.
	Matrix() []byte
}

// Binarizer turns luminance into black and white modules. Thresholding lives
// outside the decoders; package binarizer has the stock implementations.
type Binarizer interface {
	Width() int
	Height() int
	BlackMatrix() (*bitutil.BitMatrix, error)
}

// BinaryBitmap is the input of every Reader: a lazily binarized image.
type BinaryBitmap struct {
	binarizer Binarizer
	matrix    *bitutil.BitMatrix
}

// NewBinaryBitmap wraps a binarizer. The black matrix is computed on first use.
func NewBinaryBitmap(binarizer Binarizer) *BinaryBitmap {
	return &BinaryBitmap{binarizer: binarizer}
}

// NewBinaryBitmapFromMatrix wraps an already binarized image.
func NewBinaryBitmapFromMatrix(matrix *bitutil.BitMatrix) *BinaryBitmap {
	return &BinaryBitmap{matrix: matrix}
}

// Width is the image width in pixels.
func (b *BinaryBitmap) Width() int {
	if b.matrix != nil {
		return b.matrix.Width()
	}
	return b.binarizer.Width()
}

// Height is the image height in pixels.
func (b *BinaryBitmap) Height() int {
	if b.matrix != nil {
		return b.matrix.Height()
	}
	return b.binarizer.Height()
}

// BlackMatrix returns the binarized image. Readers treat it as read-only and
// clone it before any in-place transform.
func (b *BinaryBitmap) BlackMatrix() (*bitutil.BitMatrix, error) {
	if b.matrix == nil {
		m, err := b.binarizer.BlackMatrix()
		if err != nil {
			return nil, err
		}
		b.matrix = m
	}
	return b.matrix, nil
}

// Crop returns the width x height region whose top-left pixel is (left, top).
func (b *BinaryBitmap) Crop(left, top, width, height int) (*BinaryBitmap, error) {
	src, err := b.BlackMatrix()
	if err != nil {
		return nil, err
	}
	if left < 0 || top < 0 || width < 1 || height < 1 ||
		left+width > src.Width() || top+height > src.Height() {
		return nil, fmt.Errorf("crop %d,%d %dx%d outside %dx%d image", left, top, width, height, src.Width(), src.Height())
	}
	dst := bitutil.NewBitMatrixWithSize(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if src.Get(left+x, top+y) {
				dst.Set(x, y)
			}
		}
	}
	return NewBinaryBitmapFromMatrix(dst), nil
}

// Inverted returns a copy with black and white swapped, for light-on-dark
// symbols.
func (b *BinaryBitmap) Inverted() (*BinaryBitmap, error) {
	src, err := b.BlackMatrix()
	if err != nil {
		return nil, err
	}
	inv := src.Clone()
	inv.FlipAll()
	return NewBinaryBitmapFromMatrix(inv), nil
}

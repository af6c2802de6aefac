// Package imageio loads scan inputs: image files in the common raster
// formats and the images embedded in PDF documents.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/binarizer"
)

// Extensions lists the file extensions Open accepts.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Supported reports whether path has one of Extensions.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Open decodes an image file, applying any EXIF orientation so the pixels
// are upright as a viewer would show them.
func Open(path string) (image.Image, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%s: unsupported image format %q", path, filepath.Ext(path))
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return img, nil
}

// Rotate turns img clockwise by degrees, which must be a multiple of 90.
func Rotate(img image.Image, degrees int) (image.Image, error) {
	// imaging rotates counterclockwise
	switch (degrees%360 + 360) % 360 {
	case 0:
		return img, nil
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	}
	return nil, fmt.Errorf("rotation %d is not a multiple of 90", degrees)
}

// Bitmaps binarizes img with the named strategy: "global", "hybrid", or
// "both" for global first and hybrid as the fallback.
func Bitmaps(img image.Image, strategy string) ([]*symscan.BinaryBitmap, error) {
	source := symscan.NewImageLuminanceSource(img)
	global := func() *symscan.BinaryBitmap { return symscan.NewBinaryBitmap(binarizer.NewGlobal(source)) }
	hybrid := func() *symscan.BinaryBitmap { return symscan.NewBinaryBitmap(binarizer.NewHybrid(source)) }
	switch strings.ToLower(strategy) {
	case "global":
		return []*symscan.BinaryBitmap{global()}, nil
	case "hybrid", "":
		return []*symscan.BinaryBitmap{hybrid()}, nil
	case "both":
		return []*symscan.BinaryBitmap{global(), hybrid()}, nil
	}
	return nil, fmt.Errorf("unknown binarizer %q", strategy)
}

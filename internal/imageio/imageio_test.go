package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/qrcode"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.tiff", "d.webp", "e.bmp"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.pdf", "b", "c.txt"} {
		assert.False(t, Supported(name), name)
	}
}

func TestOpenAndDecode(t *testing.T) {
	data, err := os.ReadFile("../../qrcode/testdata/hello-v1-m.txt")
	require.NoError(t, err)
	m, err := bitutil.ParseStringMatrix(string(data), "X ", "  ")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hello.png")
	writePNG(t, path, symscan.MatrixImage(m, 4, 4))

	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, (21+8)*4, img.Bounds().Dx())

	img, err = Rotate(img, 90)
	require.NoError(t, err)
	for _, strategy := range []string{"global", "hybrid", "both"} {
		bitmaps, err := Bitmaps(img, strategy)
		require.NoError(t, err)
		res, err := qrcode.NewReader().Decode(bitmaps[0], nil)
		require.NoError(t, err, strategy)
		assert.Equal(t, "HELLO WORLD", res.Text)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("scan.pdf")
	assert.Error(t, err)
	_, err = Open(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestRotateClockwise(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	img.SetGray(2, 0, color.Gray{})

	tests := []struct {
		degrees int
		w, h    int
		x, y    int
	}{
		{0, 3, 1, 2, 0},
		{90, 1, 3, 0, 2},
		{180, 3, 1, 0, 0},
		{270, 1, 3, 0, 0},
		{-90, 1, 3, 0, 0},
	}
	for _, tt := range tests {
		out, err := Rotate(img, tt.degrees)
		require.NoError(t, err)
		require.Equal(t, image.Pt(tt.w, tt.h), out.Bounds().Size(), "rotate %d", tt.degrees)
		r, _, _, _ := out.At(tt.x, tt.y).RGBA()
		assert.Zero(t, r, "rotate %d", tt.degrees)
	}

	_, err := Rotate(img, 45)
	assert.Error(t, err)
}

func TestBitmapsUnknown(t *testing.T) {
	_, err := Bitmaps(image.NewGray(image.Rect(0, 0, 4, 4)), "otsu")
	assert.Error(t, err)
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"2", []int{2}, false},
		{"1,3-5", []int{1, 3, 4, 5}, false},
		{" 1 - 2 , 7 ", []int{1, 2, 7}, false},
		{"0", nil, true},
		{"x", nil, true},
		{"5-1", nil, true},
		{"1-2-3", nil, true},
	}
	for _, tt := range tests {
		got, err := ParsePages(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for _, name := range []string{"doc_1_Im0.png", "doc_2_Im1.png", "doc_1_Im3.png", "doc.png"} {
		writePNG(t, filepath.Join(dir, name), img)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes_1_x.txt"), nil, 0o600))

	got, err := collect(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 1, 2}, []int{got[0].Page, got[1].Page, got[2].Page})
	assert.Equal(t, []int{0, 1, 0}, []int{got[0].Index, got[1].Index, got[2].Index})
}

func TestExtractPDFImagesErrors(t *testing.T) {
	_, err := ExtractPDFImages(filepath.Join(t.TempDir(), "missing.pdf"), "")
	assert.Error(t, err)
	_, err = ExtractPDFImages("any.pdf", "a-b")
	assert.Error(t, err)
}

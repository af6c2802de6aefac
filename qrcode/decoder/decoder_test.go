package decoder

import (
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

func transposed(m *bitutil.BitMatrix) *bitutil.BitMatrix {
	out := bitutil.NewBitMatrix(m.Width())
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Get(x, y) {
				out.Set(y, x)
			}
		}
	}
	return out
}

func TestDecodeFixtures(t *testing.T) {
	cases := []struct {
		file, text, level string
		modifier          int
	}{
		{"hello-v1-m.txt", "HELLO WORLD", "M", 1},
		{"digits-v2-h.txt", "31415926535897932384626", "H", 1},
		{"url-v7-q.txt", "https://example.com/symscan/fixtures?version=7&level=Q", "Q", 1},
		{"sa-eci-v2-l.txt", "Grüße, Welt", "L", 2},
	}
	for _, c := range cases {
		t.Run(c.file, func(t *testing.T) {
			res, err := Decode(loadGrid(t, c.file), "")
			require.NoError(t, err)
			assert.Equal(t, c.text, res.Text)
			assert.Equal(t, c.level, res.ECLevel)
			assert.Equal(t, c.modifier, res.SymbologyModifier)
			assert.Equal(t, 0, res.ErrorsCorrected)
			assert.Nil(t, res.Other)
		})
	}
}

func TestDecodeStructuredAppendAndECI(t *testing.T) {
	res, err := Decode(loadGrid(t, "sa-eci-v2-l.txt"), "")
	require.NoError(t, err)
	require.True(t, res.HasStructuredAppend())
	// second of two symbols
	assert.Equal(t, 0x11, res.StructuredAppendSequence)
	assert.Equal(t, 0x5A, res.StructuredAppendParity)
	require.Len(t, res.ByteSegments, 1)
	assert.Equal(t, []byte("Grüße, Welt"), res.ByteSegments[0])
}

func TestDecodeCorrectsDamage(t *testing.T) {
	grid := loadGrid(t, "hello-v1-m.txt")
	// bottom-right data modules: the first codeword in reading order
	for _, xy := range [][2]int{{20, 20}, {19, 20}, {20, 19}} {
		grid.Flip(xy[0], xy[1])
	}
	res, err := Decode(grid, "")
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", res.Text)
	assert.Equal(t, 1, res.ErrorsCorrected)
}

func TestDecodeRejectsHeavyDamage(t *testing.T) {
	grid := loadGrid(t, "hello-v1-m.txt")
	// 1-M corrects at most 4 of its 26 codewords; wreck every data column
	for x := 9; x < 21; x++ {
		for y := 9; y < 21; y++ {
			if (x+y)%3 == 0 {
				grid.Flip(x, y)
			}
		}
	}
	_, err := Decode(grid, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, symscan.ErrNotFound)
}

func TestDecodeMirrored(t *testing.T) {
	for _, name := range []string{"hello-v1-m.txt", "url-v7-q.txt"} {
		t.Run(name, func(t *testing.T) {
			res, err := Decode(transposed(loadGrid(t, name)), "")
			require.NoError(t, err)
			md, ok := res.Other.(*MetaData)
			require.True(t, ok)
			assert.True(t, md.Mirrored)
		})
	}
}

func TestDecodeRejectsBadDimension(t *testing.T) {
	_, err := Decode(bitutil.NewBitMatrix(22), "")
	assert.ErrorIs(t, err, symscan.ErrFormat)
	_, err = Decode(bitutil.NewBitMatrixWithSize(21, 25), "")
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestApplyMirroredCorrection(t *testing.T) {
	points := []symscan.Point{{X: 1}, {X: 2}, {X: 3}}
	(&MetaData{Mirrored: true}).ApplyMirroredCorrection(points)
	assert.Equal(t, []symscan.Point{{X: 3}, {X: 2}, {X: 1}}, points)

	(&MetaData{}).ApplyMirroredCorrection(points)
	assert.Equal(t, []symscan.Point{{X: 3}, {X: 2}, {X: 1}}, points)

	var nilMeta *MetaData
	nilMeta.ApplyMirroredCorrection(points)
}

package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
)

// bitWriter packs fields MSB first, the way segments are laid out.
type bitWriter struct {
	out []byte
	n   int
}

func (w *bitWriter) put(v, bits int) *bitWriter {
	for i := bits - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.out = append(w.out, 0)
		}
		if v>>i&1 == 1 {
			w.out[len(w.out)-1] |= 0x80 >> (w.n % 8)
		}
		w.n++
	}
	return w
}

func decodeBits(t *testing.T, w *bitWriter) (string, int) {
	t.Helper()
	v, err := VersionForNumber(1)
	require.NoError(t, err)
	res, err := decodeBitStream(w.out, v, ECLevelM, "")
	require.NoError(t, err)
	return res.Text, res.SymbologyModifier
}

func TestNumericSegment(t *testing.T) {
	w := new(bitWriter).put(1, 4).put(8, 10).put(12, 10).put(345, 10).put(67, 7)
	text, mod := decodeBits(t, w.put(0, 4))
	assert.Equal(t, "01234567", text)
	assert.Equal(t, 1, mod)
}

func TestNumericSegmentRejectsOverflow(t *testing.T) {
	w := new(bitWriter).put(1, 4).put(3, 10).put(1000, 10)
	v, _ := VersionForNumber(1)
	_, err := decodeBitStream(w.out, v, ECLevelM, "")
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestAlphanumericWithFNC1(t *testing.T) {
	// A%B%%C: a lone percent is GS, a doubled one a literal
	w := new(bitWriter).put(5, 4).put(2, 4).put(6, 9)
	for _, pair := range [][2]int{{10, 38}, {11, 38}, {38, 12}} {
		w.put(pair[0]*45+pair[1], 11)
	}
	text, mod := decodeBits(t, w.put(0, 4))
	assert.Equal(t, "A\x1dB%C", text)
	assert.Equal(t, 3, mod)
}

func TestFNC1SecondPositionModifier(t *testing.T) {
	w := new(bitWriter).put(9, 4).put(2, 4).put(1, 9).put(10, 6)
	text, mod := decodeBits(t, w.put(0, 4))
	assert.Equal(t, "A", text)
	assert.Equal(t, 5, mod)
}

func TestByteSegmentWithECI(t *testing.T) {
	// ISO-8859-7: 0xE1 is alpha
	w := new(bitWriter).put(7, 4).put(9, 8).put(4, 4).put(2, 8).put(0xE1, 8).put(0xE2, 8)
	text, mod := decodeBits(t, w.put(0, 4))
	assert.Equal(t, "αβ", text)
	assert.Equal(t, 2, mod)
}

func TestByteSegmentUsesHint(t *testing.T) {
	w := new(bitWriter).put(4, 4).put(1, 8).put(0xE9, 8).put(0, 4)
	v, _ := VersionForNumber(1)

	res, err := decodeBitStream(w.out, v, ECLevelL, "")
	require.NoError(t, err)
	assert.Equal(t, "é", res.Text)

	res, err = decodeBitStream(w.out, v, ECLevelL, "windows-1251")
	require.NoError(t, err)
	assert.Equal(t, "й", res.Text)
	assert.Equal(t, [][]byte{{0xE9}}, res.ByteSegments)
}

func TestKanjiSegment(t *testing.T) {
	// Shift_JIS 0x935F packs to 0x12*0xC0+0x1F
	w := new(bitWriter).put(8, 4).put(1, 8).put(0x12*0xC0+0x1F, 13)
	text, _ := decodeBits(t, w.put(0, 4))
	assert.Equal(t, "点", text)
}

func TestHanziSegment(t *testing.T) {
	// GB2312 0xB0A1 packs to (0xB0-0xA6)*0x60+(0xA1-0xA1)
	w := new(bitWriter).put(0xD, 4).put(1, 4).put(1, 8).put(0x0A*0x60, 13)
	text, _ := decodeBits(t, w.put(0, 4))
	assert.Equal(t, "啊", text)
}

func TestTruncatedSegments(t *testing.T) {
	v, _ := VersionForNumber(1)
	for name, w := range map[string]*bitWriter{
		"byte":    new(bitWriter).put(4, 4).put(5, 8).put(0x41, 8),
		"numeric": new(bitWriter).put(1, 4).put(9, 10).put(123, 10),
		"sa":      new(bitWriter).put(3, 4).put(0x11, 8),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeBitStream(w.out, v, ECLevelM, "")
			assert.ErrorIs(t, err, symscan.ErrFormat)
		})
	}
}

func TestUnknownMode(t *testing.T) {
	v, _ := VersionForNumber(1)
	_, err := decodeBitStream(new(bitWriter).put(6, 4).put(0, 4).out, v, ECLevelM, "")
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestCountBitsByVersion(t *testing.T) {
	for _, c := range []struct{ version, bits int }{{1, 8}, {9, 8}, {10, 16}, {27, 16}} {
		v, err := VersionForNumber(c.version)
		require.NoError(t, err)
		assert.Equal(t, c.bits, ModeByte.countBits(v))
	}
	v, _ := VersionForNumber(40)
	assert.Equal(t, 14, ModeNumeric.countBits(v))
}

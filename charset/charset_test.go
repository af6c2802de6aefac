package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByValue(t *testing.T) {
	cases := map[int]string{
		0:   "Cp437",
		2:   "Cp437",
		3:   "ISO-8859-1",
		20:  "Shift_JIS",
		26:  "UTF-8",
		170: "US-ASCII",
	}
	for v, name := range cases {
		e, err := ByValue(v)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, name, e.Name)
	}

	_, err := ByValue(900)
	assert.ErrorIs(t, err, ErrUnknownECI)
	_, err = ByValue(-1)
	assert.ErrorIs(t, err, ErrUnknownECI)
	_, err = ByValue(14)
	assert.ErrorIs(t, err, ErrUnknownECI)
}

func TestByNameIgnoresSpelling(t *testing.T) {
	for _, n := range []string{"utf8", "UTF-8", "utf_8"} {
		require.NotNil(t, ByName(n), n)
		assert.Equal(t, "UTF-8", ByName(n).Name)
	}
	assert.Equal(t, "Shift_JIS", ByName("sjis").Name)
	assert.Nil(t, ByName("klingon"))
}

func TestDecode(t *testing.T) {
	s, err := Decode([]byte{0x63, 0x61, 0x66, 0xE9}, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", s)

	s, err = Decode([]byte{0x93, 0xfa, 0x96, 0x7b}, "Shift_JIS")
	require.NoError(t, err)
	assert.Equal(t, "日本", s)

	s, err = Decode([]byte{0x00, 0x41, 0x00, 0x42}, "UTF-16BE")
	require.NoError(t, err)
	assert.Equal(t, "AB", s)

	s, err = Decode([]byte{0xE9}, "no-such-charset")
	require.NoError(t, err)
	assert.Equal(t, "é", s)
}

func TestGuess(t *testing.T) {
	assert.Equal(t, "Cp1252", Guess([]byte("x"), "Cp1252"), "hint wins")
	assert.Equal(t, "UTF-16", Guess([]byte{0xFE, 0xFF, 0x00, 0x41}, ""))
	assert.Equal(t, "UTF-8", Guess([]byte("naïve"), ""))
	assert.Equal(t, "ISO-8859-1", Guess([]byte("plain ascii"), ""))
	assert.Equal(t, "ISO-8859-1", Guess([]byte{0x63, 0x61, 0x66, 0xE9}, ""))
	// three consecutive double-byte kanji
	assert.Equal(t, "Shift_JIS", Guess([]byte{0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea}, ""))
}

func TestBuilderConvertsPerCharset(t *testing.T) {
	var b Builder
	require.NoError(t, b.WriteByte(0xE9))
	_, _ = b.WriteString(", ")
	require.NoError(t, b.SetCharset("UTF-8"))
	_, _ = b.Write([]byte("ü, "))
	require.NoError(t, b.SetCharset("Shift_JIS"))
	_, _ = b.Write([]byte{0x93, 0xfa, 0x96, 0x7b})
	assert.Equal(t, 12, b.Len())

	s, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "é, ü, 日本", s)

	// String flushes, so writing on continues in the last charset
	_, _ = b.Write([]byte{0x93, 0xfa})
	s, err = b.String()
	require.NoError(t, err)
	assert.Equal(t, "é, ü, 日本日", s)
}

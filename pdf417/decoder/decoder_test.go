package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/pdf417/decoder/ec"
)

// sample is the "PDF417" symbol of ISO/IEC 15438 at error-correction
// level 1, four EC codewords.
func sample() []int {
	return []int{5, 453, 178, 121, 239, 452, 327, 657, 619}
}

func TestPatternTable(t *testing.T) {
	for k, cluster := range clusterPatterns {
		for value, bits := range cluster {
			w := widths(int(bits))
			require.Equal(t, modulesInCodeword, sum(w[:]))
			require.Equal(t, 3*k, bucket(w), "cluster %d value %d", k, value)
			require.Equal(t, value, codewordValue(int(bits)))

			scaled := make([]int, len(w))
			for i, n := range w {
				scaled[i] = 3 * n
			}
			require.Equal(t, int(bits), decodePattern(scaled))
		}
	}
	assert.Len(t, patternIndex, 3*numCodewords)
	assert.Equal(t, -1, codewordValue(0x1FFFF))
}

func TestClosestPattern(t *testing.T) {
	bits := int(clusterPatterns[1][42])
	w := widths(bits)
	counts := make([]int, len(w))
	for i, n := range w {
		counts[i] = 4 * n
	}
	// a bar bleeding into the following space
	counts[0]++
	counts[1]--
	assert.Equal(t, bits, closestPattern(counts))
}

func TestDecodeCodewords(t *testing.T) {
	res, err := decodeCodewords(sample(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "PDF417", res.Text)
	assert.Equal(t, "1", res.ECLevel)
	assert.Equal(t, 0, res.ErrorsCorrected)

	damaged := sample()
	damaged[2] = 17
	damaged[7] = 0
	res, err = decodeCodewords(damaged, 1, []int{7})
	require.NoError(t, err)
	assert.Equal(t, "PDF417", res.Text)
	assert.Equal(t, 2, res.ErrorsCorrected)
	assert.Equal(t, 1, res.ErasuresCorrected)
}

func TestDecodeCodewordsFillsLength(t *testing.T) {
	data := []int{0, 453, 178, 121, 239}
	codewords := append(data, ec.Generate(data, 4)...)
	res, err := decodeCodewords(codewords, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "PDF417", res.Text)
	assert.Equal(t, 5, codewords[0])
}

func TestDecodeCodewordsFailures(t *testing.T) {
	damaged := sample()
	damaged[0], damaged[1], damaged[3] = 100, 200, 300
	_, err := decodeCodewords(damaged, 1, nil)
	assert.ErrorIs(t, err, symscan.ErrChecksum)

	_, err = decodeCodewords(sample(), 1, []int{0, 1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, symscan.ErrChecksum)

	_, err = decodeCodewords(nil, 1, nil)
	assert.ErrorIs(t, err, symscan.ErrFormat)

	long := sample()
	long[0] = 40
	long = append(long[:5], ec.Generate(long[:5], 4)...)
	_, err = decodeCodewords(long, 1, nil)
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestDecodeAmbiguous(t *testing.T) {
	codewords := sample()
	// Three wrong first guesses are beyond four EC codewords; the second
	// reading of the first cell brings it back within reach.
	res, err := decodeAmbiguous(1, codewords, nil,
		[]int{0, 1, 3},
		[][]int{{100, 5}, {200, 453}, {300, 121}})
	require.NoError(t, err)
	assert.Equal(t, "PDF417", res.Text)
	assert.Equal(t, 2, res.ErrorsCorrected)
}

func TestVotes(t *testing.T) {
	v := votes{}
	assert.Empty(t, v.best())
	v.add(7)
	v.add(3)
	v.add(7)
	assert.Equal(t, []int{7}, v.best())
	v.add(3)
	assert.Equal(t, []int{3, 7}, v.best())
}

func TestIndicatorRow(t *testing.T) {
	cw := newCodeword(0, 17, 6, 30*4+11)
	cw.setRowFromIndicator()
	assert.Equal(t, 14, cw.row)
	assert.True(t, cw.hasValidRow())
	assert.False(t, cw.isValidRow(13))
	assert.Equal(t, 8, BarcodeMetadata{RowsHigh: 7, RowsLow: 1}.Rows())
}

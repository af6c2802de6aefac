package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/symscan"
)

func TestVersionForNumber(t *testing.T) {
	for n := 1; n <= 40; n++ {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		assert.Equal(t, n, v.Number)
		assert.Equal(t, 17+4*n, v.Dimension())
		for level := ECLevelL; level <= ECLevelH; level++ {
			ec := v.ECBlocks(level)
			total := 0
			for _, g := range ec.Groups {
				total += g.Count * (g.DataCodewords + ec.ECPerBlock)
			}
			assert.Equal(t, v.TotalCodewords(), total, "version %d level %s", n, level)
		}
	}
	_, err := VersionForNumber(0)
	assert.ErrorIs(t, err, symscan.ErrFormat)
	_, err = VersionForNumber(41)
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestTotalCodewords(t *testing.T) {
	for n, want := range map[int]int{1: 26, 2: 44, 7: 196, 40: 3706} {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		assert.Equal(t, want, v.TotalCodewords())
	}
}

func TestProvisionalVersion(t *testing.T) {
	v, err := ProvisionalVersion(45)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Number)

	_, err = ProvisionalVersion(46)
	assert.ErrorIs(t, err, symscan.ErrFormat)
	_, err = ProvisionalVersion(181)
	assert.ErrorIs(t, err, symscan.ErrFormat)
}

func TestDecodeVersionBits(t *testing.T) {
	v, ok := decodeVersionBits(0x07C94)
	require.True(t, ok)
	assert.Equal(t, 7, v.Number)

	v, ok = decodeVersionBits(0x28C69 ^ 0b101000000000000001)
	require.True(t, ok)
	assert.Equal(t, 40, v.Number)

	_, ok = decodeVersionBits(0)
	assert.False(t, ok)
}

func TestFunctionPatternLeavesDataModules(t *testing.T) {
	for n := 1; n <= 40; n++ {
		v, _ := VersionForNumber(n)
		fp := v.functionPattern()
		free := 0
		for y := 0; y < v.Dimension(); y++ {
			for x := 0; x < v.Dimension(); x++ {
				if !fp.Get(x, y) {
					free++
				}
			}
		}
		// remainder bits fill out the last partial codeword
		assert.Equal(t, v.TotalCodewords(), free/8, "version %d", n)
		assert.Less(t, free-8*v.TotalCodewords(), 8, "version %d", n)
	}
}

func TestMaskIsInvolution(t *testing.T) {
	grid := loadGrid(t, "hello-v1-m.txt")
	orig := grid.Clone()
	for k := 0; k < 8; k++ {
		unmask(grid, grid.Width(), k)
		assert.False(t, grid.Equal(orig), "mask %d", k)
		unmask(grid, grid.Width(), k)
		assert.True(t, grid.Equal(orig), "mask %d", k)
	}
}

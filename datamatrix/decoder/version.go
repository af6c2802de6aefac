package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
)

// BlockGroup is a run of Count blocks that each hold DataCodewords data
// codewords.
type BlockGroup struct {
	Count         int
	DataCodewords int
}

// ECBlocks is the block layout of a symbol. Every block carries ECPerBlock
// correction codewords.
type ECBlocks struct {
	ECPerBlock int
	Groups     []BlockGroup
}

// NumBlocks is the total block count over all groups.
func (e ECBlocks) NumBlocks() int {
	n := 0
	for _, g := range e.Groups {
		n += g.Count
	}
	return n
}

// Version is one ECC 200 symbol size. Square sizes are 1 to 24,
// rectangular 25 to 30 and the DMRE extensions 31 to 48.
type Version struct {
	Number  int
	Rows    int
	Columns int
	// RegionRows and RegionColumns size one data region, without the
	// finder and timing border that surrounds it.
	RegionRows    int
	RegionColumns int
	ECBlocks      ECBlocks

	totalCodewords int
}

// TotalCodewords counts data and correction codewords together.
func (v *Version) TotalCodewords() int { return v.totalCodewords }

// DataCodewords counts the data codewords over all blocks.
func (v *Version) DataCodewords() int {
	n := 0
	for _, g := range v.ECBlocks.Groups {
		n += g.Count * g.DataCodewords
	}
	return n
}

func (v *Version) String() string {
	return fmt.Sprintf("%d (%dx%d)", v.Number, v.Rows, v.Columns)
}

// regionsDown and regionsAcross count the data regions in each direction.
func (v *Version) regionsDown() int   { return v.Rows / v.RegionRows }
func (v *Version) regionsAcross() int { return v.Columns / v.RegionColumns }

func version(number, rows, cols, regionRows, regionCols, ecPerBlock int, groups ...BlockGroup) *Version {
	v := &Version{
		Number:        number,
		Rows:          rows,
		Columns:       cols,
		RegionRows:    regionRows,
		RegionColumns: regionCols,
		ECBlocks:      ECBlocks{ECPerBlock: ecPerBlock, Groups: groups},
	}
	for _, g := range groups {
		v.totalCodewords += g.Count * (g.DataCodewords + ecPerBlock)
	}
	return v
}

// Versions lists every symbol size in number order.
var Versions = []*Version{
	version(1, 10, 10, 8, 8, 5, BlockGroup{1, 3}),
	version(2, 12, 12, 10, 10, 7, BlockGroup{1, 5}),
	version(3, 14, 14, 12, 12, 10, BlockGroup{1, 8}),
	version(4, 16, 16, 14, 14, 12, BlockGroup{1, 12}),
	version(5, 18, 18, 16, 16, 14, BlockGroup{1, 18}),
	version(6, 20, 20, 18, 18, 18, BlockGroup{1, 22}),
	version(7, 22, 22, 20, 20, 20, BlockGroup{1, 30}),
	version(8, 24, 24, 22, 22, 24, BlockGroup{1, 36}),
	version(9, 26, 26, 24, 24, 28, BlockGroup{1, 44}),
	version(10, 32, 32, 14, 14, 36, BlockGroup{1, 62}),
	version(11, 36, 36, 16, 16, 42, BlockGroup{1, 86}),
	version(12, 40, 40, 18, 18, 48, BlockGroup{1, 114}),
	version(13, 44, 44, 20, 20, 56, BlockGroup{1, 144}),
	version(14, 48, 48, 22, 22, 68, BlockGroup{1, 174}),
	version(15, 52, 52, 24, 24, 42, BlockGroup{2, 102}),
	version(16, 64, 64, 14, 14, 56, BlockGroup{2, 140}),
	version(17, 72, 72, 16, 16, 36, BlockGroup{4, 92}),
	version(18, 80, 80, 18, 18, 48, BlockGroup{4, 114}),
	version(19, 88, 88, 20, 20, 56, BlockGroup{4, 144}),
	version(20, 96, 96, 22, 22, 68, BlockGroup{4, 174}),
	version(21, 104, 104, 24, 24, 56, BlockGroup{6, 136}),
	version(22, 120, 120, 18, 18, 68, BlockGroup{6, 175}),
	version(23, 132, 132, 20, 20, 62, BlockGroup{8, 163}),
	version(24, 144, 144, 22, 22, 62, BlockGroup{8, 156}, BlockGroup{2, 155}),

	version(25, 8, 18, 6, 16, 7, BlockGroup{1, 5}),
	version(26, 8, 32, 6, 14, 11, BlockGroup{1, 10}),
	version(27, 12, 26, 10, 24, 14, BlockGroup{1, 16}),
	version(28, 12, 36, 10, 16, 18, BlockGroup{1, 22}),
	version(29, 16, 36, 14, 16, 24, BlockGroup{1, 32}),
	version(30, 16, 48, 14, 22, 28, BlockGroup{1, 49}),

	// DMRE, ISO/IEC 21471
	version(31, 8, 48, 6, 22, 15, BlockGroup{1, 18}),
	version(32, 8, 64, 6, 14, 18, BlockGroup{1, 24}),
	version(33, 8, 80, 6, 18, 22, BlockGroup{1, 32}),
	version(34, 8, 96, 6, 22, 28, BlockGroup{1, 38}),
	version(35, 8, 120, 6, 18, 32, BlockGroup{1, 49}),
	version(36, 8, 144, 6, 22, 36, BlockGroup{1, 63}),
	version(37, 12, 64, 10, 14, 27, BlockGroup{1, 43}),
	version(38, 12, 88, 10, 20, 36, BlockGroup{1, 64}),
	version(39, 16, 64, 14, 14, 36, BlockGroup{1, 62}),
	version(40, 20, 36, 18, 16, 28, BlockGroup{1, 44}),
	version(41, 20, 44, 18, 20, 34, BlockGroup{1, 56}),
	version(42, 20, 64, 18, 14, 42, BlockGroup{1, 84}),
	version(43, 22, 48, 20, 22, 38, BlockGroup{1, 72}),
	version(44, 24, 48, 22, 22, 41, BlockGroup{1, 80}),
	version(45, 24, 64, 22, 14, 46, BlockGroup{1, 108}),
	version(46, 26, 40, 24, 18, 38, BlockGroup{1, 70}),
	version(47, 26, 48, 24, 22, 42, BlockGroup{1, 90}),
	version(48, 26, 64, 24, 14, 50, BlockGroup{1, 118}),
}

// VersionForDimensions looks a symbol size up by its module counts. Both
// must be even.
func VersionForDimensions(rows, cols int) (*Version, error) {
	if rows&1 != 0 || cols&1 != 0 {
		return nil, fmt.Errorf("datamatrix: odd dimensions %dx%d: %w", rows, cols, symscan.ErrFormat)
	}
	for _, v := range Versions {
		if v.Rows == rows && v.Columns == cols {
			return v, nil
		}
	}
	return nil, fmt.Errorf("datamatrix: no symbol is %dx%d: %w", rows, cols, symscan.ErrFormat)
}

package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// parser reads format, version and codewords from a sampled grid. With
// mirror set it reads the grid transposed.
type parser struct {
	bits    *bitutil.BitMatrix
	dim     int
	mirror  bool
	version *Version
	format  *FormatInformation

	// unmasked is set while the data mask is XORed out of bits
	unmasked bool
}

func newParser(bits *bitutil.BitMatrix) (*parser, error) {
	dim := bits.Height()
	if dim < 21 || dim&3 != 1 || bits.Width() != dim {
		return nil, fmt.Errorf("qrcode: %dx%d grid: %w", bits.Width(), dim, symscan.ErrFormat)
	}
	return &parser{bits: bits, dim: dim}, nil
}

// bit appends module (i, j) to acc, where i is the column and j the row
// unless mirrored.
func (p *parser) bit(i, j, acc int) int {
	var on bool
	if p.mirror {
		on = p.bits.Get(j, i)
	} else {
		on = p.bits.Get(i, j)
	}
	acc <<= 1
	if on {
		acc |= 1
	}
	return acc
}

func (p *parser) readFormat() (*FormatInformation, error) {
	if p.format != nil {
		return p.format, nil
	}
	// around the top-left finder
	copy1 := 0
	for i := 0; i < 6; i++ {
		copy1 = p.bit(i, 8, copy1)
	}
	copy1 = p.bit(7, 8, copy1)
	copy1 = p.bit(8, 8, copy1)
	copy1 = p.bit(8, 7, copy1)
	for j := 5; j >= 0; j-- {
		copy1 = p.bit(8, j, copy1)
	}

	// split between the top-right and bottom-left finders
	copy2 := 0
	for j := p.dim - 1; j >= p.dim-7; j-- {
		copy2 = p.bit(8, j, copy2)
	}
	for i := p.dim - 8; i < p.dim; i++ {
		copy2 = p.bit(i, 8, copy2)
	}

	f, ok := decodeFormat(copy1, copy2)
	if !ok {
		return nil, fmt.Errorf("qrcode: format information %#x/%#x: %w", copy1, copy2, symscan.ErrFormat)
	}
	p.format = f
	return f, nil
}

func (p *parser) readVersion() (*Version, error) {
	if p.version != nil {
		return p.version, nil
	}
	provisional := (p.dim - 17) / 4
	if provisional <= 6 {
		v, err := VersionForNumber(provisional)
		if err != nil {
			return nil, err
		}
		p.version = v
		return v, nil
	}

	// 6x3 block left of the top-right finder, then its 3x6 transpose above
	// the bottom-left finder
	low := p.dim - 11
	raw := 0
	for j := 5; j >= 0; j-- {
		for i := p.dim - 9; i >= low; i-- {
			raw = p.bit(i, j, raw)
		}
	}
	if v, ok := decodeVersionBits(raw); ok && v.Dimension() == p.dim {
		p.version = v
		return v, nil
	}

	raw = 0
	for i := 5; i >= 0; i-- {
		for j := p.dim - 9; j >= low; j-- {
			raw = p.bit(i, j, raw)
		}
	}
	if v, ok := decodeVersionBits(raw); ok && v.Dimension() == p.dim {
		p.version = v
		return v, nil
	}
	return nil, fmt.Errorf("qrcode: version information for dimension %d: %w", p.dim, symscan.ErrFormat)
}

// readCodewords unmasks the grid in place and reads the codewords along
// the two-column serpentine from the bottom-right corner.
func (p *parser) readCodewords() ([]byte, error) {
	format, err := p.readFormat()
	if err != nil {
		return nil, err
	}
	version, err := p.readVersion()
	if err != nil {
		return nil, err
	}

	unmask(p.bits, p.dim, format.DataMask)
	p.unmasked = true
	function := version.functionPattern()

	out := make([]byte, 0, version.TotalCodewords())
	cur, n := 0, 0
	up := true
	for right := p.dim - 1; right > 0; right -= 2 {
		if right == 6 {
			// the vertical timing pattern is skipped as a whole column
			right--
		}
		for k := 0; k < p.dim; k++ {
			y := k
			if up {
				y = p.dim - 1 - k
			}
			for col := 0; col < 2; col++ {
				x := right - col
				if function.Get(x, y) {
					continue
				}
				cur <<= 1
				if p.bits.Get(x, y) {
					cur |= 1
				}
				if n++; n == 8 {
					if len(out) == cap(out) {
						return nil, fmt.Errorf("qrcode: codeword overflow: %w", symscan.ErrFormat)
					}
					out = append(out, byte(cur))
					cur, n = 0, 0
				}
			}
		}
		up = !up
	}
	if len(out) != version.TotalCodewords() {
		return nil, fmt.Errorf("qrcode: read %d of %d codewords: %w", len(out), version.TotalCodewords(), symscan.ErrFormat)
	}
	return out, nil
}

// remask undoes readCodewords' unmasking so the grid can be read again.
func (p *parser) remask() {
	if p.unmasked {
		unmask(p.bits, p.dim, p.format.DataMask)
		p.unmasked = false
	}
}

// setMirror switches reading direction and forgets what was parsed.
func (p *parser) setMirror(mirror bool) {
	p.version = nil
	p.format = nil
	p.mirror = mirror
}

// transpose mirrors the grid about its main diagonal.
func (p *parser) transpose() {
	for x := 0; x < p.dim; x++ {
		for y := x + 1; y < p.dim; y++ {
			if p.bits.Get(x, y) != p.bits.Get(y, x) {
				p.bits.Flip(y, x)
				p.bits.Flip(x, y)
			}
		}
	}
}

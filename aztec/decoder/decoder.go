// Package decoder recovers the message from a sampled Aztec symbol: it reads
// the data layers, corrects them with Reed-Solomon, removes bit stuffing and
// runs the five-table character decoder.
package decoder

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/charset"
	"github.com/ericlevine/symscan/gf"
	"github.com/ericlevine/symscan/internal"
	"github.com/ericlevine/symscan/reedsolomon"
)

// Symbol is a sampled Aztec grid together with the parameters read from its
// mode message.
type Symbol struct {
	Bits       *bitutil.BitMatrix
	Compact    bool
	Layers     int
	DataBlocks int
}

// Decode extracts, corrects and decodes s.
func Decode(s Symbol) (*internal.DecoderResult, error) {
	raw, err := extractBits(s)
	if err != nil {
		return nil, err
	}
	corrected, err := correctBits(s, raw)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(corrected.bits)
	if err != nil {
		return nil, err
	}
	res := internal.NewDecoderResult(packBits(corrected.bits), text)
	res.NumBits = len(corrected.bits)
	res.ErrorsCorrected = corrected.errors
	res.ECLevel = fmt.Sprintf("%d%%", corrected.ecLevel)
	return res, nil
}

// HighLevelDecode runs only the character decoder over already corrected,
// unstuffed data bits.
func HighLevelDecode(bits []bool) (string, error) {
	return decodeText(bits)
}

// Dimension is the side of an Aztec symbol in modules, including the
// reference grid lines of full-range symbols.
func Dimension(compact bool, layers int) int {
	if compact {
		return 4*layers + 11
	}
	if layers <= 4 {
		return 4*layers + 15
	}
	return 4*layers + 2*((layers-4)/8+1) + 15
}

func totalBits(compact bool, layers int) int {
	base := 112
	if compact {
		base = 88
	}
	return (base + 16*layers) * layers
}

// codewordField picks the codeword size and Galois field for a layer count.
func codewordField(layers int) (int, *gf.Field) {
	switch {
	case layers <= 2:
		return 6, gf.AztecData6
	case layers <= 8:
		return 8, gf.AztecData8
	case layers <= 22:
		return 10, gf.AztecData10
	default:
		return 12, gf.AztecData12
	}
}

// gridIndex maps a coordinate of the symbol without reference lines to the
// sampled grid. Full-range symbols carry a reference line every 16 modules
// out from the center, which the data layers step over.
func gridIndex(compact bool, layers int) []int {
	base := 4*layers + 14
	if compact {
		base = 4*layers + 11
	}
	idx := make([]int, base)
	if compact {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	full := base + 1 + 2*((base/2-1)/15)
	half, center := base/2, full/2
	for i := 0; i < half; i++ {
		off := i + i/15
		idx[half-i-1] = center - off - 1
		idx[half+i] = center + off + 1
	}
	return idx
}

// extractBits reads the data layers from the outermost in. Each layer is a
// two-module-wide ring read as four sides (left, bottom, right, top), each
// side a run of module pairs.
func extractBits(s Symbol) ([]bool, error) {
	if s.Layers < 1 || s.Layers > 32 || s.Compact && s.Layers > 4 {
		return nil, fmt.Errorf("aztec: %d layers: %w", s.Layers, symscan.ErrFormat)
	}
	idx := gridIndex(s.Compact, s.Layers)
	dim := Dimension(s.Compact, s.Layers)
	if s.Bits.Width() < dim || s.Bits.Height() < dim {
		return nil, fmt.Errorf("aztec: %dx%d grid for %d modules: %w", s.Bits.Width(), s.Bits.Height(), dim, symscan.ErrFormat)
	}
	get := func(x, y int) bool { return s.Bits.Get(idx[x], idx[y]) }

	raw := make([]bool, totalBits(s.Compact, s.Layers))
	size := len(idx)
	off := 0
	for layer := 0; layer < s.Layers; layer++ {
		side := (s.Layers-layer)*4 + 12
		if s.Compact {
			side = (s.Layers-layer)*4 + 9
		}
		lo := 2 * layer
		hi := size - 1 - lo
		for j := 0; j < side; j++ {
			for k := 0; k < 2; k++ {
				p := off + 2*j + k
				raw[p] = get(lo+k, lo+j)
				raw[p+2*side] = get(lo+j, hi-k)
				raw[p+4*side] = get(hi-k, hi-j)
				raw[p+6*side] = get(hi-j, lo+k)
			}
		}
		off += 8 * side
	}
	return raw, nil
}

type correction struct {
	bits    []bool
	errors  int
	ecLevel int
}

// correctBits splits raw into codewords, corrects them and strips bit
// stuffing from the data codewords.
func correctBits(s Symbol, raw []bool) (*correction, error) {
	size, field := codewordField(s.Layers)
	total := len(raw) / size
	data := s.DataBlocks
	if data < 1 || total < data {
		return nil, fmt.Errorf("aztec: %d data codewords of %d: %w", data, total, symscan.ErrFormat)
	}

	// Leftover bits sit at the start of the stream.
	in := cursor{bits: raw, pos: len(raw) % size}
	words := make([]int, total)
	for i := range words {
		words[i], _ = in.read(size)
	}

	fixed := 0
	if ec := total - data; ec > 0 {
		n, err := reedsolomon.NewDecoder(field).Decode(words, ec)
		if err != nil {
			return nil, fmt.Errorf("aztec: %w: %w", symscan.ErrChecksum, err)
		}
		fixed = n
	}

	// A codeword of all zeros or all ones never appears; one bit away from
	// either stands for size-1 copies of its high bits.
	mask := 1<<size - 1
	out := make([]bool, 0, data*size)
	for _, w := range words[:data] {
		switch w {
		case 0, mask:
			return nil, fmt.Errorf("aztec: illegal codeword %#x: %w", w, symscan.ErrFormat)
		case 1, mask - 1:
			for i := 0; i < size-1; i++ {
				out = append(out, w > 1)
			}
		default:
			for b := size - 1; b >= 0; b-- {
				out = append(out, w&(1<<b) != 0)
			}
		}
	}
	return &correction{bits: out, errors: fixed, ecLevel: 100 * (total - data) / total}, nil
}

// packBits packs bits MSB first, zero padding the last byte.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// cursor reads big-endian codes from a bit slice.
type cursor struct {
	bits []bool
	pos  int
}

func (c *cursor) remaining() int { return len(c.bits) - c.pos }

// read returns the next n bits; ok is false, and nothing is consumed, when
// fewer than n remain.
func (c *cursor) read(n int) (v int, ok bool) {
	if n > c.remaining() {
		return 0, false
	}
	for _, b := range c.bits[c.pos : c.pos+n] {
		v <<= 1
		if b {
			v |= 1
		}
	}
	c.pos += n
	return v, true
}

func decodeText(bits []bool) (string, error) {
	in := cursor{bits: bits}
	var out charset.Builder
	latched, current := upper, upper

	for in.remaining() > 0 {
		if current == binary {
			n, ok := in.read(5)
			if !ok {
				break
			}
			if n == 0 {
				if n, ok = in.read(11); !ok {
					break
				}
				n += 31
			}
			for i := 0; i < n; i++ {
				b, ok := in.read(8)
				if !ok {
					in.pos = len(in.bits)
					break
				}
				_ = out.WriteByte(byte(b))
			}
			current = latched
			continue
		}

		code, ok := in.read(current.width())
		if !ok {
			break
		}
		e := current.entry(code)
		switch e.kind {
		case literal:
			_, _ = out.WriteString(e.text)
			current = latched
		case switchTable:
			// A shift ends in the mode it was invoked from, even when that
			// mode was itself a shift.
			latched = current
			current = e.to
			if e.latch {
				latched = current
			}
		case flag:
			done, err := readFlag(&in, &out)
			if err != nil {
				return "", err
			}
			if done {
				in.pos = len(in.bits)
			}
			current = latched
		}
	}
	s, err := out.String()
	if err != nil {
		return "", fmt.Errorf("aztec: %w: %w", symscan.ErrFormat, err)
	}
	return s, nil
}

// readFlag handles FLG(n): n=0 is FNC1, 1..6 introduce an ECI of n digits
// and 7 is reserved. done reports that the stream ended before n was read;
// an ECI cut short is skipped and decoding carries on.
func readFlag(in *cursor, out *charset.Builder) (done bool, err error) {
	n, ok := in.read(3)
	if !ok {
		return true, nil
	}
	switch n {
	case 0:
		_ = out.WriteByte(0x1D)
		return false, nil
	case 7:
		return false, fmt.Errorf("aztec: reserved FLG(7): %w", symscan.ErrFormat)
	}
	if in.remaining() < 4*n {
		return false, nil
	}
	eci := 0
	for ; n > 0; n-- {
		d, _ := in.read(4)
		if d < 2 || d > 11 {
			return false, fmt.Errorf("aztec: ECI digit code %d: %w", d, symscan.ErrFormat)
		}
		eci = 10*eci + d - 2
	}
	e, err := charset.ByValue(eci)
	if err != nil {
		return false, fmt.Errorf("aztec: %w: %w", symscan.ErrFormat, err)
	}
	if err := out.SetCharset(e.Name); err != nil {
		return false, fmt.Errorf("aztec: %w: %w", symscan.ErrFormat, err)
	}
	return false, nil
}

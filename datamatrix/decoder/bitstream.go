package decoder

import (
	"fmt"
	"strconv"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/charset"
	"github.com/ericlevine/symscan/internal"
)

// Encodation modes. ASCII is the default; the others are entered by a latch
// codeword and return to ASCII when they end.
type mode int

const (
	modePad mode = iota
	modeASCII
	modeC40
	modeText
	modeX12
	modeEDIFACT
	modeBase256
)

// ASCII mode codewords with a meaning beyond a single character.
const (
	cwPad            = 129
	cwLatchC40       = 230
	cwLatchBase256   = 231
	cwFNC1           = 232
	cwStructAppend   = 233
	cwReaderProgram  = 234
	cwUpperShift     = 235
	cwMacro05        = 236
	cwMacro06        = 237
	cwLatchX12       = 238
	cwLatchText      = 239
	cwLatchEDIFACT   = 240
	cwECI            = 241
	cwUnlatch        = 254
	edifactUnlatch   = 0x1F
	macroTrailer     = "\x1e\x04"
	c40ShiftFNC1     = 27
	c40ShiftUpper    = 30
	groupSeparator   = 0x1D
	base256MaxLength = 250
)

// tripletSet is one of the two character sets packed three values to a
// codeword pair. Values 0 to 2 select a shift set, so basic is indexed by
// the raw value and its first three entries are never read.
type tripletSet struct {
	basic  string
	shift3 string
}

var (
	c40Set = tripletSet{
		basic:  "    0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		shift3: "`abcdefghijklmnopqrstuvwxyz{|}~\x7f",
	}
	textSet = tripletSet{
		basic:  "    0123456789abcdefghijklmnopqrstuvwxyz",
		shift3: "`ABCDEFGHIJKLMNOPQRSTUVWXYZ{|}~\x7f",
	}
)

// shift2Set is shared by C40 and Text.
const shift2Set = "!\"#$%&'()*+,-./:;<=>?@[\\]^_"

type stream struct {
	bits *bitutil.BitSource
	out  charset.Builder

	segments [][]byte
	trailer  string
	// fnc1At records the output length at each ASCII FNC1; only the
	// positions near the start matter for the symbology identifier.
	fnc1At   []int
	eci      bool
	sequence int
	fileID   int
}

func (s *stream) read(n int) (int, error) {
	v, err := s.bits.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("datamatrix: %w: %w", symscan.ErrFormat, err)
	}
	return v, nil
}

func formatErr(format string, args ...any) error {
	return fmt.Errorf("datamatrix: "+format+": %w", append(args, symscan.ErrFormat)...)
}

// decodeBitStream interprets corrected data codewords.
func decodeBitStream(data []byte) (*internal.DecoderResult, error) {
	s := &stream{bits: bitutil.NewBitSource(data), sequence: -1, fileID: -1}
	m := modeASCII
	for m != modePad && s.bits.Available() > 0 {
		next, err := modeASCII, error(nil)
		switch m {
		case modeASCII:
			next, err = s.ascii()
		case modeC40:
			err = s.triplets(c40Set)
		case modeText:
			err = s.triplets(textSet)
		case modeX12:
			err = s.x12()
		case modeEDIFACT:
			err = s.edifact()
		case modeBase256:
			err = s.base256()
		}
		if err != nil {
			return nil, err
		}
		m = next
	}
	_, _ = s.out.WriteString(s.trailer)
	text, err := s.out.String()
	if err != nil {
		return nil, fmt.Errorf("datamatrix: %w: %w", symscan.ErrFormat, err)
	}

	res := internal.NewDecoderResult(data, text)
	res.ByteSegments = s.segments
	res.StructuredAppendSequence = s.sequence
	res.StructuredAppendParity = s.fileID
	res.SymbologyModifier = s.symbologyModifier()
	return res, nil
}

// symbologyModifier is the digit of the "]d" identifier: FNC1 in the first
// or fifth position marks GS1 data, in the second or sixth AIM data.
func (s *stream) symbologyModifier() int {
	has := func(positions ...int) bool {
		for _, at := range s.fnc1At {
			for _, p := range positions {
				if at == p {
					return true
				}
			}
		}
		return false
	}
	m := 1
	switch {
	case has(0, 4):
		m = 2
	case has(1, 5):
		m = 3
	}
	if s.eci {
		m += 3
	}
	return m
}

func (s *stream) ascii() (mode, error) {
	upper := false
	for s.bits.Available() > 0 {
		c, err := s.read(8)
		if err != nil {
			return 0, err
		}
		switch {
		case c == 0:
			return 0, formatErr("ASCII codeword 0")
		case c <= 128:
			if upper {
				c += 128
			}
			_ = s.out.WriteByte(byte(c - 1))
			return modeASCII, nil
		case c == cwPad:
			return modePad, nil
		case c < cwLatchC40:
			v := c - 130
			if v < 10 {
				_ = s.out.WriteByte('0')
			}
			_, _ = s.out.WriteString(strconv.Itoa(v))
		case c == cwLatchC40:
			return modeC40, nil
		case c == cwLatchBase256:
			return modeBase256, nil
		case c == cwFNC1:
			s.fnc1At = append(s.fnc1At, s.out.Len())
			_ = s.out.WriteByte(groupSeparator)
		case c == cwStructAppend:
			if s.bits.ByteOffset() != 1 {
				return 0, formatErr("structured append after the first codeword")
			}
			if err := s.structuredAppend(); err != nil {
				return 0, err
			}
		case c == cwReaderProgram:
		case c == cwUpperShift:
			upper = true
		case c == cwMacro05, c == cwMacro06:
			_, _ = fmt.Fprintf(&s.out, "[)>\x1e%02d\x1d", c-cwMacro05+5)
			s.trailer = macroTrailer + s.trailer
		case c == cwLatchX12:
			return modeX12, nil
		case c == cwLatchText:
			return modeText, nil
		case c == cwLatchEDIFACT:
			return modeEDIFACT, nil
		case c == cwECI:
			if err := s.switchECI(); err != nil {
				return 0, err
			}
		default:
			// some encoders finish with an unlatch even in ASCII
			if c != cwUnlatch || s.bits.Available() != 0 {
				return 0, formatErr("ASCII codeword %d", c)
			}
		}
	}
	return modeASCII, nil
}

func (s *stream) structuredAppend() error {
	seq, err := s.read(8)
	if err != nil {
		return err
	}
	id, err := s.read(16)
	if err != nil {
		return err
	}
	s.sequence, s.fileID = seq, id
	return nil
}

// switchECI reads a designator of one to three codewords and changes the
// charset of everything that follows.
func (s *stream) switchECI() error {
	c1, err := s.read(8)
	if err != nil {
		return err
	}
	var value int
	switch {
	case c1 <= 127:
		value = c1 - 1
	case c1 <= 191:
		c2, err := s.read(8)
		if err != nil {
			return err
		}
		value = (c1-128)*254 + 127 + c2 - 1
	default:
		c2, err := s.read(8)
		if err != nil {
			return err
		}
		c3, err := s.read(8)
		if err != nil {
			return err
		}
		value = (c1-192)*64516 + 16383 + (c2-1)*254 + c3 - 1
	}
	eci, err := charset.ByValue(value)
	if err != nil {
		return fmt.Errorf("datamatrix: %w: %w", symscan.ErrFormat, err)
	}
	if err := s.out.SetCharset(eci.Name); err != nil {
		return fmt.Errorf("datamatrix: %w: %w", symscan.ErrFormat, err)
	}
	s.eci = true
	return nil
}

// splitTriplet unpacks three base-40 values from a codeword pair:
// 1600*c1 + 40*c2 + c3 + 1.
func splitTriplet(first, second int) [3]int {
	v := first<<8 + second - 1
	return [3]int{v / 1600, v / 40 % 40, v % 40}
}

// pair reads the next codeword pair of a C40, Text or X12 segment. done is
// set by an unlatch, or when a single codeword remains, since that one is
// encoded in ASCII.
func (s *stream) pair() (vals [3]int, done bool, err error) {
	if s.bits.Available() == 8 {
		return vals, true, nil
	}
	first, err := s.read(8)
	if err != nil {
		return vals, false, err
	}
	if first == cwUnlatch {
		return vals, true, nil
	}
	second, err := s.read(8)
	if err != nil {
		return vals, false, err
	}
	return splitTriplet(first, second), false, nil
}

func (s *stream) triplets(set tripletSet) error {
	upper := false
	shift := 0
	emit := func(c int) {
		if upper {
			c += 128
			upper = false
		}
		_ = s.out.WriteByte(byte(c))
	}
	for s.bits.Available() > 0 {
		vals, done, err := s.pair()
		if err != nil || done {
			return err
		}
		for _, v := range vals {
			switch shift {
			case 0:
				if v < 3 {
					shift = v + 1
					continue
				}
				if v >= len(set.basic) {
					return formatErr("basic set value %d", v)
				}
				emit(int(set.basic[v]))
			case 1:
				emit(v)
			case 2:
				switch {
				case v < len(shift2Set):
					emit(int(shift2Set[v]))
				case v == c40ShiftFNC1:
					_ = s.out.WriteByte(groupSeparator)
				case v == c40ShiftUpper:
					upper = true
				default:
					return formatErr("shift 2 value %d", v)
				}
			case 3:
				if v >= len(set.shift3) {
					return formatErr("shift 3 value %d", v)
				}
				emit(int(set.shift3[v]))
			}
			shift = 0
		}
	}
	return nil
}

func (s *stream) x12() error {
	for s.bits.Available() > 0 {
		vals, done, err := s.pair()
		if err != nil || done {
			return err
		}
		for _, v := range vals {
			var c byte
			switch {
			case v == 0:
				c = '\r'
			case v == 1:
				c = '*'
			case v == 2:
				c = '>'
			case v == 3:
				c = ' '
			case v < 14:
				c = byte(v + 44)
			case v < 40:
				c = byte(v + 51)
			default:
				return formatErr("X12 value %d", v)
			}
			_ = s.out.WriteByte(c)
		}
	}
	return nil
}

// edifact reads 6-bit values four at a time. The last two codewords of the
// symbol are always ASCII.
func (s *stream) edifact() error {
	for s.bits.Available() > 16 {
		for i := 0; i < 4; i++ {
			v, err := s.read(6)
			if err != nil {
				return err
			}
			if v == edifactUnlatch {
				if off := s.bits.BitOffset(); off != 0 {
					if _, err := s.read(8 - off); err != nil {
						return err
					}
				}
				return nil
			}
			if v&0x20 == 0 {
				v |= 0x40
			}
			_ = s.out.WriteByte(byte(v))
		}
	}
	return nil
}

func (s *stream) base256() error {
	pos := 1 + s.bits.ByteOffset()
	next := func() (int, error) {
		v, err := s.read(8)
		if err != nil {
			return 0, err
		}
		v = unrandomize255(v, pos)
		pos++
		return v, nil
	}

	d1, err := next()
	if err != nil {
		return err
	}
	var count int
	switch {
	case d1 == 0:
		count = s.bits.Available() / 8
	case d1 < base256MaxLength:
		count = d1
	default:
		d2, err := next()
		if err != nil {
			return err
		}
		count = base256MaxLength*(d1-249) + d2
	}

	buf := make([]byte, count)
	for i := range buf {
		if s.bits.Available() < 8 {
			return formatErr("base 256 segment of %d bytes ends after %d", count, i)
		}
		v, err := next()
		if err != nil {
			return err
		}
		buf[i] = byte(v)
	}
	s.segments = append(s.segments, buf)
	_, _ = s.out.Write(buf)
	return nil
}

// unrandomize255 undoes the 255-state randomization applied to Base 256
// codewords; pos is the 1-based codeword position in the symbol.
func unrandomize255(v, pos int) int {
	v -= (149*pos)%255 + 1
	if v < 0 {
		v += 256
	}
	return v
}

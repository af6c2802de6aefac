package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/charset"
	"github.com/ericlevine/symscan/internal"
)

// Mode is the four-bit segment indicator.
type Mode int

const (
	ModeTerminator         Mode = 0x0
	ModeNumeric            Mode = 0x1
	ModeAlphanumeric       Mode = 0x2
	ModeStructuredAppend   Mode = 0x3
	ModeByte               Mode = 0x4
	ModeFNC1FirstPosition  Mode = 0x5
	ModeECI                Mode = 0x7
	ModeKanji              Mode = 0x8
	ModeFNC1SecondPosition Mode = 0x9
	ModeHanzi              Mode = 0xD
)

// countBits gives the character count width for versions 1-9, 10-26 and
// 27-40.
var countBits = map[Mode][3]int{
	ModeNumeric:      {10, 12, 14},
	ModeAlphanumeric: {9, 11, 13},
	ModeByte:         {8, 16, 16},
	ModeKanji:        {8, 10, 12},
	ModeHanzi:        {8, 10, 12},
}

func (m Mode) countBits(v *Version) int {
	widths := countBits[m]
	switch {
	case v.Number <= 9:
		return widths[0]
	case v.Number <= 26:
		return widths[1]
	default:
		return widths[2]
	}
}

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// hanzi subset indicator for GB 2312
const gb2312Subset = 1

type stream struct {
	bits *bitutil.BitSource
	text strings.Builder

	hint     string
	eci      *charset.ECI
	segments [][]byte
	fnc1     bool
}

func (s *stream) read(n int) (int, error) {
	v, err := s.bits.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("qrcode: %w: %w", symscan.ErrFormat, err)
	}
	return v, nil
}

func truncated(what string) error {
	return fmt.Errorf("qrcode: truncated %s segment: %w", what, symscan.ErrFormat)
}

// decodeBitStream interprets corrected data codewords as a sequence of mode
// segments. hint names the charset for byte segments without an ECI; empty
// means guess.
func decodeBitStream(data []byte, version *Version, level ECLevel, hint string) (*internal.DecoderResult, error) {
	s := &stream{bits: bitutil.NewBitSource(data), hint: hint}
	sequence, parity := -1, -1
	fnc1First, fnc1Second := false, false

	for {
		mode := ModeTerminator
		if s.bits.Available() >= 4 {
			v, err := s.read(4)
			if err != nil {
				return nil, err
			}
			mode = Mode(v)
		}

		var err error
		switch mode {
		case ModeTerminator:
		case ModeFNC1FirstPosition:
			fnc1First, s.fnc1 = true, true
		case ModeFNC1SecondPosition:
			fnc1Second, s.fnc1 = true, true
		case ModeStructuredAppend:
			if s.bits.Available() < 16 {
				return nil, truncated("structured append")
			}
			sequence, _ = s.read(8)
			parity, _ = s.read(8)
		case ModeECI:
			err = s.switchECI()
		case ModeHanzi:
			var subset, count int
			if subset, err = s.read(4); err == nil {
				if count, err = s.read(mode.countBits(version)); err == nil && subset == gb2312Subset {
					err = s.doubleByte(count, 0x060, 0x00A00, 0x0A1A1, 0x0A6A1, "GB2312")
				}
			}
		case ModeNumeric, ModeAlphanumeric, ModeByte, ModeKanji:
			var count int
			if count, err = s.read(mode.countBits(version)); err != nil {
				break
			}
			switch mode {
			case ModeNumeric:
				err = s.numeric(count)
			case ModeAlphanumeric:
				err = s.alphanumeric(count)
			case ModeByte:
				err = s.bytes(count)
			default:
				err = s.doubleByte(count, 0x0C0, 0x01F00, 0x08140, 0x0C140, "Shift_JIS")
			}
		default:
			return nil, fmt.Errorf("qrcode: mode indicator %#x: %w", int(mode), symscan.ErrFormat)
		}
		if err != nil {
			return nil, err
		}
		if mode == ModeTerminator {
			break
		}
	}

	res := internal.NewDecoderResult(data, s.text.String())
	res.ByteSegments = s.segments
	res.ECLevel = level.String()
	res.StructuredAppendSequence = sequence
	res.StructuredAppendParity = parity
	res.SymbologyModifier = symbologyModifier(s.eci != nil, fnc1First, fnc1Second)
	return res, nil
}

// symbologyModifier is the digit of the "]Q" identifier.
func symbologyModifier(eci, fnc1First, fnc1Second bool) int {
	m := 1
	switch {
	case fnc1First:
		m = 3
	case fnc1Second:
		m = 5
	}
	if eci {
		m++
	}
	return m
}

func (s *stream) switchECI() error {
	first, err := s.read(8)
	if err != nil {
		return err
	}
	var value int
	switch {
	case first&0x80 == 0:
		value = first & 0x7F
	case first&0xC0 == 0x80:
		next, err := s.read(8)
		if err != nil {
			return err
		}
		value = (first&0x3F)<<8 | next
	case first&0xE0 == 0xC0:
		next, err := s.read(16)
		if err != nil {
			return err
		}
		value = (first&0x1F)<<16 | next
	default:
		return fmt.Errorf("qrcode: ECI lead byte %#x: %w", first, symscan.ErrFormat)
	}
	eci, err := charset.ByValue(value)
	if err != nil {
		return fmt.Errorf("qrcode: %w: %w", symscan.ErrFormat, err)
	}
	s.eci = eci
	return nil
}

func (s *stream) numeric(count int) error {
	for ; count >= 3; count -= 3 {
		if s.bits.Available() < 10 {
			return truncated("numeric")
		}
		v, _ := s.read(10)
		if v >= 1000 {
			return fmt.Errorf("qrcode: numeric triple %d: %w", v, symscan.ErrFormat)
		}
		fmt.Fprintf(&s.text, "%03d", v)
	}
	switch count {
	case 2:
		if s.bits.Available() < 7 {
			return truncated("numeric")
		}
		v, _ := s.read(7)
		if v >= 100 {
			return fmt.Errorf("qrcode: numeric pair %d: %w", v, symscan.ErrFormat)
		}
		fmt.Fprintf(&s.text, "%02d", v)
	case 1:
		if s.bits.Available() < 4 {
			return truncated("numeric")
		}
		v, _ := s.read(4)
		if v >= 10 {
			return fmt.Errorf("qrcode: numeric digit %d: %w", v, symscan.ErrFormat)
		}
		s.text.WriteString(strconv.Itoa(v))
	}
	return nil
}

func alnum(v int) (byte, error) {
	if v >= len(alphanumeric) {
		return 0, fmt.Errorf("qrcode: alphanumeric value %d: %w", v, symscan.ErrFormat)
	}
	return alphanumeric[v], nil
}

func (s *stream) alphanumeric(count int) error {
	seg := make([]byte, 0, count)
	for ; count > 1; count -= 2 {
		if s.bits.Available() < 11 {
			return truncated("alphanumeric")
		}
		v, _ := s.read(11)
		a, err := alnum(v / 45)
		if err != nil {
			return err
		}
		b, err := alnum(v % 45)
		if err != nil {
			return err
		}
		seg = append(seg, a, b)
	}
	if count == 1 {
		if s.bits.Available() < 6 {
			return truncated("alphanumeric")
		}
		v, _ := s.read(6)
		c, err := alnum(v)
		if err != nil {
			return err
		}
		seg = append(seg, c)
	}
	if s.fnc1 {
		// "%%" is a literal percent, a lone "%" stands for GS
		out := seg[:0]
		for i := 0; i < len(seg); i++ {
			switch {
			case seg[i] != '%':
				out = append(out, seg[i])
			case i+1 < len(seg) && seg[i+1] == '%':
				out = append(out, '%')
				i++
			default:
				out = append(out, 0x1D)
			}
		}
		seg = out
	}
	s.text.Write(seg)
	return nil
}

func (s *stream) bytes(count int) error {
	if 8*count > s.bits.Available() {
		return truncated("byte")
	}
	raw := make([]byte, count)
	for i := range raw {
		v, _ := s.read(8)
		raw[i] = byte(v)
	}
	var name string
	if s.eci != nil {
		name = s.eci.Name
	} else {
		name = charset.Guess(raw, s.hint)
	}
	text, err := charset.Decode(raw, name)
	if err != nil {
		return fmt.Errorf("qrcode: %w: %w", symscan.ErrFormat, err)
	}
	s.text.WriteString(text)
	s.segments = append(s.segments, raw)
	return nil
}

// doubleByte reads 13-bit Kanji or Hanzi values. Each packs a two-byte code
// as hi*radix+lo after subtracting one of two offsets, chosen by whether
// the assembled value is below split.
func (s *stream) doubleByte(count, radix, split, lowOffset, highOffset int, name string) error {
	if 13*count > s.bits.Available() {
		return truncated(name)
	}
	raw := make([]byte, 0, 2*count)
	for i := 0; i < count; i++ {
		v, _ := s.read(13)
		code := (v/radix)<<8 | v%radix
		if code < split {
			code += lowOffset
		} else {
			code += highOffset
		}
		raw = append(raw, byte(code>>8), byte(code))
	}
	text, err := charset.Decode(raw, name)
	if err != nil {
		return fmt.Errorf("qrcode: %w: %w", symscan.ErrFormat, err)
	}
	s.text.WriteString(text)
	return nil
}

package decoder

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/charset"
	"github.com/ericlevine/symscan/internal"
)

const (
	cwTextLatch        = 900
	cwByteLatch        = 901
	cwNumericLatch     = 902
	cwByteShift        = 913
	cwMacroTerminator  = 922
	cwMacroOptional    = 923
	cwByteLatch6       = 924
	cwECIUser          = 925
	cwECIGeneral       = 926
	cwECICharset       = 927
	cwMacroControl     = 928
	maxNumericGroup    = 15
	segmentIndexLength = 2
)

// Macro PDF417 optional field designators.
const (
	fieldFileName = iota
	fieldSegmentCount
	fieldTimestamp
	fieldSender
	fieldAddressee
	fieldFileSize
	fieldChecksum
)

// ResultMetadata is the Macro PDF417 control block: it ties a symbol to the
// other segments of a file spread over several symbols. Numeric optional
// fields that were absent are -1.
type ResultMetadata struct {
	SegmentIndex int
	FileID       string
	// OptionalData holds the raw codewords of the optional fields.
	OptionalData []int
	LastSegment  bool
	SegmentCount int
	FileName     string
	Sender       string
	Addressee    string
	Timestamp    int64
	FileSize     int64
	Checksum     int
}

func newResultMetadata() *ResultMetadata {
	return &ResultMetadata{SegmentCount: -1, Timestamp: -1, FileSize: -1, Checksum: -1}
}

// textMode is a Text Compaction sub-mode.
type textMode int

const (
	textAlpha textMode = iota
	textLower
	textMixed
	textPunct
	textAlphaShift
	textPunctShift
)

const (
	mixedChars = "0123456789&\r\t,:#-.$/+%*=^"
	punctChars = ";<>@[\\]_`~!\r\t,:\n-.$/\"|*()?{}'"
)

// Text Compaction control values, each meaning depends on the sub-mode.
const (
	tcSpace      = 26
	tcToLower    = 27 // LL in Alpha and Mixed, AS in Lower
	tcToMixed    = 28 // ML in Alpha and Lower, AL in Mixed
	tcPunctShift = 29 // PS everywhere but Punct, where it is PAL
	tcToPunct    = 25 // PL in Mixed
)

var exp900 = func() [16]*big.Int {
	var t [16]*big.Int
	t[0] = big.NewInt(1)
	nine := big.NewInt(900)
	for i := 1; i < len(t); i++ {
		t[i] = new(big.Int).Mul(t[i-1], nine)
	}
	return t
}()

type stream struct {
	cw   []int
	pos  int
	end  int
	out  charset.Builder
	meta *ResultMetadata
	eci  bool
}

func formatErr(format string, args ...any) error {
	return fmt.Errorf("pdf417: "+format+": %w", append(args, symscan.ErrFormat)...)
}

func (s *stream) more() bool { return s.pos < s.end }

func (s *stream) next() (int, error) {
	if s.pos >= s.end {
		return 0, formatErr("codeword %d past length descriptor %d", s.pos, s.end)
	}
	c := s.cw[s.pos]
	s.pos++
	return c, nil
}

// decodeBitStream interprets corrected codewords. codewords[0] is the
// length descriptor and has been checked against len(codewords).
func decodeBitStream(codewords []int, ecLevel string) (*internal.DecoderResult, error) {
	s := &stream{cw: codewords, pos: 1, end: codewords[0], meta: newResultMetadata()}
	if err := s.text(&s.out); err != nil {
		return nil, err
	}
	for s.more() {
		code, _ := s.next()
		var err error
		switch code {
		case cwTextLatch:
			err = s.text(&s.out)
		case cwByteLatch, cwByteLatch6:
			err = s.bytes(code)
		case cwByteShift:
			var b int
			if b, err = s.next(); err == nil {
				err = s.out.WriteByte(byte(b))
			}
		case cwNumericLatch:
			err = s.numeric(&s.out)
		case cwECICharset:
			err = s.switchECI(&s.out)
		case cwECIGeneral:
			s.pos += 2
		case cwECIUser:
			s.pos++
		case cwMacroControl:
			err = s.macro()
		case cwMacroOptional, cwMacroTerminator:
			err = formatErr("codeword %d outside a macro control block", code)
		default:
			// Symbols that omit the initial latch start in Text Compaction.
			s.pos--
			err = s.text(&s.out)
		}
		if err != nil {
			return nil, err
		}
	}
	text, err := s.out.String()
	if err != nil {
		return nil, fmt.Errorf("pdf417: %w: %w", symscan.ErrFormat, err)
	}
	if text == "" && s.meta.FileID == "" {
		return nil, formatErr("no data")
	}
	result := internal.NewDecoderResult(nil, text)
	result.ECLevel = ecLevel
	result.Other = s.meta
	return result, nil
}

// switchECI reads a charset designator and applies it to out.
func (s *stream) switchECI(out *charset.Builder) error {
	value, err := s.next()
	if err != nil {
		return err
	}
	eci, err := charset.ByValue(value)
	if err != nil {
		return fmt.Errorf("pdf417: %w: %w", symscan.ErrFormat, err)
	}
	if err := out.SetCharset(eci.Name); err != nil {
		return fmt.Errorf("pdf417: %w: %w", symscan.ErrFormat, err)
	}
	s.eci = true
	return nil
}

// textValue is one Text Compaction value; b holds the byte that follows a
// byte shift.
type textValue struct {
	v int
	b byte
}

// text decodes Text Compaction: each codeword below 900 packs two base-30
// values. It stops before any codeword that starts another mode.
func (s *stream) text(out *charset.Builder) error {
	var values []textValue
	mode := textAlpha
	for s.more() {
		code, _ := s.next()
		if code < cwTextLatch {
			values = append(values, textValue{v: code / 30}, textValue{v: code % 30})
			continue
		}
		switch code {
		case cwTextLatch:
			values = append(values, textValue{v: cwTextLatch})
		case cwByteLatch, cwByteLatch6, cwNumericLatch, cwECIUser, cwECIGeneral,
			cwMacroControl, cwMacroOptional, cwMacroTerminator:
			s.pos--
			decodeText(values, out, mode)
			return nil
		case cwByteShift:
			b, err := s.next()
			if err != nil {
				return err
			}
			values = append(values, textValue{v: cwByteShift, b: byte(b)})
		case cwECICharset:
			mode = decodeText(values, out, mode)
			values = values[:0]
			if err := s.switchECI(out); err != nil {
				return err
			}
		}
	}
	decodeText(values, out, mode)
	return nil
}

// decodeText runs the sub-mode state machine over values starting in mode
// and returns the mode latched at the end.
func decodeText(values []textValue, out *charset.Builder, mode textMode) textMode {
	sub, beforeShift, latched := mode, mode, mode
	latch := func(m textMode) { sub, latched = m, m }
	shift := func(m textMode) { beforeShift, sub = sub, m }
	for _, tv := range values {
		v := tv.v
		var ch byte
		switch sub {
		case textAlpha, textLower:
			switch {
			case v < 26 && sub == textAlpha:
				ch = byte('A' + v)
			case v < 26:
				ch = byte('a' + v)
			case v == tcSpace:
				ch = ' '
			case v == tcToLower && sub == textAlpha:
				latch(textLower)
			case v == tcToLower:
				shift(textAlphaShift)
			case v == tcToMixed:
				latch(textMixed)
			case v == tcPunctShift:
				shift(textPunctShift)
			case v == cwByteShift:
				out.WriteByte(tv.b)
			case v == cwTextLatch:
				latch(textAlpha)
			}
		case textMixed:
			switch {
			case v < tcToPunct:
				ch = mixedChars[v]
			case v == tcToPunct:
				latch(textPunct)
			case v == tcSpace:
				ch = ' '
			case v == tcToLower:
				latch(textLower)
			case v == tcToMixed, v == cwTextLatch:
				latch(textAlpha)
			case v == tcPunctShift:
				shift(textPunctShift)
			case v == cwByteShift:
				out.WriteByte(tv.b)
			}
		case textPunct:
			switch {
			case v < tcPunctShift:
				ch = punctChars[v]
			case v == tcPunctShift, v == cwTextLatch:
				latch(textAlpha)
			case v == cwByteShift:
				out.WriteByte(tv.b)
			}
		case textAlphaShift:
			sub = beforeShift
			switch {
			case v < 26:
				ch = byte('A' + v)
			case v == tcSpace:
				ch = ' '
			case v == cwTextLatch:
				sub = textAlpha
			}
		case textPunctShift:
			sub = beforeShift
			switch {
			case v < tcPunctShift:
				ch = punctChars[v]
			case v == tcPunctShift, v == cwTextLatch:
				sub = textAlpha
			case v == cwByteShift:
				out.WriteByte(tv.b)
			}
		}
		if ch != 0 {
			out.WriteByte(ch)
		}
	}
	return latched
}

// bytes decodes Byte Compaction. Full groups of five codewords carry six
// bytes in base 900; a shorter tail carries one byte per codeword. Latch
// 901 only packs a group when more byte data follows it.
func (s *stream) bytes(mode int) error {
	for s.more() {
		for s.more() && s.cw[s.pos] == cwECICharset {
			s.pos++
			if err := s.switchECI(&s.out); err != nil {
				return err
			}
		}
		if !s.more() || s.cw[s.pos] >= cwTextLatch {
			return nil
		}
		var value int64
		count := 0
		for {
			value = 900*value + int64(s.cw[s.pos])
			s.pos++
			count++
			if count >= 5 || !s.more() || s.cw[s.pos] >= cwTextLatch {
				break
			}
		}
		if count == 5 && (mode == cwByteLatch6 || s.more() && s.cw[s.pos] < cwTextLatch) {
			for i := 5; i >= 0; i-- {
				s.out.WriteByte(byte(value >> (8 * i)))
			}
			continue
		}
		s.pos -= count
		for s.more() {
			code := s.cw[s.pos]
			s.pos++
			switch {
			case code < cwTextLatch:
				s.out.WriteByte(byte(code))
			case code == cwECICharset:
				if err := s.switchECI(&s.out); err != nil {
					return err
				}
			default:
				s.pos--
				return nil
			}
		}
	}
	return nil
}

// numeric decodes Numeric Compaction: groups of up to 15 codewords, each a
// base-900 number whose decimal form is the digits behind a leading 1.
func (s *stream) numeric(out *charset.Builder) error {
	group := make([]int, 0, maxNumericGroup)
	for s.more() {
		code, _ := s.next()
		end := !s.more()
		if code < cwTextLatch {
			group = append(group, code)
		} else {
			switch code {
			case cwTextLatch, cwByteLatch, cwByteLatch6, cwECICharset, cwECIUser, cwECIGeneral,
				cwMacroControl, cwMacroOptional, cwMacroTerminator:
				s.pos--
				end = true
			}
		}
		if len(group) > 0 && (len(group) == maxNumericGroup || code == cwNumericLatch || end) {
			digits, err := base900ToDecimal(group)
			if err != nil {
				return err
			}
			out.WriteString(digits)
			group = group[:0]
		}
		if end {
			return nil
		}
	}
	return nil
}

func base900ToDecimal(group []int) (string, error) {
	n := new(big.Int)
	term := new(big.Int)
	for i, c := range group {
		term.Mul(exp900[len(group)-1-i], big.NewInt(int64(c)))
		n.Add(n, term)
	}
	digits := n.String()
	if digits[0] != '1' {
		return "", formatErr("numeric group %v lacks its leading 1", group)
	}
	return digits[1:], nil
}

// macro decodes a Macro PDF417 control block. It runs to the end of the
// data: the control block is always last.
func (s *stream) macro() error {
	if s.pos+segmentIndexLength > s.end {
		return formatErr("truncated macro control block")
	}
	index, err := base900ToDecimal(s.cw[s.pos : s.pos+segmentIndexLength])
	if err != nil {
		return err
	}
	s.pos += segmentIndexLength
	if index != "" {
		if s.meta.SegmentIndex, err = strconv.Atoi(index); err != nil {
			return formatErr("segment index %q", index)
		}
	}

	var fileID strings.Builder
	for s.more() && s.cw[s.pos] != cwMacroTerminator && s.cw[s.pos] != cwMacroOptional {
		fmt.Fprintf(&fileID, "%03d", s.cw[s.pos])
		s.pos++
	}
	if fileID.Len() == 0 {
		return formatErr("macro control block without file id")
	}
	s.meta.FileID = fileID.String()

	optionalStart := -1
	if s.more() && s.cw[s.pos] == cwMacroOptional {
		optionalStart = s.pos + 1
	}
	for s.more() {
		code, _ := s.next()
		switch code {
		case cwMacroOptional:
			if err := s.optionalField(); err != nil {
				return err
			}
		case cwMacroTerminator:
			s.meta.LastSegment = true
		default:
			return formatErr("codeword %d in macro control block", code)
		}
	}
	if optionalStart != -1 {
		n := s.pos - optionalStart
		if s.meta.LastSegment {
			n--
		}
		if n > 0 {
			s.meta.OptionalData = append([]int(nil), s.cw[optionalStart:optionalStart+n]...)
		}
	}
	return nil
}

func (s *stream) optionalField() error {
	field, err := s.next()
	if err != nil {
		return err
	}
	var b charset.Builder
	switch field {
	case fieldFileName, fieldSender, fieldAddressee:
		if err := s.text(&b); err != nil {
			return err
		}
		text, err := b.String()
		if err != nil {
			return fmt.Errorf("pdf417: %w: %w", symscan.ErrFormat, err)
		}
		switch field {
		case fieldFileName:
			s.meta.FileName = text
		case fieldSender:
			s.meta.Sender = text
		default:
			s.meta.Addressee = text
		}
	case fieldSegmentCount, fieldTimestamp, fieldFileSize, fieldChecksum:
		if err := s.numeric(&b); err != nil {
			return err
		}
		digits, _ := b.String()
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return formatErr("optional field %d: %q", field, digits)
		}
		switch field {
		case fieldSegmentCount:
			s.meta.SegmentCount = int(n)
		case fieldTimestamp:
			s.meta.Timestamp = n
		case fieldFileSize:
			s.meta.FileSize = n
		default:
			s.meta.Checksum = int(n)
		}
	default:
		return formatErr("unknown optional field %d", field)
	}
	return nil
}

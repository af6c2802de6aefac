// Package charset maps Extended Channel Interpretation designators to text
// encodings and converts decoded byte segments to UTF-8.
package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnknownECI is returned for a designator outside 0..899 or one with no
// known character set.
var ErrUnknownECI = errors.New("charset: unknown ECI")

// ECI is a character set designator.
type ECI struct {
	// Values are the designators mapping to this set; the first is canonical.
	Values []int
	// Name is the canonical charset name, as used in hints.
	Name     string
	Encoding encoding.Encoding
	aliases  []string
}

var ecis = []*ECI{
	{Values: []int{0, 2}, Name: "Cp437", Encoding: charmap.CodePage437, aliases: []string{"IBM437"}},
	{Values: []int{1, 3}, Name: "ISO-8859-1", Encoding: charmap.ISO8859_1, aliases: []string{"ISO8859_1", "LATIN1"}},
	{Values: []int{4}, Name: "ISO-8859-2", Encoding: charmap.ISO8859_2},
	{Values: []int{5}, Name: "ISO-8859-3", Encoding: charmap.ISO8859_3},
	{Values: []int{6}, Name: "ISO-8859-4", Encoding: charmap.ISO8859_4},
	{Values: []int{7}, Name: "ISO-8859-5", Encoding: charmap.ISO8859_5},
	{Values: []int{8}, Name: "ISO-8859-6", Encoding: charmap.ISO8859_6},
	{Values: []int{9}, Name: "ISO-8859-7", Encoding: charmap.ISO8859_7},
	{Values: []int{10}, Name: "ISO-8859-8", Encoding: charmap.ISO8859_8},
	{Values: []int{11}, Name: "ISO-8859-9", Encoding: charmap.ISO8859_9},
	{Values: []int{12}, Name: "ISO-8859-10", Encoding: charmap.ISO8859_10},
	// Windows-874 is a superset of TIS-620, which ISO-8859-11 matches.
	{Values: []int{13}, Name: "ISO-8859-11", Encoding: charmap.Windows874},
	{Values: []int{15}, Name: "ISO-8859-13", Encoding: charmap.ISO8859_13},
	{Values: []int{16}, Name: "ISO-8859-14", Encoding: charmap.ISO8859_14},
	{Values: []int{17}, Name: "ISO-8859-15", Encoding: charmap.ISO8859_15},
	{Values: []int{18}, Name: "ISO-8859-16", Encoding: charmap.ISO8859_16},
	{Values: []int{20}, Name: "Shift_JIS", Encoding: japanese.ShiftJIS, aliases: []string{"SJIS"}},
	{Values: []int{21}, Name: "windows-1250", Encoding: charmap.Windows1250, aliases: []string{"Cp1250"}},
	{Values: []int{22}, Name: "windows-1251", Encoding: charmap.Windows1251, aliases: []string{"Cp1251"}},
	{Values: []int{23}, Name: "windows-1252", Encoding: charmap.Windows1252, aliases: []string{"Cp1252"}},
	{Values: []int{24}, Name: "windows-1256", Encoding: charmap.Windows1256, aliases: []string{"Cp1256"}},
	{Values: []int{25}, Name: "UTF-16BE", Encoding: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), aliases: []string{"UnicodeBig", "UnicodeBigUnmarked"}},
	{Values: []int{26}, Name: "UTF-8", Encoding: unicode.UTF8, aliases: []string{"UTF8"}},
	{Values: []int{27, 170}, Name: "US-ASCII", Encoding: unicode.UTF8, aliases: []string{"ASCII"}},
	{Values: []int{28}, Name: "Big5", Encoding: traditionalchinese.Big5},
	{Values: []int{29}, Name: "GB18030", Encoding: simplifiedchinese.GB18030, aliases: []string{"GB2312", "EUC_CN", "GBK"}},
	{Values: []int{30}, Name: "EUC-KR", Encoding: korean.EUCKR, aliases: []string{"EUC_KR"}},
	{Values: []int{33}, Name: "UTF-16LE", Encoding: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{Values: []int{34}, Name: "UTF-32BE", Encoding: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	{Values: []int{35}, Name: "UTF-32LE", Encoding: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
}

var (
	byValue = map[int]*ECI{}
	byName  = map[string]*ECI{}
)

func init() {
	for _, e := range ecis {
		for _, v := range e.Values {
			byValue[v] = e
		}
		byName[normalize(e.Name)] = e
		for _, a := range e.aliases {
			byName[normalize(a)] = e
		}
	}
	// UTF-16 with a byte order mark, as reported by Guess.
	byName[normalize("UTF-16")] = &ECI{Name: "UTF-16", Encoding: unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)}
}

func normalize(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(name))
}

// ByValue looks up a designator read from a symbol.
func ByValue(value int) (*ECI, error) {
	if value < 0 || value >= 900 {
		return nil, fmt.Errorf("%w: %d out of range", ErrUnknownECI, value)
	}
	e, ok := byValue[value]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownECI, value)
	}
	return e, nil
}

// ByName looks up a charset by name, ignoring case, dashes and underscores.
// It returns nil for an unknown name.
func ByName(name string) *ECI {
	return byName[normalize(name)]
}

// Decode converts data in the named charset to a UTF-8 string. An unknown
// name decodes as ISO-8859-1, which maps every byte.
func Decode(data []byte, name string) (string, error) {
	e := ByName(name)
	if e == nil {
		e = byValue[1]
	}
	out, err := e.Encoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("charset: decode %s: %w", e.Name, err)
	}
	return string(out), nil
}

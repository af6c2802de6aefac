package decoder

// table is one of the Aztec character sets.
type table int

const (
	upper table = iota
	lower
	mixed
	digit
	punct
	binary
)

func (t table) width() int {
	if t == digit {
		return 4
	}
	return 5
}

type entryKind int

const (
	literal entryKind = iota
	switchTable
	flag
)

type entry struct {
	kind  entryKind
	text  string
	to    table
	latch bool
}

func lit(s string) entry    { return entry{kind: literal, text: s} }
func shiftTo(t table) entry { return entry{kind: switchTable, to: t} }
func latchTo(t table) entry { return entry{kind: switchTable, to: t, latch: true} }

func letters(from byte) []entry {
	out := make([]entry, 26)
	for i := range out {
		out[i] = lit(string(rune(from) + rune(i)))
	}
	return out
}

func row(parts ...any) []entry {
	var out []entry
	for _, p := range parts {
		switch v := p.(type) {
		case entry:
			out = append(out, v)
		case []entry:
			out = append(out, v...)
		case string:
			out = append(out, lit(v))
		}
	}
	return out
}

var tables = map[table][]entry{
	upper: row(shiftTo(punct), " ", letters('A'), latchTo(lower), latchTo(mixed), latchTo(digit), shiftTo(binary)),
	lower: row(shiftTo(punct), " ", letters('a'), shiftTo(upper), latchTo(mixed), latchTo(digit), shiftTo(binary)),
	mixed: row(shiftTo(punct), " ",
		"\x01", "\x02", "\x03", "\x04", "\x05", "\x06", "\x07", "\b", "\t", "\n", "\x0b", "\f", "\r",
		"\x1b", "\x1c", "\x1d", "\x1e", "\x1f", "@", "\\", "^", "_", "`", "|", "~", "\x7f",
		latchTo(lower), latchTo(upper), latchTo(punct), shiftTo(binary)),
	punct: row(entry{kind: flag}, "\r", "\r\n", ". ", ", ", ": ",
		"!", "\"", "#", "$", "%", "&", "'", "(", ")", "*", "+", ",", "-", ".", "/",
		":", ";", "<", "=", ">", "?", "[", "]", "{", "}", latchTo(upper)),
	digit: row(shiftTo(punct), " ", "0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ",", ".",
		latchTo(upper), shiftTo(upper)),
}

func (t table) entry(code int) entry {
	return tables[t][code]
}

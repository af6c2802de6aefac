package charset

// Guess picks the most plausible charset for byte-mode data that carried no
// ECI. A non-empty hint wins outright. The answer is one of "UTF-16",
// "UTF-8", "Shift_JIS" or "ISO-8859-1".
func Guess(data []byte, hint string) string {
	if hint != "" {
		return hint
	}
	if len(data) > 2 && (data[0] == 0xFE && data[1] == 0xFF || data[0] == 0xFF && data[1] == 0xFE) {
		return "UTF-16"
	}

	u := utf8Scan{ok: true}
	l := latin1Scan{ok: true}
	s := sjisScan{ok: true}
	for _, b := range data {
		if !u.ok && !l.ok && !s.ok {
			break
		}
		v := int(b)
		if u.ok {
			u.feed(v)
		}
		if l.ok {
			l.feed(v)
		}
		if s.ok {
			s.feed(v)
		}
	}
	if u.pending > 0 {
		u.ok = false
	}
	if s.pending > 0 {
		s.ok = false
	}

	bom := len(data) > 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF
	switch {
	case u.ok && (bom || u.multibyte > 0):
		return "UTF-8"
	case s.ok && (s.maxKatakanaRun >= 3 || s.maxDoubleRun >= 3):
		return "Shift_JIS"
	case l.ok && s.ok:
		// Two lone half-width katakana or a lot of unusual Latin-1
		// punctuation both point at Shift_JIS.
		if s.maxKatakanaRun == 2 && s.katakana == 2 || l.highOther*10 >= len(data) {
			return "Shift_JIS"
		}
		return "ISO-8859-1"
	case l.ok:
		return "ISO-8859-1"
	case s.ok:
		return "Shift_JIS"
	default:
		return "UTF-8"
	}
}

type utf8Scan struct {
	ok        bool
	pending   int
	multibyte int
}

func (u *utf8Scan) feed(v int) {
	switch {
	case u.pending > 0:
		if v&0x80 == 0 {
			u.ok = false
			return
		}
		u.pending--
	case v&0x80 == 0:
	case v&0x40 == 0:
		u.ok = false
	case v&0x20 == 0:
		u.pending, u.multibyte = 1, u.multibyte+1
	case v&0x10 == 0:
		u.pending, u.multibyte = 2, u.multibyte+1
	case v&0x08 == 0:
		u.pending, u.multibyte = 3, u.multibyte+1
	default:
		u.ok = false
	}
}

type latin1Scan struct {
	ok        bool
	highOther int
}

func (l *latin1Scan) feed(v int) {
	switch {
	case v > 0x7F && v < 0xA0:
		l.ok = false
	case v > 0x9F && (v < 0xC0 || v == 0xD7 || v == 0xF7):
		l.highOther++
	}
}

type sjisScan struct {
	ok             bool
	pending        int
	katakana       int
	katakanaRun    int
	maxKatakanaRun int
	doubleRun      int
	maxDoubleRun   int
}

func (s *sjisScan) feed(v int) {
	switch {
	case s.pending > 0:
		if v < 0x40 || v == 0x7F || v > 0xFC {
			s.ok = false
			return
		}
		s.pending--
	case v == 0x80 || v == 0xA0 || v > 0xEF:
		s.ok = false
	case v > 0xA0 && v < 0xE0:
		s.katakana++
		s.doubleRun = 0
		s.katakanaRun++
		s.maxKatakanaRun = max(s.maxKatakanaRun, s.katakanaRun)
	case v > 0x7F:
		s.pending++
		s.katakanaRun = 0
		s.doubleRun++
		s.maxDoubleRun = max(s.maxDoubleRun, s.doubleRun)
	default:
		s.katakanaRun, s.doubleRun = 0, 0
	}
}

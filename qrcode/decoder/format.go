package decoder

import "math/bits"

// ECLevel is a QR error correction level. The values index Version tables.
type ECLevel int

const (
	ECLevelL ECLevel = iota // recovers about 7%
	ECLevelM                // about 15%
	ECLevelQ                // about 25%
	ECLevelH                // about 30%
)

func (l ECLevel) String() string {
	if l >= ECLevelL && l <= ECLevelH {
		return "LMQH"[l : l+1]
	}
	return "?"
}

// levelForBits follows the two-bit encoding in format information.
var levelForBits = [4]ECLevel{ECLevelM, ECLevelL, ECLevelH, ECLevelQ}

// FormatInformation is the error correction level and data mask read from
// the two format information strips.
type FormatInformation struct {
	ECLevel  ECLevel
	DataMask int
}

const formatMask = 0x5412

// formatCodes lists the masked 15-bit BCH codes, indexed by the five data
// bits they encode.
var formatCodes = [32]int{
	0x5412, 0x5125, 0x5E7C, 0x5B4B, 0x45F9, 0x40CE, 0x4F97, 0x4AA0,
	0x77C4, 0x72F3, 0x7DAA, 0x789D, 0x662F, 0x6318, 0x6C41, 0x6976,
	0x1689, 0x13BE, 0x1CE7, 0x19D0, 0x0762, 0x0255, 0x0D0C, 0x083B,
	0x355F, 0x3068, 0x3F31, 0x3A06, 0x24B4, 0x2183, 0x2EDA, 0x2BED,
}

// decodeFormat picks the format closest to either copy. Some encoders forget
// the mask, so the unmasked readings are tried as well.
func decodeFormat(copy1, copy2 int) (*FormatInformation, bool) {
	if f, ok := closestFormat(copy1, copy2); ok {
		return f, true
	}
	return closestFormat(copy1^formatMask, copy2^formatMask)
}

func closestFormat(copy1, copy2 int) (*FormatInformation, bool) {
	best, bestDiff := 0, 32
	for data, code := range formatCodes {
		if code == copy1 || code == copy2 {
			return newFormat(data), true
		}
		for _, c := range [2]int{copy1, copy2} {
			if d := bits.OnesCount(uint(c ^ code)); d < bestDiff {
				best, bestDiff = data, d
			}
		}
	}
	if bestDiff <= 3 {
		return newFormat(best), true
	}
	return nil, false
}

func newFormat(data int) *FormatInformation {
	return &FormatInformation{ECLevel: levelForBits[data>>3&3], DataMask: data & 7}
}

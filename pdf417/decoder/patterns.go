package decoder

import (
	"math"
	"slices"
)

const (
	barsInCodeword    = 8
	modulesInCodeword = 17
	numCodewords      = 929
)

type pattern struct {
	bits   int
	value  int
	ratios [barsInCodeword]float32
}

var (
	// patterns is sorted by bits.
	patterns     = buildPatterns()
	patternIndex = indexPatterns(patterns)
)

func buildPatterns() []pattern {
	var all []pattern
	for _, cluster := range clusterPatterns {
		for value, bits := range cluster {
			p := pattern{bits: int(bits), value: value}
			w := widths(int(bits))
			for i, n := range w {
				p.ratios[i] = float32(n) / modulesInCodeword
			}
			all = append(all, p)
		}
	}
	slices.SortFunc(all, func(a, b pattern) int { return a.bits - b.bits })
	return all
}

func indexPatterns(all []pattern) map[int]int {
	m := make(map[int]int, len(all))
	for _, p := range all {
		m[p.bits] = p.value
	}
	return m
}

// widths splits a 17-module pattern into its eight bar and space widths.
func widths(bits int) [barsInCodeword]int {
	var w [barsInCodeword]int
	i := barsInCodeword - 1
	prev := bits & 1
	for n := 0; n < modulesInCodeword; n++ {
		if bit := bits & 1; bit != prev {
			prev = bit
			i--
		}
		w[i]++
		bits >>= 1
	}
	return w
}

// codewordValue maps a pattern to its codeword value, or -1 when the
// pattern is not in any cluster.
func codewordValue(bits int) int {
	if v, ok := patternIndex[bits&0x3FFFF]; ok {
		return v
	}
	return -1
}

// bucket is the cluster number, 0, 3 or 6, of a set of widths.
func bucket(w [barsInCodeword]int) int {
	return (w[0] - w[2] + w[4] - w[6] + 9) % 9
}

// decodePattern turns the measured widths of a codeword's bars and spaces
// into a known pattern. The widths are first resampled to 17 modules; when
// that gives no valid pattern the closest one by width ratios is chosen.
func decodePattern(moduleBitCount []int) int {
	if bits := patternBits(sampleBitCounts(moduleBitCount)); codewordValue(bits) != -1 {
		return bits
	}
	return closestPattern(moduleBitCount)
}

func sum(values []int) int {
	s := 0
	for _, v := range values {
		s += v
	}
	return s
}

func sampleBitCounts(moduleBitCount []int) []int {
	total := float64(sum(moduleBitCount))
	result := make([]int, barsInCodeword)
	idx, previous := 0, 0
	for i := 0; i < modulesInCodeword; i++ {
		sample := total/(2*modulesInCodeword) + float64(i)*total/modulesInCodeword
		if float64(previous+moduleBitCount[idx]) <= sample {
			previous += moduleBitCount[idx]
			idx++
		}
		result[idx]++
	}
	return result
}

func patternBits(moduleBitCount []int) int {
	bits := 0
	for i, n := range moduleBitCount {
		for j := 0; j < n; j++ {
			bits <<= 1
			if i%2 == 0 {
				bits |= 1
			}
		}
	}
	return bits
}

func closestPattern(moduleBitCount []int) int {
	total := sum(moduleBitCount)
	var ratios [barsInCodeword]float32
	if total > 1 {
		for i, n := range moduleBitCount {
			ratios[i] = float32(n) / float32(total)
		}
	}
	bestError := float32(math.MaxFloat32)
	best := -1
	for i := range patterns {
		var e float32
		for k, r := range patterns[i].ratios {
			d := r - ratios[k]
			e += d * d
			if e >= bestError {
				break
			}
		}
		if e < bestError {
			bestError = e
			best = patterns[i].bits
		}
	}
	return best
}

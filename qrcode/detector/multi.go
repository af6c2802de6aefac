package detector

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/internal"
)

const (
	// finder spacing limits, in modules, for a plausible symbol
	maxModulesPerEdge = 180
	minModulesPerEdge = 9

	// patterns of one symbol may differ in module size by this much
	moduleSizeCutoffPercent = 0.05
	moduleSizeCutoff        = 0.5
)

// FindMulti returns every triple of confirmed finder patterns that could
// be one symbol. The whole image is scanned; there is no early stop.
func (f *FinderPatternFinder) FindMulti(tryHarder bool) ([]*FinderPatternInfo, error) {
	f.scan(tryHarder, true)
	triples, err := f.selectMultipleBestPatterns()
	if err != nil {
		return nil, err
	}
	infos := make([]*FinderPatternInfo, len(triples))
	for i, t := range triples {
		infos[i] = newInfo(t)
	}
	return infos, nil
}

// selectMultipleBestPatterns keeps triples whose patterns agree in module
// size and lie at the corners of a roughly square, right-angled symbol.
func (f *FinderPatternFinder) selectMultipleBestPatterns() ([][3]*FinderPattern, error) {
	centers := f.confirmed()
	switch {
	case len(centers) < 3:
		return nil, fmt.Errorf("qrcode: %d confirmed finder patterns: %w", len(centers), symscan.ErrNotFound)
	case len(centers) == 3:
		return [][3]*FinderPattern{{centers[0], centers[1], centers[2]}}, nil
	}
	sort.SliceStable(centers, func(a, b int) bool { return centers[a].ModuleSize > centers[b].ModuleSize })

	var out [][3]*FinderPattern
	for i := 0; i < len(centers)-2; i++ {
		p1 := centers[i]
		for j := i + 1; j < len(centers)-1; j++ {
			p2 := centers[j]
			if !similarModuleSize(p1, p2) {
				break
			}
			for k := j + 1; k < len(centers); k++ {
				p3 := centers[k]
				if !similarModuleSize(p2, p3) {
					break
				}
				info := newInfo([3]*FinderPattern{p1, p2, p3})
				if plausibleSymbol(info, p1.ModuleSize) {
					out = append(out, [3]*FinderPattern{p1, p2, p3})
				}
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("qrcode: no plausible finder pattern triple among %d: %w", len(centers), symscan.ErrNotFound)
	}
	return out, nil
}

func similarModuleSize(a, b *FinderPattern) bool {
	diff := a.ModuleSize - b.ModuleSize
	return diff <= moduleSizeCutoff || diff/b.ModuleSize < moduleSizeCutoffPercent
}

func plausibleSymbol(info *FinderPatternInfo, moduleSize float64) bool {
	dA := symscan.Distance(info.TopLeft.Point, info.BottomLeft.Point)
	dB := symscan.Distance(info.TopLeft.Point, info.TopRight.Point)
	dC := symscan.Distance(info.TopRight.Point, info.BottomLeft.Point)

	modules := (dA + dB) / (2 * moduleSize)
	if modules > maxModulesPerEdge || modules < minModulesPerEdge {
		return false
	}
	// the two legs should match
	if math.Abs(dA-dB)/math.Min(dA, dB) >= 0.1 {
		return false
	}
	// and the hypotenuse should be what Pythagoras says
	hyp := math.Hypot(dA, dB)
	return math.Abs(dC-hyp)/math.Min(dC, hyp) < 0.1
}

// DetectMulti samples every symbol whose finder patterns FindMulti returns.
// Triples that fail to sample are skipped.
func (d *Detector) DetectMulti(tryHarder bool) ([]*internal.DetectorResult, error) {
	infos, err := NewFinderPatternFinder(d.image).FindMulti(tryHarder)
	if err != nil {
		return nil, err
	}
	var out []*internal.DetectorResult
	for _, info := range infos {
		r, err := d.ProcessFinderPatternInfo(info)
		if err != nil {
			slog.Debug("qrcode: skipping finder triple", "top_left", info.TopLeft.Point, "error", err)
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("qrcode: none of %d finder triples sampled: %w", len(infos), symscan.ErrNotFound)
	}
	return out, nil
}

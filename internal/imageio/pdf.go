package imageio

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageImage is one image extracted from a PDF page.
type PageImage struct {
	Page  int
	Index int
	Image image.Image
}

// ExtractPDFImages returns the images embedded in the selected pages of a
// PDF, ordered by page and then by position in the page. pages uses the
// "1-3,7" syntax; empty selects every page. Images pdfcpu cannot hand back
// in a decodable form are skipped.
func ExtractPDFImages(path, pages string) ([]PageImage, error) {
	selected, err := ParsePages(pages)
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "symscan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	var selection []string
	for _, p := range selected {
		selection = append(selection, strconv.Itoa(p))
	}
	if err := api.ExtractImagesFile(path, dir, selection, nil); err != nil {
		return nil, fmt.Errorf("extract images from %s: %w", path, err)
	}
	return collect(dir)
}

// collect loads the files pdfcpu wrote, named <base>_<page>_<id>.<ext>.
func collect(dir string) ([]PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []PageImage
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		page, err := pageOf(e.Name())
		if err != nil {
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, PageImage{Page: page, Image: img})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Page < out[b].Page })
	for i := range out {
		if i > 0 && out[i].Page == out[i-1].Page {
			out[i].Index = out[i-1].Index + 1
		}
	}
	return out, nil
}

// pageOf finds the page number in an extracted file name: the last
// all-digit field before the image id.
func pageOf(name string) (int, error) {
	fields := strings.Split(strings.TrimSuffix(name, filepath.Ext(name)), "_")
	if len(fields) < 3 {
		return 0, errors.New("not an extracted page image")
	}
	return strconv.Atoi(fields[len(fields)-2])
}

// ParsePages expands a page selection such as "1,3-5" into page numbers.
// An empty selection returns nil.
func ParsePages(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 1 {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || last < first {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		for p := first; p <= last; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

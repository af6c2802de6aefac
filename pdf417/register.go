package pdf417

import "github.com/ericlevine/symscan"

func init() {
	symscan.RegisterReader(symscan.FormatPDF417, func() symscan.Reader { return NewReader() })
}

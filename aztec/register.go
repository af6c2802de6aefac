package aztec

import "github.com/ericlevine/symscan"

func init() {
	symscan.RegisterReader(symscan.FormatAztec, func() symscan.Reader { return NewReader() })
}

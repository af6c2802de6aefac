package datamatrix

import "github.com/ericlevine/symscan"

func init() {
	symscan.RegisterReader(symscan.FormatDataMatrix, func() symscan.Reader { return NewReader() })
}

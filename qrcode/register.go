package qrcode

import "github.com/ericlevine/symscan"

func init() {
	symscan.RegisterReader(symscan.FormatQRCode, func() symscan.Reader { return NewReader() })
}

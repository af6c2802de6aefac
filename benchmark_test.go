package symscan_test

import (
	"testing"

	"github.com/ericlevine/symscan"
)

func BenchmarkDecode(b *testing.B) {
	for _, s := range symbols {
		b.Run(s.format.String()+"/"+s.path, func(b *testing.B) {
			m := loadGrid(b, s.path)
			opts := &symscan.DecodeOptions{PossibleFormats: []symscan.Format{s.format}}
			reader := symscan.NewMultiFormatReader()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// a fresh bitmap each round so binarization is measured too
				bitmap := imageBitmap(b, m, 3, 10)
				if _, err := reader.Decode(bitmap, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

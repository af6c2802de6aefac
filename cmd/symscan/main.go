// Command symscan decodes QR Code, Data Matrix, Aztec and PDF417 symbols in
// image files and PDF documents.
package main

import (
	"os"

	"github.com/ericlevine/symscan/cmd/symscan/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

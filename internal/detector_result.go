package internal

import (
	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// DetectorResult is a sampled module grid plus the image points it was
// located by.
type DetectorResult struct {
	Bits   *bitutil.BitMatrix
	Points []symscan.Point
}

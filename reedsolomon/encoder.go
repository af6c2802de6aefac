package reedsolomon

import (
	"errors"
	"sync"

	"github.com/ericlevine/symscan/gf"
)

// Encoder appends Reed-Solomon error-correction codewords. Readers never need
// it; it exists to build codeword sequences for tests and tools.
type Encoder struct {
	field *gf.Field

	mu         sync.Mutex
	generators []*gf.Poly
}

// NewEncoder returns an Encoder over field.
func NewEncoder(field *gf.Field) *Encoder {
	return &Encoder{field: field, generators: []*gf.Poly{field.One()}}
}

func (e *Encoder) generator(degree int) (*gf.Poly, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for d := len(e.generators); d <= degree; d++ {
		factor := gf.NewPoly(e.field, []int{1, e.field.Exp(d - 1 + e.field.GeneratorBase())})
		next, err := e.generators[d-1].Multiply(factor)
		if err != nil {
			return nil, err
		}
		e.generators = append(e.generators, next)
	}
	return e.generators[degree], nil
}

// Encode fills the last ecCodewords entries of toEncode with error-correction
// codewords computed over the leading data codewords.
func (e *Encoder) Encode(toEncode []int, ecCodewords int) error {
	if ecCodewords <= 0 {
		return errors.New("reedsolomon: no error correction codewords")
	}
	dataCodewords := len(toEncode) - ecCodewords
	if dataCodewords <= 0 {
		return errors.New("reedsolomon: no data codewords")
	}
	generator, err := e.generator(ecCodewords)
	if err != nil {
		return err
	}
	info := gf.NewPoly(e.field, toEncode[:dataCodewords])
	info, err = info.MultiplyByMonomial(ecCodewords, 1)
	if err != nil {
		return err
	}
	_, remainder, err := info.Divide(generator)
	if err != nil {
		return err
	}
	coefficients := remainder.Coefficients()
	pad := ecCodewords - len(coefficients)
	for i := 0; i < pad; i++ {
		toEncode[dataCodewords+i] = 0
	}
	copy(toEncode[dataCodewords+pad:], coefficients)
	return nil
}

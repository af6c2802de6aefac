// Package ec corrects PDF417 codewords. PDF417 does not use a binary Galois
// field: its error correction works in the prime field of integers modulo
// 929, with 3 as the generator.
package ec

import (
	"errors"
	"fmt"
)

// ErrUncorrectable indicates more damage than the error-correction
// codewords can repair.
var ErrUncorrectable = errors.New("pdf417/ec: too many errors")

// Field is the integers modulo a prime, with exponent and logarithm tables
// for a generator.
type Field struct {
	modulus  int
	expTable []int
	logTable []int
}

// PDF417 is the field the symbology is defined over.
var PDF417 = NewField(929, 3)

// NewField builds the tables for the integers modulo modulus. generator
// must be a primitive root.
func NewField(modulus, generator int) *Field {
	f := &Field{modulus: modulus, expTable: make([]int, modulus), logTable: make([]int, modulus)}
	x := 1
	for i := range f.expTable {
		f.expTable[i] = x
		x = x * generator % modulus
	}
	for i := 0; i < modulus-1; i++ {
		f.logTable[f.expTable[i]] = i
	}
	return f
}

// Size is the number of field elements.
func (f *Field) Size() int { return f.modulus }

func (f *Field) Add(a, b int) int      { return (a + b) % f.modulus }
func (f *Field) Subtract(a, b int) int { return (f.modulus + a - b) % f.modulus }
func (f *Field) Exp(a int) int         { return f.expTable[a] }

// Log fails for zero.
func (f *Field) Log(a int) (int, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: log(0)", ErrUncorrectable)
	}
	return f.logTable[a], nil
}

// Inverse fails for zero.
func (f *Field) Inverse(a int) (int, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: inverse(0)", ErrUncorrectable)
	}
	return f.expTable[f.modulus-f.logTable[a]-1], nil
}

func (f *Field) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.expTable[(f.logTable[a]+f.logTable[b])%(f.modulus-1)]
}

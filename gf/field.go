// Package gf implements arithmetic over the binary Galois fields GF(2^n) used
// by the matrix symbologies, together with polynomials over those fields.
package gf

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDomain is returned by Log and Inverse when asked about zero.
	ErrDomain = errors.New("gf: zero has no logarithm or inverse")

	// ErrDivideByZero is returned when dividing by the zero polynomial.
	ErrDivideByZero = errors.New("gf: division by zero polynomial")

	// ErrFieldMismatch is returned when two polynomials belong to different fields.
	ErrFieldMismatch = errors.New("gf: polynomials from different fields")

	// ErrNegativeDegree is returned when a monomial of negative degree is requested.
	ErrNegativeDegree = errors.New("gf: negative degree")
)

// Field is GF(size) generated by a primitive polynomial. The exponent and
// logarithm tables are built on first use and are read-only afterwards, so a
// Field may be shared freely between goroutines.
type Field struct {
	primitive     int
	size          int
	generatorBase int

	once     sync.Once
	expTable []int
	logTable []int
	zero     *Poly
	one      *Poly
}

// Fields used by the supported symbologies.
var (
	AztecData12        = New(0x1069, 4096, 1) // x^12 + x^6 + x^5 + x^3 + 1
	AztecData10        = New(0x409, 1024, 1)  // x^10 + x^3 + 1
	AztecData6         = New(0x43, 64, 1)     // x^6 + x + 1
	AztecParam         = New(0x13, 16, 1)     // x^4 + x + 1
	QRCodeField256     = New(0x011D, 256, 0)  // x^8 + x^4 + x^3 + x^2 + 1
	DataMatrixField256 = New(0x012D, 256, 1)  // x^8 + x^5 + x^3 + x^2 + 1
	AztecData8         = DataMatrixField256
)

// New describes GF(size) with the given bit-packed primitive polynomial.
// generatorBase is the exponent of the first root of the generator polynomial,
// 0 for QR and 1 for the others.
func New(primitive, size, generatorBase int) *Field {
	return &Field{primitive: primitive, size: size, generatorBase: generatorBase}
}

func (f *Field) build() {
	f.once.Do(func() {
		exp := make([]int, f.size)
		log := make([]int, f.size)
		x := 1
		for i := range exp {
			exp[i] = x
			x <<= 1
			if x >= f.size {
				x ^= f.primitive
				x &= f.size - 1
			}
		}
		for i := 0; i < f.size-1; i++ {
			log[exp[i]] = i
		}
		f.expTable = exp
		f.logTable = log
		f.zero = &Poly{field: f, coefficients: []int{0}}
		f.one = &Poly{field: f, coefficients: []int{1}}
	})
}

// Zero returns the zero polynomial over f.
func (f *Field) Zero() *Poly {
	f.build()
	return f.zero
}

// One returns the constant polynomial 1 over f.
func (f *Field) One() *Poly {
	f.build()
	return f.one
}

// Monomial returns coefficient * x^degree.
func (f *Field) Monomial(degree, coefficient int) (*Poly, error) {
	if degree < 0 {
		return nil, ErrNegativeDegree
	}
	if coefficient == 0 {
		return f.Zero(), nil
	}
	coefficients := make([]int, degree+1)
	coefficients[0] = coefficient
	return &Poly{field: f, coefficients: coefficients}, nil
}

// AddOrSubtract is addition in a field of characteristic 2, which is also
// subtraction.
func AddOrSubtract(a, b int) int {
	return a ^ b
}

// Exp returns generator^a.
func (f *Field) Exp(a int) int {
	f.build()
	return f.expTable[a]
}

// Log returns the discrete logarithm of a.
func (f *Field) Log(a int) (int, error) {
	if a == 0 {
		return 0, ErrDomain
	}
	f.build()
	return f.logTable[a], nil
}

// Inverse returns the multiplicative inverse of a.
func (f *Field) Inverse(a int) (int, error) {
	if a == 0 {
		return 0, ErrDomain
	}
	f.build()
	return f.expTable[f.size-f.logTable[a]-1], nil
}

// Multiply returns a*b. Either operand being zero yields zero.
func (f *Field) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	f.build()
	return f.expTable[(f.logTable[a]+f.logTable[b])%(f.size-1)]
}

// Size is the number of elements in the field.
func (f *Field) Size() int { return f.size }

// GeneratorBase is the exponent of the first generator root.
func (f *Field) GeneratorBase() int { return f.generatorBase }

func (f *Field) String() string {
	return fmt.Sprintf("GF(0x%x,%d)", f.primitive, f.size)
}

// Package reedsolomon corrects symbol errors in codeword sequences protected
// by Reed-Solomon error correction over the fields in package gf.
package reedsolomon

import (
	"errors"
	"fmt"

	"github.com/ericlevine/symscan/gf"
)

// ErrUncorrectable indicates that the received codewords carry more errors
// than the error-correction codewords can repair.
var ErrUncorrectable = errors.New("reedsolomon: too many errors")

// Decoder corrects errors in place. It holds no per-call state and may be used
// from several goroutines at once.
type Decoder struct {
	field *gf.Field
}

// NewDecoder returns a Decoder over field.
func NewDecoder(field *gf.Field) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects received in place. twoS is the number of error-correction
// codewords at the end of received. It returns how many codewords were
// changed; clean input is left untouched and reports zero.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	if twoS <= 0 || twoS > len(received) {
		return 0, fmt.Errorf("%w: %d ec codewords for %d codewords", ErrUncorrectable, twoS, len(received))
	}
	poly := gf.NewPoly(d.field, received)
	syndromes := make([]int, twoS)
	clean := true
	for i := 0; i < twoS; i++ {
		eval := poly.EvaluateAt(d.field.Exp(i + d.field.GeneratorBase()))
		syndromes[twoS-1-i] = eval
		if eval != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}

	syndrome := gf.NewPoly(d.field, syndromes)
	monomial, err := d.field.Monomial(twoS, 1)
	if err != nil {
		return 0, err
	}
	sigma, omega, err := d.euclidean(monomial, syndrome, twoS)
	if err != nil {
		return 0, err
	}
	locations, err := d.errorLocations(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes, err := d.errorMagnitudes(omega, locations)
	if err != nil {
		return 0, err
	}
	for i, loc := range locations {
		l, err := d.field.Log(loc)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		position := len(received) - 1 - l
		if position < 0 {
			return 0, fmt.Errorf("%w: bad error location", ErrUncorrectable)
		}
		received[position] = gf.AddOrSubtract(received[position], magnitudes[i])
	}
	return len(locations), nil
}

// euclidean runs the extended Euclidean algorithm on a and b until the
// remainder's degree drops below R/2, returning the error locator sigma and
// the error evaluator omega.
func (d *Decoder) euclidean(a, b *gf.Poly, R int) (sigma, omega *gf.Poly, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := d.field.Zero(), d.field.One()

	for 2*r.Degree() >= R {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.IsZero() {
			return nil, nil, fmt.Errorf("%w: r_{i-1} was zero", ErrUncorrectable)
		}

		var q *gf.Poly
		if q, r, err = rLastLast.Divide(rLast); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		if t, err = q.Multiply(tLast); err != nil {
			return nil, nil, err
		}
		if t, err = t.AddOrSubtract(tLastLast); err != nil {
			return nil, nil, err
		}
		if r.Degree() >= rLast.Degree() {
			return nil, nil, fmt.Errorf("%w: division algorithm failed to reduce polynomial", ErrUncorrectable)
		}
	}

	sigmaAtZero := t.Coefficient(0)
	inverse, err := d.field.Inverse(sigmaAtZero)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sigma(0) was zero", ErrUncorrectable)
	}
	return t.MultiplyScalar(inverse), r.MultiplyScalar(inverse), nil
}

// errorLocations finds the roots of the locator by Chien search and returns
// their inverses.
func (d *Decoder) errorLocations(locator *gf.Poly) ([]int, error) {
	numErrors := locator.Degree()
	if numErrors == 1 {
		return []int{locator.Coefficient(1)}, nil
	}
	result := make([]int, 0, numErrors)
	for i := 1; i < d.field.Size() && len(result) < numErrors; i++ {
		if locator.EvaluateAt(i) == 0 {
			inv, err := d.field.Inverse(i)
			if err != nil {
				return nil, err
			}
			result = append(result, inv)
		}
	}
	if len(result) != numErrors {
		return nil, fmt.Errorf("%w: locator degree does not match number of roots", ErrUncorrectable)
	}
	return result, nil
}

// errorMagnitudes applies Forney's formula.
func (d *Decoder) errorMagnitudes(evaluator *gf.Poly, locations []int) ([]int, error) {
	result := make([]int, len(locations))
	for i, loc := range locations {
		xiInverse, err := d.field.Inverse(loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		denominator := 1
		for j, other := range locations {
			if i == j {
				continue
			}
			term := d.field.Multiply(other, xiInverse)
			// 1 + term without a full field addition
			if term&1 == 0 {
				term |= 1
			} else {
				term &^= 1
			}
			denominator = d.field.Multiply(denominator, term)
		}
		invDenominator, err := d.field.Inverse(denominator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		result[i] = d.field.Multiply(evaluator.EvaluateAt(xiInverse), invDenominator)
		if d.field.GeneratorBase() != 0 {
			result[i] = d.field.Multiply(result[i], xiInverse)
		}
	}
	return result, nil
}

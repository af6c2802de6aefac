package ec

import "fmt"

// Decoder corrects PDF417 codewords in place.
type Decoder struct {
	field *Field
}

// NewDecoder returns a Decoder over the PDF417 field.
func NewDecoder() *Decoder {
	return &Decoder{field: PDF417}
}

// Decode corrects received, whose last numEC entries are error-correction
// codewords, and returns the number of codewords it changed. Erasures are
// the positions known to be unreadable; they only bound how much damage is
// accepted, the search locates them like any other error.
func (d *Decoder) Decode(received []int, numEC int, erasures []int) (int, error) {
	if numEC <= 0 || numEC >= len(received) {
		return 0, fmt.Errorf("%w: %d ec codewords for %d codewords", ErrUncorrectable, numEC, len(received))
	}
	f := d.field
	p := newPoly(f, received)
	syndromes := make([]int, numEC)
	clean := true
	for i := numEC; i > 0; i-- {
		eval := p.evaluateAt(f.Exp(i))
		syndromes[numEC-i] = eval
		if eval != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}

	sigma, omega, err := d.euclidean(monomial(f, numEC, 1), newPoly(f, syndromes), numEC)
	if err != nil {
		return 0, err
	}
	locations, err := d.errorLocations(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes, err := d.errorMagnitudes(omega, sigma, locations)
	if err != nil {
		return 0, err
	}
	for i, loc := range locations {
		l, err := f.Log(loc)
		if err != nil {
			return 0, err
		}
		position := len(received) - 1 - l
		if position < 0 {
			return 0, fmt.Errorf("%w: error located before the first codeword", ErrUncorrectable)
		}
		received[position] = f.Subtract(received[position], magnitudes[i])
	}
	return len(locations), nil
}

func (d *Decoder) euclidean(a, b *poly, R int) (sigma, omega *poly, err error) {
	f := d.field
	if a.degree() < b.degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := newPoly(f, nil), newPoly(f, []int{1})

	for r.degree() >= R/2 {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.isZero() {
			return nil, nil, fmt.Errorf("%w: r_{i-1} was zero", ErrUncorrectable)
		}
		r = rLastLast
		q := newPoly(f, nil)
		inv, err := f.Inverse(rLast.coefficient(rLast.degree()))
		if err != nil {
			return nil, nil, err
		}
		for r.degree() >= rLast.degree() && !r.isZero() {
			diff := r.degree() - rLast.degree()
			scale := f.Multiply(r.coefficient(r.degree()), inv)
			q = q.add(monomial(f, diff, scale))
			r = r.subtract(rLast.multiplyByMonomial(diff, scale))
		}
		t = q.multiply(tLast).subtract(tLastLast).negative()
	}

	inverse, err := f.Inverse(t.coefficient(0))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sigma(0) was zero", ErrUncorrectable)
	}
	return t.multiplyScalar(inverse), r.multiplyScalar(inverse), nil
}

// errorLocations runs a Chien search for the roots of the locator and
// returns their inverses.
func (d *Decoder) errorLocations(locator *poly) ([]int, error) {
	n := locator.degree()
	result := make([]int, 0, n)
	for i := 1; i < d.field.Size() && len(result) < n; i++ {
		if locator.evaluateAt(i) == 0 {
			inv, err := d.field.Inverse(i)
			if err != nil {
				return nil, err
			}
			result = append(result, inv)
		}
	}
	if len(result) != n {
		return nil, fmt.Errorf("%w: locator degree does not match number of roots", ErrUncorrectable)
	}
	return result, nil
}

// errorMagnitudes applies Forney's formula.
func (d *Decoder) errorMagnitudes(evaluator, locator *poly, locations []int) ([]int, error) {
	f := d.field
	deg := locator.degree()
	if deg < 1 {
		return nil, nil
	}
	derivative := make([]int, deg)
	for i := 1; i <= deg; i++ {
		derivative[deg-i] = f.Multiply(i, locator.coefficient(i))
	}
	formal := newPoly(f, derivative)

	result := make([]int, len(locations))
	for i, loc := range locations {
		xiInverse, err := f.Inverse(loc)
		if err != nil {
			return nil, err
		}
		numerator := f.Subtract(0, evaluator.evaluateAt(xiInverse))
		denominator, err := f.Inverse(formal.evaluateAt(xiInverse))
		if err != nil {
			return nil, err
		}
		result[i] = f.Multiply(numerator, denominator)
	}
	return result, nil
}

package gf

import (
	"strconv"
	"strings"
)

// Poly is an immutable polynomial over a Field. Coefficients are stored most
// significant first and are always normalized: the leading coefficient is
// non-zero unless the polynomial is the constant zero.
type Poly struct {
	field        *Field
	coefficients []int
}

// NewPoly builds a polynomial from coefficients ordered from the highest
// degree term down to the constant term. Leading zeros are dropped; an empty
// slice is treated as the zero polynomial.
func NewPoly(field *Field, coefficients []int) *Poly {
	first := 0
	for first < len(coefficients)-1 && coefficients[first] == 0 {
		first++
	}
	if len(coefficients) == 0 || (first == len(coefficients)-1 && coefficients[first] == 0) {
		return field.Zero()
	}
	c := make([]int, len(coefficients)-first)
	copy(c, coefficients[first:])
	return &Poly{field: field, coefficients: c}
}

// Field returns the field the coefficients live in.
func (p *Poly) Field() *Field { return p.field }

// Coefficients returns the coefficients, highest degree first. The slice must
// not be modified.
func (p *Poly) Coefficients() []int { return p.coefficients }

// Degree is the exponent of the highest non-zero term.
func (p *Poly) Degree() int { return len(p.coefficients) - 1 }

// IsZero reports whether p is the zero polynomial.
func (p *Poly) IsZero() bool { return p.coefficients[0] == 0 }

// Coefficient returns the coefficient of x^degree.
func (p *Poly) Coefficient(degree int) int {
	return p.coefficients[len(p.coefficients)-1-degree]
}

// EvaluateAt evaluates p at a using Horner's rule.
func (p *Poly) EvaluateAt(a int) int {
	switch a {
	case 0:
		return p.Coefficient(0)
	case 1:
		sum := 0
		for _, c := range p.coefficients {
			sum ^= c
		}
		return sum
	}
	result := p.coefficients[0]
	for _, c := range p.coefficients[1:] {
		result = p.field.Multiply(a, result) ^ c
	}
	return result
}

func (p *Poly) sameField(other *Poly) error {
	if p.field != other.field {
		return ErrFieldMismatch
	}
	return nil
}

// AddOrSubtract returns p + other, which equals p - other.
func (p *Poly) AddOrSubtract(other *Poly) (*Poly, error) {
	if err := p.sameField(other); err != nil {
		return nil, err
	}
	if p.IsZero() {
		return other, nil
	}
	if other.IsZero() {
		return p, nil
	}
	small, large := p.coefficients, other.coefficients
	if len(small) > len(large) {
		small, large = large, small
	}
	sum := make([]int, len(large))
	offset := len(large) - len(small)
	copy(sum, large[:offset])
	for i := offset; i < len(large); i++ {
		sum[i] = small[i-offset] ^ large[i]
	}
	return NewPoly(p.field, sum), nil
}

// Multiply returns the product p * other. The result has degree
// p.Degree() + other.Degree() unless either factor is zero.
func (p *Poly) Multiply(other *Poly) (*Poly, error) {
	if err := p.sameField(other); err != nil {
		return nil, err
	}
	if p.IsZero() || other.IsZero() {
		return p.field.Zero(), nil
	}
	product := make([]int, len(p.coefficients)+len(other.coefficients)-1)
	for i, a := range p.coefficients {
		for j, b := range other.coefficients {
			product[i+j] ^= p.field.Multiply(a, b)
		}
	}
	return NewPoly(p.field, product), nil
}

// MultiplyScalar multiplies every coefficient by scalar.
func (p *Poly) MultiplyScalar(scalar int) *Poly {
	switch scalar {
	case 0:
		return p.field.Zero()
	case 1:
		return p
	}
	product := make([]int, len(p.coefficients))
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, scalar)
	}
	return NewPoly(p.field, product)
}

// MultiplyByMonomial returns p * coefficient * x^degree.
func (p *Poly) MultiplyByMonomial(degree, coefficient int) (*Poly, error) {
	if degree < 0 {
		return nil, ErrNegativeDegree
	}
	if coefficient == 0 {
		return p.field.Zero(), nil
	}
	product := make([]int, len(p.coefficients)+degree)
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, coefficient)
	}
	return NewPoly(p.field, product), nil
}

// Divide returns the quotient and remainder of p / other by repeatedly
// eliminating the highest-degree term of the remainder.
func (p *Poly) Divide(other *Poly) (quotient, remainder *Poly, err error) {
	if err := p.sameField(other); err != nil {
		return nil, nil, err
	}
	if other.IsZero() {
		return nil, nil, ErrDivideByZero
	}
	inverseLead, err := p.field.Inverse(other.Coefficient(other.Degree()))
	if err != nil {
		return nil, nil, err
	}

	quotient = p.field.Zero()
	remainder = p
	for remainder.Degree() >= other.Degree() && !remainder.IsZero() {
		degreeDiff := remainder.Degree() - other.Degree()
		scale := p.field.Multiply(remainder.Coefficient(remainder.Degree()), inverseLead)
		term, err := other.MultiplyByMonomial(degreeDiff, scale)
		if err != nil {
			return nil, nil, err
		}
		step, err := p.field.Monomial(degreeDiff, scale)
		if err != nil {
			return nil, nil, err
		}
		if quotient, err = quotient.AddOrSubtract(step); err != nil {
			return nil, nil, err
		}
		if remainder, err = remainder.AddOrSubtract(term); err != nil {
			return nil, nil, err
		}
	}
	return quotient, remainder, nil
}

func (p *Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	var sb strings.Builder
	for degree := p.Degree(); degree >= 0; degree-- {
		c := p.Coefficient(degree)
		if c == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" + ")
		}
		if c != 1 || degree == 0 {
			if l, err := p.field.Log(c); err == nil && l != 0 {
				sb.WriteString("a^" + strconv.Itoa(l))
			} else {
				sb.WriteString(strconv.Itoa(c))
			}
		}
		switch {
		case degree == 1:
			sb.WriteString("x")
		case degree > 1:
			sb.WriteString("x^" + strconv.Itoa(degree))
		}
	}
	return sb.String()
}

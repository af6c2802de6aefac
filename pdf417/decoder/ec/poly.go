package ec

import (
	"strconv"
	"strings"
)

// poly is a polynomial over a Field, highest degree first, with no leading
// zeros except for the zero polynomial itself.
type poly struct {
	field        *Field
	coefficients []int
}

func newPoly(field *Field, coefficients []int) *poly {
	if len(coefficients) == 0 {
		coefficients = []int{0}
	}
	first := 0
	for first < len(coefficients)-1 && coefficients[first] == 0 {
		first++
	}
	return &poly{field: field, coefficients: coefficients[first:]}
}

func monomial(field *Field, degree, coefficient int) *poly {
	if coefficient == 0 {
		return newPoly(field, nil)
	}
	c := make([]int, degree+1)
	c[0] = coefficient
	return &poly{field: field, coefficients: c}
}

func (p *poly) degree() int  { return len(p.coefficients) - 1 }
func (p *poly) isZero() bool { return p.coefficients[0] == 0 }

func (p *poly) coefficient(degree int) int {
	return p.coefficients[len(p.coefficients)-1-degree]
}

func (p *poly) evaluateAt(a int) int {
	if a == 0 {
		return p.coefficient(0)
	}
	result := 0
	for _, c := range p.coefficients {
		result = p.field.Add(p.field.Multiply(a, result), c)
	}
	return result
}

func (p *poly) add(other *poly) *poly {
	if p.isZero() {
		return other
	}
	if other.isZero() {
		return p
	}
	small, large := p.coefficients, other.coefficients
	if len(small) > len(large) {
		small, large = large, small
	}
	sum := make([]int, len(large))
	diff := len(large) - len(small)
	copy(sum, large[:diff])
	for i := diff; i < len(large); i++ {
		sum[i] = p.field.Add(small[i-diff], large[i])
	}
	return newPoly(p.field, sum)
}

func (p *poly) negative() *poly {
	neg := make([]int, len(p.coefficients))
	for i, c := range p.coefficients {
		neg[i] = p.field.Subtract(0, c)
	}
	return newPoly(p.field, neg)
}

func (p *poly) subtract(other *poly) *poly {
	if other.isZero() {
		return p
	}
	return p.add(other.negative())
}

func (p *poly) multiply(other *poly) *poly {
	if p.isZero() || other.isZero() {
		return newPoly(p.field, nil)
	}
	product := make([]int, len(p.coefficients)+len(other.coefficients)-1)
	for i, a := range p.coefficients {
		for j, b := range other.coefficients {
			product[i+j] = p.field.Add(product[i+j], p.field.Multiply(a, b))
		}
	}
	return newPoly(p.field, product)
}

func (p *poly) multiplyScalar(scalar int) *poly {
	if scalar == 0 {
		return newPoly(p.field, nil)
	}
	product := make([]int, len(p.coefficients))
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, scalar)
	}
	return newPoly(p.field, product)
}

func (p *poly) multiplyByMonomial(degree, coefficient int) *poly {
	if coefficient == 0 {
		return newPoly(p.field, nil)
	}
	product := make([]int, len(p.coefficients)+degree)
	for i, c := range p.coefficients {
		product[i] = p.field.Multiply(c, coefficient)
	}
	return newPoly(p.field, product)
}

func (p *poly) String() string {
	var sb strings.Builder
	for d := p.degree(); d >= 0; d-- {
		c := p.coefficient(d)
		if c == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" + ")
		}
		if d == 0 || c != 1 {
			sb.WriteString(strconv.Itoa(c))
		}
		switch {
		case d == 1:
			sb.WriteString("x")
		case d > 1:
			sb.WriteString("x^" + strconv.Itoa(d))
		}
	}
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

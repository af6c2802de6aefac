package gf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolyNormalizes(t *testing.T) {
	p := NewPoly(QRCodeField256, []int{0, 0, 3, 1})
	assert.Equal(t, []int{3, 1}, p.Coefficients())
	assert.Equal(t, 1, p.Degree())

	z := NewPoly(QRCodeField256, []int{0, 0, 0})
	assert.True(t, z.IsZero())
	assert.Equal(t, 0, z.Degree())

	assert.True(t, NewPoly(QRCodeField256, nil).IsZero())
}

func TestAddIsSelfInverse(t *testing.T) {
	p := NewPoly(AztecData10, []int{5, 0, 900, 17})
	sum, err := p.AddOrSubtract(p)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestMultiplyDegree(t *testing.T) {
	a := NewPoly(DataMatrixField256, []int{1, 2, 3})
	b := NewPoly(DataMatrixField256, []int{7, 0, 0, 9})
	prod, err := a.Multiply(b)
	require.NoError(t, err)
	assert.Equal(t, a.Degree()+b.Degree(), prod.Degree())

	for _, x := range []int{0, 1, 2, 77, 255} {
		want := DataMatrixField256.Multiply(a.EvaluateAt(x), b.EvaluateAt(x))
		assert.Equal(t, want, prod.EvaluateAt(x), "x=%d", x)
	}
}

func TestDivideReconstructs(t *testing.T) {
	f := QRCodeField256
	dividend := NewPoly(f, []int{12, 200, 3, 44, 91, 7})
	divisor := NewPoly(f, []int{5, 1, 250})

	q, r, err := dividend.Divide(divisor)
	require.NoError(t, err)
	assert.Less(t, r.Degree(), divisor.Degree())

	back, err := q.Multiply(divisor)
	require.NoError(t, err)
	back, err = back.AddOrSubtract(r)
	require.NoError(t, err)
	assert.Equal(t, dividend.Coefficients(), back.Coefficients())
}

func TestDivideByZero(t *testing.T) {
	p := NewPoly(QRCodeField256, []int{1, 2})
	_, _, err := p.Divide(QRCodeField256.Zero())
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestMismatchedFields(t *testing.T) {
	a := NewPoly(QRCodeField256, []int{1, 2})
	b := NewPoly(DataMatrixField256, []int{1, 2})

	_, err := a.AddOrSubtract(b)
	assert.ErrorIs(t, err, ErrFieldMismatch)
	_, err = a.Multiply(b)
	assert.ErrorIs(t, err, ErrFieldMismatch)
	_, _, err = a.Divide(b)
	assert.ErrorIs(t, err, ErrFieldMismatch)
}

func TestEvaluateAt(t *testing.T) {
	// x^2 + 3 at x = 2 in GF(256)/0x11D: 4 ^ 3 = 7
	p := NewPoly(QRCodeField256, []int{1, 0, 3})
	assert.Equal(t, 7, p.EvaluateAt(2))
	assert.Equal(t, 3, p.EvaluateAt(0))
	assert.Equal(t, 1^3, p.EvaluateAt(1))
}

func TestPolyString(t *testing.T) {
	assert.Equal(t, "0", QRCodeField256.Zero().String())
	assert.Equal(t, "x^2 + 1", NewPoly(QRCodeField256, []int{1, 0, 1}).String())
}

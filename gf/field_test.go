package gf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allFields = map[string]*Field{
	"AztecData12":        AztecData12,
	"AztecData10":        AztecData10,
	"AztecData6":         AztecData6,
	"AztecParam":         AztecParam,
	"QRCodeField256":     QRCodeField256,
	"DataMatrixField256": DataMatrixField256,
}

func TestFieldLaws(t *testing.T) {
	for name, f := range allFields {
		t.Run(name, func(t *testing.T) {
			for a := 1; a < f.Size(); a++ {
				inv, err := f.Inverse(a)
				require.NoError(t, err)
				assert.Equal(t, 1, f.Multiply(a, inv), "a=%d", a)

				l, err := f.Log(a)
				require.NoError(t, err)
				assert.Equal(t, a, f.Exp(l), "a=%d", a)

				assert.Zero(t, AddOrSubtract(a, a))
			}
			assert.Equal(t, 1, f.Exp(0))
		})
	}
}

func TestQRFieldZero(t *testing.T) {
	f := New(0x11D, 256, 0)
	for x := 0; x < 256; x++ {
		assert.Zero(t, f.Multiply(0, x))
		assert.Zero(t, f.Multiply(x, 0))
	}

	_, err := f.Log(0)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = f.Inverse(0)
	assert.ErrorIs(t, err, ErrDomain)
}

func TestFieldConcurrentFirstUse(t *testing.T) {
	f := New(0x12D, 256, 1)
	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.Multiply(0x53, 0xCA)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestMonomial(t *testing.T) {
	m, err := QRCodeField256.Monomial(3, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Degree())
	assert.Equal(t, 7, m.Coefficient(3))
	assert.Zero(t, m.Coefficient(0))

	z, err := QRCodeField256.Monomial(5, 0)
	require.NoError(t, err)
	assert.True(t, z.IsZero())

	_, err = QRCodeField256.Monomial(-1, 1)
	assert.ErrorIs(t, err, ErrNegativeDegree)
}

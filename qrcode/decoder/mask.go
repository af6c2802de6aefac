package decoder

import "github.com/ericlevine/symscan/bitutil"

// masked reports whether data mask pattern k inverts the module at row i,
// column j.
func masked(k, i, j int) bool {
	switch k {
	case 0:
		return (i+j)&1 == 0
	case 1:
		return i&1 == 0
	case 2:
		return j%3 == 0
	case 3:
		return (i+j)%3 == 0
	case 4:
		return (i/2+j/3)&1 == 0
	case 5:
		return i*j%6 == 0
	case 6:
		return i*j%6 < 3
	default:
		return (i+j+i*j%3)&1 == 0
	}
}

// unmask XORs mask pattern k out of the top-left dim x dim modules. Applying
// it twice restores the grid.
func unmask(m *bitutil.BitMatrix, dim, k int) {
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if masked(k, i, j) {
				m.Flip(j, i)
			}
		}
	}
}

package ec

// Generate returns the numEC error-correction codewords protecting data.
// The decoder never needs it; it builds symbols for tests and tools.
func Generate(data []int, numEC int) []int {
	f := PDF417
	// generator is the product of (x - 3^i) for i in 1..numEC
	generator := newPoly(f, []int{1})
	for i := 1; i <= numEC; i++ {
		generator = generator.multiply(newPoly(f, []int{1, f.Subtract(0, f.Exp(i))}))
	}
	r := newPoly(f, append(append([]int(nil), data...), make([]int, numEC)...))
	for r.degree() >= generator.degree() && !r.isZero() {
		diff := r.degree() - generator.degree()
		r = r.subtract(generator.multiplyByMonomial(diff, r.coefficient(r.degree())))
	}
	out := make([]int, numEC)
	for i := 0; i <= r.degree() && !r.isZero(); i++ {
		out[numEC-1-i] = f.Subtract(0, r.coefficient(i))
	}
	return out
}

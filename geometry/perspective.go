// Package geometry holds the image-space techniques shared by the detectors:
// projective transforms, grid sampling, the white-rectangle search and
// transition counting along a line.
package geometry

import "github.com/ericlevine/symscan"

// Quad is four corners of a quadrilateral. Callers decide the winding; the
// two quads handed to QuadrilateralToQuadrilateral must use the same one.
type Quad [4]symscan.Point

// Transform is a planar projective mapping, stored as the 3x3 matrix m
// acting on row vectors [x y 1].
type Transform struct {
	m [3][3]float64
}

// Apply maps the (x, y) pairs packed in points in place.
func (t *Transform) Apply(points []float64) {
	for i := 0; i+1 < len(points); i += 2 {
		points[i], points[i+1] = t.apply(points[i], points[i+1])
	}
}

// ApplyXY maps parallel coordinate slices in place.
func (t *Transform) ApplyXY(xs, ys []float64) {
	for i := range xs {
		xs[i], ys[i] = t.apply(xs[i], ys[i])
	}
}

// Point maps a single point.
func (t *Transform) Point(p symscan.Point) symscan.Point {
	x, y := t.apply(p.X, p.Y)
	return symscan.Point{X: x, Y: y}
}

func (t *Transform) apply(x, y float64) (float64, float64) {
	m := &t.m
	w := m[0][2]*x + m[1][2]*y + m[2][2]
	return (m[0][0]*x + m[1][0]*y + m[2][0]) / w,
		(m[0][1]*x + m[1][1]*y + m[2][1]) / w
}

// QuadrilateralToQuadrilateral returns the transform taking each corner of
// from to the matching corner of to.
func QuadrilateralToQuadrilateral(from, to Quad) *Transform {
	return QuadrilateralToSquare(from).Then(SquareToQuadrilateral(to))
}

// SquareToQuadrilateral maps the unit square (0,0) (1,0) (1,1) (0,1) onto q.
func SquareToQuadrilateral(q Quad) *Transform {
	x0, y0 := q[0].X, q[0].Y
	x1, y1 := q[1].X, q[1].Y
	x2, y2 := q[2].X, q[2].Y
	x3, y3 := q[3].X, q[3].Y

	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// parallelogram: the mapping is affine
		return &Transform{m: [3][3]float64{
			{x1 - x0, y1 - y0, 0},
			{x2 - x1, y2 - y1, 0},
			{x0, y0, 1},
		}}
	}
	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	den := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / den
	a23 := (dx1*dy3 - dx3*dy1) / den
	return &Transform{m: [3][3]float64{
		{x1 - x0 + a13*x1, y1 - y0 + a13*y1, a13},
		{x3 - x0 + a23*x3, y3 - y0 + a23*y3, a23},
		{x0, y0, 1},
	}}
}

// QuadrilateralToSquare maps q onto the unit square. The adjugate stands in
// for the inverse since projective matrices are only defined up to scale.
func QuadrilateralToSquare(q Quad) *Transform {
	return SquareToQuadrilateral(q).adjugate()
}

func (t *Transform) adjugate() *Transform {
	var adj Transform
	m := &t.m
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3
			i1, i2 := (i+1)%3, (i+2)%3
			adj.m[i][j] = m[j1][i1]*m[j2][i2] - m[j1][i2]*m[j2][i1]
		}
	}
	return &adj
}

// Then returns the transform that applies t first and next second.
func (t *Transform) Then(next *Transform) *Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out.m[i][j] += t.m[i][k] * next.m[k][j]
			}
		}
	}
	return &out
}

package flame

import "math"

// Affine is the 2D affine part of a transform, a 2x3 matrix in row-major
// order:
//
//	| a  b  c |
//	| d  e  f |
//
// which maps a point as
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity affine.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translate creates a translation.
func Translate(x, y float64) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling affine.
func Scale(x, y float64) Affine {
	return Affine{A: x, E: y}
}

// Rotate creates a rotation affine (angle in radians).
func Rotate(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return Affine{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Multiply returns m * other, so other is applied first.
func (m Affine) Multiply(other Affine) Affine {
	return Affine{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply maps the point (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// Invert returns the inverse affine.
// Returns the identity if the affine is singular.
func (m Affine) Invert() Affine {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity()
	}

	invDet := 1.0 / det
	return Affine{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}
}

// IsIdentity reports whether m is exactly the identity.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// Determinant returns a*e - b*d, the area scale of the linear part.
func (m Affine) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

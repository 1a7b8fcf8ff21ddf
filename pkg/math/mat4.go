package math

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// AffineInverse inverts a matrix whose bottom row is (0 0 0 1), as produced
// by Transform.ToMat4. It returns identity and false when the linear part
// is singular.
func (m Mat4) AffineInverse() (Mat4, bool) {
	a := Vec3{X: m[0], Y: m[1], Z: m[2]}
	b := Vec3{X: m[4], Y: m[5], Z: m[6]}
	c := Vec3{X: m[8], Y: m[9], Z: m[10]}

	// Rows of the inverse linear part.
	r0, r1, r2 := b.Cross(c), c.Cross(a), a.Cross(b)
	det := a.Dot(r0)
	if det == 0 {
		return Identity(), false
	}
	inv := 1 / det
	r0, r1, r2 = r0.Scale(inv), r1.Scale(inv), r2.Scale(inv)

	t := Vec3{X: m[12], Y: m[13], Z: m[14]}
	return Mat4{
		r0.X, r1.X, r2.X, 0,
		r0.Y, r1.Y, r2.Y, 0,
		r0.Z, r1.Z, r2.Z, 0,
		-r0.Dot(t), -r1.Dot(t), -r2.Dot(t), 1,
	}, true
}

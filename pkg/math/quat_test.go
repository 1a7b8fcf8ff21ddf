package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/num/quat"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatSlerp(t *testing.T) {
	// Test endpoints
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	// At t=0, should equal q1
	result0 := q1.Slerp(q2, 0)
	if math.Abs(float64(result0.W-q1.W)) > 0.001 {
		t.Errorf("Slerp at t=0 should equal q1")
	}

	// At t=1, should equal q2
	result1 := q1.Slerp(q2, 1)
	if math.Abs(float64(result1.W-q2.W)) > 0.001 {
		t.Errorf("Slerp at t=1 should equal q2")
	}

	// At t=0.5, should be halfway
	result5 := q1.Slerp(q2, 0.5)
	// For 90 degree rotation, halfway should be 45 degrees
	expectedW := float32(math.Cos(float64(math.Pi / 8))) // cos(45/2 degrees)
	if math.Abs(float64(result5.W-expectedW)) > 0.01 {
		t.Errorf("Slerp at t=0.5: expected W ~%v, got %v", expectedW, result5.W)
	}
}

func TestQuatToMat4(t *testing.T) {
	// Identity quaternion should produce identity matrix
	q := QuatIdentity()
	m := q.ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	// Should have Y component and W = cos(45deg)
	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatMulMatchesHamiltonProduct(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{X: 1, Y: 2, Z: 3}.Normalize(), 0.8)
	b := QuatFromAxisAngle(Vec3{X: -2, Y: 0.5, Z: 1}.Normalize(), 2.1)

	got := a.Mul(b)
	want := quat.Mul(toNumber(a), toNumber(b))

	if !nearly(got.W, want.Real) || !nearly(got.X, want.Imag) || !nearly(got.Y, want.Jmag) || !nearly(got.Z, want.Kmag) {
		t.Errorf("Mul() = %+v, want %+v", got, want)
	}
}

func TestQuatMulOrder(t *testing.T) {
	// a.Mul(b) applies b first.
	a := QuatFromAxisAngle(AxisY, float32(math.Pi/2))
	b := QuatFromAxisAngle(AxisZ, float32(math.Pi/2))

	got := a.Mul(b).Rotate(AxisX)
	want := a.Rotate(b.Rotate(AxisX))
	if !got.ApproxEqual(want, 0.0001) {
		t.Errorf("a.Mul(b).Rotate(x) = %v, want %v", got, want)
	}

	pre := b.PreMul(a)
	if !pre.ApproxEqual(a.Mul(b), 0.0001) {
		t.Errorf("b.PreMul(a) = %v, want %v", pre, a.Mul(b))
	}
}

func TestQuatInvert(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 1, Y: 1, Z: 0}.Normalize(), 1.3)
	got := q.Invert()
	want := quat.Inv(toNumber(q))

	if !nearly(got.W, want.Real) || !nearly(got.X, want.Imag) || !nearly(got.Y, want.Jmag) || !nearly(got.Z, want.Kmag) {
		t.Errorf("Invert() = %+v, want %+v", got, want)
	}

	if id := q.Mul(got); !id.ApproxEqual(QuatIdentity(), 0.0001) {
		t.Errorf("q * q^-1 = %+v, want identity", id)
	}

	if zero := (Quat{}).Invert(); zero != QuatIdentity() {
		t.Errorf("zero Invert() = %+v, want identity", zero)
	}
}

func TestQuatPreMulInvert(t *testing.T) {
	parent := QuatFromAxisAngle(AxisX, 0.6)
	local := QuatFromAxisAngle(AxisY, -1.1)
	world := parent.Mul(local)

	if got := world.PreMulInvert(parent); !got.ApproxEqual(local, 0.0001) {
		t.Errorf("PreMulInvert() = %+v, want %+v", got, local)
	}
}

func TestQuatRotate(t *testing.T) {
	axis := Vec3{X: 0.3, Y: -0.5, Z: 0.8}.Normalize()
	q := QuatFromAxisAngle(axis, 2.4)
	ref := mgl32.QuatRotate(2.4, mgl32.Vec3{axis.X, axis.Y, axis.Z})

	for _, v := range []Vec3{AxisX, AxisY, AxisZ, {X: 1, Y: 2, Z: 3}} {
		got := q.Rotate(v)
		want := ref.Rotate(mgl32.Vec3{v.X, v.Y, v.Z})
		if !got.ApproxEqual(Vec3{X: want[0], Y: want[1], Z: want[2]}, 0.0001) {
			t.Errorf("Rotate(%v) = %v, want %v", v, got, want)
		}
	}
}

func TestQuatFromSwing(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
	}{
		{"x to y", AxisX, AxisY},
		{"oblique", Vec3{X: 1, Y: 1, Z: 0}.Normalize(), Vec3{X: 0, Y: -1, Z: 1}.Normalize()},
		{"parallel", AxisZ, AxisZ},
		{"opposite x", AxisX, AxisX.Negate()},
		{"opposite y", AxisY, AxisY.Negate()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromSwing(tt.a, tt.b)
			got := q.Rotate(tt.a)
			if !got.ApproxEqual(tt.b, 0.0001) {
				t.Errorf("QuatFromSwing(%v, %v) maps a to %v", tt.a, tt.b, got)
			}
			length := math.Sqrt(float64(q.Dot(q)))
			if math.Abs(length-1) > 0.0001 {
				t.Errorf("QuatFromSwing should be unit length, got %v", length)
			}
		})
	}
}

func TestQuatFromSwingShortestArc(t *testing.T) {
	a := Vec3{X: 0.2, Y: 0.9, Z: -0.1}.Normalize()
	b := Vec3{X: -0.7, Y: 0.1, Z: 0.6}.Normalize()

	got := QuatFromSwing(a, b)
	axis := a.Cross(b).Normalize()
	angle := float32(math.Acos(float64(a.Dot(b))))
	want := mgl32.QuatRotate(angle, mgl32.Vec3{axis.X, axis.Y, axis.Z})

	if !got.ApproxEqual(Quat{X: want.V[0], Y: want.V[1], Z: want.V[2], W: want.W}, 0.0001) {
		t.Errorf("QuatFromSwing() = %+v, want %+v", got, want)
	}
}

func toNumber(q Quat) quat.Number {
	return quat.Number{Real: float64(q.W), Imag: float64(q.X), Jmag: float64(q.Y), Kmag: float64(q.Z)}
}

func nearly(a float32, b float64) bool {
	return math.Abs(float64(a)-b) < 0.0001
}

package math

// Transform is a position, rotation and scale triple.
// Composition follows parent * child order: a child's local transform is
// scaled, rotated and then offset by its parent's world transform.
type Transform struct {
	Pos Vec3
	Rot Quat
	Scl Vec3
}

// TransformIdentity returns a transform with no translation, rotation or scale.
func TransformIdentity() Transform {
	return Transform{Rot: QuatIdentity(), Scl: Vec3One()}
}

// Mul returns t * child, the world transform of child when t is its parent.
func (t Transform) Mul(child Transform) Transform {
	return Transform{
		Pos: t.Pos.Add(t.Rot.Rotate(t.Scl.Mul(child.Pos))),
		Rot: t.Rot.Mul(child.Rot),
		Scl: t.Scl.Mul(child.Scl),
	}
}

// PreMul returns parent * t. Walking a hierarchy upward, each ancestor is
// pre-multiplied onto the accumulated transform.
func (t Transform) PreMul(parent Transform) Transform {
	return parent.Mul(t)
}

// TransformPoint maps a point from t's local space into t's parent space.
func (t Transform) TransformPoint(v Vec3) Vec3 {
	return t.Pos.Add(t.Rot.Rotate(t.Scl.Mul(v)))
}

// ToLocalPos maps a point from t's parent space into t's local space.
// This is the inverse of TransformPoint.
func (t Transform) ToLocalPos(v Vec3) Vec3 {
	return t.Rot.Invert().Rotate(v.Sub(t.Pos)).Div(t.Scl)
}

// ToMat4 returns the equivalent translate * rotate * scale matrix.
func (t Transform) ToMat4() Mat4 {
	return Translate(t.Pos.X, t.Pos.Y, t.Pos.Z).
		Mul(t.Rot.ToMat4()).
		Mul(Scale(t.Scl.X, t.Scl.Y, t.Scl.Z))
}

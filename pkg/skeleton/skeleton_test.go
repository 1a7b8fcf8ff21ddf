package skeleton

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mesh-retarget/pkg/math"
)

func chain(names ...string) []*Node {
	var bones []*Node
	var parent *Node
	for i, n := range names {
		b := NewBone(n, parent)
		b.Position = math.Vec3{Y: float32(i) * 0.5}
		bones = append(bones, b)
		parent = b
	}
	return bones
}

func TestNewValidation(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := New("empty", nil)
		assert.ErrorIs(t, err, ErrEmptySkeleton)
	})

	t.Run("group entry", func(t *testing.T) {
		bones := chain("a", "b")
		bones = append(bones, NewGroup("mesh"))
		_, err := New("bad", bones)
		assert.ErrorIs(t, err, ErrNotBone)
	})

	t.Run("duplicate", func(t *testing.T) {
		bones := chain("a", "b")
		bones = append(bones, NewBone("b", bones[0]))
		_, err := New("bad", bones)
		assert.ErrorIs(t, err, ErrDuplicateBone)
	})

	t.Run("child before parent", func(t *testing.T) {
		bones := chain("a", "b", "c")
		bones[1], bones[2] = bones[2], bones[1]
		_, err := New("bad", bones)
		assert.ErrorIs(t, err, ErrMalformedHierarchy)
	})

	t.Run("cyclic group ancestors", func(t *testing.T) {
		g1, g2 := NewGroup("g1"), NewGroup("g2")
		g1.Parent, g2.Parent = g2, g1
		bones := chain("a", "b")
		bones[0].Parent = g1
		_, err := New("bad", bones)
		assert.True(t, errors.Is(err, ErrCyclicHierarchy))
	})
}

func TestWorldIncludesGroupAncestors(t *testing.T) {
	root := NewGroup("armature")
	root.Position = math.Vec3{X: 5}
	root.Scale = math.Vec3{X: 2, Y: 2, Z: 2}

	bones := chain("a", "b")
	bones[0].Parent = root
	s, err := New("s", bones)
	require.NoError(t, err)

	assert.Same(t, root, s.RootParent())

	got := s.WorldTransform(1).Pos
	want := math.Vec3{X: 5, Y: 1}
	assert.True(t, got.ApproxEqual(want, 0.0001), "got %v want %v", got, want)
}

func TestBoneLookup(t *testing.T) {
	s, err := New("s", chain("a", "b", "c"))
	require.NoError(t, err)

	i, ok := s.BoneIndex("c")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "b", s.BoneByName("b").Name)
	assert.Nil(t, s.BoneByName("missing"))
	assert.Nil(t, s.Bone(-1))
	assert.Nil(t, s.Bone(3))
	assert.Len(t, s.WorldMatrices(), 3)
}

func TestResetToRest(t *testing.T) {
	s, err := New("s", chain("a", "b"))
	require.NoError(t, err)

	s.Bones[1].Rotation = math.QuatFromAxisAngle(math.AxisX, 1)
	s.Bones[1].Position = math.Vec3{X: 9}
	s.ResetToRest()

	assert.Equal(t, math.QuatIdentity(), s.Bones[1].Rotation)
	assert.Equal(t, math.Vec3{Y: 0.5}, s.Bones[1].Position)
}

func TestCloneIsIndependent(t *testing.T) {
	root := NewGroup("armature")
	bones := chain("a", "b")
	bones[0].Parent = root
	s, err := New("s", bones)
	require.NoError(t, err)

	c := s.Clone()
	c.Bones[1].Position = math.Vec3{Z: 3}
	c.RootParent().Position = math.Vec3{X: 1}

	assert.Equal(t, math.Vec3{Y: 0.5}, s.Bones[1].Position)
	assert.Equal(t, math.Vec3{}, root.Position)
	assert.Same(t, c.Bones[0], c.Bones[1].Parent)
	assert.NotSame(t, root, c.RootParent())
}

func TestLoadDescription(t *testing.T) {
	for _, path := range []string{"testdata/arm.yaml", "testdata/arm.toml"} {
		t.Run(path, func(t *testing.T) {
			s, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, 3, s.Len())

			root := s.RootParent()
			require.NotNil(t, root)
			assert.Equal(t, KindGroup, root.Kind)

			// The root group turns +X into -Z, so the elbow sits 0.3 in front of the shoulder.
			elbow := s.WorldTransform(1).Pos
			assert.True(t, elbow.ApproxEqual(math.Vec3{X: 0, Y: 1.5, Z: 1.7}, 0.0001), "elbow at %v", elbow)

			// The elbow bends the forearm downward.
			wrist := s.WorldTransform(2).Pos
			assert.True(t, wrist.ApproxEqual(math.Vec3{X: 0, Y: 1.25, Z: 1.7}, 0.0001), "wrist at %v", wrist)
		})
	}
}

func TestDescriptionBuildRejectsUnknownParent(t *testing.T) {
	d := Description{Name: "bad", Bones: []BoneDesc{{Name: "child", Parent: "missing"}}}
	_, err := d.Build()
	assert.ErrorIs(t, err, ErrMalformedHierarchy)
}

func applyPoint(m math.Mat4, v math.Vec3) math.Vec3 {
	return math.Vec3{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
	}
}

func TestSkinMatrices(t *testing.T) {
	root := NewGroup("armature")
	root.Position = math.Vec3{X: 5}
	root.Scale = math.Vec3{X: 2, Y: 2, Z: 2}

	bones := chain("a", "b", "c")
	bones[0].Parent = root
	s, err := New("s", bones)
	require.NoError(t, err)

	for i, m := range s.SkinMatrices() {
		for j, want := range math.Identity() {
			assert.InDelta(t, want, m[j], 0.0001, "rest skin matrix %d element %d", i, j)
		}
	}

	restTip := s.WorldTransform(2).Pos
	require.True(t, restTip.ApproxEqual(math.Vec3{X: 5, Y: 3}, 0.0001), "rest tip %v", restTip)

	s.Bones[0].Rotation = math.QuatFromAxisAngle(math.AxisZ, 0.8)
	s.Bones[1].Position = math.Vec3{Y: 0.75}

	skin := s.SkinMatrices()
	got := applyPoint(skin[2], restTip)
	want := s.WorldTransform(2).Pos
	assert.True(t, got.ApproxEqual(want, 0.0001), "skinned tip %v, world %v", got, want)

	inv := s.InverseBindMatrices()
	assert.True(t, applyPoint(inv[2], restTip).ApproxEqual(math.Vec3{}, 0.0001),
		"inverse bind maps the rest joint to the origin")
}

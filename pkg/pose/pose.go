// Package pose holds flattened, parent-indexed copies of a skeleton's joint
// hierarchy. A Pose snapshots a skeleton once and can then be cloned, edited
// and committed back without touching the live bones.
package pose

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/internal/logger"
	"github.com/Faultbox/mesh-retarget/pkg/math"
	"github.com/Faultbox/mesh-retarget/pkg/skeleton"
)

// NoParent is the parent index of a root joint.
const NoParent = -1

// Joint is one bone's data inside a Pose.
type Joint struct {
	Name     string
	Index    int
	Parent   int
	Children []int
	Local    math.Transform
	World    math.Transform
}

// Clone returns a copy that shares nothing with j.
func (j Joint) Clone() Joint {
	c := j
	c.Children = append([]int(nil), j.Children...)
	return c
}

// NameIndex maps joint names to indices. It is filled while a Pose is built
// from a skeleton and never changes afterwards, so clones share it.
type NameIndex struct {
	m map[string]int
}

// Lookup returns the index of the named joint.
func (n *NameIndex) Lookup(name string) (int, bool) {
	if n == nil {
		return 0, false
	}
	i, ok := n.m[name]
	return i, ok
}

// Len returns the number of names.
func (n *NameIndex) Len() int {
	if n == nil {
		return 0
	}
	return len(n.m)
}

// Pose is an index-addressable copy of a joint hierarchy.
type Pose struct {
	Joints []Joint
	// RootOffset places the whole pose in the world.
	RootOffset math.Transform
	// PoseOffset is the world transform of the node the root bone hung from.
	PoseOffset math.Transform

	names *NameIndex
	src   *Pose
}

// New returns an empty pose with identity offsets.
func New() *Pose {
	return &Pose{
		RootOffset: math.TransformIdentity(),
		PoseOffset: math.TransformIdentity(),
		names:      &NameIndex{m: map[string]int{}},
	}
}

// FromSkeleton snapshots the skeleton's current local transforms.
func FromSkeleton(skel *skeleton.Skeleton) *Pose {
	p := New()
	p.Joints = make([]Joint, len(skel.Bones))

	for i, b := range skel.Bones {
		j := Joint{
			Name:   b.Name,
			Index:  i,
			Parent: NoParent,
			Local:  b.Local(),
		}
		p.names.m[j.Name] = i

		// Bones are ordered parent first, so the parent is already indexed.
		if b.Parent.IsBone() {
			if pi, ok := p.names.m[b.Parent.Name]; ok {
				j.Parent = pi
				p.Joints[pi].Children = append(p.Joints[pi].Children, i)
			}
		}
		p.Joints[i] = j
	}

	if root := skel.RootParent(); root != nil {
		p.PoseOffset = root.World()
	}

	p.UpdateWorld()
	return p
}

// Len returns the number of joints.
func (p *Pose) Len() int {
	return len(p.Joints)
}

// Joint returns the joint at index i, or nil when out of range.
func (p *Pose) Joint(i int) *Joint {
	if i < 0 || i >= len(p.Joints) {
		return nil
	}
	return &p.Joints[i]
}

// JointByName returns the named joint, or nil.
func (p *Pose) JointByName(name string) *Joint {
	if i, ok := p.names.Lookup(name); ok {
		return &p.Joints[i]
	}
	return nil
}

// Index returns the index of the named joint.
func (p *Pose) Index(name string) (int, bool) {
	return p.names.Lookup(name)
}

// Names returns the shared, read-only name index.
func (p *Pose) Names() *NameIndex {
	return p.names
}

// Source returns the pose this one was cloned from, or nil.
func (p *Pose) Source() *Pose {
	return p.src
}

// Clone deep-copies the joints and links the copy back to the original
// (or to the original's own source) for Reset. The name index is shared.
func (p *Pose) Clone() *Pose {
	c := &Pose{
		Joints:     make([]Joint, len(p.Joints)),
		RootOffset: p.RootOffset,
		PoseOffset: p.PoseOffset,
		names:      p.names,
		src:        p,
	}
	if p.src != nil {
		c.src = p.src
	}
	for i, j := range p.Joints {
		c.Joints[i] = j.Clone()
	}
	return c
}

// Reset restores every local transform from the source pose. Without a
// source it logs a warning and leaves the pose untouched.
func (p *Pose) Reset() *Pose {
	if p.src == nil {
		logger.Named("pose").Warn("reset without a source pose")
		return p
	}
	for i := range p.Joints {
		p.Joints[i].Local = p.src.Joints[i].Local
	}
	return p
}

// ToSkeleton writes every joint's local transform onto the bone with the
// same index. The skeleton must be the one the pose was built from.
func (p *Pose) ToSkeleton(skel *skeleton.Skeleton) {
	for i, b := range skel.Bones {
		if i >= len(p.Joints) {
			return
		}
		b.SetLocal(p.Joints[i].Local)
	}
}

// SetRot sets joint i's local rotation.
func (p *Pose) SetRot(i int, rot math.Quat) *Pose {
	p.Joints[i].Local.Rot = rot
	return p
}

// SetPos sets joint i's local position.
func (p *Pose) SetPos(i int, pos math.Vec3) *Pose {
	p.Joints[i].Local.Pos = pos
	return p
}

// SetScl sets joint i's local scale.
func (p *Pose) SetScl(i int, scl math.Vec3) *Pose {
	p.Joints[i].Local.Scl = scl
	return p
}

// SetScalar sets joint i's local scale uniformly.
func (p *Pose) SetScalar(i int, s float32) *Pose {
	p.Joints[i].Local.Scl = math.Vec3{X: s, Y: s, Z: s}
	return p
}

// UpdateWorld recomputes every cached world transform in one top-down pass,
// O(n). The setters do not call it.
func (p *Pose) UpdateWorld() *Pose {
	offset := p.RootOffset.Mul(p.PoseOffset)
	for i := range p.Joints {
		j := &p.Joints[i]
		if j.Parent != NoParent {
			j.World = p.Joints[j.Parent].World.Mul(j.Local)
		} else {
			j.World = offset.Mul(j.Local)
		}
	}
	return p
}

// GetWorld computes joint i's world transform by walking to the root,
// O(depth), without relying on the cached World values. Index NoParent
// yields the combined root and pose offsets. An unknown index logs an
// error and yields the same offsets.
func (p *Pose) GetWorld(i int) math.Transform {
	offset := p.RootOffset.Mul(p.PoseOffset)
	if i == NoParent {
		return offset
	}

	j := p.Joint(i)
	if j == nil {
		logger.Named("pose").Error("joint not found", zap.Int("index", i))
		return offset
	}

	out := j.Local
	for j.Parent != NoParent {
		j = &p.Joints[j.Parent]
		out = out.PreMul(j.Local)
	}
	return out.PreMul(p.PoseOffset).PreMul(p.RootOffset)
}

// GetWorldByName is GetWorld for a joint name.
func (p *Pose) GetWorldByName(name string) math.Transform {
	i, ok := p.names.Lookup(name)
	if !ok {
		logger.Named("pose").Error("joint not found", zap.String("name", name))
		return p.RootOffset.Mul(p.PoseOffset)
	}
	return p.GetWorld(i)
}

// Package skeleton models the live bone hierarchy that animation drives and
// the retargeter writes into.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/Faultbox/mesh-retarget/pkg/math"
)

var (
	ErrEmptySkeleton      = errors.New("skeleton has no bones")
	ErrNotBone            = errors.New("skeleton entry is not a bone")
	ErrDuplicateBone      = errors.New("duplicate bone name")
	ErrMalformedHierarchy = errors.New("bone parent must precede its children")
	ErrCyclicHierarchy    = errors.New("cyclic node hierarchy")
)

// maxDepth bounds ancestor walks; deeper chains are treated as cycles.
const maxDepth = 1024

// NodeKind distinguishes bones from the plain scene nodes that may sit above them.
type NodeKind uint8

const (
	KindGroup NodeKind = iota
	KindBone
)

func (k NodeKind) String() string {
	switch k {
	case KindBone:
		return "bone"
	default:
		return "group"
	}
}

// Node is a scene node with a local transform relative to its parent.
type Node struct {
	Name     string
	Kind     NodeKind
	Parent   *Node
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// NewBone returns a bone with an identity local transform.
func NewBone(name string, parent *Node) *Node {
	return &Node{Name: name, Kind: KindBone, Parent: parent, Rotation: math.QuatIdentity(), Scale: math.Vec3One()}
}

// NewGroup returns a non-bone node with an identity local transform.
func NewGroup(name string) *Node {
	return &Node{Name: name, Kind: KindGroup, Rotation: math.QuatIdentity(), Scale: math.Vec3One()}
}

// IsBone reports whether n is a bone.
func (n *Node) IsBone() bool {
	return n != nil && n.Kind == KindBone
}

// Local returns the node's transform relative to its parent.
func (n *Node) Local() math.Transform {
	return math.Transform{Pos: n.Position, Rot: n.Rotation, Scl: n.Scale}
}

// SetLocal overwrites the node's local transform.
func (n *Node) SetLocal(t math.Transform) {
	n.Position = t.Pos
	n.Rotation = t.Rot
	n.Scale = t.Scl
}

// World composes local transforms from the top of the hierarchy down to n.
func (n *Node) World() math.Transform {
	world := n.Local()
	depth := 0
	for p := n.Parent; p != nil && depth < maxDepth; p = p.Parent {
		world = world.PreMul(p.Local())
		depth++
	}
	return world
}

// Skeleton is an ordered list of bones where every bone's parent bone
// appears before it.
type Skeleton struct {
	Name  string
	Bones []*Node

	index map[string]int
	rest  []math.Transform
}

// New validates the bone ordering and records the current locals as the rest pose.
func New(name string, bones []*Node) (*Skeleton, error) {
	if len(bones) == 0 {
		return nil, ErrEmptySkeleton
	}

	index := make(map[string]int, len(bones))
	for i, b := range bones {
		if !b.IsBone() {
			return nil, fmt.Errorf("%w: index %d", ErrNotBone, i)
		}
		if _, dup := index[b.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBone, b.Name)
		}
		if b.Parent.IsBone() {
			pi, ok := index[b.Parent.Name]
			if !ok || bones[pi] != b.Parent {
				return nil, fmt.Errorf("%w: %q before parent %q", ErrMalformedHierarchy, b.Name, b.Parent.Name)
			}
		}
		index[b.Name] = i
	}

	if err := checkAcyclic(bones[0]); err != nil {
		return nil, err
	}

	s := &Skeleton{Name: name, Bones: bones, index: index}
	s.SaveRest()
	return s, nil
}

// checkAcyclic walks the ancestors of n, which may include non-bone nodes.
func checkAcyclic(n *Node) error {
	seen := make(map[*Node]bool)
	for p := n; p != nil; p = p.Parent {
		if seen[p] || len(seen) >= maxDepth {
			return fmt.Errorf("%w: at %q", ErrCyclicHierarchy, p.Name)
		}
		seen[p] = true
	}
	return nil
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.Bones)
}

// Bone returns the bone at index i, or nil when out of range.
func (s *Skeleton) Bone(i int) *Node {
	if i < 0 || i >= len(s.Bones) {
		return nil
	}
	return s.Bones[i]
}

// BoneIndex returns the index of the named bone.
func (s *Skeleton) BoneIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// BoneByName returns the named bone, or nil.
func (s *Skeleton) BoneByName(name string) *Node {
	if i, ok := s.index[name]; ok {
		return s.Bones[i]
	}
	return nil
}

// RootParent returns the non-bone node the first bone hangs from, if any.
func (s *Skeleton) RootParent() *Node {
	return s.Bones[0].Parent
}

// WorldTransform returns bone i's world transform, including every
// non-bone ancestor.
func (s *Skeleton) WorldTransform(i int) math.Transform {
	return s.Bones[i].World()
}

// WorldMatrices returns each bone's world matrix, for an external renderer.
func (s *Skeleton) WorldMatrices() []math.Mat4 {
	out := make([]math.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		out[i] = b.World().ToMat4()
	}
	return out
}

// InverseBindMatrices returns the inverse of each bone's rest world matrix.
// Non-bone ancestors contribute their current transform. A bone whose rest
// matrix is singular gets identity.
func (s *Skeleton) InverseBindMatrices() []math.Mat4 {
	world := make([]math.Transform, len(s.Bones))
	out := make([]math.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		switch {
		case b.Parent.IsBone():
			world[i] = world[s.index[b.Parent.Name]].Mul(s.rest[i])
		case b.Parent != nil:
			world[i] = b.Parent.World().Mul(s.rest[i])
		default:
			world[i] = s.rest[i]
		}
		out[i], _ = world[i].ToMat4().AffineInverse()
	}
	return out
}

// SkinMatrices returns each bone's world matrix times its inverse bind
// matrix, which maps rest-pose positions to their current place.
func (s *Skeleton) SkinMatrices() []math.Mat4 {
	out := s.WorldMatrices()
	for i, inv := range s.InverseBindMatrices() {
		out[i] = out[i].Mul(inv)
	}
	return out
}

// SaveRest records the current local transforms as the rest pose.
func (s *Skeleton) SaveRest() {
	s.rest = make([]math.Transform, len(s.Bones))
	for i, b := range s.Bones {
		s.rest[i] = b.Local()
	}
}

// ResetToRest restores every bone's local transform to the saved rest pose.
func (s *Skeleton) ResetToRest() {
	for i, b := range s.Bones {
		b.SetLocal(s.rest[i])
	}
}

// Clone deep-copies the bones and the non-bone ancestors of the root.
func (s *Skeleton) Clone() *Skeleton {
	copies := make(map[*Node]*Node, len(s.Bones))

	var cloneNode func(n *Node) *Node
	cloneNode = func(n *Node) *Node {
		if n == nil {
			return nil
		}
		if c, ok := copies[n]; ok {
			return c
		}
		c := *n
		copies[n] = &c
		c.Parent = cloneNode(n.Parent)
		return &c
	}

	bones := make([]*Node, len(s.Bones))
	for i, b := range s.Bones {
		bones[i] = cloneNode(b)
	}

	index := make(map[string]int, len(s.index))
	for k, v := range s.index {
		index[k] = v
	}
	rest := make([]math.Transform, len(s.rest))
	copy(rest, s.rest)

	return &Skeleton{Name: s.Name, Bones: bones, index: index, rest: rest}
}

package skeleton

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/mesh-retarget/internal/fileformat"
	"github.com/Faultbox/mesh-retarget/pkg/math"
)

// TransformDesc is a local transform as written in a description file.
// Rotation is an (x, y, z, w) quaternion; when it is absent, Axis and
// Degrees describe the rotation instead. A missing Scale means (1, 1, 1).
type TransformDesc struct {
	Position [3]float32  `yaml:"position" toml:"position"`
	Rotation *[4]float32 `yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	Axis     *[3]float32 `yaml:"axis,omitempty" toml:"axis,omitempty"`
	Degrees  float32     `yaml:"degrees,omitempty" toml:"degrees,omitempty"`
	Scale    *[3]float32 `yaml:"scale,omitempty" toml:"scale,omitempty"`
}

// BoneDesc describes one bone. Parent is empty for the root bone.
type BoneDesc struct {
	Name          string `yaml:"name" toml:"name"`
	Parent        string `yaml:"parent,omitempty" toml:"parent,omitempty"`
	TransformDesc `yaml:",inline"`
}

// Description is a skeleton as written in a YAML or TOML file. Root, when
// set, is a non-bone node placing the whole skeleton in the scene.
type Description struct {
	Name  string         `yaml:"name" toml:"name"`
	Root  *TransformDesc `yaml:"root,omitempty" toml:"root,omitempty"`
	Bones []BoneDesc     `yaml:"bones" toml:"bones"`
}

// Transform converts the description into a math.Transform.
func (d TransformDesc) Transform() math.Transform {
	t := math.TransformIdentity()
	t.Pos = math.Vec3FromArray(d.Position)

	switch {
	case d.Rotation != nil:
		t.Rot = math.QuatFromArray(*d.Rotation).Normalize()
	case d.Axis != nil && d.Degrees != 0:
		axis := math.Vec3FromArray(*d.Axis).Normalize()
		t.Rot = math.QuatFromAxisAngle(axis, d.Degrees*math32.Pi/180)
	}

	if d.Scale != nil {
		t.Scl = math.Vec3FromArray(*d.Scale)
	}
	return t
}

// Build creates the skeleton. Bones must be listed parent first.
func (d *Description) Build() (*Skeleton, error) {
	var root *Node
	if d.Root != nil {
		root = NewGroup(d.Name)
		root.SetLocal(d.Root.Transform())
	}

	byName := make(map[string]*Node, len(d.Bones))
	bones := make([]*Node, 0, len(d.Bones))
	for _, bd := range d.Bones {
		parent := root
		if bd.Parent != "" {
			p, ok := byName[bd.Parent]
			if !ok {
				return nil, fmt.Errorf("%w: %q before parent %q", ErrMalformedHierarchy, bd.Name, bd.Parent)
			}
			parent = p
		}

		b := NewBone(bd.Name, parent)
		b.SetLocal(bd.Transform())
		byName[bd.Name] = b
		bones = append(bones, b)
	}

	return New(d.Name, bones)
}

// Load reads a skeleton description file and builds it.
func Load(path string) (*Skeleton, error) {
	var d Description
	if err := fileformat.DecodeFile(path, &d); err != nil {
		return nil, err
	}
	s, err := d.Build()
	if err != nil {
		return nil, fmt.Errorf("building skeleton from %s: %w", path, err)
	}
	return s, nil
}

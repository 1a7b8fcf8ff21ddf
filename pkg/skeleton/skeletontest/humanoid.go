// Package skeletontest builds humanoid skeletons for tests.
package skeletontest

import (
	"fmt"

	"github.com/Faultbox/mesh-retarget/pkg/math"
	"github.com/Faultbox/mesh-retarget/pkg/skeleton"
)

// Options shape the generated humanoid. The zero value is a one meter hip
// height skeleton with three spine bones and identity bind rotations.
type Options struct {
	// Scale multiplies every rest position.
	Scale float32
	// SpineCount is the number of bones between hips and neck.
	SpineCount int
	// Prefix is prepended to every bone name.
	Prefix string
	// Rolled gives every bone a distinct non-identity bind rotation while
	// keeping the rest geometry unchanged.
	Rolled bool
	// Root, when set, places the skeleton under a non-bone node.
	Root *math.Transform
}

type boneSpec struct {
	name, parent string
	world        math.Vec3
}

// Humanoid returns the skeleton and the bone names of each chain, keyed by
// pelvis, spine, head, armL, armR, legL and legR.
func Humanoid(opts Options) (*skeleton.Skeleton, map[string][]string) {
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	if opts.SpineCount == 0 {
		opts.SpineCount = 3
	}
	n := func(s string) string { return opts.Prefix + s }

	specs := []boneSpec{{name: n("hips"), world: math.Vec3{Y: 1}}}
	chains := map[string][]string{"pelvis": {n("hips")}}

	parent := n("hips")
	y := float32(1)
	step := 0.3 / float32(opts.SpineCount)
	for i := 0; i < opts.SpineCount; i++ {
		y += step
		name := n(fmt.Sprintf("spine%d", i))
		specs = append(specs, boneSpec{name, parent, math.Vec3{Y: y}})
		chains["spine"] = append(chains["spine"], name)
		parent = name
	}
	chest := parent

	specs = append(specs,
		boneSpec{n("neck"), chest, math.Vec3{Y: 1.45}},
		boneSpec{n("head"), n("neck"), math.Vec3{Y: 1.55}},
	)
	chains["head"] = []string{n("neck"), n("head")}

	for _, side := range []struct {
		key, suffix string
		sign        float32
	}{{"L", "L", 1}, {"R", "R", -1}} {
		s := side.sign
		arm := []string{n("upperArm" + side.suffix), n("lowerArm" + side.suffix), n("hand" + side.suffix)}
		specs = append(specs,
			boneSpec{arm[0], chest, math.Vec3{X: 0.2 * s, Y: 1.4}},
			boneSpec{arm[1], arm[0], math.Vec3{X: 0.45 * s, Y: 1.4}},
			boneSpec{arm[2], arm[1], math.Vec3{X: 0.7 * s, Y: 1.4}},
		)
		chains["arm"+side.key] = arm

		leg := []string{n("upperLeg" + side.suffix), n("lowerLeg" + side.suffix), n("foot" + side.suffix)}
		specs = append(specs,
			boneSpec{leg[0], n("hips"), math.Vec3{X: 0.1 * s, Y: 0.95}},
			boneSpec{leg[1], leg[0], math.Vec3{X: 0.1 * s, Y: 0.5}},
			boneSpec{leg[2], leg[1], math.Vec3{X: 0.1 * s, Y: 0.08}},
		)
		chains["leg"+side.key] = leg
	}

	return build(specs, opts), chains
}

// build converts world-space rest positions into parent-local transforms.
func build(specs []boneSpec, opts Options) *skeleton.Skeleton {
	var root *skeleton.Node
	if opts.Root != nil {
		root = skeleton.NewGroup("root")
		root.SetLocal(*opts.Root)
	}

	nodes := make(map[string]*skeleton.Node, len(specs))
	worldRot := make(map[string]math.Quat, len(specs))
	worldPos := make(map[string]math.Vec3, len(specs))
	bones := make([]*skeleton.Node, 0, len(specs))

	for i, s := range specs {
		rot := math.QuatIdentity()
		if opts.Rolled {
			rot = rollFor(i)
		}
		pos := s.world.Scale(opts.Scale)

		b := skeleton.NewBone(s.name, root)
		if p, ok := nodes[s.parent]; ok {
			b.Parent = p
			pInv := worldRot[s.parent].Invert()
			b.Position = pInv.Rotate(pos.Sub(worldPos[s.parent]))
			b.Rotation = pInv.Mul(rot)
		} else {
			b.Position = pos
			b.Rotation = rot
		}

		nodes[s.name] = b
		worldRot[s.name] = rot
		worldPos[s.name] = pos
		bones = append(bones, b)
	}

	skel, err := skeleton.New("humanoid", bones)
	if err != nil {
		panic(err)
	}
	return skel
}

// rollFor returns a deterministic, bone-specific bind rotation.
func rollFor(i int) math.Quat {
	axis := math.Vec3{X: float32(i%3) - 1, Y: 1, Z: float32(i%5) - 2}.Normalize()
	return math.QuatFromAxisAngle(axis, 0.3+0.17*float32(i))
}

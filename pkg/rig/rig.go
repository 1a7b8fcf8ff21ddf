// Package rig groups a skeleton's joints into named kinematic chains so that
// skeletons with different naming schemes can be retargeted onto each other.
package rig

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/internal/logger"
	"github.com/Faultbox/mesh-retarget/pkg/math"
	"github.com/Faultbox/mesh-retarget/pkg/pose"
	"github.com/Faultbox/mesh-retarget/pkg/skeleton"
)

// Chain names understood by FromConfig.
const (
	Pelvis = "pelvis"
	Spine  = "spine"
	Head   = "head"
	ArmL   = "armL"
	ArmR   = "armR"
	LegL   = "legL"
	LegR   = "legR"
)

// minScalar is the smallest pelvis height accepted as a proportion scalar.
const minScalar = 1e-6

// Axes are the world-space reference directions of a chain in rest pose.
// Every rig is assumed to face +Z with +Y up.
type Axes struct {
	Swing math.Vec3
	Twist math.Vec3
}

// ChainAxes lists the reference directions for each known chain.
var ChainAxes = map[string]Axes{
	Pelvis: {Swing: math.AxisZ, Twist: math.AxisY},
	Spine:  {Swing: math.AxisY, Twist: math.AxisZ},
	Head:   {Swing: math.AxisZ, Twist: math.AxisY},
	ArmL:   {Swing: math.AxisX, Twist: math.AxisZ.Negate()},
	ArmR:   {Swing: math.AxisX.Negate(), Twist: math.AxisZ.Negate()},
	LegL:   {Swing: math.AxisZ, Twist: math.AxisY.Negate()},
	LegR:   {Swing: math.AxisZ, Twist: math.AxisY.Negate()},
}

// Item is one joint's role in a chain. Swing and Twist are the chain's
// world reference axes expressed in the inverse of the joint's rest world
// rotation, so rotating them by a world rotation of the joint yields the
// joint's current swing and twist directions.
type Item struct {
	Index  int
	Parent int
	Swing  math.Vec3
	Twist  math.Vec3
}

// ItemFromJoint builds an Item from a rest-pose joint with an up-to-date
// world transform.
func ItemFromJoint(j *pose.Joint, axes Axes) Item {
	inv := j.World.Rot.Invert()
	return Item{
		Index:  j.Index,
		Parent: j.Parent,
		Swing:  inv.Rotate(axes.Swing),
		Twist:  inv.Rotate(axes.Twist),
	}
}

// Rig is a skeleton, its rest pose and the chains built over it.
type Rig struct {
	Skel   *skeleton.Skeleton
	TPose  *pose.Pose
	Chains map[string][]Item
	// Scalar is the pelvis rest height, used to scale translation between rigs.
	Scalar float32
}

// New snapshots skel's current pose as the rest pose.
func New(skel *skeleton.Skeleton) *Rig {
	return &Rig{
		Skel:   skel,
		TPose:  pose.FromSkeleton(skel),
		Chains: make(map[string][]Item),
		Scalar: 1,
	}
}

// FromConfig builds every chain named in cfg. Unknown chain names are
// ignored; joint names missing from the rest pose are skipped with a warning.
func (r *Rig) FromConfig(cfg Config) *Rig {
	for _, name := range cfg.sortedNames() {
		axes, ok := ChainAxes[name]
		if !ok {
			logger.Named("rig").Debug("ignoring unknown chain", zap.String("chain", name))
			continue
		}
		r.BuildChain(name, cfg[name].Names, axes)
		if name == Pelvis {
			r.BuildScalar(name)
		}
	}
	return r
}

// BuildChain resolves names against the rest pose into an ordered chain.
func (r *Rig) BuildChain(name string, names []string, axes Axes) *Rig {
	items := make([]Item, 0, len(names))
	for _, n := range names {
		j := r.TPose.JointByName(n)
		if j == nil {
			logger.Named("rig").Warn("joint not found in rest pose",
				zap.String("chain", name),
				zap.String("joint", n))
			continue
		}
		items = append(items, ItemFromJoint(j, axes))
	}
	r.Chains[name] = items
	return r
}

// BuildScalar sets Scalar to the rest world height of the chain's first joint.
// The previous value is kept when the chain is empty or the height is ~0.
func (r *Rig) BuildScalar(name string) *Rig {
	ch := r.Chains[name]
	if len(ch) == 0 {
		logger.Named("rig").Warn("cannot compute scalar from empty chain", zap.String("chain", name))
		return r
	}

	h := r.TPose.Joints[ch[0].Index].World.Pos.Y
	if h < minScalar && h > -minScalar {
		logger.Named("rig").Warn("pelvis rest height is zero, keeping scalar",
			zap.String("chain", name),
			zap.Float32("scalar", r.Scalar))
		return r
	}
	r.Scalar = h
	return r
}

// Chain returns the named chain.
func (r *Rig) Chain(name string) ([]Item, bool) {
	ch, ok := r.Chains[name]
	return ch, ok
}

// ChainNames returns the built chain names in sorted order.
func (r *Rig) ChainNames() []string {
	names := make([]string, 0, len(r.Chains))
	for k := range r.Chains {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// JointName returns the rest-pose name of joint i.
func (r *Rig) JointName(i int) string {
	if j := r.TPose.Joint(i); j != nil {
		return j.Name
	}
	return ""
}

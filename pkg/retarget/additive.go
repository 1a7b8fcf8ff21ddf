package retarget

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/pkg/math"
	"github.com/Faultbox/mesh-retarget/pkg/pose"
	"github.com/Faultbox/mesh-retarget/pkg/rig"
)

// ChainTwistAdditive rotates a chain's first joint by Angle radians around
// the line from the chain's first joint to its last.
type ChainTwistAdditive struct {
	Chain string
	Angle float32
}

// Apply implements Additive.
func (a ChainTwistAdditive) Apply(tar *rig.Rig, p *pose.Pose) {
	if a.Angle == 0 {
		return
	}
	ch, ok := tar.Chain(a.Chain)
	if !ok || len(ch) == 0 {
		log().Warn("additive chain not found", zap.String("chain", a.Chain))
		return
	}
	first, last := ch[0], ch[len(ch)-1]

	ptran := p.GetWorld(first.Parent)
	ctran := ptran.Mul(p.Joints[first.Index].Local)
	etran := p.GetWorld(last.Index)

	axis := etran.Pos.Sub(ctran.Pos).Normalize()
	if axis == (math.Vec3{}) {
		log().Warn("additive chain has no length", zap.String("chain", a.Chain))
		return
	}
	rot := math.QuatFromAxisAngle(axis, a.Angle).Mul(ctran.Rot).PreMulInvert(ptran.Rot)
	p.SetRot(first.Index, rot)
}

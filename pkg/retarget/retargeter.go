// Package retarget transfers animation from a source rig onto a target rig
// with a different skeleton by aligning each target joint's swing and twist
// directions with those of its source counterpart.
package retarget

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/internal/logger"
	"github.com/Faultbox/mesh-retarget/pkg/anim"
	"github.com/Faultbox/mesh-retarget/pkg/math"
	"github.com/Faultbox/mesh-retarget/pkg/pose"
	"github.com/Faultbox/mesh-retarget/pkg/rig"
)

var (
	ErrMissingRig          = errors.New("source or target rig not set")
	ErrMissingChain        = errors.New("chain missing from one rig")
	ErrChainLengthMismatch = errors.New("chain length differs between rigs")
)

// directChains are mapped joint for joint, after the spine.
var directChains = []string{rig.Head, rig.ArmL, rig.ArmR, rig.LegL, rig.LegR}

// Additive is a correction applied to the working pose after the chains.
type Additive interface {
	Apply(tar *rig.Rig, p *pose.Pose)
}

// Retargeter plays a clip on a source rig and writes the retargeted pose
// onto a target rig's skeleton once per Update. It is not safe for
// concurrent use.
type Retargeter struct {
	src  *rig.Rig
	tar  *rig.Rig
	clip *anim.Clip

	mixer     *anim.Mixer
	action    *anim.Action
	pose      *pose.Pose
	additives []Additive
}

// New returns an unconfigured retargeter.
func New() *Retargeter {
	return &Retargeter{}
}

func log() *zap.Logger {
	return logger.Named("retarget")
}

// SetSourceRig sets the rig the clip plays on.
func (r *Retargeter) SetSourceRig(src *rig.Rig) *Retargeter {
	r.stopAction()
	r.mixer = nil
	r.src = src
	return r
}

// SetTargetRig sets the rig that receives the retargeted pose.
func (r *Retargeter) SetTargetRig(tar *rig.Rig) *Retargeter {
	r.tar = tar
	r.pose = nil
	return r
}

// SetClip stops the running action and drops the working pose so the next
// Update starts from the target rest pose.
func (r *Retargeter) SetClip(clip *anim.Clip) *Retargeter {
	r.stopAction()
	r.clip = clip
	r.pose = nil
	return r
}

func (r *Retargeter) stopAction() {
	if r.action == nil {
		return
	}
	r.action.Stop()
	if r.mixer != nil {
		r.mixer.Uncache(r.action.Clip())
	}
	r.action = nil
}

// AddAdditive registers a correction. Additives run in registration order.
func (r *Retargeter) AddAdditive(a Additive) *Retargeter {
	r.additives = append(r.additives, a)
	return r
}

// Action returns the source clip action, or nil before the first Update.
func (r *Retargeter) Action() *anim.Action {
	return r.action
}

// Pose returns the working pose, creating it from the target rest pose when
// needed. It is nil while no target rig is set.
func (r *Retargeter) Pose() *pose.Pose {
	if r.pose == nil && r.tar != nil {
		r.pose = r.tar.TPose.Clone()
	}
	return r.pose
}

// Ready reports whether both rigs and a clip are set.
func (r *Retargeter) Ready() bool {
	return r.src != nil && r.tar != nil && r.clip != nil
}

// Validate checks that the rigs are set and that every chain mapped joint
// for joint has the same length in both. Update tolerates these problems;
// Validate lets callers reject them up front.
func (r *Retargeter) Validate() error {
	if r.src == nil || r.tar == nil {
		return ErrMissingRig
	}

	var errs []error
	for _, name := range append([]string{rig.Pelvis}, directChains...) {
		s, sok := r.src.Chain(name)
		t, tok := r.tar.Chain(name)
		switch {
		case !sok && !tok:
		case sok != tok:
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingChain, name))
		case len(s) != len(t):
			errs = append(errs, fmt.Errorf("%w: %s has %d source and %d target joints",
				ErrChainLengthMismatch, name, len(s), len(t)))
		}
	}

	if _, ok := r.src.Chain(rig.Spine); ok {
		if _, ok := r.tar.Chain(rig.Spine); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingChain, rig.Spine))
		}
	}
	return errors.Join(errs...)
}

// Update advances the clip by dt seconds and writes the retargeted pose
// onto the target skeleton. It logs and returns when not Ready.
func (r *Retargeter) Update(dt float32) {
	if !r.Ready() {
		log().Warn("retargeter not ready",
			zap.Bool("source", r.src != nil),
			zap.Bool("target", r.tar != nil),
			zap.Bool("clip", r.clip != nil))
		return
	}

	if r.action == nil {
		if r.mixer == nil {
			r.mixer = anim.NewMixer(r.src.Skel)
		}
		r.action = r.mixer.ClipAction(r.clip).Play()
	}
	p := r.Pose()

	r.mixer.Update(dt)

	r.ApplyScaledTranslation(rig.Pelvis)
	r.ApplyChain(rig.Pelvis)
	r.ApplyEndInterp(rig.Spine)
	for _, name := range directChains {
		r.ApplyChain(name)
	}

	for _, a := range r.additives {
		a.Apply(r.tar, p)
	}

	p.ToSkeleton(r.tar.Skel)
}

// chains returns the named chain of both rigs and the working pose, or
// ok=false after logging why the chain is skipped.
func (r *Retargeter) chains(name string) (src, tar []rig.Item, p *pose.Pose, ok bool) {
	if r.src == nil || r.tar == nil {
		log().Warn("rig not set", zap.String("chain", name))
		return nil, nil, nil, false
	}
	src, sok := r.src.Chain(name)
	tar, tok := r.tar.Chain(name)
	if !sok || !tok {
		log().Warn("chain not found",
			zap.String("chain", name),
			zap.Bool("source", sok),
			zap.Bool("target", tok))
		return nil, nil, nil, false
	}
	if len(src) == 0 || len(tar) == 0 {
		log().Warn("chain is empty", zap.String("chain", name))
		return nil, nil, nil, false
	}
	return src, tar, r.Pose(), true
}

// sourceDirs returns a source item's current world swing and twist.
func (r *Retargeter) sourceDirs(itm rig.Item) (swing, twist math.Vec3) {
	rot := r.src.Skel.WorldTransform(itm.Index).Rot
	return rot.Rotate(itm.Swing), rot.Rotate(itm.Twist)
}

// ApplyChain aligns each target joint of the chain with the source joint at
// the same position. Chains of different lengths are truncated to the
// shorter one.
func (r *Retargeter) ApplyChain(name string) {
	src, tar, p, ok := r.chains(name)
	if !ok {
		return
	}

	n := len(tar)
	if len(src) != len(tar) {
		log().Warn("chain length mismatch, truncating",
			zap.String("chain", name),
			zap.Int("source", len(src)),
			zap.Int("target", len(tar)))
		n = min(len(src), len(tar))
	}

	for i := 0; i < n; i++ {
		swing, twist := r.sourceDirs(src[i])
		p.SetRot(tar[i].Index, ApplySwingTwist(tar[i], swing, twist, r.tar.TPose, p))
	}
}

// EndInterpFactors returns the blend factor between the first and last
// source joint for each of n target joints, evenly spaced from 0 to 1.
// A single joint follows the last source joint.
func EndInterpFactors(n int) []float32 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float32{1}
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) / float32(n-1)
	}
	return out
}

// ApplyEndInterp drives every target joint of the chain from a blend of
// the first and last source joints' directions, so the chains may differ
// in length.
func (r *Retargeter) ApplyEndInterp(name string) {
	src, tar, p, ok := r.chains(name)
	if !ok {
		return
	}

	aSwing, aTwist := r.sourceDirs(src[0])
	bSwing, bTwist := r.sourceDirs(src[len(src)-1])

	for i, t := range EndInterpFactors(len(tar)) {
		swing := aSwing.Lerp(bSwing, t).Normalize()
		twist := aTwist.Lerp(bTwist, t).Normalize()
		p.SetRot(tar[i].Index, ApplySwingTwist(tar[i], swing, twist, r.tar.TPose, p))
	}
}

// ApplyScaledTranslation moves the chain's first target joint by the source
// joint's world offset from rest, scaled by the ratio of the rigs' scalars.
func (r *Retargeter) ApplyScaledTranslation(name string) {
	srcCh, tarCh, p, ok := r.chains(name)
	if !ok {
		return
	}
	src, tar := srcCh[0], tarCh[0]

	scl := r.tar.Scalar / r.src.Scalar
	rest := r.src.TPose.Joints[src.Index].World.Pos
	offset := r.src.Skel.WorldTransform(src.Index).Pos.Sub(rest).Scale(scl)

	ptran := p.GetWorld(tar.Parent)
	ctran := ptran.Mul(r.tar.TPose.Joints[tar.Index].Local)
	p.SetPos(tar.Index, ptran.ToLocalPos(ctran.Pos.Add(offset)))
}

// ApplySwingTwist returns the parent-local rotation that points the target
// item's swing and twist axes along the given world directions. The joint
// starts from its rest local transform under its parent's current world
// transform in p.
func ApplySwingTwist(tar rig.Item, swing, twist math.Vec3, tpose, p *pose.Pose) math.Quat {
	ptran := p.GetWorld(tar.Parent)
	ctran := ptran.Mul(tpose.Joints[tar.Index].Local)

	rot := math.QuatFromSwing(ctran.Rot.Rotate(tar.Swing), swing).Mul(ctran.Rot)
	rot = rot.PreMul(math.QuatFromSwing(rot.Rotate(tar.Twist), twist))
	return rot.PreMulInvert(ptran.Rot)
}

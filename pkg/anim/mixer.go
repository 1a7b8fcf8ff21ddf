package anim

import (
	"errors"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mesh-retarget/internal/logger"
	"github.com/Faultbox/mesh-retarget/pkg/math"
	"github.com/Faultbox/mesh-retarget/pkg/skeleton"
)

var (
	ErrNoClips      = errors.New("no animation clips")
	ErrClipNotFound = errors.New("animation clip not found")
)

// binding connects a track to the bone it drives.
type binding struct {
	track *Track
	bone  *skeleton.Node
}

// Action is the playback state of one clip on a mixer's skeleton.
type Action struct {
	clip     *Clip
	bindings []binding
	time     float32
	running  bool

	// Loop wraps time at the end of the clip; otherwise the last frame is held.
	Loop bool
	// TimeScale multiplies the delta passed to Mixer.Update.
	TimeScale float32
}

// Play starts or resumes the action.
func (a *Action) Play() *Action {
	a.running = true
	return a
}

// Stop halts the action and rewinds it.
func (a *Action) Stop() *Action {
	a.running = false
	a.time = 0
	return a
}

// IsRunning reports whether the action advances on Update.
func (a *Action) IsRunning() bool {
	return a.running
}

// Time returns the current playback time in seconds.
func (a *Action) Time() float32 {
	return a.time
}

// Clip returns the clip this action plays.
func (a *Action) Clip() *Clip {
	return a.clip
}

func (a *Action) advance(dt float32) {
	t := a.time + dt*a.TimeScale
	if math32.IsNaN(t) || math32.IsInf(t, 0) {
		logger.Named("anim").Warn("ignoring non-finite time step",
			zap.String("clip", a.clip.Name),
			zap.Float32("dt", dt),
			zap.Float32("timeScale", a.TimeScale))
		return
	}

	length := a.clip.Length()
	if length <= 0 {
		a.time = 0
		return
	}

	if a.Loop {
		t = math32.Mod(t, length)
		if t < 0 {
			t += length
		}
		// A tiny negative remainder rounds up to length.
		if t >= length {
			t = 0
		}
		a.time = t
		return
	}

	a.time = min(max(t, 0), length)
}

// apply writes the sampled pose into the bound bones.
func (a *Action) apply() {
	for _, b := range a.bindings {
		if v, ok := SampleVec(b.track.Positions, a.time); ok {
			b.bone.Position = v
		}
		if q, ok := SampleRotation(b.track.Rotations, a.time); ok {
			b.bone.Rotation = q.Normalize()
		}
		if s, ok := SampleVec(b.track.Scales, a.time); ok {
			b.bone.Scale = s
		}
	}
}

// Mixer drives a skeleton's bones from clip actions.
type Mixer struct {
	skel    *skeleton.Skeleton
	actions map[*Clip]*Action
	order   []*Action
}

// NewMixer returns a mixer bound to skel.
func NewMixer(skel *skeleton.Skeleton) *Mixer {
	return &Mixer{skel: skel, actions: make(map[*Clip]*Action)}
}

// ClipAction returns the action for clip, creating it on first use.
// Tracks naming bones the skeleton lacks are dropped with a warning.
func (m *Mixer) ClipAction(clip *Clip) *Action {
	if a, ok := m.actions[clip]; ok {
		return a
	}

	a := &Action{clip: clip, Loop: true, TimeScale: 1}
	for i := range clip.Tracks {
		tr := &clip.Tracks[i]
		bone := m.skel.BoneByName(tr.Bone)
		if bone == nil {
			logger.Named("anim").Warn("track bone not in skeleton",
				zap.String("clip", clip.Name),
				zap.String("bone", tr.Bone))
			continue
		}
		a.bindings = append(a.bindings, binding{track: tr, bone: bone})
	}

	m.actions[clip] = a
	m.order = append(m.order, a)
	return a
}

// Uncache stops and forgets the action for clip.
func (m *Mixer) Uncache(clip *Clip) {
	a, ok := m.actions[clip]
	if !ok {
		return
	}
	a.Stop()
	delete(m.actions, clip)
	for i, o := range m.order {
		if o == a {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Update advances running actions by dt seconds and writes their samples
// into the skeleton. Later actions overwrite earlier ones on shared bones.
func (m *Mixer) Update(dt float32) {
	for _, a := range m.order {
		if !a.running {
			continue
		}
		a.advance(dt)
		a.apply()
	}
}

// PoseAt samples clip at time t onto skel without a mixer. Bones without a
// track keep their current local transform.
func PoseAt(skel *skeleton.Skeleton, clip *Clip, t float32) {
	a := NewMixer(skel).ClipAction(clip)
	a.time = t
	a.apply()
}

// RotationKey is a convenience for building clips in code.
func RotationKey(t float32, q math.Quat) QuatKey {
	return QuatKey{Time: t, Value: q.Array()}
}

// PositionKey is a convenience for building clips in code.
func PositionKey(t float32, v math.Vec3) VecKey {
	return VecKey{Time: t, Value: v.Array()}
}

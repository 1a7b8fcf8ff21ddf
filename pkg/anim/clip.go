// Package anim samples keyframed animation clips onto a skeleton.
package anim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Faultbox/mesh-retarget/internal/fileformat"
	"github.com/Faultbox/mesh-retarget/pkg/math"
)

// VecKey is a position or scale keyframe. Time is in seconds.
type VecKey struct {
	Time  float32    `yaml:"t" toml:"t"`
	Value [3]float32 `yaml:"v" toml:"v"`
}

// QuatKey is a rotation keyframe holding an (x, y, z, w) quaternion.
type QuatKey struct {
	Time  float32    `yaml:"t" toml:"t"`
	Value [4]float32 `yaml:"v" toml:"v"`
}

// Track animates one bone. Keys must be sorted by time.
type Track struct {
	Bone      string    `yaml:"bone" toml:"bone"`
	Positions []VecKey  `yaml:"positions,omitempty" toml:"positions,omitempty"`
	Rotations []QuatKey `yaml:"rotations,omitempty" toml:"rotations,omitempty"`
	Scales    []VecKey  `yaml:"scales,omitempty" toml:"scales,omitempty"`
}

// Clip is a named set of tracks. A zero Duration is derived from the last key.
type Clip struct {
	Name     string  `yaml:"name" toml:"name"`
	Duration float32 `yaml:"duration,omitempty" toml:"duration,omitempty"`
	Tracks   []Track `yaml:"tracks" toml:"tracks"`
}

// Length returns Duration, or the time of the last keyframe when unset.
func (c *Clip) Length() float32 {
	if c.Duration > 0 {
		return c.Duration
	}
	var last float32
	for _, tr := range c.Tracks {
		if n := len(tr.Positions); n > 0 && tr.Positions[n-1].Time > last {
			last = tr.Positions[n-1].Time
		}
		if n := len(tr.Rotations); n > 0 && tr.Rotations[n-1].Time > last {
			last = tr.Rotations[n-1].Time
		}
		if n := len(tr.Scales); n > 0 && tr.Scales[n-1].Time > last {
			last = tr.Scales[n-1].Time
		}
	}
	return last
}

// Clone returns a deep copy of the clip, so it can be prepared for one
// skeleton without touching the loaded original.
func (c *Clip) Clone() *Clip {
	out := &Clip{Name: c.Name, Duration: c.Duration, Tracks: make([]Track, len(c.Tracks))}
	for i, tr := range c.Tracks {
		out.Tracks[i] = Track{
			Bone:      tr.Bone,
			Positions: slices.Clone(tr.Positions),
			Rotations: slices.Clone(tr.Rotations),
			Scales:    slices.Clone(tr.Scales),
		}
	}
	return out
}

// KeepRotations drops every position and scale key except the position keys
// of rootBone, matched case-insensitively. Tracks left without keys are
// removed and the clip keeps its length. An empty rootBone drops all
// positions.
func (c *Clip) KeepRotations(rootBone string) {
	// Dropped keys must not shorten the clip.
	c.Duration = c.Length()

	kept := c.Tracks[:0]
	for _, tr := range c.Tracks {
		if rootBone == "" || !strings.EqualFold(tr.Bone, rootBone) {
			tr.Positions = nil
		}
		tr.Scales = nil
		if len(tr.Positions) == 0 && len(tr.Rotations) == 0 {
			continue
		}
		kept = append(kept, tr)
	}
	clear(c.Tracks[len(kept):])
	c.Tracks = kept
}

// ScalePositions multiplies every position key by f, for clips authored
// against a skeleton that has since been rescaled.
func (c *Clip) ScalePositions(f float32) {
	for i := range c.Tracks {
		keys := c.Tracks[i].Positions
		for k := range keys {
			for j := range keys[k].Value {
				keys[k].Value[j] *= f
			}
		}
	}
}

// surrounding finds the keyframes around t. prev == next when t is before
// the first key or at or past the last one.
func surrounding(n int, timeAt func(int) float32, t float32) (prev, next int) {
	for i := 0; i < n; i++ {
		if timeAt(i) > t {
			next = i
			break
		}
		prev = i
		next = i
	}
	return prev, next
}

// SampleRotation interpolates rotation keyframes at time t.
// It reports false when there are no keys.
func SampleRotation(keys []QuatKey, t float32) (math.Quat, bool) {
	if len(keys) == 0 {
		return math.QuatIdentity(), false
	}

	prev, next := surrounding(len(keys), func(i int) float32 { return keys[i].Time }, t)
	q0 := math.QuatFromArray(keys[prev].Value)
	if prev == next {
		return q0, true
	}

	k0, k1 := keys[prev], keys[next]
	f := float32(0)
	if k1.Time != k0.Time {
		f = (t - k0.Time) / (k1.Time - k0.Time)
	}
	return q0.Slerp(math.QuatFromArray(k1.Value), f), true
}

// SampleVec interpolates position or scale keyframes at time t.
// It reports false when there are no keys.
func SampleVec(keys []VecKey, t float32) (math.Vec3, bool) {
	if len(keys) == 0 {
		return math.Vec3{}, false
	}

	prev, next := surrounding(len(keys), func(i int) float32 { return keys[i].Time }, t)
	v0 := math.Vec3FromArray(keys[prev].Value)
	if prev == next {
		return v0, true
	}

	k0, k1 := keys[prev], keys[next]
	f := float32(0)
	if k1.Time != k0.Time {
		f = (t - k0.Time) / (k1.Time - k0.Time)
	}
	return v0.Lerp(math.Vec3FromArray(k1.Value), f), true
}

// clipFile is the part of a scene description that holds clips.
type clipFile struct {
	Clips []*Clip `yaml:"clips" toml:"clips"`
}

// LoadClips reads the clips section of a YAML or TOML scene file.
func LoadClips(path string) ([]*Clip, error) {
	var f clipFile
	if err := fileformat.DecodeFile(path, &f); err != nil {
		return nil, err
	}
	return f.Clips, nil
}

// FindClip returns the clip with the given name. An empty name selects the first clip.
func FindClip(clips []*Clip, name string) (*Clip, error) {
	if len(clips) == 0 {
		return nil, ErrNoClips
	}
	if name == "" {
		return clips[0], nil
	}
	for _, c := range clips {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrClipNotFound, name)
}

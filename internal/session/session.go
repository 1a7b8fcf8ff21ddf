// Package session loads a retarget job from configuration and plays it
// frame by frame.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mesh-retarget/internal/config"
	"github.com/Faultbox/mesh-retarget/internal/logger"
	"github.com/Faultbox/mesh-retarget/pkg/anim"
	"github.com/Faultbox/mesh-retarget/pkg/retarget"
	"github.com/Faultbox/mesh-retarget/pkg/rig"
	"github.com/Faultbox/mesh-retarget/pkg/skeleton"
)

// ErrMissingJoint reports a configured joint the skeleton does not have.
var ErrMissingJoint = errors.New("configured joint not in skeleton")

// Session is a loaded source rig, target rig and clip.
type Session struct {
	cfg     *config.Config
	mapping *rig.Mapping
	src     *rig.Rig
	tar     *rig.Rig
	clip    *anim.Clip
	rt      *retarget.Retargeter
}

// LoadRig loads a skeleton description and builds the chains named in cfg.
func LoadRig(path string, cfg rig.Config) (*rig.Rig, error) {
	skel, err := skeleton.Load(path)
	if err != nil {
		return nil, err
	}
	return rig.New(skel).FromConfig(cfg), nil
}

// New loads every file the configuration names.
func New(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("session")
	log.Info("loading session",
		zap.String("source", cfg.Retarget.Source),
		zap.String("target", cfg.Retarget.Target),
		zap.String("chains", cfg.Retarget.Chains))

	s := &Session{cfg: cfg}

	var err error
	s.mapping, err = rig.LoadMapping(cfg.Retarget.Chains)
	if err != nil {
		return nil, fmt.Errorf("failed to load chains: %w", err)
	}

	s.src, err = LoadRig(cfg.Retarget.Source, s.mapping.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load source rig: %w", err)
	}
	s.tar, err = LoadRig(cfg.Retarget.Target, s.mapping.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to load target rig: %w", err)
	}

	clips, err := anim.LoadClips(cfg.Retarget.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load clips: %w", err)
	}
	clip, err := anim.FindClip(clips, cfg.Retarget.Clip)
	if err != nil {
		return nil, fmt.Errorf("clip %q: %w", cfg.Retarget.Clip, err)
	}
	s.clip = s.prepareClip(clip)

	s.rt = retarget.New().SetSourceRig(s.src).SetTargetRig(s.tar).SetClip(s.clip)
	for _, a := range cfg.Retarget.Additives {
		s.rt.AddAdditive(retarget.ChainTwistAdditive{
			Chain: a.Chain,
			Angle: a.Degrees * math32.Pi / 180,
		})
	}

	log.Info("session loaded",
		zap.String("clip", s.clip.Name),
		zap.Float32("length", s.clip.Length()),
		zap.Float32("source_scalar", s.src.Scalar),
		zap.Float32("target_scalar", s.tar.Scalar))
	return s, nil
}

// prepareClip copies clip and applies the configured key filtering and
// position scaling to the copy.
func (s *Session) prepareClip(clip *anim.Clip) *anim.Clip {
	rc := s.cfg.Retarget
	out := clip.Clone()

	if rc.RotationsOnly {
		root := rc.RootBone
		if root == "" {
			if names := s.mapping.Source[rig.Pelvis].Names; len(names) > 0 {
				root = names[0]
			}
		}
		out.KeepRotations(root)
		logger.Named("session").Debug("dropped non-rotation keys",
			zap.String("clip", out.Name),
			zap.String("root", root),
			zap.Int("tracks", len(out.Tracks)))
	}
	if rc.PositionScale != 1 {
		out.ScalePositions(rc.PositionScale)
	}
	return out
}

// Source returns the source rig.
func (s *Session) Source() *rig.Rig { return s.src }

// Target returns the target rig.
func (s *Session) Target() *rig.Rig { return s.tar }

// Clip returns the clip being played.
func (s *Session) Clip() *anim.Clip { return s.clip }

// Retargeter returns the configured retargeter.
func (s *Session) Retargeter() *retarget.Retargeter { return s.rt }

// Validate reports chain length mismatches and configured joints that
// neither skeleton resolved.
func (s *Session) Validate() error {
	errs := []error{s.rt.Validate()}
	errs = append(errs, missingJoints("source", s.mapping.Source, s.src)...)
	errs = append(errs, missingJoints("target", s.mapping.Target, s.tar)...)
	return errors.Join(errs...)
}

func missingJoints(side string, cfg rig.Config, r *rig.Rig) []error {
	var errs []error
	for _, name := range r.ChainNames() {
		ch, _ := r.Chain(name)
		for _, joint := range cfg[name].Names {
			if !resolved(r, ch, joint) {
				errs = append(errs, fmt.Errorf("%w: %s %s %q", ErrMissingJoint, side, name, joint))
			}
		}
	}
	return errs
}

func resolved(r *rig.Rig, ch []rig.Item, joint string) bool {
	for _, itm := range ch {
		if r.JointName(itm.Index) == joint {
			return true
		}
	}
	return false
}

// FrameCount returns the configured number of frames, or enough frames to
// cover the clip once including both ends.
func (s *Session) FrameCount() int {
	if s.cfg.Playback.Frames > 0 {
		return s.cfg.Playback.Frames
	}
	return int(math32.Round(s.clip.Length()*float32(s.cfg.Playback.FPS))) + 1
}

// RunOptions select what each frame reports.
type RunOptions struct {
	// Matrices adds every target bone's world and skin matrix.
	Matrices bool
}

// Run plays FrameCount frames at the configured rate and writes one YAML
// document per frame to w.
func (s *Session) Run(w io.Writer, opts RunOptions) error {
	log := logger.Named("session")
	enc := yaml.NewEncoder(w)

	dt := 1 / float32(s.cfg.Playback.FPS)
	frames := s.FrameCount()
	log.Debug("starting playback", zap.Int("frames", frames), zap.Float32("dt", dt))

	for i := 0; i < frames; i++ {
		step := dt
		if i == 0 {
			// Frame 0 samples the first key.
			step = 0
		}
		s.rt.Update(step)
		if i == 0 {
			s.configureAction()
		}

		if err := enc.Encode(s.frame(i, opts)); err != nil {
			_ = enc.Close()
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing frames: %w", err)
	}

	log.Info("playback finished", zap.Int("frames", frames))
	return nil
}

func (s *Session) configureAction() {
	a := s.rt.Action()
	if a == nil {
		return
	}
	a.Loop = s.cfg.Playback.Loop
	a.TimeScale = s.cfg.Playback.TimeScale
}

// Frame is one sampled target pose.
type Frame struct {
	Index    int                    `yaml:"frame"`
	Time     float32                `yaml:"time"`
	Pelvis   [3]float32             `yaml:"pelvis,flow"`
	Joints   []JointFrame           `yaml:"joints"`
	Matrices map[string][16]float32 `yaml:"matrices,omitempty"`
	Skin     map[string][16]float32 `yaml:"skin,omitempty"`
}

// JointFrame is a chain joint's local rotation.
type JointFrame struct {
	Chain    string     `yaml:"chain"`
	Name     string     `yaml:"name"`
	Rotation [4]float32 `yaml:"rotation,flow"`
}

func (s *Session) frame(i int, opts RunOptions) Frame {
	f := Frame{Index: i}
	if a := s.rt.Action(); a != nil {
		f.Time = a.Time()
	}

	p := s.rt.Pose()
	if pelvis, ok := s.tar.Chain(rig.Pelvis); ok && len(pelvis) > 0 {
		f.Pelvis = p.Joints[pelvis[0].Index].Local.Pos.Array()
	}

	for _, name := range s.tar.ChainNames() {
		ch, _ := s.tar.Chain(name)
		for _, itm := range ch {
			f.Joints = append(f.Joints, JointFrame{
				Chain:    name,
				Name:     s.tar.JointName(itm.Index),
				Rotation: p.Joints[itm.Index].Local.Rot.Array(),
			})
		}
	}

	if opts.Matrices {
		skel := s.tar.Skel
		f.Matrices = make(map[string][16]float32, skel.Len())
		for j, m := range skel.WorldMatrices() {
			f.Matrices[skel.Bones[j].Name] = m
		}
		f.Skin = make(map[string][16]float32, skel.Len())
		for j, m := range skel.SkinMatrices() {
			f.Skin[skel.Bones[j].Name] = m
		}
	}
	return f
}

// DescribeRig writes a rig's resolved chains and scalar.
func DescribeRig(w io.Writer, r *rig.Rig) {
	fmt.Fprintf(w, "Skeleton: %s\n", r.Skel.Name)
	fmt.Fprintf(w, "Bones:    %d\n", r.Skel.Len())
	fmt.Fprintf(w, "Scalar:   %.4f\n", r.Scalar)
	fmt.Fprintln(w)
	for _, name := range r.ChainNames() {
		ch, _ := r.Chain(name)
		fmt.Fprintf(w, "%-6s (%d)\n", name, len(ch))
		for _, itm := range ch {
			fmt.Fprintf(w, "  %-20s swing %6.3f %6.3f %6.3f  twist %6.3f %6.3f %6.3f\n",
				r.JointName(itm.Index),
				itm.Swing.X, itm.Swing.Y, itm.Swing.Z,
				itm.Twist.X, itm.Twist.Y, itm.Twist.Z)
		}
	}
}

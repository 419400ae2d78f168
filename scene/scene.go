// Package scene is the Scene API named in spec.md §4.8: the
// read-only surface renderer and physics collaborators query, plus the
// narrow mutation entry points and the per-frame pipeline driver that
// sequences reset-baseline, apply-morphs and update-bones in the order
// §4's state-machine note requires. A Scene wraps exactly one Model
// and is single-writer/multi-reader per §5: concurrent readers calling
// accessor methods are safe, but Advance must not overlap with any
// other call on the same Scene.
package scene

import (
	"github.com/CryptorGit/MiniMikuDanceMobile/bone"
	"github.com/CryptorGit/MiniMikuDanceMobile/config"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
	"github.com/CryptorGit/MiniMikuDanceMobile/morph"
)

// Scene owns exactly one Model and drives its per-frame pipeline.
type Scene struct {
	m    *model.Model
	opts *config.Options
}

// New wraps m as a Scene. opts is consulted by Advance for the IK
// iteration hint; it may be nil.
func New(m *model.Model, opts *config.Options) *Scene {
	return &Scene{m: m, opts: opts}
}

// Model returns the Scene's underlying Model, for collaborators (the
// PMX loader's result, or renderer/physics code) that need direct
// access beyond this package's accessor surface.
func (s *Scene) Model() *model.Model { return s.m }

// Advance runs exactly one pass of the three-stage per-frame pipeline:
// reset-baseline, apply-morphs, update-bones (including IK). External
// motion-sampler output must already have been written into the
// Model's persisted pose (SetMorphWeight / SetBoneLocalTranslation /
// SetBoneLocalOrientation) before calling Advance.
func (s *Scene) Advance() error {
	s.m.ResetBaseline()
	if err := morph.Apply(s.m, s.opts); err != nil {
		return err
	}
	bone.Update(s.m, s.opts)
	return nil
}

// Counts mirror Model's, exposed so renderer/physics code never needs
// to reach past the Scene for a simple entity count.
func (s *Scene) VertexCount() int      { return s.m.VertexCount() }
func (s *Scene) MaterialCount() int    { return s.m.MaterialCount() }
func (s *Scene) BoneCount() int        { return s.m.BoneCount() }
func (s *Scene) MorphCount() int       { return s.m.MorphCount() }
func (s *Scene) TextureCount() int     { return s.m.TextureCount() }
func (s *Scene) RigidBodyCount() int   { return s.m.RigidBodyCount() }
func (s *Scene) JointCount() int       { return s.m.JointCount() }

// Vertex, Material, Bone, Morph, Texture, RigidBody return the i-th
// entity, or (nil, false) if i is out of range. These simply forward
// to the Model; the Scene adds no further resolution logic, matching
// §4.8's description of the Scene API as a thin accessor wrapper.
func (s *Scene) Vertex(i int32) (*model.Vertex, bool)       { return s.m.Vertex(i) }
func (s *Scene) Material(i int32) (*model.Material, bool)   { return s.m.Material(i) }
func (s *Scene) Bone(i int32) (*model.Bone, bool)           { return s.m.Bone(i) }
func (s *Scene) Morph(i int32) (*model.Morph, bool)         { return s.m.Morph(i) }
func (s *Scene) Texture(i int32) (*model.Texture, bool)     { return s.m.Texture(i) }
func (s *Scene) RigidBody(i int32) (*model.RigidBody, bool) { return s.m.RigidBody(i) }

// BoneName and MorphName resolve the i-th entity's name in the
// requested language, or ("", false) if i is out of range.
func (s *Scene) BoneName(i int32, lang model.Language) (string, bool) {
	return s.m.BoneName(i, lang)
}
func (s *Scene) MorphName(i int32, lang model.Language) (string, bool) {
	return s.m.MorphName(i, lang)
}

// BoneWorldTransform returns the i-th bone's resolved world transform,
// valid only after at least one Advance call.
func (s *Scene) BoneWorldTransform(i int32) (*lin.T, bool) {
	return s.m.BoneWorldTransform(i)
}

// SetMorphWeight, SetBoneLocalTranslation and SetBoneLocalOrientation
// are the three mutation entry points named in spec.md §4.4 available
// to an external motion sampler driving this Scene. They write into
// the Model's persisted baseline, consumed by the next Advance's
// reset-baseline stage.
func (s *Scene) SetMorphWeight(i int32, w float32) { s.m.SetMorphWeight(i, w) }
func (s *Scene) SetBoneLocalTranslation(i int32, t lin.V3) {
	s.m.SetBoneLocalTranslation(i, t)
}
func (s *Scene) SetBoneLocalOrientation(i int32, q lin.Q) {
	s.m.SetBoneLocalOrientation(i, q)
}

// Destroy releases the underlying Model. The Scene must not be used
// afterward.
func (s *Scene) Destroy() { s.m.Destroy() }

// Package model defines the in-memory PMX object graph: flat arrays
// of entities owned exclusively by a Model, cross-referencing each
// other by index rather than by pointer. This keeps the in-memory
// layout isomorphic to the on-wire layout and avoids reference cycles
// entirely (see the design notes on a cyclic model graph without
// cycles in ownership).
//
// Every accessor that takes an index returns ("none", false) for a
// negative index or an index at or beyond the array's length; it never
// panics and never raises on bad input. Mutation is restricted to the
// handful of operations named below; everything else is read-only.
package model

import (
	"fmt"

	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/text"
)

// NoIndex is the widened "none" sentinel every stored cross-reference
// resolves to once the PMX loader has translated the on-wire,
// width-dependent bit pattern (see the cursor package).
const NoIndex int32 = -1

// IndexWidths records the five per-kind index byte widths declared in
// the PMX header's globals block, plus the vertex width. Vertex
// indices are unsigned; the rest are signed.
type IndexWidths struct {
	Vertex     int
	Texture    int
	Material   int
	Bone       int
	Morph      int
	RigidBody  int
}

// Header carries the fixed PMX preamble fields.
type Header struct {
	Version           float32
	Codec             text.Codec
	AdditionalUVCount int
	Widths            IndexWidths
	NameJP, NameEN       string
	CommentJP, CommentEN string
}

// Language selects which of a bilingual name pair an accessor returns.
type Language int

const (
	Japanese Language = iota
	English
)

// SkinningKind is the per-vertex weighting scheme recorded in PMX.
type SkinningKind uint8

const (
	BDEF1 SkinningKind = iota
	BDEF2
	BDEF4
	SDEF
	QDEF
)

// Vertex is a deformable point; Position/Normal/UV/AdditionalUV are
// mutated in place by the morph pipeline each frame and restored from
// the loader-produced baseline by ResetBaseline.
type Vertex struct {
	Position     lin.V3
	Normal       lin.V3
	UV           [2]float64
	AdditionalUV [4][4]float64 // UV1..UV4, each a 4D offset channel.

	Skinning    SkinningKind
	BoneIndices [4]int32
	Weights     [4]float32
	// SDEF-only auxiliary data (center, r0, r1); zero for other kinds.
	SDEFC, SDEFR0, SDEFR1 lin.V3

	EdgeScale float64
}

// Texture is a path string decoded in the Model's codec.
type Texture struct {
	Path string
}

// SphereMode selects how a material's sphere-map texture is applied.
type SphereMode uint8

const (
	SphereDisabled SphereMode = iota
	SphereMultiply
	SphereAdd
	SphereSubTexture
)

// ToonKind selects whether a material's toon reference is one of ten
// shared built-in toons or a per-material texture index.
type ToonKind uint8

const (
	ToonShared ToonKind = iota
	ToonTexture
)

// Material is mutated in place by the morph pipeline (add/multiply)
// and restored from baseline by ResetBaseline.
type Material struct {
	NameJP, NameEN string

	Diffuse  [4]float64 // r, g, b, a
	Specular lin.V3
	SpecularPower float64
	Ambient       lin.V3

	EdgeColor [4]float64
	EdgeSize  float64

	Flags uint8

	DiffuseTextureIndex int32
	SphereTextureIndex  int32
	SphereMode          SphereMode
	ToonKind            ToonKind
	ToonIndex           int32 // shared toon id (0-9) or per-material texture index.

	VertexCount int32 // span length within the shared index buffer.
}

// Joint is a single IK chain link: the bone that rotates, with an
// optional per-axis Euler angle bound.
type Joint struct {
	BoneIndex int32
	HasLimit  bool
	Lower     lin.V3
	Upper     lin.V3
}

// Constraint is a bone's IK directive: rotate every bone in Joints so
// that EffectorIndex approaches the position of the bone that owns
// this Constraint (the "target" in IK terminology).
type Constraint struct {
	EffectorIndex           int32
	IterationCount          uint32
	AngleLimitPerIteration  float64
	Joints                  []Joint
}

// BoneFlags is the bit-for-bit decode of the PMX bone flag word.
type BoneFlags struct {
	ConnectedDestination bool // bit 0: destination is a bone, not a vector.
	Rotateable           bool // bit 1
	Movable              bool // bit 2
	Visible              bool // bit 3
	UserHandleable       bool // bit 4
	HasConstraint        bool // bit 5
	InherentRotation     bool // bit 8
	InherentTranslation  bool // bit 9
	FixedAxis            bool // bit 10
	LocalAxes            bool // bit 11
	PhysicsAfterTransform bool // bit 12
	ExternalParent       bool // bit 13
}

// Bone carries both the static attributes the loader produced and the
// per-frame derived working state the bone-update and morph stages
// mutate. BaseLocalTranslation/BaseLocalRotation are the "persisted"
// pose set by setBoneLocalTranslation/setBoneLocalOrientation (the
// external motion sampler's per-frame output, or identity for a
// freshly loaded Model); LocalTranslation/LocalRotation are the
// working copy the morph pipeline adds onto after ResetBaseline copies
// the persisted pose forward; WorldTransform is written only by the
// bone-update stage.
type Bone struct {
	NameJP, NameEN string

	Origin      lin.V3
	ParentIndex int32
	StageIndex  int32

	DestinationIsBone    bool
	DestinationBoneIndex int32
	DestinationOffset    lin.V3

	Flags BoneFlags

	InherentParentIndex int32
	InherentCoefficient float64

	FixedAxis  lin.V3
	LocalXAxis lin.V3
	LocalZAxis lin.V3

	ExternalParentIndex int32

	Constraint *Constraint

	// Persisted per-frame pose (see doc comment above).
	BaseLocalTranslation lin.V3
	BaseLocalRotation    lin.Q

	// Working state, mutated by the morph and bone-update stages.
	LocalTranslation lin.V3
	LocalRotation    lin.Q

	// WorldLoc/WorldRot are written only by the bone-update stage (via
	// SetBoneWorldTransform); stored as plain values rather than a
	// *lin.T so each bone owns independent, non-aliased storage.
	WorldLoc lin.V3
	WorldRot lin.Q
}

// MorphKind tags which payload slice on a Morph is populated.
type MorphKind uint8

const (
	MorphGroup MorphKind = iota
	MorphVertex
	MorphBone
	MorphUV
	MorphUV1
	MorphUV2
	MorphUV3
	MorphUV4
	MorphMaterial
	MorphFlip
	MorphImpulse
)

// MorphCategory is the PMX UI grouping for a morph; it has no effect
// on deformation.
type MorphCategory uint8

const (
	CategorySystem MorphCategory = iota
	CategoryEyebrow
	CategoryEye
	CategoryLip
	CategoryOther
)

// MaterialMorphOp selects whether a material morph item adds to or
// multiplies a field.
type MaterialMorphOp uint8

const (
	MaterialAdd MaterialMorphOp = iota
	MaterialMultiply
)

// VertexMorphItem adds Offset to the targeted vertex's position.
type VertexMorphItem struct {
	VertexIndex int32
	Offset      lin.V3
}

// UVMorphItem adds a 4D Offset to a UV channel; which channel is
// determined by the owning Morph's Kind (MorphUV uses the primary
// UV's first two components, MorphUV1..MorphUV4 use AdditionalUV[0..3]).
type UVMorphItem struct {
	VertexIndex int32
	Offset      [4]float64
}

// BoneMorphItem blends a translation and orientation offset onto a bone.
type BoneMorphItem struct {
	BoneIndex   int32
	Translation lin.V3
	Orientation lin.Q
}

// MaterialMorphItem mutates one material's color/scalar fields, or
// every material when MaterialIndex is NoIndex.
type MaterialMorphItem struct {
	MaterialIndex int32
	Op            MaterialMorphOp
	Diffuse       [4]float64
	Specular      lin.V3
	SpecularPower float64
	Ambient       lin.V3
	EdgeColor     [4]float64
	EdgeSize      float64
}

// GroupMorphItem contributes weight*TargetWeight of another morph's
// effect; recursive application must be cycle-checked.
type GroupMorphItem struct {
	MorphIndex  int32
	TargetWeight float64
}

// FlipMorphItem is a group-morph variant where exactly one child is
// selected per frame based on where the owning morph's weight falls
// in the cumulative partition of child TargetWeights.
type FlipMorphItem struct {
	MorphIndex   int32
	TargetWeight float64
}

// ImpulseMorphItem pushes a pending impulse onto a rigid body for the
// physics collaborator to consume; the core never integrates it.
type ImpulseMorphItem struct {
	RigidBodyIndex int32
	Local          bool
	Velocity       lin.V3
	Torque         lin.V3
}

// Morph is a named deformation target. Exactly one of the payload
// slices below is populated, selected by Kind; the others are nil.
// Callers use the per-kind accessor methods below rather than reading
// the fields directly, matching the tagged-union access pattern.
type Morph struct {
	NameJP, NameEN string
	Category       MorphCategory
	Kind           MorphKind

	VertexPayload   []VertexMorphItem
	UVPayload       []UVMorphItem
	BonePayload     []BoneMorphItem
	MaterialPayload []MaterialMorphItem
	GroupPayload    []GroupMorphItem
	FlipPayload     []FlipMorphItem
	ImpulsePayload  []ImpulseMorphItem
}

// VertexItems returns the vertex payload if Kind is MorphVertex, else nil.
func (m *Morph) VertexItems() []VertexMorphItem {
	if m.Kind != MorphVertex {
		return nil
	}
	return m.VertexPayload
}

// UVItems returns the UV payload if Kind is one of the UV kinds, else nil.
func (m *Morph) UVItems() []UVMorphItem {
	switch m.Kind {
	case MorphUV, MorphUV1, MorphUV2, MorphUV3, MorphUV4:
		return m.UVPayload
	default:
		return nil
	}
}

// BoneItems returns the bone payload if Kind is MorphBone, else nil.
func (m *Morph) BoneItems() []BoneMorphItem {
	if m.Kind != MorphBone {
		return nil
	}
	return m.BonePayload
}

// MaterialItems returns the material payload if Kind is MorphMaterial, else nil.
func (m *Morph) MaterialItems() []MaterialMorphItem {
	if m.Kind != MorphMaterial {
		return nil
	}
	return m.MaterialPayload
}

// GroupItems returns the group payload if Kind is MorphGroup, else nil.
func (m *Morph) GroupItems() []GroupMorphItem {
	if m.Kind != MorphGroup {
		return nil
	}
	return m.GroupPayload
}

// FlipItems returns the flip payload if Kind is MorphFlip, else nil.
func (m *Morph) FlipItems() []FlipMorphItem {
	if m.Kind != MorphFlip {
		return nil
	}
	return m.FlipPayload
}

// ImpulseItems returns the impulse payload if Kind is MorphImpulse, else nil.
func (m *Morph) ImpulseItems() []ImpulseMorphItem {
	if m.Kind != MorphImpulse {
		return nil
	}
	return m.ImpulsePayload
}

// DisplayFrameItemKind selects whether a display frame entry points at
// a bone or a morph.
type DisplayFrameItemKind uint8

const (
	DisplayFrameBone DisplayFrameItemKind = iota
	DisplayFrameMorph
)

// DisplayFrameItem is one row in an animation-tool panel grouping.
type DisplayFrameItem struct {
	Kind  DisplayFrameItemKind
	Index int32
}

// DisplayFrame is a named, ordered grouping of bone/morph references;
// it has no effect on deformation (§1.3 of the expanded specification).
type DisplayFrame struct {
	NameJP, NameEN string
	Special        bool
	Items          []DisplayFrameItem
}

// ShapeKind is the rigid-body collision primitive, a descriptor only:
// the core never performs collision detection.
type ShapeKind uint8

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapeCapsule
)

// RigidBodyTransformKind selects how a rigid body's transform is
// sourced: from the bone (kinematic), from the simulation (dynamic),
// or from the simulation while keeping the bone's own orientation.
type RigidBodyTransformKind uint8

const (
	FromBone RigidBodyTransformKind = iota
	FromSimulation
	FromSimulationWithBoneOrientation
)

// RigidBody is a descriptor published to the physics collaborator; the
// core never integrates it.
type RigidBody struct {
	NameJP, NameEN string
	BoneIndex      int32
	CollisionGroup uint8
	CollisionMask  uint16
	Shape          ShapeKind
	ShapeSize      lin.V3
	Origin         lin.V3
	OrientationEuler lin.V3
	Mass           float64
	LinearDamping  float64
	AngularDamping float64
	Restitution    float64
	Friction       float64
	Transform      RigidBodyTransformKind

	// PendingImpulses accumulates impulse-morph contributions for the
	// physics collaborator to drain each frame; the core never
	// integrates these itself.
	PendingImpulses []PendingImpulse
}

// PendingImpulse is one queued impulse-morph contribution, scaled by
// its morph's weight at the time it was applied.
type PendingImpulse struct {
	Local    bool
	Velocity lin.V3
	Torque   lin.V3
}

// PhysicsJointKind selects the PMX 2.1 joint variant; PMX 2.0 only has
// Spring6DOF.
type PhysicsJointKind uint8

const (
	JointSpring6DOF PhysicsJointKind = iota
	JointBall
	JointHinge
	JointSlider
)

// PhysicsJoint is a descriptor linking two rigid bodies, published to
// the physics collaborator; the core never integrates it.
type PhysicsJoint struct {
	NameJP, NameEN string
	Kind           PhysicsJointKind
	BodyAIndex     int32
	BodyBIndex     int32
	Origin         lin.V3
	OrientationEuler lin.V3
	LinearLowerLimit, LinearUpperLimit   lin.V3
	AngularLowerLimit, AngularUpperLimit lin.V3
	LinearStiffness, AngularStiffness    lin.V3
}

// Model owns every entity and string exclusively. Entities hold only
// indices to each other; nothing outside Model holds a reference back
// into it once construction completes.
type Model struct {
	Header Header

	Vertices      []Vertex
	vertexBaseline []Vertex

	IndexBuffer []uint32

	Textures []Texture

	Materials      []Material
	materialBaseline []Material

	Bones []Bone

	Morphs       []Morph
	morphWeights []float32

	DisplayFrames []DisplayFrame
	RigidBodies   []RigidBody
	Joints        []PhysicsJoint
}

// New returns an empty Model with the given header; the PMX loader
// populates the entity arrays and baselines after construction.
func New(h Header) *Model {
	return &Model{Header: h}
}

// --- counts ---

func (m *Model) VertexCount() int       { return len(m.Vertices) }
func (m *Model) MaterialCount() int     { return len(m.Materials) }
func (m *Model) BoneCount() int         { return len(m.Bones) }
func (m *Model) MorphCount() int        { return len(m.Morphs) }
func (m *Model) TextureCount() int      { return len(m.Textures) }
func (m *Model) DisplayFrameCount() int { return len(m.DisplayFrames) }
func (m *Model) RigidBodyCount() int    { return len(m.RigidBodies) }
func (m *Model) JointCount() int        { return len(m.Joints) }

// --- read accessors: "none" for i < 0 || i >= count() ---

// Vertex returns the i-th vertex, or (nil, false) if i is out of range.
func (m *Model) Vertex(i int32) (*Vertex, bool) {
	if i < 0 || int(i) >= len(m.Vertices) {
		return nil, false
	}
	return &m.Vertices[i], true
}

// Material returns the i-th material, or (nil, false) if i is out of range.
func (m *Model) Material(i int32) (*Material, bool) {
	if i < 0 || int(i) >= len(m.Materials) {
		return nil, false
	}
	return &m.Materials[i], true
}

// Bone returns the i-th bone, or (nil, false) if i is out of range.
func (m *Model) Bone(i int32) (*Bone, bool) {
	if i < 0 || int(i) >= len(m.Bones) {
		return nil, false
	}
	return &m.Bones[i], true
}

// Morph returns the i-th morph, or (nil, false) if i is out of range.
func (m *Model) Morph(i int32) (*Morph, bool) {
	if i < 0 || int(i) >= len(m.Morphs) {
		return nil, false
	}
	return &m.Morphs[i], true
}

// Texture returns the i-th texture, or (nil, false) if i is out of range.
func (m *Model) Texture(i int32) (*Texture, bool) {
	if i < 0 || int(i) >= len(m.Textures) {
		return nil, false
	}
	return &m.Textures[i], true
}

// RigidBody returns the i-th rigid body, or (nil, false) if out of range.
func (m *Model) RigidBody(i int32) (*RigidBody, bool) {
	if i < 0 || int(i) >= len(m.RigidBodies) {
		return nil, false
	}
	return &m.RigidBodies[i], true
}

// MorphWeight returns the current weight of the i-th morph, or 0 if
// i is out of range.
func (m *Model) MorphWeight(i int32) float32 {
	if i < 0 || int(i) >= len(m.morphWeights) {
		return 0
	}
	return m.morphWeights[i]
}

// BoneName returns the bone's name in the requested language, or
// ("", false) if the bone index is out of range.
func (m *Model) BoneName(i int32, lang Language) (string, bool) {
	b, ok := m.Bone(i)
	if !ok {
		return "", false
	}
	if lang == English {
		return b.NameEN, true
	}
	return b.NameJP, true
}

// MorphName returns the morph's name in the requested language, or
// ("", false) if the morph index is out of range.
func (m *Model) MorphName(i int32, lang Language) (string, bool) {
	mo, ok := m.Morph(i)
	if !ok {
		return "", false
	}
	if lang == English {
		return mo.NameEN, true
	}
	return mo.NameJP, true
}

// --- mutation surface (§4.4) ---

// SetMorphWeight sets the i-th morph's current weight. Out-of-range
// indices are a no-op, matching the accessor-never-raises contract.
func (m *Model) SetMorphWeight(i int32, w float32) {
	if i < 0 || int(i) >= len(m.morphWeights) {
		return
	}
	m.morphWeights[i] = w
}

// SetBoneLocalTranslation stores the persisted per-frame translation
// for the i-th bone, consumed by the next ResetBaseline call.
func (m *Model) SetBoneLocalTranslation(i int32, t lin.V3) {
	b, ok := m.Bone(i)
	if !ok {
		return
	}
	b.BaseLocalTranslation = t
}

// SetBoneLocalOrientation stores the persisted per-frame orientation
// for the i-th bone, consumed by the next ResetBaseline call.
func (m *Model) SetBoneLocalOrientation(i int32, q lin.Q) {
	b, ok := m.Bone(i)
	if !ok {
		return
	}
	b.BaseLocalRotation = q
}

// SetBoneWorldTransform stores the resolved world transform for the
// i-th bone. Only the bone-update stage (and the IK solver it invokes)
// should call this. t's Loc/Rot are copied by value; Model never
// retains t itself.
func (m *Model) SetBoneWorldTransform(i int32, t *lin.T) {
	b, ok := m.Bone(i)
	if !ok {
		return
	}
	b.WorldLoc = *t.Loc
	b.WorldRot = *t.Rot
}

// BoneWorldTransform returns a freshly allocated *lin.T carrying the
// i-th bone's resolved world transform, or (nil, false) if i is out of
// range.
func (m *Model) BoneWorldTransform(i int32) (*lin.T, bool) {
	b, ok := m.Bone(i)
	if !ok {
		return nil, false
	}
	t := lin.NewT()
	t.SetVQ(&b.WorldLoc, &b.WorldRot)
	return t, true
}

// ResetBaseline resets every deformable field to its persisted
// baseline: vertex position/UV and material colors to what the loader
// produced, and each bone's working local pose to its persisted
// per-frame pose (identity until a caller calls
// SetBoneLocalTranslation/Orientation). This is stage 1 of the
// per-frame pipeline and must run before ApplyMorphs.
func (m *Model) ResetBaseline() {
	copy(m.Vertices, m.vertexBaseline)
	copy(m.Materials, m.materialBaseline)
	for i := range m.Bones {
		m.Bones[i].LocalTranslation = m.Bones[i].BaseLocalTranslation
		m.Bones[i].LocalRotation = m.Bones[i].BaseLocalRotation
	}
	for i := range m.RigidBodies {
		m.RigidBodies[i].PendingImpulses = m.RigidBodies[i].PendingImpulses[:0]
	}
}

// InitBaselines is called once by the loader after every section has
// been parsed and validated: it captures the just-loaded vertex and
// material state as the persisted baseline, sizes the morph-weight
// table, and sets every bone's persisted local pose to identity.
func (m *Model) InitBaselines() {
	m.vertexBaseline = make([]Vertex, len(m.Vertices))
	copy(m.vertexBaseline, m.Vertices)
	m.materialBaseline = make([]Material, len(m.Materials))
	copy(m.materialBaseline, m.Materials)
	m.morphWeights = make([]float32, len(m.Morphs))
	for i := range m.Bones {
		m.Bones[i].BaseLocalRotation = lin.Q{W: 1}
		m.Bones[i].LocalRotation = lin.Q{W: 1}
	}
}

// Validate checks that every stored cross-reference is either "none"
// or within its target array's length, per §4.3's post-load pass.
// Called once by the loader; exported so tooling that hand-builds or
// edits a Model can re-validate it.
func (m *Model) Validate() error {
	inRange := func(i int32, n int) bool { return i == NoIndex || (i >= 0 && int(i) < n) }

	for vi := range m.Vertices {
		v := &m.Vertices[vi]
		bones := 1
		switch v.Skinning {
		case BDEF2, SDEF:
			bones = 2
		case BDEF4, QDEF:
			bones = 4
		}
		for k := 0; k < bones; k++ {
			if !inRange(v.BoneIndices[k], len(m.Bones)) {
				return fmt.Errorf("model: vertex %d bone index %d: %w", vi, v.BoneIndices[k], errs.DanglingReference)
			}
		}
	}
	for mi := range m.Materials {
		mt := &m.Materials[mi]
		if !inRange(mt.DiffuseTextureIndex, len(m.Textures)) {
			return fmt.Errorf("model: material %d diffuse texture %d: %w", mi, mt.DiffuseTextureIndex, errs.DanglingReference)
		}
		if !inRange(mt.SphereTextureIndex, len(m.Textures)) {
			return fmt.Errorf("model: material %d sphere texture %d: %w", mi, mt.SphereTextureIndex, errs.DanglingReference)
		}
		if mt.ToonKind == ToonTexture && !inRange(mt.ToonIndex, len(m.Textures)) {
			return fmt.Errorf("model: material %d toon texture %d: %w", mi, mt.ToonIndex, errs.DanglingReference)
		}
	}
	for bi := range m.Bones {
		b := &m.Bones[bi]
		if !inRange(b.ParentIndex, len(m.Bones)) {
			return fmt.Errorf("model: bone %d parent %d: %w", bi, b.ParentIndex, errs.DanglingReference)
		}
		if b.DestinationIsBone && !inRange(b.DestinationBoneIndex, len(m.Bones)) {
			return fmt.Errorf("model: bone %d destination %d: %w", bi, b.DestinationBoneIndex, errs.DanglingReference)
		}
		if (b.Flags.InherentRotation || b.Flags.InherentTranslation) && !inRange(b.InherentParentIndex, len(m.Bones)) {
			return fmt.Errorf("model: bone %d inherent parent %d: %w", bi, b.InherentParentIndex, errs.DanglingReference)
		}
		if b.Flags.ExternalParent && !inRange(b.ExternalParentIndex, len(m.Bones)) {
			return fmt.Errorf("model: bone %d external parent %d: %w", bi, b.ExternalParentIndex, errs.DanglingReference)
		}
		if b.Constraint != nil {
			if !inRange(b.Constraint.EffectorIndex, len(m.Bones)) {
				return fmt.Errorf("model: bone %d constraint effector %d: %w", bi, b.Constraint.EffectorIndex, errs.DanglingReference)
			}
			for ji, j := range b.Constraint.Joints {
				if !inRange(j.BoneIndex, len(m.Bones)) {
					return fmt.Errorf("model: bone %d constraint joint %d bone %d: %w", bi, ji, j.BoneIndex, errs.DanglingReference)
				}
			}
		}
	}
	for mi := range m.Morphs {
		mo := &m.Morphs[mi]
		for _, it := range mo.VertexPayload {
			if !inRange(it.VertexIndex, len(m.Vertices)) {
				return fmt.Errorf("model: morph %d vertex item %d: %w", mi, it.VertexIndex, errs.DanglingReference)
			}
		}
		for _, it := range mo.UVPayload {
			if !inRange(it.VertexIndex, len(m.Vertices)) {
				return fmt.Errorf("model: morph %d uv item %d: %w", mi, it.VertexIndex, errs.DanglingReference)
			}
		}
		for _, it := range mo.BonePayload {
			if !inRange(it.BoneIndex, len(m.Bones)) {
				return fmt.Errorf("model: morph %d bone item %d: %w", mi, it.BoneIndex, errs.DanglingReference)
			}
		}
		for _, it := range mo.MaterialPayload {
			if !inRange(it.MaterialIndex, len(m.Materials)) {
				return fmt.Errorf("model: morph %d material item %d: %w", mi, it.MaterialIndex, errs.DanglingReference)
			}
		}
		for _, it := range mo.GroupPayload {
			if !inRange(it.MorphIndex, len(m.Morphs)) {
				return fmt.Errorf("model: morph %d group item %d: %w", mi, it.MorphIndex, errs.DanglingReference)
			}
		}
		for _, it := range mo.FlipPayload {
			if !inRange(it.MorphIndex, len(m.Morphs)) {
				return fmt.Errorf("model: morph %d flip item %d: %w", mi, it.MorphIndex, errs.DanglingReference)
			}
		}
		for _, it := range mo.ImpulsePayload {
			if !inRange(it.RigidBodyIndex, len(m.RigidBodies)) {
				return fmt.Errorf("model: morph %d impulse item %d: %w", mi, it.RigidBodyIndex, errs.DanglingReference)
			}
		}
	}
	for ri := range m.RigidBodies {
		if !inRange(m.RigidBodies[ri].BoneIndex, len(m.Bones)) {
			return fmt.Errorf("model: rigid body %d bone %d: %w", ri, m.RigidBodies[ri].BoneIndex, errs.DanglingReference)
		}
	}
	for ji := range m.Joints {
		j := &m.Joints[ji]
		if !inRange(j.BodyAIndex, len(m.RigidBodies)) || !inRange(j.BodyBIndex, len(m.RigidBodies)) {
			return fmt.Errorf("model: joint %d body index: %w", ji, errs.DanglingReference)
		}
	}
	for fi := range m.DisplayFrames {
		for _, it := range m.DisplayFrames[fi].Items {
			switch it.Kind {
			case DisplayFrameBone:
				if !inRange(it.Index, len(m.Bones)) {
					return fmt.Errorf("model: display frame %d bone item %d: %w", fi, it.Index, errs.DanglingReference)
				}
			case DisplayFrameMorph:
				if !inRange(it.Index, len(m.Morphs)) {
					return fmt.Errorf("model: display frame %d morph item %d: %w", fi, it.Index, errs.DanglingReference)
				}
			}
		}
	}
	return nil
}

// Destroy releases every owned slice. Go's garbage collector reclaims
// the backing arrays once nothing references them; Destroy exists so
// callers that want deterministic release semantics (matching the
// lifecycle named in the data model) have an explicit, idempotent hook
// rather than relying on scope exit.
func (m *Model) Destroy() {
	m.Vertices = nil
	m.vertexBaseline = nil
	m.IndexBuffer = nil
	m.Textures = nil
	m.Materials = nil
	m.materialBaseline = nil
	m.Bones = nil
	m.Morphs = nil
	m.morphWeights = nil
	m.DisplayFrames = nil
	m.RigidBodies = nil
	m.Joints = nil
}

// Package morph implements the per-frame morph-blend pass: on top of
// the baseline state, apply every morph whose current weight is
// non-zero, scaled by that weight, in stable ascending index order.
// Apply itself does not reset anything. This is stage 2 of the three-stage per-frame pipeline
// (reset-baseline -> apply-morphs -> update-bones); callers must
// invoke model.ResetBaseline (stage 1) themselves before Apply, since
// ownership of staging the pipeline's stages belongs to the caller,
// not to this package.
package morph

import (
	"fmt"
	"log"

	"github.com/CryptorGit/MiniMikuDanceMobile/config"
	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

// Apply runs the morph-blend pass over m: for every morph index in
// ascending order whose current weight is non-zero, applies that
// morph's kind-specific effect scaled by the weight. opts may be nil,
// in which case config.New() defaults apply (plain make() backs any
// allocation an impulse morph triggers). Returns errs.MorphCycle if a
// group morph recursively refers back to itself, or errs.AllocationFailure
// if an impulse morph's queue growth is rejected by opts.Allocate.
func Apply(m *model.Model, opts *config.Options) error {
	if opts == nil {
		opts = config.New()
	}
	for i := 0; i < m.MorphCount(); i++ {
		idx := int32(i)
		w := m.MorphWeight(idx)
		if w == 0 {
			continue
		}
		if err := applyMorph(m, idx, float64(w), nil, opts); err != nil {
			return err
		}
	}
	return nil
}

// applyMorph applies the idx-th morph scaled by weight. path tracks
// the chain of group-morph ancestors currently being expanded, for
// cycle detection.
func applyMorph(m *model.Model, idx int32, weight float64, path map[int32]bool, opts *config.Options) error {
	mo, ok := m.Morph(idx)
	if !ok {
		return nil
	}
	switch mo.Kind {
	case model.MorphVertex:
		applyVertex(m, mo, weight)
	case model.MorphUV, model.MorphUV1, model.MorphUV2, model.MorphUV3, model.MorphUV4:
		applyUV(m, mo, weight)
	case model.MorphBone:
		applyBone(m, mo, weight)
	case model.MorphMaterial:
		applyMaterial(m, mo, weight)
	case model.MorphGroup:
		return applyGroup(m, idx, mo, weight, path, opts)
	case model.MorphFlip:
		applyFlip(m, mo, weight, opts)
	case model.MorphImpulse:
		return applyImpulse(m, mo, weight, opts)
	default:
		log.Printf("morph: dev warning. morph %d kind %d unrecognized, skipped", idx, mo.Kind)
	}
	return nil
}

func applyVertex(m *model.Model, mo *model.Morph, w float64) {
	for _, it := range mo.VertexItems() {
		v, ok := m.Vertex(it.VertexIndex)
		if !ok {
			continue
		}
		v.Position.X += it.Offset.X * w
		v.Position.Y += it.Offset.Y * w
		v.Position.Z += it.Offset.Z * w
	}
}

func applyUV(m *model.Model, mo *model.Morph, w float64) {
	channel := -1
	switch mo.Kind {
	case model.MorphUV1:
		channel = 0
	case model.MorphUV2:
		channel = 1
	case model.MorphUV3:
		channel = 2
	case model.MorphUV4:
		channel = 3
	}
	for _, it := range mo.UVItems() {
		v, ok := m.Vertex(it.VertexIndex)
		if !ok {
			continue
		}
		if channel < 0 {
			v.UV[0] += it.Offset[0] * w
			v.UV[1] += it.Offset[1] * w
			continue
		}
		for k := 0; k < 4; k++ {
			v.AdditionalUV[channel][k] += it.Offset[k] * w
		}
	}
}

func applyBone(m *model.Model, mo *model.Morph, w float64) {
	for _, it := range mo.BoneItems() {
		b, ok := m.Bone(it.BoneIndex)
		if !ok {
			continue
		}
		b.LocalTranslation.X += it.Translation.X * w
		b.LocalTranslation.Y += it.Translation.Y * w
		b.LocalTranslation.Z += it.Translation.Z * w

		blended := (&lin.Q{}).Slerp(lin.QI, &it.Orientation, w)
		b.LocalRotation.X += blended.X
		b.LocalRotation.Y += blended.Y
		b.LocalRotation.Z += blended.Z
		b.LocalRotation.W += blended.W
		b.LocalRotation.Unit()
	}
}

func applyMaterial(m *model.Model, mo *model.Morph, w float64) {
	for _, it := range mo.MaterialItems() {
		if it.MaterialIndex == model.NoIndex {
			for mi := range m.Materials {
				applyMaterialItem(&m.Materials[mi], it, w)
			}
			continue
		}
		mt, ok := m.Material(it.MaterialIndex)
		if !ok {
			continue
		}
		applyMaterialItem(mt, it, w)
	}
}

func applyMaterialItem(mt *model.Material, it model.MaterialMorphItem, w float64) {
	blend := func(field *float64, offset float64) {
		if it.Op == model.MaterialMultiply {
			*field *= 1 + offset*w
		} else {
			*field += offset * w
		}
	}
	for k := 0; k < 4; k++ {
		blend(&mt.Diffuse[k], it.Diffuse[k])
		blend(&mt.EdgeColor[k], it.EdgeColor[k])
	}
	blend(&mt.Specular.X, it.Specular.X)
	blend(&mt.Specular.Y, it.Specular.Y)
	blend(&mt.Specular.Z, it.Specular.Z)
	blend(&mt.Ambient.X, it.Ambient.X)
	blend(&mt.Ambient.Y, it.Ambient.Y)
	blend(&mt.Ambient.Z, it.Ambient.Z)
	blend(&mt.SpecularPower, it.SpecularPower)
	blend(&mt.EdgeSize, it.EdgeSize)
}

func applyGroup(m *model.Model, idx int32, mo *model.Morph, w float64, path map[int32]bool, opts *config.Options) error {
	if path == nil {
		path = make(map[int32]bool)
	}
	if path[idx] {
		return fmt.Errorf("morph: group morph %d revisited: %w", idx, errs.MorphCycle)
	}
	path[idx] = true
	defer delete(path, idx)

	for _, it := range mo.GroupItems() {
		childWeight := w * it.TargetWeight
		if childWeight == 0 {
			continue
		}
		if err := applyMorph(m, it.MorphIndex, childWeight, path, opts); err != nil {
			return err
		}
	}
	return nil
}

// applyFlip resolves which child is selected by the given partition
// weight w and applies exactly that child at full strength. The
// boundary case where w lands exactly on a cumulative sum selects the
// next child (advance while cumulative <= w); see DESIGN.md's
// resolution of the open question this decides. A selected child that
// itself fails (e.g. an impulse morph hitting errs.AllocationFailure)
// is logged and otherwise ignored, since a flip morph's own weight
// carries no error channel back to Apply's caller for a single-child
// selection that isn't on the direct apply path.
func applyFlip(m *model.Model, mo *model.Morph, w float64, opts *config.Options) {
	items := mo.FlipItems()
	if len(items) == 0 {
		return
	}
	cumulative := 0.0
	for _, it := range items {
		cumulative += it.TargetWeight
		if cumulative <= w {
			continue
		}
		if err := applyMorph(m, it.MorphIndex, 1, nil, opts); err != nil {
			log.Printf("morph: dev warning. flip child %d: %v", it.MorphIndex, err)
		}
		return
	}
}

// applyImpulse queues a pending impulse on each referenced rigid body.
// PendingImpulses grows across a model's lifetime rather than coming
// from a single loader-sized slice literal, so its growth routes
// through opts.Allocate; a rejecting hook aborts this frame with
// errs.AllocationFailure, leaving the rigid body's existing queue
// untouched.
func applyImpulse(m *model.Model, mo *model.Morph, w float64, opts *config.Options) error {
	for _, it := range mo.ImpulseItems() {
		rb, ok := m.RigidBody(it.RigidBodyIndex)
		if !ok {
			continue
		}
		if err := growImpulseQueue(rb, opts); err != nil {
			return fmt.Errorf("morph: impulse enqueue on rigid body %d: %w", it.RigidBodyIndex, err)
		}
		rb.PendingImpulses = append(rb.PendingImpulses, model.PendingImpulse{
			Local:    it.Local,
			Velocity: lin.V3{X: it.Velocity.X * w, Y: it.Velocity.Y * w, Z: it.Velocity.Z * w},
			Torque:   lin.V3{X: it.Torque.X * w, Y: it.Torque.Y * w, Z: it.Torque.Z * w},
		})
	}
	return nil
}

// impulseRecordSize is the accounting unit opts.Allocate is asked for
// when PendingImpulses needs to grow: one slot's worth of backing
// storage, in the units of config.AllocateFunc's size parameter.
const impulseRecordSize = 64

// growImpulseQueue asks opts.Allocate to account for one more
// PendingImpulse slot whenever rb's queue is at capacity, before the
// caller appends. The returned byte slice is discarded; only the hook
// call (and whether it errors) matters, since Go's own slice growth
// still backs the actual storage.
func growImpulseQueue(rb *model.RigidBody, opts *config.Options) error {
	if len(rb.PendingImpulses) < cap(rb.PendingImpulses) {
		return nil
	}
	if _, err := opts.Allocate(impulseRecordSize); err != nil {
		return fmt.Errorf("%w: %v", errs.AllocationFailure, err)
	}
	return nil
}

package morph

import (
	"errors"
	"testing"

	"github.com/CryptorGit/MiniMikuDanceMobile/config"
	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

func fixture() *model.Model {
	m := model.New(model.Header{})
	m.Vertices = []model.Vertex{{Position: lin.V3{X: 1, Y: 1, Z: 1}}}
	m.Materials = []model.Material{{Diffuse: [4]float64{1, 1, 1, 1}, EdgeSize: 1}}
	m.Bones = []model.Bone{{}}
	m.RigidBodies = []model.RigidBody{{}}
	m.Morphs = []model.Morph{
		{Kind: model.MorphVertex, VertexPayload: []model.VertexMorphItem{{VertexIndex: 0, Offset: lin.V3{X: 1}}}},
	}
	m.InitBaselines()
	return m
}

func TestZeroWeightIsIdentity(t *testing.T) {
	m := fixture()
	before := m.Vertices[0].Position
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m.Vertices[0].Position != before {
		t.Errorf("zero-weight morph changed position: %+v -> %+v", before, m.Vertices[0].Position)
	}
}

func TestVertexMorphLinearInWeight(t *testing.T) {
	m := fixture()
	m.SetMorphWeight(0, 0.5)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := m.Vertices[0].Position.X; got != 1.5 {
		t.Errorf("position.X = %v, want 1.5 (1 + 1*0.5)", got)
	}
}

func TestResetBaselineBetweenFrames(t *testing.T) {
	m := fixture()
	m.SetMorphWeight(0, 1)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := m.Vertices[0].Position.X; got != 2 {
		t.Fatalf("position.X = %v, want 2", got)
	}
	m.SetMorphWeight(0, 0)
	m.ResetBaseline()
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := m.Vertices[0].Position.X; got != 1 {
		t.Errorf("position.X after reset+zero-weight = %v, want 1", got)
	}
}

func TestGroupMorphCycleDetected(t *testing.T) {
	m := model.New(model.Header{})
	m.Morphs = []model.Morph{
		{Kind: model.MorphGroup, GroupPayload: []model.GroupMorphItem{{MorphIndex: 1, TargetWeight: 1}}},
		{Kind: model.MorphGroup, GroupPayload: []model.GroupMorphItem{{MorphIndex: 0, TargetWeight: 1}}},
	}
	m.InitBaselines()
	m.SetMorphWeight(0, 1)
	if err := Apply(m, nil); !errors.Is(err, errs.MorphCycle) {
		t.Errorf("Apply() = %v, want errs.MorphCycle", err)
	}
}

func TestGroupMorphAppliesChildScaledByBothWeights(t *testing.T) {
	m := fixture()
	m.Morphs = append(m.Morphs, model.Morph{
		Kind:         model.MorphGroup,
		GroupPayload: []model.GroupMorphItem{{MorphIndex: 0, TargetWeight: 0.5}},
	})
	m.InitBaselines()
	m.SetMorphWeight(1, 0.5) // group morph at index 1, itself 0.5, child target 0.5 -> 0.25
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := m.Vertices[0].Position.X; got != 1.25 {
		t.Errorf("position.X = %v, want 1.25", got)
	}
}

func TestMaterialMorphMultiply(t *testing.T) {
	m := fixture()
	m.Morphs = append(m.Morphs, model.Morph{
		Kind: model.MorphMaterial,
		MaterialPayload: []model.MaterialMorphItem{
			{MaterialIndex: 0, Op: model.MaterialMultiply, Diffuse: [4]float64{1, 0, 0, 0}},
		},
	})
	m.InitBaselines()
	m.SetMorphWeight(1, 1)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := m.Materials[0].Diffuse[0]; got != 2 {
		t.Errorf("diffuse.r = %v, want 2 (1 * (1 + 1*1))", got)
	}
}

func TestMaterialMorphAllMaterialsWildcard(t *testing.T) {
	m := fixture()
	m.Materials = append(m.Materials, model.Material{Diffuse: [4]float64{1, 1, 1, 1}})
	m.InitBaselines()
	m.Morphs = append(m.Morphs, model.Morph{
		Kind: model.MorphMaterial,
		MaterialPayload: []model.MaterialMorphItem{
			{MaterialIndex: model.NoIndex, Op: model.MaterialAdd, Diffuse: [4]float64{1, 0, 0, 0}},
		},
	})
	m.InitBaselines()
	m.SetMorphWeight(1, 1)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i := range m.Materials {
		if m.Materials[i].Diffuse[0] != 2 {
			t.Errorf("material %d diffuse.r = %v, want 2", i, m.Materials[i].Diffuse[0])
		}
	}
}

func TestBoneMorphBlendsTranslationAndSlerp(t *testing.T) {
	m := fixture()
	m.Morphs = append(m.Morphs, model.Morph{
		Kind: model.MorphBone,
		BonePayload: []model.BoneMorphItem{
			{BoneIndex: 0, Translation: lin.V3{X: 2}, Orientation: lin.Q{X: 0, Y: 0, Z: 0, W: 1}},
		},
	})
	m.InitBaselines()
	m.SetMorphWeight(1, 1)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	b := m.Bones[0]
	if b.LocalTranslation.X != 2 {
		t.Errorf("local translation.X = %v, want 2", b.LocalTranslation.X)
	}
	if !b.LocalRotation.Aeq(lin.QI) {
		t.Errorf("local rotation = %+v, want identity (blended onto identity base)", b.LocalRotation)
	}
}

// flipFixture extends fixture() with two vertex morphs distinguishable
// by which axis they offset, and a flip morph partitioning between
// them at 0.5/0.5, so tests can tell which child a given weight
// selected.
func flipFixture() *model.Model {
	m := fixture()
	m.Morphs = append(m.Morphs,
		model.Morph{Kind: model.MorphVertex, VertexPayload: []model.VertexMorphItem{{VertexIndex: 0, Offset: lin.V3{Y: 1}}}},
		model.Morph{Kind: model.MorphVertex, VertexPayload: []model.VertexMorphItem{{VertexIndex: 0, Offset: lin.V3{Z: 1}}}},
		model.Morph{Kind: model.MorphFlip, FlipPayload: []model.FlipMorphItem{
			{MorphIndex: 1, TargetWeight: 0.5},
			{MorphIndex: 2, TargetWeight: 0.5},
		}},
	)
	m.InitBaselines()
	return m
}

func TestFlipMorphSelectsChildWithinItsPartition(t *testing.T) {
	m := flipFixture()
	m.SetMorphWeight(3, 0.3)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := m.Vertices[0].Position
	if got.Y != 2 || got.Z != 1 {
		t.Errorf("position = %+v, want child 1 selected (Y=2, Z=1)", got)
	}
}

// TestFlipMorphBoundarySelectsNextChild exercises the exact-boundary
// case from DESIGN.md's open-question resolution: w landing exactly on
// a cumulative partition sum selects the following child, not the one
// whose range it closes.
func TestFlipMorphBoundarySelectsNextChild(t *testing.T) {
	m := flipFixture()
	m.SetMorphWeight(3, 0.5)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := m.Vertices[0].Position
	if got.Y != 1 || got.Z != 2 {
		t.Errorf("position = %+v, want child 2 selected (Y=1, Z=2)", got)
	}
}

func TestFlipMorphWeightPastTotalSelectsNothing(t *testing.T) {
	m := flipFixture()
	m.SetMorphWeight(3, 1)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := m.Vertices[0].Position
	if got.Y != 1 || got.Z != 1 {
		t.Errorf("position = %+v, want neither child selected (Y=1, Z=1)", got)
	}
}

func TestImpulseMorphQueuesOnRigidBody(t *testing.T) {
	m := fixture()
	m.Morphs = append(m.Morphs, model.Morph{
		Kind: model.MorphImpulse,
		ImpulsePayload: []model.ImpulseMorphItem{
			{RigidBodyIndex: 0, Velocity: lin.V3{X: 2}, Torque: lin.V3{Y: 1}},
		},
	})
	m.InitBaselines()
	m.SetMorphWeight(1, 0.5)
	if err := Apply(m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	rb := m.RigidBodies[0]
	if len(rb.PendingImpulses) != 1 || rb.PendingImpulses[0].Velocity.X != 1 {
		t.Errorf("pending impulses = %+v, want one with velocity.X=1", rb.PendingImpulses)
	}
}

// TestImpulseMorphAbortsFrameOnAllocationFailure wires a rejecting
// config.Options.Allocate hook and checks that Apply surfaces
// errs.AllocationFailure rather than queuing the impulse.
func TestImpulseMorphAbortsFrameOnAllocationFailure(t *testing.T) {
	m := fixture()
	m.Morphs = append(m.Morphs, model.Morph{
		Kind: model.MorphImpulse,
		ImpulsePayload: []model.ImpulseMorphItem{
			{RigidBodyIndex: 0, Velocity: lin.V3{X: 2}},
		},
	})
	m.InitBaselines()
	m.SetMorphWeight(1, 1)

	opts := config.New(config.WithAllocator(func(size int) ([]byte, error) {
		return nil, errors.New("out of memory")
	}))
	if err := Apply(m, opts); !errors.Is(err, errs.AllocationFailure) {
		t.Errorf("Apply() = %v, want errs.AllocationFailure", err)
	}
	if len(m.RigidBodies[0].PendingImpulses) != 0 {
		t.Errorf("pending impulses = %+v, want none queued after allocation failure", m.RigidBodies[0].PendingImpulses)
	}
}

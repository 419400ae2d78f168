package model

import (
	"errors"
	"testing"

	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
)

func newFixture() *Model {
	m := New(Header{Version: 2.0})
	m.Bones = []Bone{
		{NameJP: "root", ParentIndex: NoIndex},
		{NameJP: "child", ParentIndex: 0},
	}
	m.Vertices = []Vertex{
		{Position: lin.V3{X: 1, Y: 2, Z: 3}, BoneIndices: [4]int32{0, NoIndex, NoIndex, NoIndex}, Weights: [4]float32{1, 0, 0, 0}},
	}
	m.Materials = []Material{{NameJP: "mat", DiffuseTextureIndex: NoIndex, SphereTextureIndex: NoIndex}}
	m.InitBaselines()
	return m
}

func TestAccessorsReturnNoneForOutOfRange(t *testing.T) {
	m := newFixture()
	if _, ok := m.Bone(-1); ok {
		t.Error("Bone(-1) should be not-ok")
	}
	if _, ok := m.Bone(int32(m.BoneCount())); ok {
		t.Error("Bone(count) should be not-ok")
	}
	if _, ok := m.Vertex(99); ok {
		t.Error("Vertex(99) should be not-ok")
	}
	if b, ok := m.Bone(1); !ok || b.NameJP != "child" {
		t.Errorf("Bone(1) = %+v, %v", b, ok)
	}
}

func TestSetMorphWeightOutOfRangeIsNoop(t *testing.T) {
	m := newFixture()
	m.SetMorphWeight(5, 1) // must not panic
	if got := m.MorphWeight(5); got != 0 {
		t.Errorf("MorphWeight(5) = %v, want 0", got)
	}
}

func TestResetBaselineRestoresLoaderState(t *testing.T) {
	m := newFixture()
	original := m.Vertices[0].Position
	m.Vertices[0].Position.X = 999
	m.ResetBaseline()
	if !m.Vertices[0].Position.Eq(&original) {
		t.Errorf("after reset, position = %+v, want %+v", m.Vertices[0].Position, original)
	}
}

func TestFreshBoneLocalPoseIsIdentity(t *testing.T) {
	m := newFixture()
	m.ResetBaseline()
	b, _ := m.Bone(0)
	if !b.LocalTranslation.AeqZ() {
		t.Errorf("fresh local translation = %+v, want zero", b.LocalTranslation)
	}
	if !b.LocalRotation.Aeq(lin.QI) {
		t.Errorf("fresh local rotation = %+v, want identity", b.LocalRotation)
	}
}

func TestSetBoneLocalPoseConsumedOnReset(t *testing.T) {
	m := newFixture()
	m.SetBoneLocalTranslation(1, lin.V3{X: 1, Y: 0, Z: 0})
	m.SetBoneLocalOrientation(1, lin.Q{X: 0, Y: 0, Z: 0, W: 1})
	m.ResetBaseline()
	b, _ := m.Bone(1)
	if b.LocalTranslation.X != 1 {
		t.Errorf("local translation not carried from persisted pose: %+v", b.LocalTranslation)
	}
}

func TestSetBoneWorldTransformRoundTrips(t *testing.T) {
	m := newFixture()
	want := lin.NewT()
	want.SetLoc(1, 2, 3)
	m.SetBoneWorldTransform(0, want)
	got, ok := m.BoneWorldTransform(0)
	if !ok {
		t.Fatal("expected ok")
	}
	if !got.Eq(want) {
		t.Errorf("world transform = %+v, want %+v", got, want)
	}
}

func TestValidateCatchesDanglingBoneParent(t *testing.T) {
	m := newFixture()
	m.Bones[1].ParentIndex = 50
	err := m.Validate()
	if !errors.Is(err, errs.DanglingReference) {
		t.Errorf("Validate() = %v, want errs.DanglingReference", err)
	}
}

func TestValidateAcceptsWellFormedFixture(t *testing.T) {
	m := newFixture()
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestMorphKindAccessorsSegregatePayloads(t *testing.T) {
	mo := &Morph{Kind: MorphVertex, VertexPayload: []VertexMorphItem{{VertexIndex: 0}}}
	if len(mo.VertexItems()) != 1 {
		t.Error("VertexItems should return the populated payload")
	}
	if mo.BoneItems() != nil {
		t.Error("BoneItems should be nil for a vertex morph")
	}
}

func TestDestroyClearsOwnedSlices(t *testing.T) {
	m := newFixture()
	m.Destroy()
	if m.Vertices != nil || m.Bones != nil || m.Materials != nil {
		t.Error("Destroy should release every owned slice")
	}
}

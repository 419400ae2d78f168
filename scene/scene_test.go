package scene

import (
	"testing"

	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

func fixture() *Scene {
	m := model.New(model.Header{})
	m.Vertices = []model.Vertex{{Position: lin.V3{X: 1}}}
	m.Bones = []model.Bone{
		{ParentIndex: model.NoIndex, NameJP: "root", NameEN: "Root"},
	}
	m.Morphs = []model.Morph{
		{Kind: model.MorphVertex, VertexPayload: []model.VertexMorphItem{{VertexIndex: 0, Offset: lin.V3{Y: 1}}}},
	}
	m.InitBaselines()
	return New(m, nil)
}

func TestAdvanceAppliesMorphThenBones(t *testing.T) {
	s := fixture()
	s.SetMorphWeight(0, 1)
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	v, ok := s.Vertex(0)
	if !ok || v.Position.Y != 1 {
		t.Errorf("vertex after advance = %+v, want Y=1", v)
	}
	root, ok := s.Bone(0)
	if !ok {
		t.Fatal("bone 0 missing")
	}
	if root.WorldLoc != root.Origin {
		t.Errorf("root world loc = %+v, want origin %+v (identity pose)", root.WorldLoc, root.Origin)
	}
}

func TestAdvanceResetsBaselineEachCall(t *testing.T) {
	s := fixture()
	s.SetMorphWeight(0, 1)
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	s.SetMorphWeight(0, 0)
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	v, _ := s.Vertex(0)
	if v.Position.Y != 0 {
		t.Errorf("vertex.Y after zero-weight advance = %v, want 0", v.Position.Y)
	}
}

func TestBoneNameResolvesByLanguage(t *testing.T) {
	s := fixture()
	jp, ok := s.BoneName(0, model.Japanese)
	if !ok || jp != "root" {
		t.Errorf("BoneName(jp) = %q, %v, want root, true", jp, ok)
	}
	en, ok := s.BoneName(0, model.English)
	if !ok || en != "Root" {
		t.Errorf("BoneName(en) = %q, %v, want Root, true", en, ok)
	}
}

func TestOutOfRangeAccessorsReturnNone(t *testing.T) {
	s := fixture()
	if _, ok := s.Bone(99); ok {
		t.Error("Bone(99) should report false")
	}
	if _, ok := s.BoneWorldTransform(99); ok {
		t.Error("BoneWorldTransform(99) should report false")
	}
}

func TestSetBoneLocalTranslationConsumedOnAdvance(t *testing.T) {
	s := fixture()
	s.SetBoneLocalTranslation(0, lin.V3{X: 3})
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	b, _ := s.Bone(0)
	if b.WorldLoc.X != 3 {
		t.Errorf("bone world X = %v, want 3", b.WorldLoc.X)
	}
}

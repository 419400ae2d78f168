package scene

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/CryptorGit/MiniMikuDanceMobile/internal/vmdfixture"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

// buildSampleMotion hand-assembles a one-keyframe VMD-shaped byte
// stream so the sampler-output path can be exercised with a realistic
// decoded pose rather than a hand-built lin.V3/lin.Q literal.
func buildSampleMotion(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 30)) // header
	name := make([]byte, 20)
	copy(name, "fixture")
	buf.Write(name)
	binary.Write(&buf, binary.LittleEndian, uint32(1))

	boneName := make([]byte, 15)
	copy(boneName, "root")
	buf.Write(boneName)
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	for _, v := range []float32{2, 0, 0, 0, 0, 0, 1} {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	buf.Write(make([]byte, 64))
	return buf.Bytes()
}

func TestAdvanceAppliesSampledMotionFromVMDFixture(t *testing.T) {
	doc, err := vmdfixture.Decode(bytes.NewReader(buildSampleMotion(t)))
	if err != nil {
		t.Fatalf("vmdfixture.Decode: %v", err)
	}

	m := model.New(model.Header{})
	m.Bones = []model.Bone{{ParentIndex: model.NoIndex}}
	m.InitBaselines()
	s := New(m, nil)

	kf := doc.Bones[0]
	s.SetBoneLocalTranslation(0, kf.Translation)
	s.SetBoneLocalOrientation(0, kf.Rotation)
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	root, _ := s.Bone(0)
	if root.WorldLoc.X != kf.Translation.X {
		t.Errorf("root world X = %v, want %v", root.WorldLoc.X, kf.Translation.X)
	}
}

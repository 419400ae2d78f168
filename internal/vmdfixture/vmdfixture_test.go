package vmdfixture

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

type builder struct{ buf bytes.Buffer }

func (b *builder) raw(n int)          { b.buf.Write(make([]byte, n)) }
func (b *builder) fixedText(s string, n int) {
	block := make([]byte, n)
	copy(block, s)
	b.buf.Write(block)
}
func (b *builder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) f32(v float32) {
	binary.Write(&b.buf, binary.LittleEndian, math.Float32bits(v))
}

func minimalDoc() []byte {
	b := &builder{}
	b.raw(headerLen)
	b.fixedText("sample model", modelNameLen)
	b.u32(1)

	b.fixedText("root", boneNameLen)
	b.u32(0) // frame
	b.f32(1)
	b.f32(2)
	b.f32(3) // position
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.f32(1) // rotation: identity
	b.raw(64) // interpolation curve, unused
	return b.buf.Bytes()
}

func TestDecodeMinimalDocument(t *testing.T) {
	doc, err := Decode(bytes.NewReader(minimalDoc()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.ModelName != "sample model" {
		t.Errorf("model name = %q, want %q", doc.ModelName, "sample model")
	}
	if len(doc.Bones) != 1 {
		t.Fatalf("bone count = %d, want 1", len(doc.Bones))
	}
	kf := doc.Bones[0]
	if kf.BoneName != "root" || kf.Frame != 0 {
		t.Errorf("keyframe = %+v, want name=root frame=0", kf)
	}
	if kf.Translation.X != 1 || kf.Translation.Y != 2 || kf.Translation.Z != 3 {
		t.Errorf("translation = %+v, want (1,2,3)", kf.Translation)
	}
	if kf.Rotation.W != 1 {
		t.Errorf("rotation = %+v, want identity", kf.Rotation)
	}
}

func TestDecodeFailsOnTruncatedKeyframe(t *testing.T) {
	full := minimalDoc()
	truncated := full[:len(full)-10]
	if _, err := Decode(bytes.NewReader(truncated)); err == nil {
		t.Error("Decode on truncated keyframe should fail")
	}
}

package pmx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/CryptorGit/MiniMikuDanceMobile/config"
	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

// builder assembles a minimal, well-formed PMX byte stream by hand so
// the loader can be tested without a real asset fixture on disk.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) u8(v uint8)   { b.buf.WriteByte(v) }
func (b *builder) i8(v int8)    { b.buf.WriteByte(byte(v)) }
func (b *builder) u16(v uint16) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) i32(v int32)  { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *builder) f32(v float32) {
	binary.Write(&b.buf, binary.LittleEndian, math.Float32bits(v))
}
func (b *builder) v3(x, y, z float32) { b.f32(x); b.f32(y); b.f32(z) }
func (b *builder) uv4(a, c, d, e float32) {
	b.f32(a)
	b.f32(c)
	b.f32(d)
	b.f32(e)
}
func (b *builder) uv2(u, v float32) { b.f32(u); b.f32(v) }
func (b *builder) text(s string) {
	raw := []byte(s)
	b.u32(uint32(len(raw)))
	b.buf.Write(raw)
}

// header writes a signature + version 2.0 + 8-byte globals (UTF-8
// codec, 0 additional UVs, all index widths = 1 byte) + 4 empty name
// strings.
func (b *builder) header() {
	b.buf.WriteString("PMX ")
	b.f32(2.0)
	b.u8(8) // globals length
	b.u8(1) // codec: UTF-8
	b.u8(0) // additional uv count
	b.u8(1) // vertex index width
	b.u8(1) // texture index width
	b.u8(1) // material index width
	b.u8(1) // bone index width
	b.u8(1) // morph index width
	b.u8(1) // rigid body index width
	b.text("model")
	b.text("model-en")
	b.text("")
	b.text("")
}

// minimalBody writes one vertex (BDEF1 bound to bone 0), a 1-entry
// index buffer, no textures, one material spanning that one triangle's
// worth of indices, two bones (root, child), no morphs, no display
// frames, no rigid bodies, no joints.
func (b *builder) minimalBody() {
	// vertices
	b.u32(1)
	b.v3(1, 2, 3)  // position
	b.v3(0, 1, 0)  // normal
	b.uv2(0, 0)
	for i := 0; i < 4; i++ {
		b.uv4(0, 0, 0, 0)
	}
	b.u8(0)    // BDEF1
	b.i8(0)    // bone index (width 1, signed)
	b.f32(0)   // edge scale

	// index buffer: 1 entry, width 1, unsigned
	b.u32(1)
	b.u8(0)

	// textures
	b.u32(0)

	// materials
	b.u32(1)
	b.text("mat")
	b.text("mat-en")
	b.f32(1)
	b.f32(1)
	b.f32(1)
	b.f32(1) // diffuse
	b.v3(1, 1, 1) // specular
	b.f32(10)     // specular power
	b.v3(0, 0, 0) // ambient
	b.u8(0)       // flags
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.f32(0) // edge color
	b.f32(0) // edge size
	b.i8(-1) // diffuse texture: none (width 1, signed)
	b.i8(-1) // sphere texture: none
	b.u8(0)  // sphere mode
	b.u8(1)  // shared toon flag
	b.u8(0)  // shared toon index
	b.text("") // memo
	b.i32(1)   // vertex count

	// bones
	b.u32(2)
	// bone 0: root
	b.text("root")
	b.text("root-en")
	b.v3(0, 0, 0)
	b.i8(-1) // parent: none
	b.i32(0) // stage
	b.u16(0x0006) // rotateable | movable
	b.v3(0, 1, 0) // destination offset (bit 0 unset)
	// bone 1: child
	b.text("child")
	b.text("child-en")
	b.v3(0, 1, 0)
	b.i8(0)  // parent: bone 0
	b.i32(0) // stage
	b.u16(0x0006)
	b.v3(0, 1, 0)

	// morphs
	b.u32(0)
	// display frames
	b.u32(0)
	// rigid bodies
	b.u32(0)
	// joints
	b.u32(0)
}

func validDoc(t *testing.T) []byte {
	t.Helper()
	b := &builder{}
	b.header()
	b.minimalBody()
	return b.buf.Bytes()
}

func TestLoadMinimalModel(t *testing.T) {
	m, err := Load(bytes.NewReader(validDoc(t)), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.VertexCount() != 1 || m.BoneCount() != 2 || m.MaterialCount() != 1 {
		t.Fatalf("counts = %d/%d/%d, want 1/2/1", m.VertexCount(), m.BoneCount(), m.MaterialCount())
	}
	v, ok := m.Vertex(0)
	if !ok || v.Position.X != 1 || v.Position.Y != 2 || v.Position.Z != 3 {
		t.Errorf("vertex 0 position = %+v, want (1,2,3)", v)
	}
	if v.BoneIndices[0] != 0 || v.Weights[0] != 1 {
		t.Errorf("vertex 0 skinning = %+v/%v, want bone 0 weight 1", v.BoneIndices, v.Weights)
	}
	root, ok := m.Bone(0)
	if !ok || root.ParentIndex != model.NoIndex {
		t.Errorf("bone 0 parent = %v, want NoIndex", root.ParentIndex)
	}
	child, ok := m.Bone(1)
	if !ok || child.ParentIndex != 0 {
		t.Errorf("bone 1 parent = %v, want 0", child.ParentIndex)
	}
}

func TestLoadRejectsBadSignature(t *testing.T) {
	doc := validDoc(t)
	doc[0] = 'X'
	if _, err := Load(bytes.NewReader(doc), nil); !errors.Is(err, errs.BadSignature) {
		t.Errorf("err = %v, want errs.BadSignature", err)
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	b := &builder{}
	b.buf.WriteString("PMX ")
	b.f32(3.0)
	b.u8(8)
	b.u8(1)
	b.u8(0)
	for i := 0; i < 6; i++ {
		b.u8(1)
	}
	b.text("")
	b.text("")
	b.text("")
	b.text("")
	if _, err := Load(bytes.NewReader(b.buf.Bytes()), nil); !errors.Is(err, errs.UnsupportedVersion) {
		t.Errorf("err = %v, want errs.UnsupportedVersion", err)
	}
}

func TestLoadFailsOnDanglingReferenceByDefault(t *testing.T) {
	b := &builder{}
	b.header()
	// one vertex referencing a nonexistent bone, nothing else.
	b.u32(1)
	b.v3(0, 0, 0)
	b.v3(0, 1, 0)
	b.uv2(0, 0)
	for i := 0; i < 4; i++ {
		b.uv4(0, 0, 0, 0)
	}
	b.u8(0)
	b.i8(5) // bone 5 does not exist
	b.f32(0)
	b.u32(0) // index buffer
	b.u32(0) // textures
	b.u32(0) // materials
	b.u32(0) // bones
	b.u32(0) // morphs
	b.u32(0) // display frames
	b.u32(0) // rigid bodies
	b.u32(0) // joints

	if _, err := Load(bytes.NewReader(b.buf.Bytes()), nil); !errors.Is(err, errs.DanglingReference) {
		t.Errorf("err = %v, want errs.DanglingReference", err)
	}
}

// TestLoadToleratesJointVersionMismatch exercises the "joint section
// mismatch" diagnostic: a PMX 2.1-only joint kind (ball) in a file
// declaring version 2.0 is loaded anyway, with a log.Printf warning
// rather than a rejected load, since the loader treats this skew as
// recoverable-but-noteworthy rather than fatal.
func TestLoadToleratesJointVersionMismatch(t *testing.T) {
	b := &builder{}
	b.header()
	b.u32(0) // vertices
	b.u32(0) // index buffer
	b.u32(0) // textures
	b.u32(0) // materials
	b.u32(0) // bones
	b.u32(0) // morphs
	b.u32(0) // display frames

	// rigid bodies: one minimal entry
	b.u32(1)
	b.text("body")
	b.text("body-en")
	b.i8(-1) // bone: none
	b.u8(0)  // collision group
	b.u16(0) // collision mask
	b.u8(0)  // shape
	b.v3(1, 1, 1)
	b.v3(0, 0, 0)
	b.v3(0, 0, 0)
	b.f32(1)
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.f32(0)
	b.u8(0) // transform kind

	// joints: one ball joint (PMX 2.1-only) referencing body 0 twice
	b.u32(1)
	b.text("joint")
	b.text("joint-en")
	b.u8(1) // JointBall
	b.i8(0)
	b.i8(0)
	b.v3(0, 0, 0)
	b.v3(0, 0, 0)
	for i := 0; i < 6; i++ {
		b.v3(0, 0, 0)
	}

	m, err := Load(bytes.NewReader(b.buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.JointCount() != 1 || m.Joints[0].Kind != model.JointBall {
		t.Errorf("joints = %+v, want one JointBall entry", m.Joints)
	}
}

func TestLoadClampsDanglingReferenceWhenConfigured(t *testing.T) {
	b := &builder{}
	b.header()
	b.u32(1)
	b.v3(0, 0, 0)
	b.v3(0, 1, 0)
	b.uv2(0, 0)
	for i := 0; i < 4; i++ {
		b.uv4(0, 0, 0, 0)
	}
	b.u8(0)
	b.i8(5)
	b.f32(0)
	b.u32(0)
	b.u32(0)
	b.u32(0)
	b.u32(0)
	b.u32(0)
	b.u32(0)
	b.u32(0)

	opts := config.New(config.OnDanglingReference(config.ClampDanglingReference))
	m, err := Load(bytes.NewReader(b.buf.Bytes()), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, _ := m.Vertex(0)
	if v.BoneIndices[0] != model.NoIndex {
		t.Errorf("bone index = %v, want clamped to NoIndex", v.BoneIndices[0])
	}
}

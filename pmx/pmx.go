// Package pmx decodes a PMX binary model file into a *model.Model.
// Loading is a linear pipeline: header, nine fixed-order sections,
// then a post-load validation pass. Nothing here mutates a Model after
// Load returns it; the morph, bone and ik packages own every
// subsequent mutation.
package pmx

import (
	"fmt"
	"io"
	"log"

	"github.com/CryptorGit/MiniMikuDanceMobile/config"
	"github.com/CryptorGit/MiniMikuDanceMobile/cursor"
	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
	"github.com/CryptorGit/MiniMikuDanceMobile/text"
)

const signature = "PMX "

// Load reads a full PMX document from r and returns the resulting
// Model. opts may be nil, in which case config.New() defaults apply.
func Load(r io.Reader, opts *config.Options) (*model.Model, error) {
	if opts == nil {
		opts = config.New()
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pmx: read: %w", err)
	}
	c := cursor.New(raw)

	hdr, factory, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	m := model.New(*hdr)

	if err := readVertices(c, m, hdr.Widths); err != nil {
		return nil, err
	}
	if err := readIndexBuffer(c, m, hdr.Widths); err != nil {
		return nil, err
	}
	if err := readTextures(c, m, factory); err != nil {
		return nil, err
	}
	if err := readMaterials(c, m, hdr.Widths, factory); err != nil {
		return nil, err
	}
	if err := readBones(c, m, hdr.Widths, factory); err != nil {
		return nil, err
	}
	if err := readMorphs(c, m, hdr.Widths, factory); err != nil {
		return nil, err
	}
	if err := readDisplayFrames(c, m, hdr.Widths, factory); err != nil {
		return nil, err
	}
	if err := readRigidBodies(c, m, hdr.Widths, factory); err != nil {
		return nil, err
	}
	if err := readJoints(c, m, hdr.Widths, factory); err != nil {
		return nil, err
	}

	m.InitBaselines()

	if err := m.Validate(); err != nil {
		if opts.DanglingReferencePolicy == config.ClampDanglingReference {
			log.Printf("pmx: dev warning. %v; clamping dangling references to none", err)
			clampDangling(m)
		} else {
			return nil, err
		}
	}
	return m, nil
}

func readHeader(c *cursor.Cursor) (*model.Header, *text.Factory, error) {
	sig, err := c.ReadBytes(4)
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: header signature: %w", err)
	}
	if string(sig) != signature {
		return nil, nil, fmt.Errorf("pmx: signature %q: %w", sig, errs.BadSignature)
	}
	version, err := c.ReadF32()
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: version: %w", err)
	}
	if version != 2.0 && version != 2.1 {
		return nil, nil, fmt.Errorf("pmx: version %v: %w", version, errs.UnsupportedVersion)
	}
	globalsLen, err := c.ReadU8()
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: globals length: %w", err)
	}
	if globalsLen < 8 {
		return nil, nil, fmt.Errorf("pmx: globals length %d: %w", globalsLen, errs.OutOfRangeValue)
	}
	globals, err := c.ReadBytes(int(globalsLen))
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: globals block: %w", err)
	}
	codec, err := text.CodecFromByte(globals[0])
	if err != nil {
		return nil, nil, err
	}
	factory := text.NewFactory(codec)

	widths := model.IndexWidths{
		Vertex:    widthOf(globals[2]),
		Texture:   widthOf(globals[3]),
		Material:  widthOf(globals[4]),
		Bone:      widthOf(globals[5]),
		Morph:     widthOf(globals[6]),
		RigidBody: widthOf(globals[7]),
	}

	nameJP, err := readText(c, factory)
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: model name (jp): %w", err)
	}
	nameEN, err := readText(c, factory)
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: model name (en): %w", err)
	}
	commentJP, err := readText(c, factory)
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: comment (jp): %w", err)
	}
	commentEN, err := readText(c, factory)
	if err != nil {
		return nil, nil, fmt.Errorf("pmx: comment (en): %w", err)
	}

	return &model.Header{
		Version:           version,
		Codec:             codec,
		AdditionalUVCount: int(globals[1]),
		Widths:            widths,
		NameJP:            nameJP,
		NameEN:            nameEN,
		CommentJP:         commentJP,
		CommentEN:         commentEN,
	}, factory, nil
}

// widthOf maps a PMX index-size byte (1, 2 or 4) to a byte width; PMX
// never emits any other value for this byte.
func widthOf(b byte) int { return int(b) }

func readText(c *cursor.Cursor, f *text.Factory) (string, error) {
	raw, err := c.ReadLengthPrefixedBytes()
	if err != nil {
		return "", fmt.Errorf("pmx: length-prefixed text: %w", err)
	}
	s, err := f.Decode(raw)
	if err != nil {
		return "", err
	}
	return s, nil
}

// clampDangling walks every cross-reference model.Validate checks and
// clamps out-of-range indices to model.NoIndex, for hosts that opted
// into config.ClampDanglingReference over the strict default.
func clampDangling(m *model.Model) {
	clamp := func(i int32, n int) int32 {
		if i == model.NoIndex || (i >= 0 && int(i) < n) {
			return i
		}
		return model.NoIndex
	}
	for vi := range m.Vertices {
		v := &m.Vertices[vi]
		for k := range v.BoneIndices {
			v.BoneIndices[k] = clamp(v.BoneIndices[k], len(m.Bones))
		}
	}
	for mi := range m.Materials {
		mt := &m.Materials[mi]
		mt.DiffuseTextureIndex = clamp(mt.DiffuseTextureIndex, len(m.Textures))
		mt.SphereTextureIndex = clamp(mt.SphereTextureIndex, len(m.Textures))
		if mt.ToonKind == model.ToonTexture {
			mt.ToonIndex = clamp(mt.ToonIndex, len(m.Textures))
		}
	}
	for bi := range m.Bones {
		b := &m.Bones[bi]
		b.ParentIndex = clamp(b.ParentIndex, len(m.Bones))
		b.DestinationBoneIndex = clamp(b.DestinationBoneIndex, len(m.Bones))
		b.InherentParentIndex = clamp(b.InherentParentIndex, len(m.Bones))
		b.ExternalParentIndex = clamp(b.ExternalParentIndex, len(m.Bones))
		if b.Constraint != nil {
			b.Constraint.EffectorIndex = clamp(b.Constraint.EffectorIndex, len(m.Bones))
			for ji := range b.Constraint.Joints {
				b.Constraint.Joints[ji].BoneIndex = clamp(b.Constraint.Joints[ji].BoneIndex, len(m.Bones))
			}
		}
	}
	for mi := range m.Morphs {
		mo := &m.Morphs[mi]
		for i := range mo.VertexPayload {
			mo.VertexPayload[i].VertexIndex = clamp(mo.VertexPayload[i].VertexIndex, len(m.Vertices))
		}
		for i := range mo.UVPayload {
			mo.UVPayload[i].VertexIndex = clamp(mo.UVPayload[i].VertexIndex, len(m.Vertices))
		}
		for i := range mo.BonePayload {
			mo.BonePayload[i].BoneIndex = clamp(mo.BonePayload[i].BoneIndex, len(m.Bones))
		}
		for i := range mo.MaterialPayload {
			mo.MaterialPayload[i].MaterialIndex = clamp(mo.MaterialPayload[i].MaterialIndex, len(m.Materials))
		}
		for i := range mo.GroupPayload {
			mo.GroupPayload[i].MorphIndex = clamp(mo.GroupPayload[i].MorphIndex, len(m.Morphs))
		}
		for i := range mo.FlipPayload {
			mo.FlipPayload[i].MorphIndex = clamp(mo.FlipPayload[i].MorphIndex, len(m.Morphs))
		}
		for i := range mo.ImpulsePayload {
			mo.ImpulsePayload[i].RigidBodyIndex = clamp(mo.ImpulsePayload[i].RigidBodyIndex, len(m.RigidBodies))
		}
	}
	for ri := range m.RigidBodies {
		m.RigidBodies[ri].BoneIndex = clamp(m.RigidBodies[ri].BoneIndex, len(m.Bones))
	}
	for ji := range m.Joints {
		m.Joints[ji].BodyAIndex = clamp(m.Joints[ji].BodyAIndex, len(m.RigidBodies))
		m.Joints[ji].BodyBIndex = clamp(m.Joints[ji].BodyBIndex, len(m.RigidBodies))
	}
	for fi := range m.DisplayFrames {
		items := m.DisplayFrames[fi].Items
		for i := range items {
			switch items[i].Kind {
			case model.DisplayFrameBone:
				items[i].Index = clamp(items[i].Index, len(m.Bones))
			case model.DisplayFrameMorph:
				items[i].Index = clamp(items[i].Index, len(m.Morphs))
			}
		}
	}
}

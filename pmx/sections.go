package pmx

import (
	"fmt"
	"log"

	"github.com/CryptorGit/MiniMikuDanceMobile/cursor"
	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
	"github.com/CryptorGit/MiniMikuDanceMobile/text"
)

func readV3(c *cursor.Cursor) (lin.V3, error) {
	x, err := c.ReadF32()
	if err != nil {
		return lin.V3{}, err
	}
	y, err := c.ReadF32()
	if err != nil {
		return lin.V3{}, err
	}
	z, err := c.ReadF32()
	if err != nil {
		return lin.V3{}, err
	}
	return lin.V3{X: float64(x), Y: float64(y), Z: float64(z)}, nil
}

func readUV4(c *cursor.Cursor) ([4]float64, error) {
	var out [4]float64
	for i := range out {
		v, err := c.ReadF32()
		if err != nil {
			return out, err
		}
		out[i] = float64(v)
	}
	return out, nil
}

func readQ(c *cursor.Cursor) (lin.Q, error) {
	x, err := c.ReadF32()
	if err != nil {
		return lin.Q{}, err
	}
	y, err := c.ReadF32()
	if err != nil {
		return lin.Q{}, err
	}
	z, err := c.ReadF32()
	if err != nil {
		return lin.Q{}, err
	}
	w, err := c.ReadF32()
	if err != nil {
		return lin.Q{}, err
	}
	return lin.Q{X: float64(x), Y: float64(y), Z: float64(z), W: float64(w)}, nil
}

func readColor3(c *cursor.Cursor) (lin.V3, error) { return readV3(c) }

func readColor4(c *cursor.Cursor) ([4]float64, error) {
	var out [4]float64
	for i := range out {
		v, err := c.ReadF32()
		if err != nil {
			return out, err
		}
		out[i] = float64(v)
	}
	return out, nil
}

func readCount(c *cursor.Cursor, what string) (int, error) {
	n, err := c.ReadU32()
	if err != nil {
		return 0, fmt.Errorf("pmx: %s count: %w", what, err)
	}
	return int(n), nil
}

func readVertices(c *cursor.Cursor, m *model.Model, w model.IndexWidths) error {
	n, err := readCount(c, "vertex")
	if err != nil {
		return err
	}
	out := make([]model.Vertex, n)
	for i := 0; i < n; i++ {
		v := &out[i]
		if v.Position, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: vertex %d position: %w", i, err)
		}
		if v.Normal, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: vertex %d normal: %w", i, err)
		}
		u0, err := c.ReadF32()
		if err != nil {
			return fmt.Errorf("pmx: vertex %d uv.u: %w", i, err)
		}
		u1, err := c.ReadF32()
		if err != nil {
			return fmt.Errorf("pmx: vertex %d uv.v: %w", i, err)
		}
		v.UV[0], v.UV[1] = float64(u0), float64(u1)
		for k := 0; k < 4; k++ {
			v.AdditionalUV[k], err = readUV4(c)
			if err != nil {
				return fmt.Errorf("pmx: vertex %d additional uv %d: %w", i, k, err)
			}
		}
		kind, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: vertex %d skinning kind: %w", i, err)
		}
		v.Skinning = model.SkinningKind(kind)
		for k := range v.BoneIndices {
			v.BoneIndices[k] = model.NoIndex
		}
		switch v.Skinning {
		case model.BDEF1:
			if v.BoneIndices[0], err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: vertex %d bdef1 bone: %w", i, err)
			}
			v.Weights[0] = 1
		case model.BDEF2:
			if v.BoneIndices[0], err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: vertex %d bdef2 bone0: %w", i, err)
			}
			if v.BoneIndices[1], err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: vertex %d bdef2 bone1: %w", i, err)
			}
			w0, err := c.ReadF32()
			if err != nil {
				return fmt.Errorf("pmx: vertex %d bdef2 weight: %w", i, err)
			}
			v.Weights[0] = w0
			v.Weights[1] = 1 - w0
		case model.BDEF4, model.QDEF:
			for k := 0; k < 4; k++ {
				if v.BoneIndices[k], err = c.ReadIndex(w.Bone, true); err != nil {
					return fmt.Errorf("pmx: vertex %d bdef4/qdef bone%d: %w", i, k, err)
				}
			}
			for k := 0; k < 4; k++ {
				if v.Weights[k], err = c.ReadF32(); err != nil {
					return fmt.Errorf("pmx: vertex %d bdef4/qdef weight%d: %w", i, k, err)
				}
			}
		case model.SDEF:
			if v.BoneIndices[0], err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: vertex %d sdef bone0: %w", i, err)
			}
			if v.BoneIndices[1], err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: vertex %d sdef bone1: %w", i, err)
			}
			w0, err := c.ReadF32()
			if err != nil {
				return fmt.Errorf("pmx: vertex %d sdef weight: %w", i, err)
			}
			v.Weights[0] = w0
			v.Weights[1] = 1 - w0
			if v.SDEFC, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: vertex %d sdef c: %w", i, err)
			}
			if v.SDEFR0, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: vertex %d sdef r0: %w", i, err)
			}
			if v.SDEFR1, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: vertex %d sdef r1: %w", i, err)
			}
		default:
			return fmt.Errorf("pmx: vertex %d skinning kind %d: %w", i, kind, errs.OutOfRangeValue)
		}
		edge, err := c.ReadF32()
		if err != nil {
			return fmt.Errorf("pmx: vertex %d edge scale: %w", i, err)
		}
		v.EdgeScale = float64(edge)
	}
	m.Vertices = out
	return nil
}

func readIndexBuffer(c *cursor.Cursor, m *model.Model, w model.IndexWidths) error {
	n, err := readCount(c, "index buffer")
	if err != nil {
		return err
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		idx, err := c.ReadIndex(w.Vertex, false)
		if err != nil {
			return fmt.Errorf("pmx: index buffer entry %d: %w", i, err)
		}
		out[i] = uint32(idx)
	}
	m.IndexBuffer = out
	return nil
}

func readTextures(c *cursor.Cursor, m *model.Model, f *text.Factory) error {
	n, err := readCount(c, "texture")
	if err != nil {
		return err
	}
	out := make([]model.Texture, n)
	for i := 0; i < n; i++ {
		path, err := readText(c, f)
		if err != nil {
			return fmt.Errorf("pmx: texture %d path: %w", i, err)
		}
		out[i] = model.Texture{Path: path}
	}
	m.Textures = out
	return nil
}

func readMaterials(c *cursor.Cursor, m *model.Model, w model.IndexWidths, f *text.Factory) error {
	n, err := readCount(c, "material")
	if err != nil {
		return err
	}
	out := make([]model.Material, n)
	for i := 0; i < n; i++ {
		mt := &out[i]
		if mt.NameJP, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: material %d name (jp): %w", i, err)
		}
		if mt.NameEN, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: material %d name (en): %w", i, err)
		}
		if mt.Diffuse, err = readColor4(c); err != nil {
			return fmt.Errorf("pmx: material %d diffuse: %w", i, err)
		}
		if mt.Specular, err = readColor3(c); err != nil {
			return fmt.Errorf("pmx: material %d specular: %w", i, err)
		}
		sp, err := c.ReadF32()
		if err != nil {
			return fmt.Errorf("pmx: material %d specular power: %w", i, err)
		}
		mt.SpecularPower = float64(sp)
		if mt.Ambient, err = readColor3(c); err != nil {
			return fmt.Errorf("pmx: material %d ambient: %w", i, err)
		}
		flags, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: material %d flags: %w", i, err)
		}
		mt.Flags = flags
		if mt.EdgeColor, err = readColor4(c); err != nil {
			return fmt.Errorf("pmx: material %d edge color: %w", i, err)
		}
		edgeSize, err := c.ReadF32()
		if err != nil {
			return fmt.Errorf("pmx: material %d edge size: %w", i, err)
		}
		mt.EdgeSize = float64(edgeSize)
		if mt.DiffuseTextureIndex, err = c.ReadIndex(w.Texture, true); err != nil {
			return fmt.Errorf("pmx: material %d diffuse texture: %w", i, err)
		}
		if mt.SphereTextureIndex, err = c.ReadIndex(w.Texture, true); err != nil {
			return fmt.Errorf("pmx: material %d sphere texture: %w", i, err)
		}
		sphereMode, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: material %d sphere mode: %w", i, err)
		}
		mt.SphereMode = model.SphereMode(sphereMode)
		toonFlag, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: material %d toon flag: %w", i, err)
		}
		if toonFlag == 0 {
			mt.ToonKind = model.ToonTexture
			if mt.ToonIndex, err = c.ReadIndex(w.Texture, true); err != nil {
				return fmt.Errorf("pmx: material %d toon texture: %w", i, err)
			}
		} else {
			mt.ToonKind = model.ToonShared
			idx, err := c.ReadU8()
			if err != nil {
				return fmt.Errorf("pmx: material %d shared toon: %w", i, err)
			}
			mt.ToonIndex = int32(idx)
		}
		if _, err := readText(c, f); err != nil { // free-form memo, not stored.
			return fmt.Errorf("pmx: material %d memo: %w", i, err)
		}
		vc, err := c.ReadI32()
		if err != nil {
			return fmt.Errorf("pmx: material %d vertex count: %w", i, err)
		}
		mt.VertexCount = vc
	}
	m.Materials = out
	return nil
}

func decodeBoneFlags(word uint16) model.BoneFlags {
	bit := func(n uint) bool { return word&(1<<n) != 0 }
	return model.BoneFlags{
		ConnectedDestination:  bit(0),
		Rotateable:            bit(1),
		Movable:               bit(2),
		Visible:               bit(3),
		UserHandleable:        bit(4),
		HasConstraint:         bit(5),
		InherentRotation:      bit(8),
		InherentTranslation:   bit(9),
		FixedAxis:             bit(10),
		LocalAxes:             bit(11),
		PhysicsAfterTransform: bit(12),
		ExternalParent:        bit(13),
	}
}

func readBones(c *cursor.Cursor, m *model.Model, w model.IndexWidths, f *text.Factory) error {
	n, err := readCount(c, "bone")
	if err != nil {
		return err
	}
	out := make([]model.Bone, n)
	for i := 0; i < n; i++ {
		b := &out[i]
		if b.NameJP, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: bone %d name (jp): %w", i, err)
		}
		if b.NameEN, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: bone %d name (en): %w", i, err)
		}
		if b.Origin, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: bone %d origin: %w", i, err)
		}
		if b.ParentIndex, err = c.ReadIndex(w.Bone, true); err != nil {
			return fmt.Errorf("pmx: bone %d parent: %w", i, err)
		}
		stage, err := c.ReadI32()
		if err != nil {
			return fmt.Errorf("pmx: bone %d stage: %w", i, err)
		}
		b.StageIndex = stage
		flagWord, err := c.ReadU16()
		if err != nil {
			return fmt.Errorf("pmx: bone %d flags: %w", i, err)
		}
		b.Flags = decodeBoneFlags(flagWord)

		if b.Flags.ConnectedDestination {
			b.DestinationIsBone = true
			if b.DestinationBoneIndex, err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: bone %d destination bone: %w", i, err)
			}
		} else {
			if b.DestinationOffset, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: bone %d destination offset: %w", i, err)
			}
		}
		b.InherentParentIndex = model.NoIndex
		if b.Flags.InherentRotation || b.Flags.InherentTranslation {
			if b.InherentParentIndex, err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: bone %d inherent parent: %w", i, err)
			}
			coeff, err := c.ReadF32()
			if err != nil {
				return fmt.Errorf("pmx: bone %d inherent coefficient: %w", i, err)
			}
			b.InherentCoefficient = float64(coeff)
		}
		if b.Flags.FixedAxis {
			if b.FixedAxis, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: bone %d fixed axis: %w", i, err)
			}
		}
		if b.Flags.LocalAxes {
			if b.LocalXAxis, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: bone %d local x axis: %w", i, err)
			}
			if b.LocalZAxis, err = readV3(c); err != nil {
				return fmt.Errorf("pmx: bone %d local z axis: %w", i, err)
			}
		}
		b.ExternalParentIndex = model.NoIndex
		if b.Flags.ExternalParent {
			if b.ExternalParentIndex, err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: bone %d external parent: %w", i, err)
			}
		}
		if b.Flags.HasConstraint {
			con := &model.Constraint{}
			if con.EffectorIndex, err = c.ReadIndex(w.Bone, true); err != nil {
				return fmt.Errorf("pmx: bone %d constraint effector: %w", i, err)
			}
			iter, err := c.ReadU32()
			if err != nil {
				return fmt.Errorf("pmx: bone %d constraint iterations: %w", i, err)
			}
			con.IterationCount = iter
			limit, err := c.ReadF32()
			if err != nil {
				return fmt.Errorf("pmx: bone %d constraint angle limit: %w", i, err)
			}
			con.AngleLimitPerIteration = float64(limit)
			jointCount, err := readCount(c, "constraint joint")
			if err != nil {
				return err
			}
			con.Joints = make([]model.Joint, jointCount)
			for j := 0; j < jointCount; j++ {
				jt := &con.Joints[j]
				if jt.BoneIndex, err = c.ReadIndex(w.Bone, true); err != nil {
					return fmt.Errorf("pmx: bone %d constraint joint %d bone: %w", i, j, err)
				}
				hasLimit, err := c.ReadU8()
				if err != nil {
					return fmt.Errorf("pmx: bone %d constraint joint %d has-limit: %w", i, j, err)
				}
				jt.HasLimit = hasLimit != 0
				if jt.HasLimit {
					if jt.Lower, err = readV3(c); err != nil {
						return fmt.Errorf("pmx: bone %d constraint joint %d lower: %w", i, j, err)
					}
					if jt.Upper, err = readV3(c); err != nil {
						return fmt.Errorf("pmx: bone %d constraint joint %d upper: %w", i, j, err)
					}
				}
			}
			b.Constraint = con
		}
	}
	m.Bones = out
	return nil
}

func readMorphs(c *cursor.Cursor, m *model.Model, w model.IndexWidths, f *text.Factory) error {
	n, err := readCount(c, "morph")
	if err != nil {
		return err
	}
	out := make([]model.Morph, n)
	for i := 0; i < n; i++ {
		mo := &out[i]
		if mo.NameJP, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: morph %d name (jp): %w", i, err)
		}
		if mo.NameEN, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: morph %d name (en): %w", i, err)
		}
		cat, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: morph %d category: %w", i, err)
		}
		mo.Category = model.MorphCategory(cat)
		kind, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: morph %d kind: %w", i, err)
		}
		mo.Kind = model.MorphKind(kind)
		count, err := readCount(c, "morph item")
		if err != nil {
			return err
		}
		switch mo.Kind {
		case model.MorphGroup:
			items := make([]model.GroupMorphItem, count)
			for j := range items {
				if items[j].MorphIndex, err = c.ReadIndex(w.Morph, true); err != nil {
					return fmt.Errorf("pmx: morph %d group item %d index: %w", i, j, err)
				}
				wt, err := c.ReadF32()
				if err != nil {
					return fmt.Errorf("pmx: morph %d group item %d weight: %w", i, j, err)
				}
				items[j].TargetWeight = float64(wt)
			}
			mo.GroupPayload = items
		case model.MorphVertex:
			items := make([]model.VertexMorphItem, count)
			for j := range items {
				if items[j].VertexIndex, err = c.ReadIndex(w.Vertex, false); err != nil {
					return fmt.Errorf("pmx: morph %d vertex item %d index: %w", i, j, err)
				}
				if items[j].Offset, err = readV3(c); err != nil {
					return fmt.Errorf("pmx: morph %d vertex item %d offset: %w", i, j, err)
				}
			}
			mo.VertexPayload = items
		case model.MorphBone:
			items := make([]model.BoneMorphItem, count)
			for j := range items {
				if items[j].BoneIndex, err = c.ReadIndex(w.Bone, true); err != nil {
					return fmt.Errorf("pmx: morph %d bone item %d index: %w", i, j, err)
				}
				if items[j].Translation, err = readV3(c); err != nil {
					return fmt.Errorf("pmx: morph %d bone item %d translation: %w", i, j, err)
				}
				if items[j].Orientation, err = readQ(c); err != nil {
					return fmt.Errorf("pmx: morph %d bone item %d orientation: %w", i, j, err)
				}
			}
			mo.BonePayload = items
		case model.MorphUV, model.MorphUV1, model.MorphUV2, model.MorphUV3, model.MorphUV4:
			items := make([]model.UVMorphItem, count)
			for j := range items {
				if items[j].VertexIndex, err = c.ReadIndex(w.Vertex, false); err != nil {
					return fmt.Errorf("pmx: morph %d uv item %d index: %w", i, j, err)
				}
				if items[j].Offset, err = readUV4(c); err != nil {
					return fmt.Errorf("pmx: morph %d uv item %d offset: %w", i, j, err)
				}
			}
			mo.UVPayload = items
		case model.MorphMaterial:
			items := make([]model.MaterialMorphItem, count)
			for j := range items {
				it := &items[j]
				if it.MaterialIndex, err = c.ReadIndex(w.Material, true); err != nil {
					return fmt.Errorf("pmx: morph %d material item %d index: %w", i, j, err)
				}
				op, err := c.ReadU8()
				if err != nil {
					return fmt.Errorf("pmx: morph %d material item %d op: %w", i, j, err)
				}
				it.Op = model.MaterialMorphOp(op)
				if it.Diffuse, err = readColor4(c); err != nil {
					return fmt.Errorf("pmx: morph %d material item %d diffuse: %w", i, j, err)
				}
				if it.Specular, err = readColor3(c); err != nil {
					return fmt.Errorf("pmx: morph %d material item %d specular: %w", i, j, err)
				}
				sp, err := c.ReadF32()
				if err != nil {
					return fmt.Errorf("pmx: morph %d material item %d specular power: %w", i, j, err)
				}
				it.SpecularPower = float64(sp)
				if it.Ambient, err = readColor3(c); err != nil {
					return fmt.Errorf("pmx: morph %d material item %d ambient: %w", i, j, err)
				}
				if it.EdgeColor, err = readColor4(c); err != nil {
					return fmt.Errorf("pmx: morph %d material item %d edge color: %w", i, j, err)
				}
				edgeSize, err := c.ReadF32()
				if err != nil {
					return fmt.Errorf("pmx: morph %d material item %d edge size: %w", i, j, err)
				}
				it.EdgeSize = float64(edgeSize)
			}
			mo.MaterialPayload = items
		case model.MorphFlip:
			items := make([]model.FlipMorphItem, count)
			for j := range items {
				if items[j].MorphIndex, err = c.ReadIndex(w.Morph, true); err != nil {
					return fmt.Errorf("pmx: morph %d flip item %d index: %w", i, j, err)
				}
				wt, err := c.ReadF32()
				if err != nil {
					return fmt.Errorf("pmx: morph %d flip item %d weight: %w", i, j, err)
				}
				items[j].TargetWeight = float64(wt)
			}
			mo.FlipPayload = items
		case model.MorphImpulse:
			items := make([]model.ImpulseMorphItem, count)
			for j := range items {
				it := &items[j]
				if it.RigidBodyIndex, err = c.ReadIndex(w.RigidBody, true); err != nil {
					return fmt.Errorf("pmx: morph %d impulse item %d index: %w", i, j, err)
				}
				local, err := c.ReadU8()
				if err != nil {
					return fmt.Errorf("pmx: morph %d impulse item %d local flag: %w", i, j, err)
				}
				it.Local = local != 0
				if it.Velocity, err = readV3(c); err != nil {
					return fmt.Errorf("pmx: morph %d impulse item %d velocity: %w", i, j, err)
				}
				if it.Torque, err = readV3(c); err != nil {
					return fmt.Errorf("pmx: morph %d impulse item %d torque: %w", i, j, err)
				}
			}
			mo.ImpulsePayload = items
		default:
			return fmt.Errorf("pmx: morph %d kind %d: %w", i, kind, errs.OutOfRangeValue)
		}
	}
	m.Morphs = out
	return nil
}

func readDisplayFrames(c *cursor.Cursor, m *model.Model, w model.IndexWidths, f *text.Factory) error {
	n, err := readCount(c, "display frame")
	if err != nil {
		return err
	}
	out := make([]model.DisplayFrame, n)
	for i := 0; i < n; i++ {
		df := &out[i]
		if df.NameJP, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: display frame %d name (jp): %w", i, err)
		}
		if df.NameEN, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: display frame %d name (en): %w", i, err)
		}
		special, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: display frame %d special flag: %w", i, err)
		}
		df.Special = special != 0
		itemCount, err := readCount(c, "display frame item")
		if err != nil {
			return err
		}
		items := make([]model.DisplayFrameItem, itemCount)
		for j := range items {
			kindByte, err := c.ReadU8()
			if err != nil {
				return fmt.Errorf("pmx: display frame %d item %d kind: %w", i, j, err)
			}
			switch kindByte {
			case 0:
				items[j].Kind = model.DisplayFrameBone
				if items[j].Index, err = c.ReadIndex(w.Bone, true); err != nil {
					return fmt.Errorf("pmx: display frame %d item %d bone: %w", i, j, err)
				}
			case 1:
				items[j].Kind = model.DisplayFrameMorph
				if items[j].Index, err = c.ReadIndex(w.Morph, true); err != nil {
					return fmt.Errorf("pmx: display frame %d item %d morph: %w", i, j, err)
				}
			default:
				return fmt.Errorf("pmx: display frame %d item %d kind %d: %w", i, j, kindByte, errs.OutOfRangeValue)
			}
		}
		df.Items = items
	}
	m.DisplayFrames = out
	return nil
}

func readRigidBodies(c *cursor.Cursor, m *model.Model, w model.IndexWidths, f *text.Factory) error {
	n, err := readCount(c, "rigid body")
	if err != nil {
		return err
	}
	out := make([]model.RigidBody, n)
	for i := 0; i < n; i++ {
		rb := &out[i]
		if rb.NameJP, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: rigid body %d name (jp): %w", i, err)
		}
		if rb.NameEN, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: rigid body %d name (en): %w", i, err)
		}
		if rb.BoneIndex, err = c.ReadIndex(w.Bone, true); err != nil {
			return fmt.Errorf("pmx: rigid body %d bone: %w", i, err)
		}
		group, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: rigid body %d collision group: %w", i, err)
		}
		rb.CollisionGroup = group
		mask, err := c.ReadU16()
		if err != nil {
			return fmt.Errorf("pmx: rigid body %d collision mask: %w", i, err)
		}
		rb.CollisionMask = mask
		shape, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: rigid body %d shape: %w", i, err)
		}
		rb.Shape = model.ShapeKind(shape)
		if rb.ShapeSize, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: rigid body %d shape size: %w", i, err)
		}
		if rb.Origin, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: rigid body %d origin: %w", i, err)
		}
		if rb.OrientationEuler, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: rigid body %d orientation: %w", i, err)
		}
		fields := []*float64{&rb.Mass, &rb.LinearDamping, &rb.AngularDamping, &rb.Restitution, &rb.Friction}
		for _, field := range fields {
			v, err := c.ReadF32()
			if err != nil {
				return fmt.Errorf("pmx: rigid body %d scalar field: %w", i, err)
			}
			*field = float64(v)
		}
		transform, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: rigid body %d transform kind: %w", i, err)
		}
		rb.Transform = model.RigidBodyTransformKind(transform)
	}
	m.RigidBodies = out
	return nil
}

func readJoints(c *cursor.Cursor, m *model.Model, w model.IndexWidths, f *text.Factory) error {
	n, err := readCount(c, "joint")
	if err != nil {
		return err
	}
	out := make([]model.PhysicsJoint, n)
	for i := 0; i < n; i++ {
		j := &out[i]
		if j.NameJP, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: joint %d name (jp): %w", i, err)
		}
		if j.NameEN, err = readText(c, f); err != nil {
			return fmt.Errorf("pmx: joint %d name (en): %w", i, err)
		}
		kind, err := c.ReadU8()
		if err != nil {
			return fmt.Errorf("pmx: joint %d kind: %w", i, err)
		}
		j.Kind = model.PhysicsJointKind(kind)
		if j.Kind != model.JointSpring6DOF && m.Header.Version < 2.1 {
			log.Printf("pmx: dev warning. joint %d kind %d requires PMX 2.1, file declares version %v", i, j.Kind, m.Header.Version)
		}
		if j.BodyAIndex, err = c.ReadIndex(w.RigidBody, true); err != nil {
			return fmt.Errorf("pmx: joint %d body a: %w", i, err)
		}
		if j.BodyBIndex, err = c.ReadIndex(w.RigidBody, true); err != nil {
			return fmt.Errorf("pmx: joint %d body b: %w", i, err)
		}
		if j.Origin, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: joint %d origin: %w", i, err)
		}
		if j.OrientationEuler, err = readV3(c); err != nil {
			return fmt.Errorf("pmx: joint %d orientation: %w", i, err)
		}
		vecs := []*lin.V3{&j.LinearLowerLimit, &j.LinearUpperLimit, &j.AngularLowerLimit, &j.AngularUpperLimit, &j.LinearStiffness, &j.AngularStiffness}
		for _, vec := range vecs {
			*vec, err = readV3(c)
			if err != nil {
				return fmt.Errorf("pmx: joint %d limit/stiffness vector: %w", i, err)
			}
		}
	}
	m.Joints = out
	return nil
}

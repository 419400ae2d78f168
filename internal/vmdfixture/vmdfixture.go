// Package vmdfixture decodes just enough of the VMD bone-keyframe
// layout named in spec.md §6 to let this repo's own tests build
// realistic morph-weight/bone-pose sampler output without
// hand-authoring thousands of floats. It is test-support only: no
// package outside a _test.go file imports it, and it is not part of
// the Scene/Model public surface.
package vmdfixture

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
)

// headerLen is the 30-byte fixed signature/version block, nameLen the
// 20-byte model-name block, keyframeLen one bone keyframe: a 15-byte
// name, u32 frame number, 3×f32 position, 4×f32 rotation and 64 bytes
// of interpolation curve parameters this fixture reader does not use.
const (
	headerLen    = 30
	modelNameLen = 20
	boneNameLen  = 15
	keyframeLen  = boneNameLen + 4 + 12 + 16 + 64
)

// BoneKeyframe is one decoded bone sample: a name, the frame it is
// authored at, and the local pose at that frame.
type BoneKeyframe struct {
	BoneName    string
	Frame       uint32
	Translation lin.V3
	Rotation    lin.Q
}

// Document is the subset of a VMD file this fixture reader resolves:
// the model name and its bone keyframes. Morph, camera, light, shadow
// and IK blocks are not decoded; no test in this repo needs them.
type Document struct {
	ModelName string
	Bones     []BoneKeyframe
}

// Decode reads a Document from r. It expects exactly the layout
// spec.md §6 names for the header, model-name block and bone-keyframe
// array; anything shorter fails with errs.EndOfBuffer.
func Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vmdfixture: read: %w", err)
	}
	pos := 0
	need := func(n int) error {
		if pos+n > len(raw) {
			return fmt.Errorf("vmdfixture: need %d bytes at offset %d: %w", n, pos, errs.EndOfBuffer)
		}
		return nil
	}

	if err := need(headerLen); err != nil {
		return nil, err
	}
	pos += headerLen

	if err := need(modelNameLen); err != nil {
		return nil, err
	}
	name := trimNull(raw[pos : pos+modelNameLen])
	pos += modelNameLen

	if err := need(4); err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(raw[pos:])
	pos += 4

	doc := &Document{ModelName: name, Bones: make([]BoneKeyframe, 0, count)}
	for i := uint32(0); i < count; i++ {
		if err := need(keyframeLen); err != nil {
			return nil, err
		}
		kf := BoneKeyframe{
			BoneName: trimNull(raw[pos : pos+boneNameLen]),
			Frame:    binary.LittleEndian.Uint32(raw[pos+boneNameLen:]),
		}
		cursor := pos + boneNameLen + 4
		kf.Translation = lin.V3{
			X: float64(readF32(raw, cursor)),
			Y: float64(readF32(raw, cursor+4)),
			Z: float64(readF32(raw, cursor+8)),
		}
		cursor += 12
		kf.Rotation = lin.Q{
			X: float64(readF32(raw, cursor)),
			Y: float64(readF32(raw, cursor+4)),
			Z: float64(readF32(raw, cursor+8)),
			W: float64(readF32(raw, cursor+12)),
		}
		doc.Bones = append(doc.Bones, kf)
		pos += keyframeLen
	}
	return doc, nil
}

func readF32(raw []byte, at int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(raw[at:]))
}

func trimNull(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Package bone implements stage 3 of the per-frame pipeline: forward
// kinematics. Update walks every bone parent-before-child in
// stage-index order, composing each bone's local pose (translation,
// rotation, inherent blending, fixed-axis projection, local-axis
// reframing) into a world transform, and invokes the ik package's CCD
// solver whenever traversal reaches a bone carrying a constraint.
package bone

import (
	"math"
	"sort"

	"github.com/CryptorGit/MiniMikuDanceMobile/config"
	"github.com/CryptorGit/MiniMikuDanceMobile/ik"
	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

// Update recomputes world transforms for every bone in m. opts may be
// nil, in which case the IK solver uses each constraint's own stored
// iteration count with no external cap.
func Update(m *model.Model, opts *config.Options) {
	hint := 0
	if opts != nil {
		hint = opts.MaxIKIterationsHint
	}
	order := traversalOrder(m)
	recompute(m, order, hint, true)
}

// recompute composes local-to-world transforms for every bone in
// order. allowIK gates whether a bone's own constraint is solved here;
// it is false when recompute is invoked as an ik.Propagate callback,
// since re-entering the solver for the same bone from inside its own
// propagate step would recurse forever. This trades exact
// subtree-only re-propagation for a full skeleton recompute on every
// joint step, cheap enough at the bone counts this pipeline targets.
func recompute(m *model.Model, order []int32, maxIterationsHint int, allowIK bool) {
	for _, idx := range order {
		composeBone(m, idx)
		b := &m.Bones[idx]
		if allowIK && b.Constraint != nil {
			ik.Solve(m, idx, maxIterationsHint, func() { recompute(m, order, maxIterationsHint, false) })
		}
	}
}

// traversalOrder returns bone indices sorted stage-index ascending,
// with parent-before-child enforced inside each stage via hierarchy
// depth. PMX stage assignments are expected to respect the parent
// chain, so depth only needs to break ties within a stage; it is not
// itself a correctness requirement across stages.
func traversalOrder(m *model.Model) []int32 {
	n := m.BoneCount()
	depth := make([]int, n)
	for i := 0; i < n; i++ {
		depth[i] = boneDepth(m, int32(i), make(map[int32]bool))
	}
	order := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		bi, _ := m.Bone(order[i])
		bj, _ := m.Bone(order[j])
		if bi.StageIndex != bj.StageIndex {
			return bi.StageIndex < bj.StageIndex
		}
		return depth[order[i]] < depth[order[j]]
	})
	return order
}

// boneDepth walks parent links to the root. visiting guards against a
// malformed parent cycle slipping past model.Validate; a bone caught
// in one is simply treated as its own root.
func boneDepth(m *model.Model, idx int32, visiting map[int32]bool) int {
	b, ok := m.Bone(idx)
	if !ok || b.ParentIndex == model.NoIndex || visiting[idx] {
		return 0
	}
	visiting[idx] = true
	return 1 + boneDepth(m, b.ParentIndex, visiting)
}

// composeBone builds the idx-th bone's local transform, blends in
// inherent rotation/translation and fixed-axis/local-axis projection
// per its flags, then composes it onto its parent's already-computed
// world transform.
func composeBone(m *model.Model, idx int32) {
	b := &m.Bones[idx]

	local := b.LocalTranslation
	rot := b.LocalRotation

	if (b.Flags.InherentRotation || b.Flags.InherentTranslation) && b.Constraint == nil {
		if parent, ok := m.Bone(b.InherentParentIndex); ok {
			if b.Flags.InherentTranslation {
				local.X += parent.LocalTranslation.X * b.InherentCoefficient
				local.Y += parent.LocalTranslation.Y * b.InherentCoefficient
				local.Z += parent.LocalTranslation.Z * b.InherentCoefficient
			}
			if b.Flags.InherentRotation {
				blended := (&lin.Q{}).Slerp(lin.QI, &parent.LocalRotation, b.InherentCoefficient)
				rot = *(&lin.Q{}).Mult(&rot, blended)
				rot.Unit()
			}
		}
	}

	if b.Flags.FixedAxis {
		rot = twistAroundAxis(rot, b.FixedAxis)
	}
	if b.Flags.LocalAxes {
		rot = reframe(rot, b.LocalXAxis, b.LocalZAxis)
	}

	b.LocalRotation = rot

	if b.ParentIndex == model.NoIndex {
		b.WorldLoc = lin.V3{X: b.Origin.X + local.X, Y: b.Origin.Y + local.Y, Z: b.Origin.Z + local.Z}
		b.WorldRot = rot
		return
	}

	parent := m.Bones[b.ParentIndex]
	localPos := lin.V3{X: b.Origin.X + local.X, Y: b.Origin.Y + local.Y, Z: b.Origin.Z + local.Z}
	rotated := (&lin.V3{}).MultvQ(&localPos, &parent.WorldRot)
	b.WorldLoc = lin.V3{X: parent.WorldLoc.X + rotated.X, Y: parent.WorldLoc.Y + rotated.Y, Z: parent.WorldLoc.Z + rotated.Z}
	b.WorldRot = *(&lin.Q{}).Mult(&parent.WorldRot, &rot)
}

// twistAroundAxis keeps only the component of rot that rotates around
// axis (the twist), discarding the orthogonal swing. A fixed-axis bone
// can only ever rotate about its one declared axis, so any swing
// component is an artifact of whatever produced rot (morph blend,
// inherent parent) rather than a pose this bone can actually express.
func twistAroundAxis(rot lin.Q, axis lin.V3) lin.Q {
	n := normalize(axis)
	if n.X == 0 && n.Y == 0 && n.Z == 0 {
		return rot
	}
	d := rot.X*n.X + rot.Y*n.Y + rot.Z*n.Z
	twist := lin.Q{X: d * n.X, Y: d * n.Y, Z: d * n.Z, W: rot.W}
	twist.Unit()
	return twist
}

// reframe re-expresses rot's rotation axis in the bone's declared
// local X/Z frame before it is composed with the parent's world
// rotation, so a local-axes bone's authored rotation is interpreted
// relative to its own reference frame rather than the global axes.
// The basis change goes through lin.M3.SetBasis/V3.MultvM rather than a
// hand-rolled dot-product expansion.
func reframe(rot lin.Q, localX, localZ lin.V3) lin.Q {
	x := normalize(localX)
	z := normalize(localZ)
	y := lin.V3{}
	y.Cross(&z, &x)
	y = normalize(y)

	basis := (&lin.M3{}).SetBasis(&x, &y, &z)

	ax, ay, az, angle := rot.Aa()
	axis := (&lin.V3{}).MultvM(&lin.V3{X: ax, Y: ay, Z: az}, basis)
	return *(&lin.Q{}).SetAa(axis.X, axis.Y, axis.Z, angle)
}

func normalize(v lin.V3) lin.V3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l < 1e-9 {
		return lin.V3{}
	}
	return lin.V3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

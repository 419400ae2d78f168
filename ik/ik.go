// Package ik implements the bounded-iteration cyclic-coordinate-descent
// (CCD) solver that closes an IK constraint's joint chain toward its
// owning bone's world position. It holds no traversal state of its
// own: the bone package invokes Solve when it reaches a bone carrying
// a non-nil Constraint, and supplies a Propagate callback so this
// package never needs to know how world transforms are recomputed.
package ik

import (
	"math"

	"github.com/CryptorGit/MiniMikuDanceMobile/math/lin"
	"github.com/CryptorGit/MiniMikuDanceMobile/model"
)

// convergenceEpsilon matches the 1e-6 example named in the IK solver's
// contract for "close enough, stop iterating".
const convergenceEpsilon = 1e-6

// Propagate recomputes every bone's world transform from the skeleton
// root down, called after each joint rotation is applied so the next
// joint in the chain sees up-to-date positions.
type Propagate func()

// Solve runs up to the constraint's iteration count (or
// maxIterationsHint, whichever is smaller and positive) of CCD on the
// constraint attached to targetIndex. A bone with no constraint is a
// no-op. maxIterationsHint of 0 means "no hint, use the constraint's
// own stored count".
func Solve(m *model.Model, targetIndex int32, maxIterationsHint int, propagate Propagate) {
	target, ok := m.Bone(targetIndex)
	if !ok || target.Constraint == nil {
		return
	}
	con := target.Constraint
	iterations := int(con.IterationCount)
	if maxIterationsHint > 0 && maxIterationsHint < iterations {
		iterations = maxIterationsHint
	}

	for iter := 0; iter < iterations; iter++ {
		converged := true
		for ji := range con.Joints {
			if step(m, target, con, ji) {
				propagate()
			} else {
				continue
			}
			converged = false
		}
		effector, okE := m.Bone(con.EffectorIndex)
		if okE && effector.WorldLoc.Dist(&target.WorldLoc) < convergenceEpsilon {
			return
		}
		if converged {
			return
		}
	}
}

// step applies one CCD rotation to the joint-th link of con and
// reports whether it changed that joint's local rotation.
func step(m *model.Model, target *model.Bone, con *model.Constraint, jointIdx int) bool {
	effector, ok := m.Bone(con.EffectorIndex)
	if !ok {
		return false
	}
	joint := con.Joints[jointIdx]
	jointBone, ok := m.Bone(joint.BoneIndex)
	if !ok {
		return false
	}

	effectorPos := effector.WorldLoc
	targetPos := target.WorldLoc
	if effectorPos.Dist(&targetPos) < convergenceEpsilon {
		return false
	}

	origin := jointBone.WorldLoc
	av := (&lin.V3{}).Sub(&effectorPos, &origin)
	bv := (&lin.V3{}).Sub(&targetPos, &origin)
	if av.Len() < convergenceEpsilon || bv.Len() < convergenceEpsilon {
		return false
	}
	an := av.Unit()
	bn := bv.Unit()

	axis := &lin.V3{}
	if ok := axis.SwingAxis(an, bn); !ok {
		return false
	}

	cosAngle := lin.Clamp(an.Dot(bn), -1, 1)
	angle := math.Acos(cosAngle)
	if con.AngleLimitPerIteration > 0 && angle > con.AngleLimitPerIteration {
		angle = con.AngleLimitPerIteration
	}
	if angle < convergenceEpsilon {
		return false
	}

	delta := (&lin.Q{}).SetAa(axis.X, axis.Y, axis.Z, angle)
	newRot := (&lin.Q{}).Mult(delta, &jointBone.LocalRotation)
	newRot.Unit()

	if joint.HasLimit {
		ex, ey, ez := eulerFromQ(newRot)
		ex = lin.Clamp(ex, joint.Lower.X, joint.Upper.X)
		ey = lin.Clamp(ey, joint.Lower.Y, joint.Upper.Y)
		ez = lin.Clamp(ez, joint.Lower.Z, joint.Upper.Z)
		newRot = qFromEuler(ex, ey, ez)
	}

	jointBone.LocalRotation = *newRot
	return true
}

// eulerFromQ extracts XYZ intrinsic Euler angles (radians) from a unit
// quaternion. Used only for per-axis IK joint-limit clamping; no
// example in the retrieved pack needs quaternion<->Euler conversion
// and none ships a third-party quaternion/Euler library, so this is
// implemented directly against the standard trigonometric formulas
// rather than reaching for a dependency nothing else in the pack uses.
func eulerFromQ(q *lin.Q) (x, y, z float64) {
	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	x = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if math.Abs(sinp) >= 1 {
		y = math.Copysign(math.Pi/2, sinp)
	} else {
		y = math.Asin(sinp)
	}

	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	z = math.Atan2(sinyCosp, cosyCosp)
	return x, y, z
}

// qFromEuler is the inverse of eulerFromQ.
func qFromEuler(x, y, z float64) *lin.Q {
	cx, sx := math.Cos(x/2), math.Sin(x/2)
	cy, sy := math.Cos(y/2), math.Sin(y/2)
	cz, sz := math.Cos(z/2), math.Sin(z/2)
	return &lin.Q{
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}

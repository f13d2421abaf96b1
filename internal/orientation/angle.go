// Package orientation computes how far each thrust-direction reference of a
// part tilts away from local vertical.
package orientation

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/slefx/plumectl/pkg/core"
)

// Angle returns the signed angle in degrees between forward and the local up of a
// part at pose, measured in the part's de-rotated frame. ok is false when either
// direction is degenerate.
func Angle(forward mgl32.Vec3, pose core.Pose, bodyCenter mgl64.Vec3) (deg float32, ok bool) {
	l := forward.Len()
	if l == 0 || math32.IsNaN(l) {
		return 0, false
	}
	dir := forward.Mul(1 / l)

	up := core.Up(pose.Position, bodyCenter)
	if up.Len() == 0 {
		return 0, false
	}

	inv := pose.Rotation.Normalize().Inverse()
	dirNoRot := inv.Rotate(dir)
	upNoRot := inv.Rotate(up)

	d := dirNoRot.Dot(upNoRot)
	d = mgl32.Clamp(d, -1, 1)
	return mgl32.RadToDeg(math32.Asin(d)), true
}

// Source supplies the reference directions of a part.
type Source interface {
	Pose() core.Pose
	Reference(ref core.Reference) (forward mgl32.Vec3, ok bool)
}

// Set holds the angles of the four references; absent ones are not present.
type Set struct {
	values  [core.ReferenceCount]float32
	present [core.ReferenceCount]bool
}

// Get returns the angle for ref.
func (s Set) Get(ref core.Reference) (float32, bool) {
	if int(ref) >= core.ReferenceCount {
		return 0, false
	}
	return s.values[ref], s.present[ref]
}

// Calculate computes a fresh Set from the current pose. A nil source yields an empty Set.
func Calculate(src Source, bodyCenter mgl64.Vec3) Set {
	var out Set
	if src == nil {
		return out
	}
	pose := src.Pose()
	for ref := core.Reference(0); ref < core.ReferenceCount; ref++ {
		fwd, ok := src.Reference(ref)
		if !ok {
			continue
		}
		if deg, ok := Angle(fwd, pose, bodyCenter); ok {
			out.values[ref] = deg
			out.present[ref] = true
		}
	}
	return out
}

// Apply writes the present angles to f.
func (s Set) Apply(f *core.Frame) {
	for ref := core.Reference(0); ref < core.ReferenceCount; ref++ {
		if s.present[ref] {
			f.Set(ref.Signal(), s.values[ref])
		}
	}
}

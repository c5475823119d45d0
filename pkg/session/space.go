package session

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/input"
	"github.com/camxr/camxr/pkg/xrmath"
)

// ReferenceSpaceType names a coordinate origin convention.
type ReferenceSpaceType string

const (
	RefViewer       ReferenceSpaceType = "viewer"
	RefLocal        ReferenceSpaceType = "local"
	RefLocalFloor   ReferenceSpaceType = "local-floor"
	RefBoundedFloor ReferenceSpaceType = "bounded-floor"
)

// isFloorRelative reports whether poses against this space get the
// standing-height origin (on the floor rather than at eye level).
func (t ReferenceSpaceType) isFloorRelative() bool {
	return t == RefLocalFloor || t == RefBoundedFloor
}

// ReferenceSpace is a type tag plus an optional origin offset. The offset
// is arithmetic on top of the live head pose; it never mutates the
// underlying tracking state.
type ReferenceSpace struct {
	Type   ReferenceSpaceType
	offset *xrmath.RigidTransform
}

// OffsetBy returns a new reference space whose origin is displaced by the
// given transform. The receiver is unchanged; offsets compose.
func (r *ReferenceSpace) OffsetBy(t *xrmath.RigidTransform) *ReferenceSpace {
	offset := t
	if r.offset != nil {
		offset = r.offset.Mul(t)
	}
	return &ReferenceSpace{Type: r.Type, offset: offset}
}

// SpaceKind tags the closed set of queryable space variants. Dispatch is
// by tag, not runtime type checks.
type SpaceKind int

const (
	KindReference SpaceKind = iota
	KindTargetRay
	KindGrip
	KindJoint
)

// Space is one queryable coordinate space: a reference space, an input
// source's target-ray or grip space, or a single hand joint's space.
type Space struct {
	Kind   SpaceKind
	Ref    *ReferenceSpace
	Source *input.Source
	Joint  int
}

// TargetRaySpace returns the pointing space of an input source.
func TargetRaySpace(src *input.Source) *Space {
	return &Space{Kind: KindTargetRay, Source: src}
}

// GripSpace returns the holding space of an input source.
func GripSpace(src *input.Source) *Space {
	return &Space{Kind: KindGrip, Source: src}
}

// JointSpace returns the space of one joint of a tracked hand.
func JointSpace(src *input.Source, joint int) *Space {
	return &Space{Kind: KindJoint, Source: src, Joint: joint}
}

// translationY is a helper for eye-level origins.
func translationY(y float64) *xrmath.RigidTransform {
	return xrmath.NewRigidTransform(mgl64.Vec3{0, y, 0}, mgl64.QuatIdent())
}

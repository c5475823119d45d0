package session

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/xrmath"
)

// Frame is the per-tick query surface. It is valid only while its tick's
// callbacks are being dispatched; the session invalidates it afterwards,
// so applications cannot smuggle a frame out of its callback and poll
// stale state.
type Frame struct {
	session *Session

	// Timestamp is the frame time in milliseconds, monotonic within a
	// session.
	Timestamp float64

	active bool
}

// JointPose is a hand joint's pose plus its contact radius.
type JointPose struct {
	Transform *xrmath.RigidTransform
	Radius    float64
}

// ViewerPose returns the viewer's pose and views in the given reference
// space. Floor-relative spaces place the origin on the floor, so the
// standing height offset is added; viewer and plain local spaces are
// eye-level and get none. Any origin offset registered on the space is
// subtracted.
func (f *Frame) ViewerPose(ref *ReferenceSpace) (*ViewerPose, error) {
	if !f.active {
		return nil, ErrFrameInactive
	}

	world := f.session.headWorld()
	rel := f.session.refTransform(ref).Inverse().Mul(world)
	return &ViewerPose{
		Transform: rel,
		Views:     f.session.synthesizeViews(rel),
	}, nil
}

// Pose returns the pose of a space relative to a base reference space, or
// nil when the space's backing data is not currently tracked.
func (f *Frame) Pose(space *Space, base *ReferenceSpace) (*xrmath.RigidTransform, error) {
	if !f.active {
		return nil, ErrFrameInactive
	}

	world := f.worldPose(space)
	if world == nil {
		return nil, nil
	}
	return f.session.refTransform(base).Inverse().Mul(world), nil
}

// JointPose returns the pose and radius of one hand joint relative to a
// base reference space, or nil when the hand is not tracked.
func (f *Frame) JointPose(space *Space, base *ReferenceSpace) (*JointPose, error) {
	if !f.active {
		return nil, ErrFrameInactive
	}
	if space.Kind != KindJoint || space.Source == nil || space.Source.Hand == nil {
		return nil, nil
	}
	if space.Joint < 0 || space.Joint >= hand.JointCount {
		return nil, nil
	}

	j := space.Source.Hand.Joints[space.Joint]
	world := xrmath.NewRigidTransform(j.Position, j.Orientation)
	return &JointPose{
		Transform: f.session.refTransform(base).Inverse().Mul(world),
		Radius:    j.Radius,
	}, nil
}

// worldPose resolves a space variant to its pose in tracking space,
// dispatching on the tag.
func (f *Frame) worldPose(space *Space) *xrmath.RigidTransform {
	switch space.Kind {
	case KindReference:
		return f.session.refTransform(space.Ref)
	case KindTargetRay:
		if space.Source == nil || !space.Source.Visible {
			return nil
		}
		return space.Source.TargetRay
	case KindGrip:
		if space.Source == nil || !space.Source.Visible {
			return nil
		}
		return space.Source.Grip
	case KindJoint:
		if space.Source == nil || space.Source.Hand == nil {
			return nil
		}
		j := space.Source.Hand.Joints[space.Joint]
		return xrmath.NewRigidTransform(j.Position, j.Orientation)
	}
	return nil
}

// headWorld returns the fused head pose lifted into floor-origin tracking
// space.
func (s *Session) headWorld() *xrmath.RigidTransform {
	pos, rot := s.fuser.HeadPose()
	return xrmath.NewRigidTransform(pos.Add(mgl64.Vec3{0, s.cfg.FloorOffset, 0}), rot)
}

// refTransform returns a reference space's origin in tracking space,
// including any registered origin offset.
func (s *Session) refTransform(ref *ReferenceSpace) *xrmath.RigidTransform {
	var base *xrmath.RigidTransform
	switch {
	case ref.Type == RefViewer:
		base = s.headWorld()
	case ref.Type.isFloorRelative():
		base = xrmath.IdentityTransform()
	default:
		base = translationY(s.cfg.FloorOffset)
	}
	if ref.offset != nil {
		base = base.Mul(ref.offset)
	}
	return base
}

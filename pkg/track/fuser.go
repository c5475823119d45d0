// Package track fuses raw per-frame detector observations into a smoothed
// head pose and per-side hand skeletons in API coordinate space.
//
// The camera feed is mirrored for self-view, so the horizontal axis is
// flipped throughout: a real-world leftward head turn maps to a leftward
// view rotation in the synthesized scene.
package track

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/detect"
	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/xrmath"
)

// Fuser owns the live tracking state. It is mutated only from the session
// tick goroutine; see the session package for the ordering guarantees.
type Fuser struct {
	cfg Config

	lastTS  int64
	hasSeen bool

	headPos mgl64.Vec3
	headRot mgl64.Quat
	hasHead bool

	hands [hand.SideCount]*hand.Skeleton
}

// New creates a fuser with the identity head pose.
func New(cfg Config) *Fuser {
	return &Fuser{
		cfg:     cfg,
		headRot: mgl64.QuatIdent(),
	}
}

// Ingest consumes one detector result. A result carrying an already-seen
// video timestamp is a no-op; repeated polling against the same camera
// frame must not re-apply smoothing. Returns whether the result was
// applied.
func (f *Fuser) Ingest(res *detect.Result) bool {
	if res == nil {
		return false
	}
	if f.hasSeen && res.TimestampMS == f.lastTS {
		return false
	}
	f.lastTS = res.TimestampMS
	f.hasSeen = true

	if res.Face != nil {
		f.updateHead(res.Face)
	}

	// Absence is data: a side not in this result loses its skeleton
	// rather than keeping stale joints.
	var next [hand.SideCount]*hand.Skeleton
	for i := range res.Hands {
		h := &res.Hands[i]
		side := hand.Right
		if h.Handedness == detect.HandednessLeft {
			side = hand.Left
		}
		next[side] = f.buildHand(side, h)
	}
	f.hands = next

	return true
}

// HeadPose returns the current smoothed head position and orientation.
// The orientation is always unit length.
func (f *Fuser) HeadPose() (mgl64.Vec3, mgl64.Quat) {
	return f.headPos, f.headRot
}

// Hand returns the current skeleton for a side, or nil when the hand was
// not detected on the last processed frame.
func (f *Fuser) Hand(side hand.Side) *hand.Skeleton {
	return f.hands[side]
}

// updateHead applies one facial observation. The matrix path carries full
// position and orientation; the landmark fallback only nudges position,
// holding the last smoothed orientation.
func (f *Fuser) updateHead(face *detect.FaceResult) {
	switch {
	case face.Matrix != nil:
		pos, rot := f.headFromMatrix(face.Matrix)
		f.smoothTo(pos, rot, true)
	case len(face.Landmarks) > 0:
		// Nose tip only: a cheap position estimate.
		nose := face.Landmarks[noseTipIndex(face.Landmarks)]
		pos := mgl64.Vec3{
			(0.5 - nose.X) * f.cfg.FallbackPositionScale,
			(0.5 - nose.Y) * f.cfg.FallbackPositionScale,
			nose.Z*f.cfg.FallbackDepthScale + f.cfg.DepthBias,
		}
		f.smoothTo(pos, f.headRot, false)
	}
}

// noseTipIndex picks the reference landmark for the fallback path. The
// detector puts the nose tip at index 1 when it reports the full mesh;
// sparser fallback lists start with it.
func noseTipIndex(lms []detect.Landmark) int {
	if len(lms) > 1 {
		return 1
	}
	return 0
}

// headFromMatrix converts the detector's column-major facial transform
// (centimeter scale) into an API-space pose: scaled to meters, recentered
// by the neutral-distance bias, and mirrored horizontally.
func (f *Fuser) headFromMatrix(m *[16]float64) (mgl64.Vec3, mgl64.Quat) {
	s := f.cfg.PositionScale
	pos := mgl64.Vec3{
		-m[12] * s,
		m[13] * s,
		m[14]*s + f.cfg.DepthBias,
	}

	rot3 := mgl64.Mat3FromCols(
		mgl64.Vec3{m[0], m[1], m[2]},
		mgl64.Vec3{m[4], m[5], m[6]},
		mgl64.Vec3{m[8], m[9], m[10]},
	)
	q := xrmath.QuatFromRotationMatrix(rot3)

	// Mirror convention: reflecting the scene across the vertical plane
	// negates the yaw and roll components.
	q = mgl64.Quat{W: q.W, V: mgl64.Vec3{q.V.X(), -q.V.Y(), -q.V.Z()}}.Normalize()

	return pos, q
}

// smoothTo exponentially blends the head pose toward a target. The
// orientation is renormalized after blending; component-wise interpolation
// does not preserve unit length and the drift compounds at frame rate.
func (f *Fuser) smoothTo(pos mgl64.Vec3, rot mgl64.Quat, withRot bool) {
	if !f.hasHead {
		f.headPos = pos
		if withRot {
			f.headRot = rot.Normalize()
		}
		f.hasHead = true
		return
	}

	keep := f.cfg.Smoothing
	f.headPos = f.headPos.Mul(keep).Add(pos.Mul(1 - keep))
	if withRot {
		f.headRot = xrmath.LerpQuat(f.headRot, rot, 1-keep)
	}
}

// buildHand places 21 joints in API space and expands them into a
// skeleton. The wrist anchors relative to the current head pose so hands
// stay visually attached to the viewer regardless of head drift; joint
// offsets come from metric world landmarks when available, else from
// scaled normalized landmarks. Hands get no temporal smoothing: gesture
// interaction tolerates jitter better than lag.
func (f *Fuser) buildHand(side hand.Side, h *detect.HandResult) *hand.Skeleton {
	wrist := h.Landmarks[0]
	anchor := mgl64.Vec3{
		f.headPos.X() + (0.5-wrist.X)*f.cfg.HandAnchorScaleX,
		f.headPos.Y() + (0.5-wrist.Y)*f.cfg.HandAnchorScaleY + f.cfg.EyeHeight - f.cfg.HandAnchorDrop,
		f.headPos.Z() + f.cfg.HandAnchorForward,
	}

	var points [hand.DetectorJointCount]mgl64.Vec3
	if len(h.World) == hand.DetectorJointCount {
		// Metric offsets from the wrist. The detector's down and
		// toward-camera axes flip to up and away-from-viewer.
		for i, w := range h.World {
			points[i] = anchor.Add(mgl64.Vec3{w.X, -w.Y, -w.Z})
		}
	} else {
		for i, lm := range h.Landmarks {
			points[i] = anchor.Add(mgl64.Vec3{
				(wrist.X - lm.X) * f.cfg.HandFallbackScaleXZ,
				(wrist.Y - lm.Y) * f.cfg.HandFallbackScaleY,
				(wrist.Z - lm.Z) * f.cfg.HandFallbackScaleXZ,
			})
		}
	}

	return hand.Build(side, points)
}

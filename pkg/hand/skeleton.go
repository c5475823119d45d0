// Package hand expands the detector's 21-point hand into the 25-joint
// skeleton exposed to applications and derives a per-joint orientation
// along each finger chain.
package hand

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Side identifies which hand a skeleton belongs to.
type Side int

const (
	Left Side = iota
	Right
)

// SideCount is the number of tracked sides.
const SideCount = 2

// String returns "left" or "right".
func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// JointCount is the number of joints in an exposed skeleton.
const JointCount = 25

// JointRadius is the contact radius reported for every joint, in meters.
const JointRadius = 0.01

// Joint indices in the exposed skeleton. Joint 0 is always the wrist;
// joints 1-24 follow thumb, index, middle, ring, pinky, metacarpal to tip
// within each finger.
const (
	Wrist = 0

	ThumbMetacarpal = 1
	ThumbTip        = 4

	IndexMetacarpal = 5
	IndexTip        = 9

	MiddleMetacarpal = 10
	RingMetacarpal   = 15
	PinkyMetacarpal  = 20
)

// DetectorJointCount is the number of points the detector reports.
const DetectorJointCount = 21

// Joint is one skeletal point: a position, a derived orientation, and a
// fixed contact radius. It has no identity beyond its index.
type Joint struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Radius      float64
}

// Skeleton is one hand's full joint set, replaced wholesale each processed
// frame when the hand is detected.
type Skeleton struct {
	Side       Side
	Joints     [JointCount]Joint
	PalmNormal mgl64.Vec3
	Visible    bool
}

// successor maps each joint to the next joint along its finger chain.
// The wrist chains to the index metacarpal; tips are terminal (-1).
var successor = [JointCount]int{
	Wrist: IndexMetacarpal,

	1: 2, 2: 3, 3: 4, 4: -1, // thumb
	5: 6, 6: 7, 7: 8, 8: 9, 9: -1, // index
	10: 11, 11: 12, 12: 13, 13: 14, 14: -1, // middle
	15: 16, 16: 17, 17: 18, 18: 19, 19: -1, // ring
	20: 21, 21: 22, 22: 23, 23: 24, 24: -1, // pinky
}

// detectorBase maps each non-thumb finger's metacarpal joint to the
// detector index of that finger's first reported joint (the knuckle).
var detectorBase = map[int]int{
	IndexMetacarpal:  5,
	MiddleMetacarpal: 9,
	RingMetacarpal:   13,
	PinkyMetacarpal:  17,
}

// Build expands 21 detector points (already converted to API space) into a
// 25-joint skeleton with palm normal and per-joint orientations.
//
// The detector gives 4 thumb points that map 1:1; each other finger gets a
// synthetic metacarpal interpolated at the midpoint between the wrist and
// the finger's knuckle.
func Build(side Side, points [DetectorJointCount]mgl64.Vec3) *Skeleton {
	s := &Skeleton{Side: side, Visible: true}

	var pos [JointCount]mgl64.Vec3
	pos[Wrist] = points[0]
	for i := 0; i < 4; i++ {
		pos[ThumbMetacarpal+i] = points[1+i]
	}
	for meta, base := range detectorBase {
		pos[meta] = midpoint(points[0], points[base])
		for i := 0; i < 4; i++ {
			pos[meta+1+i] = points[base+i]
		}
	}

	s.PalmNormal = palmNormal(side, pos)

	for i := 0; i < JointCount; i++ {
		s.Joints[i] = Joint{
			Position:    pos[i],
			Orientation: jointOrientation(side, i, pos, s.PalmNormal),
			Radius:      JointRadius,
		}
	}
	return s
}

// PinchDistance returns the thumb-tip to index-tip distance in meters.
func (s *Skeleton) PinchDistance() float64 {
	return s.Joints[ThumbTip].Position.Sub(s.Joints[IndexTip].Position).Len()
}

func midpoint(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Add(b).Mul(0.5)
}

// palmNormal is the normalized cross product of the wrist-to-pinky and
// wrist-to-index metacarpal vectors, sign-flipped for the left hand so the
// back of the hand reads the same regardless of handedness. Degenerate
// configurations fall back to straight up.
func palmNormal(side Side, pos [JointCount]mgl64.Vec3) mgl64.Vec3 {
	toPinky := pos[PinkyMetacarpal].Sub(pos[Wrist])
	toIndex := pos[IndexMetacarpal].Sub(pos[Wrist])
	n := toPinky.Cross(toIndex)
	if n.Len() < 1e-9 {
		return worldUp
	}
	n = n.Normalize()
	if side == Left {
		n = n.Mul(-1)
	}
	return n
}

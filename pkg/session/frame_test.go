package session

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/detect"
	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/input"
	"github.com/camxr/camxr/pkg/xrmath"
)

// faceAt builds a detector result whose facial matrix places the head at
// the given detector-space translation (centimeters, no rotation).
func faceAt(ts int64, x, y, z float64) *detect.Result {
	m := [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
	return &detect.Result{TimestampMS: ts, Face: &detect.FaceResult{Matrix: &m}}
}

// handWithPinch builds a detector result whose right hand has the given
// thumb-tip/index-tip distance, in meters.
func handWithPinch(ts int64, d float64) *detect.Result {
	h := detect.HandResult{Handedness: detect.HandednessRight}
	for i := range h.Landmarks {
		h.Landmarks[i] = detect.Landmark{X: 0.5, Y: 0.5}
	}
	h.World = make([]detect.Landmark, hand.DetectorJointCount)
	h.World[8] = detect.Landmark{X: d} // detector index tip
	return &detect.Result{TimestampMS: ts, Hands: []detect.HandResult{h}}
}

// queryFrame runs one tick and hands the frame to fn.
func queryFrame(t *testing.T, s *Session, fn func(*Frame)) {
	t.Helper()
	ran := false
	s.RequestAnimationFrame(func(ts float64, frame *Frame) {
		ran = true
		fn(frame)
	})
	s.tick(0)
	if !ran {
		t.Fatal("frame callback did not run")
	}
}

func TestViewerPose_LocalSpaceTracksHead(t *testing.T) {
	s := newTestSession(t, false)
	ref, _ := s.RequestReferenceSpace(RefLocal)

	inject(s, faceAt(1, 10, 0, 30))
	queryFrame(t, s, func(f *Frame) {
		pose, err := f.ViewerPose(ref)
		if err != nil {
			t.Fatal(err)
		}
		// 10cm mirrored to the left; depth recentered to zero. Local
		// space is eye-level: no height offset.
		want := mgl64.Vec3{-0.1, 0, 0}
		if pose.Transform.Position.Sub(want).Len() > 1e-9 {
			t.Errorf("got %v, want %v", pose.Transform.Position, want)
		}
	})
}

func TestViewerPose_FloorSpaceAddsHeight(t *testing.T) {
	s := newTestSession(t, false)
	ref, _ := s.RequestReferenceSpace(RefLocalFloor)

	queryFrame(t, s, func(f *Frame) {
		pose, err := f.ViewerPose(ref)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(pose.Transform.Position.Y()-s.cfg.FloorOffset) > 1e-9 {
			t.Errorf("floor-relative viewer height: got %v, want %v",
				pose.Transform.Position.Y(), s.cfg.FloorOffset)
		}
	})
}

func TestViewerPose_ViewerSpaceIsIdentity(t *testing.T) {
	s := newTestSession(t, false)
	ref, _ := s.RequestReferenceSpace(RefViewer)

	inject(s, faceAt(1, 25, -5, 40))
	queryFrame(t, s, func(f *Frame) {
		pose, err := f.ViewerPose(ref)
		if err != nil {
			t.Fatal(err)
		}
		if pose.Transform.Position.Len() > 1e-9 {
			t.Errorf("viewer-space viewer position: got %v, want origin", pose.Transform.Position)
		}
	})
}

func TestViewerPose_OriginOffsetIsSubtracted(t *testing.T) {
	s := newTestSession(t, false)
	base, _ := s.RequestReferenceSpace(RefLocal)
	ref := base.OffsetBy(xrmath.NewRigidTransform(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent()))

	queryFrame(t, s, func(f *Frame) {
		pose, err := f.ViewerPose(ref)
		if err != nil {
			t.Fatal(err)
		}
		want := mgl64.Vec3{-1, 0, 0}
		if pose.Transform.Position.Sub(want).Len() > 1e-9 {
			t.Errorf("got %v, want %v", pose.Transform.Position, want)
		}
	})
}

func TestViews_MonoAndStereo(t *testing.T) {
	s := newTestSession(t, false)
	ref, _ := s.RequestReferenceSpace(RefLocal)

	queryFrame(t, s, func(f *Frame) {
		pose, _ := f.ViewerPose(ref)
		if len(pose.Views) != 1 {
			t.Fatalf("mono: got %d views, want 1", len(pose.Views))
		}
		v := pose.Views[0]
		if v.Eye != EyeNone {
			t.Errorf("mono eye: got %s", v.Eye)
		}
		if v.Transform.Position.Sub(pose.Transform.Position).Len() > 1e-12 {
			t.Error("mono view must have zero eye offset")
		}
	})

	s.SetStereo(true)
	queryFrame(t, s, func(f *Frame) {
		pose, _ := f.ViewerPose(ref)
		if len(pose.Views) != 2 {
			t.Fatalf("stereo: got %d views, want 2", len(pose.Views))
		}
		l, r := pose.Views[0], pose.Views[1]
		if l.Eye != EyeLeft || r.Eye != EyeRight {
			t.Errorf("eyes: got %s/%s", l.Eye, r.Eye)
		}
		diff := r.Transform.Position.Sub(l.Transform.Position)
		want := mgl64.Vec3{2 * s.cfg.IPDHalf, 0, 0}
		if diff.Sub(want).Len() > 1e-9 {
			t.Errorf("eye separation: got %v, want %v", diff, want)
		}
		if l.Transform.Orientation != r.Transform.Orientation {
			t.Error("stereo views must share the head orientation")
		}
		if l.Viewport == r.Viewport {
			t.Error("stereo viewports must not overlap")
		}
	})
}

func TestSession_SelectEventsFromPinchStream(t *testing.T) {
	s := newTestSession(t, false)

	var order []string
	s.SetHandlers(Handlers{
		OnSelectStart: func(*input.Source) { order = append(order, "start") },
		OnSelectEnd:   func(*input.Source) { order = append(order, "end") },
	})

	stream := []float64{0.1, 0.1, 0.01, 0.01, 0.01, 0.1, 0.1}
	for i, d := range stream {
		inject(s, handWithPinch(int64(i+1), d))
		s.tick(float64(i) * 16)
	}

	if len(order) != 2 || order[0] != "start" || order[1] != "end" {
		t.Errorf("event order: got %v, want [start end]", order)
	}
}

func TestSession_InputSourcesChangedEvents(t *testing.T) {
	s := newTestSession(t, false)

	var added, removed int
	s.SetHandlers(Handlers{
		OnInputSourcesChanged: func(a, r []*input.Source) {
			added += len(a)
			removed += len(r)
		},
	})

	inject(s, handWithPinch(1, 0.1))
	s.tick(0)
	inject(s, &detect.Result{TimestampMS: 2})
	s.tick(16)

	if added != 1 || removed != 1 {
		t.Errorf("added=%d removed=%d, want 1/1", added, removed)
	}
}

func TestFrame_JointPose(t *testing.T) {
	s := newTestSession(t, true)
	ref, _ := s.RequestReferenceSpace(RefLocalFloor)

	inject(s, handWithPinch(1, 0.05))
	queryFrame(t, s, func(f *Frame) {
		sources := s.InputSources()
		if len(sources) != 1 {
			t.Fatalf("got %d sources, want 1", len(sources))
		}
		src := sources[0]
		if src.Hand == nil {
			t.Fatal("hand-tracking session should expose joints")
		}

		jp, err := f.JointPose(JointSpace(src, hand.Wrist), ref)
		if err != nil {
			t.Fatal(err)
		}
		if jp == nil {
			t.Fatal("wrist joint pose missing")
		}
		if jp.Radius != hand.JointRadius {
			t.Errorf("radius: got %v, want %v", jp.Radius, hand.JointRadius)
		}

		// Centered wrist, head at origin: anchored below standing eye
		// height, pushed forward.
		fusion := s.cfg.Fusion
		want := mgl64.Vec3{0, fusion.EyeHeight - fusion.HandAnchorDrop, fusion.HandAnchorForward}
		if jp.Transform.Position.Sub(want).Len() > 1e-9 {
			t.Errorf("wrist position: got %v, want %v", jp.Transform.Position, want)
		}
	})
}

func TestFrame_PoseOfUntrackedSourceIsNil(t *testing.T) {
	s := newTestSession(t, false)
	ref, _ := s.RequestReferenceSpace(RefLocal)

	inject(s, handWithPinch(1, 0.1))
	s.tick(0)
	src, err := s.registry.Source(hand.Right)
	if err != nil {
		t.Fatal(err)
	}

	// Hand disappears; the persistent source remains but has no pose.
	inject(s, &detect.Result{TimestampMS: 2})
	queryFrame(t, s, func(f *Frame) {
		pose, err := f.Pose(GripSpace(src), ref)
		if err != nil {
			t.Fatal(err)
		}
		if pose != nil {
			t.Errorf("untracked grip pose: got %v, want nil", pose)
		}
	})
}

package track

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/detect"
	"github.com/camxr/camxr/pkg/hand"
)

// identityMatrixAt builds a column-major facial transform with the given
// translation (detector centimeters) and no rotation.
func identityMatrixAt(x, y, z float64) *[16]float64 {
	m := [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
	return &m
}

func faceResult(ts int64, m *[16]float64) *detect.Result {
	return &detect.Result{TimestampMS: ts, Face: &detect.FaceResult{Matrix: m}}
}

func TestIngest_TimestampDeduplication(t *testing.T) {
	f := New(DefaultConfig())

	if !f.Ingest(faceResult(100, identityMatrixAt(0, 0, 30))) {
		t.Fatal("first result should apply")
	}
	pos1, _ := f.HeadPose()

	// Same underlying video frame polled again: must be a no-op even
	// with different payload.
	if f.Ingest(faceResult(100, identityMatrixAt(50, 0, 30))) {
		t.Error("repeated timestamp should not apply")
	}
	pos2, _ := f.HeadPose()
	if pos1 != pos2 {
		t.Errorf("head pose changed on duplicate frame: %v -> %v", pos1, pos2)
	}

	if !f.Ingest(faceResult(101, identityMatrixAt(0, 0, 30))) {
		t.Error("new timestamp should apply")
	}
}

func TestHeadFromMatrix_ScaleBiasMirror(t *testing.T) {
	f := New(DefaultConfig())
	f.Ingest(faceResult(1, identityMatrixAt(10, 5, 30)))

	pos, rot := f.HeadPose()
	// 10cm right in the mirrored feed lands 10cm to the viewer's left;
	// depth recenters around the neutral sitting distance.
	want := mgl64.Vec3{-0.1, 0.05, 0}
	if pos.Sub(want).Len() > 1e-9 {
		t.Errorf("position: got %v, want %v", pos, want)
	}
	if math.Abs(rot.Len()-1) > 1e-9 {
		t.Errorf("orientation not unit: %v", rot.Len())
	}
}

func TestSmoothing_ConvergesMonotonically(t *testing.T) {
	f := New(DefaultConfig())
	f.Ingest(faceResult(1, identityMatrixAt(0, 0, 30)))

	target := mgl64.Vec3{-0.2, 0.1, 0.1}
	prevDist := math.Inf(1)
	for ts := int64(2); ts < 60; ts++ {
		f.Ingest(faceResult(ts, identityMatrixAt(20, 10, 40)))
		pos, rot := f.HeadPose()

		dist := pos.Sub(target).Len()
		if dist >= prevDist {
			t.Fatalf("tick %d: distance %v did not shrink from %v", ts, dist, prevDist)
		}
		prevDist = dist

		if math.Abs(rot.Len()-1) > 1e-9 {
			t.Fatalf("tick %d: orientation drifted off unit length: %v", ts, rot.Len())
		}
	}
	if prevDist > 0.01 {
		t.Errorf("did not converge near target: %v away", prevDist)
	}
}

func TestSmoothing_NoisyRotationsStayUnit(t *testing.T) {
	f := New(DefaultConfig())
	f.Ingest(faceResult(1, identityMatrixAt(0, 0, 30)))

	angles := []float64{0.3, -0.7, 1.2, 2.9, -2.1, 0.05, 1.7}
	for i, a := range angles {
		q := mgl64.QuatRotate(a, mgl64.Vec3{0, 1, 0})
		m := q.Mat4()
		var cm [16]float64
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				cm[c*4+r] = m.At(r, c)
			}
		}
		cm[14] = 30
		f.Ingest(faceResult(int64(i+2), &cm))

		_, rot := f.HeadPose()
		if math.Abs(rot.Len()-1) > 1e-9 {
			t.Fatalf("step %d: orientation length %v", i, rot.Len())
		}
	}
}

func TestFallbackPath_PositionOnlyOrientationHolds(t *testing.T) {
	f := New(DefaultConfig())

	// Establish an orientation via the matrix path.
	q := mgl64.QuatRotate(0.4, mgl64.Vec3{0, 1, 0})
	m := q.Mat4()
	var cm [16]float64
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			cm[c*4+r] = m.At(r, c)
		}
	}
	cm[14] = 30
	f.Ingest(faceResult(1, &cm))
	_, rotBefore := f.HeadPose()

	// Landmark-only update: position nudges, orientation holds.
	f.Ingest(&detect.Result{
		TimestampMS: 2,
		Face: &detect.FaceResult{
			Landmarks: []detect.Landmark{{X: 0.5, Y: 0.5}, {X: 0.4, Y: 0.6, Z: 0.1}},
		},
	})
	_, rotAfter := f.HeadPose()
	if rotBefore != rotAfter {
		t.Errorf("orientation changed on fallback path: %v -> %v", rotBefore, rotAfter)
	}
}

func centeredHand(h detect.Handedness) detect.HandResult {
	res := detect.HandResult{Handedness: h}
	for i := range res.Landmarks {
		res.Landmarks[i] = detect.Landmark{X: 0.5, Y: 0.5}
	}
	return res
}

func TestIngest_HandAppearsAndDisappears(t *testing.T) {
	f := New(DefaultConfig())

	f.Ingest(&detect.Result{TimestampMS: 1, Hands: []detect.HandResult{centeredHand(detect.HandednessRight)}})
	if f.Hand(hand.Right) == nil {
		t.Fatal("right hand should be visible")
	}
	if f.Hand(hand.Left) != nil {
		t.Fatal("left hand should be absent")
	}

	// Next frame without hands: absence, not stale data.
	f.Ingest(&detect.Result{TimestampMS: 2})
	if f.Hand(hand.Right) != nil {
		t.Error("right hand should be absent after a frame with no detections")
	}
}

func TestBuildHand_AnchorFromScreenPosition(t *testing.T) {
	cfg := DefaultConfig()
	f := New(cfg)

	h := centeredHand(detect.HandednessRight)
	// Wrist-relative world landmarks so joint 0 sits exactly at the anchor.
	h.World = make([]detect.Landmark, hand.DetectorJointCount)
	f.Ingest(&detect.Result{TimestampMS: 1, Hands: []detect.HandResult{h}})

	skel := f.Hand(hand.Right)
	if skel == nil {
		t.Fatal("hand not built")
	}

	// Centered wrist, head at origin: anchor is dropped below standing
	// eye height and pushed forward.
	want := mgl64.Vec3{0, cfg.EyeHeight - cfg.HandAnchorDrop, cfg.HandAnchorForward}
	got := skel.Joints[hand.Wrist].Position
	if got.Sub(want).Len() > 1e-9 {
		t.Errorf("wrist anchor: got %v, want %v", got, want)
	}
}

func TestBuildHand_WorldLandmarkAxisConversion(t *testing.T) {
	f := New(DefaultConfig())

	h := centeredHand(detect.HandednessRight)
	h.World = make([]detect.Landmark, hand.DetectorJointCount)
	// Thumb cmc 3cm right, 2cm down, 1cm toward the camera in detector
	// space: down flips to up, toward-camera flips to away-from-viewer.
	h.World[1] = detect.Landmark{X: 0.03, Y: 0.02, Z: 0.01}
	f.Ingest(&detect.Result{TimestampMS: 1, Hands: []detect.HandResult{h}})

	skel := f.Hand(hand.Right)
	wrist := skel.Joints[hand.Wrist].Position
	thumb := skel.Joints[hand.ThumbMetacarpal].Position
	offset := thumb.Sub(wrist)
	want := mgl64.Vec3{0.03, -0.02, -0.01}
	if offset.Sub(want).Len() > 1e-9 {
		t.Errorf("world offset: got %v, want %v", offset, want)
	}
}

func TestBuildHand_NormalizedFallbackScales(t *testing.T) {
	cfg := DefaultConfig()
	f := New(cfg)

	h := centeredHand(detect.HandednessRight)
	h.Landmarks[1] = detect.Landmark{X: 0.4, Y: 0.6, Z: -0.05}
	f.Ingest(&detect.Result{TimestampMS: 1, Hands: []detect.HandResult{h}})

	skel := f.Hand(hand.Right)
	offset := skel.Joints[hand.ThumbMetacarpal].Position.Sub(skel.Joints[hand.Wrist].Position)
	want := mgl64.Vec3{
		(0.5 - 0.4) * cfg.HandFallbackScaleXZ,
		(0.5 - 0.6) * cfg.HandFallbackScaleY,
		(0 - (-0.05)) * cfg.HandFallbackScaleXZ,
	}
	if offset.Sub(want).Len() > 1e-9 {
		t.Errorf("fallback offset: got %v, want %v", offset, want)
	}
}

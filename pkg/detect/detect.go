// Package detect defines the contract with the external landmark detector
// service and provides a websocket client for it. The detector is an opaque
// collaborator: given a camera frame and a timestamp it returns facial and
// hand landmark sets. Everything downstream treats it as a black box.
package detect

import "errors"

var (
	// ErrUnavailable is returned when the detector service cannot be
	// reached. Tracking degrades but the session stays alive.
	ErrUnavailable = errors.New("detector unavailable")

	// ErrClosed is returned when Detect is called after Close.
	ErrClosed = errors.New("detector closed")
)

// HandLandmarkCount is the number of landmarks the detector reports per hand.
const HandLandmarkCount = 21

// Handedness labels which hand a landmark set belongs to, as reported by
// the detector.
type Handedness string

const (
	HandednessLeft  Handedness = "Left"
	HandednessRight Handedness = "Right"
)

// Landmark is a single detector-reported point. Face and hand landmarks are
// normalized to the frame ([0,1] with y down); world landmarks are metric,
// relative to the wrist.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceResult is the facial half of a detector response. Matrix, when
// present, is a column-major 4x4 facial transformation matrix in detector
// space (centimeter scale). Landmarks is the lower-fidelity fallback used
// when no matrix is available.
type FaceResult struct {
	Matrix    *[16]float64 `json:"matrix,omitempty"`
	Landmarks []Landmark   `json:"landmarks,omitempty"`
}

// HandResult is one detected hand: a handedness label, 21 normalized
// landmarks, and optionally 21 metric world landmarks relative to the wrist.
type HandResult struct {
	Handedness Handedness                 `json:"handedness"`
	Landmarks  [HandLandmarkCount]Landmark `json:"landmarks"`
	World      []Landmark                  `json:"world,omitempty"`
}

// Result is one detector response. TimestampMS is the timestamp of the
// underlying video frame; the fusion layer uses it to de-duplicate repeated
// polls against the same frame.
type Result struct {
	TimestampMS int64        `json:"ts"`
	Face        *FaceResult  `json:"face,omitempty"`
	Hands       []HandResult `json:"hands,omitempty"`
}

// Detector is the interface for landmark detection backends.
type Detector interface {
	// Detect runs detection on a JPEG frame captured at the given
	// timestamp. A result with no face and no hands means nothing was
	// detected, not an error.
	Detect(jpeg []byte, timestampMS int64) (*Result, error)

	// Close releases resources.
	Close() error
}

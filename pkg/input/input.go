// Package input maps tracked hands to persistent input sources, synthesizes
// a gamepad-style pinch trigger, and raises select and sources-changed
// events. Sources keep stable identity across transient detection loss so
// applications may cache references to them.
package input

import (
	"errors"

	"github.com/google/uuid"

	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/xrmath"
)

// ErrNoSource is returned when querying a side that has never appeared.
var ErrNoSource = errors.New("input source not present")

// PinchThreshold is the thumb-tip/index-tip distance, in meters, below
// which the synthesized trigger reads pressed. Touched reads at twice it.
const PinchThreshold = 0.035

// Gamepad is the synthesized gamepad-style control exposed in
// non-hand-tracking mode. Trigger ramps from 0 at the touch threshold to 1
// at full pinch.
type Gamepad struct {
	Trigger float64
	Pressed bool
	Touched bool
}

// Source is one hand's persistent input source. It is created on first
// detection and then updated in place; it survives disappearance and
// reappearance of the hand.
type Source struct {
	ID   uuid.UUID
	Side hand.Side

	// TargetRay and Grip are the pointing and holding poses, both
	// derived from the wrist joint.
	TargetRay *xrmath.RigidTransform
	Grip      *xrmath.RigidTransform

	// Hand carries the live joint collection when the session negotiated
	// hand tracking; nil otherwise.
	Hand *hand.Skeleton

	// Gamepad is the pinch-driven button model, maintained only when
	// hand tracking was not negotiated.
	Gamepad Gamepad

	// Visible reports whether the hand was detected this frame.
	Visible bool

	pinched bool
}

// EventKind tags events raised by the registry.
type EventKind int

const (
	// SelectStart fires on the tick a pinch crosses below threshold.
	SelectStart EventKind = iota
	// SelectEnd fires on the tick a pinch releases, or is force-emitted
	// when a mid-pinch hand disappears so no press is left stuck.
	SelectEnd
	// SourcesChanged fires at most once per tick, covering every side
	// that appeared or disappeared on that tick.
	SourcesChanged
)

// Event is one input event raised during a registry update.
type Event struct {
	Kind   EventKind
	Source *Source

	// Added and Removed are populated for SourcesChanged.
	Added   []*Source
	Removed []*Source
}

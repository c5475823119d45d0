package input

import (
	"github.com/google/uuid"

	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/xrmath"
)

// Registry owns the per-side input sources. It is an arena keyed by side:
// slots fill on first detection and are updated in place from then on,
// never reconstructed unless the session is torn down.
type Registry struct {
	handTracking bool
	sources      [hand.SideCount]*Source
}

// NewRegistry creates a registry. handTracking selects whether sources
// expose joint collections or the synthesized gamepad.
func NewRegistry(handTracking bool) *Registry {
	return &Registry{handTracking: handTracking}
}

// Sources returns the currently visible sources, left before right.
func (r *Registry) Sources() []*Source {
	var out []*Source
	for _, s := range r.sources {
		if s != nil && s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// Source returns the source for a side, visible or not.
func (r *Registry) Source(side hand.Side) (*Source, error) {
	if r.sources[side] == nil {
		return nil, ErrNoSource
	}
	return r.sources[side], nil
}

// Update reconciles the registry against the skeletons fused this tick and
// returns the events to dispatch, in order: select events first, then at
// most one combined SourcesChanged covering both sides.
func (r *Registry) Update(skeletons [hand.SideCount]*hand.Skeleton) []Event {
	var events []Event
	var added, removed []*Source

	for side := hand.Side(0); side < hand.SideCount; side++ {
		skel := skeletons[side]
		src := r.sources[side]

		switch {
		case skel != nil && src == nil:
			src = &Source{ID: uuid.New(), Side: side}
			r.sources[side] = src
			r.updateSource(src, skel, &events)
			added = append(added, src)

		case skel != nil:
			wasVisible := src.Visible
			r.updateSource(src, skel, &events)
			if !wasVisible {
				added = append(added, src)
			}

		case skel == nil && src != nil && src.Visible:
			// Loss mid-pinch must not leave the trigger stuck.
			if src.pinched {
				src.pinched = false
				src.Gamepad = Gamepad{}
				events = append(events, Event{Kind: SelectEnd, Source: src})
			}
			src.Visible = false
			src.Hand = nil
			removed = append(removed, src)
		}
	}

	if len(added) > 0 || len(removed) > 0 {
		events = append(events, Event{Kind: SourcesChanged, Added: added, Removed: removed})
	}
	return events
}

// updateSource refreshes one source in place from a fused skeleton and
// appends any select edge events.
func (r *Registry) updateSource(src *Source, skel *hand.Skeleton, events *[]Event) {
	src.Visible = true

	wrist := skel.Joints[hand.Wrist]
	pose := xrmath.NewRigidTransform(wrist.Position, wrist.Orientation)
	src.TargetRay = pose
	src.Grip = pose

	if r.handTracking {
		src.Hand = skel
		return
	}

	dist := skel.PinchDistance()
	src.Gamepad = Gamepad{
		Trigger: xrmath.Clamp(1-dist/PinchThreshold, 0, 1),
		Pressed: dist < PinchThreshold,
		Touched: dist < 2*PinchThreshold,
	}

	// Edge-triggered: one event per crossing, none on repeated ticks at
	// the same distance.
	if src.Gamepad.Pressed && !src.pinched {
		src.pinched = true
		*events = append(*events, Event{Kind: SelectStart, Source: src})
	} else if !src.Gamepad.Pressed && src.pinched {
		src.pinched = false
		*events = append(*events, Event{Kind: SelectEnd, Source: src})
	}
}

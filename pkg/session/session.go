// Package session implements the XR session lifecycle: a singleton
// request/active/ended state machine, a fixed-rate frame loop over the
// fused tracking state, reference space arithmetic, and mono or stereo
// view synthesis.
//
// All shared tracking state is mutated on the tick goroutine only, in a
// fixed per-tick order: tracking update, input source update, frame
// construction, callback dispatch.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camxr/camxr/internal/log"
	"github.com/camxr/camxr/pkg/detect"
	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/input"
	"github.com/camxr/camxr/pkg/track"
)

// Mode is the session mode requested by the application.
type Mode string

const (
	ModeImmersiveVR Mode = "immersive-vr"
	ModeImmersiveAR Mode = "immersive-ar"
	ModeInline      Mode = "inline"
)

// FeatureHandTracking is the feature string applications negotiate to get
// joint-level hand data instead of gesture-driven select events.
const FeatureHandTracking = "hand-tracking"

// FrameSource delivers camera frames. CaptureJPEG returns the encoded
// frame and the capture timestamp in milliseconds.
type FrameSource interface {
	CaptureJPEG() ([]byte, int64, error)
	Close() error
}

// FrameCallback is an application's per-frame callback. Frames are valid
// only for the duration of the call.
type FrameCallback func(timestampMS float64, frame *Frame)

// Config holds session-level tuning.
type Config struct {
	// TickInterval is the frame loop period.
	TickInterval time.Duration

	// FloorOffset is the standing eye height added for floor-relative
	// reference spaces, meters.
	FloorOffset float64

	// IPDHalf is half the interpupillary distance used for stereo eye
	// offsets, meters.
	IPDHalf float64

	// FramebufferWidth and FramebufferHeight size the viewports.
	FramebufferWidth  int
	FramebufferHeight int

	// Stereo selects two-view synthesis. May be toggled live on an
	// active session.
	Stereo bool

	// Fusion configures the landmark fusion layer.
	Fusion track.Config
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Second / 60,
		FloorOffset:       1.6,
		IPDHalf:           0.032,
		FramebufferWidth:  1920,
		FramebufferHeight: 1080,
		Fusion:            track.DefaultConfig(),
	}
}

// Session is one active XR session. Exactly one exists at a time; see
// Manager.
type Session struct {
	ID   uuid.UUID
	Mode Mode

	cfg          Config
	handTracking bool
	stereo       bool

	fuser    *track.Fuser
	registry *input.Registry

	renderState RenderState
	refSpaces   map[ReferenceSpaceType]*ReferenceSpace

	callbacks  map[int]FrameCallback
	nextCbID   int
	frameCount int64

	// results carries detector output from the capture goroutine to the
	// tick goroutine; only the latest pending result is kept.
	results chan *detect.Result

	video    FrameSource
	detector detect.Detector

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	ended bool

	manager *Manager

	// handlers and pendingWarnings are guarded by mu; the tick and
	// tracking goroutines snapshot the handlers before invoking
	// anything. Warnings raised before a handler is attached queue in
	// pendingWarnings until SetHandlers drains them.
	handlers        Handlers
	pendingWarnings []string
}

// Handlers are the application-facing event callbacks of a session.
type Handlers struct {
	OnEnd                 func()
	OnSelectStart         func(*input.Source)
	OnSelectEnd           func(*input.Source)
	OnInputSourcesChanged func(added, removed []*input.Source)
	OnWarning             func(message string)
}

// SetHandlers replaces the session's event handlers. Safe to call while
// the session is running; events dispatched after the call see the new
// set. Warnings emitted while no warning handler was attached are
// replayed to the new one, so a tracking failure that races session
// activation is never lost.
func (s *Session) SetHandlers(h Handlers) {
	s.mu.Lock()
	s.handlers = h
	var pending []string
	if h.OnWarning != nil {
		pending = s.pendingWarnings
		s.pendingWarnings = nil
	}
	s.mu.Unlock()

	for _, msg := range pending {
		h.OnWarning(msg)
	}
}

func (s *Session) snapshotHandlers() Handlers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers
}

func newSession(m *Manager, mode Mode, handTracking bool, cfg Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:           uuid.New(),
		Mode:         mode,
		cfg:          cfg,
		handTracking: handTracking,
		stereo:       cfg.Stereo,
		fuser:        track.New(cfg.Fusion),
		registry:     input.NewRegistry(handTracking),
		renderState:  DefaultRenderState(),
		refSpaces:    make(map[ReferenceSpaceType]*ReferenceSpace),
		callbacks:    make(map[int]FrameCallback),
		nextCbID:     1,
		results:      make(chan *detect.Result, 1),
		ctx:          ctx,
		cancel:       cancel,
		manager:      m,
	}
}

// start launches the tracking and tick goroutines. Tracking acquisition is
// asynchronous: ticks run immediately and reflect default poses until the
// first detection lands.
func (s *Session) start() {
	go s.acquireTracking()
	go s.run()
}

// acquireTracking opens the camera and detector, then pumps frames through
// detection for as long as the session lives. Failure is degraded-but-
// alive: the session keeps ticking with frozen poses.
func (s *Session) acquireTracking() {
	video, detector, err := s.manager.openTracking()
	if err != nil {
		log.Warn("tracking unavailable, session degraded", "error", err)
		s.warn(trackingWarning(err))
		return
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		video.Close()
		detector.Close()
		return
	}
	s.video = video
	s.detector = detector
	s.mu.Unlock()

	misses := 0
	for s.ctx.Err() == nil {
		jpeg, ts, err := video.CaptureJPEG()
		if err != nil {
			s.captureMiss(&misses)
			continue
		}
		res, err := detector.Detect(jpeg, ts)
		if err != nil {
			log.Debug("detection failed", "error", err)
			s.captureMiss(&misses)
			continue
		}
		misses = 0
		// Keep only the newest result; the tick loop reuses stale
		// tracking data when the camera is slower than the ticker.
		select {
		case s.results <- res:
		default:
			select {
			case <-s.results:
			default:
			}
			select {
			case s.results <- res:
			default:
			}
		}
	}
}

const (
	// captureRetryDelay paces the capture loop after a failed grab or
	// detection, so a broken device does not busy-spin a core.
	captureRetryDelay = 20 * time.Millisecond

	// captureMissWarnAfter is the consecutive-miss count that triggers a
	// log entry.
	captureMissWarnAfter = 50
)

// captureMiss counts a failed capture or detection and pauses before the
// next attempt.
func (s *Session) captureMiss(misses *int) {
	*misses++
	if *misses == captureMissWarnAfter {
		log.Warn("tracking capture failing repeatedly", "session", s.ID, "misses", *misses)
	}
	select {
	case <-s.ctx.Done():
	case <-time.After(captureRetryDelay):
	}
}

func (s *Session) warn(msg string) {
	s.mu.Lock()
	h := s.handlers.OnWarning
	if h == nil {
		s.pendingWarnings = append(s.pendingWarnings, msg)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	h(msg)
}

// run is the frame loop. Ending the session cancels the next iteration;
// no partially run tick is resumed.
func (s *Session) run() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(float64(s.frameCount) * float64(s.cfg.TickInterval) / float64(time.Millisecond))
		}
	}
}

// tick runs one frame: pull at most one fused tracking update, reconcile
// input sources, construct the frame, dispatch callbacks, invalidate the
// frame. Ordering is load-bearing; pose queries inside callbacks must see
// this tick's input state.
func (s *Session) tick(timestampMS float64) {
	select {
	case res := <-s.results:
		s.fuser.Ingest(res)
	default:
	}

	skeletons := [hand.SideCount]*hand.Skeleton{
		hand.Left:  s.fuser.Hand(hand.Left),
		hand.Right: s.fuser.Hand(hand.Right),
	}
	for _, ev := range s.registry.Update(skeletons) {
		s.dispatchInputEvent(ev)
	}

	frame := &Frame{session: s, Timestamp: timestampMS, active: true}
	s.frameCount++

	// Snapshot then clear: callbacks registered during dispatch land on
	// the next tick, never this one.
	s.mu.Lock()
	pending := s.callbacks
	s.callbacks = make(map[int]FrameCallback)
	s.mu.Unlock()

	// Ids increase with registration, so sorting restores registration
	// order for the dispatch.
	ids := make([]int, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.invoke(id, pending[id], timestampMS, frame)
	}

	frame.active = false
}

// invoke isolates one callback: a panic is logged and neither aborts the
// tick nor starves the remaining callbacks.
func (s *Session) invoke(id int, cb FrameCallback, t float64, frame *Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("frame callback panicked", "callback", id, "panic", r)
		}
	}()
	cb(t, frame)
}

func (s *Session) dispatchInputEvent(ev input.Event) {
	h := s.snapshotHandlers()
	switch ev.Kind {
	case input.SelectStart:
		if h.OnSelectStart != nil {
			h.OnSelectStart(ev.Source)
		}
	case input.SelectEnd:
		if h.OnSelectEnd != nil {
			h.OnSelectEnd(ev.Source)
		}
	case input.SourcesChanged:
		if h.OnInputSourcesChanged != nil {
			h.OnInputSourcesChanged(ev.Added, ev.Removed)
		}
	}
}

// RequestAnimationFrame registers a callback for the next tick and returns
// its cancellation id.
func (s *Session) RequestAnimationFrame(cb FrameCallback) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextCbID
	s.nextCbID++
	s.callbacks[id] = cb
	return id
}

// CancelAnimationFrame removes a pending callback. Unknown ids are a
// no-op.
func (s *Session) CancelAnimationFrame(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.callbacks, id)
}

// RequestReferenceSpace returns the reference space of the given type.
// Spaces are cached per session, so repeated requests share offsets only
// through OffsetBy, which copies.
func (s *Session) RequestReferenceSpace(typ ReferenceSpaceType) (*ReferenceSpace, error) {
	if s.isEnded() {
		return nil, ErrSessionEnded
	}
	switch typ {
	case RefViewer, RefLocal, RefLocalFloor, RefBoundedFloor:
	default:
		return nil, ErrUnknownReferenceSpace
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sp, ok := s.refSpaces[typ]; ok {
		return sp, nil
	}
	sp := &ReferenceSpace{Type: typ}
	s.refSpaces[typ] = sp
	return sp, nil
}

// UpdateRenderState applies a validated render state; it takes effect on
// the next view synthesis.
func (s *Session) UpdateRenderState(rs RenderState) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	s.renderState = rs
	return nil
}

// InputSources returns the currently visible input sources.
func (s *Session) InputSources() []*input.Source {
	return s.registry.Sources()
}

// SetStereo toggles stereo view synthesis live.
func (s *Session) SetStereo(stereo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stereo = stereo
}

// Stereo reports whether the session synthesizes two eye views.
func (s *Session) Stereo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stereo
}

// HandTracking reports whether the hand-tracking feature was negotiated.
func (s *Session) HandTracking() bool {
	return s.handTracking
}

func (s *Session) isEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// End tears the session down: the frame loop's next iteration is
// cancelled, tracking stops, the camera and detector are released, the
// active-session slot clears, and the end event fires. Ending twice is
// safe.
func (s *Session) End() error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	s.callbacks = make(map[int]FrameCallback)
	video, detector := s.video, s.detector
	onEnd := s.handlers.OnEnd
	s.mu.Unlock()

	s.cancel()
	if video != nil {
		if err := video.Close(); err != nil {
			log.Warn("closing camera", "error", err)
		}
	}
	if detector != nil {
		if err := detector.Close(); err != nil {
			log.Warn("closing detector", "error", err)
		}
	}
	s.manager.clearActive(s)

	if onEnd != nil {
		onEnd()
	}
	log.Info("session ended", "session", s.ID)
	return nil
}

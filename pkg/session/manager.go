package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/camxr/camxr/internal/log"
	"github.com/camxr/camxr/pkg/camera"
	"github.com/camxr/camxr/pkg/detect"
)

// Options carries the feature negotiation of a session request. Required
// features fail the request when unavailable; optional ones are granted
// best-effort.
type Options struct {
	RequiredFeatures []string
	OptionalFeatures []string
}

// Manager enforces the single-active-session rule and owns the tracking
// resource factories. The camera and detector are opened per session
// activation and released when the session ends.
type Manager struct {
	cfg Config

	openVideo    func() (FrameSource, error)
	openDetector func() (detect.Detector, error)

	mu      sync.Mutex
	active  *Session
	enabled bool
}

// NewManager creates a session manager. The factories run asynchronously
// on session activation; either may be nil to leave that capability
// permanently unavailable (the session still runs, degraded).
func NewManager(cfg Config, openVideo func() (FrameSource, error), openDetector func() (detect.Detector, error)) *Manager {
	return &Manager{
		cfg:          cfg,
		openVideo:    openVideo,
		openDetector: openDetector,
		enabled:      true,
	}
}

// SetEnabled gates the device. When disabled, no mode is supported and
// session requests fail.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// IsSessionSupported reports whether the device can serve a mode.
func (m *Manager) IsSessionSupported(mode Mode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return false
	}
	return mode == ModeImmersiveVR || mode == ModeInline
}

// supportedFeatures are the negotiable feature strings.
var supportedFeatures = map[string]bool{
	FeatureHandTracking: true,
	"local":             true,
	"local-floor":       true,
	"bounded-floor":     true,
	"viewer":            true,
}

// RequestSession activates a new session. Requesting while one is active
// is a state-conflict error and mutates nothing.
func (m *Manager) RequestSession(mode Mode, opts Options) (*Session, error) {
	if !m.IsSessionSupported(mode) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}

	handTracking := false
	for _, f := range opts.RequiredFeatures {
		if !supportedFeatures[f] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFeature, f)
		}
		if f == FeatureHandTracking {
			handTracking = true
		}
	}
	for _, f := range opts.OptionalFeatures {
		if f == FeatureHandTracking {
			handTracking = true
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrSessionActive
	}

	s := newSession(m, mode, handTracking, m.cfg)
	m.active = s
	s.start()
	log.Info("session started", "session", s.ID, "mode", mode, "hand_tracking", handTracking)
	return s, nil
}

// Active returns the active session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetStereo toggles stereo on the active session, if any, and on future
// sessions.
func (m *Manager) SetStereo(stereo bool) {
	m.mu.Lock()
	m.cfg.Stereo = stereo
	s := m.active
	m.mu.Unlock()
	if s != nil {
		s.SetStereo(stereo)
	}
}

// openTracking acquires the camera and detector for an activating
// session.
func (m *Manager) openTracking() (FrameSource, detect.Detector, error) {
	if m.openVideo == nil || m.openDetector == nil {
		return nil, nil, detect.ErrUnavailable
	}
	video, err := m.openVideo()
	if err != nil {
		return nil, nil, fmt.Errorf("camera: %w", err)
	}
	detector, err := m.openDetector()
	if err != nil {
		video.Close()
		return nil, nil, fmt.Errorf("detector: %w", err)
	}
	return video, detector, nil
}

// clearActive releases the singleton slot if s still holds it.
func (m *Manager) clearActive(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == s {
		m.active = nil
	}
}

// trackingWarning maps an acquisition failure to the one-shot user-visible
// message. Permission denials get their own wording.
func trackingWarning(err error) string {
	switch {
	case errors.Is(err, camera.ErrPermissionDenied):
		return "camera access denied; head and hand tracking are disabled"
	case errors.Is(err, detect.ErrUnavailable):
		return "landmark detector unavailable; head and hand tracking are disabled"
	default:
		return "tracking could not start; poses are frozen"
	}
}

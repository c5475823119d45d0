package session

import "errors"

var (
	// ErrSessionActive is returned when a session is requested while one
	// is already active. The existing session is left untouched.
	ErrSessionActive = errors.New("session already active")

	// ErrSessionEnded is returned for operations on an ended session.
	ErrSessionEnded = errors.New("session has ended")

	// ErrUnsupportedMode is returned for modes the device cannot serve.
	ErrUnsupportedMode = errors.New("unsupported session mode")

	// ErrUnsupportedFeature is returned when a required feature is not
	// available.
	ErrUnsupportedFeature = errors.New("unsupported required feature")

	// ErrUnknownReferenceSpace is returned for reference space types the
	// device does not provide.
	ErrUnknownReferenceSpace = errors.New("unknown reference space type")

	// ErrFrameInactive is returned when a frame is queried outside its
	// tick's callback dispatch.
	ErrFrameInactive = errors.New("frame is no longer active")

	// ErrInvalidRenderState is returned for render state updates that
	// fail validation.
	ErrInvalidRenderState = errors.New("invalid render state")
)

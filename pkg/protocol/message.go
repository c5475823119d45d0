// Package protocol defines the websocket message types between the camxr
// device service and XR applications. Requests arrive over HTTP or the
// socket; frames and events are pushed from the tick loop.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of websocket message
type MessageType string

const (
	// Application → device messages
	TypeSessionRequest MessageType = "session_request"
	TypeSessionEnd     MessageType = "session_end"
	TypeReferenceSpace MessageType = "reference_space"
	TypeRenderState    MessageType = "render_state"
	TypeFrameRequest   MessageType = "frame_request"

	// Device → application messages
	TypeSessionStarted MessageType = "session_started"
	TypeSessionEnded   MessageType = "session_ended"
	TypeFrame          MessageType = "frame"
	TypeSelectStart    MessageType = "select_start"
	TypeSelectEnd      MessageType = "select_end"
	TypeSourcesChanged MessageType = "sources_changed"
	TypeWarning        MessageType = "warning"
	TypeError          MessageType = "error"

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all websocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// Pose is a position/orientation pair on the wire.
type Pose struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"` // x, y, z, w
}

// ViewData is one synthesized eye view.
type ViewData struct {
	Eye        string      `json:"eye"`
	Pose       Pose        `json:"pose"`
	Projection [16]float64 `json:"projection"` // column-major
	Viewport   [4]int      `json:"viewport"`   // x, y, w, h
}

// JointData is one hand joint's pose and radius.
type JointData struct {
	Pose   Pose    `json:"pose"`
	Radius float64 `json:"radius"`
}

// SourceData describes one input source on the wire.
type SourceData struct {
	ID         string      `json:"id"`
	Handedness string      `json:"handedness"`
	TargetRay  *Pose       `json:"target_ray,omitempty"`
	Grip       *Pose       `json:"grip,omitempty"`
	Trigger    float64     `json:"trigger"`
	Pressed    bool        `json:"pressed"`
	Touched    bool        `json:"touched"`
	Joints     []JointData `json:"joints,omitempty"`
}

// FrameData is one pushed frame: the viewer pose, views, and the current
// input sources, all in the reference space negotiated at session start.
type FrameData struct {
	Time    float64      `json:"time"` // milliseconds, monotonic
	Viewer  Pose         `json:"viewer"`
	Views   []ViewData   `json:"views"`
	Sources []SourceData `json:"sources"`
}

// SessionRequestData negotiates a new session.
type SessionRequestData struct {
	Mode             string   `json:"mode"`
	RequiredFeatures []string `json:"required_features,omitempty"`
	OptionalFeatures []string `json:"optional_features,omitempty"`
	ReferenceSpace   string   `json:"reference_space,omitempty"`
}

// SessionStartedData confirms an activated session.
type SessionStartedData struct {
	SessionID    string `json:"session_id"`
	HandTracking bool   `json:"hand_tracking"`
	Stereo       bool   `json:"stereo"`
}

// ReferenceSpaceData selects the reference space frames are reported in
// for the rest of the session.
type ReferenceSpaceData struct {
	Type string `json:"type"`
}

// RenderStateData carries a render state update.
type RenderStateData struct {
	DepthNear float64 `json:"depth_near"`
	DepthFar  float64 `json:"depth_far"`
	FOVY      float64 `json:"fovy"`
}

// SelectData identifies the source behind a select event.
type SelectData struct {
	SourceID   string `json:"source_id"`
	Handedness string `json:"handedness"`
}

// SourcesChangedData lists the sources that appeared or disappeared on one
// tick.
type SourcesChangedData struct {
	Added   []SourceData `json:"added,omitempty"`
	Removed []string     `json:"removed,omitempty"` // source ids
}

// WarningData carries a one-shot degraded-mode notice.
type WarningData struct {
	Message string `json:"message"`
}

// ErrorData carries a request failure.
type ErrorData struct {
	Message string `json:"message"`
}

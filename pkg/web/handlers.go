package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/camxr/camxr/internal/log"
	"github.com/camxr/camxr/pkg/hand"
	"github.com/camxr/camxr/pkg/hub"
	"github.com/camxr/camxr/pkg/input"
	"github.com/camxr/camxr/pkg/protocol"
	"github.com/camxr/camxr/pkg/session"
)

func (s *Server) handleSupported(c *fiber.Ctx) error {
	mode := session.Mode(c.Params("mode"))
	return c.JSON(fiber.Map{"supported": s.manager.IsSessionSupported(mode)})
}

func (s *Server) handleRequestSession(c *fiber.Ctx) error {
	var req protocol.SessionRequestData
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	started, err := s.startSession(req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, session.ErrSessionActive) {
			status = fiber.StatusConflict
		} else if errors.Is(err, session.ErrUnsupportedMode) || errors.Is(err, session.ErrUnsupportedFeature) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(started)
}

func (s *Server) handleEndSession(c *fiber.Ctx) error {
	sess := s.manager.Active()
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active session"})
	}
	if err := sess.End(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ended": true})
}

func (s *Server) handleRenderState(c *fiber.Ctx) error {
	var req protocol.RenderStateData
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sess := s.manager.Active()
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active session"})
	}
	rs := session.RenderState{DepthNear: req.DepthNear, DepthFar: req.DepthFar, FOVY: req.FOVY}
	if err := sess.UpdateRenderState(rs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"applied": true})
}

// ConfigRequest carries live setting changes.
type ConfigRequest struct {
	Stereo  *bool `json:"stereo,omitempty"`
	Enabled *bool `json:"enabled,omitempty"`
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	var req ConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Stereo != nil {
		s.manager.SetStereo(*req.Stereo)
	}
	if req.Enabled != nil {
		s.manager.SetEnabled(*req.Enabled)
	}
	return c.JSON(fiber.Map{"applied": true})
}

// handleSocketRequest dispatches an inbound websocket request message to
// the same logic as the HTTP routes; responses and errors go out over the
// event stream.
func (s *Server) handleSocketRequest(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.broadcastError("malformed request: " + err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeSessionRequest:
		var req protocol.SessionRequestData
		if err := msg.ParseData(&req); err != nil {
			s.broadcastError("malformed session request: " + err.Error())
			return
		}
		if _, err := s.startSession(req); err != nil {
			s.broadcastError(err.Error())
		}
	case protocol.TypeSessionEnd:
		if sess := s.manager.Active(); sess != nil {
			sess.End()
		}
	case protocol.TypeReferenceSpace:
		var req protocol.ReferenceSpaceData
		if err := msg.ParseData(&req); err != nil {
			s.broadcastError("malformed reference space request: " + err.Error())
			return
		}
		sess := s.manager.Active()
		if sess == nil {
			s.broadcastError("no active session")
			return
		}
		ref, err := sess.RequestReferenceSpace(session.ReferenceSpaceType(req.Type))
		if err != nil {
			s.broadcastError(err.Error())
			return
		}
		s.mu.Lock()
		s.streamRef = ref
		s.mu.Unlock()
	case protocol.TypeFrameRequest:
		// One extra frame push on the next tick, alongside the
		// continuous stream.
		sess := s.manager.Active()
		if sess == nil {
			s.broadcastError("no active session")
			return
		}
		sess.RequestAnimationFrame(func(ts float64, frame *session.Frame) {
			s.broadcastFrame(ts, frame, sess)
		})
	case protocol.TypeRenderState:
		var req protocol.RenderStateData
		if err := msg.ParseData(&req); err != nil {
			s.broadcastError("malformed render state: " + err.Error())
			return
		}
		sess := s.manager.Active()
		if sess == nil {
			s.broadcastError("no active session")
			return
		}
		rs := session.RenderState{DepthNear: req.DepthNear, DepthFar: req.DepthFar, FOVY: req.FOVY}
		if err := sess.UpdateRenderState(rs); err != nil {
			s.broadcastError(err.Error())
		}
	case protocol.TypePing:
		s.broadcast(protocol.TypePong, nil)
	default:
		s.broadcastError("unknown request type: " + string(msg.Type))
	}
}

// startSession activates a session, wires its events to the broadcast
// hub, and starts the frame stream.
func (s *Server) startSession(req protocol.SessionRequestData) (*protocol.SessionStartedData, error) {
	sess, err := s.manager.RequestSession(session.Mode(req.Mode), session.Options{
		RequiredFeatures: req.RequiredFeatures,
		OptionalFeatures: req.OptionalFeatures,
	})
	if err != nil {
		return nil, err
	}

	refType := session.ReferenceSpaceType(req.ReferenceSpace)
	if refType == "" {
		refType = session.RefLocalFloor
	}
	ref, err := sess.RequestReferenceSpace(refType)
	if err != nil {
		sess.End()
		return nil, err
	}
	s.mu.Lock()
	s.streamRef = ref
	s.mu.Unlock()

	sess.SetHandlers(session.Handlers{
		OnEnd: func() {
			s.broadcast(protocol.TypeSessionEnded, nil)
		},
		OnSelectStart: func(src *input.Source) {
			s.broadcastSelect(protocol.TypeSelectStart, src)
		},
		OnSelectEnd: func(src *input.Source) {
			s.broadcastSelect(protocol.TypeSelectEnd, src)
		},
		OnInputSourcesChanged: func(added, removed []*input.Source) {
			data := protocol.SourcesChangedData{}
			for _, src := range added {
				data.Added = append(data.Added, sourceData(src))
			}
			for _, src := range removed {
				data.Removed = append(data.Removed, src.ID.String())
			}
			s.broadcast(protocol.TypeSourcesChanged, data)
		},
		OnWarning: func(message string) {
			s.broadcast(protocol.TypeWarning, protocol.WarningData{Message: message})
		},
	})

	// Continuous frame stream: the callback re-registers itself each
	// tick, the same way an application drives its render loop.
	var stream session.FrameCallback
	stream = func(ts float64, frame *session.Frame) {
		s.broadcastFrame(ts, frame, sess)
		sess.RequestAnimationFrame(stream)
	}
	sess.RequestAnimationFrame(stream)

	started := &protocol.SessionStartedData{
		SessionID:    sess.ID.String(),
		HandTracking: sess.HandTracking(),
		Stereo:       sess.Stereo(),
	}
	s.broadcast(protocol.TypeSessionStarted, started)
	return started, nil
}

// broadcastFrame converts one frame to wire form and pushes it.
func (s *Server) broadcastFrame(ts float64, frame *session.Frame, sess *session.Session) {
	s.mu.Lock()
	ref := s.streamRef
	s.mu.Unlock()
	if ref == nil {
		return
	}

	pose, err := frame.ViewerPose(ref)
	if err != nil {
		return
	}

	data := protocol.FrameData{
		Time:   ts,
		Viewer: protocol.PoseFromTransform(pose.Transform),
	}
	for _, v := range pose.Views {
		data.Views = append(data.Views, protocol.ViewData{
			Eye:        string(v.Eye),
			Pose:       protocol.PoseFromTransform(v.Transform),
			Projection: protocol.MatrixToSlice(v.Projection),
			Viewport:   [4]int{v.Viewport.X, v.Viewport.Y, v.Viewport.Width, v.Viewport.Height},
		})
	}

	for _, src := range sess.InputSources() {
		sd := sourceData(src)
		if src.Hand != nil {
			for j := 0; j < hand.JointCount; j++ {
				jp, err := frame.JointPose(session.JointSpace(src, j), ref)
				if err != nil || jp == nil {
					continue
				}
				sd.Joints = append(sd.Joints, protocol.JointData{
					Pose:   protocol.PoseFromTransform(jp.Transform),
					Radius: jp.Radius,
				})
			}
		}
		data.Sources = append(data.Sources, sd)
	}

	s.broadcast(protocol.TypeFrame, data)
}

func sourceData(src *input.Source) protocol.SourceData {
	sd := protocol.SourceData{
		ID:         src.ID.String(),
		Handedness: src.Side.String(),
		Trigger:    src.Gamepad.Trigger,
		Pressed:    src.Gamepad.Pressed,
		Touched:    src.Gamepad.Touched,
	}
	if src.TargetRay != nil {
		p := protocol.PoseFromTransform(src.TargetRay)
		sd.TargetRay = &p
	}
	if src.Grip != nil {
		p := protocol.PoseFromTransform(src.Grip)
		sd.Grip = &p
	}
	return sd
}

func (s *Server) broadcast(msgType protocol.MessageType, data interface{}) {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		log.Error("encoding broadcast message", "type", msgType, "error", err)
		return
	}
	raw, err := msg.Bytes()
	if err != nil {
		log.Error("encoding broadcast message", "type", msgType, "error", err)
		return
	}
	s.eventHub.Broadcast(hub.NewJSONMessage(raw))
}

func (s *Server) broadcastSelect(msgType protocol.MessageType, src *input.Source) {
	msg, err := protocol.NewSelectMessage(msgType, src.ID.String(), src.Side.String())
	if err != nil {
		return
	}
	raw, _ := msg.Bytes()
	s.eventHub.Broadcast(hub.NewJSONMessage(raw))
}

func (s *Server) broadcastError(text string) {
	s.broadcast(protocol.TypeError, protocol.ErrorData{Message: text})
}

// Package web exposes the emulated XR device to applications over HTTP
// and websocket: session negotiation, render-state updates, and a pushed
// stream of frames and input events.
package web

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/camxr/camxr/internal/log"
	"github.com/camxr/camxr/pkg/hub"
	"github.com/camxr/camxr/pkg/session"
)

// Server is the device API server.
type Server struct {
	app  *fiber.App
	port string

	manager *session.Manager

	// eventHub fans frames and events out to connected applications.
	eventHub *hub.Hub

	// streamRef is the reference space frames are reported in for the
	// current session.
	mu        sync.Mutex
	streamRef *session.ReferenceSpace

	cancelHub context.CancelFunc
}

// NewServer creates the device API server around a session manager.
func NewServer(port string, manager *session.Manager) *Server {
	s := &Server{
		port:     port,
		manager:  manager,
		eventHub: hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "camxr device",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")
	api.Get("/supported/:mode", s.handleSupported)
	api.Post("/session", s.handleRequestSession)
	api.Delete("/session", s.handleEndSession)
	api.Post("/session/renderstate", s.handleRenderState)
	api.Post("/config", s.handleConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the server. It blocks.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelHub = cancel
	go s.eventHub.Run(ctx)

	log.Info("device API listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the server and the broadcast hub.
func (s *Server) Shutdown() error {
	if s.cancelHub != nil {
		s.cancelHub()
	}
	return s.app.Shutdown()
}

// handleEventsWS serves the event stream. Inbound messages on the socket
// carry the same requests as the HTTP API, for applications that prefer a
// single connection.
func (s *Server) handleEventsWS(conn *websocket.Conn) {
	client := hub.NewClient(s.eventHub, conn)
	client.OnMessage = s.handleSocketRequest
	client.Run()
}

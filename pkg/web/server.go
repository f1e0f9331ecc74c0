// Package web provides the chat gateway for the Miraal assistant: a
// REST surface for the text path and live-session control, plus a
// websocket channel pushing history snapshots and error banners.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/Iggysmallz/houseofmeraal/pkg/chat"
	"github.com/Iggysmallz/houseofmeraal/pkg/hub"
	"github.com/Iggysmallz/houseofmeraal/pkg/session"
)

// Server is the chat gateway server.
type Server struct {
	app    *fiber.App
	port   string
	ctrl   *session.Controller
	logger *slog.Logger

	chatHub *hub.Hub
	stop    chan struct{}
}

// historyFrame is the websocket push for chat updates.
type historyFrame struct {
	Type     string         `json:"type"`
	Messages []chat.Message `json:"messages"`
}

// errorFrame is the websocket push for error banners.
type errorFrame struct {
	Type        string            `json:"type"`
	Kind        session.ErrorKind `json:"kind"`
	Message     string            `json:"message"`
	Recoverable bool              `json:"recoverable"`
}

// NewServer creates the gateway. A nil logger means slog.Default().
func NewServer(port string, ctrl *session.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		port:    port,
		ctrl:    ctrl,
		logger:  logger,
		chatHub: hub.New("chat", logger),
		stop:    make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Miraal Assistant",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/history", s.handleHistory)
	api.Post("/chat", s.handleChat)
	api.Post("/live/start", s.handleLiveStart)
	api.Post("/live/stop", s.handleLiveStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(s.handleChatWS))

	s.app = app
	return s
}

// Start runs the hub, the broadcast loop, and the listener. It blocks
// until the listener stops.
func (s *Server) Start() error {
	go s.chatHub.Run()
	go s.broadcastLoop()

	s.logger.Info("chat gateway listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// broadcastLoop fans controller updates out to websocket clients.
func (s *Server) broadcastLoop() {
	snapshots, cancel := s.ctrl.History().Subscribe()
	defer cancel()

	for {
		select {
		case snap := <-snapshots:
			s.chatHub.BroadcastJSON(historyFrame{Type: "history", Messages: snap})
		case serr := <-s.ctrl.Errors():
			s.chatHub.BroadcastJSON(errorFrame{
				Type:        "error",
				Kind:        serr.Kind,
				Message:     serr.Message,
				Recoverable: serr.Recoverable,
			})
		case <-s.stop:
			return
		}
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	return s.chatHub.ClientCount()
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	close(s.stop)
	return s.app.Shutdown()
}

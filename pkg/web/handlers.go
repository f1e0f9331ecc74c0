package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Iggysmallz/houseofmeraal/pkg/hub"
	"github.com/Iggysmallz/houseofmeraal/pkg/session"
)

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// handleStatus returns the assistant's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	status := fiber.Map{
		"live_active": s.ctrl.Active(),
		"clients":     s.chatHub.ClientCount(),
	}
	if serr := s.ctrl.LastError(); serr != nil {
		status["error"] = errorFrame{
			Type:        "error",
			Kind:        serr.Kind,
			Message:     serr.Message,
			Recoverable: serr.Recoverable,
		}
	}
	return c.JSON(status)
}

// handleHistory returns the full chat history.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.History().Messages())
}

// handleChat runs the single-turn text path and returns the updated
// history. Failures are reflected in the history as well, so clients
// polling only /api/history still see them.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := s.ctrl.SendText(c.Context(), req.Text); err != nil {
		return s.sessionErrorResponse(c, err)
	}

	return c.JSON(s.ctrl.History().Messages())
}

// handleLiveStart begins a live voice session.
func (s *Server) handleLiveStart(c *fiber.Ctx) error {
	if err := s.ctrl.StartLive(c.Context()); err != nil {
		return s.sessionErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"live_active": true})
}

// handleLiveStop tears the live session down.
func (s *Server) handleLiveStop(c *fiber.Ctx) error {
	s.ctrl.StopLive()
	return c.JSON(fiber.Map{"live_active": false})
}

// sessionErrorResponse maps error kinds to HTTP statuses.
func (s *Server) sessionErrorResponse(c *fiber.Ctx, err error) error {
	var serr *session.SessionError
	if !errors.As(err, &serr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status := fiber.StatusBadGateway
	switch serr.Kind {
	case session.KindCredential:
		status = fiber.StatusUnauthorized
	case session.KindValidation:
		status = fiber.StatusBadRequest
	case session.KindDevice:
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"error": errorFrame{
			Type:        "error",
			Kind:        serr.Kind,
			Message:     serr.Message,
			Recoverable: serr.Recoverable,
		},
	})
}

// handleChatWS serves the chat websocket: the current history is sent
// on connect, then the hub pushes snapshots as they change.
func (s *Server) handleChatWS(c *websocket.Conn) {
	c.WriteJSON(historyFrame{Type: "history", Messages: s.ctrl.History().Messages()})

	client := hub.NewClient(s.chatHub, c)
	client.Run()
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tablerolabs/tablero/internal/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Browser clients connect from the frontend origin
	},
}

// handleBoardSocket upgrades the connection and ties it into the board's hub
// group. Authentication comes from an optional ?token= query parameter;
// absent or invalid tokens degrade to an anonymous session that receives
// broadcasts but is invisible in presence.
func (s *Server) handleBoardSocket(c echo.Context) error {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid board id"))
	}

	username := ""
	if raw := c.QueryParam("token"); raw != "" {
		if _, name, err := s.parseToken(raw); err == nil {
			username = name
		} else {
			slog.Debug("Board socket token rejected, continuing anonymously", "board_id", boardID.String())
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "board_id", boardID.String(), "error", err)
		return nil
	}

	sessionID := uuid.New()
	if _, err := s.hub.Join(boardID, sessionID, conn, username); err != nil {
		slog.Warn("Board socket join rejected", "board_id", boardID.String(), "error", err)
		// Connection already closed by the hub.
		return nil
	}

	// Read pump. Every inbound frame is relayed to the board group; the hub
	// answers malformed payloads to this session only.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.hub.Relay(boardID, sessionID, data)
	}

	// Leave is ordered through the hub's command loop: broadcasts enqueued
	// after it can no longer reach this session.
	s.hub.Leave(boardID, sessionID)
	return nil
}

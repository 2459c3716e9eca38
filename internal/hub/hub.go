// Package hub owns the per-board presence registry and broadcast fan-out.
// All registry state is confined to a single actor goroutine fed by a
// command channel: joins, leaves, and publishes for every board flow
// through it in order, which is what gives each board its FIFO delivery
// guarantee. Socket writes never happen on the actor goroutine — each
// session has its own bounded writer, and a full writer queue evicts that
// session rather than stalling the publisher.
package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/tablerolabs/tablero/internal/event"
	"github.com/tablerolabs/tablero/internal/logging"
	"github.com/tablerolabs/tablero/internal/metrics"
)

const (
	maxClientsPerBoard = 50
	commandTimeout     = 5 * time.Second
	stopTimeout        = 10 * time.Second

	// AnonymousUser labels relayed messages from unauthenticated sessions.
	AnonymousUser = "Anónimo"
)

// hubCmd is the command interface for the hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type joinCmd struct {
	baseHubCmd
	boardID      uuid.UUID
	sessionID    uuid.UUID
	username     string
	connection   *websocket.Conn
	replyChannel chan joinReply
}

type joinReply struct {
	present []string
	err     error
}

type leaveCmd struct {
	baseHubCmd
	boardID   uuid.UUID
	sessionID uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	boardID uuid.UUID
	event   event.Event
}

type relayCmd struct {
	baseHubCmd
	boardID   uuid.UUID
	sessionID uuid.UUID
	raw       []byte
}

type clientCountCmd struct {
	baseHubCmd
	boardID      uuid.UUID
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// member is one live session inside a board group. An empty username marks
// an anonymous session: it receives broadcasts but is invisible in presence.
type member struct {
	writer   *clientWriter
	username string
}

type boardGroup struct {
	members map[uuid.UUID]*member
}

// Hub is the process-wide board registry and broadcaster.
type Hub struct {
	cmdCh  chan hubCmd
	clock  clockwork.Clock
	boards map[uuid.UUID]*boardGroup
	done   chan struct{}
}

// NewHub creates the hub and starts its actor goroutine.
func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:  make(chan hubCmd, 256),
		clock:  clock,
		boards: make(map[uuid.UUID]*boardGroup),
		done:   make(chan struct{}),
	}
	go h.run()
	return h
}

// Join registers a session under a board group. For authenticated sessions
// it returns the distinct usernames currently present (including the
// joiner), sends the joiner a present_users snapshot, and announces
// user_joined to every other member. Anonymous sessions (empty username)
// only register for delivery.
func (h *Hub) Join(boardID, sessionID uuid.UUID, conn *websocket.Conn, username string) ([]string, error) {
	replyCh := make(chan joinReply, 1)
	h.cmdCh <- joinCmd{boardID: boardID, sessionID: sessionID, username: username, connection: conn, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.present, reply.err
	case <-timer.Chan():
		return nil, fmt.Errorf("join command timed out after %v", commandTimeout)
	}
}

// Leave deregisters a session. Safe to call more than once; the departure
// is visible in the registry as soon as the command is processed, even if
// in-flight sends to the session are still draining.
func (h *Hub) Leave(boardID, sessionID uuid.UUID) {
	h.cmdCh <- leaveCmd{boardID: boardID, sessionID: sessionID}
}

// Publish delivers an event to every session registered under the board.
func (h *Hub) Publish(boardID uuid.UUID, e event.Event) {
	h.cmdCh <- publishCmd{boardID: boardID, event: e}
}

// Relay broadcasts a raw client payload to the sender's board group, tagged
// with the sender's username. Malformed payloads produce an error reply to
// the sender only.
func (h *Hub) Relay(boardID, sessionID uuid.UUID, raw []byte) {
	h.cmdCh <- relayCmd{boardID: boardID, sessionID: sessionID, raw: raw}
}

// ClientCount returns the number of sessions connected to a board, or -1 if
// the command times out.
func (h *Hub) ClientCount(boardID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{boardID: boardID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing every client connection. Blocks until
// the actor goroutine exits or the stop timeout elapses.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case joinCmd:
			h.handleJoin(c)
		case leaveCmd:
			h.handleLeave(c.boardID, c.sessionID)
		case publishCmd:
			h.handlePublish(c)
		case relayCmd:
			h.handleRelay(c)
		case clientCountCmd:
			if g, ok := h.boards[c.boardID]; ok {
				c.replyChannel <- len(g.members)
			} else {
				c.replyChannel <- 0
			}
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleJoin(c joinCmd) {
	g, exists := h.boards[c.boardID]
	if !exists {
		g = &boardGroup{members: make(map[uuid.UUID]*member)}
		h.boards[c.boardID] = g
		metrics.HubActiveBoards.Set(float64(len(h.boards)))
	}

	if len(g.members) >= maxClientsPerBoard {
		slog.Warn("Rejecting client: max clients reached", "board_id", c.boardID.String(), "max_clients", maxClientsPerBoard)
		c.connection.Close()
		if !exists {
			delete(h.boards, c.boardID)
			metrics.HubActiveBoards.Set(float64(len(h.boards)))
		}
		c.replyChannel <- joinReply{err: fmt.Errorf("max clients per board (%d) reached", maxClientsPerBoard)}
		return
	}

	m := &member{
		writer:   newClientWriter(c.connection, h.clock),
		username: c.username,
	}
	g.members[c.sessionID] = m
	metrics.HubConnectedClients.Inc()

	if c.username == "" {
		slog.Debug("Anonymous session joined", "board_id", c.boardID.String(), "session_id", c.sessionID.String())
		c.replyChannel <- joinReply{}
		return
	}

	present := g.presentUsers()

	// Presence snapshot goes to the joiner first, on its own writer, so no
	// later event can arrive before it.
	h.sendTo(c.boardID, g, c.sessionID, event.PresentUsers{Users: present})
	h.deliver(c.boardID, g, event.UserJoined{User: c.username}, c.sessionID)

	slog.Debug("Session joined", "board_id", c.boardID.String(), "session_id", c.sessionID.String(), "username", c.username, "total_clients", len(g.members))
	c.replyChannel <- joinReply{present: present}
}

func (h *Hub) handleLeave(boardID, sessionID uuid.UUID) {
	g, exists := h.boards[boardID]
	if !exists {
		return
	}

	m, exists := g.members[sessionID]
	if !exists {
		return
	}

	m.writer.stop()
	delete(g.members, sessionID)
	metrics.HubConnectedClients.Dec()

	if len(g.members) == 0 {
		delete(h.boards, boardID)
		metrics.HubActiveBoards.Set(float64(len(h.boards)))
		slog.Debug("Last session left, board group dropped", "board_id", boardID.String())
		return
	}

	// user_left fires only when the username's last session is gone; other
	// tabs keep it present.
	if m.username != "" && !g.hasUsername(m.username) {
		h.deliver(boardID, g, event.UserLeft{User: m.username}, uuid.Nil)
	}
}

func (h *Hub) handlePublish(c publishCmd) {
	g, exists := h.boards[c.boardID]
	if !exists {
		return
	}
	h.deliver(c.boardID, g, c.event, uuid.Nil)
}

func (h *Hub) handleRelay(c relayCmd) {
	g, exists := h.boards[c.boardID]
	if !exists {
		return
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(c.raw, &payload); err != nil {
		metrics.HubMalformedMessages.Inc()
		h.sendTo(c.boardID, g, c.sessionID, event.ErrorReply{Message: event.ErrMalformedMessage})
		return
	}

	msgType := "message"
	if rawType, ok := payload["type"]; ok {
		var s string
		if err := json.Unmarshal(rawType, &s); err != nil || s == "" {
			metrics.HubMalformedMessages.Inc()
			h.sendTo(c.boardID, g, c.sessionID, event.ErrorReply{Message: event.ErrMalformedMessage})
			return
		}
		msgType = s
	}

	username := AnonymousUser
	if m, ok := g.members[c.sessionID]; ok && m.username != "" {
		username = m.username
	}

	h.deliver(c.boardID, g, event.Relayed{Type: msgType, Data: json.RawMessage(c.raw), User: username}, uuid.Nil)
}

// deliver encodes the event once and enqueues it on every member's writer,
// skipping exclude. Members whose queue is full are evicted afterwards;
// eviction runs their full disconnect cleanup, including user_left.
func (h *Hub) deliver(boardID uuid.UUID, g *boardGroup, e event.Event, exclude uuid.UUID) {
	data, err := event.Encode(e)
	if err != nil {
		slog.Error("Failed to encode event", "kind", event.Name(e), "error", err)
		return
	}
	metrics.HubEventsPublished.WithLabelValues(event.Name(e)).Inc()

	var slow []uuid.UUID
	for sessionID, m := range g.members {
		if sessionID == exclude {
			continue
		}
		select {
		case m.writer.sendChannel <- data:
		default:
			slow = append(slow, sessionID)
		}
	}

	for _, sessionID := range slow {
		logging.WithBoard(boardID.String()).Warn("Disconnecting slow client", "session_id", sessionID.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleLeave(boardID, sessionID)
	}
}

// sendTo delivers an event to a single session only.
func (h *Hub) sendTo(boardID uuid.UUID, g *boardGroup, sessionID uuid.UUID, e event.Event) {
	m, exists := g.members[sessionID]
	if !exists {
		return
	}

	data, err := event.Encode(e)
	if err != nil {
		slog.Error("Failed to encode event", "kind", event.Name(e), "error", err)
		return
	}

	select {
	case m.writer.sendChannel <- data:
	default:
		logging.WithBoard(boardID.String()).Warn("Disconnecting slow client", "session_id", sessionID.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleLeave(boardID, sessionID)
	}
}

func (h *Hub) handleStop() {
	totalClients := 0
	for _, g := range h.boards {
		totalClients += len(g.members)
	}
	slog.Info("Hub shutting down", "boards", len(h.boards), "total_clients", totalClients)

	for boardID, g := range h.boards {
		for _, m := range g.members {
			m.writer.stopGraceful("Server shutting down")
		}
		delete(h.boards, boardID)
	}
	metrics.HubActiveBoards.Set(0)
	metrics.HubConnectedClients.Set(0)
}

func (g *boardGroup) presentUsers() []string {
	seen := make(map[string]struct{})
	var users []string
	for _, m := range g.members {
		if m.username == "" {
			continue
		}
		if _, ok := seen[m.username]; ok {
			continue
		}
		seen[m.username] = struct{}{}
		users = append(users, m.username)
	}
	return users
}

func (g *boardGroup) hasUsername(username string) bool {
	for _, m := range g.members {
		if m.username == username {
			return true
		}
	}
	return false
}

package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/tablerolabs/tablero/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// clientWriter owns all writes to one WebSocket connection. The hub enqueues
// encoded frames on sendChannel; a full channel is the signal that the
// client is too slow to keep.
type clientWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendChannel:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a close frame with reason before closing. The run
// goroutine must have exited first; writing from two goroutines at once is
// not allowed on a gorilla connection.
func (cw *clientWriter) stopGraceful(reason string) {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
}

func (cw *clientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

func (cw *clientWriter) updateReadDeadline() {
	_ = cw.connection.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}

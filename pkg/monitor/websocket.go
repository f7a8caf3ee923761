package monitor

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"digital.vasic.evaluator/pkg/logging"
)

// wsMessage is the envelope of every message sent to WebSocket
// clients. Type is "dashboard" for the initial snapshot and
// "event" for each evaluation event.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket_upgrade_failed", logging.ErrorField(err))
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan []byte, clientBufferSize),
	}

	// Queue the snapshot before registering so it is always the
	// first message the client sees.
	if data, err := jsonMarshal(wsMessage{
		Type: "dashboard",
		Data: s.dashboard.Snapshot(),
	}); err == nil {
		c.send <- data
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writePump()
	s.readPump(c)
}

// readPump discards client messages and unregisters the client
// once the connection fails or closes.
func (s *Server) readPump(c *wsClient) {
	defer s.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	defer func() { _ = c.conn.Close() }()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

func (s *Server) unregister(c *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// closeClients disconnects every client. The read pumps observe
// the closed connections and unregister.
func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		_ = c.conn.Close()
	}
}

// broadcast queues data for every client. Clients whose buffer
// is full miss the message.
func (s *Server) broadcast(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

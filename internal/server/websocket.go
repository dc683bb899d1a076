package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outbound messages buffered per client before it is dropped as too slow
	sendBuffer = 32
)

// Message types pushed to clients.
const (
	MessageState = "state"
	MessageError = "error"
)

// Message is pushed to bridge clients. State messages carry a full snapshot;
// error messages report an event the bridge refused.
type Message struct {
	Type  string      `json:"type"`
	State *form.State `json:"state,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// client is one websocket peer. Only writePump writes to conn.
type client struct {
	id   string
	addr string
	conn *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn, addr string) *client {
	return &client{
		id:   uuid.New().String(),
		addr: addr,
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues m without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *client) enqueue(m Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump delivers queued messages and keeps the connection alive with
// pings until the client is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case m := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(m); err != nil {
				logging.Debug("Failed to write message",
					zap.String("remote_addr", c.addr),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvents upgrades the request and runs the client until it disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := newClient(conn, r.RemoteAddr)
	logging.LogConnection(c.addr, "websocket_upgraded")

	if !s.register(c) {
		c.close()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()

	s.readPump(c)

	s.unregister(c)
	c.close()
	logging.LogConnection(c.addr, "websocket_closed")
}

// readPump decodes events from c and publishes them until the connection
// fails. Malformed events are answered with an error message.
func (s *Server) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Connection closed unexpectedly",
					zap.String("remote_addr", c.addr),
					zap.Error(err),
				)
			}
			return
		}

		var e events.Event
		if err := json.Unmarshal(data, &e); err != nil {
			c.enqueue(Message{Type: MessageError, Error: "malformed event: " + err.Error()})
			continue
		}
		if !e.Valid() {
			c.enqueue(Message{Type: MessageError, Error: "invalid event: a known type and a field name are required"})
			continue
		}

		logging.Debug("Event received",
			zap.String("remote_addr", c.addr),
			zap.String("client_id", c.id),
			zap.String("kind", string(e.Kind)),
			zap.String("field", e.Name),
		)
		s.pub.Publish(e)
	}
}

// register adds c and queues the current snapshot as its first message.
// Both happen under s.mu so no broadcast can slip in between.
func (s *Server) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c.id] = c
	snap := s.ctrl.Snapshot()
	if snap.Revision > s.lastRev {
		s.lastRev = snap.Revision
	}
	c.enqueue(Message{Type: MessageState, State: &snap})
	return true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
}

// broadcast pushes st to every client. Snapshots no newer than the last one
// queued are skipped, so clients see revisions in increasing order. Clients
// whose buffer is full are dropped.
func (s *Server) broadcast(st form.State) {
	m := Message{Type: MessageState, State: &st}

	var slow []*client
	s.mu.Lock()
	if last := s.lastRev; st.Revision <= last {
		s.mu.Unlock()
		logging.Debug("Skipping stale snapshot",
			zap.Uint64("revision", st.Revision),
			zap.Uint64("last_revision", last),
		)
		return
	}
	s.lastRev = st.Revision
	for id, c := range s.clients {
		if !c.enqueue(m) {
			delete(s.clients, id)
			slow = append(slow, c)
		}
	}
	s.mu.Unlock()

	for _, c := range slow {
		logging.Warn("Dropping slow client", zap.String("remote_addr", c.addr))
		c.close()
	}
}

package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"market-movers-api/internal/models"
)

// Hub pushes each refreshed aggregate to connected WebSocket clients.
// Slow or broken clients are dropped rather than back-pressuring the
// broadcast.
type Hub struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	log          *logrus.Entry

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// Config represents hub buffer sizes and timeouts
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
}

// NewHub creates an empty broadcast hub.
func NewHub(config Config, log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
		log:          log.WithField("component", "stream"),
		conns:        make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades the request and registers the connection until the peer
// closes it.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()
	h.log.WithField("clients", count).Info("websocket client connected")

	// Drain control frames; the hub is write-only.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the aggregate to every connected client.
func (h *Hub) Broadcast(result *models.AggregateResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		h.log.WithError(err).Error("failed to encode aggregate for broadcast")
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if ok {
		conn.Close()
	}
}

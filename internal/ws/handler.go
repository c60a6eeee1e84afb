// Package ws streams home-registry signals to WebSocket subscribers.
//
// The Hub subscribes once to every registry signal and fans each one out to
// all connected clients as a JSON frame. Fanout never blocks the registry's
// event turn: a client that cannot keep up has frames dropped.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/solardesk/shell/internal/domain/home"
	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/solardesk/shell/internal/infrastructure/monitoring"
	"github.com/solardesk/shell/internal/shared/id"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	clientBacklog  = 64
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The service binds to loopback; the shell frontend is the only
		// expected origin.
		return true
	},
}

// Frame is one signal rendered for subscribers.
type Frame struct {
	Signal   home.Signal    `json:"signal"`
	Activity *home.Snapshot `json:"activity"` // nil for cleared selectors
}

type client struct {
	id   id.SubscriberID
	conn *websocket.Conn
	send chan []byte
}

// Hub manages the subscriber set.
type Hub struct {
	mu      sync.RWMutex
	clients map[id.SubscriberID]*client
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[id.SubscriberID]*client),
		log:     log.Named("ws"),
	}
}

// WithMetrics adds metrics tracking to the hub.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// Attach wires the hub to every registry signal.
func (h *Hub) Attach(registry *home.Registry) {
	registry.SubscribeAll(func(sig home.Signal, a *home.Activity) {
		frame := Frame{Signal: sig}
		if a != nil {
			snap := a.Snapshot()
			frame.Activity = &snap
		}

		data, err := sonic.Marshal(frame)
		if err != nil {
			h.log.Error("failed to encode signal frame", zap.Error(err))
			return
		}
		h.broadcast(data)
	})
}

// broadcast queues a frame for every client without blocking.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			h.log.Warn("dropping frame for slow subscriber",
				zap.String("subscriber", cl.id.String()))
		}
	}
}

// HandleConnection upgrades a request and serves the signal stream.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   id.NewSubscriberID(),
		conn: conn,
		send: make(chan []byte, clientBacklog),
	}
	h.add(cl)
	h.log.Info("subscriber connected", zap.String("subscriber", cl.id.String()))

	go h.writeLoop(cl)
	h.readLoop(cl)
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, present := h.clients[cl.id]
	if present {
		delete(h.clients, cl.id)
		// Closed under the lock so a concurrent broadcast can never
		// send on a closed channel.
		close(cl.send)
	}
	h.mu.Unlock()

	if present && h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
}

// writeLoop pushes queued frames to the peer.
func (h *Hub) writeLoop(cl *client) {
	defer cl.conn.Close()

	for data := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("subscriber write failed",
				zap.String("subscriber", cl.id.String()), zap.Error(err))
			h.remove(cl)
			return
		}
	}
}

// readLoop drains the connection until the peer disconnects. Subscribers
// send nothing meaningful; reads only detect closure.
func (h *Hub) readLoop(cl *client) {
	defer func() {
		h.remove(cl)
		cl.conn.Close()
		h.log.Info("subscriber disconnected", zap.String("subscriber", cl.id.String()))
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Len returns the current subscriber count.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

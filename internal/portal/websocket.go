package portal

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// statusHub pushes provisioning state changes to connected setup pages.
// Delivery is synchronous: broadcast has written the frame to every
// connection by the time it returns, so a push from the submit handler
// reaches the page even when the portal shuts down right after.
type statusHub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
	closed      bool

	writeTimeout time.Duration
}

func newStatusHub(logger *logrus.Logger) *statusHub {
	return &statusHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The portal only exists on the device's own setup network.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		connections:  make(map[*websocket.Conn]struct{}),
		writeTimeout: 10 * time.Second,
	}
}

func (h *statusHub) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade status connection")
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.connections[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("remote_addr", conn.RemoteAddr().String()).Debug("Status connection opened")

	// Drain client frames so pings and close handshakes are processed; the
	// hub never expects payloads from the page.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast writes a status update to every connected page before returning.
// Connections that fail the write are dropped.
func (h *statusHub) broadcast(status StatusResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteJSON(status); err != nil {
			h.logger.WithError(err).Debug("Dropping stale status connection")
			delete(h.connections, conn)
			conn.Close()
		}
	}
}

func (h *statusHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

func (h *statusHub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.closed = true
	for conn := range h.connections {
		conn.Close()
	}
	h.connections = make(map[*websocket.Conn]struct{})
}

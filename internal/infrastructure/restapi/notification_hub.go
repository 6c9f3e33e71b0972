package restapi

import (
	"net/http"
	"sync"

	"cryptoledger_exchange/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard UI is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationHub fans the exchange service's notification stream out to
// every connected websocket client.
type NotificationHub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewNotificationHub creates a hub and starts pumping from source.
func NewNotificationHub(source <-chan entity.Notification, logger *zap.Logger) *NotificationHub {
	h := &NotificationHub{
		logger:  logger.Named("NotificationHub"),
		clients: make(map[*websocket.Conn]struct{}),
	}
	go h.pump(source)
	return h
}

func (h *NotificationHub) pump(source <-chan entity.Notification) {
	for note := range source {
		h.broadcast(note)
	}
}

func (h *NotificationHub) broadcast(note entity.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(note); err != nil {
			h.logger.Debug("Dropping websocket client", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ServeHandler handles GET /ws/notifications.
func (h *NotificationHub) ServeHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Reader loop only to observe close; the hub never expects input.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

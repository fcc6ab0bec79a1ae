package utility

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RefreshMessage tells open pages to reload.
const RefreshMessage = "REFRESH"

// Hub holds the open page connections: map[connID] -> connection.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*websocket.Conn
	upgrader websocket.Upgrader
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Pages are served from the same origin; allow any for local development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register a new client connection and return its id.
func (h *Hub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = conn
	log.Debug().Str("conn_id", id).Msg("WebSocket Client Connected")
	return id
}

// Unregister a client (when they close the tab).
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.clients[id]; ok {
		conn.Close()
		delete(h.clients, id)
		log.Debug().Str("conn_id", id).Msg("WebSocket Client Disconnected")
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a text message to every client, dropping the ones that fail.
func (h *Hub) Broadcast(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			log.Error().Err(err).Str("conn_id", id).Msg("Failed to send WS message, removing client")
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		Logger(c).Error().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}

	id := h.Register(conn)
	defer h.Unregister(id)

	// Pages never send anything; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

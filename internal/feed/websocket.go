package feed

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send control frames
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The feed is read-only and meant for LAN dashboards.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket streams events to one subscriber until either side closes.
func (s *Server) handleWebSocket(c *gin.Context) {
	remoteAddr := c.Request.RemoteAddr

	// Subscribe before the upgrade so that a client whose dial has returned
	// is guaranteed to see subsequent events.
	id, events := s.hub.Subscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.hub.Unsubscribe(id)
		logging.Error("Websocket upgrade failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
		return
	}
	logging.LogConnection(remoteAddr, "websocket_subscribed")

	done := make(chan struct{})
	go s.readPump(conn, done)
	s.writePump(conn, events, done)

	s.hub.Unsubscribe(id)
	_ = conn.Close()
	logging.LogConnection(remoteAddr, "websocket_closed")
}

// readPump discards client messages and closes done when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, events <-chan Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed, server is shutting down.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed shutting down"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logging.Debug("Websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

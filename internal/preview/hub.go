package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/mdmail/internal/logger"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The preview binds to localhost; any page the developer opens may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type reloadMessage struct {
	Action string `json:"action"`
}

// hub tracks browser connections. Only broadcast writes to connections, under
// mu, so gorilla's single-writer rule holds.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	log   *slog.Logger
}

func newHub(log *slog.Logger) *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{}), log: log}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Debug("websocket connected", slog.Int("connections", n))
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	_ = c.Close()
	h.log.Debug("websocket disconnected", slog.Int("connections", n))
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *hub) broadcastReload() {
	data, err := json.Marshal(reloadMessage{Action: "reload"})
	if err != nil {
		h.log.Error("marshal reload message", logger.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.conns) == 0 {
		return
	}
	h.log.Info("broadcasting reload", slog.Int("connections", len(h.conns)))
	for c := range h.conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("reload send failed", logger.Error(err))
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		_ = c.Close()
		delete(h.conns, c)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", logger.Error(err))
			}
			return
		}
	}
}

package mockapi

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	socketWriteWait     = 10 * time.Second
	socketHandshakeWait = 5 * time.Second
	socketSendBuffer    = 16
)

// hub fans realtime events out to connected socket clients.
type hub struct {
	mu      sync.Mutex
	clients map[chan []byte]bool
}

func newHub() *hub {
	return &hub{clients: make(map[chan []byte]bool)}
}

func (h *hub) register() chan []byte {
	ch := make(chan []byte, socketSendBuffer)
	h.mu.Lock()
	h.clients[ch] = true
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *hub) broadcast(event, postID string) {
	frame, _ := json.Marshal(map[string]string{"event": event, "postId": postID})
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// Slow consumer; drop the frame rather than block the hub.
		}
	}
}

// registerSocket mounts the realtime endpoint. Clients authenticate by
// sending a token frame immediately after connecting.
func (s *Server) registerSocket(app *fiber.App) {
	app.Use("/socket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/socket", websocket.New(func(conn *websocket.Conn) {
		defer func() { _ = conn.Close() }()

		_ = conn.SetReadDeadline(time.Now().Add(socketHandshakeWait))
		var hs struct {
			Token string `json:"token"`
		}
		if err := conn.ReadJSON(&hs); err != nil {
			return
		}
		if _, err := s.parseToken(hs.Token); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"),
				time.Now().Add(socketWriteWait))
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		events := s.socket.register()
		defer s.socket.unregister(events)

		// Drain inbound frames so pings are answered and closes noticed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case frame := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}
	}))
}

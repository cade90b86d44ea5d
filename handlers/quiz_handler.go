package handlers

import (
	"log"
	"net/http"

	ws "tupilaqs/websocket"

	"github.com/gorilla/websocket"
)

// QuizSocket upgrades /quiz to a WebSocket and serves it until either side
// hangs up.
func (h *Handler) QuizSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	client := ws.NewClient(h.Hub, conn)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	log.Printf("quiz client connected from %s", client.RemoteAddr())

	go client.WritePump()
	client.ReadPump(r.Context(), h.Dispatcher)
	log.Printf("quiz client %s disconnected", client.RemoteAddr())
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	log.Printf("rejecting websocket from origin %q", origin)
	return false
}

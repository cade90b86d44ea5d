package websocket

import (
	"context"
	"log"
	"sync"

	"tupilaqs/models"
)

type broadcastMessage struct {
	frame []byte
	skip  *Client
}

// Hub tracks every connected quiz client so vote tallies can be pushed to all
// of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done, then stops
// every connected client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client == message.skip {
					continue
				}
				if !client.enqueue(message.frame) {
					log.Printf("dropping broadcast for slow client %s", client.RemoteAddr())
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues env for every connected client.
func (h *Hub) Broadcast(env models.Envelope) error {
	return h.BroadcastExcept(env, nil)
}

// BroadcastExcept queues env for every connected client but skip. The sender
// of a change gets its copy through Client.Send so it stays ordered with the
// sender's other replies.
func (h *Hub) BroadcastExcept(env models.Envelope, skip *Client) error {
	frame, err := models.Encode(env)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- broadcastMessage{frame: frame, skip: skip}:
	case <-h.done:
	}
	return nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

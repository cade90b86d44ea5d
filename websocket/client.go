package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"tupilaqs/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 32
)

// Handler reacts to one decoded message from a client. Returning false closes
// the connection once pending replies are flushed.
type Handler interface {
	HandleMessage(ctx context.Context, c *Client, env models.Envelope) bool
}

// Client is one browser connection. It remembers the user the connection has
// authenticated as, if any.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	stop     chan struct{} // closed to ask the writer to finish
	stopOnce sync.Once
	done     chan struct{} // closed when the writer has exited

	mu        sync.RWMutex
	userIdent string
	userName  string
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Client) SetUser(ident, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userIdent = ident
	c.userName = name
}

func (c *Client) User() (ident, name string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userIdent, c.userName
}

// Close asks the writer to flush what is queued and hang up.
func (c *Client) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Send queues env for this client only. It blocks while the queue is full and
// gives up once the writer has exited.
func (c *Client) Send(env models.Envelope) bool {
	frame, err := models.Encode(env)
	if err != nil {
		log.Printf("encode %s: %v", env.Type, err)
		return false
	}
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	}
}

// enqueue is the non-blocking variant used for broadcasts.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// ReadPump decodes frames from the connection and hands them to h until the
// peer goes away or h asks to close.
func (c *Client) ReadPump(ctx context.Context, h Handler) {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket error from %s: %v", c.RemoteAddr(), err)
			}
			return
		}

		env, err := models.Decode(frame)
		if err != nil {
			log.Printf("invalid message from %s: %v", c.RemoteAddr(), err)
			c.Send(models.ErrorEnvelope("Invalid message: " + err.Error()))
			continue
		}

		if !h.HandleMessage(ctx, c, env) {
			return
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// It owns closing the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-c.stop:
			for {
				select {
				case frame := <-c.send:
					if err := c.write(websocket.TextMessage, frame); err != nil {
						return
					}
				default:
					c.write(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

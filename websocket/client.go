package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"chatbug/backend/chat"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer. Generous enough for a maximum
	// length message plus its envelope.
	maxMessageSize = 8192

	// Outbound buffer per connection. A stalled reader fills it and gets
	// disconnected rather than delaying fan-out to everyone else.
	sendBufferSize = 256
)

// Client is one WebSocket connection. It implements chat.Outbox: the
// coordinator hands it encoded frames, the write pump drains them to the
// socket, and the read pump feeds inbound frames to the coordinator.
type Client struct {
	conn        *websocket.Conn
	coordinator *chat.Coordinator
	session     *chat.Session

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, coordinator *chat.Coordinator) *Client {
	return &Client{
		conn:        conn,
		coordinator: coordinator,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Send queues a frame without blocking. It reports false when the buffer is
// full or the connection is closing.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close asks the pumps to shut down. Safe to call any number of times.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump consumes inbound frames until the connection drops, then runs the
// disconnect path exactly once.
func (c *Client) readPump() {
	defer func() {
		c.coordinator.Disconnect(context.Background(), c.session)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Session %s closed by client", c.session.ID)
			} else {
				log.Printf("Session %s read error: %v", c.session.ID, err)
			}
			return
		}
		c.coordinator.HandleEvent(context.Background(), c.session, raw)
	}
}

// writePump drains the send buffer to the socket and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Session %s write error: %v", c.session.ID, err)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

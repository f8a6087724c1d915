package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Streams are server-to-client; inbound frames are only control traffic.
	maxMessageSize = 4 * 1024

	sendBufferSize = 16
)

// Conn wraps a gorilla websocket connection.
type Conn struct {
	*websocket.Conn
}

// Frame is one message on a stream.
type Frame struct {
	Stream string      `json:"stream"`
	Data   interface{} `json:"data"`
	SentAt int64       `json:"sentAt"`
}

// ReadPump drains inbound frames so control messages are processed, and
// unregisters the client when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error", err, logger.Fields{
					"stream":  c.Stream,
					"user_id": c.UserID,
				})
			}
			return
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write message", err, logger.Fields{
					"stream":  c.Stream,
					"user_id": c.UserID,
				})
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Pipe forwards every value from values to the client as a Frame until the
// client closes or values is closed, then calls stop.
func Pipe[T any](c *Client, values <-chan T, stop func()) {
	defer stop()
	for {
		select {
		case <-c.closed:
			return
		case v, ok := <-values:
			if !ok {
				c.Hub.Unregister(c)
				return
			}
			data, err := json.Marshal(Frame{Stream: c.Stream, Data: v, SentAt: time.Now().UnixMilli()})
			if err != nil {
				logger.Error("Failed to marshal stream frame", err, logger.Fields{"stream": c.Stream})
				continue
			}
			if !c.enqueue(data) {
				return
			}
		}
	}
}

// enqueue hands data to the write pump. A slow client loses its oldest
// pending frame, since every frame is a full snapshot.
func (c *Client) enqueue(data []byte) bool {
	for {
		select {
		case <-c.closed:
			return false
		default:
		}
		select {
		case c.Send <- data:
			return true
		default:
		}
		select {
		case <-c.Send:
		default:
		}
	}
}

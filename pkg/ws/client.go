package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	defaultSendQueue = 64
)

// Client is one connection. Only writePump writes to conn.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	Remote string
}

func newClient(conn *websocket.Conn, queue int) *Client {
	if queue <= 0 {
		queue = defaultSendQueue
	}
	c := &Client{
		conn: conn,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
	if conn != nil {
		c.Remote = conn.RemoteAddr().String()
	}
	return c
}

// Send queues frame without blocking. It reports false when the client is
// closed or its queue is full.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}

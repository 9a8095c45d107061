package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	readWait     = 60 * time.Second
)

// Client is one WebSocket connection of a session participant. A user
// may hold several connections at once; each gets its own client.
type Client struct {
	ID        string
	UserID    string
	SessionID string

	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex // guards channels and conn writes
	channels map[Channel]struct{}
}

func NewClient(conn *websocket.Conn, userID, sessionID string) *Client {
	return &Client{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, 256),
		channels:  make(map[Channel]struct{}),
	}
}

func (c *Client) joined(ch Channel) {
	c.mu.Lock()
	c.channels[ch] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) left(ch Channel) {
	c.mu.Lock()
	delete(c.channels, ch)
	c.mu.Unlock()
}

func (c *Client) Subscribed(ch Channel) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[ch]
	return ok
}

// WriteLoop drains the outbound buffer onto the connection and keeps
// the peer alive with pings. It exits when the buffer is closed or the
// context is cancelled.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.send:
			if !ok {
				c.close()
				return
			}
			c.write(websocket.TextMessage, msg)
		case <-ticker.C:
			c.write(websocket.PingMessage, []byte("ping"))
		}
	}
}

func (c *Client) write(messageType int, payload []byte) {
	c.mu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(messageType, payload)
	c.mu.Unlock()
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.conn.Close()
	c.mu.Unlock()
}

// SendMessage queues a message for the client without blocking; a full
// buffer drops the message.
func (c *Client) SendMessage(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

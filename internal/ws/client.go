package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gateway-service/internal/gateway"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound queue depth per connection
	sendBufferSize = 256
)

var errClientGone = errors.New("client disconnected")

// Client wraps one live websocket connection. The hub owns its membership;
// the read and write pumps own the underlying conn.
type Client struct {
	id       string
	identity gateway.Identity
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte

	closed int32

	// sendMu orders enqueue against closeSend: a send on c.send only
	// happens while holding the read side, so close cannot slip between
	// the sendClosed check and the send itself.
	sendMu     sync.RWMutex
	sendClosed bool
}

func newClient(hub *Hub, conn *websocket.Conn, identity gateway.Identity) *Client {
	return &Client{
		id:       uuid.New().String(),
		identity: identity,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Identity() gateway.Identity { return c.identity }

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) close() {
	atomic.CompareAndSwapInt32(&c.closed, 0, 1)
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// enqueue queues data for the write pump. A full queue drops the frame:
// delivery is best-effort and a slow consumer must not block the caller.
func (c *Client) enqueue(data []byte) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.isClosed() || c.sendClosed {
		return errClientGone
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send queue full")
	}
}

// enqueueJSON marshals v and queues it.
func (c *Client) enqueueJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// readPump reads frames off the connection and hands them to onFrame until
// the peer closes or a read error occurs. Frames from one connection are
// processed in arrival order.
func (c *Client) readPump(onFrame func(*Client, Frame)) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read failed", "connID", c.id, "userID", c.identity.UserID, "error", err)
			} else {
				slog.Debug("websocket closed", "connID", c.id, "userID", c.identity.UserID)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Debug("malformed frame", "connID", c.id, "error", err)
			c.enqueueJSON(Ack{Event: "ack", OK: false, Code: CodeBadRequest, Message: "invalid frame"})
			continue
		}
		onFrame(c, frame)
	}
}

// writePump drains the send queue onto the connection and keeps the peer
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("websocket write failed", "connID", c.id, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

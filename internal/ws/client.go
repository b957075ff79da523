package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 64
)

// Client is a single websocket connection owned by one user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// subscriptions tracks which chat keys this connection listens to
	subscriptions map[string]struct{}
	mu            sync.RWMutex

	send chan []byte
	done chan struct{}
}

// NewClient wraps an accepted connection. The caller runs ReadPump and
// WritePump in their own goroutines after registering with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		userID:        userID,
		subscriptions: make(map[string]struct{}),
		send:          make(chan []byte, sendBufSize),
		done:          make(chan struct{}),
	}
}

// IsSubscribed reports whether the client listens to a chat key.
func (c *Client) IsSubscribed(chatKey string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[chatKey]
	return ok
}

// Subscribe adds a chat-key subscription.
func (c *Client) Subscribe(chatKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[chatKey] = struct{}{}
}

// Unsubscribe removes a chat-key subscription.
func (c *Client) Unsubscribe(chatKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, chatKey)
}

// Register attaches the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump consumes client frames until the connection dies.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		if err := wsjson.Read(context.Background(), c.conn, &event); err != nil {
			if websocket.CloseStatus(err) == -1 {
				c.hub.logger.Debug("ws read error", "user", c.userID, "err", err)
			}
			return
		}
		c.handleEvent(&event)
	}
}

// WritePump drains the send channel to the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventChatSubscribe:
		if event.ChatKey == "" {
			c.sendError("INVALID_PAYLOAD", "chatKey required")
			return
		}
		c.Subscribe(event.ChatKey)

	case EventChatUnsubscribe:
		if event.ChatKey == "" {
			c.sendError("INVALID_PAYLOAD", "chatKey required")
			return
		}
		c.Unsubscribe(event.ChatKey)

	case EventPing:
		c.enqueue(Event{Type: EventPong})

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendError(code, message string) {
	payload, _ := json.Marshal(map[string]string{"code": code, "message": message})
	c.enqueue(Event{Type: EventError, Payload: payload})
}

func (c *Client) enqueue(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

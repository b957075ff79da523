// Package ws pushes stored chat messages to connected clients over
// websockets. Delivery is best-effort; the database is the source of truth
// and clients reconcile by re-fetching.
package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/classmatch/classmatch/internal/db"
)

// Hub owns all connected clients and routes pushed messages to chat-key
// subscribers. All state is confined to the Run goroutine.
type Hub struct {
	logger *slog.Logger

	// clients maps userID to client; one connection per user, a newer
	// connection replaces the older one.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	chatKey string
	data    []byte
}

// Event is the wire frame for everything the hub sends or receives.
type Event struct {
	Type    string          `json:"type"`
	ChatKey string          `json:"chatKey,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	EventMessageNew      = "message.new"
	EventChatSubscribe   = "chat.subscribe"
	EventChatUnsubscribe = "chat.unsubscribe"
	EventPing            = "ping"
	EventPong            = "pong"
	EventError           = "error"
)

// NewHub creates a hub; call Run in a goroutine before registering
// clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run is the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if old, ok := h.clients[client.userID]; ok {
				h.drop(old)
			}
			h.clients[client.userID] = client
			h.logger.Debug("ws client connected", "user", client.userID, "total", len(h.clients))

		case client := <-h.unregister:
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				h.drop(client)
				h.logger.Debug("ws client disconnected", "user", client.userID, "total", len(h.clients))
			}

		case msg := <-h.broadcast:
			for _, client := range h.clients {
				if !client.IsSubscribed(msg.chatKey) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// slow consumer, cut it loose
					delete(h.clients, client.userID)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	close(c.send)
	close(c.done)
}

// NotifyMessage pushes a stored message to every subscriber of its chat.
// Implements the chat service's Notifier.
func (h *Hub) NotifyMessage(chatKey string, msg db.ChatMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("ws marshal failed", "chat", chatKey, "err", err)
		return
	}
	data, err := json.Marshal(Event{Type: EventMessageNew, ChatKey: chatKey, Payload: payload})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- &broadcastMsg{chatKey: chatKey, data: data}:
	default:
		h.logger.Warn("ws broadcast queue full, dropping push", "chat", chatKey)
	}
}

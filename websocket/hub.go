package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"duochat/models"
)

const EventDirectMessage = "direct_message"

// Hub tracks the live connections of every user on this process.
type Hub struct {
	clients    map[string]*Client
	userConns  map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type ClientMessage struct {
	Action      string `json:"action"`
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text,omitempty"`
}

type DirectMessageEvent struct {
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

func NewDirectMessage(m models.Message) *Message {
	return &Message{
		Event: EventDirectMessage,
		Data: DirectMessageEvent{
			SenderID: m.SenderID,
			Text:     m.Text,
			SentAt:   m.SentAt,
		},
	}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		userConns:  make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns registration until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			if h.userConns[client.UserID] == nil {
				h.userConns[client.UserID] = make(map[*Client]bool)
			}
			h.userConns[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				if h.userConns[client.UserID] != nil {
					delete(h.userConns[client.UserID], client)
					if len(h.userConns[client.UserID]) == 0 {
						delete(h.userConns, client.UserID)
					}
				}
				close(client.Send)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUsers queues msg on every connection of the given users. A connection
// whose buffer is full misses the message.
func (h *Hub) SendToUsers(userIDs []string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode websocket message", "event", msg.Event, "err", err)
		return
	}
	h.sendRaw(userIDs, data)
}

func (h *Hub) sendRaw(userIDs []string, data []byte) {
	seen := make(map[string]bool, len(userIDs))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		for client := range h.userConns[userID] {
			select {
			case client.Send <- data:
			default:
				slog.Warn("dropping websocket message for slow client", "user_id", userID, "client_id", client.ID)
			}
		}
	}
}

// Notify delivers a committed direct message to both participants.
func (h *Hub) Notify(_ context.Context, participants []string, m models.Message) {
	h.SendToUsers(participants, NewDirectMessage(m))
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

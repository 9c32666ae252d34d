package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"duochat/middleware"
	"duochat/models"
	"duochat/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendTimeout    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MessageSender is the messaging operation a connected client may invoke.
type MessageSender interface {
	SendMessage(ctx context.Context, me models.Identity, recipient, text string) (models.Message, error)
}

type Client struct {
	ID     string
	UserID string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	sender MessageSender
}

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
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "user_id", c.UserID, "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.reply(errorEvent(services.ErrorValidation, "malformed message"))
		return
	}

	switch msg.Action {
	case "ping":
		c.reply(&Message{Event: "pong"})
	case "send_message":
		c.handleSendMessage(&msg)
	default:
		c.reply(errorEvent(services.ErrorInvalidOperand, "unknown action"))
	}
}

// handleSendMessage runs the same path as the HTTP send endpoint. The
// message itself reaches this client through the hub like any other push.
func (c *Client) handleSendMessage(msg *ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	stored, err := c.sender.SendMessage(ctx, models.Identity{UserID: c.UserID}, msg.RecipientID, msg.Text)
	if err != nil {
		code := services.CodeOf(err)
		if code == services.ErrorInternal {
			slog.Error("websocket send failed", "user_id", c.UserID, "err", err)
		}
		c.reply(errorEvent(code, services.MessageOf(err)))
		return
	}
	c.reply(&Message{Event: "message_sent", Data: gin.H{"id": stored.ID, "sent_at": stored.SentAt}})
}

func (c *Client) reply(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func errorEvent(code services.ErrorCode, message string) *Message {
	return &Message{Event: "error", Data: gin.H{"code": code, "message": message}}
}

// Handler upgrades authenticated requests to websocket connections.
type Handler struct {
	hub      *Hub
	messages MessageSender
	secret   string
}

func NewHandler(hub *Hub, messages MessageSender, secret string) *Handler {
	return &Handler{hub: hub, messages: messages, secret: secret}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	identity, err := middleware.ResolveIdentity(c, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade error", "err", err)
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: identity.UserID,
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		sender: h.messages,
	}

	if !client.Hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

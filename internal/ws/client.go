package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	authorizeWait  = 5 * time.Second
)

// Client frame actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Frame types sent only to the requesting client
const (
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameError        = "error"
)

// ScopeAuthorizer decides whether a user may follow a scope's live updates
// and returns the scope as stored (a parent-only scope is completed from the parent).
type ScopeAuthorizer interface {
	AuthorizeScope(ctx context.Context, userID uint64, scope domain.Scope) (domain.Scope, error)
}

// ClientFrame is a subscribe/unsubscribe request from the browser
type ClientFrame struct {
	Action          string  `json:"action"`
	ChannelID       *uint64 `json:"channel_id,omitempty"`
	ConversationID  *uint64 `json:"conversation_id,omitempty"`
	ParentMessageID *uint64 `json:"parent_message_id,omitempty"`
}

// Scope returns the scope named by the frame
func (f *ClientFrame) Scope() domain.Scope {
	return domain.Scope{
		ChannelID:       f.ChannelID,
		ParentMessageID: f.ParentMessageID,
		ConversationID:  f.ConversationID,
	}
}

// Client represents a single WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     uint64
	authorizer ScopeAuthorizer
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, userID uint64, authorizer ScopeAuthorizer) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		userID:     userID,
		authorizer: authorizer,
	}
}

// ReadPump reads subscribe/unsubscribe frames until the connection closes
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handleFrame(data)
	}
}

// handleFrame applies one client frame
func (c *Client) handleFrame(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.replyError("", "malformed frame")
		return
	}
	scope := frame.Scope()

	switch frame.Action {
	case ActionSubscribe:
		ctx, cancel := context.WithTimeout(context.Background(), authorizeWait)
		resolved, err := c.authorizer.AuthorizeScope(ctx, c.userID, scope)
		cancel()
		if err != nil {
			logger.GetLogger().Debug().Err(err).Uint64("user_id", c.userID).Str("scope", scope.Key()).Msg("ws subscribe denied")
			c.replyError(scope.Key(), err.Error())
			return
		}
		c.hub.Subscribe(c, resolved)
		c.hub.Reply(c, &Event{Type: FrameSubscribed, Scope: resolved.Key()})

	case ActionUnsubscribe:
		ctx, cancel := context.WithTimeout(context.Background(), authorizeWait)
		resolved, err := c.authorizer.AuthorizeScope(ctx, c.userID, scope)
		cancel()
		if err != nil {
			resolved = scope
		}
		c.hub.Unsubscribe(c, resolved)
		c.hub.Reply(c, &Event{Type: FrameUnsubscribed, Scope: resolved.Key()})

	default:
		c.replyError(scope.Key(), "unknown action")
	}
}

func (c *Client) replyError(scope, message string) {
	c.hub.Reply(c, &Event{Type: FrameError, Scope: scope, Payload: map[string]string{"message": message}})
}

// WritePump sends messages to the WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message) //nolint:errcheck
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

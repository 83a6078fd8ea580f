package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/pokerroom/holdem/internal/game"
	"github.com/pokerroom/holdem/internal/room"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. A connection
// is anonymous until it authenticates, and can then subscribe to one room
// at a time.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	registry  *room.Registry
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.RWMutex
	playerID string
	roomID   string
	coord    *room.Coordinator
	sub      *room.Subscription
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, registry *room.Registry) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		registry: registry,
		logger:   logger.WithPrefix("conn"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.detach()
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// detach drops the room subscription and marks the seat disconnected so
// the grace timer starts ticking.
func (c *Connection) detach() {
	c.mu.Lock()
	sub, coord, playerID := c.sub, c.coord, c.playerID
	c.sub, c.coord, c.roomID = nil, nil, ""
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if coord != nil && playerID != "" {
		if err := coord.Disconnect(playerID); err != nil {
			c.logger.Debug("Disconnect during detach", "player", playerID, "error", err)
		}
	}
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// PlayerID returns the authenticated player ID, or "" before auth.
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// RoomID returns the subscribed room ID, or "" when not subscribed.
func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.PlayerID())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeSubscribe:
		var data SubscribeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse subscribe data")
			return
		}
		c.handleSubscribe(data)

	case MessageTypeUnsubscribe:
		var data UnsubscribeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse unsubscribe data")
			return
		}
		c.handleUnsubscribe(data)

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse action data")
			return
		}
		c.handleAction(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// sendRuleError maps a coordinator error to a protocol error message.
func (c *Connection) sendRuleError(err error) {
	if re, ok := game.AsRuleError(err); ok {
		c.sendError(re.Code, re.Message)
		return
	}
	c.sendError("internal_error", err.Error())
}

func (c *Connection) handleAuth(data AuthData) {
	if data.PlayerID == "" {
		c.sendError("invalid_auth", "Player id required")
		return
	}

	c.mu.Lock()
	c.playerID = data.PlayerID
	c.mu.Unlock()
	c.logger.Info("Authenticated", "player", data.PlayerID)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerID,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleSubscribe(data SubscribeData) {
	playerID := c.PlayerID()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}

	coord, err := c.registry.Get(data.RoomID)
	if err != nil {
		c.sendRuleError(err)
		return
	}

	// Switching rooms drops the old subscription first.
	c.detach()

	// A seated player attaching counts as a reconnect and cancels any
	// pending grace timer. Spectators are not seated; that error is fine.
	if err := coord.Reconnect(playerID); err != nil {
		if re, ok := game.AsRuleError(err); !ok || re.Code != game.CodeNotSeated {
			c.sendRuleError(err)
			return
		}
	}

	sub, view := coord.Subscribe(playerID)

	c.mu.Lock()
	c.roomID = data.RoomID
	c.coord = coord
	c.sub = sub
	c.mu.Unlock()

	snapshot, _ := NewMessage(MessageTypeSnapshot, SnapshotData{
		RoomID: data.RoomID,
		View:   view,
	})
	_ = c.SendMessage(snapshot)

	go c.forwardUpdates(data.RoomID, sub)
}

// handleUnsubscribe stops the update stream only. The seat stays seated
// and connected; dropping the socket is what starts the grace window.
func (c *Connection) handleUnsubscribe(data UnsubscribeData) {
	c.mu.Lock()
	sub, roomID := c.sub, c.roomID
	c.sub = nil
	c.mu.Unlock()

	if sub == nil || (data.RoomID != "" && data.RoomID != roomID) {
		c.sendError("not_subscribed", "No matching room subscription")
		return
	}
	sub.Close()

	response, _ := NewMessage(MessageTypeUnsubscribed, UnsubscribedData{RoomID: roomID})
	_ = c.SendMessage(response)
}

// forwardUpdates relays room updates onto the connection until the
// subscription closes. The bus closes the channel when this subscriber
// falls too far behind; the client must resubscribe for a fresh snapshot.
// A channel closed by our own unsubscribe or room switch is silent.
func (c *Connection) forwardUpdates(roomID string, sub *room.Subscription) {
	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				c.mu.RLock()
				lapsed := c.sub == sub
				c.mu.RUnlock()
				if lapsed {
					c.sendError("subscription_lost", "Update stream lapsed, resubscribe for a fresh snapshot")
				}
				return
			}
			msg, err := NewMessage(MessageTypeUpdate, UpdateData{
				RoomID: roomID,
				Seq:    update.Seq,
				Event:  update.Event,
				View:   update.View,
			})
			if err != nil {
				c.logger.Error("Failed to encode update", "error", err)
				continue
			}
			if err := c.SendMessage(msg); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleAction(data ActionData) {
	playerID := c.PlayerID()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}

	c.mu.RLock()
	coord, roomID := c.coord, c.roomID
	c.mu.RUnlock()
	if coord == nil || (data.RoomID != "" && data.RoomID != roomID) {
		c.sendError("not_subscribed", "Subscribe to the room before acting")
		return
	}

	kind, err := game.ParseActionKind(data.Action)
	if err != nil {
		c.sendError("invalid_action", err.Error())
		return
	}

	if err := coord.Act(playerID, kind, data.Amount); err != nil {
		c.sendRuleError(err)
		return
	}
	// No response needed, the coordinator publishes the result.
}

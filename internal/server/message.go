package server

import (
	"encoding/json"
	"time"

	"github.com/pokerroom/holdem/internal/game"
	"github.com/pokerroom/holdem/internal/room"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeAuth        MessageType = "auth"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeAction      MessageType = "action"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeSnapshot     MessageType = "snapshot"
	MessageTypeUnsubscribed MessageType = "unsubscribed"
	MessageTypeUpdate       MessageType = "update"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerID string `json:"playerId"`
}

type SubscribeData struct {
	RoomID string `json:"roomId"`
}

type UnsubscribeData struct {
	RoomID string `json:"roomId,omitempty"`
}

type ActionData struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SnapshotData struct {
	RoomID string    `json:"roomId"`
	View   room.View `json:"view"`
}

type UnsubscribedData struct {
	RoomID string `json:"roomId"`
}

type UpdateData struct {
	RoomID string     `json:"roomId"`
	Seq    uint64     `json:"seq"`
	Event  game.Event `json:"event"`
	View   room.View  `json:"view"`
}

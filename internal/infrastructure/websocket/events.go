package websocket

import (
	"encoding/json"
	"time"

	"marketchat/internal/domain/entity"
)

// Client to server events
const (
	EventSendMessage = "send_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
	EventMarkRead    = "mark_read"
	EventUserOnline  = "user_online"
)

// Server to client events
const (
	EventNewMessage     = "new_message"
	EventMessageSent    = "message_sent"
	EventMessageError   = "message_error"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventMessageRead    = "message_read"
	EventUserStatus     = "user_status"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// inboundMessage defers decoding of data until the type is known.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type SendMessageData struct {
	ReceiverID string `json:"receiver_id"`
	AdID       string `json:"ad_id"`
	Content    string `json:"content"`
	TempID     string `json:"temp_id,omitempty"`
}

type TypingData struct {
	ReceiverID string `json:"receiver_id"`
	AdID       string `json:"ad_id,omitempty"`
}

type MarkReadData struct {
	MessageID string `json:"message_id"`
}

// MessageData carries a stored message with the sender and ad summaries. TempID
// is only set on the message_sent acknowledgement.
type MessageData struct {
	*entity.Message
	Sender *entity.UserSummary `json:"sender,omitempty"`
	Ad     *entity.AdSummary   `json:"ad,omitempty"`
	TempID string              `json:"temp_id,omitempty"`
}

type ErrorData struct {
	Event  string `json:"event"`
	Code   string `json:"code"`
	Error  string `json:"error"`
	TempID string `json:"temp_id,omitempty"`
}

type UserTypingData struct {
	UserID string `json:"user_id"`
	AdID   string `json:"ad_id,omitempty"`
}

type MessageReadData struct {
	MessageID string    `json:"message_id"`
	ReaderID  string    `json:"reader_id"`
	ReadAt    time.Time `json:"read_at"`
}

type UserStatusData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/logger"
)

// MessageService is the part of the message use case the gateway drives.
type MessageService interface {
	SendMessage(ctx context.Context, senderID string, input usecase.SendMessageInput) (*usecase.MessageResponse, error)
	MarkRead(ctx context.Context, userID, messageID string) (*entity.Message, error)
}

// Gateway turns client frames into use case calls and relays the results
// through the registry. Every relay happens after the store call returned.
type Gateway struct {
	registry Registry
	messages MessageService
	now      func() time.Time
}

func NewGateway(registry Registry, messages MessageService) *Gateway {
	return &Gateway{
		registry: registry,
		messages: messages,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (g *Gateway) Connect(client *Client) {
	g.registry.Register(client)
}

// Disconnect unregisters client and announces the user offline once their
// last connection is gone.
func (g *Gateway) Disconnect(client *Client) {
	if !g.registry.Unregister(client) {
		return
	}

	g.broadcastExcept(client.UserID, EventUserStatus, UserStatusData{
		UserID: client.UserID,
		Status: StatusOffline,
	})
}

func (g *Gateway) ConnectionCount() int {
	return g.registry.ConnectionCount()
}

// HandleClientMessage processes incoming WebSocket messages
func (g *Gateway) HandleClientMessage(ctx context.Context, client *Client, messageBytes []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		logger.Warn("WebSocket: Failed to unmarshal message from client %s: %v", client.UserID, err)
		g.sendError(client, "", "", errors.BadRequest("Invalid message format", err))
		return
	}

	logger.Debug("WebSocket: Received message type '%s' from client %s", msg.Type, client.UserID)

	switch msg.Type {
	case EventSendMessage:
		g.handleSendMessage(ctx, client, msg.Data)

	case EventTypingStart:
		g.handleTyping(client, msg.Type, EventUserTyping, msg.Data)

	case EventTypingStop:
		g.handleTyping(client, msg.Type, EventUserStopTyping, msg.Data)

	case EventMarkRead:
		g.handleMarkRead(ctx, client, msg.Data)

	case EventUserOnline:
		g.broadcastExcept(client.UserID, EventUserStatus, UserStatusData{
			UserID: client.UserID,
			Status: StatusOnline,
		})

	default:
		logger.Warn("WebSocket: Unknown message type '%s' from client %s", msg.Type, client.UserID)
		g.sendError(client, msg.Type, "", errors.BadRequest("Unknown event type", nil))
	}
}

func (g *Gateway) handleSendMessage(ctx context.Context, client *Client, raw json.RawMessage) {
	var data SendMessageData
	if err := decodeData(raw, &data); err != nil {
		g.sendError(client, EventSendMessage, "", errors.BadRequest("Invalid send_message payload", err))
		return
	}

	result, err := g.messages.SendMessage(ctx, client.UserID, usecase.SendMessageInput{
		ReceiverID: data.ReceiverID,
		AdID:       data.AdID,
		Content:    data.Content,
	})
	if err != nil {
		g.sendError(client, EventSendMessage, data.TempID, err)
		return
	}

	delivered := g.sendToUser(result.Message.ReceiverID, EventNewMessage, MessageData{
		Message: result.Message,
		Sender:  result.Sender,
		Ad:      result.Ad,
	})
	if delivered == 0 {
		logger.Debug("WebSocket: user %s offline, message %s kept for later", result.Message.ReceiverID, result.Message.ID)
	}

	g.sendToClient(client, EventMessageSent, MessageData{
		Message: result.Message,
		Sender:  result.Sender,
		Ad:      result.Ad,
		TempID:  data.TempID,
	})
}

func (g *Gateway) handleTyping(client *Client, event, relay string, raw json.RawMessage) {
	var data TypingData
	if err := decodeData(raw, &data); err != nil {
		g.sendError(client, event, "", errors.BadRequest("Invalid typing payload", err))
		return
	}

	receiverID := strings.TrimSpace(data.ReceiverID)
	if receiverID == "" {
		g.sendError(client, event, "", errors.Validation("receiver_id is required"))
		return
	}
	if receiverID == client.UserID {
		return
	}

	g.sendToUser(receiverID, relay, UserTypingData{
		UserID: client.UserID,
		AdID:   data.AdID,
	})
}

func (g *Gateway) handleMarkRead(ctx context.Context, client *Client, raw json.RawMessage) {
	var data MarkReadData
	if err := decodeData(raw, &data); err != nil {
		g.sendError(client, EventMarkRead, "", errors.BadRequest("Invalid mark_read payload", err))
		return
	}

	message, err := g.messages.MarkRead(ctx, client.UserID, data.MessageID)
	if err != nil {
		g.sendError(client, EventMarkRead, "", err)
		return
	}

	readAt := g.now()
	if message.ReadAt != nil {
		readAt = *message.ReadAt
	}

	g.sendToUser(message.SenderID, EventMessageRead, MessageReadData{
		MessageID: message.ID,
		ReaderID:  client.UserID,
		ReadAt:    readAt,
	})
}

// sendError reports a failed event to the originating connection only.
// Internal failures are logged and replaced with a generic text.
func (g *Gateway) sendError(client *Client, event, tempID string, err error) {
	appErr := errors.As(err)

	text := appErr.Message
	if appErr.Status >= 500 {
		logger.Error("WebSocket: %s failed for user %s: %v", event, client.UserID, err)
		text = "Something went wrong, please try again"
	}

	g.sendToClient(client, EventMessageError, ErrorData{
		Event:  event,
		Code:   appErr.Code,
		Error:  text,
		TempID: tempID,
	})
}

func (g *Gateway) sendToClient(client *Client, event string, data interface{}) {
	frame, ok := g.encode(event, data)
	if !ok {
		return
	}
	client.enqueue(frame)
}

func (g *Gateway) sendToUser(userID, event string, data interface{}) int {
	frame, ok := g.encode(event, data)
	if !ok {
		return 0
	}
	return g.registry.SendToUser(userID, frame)
}

func (g *Gateway) broadcastExcept(userID, event string, data interface{}) {
	frame, ok := g.encode(event, data)
	if !ok {
		return
	}
	g.registry.BroadcastExcept(userID, frame)
}

func (g *Gateway) encode(event string, data interface{}) ([]byte, bool) {
	frame, err := json.Marshal(WSMessage{
		Type:      event,
		Data:      data,
		Timestamp: g.now().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: Failed to marshal %s event: %v", event, err)
		return nil, false
	}
	return frame, true
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.BadRequest("data is required", nil)
	}
	return json.Unmarshal(raw, v)
}

package handler

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
	"marketchat/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	AdID       string `json:"ad_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// SendMessage stores a message from the authenticated user. Realtime delivery
// is left to the websocket path.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.messageUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ReceiverID: req.ReceiverID,
		AdID:       req.AdID,
		Content:    req.Content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *MessageHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.messageUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// ListMessages returns the thread with :peerId and marks the caller's
// received messages on the page as read.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	peerID := c.Param("peerId")

	pagination := utils.GetPaginationParams(c)

	page, err := h.messageUseCase.ListMessages(c.Request().Context(), userID, peerID, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, page.Messages, page.Total, page.Page, page.PageSize)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	messageID := c.Param("id")

	message, err := h.messageUseCase.MarkRead(c.Request().Context(), userID, messageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.messageUseCase.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{
		"count": count,
	})
}

package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
	"marketchat/pkg/utils"
)

type MessageUseCase struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	adRepo      repository.AdRepository
	now         func() time.Time
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	adRepo repository.AdRepository,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		adRepo:      adRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type SendMessageInput struct {
	ReceiverID string
	AdID       string
	Content    string
}

// MessageResponse is a message with the public summaries of both parties and
// the ad it is about.
type MessageResponse struct {
	Message  *entity.Message     `json:"message"`
	Sender   *entity.UserSummary `json:"sender"`
	Receiver *entity.UserSummary `json:"receiver"`
	Ad       *entity.AdSummary   `json:"ad"`
}

type MessagePage struct {
	Messages []*entity.Message
	Total    int64
	Page     int
	PageSize int
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*MessageResponse, error) {
	if senderID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	receiverID := strings.TrimSpace(input.ReceiverID)
	adID := strings.TrimSpace(input.AdID)
	if receiverID == "" {
		return nil, errors.Validation("receiver_id is required")
	}
	if adID == "" {
		return nil, errors.Validation("ad_id is required")
	}

	content, err := normalizeContent(input.Content)
	if err != nil {
		return nil, err
	}

	if senderID == receiverID {
		return nil, errors.InvalidOperation("You cannot send a message to yourself")
	}

	receiver, err := uc.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		log.Printf("SendMessage Error: Receiver %s lookup failed: %v", receiverID, err)
		return nil, err
	}

	ad, err := uc.adRepo.GetByID(ctx, adID)
	if err != nil {
		log.Printf("SendMessage Error: Ad %s lookup failed: %v", adID, err)
		return nil, err
	}

	if !ad.AcceptsMessages() {
		return nil, errors.PreconditionFailed("This ad is not open for messages")
	}

	message := entity.NewMessage(senderID, receiverID, adID, content)
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to store message from %s to %s: %v", senderID, receiverID, err)
		return nil, err
	}

	return &MessageResponse{
		Message:  message,
		Sender:   uc.userSummary(ctx, senderID),
		Receiver: receiver.Summary(),
		Ad:       ad.Summary(),
	}, nil
}

// ListMessages returns one page of the thread between userID and peerID.
// Pages count back from the newest message and each page is oldest first.
// Messages on the page that userID received are marked read in one batch.
func (uc *MessageUseCase) ListMessages(ctx context.Context, userID, peerID string, page, pageSize int) (*MessagePage, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if strings.TrimSpace(peerID) == "" {
		return nil, errors.Validation("peer id is required")
	}

	params := utils.NewPaginationParams(page, pageSize)

	messages, total, err := uc.messageRepo.ListBetween(ctx, userID, peerID, params.PageSize, params.Offset)
	if err != nil {
		log.Printf("ListMessages Error: Failed to list messages between %s and %s: %v", userID, peerID, err)
		return nil, err
	}

	reverse(messages)

	readAt := uc.clock()
	var unread []string
	for _, message := range messages {
		if message.IsUnreadFor(userID) {
			unread = append(unread, message.ID)
		}
	}

	if len(unread) > 0 {
		if err := uc.messageRepo.MarkManyRead(ctx, unread, userID, readAt); err != nil {
			log.Printf("ListMessages Error: Failed to mark %d messages read for %s: %v", len(unread), userID, err)
			return nil, err
		}
		for _, message := range messages {
			if message.IsUnreadFor(userID) {
				message.MarkRead(readAt)
			}
		}
	}

	if messages == nil {
		messages = []*entity.Message{}
	}

	return &MessagePage{
		Messages: messages,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

// MarkRead marks one message read on behalf of its receiver. Repeated calls
// return the message unchanged.
func (uc *MessageUseCase) MarkRead(ctx context.Context, userID, messageID string) (*entity.Message, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if strings.TrimSpace(messageID) == "" {
		return nil, errors.Validation("message_id is required")
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if message.ReceiverID != userID {
		log.Printf("MarkRead Error: User %s is not the receiver of message %s", userID, messageID)
		return nil, errors.Forbidden("Only the receiver can mark a message as read", nil)
	}

	if message.Read {
		return message, nil
	}

	return uc.messageRepo.MarkRead(ctx, messageID, uc.clock())
}

// clock returns the read receipt time at the millisecond precision every
// store keeps, so a response matches what a later read returns.
func (uc *MessageUseCase) clock() time.Time {
	return uc.now().UTC().Truncate(time.Millisecond)
}

func (uc *MessageUseCase) CountUnread(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.Unauthorized("Authentication required", nil)
	}
	return uc.messageRepo.CountUnread(ctx, userID)
}

// ListConversations builds the inbox for userID from every message they took
// part in, then attaches counterpart profiles and ad summaries.
func (uc *MessageUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	messages, err := uc.messageRepo.ListInvolving(ctx, userID)
	if err != nil {
		log.Printf("ListConversations Error: Failed to load messages for %s: %v", userID, err)
		return nil, err
	}

	conversations := BuildConversations(userID, messages)

	users := make(map[string]*entity.UserSummary)
	ads := make(map[string]*entity.AdSummary)
	for _, conv := range conversations {
		counterpartID := conv.Counterpart.ID
		if _, ok := users[counterpartID]; !ok {
			users[counterpartID] = uc.userSummary(ctx, counterpartID)
		}
		conv.Counterpart = users[counterpartID]

		adID := conv.LastMessage.AdID
		if _, ok := ads[adID]; !ok {
			ads[adID] = uc.adSummary(ctx, adID)
		}
		conv.Ad = ads[adID]
	}

	return conversations, nil
}

// userSummary never fails: a missing profile degrades to an id-only summary.
func (uc *MessageUseCase) userSummary(ctx context.Context, userID string) *entity.UserSummary {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Warning: user %s profile unavailable: %v", userID, err)
		return &entity.UserSummary{ID: userID}
	}
	return user.Summary()
}

func (uc *MessageUseCase) adSummary(ctx context.Context, adID string) *entity.AdSummary {
	ad, err := uc.adRepo.GetByID(ctx, adID)
	if err != nil {
		log.Printf("Warning: ad %s unavailable: %v", adID, err)
		return &entity.AdSummary{ID: adID}
	}
	return ad.Summary()
}

func reverse(messages []*entity.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

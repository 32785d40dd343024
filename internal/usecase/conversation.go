package usecase

import (
	"sort"

	"marketchat/internal/domain/entity"
)

// BuildConversations groups messages by the counterpart of userID. Each group
// keeps its newest message and the number of messages userID has not read.
// Groups are ordered newest first; equal timestamps fall back to the
// counterpart id so repeated calls return the same order. Profiles and ads are
// attached by the caller.
func BuildConversations(userID string, messages []*entity.Message) []*entity.Conversation {
	byCounterpart := make(map[string]*entity.Conversation)

	for _, message := range messages {
		if message.SenderID != userID && message.ReceiverID != userID {
			continue
		}

		counterpart := message.Counterpart(userID)
		conv, ok := byCounterpart[counterpart]
		if !ok {
			conv = &entity.Conversation{
				Counterpart: &entity.UserSummary{ID: counterpart},
				LastMessage: message,
			}
			byCounterpart[counterpart] = conv
		} else if newer(message, conv.LastMessage) {
			conv.LastMessage = message
		}

		if message.IsUnreadFor(userID) {
			conv.UnreadCount++
		}
	}

	conversations := make([]*entity.Conversation, 0, len(byCounterpart))
	for _, conv := range byCounterpart {
		conversations = append(conversations, conv)
	}

	sort.Slice(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if !a.LastMessage.CreatedAt.Equal(b.LastMessage.CreatedAt) {
			return a.LastMessage.CreatedAt.After(b.LastMessage.CreatedAt)
		}
		return a.Counterpart.ID < b.Counterpart.ID
	})

	return conversations
}

func newer(a, b *entity.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

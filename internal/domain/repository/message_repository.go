package repository

import (
	"context"
	"time"

	"marketchat/internal/domain/entity"
)

// MessageRepository persists messages. Implementations assign ID and
// CreatedAt on Create and are the only clock for message ordering.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)

	// ListBetween returns messages exchanged by the two users, newest first.
	ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]*entity.Message, int64, error)
	// ListInvolving returns every message the user sent or received.
	ListInvolving(ctx context.Context, userID string) ([]*entity.Message, error)

	// MarkRead sets the read flag once and returns the stored message.
	// Calling it on a read message leaves ReadAt untouched.
	MarkRead(ctx context.Context, id string, at time.Time) (*entity.Message, error)
	// MarkManyRead marks the given messages read where receiverID is the
	// receiver and they are still unread.
	MarkManyRead(ctx context.Context, ids []string, receiverID string, at time.Time) error
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

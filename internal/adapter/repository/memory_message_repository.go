package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type storedMessage struct {
	seq     int64
	message entity.Message
}

type memoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*storedMessage
	seq      int64
	now      func() time.Time
}

// NewMemoryMessageRepository keeps messages in process memory. It backs the
// "memory" store driver and the unit tests.
func NewMemoryMessageRepository() repository.MessageRepository {
	return NewMemoryMessageRepositoryWithClock(func() time.Time { return time.Now().UTC() })
}

func NewMemoryMessageRepositoryWithClock(now func() time.Time) repository.MessageRepository {
	return &memoryMessageRepository{
		messages: make(map[string]*storedMessage),
		now:      now,
	}
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = newMessageID()
	}
	message.CreatedAt = r.now()

	r.seq++
	r.messages[message.ID] = &storedMessage{seq: r.seq, message: copyMessage(message)}

	return nil
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}

	message := copyMessage(&stored.message)
	return &message, nil
}

func (r *memoryMessageRepository) ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]*entity.Message, int64, error) {
	key := entity.PairKey(userA, userB)

	r.mu.RLock()
	matches := r.filter(func(m *entity.Message) bool { return m.PairKey == key })
	r.mu.RUnlock()

	total := int64(len(matches))
	if offset < 0 {
		offset = 0
	}
	if offset > len(matches) {
		offset = len(matches)
	}
	end := len(matches)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return matches[offset:end], total, nil
}

func (r *memoryMessageRepository) ListInvolving(ctx context.Context, userID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(m *entity.Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	}), nil
}

func (r *memoryMessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}

	stored.message.MarkRead(at)
	message := copyMessage(&stored.message)
	return &message, nil
}

func (r *memoryMessageRepository) MarkManyRead(ctx context.Context, ids []string, receiverID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if stored, ok := r.messages[id]; ok && stored.message.ReceiverID == receiverID {
			stored.message.MarkRead(at)
		}
	}

	return nil
}

func (r *memoryMessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, stored := range r.messages {
		if stored.message.IsUnreadFor(receiverID) {
			count++
		}
	}

	return count, nil
}

// filter returns copies of the matching messages, newest first. Callers hold
// at least the read lock.
func (r *memoryMessageRepository) filter(match func(*entity.Message) bool) []*entity.Message {
	var stored []*storedMessage
	for _, s := range r.messages {
		if match(&s.message) {
			stored = append(stored, s)
		}
	}

	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.message.CreatedAt.Equal(b.message.CreatedAt) {
			return a.message.CreatedAt.After(b.message.CreatedAt)
		}
		return a.seq > b.seq
	})

	messages := make([]*entity.Message, 0, len(stored))
	for _, s := range stored {
		message := copyMessage(&s.message)
		messages = append(messages, &message)
	}
	return messages
}

func copyMessage(m *entity.Message) entity.Message {
	c := *m
	if m.ReadAt != nil {
		readAt := *m.ReadAt
		c.ReadAt = &readAt
	}
	c.Participants = append([]string(nil), m.Participants...)
	return c
}

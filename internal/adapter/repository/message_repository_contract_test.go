package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

// testMessageRepository runs the behaviour every store driver must share.
// User ids are random so the suite can run against a shared database.
func testMessageRepository(t *testing.T, repo repository.MessageRepository) {
	ctx := context.Background()
	alice, bob, carol := "alice-"+uuid.NewString(), "bob-"+uuid.NewString(), "carol-"+uuid.NewString()

	send := func(t *testing.T, from, to, content string) *entity.Message {
		t.Helper()
		m := entity.NewMessage(from, to, "ad1", content)
		require.NoError(t, repo.Create(ctx, m))
		return m
	}

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		m := send(t, alice, carol, "hello carol")

		assert.NotEmpty(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
		assert.Equal(t, "hello carol", got.Content)
		assert.False(t, got.Read)
		assert.Nil(t, got.ReadAt)
		assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get missing message", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	first := send(t, alice, bob, "first")
	second := send(t, bob, alice, "second")
	third := send(t, alice, bob, "third")

	t.Run("list between is newest first for either caller", func(t *testing.T) {
		for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
			messages, total, err := repo.ListBetween(ctx, pair[0], pair[1], 10, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(3), total)
			assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(messages))
		}
	})

	t.Run("list between honours limit and offset", func(t *testing.T) {
		messages, total, err := repo.ListBetween(ctx, alice, bob, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{first.ID}, ids(messages))
	})

	t.Run("list involving covers sent and received", func(t *testing.T) {
		messages, err := repo.ListInvolving(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(messages))

		messages, err = repo.ListInvolving(ctx, carol)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
	})

	t.Run("mark read keeps the first timestamp", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Millisecond)

		got, err := repo.MarkRead(ctx, first.ID, at)
		require.NoError(t, err)
		require.True(t, got.Read)
		require.NotNil(t, got.ReadAt)
		assert.True(t, at.Equal(*got.ReadAt))

		got, err = repo.MarkRead(ctx, first.ID, at.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, at.Equal(*got.ReadAt))

		_, err = repo.MarkRead(ctx, uuid.NewString(), at)
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("count and batch mark unread", func(t *testing.T) {
		count, err := repo.CountUnread(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		require.NoError(t, repo.MarkManyRead(ctx, []string{third.ID}, bob, time.Now().UTC()))
		require.NoError(t, repo.MarkManyRead(ctx, nil, bob, time.Now().UTC()))

		count, err = repo.CountUnread(ctx, bob)
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = repo.CountUnread(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("batch mark read keeps earlier receipts and other receivers", func(t *testing.T) {
		m := send(t, bob, carol, "still there?")
		at := time.Now().UTC().Truncate(time.Millisecond)

		_, err := repo.MarkRead(ctx, m.ID, at)
		require.NoError(t, err)

		require.NoError(t, repo.MarkManyRead(ctx, []string{m.ID, second.ID, uuid.NewString()}, carol, at.Add(time.Hour)))

		got, err := repo.GetByID(ctx, m.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReadAt)
		assert.True(t, at.Equal(*got.ReadAt), "readAt moved to %v", got.ReadAt)

		got, err = repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.False(t, got.Read)

		count, err := repo.CountUnread(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func ids(messages []*entity.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}

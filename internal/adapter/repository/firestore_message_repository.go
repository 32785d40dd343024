package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = newMessageID()
	}

	message.CreatedAt = time.Now().UTC()

	_, err := r.client.Collection(messagesCollection).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection(messagesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	return decodeMessage(doc)
}

func (r *firestoreMessageRepository) ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection(messagesCollection).
		Where("pairKey", "==", entity.PairKey(userA, userB)).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	total, err := countQuery(ctx, query)
	if err != nil {
		log.Printf("Firestore error while counting messages between %s and %s: %v", userA, userB, err)
		return nil, 0, errors.Internal("Failed to count messages", err)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	messages, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) ListInvolving(ctx context.Context, userID string) ([]*entity.Message, error) {
	query := r.client.Collection(messagesCollection).
		Where("participants", "array-contains", userID).
		OrderBy("createdAt", firestore.Desc)

	return r.collect(query.Documents(ctx))
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*entity.Message, error) {
	ref := r.client.Collection(messagesCollection).Doc(id)

	var message *entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		message, err = decodeMessage(doc)
		if err != nil {
			return err
		}

		if !message.MarkRead(at) {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "read", Value: true},
			{Path: "readAt", Value: at},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		if errors.Is(err, errors.CodeInternal) {
			return nil, err
		}
		return nil, errors.Internal("Failed to mark message as read", err)
	}

	return message, nil
}

// MarkManyRead only writes receiverID's unread messages among ids. Each write
// is conditioned on the snapshot it was checked against, so a message that a
// concurrent MarkRead stamped in between keeps its first readAt.
func (r *firestoreMessageRepository) MarkManyRead(ctx context.Context, ids []string, receiverID string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	collection := r.client.Collection(messagesCollection)
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, collection.Doc(id))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return errors.Internal("Failed to load messages", err)
	}

	bw := r.client.BulkWriter(ctx)

	var jobs []*firestore.BulkWriterJob
	var queued []string
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		message, err := decodeMessage(doc)
		if err != nil {
			bw.End()
			return err
		}
		if !message.IsUnreadFor(receiverID) {
			continue
		}

		job, err := bw.Update(doc.Ref, []firestore.Update{
			{Path: "read", Value: true},
			{Path: "readAt", Value: at},
		}, firestore.LastUpdateTime(doc.UpdateTime))
		if err != nil {
			bw.End()
			return errors.Internal("Failed to queue read receipt", err)
		}
		jobs = append(jobs, job)
		queued = append(queued, doc.Ref.ID)
	}
	bw.End()

	for i, job := range jobs {
		_, err := job.Results()
		if err == nil {
			continue
		}
		// Changed since it was read; only a read receipt changes a message.
		if status.Code(err) == codes.FailedPrecondition {
			continue
		}
		log.Printf("MarkManyRead: message %s for receiver %s failed: %v", queued[i], receiverID, err)
		return errors.Internal("Failed to mark messages as read", err)
	}

	return nil
}

func (r *firestoreMessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	query := r.client.Collection(messagesCollection).
		Where("receiverId", "==", receiverID).
		Where("read", "==", false)

	count, err := countQuery(ctx, query)
	if err != nil {
		log.Printf("Firestore error while counting unread messages for %s: %v", receiverID, err)
		return 0, errors.Internal("Failed to count unread messages", err)
	}

	return count, nil
}

// countQuery runs a server-side count aggregation over q.
func countQuery(ctx context.Context, q firestore.Query) (int64, error) {
	results, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}

	value, ok := results["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", results["all"])
	}

	return value.GetIntegerValue(), nil
}

func (r *firestoreMessageRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Message, error) {
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages: %v", err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		message, err := decodeMessage(doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	if message.ID == "" {
		message.ID = doc.Ref.ID
	}
	return &message, nil
}

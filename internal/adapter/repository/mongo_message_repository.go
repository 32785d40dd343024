package repository

import (
	"context"
	stderrors "errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type mongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messagesCollection),
	}
}

// EnsureMessageIndexes creates the indexes backing thread, inbox and unread
// queries. It is safe to call on every start.
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(messagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pairKey", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "receiverId", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return errors.Internal("Failed to create message indexes", err)
	}
	return nil
}

func (r *mongoMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = newMessageID()
	}

	// Mongo stores milliseconds; truncating here keeps the returned value equal
	// to what a later read produces.
	message.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *mongoMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	var message entity.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	return &message, nil
}

func (r *mongoMessageRepository) ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]*entity.Message, int64, error) {
	filter := bson.M{"pairKey": entity.PairKey(userA, userB)}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("Mongo error while counting messages between %s and %s: %v", userA, userB, err)
		return nil, 0, errors.Internal("Failed to count messages", err)
	}

	opts := options.Find().SetSort(newestFirst())
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	messages, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *mongoMessageRepository) ListInvolving(ctx context.Context, userID string) ([]*entity.Message, error) {
	return r.find(ctx, bson.M{"participants": userID}, options.Find().SetSort(newestFirst()))
}

func (r *mongoMessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*entity.Message, error) {
	at = at.UTC().Truncate(time.Millisecond)

	// Matching on read=false makes the update a no-op for read messages, so
	// the first readAt survives.
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": at}},
	)
	if err != nil {
		return nil, errors.Internal("Failed to mark message as read", err)
	}

	return r.GetByID(ctx, id)
}

func (r *mongoMessageRepository) MarkManyRead(ctx context.Context, ids []string, receiverID string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "receiverId": receiverID, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": at.UTC().Truncate(time.Millisecond)}},
	)
	if err != nil {
		return errors.Internal("Failed to mark messages as read", err)
	}

	return nil
}

func (r *mongoMessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"receiverId": receiverID, "read": false})
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}
	return count, nil
}

func (r *mongoMessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Internal("Failed to query messages", err)
	}

	var messages []*entity.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return messages, nil
}

func newestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

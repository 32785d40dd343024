package repository

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type mongoAdRepository struct {
	collection *mongo.Collection
}

func NewMongoAdRepository(db *mongo.Database) repository.AdRepository {
	return &mongoAdRepository{collection: db.Collection("ads")}
}

func (r *mongoAdRepository) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	var ad entity.Ad
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ad); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NotFound("Ad", err)
		}
		return nil, errors.Internal("Failed to get ad", err)
	}
	return &ad, nil
}

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{collection: db.Collection("users")}
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}
	return &user, nil
}

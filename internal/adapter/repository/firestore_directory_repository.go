package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type firestoreAdRepository struct {
	client *firestore.Client
}

// NewFirestoreAdRepository reads the "ads" collection owned by the listings
// service.
func NewFirestoreAdRepository(client *firestore.Client) repository.AdRepository {
	return &firestoreAdRepository{
		client: client,
	}
}

func (r *firestoreAdRepository) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	doc, err := r.client.Collection("ads").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Ad", err)
		}
		return nil, errors.Internal("Failed to get ad", err)
	}

	var ad entity.Ad
	if err := doc.DataTo(&ad); err != nil {
		return nil, errors.Internal("Failed to parse ad data", err)
	}
	ad.ID = doc.Ref.ID

	return &ad, nil
}

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

package repository

import (
	"context"

	"marketchat/internal/domain/entity"
)

type AdRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Ad, error)
}

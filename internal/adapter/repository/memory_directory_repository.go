package repository

import (
	"context"
	"sync"

	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

// MemoryAdRepository is an in-process ad directory for development and tests.
type MemoryAdRepository struct {
	mu  sync.RWMutex
	ads map[string]entity.Ad
}

func NewMemoryAdRepository(ads ...*entity.Ad) *MemoryAdRepository {
	r := &MemoryAdRepository{ads: make(map[string]entity.Ad)}
	for _, ad := range ads {
		r.Put(ad)
	}
	return r
}

func (r *MemoryAdRepository) Put(ad *entity.Ad) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ads[ad.ID] = *ad
}

func (r *MemoryAdRepository) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ad, ok := r.ads[id]
	if !ok {
		return nil, errors.NotFound("Ad", nil)
	}
	return &ad, nil
}

// MemoryUserRepository is an in-process user directory for development and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

func NewMemoryUserRepository(users ...*entity.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]entity.User)}
	for _, user := range users {
		r.Put(user)
	}
	return r
}

func (r *MemoryUserRepository) Put(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return &user, nil
}

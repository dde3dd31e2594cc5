package memory

import (
	"context"
	"sync"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]repository.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users: make(map[string]repository.User),
	}
}

func (r *UserRepo) Create(_ context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.users[u.Username]; found {
		return repository.ErrDuplicate
	}
	r.users[u.Username] = *u
	return nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, found := r.users[username]
	if !found {
		return nil, repository.ErrObjectNotFound
	}
	return &u, nil
}

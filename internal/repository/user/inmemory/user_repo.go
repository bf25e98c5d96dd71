package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartTask/internal/models/user"
	repo "smartTask/internal/repository"

	"github.com/google/uuid"
)

type UserStorage struct {
	storage map[uuid.UUID]*user.User
	mtx     sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		storage: make(map[uuid.UUID]*user.User),
	}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, u := range s.storage {
		if u.Username == userToCreate.Username || u.Email == userToCreate.Email {
			return repo.ErrDuplicate
		}
	}

	userToCreate.CreatedAt = time.Now()
	cp := *userToCreate
	s.storage[userToCreate.ID] = &cp
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.storage {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.storage {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *UserStorage) List(ctx context.Context, offset, limit int) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	users := []*user.User{}
	for _, u := range s.storage {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	if offset >= len(users) {
		return []*user.User{}, nil
	}
	users = users[offset:]
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// Package testutil holds in-memory stand-ins for the Postgres repositories
// and the notification pipeline.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go-todo-api/internal/model"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]model.User{}}
}

// Put stores u directly, bypassing uniqueness checks.
func (s *UserStore) Put(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *UserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictLocked(u) {
		return model.ErrUserAlreadyExists
	}
	s.users[u.ID] = u
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	return s.find(func(u model.User) bool { return strings.EqualFold(u.Username, strings.TrimSpace(username)) })
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	return s.find(func(u model.User) bool { return strings.EqualFold(u.Email, strings.TrimSpace(email)) })
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *UserStore) Update(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	if s.conflictLocked(u) {
		return model.ErrUserAlreadyExists
	}
	s.users[u.ID] = u
	return nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *UserStore) List(_ context.Context, offset int, limit int) ([]model.User, int, error) {
	s.mu.RLock()
	all := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Username < all[j].Username
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return page(all, offset, limit), len(all), nil
}

func (s *UserStore) find(match func(model.User) bool) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

// conflictLocked mirrors the unique indexes on lower(username) and lower(email).
func (s *UserStore) conflictLocked(u model.User) bool {
	for id, existing := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return true
		}
	}
	return false
}

func page[T any](all []T, offset int, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) || limit <= 0 {
		end = len(all)
	}
	return all[offset:end]
}

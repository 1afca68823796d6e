package wallet

import (
	"context"
	"strings"
	"sync"

	xerrors "AOChat-Wallet/internal/errors"
)

// MemoryStore provides an in-memory implementation of the Store
// interface, intended for development and testing scenarios.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryStore initialises the store, optionally with seed users.
func NewMemoryStore(seeds ...*User) (*MemoryStore, error) {
	store := &MemoryStore{users: make(map[string]*User)}
	for _, seed := range seeds {
		if seed == nil || strings.TrimSpace(seed.ExternalID) == "" {
			continue
		}
		clone := *seed
		stampUser(&clone)
		store.users[clone.ExternalID] = &clone
	}
	return store, nil
}

// FindByExternalID implements the Store interface.
func (s *MemoryStore) FindByExternalID(_ context.Context, externalID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.TrimSpace(externalID)]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

// Create implements the Store interface.
func (s *MemoryStore) Create(_ context.Context, user *User) error {
	if user == nil || strings.TrimSpace(user.ExternalID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "用户标识不能为空")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ExternalID]; exists {
		return ErrUserConflict
	}
	clone := *user
	stampUser(&clone)
	s.users[clone.ExternalID] = &clone
	return nil
}

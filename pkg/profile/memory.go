package profile

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local Store backed by a map.
// Suitable for tests and single-process development setups.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpsertActive(_ context.Context, userID string, f ActiveFields) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.profiles[userID]
	if !ok {
		p = Profile{UserID: userID, CreatedAt: now}
	}
	p.Email = f.Email
	p.SubscriptionActive = true
	p.SubscriptionTier = f.Tier
	p.ExternalSubscriptionID = f.SubscriptionID
	p.UpdatedAt = now
	s.profiles[userID] = p

	return nil
}

func (s *MemoryStore) UpdateActiveIfExists(_ context.Context, userID string, active bool) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrMissingUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return 0, nil
	}
	p.SubscriptionActive = active
	p.UpdatedAt = s.now()
	s.profiles[userID] = p

	return 1, nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

package selection

import (
	"context"
	"sync"
	"time"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
)

type inMemoryEntry struct {
	selection Selection
	expiresAt time.Time
}

// InMemoryRepo keeps selections in process memory. Entries expire after the
// configured TTL, matching the session cookie lifetime; a TTL <= 0 keeps them until deleted.
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type InMemoryOption func(*InMemoryRepo)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) InMemoryOption {
	return func(r *InMemoryRepo) {
		if now != nil {
			r.now = now
		}
	}
}

func NewInMemoryRepo(ttl time.Duration, opts ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len reports the number of stored entries, expired ones included until swept.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *InMemoryRepo) Upsert(_ context.Context, key string, s Selection) error {
	if err := requireKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(key, s)
	return nil
}

func (r *InMemoryRepo) Update(_ context.Context, key string, fn func(*Selection)) (Selection, error) {
	if err := requireKey(key); err != nil {
		return Selection{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var s Selection
	if e, ok := r.entries[key]; ok && !r.expired(e) {
		s = e.selection
	}
	fn(&s)
	r.store(key, s)
	return s, nil
}

func (r *InMemoryRepo) Get(_ context.Context, key string) (Selection, error) {
	if err := requireKey(key); err != nil {
		return Selection{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key]
	if !ok || r.expired(e) {
		return Selection{}, gwerrors.ErrNotFound
	}
	return e.selection, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, key string) error {
	if err := requireKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}

// store sweeps expired entries and writes s. Callers hold the write lock.
func (r *InMemoryRepo) store(key string, s Selection) {
	for k, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, k)
		}
	}

	var expiresAt time.Time
	if r.ttl > 0 {
		expiresAt = r.now().Add(r.ttl)
	}
	r.entries[key] = inMemoryEntry{selection: s, expiresAt: expiresAt}
}

func (r *InMemoryRepo) expired(e inMemoryEntry) bool {
	return !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt)
}

package notifications

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	records map[string]Record // id -> record
	latest  map[string]string // target+label -> id of the newest record
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]Record),
		latest:  make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStorage) Create(ctx context.Context, rec Record) error {
	rec.normalize(s.now(), uuid.NewString)
	if err := rec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insert(rec)
	return nil
}

func (s *MemoryStorage) UpsertStatus(ctx context.Context, target, label string, status Status, opts ...UpsertOption) error {
	if err := validateUpsert(target, status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.latest[lookupKey(target, label)]
	if !ok {
		rec := newUpsertRecord(target, label, status, opts)
		rec.normalize(s.now(), uuid.NewString)
		s.insert(rec)
		return nil
	}

	rec := s.records[id]
	if rec.Status.CanTransitionTo(status) {
		rec.Status = status
	}
	rec.UpdatedAt = s.now()
	s.records[id] = rec
	return nil
}

func (s *MemoryStorage) Latest(ctx context.Context, target, label string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.latest[lookupKey(target, label)]
	if !ok {
		return Record{}, ErrRecordNotFound
	}

	// Copy the data map to prevent external mutation of stored data
	rec := s.records[id]
	rec.Data = maps.Clone(rec.Data)
	return rec, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStorage) insert(rec Record) {
	rec.Data = maps.Clone(rec.Data)
	s.records[rec.ID] = rec

	key := lookupKey(rec.Target, rec.Label)
	if id, ok := s.latest[key]; ok && s.records[id].CreatedAt.After(rec.CreatedAt) {
		return
	}
	s.latest[key] = rec.ID
}

// lookupKey joins target and label with a NUL separator.
func lookupKey(target, label string) string {
	return target + "\x00" + label
}

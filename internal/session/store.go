// Package session keeps GenerationSession state between requests of one visitor.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"perfume-studio/internal/models"
)

var ErrNotFound = errors.New("SESSION_NOT_FOUND")

type Store interface {
	Load(ctx context.Context, id string) (*models.GenerationSession, error)
	Save(ctx context.Context, s *models.GenerationSession) error
	Delete(ctx context.Context, id string) error
}

func NewID() string {
	return uuid.NewString()
}

// LoadOrCreate returns the stored session for id, or a fresh one under a new
// id when id is empty, unknown or expired.
func LoadOrCreate(ctx context.Context, store Store, id string) (*models.GenerationSession, error) {
	if id != "" {
		s, err := store.Load(ctx, id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return models.NewGenerationSession(NewID()), nil
}

// MemoryStore holds encoded sessions in process memory. Each Save refreshes
// the TTL; there is no size bound.
type MemoryStore struct {
	entries *expirable.LRU[string, []byte]
}

// NewMemoryStore keeps sessions for ttl after their last save. A
// non-positive ttl keeps them for the life of the process.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: expirable.NewLRU[string, []byte](0, nil, ttl)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*models.GenerationSession, error) {
	data, ok := m.entries.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Save(_ context.Context, s *models.GenerationSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.entries.Add(s.ID, data)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.entries.Remove(id)
	return nil
}

func decode(data []byte) (*models.GenerationSession, error) {
	var s models.GenerationSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

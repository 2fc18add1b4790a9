// Package conversation keeps the per-user chat transcript shown by the UI.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/novachat/internal/newslist"
)

// Entry is one stored transcript message.
type Entry struct {
	ID        string          `json:"id"`
	Sender    newslist.Sender `json:"sender"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
}

// Message returns the renderable part of the entry.
func (e Entry) Message() newslist.Message {
	return newslist.Message{Sender: e.Sender, Text: e.Text}
}

// NewEntry stamps msg with a fresh id and the current time.
func NewEntry(msg newslist.Message) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Sender:    msg.Sender,
		Text:      msg.Text,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists transcripts keyed by user id. Entries come back in append order.
type Store interface {
	Append(ctx context.Context, userID string, e Entry) error
	List(ctx context.Context, userID string) ([]Entry, error)
	Clear(ctx context.Context, userID string) error
}

// MemoryStore keeps transcripts in process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]Entry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]Entry)}
}

func (m *MemoryStore) Append(_ context.Context, userID string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = append(m.items[userID], e)
	return nil
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.items[userID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

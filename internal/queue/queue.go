// Package queue tracks per-request resolution status for display. Items live
// only for the lifetime of the process; nothing is persisted.
package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medialoom/loom/pkg/models"
)

// Status is the lifecycle state of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Item is one tracked resolution request.
type Item struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Title     string        `json:"title"`
	Status    Status        `json:"status"`
	Progress  int           `json:"progress"` // 0-100
	Thumbnail string        `json:"thumbnail,omitempty"`
	Error     string        `json:"error,omitempty"`
	Origin    models.Origin `json:"origin,omitempty"`
	AddedAt   time.Time     `json:"added_at"`
}

// Store is an in-memory, mutex-guarded queue keyed by item ID.
// Updates are keyed by identity, so concurrent resolutions never contend on
// each other's entries.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Item
}

// NewStore creates an empty queue store.
func NewStore() *Store {
	return &Store{items: make(map[string]*Item)}
}

// Add creates a new pending item for the URL and returns it.
func (s *Store) Add(url string) *Item {
	item := &Item{
		ID:      uuid.NewString(),
		URL:     url,
		Title:   "Processing...",
		Status:  StatusPending,
		AddedAt: time.Now(),
	}

	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()

	return item
}

// Update applies fn to the item with the given ID, if present.
func (s *Store) Update(id string, fn func(*Item)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// MarkProcessing transitions an item to processing.
func (s *Store) MarkProcessing(id string) bool {
	return s.Update(id, func(item *Item) {
		item.Status = StatusProcessing
		item.Progress = 50
	})
}

// Complete records a successful resolution on the item.
func (s *Store) Complete(id string, result *models.MediaResult) bool {
	return s.Update(id, func(item *Item) {
		item.Status = StatusCompleted
		item.Progress = 100
		item.Title = result.Title
		item.Thumbnail = result.Thumbnail
		item.Origin = result.Origin
	})
}

// Fail records a failed resolution on the item.
func (s *Store) Fail(id string, errMsg string) bool {
	return s.Update(id, func(item *Item) {
		item.Status = StatusFailed
		item.Progress = 100
		item.Error = errMsg
		item.Origin = models.OriginInternal
	})
}

// Get returns a copy of the item with the given ID.
func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// List returns copies of all items, newest first.
func (s *Store) List() []Item {
	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out
}

// Remove deletes an item by ID.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

// ClearFinished removes all completed and failed items and returns how many
// were dropped.
func (s *Store) ClearFinished() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, item := range s.items {
		if item.Status == StatusCompleted || item.Status == StatusFailed {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

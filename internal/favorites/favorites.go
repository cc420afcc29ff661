// Package favorites keeps the set of favorited product ids.
package favorites

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"GlobalStore/internal/events"
	"GlobalStore/internal/storage"
	"GlobalStore/pkg/kit"
)

type Service struct {
	store storage.Store
	log   *zap.Logger
	hub   *events.Hub

	mu     sync.RWMutex
	ids    map[int]struct{}
	saveMu sync.Mutex
}

func New(store storage.Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   kit.OrNop(log),
		hub:   events.NewHub(events.TopicFavorites),
		ids:   map[int]struct{}{},
	}
}

func (s *Service) Subscribe() (<-chan events.Change, func()) { return s.hub.Subscribe() }

// Load replaces the set with the stored id array. A value that is not JSON
// starts the set empty; backend failures are returned.
func (s *Service) Load(ctx context.Context) error {
	var stored []int
	_, err := storage.LoadJSON(ctx, s.store, storage.KeyFavorites, &stored)
	switch {
	case err == nil:
	case storage.IsUnparsable(err):
		s.log.Warn("stored favorites unreadable, starting empty", zap.Error(err))
		stored = nil
	default:
		return fmt.Errorf("load favorites: %w", err)
	}

	ids := make(map[int]struct{}, len(stored))
	for _, id := range stored {
		ids[id] = struct{}{}
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
	return nil
}

func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	ids := s.sorted()
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()
	return storage.SaveJSON(ctx, s.store, storage.KeyFavorites, ids)
}

func (s *Service) Add(ctx context.Context, productID int) {
	s.mu.Lock()
	s.ids[productID] = struct{}{}
	s.commit(ctx, "add")
}

func (s *Service) Remove(ctx context.Context, productID int) {
	s.mu.Lock()
	delete(s.ids, productID)
	s.commit(ctx, "remove")
}

// Toggle flips membership and reports whether the product is now a favorite.
func (s *Service) Toggle(ctx context.Context, productID int) bool {
	s.mu.Lock()
	_, had := s.ids[productID]
	if had {
		delete(s.ids, productID)
	} else {
		s.ids[productID] = struct{}{}
	}
	s.commit(ctx, "toggle")
	return !had
}

func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	clear(s.ids)
	s.commit(ctx, "clear")
}

func (s *Service) IsFavorite(productID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[productID]
	return ok
}

// List returns the ids in ascending order.
func (s *Service) List() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted()
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Service) sorted() []int {
	ids := slices.Sorted(maps.Keys(s.ids))
	if ids == nil {
		return []int{}
	}
	return ids
}

// commit persists and publishes. Caller holds mu; commit releases it.
func (s *Service) commit(ctx context.Context, kind string) {
	ids := s.sorted()
	s.saveMu.Lock()
	s.mu.Unlock()

	err := storage.SaveJSON(ctx, s.store, storage.KeyFavorites, ids)
	s.saveMu.Unlock()
	if err != nil {
		s.log.Warn("favorites save failed", zap.Error(err))
	}
	s.hub.Publish(kind)
}

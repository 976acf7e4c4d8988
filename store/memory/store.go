// memory based implementation for testing and single-node deployments
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lifeos-app/lifeos/recurrence"
	"github.com/lifeos-app/lifeos/store"
)

// Store implements store.EventStore using in-memory maps
type Store struct {
	mu         sync.RWMutex
	events     map[string]recurrence.Event
	exceptions map[string][]recurrence.Exception // key: parent event ID
}

// New creates a new in-memory event store
func New() *Store {
	return &Store{
		events:     make(map[string]recurrence.Event),
		exceptions: make(map[string][]recurrence.Exception),
	}
}

func (s *Store) GetEvent(_ context.Context, id string) (*recurrence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "event not found",
		}
	}
	return &event, nil
}

func (s *Store) ListEvents(_ context.Context) ([]recurrence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]recurrence.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event)
	}
	return events, nil
}

func (s *Store) CreateEvent(_ context.Context, event *recurrence.Event) error {
	if event == nil {
		return &store.Error{
			Type:    store.ErrInvalidInput,
			Message: "event is required",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	} else if _, exists := s.events[event.ID]; exists {
		return &store.Error{
			Type:    store.ErrAlreadyExists,
			Message: "event already exists",
		}
	}
	s.events[event.ID] = *event
	return nil
}

func (s *Store) UpdateEvent(_ context.Context, event *recurrence.Event) error {
	if event == nil || event.ID == "" {
		return &store.Error{
			Type:    store.ErrInvalidInput,
			Message: "event with id is required",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; !ok {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "event not found",
		}
	}
	s.events[event.ID] = *event
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "event not found",
		}
	}
	delete(s.events, id)
	delete(s.exceptions, id)
	return nil
}

func (s *Store) ListExceptions(_ context.Context, parentEventID string) ([]recurrence.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excs := s.exceptions[parentEventID]
	out := make([]recurrence.Exception, len(excs))
	copy(out, excs)
	return out, nil
}

func (s *Store) AddException(_ context.Context, exc recurrence.Exception) error {
	if exc.ParentEventID == "" {
		return &store.Error{
			Type:    store.ErrInvalidInput,
			Message: "parent event id is required",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[exc.ParentEventID]; !ok {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "parent event not found",
		}
	}
	s.exceptions[exc.ParentEventID] = append(s.exceptions[exc.ParentEventID], exc)
	return nil
}

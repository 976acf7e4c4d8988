package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lifeos-app/lifeos/recurrence"
)

// MockEventStore implements the EventStore interface for testing
type MockEventStore struct {
	mock.Mock
}

// GetEvent implements the EventStore interface
func (m *MockEventStore) GetEvent(ctx context.Context, id string) (*recurrence.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recurrence.Event), args.Error(1)
}

// ListEvents implements the EventStore interface
func (m *MockEventStore) ListEvents(ctx context.Context) ([]recurrence.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recurrence.Event), args.Error(1)
}

// CreateEvent implements the EventStore interface
func (m *MockEventStore) CreateEvent(ctx context.Context, event *recurrence.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// UpdateEvent implements the EventStore interface
func (m *MockEventStore) UpdateEvent(ctx context.Context, event *recurrence.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// DeleteEvent implements the EventStore interface
func (m *MockEventStore) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ListExceptions implements the EventStore interface
func (m *MockEventStore) ListExceptions(ctx context.Context, parentEventID string) ([]recurrence.Exception, error) {
	args := m.Called(ctx, parentEventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recurrence.Exception), args.Error(1)
}

// AddException implements the EventStore interface
func (m *MockEventStore) AddException(ctx context.Context, exc recurrence.Exception) error {
	args := m.Called(ctx, exc)
	return args.Error(0)
}

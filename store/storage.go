// Package store defines the persistence interface the calendar layer is
// built against. The hosted backend the application normally talks to sits
// behind EventStore; the memory implementation serves tests and single-node
// deployments.
package store

import (
	"context"
	"fmt"

	"github.com/lifeos-app/lifeos/recurrence"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// IsNotFound reports whether err is a storage not-found error.
func IsNotFound(err error) bool {
	storeErr, ok := err.(*Error)
	return ok && storeErr.Type == ErrNotFound
}

// EventStore connects your backend storage (database, hosted API) with the
// calendar layer. Please use the error types provided.
type EventStore interface {
	// GetEvent retrieves a single base event by id.
	GetEvent(ctx context.Context, id string) (*recurrence.Event, error)
	// ListEvents retrieves all base events.
	ListEvents(ctx context.Context) ([]recurrence.Event, error)
	// CreateEvent stores a new base event. An empty ID is assigned by the
	// implementation and set on the passed event.
	CreateEvent(ctx context.Context, event *recurrence.Event) error
	// UpdateEvent replaces an existing base event.
	UpdateEvent(ctx context.Context, event *recurrence.Event) error
	// DeleteEvent removes a base event and its exceptions.
	DeleteEvent(ctx context.Context, id string) error
	// ListExceptions retrieves the exceptions recorded for a parent event.
	ListExceptions(ctx context.Context, parentEventID string) ([]recurrence.Exception, error)
	// AddException records a cancellation or override of one occurrence.
	AddException(ctx context.Context, exc recurrence.Exception) error
}

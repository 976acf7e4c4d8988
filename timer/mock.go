package timer

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"
)

// MockSessionLedger implements the SessionLedger interface for testing
type MockSessionLedger struct {
	mock.Mock
}

// Record implements the SessionLedger interface
func (m *MockSessionLedger) Record(ctx context.Context, minutes int, taskID mo.Option[string]) (FocusSession, error) {
	args := m.Called(ctx, minutes, taskID)
	return args.Get(0).(FocusSession), args.Error(1)
}

// MockProfileStore implements the ProfileStore interface for testing
type MockProfileStore struct {
	mock.Mock
}

// AddXP implements the ProfileStore interface
func (m *MockProfileStore) AddXP(ctx context.Context, amount int) (XPResult, error) {
	args := m.Called(ctx, amount)
	return args.Get(0).(XPResult), args.Error(1)
}

// MockNotifier implements the Notifier interface for testing
type MockNotifier struct {
	mock.Mock
}

// Notify implements the Notifier interface
func (m *MockNotifier) Notify(title, body string) error {
	args := m.Called(title, body)
	return args.Error(0)
}

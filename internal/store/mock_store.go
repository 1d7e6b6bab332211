package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveSuggestion(ctx context.Context, s Suggestion) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStore) GetSuggestion(ctx context.Context, id uuid.UUID) (Suggestion, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Suggestion), args.Error(1)
}

func (m *MockStore) SaveFeedback(ctx context.Context, fb Feedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

func (m *MockStore) ListFeedback(ctx context.Context, id uuid.UUID) ([]Feedback, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Feedback), args.Error(1)
}

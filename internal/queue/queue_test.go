package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEnqueueWithRetry(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		attempts int
		wantErr  bool
	}{
		{"first try", 0, 3, false},
		{"recovers", 2, 3, false},
		{"gives up", 3, 3, true},
		{"zero attempts means one", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockQueue)
			if tt.failures > 0 {
				q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Times(tt.failures)
			}
			if !tt.wantErr {
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			}

			err := EnqueueWithRetry(context.Background(), q, Task{Type: TaskTypeRecord}, tt.attempts, time.Millisecond)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			q.AssertExpectations(t)
		})
	}
}

func TestEnqueueWithRetryStopsOnCancel(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := EnqueueWithRetry(ctx, q, Task{Type: TaskTypeRecord}, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	q.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestEnqueueJSON(t *testing.T) {
	q := new(MockQueue)
	var sent Task
	q.On("Enqueue", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(Task)
	}).Return(nil).Once()

	sid := uuid.New()
	id, err := EnqueueJSON(context.Background(), q, TaskTypeFeedback, FeedbackPayload{SuggestionID: sid, Rating: "up"}, 1, time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, id, sent.ID)
	assert.Equal(t, TaskTypeFeedback, sent.Type)
	var payload FeedbackPayload
	require.NoError(t, json.Unmarshal(sent.Payload, &payload))
	assert.Equal(t, sid, payload.SuggestionID)
	assert.Equal(t, "up", payload.Rating)
}

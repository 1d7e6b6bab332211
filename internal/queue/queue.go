package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"slide-suggest/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeRecord   TaskType = "record"
	TaskTypeFeedback TaskType = "feedback"
)

// Task represents a unit of work handed from the gateway to the recorder.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// RecordPayload is the body of a TaskTypeRecord task.
type RecordPayload struct {
	SuggestionID uuid.UUID `json:"suggestion_id"`
	Text         string    `json:"text"`
	ImageDigests []string  `json:"image_digests"`
	Mode         string    `json:"mode"`
	Model        string    `json:"model"`
	Suggestion   string    `json:"suggestion"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedbackPayload is the body of a TaskTypeFeedback task.
type FeedbackPayload struct {
	SuggestionID uuid.UUID `json:"suggestion_id"`
	Rating       string    `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Enqueue(ctx, task); err == nil {
			return nil
		} else if attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base)):
		}
	}
	return nil
}

// EnqueueJSON marshals payload into a new task of the given type and enqueues
// it with EnqueueWithRetry.
func EnqueueJSON(ctx context.Context, q Queue, taskType TaskType, payload any, attempts int, base time.Duration) (uuid.UUID, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	task := Task{ID: uuid.New(), Type: taskType, Payload: body}
	return task.ID, EnqueueWithRetry(ctx, q, task, attempts, base)
}

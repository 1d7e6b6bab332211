package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

var ErrSuggestionNotFound = errors.New("suggestion not found")

// Suggestion is one answered request. Images are kept as digests only.
type Suggestion struct {
	ID           uuid.UUID
	Text         string
	ImageDigests []string
	Mode         string
	Model        string
	Suggestion   string
	CreatedAt    time.Time
}

type Feedback struct {
	SuggestionID uuid.UUID
	Rating       Rating
	Comment      string
	CreatedAt    time.Time
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	SaveSuggestion(ctx context.Context, s Suggestion) error
	GetSuggestion(ctx context.Context, id uuid.UUID) (Suggestion, error)
	SaveFeedback(ctx context.Context, fb Feedback) error
	ListFeedback(ctx context.Context, id uuid.UUID) ([]Feedback, error)
}

package suggest

import (
	"context"
	"errors"
	"fmt"
)

// Request is the canonical body of POST /api/suggest.
type Request struct {
	Text   string   `json:"text"`
	Images []string `json:"images_base64" validate:"dive,required,base64"`
	Mode   string   `json:"mode,omitempty" validate:"omitempty,oneof=improve citations"`
}

// Response is the body returned by POST /api/suggest. Suggestion is a
// pointer so a missing field can be told apart from an empty answer.
type Response struct {
	Suggestion *string `json:"suggestion"`
	ID         string  `json:"id,omitempty"`
	Cached     bool    `json:"cached,omitempty"`
}

// Result is a successfully parsed suggestion.
type Result struct {
	Suggestion string
	ID         string
	Cached     bool
}

// Client obtains a suggestion for extracted slide content.
type Client interface {
	Suggest(ctx context.Context, req Request) (Result, error)
}

// Feedback is the body of POST /api/suggestions/{id}/feedback.
type Feedback struct {
	Rating  string `json:"rating" validate:"required,oneof=up down"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

var (
	// ErrNetwork means the request could not be completed.
	ErrNetwork = errors.New("suggestion request failed")
	// ErrMalformedResponse means the endpoint answered 2xx with an unusable body.
	ErrMalformedResponse = errors.New("malformed suggestion response")
)

// RemoteError is a non-2xx answer from the suggestion endpoint.
type RemoteError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("suggestion endpoint returned %s", e.Status)
	}
	return fmt.Sprintf("suggestion endpoint returned %s - %s", e.Status, e.Body)
}

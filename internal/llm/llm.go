package llm

import (
	"context"
	"errors"
	"fmt"
)

// Mode selects the system prompt used for a suggestion.
type Mode string

const (
	ModeImprove   Mode = "improve"
	ModeCitations Mode = "citations"
)

var ErrUnknownMode = errors.New("unknown suggestion mode")

// ParseMode maps a request mode to a Mode. The empty string is ModeImprove.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeImprove:
		return ModeImprove, nil
	case ModeCitations:
		return ModeCitations, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Prompt is the slide content handed to the model. Images are base64 PNG.
type Prompt struct {
	Text   string
	Images []string
	Mode   Mode
}

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	Suggest(ctx context.Context, p Prompt) (string, error)
	Model() string
}

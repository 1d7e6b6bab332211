package extract

import (
	"context"
	"fmt"
	"log/slog"

	"slide-suggest/internal/host"
)

// SlideContent is the content of one slide of a deck dump.
type SlideContent struct {
	Slide int `json:"slide_number"`
	Content
}

// SlideOpener returns a document whose selected slide is n (1-based).
type SlideOpener func(n int) (host.Document, error)

// ExtractDeck extracts slides 1..count in order.
func ExtractDeck(ctx context.Context, count int, open SlideOpener, strategy Strategy, log *slog.Logger) ([]SlideContent, error) {
	out := make([]SlideContent, 0, count)
	for n := 1; n <= count; n++ {
		doc, err := open(n)
		if err != nil {
			return nil, fmt.Errorf("open slide %d: %w", n, err)
		}
		content, err := New(doc, strategy, log).Extract(ctx)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", n, err)
		}
		out = append(out, SlideContent{Slide: n, Content: content})
	}
	return out, nil
}

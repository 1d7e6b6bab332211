package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"slide-suggest/internal/host"
)

// Strategy selects how images are collected from a slide.
type Strategy int

const (
	// StrategyNested descends into group shapes and collects every picture in
	// pre-order.
	StrategyNested Strategy = iota
	// StrategyTopLevel collects pictures among the slide's top-level shapes only.
	StrategyTopLevel
	// StrategySlideExport exports the whole slide as a single flattened PNG.
	StrategySlideExport
)

func (s Strategy) String() string {
	switch s {
	case StrategyTopLevel:
		return "top-level"
	case StrategySlideExport:
		return "slide"
	default:
		return "nested"
	}
}

// ParseStrategy maps a strategy name back to its value.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nested":
		return StrategyNested, nil
	case "top-level", "toplevel":
		return StrategyTopLevel, nil
	case "slide", "export":
		return StrategySlideExport, nil
	}
	return 0, fmt.Errorf("unknown extraction strategy %q (valid: nested, top-level, slide)", name)
}

func (s Strategy) requires() []host.Capability {
	switch s {
	case StrategyTopLevel:
		return []host.Capability{host.CapPictureExport}
	case StrategySlideExport:
		return []host.Capability{host.CapSlideExport}
	default:
		return []host.Capability{host.CapPictureExport, host.CapGroupTraversal}
	}
}

// Content is what was read from one slide. Images are base64-encoded PNGs.
type Content struct {
	Text   []string `json:"texts"`
	Images []string `json:"images"`
}

// JoinedText is the text sent to the suggestion endpoint.
func (c Content) JoinedText() string {
	return strings.Join(c.Text, "\n")
}

// Empty reports whether nothing worth sending was found.
func (c Content) Empty() bool {
	return len(c.Text) == 0 && len(c.Images) == 0
}

// Extractor reads the selected slide of a host document.
type Extractor struct {
	doc      host.Document
	strategy Strategy
	log      *slog.Logger
}

func New(doc host.Document, strategy Strategy, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{doc: doc, strategy: strategy, log: log}
}

// Extract reads text and images of the selected slide. Capabilities the
// strategy needs are negotiated first so an unsupported host fails before any
// document read.
func (e *Extractor) Extract(ctx context.Context) (Content, error) {
	if err := host.ProbeAll(e.doc, e.strategy.requires()...); err != nil {
		return Content{}, err
	}

	b := host.NewBatch(e.doc)
	selected := host.LoadSelectedSlide(b)
	if err := b.Sync(ctx); err != nil {
		return Content{}, err
	}
	slide, err := selected.Value()
	if err != nil {
		return Content{}, err
	}

	var content Content
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		texts, err := e.texts(gctx, slide)
		content.Text = texts
		return err
	})
	g.Go(func() error {
		images, err := e.images(gctx, slide)
		content.Images = images
		return err
	})
	if err := g.Wait(); err != nil {
		return Content{}, err
	}

	e.log.Debug("slide extracted",
		"slide", slide.Index,
		"strategy", e.strategy.String(),
		"texts", len(content.Text),
		"images", len(content.Images),
	)
	return content, nil
}

func (e *Extractor) shapes(ctx context.Context, slide host.Slide) ([]host.Shape, error) {
	b := host.NewBatch(e.doc)
	shapes := host.LoadShapes(b, slide.ID)
	if err := b.Sync(ctx); err != nil {
		return nil, err
	}
	return shapes.Value()
}

// texts returns the trimmed, non-empty text of every shape carrying a text
// frame, in enumeration order.
func (e *Extractor) texts(ctx context.Context, slide host.Slide) ([]string, error) {
	shapes, err := e.shapes(ctx, slide)
	if err != nil {
		return nil, err
	}

	b := host.NewBatch(e.doc)
	var reads []*host.Pending[string]
	for _, s := range shapes {
		if s.HasTextFrame {
			reads = append(reads, host.LoadText(b, s.ID))
		}
	}
	if len(reads) == 0 {
		return nil, nil
	}
	if err := b.Sync(ctx); err != nil {
		return nil, err
	}

	var out []string
	for _, r := range reads {
		text, err := r.Value()
		if err != nil {
			if isNoTextFrame(err) {
				continue
			}
			return nil, err
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

func (e *Extractor) images(ctx context.Context, slide host.Slide) ([]string, error) {
	if e.strategy == StrategySlideExport {
		return e.exportSlide(ctx, slide)
	}

	shapes, err := e.shapes(ctx, slide)
	if err != nil {
		return nil, err
	}
	var pictures []host.Shape
	if e.strategy == StrategyTopLevel {
		for _, s := range shapes {
			if s.Type == host.ShapeTypeImage {
				pictures = append(pictures, s)
			}
		}
	} else {
		pictures, err = collectPictures(ctx, e.doc, shapes)
		if err != nil {
			return nil, err
		}
	}
	return fetchPictures(ctx, e.doc, pictures)
}

func (e *Extractor) exportSlide(ctx context.Context, slide host.Slide) ([]string, error) {
	b := host.NewBatch(e.doc)
	export := host.LoadSlideExport(b, slide.ID)
	if err := b.Sync(ctx); err != nil {
		return nil, err
	}
	img, err := export.Value()
	if err != nil {
		return nil, err
	}
	if img == "" {
		return nil, nil
	}
	return []string{img}, nil
}

// fetchPictures requests every picture in a single batch and reads the
// results once they have all resolved.
func fetchPictures(ctx context.Context, doc host.Document, pictures []host.Shape) ([]string, error) {
	if len(pictures) == 0 {
		return nil, nil
	}
	b := host.NewBatch(doc)
	reads := make([]*host.Pending[string], len(pictures))
	for i, p := range pictures {
		reads[i] = host.LoadPicture(b, p.ID)
	}
	if err := b.Sync(ctx); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(reads))
	for _, r := range reads {
		img, err := r.Value()
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

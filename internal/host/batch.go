package host

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const defaultSyncConcurrency = 8

// Batch accumulates read requests against a Document. Nothing reaches the
// host until Sync; a Pending value is readable only after the Sync that
// resolves it. Requests queued after a Sync belong to the next phase.
type Batch struct {
	doc     Document
	pending []func(context.Context)
	limit   int
	syncs   int
}

// NewBatch starts an empty batch against doc.
func NewBatch(doc Document) *Batch {
	return &Batch{doc: doc, limit: defaultSyncConcurrency}
}

// WithConcurrency caps how many queued reads Sync runs at once.
func (b *Batch) WithConcurrency(n int) *Batch {
	if n > 0 {
		b.limit = n
	}
	return b
}

// Len reports how many requests are queued for the next Sync.
func (b *Batch) Len() int { return len(b.pending) }

// Syncs reports how many synchronization points this batch has gone through.
func (b *Batch) Syncs() int { return b.syncs }

// Sync executes every queued request concurrently and resolves their
// Pending values together. Per-request failures are recorded on the
// individual Pending values; Sync itself only fails when ctx is done.
func (b *Batch) Sync(ctx context.Context) error {
	reqs := b.pending
	b.pending = nil
	b.syncs++

	var g errgroup.Group
	g.SetLimit(b.limit)
	for _, req := range reqs {
		g.Go(func() error {
			req(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// Pending is a value requested in a batch and resolved at its Sync.
type Pending[T any] struct {
	value  T
	err    error
	synced bool
}

// Value returns the resolved value, or ErrNotSynced when read too early.
func (p *Pending[T]) Value() (T, error) {
	if !p.synced {
		var zero T
		return zero, ErrNotSynced
	}
	return p.value, p.err
}

func enqueue[T any](b *Batch, op, id string, read func(context.Context) (T, error)) *Pending[T] {
	p := &Pending[T]{}
	b.pending = append(b.pending, func(ctx context.Context) {
		v, err := read(ctx)
		p.value, p.err, p.synced = v, classify(op, id, err), true
	})
	return p
}

// classify leaves sentinel outcomes intact and turns anything else into a
// host read failure.
func classify(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoTextFrame),
		errors.Is(err, ErrCapabilityUnavailable),
		errors.Is(err, ErrReadFailure),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: %s: %w", ErrReadFailure, op, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrReadFailure, op, id, err)
}

func LoadSelectedSlide(b *Batch) *Pending[Slide] {
	return enqueue(b, "selected slide", "", b.doc.SelectedSlide)
}

func LoadShapes(b *Batch, slideID string) *Pending[[]Shape] {
	return enqueue(b, "shapes", slideID, func(ctx context.Context) ([]Shape, error) {
		return b.doc.Shapes(ctx, slideID)
	})
}

func LoadGroupItems(b *Batch, shapeID string) *Pending[[]Shape] {
	return enqueue(b, "group items", shapeID, func(ctx context.Context) ([]Shape, error) {
		return b.doc.GroupItems(ctx, shapeID)
	})
}

func LoadText(b *Batch, shapeID string) *Pending[string] {
	return enqueue(b, "text", shapeID, func(ctx context.Context) (string, error) {
		return b.doc.Text(ctx, shapeID)
	})
}

func LoadPicture(b *Batch, shapeID string) *Pending[string] {
	return enqueue(b, "picture", shapeID, func(ctx context.Context) (string, error) {
		return b.doc.PictureBase64(ctx, shapeID)
	})
}

func LoadSlideExport(b *Batch, slideID string) *Pending[string] {
	return enqueue(b, "slide export", slideID, func(ctx context.Context) (string, error) {
		return b.doc.ExportSlide(ctx, slideID)
	})
}

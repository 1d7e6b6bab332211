package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"slide-suggest/internal/app"
	"slide-suggest/internal/httputil"
	"slide-suggest/internal/queue"
	"slide-suggest/internal/store"
)

func main() {
	deps, err := app.BuildRecorder()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("recorder starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeRecord, func(ctx context.Context, task queue.Task) error {
			return handleRecord(ctx, deps, task)
		})
	})
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeFeedback, func(ctx context.Context, task queue.Task) error {
			return handleFeedback(ctx, deps, task)
		})
	})
	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Config.Port, deps.Log, "recorder")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("recorder stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("recorder stopped")
}

func handleRecord(ctx context.Context, deps app.RecorderDeps, task queue.Task) error {
	var p queue.RecordPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return fmt.Errorf("decode record task %s: %w", task.ID, err)
	}
	if err := deps.Store.SaveSuggestion(ctx, store.Suggestion{
		ID:           p.SuggestionID,
		Text:         p.Text,
		ImageDigests: p.ImageDigests,
		Mode:         p.Mode,
		Model:        p.Model,
		Suggestion:   p.Suggestion,
		CreatedAt:    p.CreatedAt,
	}); err != nil {
		return fmt.Errorf("save suggestion %s: %w", p.SuggestionID, err)
	}
	deps.Log.Info("suggestion recorded", "id", p.SuggestionID, "mode", p.Mode, "attempt", task.Attempts)
	return nil
}

// handleFeedback may run before the matching record task has been stored; the
// failed insert is retried by the queue with backoff.
func handleFeedback(ctx context.Context, deps app.RecorderDeps, task queue.Task) error {
	var p queue.FeedbackPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return fmt.Errorf("decode feedback task %s: %w", task.ID, err)
	}
	rating := store.Rating(p.Rating)
	if rating != store.RatingUp && rating != store.RatingDown {
		deps.Log.Warn("dropping feedback with unknown rating", "id", p.SuggestionID, "rating", p.Rating)
		return nil
	}
	if err := deps.Store.SaveFeedback(ctx, store.Feedback{
		SuggestionID: p.SuggestionID,
		Rating:       rating,
		Comment:      p.Comment,
		CreatedAt:    p.CreatedAt,
	}); err != nil {
		return fmt.Errorf("save feedback for %s: %w", p.SuggestionID, err)
	}
	deps.Log.Info("feedback recorded", "id", p.SuggestionID, "rating", rating)
	return nil
}

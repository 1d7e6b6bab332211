package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slide-suggest/internal/app"
	"slide-suggest/internal/cache"
	"slide-suggest/internal/httputil"
	"slide-suggest/internal/llm"
	"slide-suggest/internal/queue"
	"slide-suggest/internal/store"
	"slide-suggest/internal/suggest"
)

// Base64 images make request bodies large; this bounds a single decode.
const maxRequestBytes = 64 << 20

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr, "cors_origins", deps.Config.CORSOrigins)
	if err := httputil.Serve(ctx, addr, newRouter(deps), deps.Log); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.CORSOrigins...)
	r.Post("/api/suggest", suggestHandler(deps))
	r.Get("/api/suggestions/{id}", historyHandler(deps))
	r.Post("/api/suggestions/{id}/feedback", feedbackHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func suggestHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req suggest.Request
		if err := httputil.DecodeJSON(r, maxRequestBytes, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		mode, err := llm.ParseMode(req.Mode)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		text := strings.TrimSpace(req.Text)
		switch {
		case text == "" && len(req.Images) == 0:
			httputil.Fail(deps.Log, w, "nothing to suggest: text and images are empty", nil, http.StatusBadRequest)
			return
		case len(req.Images) > deps.Config.MaxImages:
			httputil.Fail(deps.Log, w, fmt.Sprintf("too many images (max %d)", deps.Config.MaxImages), nil, http.StatusBadRequest)
			return
		case len(text) > deps.Config.MaxTextLength:
			httputil.Fail(deps.Log, w, fmt.Sprintf("text too long (max %d bytes)", deps.Config.MaxTextLength), nil, http.StatusBadRequest)
			return
		}

		digests := make([]string, len(req.Images))
		for i, img := range req.Images {
			digests[i] = cache.Digest(img)
		}
		cacheKey := cache.GenerateCacheKey(string(mode), text, digests)
		if cached, err := deps.Cache.GetSuggestion(ctx, cacheKey); err != nil {
			deps.Log.Warn("cache lookup failed", "err", err)
		} else if cached != nil {
			deps.Log.Info("cache hit", "id", cached.ID, "mode", mode)
			writeSuggestion(w, cached.Suggestion, cached.ID, true)
			return
		}

		release, ok := deps.Limiter.TryAcquire()
		if !ok {
			w.Header().Set("Retry-After", "1")
			httputil.Fail(deps.Log, w, "too many suggestion requests, try again shortly", nil, http.StatusTooManyRequests)
			return
		}
		answer, err := deps.LLM.Suggest(ctx, llm.Prompt{Text: text, Images: req.Images, Mode: mode})
		release()
		if err != nil {
			httputil.Fail(deps.Log, w, "suggestion failed", err, http.StatusBadGateway)
			return
		}

		id := uuid.New()
		log := deps.Log.With("id", id, "mode", mode)
		if err := deps.Cache.SetSuggestion(ctx, cacheKey, &cache.SuggestionResult{
			ID:         id.String(),
			Suggestion: answer,
			Model:      deps.LLM.Model(),
		}, deps.Config.CacheTTLDuration()); err != nil {
			log.Warn("failed to cache suggestion", "err", err)
		}

		record := queue.RecordPayload{
			SuggestionID: id,
			Text:         text,
			ImageDigests: digests,
			Mode:         string(mode),
			Model:        deps.LLM.Model(),
			Suggestion:   answer,
			CreatedAt:    time.Now().UTC(),
		}
		if _, err := queue.EnqueueJSON(ctx, deps.Queue, queue.TaskTypeRecord, record, 3, 200*time.Millisecond); err != nil {
			// History is best effort; the user still gets the answer.
			log.Error("failed to enqueue suggestion record", "err", err)
		}

		log.Info("suggestion generated", "images", len(req.Images), "text_bytes", len(text))
		writeSuggestion(w, answer, id.String(), false)
	}
}

func writeSuggestion(w http.ResponseWriter, text, id string, cached bool) {
	httputil.WriteJSON(w, http.StatusOK, suggest.Response{Suggestion: &text, ID: id, Cached: cached})
}

type feedbackView struct {
	Rating    string    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func historyHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid suggestion id", err, http.StatusBadRequest)
			return
		}
		sg, err := deps.Store.GetSuggestion(r.Context(), id)
		if errors.Is(err, store.ErrSuggestionNotFound) {
			httputil.Fail(deps.Log, w, "suggestion not found", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load suggestion", err, http.StatusInternalServerError)
			return
		}
		fbs, err := deps.Store.ListFeedback(r.Context(), id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load feedback", err, http.StatusInternalServerError)
			return
		}
		feedback := make([]feedbackView, len(fbs))
		for i, fb := range fbs {
			feedback[i] = feedbackView{Rating: string(fb.Rating), Comment: fb.Comment, CreatedAt: fb.CreatedAt}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"id":          sg.ID,
			"text":        sg.Text,
			"image_count": len(sg.ImageDigests),
			"mode":        sg.Mode,
			"model":       sg.Model,
			"suggestion":  sg.Suggestion,
			"created_at":  sg.CreatedAt,
			"feedback":    feedback,
		})
	}
}

func feedbackHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid suggestion id", err, http.StatusBadRequest)
			return
		}
		var fb suggest.Feedback
		if err := httputil.DecodeJSON(r, 1<<16, &fb); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		payload := queue.FeedbackPayload{
			SuggestionID: id,
			Rating:       fb.Rating,
			Comment:      fb.Comment,
			CreatedAt:    time.Now().UTC(),
		}
		if _, err := queue.EnqueueJSON(ctx, deps.Queue, queue.TaskTypeFeedback, payload, 3, 200*time.Millisecond); err != nil {
			httputil.Fail(deps.Log, w, "failed to record feedback; please retry", err, http.StatusServiceUnavailable)
			return
		}
		if store.Rating(fb.Rating) == store.RatingDown {
			if err := deps.Cache.Invalidate(ctx, id.String()); err != nil {
				deps.Log.Warn("failed to invalidate cached suggestion", "id", id, "err", err)
			}
		}
		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
	}
}

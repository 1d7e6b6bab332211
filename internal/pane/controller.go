// Package pane drives the task-pane flow: read the selected slide, ask the
// backend for a suggestion and render the outcome.
package pane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"slide-suggest/internal/extract"
	"slide-suggest/internal/host"
	"slide-suggest/internal/suggest"
)

type State int

const (
	Idle State = iota
	Fetching
	Suggesting
	Done
	Failed
	NothingFound
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Suggesting:
		return "suggesting"
	case Done:
		return "done"
	case Failed:
		return "error"
	case NothingFound:
		return "nothing-found"
	default:
		return "idle"
	}
}

const (
	StatusFetching     = "Reading slide content..."
	StatusSuggesting   = "Asking for a suggestion..."
	StatusDone         = "Suggestion ready."
	StatusNothingFound = "No text or images found on the selected slide."
)

var (
	// ErrBusy rejects a click while a previous one is still running.
	ErrBusy = errors.New("a suggestion is already in progress")
	// ErrNothingFound means the slide had no text and no images; no request was sent.
	ErrNothingFound = errors.New("nothing to suggest on")
)

// View renders controller state. Only the controller calls it.
type View interface {
	SetState(state State, status string)
	SetTriggerEnabled(enabled bool)
	ShowContent(content extract.Content)
	ShowSuggestion(text string)
}

type Extractor interface {
	Extract(ctx context.Context) (extract.Content, error)
}

// Controller runs one user-initiated suggestion at a time.
type Controller struct {
	extractor Extractor
	client    suggest.Client
	view      View
	mode      string
	log       *slog.Logger

	mu    sync.Mutex
	busy  bool
	state State
}

func NewController(extractor Extractor, client suggest.Client, view View, mode string, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{extractor: extractor, client: client, view: view, mode: mode, log: log}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Click performs the full flow. The trigger is disabled for the duration and
// re-enabled on every exit path.
func (c *Controller) Click(ctx context.Context) (suggest.Result, error) {
	if !c.acquire() {
		return suggest.Result{}, ErrBusy
	}
	defer c.release()

	c.transition(Fetching, StatusFetching)
	content, err := c.extractor.Extract(ctx)
	if err != nil {
		return suggest.Result{}, c.fail(err)
	}
	c.view.ShowContent(content)
	if content.Empty() {
		c.transition(NothingFound, StatusNothingFound)
		return suggest.Result{}, ErrNothingFound
	}

	c.transition(Suggesting, StatusSuggesting)
	images := content.Images
	if images == nil {
		images = []string{}
	}
	res, err := c.client.Suggest(ctx, suggest.Request{
		Text:   content.JoinedText(),
		Images: images,
		Mode:   c.mode,
	})
	if err != nil {
		return suggest.Result{}, c.fail(err)
	}

	c.view.ShowSuggestion(res.Suggestion)
	c.transition(Done, StatusDone)
	return res, nil
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	c.view.SetTriggerEnabled(false)
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.view.SetTriggerEnabled(true)
}

func (c *Controller) transition(s State, status string) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.view.SetState(s, status)
}

func (c *Controller) fail(err error) error {
	c.log.Error("suggestion flow failed", "err", err)
	c.transition(Failed, "Error: "+UserMessage(err))
	return err
}

// UserMessage turns a flow error into text fit for the pane.
func UserMessage(err error) string {
	var remote *suggest.RemoteError
	switch {
	case errors.As(err, &remote):
		return remote.Error()
	case errors.Is(err, host.ErrCapabilityUnavailable):
		return fmt.Sprintf("this host version cannot do that (%v)", err)
	case errors.Is(err, host.ErrReadFailure):
		return fmt.Sprintf("could not read the slide (%v)", err)
	case errors.Is(err, suggest.ErrNetwork):
		return "could not reach the suggestion service"
	case errors.Is(err, suggest.ErrMalformedResponse):
		return "the suggestion service returned an unexpected response"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the request was interrupted"
	}
	return err.Error()
}

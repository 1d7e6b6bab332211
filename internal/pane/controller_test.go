package pane

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"slide-suggest/internal/extract"
	"slide-suggest/internal/host"
	"slide-suggest/internal/suggest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context) (extract.Content, error) {
	args := m.Called(ctx)
	return args.Get(0).(extract.Content), args.Error(1)
}

type recordingView struct {
	mu         sync.Mutex
	states     []State
	statuses   []string
	toggles    []bool
	content    *extract.Content
	suggestion string
}

func (v *recordingView) SetState(state State, status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states = append(v.states, state)
	v.statuses = append(v.statuses, status)
}

func (v *recordingView) SetTriggerEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.toggles = append(v.toggles, enabled)
}

func (v *recordingView) ShowContent(content extract.Content) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.content = &content
}

func (v *recordingView) ShowSuggestion(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.suggestion = text
}

func (v *recordingView) lastStatus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return ""
	}
	return v.statuses[len(v.statuses)-1]
}

func TestClickSuccess(t *testing.T) {
	ex := new(mockExtractor)
	client := new(suggest.MockClient)
	view := &recordingView{}

	content := extract.Content{Text: []string{"Quarterly results", "Revenue up"}, Images: []string{"aGk="}}
	ex.On("Extract", mock.Anything).Return(content, nil)
	client.On("Suggest", mock.Anything, suggest.Request{
		Text:   "Quarterly results\nRevenue up",
		Images: []string{"aGk="},
		Mode:   "improve",
	}).Return(suggest.Result{Suggestion: "Use a shorter title.", ID: "abc"}, nil)

	c := NewController(ex, client, view, "improve", discard)
	res, err := c.Click(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Use a shorter title.", res.Suggestion)
	assert.Equal(t, "Use a shorter title.", view.suggestion)
	assert.Equal(t, []State{Fetching, Suggesting, Done}, view.states)
	assert.Equal(t, StatusDone, view.lastStatus())
	assert.Equal(t, []bool{false, true}, view.toggles)
	require.NotNil(t, view.content)
	assert.Equal(t, content, *view.content)
	assert.Equal(t, Done, c.State())
	client.AssertExpectations(t)
}

func TestClickTextOnlySendsEmptyImageList(t *testing.T) {
	ex := new(mockExtractor)
	client := new(suggest.MockClient)
	view := &recordingView{}

	ex.On("Extract", mock.Anything).Return(extract.Content{Text: []string{"Title"}}, nil)
	client.On("Suggest", mock.Anything, mock.MatchedBy(func(req suggest.Request) bool {
		return req.Images != nil && len(req.Images) == 0 && req.Mode == ""
	})).Return(suggest.Result{Suggestion: "ok"}, nil)

	_, err := NewController(ex, client, view, "", discard).Click(context.Background())
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestClickFailures(t *testing.T) {
	remote := &suggest.RemoteError{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error", Body: "model unavailable"}

	tests := []struct {
		name          string
		extractErr    error
		suggestErr    error
		wantStatus    string
		wantNoSuggest bool
	}{
		{
			name:       "remote error",
			suggestErr: remote,
			wantStatus: "Error: suggestion endpoint returned 500 Internal Server Error - model unavailable",
		},
		{
			name:       "network failure",
			suggestErr: fmt.Errorf("%w: connection refused", suggest.ErrNetwork),
			wantStatus: "Error: could not reach the suggestion service",
		},
		{
			name:       "malformed response",
			suggestErr: suggest.ErrMalformedResponse,
			wantStatus: "Error: the suggestion service returned an unexpected response",
		},
		{
			name:          "capability unavailable",
			extractErr:    host.Availability{Capability: host.CapSlideExport, Reason: "old host"}.Err(),
			wantNoSuggest: true,
		},
		{
			name:          "host read failure",
			extractErr:    fmt.Errorf("%w: Text 3: locked", host.ErrReadFailure),
			wantNoSuggest: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := new(mockExtractor)
			client := new(suggest.MockClient)
			view := &recordingView{}

			if tt.extractErr != nil {
				ex.On("Extract", mock.Anything).Return(extract.Content{}, tt.extractErr)
			} else {
				ex.On("Extract", mock.Anything).Return(extract.Content{Text: []string{"Title"}}, nil)
				client.On("Suggest", mock.Anything, mock.Anything).Return(suggest.Result{}, tt.suggestErr)
			}

			c := NewController(ex, client, view, "", discard)
			_, err := c.Click(context.Background())
			require.Error(t, err)

			assert.Equal(t, Failed, c.State())
			assert.Equal(t, []bool{false, true}, view.toggles, "trigger re-enabled after failure")
			assert.Empty(t, view.suggestion)
			if tt.wantStatus != "" {
				assert.Equal(t, tt.wantStatus, view.lastStatus())
			}
			if tt.wantNoSuggest {
				client.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything)
			}
			if tt.suggestErr == remote {
				var got *suggest.RemoteError
				require.ErrorAs(t, err, &got)
				assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
			}
		})
	}
}

func TestClickNothingFound(t *testing.T) {
	ex := new(mockExtractor)
	client := new(suggest.MockClient)
	view := &recordingView{}
	ex.On("Extract", mock.Anything).Return(extract.Content{}, nil)

	c := NewController(ex, client, view, "", discard)
	_, err := c.Click(context.Background())

	assert.ErrorIs(t, err, ErrNothingFound)
	assert.Equal(t, NothingFound, c.State())
	assert.Equal(t, StatusNothingFound, view.lastStatus())
	assert.Equal(t, []bool{false, true}, view.toggles)
	client.AssertNotCalled(t, "Suggest", mock.Anything, mock.Anything)
}

func TestClickWhileBusy(t *testing.T) {
	ex := new(mockExtractor)
	client := new(suggest.MockClient)
	view := &recordingView{}

	started := make(chan struct{})
	unblock := make(chan struct{})
	ex.On("Extract", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-unblock
	}).Return(extract.Content{}, nil).Once()

	c := NewController(ex, client, view, "", discard)
	done := make(chan error, 1)
	go func() {
		_, err := c.Click(context.Background())
		done <- err
	}()

	<-started
	_, err := c.Click(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(unblock)
	assert.ErrorIs(t, <-done, ErrNothingFound)
	ex.AssertNumberOfCalls(t, "Extract", 1)
}

func TestClickAgainAfterFailure(t *testing.T) {
	ex := new(mockExtractor)
	client := new(suggest.MockClient)
	view := &recordingView{}

	ex.On("Extract", mock.Anything).Return(extract.Content{Text: []string{"Title"}}, nil)
	client.On("Suggest", mock.Anything, mock.Anything).Return(suggest.Result{}, suggest.ErrMalformedResponse).Once()
	client.On("Suggest", mock.Anything, mock.Anything).Return(suggest.Result{Suggestion: "second try"}, nil).Once()

	c := NewController(ex, client, view, "", discard)
	_, err := c.Click(context.Background())
	require.Error(t, err)

	res, err := c.Click(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second try", res.Suggestion)
	assert.Equal(t, Done, c.State())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "the request was interrupted", UserMessage(context.Canceled))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Contains(t, UserMessage(fmt.Errorf("%w: shape 2", host.ErrReadFailure)), "could not read the slide")
	assert.Contains(t, UserMessage(host.Availability{Capability: host.CapGroupTraversal}.Err()), "cannot do that")
	assert.Equal(t, "suggestion endpoint returned 502 Bad Gateway",
		UserMessage(&suggest.RemoteError{StatusCode: 502, Status: "502 Bad Gateway"}))
}

func TestTerminalView(t *testing.T) {
	var buf bytes.Buffer
	view := NewTerminalView(&buf, true)
	ex := new(mockExtractor)
	client := new(suggest.MockClient)

	ex.On("Extract", mock.Anything).Return(extract.Content{Text: []string{"Title"}, Images: []string{"aGk="}}, nil)
	client.On("Suggest", mock.Anything, mock.Anything).Return(suggest.Result{Suggestion: "Use a shorter title."}, nil)

	_, err := NewController(ex, client, view, "", discard).Click(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, StatusFetching)
	assert.Contains(t, out, "  | Title\n")
	assert.Contains(t, out, "  1 image(s)\n")
	assert.Contains(t, out, "\nUse a shorter title.\n")
	assert.True(t, view.Enabled())
}

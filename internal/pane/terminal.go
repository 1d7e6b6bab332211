package pane

import (
	"fmt"
	"io"
	"sync"

	"slide-suggest/internal/extract"
)

// TerminalView renders the pane as plain lines on a writer.
type TerminalView struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	enabled bool
}

// NewTerminalView writes to out. In verbose mode the extracted texts and an
// image count are listed before the suggestion.
func NewTerminalView(out io.Writer, verbose bool) *TerminalView {
	return &TerminalView{out: out, verbose: verbose, enabled: true}
}

// Enabled reports whether the trigger is currently enabled.
func (v *TerminalView) Enabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

func (v *TerminalView) SetState(_ State, status string) {
	v.printf("%s\n", status)
}

func (v *TerminalView) SetTriggerEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled
}

func (v *TerminalView) ShowContent(content extract.Content) {
	if !v.verbose {
		return
	}
	if len(content.Text) == 0 {
		v.printf("  (no text found on the slide)\n")
	}
	for _, t := range content.Text {
		v.printf("  | %s\n", t)
	}
	v.printf("  %d image(s)\n", len(content.Images))
}

func (v *TerminalView) ShowSuggestion(text string) {
	v.printf("\n%s\n", text)
}

func (v *TerminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

package host

import (
	"context"
	"fmt"
	"sync"
)

// MemoryShape is one node of an in-memory slide.
type MemoryShape struct {
	Shape
	Text    string
	Picture string
	Items   []MemoryShape
	// Fail, when set, is returned by every read of this shape.
	Fail error
}

// Memory is an in-process Document holding a single selected slide. It
// counts every host call so callers can check how reads were batched.
type Memory struct {
	Slide      Slide
	Items      []MemoryShape
	Caps       Capabilities
	SlideImage string

	mu    sync.Mutex
	calls map[string]int
}

// NewMemory builds a slide from items with every capability available.
func NewMemory(items ...MemoryShape) *Memory {
	return &Memory{
		Slide: Slide{ID: "slide-1", Index: 1},
		Items: items,
		Caps:  NewCapabilities(CapSlideExport, CapPictureExport, CapGroupTraversal),
	}
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of host calls across all operations.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *Memory) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
}

func (m *Memory) Capabilities() Capabilities { return m.Caps }

func (m *Memory) SelectedSlide(ctx context.Context) (Slide, error) {
	m.record("SelectedSlide")
	return m.Slide, ctx.Err()
}

func (m *Memory) Shapes(ctx context.Context, slideID string) ([]Shape, error) {
	m.record("Shapes")
	if slideID != m.Slide.ID {
		return nil, fmt.Errorf("unknown slide %q", slideID)
	}
	return shapesOf(m.Items), ctx.Err()
}

func (m *Memory) GroupItems(ctx context.Context, shapeID string) ([]Shape, error) {
	m.record("GroupItems")
	s, err := m.find(shapeID)
	if err != nil {
		return nil, err
	}
	if s.Type != ShapeTypeGroup {
		return nil, fmt.Errorf("shape %s is not a group", shapeID)
	}
	return shapesOf(s.Items), ctx.Err()
}

func (m *Memory) Text(ctx context.Context, shapeID string) (string, error) {
	m.record("Text")
	s, err := m.find(shapeID)
	if err != nil {
		return "", err
	}
	if !s.HasTextFrame {
		return "", ErrNoTextFrame
	}
	return s.Text, ctx.Err()
}

func (m *Memory) PictureBase64(ctx context.Context, shapeID string) (string, error) {
	m.record("PictureBase64")
	if !m.Caps.Supported[CapPictureExport] {
		return "", ErrCapabilityUnavailable
	}
	s, err := m.find(shapeID)
	if err != nil {
		return "", err
	}
	if s.Type != ShapeTypeImage {
		return "", fmt.Errorf("shape %s is not a picture", shapeID)
	}
	return s.Picture, ctx.Err()
}

func (m *Memory) ExportSlide(ctx context.Context, slideID string) (string, error) {
	m.record("ExportSlide")
	if !m.Caps.Supported[CapSlideExport] {
		return "", ErrCapabilityUnavailable
	}
	if slideID != m.Slide.ID {
		return "", fmt.Errorf("unknown slide %q", slideID)
	}
	return m.SlideImage, ctx.Err()
}

func (m *Memory) find(id string) (*MemoryShape, error) {
	if s := findIn(m.Items, id); s != nil {
		if s.Fail != nil {
			return nil, s.Fail
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown shape %q", id)
}

func findIn(items []MemoryShape, id string) *MemoryShape {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
		if s := findIn(items[i].Items, id); s != nil {
			return s
		}
	}
	return nil
}

func shapesOf(items []MemoryShape) []Shape {
	out := make([]Shape, len(items))
	for i, it := range items {
		out[i] = it.Shape
	}
	return out
}

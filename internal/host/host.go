package host

import (
	"context"
	"errors"
)

// ShapeType classifies a drawable object on a slide.
type ShapeType string

const (
	ShapeTypeImage     ShapeType = "Image"
	ShapeTypeGroup     ShapeType = "Group"
	ShapeTypeGeometric ShapeType = "GeometricShape"
	ShapeTypeTextBox   ShapeType = "TextBox"
	ShapeTypeTable     ShapeType = "Table"
	ShapeTypeLine      ShapeType = "Line"
	ShapeTypeUnknown   ShapeType = "Unsupported"
)

var (
	// ErrCapabilityUnavailable reports that the host lacks an API the caller needs.
	ErrCapabilityUnavailable = errors.New("host capability unavailable")
	// ErrReadFailure wraps any host-reported failure on a document read.
	ErrReadFailure = errors.New("host read failed")
	// ErrNoTextFrame is returned when text is requested from a shape without a text frame.
	ErrNoTextFrame = errors.New("shape has no text frame")
	// ErrNotSynced is returned when a pending value is read before its batch was synced.
	ErrNotSynced = errors.New("value read before sync")
)

type Slide struct {
	ID    string
	Index int
}

type Shape struct {
	ID           string
	Name         string
	Type         ShapeType
	HasTextFrame bool
}

// Document is the read surface of a host presentation. Implementations are
// driven through a Batch rather than called directly.
type Document interface {
	Capabilities() Capabilities
	SelectedSlide(ctx context.Context) (Slide, error)
	Shapes(ctx context.Context, slideID string) ([]Shape, error)
	GroupItems(ctx context.Context, shapeID string) ([]Shape, error)
	Text(ctx context.Context, shapeID string) (string, error)
	PictureBase64(ctx context.Context, shapeID string) (string, error)
	ExportSlide(ctx context.Context, slideID string) (string, error)
}

// Package pptx reads Office Open XML presentations as a host document.
package pptx

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"slide-suggest/internal/host"
)

var (
	ErrSlideOutOfRange = errors.New("slide index out of range")
	ErrUnknownShape    = errors.New("unknown shape")
)

const slideExportUnavailable = "slide rendering is not available for .pptx files"

// Document is a .pptx file opened as a host. The selected slide is fixed when
// the document is opened or derived with Slide.
type Document struct {
	pkg      *pkg
	selected int
}

type pkg struct {
	closer io.Closer
	files  map[string]*zip.File
	slides []string

	mu     sync.Mutex
	parsed map[int]*slidePart
	shapes map[string]*node
}

type slidePart struct {
	index int
	path  string
	rels  map[string]relationship
	nodes []*node
}

type node struct {
	shape    host.Shape
	text     string
	embed    string
	link     string
	slide    *slidePart
	children []*node
}

type Option func(*Document)

// WithSelectedSlide selects slide n (1-based).
func WithSelectedSlide(n int) Option {
	return func(d *Document) { d.selected = n }
}

// Open reads the presentation at path.
func Open(path string, opts ...Option) (*Document, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open presentation: %w", err)
	}
	d, err := newDocument(&rc.Reader, rc, opts...)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return d, nil
}

// NewReader reads a presentation from r.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open presentation: %w", err)
	}
	return newDocument(zr, nil, opts...)
}

func newDocument(zr *zip.Reader, closer io.Closer, opts ...Option) (*Document, error) {
	p := &pkg{
		closer: closer,
		files:  make(map[string]*zip.File, len(zr.File)),
		parsed: map[int]*slidePart{},
		shapes: map[string]*node{},
	}
	for _, f := range zr.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}
	if err := p.loadSlideOrder(); err != nil {
		return nil, err
	}
	d := &Document{pkg: p, selected: 1}
	for _, opt := range opts {
		opt(d)
	}
	if err := p.checkIndex(d.selected); err != nil {
		return nil, err
	}
	return d, nil
}

// Close releases the underlying file when the document was opened from disk.
func (d *Document) Close() error {
	if d.pkg.closer == nil {
		return nil
	}
	return d.pkg.closer.Close()
}

// SlideCount reports the number of slides in presentation order.
func (d *Document) SlideCount() int { return len(d.pkg.slides) }

// Slide returns a view of the same presentation with slide n selected.
func (d *Document) Slide(n int) (*Document, error) {
	if err := d.pkg.checkIndex(n); err != nil {
		return nil, err
	}
	return &Document{pkg: d.pkg, selected: n}, nil
}

func (d *Document) Capabilities() host.Capabilities {
	return host.NewCapabilities(host.CapPictureExport, host.CapGroupTraversal).
		Without(host.CapSlideExport, slideExportUnavailable)
}

func (d *Document) SelectedSlide(ctx context.Context) (host.Slide, error) {
	if err := ctx.Err(); err != nil {
		return host.Slide{}, err
	}
	return host.Slide{ID: slideID(d.selected), Index: d.selected}, nil
}

func (d *Document) Shapes(ctx context.Context, id string) ([]host.Shape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := parseSlideID(id)
	if err != nil {
		return nil, err
	}
	part, err := d.pkg.slide(n)
	if err != nil {
		return nil, err
	}
	return shapesOf(part.nodes), nil
}

func (d *Document) GroupItems(ctx context.Context, shapeID string) ([]host.Shape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nd, err := d.pkg.node(shapeID)
	if err != nil {
		return nil, err
	}
	if nd.shape.Type != host.ShapeTypeGroup {
		return nil, fmt.Errorf("shape %s is not a group", shapeID)
	}
	return shapesOf(nd.children), nil
}

func (d *Document) Text(ctx context.Context, shapeID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	nd, err := d.pkg.node(shapeID)
	if err != nil {
		return "", err
	}
	if !nd.shape.HasTextFrame {
		return "", host.ErrNoTextFrame
	}
	return nd.text, nil
}

func (d *Document) PictureBase64(ctx context.Context, shapeID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	nd, err := d.pkg.node(shapeID)
	if err != nil {
		return "", err
	}
	if nd.shape.Type != host.ShapeTypeImage {
		return "", fmt.Errorf("shape %s is not a picture", shapeID)
	}
	if nd.embed == "" {
		if nd.link != "" {
			return "", fmt.Errorf("picture %s is linked, not embedded", shapeID)
		}
		return "", fmt.Errorf("picture %s has no image data", shapeID)
	}
	rel, ok := nd.slide.rels[nd.embed]
	if !ok {
		return "", fmt.Errorf("picture %s: missing relationship %s", shapeID, nd.embed)
	}
	data, err := d.pkg.read(resolveTarget(nd.slide.path, rel.Target))
	if err != nil {
		return "", err
	}
	png, err := toPNG(data)
	if err != nil {
		return "", fmt.Errorf("picture %s: %w", shapeID, err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

func (d *Document) ExportSlide(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: %s", host.ErrCapabilityUnavailable, slideExportUnavailable)
}

func (p *pkg) checkIndex(n int) error {
	if n < 1 || n > len(p.slides) {
		return fmt.Errorf("%w: %d (presentation has %d slides)", ErrSlideOutOfRange, n, len(p.slides))
	}
	return nil
}

func (p *pkg) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *pkg) decode(name string, v any) error {
	data, err := p.read(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (p *pkg) rels(owner string) (map[string]relationship, error) {
	out := map[string]relationship{}
	name := relsPath(owner)
	if _, ok := p.files[name]; !ok {
		return out, nil
	}
	var rs relationships
	if err := p.decode(name, &rs); err != nil {
		return nil, err
	}
	for _, r := range rs.Items {
		out[r.ID] = r
	}
	return out, nil
}

func (p *pkg) loadSlideOrder() error {
	mainPart := defaultMainPart
	var root relationships
	if _, ok := p.files["_rels/.rels"]; ok {
		if err := p.decode("_rels/.rels", &root); err != nil {
			return err
		}
		for _, r := range root.Items {
			if r.Type == relOfficeDoc {
				mainPart = resolveTarget("", r.Target)
				break
			}
		}
	}

	var pres presentationXML
	if err := p.decode(mainPart, &pres); err != nil {
		return err
	}
	rels, err := p.rels(mainPart)
	if err != nil {
		return err
	}
	for _, sid := range pres.SlideIDs {
		r, ok := rels[sid.RID]
		if !ok || r.Type != relSlide {
			return fmt.Errorf("slide relationship %s not found in %s", sid.RID, mainPart)
		}
		p.slides = append(p.slides, resolveTarget(mainPart, r.Target))
	}
	return nil
}

func (p *pkg) slide(n int) (*slidePart, error) {
	if err := p.checkIndex(n); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if part, ok := p.parsed[n]; ok {
		return part, nil
	}

	name := p.slides[n-1]
	var sx slideXML
	if err := p.decode(name, &sx); err != nil {
		return nil, err
	}
	rels, err := p.rels(name)
	if err != nil {
		return nil, err
	}
	part := &slidePart{index: n, path: name, rels: rels}
	seq := 0
	part.nodes = p.build(part, sx.Tree.Nodes, &seq)
	p.parsed[n] = part
	return part, nil
}

// build converts decoded elements into shape nodes in document order and
// registers them for lookup. Caller holds p.mu.
func (p *pkg) build(part *slidePart, elems []xmlNode, seq *int) []*node {
	var out []*node
	for i := range elems {
		el := &elems[i]
		if el.XMLName.Local == "AlternateContent" {
			out = append(out, p.build(part, alternative(el), seq)...)
			continue
		}
		nd := newNode(el)
		if nd == nil {
			continue
		}
		*seq++
		nd.shape.ID = fmt.Sprintf("%d:%d", part.index, *seq)
		nd.slide = part
		p.shapes[nd.shape.ID] = nd
		if nd.shape.Type == host.ShapeTypeGroup {
			nd.children = p.build(part, el.Children, seq)
		}
		out = append(out, nd)
	}
	return out
}

// alternative picks the markup-compatibility branch to read: the fallback
// when present, otherwise the first choice.
func alternative(el *xmlNode) []xmlNode {
	var choice []xmlNode
	for _, c := range el.Children {
		switch c.XMLName.Local {
		case "Fallback":
			return c.Children
		case "Choice":
			if choice == nil {
				choice = c.Children
			}
		}
	}
	return choice
}

func newNode(el *xmlNode) *node {
	nd := &node{}
	switch el.XMLName.Local {
	case "sp":
		nd.shape = shapeFrom(el.Sp, host.ShapeTypeGeometric)
		if el.SpFlags != nil && (el.SpFlags.TxBox == "1" || el.SpFlags.TxBox == "true") {
			nd.shape.Type = host.ShapeTypeTextBox
		}
		if el.Body != nil {
			nd.shape.HasTextFrame = true
			nd.text = el.Body.text()
		}
	case "pic":
		nd.shape = shapeFrom(el.Pic, host.ShapeTypeImage)
		if el.Blip != nil {
			nd.embed, nd.link = el.Blip.Embed, el.Blip.Link
		}
	case "grpSp":
		nd.shape = shapeFrom(el.Grp, host.ShapeTypeGroup)
	case "graphicFrame":
		nd.shape = shapeFrom(el.Frame, host.ShapeTypeTable)
	case "cxnSp":
		nd.shape = shapeFrom(el.Cxn, host.ShapeTypeLine)
	default:
		return nil
	}
	return nd
}

func shapeFrom(props *nvProps, typ host.ShapeType) host.Shape {
	s := host.Shape{Type: typ}
	if props != nil {
		s.Name = props.Name
	}
	return s
}

func (p *pkg) node(id string) (*node, error) {
	n, _, ok := strings.Cut(id, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	idx, err := strconv.Atoi(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	if _, err := p.slide(idx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nd, ok := p.shapes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	return nd, nil
}

func shapesOf(nodes []*node) []host.Shape {
	out := make([]host.Shape, len(nodes))
	for i, nd := range nodes {
		out[i] = nd.shape
	}
	return out
}

func slideID(n int) string { return "slide-" + strconv.Itoa(n) }

func parseSlideID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "slide-"))
	if err != nil {
		return 0, fmt.Errorf("invalid slide id %q", id)
	}
	return n, nil
}

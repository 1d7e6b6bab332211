package extract

import (
	"context"
	"errors"

	"slide-suggest/internal/host"
)

type treeNode struct {
	shape    host.Shape
	children []*treeNode
}

func wrap(shapes []host.Shape) []*treeNode {
	nodes := make([]*treeNode, len(shapes))
	for i, s := range shapes {
		nodes[i] = &treeNode{shape: s}
	}
	return nodes
}

// collectPictures expands group shapes one depth at a time, one sync per
// depth, then returns the picture shapes in pre-order: a group's members come
// before the group's next sibling.
func collectPictures(ctx context.Context, doc host.Document, shapes []host.Shape) ([]host.Shape, error) {
	roots := wrap(shapes)
	level := roots
	for len(level) > 0 {
		b := host.NewBatch(doc)
		loads := make([]*host.Pending[[]host.Shape], len(level))
		for i, n := range level {
			if n.shape.Type == host.ShapeTypeGroup {
				loads[i] = host.LoadGroupItems(b, n.shape.ID)
			}
		}
		if b.Len() == 0 {
			break
		}
		if err := b.Sync(ctx); err != nil {
			return nil, err
		}

		var next []*treeNode
		for i, n := range level {
			if loads[i] == nil {
				continue
			}
			items, err := loads[i].Value()
			if err != nil {
				return nil, err
			}
			n.children = wrap(items)
			next = append(next, n.children...)
		}
		level = next
	}

	var pictures []host.Shape
	var walk func([]*treeNode)
	walk = func(nodes []*treeNode) {
		for _, n := range nodes {
			if n.shape.Type == host.ShapeTypeImage {
				pictures = append(pictures, n.shape)
			}
			walk(n.children)
		}
	}
	walk(roots)
	return pictures, nil
}

func isNoTextFrame(err error) bool {
	return errors.Is(err, host.ErrNoTextFrame)
}

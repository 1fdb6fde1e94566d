package treediff

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goliatone/go-cms-composer/internal/nodes"
)

// Applied reports what replaying one operation did to a node map.
type Applied struct {
	Changed  bool
	Inserted bool
	Removed  []string
}

// Apply replays op onto m in place. Inserted nodes receive only the shared
// props carried by op; filling translatable props is left to the caller.
// Deletes, moves and updates of ids absent from m are no-ops. source, when
// non-nil, is the edited tree and resolves placement when op.After is not
// present among the target's siblings.
func Apply(m nodes.NodeMap, op Operation, source *nodes.Tree) (Applied, error) {
	switch op.Kind {
	case OpInsert:
		return applyInsert(m, op, source)
	case OpDelete:
		removed := removeSubtree(m, op.NodeID)
		return Applied{Changed: len(removed) > 0, Removed: removed}, nil
	case OpMove:
		node, ok := m[op.NodeID]
		if !ok {
			return Applied{}, nil
		}
		if _, ok := m[op.ParentID]; !ok {
			return Applied{}, &nodes.IntegrityError{NodeID: op.NodeID, Code: nodes.CodeDanglingParent, Detail: fmt.Sprintf("move target %q does not exist", op.ParentID)}
		}
		detach(m, node.Parent, op.NodeID)
		node.Parent = op.ParentID
		m[op.NodeID] = node
		place(m, op.ParentID, op.NodeID, op.After, source)
		return Applied{Changed: true}, nil
	case OpUpdate:
		node, ok := m[op.NodeID]
		if !ok {
			return Applied{}, nil
		}
		node.Props = maps.Clone(node.Props)
		if node.Props == nil {
			node.Props = map[string]any{}
		}
		for name, value := range op.Props {
			node.Props[name] = nodes.CloneValue(value)
		}
		for _, name := range op.Removed {
			delete(node.Props, name)
		}
		if op.Canvas != nil {
			node.IsCanvas = *op.Canvas
		}
		m[op.NodeID] = node
		return Applied{Changed: true}, nil
	default:
		return Applied{}, fmt.Errorf("treediff: unknown operation %q", op.Kind)
	}
}

// applyInsert creates the node, or re-places and refreshes an existing node
// with the same id so replays of the same diff converge.
func applyInsert(m nodes.NodeMap, op Operation, source *nodes.Tree) (Applied, error) {
	if _, ok := m[op.ParentID]; !ok {
		return Applied{}, &nodes.IntegrityError{NodeID: op.NodeID, Code: nodes.CodeDanglingParent, Detail: fmt.Sprintf("insert parent %q does not exist", op.ParentID)}
	}
	shared := nodes.CloneProps(op.Props)
	if shared == nil {
		shared = map[string]any{}
	}

	if existing, ok := m[op.NodeID]; ok {
		detach(m, existing.Parent, op.NodeID)
		existing.Parent = op.ParentID
		existing.IsCanvas = op.IsCanvas
		existing.Props = maps.Clone(existing.Props)
		if existing.Props == nil {
			existing.Props = map[string]any{}
		}
		maps.Copy(existing.Props, shared)
		m[op.NodeID] = existing
		place(m, op.ParentID, op.NodeID, op.After, source)
		return Applied{Changed: true}, nil
	}

	m[op.NodeID] = nodes.Node{
		ID:       op.NodeID,
		Type:     op.ComponentType,
		Props:    shared,
		Parent:   op.ParentID,
		Nodes:    []string{},
		IsCanvas: op.IsCanvas,
	}
	place(m, op.ParentID, op.NodeID, op.After, source)
	return Applied{Changed: true, Inserted: true}, nil
}

// place positions id among parent's children directly after anchor. When the
// anchor is missing the nearest earlier sibling from source is used, and the
// node goes first when none of them exist in m.
func place(m nodes.NodeMap, parentID, id, anchor string, source *nodes.Tree) {
	parent := m[parentID]
	siblings := slices.DeleteFunc(slices.Clone(parent.Nodes), func(s string) bool { return s == id })

	index := 0
	if anchor != "" {
		if at := slices.Index(siblings, anchor); at >= 0 {
			index = at + 1
		} else if source != nil {
			reference := source.Children(parentID)
			for i := slices.Index(reference, id) - 1; i >= 0; i-- {
				if at := slices.Index(siblings, reference[i]); at >= 0 {
					index = at + 1
					break
				}
			}
		}
	}
	parent.Nodes = slices.Insert(siblings, index, id)
	m[parentID] = parent
}

func detach(m nodes.NodeMap, parentID, id string) {
	parent, ok := m[parentID]
	if !ok {
		return
	}
	parent.Nodes = slices.DeleteFunc(slices.Clone(parent.Nodes), func(s string) bool { return s == id })
	m[parentID] = parent
}

// removeSubtree deletes id and every descendant still present in m, children
// first, and returns the removed ids.
func removeSubtree(m nodes.NodeMap, id string) []string {
	node, ok := m[id]
	if !ok {
		return nil
	}
	var removed []string
	for _, child := range slices.Clone(node.Nodes) {
		removed = append(removed, removeSubtree(m, child)...)
	}
	detach(m, node.Parent, id)
	delete(m, id)
	return append(removed, id)
}

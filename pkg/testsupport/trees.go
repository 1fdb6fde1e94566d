package testsupport

import (
	"testing"

	"github.com/goliatone/go-cms-composer/internal/nodes"
)

// TreeBuilder assembles node maps for tests. The root is a canvas Container.
type TreeBuilder struct {
	m nodes.NodeMap
}

// NewTree starts a tree holding only the root.
func NewTree() *TreeBuilder {
	return &TreeBuilder{m: nodes.NodeMap{
		nodes.RootID: {ID: nodes.RootID, Type: "Container", Props: map[string]any{}, IsCanvas: true},
	}}
}

// Canvas appends a canvas node under parent.
func (b *TreeBuilder) Canvas(parent, id, typ string, props map[string]any) *TreeBuilder {
	return b.add(parent, id, typ, true, props)
}

// Leaf appends a non-canvas node under parent.
func (b *TreeBuilder) Leaf(parent, id, typ string, props map[string]any) *TreeBuilder {
	return b.add(parent, id, typ, false, props)
}

func (b *TreeBuilder) add(parent, id, typ string, canvas bool, props map[string]any) *TreeBuilder {
	if props == nil {
		props = map[string]any{}
	}
	b.m[id] = nodes.Node{ID: id, Type: typ, Props: props, Parent: parent, IsCanvas: canvas}
	p := b.m[parent]
	p.Nodes = append(p.Nodes, id)
	b.m[parent] = p
	return b
}

// Map returns a copy of the assembled map.
func (b *TreeBuilder) Map() nodes.NodeMap {
	return b.m.Clone()
}

// MustTree validates the assembled map or fails the test.
func (b *TreeBuilder) MustTree(t testing.TB) *nodes.Tree {
	t.Helper()
	tree, err := nodes.Validate(b.m)
	if err != nil {
		t.Fatalf("validate test tree: %v", err)
	}
	return tree
}

// MustValidate validates m or fails the test.
func MustValidate(t testing.TB, m nodes.NodeMap) *nodes.Tree {
	t.Helper()
	tree, err := nodes.Validate(m)
	if err != nil {
		t.Fatalf("validate tree: %v", err)
	}
	return tree
}

// Edit applies fn to a mutable copy of tree and validates the result.
func Edit(t testing.TB, tree *nodes.Tree, fn func(m nodes.NodeMap)) *nodes.Tree {
	t.Helper()
	m := tree.Map()
	fn(m)
	return MustValidate(t, m)
}

// MoveNode re-parents id under parent at position within m.
func MoveNode(m nodes.NodeMap, id, parent string, position int) {
	node := m[id]
	old := m[node.Parent]
	filtered := old.Nodes[:0:0]
	for _, child := range old.Nodes {
		if child != id {
			filtered = append(filtered, child)
		}
	}
	old.Nodes = filtered
	m[node.Parent] = old

	target := m[parent]
	if position < 0 || position > len(target.Nodes) {
		position = len(target.Nodes)
	}
	target.Nodes = append(target.Nodes[:position:position], append([]string{id}, target.Nodes[position:]...)...)
	m[parent] = target
	node.Parent = parent
	m[id] = node
}

// RemoveNode deletes id and its descendants from m.
func RemoveNode(m nodes.NodeMap, id string) {
	node, ok := m[id]
	if !ok {
		return
	}
	for _, child := range append([]string(nil), node.Nodes...) {
		RemoveNode(m, child)
	}
	if parent, ok := m[node.Parent]; ok {
		filtered := parent.Nodes[:0:0]
		for _, child := range parent.Nodes {
			if child != id {
				filtered = append(filtered, child)
			}
		}
		parent.Nodes = filtered
		m[node.Parent] = parent
	}
	delete(m, id)
}

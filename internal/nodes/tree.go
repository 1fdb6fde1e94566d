package nodes

import (
	"slices"
)

// Tree is a validated, immutable snapshot of one locale's node map. Only
// Validate and Deserialize construct trees; accessors hand out copies.
type Tree struct {
	nodes NodeMap
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Has reports whether id is part of the tree.
func (t *Tree) Has(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (t *Tree) Node(id string) (Node, bool) {
	if t == nil {
		return Node{}, false
	}
	node, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return node.Clone(), true
}

// Root returns a copy of the root node.
func (t *Tree) Root() Node {
	node, _ := t.Node(RootID)
	return node
}

// Type returns the component type of id without copying props.
func (t *Tree) Type(id string) string {
	if t == nil {
		return ""
	}
	return t.nodes[id].Type
}

// Parent returns the parent id of id, empty for the root or unknown ids.
func (t *Tree) Parent(id string) string {
	if t == nil {
		return ""
	}
	return t.nodes[id].Parent
}

// Children returns a copy of the ordered child ids of id.
func (t *Tree) Children(id string) []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.nodes[id].Nodes)
}

// Prop returns a copy of a single prop value.
func (t *Tree) Prop(id, name string) (any, bool) {
	if t == nil {
		return nil, false
	}
	node, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	value, ok := node.Props[name]
	if !ok {
		return nil, false
	}
	return CloneValue(value), true
}

// IDs returns every node id in lexical order.
func (t *Tree) IDs() []string {
	if t == nil {
		return nil
	}
	return t.nodes.SortedIDs()
}

// Map returns a mutable deep copy of the underlying node map.
func (t *Tree) Map() NodeMap {
	if t == nil {
		return nil
	}
	return t.nodes.Clone()
}

// PreOrder returns node ids depth-first from the root, children in order.
func (t *Tree) PreOrder() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.nodes))
	var visit func(string)
	visit = func(id string) {
		out = append(out, id)
		for _, child := range t.nodes[id].Nodes {
			visit(child)
		}
	}
	visit(RootID)
	return out
}

// Subtree returns id followed by all of its descendants in pre-order.
func (t *Tree) Subtree(id string) []string {
	if !t.Has(id) {
		return nil
	}
	var out []string
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, current)
		children := t.nodes[current].Nodes
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// Equal reports whether both trees hold the same nodes with equal props.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.nodes) != len(other.nodes) {
		return false
	}
	for id, node := range t.nodes {
		peer, ok := other.nodes[id]
		if !ok {
			return false
		}
		if node.Type != peer.Type || node.Parent != peer.Parent || node.IsCanvas != peer.IsCanvas {
			return false
		}
		if !slices.Equal(node.Nodes, peer.Nodes) {
			return false
		}
		if !EqualValues(node.Props, peer.Props) {
			return false
		}
	}
	return true
}

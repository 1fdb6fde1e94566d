package nodes

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// RootID is the id of the single parentless node every tree carries.
const RootID = "ROOT"

// Node is one component instance. An empty Parent marks the root.
type Node struct {
	ID       string
	Type     string
	Props    map[string]any
	Parent   string
	Nodes    []string
	IsCanvas bool
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Props = CloneProps(n.Props)
	n.Nodes = slices.Clone(n.Nodes)
	return n
}

// IsRoot reports whether n has no parent.
func (n Node) IsRoot() bool {
	return n.Parent == ""
}

// NodeMap is the flat, unvalidated id to node mapping exchanged with editors.
type NodeMap map[string]Node

// Clone deep copies every node.
func (m NodeMap) Clone() NodeMap {
	if m == nil {
		return nil
	}
	out := make(NodeMap, len(m))
	for id, node := range m {
		out[id] = node.Clone()
	}
	return out
}

// SortedIDs returns the map keys in lexical order.
func (m NodeMap) SortedIDs() []string {
	return slices.Sorted(maps.Keys(m))
}

// CloneProps deep copies a props map, descending into nested maps and slices.
func CloneProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep copies JSON-shaped values.
func CloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return CloneProps(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = CloneValue(v[i])
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

// EqualValues compares two prop values by their JSON encoding so that numbers
// decoded as json.Number match the float64 an editor may have produced.
func EqualValues(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}

package nodes

import (
	"slices"
	"strings"
)

// Validate checks every structural invariant of m and returns an immutable
// Tree. Checks run in sorted id order so the reported violation is stable.
// The caller's map is never retained.
func Validate(m NodeMap) (*Tree, error) {
	if len(m) == 0 {
		return nil, violation("", CodeEmpty, "tree has no nodes")
	}

	nodes := make(NodeMap, len(m))
	for id, node := range m {
		node = node.Clone()
		if node.ID == "" {
			node.ID = id
		}
		if node.Props == nil {
			node.Props = map[string]any{}
		}
		if node.Nodes == nil {
			node.Nodes = []string{}
		}
		nodes[id] = node
	}
	ids := nodes.SortedIDs()

	for _, id := range ids {
		node := nodes[id]
		if strings.TrimSpace(id) == "" {
			return nil, violation(id, CodeInvalidID, "node id must not be blank")
		}
		if node.ID != id {
			return nil, violation(id, CodeIDMismatch, "node declares id %q", node.ID)
		}
		if strings.TrimSpace(node.Type) == "" {
			return nil, violation(id, CodeMissingType, "component type is required")
		}
	}

	root, ok := nodes[RootID]
	if !ok {
		return nil, violation(RootID, CodeMissingRoot, "tree has no %s entry", RootID)
	}
	if !root.IsRoot() {
		return nil, violation(RootID, CodeRootHasParent, "root declares parent %q", root.Parent)
	}

	for _, id := range ids {
		node := nodes[id]
		if id != RootID {
			if node.IsRoot() {
				return nil, violation(id, CodeMultipleRoots, "second parentless node")
			}
			parent, ok := nodes[node.Parent]
			if !ok {
				return nil, violation(id, CodeDanglingParent, "parent %q does not exist", node.Parent)
			}
			if !slices.Contains(parent.Nodes, id) {
				return nil, violation(id, CodeParentMismatch, "parent %q does not list the node", node.Parent)
			}
		}
		if !node.IsCanvas && len(node.Nodes) > 0 {
			return nil, violation(id, CodeCanvasViolation, "non-canvas node has %d children", len(node.Nodes))
		}
		seen := make(map[string]struct{}, len(node.Nodes))
		for _, childID := range node.Nodes {
			if _, dup := seen[childID]; dup {
				return nil, violation(id, CodeDuplicateChild, "child %q listed twice", childID)
			}
			seen[childID] = struct{}{}
			child, ok := nodes[childID]
			if !ok {
				return nil, violation(id, CodeDanglingChild, "child %q does not exist", childID)
			}
			if child.Parent != id {
				return nil, violation(childID, CodeParentMismatch, "listed by %q but parent is %q", id, child.Parent)
			}
		}
	}

	reached := make(map[string]struct{}, len(nodes))
	stack := []string{RootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := reached[id]; ok {
			continue
		}
		reached[id] = struct{}{}
		stack = append(stack, nodes[id].Nodes...)
	}
	if len(reached) != len(nodes) {
		for _, id := range ids {
			if _, ok := reached[id]; ok {
				continue
			}
			if onCycle(nodes, id) {
				return nil, violation(id, CodeCycle, "node is part of a parent cycle")
			}
			return nil, violation(id, CodeOrphan, "node is unreachable from %s", RootID)
		}
	}

	return &Tree{nodes: nodes}, nil
}

// onCycle walks parent links from id and reports whether the walk revisits a node.
func onCycle(nodes NodeMap, id string) bool {
	visited := map[string]struct{}{}
	for current := id; current != ""; {
		if _, ok := visited[current]; ok {
			return true
		}
		visited[current] = struct{}{}
		node, ok := nodes[current]
		if !ok {
			return false
		}
		current = node.Parent
	}
	return false
}

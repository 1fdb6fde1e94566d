package treediff

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/props"
)

// Compute diffs baseline against edited, matching nodes by id. Only
// structural and opaque props are compared; translatable edits are local to
// the edited locale and never appear in the result.
//
// Order of the result: inserts, moves and prop updates follow a pre-order walk
// of edited, then deletes in post-order of baseline, then canvas demotions.
func Compute(c props.Classifier, baseline, edited *nodes.Tree) (Diff, error) {
	if baseline == nil || edited == nil {
		return Diff{}, fmt.Errorf("treediff: baseline and edited trees are required")
	}
	for _, id := range edited.IDs() {
		if !baseline.Has(id) {
			continue
		}
		if before, after := baseline.Type(id), edited.Type(id); before != after {
			return Diff{}, &nodes.IntegrityError{
				NodeID: id,
				Code:   nodes.CodeTypeChanged,
				Detail: fmt.Sprintf("component type changed from %s to %s", before, after),
			}
		}
	}

	moved := movedNodes(baseline, edited)
	var ops, demotions []Operation

	for _, id := range edited.PreOrder() {
		node, _ := edited.Node(id)
		if !baseline.Has(id) {
			ops = append(ops, Operation{
				Kind:          OpInsert,
				NodeID:        id,
				ComponentType: node.Type,
				ParentID:      node.Parent,
				Position:      position(edited, id),
				After:         precedingSibling(edited, id),
				IsCanvas:      node.IsCanvas,
				Props:         props.Shared(c, node.Type, node.Props),
			})
			continue
		}

		if _, ok := moved[id]; ok {
			ops = append(ops, Operation{
				Kind:     OpMove,
				NodeID:   id,
				ParentID: node.Parent,
				Position: position(edited, id),
				After:    precedingSibling(edited, id),
			})
		}

		before, _ := baseline.Node(id)
		update := sharedPropChanges(c, before, node)
		if before.IsCanvas != node.IsCanvas {
			canvas := node.IsCanvas
			if canvas {
				update.Canvas = &canvas
			} else {
				demotions = append(demotions, Operation{Kind: OpUpdate, NodeID: id, Canvas: &canvas})
			}
		}
		if len(update.Props) > 0 || len(update.Removed) > 0 || update.Canvas != nil {
			ops = append(ops, update)
		}
	}

	for _, id := range postOrder(baseline) {
		if !edited.Has(id) {
			ops = append(ops, Operation{Kind: OpDelete, NodeID: id})
		}
	}

	ops = append(ops, demotions...)
	return Diff{Ops: ops}, nil
}

// Seed returns the diff that grows a bare root of the same type into source.
// It is used to populate a locale that has no content yet.
func Seed(c props.Classifier, source *nodes.Tree) (Diff, error) {
	bare, err := Bare(source)
	if err != nil {
		return Diff{}, err
	}
	return Compute(c, bare, source)
}

// Bare returns the root-only tree Seed starts from.
func Bare(source *nodes.Tree) (*nodes.Tree, error) {
	root := source.Root()
	return nodes.Validate(nodes.NodeMap{
		nodes.RootID: {ID: nodes.RootID, Type: root.Type, IsCanvas: root.IsCanvas},
	})
}

// Differ binds Compute to a classifier.
type Differ struct {
	classifier props.Classifier
}

// New returns a Differ using c, falling back to the default registry.
func New(c props.Classifier) *Differ {
	if c == nil {
		c = props.Default()
	}
	return &Differ{classifier: c}
}

// Diff computes the structural diff from baseline to edited.
func (d *Differ) Diff(baseline, edited *nodes.Tree) (Diff, error) {
	return Compute(d.classifier, baseline, edited)
}

func sharedPropChanges(c props.Classifier, before, after nodes.Node) Operation {
	op := Operation{Kind: OpUpdate, NodeID: after.ID}
	for _, name := range slices.Sorted(maps.Keys(after.Props)) {
		if !c.Classify(after.Type, name).Shared() {
			continue
		}
		value := after.Props[name]
		if previous, ok := before.Props[name]; ok && nodes.EqualValues(previous, value) {
			continue
		}
		if op.Props == nil {
			op.Props = map[string]any{}
		}
		op.Props[name] = value
	}
	for _, name := range slices.Sorted(maps.Keys(before.Props)) {
		if _, ok := after.Props[name]; ok {
			continue
		}
		if c.Classify(before.Type, name).Shared() {
			op.Removed = append(op.Removed, name)
		}
	}
	return op
}

// movedNodes returns the ids whose parent changed, plus the minimal set of
// same-parent siblings whose relative order changed (those outside the
// longest common subsequence of the two child lists).
func movedNodes(baseline, edited *nodes.Tree) map[string]struct{} {
	moved := map[string]struct{}{}
	for _, parentID := range edited.IDs() {
		after := edited.Children(parentID)
		if len(after) == 0 {
			continue
		}
		var stayed []string
		for _, id := range after {
			if !baseline.Has(id) {
				continue
			}
			if baseline.Parent(id) != parentID {
				moved[id] = struct{}{}
				continue
			}
			stayed = append(stayed, id)
		}
		if len(stayed) < 2 || !baseline.Has(parentID) {
			continue
		}
		var before []string
		for _, id := range baseline.Children(parentID) {
			if edited.Parent(id) == parentID && edited.Has(id) {
				before = append(before, id)
			}
		}
		keep := lcs(before, stayed)
		for _, id := range stayed {
			if _, ok := keep[id]; !ok {
				moved[id] = struct{}{}
			}
		}
	}
	return moved
}

func lcs(a, b []string) map[string]struct{} {
	n, m := len(a), len(b)
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}
	keep := make(map[string]struct{}, table[0][0])
	for i, j := 0, 0; i < n && j < m; {
		switch {
		case a[i] == b[j]:
			keep[a[i]] = struct{}{}
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			i++
		default:
			j++
		}
	}
	return keep
}

func position(tree *nodes.Tree, id string) int {
	return slices.Index(tree.Children(tree.Parent(id)), id)
}

func precedingSibling(tree *nodes.Tree, id string) string {
	siblings := tree.Children(tree.Parent(id))
	if idx := slices.Index(siblings, id); idx > 0 {
		return siblings[idx-1]
	}
	return ""
}

func postOrder(tree *nodes.Tree) []string {
	out := make([]string, 0, tree.Len())
	var visit func(string)
	visit = func(id string) {
		for _, child := range tree.Children(id) {
			visit(child)
		}
		out = append(out, id)
	}
	visit(nodes.RootID)
	return out
}

package treediff

import (
	"fmt"
	"strings"
)

// OpKind names a structural operation.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpDelete OpKind = "delete"
	OpMove   OpKind = "move"
	OpUpdate OpKind = "update_structural_props"
)

// Operation is one node-level change. Fields not relevant to Kind are zero.
//
// ParentID, Position and After describe placement in the edited tree: After
// is the preceding sibling ("" when the node is first) and is the anchor used
// when replaying onto trees whose sibling lists differ from the baseline.
type Operation struct {
	Kind          OpKind
	NodeID        string
	ComponentType string
	ParentID      string
	Position      int
	After         string
	IsCanvas      bool
	Props         map[string]any
	Removed       []string
	Canvas        *bool
}

func (op Operation) String() string {
	switch op.Kind {
	case OpInsert:
		return fmt.Sprintf("insert %s(%s) into %s@%d", op.NodeID, op.ComponentType, op.ParentID, op.Position)
	case OpMove:
		return fmt.Sprintf("move %s to %s@%d", op.NodeID, op.ParentID, op.Position)
	case OpUpdate:
		keys := make([]string, 0, len(op.Props)+len(op.Removed))
		for key := range op.Props {
			keys = append(keys, key)
		}
		keys = append(keys, op.Removed...)
		if op.Canvas != nil {
			keys = append(keys, fmt.Sprintf("isCanvas=%t", *op.Canvas))
		}
		return fmt.Sprintf("update %s [%s]", op.NodeID, strings.Join(keys, ","))
	default:
		return fmt.Sprintf("%s %s", op.Kind, op.NodeID)
	}
}

// Diff is the ordered list of operations turning a baseline into an edited
// tree. Inserts precede their descendants and deletes follow theirs.
type Diff struct {
	Ops []Operation
}

// Empty reports whether the diff carries no operations.
func (d Diff) Empty() bool {
	return len(d.Ops) == 0
}

// Counts tallies operations by kind.
func (d Diff) Counts() map[OpKind]int {
	counts := make(map[OpKind]int, 4)
	for _, op := range d.Ops {
		counts[op.Kind]++
	}
	return counts
}

// Touches reports whether any operation targets id.
func (d Diff) Touches(id string) bool {
	for _, op := range d.Ops {
		if op.NodeID == id {
			return true
		}
	}
	return false
}

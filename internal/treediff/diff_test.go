package treediff_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/props"
	"github.com/goliatone/go-cms-composer/internal/treediff"
	"github.com/goliatone/go-cms-composer/pkg/testsupport"
)

func baseline(t *testing.T) *nodes.Tree {
	t.Helper()
	return testsupport.NewTree().
		Canvas(nodes.RootID, "S1", "Section", map[string]any{"padding": 8}).
		Leaf("S1", "T1", "Text", map[string]any{"text": "Hello", "fontSize": 14}).
		Leaf("S1", "I1", "Image", map[string]any{"src": "a.png", "alt": "Sea"}).
		Canvas(nodes.RootID, "S2", "Section", nil).
		Leaf("S2", "B1", "Button", map[string]any{"label": "Go", "href": "/go"}).
		Leaf("S2", "B2", "Button", map[string]any{"label": "Stop", "href": "/stop"}).
		Leaf("S2", "B3", "Button", map[string]any{"label": "Wait", "href": "/wait"}).
		MustTree(t)
}

func kinds(d treediff.Diff) []treediff.OpKind {
	out := make([]treediff.OpKind, 0, len(d.Ops))
	for _, op := range d.Ops {
		out = append(out, op.Kind)
	}
	return out
}

func ids(d treediff.Diff) []string {
	out := make([]string, 0, len(d.Ops))
	for _, op := range d.Ops {
		out = append(out, op.NodeID)
	}
	return out
}

func TestDiffOfIdenticalTreesIsEmpty(t *testing.T) {
	base := baseline(t)
	d, err := treediff.Compute(props.Default(), base, testsupport.MustValidate(t, base.Map()))
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !d.Empty() {
		t.Fatalf("expected empty diff, got %v", d.Ops)
	}
}

func TestDiffIgnoresTranslatableEdits(t *testing.T) {
	base := baseline(t)
	edited := testsupport.Edit(t, base, func(m nodes.NodeMap) {
		m["T1"].Props["text"] = "Moi"
		m["I1"].Props["alt"] = "Meri"
	})
	d, err := treediff.New(nil).Diff(base, edited)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !d.Empty() {
		t.Fatalf("translatable edits must not produce operations, got %v", d.Ops)
	}
}

func TestDiffCapturesStructuralAndOpaqueChanges(t *testing.T) {
	base := baseline(t)
	edited := testsupport.Edit(t, base, func(m nodes.NodeMap) {
		m["S1"].Props["padding"] = 24
		m["S1"].Props["background"] = "#000"
		m["I1"].Props["src"] = "b.png"
		delete(m["T1"].Props, "fontSize")
		m["T1"].Props["text"] = "changed"
	})
	d, err := treediff.Compute(props.Default(), base, edited)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if got := kinds(d); !slices.Equal(got, []treediff.OpKind{treediff.OpUpdate, treediff.OpUpdate, treediff.OpUpdate}) {
		t.Fatalf("unexpected kinds %v", got)
	}
	if got := ids(d); !slices.Equal(got, []string{"S1", "T1", "I1"}) {
		t.Fatalf("expected pre-order updates, got %v", got)
	}
	if len(d.Ops[0].Props) != 2 || d.Ops[0].Props["padding"] != 24 {
		t.Fatalf("unexpected section update %v", d.Ops[0].Props)
	}
	if _, ok := d.Ops[1].Props["text"]; ok {
		t.Fatalf("text must not be part of structural update: %v", d.Ops[1])
	}
	if !slices.Equal(d.Ops[1].Removed, []string{"fontSize"}) {
		t.Fatalf("expected fontSize removal, got %v", d.Ops[1].Removed)
	}
	if d.Ops[2].Props["src"] != "b.png" {
		t.Fatalf("expected opaque src change, got %v", d.Ops[2].Props)
	}
}

func TestDiffOrdersInsertsParentFirstAndDeletesChildFirst(t *testing.T) {
	base := baseline(t)
	edited := testsupport.Edit(t, base, func(m nodes.NodeMap) {
		testsupport.RemoveNode(m, "S2")
		m["S3"] = nodes.Node{ID: "S3", Type: "Columns", Parent: nodes.RootID, IsCanvas: true, Nodes: []string{"C1"}, Props: map[string]any{"columns": 2}}
		m["C1"] = nodes.Node{ID: "C1", Type: "Column", Parent: "S3", IsCanvas: true, Nodes: []string{"H1"}}
		m["H1"] = nodes.Node{ID: "H1", Type: "Heading", Parent: "C1", Props: map[string]any{"text": "Title", "level": 2}}
		root := m[nodes.RootID]
		root.Nodes = append(root.Nodes, "S3")
		m[nodes.RootID] = root
	})
	d, err := treediff.Compute(props.Default(), base, edited)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	want := []string{"S3", "C1", "H1", "B1", "B2", "B3", "S2"}
	if got := ids(d); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	insert := d.Ops[2]
	if insert.Kind != treediff.OpInsert || insert.ParentID != "C1" || insert.Props["level"] != 2 {
		t.Fatalf("unexpected heading insert %+v", insert)
	}
	if _, ok := insert.Props["text"]; ok {
		t.Fatalf("insert must not carry translatable props: %v", insert.Props)
	}
	if d.Ops[0].After != "S1" || d.Ops[0].Position != 1 {
		t.Fatalf("expected S3 anchored after S1, got %+v", d.Ops[0])
	}
}

func TestDiffReorderUsesMinimalMoves(t *testing.T) {
	base := baseline(t)
	edited := testsupport.Edit(t, base, func(m nodes.NodeMap) {
		testsupport.MoveNode(m, "B3", "S2", 0)
	})
	d, err := treediff.Compute(props.Default(), base, edited)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(d.Ops) != 1 {
		t.Fatalf("expected a single move, got %v", d.Ops)
	}
	op := d.Ops[0]
	if op.Kind != treediff.OpMove || op.NodeID != "B3" || op.Position != 0 || op.After != "" {
		t.Fatalf("unexpected move %+v", op)
	}
}

func TestDiffReparentEmitsMove(t *testing.T) {
	base := baseline(t)
	edited := testsupport.Edit(t, base, func(m nodes.NodeMap) {
		testsupport.MoveNode(m, "T1", "S2", 1)
	})
	d, err := treediff.Compute(props.Default(), base, edited)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(d.Ops) != 1 || d.Ops[0].Kind != treediff.OpMove || d.Ops[0].ParentID != "S2" || d.Ops[0].After != "B1" {
		t.Fatalf("unexpected ops %v", d.Ops)
	}
}

func TestDiffRejectsTypeChange(t *testing.T) {
	base := baseline(t)
	edited := testsupport.Edit(t, base, func(m nodes.NodeMap) {
		n := m["T1"]
		n.Type = "Heading"
		m["T1"] = n
	})
	_, err := treediff.Compute(props.Default(), base, edited)
	if !errors.Is(err, nodes.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if ie, _ := nodes.AsIntegrityError(err); ie.Code != nodes.CodeTypeChanged || ie.NodeID != "T1" {
		t.Fatalf("unexpected violation %+v", ie)
	}
}

func TestSeedGrowsBareRoot(t *testing.T) {
	source := baseline(t)
	d, err := treediff.Seed(props.Default(), source)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := d.Counts()[treediff.OpInsert]; got != source.Len()-1 {
		t.Fatalf("expected %d inserts, got %d", source.Len()-1, got)
	}
}

// Replaying a diff op by op must keep every intermediate tree valid and end
// on the edited structure.
func TestApplyReplaysWithoutTransientInvalidState(t *testing.T) {
	classifier := props.Default()
	scenarios := map[string]func(m nodes.NodeMap){
		"swap nesting": func(m nodes.NodeMap) {
			testsupport.MoveNode(m, "S2", nodes.RootID, 0)
			testsupport.MoveNode(m, "S1", "S2", 1)
		},
		"move out then delete container": func(m nodes.NodeMap) {
			testsupport.MoveNode(m, "B2", "S1", 0)
			testsupport.RemoveNode(m, "S2")
		},
		"reverse children": func(m nodes.NodeMap) {
			s2 := m["S2"]
			s2.Nodes = []string{"B3", "B2", "B1"}
			m["S2"] = s2
		},
		"promote leaf to canvas and nest": func(m nodes.NodeMap) {
			t1 := m["T1"]
			t1.IsCanvas = true
			m["T1"] = t1
			testsupport.MoveNode(m, "B1", "T1", 0)
			m["N1"] = nodes.Node{ID: "N1", Type: "Spacer", Parent: "T1", Props: map[string]any{"height": 4}}
			t1 = m["T1"]
			t1.Nodes = append(t1.Nodes, "N1")
			m["T1"] = t1
		},
		"demote canvas after emptying": func(m nodes.NodeMap) {
			testsupport.MoveNode(m, "T1", "S2", 3)
			testsupport.RemoveNode(m, "I1")
			s1 := m["S1"]
			s1.IsCanvas = false
			m["S1"] = s1
		},
	}

	for name, mutate := range scenarios {
		t.Run(name, func(t *testing.T) {
			base := baseline(t)
			edited := testsupport.Edit(t, base, mutate)
			d, err := treediff.Compute(classifier, base, edited)
			if err != nil {
				t.Fatalf("diff: %v", err)
			}
			current := base.Map()
			for _, op := range d.Ops {
				if _, err := treediff.Apply(current, op, edited); err != nil {
					t.Fatalf("apply %s: %v", op, err)
				}
				if _, err := nodes.Validate(current); err != nil {
					t.Fatalf("transient invalid state after %s: %v", op, err)
				}
			}
			replayed := testsupport.MustValidate(t, current)
			if !sameStructure(classifier, replayed, edited) {
				t.Fatalf("replay diverged\nops: %v\ngot:  %v\nwant: %v", d.Ops, replayed.PreOrder(), edited.PreOrder())
			}
		})
	}
}

func TestApplyIsIdempotentForDeletes(t *testing.T) {
	m := baseline(t).Map()
	op := treediff.Operation{Kind: treediff.OpDelete, NodeID: "S1"}
	first, err := treediff.Apply(m, op, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(first.Removed, []string{"T1", "I1", "S1"}) {
		t.Fatalf("expected cascade child-first, got %v", first.Removed)
	}
	second, err := treediff.Apply(m, op, nil)
	if err != nil || second.Changed {
		t.Fatalf("expected no-op second delete, got %+v %v", second, err)
	}
}

func TestApplyInsertRequiresParent(t *testing.T) {
	m := baseline(t).Map()
	_, err := treediff.Apply(m, treediff.Operation{Kind: treediff.OpInsert, NodeID: "X", ComponentType: "Text", ParentID: "ghost"}, nil)
	if !errors.Is(err, nodes.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func sameStructure(c props.Classifier, a, b *nodes.Tree) bool {
	if !slices.Equal(a.PreOrder(), b.PreOrder()) {
		return false
	}
	for _, id := range a.IDs() {
		left, _ := a.Node(id)
		right, _ := b.Node(id)
		if left.Parent != right.Parent || left.IsCanvas != right.IsCanvas || !slices.Equal(left.Nodes, right.Nodes) {
			return false
		}
		if !nodes.EqualValues(props.Shared(c, left.Type, left.Props), props.Shared(c, right.Type, right.Props)) {
			return false
		}
	}
	return true
}

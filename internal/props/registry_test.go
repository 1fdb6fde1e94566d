package props_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/props"
	"github.com/goliatone/go-cms-composer/pkg/testsupport"
)

func TestDefaultRegistryClassification(t *testing.T) {
	registry := props.Default()

	cases := []struct {
		component, prop string
		want            props.Kind
	}{
		{"Text", "text", props.Translatable},
		{"Text", "fontSize", props.Structural},
		{"Button", "label", props.Translatable},
		{"Button", "href", props.Structural},
		{"Image", "src", props.Opaque},
		{"Image", "alt", props.Translatable},
		{"List", "items", props.Translatable},
		{"Section", "padding", props.Structural},
		{"Text", "unheardOf", props.Structural},
		{"Carousel", "slides", props.Structural},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, registry.Classify(tc.component, tc.prop), "%s.%s", tc.component, tc.prop)
	}
}

func TestRegistryRejectsConflictsAndBlankTypes(t *testing.T) {
	_, err := props.NewRegistry(props.ComponentSpec{Type: " "})
	assert.ErrorIs(t, err, props.ErrComponentTypeRequired)

	_, err = props.NewRegistry(props.ComponentSpec{Type: "Badge", Structural: []string{"text"}, Translatable: []string{"text"}})
	assert.ErrorIs(t, err, props.ErrConflictingKind)
}

func TestRegistryWithExtendsWithoutMutating(t *testing.T) {
	base := props.Default()
	extended, err := base.With(props.ComponentSpec{Type: "Badge", Translatable: []string{"caption"}})
	require.NoError(t, err)

	assert.True(t, extended.Known("Badge"))
	assert.False(t, base.Known("Badge"))
	assert.Equal(t, props.Translatable, extended.Classify("Badge", "caption"))
}

func TestCheckRejectPolicy(t *testing.T) {
	registry := props.Default()
	known := testsupport.NewTree().
		Leaf(nodes.RootID, "T1", "Text", map[string]any{"text": "Hi", "fontSize": 12}).
		MustTree(t)
	require.NoError(t, registry.Check(known, props.PolicyReject))

	unknownProp := testsupport.NewTree().
		Leaf(nodes.RootID, "T1", "Text", map[string]any{"text": "Hi", "blink": true}).
		MustTree(t)
	assert.NoError(t, registry.Check(unknownProp, props.PolicyStructural))

	err := registry.Check(unknownProp, props.PolicyReject)
	ie, ok := nodes.AsIntegrityError(err)
	require.True(t, ok, "expected integrity error, got %v", err)
	assert.Equal(t, nodes.CodeUnknownProp, ie.Code)
	assert.Equal(t, "T1", ie.NodeID)

	unknownType := testsupport.NewTree().
		Leaf(nodes.RootID, "X1", "Marquee", nil).
		MustTree(t)
	ie, ok = nodes.AsIntegrityError(registry.Check(unknownType, props.PolicyReject))
	require.True(t, ok)
	assert.Equal(t, nodes.CodeUnknownType, ie.Code)
}

func TestSharedAndLocalizedSplit(t *testing.T) {
	registry := props.Default()
	values := map[string]any{"src": "a.png", "alt": "Boat", "width": 300}

	assert.Equal(t, map[string]any{"src": "a.png", "width": 300}, props.Shared(registry, "Image", values))
	assert.Equal(t, map[string]any{"alt": "Boat"}, props.Localized(registry, "Image", values))
}

func TestMapStringsWalksNestedValues(t *testing.T) {
	upper := func(_ context.Context, s string) (string, error) { return strings.ToUpper(s), nil }
	got, err := props.MapStrings(context.Background(), []any{"one", map[string]any{"label": "two", "count": 2}, ""}, upper)
	require.NoError(t, err)
	assert.Equal(t, []any{"ONE", map[string]any{"label": "TWO", "count": 2}, ""}, got)

	boom := errors.New("boom")
	_, err = props.MapStrings(context.Background(), "x", func(context.Context, string) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}

func TestBlankKeepsShape(t *testing.T) {
	assert.Equal(t, []any{"", map[string]any{"n": 1, "s": ""}}, props.Blank([]any{"a", map[string]any{"n": 1, "s": "b"}}))
}

func TestParsePolicyAndKind(t *testing.T) {
	policy, err := props.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, props.PolicyStructural, policy)

	_, err = props.ParsePolicy("ignore")
	assert.Error(t, err)

	kind, err := props.ParseKind("Opaque")
	require.NoError(t, err)
	assert.Equal(t, props.Opaque, kind)
}

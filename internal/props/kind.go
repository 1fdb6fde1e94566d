package props

import (
	"context"
	"fmt"
	"strings"
)

// Kind classifies how a prop behaves across locales.
type Kind string

const (
	// Structural props (layout, styling, links) are shared verbatim by every locale.
	Structural Kind = "structural"
	// Translatable props hold human-readable text authored per locale.
	Translatable Kind = "translatable"
	// Opaque props reference shared resources such as media URLs and ids.
	Opaque Kind = "opaque"
)

// Shared reports whether values of this kind are copied between locales.
func (k Kind) Shared() bool {
	return k != Translatable
}

// ParseKind maps configuration strings onto a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case Structural:
		return Structural, nil
	case Translatable:
		return Translatable, nil
	case Opaque:
		return Opaque, nil
	}
	return "", fmt.Errorf("props: unknown kind %q", value)
}

// Classifier resolves the kind of a prop for a component type.
type Classifier interface {
	Classify(componentType, prop string) Kind
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(componentType, prop string) Kind

func (f ClassifierFunc) Classify(componentType, prop string) Kind {
	return f(componentType, prop)
}

// Shared returns the structural and opaque props of a node.
func Shared(c Classifier, componentType string, values map[string]any) map[string]any {
	return filter(c, componentType, values, func(k Kind) bool { return k.Shared() })
}

// Localized returns the translatable props of a node.
func Localized(c Classifier, componentType string, values map[string]any) map[string]any {
	return filter(c, componentType, values, func(k Kind) bool { return k == Translatable })
}

func filter(c Classifier, componentType string, values map[string]any, keep func(Kind) bool) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		if keep(c.Classify(componentType, name)) {
			out[name] = value
		}
	}
	return out
}

// MapStrings rewrites every string leaf of a translatable value, descending
// into lists and objects so item labels and nested captions are covered.
// Non-string leaves are returned unchanged. Empty strings are not passed to fn.
func MapStrings(ctx context.Context, value any, fn func(context.Context, string) (string, error)) (any, error) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return v, nil
		}
		return fn(ctx, v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			mapped, err := MapStrings(ctx, v[i], fn)
			if err != nil {
				return nil, err
			}
			out[i] = mapped
		}
		return out, nil
	case []string:
		out := make([]string, len(v))
		for i := range v {
			mapped, err := MapStrings(ctx, v[i], fn)
			if err != nil {
				return nil, err
			}
			out[i], _ = mapped.(string)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			mapped, err := MapStrings(ctx, item, fn)
			if err != nil {
				return nil, err
			}
			out[key] = mapped
		}
		return out, nil
	default:
		return value, nil
	}
}

// Blank returns the empty counterpart of a translatable value, keeping list
// and object shape so renderers still see the expected structure.
func Blank(value any) any {
	switch v := value.(type) {
	case string:
		return ""
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = Blank(v[i])
		}
		return out
	case []string:
		return make([]string, len(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Blank(item)
		}
		return out
	default:
		return value
	}
}

package props

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-cms-composer/internal/nodes"
)

var (
	ErrComponentTypeRequired = errors.New("props: component type required")
	ErrConflictingKind       = errors.New("props: prop declared with conflicting kinds")
)

// Policy decides what happens to props the registry does not know.
type Policy string

const (
	// PolicyStructural classifies unknown props as structural.
	PolicyStructural Policy = "structural"
	// PolicyReject fails trees that use unregistered types or props.
	PolicyReject Policy = "reject"
)

// ComponentSpec declares the props of one component type. Props not listed
// under Translatable or Opaque but listed under Structural are known; props
// listed nowhere are unknown.
type ComponentSpec struct {
	Type         string
	Structural   []string
	Translatable []string
	Opaque       []string
}

// Registry is the closed set of component types known at startup. It is
// immutable once built and safe for concurrent use.
type Registry struct {
	components map[string]map[string]Kind
}

var _ Classifier = (*Registry)(nil)

// NewRegistry builds a registry from the supplied specs.
func NewRegistry(specs ...ComponentSpec) (*Registry, error) {
	return (&Registry{}).With(specs...)
}

// MustRegistry is NewRegistry for static tables.
func MustRegistry(specs ...ComponentSpec) *Registry {
	registry, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return registry
}

// With returns a registry extended by specs. A spec for an existing type
// replaces it.
func (r *Registry) With(specs ...ComponentSpec) (*Registry, error) {
	components := make(map[string]map[string]Kind, len(r.components)+len(specs))
	maps.Copy(components, r.components)
	for _, spec := range specs {
		typ := strings.TrimSpace(spec.Type)
		if typ == "" {
			return nil, ErrComponentTypeRequired
		}
		entry := map[string]Kind{}
		assign := func(kind Kind, names []string) error {
			for _, name := range names {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				if existing, ok := entry[name]; ok && existing != kind {
					return fmt.Errorf("%w: %s.%s is %s and %s", ErrConflictingKind, typ, name, existing, kind)
				}
				entry[name] = kind
			}
			return nil
		}
		if err := assign(Structural, spec.Structural); err != nil {
			return nil, err
		}
		if err := assign(Translatable, spec.Translatable); err != nil {
			return nil, err
		}
		if err := assign(Opaque, spec.Opaque); err != nil {
			return nil, err
		}
		components[typ] = entry
	}
	return &Registry{components: components}, nil
}

// Classify returns the kind of prop on componentType. Unknown types and props
// are structural.
func (r *Registry) Classify(componentType, prop string) Kind {
	if kind, ok := r.Lookup(componentType, prop); ok {
		return kind
	}
	return Structural
}

// Lookup reports the declared kind of prop, if any.
func (r *Registry) Lookup(componentType, prop string) (Kind, bool) {
	if r == nil {
		return "", false
	}
	kind, ok := r.components[componentType][prop]
	return kind, ok
}

// Known reports whether componentType is registered.
func (r *Registry) Known(componentType string) bool {
	if r == nil {
		return false
	}
	_, ok := r.components[componentType]
	return ok
}

// Types lists registered component types in lexical order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.components))
}

// Check enforces policy over every node of tree. PolicyStructural always
// passes; PolicyReject reports the first unregistered type or prop.
func (r *Registry) Check(tree *nodes.Tree, policy Policy) error {
	if policy != PolicyReject {
		return nil
	}
	for _, id := range tree.IDs() {
		node, _ := tree.Node(id)
		if !r.Known(node.Type) {
			return &nodes.IntegrityError{NodeID: id, Code: nodes.CodeUnknownType, Detail: fmt.Sprintf("component type %q is not registered", node.Type)}
		}
		for _, name := range slices.Sorted(maps.Keys(node.Props)) {
			if _, ok := r.Lookup(node.Type, name); !ok {
				return &nodes.IntegrityError{NodeID: id, Code: nodes.CodeUnknownProp, Detail: fmt.Sprintf("prop %q is not declared for %s", name, node.Type)}
			}
		}
	}
	return nil
}

// ParsePolicy maps configuration strings onto a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyStructural:
		return PolicyStructural, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("props: unknown policy %q", value)
}
